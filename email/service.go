// Package email is the notification collaborator: it renders the
// bill-created message and dispatches it through SMTP, or, in mock mode,
// logs the rendered message instead. Mock mode exercises the full rendering
// path so environments without mail infrastructure still see what would have
// been sent.
package email

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/user/billtrack-go/auth"
	"github.com/user/billtrack-go/bills"
	"github.com/user/billtrack-go/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// sender abstracts the SMTP dialer so tests can substitute it.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Service renders and dispatches notification emails. Templates are parsed
// once at construction; there is no package-level mutable state.
type Service struct {
	cfg         config.MailConfig
	billCreated *template.Template
	dialer      sender
}

// billCreatedData is the template payload for the bill-created message.
type billCreatedData struct {
	UserName        string
	BillName        string
	BillAmount      string
	BillDueDate     string
	BillCategory    string
	BillStatusUpper string
	CurrentYear     int
}

// NewService creates the email service. In mock mode no dialer is
// constructed at all.
func NewService(cfg config.MailConfig) (*Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/bill_created.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	svc := &Service{cfg: cfg, billCreated: tmpl}
	if cfg.MockMode {
		log.Println("email service running in MOCK mode - emails will be logged instead of sent")
	} else {
		svc.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return svc, nil
}

// SendBillCreated renders and dispatches the bill-created notification to the
// owning user.
func (s *Service) SendBillCreated(ctx context.Context, bill *bills.Bill, owner *auth.User) error {
	data := billCreatedData{
		UserName:        ownerName(owner),
		BillName:        bill.Name,
		BillAmount:      fmt.Sprintf("%.2f", bill.Amount),
		BillDueDate:     longDate(bill.DueDate),
		BillCategory:    bill.Category,
		BillStatusUpper: strings.ToUpper(bill.Status),
		CurrentYear:     time.Now().Year(),
	}

	var html strings.Builder
	if err := s.billCreated.Execute(&html, data); err != nil {
		return fmt.Errorf("failed to render bill notification: %w", err)
	}

	subject := fmt.Sprintf("New Bill Created: %s", bill.Name)
	text := renderText(data)

	if s.cfg.MockMode {
		log.Printf("\n========== MOCK EMAIL ==========\nFrom: %s\nTo: %s\nSubject: %s\n------- TEXT CONTENT -------\n%s\n================================\n",
			s.cfg.From, owner.Email, subject, text)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", owner.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html.String())

	// gomail has no context support; honor cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email notification: %w", err)
	}

	log.Printf("bill notification sent to %s", owner.Email)
	return nil
}

// renderText builds the plain-text alternative of the bill-created message.
func renderText(data billCreatedData) string {
	return fmt.Sprintf(`New Bill Created

Hello %s,

A new bill has been created in your BillTrack account.

Bill Details:
- Name: %s
- Amount: $%s
- Due Date: %s
- Category: %s
- Status: %s

Please ensure you have sufficient funds available by the due date.

---
This is an automated message from BillTrack
(c) %d BillTrack. All rights reserved.
`, data.UserName, data.BillName, data.BillAmount, data.BillDueDate,
		data.BillCategory, data.BillStatusUpper, data.CurrentYear)
}

// longDate renders a YYYY-MM-DD date in long human form ("March 1, 2025").
// An unparseable value falls back to the raw string.
func longDate(due string) string {
	d, err := time.Parse("2006-01-02", due)
	if err != nil {
		return due
	}
	return d.Format("January 2, 2006")
}

func ownerName(owner *auth.User) string {
	if owner.Name != nil && *owner.Name != "" {
		return *owner.Name
	}
	return owner.Email
}
