package bills

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBillNotFound is returned when no bill matches an (id, owner) pair. A
// bill owned by someone else and a bill that does not exist are deliberately
// indistinguishable.
var ErrBillNotFound = errors.New("bill not found")

// BillStore persists bill records. Every read and write is parameterized by
// the owning user id; no unscoped access path exists.
type BillStore interface {
	Insert(ctx context.Context, userID int, req CreateBillRequest) (*Bill, error)
	FindPage(ctx context.Context, userID int, filter ListFilter) ([]Bill, int, error)
	FindByIDAndOwner(ctx context.Context, id, userID int) (*Bill, error)
	Update(ctx context.Context, id, userID int, req UpdateBillRequest) (*Bill, error)
	Delete(ctx context.Context, id, userID int) error
}

// PostgresBillStore is the pgx-backed BillStore.
type PostgresBillStore struct {
	db *pgxpool.Pool
}

// NewPostgresBillStore creates a BillStore backed by the given pool.
func NewPostgresBillStore(db *pgxpool.Pool) *PostgresBillStore {
	return &PostgresBillStore{db: db}
}

const billColumns = `id, user_id, name, amount, due_date, category, status, created_at, updated_at`

// scanBill reads one bill row. The due date comes back as a DATE and is
// reduced to its literal calendar form, so the stored date round-trips
// regardless of the server timezone.
func scanBill(row pgx.Row) (*Bill, error) {
	var bill Bill
	var dueDate time.Time
	err := row.Scan(
		&bill.ID,
		&bill.UserID,
		&bill.Name,
		&bill.Amount,
		&dueDate,
		&bill.Category,
		&bill.Status,
		&bill.CreatedAt,
		&bill.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}
	bill.DueDate = dueDate.Format("2006-01-02")
	return &bill, nil
}

// Insert persists a new bill owned by userID. Status defaults to pending
// when absent.
func (s *PostgresBillStore) Insert(ctx context.Context, userID int, req CreateBillRequest) (*Bill, error) {
	status := req.Status
	if status == "" {
		status = StatusPending
	}

	query := `INSERT INTO bills (user_id, name, amount, due_date, category, status)
	          VALUES ($1, $2, $3, $4::date, $5, $6)
	          RETURNING ` + billColumns
	return scanBill(s.db.QueryRow(ctx, query,
		userID, req.Name, *req.Amount, req.DueDate, req.Category, status,
	))
}

// buildFilterClauses translates a ListFilter into WHERE clauses. The owner
// scope is always the first clause.
func buildFilterClauses(userID int, filter ListFilter) ([]string, []interface{}) {
	clauses := []string{"user_id = $1"}
	args := []interface{}{userID}

	if filter.DueBefore != "" {
		args = append(args, filter.DueBefore)
		clauses = append(clauses, fmt.Sprintf("due_date <= $%d::date", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	return clauses, args
}

// FindPage returns one page of the caller's bills ordered by due date
// ascending, plus the total count of matches.
func (s *PostgresBillStore) FindPage(ctx context.Context, userID int, filter ListFilter) ([]Bill, int, error) {
	clauses, args := buildFilterClauses(userID, filter)
	where := strings.Join(clauses, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM bills WHERE ` + where
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	pageQuery := fmt.Sprintf(
		`SELECT %s FROM bills WHERE %s ORDER BY due_date ASC LIMIT $%d OFFSET $%d`,
		billColumns, where, len(args)-1, len(args),
	)

	rows, err := s.db.Query(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bills := []Bill{}
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		bills = append(bills, *bill)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return bills, total, nil
}

// FindByIDAndOwner resolves a bill scoped by owner.
func (s *PostgresBillStore) FindByIDAndOwner(ctx context.Context, id, userID int) (*Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bills WHERE id = $1 AND user_id = $2`
	return scanBill(s.db.QueryRow(ctx, query, id, userID))
}

// Update applies only the fields present in the request, building the SET
// list dynamically. The WHERE clause stays owner-scoped even though the
// service resolves the bill first.
func (s *PostgresBillStore) Update(ctx context.Context, id, userID int, req UpdateBillRequest) (*Bill, error) {
	var setClauses []string
	var args []interface{}

	add := func(expr string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf(expr, len(args)))
	}

	if req.Name != nil {
		add("name = $%d", *req.Name)
	}
	if req.Amount != nil {
		add("amount = $%d", *req.Amount)
	}
	if req.DueDate != nil {
		add("due_date = $%d::date", *req.DueDate)
	}
	if req.Category != nil {
		add("category = $%d", *req.Category)
	}
	if req.Status != nil {
		add("status = $%d", *req.Status)
	}

	if len(setClauses) == 0 {
		return s.FindByIDAndOwner(ctx, id, userID)
	}
	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, id, userID)
	query := fmt.Sprintf(
		`UPDATE bills SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), len(args)-1, len(args), billColumns,
	)

	return scanBill(s.db.QueryRow(ctx, query, args...))
}

// Delete removes a bill permanently. No soft-delete, no tombstone.
func (s *PostgresBillStore) Delete(ctx context.Context, id, userID int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM bills WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}
