package bills

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/user/billtrack-go/apperror"
	"github.com/user/billtrack-go/auth"
)

const (
	defaultPage  = 1
	defaultLimit = 10

	// notifyTimeout bounds the detached notification dispatch; the request
	// that triggered it has already been answered by then.
	notifyTimeout = 15 * time.Second
)

// Notifier dispatches a notification about a newly created bill. Failures
// are logged by the caller and never surface to the API client.
type Notifier interface {
	SendBillCreated(ctx context.Context, bill *Bill, owner *auth.User) error
}

// UserFinder re-resolves a user id to a full user record. The bill service
// needs it for notification rendering; token verification itself never does.
type UserFinder interface {
	FindByID(ctx context.Context, id int) (*auth.User, error)
}

// BillService enforces the access-control contract: every operation is
// scoped to the verified caller, and update/delete re-resolve the target by
// (id, owner) so a foreign bill behaves exactly like a missing one.
type BillService struct {
	store     BillStore
	users     UserFinder
	notifier  Notifier
	validator *Validator
}

// NewBillService creates a new BillService.
func NewBillService(store BillStore, users UserFinder, notifier Notifier) *BillService {
	return &BillService{
		store:     store,
		users:     users,
		notifier:  notifier,
		validator: NewValidator(),
	}
}

// Create validates the payload, persists a bill owned by the caller, and
// hands the notification to a goroutine. Creation never fails or blocks
// because of notification problems.
func (s *BillService) Create(ctx context.Context, userID int, req CreateBillRequest) (*Bill, error) {
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}

	bill, err := s.store.Insert(ctx, userID, req)
	if err != nil {
		return nil, apperror.NewStorageError("failed to create bill", err)
	}

	log.Printf("bill created: id=%d name=%q user=%d", bill.ID, bill.Name, userID)
	s.dispatchNotification(bill)

	return bill, nil
}

// dispatchNotification sends the creation email on its own goroutine with a
// detached context: the triggering request does not wait for the outcome.
func (s *BillService) dispatchNotification(bill *Bill) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		owner, err := s.users.FindByID(ctx, bill.UserID)
		if err != nil {
			log.Printf("bill notification skipped: failed to resolve owner %d: %v", bill.UserID, err)
			return
		}
		if err := s.notifier.SendBillCreated(ctx, bill, owner); err != nil {
			log.Printf("failed to send bill notification: %v",
				apperror.NewNotificationError("bill created notification", err))
		}
	}()
}

// List returns one page of the caller's bills, ordered by due date
// ascending, with total and total-page counts.
func (s *BillService) List(ctx context.Context, userID int, filter ListFilter) (*ListResponse, error) {
	if filter.Page < 1 {
		filter.Page = defaultPage
	}
	if filter.Limit < 1 {
		filter.Limit = defaultLimit
	}

	billsPage, total, err := s.store.FindPage(ctx, userID, filter)
	if err != nil {
		return nil, apperror.NewStorageError("failed to list bills", err)
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	return &ListResponse{
		Bills: billsPage,
		Pagination: Pagination{
			Total:      total,
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalPages: totalPages,
		},
	}, nil
}

// Update applies a sparse update to an owned bill. Only fields present in
// the request change; the rest are left untouched.
func (s *BillService) Update(ctx context.Context, userID, billID int, req UpdateBillRequest) (*Bill, error) {
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}

	if _, err := s.store.FindByIDAndOwner(ctx, billID, userID); err != nil {
		return nil, s.mapStoreError(err, "failed to load bill")
	}

	bill, err := s.store.Update(ctx, billID, userID, req)
	if err != nil {
		return nil, s.mapStoreError(err, "failed to update bill")
	}

	log.Printf("bill updated: id=%d user=%d", bill.ID, userID)
	return bill, nil
}

// Delete removes an owned bill permanently.
func (s *BillService) Delete(ctx context.Context, userID, billID int) error {
	if _, err := s.store.FindByIDAndOwner(ctx, billID, userID); err != nil {
		return s.mapStoreError(err, "failed to load bill")
	}

	if err := s.store.Delete(ctx, billID, userID); err != nil {
		return s.mapStoreError(err, "failed to delete bill")
	}

	log.Printf("bill deleted: id=%d user=%d", billID, userID)
	return nil
}

// mapStoreError translates store sentinels into API errors. Not-found covers
// both a missing id and a foreign owner; the shapes are identical on purpose.
func (s *BillService) mapStoreError(err error, message string) error {
	if errors.Is(err, ErrBillNotFound) {
		return apperror.NewNotFoundError("Bill not found")
	}
	return apperror.NewStorageError(message, err)
}
