package bills

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/billtrack-go/apperror"
	"github.com/user/billtrack-go/auth"
)

// fakeBillStore is an in-memory BillStore for service tests.
type fakeBillStore struct {
	bills  map[int]*Bill
	nextID int
}

func newFakeBillStore() *fakeBillStore {
	return &fakeBillStore{bills: make(map[int]*Bill)}
}

func (f *fakeBillStore) addBill(userID int, name, dueDate string, amount float64) *Bill {
	f.nextID++
	now := time.Now()
	bill := &Bill{
		ID:        f.nextID,
		UserID:    userID,
		Name:      name,
		Amount:    amount,
		DueDate:   dueDate,
		Category:  "Utilities",
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.bills[bill.ID] = bill
	return bill
}

func (f *fakeBillStore) Insert(_ context.Context, userID int, req CreateBillRequest) (*Bill, error) {
	status := req.Status
	if status == "" {
		status = StatusPending
	}
	f.nextID++
	now := time.Now()
	bill := &Bill{
		ID:        f.nextID,
		UserID:    userID,
		Name:      req.Name,
		Amount:    *req.Amount,
		DueDate:   req.DueDate,
		Category:  req.Category,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.bills[bill.ID] = bill
	copied := *bill
	return &copied, nil
}

func (f *fakeBillStore) FindPage(_ context.Context, userID int, filter ListFilter) ([]Bill, int, error) {
	matched := []Bill{}
	for id := 1; id <= f.nextID; id++ {
		b, ok := f.bills[id]
		if !ok || b.UserID != userID {
			continue
		}
		if filter.DueBefore != "" && b.DueDate > filter.DueBefore {
			continue
		}
		if filter.Category != "" && b.Category != filter.Category {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		matched = append(matched, *b)
	}

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeBillStore) FindByIDAndOwner(_ context.Context, id, userID int) (*Bill, error) {
	b, ok := f.bills[id]
	if !ok || b.UserID != userID {
		return nil, ErrBillNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBillStore) Update(_ context.Context, id, userID int, req UpdateBillRequest) (*Bill, error) {
	b, ok := f.bills[id]
	if !ok || b.UserID != userID {
		return nil, ErrBillNotFound
	}
	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Amount != nil {
		b.Amount = *req.Amount
	}
	if req.DueDate != nil {
		b.DueDate = *req.DueDate
	}
	if req.Category != nil {
		b.Category = *req.Category
	}
	if req.Status != nil {
		b.Status = *req.Status
	}
	b.UpdatedAt = time.Now()
	copied := *b
	return &copied, nil
}

func (f *fakeBillStore) Delete(_ context.Context, id, userID int) error {
	b, ok := f.bills[id]
	if !ok || b.UserID != userID {
		return ErrBillNotFound
	}
	delete(f.bills, id)
	return nil
}

// fakeNotifier records dispatched notifications and signals each send so
// tests can wait for the detached goroutine.
type fakeNotifier struct {
	sent chan *Bill
	err  error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan *Bill, 1)}
}

func (f *fakeNotifier) SendBillCreated(_ context.Context, bill *Bill, _ *auth.User) error {
	f.sent <- bill
	return f.err
}

type fakeUserFinder struct {
	users map[int]*auth.User
	err   error
}

func (f *fakeUserFinder) FindByID(_ context.Context, id int) (*auth.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

func billServiceFixture() (*BillService, *fakeBillStore, *fakeNotifier) {
	store := newFakeBillStore()
	notifier := newFakeNotifier()
	finder := &fakeUserFinder{users: map[int]*auth.User{
		1: {ID: 1, Email: "owner@example.com"},
		2: {ID: 2, Email: "other@example.com"},
	}}
	return NewBillService(store, finder, notifier), store, notifier
}

func waitForNotification(t *testing.T, notifier *fakeNotifier) *Bill {
	t.Helper()
	select {
	case bill := <-notifier.sent:
		return bill
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never dispatched")
		return nil
	}
}

func validCreateRequest() CreateBillRequest {
	return CreateBillRequest{
		Name:     "Electricity",
		Amount:   floatPtr(129.99),
		DueDate:  "2025-03-01",
		Category: "Utilities",
	}
}

func TestCreatePersistsAndNotifies(t *testing.T) {
	svc, store, notifier := billServiceFixture()

	bill, err := svc.Create(context.Background(), 1, validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, bill.UserID)
	assert.Equal(t, StatusPending, bill.Status, "status defaults to pending")
	require.Len(t, store.bills, 1)

	notified := waitForNotification(t, notifier)
	assert.Equal(t, bill.ID, notified.ID)
}

func TestCreateSucceedsWhenNotifierFails(t *testing.T) {
	svc, store, notifier := billServiceFixture()
	notifier.err = errors.New("smtp unreachable")

	bill, err := svc.Create(context.Background(), 1, validCreateRequest())
	require.NoError(t, err, "notification failure must not surface")
	assert.NotZero(t, bill.ID)
	require.Len(t, store.bills, 1)

	waitForNotification(t, notifier)
}

func TestCreateValidationFailureIsNotPersisted(t *testing.T) {
	svc, store, _ := billServiceFixture()

	req := validCreateRequest()
	req.Amount = floatPtr(-1)
	_, err := svc.Create(context.Background(), 1, req)
	require.Error(t, err)
	assert.True(t, apperror.IsValidationError(err))
	assert.Empty(t, store.bills, "invalid payload must not reach the store")
}

func TestListPagination(t *testing.T) {
	svc, store, _ := billServiceFixture()
	for i := 0; i < 25; i++ {
		store.addBill(1, "Bill", "2025-06-01", 10)
	}

	resp, err := svc.List(context.Background(), 1, ListFilter{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, resp.Bills, 5, "last page holds the remainder")
	assert.Equal(t, 25, resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.Page)
	assert.Equal(t, 10, resp.Pagination.Limit)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}

func TestListDefaultsAndEmptyPage(t *testing.T) {
	svc, store, _ := billServiceFixture()
	store.addBill(1, "Rent", "2025-06-01", 900)

	resp, err := svc.List(context.Background(), 1, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 10, resp.Pagination.Limit)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
	assert.Len(t, resp.Bills, 1)

	// A page past the end is empty but well-formed.
	past, err := svc.List(context.Background(), 1, ListFilter{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, past.Bills)
	assert.Equal(t, 1, past.Pagination.Total)
}

func TestListIsOwnerScoped(t *testing.T) {
	svc, store, _ := billServiceFixture()
	store.addBill(1, "Mine", "2025-06-01", 10)
	store.addBill(2, "Theirs", "2025-06-01", 20)

	resp, err := svc.List(context.Background(), 1, ListFilter{})
	require.NoError(t, err)
	require.Len(t, resp.Bills, 1)
	assert.Equal(t, "Mine", resp.Bills[0].Name)
}

func TestUpdateSparseFields(t *testing.T) {
	svc, store, _ := billServiceFixture()
	bill := store.addBill(1, "Internet", "2025-06-01", 49.5)

	updated, err := svc.Update(context.Background(), 1, bill.ID, UpdateBillRequest{
		Amount: floatPtr(59.5),
		Status: strPtr(StatusPaid),
	})
	require.NoError(t, err)
	assert.Equal(t, 59.5, updated.Amount)
	assert.Equal(t, StatusPaid, updated.Status)
	assert.Equal(t, "Internet", updated.Name, "absent fields stay unchanged")
	assert.Equal(t, "2025-06-01", updated.DueDate)
}

func TestUpdateForeignBillLooksMissing(t *testing.T) {
	svc, store, _ := billServiceFixture()
	theirs := store.addBill(2, "Theirs", "2025-06-01", 20)

	_, errForeign := svc.Update(context.Background(), 1, theirs.ID, UpdateBillRequest{Amount: floatPtr(1)})
	_, errMissing := svc.Update(context.Background(), 1, 9999, UpdateBillRequest{Amount: floatPtr(1)})

	require.Error(t, errForeign)
	require.Error(t, errMissing)
	assert.True(t, apperror.IsNotFound(errForeign))
	assert.True(t, apperror.IsNotFound(errMissing))
	assert.Equal(t, errForeign.Error(), errMissing.Error())
	assert.Equal(t, 20.0, store.bills[theirs.ID].Amount, "foreign bill untouched")
}

func TestUpdateInvalidFieldRejected(t *testing.T) {
	svc, store, _ := billServiceFixture()
	bill := store.addBill(1, "Water", "2025-06-01", 30)

	_, err := svc.Update(context.Background(), 1, bill.ID, UpdateBillRequest{Status: strPtr("late")})
	require.Error(t, err)
	assert.True(t, apperror.IsValidationError(err))
	assert.Equal(t, StatusPending, store.bills[bill.ID].Status)
}

func TestDeleteOwnedBill(t *testing.T) {
	svc, store, _ := billServiceFixture()
	bill := store.addBill(1, "Gym", "2025-06-01", 25)

	require.NoError(t, svc.Delete(context.Background(), 1, bill.ID))
	assert.Empty(t, store.bills)
}

func TestDeleteForeignBillLooksMissing(t *testing.T) {
	svc, store, _ := billServiceFixture()
	theirs := store.addBill(2, "Theirs", "2025-06-01", 20)

	errForeign := svc.Delete(context.Background(), 1, theirs.ID)
	errMissing := svc.Delete(context.Background(), 1, 9999)

	require.Error(t, errForeign)
	require.Error(t, errMissing)
	assert.True(t, apperror.IsNotFound(errForeign))
	assert.True(t, apperror.IsNotFound(errMissing))
	require.Len(t, store.bills, 1, "foreign bill survives")
}
