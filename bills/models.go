// Package bills implements owner-scoped bill records: validation, storage and
// the access-control contract that keeps every operation inside the
// authenticated owner's slice of the data.
package bills

import "time"

// Status enumerates the lifecycle states of a bill.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusOverdue   = "overdue"
	StatusCancelled = "cancelled"
)

// Bill is an owned financial-obligation record. Amount is backed by
// NUMERIC(19,5) in the store; DueDate is the bare calendar date in YYYY-MM-DD
// form, independent of any server timezone.
type Bill struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount" example:"129.99"`
	DueDate   string    `json:"due_date" example:"2025-03-01"`
	Category  string    `json:"category"`
	Status    string    `json:"status" example:"pending"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
