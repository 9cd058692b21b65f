package bills

// CreateBillRequest is the payload for bill creation. Every field is
// required except status, which defaults to pending. Amount is a pointer so
// an absent field is distinguishable from an explicit zero.
type CreateBillRequest struct {
	Name     string   `json:"name" validate:"required,min=3,max=255" example:"Electricity"`
	Amount   *float64 `json:"amount" validate:"required,gt=0" example:"129.99"`
	DueDate  string   `json:"due_date" validate:"required,billdate" example:"2025-03-01"`
	Category string   `json:"category" validate:"required,min=1,max=100" example:"Utilities"`
	Status   string   `json:"status,omitempty" validate:"omitempty,oneof=pending paid overdue cancelled" example:"pending"`
}

// UpdateBillRequest is the payload for a sparse update: every field is
// optional, but any field present must satisfy its constraint. Nil pointers
// mean "leave unchanged".
type UpdateBillRequest struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Amount   *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	DueDate  *string  `json:"due_date,omitempty" validate:"omitempty,billdate"`
	Category *string  `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Status   *string  `json:"status,omitempty" validate:"omitempty,oneof=pending paid overdue cancelled"`
}

// ListFilter carries the optional list filters and pagination parameters.
// Page is 1-based.
type ListFilter struct {
	DueBefore string // inclusive upper bound on due date, YYYY-MM-DD
	Category  string // exact match
	Status    string // exact match
	Page      int
	Limit     int
}

// Pagination describes the page returned by a list call.
type Pagination struct {
	Total      int `json:"total" example:"25"`
	Page       int `json:"page" example:"3"`
	Limit      int `json:"limit" example:"10"`
	TotalPages int `json:"totalPages" example:"3"`
}

// ListResponse is the payload for a bill listing.
type ListResponse struct {
	Bills      []Bill     `json:"bills"`
	Pagination Pagination `json:"pagination"`
}
