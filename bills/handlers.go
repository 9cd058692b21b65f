package bills

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/billtrack-go/apperror"
	"github.com/user/billtrack-go/auth"
)

// Handlers provides the HTTP surface for bill operations. All routes are
// mounted behind the JWT middleware, so a verified identity is always
// present in the request context.
type Handlers struct {
	service *BillService
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *BillService) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the bill routes on the given router.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleCreate())
	r.Get("/", h.HandleList())
	r.Patch("/{id}", h.HandleUpdate())
	r.Delete("/{id}", h.HandleDelete())
}

// callerID extracts the verified identity or reports a middleware wiring
// problem.
func callerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewMissingTokenError("Authentication required"))
		return 0, false
	}
	return identity.UserID, true
}

// billID parses the {id} URL parameter.
func billID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		auth.WriteError(w, r, apperror.NewNotFoundError("Bill not found"))
		return 0, false
	}
	return id, true
}

// HandleCreate godoc
// @Summary Create a bill
// @Description Creates a bill owned by the authenticated user and dispatches an email notification.
// @Tags bills
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param billBody body bills.CreateBillRequest true "Bill fields"
// @Success 201 {object} auth.SuccessResponse "Bill created"
// @Failure 400 {object} apperror.ErrorResponse "Validation error with per-field messages"
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/v1/bills [post]
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}

		var req CreateBillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewValidationError("Invalid request body", nil))
			return
		}
		defer r.Body.Close()

		bill, err := h.service.Create(r.Context(), userID, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteSuccess(w, http.StatusCreated, "Bill created successfully", bill)
	}
}

// HandleList godoc
// @Summary List bills
// @Description Lists the authenticated user's bills with optional filters and pagination, ordered by due date.
// @Tags bills
// @Produce json
// @Security BearerAuth
// @Param dueBefore query string false "Inclusive due-date upper bound (YYYY-MM-DD)"
// @Param category query string false "Exact category match"
// @Param status query string false "Exact status match"
// @Param page query int false "1-based page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} auth.SuccessResponse "Bills retrieved"
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/v1/bills [get]
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		filter := ListFilter{
			DueBefore: q.Get("dueBefore"),
			Category:  q.Get("category"),
			Status:    q.Get("status"),
		}
		if page, err := strconv.Atoi(q.Get("page")); err == nil {
			filter.Page = page
		}
		if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
			filter.Limit = limit
		}

		resp, err := h.service.List(r.Context(), userID, filter)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteSuccess(w, http.StatusOK, "Bills retrieved successfully", resp)
	}
}

// HandleUpdate godoc
// @Summary Update a bill
// @Description Applies a sparse update to an owned bill; fields absent from the request are left unchanged.
// @Tags bills
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bill ID"
// @Param billBody body bills.UpdateBillRequest true "Fields to change"
// @Success 200 {object} auth.SuccessResponse "Bill updated"
// @Failure 400 {object} apperror.ErrorResponse "Validation error with per-field messages"
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Failure 404 {object} apperror.ErrorResponse "No owned bill with that id"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/v1/bills/{id} [patch]
func (h *Handlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		id, ok := billID(w, r)
		if !ok {
			return
		}

		var req UpdateBillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewValidationError("Invalid request body", nil))
			return
		}
		defer r.Body.Close()

		bill, err := h.service.Update(r.Context(), userID, id, req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteSuccess(w, http.StatusOK, "Bill updated successfully", bill)
	}
}

// HandleDelete godoc
// @Summary Delete a bill
// @Description Permanently removes an owned bill.
// @Tags bills
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bill ID"
// @Success 200 {object} auth.SuccessResponse "Bill deleted"
// @Failure 401 {object} apperror.ErrorResponse "Missing or invalid token"
// @Failure 404 {object} apperror.ErrorResponse "No owned bill with that id"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/v1/bills/{id} [delete]
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		id, ok := billID(w, r)
		if !ok {
			return
		}

		if err := h.service.Delete(r.Context(), userID, id); err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteSuccess(w, http.StatusOK, "Bill deleted successfully", nil)
	}
}
