// Package health exposes liveness and database connectivity endpoints.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/billtrack-go/apperror"
	"github.com/user/billtrack-go/auth"
)

// Handlers provides the health-check HTTP handlers.
type Handlers struct {
	db      *pgxpool.Pool
	started time.Time
}

// NewHandlers creates health handlers bound to the application pool.
func NewHandlers(db *pgxpool.Pool) *Handlers {
	return &Handlers{db: db, started: time.Now()}
}

type statusResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Uptime    float64 `json:"uptime"`
	Timestamp string  `json:"timestamp"`
}

// HandleStatus godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} health.statusResponse
// @Router /health [get]
func (h *Handlers) HandleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusOK, statusResponse{
			Success:   true,
			Message:   "Server is running",
			Uptime:    time.Since(h.started).Seconds(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// HandleDBCheck godoc
// @Summary Database connectivity check
// @Tags health
// @Produce json
// @Success 200 {object} auth.SuccessResponse
// @Failure 500 {object} apperror.ErrorResponse
// @Router /health/db [get]
func (h *Handlers) HandleDBCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			auth.WriteError(w, r, apperror.NewStorageError("Database connection failed", err))
			return
		}
		auth.WriteSuccess(w, http.StatusOK, "Database connection successful", nil)
	}
}
