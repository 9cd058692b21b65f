package auth

import (
	"encoding/json"
	"net/http"

	"github.com/user/billtrack-go/apperror"
)

// Handlers wraps the AuthService to provide HTTP handlers.
type Handlers struct {
	service *AuthService
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *AuthService) *Handlers {
	return &Handlers{service: service}
}

// SuccessResponse is the JSON envelope for successful responses.
type SuccessResponse struct {
	Success bool        `json:"success" example:"true"`
	Message string      `json:"message" example:"Login successful"`
	Data    interface{} `json:"data,omitempty"`
}

// HandleLogin godoc
// @Summary User Login
// @Description Verifies credentials and returns a session token, a refresh token, and the user.
// @Tags auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "User login credentials"
// @Success 200 {object} auth.SuccessResponse "Login successful"
// @Failure 400 {object} apperror.ErrorResponse "Missing email or password"
// @Failure 401 {object} apperror.ErrorResponse "Invalid credentials"
// @Failure 403 {object} apperror.ErrorResponse "Account disabled or locked"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/v1/auth/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewMissingCredentialsError("Invalid request body"))
			return
		}
		defer r.Body.Close()

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteSuccess(w, http.StatusOK, "Login successful", resp)
	}
}

// HandleRegister godoc
// @Summary User Registration
// @Description Registers a new user. The password is hashed before it is stored.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "User registration details"
// @Success 201 {object} auth.SuccessResponse "User created"
// @Failure 400 {object} apperror.ErrorResponse "Missing email or password"
// @Failure 409 {object} apperror.ErrorResponse "Email already registered"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/v1/auth/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewMissingCredentialsError("Invalid request body"))
			return
		}
		defer r.Body.Close()

		user, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteSuccess(w, http.StatusCreated, "User registered successfully", user.Public())
	}
}

// HandleRefresh godoc
// @Summary Refresh Session Token
// @Description Exchanges a valid refresh token for a new token pair. The presented token is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param refreshBody body auth.RefreshRequest true "Refresh token"
// @Success 200 {object} auth.SuccessResponse "Tokens refreshed"
// @Failure 401 {object} apperror.ErrorResponse "Invalid or expired refresh token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/v1/auth/refresh [post]
func (h *Handlers) HandleRefresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, r, apperror.NewMissingTokenError("Invalid request body"))
			return
		}
		defer r.Body.Close()

		resp, err := h.service.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteSuccess(w, http.StatusOK, "Token refreshed successfully", resp)
	}
}

// WriteJSON serializes data to JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"success":false,"message":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}

// WriteSuccess writes the standard success envelope.
func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	WriteJSON(w, status, SuccessResponse{Success: true, Message: message, Data: data})
}

// WriteError converts any error into the standardized error envelope. Errors
// that are not AppErrors are reported as a generic internal failure so no
// storage detail leaks to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("An unexpected error occurred", err)
	}
	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
