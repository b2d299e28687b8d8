package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stockcast/stockcast/internal/httputil"
	"github.com/stockcast/stockcast/internal/logger"
	"github.com/stockcast/stockcast/internal/middleware"
	"github.com/stockcast/stockcast/internal/service"
	"github.com/stockcast/stockcast/internal/validation"
)

type AuthHandler struct {
	users *service.UserService
	log   *logger.Logger
}

func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{
		users: users,
		log:   logger.New("auth-handler"),
	}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
}

type validationResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Errors  validation.FieldErrors `json:"errors"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validation.ValidateRegister(req.Name, req.Email, req.Password); !errs.Empty() {
		httputil.RespondJSON(w, http.StatusBadRequest, validationResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  errs,
		})
		return
	}

	result, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			httputil.RespondError(w, http.StatusBadRequest, "User already exists with this email")
			return
		}
		h.log.Error("Registration failed: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "User registered successfully",
		User: UserResponse{
			ID:    result.User.ID,
			Name:  result.User.Name,
			Email: result.User.Email,
		},
		Token: result.Token,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := validation.ValidateLogin(req.Email, req.Password); !errs.Empty() {
		httputil.RespondJSON(w, http.StatusBadRequest, validationResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  errs,
		})
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password take this same path so the
		// two are indistinguishable to the caller.
		if errors.Is(err, service.ErrInvalidCredentials) {
			httputil.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.log.Error("Login failed: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User: UserResponse{
			ID:    result.User.ID,
			Name:  result.User.Name,
			Email: result.User.Email,
		},
		Token: result.Token,
	})
}

// Logout is a stateless acknowledgment. Tokens are not tracked server-side,
// the client discards its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logout successful",
	})
}

// Me returns the user resolved by the auth middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user": UserResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
	})
}
