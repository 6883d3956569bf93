package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"zyboard/internal/pkg/response"
	"zyboard/internal/pkg/validator"
)

// Handler serves the unauthenticated account endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

// Register godoc
// @Summary Register
// @Description Creates an account with the default storage quota and returns a token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "payload"
// @Success 201 {object} AuthResult
// @Failure 400 {object} map[string]interface{}
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid registration data", errs)
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "All fields are required")
		case errors.Is(err, ErrWeakPassword):
			response.Error(c, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 6 characters")
		case errors.Is(err, ErrPasswordTooLong):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Password is too long")
		case errors.Is(err, ErrUserExists):
			response.Error(c, http.StatusBadRequest, "USER_EXISTS", "Username or email already exists")
		default:
			response.ServerError(c, "REGISTRATION_FAILED", "Error registering user", err)
		}
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// Login godoc
// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "payload"
// @Success 200 {object} AuthResult
// @Failure 400,401 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required")
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		default:
			response.ServerError(c, "LOGIN_FAILED", "Error logging in", err)
		}
		return
	}

	response.Success(c, http.StatusOK, result)
}
