package profile

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"zyboard/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	user := r.Group("/user")
	{
		user.GET("/profile", h.GetProfile)
		user.GET("/stats", h.GetStats)
	}
}

// GetProfile godoc
// @Summary Current user
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.PublicUser
// @Failure 404 {object} map[string]interface{}
// @Router /user/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	u, err := h.service.Profile(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

// GetStats godoc
// @Summary Storage and file statistics of the current user
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.UserStats
// @Failure 404 {object} map[string]interface{}
// @Router /user/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	st, err := h.service.Stats(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, st)
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrUserNotFound) {
		response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}
	response.ServerError(c, "PROFILE_ERROR", "Error loading profile", err)
}
