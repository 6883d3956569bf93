package activity

import (
	"net/http"
	"strconv"

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
	activities := r.Group("/activities")
	{
		activities.GET("", h.List)
		activities.GET("/recent", h.Recent)
	}
}

// List godoc
// @Summary List my activities
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max items (default 20, max 100)"
// @Success 200 {object} map[string]interface{}
// @Router /activities [get]
func (h *Handler) List(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}

	items, err := h.service.List(c.Request.Context(), c.GetInt64("user_id"), limit)
	if err != nil {
		response.ServerError(c, "ACTIVITIES_FAILED", "Error fetching activities", err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// Recent godoc
// @Summary Activity counts per day
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window in days (default 7, max 365)"
// @Success 200 {object} map[string]interface{}
// @Router /activities/recent [get]
func (h *Handler) Recent(c *gin.Context) {
	days, ok := intQuery(c, "days")
	if !ok {
		return
	}

	items, err := h.service.Recent(c.Request.Context(), c.GetInt64("user_id"), days)
	if err != nil {
		response.ServerError(c, "ACTIVITIES_FAILED", "Error fetching recent activity", err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// intQuery parses an optional integer query parameter. It answers 400 and
// returns false when the value is not a number.
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid "+name)
		return 0, false
	}
	return v, true
}
