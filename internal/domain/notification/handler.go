package notification

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"zyboard/internal/middleware"
	"zyboard/internal/pkg/jwt"
	"zyboard/internal/pkg/response"
	"zyboard/internal/pkg/validator"
)

type Handler struct {
	service    *Service
	hub        *Hub
	jwtService *jwt.Service
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler builds the handler. WebSocket upgrades are accepted from the
// same origins as CORS, and from clients that send no Origin.
func NewHandler(service *Service, hub *Hub, jwtService *jwt.Service, allowedOrigins []string, log *slog.Logger) *Handler {
	allowed := middleware.AllowedOrigins(allowedOrigins)
	return &Handler{
		service:    service,
		hub:        hub,
		jwtService: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		logger: log.With(slog.String("component", "notification")),
	}
}

// RegisterPublicRoutes registers the WebSocket endpoint. It authenticates
// with ?token= because browsers cannot set headers on upgrade requests.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/notifications/ws", h.WebSocket)
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PATCH("/read-all", h.MarkAllAsRead)
		notifications.PATCH("/:id/read", h.MarkAsRead)
		notifications.POST("/delete", h.DeleteMany)
		notifications.DELETE("/:id", h.Delete)
		notifications.DELETE("", h.DeleteAll)
	}
}

type DeleteManyRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1"`
}

// List godoc
// @Summary List my notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread"
// @Param limit query int false "Max items (default 50, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Router /notifications [get]
func (h *Handler) List(c *gin.Context) {
	limit, err := optionalInt(c.Query("limit"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid limit")
		return
	}
	offset, err := optionalInt(c.Query("offset"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid offset")
		return
	}
	unreadOnly := c.Query("unread") == "true"

	result, err := h.service.List(c.Request.Context(), c.GetInt64("user_id"), unreadOnly, limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// UnreadCount godoc
// @Summary Count unread notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /notifications/unread-count [get]
func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"count": count})
}

// MarkAsRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404 {object} map[string]interface{}
// @Router /notifications/{id}/read [patch]
func (h *Handler) MarkAsRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.MarkAsRead(c.Request.Context(), c.GetInt64("user_id"), id); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllAsRead godoc
// @Summary Mark every notification as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /notifications/read-all [patch]
func (h *Handler) MarkAllAsRead(c *gin.Context) {
	n, err := h.service.MarkAllAsRead(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "All notifications marked as read", "updated": n})
}

// Delete godoc
// @Summary Delete a notification
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404 {object} map[string]interface{}
// @Router /notifications/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.GetInt64("user_id"), id); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Notification deleted"})
}

// DeleteMany godoc
// @Summary Delete several notifications
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body DeleteManyRequest true "payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /notifications/delete [post]
func (h *Handler) DeleteMany(c *gin.Context) {
	var req DeleteManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Notification ids are required", errs)
		return
	}

	n, err := h.service.DeleteMany(c.Request.Context(), c.GetInt64("user_id"), req.IDs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Notifications deleted", "deleted": n})
}

// DeleteAll godoc
// @Summary Delete all my notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /notifications [delete]
func (h *Handler) DeleteAll(c *gin.Context) {
	n, err := h.service.DeleteAll(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "All notifications deleted", "deleted": n})
}

// WebSocket godoc
// @Summary Live notification stream
// @Description Upgrades to a WebSocket that receives notification and unread_count events.
// @Tags Notifications
// @Param token query string true "JWT"
// @Router /notifications/ws [get]
func (h *Handler) WebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = middleware.BearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "NO_TOKEN", "No token provided")
		return
	}
	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the client.
		h.logger.WarnContext(c.Request.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	h.hub.Serve(conn, claims.UserID)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotificationNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Notification not found")
	case errors.Is(err, ErrNoIDs):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Notification ids are required")
	case errors.Is(err, ErrInvalidOffset):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Offset must not be negative")
	default:
		response.ServerError(c, "NOTIFICATIONS_FAILED", "Error processing notifications", err)
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return 0, false
	}
	return id, true
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
