package team

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zyboard/internal/pkg/response"
	"zyboard/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	teams := r.Group("/teams")
	{
		teams.POST("", h.Create)
		teams.GET("", h.List)
		teams.POST("/:id/invite", h.Invite)
		teams.DELETE("/:id", h.Delete)
		teams.DELETE("/:id/members/:mid", h.RemoveMember)
	}
	r.GET("/team/members", h.Members)
}

// Create godoc
// @Summary Create a team
// @Tags Teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateRequest true "payload"
// @Success 201 {object} domain.Team
// @Failure 400 {object} map[string]interface{}
// @Router /teams [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if !bind(c, &req) {
		return
	}

	t, err := h.service.Create(c.Request.Context(), c.GetInt64("user_id"), req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, t)
}

// List godoc
// @Summary List my teams
// @Tags Teams
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.TeamSummary
// @Router /teams [get]
func (h *Handler) List(c *gin.Context) {
	teams, err := h.service.List(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, teams)
}

// Members godoc
// @Summary List members of my teams
// @Tags Teams
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.TeamMemberView
// @Router /team/members [get]
func (h *Handler) Members(c *gin.Context) {
	members, err := h.service.Members(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}

// Invite godoc
// @Summary Add a user to a team by email
// @Tags Teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Team ID"
// @Param body body InviteRequest true "payload"
// @Success 201 {object} domain.TeamMember
// @Failure 400,403,404 {object} map[string]interface{}
// @Router /teams/{id}/invite [post]
func (h *Handler) Invite(c *gin.Context) {
	teamID, ok := pathID(c, "id", "Invalid team ID")
	if !ok {
		return
	}
	var req InviteRequest
	if !bind(c, &req) {
		return
	}

	m, err := h.service.Invite(c.Request.Context(), teamID, c.GetInt64("user_id"), req.Email, req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, m)
}

// Delete godoc
// @Summary Delete a team
// @Tags Teams
// @Security BearerAuth
// @Param id path int true "Team ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403,404 {object} map[string]interface{}
// @Router /teams/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	teamID, ok := pathID(c, "id", "Invalid team ID")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), teamID, c.GetInt64("user_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Team deleted"})
}

// RemoveMember godoc
// @Summary Remove a member from a team
// @Tags Teams
// @Security BearerAuth
// @Param id path int true "Team ID"
// @Param mid path int true "User ID of the member"
// @Success 200 {object} map[string]interface{}
// @Failure 400,403,404 {object} map[string]interface{}
// @Router /teams/{id}/members/{mid} [delete]
func (h *Handler) RemoveMember(c *gin.Context) {
	teamID, ok := pathID(c, "id", "Invalid team ID")
	if !ok {
		return
	}
	memberID, ok := pathID(c, "mid", "Invalid member ID")
	if !ok {
		return
	}
	if err := h.service.RemoveMember(c.Request.Context(), teamID, c.GetInt64("user_id"), memberID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Member removed"})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", errs)
		return false
	}
	return true
}

func pathID(c *gin.Context, name, msg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", msg)
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNameRequired):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Team name is required")
	case errors.Is(err, ErrEmailRequired):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Email is required")
	case errors.Is(err, ErrInvalidRole):
		response.Error(c, http.StatusBadRequest, "INVALID_ROLE", "Role must be admin or member")
	case errors.Is(err, ErrAlreadyMember):
		response.Error(c, http.StatusBadRequest, "ALREADY_MEMBER", "User is already a team member")
	case errors.Is(err, ErrCannotRemoveOwner):
		response.Error(c, http.StatusBadRequest, "CANNOT_REMOVE_OWNER", "Team owner cannot be removed")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Insufficient team permissions")
	case errors.Is(err, ErrTeamNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Team not found")
	case errors.Is(err, ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
	case errors.Is(err, ErrMemberNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Member not found")
	default:
		response.ServerError(c, "TEAM_ERROR", "Team operation failed", err)
	}
}
