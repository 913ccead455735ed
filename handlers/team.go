package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Stachugit-s/teamtaskmanager2/services"
)

// TeamHandler handles team-related HTTP requests
type TeamHandler struct {
	teamService *services.TeamService
	logger      *logrus.Logger
}

// NewTeamHandler creates a new TeamHandler
func NewTeamHandler(teamService *services.TeamService, logger *logrus.Logger) *TeamHandler {
	return &TeamHandler{teamService: teamService, logger: logger}
}

// CreateTeam handles POST /api/teams
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	var input services.CreateTeamInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	team, err := h.teamService.CreateTeam(c.Request.Context(), requester(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

// ListTeams handles GET /api/teams
func (h *TeamHandler) ListTeams(c *gin.Context) {
	teams, err := h.teamService.ListTeams(c.Request.Context(), requester(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

// GetTeam handles GET /api/teams/:id
func (h *TeamHandler) GetTeam(c *gin.Context) {
	team, err := h.teamService.GetTeam(c.Request.Context(), requester(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// UpdateTeam handles PUT /api/teams/:id
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	var input services.UpdateTeamInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	team, err := h.teamService.UpdateTeam(c.Request.Context(), requester(c), c.Param("id"), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// DeleteTeam handles DELETE /api/teams/:id
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	if err := h.teamService.DeleteTeam(c.Request.Context(), requester(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "team deleted"})
}

// AddMember handles POST /api/teams/:id/members
func (h *TeamHandler) AddMember(c *gin.Context) {
	var input services.AddMemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	team, err := h.teamService.AddMember(c.Request.Context(), requester(c), c.Param("id"), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// RemoveMember handles DELETE /api/teams/:id/members/:userId
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	team, err := h.teamService.RemoveMember(c.Request.Context(), requester(c), c.Param("id"), c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, team)
}
