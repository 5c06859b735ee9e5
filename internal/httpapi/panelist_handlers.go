package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maaaruch/hackjudge/internal/apperr"
)

func (s *Server) getTeamList(c *gin.Context) {
	id := c.Param("panelistID")
	if id != claimsFrom(c).ActorID() {
		s.fail(c, apperr.New(apperr.KindForbidden, "you can only list your own teams"))
		return
	}
	teams, err := s.judge.GetAssignedTeams(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Team list found", gin.H{"teams": teams})
}

func (s *Server) updateTeamScore(c *gin.Context) {
	var in struct {
		TeamID string    `json:"teamId"`
		Scores []float64 `json:"scores"`
	}
	if !s.bind(c, &in) || !s.assignedTo(c, in.TeamID) {
		return
	}
	team, err := s.judge.RecordScores(c.Request.Context(), in.TeamID, in.Scores)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Scores updated successfully", gin.H{"updatedTeam": team})
}

func (s *Server) getTeamCriteria(c *gin.Context) {
	id := c.Param("teamId")
	if !s.assignedTo(c, id) {
		return
	}
	criteria, err := s.judge.GetScores(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Team scoring criteria retrieved successfully", gin.H{"scoringCriteria": criteria})
}
