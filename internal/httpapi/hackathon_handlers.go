package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/judging"
)

// ---------- Hackathons ----------

func (s *Server) createHackathon(c *gin.Context) {
	var in struct {
		Name        string `json:"hackathonName"`
		TeamMinSize *int   `json:"teamMinSize"`
		TeamMaxSize *int   `json:"teamMaxSize"`
	}
	if !s.bind(c, &in) {
		return
	}
	h, err := s.judge.CreateHackathon(c.Request.Context(), claimsFrom(c).ActorID(), in.Name, in.TeamMinSize, in.TeamMaxSize)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Hackathon created successfully", gin.H{"hackathon": h})
}

func (s *Server) editHackathon(c *gin.Context) {
	var in struct {
		HackathonID string  `json:"hackathonId"`
		Name        *string `json:"hackathonName"`
		TeamMinSize *int    `json:"teamMinSize"`
		TeamMaxSize *int    `json:"teamMaxSize"`
	}
	if !s.bind(c, &in) || !s.ownHackathon(c, in.HackathonID) {
		return
	}
	h, err := s.judge.EditHackathon(c.Request.Context(), in.HackathonID, judging.HackathonPatch{
		Name:        in.Name,
		TeamMinSize: in.TeamMinSize,
		TeamMaxSize: in.TeamMaxSize,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Hackathon updated successfully", gin.H{"hackathon": h})
}

func (s *Server) getHackathonsList(c *gin.Context) {
	userID := c.Param("userId")
	if userID != claimsFrom(c).ActorID() {
		s.fail(c, apperr.New(apperr.KindForbidden, "you can only list your own hackathons"))
		return
	}
	hackathons, err := s.judge.ListHackathons(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Hackathons retrieved successfully", gin.H{"hackathons": hackathons})
}

func (s *Server) getHackathon(c *gin.Context) {
	id := c.Param("hackathonId")
	if !s.ownHackathon(c, id) {
		return
	}
	h, err := s.judge.GetHackathon(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Hackathon found", gin.H{"hackathon": h})
}

func (s *Server) deleteHackathon(c *gin.Context) {
	var in struct {
		HackathonID string `json:"hackathonId"`
	}
	if !s.bind(c, &in) {
		return
	}
	if err := s.judge.DeleteHackathon(c.Request.Context(), claimsFrom(c).ActorID(), in.HackathonID); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Hackathon deleted successfully", nil)
}

// ---------- Criteria ----------

func (s *Server) createCriteria(c *gin.Context) {
	var in struct {
		Criteria  string  `json:"criteria"`
		MaxPoints float64 `json:"maxPoints"`
	}
	hackathonID := c.Param("hackathonId")
	if !s.bind(c, &in) || !s.ownHackathon(c, hackathonID) {
		return
	}
	cr, err := s.judge.CreateCriterion(c.Request.Context(), hackathonID, in.Criteria, in.MaxPoints)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Criteria created successfully", gin.H{"criteria": cr})
}

func (s *Server) editCriteria(c *gin.Context) {
	var in struct {
		CriteriaID string   `json:"criteriaId"`
		Criteria   *string  `json:"criteria"`
		MaxPoints  *float64 `json:"maxPoints"`
	}
	if !s.bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	current, err := s.judge.GetCriterion(ctx, in.CriteriaID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !s.ownHackathon(c, current.HackathonID) {
		return
	}
	cr, err := s.judge.EditCriterion(ctx, in.CriteriaID, judging.CriterionPatch{Name: in.Criteria, MaxPoints: in.MaxPoints})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Criteria updated successfully", gin.H{"criteria": cr})
}

func (s *Server) getCriteriaList(c *gin.Context) {
	id := c.Param("hackathonId")
	if !s.ownHackathon(c, id) {
		return
	}
	criteria, err := s.judge.ListCriteria(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Criteria list found", gin.H{"criteria": criteria})
}

// ---------- Panelists ----------

func (s *Server) createPanelist(c *gin.Context) {
	var in struct {
		FirstName   string         `json:"firstName"`
		LastName    string         `json:"lastName"`
		Email       string         `json:"email"`
		Speciality  specialityList `json:"speciality"`
		HackathonID string         `json:"hackathonId"`
	}
	if !s.bind(c, &in) || !s.ownHackathon(c, in.HackathonID) {
		return
	}
	p, err := s.judge.CreatePanelist(c.Request.Context(), judging.NewPanelist{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Speciality:  in.Speciality,
		HackathonID: in.HackathonID,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Panelist created, registration mail queued", gin.H{"panelist": p})
}

func (s *Server) editPanelist(c *gin.Context) {
	var in struct {
		PanelistID string          `json:"panelistId"`
		FirstName  *string         `json:"firstName"`
		LastName   *string         `json:"lastName"`
		Email      *string         `json:"email"`
		Speciality *specialityList `json:"speciality"`
	}
	if !s.bind(c, &in) {
		return
	}
	ctx := c.Request.Context()
	current, err := s.judge.GetPanelist(ctx, in.PanelistID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !s.ownHackathon(c, current.HackathonID) {
		return
	}

	patch := judging.PanelistPatch{FirstName: in.FirstName, LastName: in.LastName, Email: in.Email}
	if in.Speciality != nil {
		spec := []string(*in.Speciality)
		patch.Speciality = &spec
	}
	p, err := s.judge.EditPanelist(ctx, in.PanelistID, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Panelist updated successfully", gin.H{"panelist": p})
}

func (s *Server) getPanelistList(c *gin.Context) {
	id := c.Param("hackathonId")
	if !s.ownHackathon(c, id) {
		return
	}
	panelists, err := s.judge.ListPanelists(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Panelist list found", gin.H{"panelists": panelists})
}

// ---------- Assignment ----------

type assignRequest struct {
	TeamID     idList `json:"teamID"`
	PanelistID string `json:"panelistID"`
}

func (s *Server) assignTeam(c *gin.Context) {
	var in assignRequest
	if !s.bind(c, &in) || !s.ownPanelist(c, in.PanelistID) {
		return
	}
	p, err := s.judge.Assign(c.Request.Context(), in.PanelistID, in.TeamID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Team(s) assigned successfully", gin.H{"panelist": p})
}

func (s *Server) unassignTeam(c *gin.Context) {
	var in assignRequest
	if !s.bind(c, &in) || !s.ownPanelist(c, in.PanelistID) {
		return
	}
	p, err := s.judge.Unassign(c.Request.Context(), in.PanelistID, in.TeamID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Team(s) unassigned successfully", gin.H{"panelist": p})
}

func (s *Server) ownPanelist(c *gin.Context, panelistID string) bool {
	if panelistID == "" {
		s.fail(c, apperr.New(apperr.KindValidation, "panelist id not provided"))
		return false
	}
	p, err := s.judge.GetPanelist(c.Request.Context(), panelistID)
	if err != nil {
		s.fail(c, err)
		return false
	}
	return s.ownHackathon(c, p.HackathonID)
}

// ---------- Teams and results ----------

func (s *Server) getTeams(c *gin.Context) {
	id := c.Param("hackathonID")
	if !s.ownHackathon(c, id) {
		return
	}
	teams, err := s.judge.GetTeams(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Teams found", gin.H{"teams": teams})
}

func (s *Server) leaderboard(c *gin.Context) {
	id := c.Param("hackathonId")
	if !s.ownHackathon(c, id) {
		return
	}
	totals, err := s.judge.TeamTotals(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Leaderboard computed", gin.H{"leaderboard": totals})
}
