package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/judging"
	"github.com/maaaruch/hackjudge/internal/sheet"
)

const maxUploadBytes = 10 << 20

func (s *Server) uploadTeams(c *gin.Context) {
	hackathonID := c.Param("hackathonID")
	if !s.ownHackathon(c, hackathonID) {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		s.fail(c, apperr.New(apperr.KindValidation, "please upload an Excel file"))
		return
	}
	if fh.Size > maxUploadBytes {
		s.fail(c, apperr.New(apperr.KindValidation, "file too large, limit is %d MB", maxUploadBytes>>20))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.fail(c, apperr.Wrap(apperr.KindValidation, err, "file upload failed"))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		s.fail(c, apperr.Wrap(apperr.KindValidation, err, "file upload failed"))
		return
	}
	rows, err := sheet.Parse(fh.Filename, data)
	if err != nil {
		if errors.Is(err, sheet.ErrUnsupported) {
			s.fail(c, apperr.New(apperr.KindValidation, "please upload an Excel or CSV file"))
			return
		}
		s.fail(c, apperr.Wrap(apperr.KindValidation, err, "file could not be read"))
		return
	}

	teams, err := s.judge.ImportTeams(c.Request.Context(), hackathonID, rows)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Teams and participants uploaded successfully", gin.H{"teams": teams})
}

func (s *Server) createTeam(c *gin.Context) {
	var in struct {
		TeamName     string                     `json:"teamName"`
		Participants []judging.ParticipantInput `json:"participants"`
	}
	hackathonID := c.Param("hackathonID")
	if !s.bind(c, &in) || !s.ownHackathon(c, hackathonID) {
		return
	}
	team, err := s.judge.CreateTeam(c.Request.Context(), hackathonID, in.TeamName, in.Participants)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Team created successfully", gin.H{"team": team})
}

func (s *Server) deleteTeam(c *gin.Context) {
	var in struct {
		TeamID      string `json:"teamId"`
		HackathonID string `json:"hackathonId"`
	}
	if !s.bind(c, &in) || !s.ownHackathon(c, in.HackathonID) {
		return
	}
	if in.TeamID == "" {
		s.fail(c, apperr.New(apperr.KindValidation, "team id not provided"))
		return
	}
	if err := s.judge.DeleteTeam(c.Request.Context(), in.TeamID, in.HackathonID); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Team deleted successfully", nil)
}

func (s *Server) getTeam(c *gin.Context) {
	team, err := s.judge.GetTeam(c.Request.Context(), c.Param("teamId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !s.ownHackathon(c, team.HackathonID) {
		return
	}
	respond(c, http.StatusOK, "Team found", gin.H{"team": team})
}
