package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maaaruch/hackjudge/internal/auth"
)

func (s *Server) signup(c *gin.Context) {
	var in auth.SignupInput
	if !s.bind(c, &in) {
		return
	}
	if _, err := s.auth.Signup(c.Request.Context(), in); err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "User registered successfully", nil)
}

func (s *Server) creatorLogin(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.bind(c, &in) {
		return
	}
	user, token, err := s.auth.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	sameSite := http.SameSiteLaxMode
	if s.opts.SecureCookies {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(tokenCookie, token, int(s.opts.TokenTTL.Seconds()), "/", "", s.opts.SecureCookies, true)

	respond(c, http.StatusOK, "User login successful", gin.H{
		"token": token,
		"user":  user,
		"role":  "Creator",
	})
}

// panelistLogin trades an email and hackathon id for a panelist token. There
// is no password; see judging.Service.Authenticate.
func (s *Server) panelistLogin(c *gin.Context) {
	var in struct {
		Email       string `json:"email"`
		HackathonID string `json:"hackathonID"`
	}
	if !s.bind(c, &in) {
		return
	}
	p, h, err := s.judge.Authenticate(c.Request.Context(), in.Email, in.HackathonID)
	if err != nil {
		s.fail(c, err)
		return
	}
	token, err := s.auth.PanelistToken(p)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Panelist verified successfully", gin.H{
		"token": token,
		"panelist": gin.H{
			"id":    p.ID,
			"name":  p.FirstName + " " + p.LastName,
			"email": p.Email,
		},
		"hackathon": gin.H{
			"id":   h.ID,
			"name": h.Name,
		},
		"role": "panelist",
	})
}
