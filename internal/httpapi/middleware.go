package httpapi

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maaaruch/hackjudge/internal/apperr"
	"github.com/maaaruch/hackjudge/internal/auth"
)

const (
	claimsKey   = "hackjudge.claims"
	tokenCookie = "token"
)

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if v, err := c.Cookie(tokenCookie); err == nil {
		return v
	}
	return ""
}

func (s *Server) requireRole(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			s.fail(c, apperr.New(apperr.KindUnauthorized, "token missing"))
			return
		}
		claims, err := s.auth.Tokens().Verify(raw)
		if err != nil {
			s.fail(c, apperr.New(apperr.KindUnauthorized, "token is invalid"))
			return
		}
		if claims.Role != role {
			s.fail(c, apperr.New(apperr.KindForbidden, "this route is for %s accounts", role))
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

// ownHackathon fails the request with not found unless the caller owns
// hackathonID. Someone else's hackathon is reported the same as a missing one.
func (s *Server) ownHackathon(c *gin.Context, hackathonID string) bool {
	if strings.TrimSpace(hackathonID) == "" {
		s.fail(c, apperr.New(apperr.KindValidation, "hackathon id not provided"))
		return false
	}
	ok, err := s.judge.IsHackathonOwner(c.Request.Context(), hackathonID, claimsFrom(c).ActorID())
	if err != nil {
		s.fail(c, err)
		return false
	}
	if !ok {
		s.fail(c, apperr.New(apperr.KindNotFound, "hackathon not found"))
		return false
	}
	return true
}

// assignedTo fails the request with forbidden unless the calling panelist
// is assigned to teamID.
func (s *Server) assignedTo(c *gin.Context, teamID string) bool {
	if strings.TrimSpace(teamID) == "" {
		s.fail(c, apperr.New(apperr.KindValidation, "team id not provided"))
		return false
	}
	ok, err := s.judge.IsAssigned(c.Request.Context(), claimsFrom(c).ActorID(), teamID)
	if err != nil {
		s.fail(c, err)
		return false
	}
	if !ok {
		s.fail(c, apperr.New(apperr.KindForbidden, "team is not assigned to this panelist"))
		return false
	}
	return true
}
