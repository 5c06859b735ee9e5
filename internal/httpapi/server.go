// Package httpapi exposes the judging core over JSON/HTTP with gin.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/maaaruch/hackjudge/internal/auth"
	"github.com/maaaruch/hackjudge/internal/judging"
)

type Options struct {
	AllowOrigins  []string
	// SecureCookies marks the login cookie Secure with SameSite=None.
	SecureCookies bool
	TokenTTL      time.Duration
	Log           *slog.Logger
}

type Server struct {
	judge *judging.Service
	auth  *auth.Service
	opts  Options
	log   *slog.Logger
}

func New(judge *judging.Service, authSvc *auth.Service, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &Server{judge: judge, auth: authSvc, opts: opts, log: opts.Log}
}

// Router builds the gin engine with every route mounted under /api/v1.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = s.opts.AllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Your server is up and running...."})
	})

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", s.signup)
		authGroup.POST("/creatorLogin", s.creatorLogin)
		authGroup.POST("/panelistLogin", s.panelistLogin)
	}

	creator := s.requireRole(auth.RoleCreator)

	hackathon := api.Group("/hackathon", creator)
	{
		hackathon.POST("/createHackathon", s.createHackathon)
		hackathon.POST("/editHackathon", s.editHackathon)
		hackathon.GET("/getHackathonsList/:userId", s.getHackathonsList)
		hackathon.GET("/getHackathon/:hackathonId", s.getHackathon)
		hackathon.DELETE("/deleteHackathon", s.deleteHackathon)
		hackathon.POST("/createCriteria/:hackathonId", s.createCriteria)
		hackathon.POST("/editCriteria", s.editCriteria)
		hackathon.GET("/getCriteriaList/:hackathonId", s.getCriteriaList)
		hackathon.POST("/createPanelist", s.createPanelist)
		hackathon.POST("/editPanelist", s.editPanelist)
		hackathon.GET("/getPanelistList/:hackathonId", s.getPanelistList)
		hackathon.POST("/assignTeam", s.assignTeam)
		hackathon.POST("/unassignTeam", s.unassignTeam)
		hackathon.GET("/getTeams/:hackathonID", s.getTeams)
		hackathon.GET("/leaderboard/:hackathonId", s.leaderboard)
	}

	team := api.Group("/team", creator)
	{
		team.POST("/uploadTeams/:hackathonID", s.uploadTeams)
		team.POST("/createTeam/:hackathonID", s.createTeam)
		team.POST("/deleteTeam", s.deleteTeam)
		team.GET("/getTeam/:teamId", s.getTeam)
	}

	panelist := api.Group("/panelist", s.requireRole(auth.RolePanelist))
	{
		panelist.GET("/getTeamList/:panelistID", s.getTeamList)
		panelist.POST("/updateTeamScore", s.updateTeamScore)
		panelist.GET("/getCriteria/:teamId", s.getTeamCriteria)
	}

	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
