package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "resume-optimizer-backend/internal/auth"
	"resume-optimizer-backend/internal/coverletters"
	"resume-optimizer-backend/internal/shared/config"
	"resume-optimizer-backend/internal/shared/metrics"
	"resume-optimizer-backend/internal/shared/server/middleware"
	"resume-optimizer-backend/internal/shared/server/respond"
	"resume-optimizer-backend/internal/submissions"
	"resume-optimizer-backend/internal/users"
)

// RouterDeps carries the handlers wired by bootstrap.
type RouterDeps struct {
	Config       config.Config
	Submissions  *submissions.Handler
	CoverLetters *coverletters.Handler
	Users        *users.Handler
	GoogleAuth   *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(llmRateLimits()),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.Users != nil {
		deps.Users.RegisterRoutes(api)
	}
	if deps.Submissions != nil {
		deps.Submissions.RegisterRoutes(api)
	}
	if deps.CoverLetters != nil {
		deps.CoverLetters.RegisterRoutes(api)
	}

	return r
}

// llmRateLimits throttles the endpoints that fan out to the LLM provider.
// Other routes pass through unmetered.
func llmRateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"LLM":    {Rate: 0.2, Burst: 3},
			"UPLOAD": {Rate: 0.5, Burst: 5},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method != http.MethodPost {
				return ""
			}
			path := c.FullPath()
			switch {
			case strings.HasSuffix(path, "/score"), strings.HasSuffix(path, "/cover-letters"):
				return "LLM"
			case strings.HasSuffix(path, "/submissions"):
				return "UPLOAD"
			default:
				return ""
			}
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
