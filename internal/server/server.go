package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/insight/backend/internal/handlers"
	"github.com/emilythestrangee/insight/backend/internal/middleware"
)

// HealthChecker reports the state of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Server struct {
	handler *handlers.Handler
	tokens  middleware.TokenParser
	health  HealthChecker
	origins []string
}

// NewServer creates and configures a new server
func NewServer(port string, handler *handlers.Handler, tokens middleware.TokenParser, health HealthChecker, origins []string) *http.Server {
	s := &Server{
		handler: handler,
		tokens:  tokens,
		health:  health,
		origins: origins,
	}

	return &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(s.origins) == 0 || (len(s.origins) == 1 && s.origins[0] == "*") {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsConfig.AllowOrigins = s.origins
	}
	r.Use(cors.New(corsConfig))

	// Health check endpoint
	r.GET("/health", s.healthHandler)

	api := r.Group("/api")
	{
		api.POST("/auth/register", s.handler.Auth.Register)
		api.POST("/auth/login", s.handler.Auth.Login)

		api.GET("/posts", s.handler.Post.GetPosts)
		api.GET("/posts/top", s.handler.Post.GetTopPosts)
		api.GET("/posts/:id", s.handler.Post.GetPost)
		api.GET("/posts/:id/comments", s.handler.Comment.GetComments)
		api.GET("/comments/:id/replies", s.handler.Comment.GetReplies)

		api.GET("/users/leaderboard", s.handler.User.GetLeaderboard)
		api.GET("/users/:id/profile", s.handler.User.GetUserProfile)
		api.GET("/stats/daily", s.handler.User.GetDailyStats)

		api.GET("/live", s.handler.Live.Stream)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.tokens))
		{
			protected.GET("/me", s.handler.Auth.GetMe)
			protected.GET("/votes", s.handler.User.GetMyVotes)

			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.POST("/posts/:id/vote", s.handler.Post.VotePost)

			protected.POST("/posts/:id/comments", s.handler.Comment.CreateComment)
			protected.POST("/comments/:id/vote", s.handler.Comment.VoteComment)
		}
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	stats := s.health.Health(c.Request.Context())
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	c.JSON(http.StatusOK, stats)
}
