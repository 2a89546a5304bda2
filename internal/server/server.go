package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gebeya-market/config"
	"gebeya-market/internal/handler"
	"gebeya-market/internal/middleware"
	"gebeya-market/internal/ratelimit"
	"gebeya-market/internal/services"
	"gebeya-market/internal/transport/httpdto"
	"gebeya-market/pkg/database"
	"gebeya-market/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Listing *handler.ListingHandler
	Chat    *handler.ChatHandler
	Upload  *handler.UploadHandler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, limiter *ratelimit.Limiter) {
	s.engine.Use(middleware.RequestIdMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.CORSOrigins))
	s.engine.Use(middleware.SecurityHeadersMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.RateLimitMiddleware(limiter, s.config.TrustProxyForwardedFor))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	requireAuth := middleware.AuthMiddleware(authService)

	auth := s.engine.Group("/v1/auth")
	{
		auth.POST("/telegram", handlers.Auth.Telegram)
	}

	users := s.engine.Group("/v1/users", requireAuth)
	{
		users.GET("/me", handlers.User.Me)
		users.PATCH("/me", handlers.User.UpdateProfile)
		users.POST("/me/verify-phone", handlers.User.VerifyPhone)
		users.PATCH("/me/settings", handlers.User.UpdateSettings)
		users.POST("/me/passcode", handlers.User.SetPasscode)
		users.POST("/me/passcode/verify", handlers.User.VerifyPasscode)
		users.DELETE("/me/passcode", handlers.User.RemovePasscode)
	}

	listings := s.engine.Group("/v1/listings")
	{
		listings.GET("", handlers.Listing.List)
		listings.GET("/categories", handlers.Listing.Categories)
		listings.GET("/:id", handlers.Listing.GetByID)
		listings.POST("", requireAuth, handlers.Listing.Create)
		listings.GET("/mine", requireAuth, handlers.Listing.Mine)
		listings.PATCH("/:id", requireAuth, handlers.Listing.Update)
		listings.PATCH("/:id/status", requireAuth, handlers.Listing.UpdateStatus)
		listings.DELETE("/:id", requireAuth, handlers.Listing.Delete)
	}

	chats := s.engine.Group("/v1/chats", requireAuth)
	{
		chats.POST("", handlers.Chat.Start)
		chats.GET("", handlers.Chat.List)
		chats.GET("/unread/count", handlers.Chat.UnreadCount)
		chats.GET("/:id", handlers.Chat.GetByID)
		chats.POST("/:id/messages", handlers.Chat.SendMessage)
		chats.GET("/:id/messages", handlers.Chat.Poll)
	}

	uploads := s.engine.Group("/v1/uploads", requireAuth)
	{
		uploads.POST("", handlers.Upload.Upload)
		uploads.POST("/presign", handlers.Upload.Presign)
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
