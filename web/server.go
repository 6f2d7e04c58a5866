package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tas-agent/config"
	"tas-agent/links"
	"tas-agent/metadata"
	"tas-agent/web/handlers"
	"tas-agent/web/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Agent     handlers.AgentRunner
	Store     handlers.MessageStore
	Links     *links.Formatter
	Metadata  *metadata.Store
	Tokenizer handlers.Tokenizer
}

// runDrainTimeout bounds how long shutdown waits for detached agent runs.
const runDrainTimeout = 2 * time.Minute

type Server struct {
	router  *gin.Engine
	deps    Deps
	chat    *handlers.ChatHandler
	limiter *middleware.ClientRateLimiter
	logger  *zap.Logger
	config  *config.Config
}

func NewServer(deps Deps, logger *zap.Logger, config *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		// Add logger to context
		c.Set("logger", logger)
		c.Next()
	})
	router.Use(corsMiddleware())

	server := &Server{
		router: router,
		deps:   deps,
		limiter: middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
			MessagesPerMinute: config.RateLimitMessagesPerMin,
			BurstSize:         config.RateLimitBurstSize,
		}, logger),
		logger: logger,
		config: config,
	}

	server.setupRoutes()
	return server
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	chatHandler := handlers.NewChatHandler(s.deps.Agent, s.deps.Store, s.config, s.logger)
	s.chat = chatHandler
	linksHandler := handlers.NewLinksHandler(s.deps.Links, s.deps.Metadata, s.deps.Tokenizer, s.config, s.logger)

	limited := s.router.Group("/", middleware.RateLimitMiddleware(s.limiter))
	limited.POST("/get_response_from_ai", chatHandler.GetResponseFromAI)
	limited.POST("/generate_response", chatHandler.GenerateResponse)

	s.router.POST("/update_chat_history", chatHandler.UpdateChatHistory)
	s.router.POST("/get_token_count", linksHandler.GetTokenCount)
	s.router.POST("/get_iframe", linksHandler.GetIframe)
	s.router.POST("/get_source", linksHandler.GetSource)
	s.router.POST("/get_artist_img", linksHandler.GetArtistImg)
	s.router.POST("/get_valid_data_id", linksHandler.GetValidDataID)
	s.router.GET("/generate_image", linksHandler.GenerateImage)
	s.router.POST("/get_urls", linksHandler.GetURLs)
	s.router.POST("/get_iframe_link", linksHandler.GetIframeLink)
	s.router.POST("/get_artist_image_link", linksHandler.GetArtistImageLink)
	s.router.POST("/get_source_link", linksHandler.GetSourceLink)

	s.router.GET("/health", handlers.Health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// corsMiddleware allows every origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	s.logger.Info("Shutting down web server")
	s.limiter.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	return errors.Join(err, s.drainRuns())
}

// drainRuns waits for agent runs whose clients already left, so their
// answers reach the store before it is closed.
func (s *Server) drainRuns() error {
	drainCtx, cancel := context.WithTimeout(context.Background(), runDrainTimeout)
	defer cancel()
	if err := s.chat.Wait(drainCtx); err != nil {
		s.logger.Warn("Agent runs still in flight at shutdown", zap.Error(err))
		return err
	}
	return nil
}
