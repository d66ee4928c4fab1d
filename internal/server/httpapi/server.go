// Package httpapi exposes the chat backend as a JSON REST API served by gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/config"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address string
	cfg     *config.Config
	users   *services.UserService
	convs   *services.ConversationService
	logger  logging.Logger
	metrics *metrics
	limiter *ipLimiter
	engine  *gin.Engine
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, us *services.UserService, cs *services.ConversationService) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	s := &HTTPServer{
		address: cfg.HTTPAddr,
		cfg:     cfg,
		users:   us,
		convs:   cs,
		logger:  l.With("module", "http_server"),
		metrics: newMetrics(prometheus.NewRegistry()),
		limiter: newIPLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst),
	}
	s.engine = s.routes()
	return s
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.accessLog(), s.metrics.middleware())

	r.GET("/metrics", gin.WrapH(s.metrics.handler()))

	api := r.Group("/api")
	api.GET("/test", s.ping)
	api.POST("/signup", s.signup)
	api.POST("/login", s.limiter.middleware(), s.login)
	api.GET("/users/status", s.usersStatus)

	authed := api.Group("")
	authed.Use(s.authenticate())
	authed.POST("/logout", s.logout)
	authed.POST("/logout/:userId", s.logout)
	authed.GET("/current_user", s.currentUser)

	authed.GET("/conversations", s.listConversations)
	authed.POST("/conversations", s.createConversation)
	authed.PUT("/conversations/:id", s.renameConversation)
	authed.DELETE("/conversations/:id", s.deleteConversation)
	authed.POST("/conversations/:id/messages", s.postMessage)

	return r
}

// Handler returns the configured router.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
