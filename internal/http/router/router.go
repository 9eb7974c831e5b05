package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vnxcius/gameserver-status-bot/internal/http/events"
	"github.com/vnxcius/gameserver-status-bot/internal/http/handlers"
	"github.com/vnxcius/gameserver-status-bot/internal/http/middleware"
	"github.com/vnxcius/gameserver-status-bot/internal/status"
)

const defaultRate = "60-M"

type Options struct {
	Tracker        *status.Tracker
	AllowedOrigins []string
	// Rate in limiter notation, defaults to 60 requests per minute per IP.
	Rate string
}

func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Rate == "" {
		opts.Rate = defaultRate
	}

	rateLimit, err := middleware.RateLimit(opts.Rate)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.SlogLoggerMiddleware())
	r.Use(gin.Recovery())

	if err := r.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
		return nil, err
	}

	if len(opts.AllowedOrigins) > 0 {
		slog.Info("Allowing origins", "origins", opts.AllowedOrigins)
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.AllowedOrigins,
			AllowMethods: []string{"GET", "OPTIONS"},
			AllowHeaders: []string{"Content-Type"},
			ExposeHeaders: []string{
				"Content-Length",
				"X-RateLimit-Limit",
				"X-RateLimit-Remaining",
				"X-RateLimit-Reset",
			},
			MaxAge: 24 * time.Hour,
		}))
	}

	h := handlers.New(opts.Tracker, events.NewWSManager(opts.Tracker), opts.AllowedOrigins)

	{
		v1 := r.Group("/api/v1").Use(rateLimit)
		v1.GET("/ping", h.Ping)
		v1.GET("/status", h.GetServerStatus)
		v1.GET("/ws", h.ServeWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found: " + c.Request.URL.Path})
	})

	return r, nil
}

// Server runs the status API until Shutdown.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Start serves in a goroutine. Listen errors other than a clean shutdown
// are logged.
func (s *Server) Start() {
	go func() {
		slog.Info("Starting status API", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Status API stopped", "error", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
