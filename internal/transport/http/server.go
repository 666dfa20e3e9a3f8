package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatd/internal/auth"
	"github.com/vovakirdan/chatd/internal/config"
	"github.com/vovakirdan/chatd/internal/core"
)

// ChatHub is the part of the core the HTTP layer needs.
type ChatHub interface {
	Serve(ctx context.Context, conn core.Conn) error
	Stats() core.Stats
}

// NewServer builds the HTTP server: health, admin API and the WebSocket chat bridge.
func NewServer(hub ChatHub, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewHandler(hub, cfg, logger),
	}
}

// NewHandler mounts /ws on a plain mux and everything else on the gin router.
// gin's response writer cannot be hijacked once the upgrade is written.
func NewHandler(hub ChatHub, cfg config.Config, logger *zerolog.Logger) stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg.ReadBufferSize, logger))
	mux.Handle("/", NewRouter(hub, cfg, logger))
	return mux
}

// NewRouter wires the gin routes of the admin API.
func NewRouter(hub ChatHub, cfg config.Config, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	api := router.Group("/api")
	if cfg.AdminJWTSecret != "" {
		api.Use(AuthMiddleware(&auth.JWTConfig{
			Secret: []byte(cfg.AdminJWTSecret),
			Issuer: cfg.AdminJWTIssuer,
			TTL:    cfg.AdminJWTTTL,
		}, logger))
	} else {
		logger.Warn().Msg("admin_jwt_secret is empty, admin API is unauthenticated")
	}

	h := &apiHandlers{hub: hub}
	api.GET("/stats", h.stats)
	api.GET("/sessions", h.sessions)
	api.GET("/groups", h.groups)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
