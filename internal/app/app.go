package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatd/internal/auth"
	"github.com/vovakirdan/chatd/internal/config"
	"github.com/vovakirdan/chatd/internal/core"
	"github.com/vovakirdan/chatd/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/chatd/internal/transport/http"
	"github.com/vovakirdan/chatd/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	hub             *core.Hub
	tcp             *tcp.Server
	http            *stdhttp.Server
	httpListener    net.Listener
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New loads credentials and binds every listener. Any error here is a
// startup failure: nothing is left running.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	creds, err := loadCredentials(cfg, logger)
	if err != nil {
		return nil, err
	}

	hub := core.NewHub(creds, logger)

	tcpServer := tcp.NewServer(cfg.Addr, hub, cfg.ReadBufferSize, logger)
	if err := tcpServer.Listen(); err != nil {
		return nil, err
	}

	a := &App{
		hub:             hub,
		tcp:             tcpServer,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}

	if cfg.HTTPAddr != "" {
		ln, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			_ = tcpServer.Close()
			return nil, fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
		}
		a.httpListener = ln
		a.http = transporthttp.NewServer(hub, cfg, logger)
	}

	return a, nil
}

func loadCredentials(cfg config.Config, logger *zerolog.Logger) (*auth.Credentials, error) {
	if cfg.CredentialsDB != "" {
		st, err := sqlite.New(cfg.CredentialsDB)
		if err != nil {
			return nil, fmt.Errorf("open credentials db: %w", err)
		}
		defer func() {
			if err := st.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close credentials db")
			}
		}()

		creds, err := auth.LoadStore(context.Background(), st)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("db_path", cfg.CredentialsDB).Int("users", creds.Len()).Msg("credentials loaded")
		return creds, nil
	}

	creds, err := auth.LoadFile(cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", cfg.CredentialsPath).Int("users", creds.Len()).Msg("credentials loaded")
	return creds, nil
}

// Addr is the bound chat (TCP) address.
func (a *App) Addr() net.Addr { return a.tcp.Addr() }

// HTTPAddr is the bound HTTP address, or nil when the HTTP server is disabled.
func (a *App) HTTPAddr() net.Addr {
	if a.httpListener == nil {
		return nil
	}
	return a.httpListener.Addr()
}

// Hub exposes the chat core.
func (a *App) Hub() *core.Hub { return a.hub }

// Run starts the delivery worker and both servers and blocks until context
// cancellation or fatal error. On return every connection has been closed or
// shutdown_timeout has elapsed.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		a.hub.Run(ctx)
	}()

	tcpErr := make(chan error, 1)
	go func() { tcpErr <- a.tcp.Run(ctx) }()

	httpErr := make(chan error, 1)
	if a.http != nil {
		// WebSocket sessions outlive Shutdown, so tie them to ctx.
		a.http.BaseContext = func(net.Listener) context.Context { return ctx }
		go func() {
			a.log.Info().Str("addr", a.httpListener.Addr().String()).Msg("http server listening")
			if err := a.http.Serve(a.httpListener); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				httpErr <- err
				return
			}
			httpErr <- nil
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-tcpErr:
		tcpErr <- runErr
	case runErr = <-httpErr:
	}
	cancel()

	a.log.Info().Msg("shutting down")
	if a.http != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), a.shutdownTimeout)
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			a.log.Warn().Err(err).Msg("http shutdown")
		}
		stop()
	}
	if err := <-tcpErr; err != nil && runErr == nil {
		runErr = err
	}
	if err := a.tcp.Wait(a.shutdownTimeout); err != nil {
		a.log.Warn().Err(err).Int("active", a.tcp.Active()).Msg("connections still open after shutdown timeout")
	}
	<-hubDone

	return runErr
}
