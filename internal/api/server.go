package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/neuroair-core/internal/auth"
	"github.com/nerrad567/neuroair-core/internal/device"
	"github.com/nerrad567/neuroair-core/internal/dispatch"
	"github.com/nerrad567/neuroair-core/internal/history"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/config"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/logging"
	"github.com/nerrad567/neuroair-core/internal/platform"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// WebSocket event channels.
const (
	ChannelStateChanged = "device.state_changed"
	ChannelDispatch     = "dispatch.completed"
)

// HistoryStore is the dispatch history used by the history endpoints.
type HistoryStore interface {
	List(ctx context.Context, deviceID string, limit int) ([]history.Record, error)
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Security   config.SecurityConfig
	Logger     *logging.Logger
	Dispatcher *dispatch.Dispatcher
	Controller *device.Controller

	// Issuer verifies link tokens. Required when Security.AuthEnabled.
	Issuer *auth.Issuer

	// Optional.
	History    HistoryStore
	Platforms  []platform.Adapter
	Recognizer platform.Recognizer
	Version    string
}

// Server is the HTTP API server for NeuroAIR Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	secCfg     config.SecurityConfig
	logger     *logging.Logger
	dispatcher *dispatch.Dispatcher
	controller *device.Controller
	issuer     *auth.Issuer
	history    HistoryStore
	platforms  map[string]platform.Adapter
	recognizer platform.Recognizer
	version    string
	server     *http.Server
	hub        *Hub
	cancel     context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The WebSocket hub is created here and attached to the dispatcher and
// controller so broadcasts start as soon as the hub runs.
//
// Parameters:
//   - deps: Required dependencies (logger, dispatcher, controller)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Dispatcher == nil || deps.Controller == nil {
		return nil, fmt.Errorf("dispatcher and controller are required")
	}
	if deps.Security.AuthEnabled && deps.Issuer == nil {
		return nil, fmt.Errorf("token issuer is required when auth is enabled")
	}

	s := &Server{
		cfg:        deps.Config,
		secCfg:     deps.Security,
		logger:     deps.Logger,
		dispatcher: deps.Dispatcher,
		controller: deps.Controller,
		issuer:     deps.Issuer,
		history:    deps.History,
		platforms:  make(map[string]platform.Adapter, len(deps.Platforms)),
		recognizer: deps.Recognizer,
		version:    deps.Version,
	}
	for _, a := range deps.Platforms {
		s.platforms[a.Name()] = a
	}
	s.hub = NewHub(deps.WS, deps.Logger, func() any { return s.currentState() })

	s.controller.AddObserver(device.ObserverFunc(func(deviceID string, state device.State) {
		s.hub.Broadcast(ChannelStateChanged, map[string]any{
			"device_id": deviceID,
			"state":     state,
		})
	}))
	s.dispatcher.AddListener(func(ev dispatch.Event) {
		s.hub.Broadcast(ChannelDispatch, ev)
	})

	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and launches the HTTP listener in a
// background goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
