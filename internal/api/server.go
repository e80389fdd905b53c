// Package api provides the HTTP inspection API and WebSocket server for Gray Logic IO.
//
// It exposes bound devices, bridge join tables and join map overrides to
// commissioning tools and wall panels.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-io/internal/bridge"
	"github.com/nerrad567/gray-logic-io/internal/feedback"
	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-io/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-io/internal/joinmap"
	"github.com/nerrad567/gray-logic-io/internal/lifecycle"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Device is the view of a device module the API needs.
type Device interface {
	Key() string
	Name() string
	Type() string
	Model() string
	Feedbacks() *feedback.Collection
	JoinMap() joinmap.Map
	Endpoint() hardware.Endpoint
	Refresh()
}

// StateSource reports bring-up state. *lifecycle.Coordinator satisfies it.
type StateSource interface {
	State(key string) (lifecycle.State, bool)
	Err(key string) error
}

// OverrideStore persists join map overrides. *joinmap.SQLiteStore satisfies it.
type OverrideStore interface {
	Get(ctx context.Context, key string) (*joinmap.Record, error)
	Put(ctx context.Context, key, body string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]joinmap.Record, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger

	// Devices are every module built from the devices file, bound or not.
	Devices []Device
	States  StateSource
	Linker  *bridge.Linker

	// Overrides is optional; without it the join map endpoints are read-only.
	Overrides OverrideStore

	// Hub is optional. Pass one when the linker needs to publish to it
	// before the server starts.
	Hub *Hub

	Version string
}

// Server is the HTTP API server for Gray Logic IO.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	devices   []Device
	byKey     map[string]Device
	states    StateSource
	linker    *bridge.Linker
	overrides OverrideStore
	version   string
	startTime time.Time

	server  *http.Server
	hub     *Hub
	tickets *ticketStore
	cancel  context.CancelFunc // cancels background goroutines on Close()

	mu      sync.Mutex
	started bool
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, linker); the rest are optional
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Linker == nil {
		return nil, fmt.Errorf("bridge linker is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		devices:   deps.Devices,
		byKey:     make(map[string]Device, len(deps.Devices)),
		states:    deps.States,
		linker:    deps.Linker,
		overrides: deps.Overrides,
		version:   deps.Version,
		startTime: time.Now(),
		hub:       deps.Hub,
		tickets:   newTicketStore(),
	}
	for _, d := range deps.Devices {
		s.byKey[strings.ToLower(d.Key())] = d
	}
	if s.hub == nil {
		s.hub = NewHub(deps.WS, deps.Logger)
	}
	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the router without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and ticket cleanup, builds the router and
// launches the HTTP listener in a background goroutine. The server can be
// stopped with Close().
//
// Parameters:
//   - ctx: Parent context for the hub and ticket cleanup
//
// Returns:
//   - error: If the server was already started
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("api server already started")
	}
	s.started = true

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.cleanTicketsLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr, "auth", s.authEnabled())
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
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

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
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

// device finds a device by key, ignoring case.
func (s *Server) device(key string) (Device, bool) {
	d, ok := s.byKey[strings.ToLower(key)]
	return d, ok
}
