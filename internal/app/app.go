// Package app wires all hillhouse subsystems into a running application.
//
// The App struct owns the full lifecycle: New opens the session store, loads
// the catalog and builds the MCP server, Run serves MCP clients until the
// context ends, and Shutdown tears everything down in order.
//
// For testing, inject replacements via functional options (WithStore,
// WithCatalog, WithTransport). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/hillhouse/internal/catalog"
	"github.com/MrWong99/hillhouse/internal/config"
	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/health"
	"github.com/MrWong99/hillhouse/internal/mcp"
	"github.com/MrWong99/hillhouse/internal/observe"
	"github.com/MrWong99/hillhouse/internal/resilience"
	"github.com/MrWong99/hillhouse/internal/session"
	"github.com/MrWong99/hillhouse/internal/session/postgres"
	"github.com/MrWong99/hillhouse/internal/session/sqlite"
	"github.com/MrWong99/hillhouse/internal/tracker"
)

// httpShutdownTimeout bounds how long in-flight HTTP requests may take to
// drain once Run is stopping.
const httpShutdownTimeout = 10 * time.Second

// App owns all subsystem lifetimes of the hillhouse server.
type App struct {
	cfg     *config.Config
	version string

	// Subsystems, initialised in New and torn down in Shutdown.
	store     session.Store
	catalog   *catalog.Catalog
	metrics   *observe.Metrics
	svc       *tracker.Service
	server    *mcp.Server
	handler   http.Handler
	httpSrv   *http.Server
	transport mcpsdk.Transport

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a session store instead of opening one from config. The
// caller keeps ownership; Shutdown does not close it.
func WithStore(s session.Store) Option {
	return func(a *App) { a.store = s }
}

// WithCatalog injects a catalog instead of loading one from config.
func WithCatalog(c *catalog.Catalog) Option {
	return func(a *App) { a.catalog = c }
}

// WithMetrics sets the metric instruments. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithTransport replaces the stdin/stdout transport used in stdio mode.
func WithTransport(t mcpsdk.Transport) Option {
	return func(a *App) { a.transport = t }
}

// WithVersion sets the version announced to MCP clients.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. cfg must already be
// defaulted and validated, as returned by [config.Load].
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, version: "dev"}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.transport == nil {
		a.transport = &mcpsdk.StdioTransport{}
	}

	// ── 1. Session store ────────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	// ── 2. Catalog ──────────────────────────────────────────────────────
	if a.catalog == nil {
		cat, err := catalog.Load(cfg.Catalog.RoomsPath, cfg.Catalog.CharactersPath)
		if err != nil {
			a.closeAll()
			return nil, fmt.Errorf("app: load catalog: %w", err)
		}
		a.catalog = cat
	}

	// ── 3. Tracker ──────────────────────────────────────────────────────
	a.svc = tracker.New(game.New(a.catalog), a.store,
		tracker.WithBackend(string(cfg.Storage.Backend)),
		tracker.WithMetrics(a.metrics),
	)
	n, err := a.svc.CountSessions(ctx)
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: count sessions: %w", err)
	}

	// ── 4. MCP server ───────────────────────────────────────────────────
	a.server = mcp.NewServer(a.svc, mcp.WithMetrics(a.metrics), mcp.WithVersion(a.version))

	// ── 5. HTTP surface ─────────────────────────────────────────────────
	a.handler = a.buildHandler()
	if cfg.Server.ListenAddr != "" {
		a.httpSrv = &http.Server{
			Addr:              cfg.Server.ListenAddr,
			Handler:           a.handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	slog.Info("app initialised",
		"backend", cfg.Storage.Backend,
		"sessions", n,
		"rooms", len(a.catalog.Rooms()),
		"characters", len(a.catalog.Characters()),
	)
	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initStore opens the configured backend unless a store was injected.
// Database backends are guarded by a circuit breaker.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}

	var (
		store session.Store
		err   error
	)
	switch a.cfg.Storage.Backend {
	case config.BackendFile, "":
		store, err = session.NewFileStore(a.cfg.Storage.Dir)
	case config.BackendSQLite:
		store, err = sqlite.Open(a.cfg.Storage.SQLitePath)
	case config.BackendPostgres:
		store, err = postgres.Open(ctx, a.cfg.Storage.PostgresDSN)
	default:
		err = fmt.Errorf("unknown backend %q", a.cfg.Storage.Backend)
	}
	if err != nil {
		return err
	}

	if a.cfg.Storage.Backend != config.BackendFile {
		store = resilience.GuardStore(store, resilience.CircuitBreakerConfig{
			Name:         "store/" + string(a.cfg.Storage.Backend),
			MaxFailures:  a.cfg.Storage.Breaker.MaxFailures,
			ResetTimeout: a.cfg.Storage.Breaker.ResetTimeout,
		})
	}

	a.store = store
	a.closers = append(a.closers, store.Close)
	return nil
}

// buildHandler assembles the HTTP routes: /mcp for streamable-http clients,
// /metrics when enabled, and the health probes.
func (a *App) buildHandler() http.Handler {
	mux := http.NewServeMux()
	if a.cfg.Server.Transport == mcp.TransportStreamableHTTP {
		mux.Handle("/mcp", a.server.Handler())
	}
	if a.cfg.Telemetry.MetricsEnabled() {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
	health.New(
		health.StoreChecker(a.store),
		health.CatalogChecker(a.catalog),
	).With(health.WithVersion(a.version)).Register(mux)
	return observe.Middleware(a.metrics)(mux)
}

// Handler returns the HTTP handler served on the listen address.
func (a *App) Handler() http.Handler { return a.handler }

// Tracker returns the service every MCP tool runs against.
func (a *App) Tracker() *tracker.Service { return a.svc }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves MCP clients and blocks until ctx is cancelled. In stdio mode the
// stdio client disconnecting also ends Run. Cancellation is not reported as
// an error.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if a.httpSrv != nil {
		ln, err := net.Listen("tcp", a.httpSrv.Addr)
		if err != nil {
			return fmt.Errorf("app: listen %q: %w", a.httpSrv.Addr, err)
		}
		slog.Info("http listening", "addr", ln.Addr().String(), "transport", a.cfg.Server.Transport)

		g.Go(func() error {
			var err error
			if tls := a.cfg.Server.TLS; tls != nil {
				err = a.httpSrv.ServeTLS(ln, tls.CertFile, tls.KeyFile)
			} else {
				err = a.httpSrv.Serve(ln)
			}
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("app: serve http: %w", err)
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), httpShutdownTimeout)
			defer cancel()
			return a.httpSrv.Shutdown(shutdownCtx)
		})
	}

	if a.cfg.Server.Transport == mcp.TransportStdio {
		g.Go(func() error {
			defer cancel()
			slog.Info("serving mcp over stdio")
			return a.server.Run(gctx, a.transport)
		})
	}

	return g.Wait()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// closeAll releases what New opened before a later step failed.
func (a *App) closeAll() {
	for _, closer := range a.closers {
		_ = closer()
	}
}
