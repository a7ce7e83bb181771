package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/hillhouse/internal/app"
	"github.com/MrWong99/hillhouse/internal/config"
	"github.com/MrWong99/hillhouse/internal/game"
	"github.com/MrWong99/hillhouse/internal/mcp"
	"github.com/MrWong99/hillhouse/internal/observe"
	"github.com/MrWong99/hillhouse/internal/session"
)

// testConfig returns a defaulted config writing sessions under a temp dir.
func testConfig(t *testing.T, transport mcp.Transport) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Transport: transport},
		Storage: config.StorageConfig{
			Backend: config.BackendFile,
			Dir:     filepath.Join(t.TempDir(), "sessions"),
		},
	}
	if transport == mcp.TransportStreamableHTTP {
		cfg.Server.ListenAddr = "127.0.0.1:0"
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

func newApp(t *testing.T, cfg *config.Config, opts ...app.Option) *app.App {
	t.Helper()
	opts = append([]app.Option{app.WithMetrics(testMetrics(t))}, opts...)
	application, err := app.New(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	t.Cleanup(func() { _ = application.Shutdown(context.Background()) })
	return application
}

// closeCounter counts Close calls on a wrapped store.
type closeCounter struct {
	session.Store
	closed atomic.Int32
}

func (c *closeCounter) Close() error {
	c.closed.Add(1)
	return c.Store.Close()
}

func get(t *testing.T, h http.Handler, path string) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code
}

// ─── New ─────────────────────────────────────────────────────────────────────

func TestNew_Backends(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		apply func(t *testing.T, cfg *config.Config)
	}{
		{
			name:  "file",
			apply: func(*testing.T, *config.Config) {},
		},
		{
			name: "sqlite",
			apply: func(t *testing.T, cfg *config.Config) {
				cfg.Storage = config.StorageConfig{
					Backend:    config.BackendSQLite,
					SQLitePath: filepath.Join(t.TempDir(), "hillhouse.db"),
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t, mcp.TransportStdio)
			tc.apply(t, cfg)
			application := newApp(t, cfg)

			specs := []game.PlayerSpec{{CharacterID: "zostra", IsAI: true}}
			d, err := application.Tracker().Create(context.Background(), specs)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if _, err := application.Tracker().Load(context.Background(), d.Meta.SessionID); err != nil {
				t.Fatalf("Load: %v", err)
			}
		})
	}
}

func TestNew_MissingCatalogFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, mcp.TransportStdio)
	cfg.Catalog.RoomsPath = filepath.Join(t.TempDir(), "absent.yaml")

	_, err := app.New(context.Background(), cfg, app.WithMetrics(testMetrics(t)))
	if err == nil {
		t.Fatal("New() should fail when the rooms file is missing")
	}
}

func TestNew_UnreachablePostgres(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, mcp.TransportStdio)
	cfg.Storage = config.StorageConfig{
		Backend:     config.BackendPostgres,
		PostgresDSN: "postgres://nobody@127.0.0.1:1/hillhouse?connect_timeout=1",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := app.New(ctx, cfg, app.WithMetrics(testMetrics(t))); err == nil {
		t.Fatal("New() should fail when postgres is unreachable")
	}
}

// ─── HTTP surface ────────────────────────────────────────────────────────────

func TestHandler_Routes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		transport mcp.Transport
		metrics   bool
		path      string
		want      int
	}{
		{name: "healthz", transport: mcp.TransportStdio, metrics: true, path: "/healthz", want: http.StatusOK},
		{name: "readyz", transport: mcp.TransportStdio, metrics: true, path: "/readyz", want: http.StatusOK},
		{name: "metrics", transport: mcp.TransportStdio, metrics: true, path: "/metrics", want: http.StatusOK},
		{name: "metrics disabled", transport: mcp.TransportStdio, metrics: false, path: "/metrics", want: http.StatusNotFound},
		{name: "no mcp over stdio", transport: mcp.TransportStdio, metrics: true, path: "/mcp", want: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t, tc.transport)
			cfg.Telemetry.Metrics = &tc.metrics
			application := newApp(t, cfg)

			if got := get(t, application.Handler(), tc.path); got != tc.want {
				t.Errorf("GET %s = %d, want %d", tc.path, got, tc.want)
			}
		})
	}
}

func TestHandler_StreamableHTTP(t *testing.T) {
	t.Parallel()

	application := newApp(t, testConfig(t, mcp.TransportStreamableHTTP))
	srv := httptest.NewServer(application.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, &mcpsdk.StreamableClientTransport{Endpoint: srv.URL + "/mcp"}, nil)
	if err != nil {
		t.Fatalf("client Connect: %v", err)
	}
	defer cs.Close()

	res, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(res.Tools) == 0 {
		t.Error("ListTools returned no tools")
	}
}

// ─── Run / Shutdown ──────────────────────────────────────────────────────────

func TestApp_RunStdio(t *testing.T) {
	t.Parallel()

	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	application := newApp(t, testConfig(t, mcp.TransportStdio), app.WithTransport(serverTransport))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run(ctx)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client Connect: %v", err)
	}
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{Name: "get_starting_rooms", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Errorf("get_starting_rooms returned an error result")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return within 5s after context cancellation")
	}
}

func TestApp_RunAndShutdown(t *testing.T) {
	t.Parallel()

	application := newApp(t, testConfig(t, mcp.TransportStreamableHTTP))

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run(ctx)
	}()

	// Give Run a moment to bind.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return within 5s after context cancellation")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
}

func TestApp_RunListenError(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, mcp.TransportStreamableHTTP)
	cfg.Server.ListenAddr = "256.0.0.1:99999"
	application := newApp(t, cfg)

	if err := application.Run(context.Background()); err == nil {
		t.Fatal("Run() should fail on an invalid listen address")
	}
}

func TestApp_ShutdownLeavesInjectedStore(t *testing.T) {
	t.Parallel()

	fs, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	store := &closeCounter{Store: fs}
	application := newApp(t, testConfig(t, mcp.TransportStdio), app.WithStore(store))

	for range 2 {
		if err := application.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown() error: %v", err)
		}
	}
	if got := store.closed.Load(); got != 0 {
		t.Errorf("injected store closed %d times, want 0", got)
	}
}

func TestApp_ShutdownExpiredContext(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, mcp.TransportStdio)
	application, err := app.New(context.Background(), cfg, app.WithMetrics(testMetrics(t)))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := application.Shutdown(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Shutdown() = %v, want context.Canceled", err)
	}
}
