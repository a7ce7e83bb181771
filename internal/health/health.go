// Package health serves the liveness and readiness probes of the hillhouse
// HTTP listener.
//
// GET /healthz answers 200 while the process can serve HTTP. GET /readyz runs
// every registered [Checker] concurrently and answers 503 when any of them
// fails. Both reply with a JSON [Report].
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// DefaultCheckTimeout bounds a single readiness check.
const DefaultCheckTimeout = 5 * time.Second

// Checker probes one dependency. Check returns nil when it is usable.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Status is the outcome of a probe or a single check.
type Status string

const (
	StatusOK   Status = "ok"
	StatusFail Status = "fail"
)

// CheckResult is the outcome of one [Checker].
type CheckResult struct {
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Report is the JSON body of both probes.
type Report struct {
	Status  Status                 `json:"status"`
	Version string                 `json:"version,omitempty"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// Handler serves /healthz and /readyz. The checker list is fixed at
// construction, so a Handler is safe for concurrent use.
type Handler struct {
	checkers []Checker
	version  string
	timeout  time.Duration
	started  time.Time
	now      func() time.Time
}

// Option configures a [Handler].
type Option func(*Handler)

// WithVersion sets the build version included in every report.
func WithVersion(v string) Option {
	return func(h *Handler) { h.version = v }
}

// WithCheckTimeout overrides [DefaultCheckTimeout].
func WithCheckTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// New creates a Handler with the given checkers. Use [Handler.With] to pass
// options.
func New(checkers ...Checker) *Handler {
	h := &Handler{
		checkers: append([]Checker(nil), checkers...),
		timeout:  DefaultCheckTimeout,
		now:      time.Now,
	}
	h.started = h.now()
	return h
}

// With applies opts to h and returns it.
func (h *Handler) With(opts ...Option) *Handler {
	for _, o := range opts {
		o(h)
	}
	return h
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.report(StatusOK, nil))
}

// Readyz is the readiness probe. Each check gets its own deadline derived
// from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	results := h.run(r.Context())

	status, code := StatusOK, http.StatusOK
	for _, res := range results {
		if res.Status != StatusOK {
			status, code = StatusFail, http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, code, h.report(status, results))
}

// Register adds both probes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func (h *Handler) run(ctx context.Context) map[string]CheckResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(h.checkers))
	)
	for _, c := range h.checkers {
		wg.Go(func() {
			res := h.check(ctx, c)
			mu.Lock()
			results[c.Name] = res
			mu.Unlock()
		})
	}
	wg.Wait()
	return results
}

func (h *Handler) check(ctx context.Context, c Checker) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := h.now()
	err := c.Check(ctx)
	res := CheckResult{Status: StatusOK, LatencyMS: h.now().Sub(start).Milliseconds()}
	if err != nil {
		res.Status = StatusFail
		res.Error = err.Error()
	}
	return res
}

func (h *Handler) report(status Status, checks map[string]CheckResult) Report {
	return Report{
		Status:  status,
		Version: h.version,
		Uptime:  h.now().Sub(h.started).Round(time.Second).String(),
		Checks:  checks,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
