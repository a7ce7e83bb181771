package config_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/hillhouse/internal/config"
)

const reloadInfoYAML = `
server:
  log_level: info
storage:
  backend: file
  dir: sessions
`

const reloadDebugYAML = `
server:
  log_level: debug
storage:
  backend: file
  dir: sessions
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %q: %v", path, err)
	}
}

// recorder collects onReload calls.
type recorder struct {
	mu    sync.Mutex
	diffs []config.ConfigDiff
	got   chan struct{}
}

func newRecorder() *recorder { return &recorder{got: make(chan struct{}, 64)} }

func (r *recorder) onReload(d config.ConfigDiff, _ *config.Config) {
	r.mu.Lock()
	r.diffs = append(r.diffs, d)
	r.mu.Unlock()
	select {
	case r.got <- struct{}{}:
	default:
	}
}

func (r *recorder) calls() []config.ConfigDiff {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]config.ConfigDiff(nil), r.diffs...)
}

func newReloader(t *testing.T, initial string, rec *recorder, opts ...config.ReloaderOption) (*config.Reloader, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, initial)
	r, err := config.NewReloader(path, rec.onReload, opts...)
	if err != nil {
		t.Fatalf("NewReloader: %v", err)
	}
	return r, path
}

// ── Check ────────────────────────────────────────────────────────────────────

func TestReloader_InitialLoad(t *testing.T) {
	t.Parallel()
	r, _ := newReloader(t, reloadInfoYAML, newRecorder())

	if got := r.Current().Server.LogLevel; got != config.LogInfo {
		t.Errorf("log_level: got %q, want %q", got, config.LogInfo)
	}
}

func TestReloader_InitialLoadFails(t *testing.T) {
	t.Parallel()
	if _, err := config.NewReloader(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, bad, "server:\n  log_level: bananas\n")
	if _, err := config.NewReloader(bad, nil); err == nil {
		t.Fatal("expected error for invalid file")
	}
}

func TestReloader_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		next        string
		wantChanged bool
		wantErr     bool
		wantLevel   config.LogLevel
		wantRestart []string
	}{
		{
			name:        "log level",
			next:        reloadDebugYAML,
			wantChanged: true,
			wantLevel:   config.LogDebug,
		},
		{
			name:        "restart section",
			next:        reloadInfoYAML + "telemetry:\n  service_name: renamed\n",
			wantChanged: true,
			wantLevel:   config.LogInfo,
			wantRestart: []string{"telemetry"},
		},
		{
			name:      "same bytes",
			next:      reloadInfoYAML,
			wantLevel: config.LogInfo,
		},
		{
			name:      "equivalent config",
			next:      "# a comment\n" + reloadInfoYAML,
			wantLevel: config.LogInfo,
		},
		{
			name:      "invalid keeps old",
			next:      "server:\n  log_level: bananas\n",
			wantErr:   true,
			wantLevel: config.LogInfo,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := newRecorder()
			r, path := newReloader(t, reloadInfoYAML, rec)
			writeFile(t, path, tc.next)

			changed, err := r.Check()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Check error = %v, wantErr %v", err, tc.wantErr)
			}
			if changed != tc.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tc.wantChanged)
			}
			if got := r.Current().Server.LogLevel; got != tc.wantLevel {
				t.Errorf("Current log_level = %q, want %q", got, tc.wantLevel)
			}

			calls := rec.calls()
			if !tc.wantChanged {
				if len(calls) != 0 {
					t.Errorf("onReload called %d times, want 0", len(calls))
				}
				return
			}
			if len(calls) != 1 {
				t.Fatalf("onReload called %d times, want 1", len(calls))
			}
			d := calls[0]
			if d.LogLevelChanged != (tc.wantLevel != config.LogInfo) {
				t.Errorf("LogLevelChanged = %v", d.LogLevelChanged)
			}
			if len(d.RestartRequired) != len(tc.wantRestart) {
				t.Errorf("RestartRequired = %v, want %v", d.RestartRequired, tc.wantRestart)
			}
		})
	}
}

// ── Run ──────────────────────────────────────────────────────────────────────

func TestReloader_RunPicksUpChange(t *testing.T) {
	t.Parallel()
	rec := newRecorder()
	r, path := newReloader(t, reloadInfoYAML, rec, config.WithInterval(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	writeFile(t, path, reloadDebugYAML)

	// A poll may catch the file half-written; wait until the final content
	// has been applied.
	deadline := time.After(2 * time.Second)
	for r.Current().Server.LogLevel != config.LogDebug {
		select {
		case <-rec.got:
		case <-deadline:
			t.Fatal("log level change was not applied within timeout")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
