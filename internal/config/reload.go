package config

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// DefaultReloadInterval is how often a [Reloader] re-reads its file.
const DefaultReloadInterval = 5 * time.Second

// Reloader re-reads the config file while the server runs. When the file
// holds a new valid config, the reloader diffs it against the running one and
// reports the [ConfigDiff]. Invalid files are logged and ignored; the last
// valid config stays current.
type Reloader struct {
	path     string
	interval time.Duration
	onReload func(ConfigDiff, *Config)

	mu      sync.Mutex
	current *Config
	sum     [sha256.Size]byte
}

// ReloaderOption configures a [Reloader].
type ReloaderOption func(*Reloader)

// WithInterval sets the polling interval. Non-positive values are ignored.
func WithInterval(d time.Duration) ReloaderOption {
	return func(r *Reloader) {
		if d > 0 {
			r.interval = d
		}
	}
}

// NewReloader loads path once and returns a reloader that reports later
// changes to onReload. onReload may be nil. Polling starts with [Reloader.Run].
func NewReloader(path string, onReload func(ConfigDiff, *Config), opts ...ReloaderOption) (*Reloader, error) {
	r := &Reloader{
		path:     path,
		interval: DefaultReloadInterval,
		onReload: onReload,
	}
	for _, o := range opts {
		o(r)
	}

	cfg, sum, err := r.read()
	if err != nil {
		return nil, fmt.Errorf("config: reloader initial load: %w", err)
	}
	r.current, r.sum = cfg, sum
	return r, nil
}

// Current returns the most recently loaded valid config.
func (r *Reloader) Current() *Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Run polls the file until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Check(); err != nil {
				slog.Warn("config reload skipped", "path", r.path, "err", err)
			}
		}
	}
}

// Check re-reads the file once. It reports whether the running config
// changed. A file whose bytes are unchanged is not parsed again, and a file
// that parses to an equivalent config does not trigger onReload.
func (r *Reloader) Check() (bool, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return false, err
	}
	sum := sha256.Sum256(data)

	r.mu.Lock()
	same := sum == r.sum
	r.mu.Unlock()
	if same {
		return false, nil
	}

	cfg, err := parse(data, true)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	old := r.current
	r.current, r.sum = cfg, sum
	r.mu.Unlock()

	diff := Diff(old, cfg)
	if !diff.LogLevelChanged && len(diff.RestartRequired) == 0 {
		return false, nil
	}

	slog.Info("config reloaded", "path", r.path,
		"log_level_changed", diff.LogLevelChanged,
		"restart_required", diff.RestartRequired,
	)
	if r.onReload != nil {
		r.onReload(diff, cfg)
	}
	return true, nil
}

func (r *Reloader) read() (*Config, [sha256.Size]byte, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, [sha256.Size]byte{}, err
	}
	cfg, err := parse(data, true)
	if err != nil {
		return nil, [sha256.Size]byte{}, err
	}
	return cfg, sha256.Sum256(data), nil
}
