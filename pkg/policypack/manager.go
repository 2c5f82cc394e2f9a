package policypack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/prgate/pkg/comparator"
)

// ErrNoPack is returned when no pack has been loaded yet.
var ErrNoPack = errors.New("no policy pack loaded")

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Path is a pack file or directory.
	Path string

	// Strict treats lint warnings as errors.
	Strict bool

	// Debounce is passed to the file watcher.
	Debounce time.Duration

	Loader *LoaderConfig
}

// ReloadFunc observes every load attempt.
type ReloadFunc func(pack *Pack, err error)

// Status describes the manager's current state.
type Status struct {
	Path        string    `json:"path"`
	Pack        string    `json:"pack,omitempty"`
	Version     string    `json:"version,omitempty"`
	Digest      string    `json:"digest,omitempty"`
	Rules       int       `json:"rules"`
	Files       []string  `json:"files,omitempty"`
	LoadedAt    time.Time `json:"loaded_at,omitzero"`
	LastAttempt time.Time `json:"last_attempt,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
}

// Manager holds the active policy pack and reloads it on demand.
// Current is lock-free and safe to call while a reload is running.
type Manager struct {
	config   ManagerConfig
	loader   *Loader
	registry *comparator.Registry
	logger   *slog.Logger
	onReload ReloadFunc

	current atomic.Pointer[Pack]

	mu          sync.Mutex
	lastAttempt time.Time
	lastErr     error
}

// NewManager creates a manager. It does not load anything until Reload.
func NewManager(config ManagerConfig, registry *comparator.Registry, logger *slog.Logger) (*Manager, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("policy path is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("comparator registry cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		config:   config,
		loader:   NewLoader(config.Loader),
		registry: registry,
		logger:   logger.With("component", "policypack"),
	}, nil
}

// OnReload registers fn to observe load attempts. It must be called before
// Reload or Watch.
func (m *Manager) OnReload(fn ReloadFunc) {
	m.onReload = fn
}

// Current returns the active pack, or nil before the first successful load.
func (m *Manager) Current() *Pack {
	return m.current.Load()
}

// Reload loads and lints the pack. On success it replaces the active pack;
// on failure the previous pack stays active and the error is returned.
func (m *Manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	m.lastAttempt = start

	pack, err := m.load()
	if m.onReload != nil {
		m.onReload(pack, err)
	}
	if err != nil {
		m.lastErr = err
		attrs := []any{"path", m.config.Path, "error", err}
		if prev := m.current.Load(); prev != nil {
			attrs = append(attrs, "active_digest", prev.Digest)
		}
		m.logger.Error("policy pack reload failed, keeping previous pack", attrs...)
		return err
	}

	m.lastErr = nil
	m.current.Store(pack)
	m.logger.Info("policy pack loaded",
		"pack", pack.RuleSet.Name,
		"version", pack.RuleSet.Version,
		"rules", len(pack.RuleSet.Rules),
		"digest", pack.Digest,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (m *Manager) load() (*Pack, error) {
	pack, err := m.loader.Load(m.config.Path)
	if err != nil {
		return nil, err
	}
	report := Lint(pack.RuleSet, m.registry)
	for _, w := range report.Warnings() {
		m.logger.Warn("policy pack lint warning", "issue", w.String())
	}
	if err := report.Err(m.config.Strict); err != nil {
		return nil, err
	}
	return pack, nil
}

// Status returns a snapshot of the manager state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{Path: m.config.Path, LastAttempt: m.lastAttempt}
	if m.lastErr != nil {
		s.LastError = m.lastErr.Error()
	}
	if p := m.current.Load(); p != nil {
		s.Pack = p.RuleSet.Name
		s.Version = p.RuleSet.Version
		s.Digest = p.Digest
		s.Rules = len(p.RuleSet.Rules)
		s.Files = p.Files
		s.LoadedAt = p.LoadedAt
	}
	return s
}

// Watch reloads the pack whenever its files change, until ctx is done.
func (m *Manager) Watch(ctx context.Context) error {
	fw, err := NewFileWatcher(WatcherConfig{
		Path:       m.config.Path,
		Debounce:   m.config.Debounce,
		Extensions: m.loader.config.Extensions,
		SkipHidden: m.loader.config.SkipHidden,
	}, m.logger)
	if err != nil {
		return err
	}
	return fw.Watch(ctx, func() {
		// Reload logs its own failures.
		_ = m.Reload()
	})
}
