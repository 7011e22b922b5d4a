// Package netmon watches server reachability for the sync engine.
//
// The monitor combines two signals:
//
//  1. A periodic health probe against the backend.
//  2. An optional offline override file: while the marker file exists
//     the monitor reports unavailable regardless of probe results. This
//     is the CLI's airplane mode; the file is watched with fsnotify so
//     toggling it takes effect immediately, not on the next probe tick.
//
// Consecutive identical statuses are de-duplicated: subscribers only
// see transitions.
package netmon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Prober checks whether the backend is reachable. *api.Client
// implements it via Health.
type Prober interface {
	Health(ctx context.Context) error
}

// Monitor is the connectivity capability consumed by the sync engine.
type Monitor interface {
	// Status returns the current connectivity status.
	Status() Status

	// Subscribe registers for status transitions. The current status is
	// delivered first. The cancel func ends the subscription.
	Subscribe() (<-chan Status, func())
}

// Config configures the probe monitor.
type Config struct {
	// Prober performs the reachability check.
	Prober Prober

	// Interval between probes (default: 15s).
	Interval time.Duration

	// ProbeTimeout bounds a single probe (default: 3s).
	ProbeTimeout time.Duration

	// OverridePath is the offline marker file. Empty disables the
	// override.
	OverridePath string

	// Logger for monitor activity.
	Logger *log.Logger
}

// ProbeMonitor implements Monitor with a probe loop and an fsnotify
// watch on the override file.
type ProbeMonitor struct {
	cfg Config

	mu       sync.Mutex
	status   Status
	failures int
	wasUp    bool
	subs     map[int]chan Status
	nextSub  int

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// New creates a ProbeMonitor. Start must be called before statuses flow.
func New(cfg Config) (*ProbeMonitor, error) {
	if cfg.Prober == nil {
		return nil, fmt.Errorf("prober cannot be nil")
	}
	if cfg.Interval == 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 3 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[netmon] ", log.LstdFlags)
	}

	return &ProbeMonitor{
		cfg:    cfg,
		status: StatusUnavailable,
		subs:   make(map[int]chan Status),
		done:   make(chan struct{}),
	}, nil
}

// Start begins probing. It performs one immediate probe so the first
// status is known quickly, then probes on the configured interval.
func (m *ProbeMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("monitor already started")
	}
	m.started = true
	m.mu.Unlock()

	if m.cfg.OverridePath != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create fsnotify watcher: %w", err)
		}
		// Watch the parent directory: the marker file itself may not
		// exist yet.
		dir := filepath.Dir(m.cfg.OverridePath)
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch override directory %s: %w", dir, err)
		}
		m.watcher = watcher

		m.wg.Add(1)
		go m.watchOverride()
	}

	m.evaluate(ctx)

	m.wg.Add(1)
	go m.probeLoop(ctx)

	return nil
}

// Stop shuts the monitor down and closes all subscriber channels.
func (m *ProbeMonitor) Stop() error {
	close(m.done)

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			m.cfg.Logger.Printf("Error closing override watcher: %v", err)
		}
	}

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
	return nil
}

// Status implements Monitor.
func (m *ProbeMonitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Subscribe implements Monitor.
func (m *ProbeMonitor) Subscribe() (<-chan Status, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++

	ch := make(chan Status, 8)
	ch <- m.status
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// probeLoop drives periodic reachability checks.
func (m *ProbeMonitor) probeLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evaluate(ctx)
		}
	}
}

// watchOverride reacts to the offline marker appearing or disappearing.
func (m *ProbeMonitor) watchOverride() {
	defer m.wg.Done()

	for {
		select {
		case <-m.done:
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Name != m.cfg.OverridePath {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			m.cfg.Logger.Printf("Offline override changed: %s %s", event.Op, event.Name)
			ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ProbeTimeout)
			m.evaluate(ctx)
			cancel()

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.cfg.Logger.Printf("Override watcher error: %v", err)
		}
	}
}

// evaluate combines the override state and one probe into a status.
func (m *ProbeMonitor) evaluate(ctx context.Context) {
	if m.overridden() {
		m.setStatus(StatusUnavailable, true)
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	err := m.cfg.Prober.Health(probeCtx)
	cancel()

	if err != nil {
		m.cfg.Logger.Printf("Probe failed: %v", err)
	}
	m.setStatus(m.classify(err), false)
}

// overridden reports whether the offline marker file exists.
func (m *ProbeMonitor) overridden() bool {
	if m.cfg.OverridePath == "" {
		return false
	}
	_, err := os.Stat(m.cfg.OverridePath)
	return err == nil
}

// classify maps a probe outcome to a status, tracking failure history.
// A failure right after a healthy period reads as losing; repeated
// failures read as lost; failures on a connection that never came up
// read as unavailable.
func (m *ProbeMonitor) classify(probeErr error) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if probeErr == nil {
		m.failures = 0
		m.wasUp = true
		return StatusAvailable
	}

	m.failures++
	if !m.wasUp {
		return StatusUnavailable
	}
	if m.failures == 1 {
		return StatusLosing
	}
	return StatusLost
}

// setStatus records a status and notifies subscribers on change.
// Consecutive identical statuses are swallowed. forced resets the
// failure history so a cleared override re-probes from scratch.
func (m *ProbeMonitor) setStatus(s Status, forced bool) {
	m.mu.Lock()

	if forced {
		m.failures = 0
		m.wasUp = false
	}

	if s == m.status {
		m.mu.Unlock()
		return
	}

	prev := m.status
	m.status = s

	targets := make([]chan Status, 0, len(m.subs))
	for _, ch := range m.subs {
		targets = append(targets, ch)
	}
	m.mu.Unlock()

	m.cfg.Logger.Printf("Connectivity: %s -> %s", prev, s)

	for _, ch := range targets {
		select {
		case ch <- s:
		default:
			// Slow subscriber: drop the oldest status and retry once.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}
