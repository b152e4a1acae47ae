package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
	"github.com/MrSnakeDoc/roomwatch/internal/logger"
)

// SnapshotSource is what the mirror reads from (the registry).
type SnapshotSource interface {
	All() map[string]*domain.ServerSnapshot
}

// SnapshotSink is where snapshots are published (the redis store).
type SnapshotSink interface {
	SaveSnapshots(ctx context.Context, snaps map[string]*domain.ServerSnapshot) error
	Prune(ctx context.Context, keep map[string]*domain.ServerSnapshot) (int, error)
}

// Mirror periodically copies the registry into an external store.
type Mirror struct {
	source   SnapshotSource
	sink     SnapshotSink
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	started atomic.Bool

	mu       sync.Mutex
	lastPush time.Time
	lastErr  error
}

// NewMirror creates a new mirror
func NewMirror(source SnapshotSource, sink SnapshotSink, log logger.Logger, interval time.Duration) *Mirror {
	return &Mirror{
		source:   source,
		sink:     sink,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start publishes once, prunes stale keys from a previous run, then
// publishes every interval until Stop or ctx is done.
func (m *Mirror) Start(ctx context.Context) error {
	if removed, err := m.sink.Prune(ctx, m.source.All()); err != nil {
		m.logger.Warn("failed to prune mirrored servers", logger.Error(err))
	} else if removed > 0 {
		m.logger.Info("pruned mirrored servers", logger.Int("count", removed))
	}

	if err := m.Publish(ctx); err != nil {
		m.logger.Warn("initial mirror publish failed", logger.Error(err))
	}

	m.started.Store(true)
	ticker := time.NewTicker(m.interval)
	go func() {
		defer close(m.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := m.Publish(ctx); err != nil {
					m.logger.Error("mirror publish failed", logger.Error(err))
				}
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the mirror and waits for the publishing goroutine.
func (m *Mirror) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	if m.started.Load() {
		<-m.done
	}
	m.logger.Info("mirror stopped")
}

// Publish pushes the current registry content.
func (m *Mirror) Publish(ctx context.Context) error {
	snaps := m.source.All()
	err := m.sink.SaveSnapshots(ctx, snaps)

	m.mu.Lock()
	m.lastErr = err
	if err == nil {
		m.lastPush = time.Now()
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.logger.Debug("mirrored snapshots", logger.Int("count", len(snaps)))
	return nil
}

// Status returns when the mirror last succeeded and the latest error, if any.
func (m *Mirror) Status() (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPush, m.lastErr
}
