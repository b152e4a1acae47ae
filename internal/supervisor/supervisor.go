package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
	"github.com/MrSnakeDoc/roomwatch/internal/logger"
)

var (
	ErrAlreadyStarted = errors.New("supervisor: already started")
	// ErrStopTimeout marks a runner that was still running when Stop gave up.
	ErrStopTimeout = errors.New("supervisor: session did not stop in time")
)

// Runner is one long-running unit of work, normally a session.
type Runner interface {
	Run(ctx context.Context) error
}

// Factory builds the runner for one address.
type Factory func(addr domain.ServerAddress) Runner

type unit struct {
	addr domain.ServerAddress
	done chan struct{}
	err  error // set before done is closed
}

// Supervisor runs one independent Runner per configured address.
type Supervisor struct {
	addrs   []domain.ServerAddress
	factory Factory
	logger  logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	units  []*unit
}

// New deduplicates addrs; the order of the input does not matter.
func New(addrs []domain.ServerAddress, factory Factory, log logger.Logger) *Supervisor {
	seen := make(map[string]bool, len(addrs))
	unique := make([]domain.ServerAddress, 0, len(addrs))
	for _, a := range addrs {
		if seen[a.String()] {
			continue
		}
		seen[a.String()] = true
		unique = append(unique, a)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].String() < unique[j].String() })

	return &Supervisor{
		addrs:   unique,
		factory: factory,
		logger:  log,
	}
}

// Addresses returns the deduplicated addresses, sorted.
func (s *Supervisor) Addresses() []domain.ServerAddress {
	return append([]domain.ServerAddress(nil), s.addrs...)
}

// Start launches every runner. The runners stop when ctx is cancelled or
// Stop is called.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, addr := range s.addrs {
		u := &unit{addr: addr, done: make(chan struct{})}
		s.units = append(s.units, u)
		go s.run(runCtx, u, s.factory(addr))
	}

	s.logger.Info("sessions started", logger.Int("count", len(s.units)))
	return nil
}

func (s *Supervisor) run(ctx context.Context, u *unit, r Runner) {
	defer close(u.done)
	defer func() {
		if rec := recover(); rec != nil {
			u.err = fmt.Errorf("panic: %v", rec)
			s.logger.Error("session panicked",
				logger.String("server", u.addr.String()),
				logger.Error(u.err))
		}
	}()

	u.err = r.Run(ctx)
	if u.err != nil {
		s.logger.Error("session exited with error",
			logger.String("server", u.addr.String()),
			logger.Error(u.err))
	}
}

// Running lists the addresses whose runner has not returned yet.
func (s *Supervisor) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, u := range s.units {
		select {
		case <-u.done:
		default:
			out = append(out, u.addr.String())
		}
	}
	return out
}

// Stop cancels every runner and waits up to timeout for all of them. The
// returned error lists each runner that did not stop in time or that ended
// with an error.
func (s *Supervisor) Stop(timeout time.Duration) error {
	s.mu.Lock()
	cancel := s.cancel
	units := append([]*unit(nil), s.units...)
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var errs error
	expired := false
	for _, u := range units {
		if !expired {
			select {
			case <-u.done:
			case <-timer.C:
				expired = true
			}
		}

		select {
		case <-u.done:
			if u.err != nil {
				errs = multierr.Append(errs, fmt.Errorf("session %s: %w", u.addr, u.err))
			}
		default:
			s.logger.Error("session did not stop in time",
				logger.String("server", u.addr.String()),
				logger.Duration("timeout", timeout))
			errs = multierr.Append(errs, fmt.Errorf("session %s after %v: %w", u.addr, timeout, ErrStopTimeout))
		}
	}

	if errs == nil {
		s.logger.Info("all sessions stopped", logger.Int("count", len(units)))
	}
	return errs
}
