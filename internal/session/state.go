package session

import (
	"context"
	"time"
)

// Phase is the position of a session in its connect/poll/backoff cycle.
type Phase int

const (
	PhaseConnecting Phase = iota
	PhasePolling
	PhaseBackoff
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhasePolling:
		return "polling"
	case PhaseBackoff:
		return "backoff"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// State is the per-address bookkeeping of a session.
type State struct {
	Phase                   Phase
	ConsecutiveFailures     int
	LastFailureWasException bool
}

// Config holds session timings.
type Config struct {
	HandshakeTimeout time.Duration // bound on dialing, then on waiting for the connect event
	ServiceTimeout   time.Duration // wait budget of one service call
	PollInterval     time.Duration // sleep between service calls
	Backoff          time.Duration // fixed delay between cycles
	FailureThreshold int           // registry entry is cleared once the streak exceeds this
}

func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 3 * time.Second,
		ServiceTimeout:   3 * time.Second,
		PollInterval:     100 * time.Millisecond,
		Backoff:          30 * time.Second,
		FailureThreshold: 10,
	}
}

// Clock is the time source of a session.
type Clock interface {
	Now() time.Time
	// Sleep waits for d or until ctx is done, returning ctx.Err() in that case.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
