package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
	"github.com/MrSnakeDoc/roomwatch/internal/logger"
	"github.com/MrSnakeDoc/roomwatch/internal/protocol"
	"github.com/MrSnakeDoc/roomwatch/internal/registry"
	"github.com/MrSnakeDoc/roomwatch/internal/transport"
)

const (
	phaseLabelConnect = "connect"
	phaseLabelService = "service"
)

var (
	ErrHandshakeTimeout = errors.New("session: no connect event within handshake timeout")
	ErrHandshakeRefused = errors.New("session: peer disconnected before connect")
)

// Recorder receives the per-server metrics a session produces.
type Recorder interface {
	SetPlayers(addr domain.ServerAddress, n int)
	RecordDecoded(addr domain.ServerAddress)
	RecordRejected(addr domain.ServerAddress)
	RecordFailure(addr domain.ServerAddress, phase string)
}

// Session polls one server forever: connect, service until the peer
// disconnects, back off, repeat.
type Session struct {
	addr     domain.ServerAddress
	cfg      Config
	dialer   transport.Dialer
	registry *registry.Registry
	metrics  Recorder
	clock    Clock
	logger   logger.Logger

	mu     sync.Mutex
	state  State
	client transport.Client
}

type Option func(*Session)

// WithClock replaces the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// New creates a session for addr. It does nothing until Run is called.
func New(
	addr domain.ServerAddress,
	cfg Config,
	dialer transport.Dialer,
	reg *registry.Registry,
	metrics Recorder,
	log logger.Logger,
	opts ...Option,
) *Session {
	s := &Session{
		addr:     addr,
		cfg:      cfg,
		dialer:   dialer,
		registry: reg,
		metrics:  metrics,
		clock:    SystemClock{},
		logger:   log.With(logger.String("server", addr.String())),
		state:    State{Phase: PhaseConnecting},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Run drives the state machine until ctx is cancelled. Failures are handled
// internally; Run only returns once the session is stopped.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session started")
	defer s.logger.Info("session stopped")

	phase := PhaseConnecting
	for phase != PhaseStopped {
		s.setPhase(phase)

		switch phase {
		case PhaseConnecting:
			phase = s.connect(ctx)
		case PhasePolling:
			phase = s.poll(ctx)
		case PhaseBackoff:
			phase = s.backoff(ctx)
		}
	}

	s.setPhase(PhaseStopped)
	s.closeClient()
	return nil
}

// connect creates a fresh client and starts the handshake.
func (s *Session) connect(ctx context.Context) Phase {
	if ctx.Err() != nil {
		return PhaseStopped
	}
	if s.State().LastFailureWasException {
		s.logger.Info("reconnecting")
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
	client, err := s.dialer.Dial(dialCtx, s.addr)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return PhaseStopped
		}
		s.handshakeFailed(err)
		return PhaseBackoff
	}

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()

	return PhasePolling
}

// poll services the client until the peer disconnects or fails. Until the
// first connect (or data) event the handshake is pending: running out of
// HandshakeTimeout, a disconnect or a service error then counts as a failed
// connect.
func (s *Session) poll(ctx context.Context) Phase {
	defer s.closeClient()

	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	pending := true
	deadline := s.clock.Now().Add(s.cfg.HandshakeTimeout)

	for {
		timeout := s.cfg.ServiceTimeout
		if pending {
			timeout = min(timeout, max(deadline.Sub(s.clock.Now()), time.Millisecond))
		}

		ev, err := client.Service(ctx, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return PhaseStopped
			}
			if pending {
				s.handshakeFailed(err)
			} else {
				s.serviceFailed(err)
			}
			return PhaseBackoff
		}

		switch ev.Type {
		case transport.EventConnect:
			pending = false
			s.connected()
		case transport.EventReceive:
			pending = false
			s.receive(ev.Data)
			// One request/response per connection.
			client.Disconnect()
		case transport.EventDisconnect:
			if pending {
				s.handshakeFailed(ErrHandshakeRefused)
				return PhaseBackoff
			}
			s.logger.Debug("disconnected")
			return PhaseBackoff
		}

		if pending && !s.clock.Now().Before(deadline) {
			s.handshakeFailed(ErrHandshakeTimeout)
			return PhaseBackoff
		}

		if err := s.clock.Sleep(ctx, s.cfg.PollInterval); err != nil {
			return PhaseStopped
		}
	}
}

func (s *Session) backoff(ctx context.Context) Phase {
	if err := s.clock.Sleep(ctx, s.cfg.Backoff); err != nil {
		return PhaseStopped
	}
	return PhaseConnecting
}

func (s *Session) connected() {
	s.mu.Lock()
	recovered := s.state.LastFailureWasException
	s.state.ConsecutiveFailures = 0
	s.state.LastFailureWasException = false
	s.mu.Unlock()

	if recovered {
		s.logger.Info("reconnected")
	} else {
		s.logger.Debug("connected")
	}
}

func (s *Session) receive(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		if protocol.IsReject(err) {
			s.metrics.RecordRejected(s.addr)
		}
		s.logger.Debug("ignoring packet",
			logger.Int("bytes", len(data)),
			logger.Error(err))
		return
	}

	s.registry.Set(s.addr, msg.Snapshot(s.clock.Now()))
	s.metrics.SetPlayers(s.addr, msg.TotalPlayers)
	s.metrics.RecordDecoded(s.addr)

	s.logger.Debug("room status updated",
		logger.Uint16("version", msg.Version),
		logger.Int("rooms", len(msg.Rooms)),
		logger.Int("total_players", msg.TotalPlayers))
}

func (s *Session) handshakeFailed(err error) {
	s.mu.Lock()
	s.state.ConsecutiveFailures++
	s.state.LastFailureWasException = true
	streak := s.state.ConsecutiveFailures
	s.mu.Unlock()

	s.metrics.SetPlayers(s.addr, 0)
	s.metrics.RecordFailure(s.addr, phaseLabelConnect)

	s.logger.Warn("connection failed, retrying after backoff",
		logger.Int("consecutive_failures", streak),
		logger.Duration("backoff", s.cfg.Backoff),
		logger.Error(err))

	if streak > s.cfg.FailureThreshold {
		s.registry.Clear(s.addr)
		if streak == s.cfg.FailureThreshold+1 {
			s.logger.Error("server presumed down, dropping stale room data",
				logger.Int("consecutive_failures", streak))
		}
	}
}

func (s *Session) serviceFailed(err error) {
	s.mu.Lock()
	s.state.LastFailureWasException = true
	s.mu.Unlock()

	s.metrics.SetPlayers(s.addr, 0)
	s.metrics.RecordFailure(s.addr, phaseLabelService)

	s.logger.Warn("error while polling, retrying after backoff",
		logger.Duration("backoff", s.cfg.Backoff),
		logger.Error(err))
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Phase = p
}

func (s *Session) closeClient() {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		s.logger.Warn("failed to close transport client", logger.Error(err))
	}
}
