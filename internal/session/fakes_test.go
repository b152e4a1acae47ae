package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
	"github.com/MrSnakeDoc/roomwatch/internal/transport"
)

type step struct {
	ev  transport.Event
	err error
}

func connectEv() step    { return step{ev: transport.Event{Type: transport.EventConnect}} }
func disconnectEv() step { return step{ev: transport.Event{Type: transport.EventDisconnect}} }
func receiveEv(b ...byte) step {
	return step{ev: transport.Event{Type: transport.EventReceive, Data: b}}
}
func failEv(msg string) step { return step{err: errors.New(msg)} }

// fakeClient replays a script of events; once exhausted it reports a
// disconnect, or nothing at all when idle is set.
type fakeClient struct {
	mu          sync.Mutex
	script      []step
	disconnects int
	closed      bool
	block       bool // block in Service until ctx is done
	idle        bool // exhausted script yields EventNone forever
	services    int
}

func (c *fakeClient) Service(ctx context.Context, _ time.Duration) (transport.Event, error) {
	if c.block {
		<-ctx.Done()
		return transport.Event{}, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return transport.Event{}, transport.ErrClosed
	}
	c.services++
	if len(c.script) == 0 && c.idle {
		return transport.Event{Type: transport.EventNone}, nil
	}
	if len(c.script) == 0 {
		return transport.Event{Type: transport.EventDisconnect}, nil
	}
	s := c.script[0]
	c.script = c.script[1:]
	return s.ev, s.err
}

func (c *fakeClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnects++
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeClient) Services() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.services
}

func (c *fakeClient) Disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}

// fakeDialer hands out clients in order; nil entries fail. Once the list is
// exhausted every dial fails.
type fakeDialer struct {
	mu      sync.Mutex
	clients []*fakeClient
	dials   int
}

func (d *fakeDialer) Dial(_ context.Context, addr domain.ServerAddress) (transport.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	if len(d.clients) == 0 {
		return nil, errors.New("unreachable: " + addr.String())
	}
	c := d.clients[0]
	d.clients = d.clients[1:]
	if c == nil {
		return nil, errors.New("unreachable: " + addr.String())
	}
	return c, nil
}

// fakeClock never really sleeps. It cancels the run after stopAfter backoffs.
// With tick set, every Sleep advances Now by the slept duration.
type fakeClock struct {
	mu        sync.Mutex
	now       time.Time
	tick      bool
	backoff   time.Duration
	stopAfter int
	cancel    context.CancelFunc
	sleeps    []time.Duration
	backoffs  int
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	if c.tick {
		c.now = c.now.Add(d)
	}
	if d == c.backoff {
		c.backoffs++
		if c.backoffs >= c.stopAfter {
			c.cancel()
		}
	}
	c.mu.Unlock()

	return ctx.Err()
}

func (c *fakeClock) count(d time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, s := range c.sleeps {
		if s == d {
			n++
		}
	}
	return n
}

type fakeRecorder struct {
	mu       sync.Mutex
	players  map[string][]int
	decoded  int
	rejected int
	failures map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{players: map[string][]int{}, failures: map[string]int{}}
}

func (r *fakeRecorder) SetPlayers(addr domain.ServerAddress, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[addr.String()] = append(r.players[addr.String()], n)
}

func (r *fakeRecorder) RecordDecoded(domain.ServerAddress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoded++
}

func (r *fakeRecorder) RecordRejected(domain.ServerAddress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
}

func (r *fakeRecorder) RecordFailure(_ domain.ServerAddress, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[phase]++
}

func (r *fakeRecorder) history(addr domain.ServerAddress) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.players[addr.String()]...)
}
