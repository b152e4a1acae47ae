// Package transport abstracts the connection-oriented UDP client a session
// drives. The production implementation is ENet; tests use fakes.
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
)

// ErrClosed is returned when a closed client is serviced.
var ErrClosed = errors.New("transport: client closed")

type EventType int

const (
	EventNone EventType = iota
	EventConnect
	EventReceive
	EventDisconnect
)

func (t EventType) String() string {
	switch t {
	case EventNone:
		return "none"
	case EventConnect:
		return "connect"
	case EventReceive:
		return "receive"
	case EventDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is one transport event. Data is only set for EventReceive and is
// owned by the caller.
type Event struct {
	Type EventType
	Data []byte
}

// Client is one host/peer pair connected (or connecting) to a single server.
type Client interface {
	// Service waits up to timeout for the next event. EventNone means nothing
	// happened within the budget.
	Service(ctx context.Context, timeout time.Duration) (Event, error)
	// Disconnect asks the peer to disconnect gracefully. The matching
	// EventDisconnect is delivered by a later Service call.
	Disconnect()
	// Close releases the underlying resources. Safe to call twice.
	Close() error
}

// Dialer creates clients and starts their connect handshake.
type Dialer interface {
	Dial(ctx context.Context, addr domain.ServerAddress) (Client, error)
}
