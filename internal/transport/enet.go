package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/codecat/go-enet"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
)

const (
	enetPeerCount    = 1
	enetChannelLimit = 2

	// serviceSlice bounds a single host service call so context
	// cancellation is noticed quickly.
	serviceSlice = 100 * time.Millisecond
)

var initOnce sync.Once

// Init initialises the ENet library. Must be called before the first Dial.
func Init() {
	initOnce.Do(func() { enet.Initialize() })
}

// Deinit releases the ENet library. Call once, after every client is closed.
func Deinit() {
	enet.Deinitialize()
}

// ENetDialer dials game servers over ENet.
type ENetDialer struct {
	Resolver *net.Resolver
}

// NewENetDialer returns a dialer using the default resolver.
func NewENetDialer() *ENetDialer {
	return &ENetDialer{Resolver: net.DefaultResolver}
}

// Dial creates a client host and starts the handshake with addr. The
// handshake completes asynchronously and is reported as EventConnect.
func (d *ENetDialer) Dial(ctx context.Context, addr domain.ServerAddress) (Client, error) {
	ip, err := d.resolve(ctx, addr.Host)
	if err != nil {
		return nil, err
	}

	host, err := enet.NewHost(nil, enetPeerCount, enetChannelLimit, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create enet host: %w", err)
	}

	peer, err := host.Connect(enet.NewAddress(ip, addr.Port), enetChannelLimit, 0)
	if err != nil {
		host.Destroy()
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	return &enetClient{host: host, peer: peer}, nil
}

func (d *ENetDialer) resolve(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	resolver := d.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	ips, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", host, err)
	}
	for _, ip := range ips {
		if v4 := ip.IP.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return "", fmt.Errorf("no IPv4 address for %s", host)
}

type enetClient struct {
	mu   sync.Mutex
	host enet.Host
	peer enet.Peer
}

func (c *enetClient) Service(ctx context.Context, timeout time.Duration) (Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.host == nil {
		return Event{}, ErrClosed
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Event{Type: EventNone}, nil
		}

		ev := c.host.Service(uint32(min(remaining, serviceSlice).Milliseconds()))
		switch ev.GetType() {
		case enet.EventConnect:
			return Event{Type: EventConnect}, nil
		case enet.EventDisconnect:
			return Event{Type: EventDisconnect}, nil
		case enet.EventReceive:
			packet := ev.GetPacket()
			data := append([]byte(nil), packet.GetData()...)
			packet.Destroy()
			return Event{Type: EventReceive, Data: data}, nil
		}
	}
}

func (c *enetClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.peer != nil {
		c.peer.Disconnect(0)
	}
}

func (c *enetClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.host == nil {
		return nil
	}
	c.host.Destroy()
	c.host = nil
	c.peer = nil
	return nil
}
