package domain

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"unicode"
)

// ServerAddress identifies one monitored game server.
type ServerAddress struct {
	Host string
	Port uint16
}

// ParseServerAddress parses a "host:port" string.
func ParseServerAddress(s string) (ServerAddress, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(s))
	if err != nil {
		return ServerAddress{}, fmt.Errorf("invalid server address %q: %w", s, err)
	}
	if host == "" {
		return ServerAddress{}, fmt.Errorf("invalid server address %q: empty host", s)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return ServerAddress{}, fmt.Errorf("invalid server address %q: bad port %q", s, portStr)
	}
	return ServerAddress{Host: host, Port: uint16(port)}, nil
}

func (a ServerAddress) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

// MetricKey returns the host with every non-alphanumeric rune replaced by '_'.
// Example: "play-eu.example.com" -> "play_eu_example_com"
func (a ServerAddress) MetricKey() string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return '_'
	}, a.Host)
}
