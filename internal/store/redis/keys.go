package redis

const (
	// KeyPrefixServer is the prefix for per-server snapshot keys
	KeyPrefixServer = "roomwatch:server:"
	// KeyAllServers is the set of every published server address
	KeyAllServers = "roomwatch:servers:all"
)

// ServerKey returns the Redis key holding the snapshot of addr ("host:port").
func ServerKey(addr string) string {
	return KeyPrefixServer + addr
}

// AllServersKey returns the key for the set of all server addresses
func AllServersKey() string {
	return KeyAllServers
}
