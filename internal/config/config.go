package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
)

type Config struct {
	ListenPort      string        // ex: ":8000"
	ShutdownTimeout time.Duration // ex: 10s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Monitored servers
	Servers     []domain.ServerAddress // deduplicated, from ServerList + ServersFile
	ServersFile string                 // optional YAML file with a "servers" list

	// Session timings
	HandshakeTimeout time.Duration // bound on client creation + connect (default: 3s)
	ServiceTimeout   time.Duration // wait budget of one service call (default: 3s)
	PollInterval     time.Duration // sleep between service calls (default: 100ms)
	Backoff          time.Duration // fixed delay between poll cycles (default: 30s)
	FailureThreshold int           // failed connects before stale data is dropped (default: 10)

	// Metrics
	MetricsEnabled bool   // false => no exporter, Nop recorder
	MetricsPort    string // ex: ":9100"

	// HTTP rate limiting (per client IP)
	RateLimitRPS   float64
	RateLimitBurst int
	TrustProxy     bool // true => trust X-Forwarded-For when resolving the client IP

	// Redis snapshot mirror (disabled when RedisAddr is empty)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisWarnThreshold  int           // warn after this many attempts
	MirrorInterval      time.Duration // how often snapshots are pushed to redis
	SnapshotTTL         time.Duration // expiry of mirrored snapshots
}

// Load reads the configuration from the environment. Values in a local .env
// file override the process environment.
func Load() *Config {
	if err := godotenv.Overload(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] failed to load .env: %v", err)
	}

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("ROOMWATCH_LISTEN_PORT", ":8000"),
		ShutdownTimeout: mustDuration("ROOMWATCH_SHUTDOWN_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("ROOMWATCH_LOG_LEVEL", "info"),
		PrettyLog: mustBool("ROOMWATCH_PRETTY_LOG", true),

		// Servers
		ServersFile: getenv("ROOMWATCH_SERVERS_FILE", ""),

		// Sessions
		HandshakeTimeout: mustDuration("ROOMWATCH_HANDSHAKE_TIMEOUT", 3*time.Second),
		ServiceTimeout:   mustDuration("ROOMWATCH_SERVICE_TIMEOUT", 3*time.Second),
		PollInterval:     mustDuration("ROOMWATCH_POLL_INTERVAL", 100*time.Millisecond),
		Backoff:          mustDuration("ROOMWATCH_BACKOFF", 30*time.Second),
		FailureThreshold: getenvInt("ROOMWATCH_FAILURE_THRESHOLD", 10),

		// Metrics
		MetricsEnabled: mustBool("ROOMWATCH_METRICS_ENABLED", true),
		MetricsPort:    getenv("ROOMWATCH_PROMETHEUS_PORT", ":9100"),

		// Rate limiting
		RateLimitRPS:   mustFloat("ROOMWATCH_RATE_LIMIT_RPS", 5),
		RateLimitBurst: getenvInt("ROOMWATCH_RATE_LIMIT_BURST", 20),
		TrustProxy:     mustBool("ROOMWATCH_TRUST_PROXY", false),

		// Redis settings
		RedisAddr:           getenv("ROOMWATCH_REDIS_ADDR", ""),
		RedisUser:           getenv("ROOMWATCH_REDIS_USERNAME", ""),
		RedisPassword:       getenv("ROOMWATCH_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("ROOMWATCH_REDIS_DB", 0),
		RedisDT:             mustDuration("ROOMWATCH_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("ROOMWATCH_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("ROOMWATCH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("ROOMWATCH_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("ROOMWATCH_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("ROOMWATCH_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("ROOMWATCH_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("ROOMWATCH_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisWarnThreshold:  getenvInt("ROOMWATCH_REDIS_WARN_THRESHOLD", 3),
		MirrorInterval:      mustDuration("ROOMWATCH_MIRROR_INTERVAL", 15*time.Second),
		SnapshotTTL:         mustDuration("ROOMWATCH_REDIS_SNAPSHOT_TTL", 2*time.Minute),
	}

	raw := splitAndTrim(getenv("ROOMWATCH_SERVER_LIST", ""))
	if cfg.ServersFile != "" {
		fromFile, err := LoadServersFile(cfg.ServersFile)
		if err != nil {
			panic(fmt.Sprintf("❌ FATAL: %v", err))
		}
		raw = append(raw, fromFile...)
	}

	servers, err := ParseServerList(raw)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}
	if len(servers) == 0 {
		panic("❌ FATAL: no servers configured, set ROOMWATCH_SERVER_LIST or ROOMWATCH_SERVERS_FILE")
	}
	cfg.Servers = servers

	if cfg.FailureThreshold < 0 {
		panic(fmt.Sprintf("❌ FATAL: ROOMWATCH_FAILURE_THRESHOLD must be >= 0, got %d", cfg.FailureThreshold))
	}

	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// ParseServerList parses "host:port" entries, dropping duplicates while
// keeping the first occurrence order.
func ParseServerList(entries []string) ([]domain.ServerAddress, error) {
	seen := make(map[string]bool, len(entries))
	out := make([]domain.ServerAddress, 0, len(entries))

	for _, entry := range entries {
		addr, err := domain.ParseServerAddress(entry)
		if err != nil {
			return nil, err
		}
		if seen[addr.String()] {
			continue
		}
		seen[addr.String()] = true
		out = append(out, addr)
	}
	return out, nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
