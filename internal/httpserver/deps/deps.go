package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/roomwatch/internal/logger"
	"github.com/MrSnakeDoc/roomwatch/internal/registry"
)

// Sessions reports which monitoring sessions are alive.
type Sessions interface {
	Running() []string
}

// MirrorStatus reports the last successful redis publish and the latest error.
type MirrorStatus interface {
	Status() (time.Time, error)
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time   // for testing, defaults to time.Now
	TrustProxy     bool               // true if running behind a trusted reverse proxy
	Registry       *registry.Registry // live server snapshots
	Sessions       Sessions           // supervisor
	RedisClient    *redis.Client      // nil when the mirror is disabled
	Mirror         MirrorStatus       // nil when the mirror is disabled
	MetricsEnabled bool
	RateLimitRPS   float64
	RateLimitBurst int
}

// Now returns d.TimeNow() or time.Now when unset.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
