package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/roomwatch/internal/config"
	"github.com/MrSnakeDoc/roomwatch/internal/domain"
	"github.com/MrSnakeDoc/roomwatch/internal/httpserver"
	"github.com/MrSnakeDoc/roomwatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/roomwatch/internal/logger"
	"github.com/MrSnakeDoc/roomwatch/internal/metrics"
	"github.com/MrSnakeDoc/roomwatch/internal/redis"
	"github.com/MrSnakeDoc/roomwatch/internal/registry"
	"github.com/MrSnakeDoc/roomwatch/internal/scheduler"
	"github.com/MrSnakeDoc/roomwatch/internal/session"
	redisstore "github.com/MrSnakeDoc/roomwatch/internal/store/redis"
	"github.com/MrSnakeDoc/roomwatch/internal/supervisor"
	"github.com/MrSnakeDoc/roomwatch/internal/transport"
	"github.com/MrSnakeDoc/roomwatch/internal/version"
)

var (
	_ session.Recorder = (*metrics.Metrics)(nil)
	_ session.Recorder = metrics.Nop{}
)

type App struct {
	cfg           *config.Config
	logger        logger.Logger
	registry      *registry.Registry
	supervisor    *supervisor.Supervisor
	server        *httpserver.Server
	metricsServer *metrics.Server
	redisClient   *goredis.Client
	mirror        *scheduler.Mirror
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	reg := registry.New()
	for _, addr := range cfg.Servers {
		reg.Register(addr)
	}

	var (
		recorder      session.Recorder = metrics.Nop{}
		metricsServer *metrics.Server
	)
	if cfg.MetricsEnabled {
		m := metrics.New()
		for _, addr := range cfg.Servers {
			m.AddServer(addr)
		}
		recorder = m
		metricsServer = metrics.NewServer(cfg.MetricsPort, m, loggerClient)
	} else {
		loggerClient.Info("metrics disabled")
	}

	// The mirror is optional; a redis outage never stops monitoring.
	var (
		redisClient *goredis.Client
		mirror      *scheduler.Mirror
	)
	if cfg.RedisAddr != "" {
		client, err := redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("redis unavailable, snapshot mirror disabled", logger.Error(err))
		} else {
			redisClient = client
			store := redisstore.NewStore(client, cfg.SnapshotTTL)
			mirror = scheduler.NewMirror(reg, store, loggerClient, cfg.MirrorInterval)
		}
	}

	sessionCfg := session.Config{
		HandshakeTimeout: cfg.HandshakeTimeout,
		ServiceTimeout:   cfg.ServiceTimeout,
		PollInterval:     cfg.PollInterval,
		Backoff:          cfg.Backoff,
		FailureThreshold: cfg.FailureThreshold,
	}
	dialer := transport.NewENetDialer()

	sup := supervisor.New(cfg.Servers, func(addr domain.ServerAddress) supervisor.Runner {
		return session.New(addr, sessionCfg, dialer, reg, recorder, loggerClient)
	}, loggerClient)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		TrustProxy:     cfg.TrustProxy,
		Registry:       reg,
		Sessions:       sup,
		RedisClient:    redisClient,
		MetricsEnabled: cfg.MetricsEnabled,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}
	if mirror != nil {
		d.Mirror = mirror
	}

	return &App{
		cfg:           cfg,
		logger:        loggerClient,
		registry:      reg,
		supervisor:    sup,
		server:        httpserver.New(cfg, loggerClient, d),
		metricsServer: metricsServer,
		redisClient:   redisClient,
		mirror:        mirror,
	}
}

func (a *App) Run() error {
	defer func() { _ = a.logger.Sync() }()

	a.logger.Infof("🚀 Starting roomwatch v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("roomwatch %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport.Init()

	if err := a.supervisor.Start(ctx); err != nil {
		transport.Deinit()
		return fmt.Errorf("failed to start sessions: %w", err)
	}
	a.logger.Info("monitoring servers",
		logger.Strings("servers", a.registry.Addresses()),
		logger.Duration("backoff", a.cfg.Backoff))

	if a.mirror != nil {
		if err := a.mirror.Start(ctx); err != nil {
			a.shutdown()
			return fmt.Errorf("failed to start mirror: %w", err)
		}
		a.logger.Info("snapshot mirror started",
			logger.Duration("interval", a.cfg.MirrorInterval))
	}

	errCh := make(chan error, 2)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()
	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.Start(); err != nil {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
		a.logger.Error("server failed, shutting down", logger.Error(runErr))
	}

	a.shutdown()
	if runErr != nil {
		return runErr
	}

	a.logger.Info("✅ roomwatch stopped cleanly")
	return nil
}

// canReleaseTransport reports whether every session has returned, so no
// ENet host is still in use.
func canReleaseTransport(stopErr error) bool {
	return !errors.Is(stopErr, supervisor.ErrStopTimeout)
}

func (a *App) shutdown() {
	stopErr := a.supervisor.Stop(a.cfg.ShutdownTimeout)
	if stopErr != nil {
		a.logger.Warn("sessions did not stop cleanly", logger.Error(stopErr))
	}
	if canReleaseTransport(stopErr) {
		defer transport.Deinit()
	} else {
		a.logger.Warn("leaving ENet initialised, a session may still be inside the library")
	}

	if a.mirror != nil {
		a.mirror.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		a.logger.Warn("failed to stop http server", logger.Error(err))
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("failed to stop metrics server", logger.Error(err))
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}
}
