// Package app wires configuration into the storage, cache and use-case graph
// shared by the api, worker and hubctl binaries.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/learnhub/activity-hub/config"
	"github.com/learnhub/activity-hub/internal/application/command"
	"github.com/learnhub/activity-hub/internal/application/query"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/memory"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/postgres"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/redis"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/seed"
	"github.com/learnhub/activity-hub/internal/observability"
	"github.com/learnhub/activity-hub/pkg/circuitbreaker"
	"github.com/learnhub/activity-hub/pkg/logger"
	"github.com/learnhub/activity-hub/pkg/timeutil"
)

// NewLogger builds the process logger from the observability settings.
// Development runs default to text output unless LOG_FORMAT says otherwise.
func NewLogger(cfg *config.Config) *logger.Logger {
	format := cfg.Observability.LogFormat
	if format == "" && cfg.IsDevelopment() {
		format = "text"
	}
	level := logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		level = logger.LevelDebug
	}
	return logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     level,
		Format:    format,
		AddSource: cfg.App.Debug,
	}).With(
		logger.String("service", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// STORAGE
// ══════════════════════════════════════════════════════════════════════════════

// Storage is the opened repository set plus the handle that owns it.
type Storage struct {
	Repos *persistence.Repositories

	// Conn is nil for the memory driver.
	Conn *postgres.Connection
}

// Ping checks the backing database. The memory driver is always reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if s.Conn == nil {
		return nil
	}
	return s.Conn.Ping(ctx)
}

// Close releases the database pool.
func (s *Storage) Close() {
	if s.Conn != nil {
		s.Conn.Close()
	}
}

// PostgresConfig maps the database section onto the pool configuration.
func PostgresConfig(cfg config.DatabaseConfig) postgres.Config {
	pc := postgres.DefaultConfig()
	pc.URL = cfg.URL
	pc.MaxConns = int32(cfg.MaxOpenConns)
	pc.MinConns = int32(cfg.MaxIdleConns)
	pc.MaxConnLifetime = cfg.ConnMaxLifetime
	pc.MaxConnIdleTime = cfg.ConnMaxIdleTime
	return pc
}

// Connect opens the Postgres pool without touching the schema.
func Connect(ctx context.Context, cfg *config.Config) (*postgres.Connection, error) {
	conn, err := postgres.NewConnection(ctx, PostgresConfig(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return conn, nil
}

// OpenStorage opens the store selected by STORAGE_DRIVER. For postgres it
// applies pending migrations when DB_AUTO_MIGRATE is set.
func OpenStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Storage, error) {
	if cfg.UseMemoryStore() {
		store := memory.NewStore()
		if cfg.Database.SeedDemo {
			store.Load(seed.Demo(time.Now()))
		}
		log.Info("using in-memory storage", logger.Bool("demo_data", cfg.Database.SeedDemo))
		return &Storage{Repos: persistence.Memory(store)}, nil
	}

	conn, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := Migrate(ctx, conn, log); err != nil {
			conn.Close()
			return nil, err
		}
	}

	log.Info("database connection established")
	return &Storage{Repos: persistence.Postgres(conn), Conn: conn}, nil
}

// Migrate applies pending migrations and logs the resulting status.
func Migrate(ctx context.Context, conn *postgres.Connection, log *logger.Logger) error {
	migrator := postgres.NewMigrator(conn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", logger.Err(err))
		return nil
	}
	applied := 0
	for _, m := range status {
		if m.IsApplied {
			applied++
		}
	}
	log.Info("migrations completed", logger.Int("applied", applied), logger.Int("total", len(status)))
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS
// ══════════════════════════════════════════════════════════════════════════════

// RedisConfig maps the redis section onto the client configuration.
func RedisConfig(cfg config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	rc.URL = cfg.URL
	rc.Host = cfg.Host
	rc.Port = cfg.Port
	rc.Password = cfg.Password
	rc.DB = cfg.DB
	rc.PoolSize = cfg.PoolSize
	rc.MinIdleConns = cfg.MinIdleConns
	rc.DialTimeout = cfg.DialTimeout
	rc.ReadTimeout = cfg.ReadTimeout
	rc.WriteTimeout = cfg.WriteTimeout
	return rc
}

// OpenCache connects to Redis. It returns nil without error when Redis is
// disabled; callers treat a nil cache as "run without it".
func OpenCache(cfg *config.Config, log *logger.Logger) (*redis.Cache, error) {
	if cfg.Redis.Disabled {
		log.Info("redis disabled")
		return nil, nil
	}
	cache, err := redis.NewCache(RedisConfig(cfg.Redis))
	if err != nil {
		return nil, err
	}
	log.Info("redis connection established")
	return cache, nil
}

// NewIdentityCache wraps cache in the feed identity cache behind a circuit
// breaker. Returns nil when cache is nil or the TTL disables caching.
func NewIdentityCache(cache *redis.Cache, ttl time.Duration, log *logger.Logger) *redis.IdentityCache {
	if cache == nil || ttl <= 0 {
		return nil
	}
	cb := circuitbreaker.IdentityCacheBreaker(func(name string, from, to circuitbreaker.State) {
		observability.RecordBreakerState(name, int(to))
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})
	return redis.NewIdentityCache(cache, ttl).WithBreaker(cb)
}

// ══════════════════════════════════════════════════════════════════════════════
// USE CASES
// ══════════════════════════════════════════════════════════════════════════════

// Queries is the read side served over HTTP.
type Queries struct {
	MyActivities   *query.GetMyActivitiesHandler
	UserActivities *query.GetUserActivitiesHandler
	GlobalFeed     *query.GetGlobalFeedHandler
	Overview       *query.GetCompletionOverviewHandler
	PublicProfile  *query.GetPublicProfileHandler
}

// NewQueries builds every query handler over repos. identities may be nil.
func NewQueries(repos *persistence.Repositories, identities *redis.IdentityCache, fanout int, log *logger.Logger) *Queries {
	clock := timeutil.SystemClock{}

	enricherOpts := []query.EnricherOption{
		query.WithEnricherFanout(fanout),
		query.WithEnricherLogger(log),
	}
	if identities != nil {
		enricherOpts = append(enricherOpts, query.WithIdentityCache(identities))
	}
	enricher := query.NewActivityEnricher(repos.Users, repos.Profiles, enricherOpts...)

	rater := query.NewCompletionRateAggregator(repos.Courses, repos.Lessons, repos.Progress, repos.Profiles, fanout)

	return &Queries{
		MyActivities:   query.NewGetMyActivitiesHandler(repos.Activities),
		UserActivities: query.NewGetUserActivitiesHandler(repos.Activities),
		GlobalFeed:     query.NewGetGlobalFeedHandler(repos.Activities, enricher),
		Overview:       query.NewGetCompletionOverviewHandler(repos.Users, repos.Courses, rater, clock, log),
		PublicProfile: query.NewGetPublicProfileHandler(query.ProfileReaders{
			Users:       repos.Users,
			Profiles:    repos.Profiles,
			Courses:     repos.Courses,
			Lessons:     repos.Lessons,
			Enrollments: repos.Enrollments,
			Progress:    repos.Progress,
			Posts:       repos.Posts,
			Bookings:    repos.Bookings,
			Activities:  repos.Activities,
		}, clock, fanout),
	}
}

// Commands is the write side used by the worker and the CLI.
type Commands struct {
	Record *command.RecordActivityHandler
	Prune  *command.PruneActivitiesHandler
}

// NewCommands builds the command handlers over repos.
func NewCommands(repos *persistence.Repositories, log *logger.Logger) *Commands {
	clock := timeutil.SystemClock{}
	return &Commands{
		Record: command.NewRecordActivityHandler(repos.Activities, clock, log),
		Prune:  command.NewPruneActivitiesHandler(repos.Activities, clock, log),
	}
}
