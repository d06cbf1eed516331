// Package main - точка входа для фоновых процессов (Worker).
//
// Worker отвечает за:
// - Периодическую очистку устаревших записей журнала активности
// - Приём событий активности из Kafka и их пакетную запись
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/learnhub/activity-hub/config"
	"github.com/learnhub/activity-hub/internal/app"
	"github.com/learnhub/activity-hub/internal/infrastructure/messaging"
	"github.com/learnhub/activity-hub/internal/infrastructure/persistence/redis"
	"github.com/learnhub/activity-hub/internal/infrastructure/scheduler"
	"github.com/learnhub/activity-hub/internal/infrastructure/scheduler/jobs"
	"github.com/learnhub/activity-hub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := app.NewLogger(cfg).With(logger.Component("worker"))
	log.Info("starting activity hub worker",
		logger.Bool("retention", cfg.Retention.Enabled),
		logger.Bool("kafka", cfg.Kafka.Enabled),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩЕ И REDIS
	// ─────────────────────────────────────────────────────────────────────────
	storage, err := app.OpenStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	cache, err := app.OpenCache(cfg, log)
	if err != nil {
		// Без Redis каждая реплика чистит журнал сама; операция идемпотентна.
		log.Warn("failed to connect to Redis, retention lock disabled", logger.Err(err))
		cache = nil
	}
	if cache != nil {
		defer cache.Close()
	}

	commands := app.NewCommands(storage.Repos, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger:         log,
		TickInterval:   time.Second,
		MaxHistorySize: 100,
	})

	if cfg.Retention.Enabled {
		var locker jobs.Locker
		if cache != nil {
			locker = redis.NewLocker(cache)
		}
		job := jobs.NewPruneActivitiesJob(commands.Prune, locker, jobs.PruneActivitiesConfig{
			MaxAge:  cfg.Retention.MaxAge,
			Timeout: cfg.Retention.Timeout,
		}, log)

		schedule := scheduler.NewIntervalSchedule(cfg.Retention.Interval)
		schedule.Immediate = true
		if err := sched.Register(job, schedule); err != nil {
			return fmt.Errorf("register %s: %w", job.Name(), err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			log.Warn("failed to stop scheduler", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. KAFKA
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled {
		reader := messaging.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		consumer := messaging.NewActivityConsumer(reader, commands.Record, messaging.ConsumerConfig{
			Topic:         cfg.Kafka.Topic,
			BatchSize:     cfg.Kafka.BatchSize,
			FlushInterval: cfg.Kafka.FlushInterval,
			MaxAttempts:   cfg.Kafka.MaxAttempts,
		}, log)

		g.Go(func() error {
			defer reader.Close()
			log.Info("consuming activity events",
				logger.String("topic", cfg.Kafka.Topic),
				logger.String("group", cfg.Kafka.GroupID),
			)
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("activity consumer: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	logSchedulerSummary(log, sched, recentRunsInSummary)
	return err
}

// recentRunsInSummary bounds how many past runs are logged on shutdown.
const recentRunsInSummary = 10

// logSchedulerSummary пишет в лог итог по каждой задаче и последние запуски.
func logSchedulerSummary(log *logger.Logger, sched *scheduler.Scheduler, recent int) {
	for _, info := range sched.ListJobs() {
		log.Info("job summary",
			logger.String("job", info.Name),
			logger.Int64("runs", info.RunCount),
			logger.Int64("failures", info.FailCount),
		)
	}

	for _, run := range sched.History(recent) {
		fields := []logger.Field{
			logger.String("job", run.JobName),
			logger.String("status", run.Status()),
			logger.Time("started_at", run.StartedAt),
			logger.Duration("duration", run.Duration),
		}
		if run.Error != nil && !run.Skipped {
			fields = append(fields, logger.Err(run.Error))
		}
		log.Info("job run", fields...)
	}
}
