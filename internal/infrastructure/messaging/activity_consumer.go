// Package messaging ingests activity events from Kafka into the activity log.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/learnhub/activity-hub/internal/application/command"
	"github.com/learnhub/activity-hub/internal/domain/activity"
	"github.com/learnhub/activity-hub/internal/domain/shared"
	"github.com/learnhub/activity-hub/internal/observability"
	"github.com/learnhub/activity-hub/pkg/logger"
	"github.com/learnhub/activity-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY CONSUMER
// Reads JSON activity events, buffers them, persists each buffer with one
// batch write and only then commits the offsets. Malformed or invalid
// events are committed together with the buffer they arrived in and never
// retried.
// ══════════════════════════════════════════════════════════════════════════════

// Reader exposes the minimal kafka.Reader interface the consumer needs.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// BatchRecorder persists a batch of activities as one unit.
type BatchRecorder interface {
	HandleBatch(ctx context.Context, cmd command.RecordBatchActivityCommand) ([]*activity.Activity, error)
}

// ConsumerConfig controls buffering and retries.
type ConsumerConfig struct {
	Topic         string
	BatchSize     int
	FlushInterval time.Duration
	MaxAttempts   int

	// ShutdownTimeout bounds the final flush after the context is cancelled.
	ShutdownTimeout time.Duration
}

// DefaultConsumerConfig returns sensible defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Topic:           "activity-events",
		BatchSize:       100,
		FlushInterval:   2 * time.Second,
		MaxAttempts:     5,
		ShutdownTimeout: 10 * time.Second,
	}
}

// ActivityConsumer moves activity events from Kafka into the store.
type ActivityConsumer struct {
	reader   Reader
	recorder BatchRecorder
	cfg      ConsumerConfig
	retrier  retry.Policy
	log      *logger.Logger

	pending []kafka.Message
	batch   []command.RecordActivityCommand
}

// NewActivityConsumer creates an ActivityConsumer. Zero config fields take defaults.
func NewActivityConsumer(reader Reader, recorder BatchRecorder, cfg ConsumerConfig, log *logger.Logger) *ActivityConsumer {
	def := DefaultConsumerConfig()
	if cfg.Topic == "" {
		cfg.Topic = def.Topic
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("activity_consumer"), logger.String("topic", cfg.Topic))

	c := &ActivityConsumer{
		reader:   reader,
		recorder: recorder,
		cfg:      cfg,
		log:      log,
	}
	c.retrier = retry.StorePolicy(cfg.MaxAttempts, func(err error) bool {
		return !shared.IsValidation(err)
	}, func(attempt int, err error, delay time.Duration) {
		log.Warn("batch write failed, retrying",
			logger.Int("attempt", attempt), logger.Duration("delay", delay), logger.Err(err))
	})
	return c
}

// Run consumes until ctx is cancelled or a batch cannot be persisted.
// On cancellation the buffered batch is flushed before returning ctx.Err().
func (c *ActivityConsumer) Run(ctx context.Context) error {
	msgs := make(chan kafka.Message)
	fetchDone := make(chan struct{})
	fetchCtx, stopFetch := context.WithCancel(ctx)
	defer func() {
		stopFetch()
		<-fetchDone
	}()
	go func() {
		defer close(fetchDone)
		c.fetchLoop(fetchCtx, msgs)
	}()

	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-fetchDone
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.ShutdownTimeout)
			err := c.flush(flushCtx)
			cancel()
			if err != nil {
				return err
			}
			return ctx.Err()

		case msg := <-msgs:
			c.add(msg)
			if len(c.pending) >= c.cfg.BatchSize {
				if err := c.flush(ctx); err != nil {
					return err
				}
			}

		case <-ticker.C:
			if err := c.flush(ctx); err != nil {
				return err
			}
		}
	}
}

func (c *ActivityConsumer) fetchLoop(ctx context.Context, out chan<- kafka.Message) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("fetch failed", logger.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// add buffers msg; undecodable or invalid events only ride along for the commit.
func (c *ActivityConsumer) add(msg kafka.Message) {
	c.pending = append(c.pending, msg)

	cmd, err := Decode(msg.Value)
	if err != nil {
		c.log.Warn("dropping activity event",
			logger.Int("partition", msg.Partition), logger.Int64("offset", msg.Offset), logger.Err(err))
		observability.RecordIngested(c.cfg.Topic, observability.OutcomeRejected, 1)
		return
	}
	c.batch = append(c.batch, cmd)
}

// flush persists the buffered batch and commits every buffered offset.
func (c *ActivityConsumer) flush(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}

	if len(c.batch) > 0 {
		var stored []*activity.Activity
		err := c.retrier.Do(ctx, func(ctx context.Context) error {
			var err error
			stored, err = c.recorder.HandleBatch(ctx, command.RecordBatchActivityCommand{Activities: c.batch})
			return err
		})
		if err != nil {
			observability.RecordIngested(c.cfg.Topic, observability.OutcomeFailed, len(c.batch))
			return fmt.Errorf("activity_consumer: persist batch of %d: %w", len(c.batch), err)
		}
		observability.RecordIngested(c.cfg.Topic, observability.OutcomePersisted, len(stored))
		observability.RecordIngestWatermark(c.cfg.Topic, c.pending[len(c.pending)-1].Time)
	}

	if err := c.reader.CommitMessages(ctx, c.pending...); err != nil {
		// Stored but uncommitted: the batch will be redelivered.
		return fmt.Errorf("activity_consumer: commit %d messages: %w", len(c.pending), err)
	}

	c.log.Debug("batch committed", logger.Count(len(c.pending)), logger.Int("persisted", len(c.batch)))
	c.pending = c.pending[:0]
	c.batch = c.batch[:0]
	return nil
}

// ErrEmptyEvent is returned for messages without a payload.
var ErrEmptyEvent = errors.New("empty activity event")

// Decode parses and validates one activity event.
func Decode(value []byte) (command.RecordActivityCommand, error) {
	var cmd command.RecordActivityCommand
	if len(value) == 0 {
		return cmd, ErrEmptyEvent
	}
	if err := json.Unmarshal(value, &cmd); err != nil {
		return cmd, fmt.Errorf("decode activity event: %w", err)
	}
	if err := cmd.Validate(); err != nil {
		return cmd, err
	}
	return cmd, nil
}

// NewKafkaReader builds a consumer-group reader for the activity topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
}
