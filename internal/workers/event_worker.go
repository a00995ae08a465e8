package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/scentboard/scentboard/pkg/logger"
	"github.com/scentboard/scentboard/pkg/queue"
	"github.com/sirupsen/logrus"
)

// Subscriber is satisfied by *queue.KafkaConsumer.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(context.Context, queue.Message) error, onError func(queue.Message, error)) error
	Close() error
}

// Scorer is satisfied by *services.TrendingService.
type Scorer interface {
	Apply(ctx context.Context, ev queue.RawEvent) error
	Rebuild(ctx context.Context) (int, error)
}

// EventWorker consumes domain events and keeps the trending scores current.
type EventWorker struct {
	consumer        Subscriber
	scorer          Scorer
	rebuildInterval time.Duration
	logger          *logger.Logger
}

func NewEventWorker(consumer Subscriber, scorer Scorer, rebuildInterval time.Duration, logger *logger.Logger) *EventWorker {
	return &EventWorker{
		consumer:        consumer,
		scorer:          scorer,
		rebuildInterval: rebuildInterval,
		logger:          logger,
	}
}

// Start rebuilds the scores once, then consumes until ctx is cancelled.
func (w *EventWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting event worker...")

	w.rebuild(ctx)
	if w.rebuildInterval > 0 {
		go w.rebuildLoop(ctx)
	}

	err := w.consumer.Subscribe(ctx, w.handleMessage, func(msg queue.Message, err error) {
		w.logger.WithError(err).WithFields(logrus.Fields{
			"topic": msg.Topic,
			"key":   msg.Key,
		}).Error("Failed to process event")
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *EventWorker) handleMessage(ctx context.Context, msg queue.Message) error {
	ev, err := queue.DecodeEvent(msg.Value)
	if err != nil {
		return err
	}

	w.logger.WithFields(logrus.Fields{
		"event_type": ev.Type,
		"timestamp":  ev.Timestamp,
	}).Debug("Processing event")

	if err := w.scorer.Apply(ctx, ev); err != nil {
		return fmt.Errorf("failed to apply %s: %w", ev.Type, err)
	}
	return nil
}

func (w *EventWorker) rebuildLoop(ctx context.Context) {
	ticker := time.NewTicker(w.rebuildInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Trending rebuild job stopped")
			return
		case <-ticker.C:
			w.rebuild(ctx)
		}
	}
}

func (w *EventWorker) rebuild(ctx context.Context) {
	if _, err := w.scorer.Rebuild(ctx); err != nil && ctx.Err() == nil {
		w.logger.WithError(err).Error("Failed to rebuild trending scores")
	}
}

func (w *EventWorker) Stop() error {
	w.logger.Info("Stopping event worker...")
	return w.consumer.Close()
}
