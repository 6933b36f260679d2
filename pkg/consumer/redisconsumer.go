package consumer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
)

const defaultStatsAddress = ":3333"

// RedisConsumer runs a pool of rmq batch consumers on one queue and serves queue
// stats and a health check over HTTP.
type RedisConsumer struct {
	Connection rmq.Connection
	QueueName  string

	NumberConsumers int
	BatchSize       int

	Timeout time.Duration

	Consumer rmq.BatchConsumer

	// PushQueueName receives deliveries the consumer pushes after a failure
	PushQueueName string

	StatsAddress string
	HealthChecks map[string]HealthCheck
}

// Run starts consuming and blocks serving stats until ctx is done.
func (c *RedisConsumer) Run(ctx context.Context) error {
	if err := c.startConsumers(); err != nil {
		return err
	}

	return c.serveStats(ctx)
}

func (c *RedisConsumer) startConsumers() error {
	log.Info().Str("queue", c.QueueName).Int("consumers", c.NumberConsumers).Msg("Starting consumers")

	queue, err := c.Connection.OpenQueue(c.QueueName)
	if err != nil {
		return fmt.Errorf("opening queue %s: %w", c.QueueName, err)
	}

	if c.PushQueueName != "" {
		pushQueue, err := c.Connection.OpenQueue(c.PushQueueName)
		if err != nil {
			return fmt.Errorf("opening queue %s: %w", c.PushQueueName, err)
		}
		queue.SetPushQueue(pushQueue)

		if err := c.consume(pushQueue); err != nil {
			return err
		}
	}

	return c.consume(queue)
}

func (c *RedisConsumer) consume(queue rmq.Queue) error {
	if err := queue.StartConsuming(int64(c.NumberConsumers*c.BatchSize), 1*time.Second); err != nil {
		return err
	}

	for i := 0; i < c.NumberConsumers; i++ {
		name := fmt.Sprintf("%s-%d", c.QueueName, i)
		if _, err := queue.AddBatchConsumer(name, int64(c.BatchSize), c.Timeout, c.Consumer); err != nil {
			return fmt.Errorf("adding consumer %s: %w", name, err)
		}
		log.Debug().Msgf("Started %s consumer %d", c.QueueName, i)
	}

	return nil
}

func (c *RedisConsumer) serveStats(ctx context.Context) error {
	address := c.StatsAddress
	if address == "" {
		address = defaultStatsAddress
	}

	endpoint := fmt.Sprintf("/%s/stats", c.QueueName)

	mux := http.NewServeMux()
	mux.Handle(endpoint, NewStatsHandler(c.Connection))
	mux.Handle("/health", NewHealthHandler(c.HealthChecks))

	server := &http.Server{Addr: address, Handler: mux}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		<-c.Connection.StopAllConsuming()
		server.Shutdown(shutdownCtx)
	}()

	log.Info().Msgf("Stats server listening on http://%s%s", address, endpoint)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
