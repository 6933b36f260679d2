package fixqueue

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/travigo/geotrack/pkg/consumer"
	"github.com/travigo/geotrack/pkg/database"
	"github.com/travigo/geotrack/pkg/elastic_client"
	"github.com/travigo/geotrack/pkg/events"
	"github.com/travigo/geotrack/pkg/ingest"
	"github.com/travigo/geotrack/pkg/latestcache"
	"github.com/travigo/geotrack/pkg/redis_client"
	"github.com/travigo/geotrack/pkg/util"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "fix-queue",
		Usage: "Consumes queued GPS fix batches into the fix log and latest locations",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run an instance of the gps fix queue consumer",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "stats-listen",
						Value: ":3333",
						Usage: "address the queue stats server listens on",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					store := database.GlobalStore()
					latest := latestcache.New(redis_client.Client, store, latestcache.GetTTL())
					service := ingest.NewService(store,
						ingest.WithRetryConfig(ingest.GetRetryConfig()),
						ingest.WithObservers(latest, events.NewSink()),
					)

					env := util.GetEnvironmentVariables()

					queueConsumer := &consumer.RedisConsumer{
						Connection:      redis_client.QueueConnection,
						QueueName:       QueueName,
						PushQueueName:   RetryQueueName,
						NumberConsumers: util.Int(env, "GEOTRACK_FIX_QUEUE_CONSUMERS", 5),
						BatchSize:       util.Int(env, "GEOTRACK_FIX_QUEUE_BATCH_SIZE", 200),
						Timeout:         util.Duration(env, "GEOTRACK_FIX_QUEUE_BATCH_TIMEOUT", 1*time.Second),
						Consumer:        NewBatchConsumer(service),
						StatsAddress:    c.String("stats-listen"),
						HealthChecks: map[string]consumer.HealthCheck{
							"redis": func(ctx context.Context) error {
								return redis_client.Client.Ping(ctx).Err()
							},
							"mongodb": func(ctx context.Context) error {
								return database.MongoGlobalInstance.Client.Ping(ctx, nil)
							},
						},
					}

					ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					go func() {
						<-ctx.Done()
						stop()

						hardExit := make(chan os.Signal, 1)
						signal.Notify(hardExit, syscall.SIGINT)
						<-hardExit // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					err := queueConsumer.Run(ctx)

					elastic_client.WaitUntilQueueEmpty(context.Background())

					return err
				},
			},
			{
				Name:  "cleaner",
				Usage: "run the queue cleaner for the gps fix queues",
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					RunCleaner(ctx, redis_client.QueueConnection)

					<-redis_client.QueueConnection.StopAllConsuming()

					return nil
				},
			},
		},
	}
}
