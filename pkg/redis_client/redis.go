package redis_client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/geotrack/pkg/util"
)

var Client *redis.Client
var QueueConnection rmq.Connection

const defaultConnectionAddress = "localhost:6379"
const defaultDatabase = 0
const queueConnectionTag = "geotrack"

func Connect() error {
	options, err := optionsFromEnvironment(util.GetEnvironmentVariables())
	if err != nil {
		return err
	}

	Client = redis.NewClient(options)

	if err := Client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("pinging redis at %s: %w", options.Addr, err)
	}

	errChan := make(chan error, 10)
	go logQueueErrors(errChan)

	QueueConnection, err = rmq.OpenConnectionWithRedisClient(queueConnectionTag, Client, errChan)
	if err != nil {
		return fmt.Errorf("opening queue connection: %w", err)
	}

	log.Info().Str("address", options.Addr).Int("database", options.DB).Msg("Connected to Redis")

	return nil
}

func optionsFromEnvironment(env map[string]string) (*redis.Options, error) {
	options := &redis.Options{
		Addr:     defaultConnectionAddress,
		Password: env["GEOTRACK_REDIS_PASSWORD"],
		DB:       defaultDatabase,
	}

	if env["GEOTRACK_REDIS_ADDRESS"] != "" {
		options.Addr = env["GEOTRACK_REDIS_ADDRESS"]
	}

	if env["GEOTRACK_REDIS_DATABASE"] != "" {
		database, err := strconv.Atoi(env["GEOTRACK_REDIS_DATABASE"])
		if err != nil {
			return nil, fmt.Errorf("GEOTRACK_REDIS_DATABASE: %w", err)
		}
		options.DB = database
	}

	return options, nil
}

// rmq reports heartbeat and consume failures asynchronously
func logQueueErrors(errChan <-chan error) {
	for err := range errChan {
		switch err := err.(type) {
		case *rmq.HeartbeatError:
			if err.Count == rmq.HeartbeatErrorLimit {
				log.Error().Err(err).Msg("Queue heartbeat failed too often, consumers stopped")
			} else {
				log.Warn().Err(err).Msg("Queue heartbeat error")
			}
		case *rmq.ConsumeError:
			log.Warn().Err(err).Msg("Queue consume error")
		default:
			log.Warn().Err(err).Msg("Queue error")
		}
	}
}
