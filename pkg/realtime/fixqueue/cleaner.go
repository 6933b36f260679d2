package fixqueue

import (
	"context"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
)

const cleanInterval = 5 * time.Minute

// RunCleaner returns unacked deliveries of dead consumers to their ready lists until ctx is done.
func RunCleaner(ctx context.Context, connection rmq.Connection) {
	cleaner := rmq.NewCleaner(connection)

	log.Info().Msg("Starting gps fix queue cleaner process")

	ticker := time.NewTicker(cleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			clean(cleaner)
		}
	}
}

func clean(cleaner *rmq.Cleaner) {
	returned, err := cleaner.Clean()
	if err != nil {
		log.Error().Err(err).Msg("Failed to clean")
		return
	}

	if returned != 0 {
		log.Info().Msgf("Cleaned %d records", returned)
	}
}
