package ingest

import (
	"time"

	"github.com/travigo/geotrack/pkg/util"
)

// RetryConfig bounds the optimistic concurrency retry around latest location updates.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

var defaultRetryConfig = RetryConfig{
	InitialInterval: 20 * time.Millisecond,
	MaxInterval:     500 * time.Millisecond,
	MaxElapsedTime:  5 * time.Second,
}

// GetRetryConfig returns the retry configuration from environment variables or defaults
func GetRetryConfig() RetryConfig {
	env := util.GetEnvironmentVariables()

	return RetryConfig{
		InitialInterval: util.Duration(env, "GEOTRACK_INGEST_RETRY_INITIAL_INTERVAL", defaultRetryConfig.InitialInterval),
		MaxInterval:     util.Duration(env, "GEOTRACK_INGEST_RETRY_MAX_INTERVAL", defaultRetryConfig.MaxInterval),
		MaxElapsedTime:  util.Duration(env, "GEOTRACK_INGEST_RETRY_MAX_ELAPSED", defaultRetryConfig.MaxElapsedTime),
	}
}
