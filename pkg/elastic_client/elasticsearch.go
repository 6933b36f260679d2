package elastic_client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"
	"github.com/travigo/geotrack/pkg/util"
)

var Client *elasticsearch.Client
var bulkIndexer esutil.BulkIndexer

const defaultFlushInterval = 15 * time.Second

func configFromEnvironment(env map[string]string) elasticsearch.Config {
	tp := http.DefaultTransport.(*http.Transport).Clone()
	if util.Enabled(env, "GEOTRACK_ELASTICSEARCH_INSECURE") {
		tp.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	retryBackoff := backoff.NewExponentialBackOff()

	return elasticsearch.Config{
		Addresses: []string{env["GEOTRACK_ELASTICSEARCH_ADDRESS"]},
		Username:  env["GEOTRACK_ELASTICSEARCH_USERNAME"],
		Password:  env["GEOTRACK_ELASTICSEARCH_PASSWORD"],
		Transport: tp,

		RetryOnStatus: []int{502, 503, 504, 429},

		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},
		MaxRetries: 5,
	}
}

// Connect sets up the client and bulk indexer. Without an address it is a no-op unless required.
func Connect(required bool) error {
	env := util.GetEnvironmentVariables()

	if env["GEOTRACK_ELASTICSEARCH_ADDRESS"] == "" {
		if required {
			return fmt.Errorf("GEOTRACK_ELASTICSEARCH_ADDRESS is not set")
		}

		log.Info().Msg("Skipping Elasticsearch setup")
		return nil
	}

	es, err := elasticsearch.NewClient(configFromEnvironment(env))
	if err != nil {
		return err
	}

	res, err := es.Info()
	if err != nil {
		return err
	}
	res.Body.Close()

	bulkIndexer, err = esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        es,
		FlushInterval: util.Duration(env, "GEOTRACK_ELASTICSEARCH_FLUSH_INTERVAL", defaultFlushInterval),
	})
	if err != nil {
		return err
	}

	Client = es

	log.Info().Msgf("Elasticsearch client setup for %s", env["GEOTRACK_ELASTICSEARCH_ADDRESS"])

	return nil
}

// IndexRequest queues document for indexName. It is dropped when Elasticsearch is not configured.
func IndexRequest(indexName string, document io.ReadSeeker) {
	if Client == nil {
		return
	}

	err := bulkIndexer.Add(
		context.Background(),
		esutil.BulkIndexerItem{
			Index:  indexName,
			Action: "index",
			Body:   document,
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					log.Error().Err(err).Str("indexName", indexName).Msg("Failed to index document")
				} else {
					log.Error().Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("Failed to index document")
				}
			},
		},
	)
	if err != nil {
		log.Error().Err(err).Str("indexName", indexName).Msg("Failed to queue document")
	}
}

// WaitUntilQueueEmpty flushes pending documents and stops the bulk indexer.
func WaitUntilQueueEmpty(ctx context.Context) {
	if bulkIndexer == nil {
		return
	}

	if err := bulkIndexer.Close(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to flush Elasticsearch bulk indexer")
	}

	stats := bulkIndexer.Stats()
	log.Info().Uint64("indexed", stats.NumIndexed).Uint64("failed", stats.NumFailed).Msg("Elasticsearch bulk indexer closed")
}
