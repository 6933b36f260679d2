// Package events records ingestion outcomes in Elasticsearch.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/geotrack/pkg/elastic_client"
	"github.com/travigo/geotrack/pkg/ingest"
)

type IngestElasticEvent struct {
	Timestamp time.Time

	TenantID string
	Mode     string

	Accepted      int
	Rejected      int
	LatestApplied int

	RejectionCodes map[string]int `json:",omitempty"`
}

type Sink struct {
	index func(indexName string, document io.ReadSeeker)
	now   func() time.Time
}

// NewSink indexes through the shared bulk indexer.
func NewSink() *Sink {
	return &Sink{index: elastic_client.IndexRequest, now: time.Now}
}

func IndexName(t time.Time) string {
	yearNumber, weekNumber := t.ISOWeek()
	return fmt.Sprintf("ingest-events-%d-%d", yearNumber, weekNumber)
}

func (s *Sink) Observe(ctx context.Context, report ingest.Report) {
	event := IngestElasticEvent{
		Timestamp:     report.ReceivedAtUTC,
		TenantID:      report.TenantID.String(),
		Mode:          "single",
		Accepted:      report.Accepted,
		Rejected:      len(report.Rejected),
		LatestApplied: len(report.Applied),
	}
	if report.Batch {
		event.Mode = "batch"
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}

	if len(report.Rejected) > 0 {
		event.RejectionCodes = map[string]int{}
		for _, item := range report.Rejected {
			event.RejectionCodes[string(item.Error)]++
		}
	}

	elasticEvent, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode ingest event")
		return
	}

	s.index(IndexName(event.Timestamp), bytes.NewReader(elasticEvent))
}
