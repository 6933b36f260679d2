package fixqueue

import (
	"context"
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/travigo/geotrack/pkg/contracts"
)

type Publisher struct {
	queue rmq.Queue
}

func NewPublisher(connection rmq.Connection) (*Publisher, error) {
	queue, err := connection.OpenQueue(QueueName)
	if err != nil {
		return nil, err
	}

	return &Publisher{queue: queue}, nil
}

func (p *Publisher) Publish(ctx context.Context, batch contracts.QueuedBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return err
	}

	return p.queue.PublishBytes(payload)
}
