package events

import (
	"context"

	"github.com/kipkoec77/Edureach/core"
)

// LogPublisher logs events at debug level.
type LogPublisher struct {
	logger core.Logger
}

var _ core.EventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger core.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, events ...core.Event) error {
	for _, e := range events {
		p.logger.Debug("event "+e.Type, map[string]interface{}{"key": e.Key, "payload": e.Payload})
	}
	return nil
}
