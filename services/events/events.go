// Package events publishes domain events to Kafka, or to the log when no broker is configured.
package events

import (
	"github.com/kipkoec77/Edureach/core"
)

// New returns a Kafka publisher when brokers are configured, a log publisher otherwise.
func New(conf *core.Config, logger core.Logger) core.EventPublisher {
	if len(conf.Kafka.Brokers) == 0 {
		return NewLogPublisher(logger)
	}
	return NewKafkaPublisher(conf.Kafka.Brokers, conf.Kafka.Topic)
}
