package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Channel names used by the cadence engine.
const (
	ChannelCadenceEvents = "cadence.events"
	ChannelCadenceTasks  = "cadence.tasks"
)
