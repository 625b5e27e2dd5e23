// Package events publishes domain events about accounts and chat activity
// onto the message queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kodbank/apiserver/internal/mq"
	"github.com/rs/zerolog"
)

const (
	DefaultChannel = "kodbank.events"

	TypeUserRegistered = "user.registered"
	TypeChatExchanged  = "chat.exchanged"
)

const publishTimeout = 3 * time.Second

// Event is the JSON envelope written to the queue.
type Event struct {
	Type       string         `json:"type"`
	UserID     int            `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// Publisher emits events best-effort: failures are logged and never returned
// to the caller. A Publisher without a queue drops every event.
type Publisher struct {
	queue   *mq.MQ
	channel string
	logger  zerolog.Logger
}

// NewPublisher constructs a Publisher. queue may be nil.
func NewPublisher(queue *mq.MQ, channel string, logger zerolog.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{
		queue:   queue,
		channel: channel,
		logger:  logger.With().Str("component", "events").Logger(),
	}
}

// Publish sends evt. It is bounded by its own timeout and outlives request
// cancellation so a client disconnect does not drop an already-committed
// event.
func (p *Publisher) Publish(ctx context.Context, evt Event) {
	if p == nil || p.queue == nil {
		return
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error().Err(err).Str("type", evt.Type).Msg("failed to encode event")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	id, err := p.queue.Publish(ctx, p.channel, data, map[string]string{"type": evt.Type})
	if err != nil {
		p.logger.Warn().Err(err).Str("type", evt.Type).Int("user_id", evt.UserID).Msg("failed to publish event")
		return
	}
	p.logger.Debug().Str("type", evt.Type).Str("message_id", id).Msg("event published")
}

// Consume decodes events from channel and passes them to handle until ctx is
// done. Undecodable messages are acknowledged and skipped.
func Consume(ctx context.Context, queue *mq.MQ, channel string, logger zerolog.Logger, handle func(context.Context, Event) error) error {
	if channel == "" {
		channel = DefaultChannel
	}
	return queue.Subscribe(ctx, channel, func(ctx context.Context, msg mq.Message) error {
		var evt Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping undecodable event")
			return nil
		}
		if err := handle(ctx, evt); err != nil {
			return fmt.Errorf("handle %s: %w", evt.Type, err)
		}
		return nil
	})
}
