package realtime

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/commitdating/internal/domain/model"
	"github.com/ivankudzin/commitdating/internal/infra/metrics"
)

const EventNewMessage = "new_message"

// Event is the JSON frame pushed to clients.
type Event struct {
	Type      string    `json:"type"`
	SenderID  int64     `json:"sender_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMessageEvent(msg model.Message) Event {
	return Event{
		Type:      EventNewMessage,
		SenderID:  msg.SenderID,
		Text:      msg.Text,
		Timestamp: msg.CreatedAt.UTC(),
	}
}

type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeOffline   Outcome = "offline"
	OutcomeFailed    Outcome = "failed"
	OutcomeRelayed   Outcome = "relayed"
)

// Relay forwards a frame for a user that has no channel on this node.
type Relay interface {
	Forward(ctx context.Context, recipientID int64, payload []byte) error
}

// Broadcaster pushes events to live channels. Delivery is best effort:
// nothing is queued or retried and failures never reach the caller.
type Broadcaster struct {
	registry *Registry
	relay    Relay
	log      *zap.Logger
}

func NewBroadcaster(registry *Registry, log *zap.Logger) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{registry: registry, log: log}
}

func (b *Broadcaster) AttachRelay(relay Relay) {
	b.relay = relay
}

func (b *Broadcaster) Publish(ctx context.Context, event Event, recipientID int64) Outcome {
	payload, err := json.Marshal(event)
	if err != nil {
		b.log.Error("encode realtime event", zap.String("type", event.Type), zap.Error(err))
		return b.count(OutcomeFailed)
	}

	outcome := b.deliverLocal(recipientID, payload)
	if outcome != OutcomeOffline || b.relay == nil {
		return b.count(outcome)
	}

	if err := b.relay.Forward(ctx, recipientID, payload); err != nil {
		b.log.Warn("relay realtime event", zap.Int64("recipient_id", recipientID), zap.Error(err))
		return b.count(OutcomeOffline)
	}
	return b.count(OutcomeRelayed)
}

// deliverLocal never consults the relay, so frames arriving from other nodes are not bounced back.
func (b *Broadcaster) deliverLocal(recipientID int64, payload []byte) Outcome {
	if b.registry == nil {
		return OutcomeOffline
	}

	ch, ok := b.registry.Lookup(recipientID)
	if !ok {
		return OutcomeOffline
	}

	if err := ch.Send(payload); err != nil {
		b.registry.Detach(recipientID, ch)
		b.log.Warn("realtime push failed, channel detached",
			zap.Int64("recipient_id", recipientID),
			zap.Error(err),
		)
		return OutcomeFailed
	}
	return OutcomeDelivered
}

func (b *Broadcaster) count(outcome Outcome) Outcome {
	metrics.PushResults.WithLabelValues(string(outcome)).Inc()
	return outcome
}
