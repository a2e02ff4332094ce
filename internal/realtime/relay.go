package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RelayTransport interface {
	Publish(ctx context.Context, payload []byte) error
	Subscribe(ctx context.Context, ready chan<- struct{}, handle func([]byte)) error
}

type envelope struct {
	Origin      string          `json:"origin"`
	RecipientID int64           `json:"recipient_id"`
	Payload     json.RawMessage `json:"payload"`
}

// NodeRelay fans frames out to the other API nodes so a user connected elsewhere
// still receives pushes. Receiving nodes deliver locally only.
type NodeRelay struct {
	nodeID      string
	transport   RelayTransport
	broadcaster *Broadcaster
	log         *zap.Logger
}

func NewNodeRelay(transport RelayTransport, broadcaster *Broadcaster, log *zap.Logger) *NodeRelay {
	if log == nil {
		log = zap.NewNop()
	}
	return &NodeRelay{
		nodeID:      uuid.NewString(),
		transport:   transport,
		broadcaster: broadcaster,
		log:         log,
	}
}

func (r *NodeRelay) NodeID() string {
	return r.nodeID
}

func (r *NodeRelay) Forward(ctx context.Context, recipientID int64, payload []byte) error {
	if r.transport == nil {
		return fmt.Errorf("relay transport is nil")
	}

	raw, err := json.Marshal(envelope{
		Origin:      r.nodeID,
		RecipientID: recipientID,
		Payload:     payload,
	})
	if err != nil {
		return fmt.Errorf("encode relay envelope: %w", err)
	}
	return r.transport.Publish(ctx, raw)
}

// Run consumes the relay channel until ctx is cancelled.
func (r *NodeRelay) Run(ctx context.Context, ready chan<- struct{}) error {
	if r.transport == nil {
		return fmt.Errorf("relay transport is nil")
	}
	return r.transport.Subscribe(ctx, ready, r.handle)
}

func (r *NodeRelay) handle(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.log.Debug("drop malformed relay envelope", zap.Error(err))
		return
	}
	if env.Origin == r.nodeID || env.RecipientID <= 0 {
		return
	}
	r.broadcaster.count(r.broadcaster.deliverLocal(env.RecipientID, env.Payload))
}
