package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/commitdating/internal/domain/model"
	redrepo "github.com/ivankudzin/commitdating/internal/repo/redis"
)

func TestBroadcasterDeliversNewMessageFrame(t *testing.T) {
	reg := NewRegistry()
	ch := &fakeChannel{}
	reg.Register(2, ch)

	b := NewBroadcaster(reg, zap.NewNop())
	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	outcome := b.Publish(context.Background(), NewMessageEvent(model.Message{
		SenderID:  1,
		Text:      "hi",
		CreatedAt: sentAt,
	}), 2)
	if outcome != OutcomeDelivered {
		t.Fatalf("unexpected outcome: %s", outcome)
	}

	frames, _, _ := ch.snapshot()
	if len(frames) != 1 {
		t.Fatalf("expected one frame, got %d", len(frames))
	}

	var payload map[string]any
	if err := json.Unmarshal(frames[0], &payload); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if payload["type"] != "new_message" || payload["text"] != "hi" || payload["sender_id"] != float64(1) {
		t.Fatalf("unexpected frame: %v", payload)
	}
	if payload["timestamp"] != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected timestamp: %v", payload["timestamp"])
	}
}

func TestBroadcasterOfflineIsNoop(t *testing.T) {
	b := NewBroadcaster(NewRegistry(), zap.NewNop())
	if outcome := b.Publish(context.Background(), Event{Type: EventNewMessage}, 99); outcome != OutcomeOffline {
		t.Fatalf("unexpected outcome: %s", outcome)
	}
}

func TestBroadcasterDetachesFailedChannel(t *testing.T) {
	reg := NewRegistry()
	broken := &fakeChannel{sendErr: errSendBroken}
	reg.Register(4, broken)

	b := NewBroadcaster(reg, zap.NewNop())
	if outcome := b.Publish(context.Background(), Event{Type: EventNewMessage}, 4); outcome != OutcomeFailed {
		t.Fatalf("unexpected outcome: %s", outcome)
	}
	if _, ok := reg.Lookup(4); ok {
		t.Fatalf("failed channel must be removed from the registry")
	}
}

func TestNodeRelayDeliversToOtherNode(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	clientA := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = clientA.Close() }()
	clientB := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = clientB.Close() }()

	regA := NewRegistry()
	brA := NewBroadcaster(regA, zap.NewNop())
	relayA := NewNodeRelay(redrepo.NewRelayRepo(clientA, "test:relay"), brA, zap.NewNop())
	brA.AttachRelay(relayA)

	regB := NewRegistry()
	brB := NewBroadcaster(regB, zap.NewNop())
	relayB := NewNodeRelay(redrepo.NewRelayRepo(clientB, "test:relay"), brB, zap.NewNop())
	brB.AttachRelay(relayB)

	remote := &fakeChannel{}
	regB.Register(8, remote)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	readyA := make(chan struct{})
	readyB := make(chan struct{})
	go func() { _ = relayA.Run(ctx, readyA) }()
	go func() { _ = relayB.Run(ctx, readyB) }()
	for _, ready := range []chan struct{}{readyA, readyB} {
		select {
		case <-ready:
		case <-time.After(2 * time.Second):
			t.Fatalf("relay subscription not ready")
		}
	}

	outcome := brA.Publish(ctx, Event{Type: EventNewMessage, SenderID: 1, Text: "across"}, 8)
	if outcome != OutcomeRelayed {
		t.Fatalf("unexpected outcome: %s", outcome)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if frames, _, _ := remote.snapshot(); len(frames) == 1 {
			var ev Event
			if err := json.Unmarshal(frames[0], &ev); err != nil {
				t.Fatalf("decode relayed frame: %v", err)
			}
			if ev.Text != "across" || ev.SenderID != 1 {
				t.Fatalf("unexpected relayed event: %+v", ev)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("relayed frame was not delivered on the remote node")
}
