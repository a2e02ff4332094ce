package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func TestRelayRepoDeliversPublishedPayload(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	relay := NewRelayRepo(client, "test:relay")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan struct{})
	received := make(chan []byte, 1)
	done := make(chan error, 1)
	go func() {
		done <- relay.Subscribe(ctx, ready, func(payload []byte) {
			received <- payload
		})
	}()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription was not confirmed")
	}

	if err := relay.Publish(ctx, []byte(`{"hello":"world"}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case payload := <-received:
		if string(payload) != `{"hello":"world"}` {
			t.Fatalf("unexpected payload: %s", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("payload was not delivered")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("subscribe returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("subscribe did not stop after cancel")
	}
}

func TestNewClientDisabledWithoutAddr(t *testing.T) {
	if NewClient("", "", 0) != nil {
		t.Fatalf("expected nil client for empty addr")
	}
}
