package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newConnectionServer(t *testing.T, reg *Registry, userID int64) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConnection(userID, ws, ConnectionConfig{PingPeriod: time.Second})
		conn.Start()
		reg.Register(userID, conn)
		conn.ReadLoop()
		reg.Detach(userID, conn)
		conn.Close(websocket.CloseNormalClosure, "")
	}))
}

func dial(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(serverURL, "http"), nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	return ws
}

func waitForLookup(t *testing.T, reg *Registry, userID int64) Channel {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ch, ok := reg.Lookup(userID); ok {
			return ch
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("user %d never registered", userID)
	return nil
}

func TestConnectionSendReachesClient(t *testing.T) {
	reg := NewRegistry()
	srv := newConnectionServer(t, reg, 11)
	defer srv.Close()

	client := dial(t, srv.URL)
	defer client.Close()

	ch := waitForLookup(t, reg, 11)
	if err := ch.Send([]byte(`{"type":"new_message"}`)); err != nil {
		t.Fatalf("send: %v", err)
	}

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if string(payload) != `{"type":"new_message"}` {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestConnectionClientDisconnectDetaches(t *testing.T) {
	reg := NewRegistry()
	srv := newConnectionServer(t, reg, 12)
	defer srv.Close()

	client := dial(t, srv.URL)
	waitForLookup(t, reg, 12)
	_ = client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := reg.Lookup(12); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("registry still holds a channel after client disconnect")
}

func TestConnectionSendAfterCloseFails(t *testing.T) {
	reg := NewRegistry()
	srv := newConnectionServer(t, reg, 13)
	defer srv.Close()

	client := dial(t, srv.URL)
	defer client.Close()

	ch := waitForLookup(t, reg, 13)
	ch.Close(websocket.CloseNormalClosure, "bye")

	if err := ch.Send([]byte("late")); err == nil {
		t.Fatalf("expected error when sending on a closed connection")
	}
}
