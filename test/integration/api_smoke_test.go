package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ivankudzin/commitdating/internal/app/apiapp"
	"github.com/ivankudzin/commitdating/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Default()
	cfg.HTTP.Addr = ":0"
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "smoke.db")
	cfg.Auth.BcryptCost = 4

	app, err := apiapp.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("create app: %v", err)
	}

	ts := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Shutdown(ctx)
	})
	return ts
}

type session struct {
	ID    int64
	Token string
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func register(t *testing.T, ts *httptest.Server, name string, stack []string) session {
	t.Helper()

	var reg struct {
		ID          int64  `json:"id"`
		AccessToken string `json:"access_token"`
	}
	status := call(t, ts, http.MethodPost, "/api/register", "", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": "pw-" + name,
		"role":     "Engineer",
	}, &reg)
	if status != http.StatusOK {
		t.Fatalf("register %s: status %d", name, status)
	}

	if status := call(t, ts, http.MethodPut, "/api/profile/me", reg.AccessToken, map[string]any{"stack": stack}, nil); status != http.StatusOK {
		t.Fatalf("update %s profile: status %d", name, status)
	}
	return session{ID: reg.ID, Token: reg.AccessToken}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	var payload struct {
		OK           bool `json:"ok"`
		LiveSessions int  `json:"live_sessions"`
	}
	if status := call(t, ts, http.MethodGet, "/healthz", "", nil, &payload); status != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", status, http.StatusOK)
	}
	if !payload.OK || payload.LiveSessions != 0 {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	if status := call(t, ts, http.MethodGet, "/metrics", "", nil, nil); status != http.StatusOK {
		t.Fatalf("unexpected metrics status: %d", status)
	}
}

func TestMatchAndChatFlow(t *testing.T) {
	ts := newTestServer(t)

	ada := register(t, ts, "ada", []string{"Go", "Rust"})
	bob := register(t, ts, "bob", []string{"Rust", "Python"})

	var login struct {
		AccessToken string `json:"access_token"`
	}
	if status := call(t, ts, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "bob@example.com",
		"password": "pw-bob",
	}, &login); status != http.StatusOK || login.AccessToken == "" {
		t.Fatalf("login: status %d", status)
	}
	bob.Token = login.AccessToken

	if status := call(t, ts, http.MethodGet, "/api/profiles", "", nil, nil); status != http.StatusUnauthorized {
		t.Fatalf("anonymous profiles: unexpected status %d", status)
	}

	var candidates []struct {
		ID         int64 `json:"id"`
		MatchScore int   `json:"match_score"`
	}
	call(t, ts, http.MethodGet, "/api/profiles", ada.Token, nil, &candidates)
	if len(candidates) != 1 || candidates[0].ID != bob.ID || candidates[0].MatchScore != 33 {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}

	var action struct {
		Success bool `json:"success"`
		Match   bool `json:"match"`
	}
	call(t, ts, http.MethodPost, "/api/action", ada.Token, map[string]any{"target_id": bob.ID, "action_type": "like"}, &action)
	if action.Match {
		t.Fatalf("first like must not match")
	}
	call(t, ts, http.MethodPost, "/api/action", bob.Token, map[string]any{"target_id": ada.ID, "action_type": "like"}, &action)
	if !action.Match {
		t.Fatalf("reciprocal like must match")
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=" + bob.Token
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer ws.Close()

	// The session is bound right after the upgrade; give the server a moment.
	time.Sleep(50 * time.Millisecond)

	if status := call(t, ts, http.MethodPost, "/api/messages", ada.Token, map[string]any{"partner_id": bob.ID, "text": "hi"}, nil); status != http.StatusOK {
		t.Fatalf("send message: status %d", status)
	}

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event struct {
		Type     string `json:"type"`
		SenderID int64  `json:"sender_id"`
		Text     string `json:"text"`
	}
	if err := ws.ReadJSON(&event); err != nil {
		t.Fatalf("read push: %v", err)
	}
	if event.Type != "new_message" || event.SenderID != ada.ID || event.Text != "hi" {
		t.Fatalf("unexpected push: %+v", event)
	}

	var notifications struct {
		UnreadCount int `json:"unread_count"`
	}
	call(t, ts, http.MethodGet, "/api/notifications", bob.Token, nil, &notifications)
	if notifications.UnreadCount != 1 {
		t.Fatalf("unexpected unread count: %d", notifications.UnreadCount)
	}

	var conversation []struct {
		Text   string `json:"text"`
		Sender string `json:"sender"`
	}
	call(t, ts, http.MethodGet, "/api/messages/"+strconv.FormatInt(ada.ID, 10), bob.Token, nil, &conversation)
	if len(conversation) != 1 || conversation[0].Sender != "them" {
		t.Fatalf("unexpected conversation: %+v", conversation)
	}

	call(t, ts, http.MethodGet, "/api/notifications", bob.Token, nil, &notifications)
	if notifications.UnreadCount != 0 {
		t.Fatalf("unread count must drop after fetch, got %d", notifications.UnreadCount)
	}
}
