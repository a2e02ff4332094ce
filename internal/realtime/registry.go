package realtime

import (
	"sync"

	"github.com/ivankudzin/commitdating/internal/infra/metrics"
)

const (
	CloseSessionReplaced = 4001
	CloseGoingAway       = 1001
)

// Channel is a live push target bound to one user.
type Channel interface {
	Send(payload []byte) error
	Close(code int, reason string)
}

// Registry keeps at most one live channel per user.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]Channel
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]Channel)}
}

// Register binds ch to userID. A previously registered channel is removed and closed.
func (r *Registry) Register(userID int64, ch Channel) {
	if userID <= 0 || ch == nil {
		return
	}

	r.mu.Lock()
	previous, had := r.sessions[userID]
	r.sessions[userID] = ch
	size := len(r.sessions)
	r.mu.Unlock()

	metrics.LiveSessions.Set(float64(size))

	if had && previous != ch {
		previous.Close(CloseSessionReplaced, "session replaced")
	}
}

// Unregister removes whatever channel is bound to userID. Missing entries are ignored.
func (r *Registry) Unregister(userID int64) {
	r.mu.Lock()
	delete(r.sessions, userID)
	size := len(r.sessions)
	r.mu.Unlock()

	metrics.LiveSessions.Set(float64(size))
}

// Detach removes the binding only while ch is still the current channel for userID.
func (r *Registry) Detach(userID int64, ch Channel) bool {
	r.mu.Lock()
	current, ok := r.sessions[userID]
	if !ok || current != ch {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, userID)
	size := len(r.sessions)
	r.mu.Unlock()

	metrics.LiveSessions.Set(float64(size))
	return true
}

func (r *Registry) Lookup(userID int64) (Channel, bool) {
	r.mu.RLock()
	ch, ok := r.sessions[userID]
	r.mu.RUnlock()
	return ch, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close drops every binding and closes the channels.
func (r *Registry) Close() {
	r.mu.Lock()
	channels := make([]Channel, 0, len(r.sessions))
	for _, ch := range r.sessions {
		channels = append(channels, ch)
	}
	r.sessions = make(map[int64]Channel)
	r.mu.Unlock()

	metrics.LiveSessions.Set(0)
	for _, ch := range channels {
		ch.Close(CloseGoingAway, "server shutdown")
	}
}
