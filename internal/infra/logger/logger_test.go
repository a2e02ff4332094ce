package logger

import "testing"

func TestNewAcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "INFO", " warn "} {
		log, err := New(level)
		if err != nil {
			t.Fatalf("New(%q): %v", level, err)
		}
		_ = log.Sync()
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
