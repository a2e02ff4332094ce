package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ivankudzin/commitdating/internal/domain/model"
	"github.com/ivankudzin/commitdating/internal/infra/metrics"
	"github.com/ivankudzin/commitdating/internal/repo"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrNotParticipant = errors.New("sender is not a participant of the match")
)

type MessageStore interface {
	Create(ctx context.Context, matchID, senderID int64, text string) (model.Message, error)
	CountUnreadForUser(ctx context.Context, userID int64) (int, error)
	ListAndMarkRead(ctx context.Context, matchID, viewerID int64) ([]model.Message, error)
}

type MatchLookup interface {
	FindByUsers(ctx context.Context, userID, targetID int64) (model.Match, error)
}

type Sender string

const (
	SenderMe   Sender = "me"
	SenderThem Sender = "them"
)

// ConversationEntry is a message as seen by one participant.
type ConversationEntry struct {
	ID        int64
	Text      string
	Sender    Sender
	Timestamp time.Time
	Read      bool
}

// Service stores chat messages and tracks what each participant has read.
type Service struct {
	messages MessageStore
	matches  MatchLookup
}

func NewService(messages MessageStore, matches MatchLookup) *Service {
	return &Service{messages: messages, matches: matches}
}

// Record stores an unread message. The sender must belong to the match.
func (s *Service) Record(ctx context.Context, match model.Match, senderID int64, text string) (model.Message, error) {
	if match.ID <= 0 || senderID <= 0 {
		return model.Message{}, ErrValidation
	}
	if !match.Has(senderID) {
		return model.Message{}, ErrNotParticipant
	}
	if s.messages == nil {
		return model.Message{}, fmt.Errorf("message store is nil")
	}

	msg, err := s.messages.Create(ctx, match.ID, senderID, text)
	if err != nil {
		return model.Message{}, fmt.Errorf("record message: %w", err)
	}
	metrics.MessagesRecorded.Inc()
	return msg, nil
}

// UnreadCount is the number of messages addressed to viewerID that viewerID has not fetched yet.
func (s *Service) UnreadCount(ctx context.Context, viewerID int64) (int, error) {
	if viewerID <= 0 {
		return 0, ErrValidation
	}
	if s.messages == nil {
		return 0, fmt.Errorf("message store is nil")
	}
	return s.messages.CountUnreadForUser(ctx, viewerID)
}

// FetchAndMarkRead returns the conversation with partnerID in send order and marks the
// returned incoming messages as read. Without a match the conversation is empty.
func (s *Service) FetchAndMarkRead(ctx context.Context, viewerID, partnerID int64) ([]ConversationEntry, error) {
	if viewerID <= 0 || partnerID <= 0 || viewerID == partnerID {
		return nil, ErrValidation
	}
	if s.messages == nil || s.matches == nil {
		return nil, fmt.Errorf("ledger dependencies are not configured")
	}

	match, err := s.matches.FindByUsers(ctx, viewerID, partnerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return []ConversationEntry{}, nil
		}
		return nil, fmt.Errorf("lookup match: %w", err)
	}

	messages, err := s.messages.ListAndMarkRead(ctx, match.ID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetch conversation: %w", err)
	}

	entries := make([]ConversationEntry, 0, len(messages))
	for _, m := range messages {
		sender := SenderThem
		if m.SenderID == viewerID {
			sender = SenderMe
		}
		entries = append(entries, ConversationEntry{
			ID:        m.ID,
			Text:      m.Text,
			Sender:    sender,
			Timestamp: m.CreatedAt,
			Read:      m.Read,
		})
	}
	return entries, nil
}
