package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ivankudzin/commitdating/internal/domain/model"
	"github.com/ivankudzin/commitdating/internal/realtime"
	"github.com/ivankudzin/commitdating/internal/repo"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrMatchNotFound = errors.New("match not found")
	ErrTooFast       = errors.New("too many messages")
)

// RateLimitedError carries the wait hint for a throttled sender.
type RateLimitedError struct {
	RetryAfterSec int64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many messages, retry after %ds", e.RetryAfterSec)
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrTooFast
}

type MatchFinder interface {
	FindByUsers(ctx context.Context, userID, targetID int64) (model.Match, error)
}

type Ledger interface {
	Record(ctx context.Context, match model.Match, senderID int64, text string) (model.Message, error)
}

type Publisher interface {
	Publish(ctx context.Context, event realtime.Event, recipientID int64) realtime.Outcome
}

type Limiter interface {
	Allow(ctx context.Context, userID int64) (int64, bool, error)
}

type Dependencies struct {
	Matches   MatchFinder
	Ledger    Ledger
	Publisher Publisher
	Limiter   Limiter
	Logger    *zap.Logger
}

type Config struct {
	MaxTextLength int
}

type Service struct {
	matches   MatchFinder
	ledger    Ledger
	publisher Publisher
	limiter   Limiter
	log       *zap.Logger
	cfg       Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = 2000
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		matches:   deps.Matches,
		ledger:    deps.Ledger,
		publisher: deps.Publisher,
		limiter:   deps.Limiter,
		log:       log,
		cfg:       cfg,
	}
}

// Send stores a message from senderID to partnerID and pushes it to the
// partner if they are online. The push outcome never affects the result.
func (s *Service) Send(ctx context.Context, senderID, partnerID int64, text string) (model.Message, error) {
	if senderID <= 0 || partnerID <= 0 || senderID == partnerID {
		return model.Message{}, ErrValidation
	}
	if strings.TrimSpace(text) == "" || utf8.RuneCountInString(text) > s.cfg.MaxTextLength {
		return model.Message{}, ErrValidation
	}
	if s.matches == nil || s.ledger == nil {
		return model.Message{}, fmt.Errorf("chat dependencies are not configured")
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.Allow(ctx, senderID)
		switch {
		case err != nil:
			s.log.Warn("message rate limiter unavailable", zap.Int64("user_id", senderID), zap.Error(err))
		case !allowed:
			return model.Message{}, &RateLimitedError{RetryAfterSec: retryAfter}
		}
	}

	match, err := s.matches.FindByUsers(ctx, senderID, partnerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Message{}, ErrMatchNotFound
		}
		return model.Message{}, fmt.Errorf("lookup match: %w", err)
	}

	msg, err := s.ledger.Record(ctx, match, senderID, text)
	if err != nil {
		return model.Message{}, err
	}

	if s.publisher != nil {
		outcome := s.publisher.Publish(ctx, realtime.NewMessageEvent(msg), partnerID)
		s.log.Debug("message push",
			zap.Int64("message_id", msg.ID),
			zap.Int64("recipient_id", partnerID),
			zap.String("outcome", string(outcome)),
		)
	}
	return msg, nil
}
