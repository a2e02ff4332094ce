package matches

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ivankudzin/commitdating/internal/domain/enums"
	"github.com/ivankudzin/commitdating/internal/domain/model"
	"github.com/ivankudzin/commitdating/internal/domain/rules"
	"github.com/ivankudzin/commitdating/internal/infra/metrics"
	"github.com/ivankudzin/commitdating/internal/repo"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUnsupportedAction = errors.New("unsupported action")
	ErrTargetNotFound    = errors.New("target user not found")
	ErrActorNotFound     = errors.New("acting user not found")
)

type ActionStore interface {
	Create(ctx context.Context, actorID, targetID int64, kind enums.ActionKind) (model.Action, error)
	HasLike(ctx context.Context, actorID, targetID int64) (bool, error)
}

type MatchStore interface {
	Create(ctx context.Context, userID, targetID int64) (model.Match, error)
	FindByUsers(ctx context.Context, userID, targetID int64) (model.Match, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Match, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.User, error)
}

type Dependencies struct {
	Actions ActionStore
	Matches MatchStore
	Users   UserStore
	Logger  *zap.Logger
}

type ActionResult struct {
	Action       model.Action
	MatchCreated bool
	Match        model.Match
}

type MatchItem struct {
	Match   model.Match
	Partner model.User
	Score   int
}

// Service records swipes and turns mutual likes into matches. Match detection
// for a pair always runs under that pair's lock, and the storage unique
// constraint backs it up across processes.
type Service struct {
	actions ActionStore
	matches MatchStore
	users   UserStore
	locks   *pairLocks
	log     *zap.Logger
}

func NewService(deps Dependencies) *Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		actions: deps.Actions,
		matches: deps.Matches,
		users:   deps.Users,
		locks:   newPairLocks(),
		log:     log,
	}
}

func (s *Service) RecordAction(ctx context.Context, actorID, targetID int64, kind enums.ActionKind) (ActionResult, error) {
	if actorID <= 0 || targetID <= 0 || actorID == targetID {
		return ActionResult{}, ErrValidation
	}
	parsed, ok := enums.ParseActionKind(string(kind))
	if !ok {
		return ActionResult{}, ErrUnsupportedAction
	}
	if s.actions == nil || s.matches == nil || s.users == nil {
		return ActionResult{}, fmt.Errorf("match engine dependencies are not configured")
	}

	if _, err := s.users.GetByID(ctx, actorID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ActionResult{}, ErrActorNotFound
		}
		return ActionResult{}, fmt.Errorf("load acting user: %w", err)
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ActionResult{}, ErrTargetNotFound
		}
		return ActionResult{}, fmt.Errorf("load target user: %w", err)
	}

	if parsed == enums.ActionPass {
		action, err := s.actions.Create(ctx, actorID, targetID, parsed)
		if err != nil {
			return ActionResult{}, fmt.Errorf("record pass: %w", err)
		}
		return ActionResult{Action: action}, nil
	}

	unlock := s.locks.lock(actorID, targetID)
	defer unlock()

	action, err := s.actions.Create(ctx, actorID, targetID, parsed)
	if err != nil {
		return ActionResult{}, fmt.Errorf("record like: %w", err)
	}

	match, created, err := s.checkAndCreateLocked(ctx, actorID, targetID)
	if err != nil {
		return ActionResult{}, err
	}

	return ActionResult{
		Action:       action,
		MatchCreated: created,
		Match:        match,
	}, nil
}

// CheckAndCreateMatch creates the match for a pair that likes each other and reports
// whether this call created it. It is a no-op when the pair already matched.
func (s *Service) CheckAndCreateMatch(ctx context.Context, actorID, targetID int64) (bool, error) {
	if actorID <= 0 || targetID <= 0 || actorID == targetID {
		return false, ErrValidation
	}
	if s.actions == nil || s.matches == nil {
		return false, fmt.Errorf("match engine dependencies are not configured")
	}

	unlock := s.locks.lock(actorID, targetID)
	defer unlock()

	_, created, err := s.checkAndCreateLocked(ctx, actorID, targetID)
	return created, err
}

func (s *Service) checkAndCreateLocked(ctx context.Context, actorID, targetID int64) (model.Match, bool, error) {
	for _, pair := range [][2]int64{{targetID, actorID}, {actorID, targetID}} {
		liked, err := s.actions.HasLike(ctx, pair[0], pair[1])
		if err != nil {
			return model.Match{}, false, fmt.Errorf("lookup like: %w", err)
		}
		if !liked {
			return model.Match{}, false, nil
		}
	}

	existing, err := s.matches.FindByUsers(ctx, actorID, targetID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, repo.ErrNotFound):
		return model.Match{}, false, fmt.Errorf("lookup match: %w", err)
	}

	match, err := s.matches.Create(ctx, actorID, targetID)
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return model.Match{}, false, nil
		}
		return model.Match{}, false, fmt.Errorf("create match: %w", err)
	}

	metrics.MatchesCreated.Inc()
	s.log.Info("match created",
		zap.Int64("match_id", match.ID),
		zap.Int64("user_a_id", match.UserAID),
		zap.Int64("user_b_id", match.UserBID),
	)
	return match, true, nil
}

// List returns the user's matches, newest first, with partner profiles and scores.
func (s *Service) List(ctx context.Context, userID int64) ([]MatchItem, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.matches == nil || s.users == nil {
		return nil, fmt.Errorf("match engine dependencies are not configured")
	}

	me, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	rows, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	partnerIDs := make([]int64, 0, len(rows))
	for _, m := range rows {
		partnerIDs = append(partnerIDs, m.Partner(userID))
	}
	partners, err := s.users.ListByIDs(ctx, partnerIDs)
	if err != nil {
		return nil, fmt.Errorf("load partners: %w", err)
	}
	byID := make(map[int64]model.User, len(partners))
	for _, p := range partners {
		byID[p.ID] = p
	}

	items := make([]MatchItem, 0, len(rows))
	for _, m := range rows {
		partner, ok := byID[m.Partner(userID)]
		if !ok {
			continue
		}
		items = append(items, MatchItem{
			Match:   m,
			Partner: partner,
			Score:   rules.CompatibilityScore(me.Stack, partner.Stack),
		})
	}
	return items, nil
}
