package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ivankudzin/commitdating/internal/domain/enums"
	"github.com/ivankudzin/commitdating/internal/domain/model"
	"github.com/ivankudzin/commitdating/internal/domain/rules"
	"github.com/ivankudzin/commitdating/internal/pkg/validate"
	"github.com/ivankudzin/commitdating/internal/repo"
)

const (
	maxNameLength = 80
	maxRoleLength = 80
	maxBioLength  = 1000
	maxStackTags  = 30
	maxTagLength  = 40
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("profile not found")
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
	ListExcluding(ctx context.Context, excluded []int64) ([]model.User, error)
	ListByIDs(ctx context.Context, ids []int64) ([]model.User, error)
	UpdateProfile(ctx context.Context, id int64, patch model.ProfilePatch) (model.User, error)
}

type ActionLister interface {
	ListTargetIDs(ctx context.Context, actorID int64, kind enums.ActionKind) ([]int64, error)
	ListActorIDs(ctx context.Context, targetID int64, kind enums.ActionKind) ([]int64, error)
}

// Profile is a user as seen by the viewer, scored against the viewer's stack.
type Profile struct {
	User       model.User
	MatchScore int
}

type Service struct {
	users   UserStore
	actions ActionLister
}

func NewService(users UserStore, actions ActionLister) *Service {
	return &Service{users: users, actions: actions}
}

// Candidates lists users the viewer has not acted upon yet, best stack overlap first.
func (s *Service) Candidates(ctx context.Context, viewerID int64, limit int) ([]Profile, error) {
	if viewerID <= 0 {
		return nil, ErrValidation
	}
	if s.users == nil || s.actions == nil {
		return nil, fmt.Errorf("profile dependencies are not configured")
	}

	me, err := s.load(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	acted, err := s.actions.ListTargetIDs(ctx, viewerID, "")
	if err != nil {
		return nil, fmt.Errorf("list acted targets: %w", err)
	}
	excluded := append(acted, viewerID)

	users, err := s.users.ListExcluding(ctx, excluded)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	scored := make([]rules.Scored[model.User], 0, len(users))
	for _, u := range users {
		scored = append(scored, rules.Scored[model.User]{
			Item:  u,
			Score: rules.CompatibilityScore(me.Stack, u.Stack),
		})
	}

	ranked := rules.RankByScore(scored)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]Profile, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, Profile{User: r.Item, MatchScore: r.Score})
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, viewerID, targetID int64) (Profile, error) {
	if viewerID <= 0 || targetID <= 0 {
		return Profile{}, ErrValidation
	}
	if s.users == nil {
		return Profile{}, fmt.Errorf("user store is nil")
	}

	target, err := s.load(ctx, targetID)
	if err != nil {
		return Profile{}, err
	}
	if targetID == viewerID {
		return Profile{User: target}, nil
	}

	me, err := s.load(ctx, viewerID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: target, MatchScore: rules.CompatibilityScore(me.Stack, target.Stack)}, nil
}

func (s *Service) Me(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, ErrValidation
	}
	if s.users == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}
	return s.load(ctx, userID)
}

func (s *Service) UpdateMe(ctx context.Context, userID int64, patch model.ProfilePatch) (model.User, error) {
	if userID <= 0 {
		return model.User{}, ErrValidation
	}
	if s.users == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}

	clean, err := cleanPatch(patch)
	if err != nil {
		return model.User{}, err
	}

	user, err := s.users.UpdateProfile(ctx, userID, clean)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// LikesReceived lists users who liked userID.
func (s *Service) LikesReceived(ctx context.Context, userID int64) ([]Profile, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.actions == nil {
		return nil, fmt.Errorf("action store is nil")
	}
	ids, err := s.actions.ListActorIDs(ctx, userID, enums.ActionLike)
	if err != nil {
		return nil, fmt.Errorf("list likers: %w", err)
	}
	return s.scoredByIDs(ctx, userID, ids)
}

// LikesSent lists users liked by userID.
func (s *Service) LikesSent(ctx context.Context, userID int64) ([]Profile, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.actions == nil {
		return nil, fmt.Errorf("action store is nil")
	}
	ids, err := s.actions.ListTargetIDs(ctx, userID, enums.ActionLike)
	if err != nil {
		return nil, fmt.Errorf("list liked users: %w", err)
	}
	return s.scoredByIDs(ctx, userID, ids)
}

func (s *Service) scoredByIDs(ctx context.Context, viewerID int64, ids []int64) ([]Profile, error) {
	if s.users == nil {
		return nil, fmt.Errorf("user store is nil")
	}
	me, err := s.load(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	out := make([]Profile, 0, len(users))
	for _, u := range users {
		out = append(out, Profile{User: u, MatchScore: rules.CompatibilityScore(me.Stack, u.Stack)})
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id int64) (model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("load user %d: %w", id, err)
	}
	return user, nil
}

func cleanPatch(patch model.ProfilePatch) (model.ProfilePatch, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if !validate.Required(name) || !validate.MaxRunes(name, maxNameLength) {
			return model.ProfilePatch{}, ErrValidation
		}
		patch.Name = &name
	}
	if patch.Role != nil && !validate.MaxRunes(*patch.Role, maxRoleLength) {
		return model.ProfilePatch{}, ErrValidation
	}
	if patch.Bio != nil && !validate.MaxRunes(*patch.Bio, maxBioLength) {
		return model.ProfilePatch{}, ErrValidation
	}
	if patch.Stack != nil {
		stack, ok := validate.Tags(patch.Stack, maxStackTags, maxTagLength)
		if !ok {
			return model.ProfilePatch{}, ErrValidation
		}
		patch.Stack = stack
	}
	return patch, nil
}
