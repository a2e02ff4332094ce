package matches

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ivankudzin/commitdating/internal/domain/enums"
	"github.com/ivankudzin/commitdating/internal/domain/model"
	sqlrepo "github.com/ivankudzin/commitdating/internal/repo/sqlite"
)

type engineFixture struct {
	svc     *Service
	db      *sql.DB
	users   *sqlrepo.UserRepo
	matches *sqlrepo.MatchRepo
}

func newEngineFixture(t *testing.T) engineFixture {
	t.Helper()

	db, err := sqlrepo.Open(context.Background(), filepath.Join(t.TempDir(), "engine.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	users := sqlrepo.NewUserRepo(db)
	matches := sqlrepo.NewMatchRepo(db)
	svc := NewService(Dependencies{
		Actions: sqlrepo.NewActionRepo(db),
		Matches: matches,
		Users:   users,
	})
	return engineFixture{svc: svc, db: db, users: users, matches: matches}
}

func (f engineFixture) user(t *testing.T, name string, stack ...string) model.User {
	t.Helper()

	u, err := f.users.Create(context.Background(), model.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Stack:        stack,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (f engineFixture) matchCount(t *testing.T) int {
	t.Helper()

	var n int
	if err := f.db.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&n); err != nil {
		t.Fatalf("count matches: %v", err)
	}
	return n
}

func TestRecordActionMutualLikeCreatesOneMatch(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	x := f.user(t, "x")
	y := f.user(t, "y")

	first, err := f.svc.RecordAction(ctx, x.ID, y.ID, enums.ActionLike)
	if err != nil {
		t.Fatalf("first like: %v", err)
	}
	if first.MatchCreated {
		t.Fatalf("a single like must not create a match")
	}

	second, err := f.svc.RecordAction(ctx, y.ID, x.ID, enums.ActionLike)
	if err != nil {
		t.Fatalf("second like: %v", err)
	}
	if !second.MatchCreated {
		t.Fatalf("reciprocal like must create a match")
	}
	if second.Match.UserAID != x.ID || second.Match.UserBID != y.ID {
		t.Fatalf("unexpected match pair: %+v", second.Match)
	}

	again, err := f.svc.RecordAction(ctx, x.ID, y.ID, enums.ActionLike)
	if err != nil {
		t.Fatalf("duplicate like: %v", err)
	}
	if again.MatchCreated {
		t.Fatalf("a repeated like must not create a second match")
	}
	if n := f.matchCount(t); n != 1 {
		t.Fatalf("expected exactly one match, got %d", n)
	}
}

func TestRecordActionPassNeverMatches(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	x := f.user(t, "x")
	y := f.user(t, "y")

	if _, err := f.svc.RecordAction(ctx, x.ID, y.ID, enums.ActionLike); err != nil {
		t.Fatalf("like: %v", err)
	}
	res, err := f.svc.RecordAction(ctx, y.ID, x.ID, enums.ActionPass)
	if err != nil {
		t.Fatalf("pass: %v", err)
	}
	if res.MatchCreated || f.matchCount(t) != 0 {
		t.Fatalf("pass must not create a match")
	}
}

func TestRecordActionConcurrentLikesCreateOneMatch(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	x := f.user(t, "x")
	y := f.user(t, "y")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		actor, target := x.ID, y.ID
		if i%2 == 1 {
			actor, target = y.ID, x.ID
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.RecordAction(ctx, actor, target, enums.ActionLike)
			if err != nil {
				t.Errorf("like %d->%d: %v", actor, target, err)
				return
			}
			if res.MatchCreated {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("expected exactly one call to report a new match, got %d", created)
	}
	if n := f.matchCount(t); n != 1 {
		t.Fatalf("expected exactly one stored match, got %d", n)
	}
}

func TestRecordActionValidation(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	x := f.user(t, "x")

	if _, err := f.svc.RecordAction(ctx, x.ID, x.ID, enums.ActionLike); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for self action, got %v", err)
	}
	if _, err := f.svc.RecordAction(ctx, x.ID, 999, enums.ActionLike); !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
	if _, err := f.svc.RecordAction(ctx, 9999, x.ID, enums.ActionLike); !errors.Is(err, ErrActorNotFound) {
		t.Fatalf("expected ErrActorNotFound, got %v", err)
	}
	y := f.user(t, "y")
	if _, err := f.svc.RecordAction(ctx, x.ID, y.ID, enums.ActionKind("superlike")); !errors.Is(err, ErrUnsupportedAction) {
		t.Fatalf("expected ErrUnsupportedAction, got %v", err)
	}
}

func TestCheckAndCreateMatchIsIdempotent(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	x := f.user(t, "x")
	y := f.user(t, "y")

	if created, err := f.svc.CheckAndCreateMatch(ctx, x.ID, y.ID); err != nil || created {
		t.Fatalf("no likes yet: created=%v err=%v", created, err)
	}

	if _, err := f.svc.RecordAction(ctx, x.ID, y.ID, enums.ActionLike); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := f.svc.RecordAction(ctx, y.ID, x.ID, enums.ActionLike); err != nil {
		t.Fatalf("reciprocal like: %v", err)
	}

	if created, err := f.svc.CheckAndCreateMatch(ctx, y.ID, x.ID); err != nil || created {
		t.Fatalf("existing match must not be recreated: created=%v err=%v", created, err)
	}
	if n := f.matchCount(t); n != 1 {
		t.Fatalf("expected one match, got %d", n)
	}
}

func TestListReturnsPartnersWithScore(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	x := f.user(t, "x", "Go", "Rust")
	y := f.user(t, "y", "Rust", "Python")
	z := f.user(t, "z")

	for _, step := range [][2]int64{{x.ID, y.ID}, {y.ID, x.ID}, {x.ID, z.ID}} {
		if _, err := f.svc.RecordAction(ctx, step[0], step[1], enums.ActionLike); err != nil {
			t.Fatalf("like %v: %v", step, err)
		}
	}

	items, err := f.svc.List(ctx, x.ID)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one match, got %d", len(items))
	}
	if items[0].Partner.ID != y.ID || items[0].Score != 33 {
		t.Fatalf("unexpected match item: partner=%d score=%d", items[0].Partner.ID, items[0].Score)
	}
}
