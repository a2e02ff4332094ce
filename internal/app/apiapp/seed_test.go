package apiapp

import (
	"context"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/ivankudzin/commitdating/internal/config"
	sqlrepo "github.com/ivankudzin/commitdating/internal/repo/sqlite"
)

func TestSeedIsRepeatable(t *testing.T) {
	cfg := config.Default()
	cfg.Postgres.DSN = ""
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "seed.db")
	cfg.Auth.BcryptCost = bcrypt.MinCost
	ctx := context.Background()

	first, err := Seed(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if first.Created != len(demoProfiles) || first.Updated != 0 || !first.MatchCreated {
		t.Fatalf("unexpected first report: %+v", first)
	}

	second, err := Seed(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if second.Created != 0 || second.Updated != len(demoProfiles) || second.MatchCreated {
		t.Fatalf("unexpected second report: %+v", second)
	}

	db, err := sqlrepo.Open(ctx, cfg.SQLite.Path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()

	var users, matches, actions int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&matches); err != nil {
		t.Fatalf("count matches: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM actions`).Scan(&actions); err != nil {
		t.Fatalf("count actions: %v", err)
	}
	if users != len(demoProfiles) || matches != 1 || actions != 2 {
		t.Fatalf("unexpected rows: users=%d matches=%d actions=%d", users, matches, actions)
	}

	sarah, err := sqlrepo.NewUserRepo(db).GetByEmail(ctx, demoEmail(0))
	if err != nil {
		t.Fatalf("load demo user: %v", err)
	}
	if sarah.Role != "Frontend Architect" || len(sarah.Stack) != 5 {
		t.Fatalf("demo profile not applied: %+v", sarah)
	}
}
