package apiapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/ivankudzin/commitdating/internal/config"
	"github.com/ivankudzin/commitdating/internal/domain/enums"
	"github.com/ivankudzin/commitdating/internal/domain/model"
	"github.com/ivankudzin/commitdating/internal/repo"
	authsvc "github.com/ivankudzin/commitdating/internal/services/auth"
	matchessvc "github.com/ivankudzin/commitdating/internal/services/matches"
	profilesvc "github.com/ivankudzin/commitdating/internal/services/profiles"
)

const demoPassword = "password"

type demoProfile struct {
	Name  string
	Role  string
	Bio   string
	Stack []string
	Image string
}

var demoProfiles = []demoProfile{
	{
		Name:  "Sarah Chen",
		Role:  "Frontend Architect",
		Bio:   "git commit -m 'looking for someone to center my div'",
		Stack: []string{"React", "TypeScript", "Tailwind", "Three.js", "Figma"},
		Image: "https://images.unsplash.com/photo-1494790108377-be9c29b29330?auto=format&fit=crop&w=500&q=80",
	},
	{
		Name:  "Alex Rodriguez",
		Role:  "Systems Engineer",
		Bio:   "Rust enthusiast. I promise not to rewrite your codebase.",
		Stack: []string{"Rust", "Go", "Kubernetes", "Linux", "C++"},
		Image: "https://images.unsplash.com/photo-1500648767791-00dcc994a43e?auto=format&fit=crop&w=500&q=80",
	},
	{
		Name:  "Jordan Taylor",
		Role:  "AI Researcher",
		Bio:   "Training models by day, debugging life by night.",
		Stack: []string{"Python", "PyTorch", "TensorFlow", "CUDA", "FastAPI"},
		Image: "https://images.unsplash.com/photo-1573496359142-b8d87734a5a2?auto=format&fit=crop&w=500&q=80",
	},
	{
		Name:  "Emily Zhang",
		Role:  "Full Stack Dev",
		Bio:   "Tabs over spaces. VIM over VS Code. Fight me.",
		Stack: []string{"Node.js", "Vue", "Postgres", "AWS", "Python"},
		Image: "https://images.unsplash.com/photo-1580489944761-15a19d654956?auto=format&fit=crop&w=500&q=80",
	},
	{
		Name:  "David Kim",
		Role:  "DevOps Engineer",
		Bio:   "If it works on my machine, we ship my machine.",
		Stack: []string{"Docker", "Terraform", "CI/CD", "Bash", "Go"},
		Image: "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?auto=format&fit=crop&w=500&q=80",
	},
}

// Indexes into demoProfiles that start out matched so chat can be tried right away.
var demoMatch = [2]int{0, 2}

type SeedReport struct {
	Created      int
	Updated      int
	MatchCreated bool
}

func demoEmail(i int) string {
	return "user" + strconv.Itoa(i+1) + "@test.com"
}

// Seed writes the demo profiles into the configured store. Running it again
// refreshes the profiles and leaves the existing match alone.
func Seed(ctx context.Context, cfg config.Config, log *zap.Logger) (SeedReport, error) {
	if log == nil {
		log = zap.NewNop()
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return SeedReport{}, err
	}
	defer func() {
		_ = st.Close()
	}()
	log.Info("seeding demo data", zap.String("backend", st.backend))

	auth := authsvc.NewService(authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL), st.users, authsvc.Config{
		DefaultBio:    cfg.Registration.DefaultBio,
		AvatarBaseURL: cfg.Registration.AvatarBaseURL,
		DefaultLat:    cfg.Registration.DefaultLat,
		DefaultLng:    cfg.Registration.DefaultLng,
		BcryptCost:    cfg.Auth.BcryptCost,
	})
	profiles := profilesvc.NewService(st.users, st.actions)
	engine := matchessvc.NewService(matchessvc.Dependencies{
		Actions: st.actions,
		Matches: st.matches,
		Users:   st.users,
		Logger:  log,
	})

	var report SeedReport
	ids := make([]int64, len(demoProfiles))
	for i, p := range demoProfiles {
		id, created, err := ensureDemoUser(ctx, auth, st.users, demoEmail(i), p)
		if err != nil {
			return report, err
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}

		role, bio, image := p.Role, p.Bio, p.Image
		if _, err := profiles.UpdateMe(ctx, id, model.ProfilePatch{
			Role:  &role,
			Bio:   &bio,
			Stack: p.Stack,
			Image: &image,
		}); err != nil {
			return report, fmt.Errorf("seed profile %s: %w", p.Name, err)
		}
		ids[i] = id
	}

	a, b := ids[demoMatch[0]], ids[demoMatch[1]]
	_, err = st.matches.FindByUsers(ctx, a, b)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrNotFound):
		if _, err := engine.RecordAction(ctx, a, b, enums.ActionLike); err != nil {
			return report, fmt.Errorf("seed like: %w", err)
		}
		res, err := engine.RecordAction(ctx, b, a, enums.ActionLike)
		if err != nil {
			return report, fmt.Errorf("seed like back: %w", err)
		}
		report.MatchCreated = res.MatchCreated
	default:
		return report, fmt.Errorf("lookup demo match: %w", err)
	}

	log.Info("demo data ready",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Bool("match_created", report.MatchCreated),
	)
	return report, nil
}

func ensureDemoUser(ctx context.Context, auth *authsvc.Service, users userStore, email string, p demoProfile) (int64, bool, error) {
	res, err := auth.Register(ctx, authsvc.RegisterInput{
		Name:     p.Name,
		Email:    email,
		Password: demoPassword,
		Role:     p.Role,
	})
	if err == nil {
		return res.User.ID, true, nil
	}
	if !errors.Is(err, authsvc.ErrEmailTaken) {
		return 0, false, fmt.Errorf("register %s: %w", email, err)
	}

	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return 0, false, fmt.Errorf("load %s: %w", email, err)
	}
	return existing.ID, false, nil
}
