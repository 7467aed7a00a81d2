package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tahcohcat/fitchallenge-web/internal/challenge"
	"github.com/tahcohcat/fitchallenge-web/internal/database"
	"github.com/tahcohcat/fitchallenge-web/internal/i18n"
	"github.com/tahcohcat/fitchallenge-web/internal/models"
)

type testEnv struct {
	db           *database.DB
	languages    *i18n.Resolver
	catalog      *CatalogService
	achievements *AchievementService
	progress     *ProgressService
	users        *UserService
	allowList    *AllowListService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), database.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	languages, err := i18n.NewResolver(i18n.DefaultSupported, "pt-BR")
	require.NoError(t, err)

	env := &testEnv{db: db, languages: languages}
	env.catalog = NewCatalogService(db, languages)
	env.achievements = NewAchievementService(db, languages)
	env.progress = NewProgressService(db, env.catalog, env.achievements)
	env.users = NewUserService(db, languages, []string{"Admin@Example.com"})
	env.allowList = NewAllowListService(db)

	require.NoError(t, env.achievements.SeedDefaults(context.Background()))
	return env
}

func (e *testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.users.CreateUser(context.Background(), &models.CreateUserRequest{
		Email:           email,
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) createClass(t *testing.T, track challenge.Track, day int, language string) *models.ClassRecord {
	t.Helper()
	class := &models.ClassRecord{
		Title:         fmt.Sprintf("%s day %d", track, day),
		Day:           day,
		ChallengeType: string(track),
		VideoURL:      fmt.Sprintf("https://videos.example.com/%s/%d", track, day),
		Language:      language,
	}
	require.NoError(t, e.catalog.CreateClass(context.Background(), class))
	return class
}

// createTrack creates every day of track in language.
func (e *testEnv) createTrack(t *testing.T, track challenge.Track, language string) {
	t.Helper()
	for day := 1; day <= track.TotalDays(); day++ {
		e.createClass(t, track, day, language)
	}
}

func (e *testEnv) countRows(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.Get(&n, query, args...))
	return n
}
