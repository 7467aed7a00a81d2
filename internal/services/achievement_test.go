package services

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/challenge"
	"github.com/tahcohcat/fitchallenge-web/internal/models"
)

func TestUnlockIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "learner@example.com")

	newly, err := env.achievements.Unlock(ctx, user.ID, challenge.Achievement7DaysCompleted)
	require.NoError(t, err)
	assert.True(t, newly)

	newly, err = env.achievements.Unlock(ctx, user.ID, challenge.Achievement7DaysCompleted)
	require.NoError(t, err)
	assert.False(t, newly)

	assert.Equal(t, 1, env.countRows(t,
		`SELECT COUNT(*) FROM user_achievements WHERE user_id = ? AND achievement_id = ?`,
		user.ID, challenge.Achievement7DaysCompleted))
}

func TestUnlockUnknownAchievement(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "learner@example.com")

	_, err := env.achievements.Unlock(context.Background(), user.ID, "no_such_badge")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListForUserIsComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "learner@example.com")

	_, err := env.achievements.Unlock(ctx, user.ID, challenge.Achievement28DaysWeek1)
	require.NoError(t, err)

	for _, lang := range env.languages.Supported() {
		list, err := env.achievements.ListForUser(ctx, user.ID, lang)
		require.NoError(t, err)
		require.Len(t, list, len(challenge.Thresholds()), lang)

		ids := make([]string, 0, len(list))
		seen := map[string]bool{}
		for _, a := range list {
			assert.Equal(t, lang, a.Language)
			assert.False(t, seen[a.ID], "duplicate %s", a.ID)
			seen[a.ID] = true
			ids = append(ids, a.ID)

			if a.ID == challenge.Achievement28DaysWeek1 {
				assert.True(t, a.Unlocked)
				assert.NotNil(t, a.UnlockedAt)
			} else {
				assert.False(t, a.Unlocked, a.ID)
				assert.Nil(t, a.UnlockedAt)
			}
		}
		assert.True(t, sort.StringsAreSorted(ids))
	}
}

func TestListForUserUnknownLanguageIsEmpty(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "learner@example.com")

	list, err := env.achievements.ListForUser(context.Background(), user.ID, "de-DE")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSeedDefaultsKeepsEdits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	def := &models.AchievementDefinition{
		ID:       challenge.Achievement7DaysCompleted,
		Language: "en-US",
		Title:    "Seven for seven",
	}
	require.NoError(t, env.achievements.UpdateDefinition(ctx, def))
	require.NoError(t, env.achievements.SeedDefaults(ctx))

	got, err := env.achievements.GetDefinition(ctx, challenge.Achievement7DaysCompleted, "en-US")
	require.NoError(t, err)
	assert.Equal(t, "Seven for seven", got.Title)
	assert.Equal(t, len(challenge.Thresholds())*len(env.languages.Supported()),
		env.countRows(t, `SELECT COUNT(*) FROM achievements`))
}

func TestDefinitionCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	def := &models.AchievementDefinition{
		ID:       "first_login",
		Title:    "Welcome",
		ImageURL: "https://cdn.example.com/badges/welcome.png",
		Language: "es-es",
	}
	require.NoError(t, env.achievements.CreateDefinition(ctx, def))
	assert.Equal(t, "es-ES", def.Language)

	err := env.achievements.CreateDefinition(ctx, &models.AchievementDefinition{ID: "first_login", Title: "Again", Language: "es-ES"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = env.achievements.CreateDefinition(ctx, &models.AchievementDefinition{ID: "x", Title: "X", Language: "it-IT"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = env.achievements.CreateDefinition(ctx, &models.AchievementDefinition{ID: "y", Language: "es-ES"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	defs, err := env.achievements.ListDefinitions(ctx, "es-ES")
	require.NoError(t, err)
	assert.Len(t, defs, len(challenge.Thresholds())+1)

	require.NoError(t, env.achievements.DeleteDefinition(ctx, "first_login", "es-ES"))
	err = env.achievements.DeleteDefinition(ctx, "first_login", "es-ES")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = env.achievements.UpdateDefinition(ctx, &models.AchievementDefinition{ID: "first_login", Title: "Gone", Language: "es-ES"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
