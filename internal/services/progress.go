package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/challenge"
	"github.com/tahcohcat/fitchallenge-web/internal/database"
	"github.com/tahcohcat/fitchallenge-web/internal/logger"
	"github.com/tahcohcat/fitchallenge-web/internal/models"
)

type ClassResolver interface {
	ResolveClass(ctx context.Context, track challenge.Track, day int, language string) (*models.ClassRecord, error)
}

type AchievementUnlocker interface {
	Unlock(ctx context.Context, userID, achievementID string) (bool, error)
}

// ProgressService records day completions and keeps the per-track progress
// fractions. It takes no locks: duplicate completions are arbitrated by the
// primary key of user_class_progress and the progress guard is a single
// conditional UPDATE.
type ProgressService struct {
	db       *database.DB
	classes  ClassResolver
	unlocker AchievementUnlocker
	now      func() time.Time
}

func NewProgressService(db *database.DB, classes ClassResolver, unlocker AchievementUnlocker) *ProgressService {
	return &ProgressService{db: db, classes: classes, unlocker: unlocker, now: time.Now}
}

func checkDay(track challenge.Track, day int) error {
	if !track.Valid() {
		return apperr.Validationf("unknown challenge type %q", track)
	}
	if !track.ValidDay(day) {
		return apperr.Validationf("day must be between 1 and %d for %s", track.TotalDays(), track)
	}
	return nil
}

// CompleteDay marks day of track complete for the user, in language.
// Completing the same class twice is a no-op reported as AlreadyCompleted.
// Achievement failures do not undo the completion; they come back as
// warnings.
func (s *ProgressService) CompleteDay(ctx context.Context, userID string, track challenge.Track, day int, language string) (*models.CompletionResult, error) {
	if err := checkDay(track, day); err != nil {
		return nil, err
	}

	class, err := s.classes.ResolveClass(ctx, track, day, language)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_class_progress (user_id, class_id, completed_at) VALUES (?, ?, ?)`,
		userID, class.ID, s.now().UTC())
	if err != nil {
		return nil, upstream("failed to record completion", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, upstream("failed to record completion", err)
	}

	// The guard runs on the duplicate path too. It can only raise the
	// stored value to what this completion already justifies, which heals a
	// request that died between the insert and the update.
	progress, err := s.applyProgress(ctx, userID, track, day)
	if err != nil {
		return nil, err
	}

	if inserted == 0 {
		return &models.CompletionResult{Completed: true, AlreadyCompleted: true, NewProgress: progress}, nil
	}

	logger.New().Info("class completed",
		"user_id", userID, "challenge_type", string(track), "day", day, "progress", progress)

	result := &models.CompletionResult{Completed: true, NewProgress: progress}
	result.Unlocked, result.Warnings = s.unlockFor(ctx, userID, track, day)
	return result, nil
}

// EvaluateAchievements re-runs the unlock rules for a day the user has
// already completed. Unlocks are idempotent so this is always safe.
func (s *ProgressService) EvaluateAchievements(ctx context.Context, userID string, track challenge.Track, day int, language string) (*models.CompletionResult, error) {
	if err := checkDay(track, day); err != nil {
		return nil, err
	}

	class, err := s.classes.ResolveClass(ctx, track, day, language)
	if err != nil {
		return nil, err
	}

	done, err := s.IsCompleted(ctx, userID, class.ID)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, apperr.Validationf("day %d of %s is not completed", day, track)
	}

	current, err := s.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &models.CompletionResult{Completed: true, AlreadyCompleted: true, NewProgress: current.For(track)}
	result.Unlocked, result.Warnings = s.unlockFor(ctx, userID, track, day)
	return result, nil
}

func (s *ProgressService) unlockFor(ctx context.Context, userID string, track challenge.Track, day int) (unlocked, warnings []string) {
	for _, id := range challenge.AchievementsFor(track, day) {
		newly, err := s.unlocker.Unlock(ctx, userID, id)
		if err != nil {
			logger.New().WithError(err).Warn("achievement unlock failed",
				"user_id", userID, "achievement_id", id)
			warnings = append(warnings, fmt.Sprintf("could not unlock achievement %s: %s", id, apperr.Message(err)))
			continue
		}
		if newly {
			unlocked = append(unlocked, id)
		}
	}
	return unlocked, warnings
}

// applyProgress raises the track fraction to day/total if that is strictly
// greater than what is stored and returns the stored value afterwards.
func (s *ProgressService) applyProgress(ctx context.Context, userID string, track challenge.Track, day int) (float64, error) {
	col := track.ProgressColumn()
	candidate := track.Fraction(day)
	now := s.now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, upstream("failed to update progress", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_progress (user_id, updated_at) VALUES (?, ?)`, userID, now); err != nil {
		return 0, upstream("failed to update progress", err)
	}

	update := fmt.Sprintf(`UPDATE user_progress SET %s = ?, updated_at = ? WHERE user_id = ? AND %s < ?`, col, col)
	if _, err := tx.ExecContext(ctx, update, candidate, now, userID, candidate); err != nil {
		return 0, upstream("failed to update progress", err)
	}

	var stored float64
	if err := tx.GetContext(ctx, &stored, fmt.Sprintf(`SELECT %s FROM user_progress WHERE user_id = ?`, col), userID); err != nil {
		return 0, upstream("failed to read progress", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, upstream("failed to update progress", err)
	}
	return stored, nil
}

// GetProgress returns the user's fractions; a user with no row yet gets
// zeros rather than NotFound.
func (s *ProgressService) GetProgress(ctx context.Context, userID string) (*models.ChallengeProgress, error) {
	var p models.ChallengeProgress
	err := s.db.GetContext(ctx, &p, `
		SELECT user_id, challenge_7days_progress, challenge_28days_progress, updated_at
		FROM user_progress WHERE user_id = ?
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.ChallengeProgress{UserID: userID}, nil
	} else if err != nil {
		return nil, upstream("failed to get progress", err)
	}
	return &p, nil
}

func (s *ProgressService) IsCompleted(ctx context.Context, userID, classID string) (bool, error) {
	var done bool
	err := s.db.GetContext(ctx, &done,
		`SELECT EXISTS(SELECT 1 FROM user_class_progress WHERE user_id = ? AND class_id = ?)`, userID, classID)
	if err != nil {
		return false, upstream("failed to check completion", err)
	}
	return done, nil
}

// CompletedClassIDs returns the set of class ids the user has completed.
func (s *ProgressService) CompletedClassIDs(ctx context.Context, userID string) (map[string]bool, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT class_id FROM user_class_progress WHERE user_id = ?`, userID); err != nil {
		return nil, upstream("failed to list completions", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// CompletionCount returns how many completion rows the user has for a class.
// The primary key keeps it at 0 or 1.
func (s *ProgressService) CompletionCount(ctx context.Context, userID, classID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM user_class_progress WHERE user_id = ? AND class_id = ?`, userID, classID)
	if err != nil {
		return 0, upstream("failed to count completions", err)
	}
	return n, nil
}
