package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/challenge"
	"github.com/tahcohcat/fitchallenge-web/internal/database"
	"github.com/tahcohcat/fitchallenge-web/internal/i18n"
	"github.com/tahcohcat/fitchallenge-web/internal/logger"
	"github.com/tahcohcat/fitchallenge-web/internal/models"
)

type AchievementService struct {
	db        *database.DB
	languages *i18n.Resolver
	now       func() time.Time
}

func NewAchievementService(db *database.DB, languages *i18n.Resolver) *AchievementService {
	return &AchievementService{db: db, languages: languages, now: time.Now}
}

type achievementRow struct {
	models.AchievementDefinition
	UnlockedAt sql.NullTime `db:"unlocked_at"`
}

// ListForUser returns every definition of language exactly once, ordered by
// id, flagged with the user's unlock state.
func (s *AchievementService) ListForUser(ctx context.Context, userID, language string) ([]models.AchievementStatus, error) {
	query := `
		SELECT
			a.id, a.title, a.description, a.image_url, a.language, a.created_at,
			ua.unlocked_at
		FROM achievements a
		LEFT JOIN user_achievements ua ON ua.achievement_id = a.id AND ua.user_id = ?
		WHERE a.language = ?
		ORDER BY a.id ASC
	`

	var rows []achievementRow
	if err := s.db.SelectContext(ctx, &rows, query, userID, language); err != nil {
		return nil, upstream("failed to list achievements", err)
	}

	statuses := make([]models.AchievementStatus, 0, len(rows))
	for _, row := range rows {
		status := models.AchievementStatus{AchievementDefinition: row.AchievementDefinition}
		if row.UnlockedAt.Valid {
			t := row.UnlockedAt.Time
			status.Unlocked = true
			status.UnlockedAt = &t
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Unlock records that userID earned achievementID. It reports whether this
// call created the record; a repeat is a silent no-op.
func (s *AchievementService) Unlock(ctx context.Context, userID, achievementID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM achievements WHERE id = ?)`, achievementID)
	if err != nil {
		return false, upstream("failed to look up achievement", err)
	}
	if !exists {
		return false, apperr.NotFound("achievement not found: " + achievementID)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_achievements (user_id, achievement_id, unlocked_at) VALUES (?, ?, ?)`,
		userID, achievementID, s.now().UTC())
	if err != nil {
		return false, upstream("failed to unlock achievement", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, upstream("failed to unlock achievement", err)
	}
	if n > 0 {
		logger.New().Info("achievement unlocked", "user_id", userID, "achievement_id", achievementID)
	}
	return n > 0, nil
}

// UnlockedIDs returns the ids the user has unlocked, in id order.
func (s *AchievementService) UnlockedIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := s.db.SelectContext(ctx, &ids,
		`SELECT achievement_id FROM user_achievements WHERE user_id = ? ORDER BY achievement_id ASC`, userID)
	if err != nil {
		return nil, upstream("failed to list unlocked achievements", err)
	}
	return ids, nil
}

// ListDefinitions is the admin view. An empty language lists all of them.
func (s *AchievementService) ListDefinitions(ctx context.Context, language string) ([]models.AchievementDefinition, error) {
	query := `SELECT id, title, description, image_url, language, created_at FROM achievements`
	var args []any
	if language != "" {
		query += ` WHERE language = ?`
		args = append(args, language)
	}
	query += ` ORDER BY id ASC, language ASC`

	defs := []models.AchievementDefinition{}
	if err := s.db.SelectContext(ctx, &defs, query, args...); err != nil {
		return nil, upstream("failed to list achievement definitions", err)
	}
	return defs, nil
}

func (s *AchievementService) GetDefinition(ctx context.Context, id, language string) (*models.AchievementDefinition, error) {
	var def models.AchievementDefinition
	err := s.db.GetContext(ctx, &def,
		`SELECT id, title, description, image_url, language, created_at FROM achievements WHERE id = ? AND language = ?`,
		id, language)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("achievement definition not found")
	} else if err != nil {
		return nil, upstream("failed to get achievement definition", err)
	}
	return &def, nil
}

func (s *AchievementService) validateDefinition(def *models.AchievementDefinition) error {
	if err := validateStruct(def); err != nil {
		return err
	}
	code, ok := s.languages.Normalize(def.Language)
	if !ok {
		return apperr.Validationf("unsupported language %q", def.Language)
	}
	def.Language = code
	return nil
}

func (s *AchievementService) CreateDefinition(ctx context.Context, def *models.AchievementDefinition) error {
	if err := s.validateDefinition(def); err != nil {
		return err
	}
	def.CreatedAt = s.now().UTC()

	query := `
		INSERT INTO achievements (id, title, description, image_url, language, created_at)
		VALUES (:id, :title, :description, :image_url, :language, :created_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, def); err != nil {
		if isUniqueViolation(err) {
			return apperr.Validationf("achievement %s already exists in %s", def.ID, def.Language)
		}
		return upstream("failed to create achievement definition", err)
	}
	return nil
}

// UpdateDefinition rewrites the text of one (id, language) definition. The
// key itself is immutable since unlocks reference the id.
func (s *AchievementService) UpdateDefinition(ctx context.Context, def *models.AchievementDefinition) error {
	if err := s.validateDefinition(def); err != nil {
		return err
	}

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE achievements SET title = :title, description = :description, image_url = :image_url
		WHERE id = :id AND language = :language
	`, def)
	if err != nil {
		return upstream("failed to update achievement definition", err)
	}
	if err := requireAffected(res, "achievement definition not found"); err != nil {
		return err
	}

	updated, err := s.GetDefinition(ctx, def.ID, def.Language)
	if err != nil {
		return err
	}
	*def = *updated
	return nil
}

// DeleteDefinition removes one translation. Existing unlocks are kept.
func (s *AchievementService) DeleteDefinition(ctx context.Context, id, language string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM achievements WHERE id = ? AND language = ?`, id, language)
	if err != nil {
		return upstream("failed to delete achievement definition", err)
	}
	return requireAffected(res, "achievement definition not found")
}

type badgeText struct {
	Title       string
	Description string
}

var defaultBadges = map[string]map[string]badgeText{
	challenge.Achievement7DaysCompleted: {
		"pt-BR": {"Desafio de 7 dias concluído", "Você completou todos os dias do desafio de 7 dias"},
		"en-US": {"7-Day Challenge Complete", "You completed every day of the 7-day challenge"},
		"es-ES": {"Reto de 7 días completado", "Completaste todos los días del reto de 7 días"},
		"fr-FR": {"Défi de 7 jours terminé", "Vous avez terminé tous les jours du défi de 7 jours"},
	},
	challenge.Achievement28DaysWeek1: {
		"pt-BR": {"Primeira semana", "Você concluiu a primeira semana do desafio de 28 dias"},
		"en-US": {"First Week", "You finished the first week of the 28-day challenge"},
		"es-ES": {"Primera semana", "Terminaste la primera semana del reto de 28 días"},
		"fr-FR": {"Première semaine", "Vous avez terminé la première semaine du défi de 28 jours"},
	},
	challenge.Achievement28DaysWeek2: {
		"pt-BR": {"Segunda semana", "Você concluiu a segunda semana do desafio de 28 dias"},
		"en-US": {"Second Week", "You finished the second week of the 28-day challenge"},
		"es-ES": {"Segunda semana", "Terminaste la segunda semana del reto de 28 días"},
		"fr-FR": {"Deuxième semaine", "Vous avez terminé la deuxième semaine du défi de 28 jours"},
	},
	challenge.Achievement28DaysWeek3: {
		"pt-BR": {"Terceira semana", "Você concluiu a terceira semana do desafio de 28 dias"},
		"en-US": {"Third Week", "You finished the third week of the 28-day challenge"},
		"es-ES": {"Tercera semana", "Terminaste la tercera semana del reto de 28 días"},
		"fr-FR": {"Troisième semaine", "Vous avez terminé la troisième semaine du défi de 28 jours"},
	},
	challenge.Achievement28DaysCompleted: {
		"pt-BR": {"Desafio de 28 dias concluído", "Você completou todos os dias do desafio de 28 dias"},
		"en-US": {"28-Day Challenge Complete", "You completed every day of the 28-day challenge"},
		"es-ES": {"Reto de 28 días completado", "Completaste todos los días del reto de 28 días"},
		"fr-FR": {"Défi de 28 jours terminé", "Vous avez terminé tous les jours du défi de 28 jours"},
	},
}

// SeedDefaults inserts the threshold badges for every supported language.
// Existing rows, including admin edits, are left alone.
func (s *AchievementService) SeedDefaults(ctx context.Context) error {
	query := `
		INSERT OR IGNORE INTO achievements (id, title, description, image_url, language, created_at)
		VALUES (?, ?, ?, '', ?, ?)
	`
	now := s.now().UTC()

	for _, th := range challenge.Thresholds() {
		texts := defaultBadges[th.AchievementID]
		for _, lang := range s.languages.Supported() {
			text, ok := texts[lang]
			if !ok {
				text = texts["en-US"]
			}
			if _, err := s.db.ExecContext(ctx, query, th.AchievementID, text.Title, text.Description, lang, now); err != nil {
				return upstream("failed to seed achievement "+th.AchievementID, err)
			}
		}
	}
	return nil
}
