package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/challenge"
	"github.com/tahcohcat/fitchallenge-web/internal/database"
	"github.com/tahcohcat/fitchallenge-web/internal/i18n"
	"github.com/tahcohcat/fitchallenge-web/internal/models"
)

// CatalogService owns classes and materials. Learners only read; every admin
// mutation goes through the same validation.
type CatalogService struct {
	db        *database.DB
	languages *i18n.Resolver
}

func NewCatalogService(db *database.DB, languages *i18n.Resolver) *CatalogService {
	return &CatalogService{db: db, languages: languages}
}

const classColumns = `id, title, day, challenge_type, video_url, description, language, created_at, updated_at`

// ResolveClass returns the single class for (track, day, language). There is
// no fallback to another language.
func (s *CatalogService) ResolveClass(ctx context.Context, track challenge.Track, day int, language string) (*models.ClassRecord, error) {
	var class models.ClassRecord
	query := `SELECT ` + classColumns + ` FROM classes WHERE challenge_type = ? AND day = ? AND language = ?`

	err := s.db.GetContext(ctx, &class, query, string(track), day, language)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(fmt.Sprintf("no class for %s day %d in %s", track, day, language))
	} else if err != nil {
		return nil, upstream("failed to resolve class", err)
	}

	return &class, nil
}

func (s *CatalogService) GetClass(ctx context.Context, id string) (*models.ClassRecord, error) {
	var class models.ClassRecord
	err := s.db.GetContext(ctx, &class, `SELECT `+classColumns+` FROM classes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("class not found")
	} else if err != nil {
		return nil, upstream("failed to get class", err)
	}
	return &class, nil
}

// ListClasses returns classes ordered by challenge type then day. Empty
// filter fields match everything.
func (s *CatalogService) ListClasses(ctx context.Context, filter models.ClassFilter) ([]models.ClassRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.Language != "" {
		where = append(where, "language = ?")
		args = append(args, filter.Language)
	}
	if filter.ChallengeType != "" {
		where = append(where, "challenge_type = ?")
		args = append(args, filter.ChallengeType)
	}

	query := `SELECT ` + classColumns + ` FROM classes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY challenge_type ASC, day ASC, language ASC"

	classes := []models.ClassRecord{}
	if err := s.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, upstream("failed to list classes", err)
	}
	return classes, nil
}

func (s *CatalogService) validateClass(class *models.ClassRecord) error {
	if err := validateStruct(class); err != nil {
		return err
	}
	track := challenge.Track(class.ChallengeType)
	if !track.ValidDay(class.Day) {
		return apperr.Validationf("day must be between 1 and %d for %s", track.TotalDays(), track)
	}
	code, ok := s.languages.Normalize(class.Language)
	if !ok {
		return apperr.Validationf("unsupported language %q", class.Language)
	}
	class.Language = code
	return nil
}

func (s *CatalogService) CreateClass(ctx context.Context, class *models.ClassRecord) error {
	if err := s.validateClass(class); err != nil {
		return err
	}

	now := time.Now().UTC()
	class.ID = uuid.NewString()
	class.CreatedAt = now
	class.UpdatedAt = now

	query := `
		INSERT INTO classes (id, title, day, challenge_type, video_url, description, language, created_at, updated_at)
		VALUES (:id, :title, :day, :challenge_type, :video_url, :description, :language, :created_at, :updated_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, class); err != nil {
		if isUniqueViolation(err) {
			return duplicateClass(class)
		}
		return upstream("failed to create class", err)
	}
	return nil
}

func (s *CatalogService) UpdateClass(ctx context.Context, id string, class *models.ClassRecord) error {
	if err := s.validateClass(class); err != nil {
		return err
	}

	class.ID = id
	class.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE classes
		SET title = :title, day = :day, challenge_type = :challenge_type, video_url = :video_url,
			description = :description, language = :language, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := s.db.NamedExecContext(ctx, query, class)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateClass(class)
		}
		return upstream("failed to update class", err)
	}
	if err := requireAffected(res, "class not found"); err != nil {
		return err
	}

	updated, err := s.GetClass(ctx, id)
	if err != nil {
		return err
	}
	*class = *updated
	return nil
}

func (s *CatalogService) DeleteClass(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM classes WHERE id = ?`, id)
	if err != nil {
		return upstream("failed to delete class", err)
	}
	return requireAffected(res, "class not found")
}

func duplicateClass(class *models.ClassRecord) error {
	return apperr.Validationf("a class for %s day %d in %s already exists", class.ChallengeType, class.Day, class.Language)
}

const materialColumns = `id, title, description, pdf_url, category, language, created_at, updated_at`

// ListMaterials returns materials ordered by category then title.
func (s *CatalogService) ListMaterials(ctx context.Context, filter models.MaterialFilter) ([]models.MaterialRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.Language != "" {
		where = append(where, "language = ?")
		args = append(args, filter.Language)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}

	query := `SELECT ` + materialColumns + ` FROM materials`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY category ASC, title ASC"

	materials := []models.MaterialRecord{}
	if err := s.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, upstream("failed to list materials", err)
	}
	return materials, nil
}

// ListCategories returns the distinct categories in use for a language, or
// across all languages when language is empty.
func (s *CatalogService) ListCategories(ctx context.Context, language string) ([]string, error) {
	query := `SELECT DISTINCT category FROM materials`
	var args []any
	if language != "" {
		query += ` WHERE language = ?`
		args = append(args, language)
	}
	query += ` ORDER BY category ASC`

	categories := []string{}
	if err := s.db.SelectContext(ctx, &categories, query, args...); err != nil {
		return nil, upstream("failed to list categories", err)
	}
	return categories, nil
}

func (s *CatalogService) GetMaterial(ctx context.Context, id string) (*models.MaterialRecord, error) {
	var material models.MaterialRecord
	err := s.db.GetContext(ctx, &material, `SELECT `+materialColumns+` FROM materials WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("material not found")
	} else if err != nil {
		return nil, upstream("failed to get material", err)
	}
	return &material, nil
}

func (s *CatalogService) validateMaterial(material *models.MaterialRecord) error {
	if err := validateStruct(material); err != nil {
		return err
	}
	code, ok := s.languages.Normalize(material.Language)
	if !ok {
		return apperr.Validationf("unsupported language %q", material.Language)
	}
	material.Language = code
	return nil
}

func (s *CatalogService) CreateMaterial(ctx context.Context, material *models.MaterialRecord) error {
	if err := s.validateMaterial(material); err != nil {
		return err
	}

	now := time.Now().UTC()
	material.ID = uuid.NewString()
	material.CreatedAt = now
	material.UpdatedAt = now

	query := `
		INSERT INTO materials (id, title, description, pdf_url, category, language, created_at, updated_at)
		VALUES (:id, :title, :description, :pdf_url, :category, :language, :created_at, :updated_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, material); err != nil {
		return upstream("failed to create material", err)
	}
	return nil
}

func (s *CatalogService) UpdateMaterial(ctx context.Context, id string, material *models.MaterialRecord) error {
	if err := s.validateMaterial(material); err != nil {
		return err
	}

	material.ID = id
	material.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE materials
		SET title = :title, description = :description, pdf_url = :pdf_url, category = :category,
			language = :language, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := s.db.NamedExecContext(ctx, query, material)
	if err != nil {
		return upstream("failed to update material", err)
	}
	if err := requireAffected(res, "material not found"); err != nil {
		return err
	}

	updated, err := s.GetMaterial(ctx, id)
	if err != nil {
		return err
	}
	*material = *updated
	return nil
}

func (s *CatalogService) DeleteMaterial(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id)
	if err != nil {
		return upstream("failed to delete material", err)
	}
	return requireAffected(res, "material not found")
}

// GroupMaterials groups an already ordered list by category, keeping the
// order of first appearance.
func GroupMaterials(materials []models.MaterialRecord) []models.MaterialGroup {
	groups := []models.MaterialGroup{}
	index := make(map[string]int)
	for _, m := range materials {
		i, ok := index[m.Category]
		if !ok {
			i = len(groups)
			index[m.Category] = i
			groups = append(groups, models.MaterialGroup{Category: m.Category})
		}
		groups[i].Materials = append(groups[i].Materials, m)
	}
	return groups
}

func requireAffected(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return upstream("failed to read affected rows", err)
	}
	if n == 0 {
		return apperr.NotFound(notFound)
	}
	return nil
}
