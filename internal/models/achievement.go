package models

import (
	"time"
)

// AchievementDefinition is keyed by (ID, Language): the same badge id exists
// once per language with translated text.
type AchievementDefinition struct {
	ID          string    `json:"id" db:"id" validate:"required,max=100"`
	Title       string    `json:"title" db:"title" validate:"required,max=200"`
	Description string    `json:"description" db:"description"`
	ImageURL    string    `json:"image_url" db:"image_url" validate:"omitempty,url"`
	Language    string    `json:"language" db:"language" validate:"required"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type AchievementUnlock struct {
	UserID        string    `json:"user_id" db:"user_id"`
	AchievementID string    `json:"achievement_id" db:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at" db:"unlocked_at"`
}

// AchievementStatus is one row of a user's badge board.
type AchievementStatus struct {
	AchievementDefinition
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}
