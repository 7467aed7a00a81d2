package models

import "time"

type ClassRecord struct {
	ID            string    `json:"id" db:"id"`
	Title         string    `json:"title" db:"title" validate:"required,max=200"`
	Day           int       `json:"day" db:"day" validate:"required,min=1,max=28"`
	ChallengeType string    `json:"challenge_type" db:"challenge_type" validate:"required,oneof=7days 28days"`
	VideoURL      string    `json:"video_url" db:"video_url" validate:"required,url"`
	Description   *string   `json:"description,omitempty" db:"description"`
	Language      string    `json:"language" db:"language" validate:"required"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type ClassCompletion struct {
	UserID      string    `json:"user_id" db:"user_id"`
	ClassID     string    `json:"class_id" db:"class_id"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"`
}

// ClassView is a class as seen by one learner.
type ClassView struct {
	ClassRecord
	Completed bool `json:"completed"`
}

type ClassFilter struct {
	Language      string
	ChallengeType string
}
