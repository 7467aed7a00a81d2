package models

import (
	"time"

	"github.com/tahcohcat/fitchallenge-web/internal/challenge"
)

// ChallengeProgress holds one fraction per track; both only ever increase.
type ChallengeProgress struct {
	UserID                  string    `json:"user_id" db:"user_id"`
	Challenge7DaysProgress  float64   `json:"challenge_7days_progress" db:"challenge_7days_progress"`
	Challenge28DaysProgress float64   `json:"challenge_28days_progress" db:"challenge_28days_progress"`
	UpdatedAt               time.Time `json:"updated_at" db:"updated_at"`
}

// CompletionResult is returned by a day completion.
type CompletionResult struct {
	Completed        bool     `json:"completed"`
	AlreadyCompleted bool     `json:"already_completed"`
	NewProgress      float64  `json:"new_progress"`
	Unlocked         []string `json:"unlocked,omitempty"`
	// Warnings lists non-fatal failures, e.g. an achievement that could not
	// be unlocked. The completion itself is already durable.
	Warnings []string `json:"warnings,omitempty"`
}

// For returns the stored fraction of track, 0 for an unknown track.
func (p ChallengeProgress) For(track challenge.Track) float64 {
	switch track {
	case challenge.SevenDays:
		return p.Challenge7DaysProgress
	case challenge.TwentyEightDays:
		return p.Challenge28DaysProgress
	}
	return 0
}
