// Package challenge holds the fixed rules of the two challenge tracks: how
// many days each has, how a completed day maps to a progress fraction, and
// which day thresholds unlock which achievements.
package challenge

import "fmt"

type Track string

const (
	SevenDays       Track = "7days"
	TwentyEightDays Track = "28days"
)

// Achievement ids unlocked by the threshold table.
const (
	Achievement7DaysCompleted  = "challenge_7days_completed"
	Achievement28DaysWeek1     = "challenge_28days_week1"
	Achievement28DaysWeek2     = "challenge_28days_week2"
	Achievement28DaysWeek3     = "challenge_28days_week3"
	Achievement28DaysCompleted = "challenge_28days_completed"
)

var Tracks = []Track{SevenDays, TwentyEightDays}

func ParseTrack(s string) (Track, error) {
	switch Track(s) {
	case SevenDays, TwentyEightDays:
		return Track(s), nil
	}
	return "", fmt.Errorf("unknown challenge type %q", s)
}

func (t Track) Valid() bool {
	return t == SevenDays || t == TwentyEightDays
}

// TotalDays returns 7 or 28, or 0 for an unknown track.
func (t Track) TotalDays() int {
	switch t {
	case SevenDays:
		return 7
	case TwentyEightDays:
		return 28
	}
	return 0
}

// ValidDay reports whether day is inside the track, 1-based.
func (t Track) ValidDay(day int) bool {
	return day >= 1 && day <= t.TotalDays()
}

// Fraction is day/TotalDays; it is always computed from the day just
// completed, never from a count of completions.
func (t Track) Fraction(day int) float64 {
	total := t.TotalDays()
	if total == 0 {
		return 0
	}
	return float64(day) / float64(total)
}

// ProgressColumn is the user_progress column storing this track's fraction.
func (t Track) ProgressColumn() string {
	switch t {
	case SevenDays:
		return "challenge_7days_progress"
	case TwentyEightDays:
		return "challenge_28days_progress"
	}
	return ""
}

type Threshold struct {
	Track         Track
	Day           int
	AchievementID string
}

var thresholds = []Threshold{
	{SevenDays, 7, Achievement7DaysCompleted},
	{TwentyEightDays, 7, Achievement28DaysWeek1},
	{TwentyEightDays, 14, Achievement28DaysWeek2},
	{TwentyEightDays, 21, Achievement28DaysWeek3},
	{TwentyEightDays, 28, Achievement28DaysCompleted},
}

// Thresholds returns a copy of the unlock table.
func Thresholds() []Threshold {
	out := make([]Threshold, len(thresholds))
	copy(out, thresholds)
	return out
}

// AchievementsFor returns the achievement ids unlocked by completing day of
// track. Most days unlock nothing.
func AchievementsFor(track Track, day int) []string {
	var ids []string
	for _, th := range thresholds {
		if th.Track == track && th.Day == day {
			ids = append(ids, th.AchievementID)
		}
	}
	return ids
}
