package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrack(t *testing.T) {
	tr, err := ParseTrack("7days")
	require.NoError(t, err)
	assert.Equal(t, SevenDays, tr)

	tr, err = ParseTrack("28days")
	require.NoError(t, err)
	assert.Equal(t, TwentyEightDays, tr)

	_, err = ParseTrack("14days")
	assert.Error(t, err)
}

func TestTotalDaysAndFraction(t *testing.T) {
	assert.Equal(t, 7, SevenDays.TotalDays())
	assert.Equal(t, 28, TwentyEightDays.TotalDays())
	assert.Equal(t, 0, Track("x").TotalDays())

	assert.Equal(t, 1.0, SevenDays.Fraction(7))
	assert.InDelta(t, 3.0/7.0, SevenDays.Fraction(3), 1e-12)
	assert.Equal(t, 0.25, TwentyEightDays.Fraction(7))
	assert.Equal(t, 0.0, Track("x").Fraction(3))
}

func TestValidDay(t *testing.T) {
	assert.True(t, SevenDays.ValidDay(1))
	assert.True(t, SevenDays.ValidDay(7))
	assert.False(t, SevenDays.ValidDay(8))
	assert.False(t, SevenDays.ValidDay(0))
	assert.True(t, TwentyEightDays.ValidDay(28))
	assert.False(t, TwentyEightDays.ValidDay(29))
}

func TestAchievementsFor(t *testing.T) {
	cases := []struct {
		track Track
		day   int
		want  []string
	}{
		{SevenDays, 7, []string{Achievement7DaysCompleted}},
		{SevenDays, 6, nil},
		{SevenDays, 14, nil},
		{TwentyEightDays, 7, []string{Achievement28DaysWeek1}},
		{TwentyEightDays, 14, []string{Achievement28DaysWeek2}},
		{TwentyEightDays, 15, nil},
		{TwentyEightDays, 21, []string{Achievement28DaysWeek3}},
		{TwentyEightDays, 28, []string{Achievement28DaysCompleted}},
		{TwentyEightDays, 1, nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AchievementsFor(tc.track, tc.day), "%s day %d", tc.track, tc.day)
	}
}

func TestThresholdsIsACopy(t *testing.T) {
	th := Thresholds()
	require.Len(t, th, 5)
	th[0].AchievementID = "mutated"
	assert.Equal(t, []string{Achievement7DaysCompleted}, AchievementsFor(SevenDays, 7))
}

func TestProgressColumn(t *testing.T) {
	assert.Equal(t, "challenge_7days_progress", SevenDays.ProgressColumn())
	assert.Equal(t, "challenge_28days_progress", TwentyEightDays.ProgressColumn())
	assert.Empty(t, Track("nope").ProgressColumn())
}
