package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitonduty/healthdb/pkg/types"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	end := time.Date(2025, 7, 15, 12, 30, 0, 0, time.UTC)

	first := newGenerator("mbishop").days(14, end, 5)
	second := newGenerator("mbishop").days(14, end, 5)

	assert.Equal(t, first, second, "same username must yield identical data")

	other := newGenerator("kreyes").days(14, end, 5)
	assert.NotEqual(t, first, other, "different usernames must diverge")
}

func TestGeneratorDayRange(t *testing.T) {
	end := time.Date(2025, 7, 15, 23, 59, 0, 0, time.UTC)

	days := newGenerator("mbishop").days(30, end, 5)
	require.Len(t, days, 30)

	// Consecutive calendar days ending on the end date, midnight UTC.
	last := days[len(days)-1].Metric.Date
	assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), last)
	for i := 1; i < len(days); i++ {
		prev := days[i-1].Metric.Date
		assert.Equal(t, prev.AddDate(0, 0, 1), days[i].Metric.Date)
	}
}

func TestGeneratorZonesSumToExactlyOneHundred(t *testing.T) {
	end := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	for _, username := range []string{"mbishop", "kreyes", "jpark", "asolis"} {
		for _, day := range newGenerator(username).days(60, end, 5) {
			assert.InDelta(t, 100.0, day.Zones.PercentSum(), 1e-9,
				"user %s date %s", username, day.Metric.Date.Format(types.DateFormat))
		}
	}
}

func TestGeneratorMetricBounds(t *testing.T) {
	end := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	for _, day := range newGenerator("mbishop").days(60, end, 5) {
		m := day.Metric
		assert.GreaterOrEqual(t, m.RestingHR, 40)
		assert.LessOrEqual(t, m.RestingHR, 100)
		assert.Greater(t, m.MaxHR, m.RestingHR)
		assert.GreaterOrEqual(t, m.SleepHours, 0.0)
		assert.LessOrEqual(t, m.SleepHours, 14.0)
		assert.GreaterOrEqual(t, m.StepCount, 0)

		if q := day.Questionnaire; q != nil {
			assert.GreaterOrEqual(t, q.PerceivedSleepQuality, 0)
			assert.LessOrEqual(t, q.PerceivedSleepQuality, 100)
			assert.GreaterOrEqual(t, q.FatigueLevel, 0)
			assert.LessOrEqual(t, q.FatigueLevel, 100)
			assert.GreaterOrEqual(t, q.MotivationLevel, 0)
			assert.LessOrEqual(t, q.MotivationLevel, 100)
		}
	}
}

func TestGeneratorDataVolume(t *testing.T) {
	end := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	for _, day := range newGenerator("mbishop").days(10, end, 5) {
		assert.Equal(t, 2400, day.Metric.DataVolume,
			"full day carries base, zones, movement, and anomaly allowance")
	}
}

func TestGeneratorAnomalySlots(t *testing.T) {
	end := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		interval int
		perDay   int
	}{
		{name: "five minute slots", interval: 5, perDay: 288},
		{name: "hourly slots", interval: 60, perDay: 24},
		{name: "disabled", interval: 0, perDay: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := newGenerator("mbishop").days(3, end, tt.interval)
			for _, day := range days {
				require.Len(t, day.Anomalies, tt.perDay)
				for _, a := range day.Anomalies {
					assert.GreaterOrEqual(t, a.TimeSlot, 0)
					assert.Less(t, a.TimeSlot, 1440)
					assert.GreaterOrEqual(t, a.Score, 0.0)
					assert.LessOrEqual(t, a.Score, 1.0)
				}
			}
		})
	}
}
