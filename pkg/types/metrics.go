package types

import "time"

// Byte accounting for a day of participant data. data_volume on a
// health_metrics row must equal the sum of the contributing record sizes,
// matching the backfill formula the schema migrations use.
const (
	MetricRecordBytes     = 40   // base health_metrics row
	ZoneRecordBytes       = 40   // heart_rate_zones child row
	MovementRecordBytes   = 16   // movement_speeds child row
	AnomalyAllowanceBytes = 2304 // daily anomaly slots, fixed allowance
)

// DataVolume computes the data_volume value for a health_metrics row given
// which child records exist alongside it.
func DataVolume(hasZones, hasMovement bool) int {
	volume := MetricRecordBytes + AnomalyAllowanceBytes
	if hasZones {
		volume += ZoneRecordBytes
	}
	if hasMovement {
		volume += MovementRecordBytes
	}
	return volume
}

// HealthMetric is a row in the health_metrics table, one per (user, date).
type HealthMetric struct {
	ID         int64
	UserID     int64
	Date       time.Time
	RestingHR  int
	MaxHR      int
	SleepHours float64
	HRVRest    int
	StepCount  int
	DataVolume int
}

// HeartRateZones is the one-to-one child of a HealthMetric carrying the
// time-in-zone distribution. The five percentages are stored with two
// decimal places and the schema enforces their sum lies in [99.0, 101.0];
// generated rows always sum to exactly 100.00.
type HeartRateZones struct {
	HealthMetricID   int64
	VeryLightPercent float64
	LightPercent     float64
	ModeratePercent  float64
	IntensePercent   float64
	BeastModePercent float64
}

// PercentSum returns the sum of the five zone percentages.
func (z HeartRateZones) PercentSum() float64 {
	return z.VeryLightPercent + z.LightPercent + z.ModeratePercent +
		z.IntensePercent + z.BeastModePercent
}

// MovementSpeeds is the one-to-one child of a HealthMetric carrying minutes
// spent at each movement speed.
type MovementSpeeds struct {
	HealthMetricID     int64
	WalkingMinutes     int
	WalkingFastMinutes int
	JoggingMinutes     int
	RunningMinutes     int
}

// AnomalyScore is a row in the anomaly_scores table, one per
// (user, date, time_slot). TimeSlot is the minute of day in [0, 1439].
type AnomalyScore struct {
	UserID   int64
	Date     time.Time
	TimeSlot int
	Score    float64
	Label    string // Empty for unlabeled scores.
}

// QuestionnaireEntry is a row in the questionnaire_data table, one per
// (user, date). The three values are clamped to [0, 100].
type QuestionnaireEntry struct {
	UserID                int64
	Date                  time.Time
	PerceivedSleepQuality int
	FatigueLevel          int
	MotivationLevel       int
}
