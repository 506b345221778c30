package seed

import (
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/fitonduty/healthdb/pkg/types"
)

// generator produces synthetic historical data for one participant. The
// random source is seeded from the username, so re-running the loader (or
// re-provisioning a fresh database) yields identical data for the same
// account.
type generator struct {
	rng *rand.Rand

	// Per-participant baselines drawn once at construction.
	restingHRBase int
	maxHRBase     int
	sleepBase     float64
	hrvBase       int
	stepBase      int
}

// newGenerator seeds a generator from the participant's username.
func newGenerator(username string) *generator {
	h := fnv.New64a()
	h.Write([]byte(username))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	return &generator{
		rng:           rng,
		restingHRBase: 55 + rng.Intn(16),
		maxHRBase:     140 + rng.Intn(41),
		sleepBase:     6.5 + rng.Float64()*2.0,
		hrvBase:       40 + rng.Intn(41),
		stepBase:      6000 + rng.Intn(6001),
	}
}

// dayData is one synthesized day for a participant.
type dayData struct {
	Metric        types.HealthMetric
	Zones         types.HeartRateZones
	Movement      types.MovementSpeeds
	Anomalies     []types.AnomalyScore
	Questionnaire *types.QuestionnaireEntry // nil on skipped days
}

// zoneBase is the mean time-in-zone distribution, in hundredths of a
// percent (30%, 25%, 20%, 15%, 10%).
var zoneBase = [5]int{3000, 2500, 2000, 1500, 1000}

// anomalyLabels are attached to occasional spike slots.
var anomalyLabels = []string{"Activity spike", "Sleep disruption", "Stress event"}

// days synthesizes count consecutive days ending at end. Anomaly slots are
// spaced intervalMinutes apart; intervalMinutes <= 0 skips anomaly data.
func (g *generator) days(count int, end time.Time, intervalMinutes int) []dayData {
	end = truncateDay(end)
	out := make([]dayData, 0, count)

	for i := count - 1; i >= 0; i-- {
		date := end.AddDate(0, 0, -i)
		out = append(out, g.day(date, intervalMinutes))
	}
	return out
}

// day synthesizes a single date.
func (g *generator) day(date time.Time, intervalMinutes int) dayData {
	weekendFactor := 1.0
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		weekendFactor = 0.8
	}

	zones := g.zones()
	movement := g.movement()

	metric := types.HealthMetric{
		Date:       date,
		RestingHR:  g.restingHRBase + g.rng.Intn(12) - 5,
		MaxHR:      g.maxHRBase + g.rng.Intn(22) - 10,
		SleepHours: clampFloat(g.sleepBase+g.rng.NormFloat64()*0.7, 0, 14),
		HRVRest:    maxInt(10, g.hrvBase+g.rng.Intn(32)-15),
		StepCount:  maxInt(0, int(float64(g.stepBase)*weekendFactor)+g.rng.Intn(5001)-2000),
		DataVolume: types.DataVolume(true, true),
	}

	day := dayData{
		Metric:   metric,
		Zones:    zones,
		Movement: movement,
	}

	if intervalMinutes > 0 {
		day.Anomalies = g.anomalies(date, intervalMinutes)
	}
	// Participants skip the questionnaire roughly 15% of days.
	if g.rng.Float64() >= 0.15 {
		day.Questionnaire = g.questionnaire(date)
	}

	return day
}

// zones generates a heart-rate-zone distribution whose five percentages
// sum to exactly 100.00. Work happens in hundredths of a percent: the
// first four buckets are drawn and rounded, the fifth takes the exact
// remainder, so the schema's [99.0, 101.0] tolerance is met with margin
// rather than left to floating-point chance.
func (g *generator) zones() types.HeartRateZones {
	var hundredths [5]int
	sum := 0
	for i := 0; i < 4; i++ {
		jitter := int(g.rng.NormFloat64() * 300)
		v := zoneBase[i] + jitter
		if v < 100 {
			v = 100
		}
		hundredths[i] = v
		sum += v
	}
	remainder := 10000 - sum
	if remainder < 100 {
		// Heavy jitter ate the last bucket; rescale the first four to
		// leave it at least 1%.
		scale := float64(10000-100) / float64(sum)
		sum = 0
		for i := 0; i < 4; i++ {
			hundredths[i] = int(float64(hundredths[i]) * scale)
			sum += hundredths[i]
		}
		remainder = 10000 - sum
	}
	hundredths[4] = remainder

	return types.HeartRateZones{
		VeryLightPercent: float64(hundredths[0]) / 100,
		LightPercent:     float64(hundredths[1]) / 100,
		ModeratePercent:  float64(hundredths[2]) / 100,
		IntensePercent:   float64(hundredths[3]) / 100,
		BeastModePercent: float64(hundredths[4]) / 100,
	}
}

// movement splits 30 to 180 active minutes across the four speeds.
func (g *generator) movement() types.MovementSpeeds {
	total := 30 + g.rng.Intn(151)

	walking := 0.4 + g.rng.Float64()*0.3
	walkingFast := 0.15 + g.rng.Float64()*0.2
	jogging := 0.05 + g.rng.Float64()*0.2
	running := clampFloat(1-walking-walkingFast-jogging, 0.01, 1)

	norm := walking + walkingFast + jogging + running
	return types.MovementSpeeds{
		WalkingMinutes:     int(float64(total) * walking / norm),
		WalkingFastMinutes: int(float64(total) * walkingFast / norm),
		JoggingMinutes:     int(float64(total) * jogging / norm),
		RunningMinutes:     int(float64(total) * running / norm),
	}
}

// anomalies generates one score per interval slot across the day, with a
// mild time-of-day shape and an occasional labeled spike.
func (g *generator) anomalies(date time.Time, intervalMinutes int) []types.AnomalyScore {
	slots := (24 * 60) / intervalMinutes
	baseLevel := 0.1 + g.rng.Float64()*0.2
	variability := 0.05 + g.rng.Float64()*0.1

	// One spike slot roughly every third day.
	spikeSlot := -1
	if g.rng.Float64() < 0.33 {
		spikeSlot = g.rng.Intn(slots)
	}

	scores := make([]types.AnomalyScore, 0, slots)
	for slot := 0; slot < slots; slot++ {
		minute := slot * intervalMinutes
		score := clampFloat(baseLevel*timeOfDayFactor(minute/60)+g.rng.NormFloat64()*variability, 0, 1)

		label := ""
		if slot == spikeSlot {
			score = clampFloat(score+0.3+g.rng.Float64()*0.4, 0, 1)
			label = anomalyLabels[g.rng.Intn(len(anomalyLabels))]
		}

		scores = append(scores, types.AnomalyScore{
			Date:     date,
			TimeSlot: minute,
			Score:    float64(int(score*10000)) / 10000,
			Label:    label,
		})
	}
	return scores
}

// questionnaire generates one day's answers, clamped to [0, 100].
func (g *generator) questionnaire(date time.Time) *types.QuestionnaireEntry {
	return &types.QuestionnaireEntry{
		Date:                  date,
		PerceivedSleepQuality: clampInt(70+int(g.rng.NormFloat64()*15), 0, 100),
		FatigueLevel:          clampInt(45+int(g.rng.NormFloat64()*20), 0, 100),
		MotivationLevel:       clampInt(70+int(g.rng.NormFloat64()*15), 0, 100),
	}
}

// timeOfDayFactor shapes anomaly baselines: slightly elevated during
// waking hours.
func timeOfDayFactor(hour int) float64 {
	switch {
	case hour >= 6 && hour < 12:
		return 1.1
	case hour >= 12 && hour < 18:
		return 1.0
	case hour >= 18 && hour < 22:
		return 1.05
	default:
		return 0.9
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
