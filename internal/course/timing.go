package course

import (
	"fmt"
	"math"
)

const (
	minExerciseMinutes       = 5.0
	maxMainExerciseMinutes   = 20.0
	maxWarmupExerciseMinutes = 10.0
	minMainMinutes           = 30

	minSets = 1
	maxSets = 10
	minReps = 5
	maxReps = 50
)

// Budget is the per-section minute target for a course length.
type Budget struct {
	Warmup   int `json:"warmup"`
	Main     int `json:"main"`
	Cooldown int `json:"cooldown"`
}

var sectionBudgets = map[int]struct{ warmup, cooldown int }{
	60:  {warmup: 10, cooldown: 10},
	90:  {warmup: 15, cooldown: 15},
	120: {warmup: 15, cooldown: 15},
}

// sectionDefaults are the sets/reps used when a template has no own values.
var sectionDefaults = map[Section]struct{ sets, reps int }{
	SectionWarmup:   {sets: 1, reps: 10},
	SectionMain:     {sets: 2, reps: 12},
	SectionCooldown: {sets: 1, reps: 10},
}

// ValidDuration reports whether minutes is a supported course length.
func ValidDuration(minutes int) bool {
	_, ok := sectionBudgets[minutes]
	return ok
}

// SectionBudget returns the section targets for a course length.
func SectionBudget(totalMinutes int) (Budget, error) {
	b, ok := sectionBudgets[totalMinutes]
	if !ok {
		return Budget{}, fmt.Errorf("%w: total duration %d is not one of 60, 90, 120", ErrInvalidRequest, totalMinutes)
	}
	return Budget{
		Warmup:   b.warmup,
		Main:     max(totalMinutes-b.warmup-b.cooldown, minMainMinutes),
		Cooldown: b.cooldown,
	}, nil
}

// Distribute gives every exercise its duration, sets and reps and returns
// warmup, main and cooldown concatenated in section order. All exercises of
// one section share the same duration.
func Distribute(sections Sections, totalMinutes int) ([]Exercise, error) {
	budget, err := SectionBudget(totalMinutes)
	if err != nil {
		return nil, err
	}

	out := make([]Exercise, 0, len(sections.Warmup)+len(sections.Main)+len(sections.Cooldown))
	out = appendTimed(out, sections.Warmup, SectionWarmup, budget.Warmup, maxWarmupExerciseMinutes)
	out = appendTimed(out, sections.Main, SectionMain, budget.Main, maxMainExerciseMinutes)
	out = appendTimed(out, sections.Cooldown, SectionCooldown, budget.Cooldown, maxWarmupExerciseMinutes)
	return out, nil
}

func appendTimed(out, exercises []Exercise, section Section, sectionMinutes int, maxMinutes float64) []Exercise {
	if len(exercises) == 0 {
		return out
	}
	perExercise := clampFloat(float64(sectionMinutes)/float64(len(exercises)), minExerciseMinutes, maxMinutes)
	perExercise = math.Round(perExercise*10) / 10

	for _, ex := range exercises {
		ex = ex.clone()
		ex.Section = section
		ex.Sets, ex.Reps = rescale(ex, section, perExercise)
		ex.DurationMinutes = perExercise
		out = append(out, ex)
	}
	return out
}

// rescale scales the template's sets and reps by the change in duration, or
// falls back to the section default when the template lacks any of them.
func rescale(ex Exercise, section Section, newDuration float64) (sets, reps int) {
	if ex.DurationMinutes > 0 && ex.Sets > 0 && ex.Reps > 0 {
		ratio := newDuration / ex.DurationMinutes
		sets = int(math.Round(float64(ex.Sets) * ratio))
		reps = int(math.Round(float64(ex.Reps) * ratio))
	} else {
		d := sectionDefaults[section]
		sets, reps = d.sets, d.reps
	}
	return clampInt(sets, minSets, maxSets), clampInt(reps, minReps, maxReps)
}
