package course

import "fmt"

// DifficultyLevel is one of the three rehabilitation stages.
type DifficultyLevel string

const (
	LevelPrinciple  DifficultyLevel = "principle"
	LevelAdaptation DifficultyLevel = "adaptation"
	LevelMastery    DifficultyLevel = "mastery"
)

// defaultDifficultyScore stands in for exercises without a score.
const defaultDifficultyScore = 5

// ScoreRange is an inclusive difficulty score window.
type ScoreRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether score lies within r.
func (r ScoreRange) Contains(score int) bool {
	return score >= r.Min && score <= r.Max
}

// LevelRatio is the target mix of stages in percent.
type LevelRatio struct {
	Principle  int `json:"principle"`
	Adaptation int `json:"adaptation"`
	Mastery    int `json:"mastery"`
}

// DifficultyAdjustment is the allowed difficulty for one user.
type DifficultyAdjustment struct {
	BaseLevel    DifficultyLevel `json:"baseLevel"`
	TargetLevel  DifficultyLevel `json:"targetLevel"`
	AllowedRange ScoreRange      `json:"allowedRange"`
	Ratio        LevelRatio      `json:"ratio"`
	Reason       string          `json:"reason,omitempty"`
}

var experienceBaseLevel = map[ExperienceLevel]DifficultyLevel{
	ExperienceRarely:      LevelPrinciple,
	ExperienceWeekly1to2:  LevelAdaptation,
	ExperienceWeekly3Plus: LevelMastery,
}

var painAllowedRange = map[int]ScoreRange{
	5: {Min: 1, Max: 5},
	4: {Min: 1, Max: 7},
}

var levelRange = map[DifficultyLevel]ScoreRange{
	LevelPrinciple:  {Min: 1, Max: 4},
	LevelAdaptation: {Min: 1, Max: 8},
	LevelMastery:    {Min: 4, Max: 10},
}

var painRatio = map[int]LevelRatio{
	5: {Principle: 100},
	4: {Principle: 50, Adaptation: 50},
}

var levelRatio = map[DifficultyLevel]LevelRatio{
	LevelPrinciple:  {Principle: 70, Adaptation: 30},
	LevelAdaptation: {Principle: 20, Adaptation: 60, Mastery: 20},
	LevelMastery:    {Principle: 10, Adaptation: 30, Mastery: 60},
}

// ValidExperience reports whether level is a known experience level.
func ValidExperience(level ExperienceLevel) bool {
	_, ok := experienceBaseLevel[level]
	return ok
}

// AdjustDifficulty derives the allowed difficulty window from experience and
// pain. Higher pain or less experience moves the window toward easier work.
func AdjustDifficulty(experience ExperienceLevel, painLevel int) (DifficultyAdjustment, error) {
	base, ok := experienceBaseLevel[experience]
	if !ok {
		return DifficultyAdjustment{}, fmt.Errorf("%w: unknown experience level %q", ErrInvalidRequest, experience)
	}
	if painLevel < MinPainLevel || painLevel > MaxPainLevel {
		return DifficultyAdjustment{}, fmt.Errorf("%w: pain level %d out of range", ErrInvalidRequest, painLevel)
	}

	target := base
	var reason string
	switch {
	case painLevel == 5:
		target = LevelPrinciple
		reason = "Pain is severe, so the course is limited to principle-stage exercises for safety."
	case painLevel == 4 && base == LevelMastery:
		target = LevelAdaptation
		reason = "Pain is high, so the course was lowered from mastery to adaptation stage."
	}

	allowed, narrowedByPain := painAllowedRange[painLevel]
	if !narrowedByPain {
		allowed = levelRange[target]
	}

	ratio, ok := painRatio[painLevel]
	if !ok {
		ratio = levelRatio[target]
	}

	return DifficultyAdjustment{
		BaseLevel:    base,
		TargetLevel:  target,
		AllowedRange: allowed,
		Ratio:        ratio,
		Reason:       reason,
	}, nil
}

// FilterByDifficulty keeps candidates whose difficulty score falls inside
// adj.AllowedRange. The returned warning is empty unless something was
// removed.
func FilterByDifficulty(candidates []Exercise, adj DifficultyAdjustment) ([]Exercise, string) {
	kept := make([]Exercise, 0, len(candidates))
	for _, c := range candidates {
		score := c.DifficultyScore
		if score == 0 {
			score = defaultDifficultyScore
		}
		if adj.AllowedRange.Contains(score) {
			kept = append(kept, c)
		}
	}

	removed := len(candidates) - len(kept)
	if removed == 0 {
		return kept, ""
	}
	if adj.Reason != "" {
		return kept, adj.Reason
	}
	return kept, fmt.Sprintf("%d exercise(s) outside difficulty %d-%d were left out for the %s stage.",
		removed, adj.AllowedRange.Min, adj.AllowedRange.Max, adj.TargetLevel)
}
