package course

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestDedupe(t *testing.T) {
	in := []Exercise{
		{TemplateID: "a", TemplateName: "Bridge", BodyPartIDs: []string{"waist"}, PriorityScore: 210, Sets: 2},
		{TemplateID: "b", TemplateName: "Clamshell", BodyPartIDs: []string{"hip"}, PriorityScore: 260},
		{TemplateID: "a", TemplateName: "Bridge (dup)", BodyPartIDs: []string{"hip", "waist"}, PriorityScore: 160, Sets: 4},
	}

	out := Dedupe(in)

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].TemplateID)
	assert.Equal(t, "b", out[1].TemplateID)
	assert.Equal(t, []string{"waist", "hip"}, out[0].BodyPartIDs)
	assert.Equal(t, 160.0, out[0].PriorityScore)
	assert.Equal(t, "Bridge", out[0].TemplateName, "scalar fields come from the first candidate")
	assert.Equal(t, 2, out[0].Sets)

	assert.Equal(t, []string{"waist"}, in[0].BodyPartIDs, "input must not be mutated")
}

func TestDedupeIsDeterministic(t *testing.T) {
	in := []Exercise{
		{TemplateID: "x", BodyPartIDs: []string{"1"}, PriorityScore: 3},
		{TemplateID: "y", BodyPartIDs: []string{"2"}, PriorityScore: 2},
		{TemplateID: "x", BodyPartIDs: []string{"3"}, PriorityScore: 1},
	}
	assert.Equal(t, Dedupe(in), Dedupe(in))
}

func TestFilterContraindicationsStrictAlwaysExcludes(t *testing.T) {
	rules := []Contraindication{{ExerciseTemplateID: "x", ExerciseTemplateName: "Deadlift", Severity: SeverityStrict}}
	for pain := MinPainLevel; pain <= MaxPainLevel; pain++ {
		t.Run(fmt.Sprintf("pain %d", pain), func(t *testing.T) {
			res := FilterContraindications([]Exercise{{TemplateID: "x"}, {TemplateID: "y"}}, rules, pain)
			require.Len(t, res.Exercises, 1)
			assert.Equal(t, "y", res.Exercises[0].TemplateID)
			assert.Equal(t, []string{"x"}, res.ExcludedIDs)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestFilterContraindicationsThreshold(t *testing.T) {
	rules := []Contraindication{{ExerciseTemplateID: "x", PainLevelMin: intPtr(4), Severity: SeverityStrict}}
	candidates := []Exercise{{TemplateID: "x"}}

	res := FilterContraindications(candidates, rules, 5)
	assert.Empty(t, res.Exercises)
	assert.Equal(t, []string{"x"}, res.ExcludedIDs)

	res = FilterContraindications(candidates, rules, 3)
	assert.Len(t, res.Exercises, 1)
	assert.Empty(t, res.ExcludedIDs)
}

func TestFilterContraindicationsWarningKeepsExercise(t *testing.T) {
	rules := []Contraindication{
		{ExerciseTemplateID: "x", ExerciseTemplateName: "Plank", PainLevelMin: intPtr(3), Severity: SeverityWarning, Reason: "may load the lower back"},
		{ExerciseTemplateID: "x", ExerciseTemplateName: "Plank", Severity: SeverityWarning},
	}

	res := FilterContraindications([]Exercise{{TemplateID: "x"}}, rules, 4)

	require.Len(t, res.Exercises, 1)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "Plank")
	assert.Contains(t, res.Warnings[0], "3")
	assert.Contains(t, res.Warnings[1], "Plank")
	assert.Empty(t, res.ExcludedIDs)
}

func TestFilterContraindicationsBelowThresholdIsSilent(t *testing.T) {
	rules := []Contraindication{{ExerciseTemplateID: "x", PainLevelMin: intPtr(5), Severity: SeverityWarning}}
	res := FilterContraindications([]Exercise{{TemplateID: "x"}}, rules, 2)
	assert.Len(t, res.Exercises, 1)
	assert.Empty(t, res.Warnings)
}

func TestAdjustDifficulty(t *testing.T) {
	tests := []struct {
		name       string
		experience ExperienceLevel
		pain       int
		wantLevel  DifficultyLevel
		wantRange  ScoreRange
		wantReason bool
	}{
		{"beginner low pain", ExperienceRarely, 2, LevelPrinciple, ScoreRange{1, 4}, false},
		{"intermediate low pain", ExperienceWeekly1to2, 1, LevelAdaptation, ScoreRange{1, 8}, false},
		{"advanced low pain", ExperienceWeekly3Plus, 3, LevelMastery, ScoreRange{4, 10}, false},
		{"advanced pain 4 drops a stage", ExperienceWeekly3Plus, 4, LevelAdaptation, ScoreRange{1, 7}, true},
		{"intermediate pain 4 keeps stage", ExperienceWeekly1to2, 4, LevelAdaptation, ScoreRange{1, 7}, false},
		{"pain 5 forces principle", ExperienceWeekly3Plus, 5, LevelPrinciple, ScoreRange{1, 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj, err := AdjustDifficulty(tt.experience, tt.pain)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, adj.TargetLevel)
			assert.Equal(t, tt.wantRange, adj.AllowedRange)
			assert.Equal(t, tt.wantReason, adj.Reason != "")
		})
	}
}

func TestAdjustDifficultyRejectsBadInput(t *testing.T) {
	_, err := AdjustDifficulty("daily", 3)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = AdjustDifficulty(ExperienceRarely, 6)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestFilterByDifficulty(t *testing.T) {
	adj, err := AdjustDifficulty(ExperienceRarely, 2)
	require.NoError(t, err)

	candidates := []Exercise{
		{TemplateID: "easy", DifficultyScore: 2},
		{TemplateID: "unscored"},
		{TemplateID: "hard", DifficultyScore: 9},
	}

	kept, warning := FilterByDifficulty(candidates, adj)
	require.Len(t, kept, 1)
	assert.Equal(t, "easy", kept[0].TemplateID)
	assert.NotEmpty(t, warning)

	kept, warning = FilterByDifficulty(candidates[:1], adj)
	assert.Len(t, kept, 1)
	assert.Empty(t, warning, "no warning when nothing was removed")
}

func TestMatchesPainLevelRange(t *testing.T) {
	tests := []struct {
		rng  string
		pain int
		want bool
	}{
		{"", 3, true},
		{"all", 5, true},
		{"1-2", 2, true},
		{"1-2", 3, false},
		{"3-4", 3, true},
		{"5", 5, true},
		{"5", 4, false},
		{"garbage", 1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesPainLevelRange(tt.rng, tt.pain), "range %q pain %d", tt.rng, tt.pain)
	}
}
