package course

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowAndHigh(low, high int) []Exercise {
	var out []Exercise
	for i := 0; i < low; i++ {
		out = append(out, Exercise{
			TemplateID:     fmt.Sprintf("low-%d", i),
			PriorityScore:  float64(100 + i),
			IntensityLevel: 1 + i%2,
		})
	}
	for i := 0; i < high; i++ {
		out = append(out, Exercise{
			TemplateID:     fmt.Sprintf("high-%d", i),
			PriorityScore:  float64(200 + i),
			IntensityLevel: 3 + i%2,
		})
	}
	return out
}

func sectionIDs(s Sections) map[string]int {
	counts := make(map[string]int)
	for _, list := range [][]Exercise{s.Warmup, s.Main, s.Cooldown} {
		for _, ex := range list {
			counts[ex.TemplateID]++
		}
	}
	return counts
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name                         string
		low, high                    int
		wantWarmup, wantMain, wantCD int
	}{
		{"balanced", 6, 4, 3, 4, 3},
		{"many low", 12, 2, 4, 7, 3},
		{"no low intensity", 0, 5, 0, 5, 0},
		{"no high intensity", 2, 0, 2, 0, 0},
		{"low only, three", 3, 0, 2, 1, 0},
		{"low only, four", 4, 0, 2, 1, 1},
		{"low only, five", 5, 0, 2, 1, 2},
		{"low only, six", 6, 0, 3, 1, 2},
		{"single low", 1, 1, 1, 1, 0},
		{"empty", 0, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Classify(lowAndHigh(tt.low, tt.high))

			assert.Len(t, s.Warmup, tt.wantWarmup)
			assert.Len(t, s.Main, tt.wantMain)
			assert.Len(t, s.Cooldown, tt.wantCD)
			for id, n := range sectionIDs(s) {
				assert.Equal(t, 1, n, "template %s appears in more than one section", id)
			}
			for _, ex := range s.Warmup {
				assert.LessOrEqual(t, ex.IntensityLevel, 2)
				assert.Equal(t, SectionWarmup, ex.Section)
			}
			for _, ex := range s.Cooldown {
				assert.LessOrEqual(t, ex.IntensityLevel, 2)
				assert.Equal(t, SectionCooldown, ex.Section)
			}
		})
	}
}

func TestClassifyOrdersWithinSection(t *testing.T) {
	s := Classify(lowAndHigh(0, 3))
	require.Len(t, s.Main, 3)
	for i, ex := range s.Main {
		assert.Equal(t, i+1, ex.OrderInSection)
		if i > 0 {
			assert.GreaterOrEqual(t, ex.PriorityScore, s.Main[i-1].PriorityScore)
		}
	}
}

func TestClassifyTreatsMissingIntensityAsLow(t *testing.T) {
	s := Classify([]Exercise{
		{TemplateID: "a", PriorityScore: 1},
		{TemplateID: "b", PriorityScore: 2},
	})
	assert.Len(t, s.Warmup, 2)
	assert.Empty(t, s.Main)
}

func TestSectionBudget(t *testing.T) {
	tests := []struct {
		total int
		want  Budget
	}{
		{60, Budget{Warmup: 10, Main: 40, Cooldown: 10}},
		{90, Budget{Warmup: 15, Main: 60, Cooldown: 15}},
		{120, Budget{Warmup: 15, Main: 90, Cooldown: 15}},
	}
	for _, tt := range tests {
		got, err := SectionBudget(tt.total)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := SectionBudget(45)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestDistributeBudgets(t *testing.T) {
	out, err := Distribute(Classify(lowAndHigh(6, 4)), 90)
	require.NoError(t, err)

	sums := map[Section]float64{}
	for _, ex := range out {
		sums[ex.Section] += ex.DurationMinutes
		assert.GreaterOrEqual(t, ex.DurationMinutes, 5.0)
		assert.GreaterOrEqual(t, ex.Sets, 1)
		assert.LessOrEqual(t, ex.Sets, 10)
		assert.GreaterOrEqual(t, ex.Reps, 5)
		assert.LessOrEqual(t, ex.Reps, 50)
	}
	assert.InDelta(t, 60, sums[SectionMain], 10)
	assert.InDelta(t, 15, sums[SectionWarmup], 5)
	assert.InDelta(t, 15, sums[SectionCooldown], 5)
}

func TestDistributeClampsDuration(t *testing.T) {
	out, err := Distribute(Sections{Main: []Exercise{{TemplateID: "solo", IntensityLevel: 3}}}, 120)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 20.0, out[0].DurationMinutes)

	many := make([]Exercise, 20)
	for i := range many {
		many[i] = Exercise{TemplateID: fmt.Sprintf("w%d", i)}
	}
	out, err = Distribute(Sections{Warmup: many}, 60)
	require.NoError(t, err)
	for _, ex := range out {
		assert.Equal(t, 5.0, ex.DurationMinutes)
	}
}

func TestDistributeRescalesSetsAndReps(t *testing.T) {
	main := []Exercise{{TemplateID: "m", DurationMinutes: 10, Sets: 3, Reps: 10}}
	out, err := Distribute(Sections{Main: main}, 60)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 20.0, out[0].DurationMinutes)
	assert.Equal(t, 6, out[0].Sets)
	assert.Equal(t, 20, out[0].Reps)

	out, err = Distribute(Sections{Cooldown: []Exercise{{TemplateID: "c"}}}, 60)
	require.NoError(t, err)
	assert.Equal(t, 1, out[0].Sets)
	assert.Equal(t, 10, out[0].Reps)
}

func TestDistributeRejectsUnknownDuration(t *testing.T) {
	_, err := Distribute(Sections{}, 75)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func sampleRequest() Request {
	return Request{
		BodyParts: []BodyPartSelection{
			{BodyPartID: "bp-waist", BodyPartName: "waist", PainLevel: 3, SelectionOrder: 1},
			{BodyPartID: "bp-knee", BodyPartName: "knee", PainLevel: 2, SelectionOrder: 2},
		},
		EquipmentAvailable:   []string{"mat"},
		PainLevel:            3,
		ExperienceLevel:      ExperienceWeekly1to2,
		TotalDurationMinutes: 90,
	}
}

func sampleCatalog() []Candidate {
	var rows []Candidate
	for i := 0; i < 10; i++ {
		bp := "bp-waist"
		if i%2 == 1 {
			bp = "bp-knee"
		}
		rows = append(rows, Candidate{
			BodyPartID:      bp,
			MappingPriority: i + 1,
			Template: Template{
				ID:              fmt.Sprintf("t%d", i),
				Name:            fmt.Sprintf("Exercise %d", i),
				Active:          true,
				DurationMinutes: 5,
				Sets:            2,
				Reps:            10,
				IntensityLevel:  1 + i%4,
				DifficultyScore: 3,
				Equipment:       []string{EquipmentBodyweight},
			},
		})
	}
	// t0 also maps to the knee.
	shared := rows[0]
	shared.BodyPartID = "bp-knee"
	rows = append(rows, shared)
	return rows
}

func TestCompose(t *testing.T) {
	res, err := Compose(sampleRequest(), sampleCatalog(), nil, Options{})
	require.NoError(t, err)

	require.NotEmpty(t, res.Exercises)
	seen := map[string]bool{}
	for _, ex := range res.Exercises {
		assert.False(t, seen[ex.TemplateID], "duplicate %s", ex.TemplateID)
		seen[ex.TemplateID] = true
	}
	assert.Len(t, seen, 10)

	require.NotNil(t, res.Stats)
	assert.Equal(t, len(res.Exercises), res.Stats.Warmup+res.Stats.Main+res.Stats.Cooldown)
	assert.Greater(t, res.Stats.ByBodyPart["knee"], 0)
	assert.Greater(t, res.Stats.ByBodyPart["waist"], 0)
	assert.InDelta(t, 90, res.TotalDuration, 15)
	assert.Empty(t, res.Warnings)

	for _, ex := range res.Exercises {
		if ex.TemplateID == "t0" {
			assert.ElementsMatch(t, []string{"bp-waist", "bp-knee"}, ex.BodyPartIDs)
		}
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	first, err := Compose(sampleRequest(), sampleCatalog(), nil, Options{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Compose(sampleRequest(), sampleCatalog(), nil, Options{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComposeEmptyCatalog(t *testing.T) {
	res, err := Compose(sampleRequest(), nil, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Exercises)
	assert.Equal(t, 0, res.TotalDuration)
	assert.Contains(t, res.Warnings, WarningNoCatalog)
}

func TestComposeEverythingFiltered(t *testing.T) {
	req := sampleRequest()
	rows := sampleCatalog()[:1]
	rules := []Contraindication{{ExerciseTemplateID: "t0", Severity: SeverityStrict}}

	res, err := Compose(req, rows, rules, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Exercises)
	assert.Contains(t, res.Warnings, WarningAllFiltered)
	assert.Len(t, res.Warnings, 2)
}

func TestComposeAvoidsAndShiftsIntensity(t *testing.T) {
	res, err := Compose(sampleRequest(), sampleCatalog(), nil, Options{
		AvoidExerciseIDs:    []string{"t1", "t2"},
		IntensityAdjustment: -2,
	})
	require.NoError(t, err)
	for _, ex := range res.Exercises {
		assert.NotContains(t, []string{"t1", "t2"}, ex.TemplateID)
		assert.LessOrEqual(t, ex.IntensityLevel, 2)
	}
}

func TestComposeKeepsMainWhenIntensityLowered(t *testing.T) {
	rows := sampleCatalog()[:5]
	for i := range rows {
		rows[i].Template.IntensityLevel = 3 + i%2
	}

	res, err := Compose(sampleRequest(), rows, nil, Options{IntensityAdjustment: -2})
	require.NoError(t, err)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 2, res.Stats.Warmup)
	assert.Equal(t, 1, res.Stats.Main)
	assert.Equal(t, 2, res.Stats.Cooldown)

	var mainMinutes float64
	for _, ex := range res.Exercises {
		if ex.Section == SectionMain {
			mainMinutes += ex.DurationMinutes
		}
	}
	assert.Equal(t, 20.0, mainMinutes)
}

func TestComposeSkipsMissingEquipment(t *testing.T) {
	rows := sampleCatalog()
	rows[2].Template.Equipment = []string{"barbell"}

	res, err := Compose(sampleRequest(), rows, nil, Options{})
	require.NoError(t, err)
	for _, ex := range res.Exercises {
		assert.NotEqual(t, "t2", ex.TemplateID)
	}
}

func TestComposeRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"no body parts", func(r *Request) { r.BodyParts = nil }},
		{"bad duration", func(r *Request) { r.TotalDurationMinutes = 45 }},
		{"pain too high", func(r *Request) { r.PainLevel = 6 }},
		{"unknown experience", func(r *Request) { r.ExperienceLevel = "daily" }},
		{"body part pain zero", func(r *Request) { r.BodyParts[0].PainLevel = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampleRequest()
			tt.mutate(&req)
			_, err := Compose(req, sampleCatalog(), nil, Options{})
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}
