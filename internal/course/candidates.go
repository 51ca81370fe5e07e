package course

import (
	"strconv"
	"strings"
)

// Equipment names that mean "no equipment needed".
const (
	EquipmentBodyweight = "bodyweight"
	EquipmentNone       = "none"
)

const (
	minIntensityLevel = 1
	maxIntensityLevel = 4
)

// Template is the catalog view of an exercise template.
type Template struct {
	ID              string
	Name            string
	Active          bool
	DurationMinutes int
	Sets            int
	Reps            int
	RestSeconds     int
	IntensityLevel  int
	DifficultyScore int
	Equipment       []string
	Description     string
	Instructions    string
	Precautions     string
	ImageURL        string
	GifURL          string
	VideoURL        string
}

// Candidate is one catalog row: a body part mapped to a template.
type Candidate struct {
	BodyPartID       string
	MappingPriority  int
	MappingIntensity int
	PainLevelRange   string
	Template         Template
}

// Options carry adjustments computed from the user's history.
type Options struct {
	AvoidExerciseIDs    []string
	IntensityAdjustment int
}

// MatchesPainLevelRange reports whether painLevel falls in a range such as
// "1-2", "5" or "all". An empty range matches everything.
func MatchesPainLevelRange(painRange string, painLevel int) bool {
	painRange = strings.TrimSpace(painRange)
	if painRange == "" || painRange == "all" {
		return true
	}
	if lo, hi, ok := strings.Cut(painRange, "-"); ok {
		from, errLo := strconv.Atoi(strings.TrimSpace(lo))
		to, errHi := strconv.Atoi(strings.TrimSpace(hi))
		if errLo != nil || errHi != nil {
			return false
		}
		return painLevel >= from && painLevel <= to
	}
	level, err := strconv.Atoi(painRange)
	return err == nil && painLevel == level
}

// equipmentAllowed reports whether a template can be done with the user's
// equipment. Bodyweight templates always pass; otherwise any one listed
// piece of equipment suffices.
func equipmentAllowed(required []string, available map[string]bool) bool {
	if len(required) == 0 {
		return true
	}
	for _, eq := range required {
		if eq == EquipmentBodyweight || eq == EquipmentNone || available[eq] {
			return true
		}
	}
	return false
}

func equipmentSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names)+2)
	for _, n := range names {
		set[strings.TrimSpace(n)] = true
	}
	if set[EquipmentBodyweight] || set[EquipmentNone] {
		set[EquipmentBodyweight] = true
		set[EquipmentNone] = true
	}
	return set
}

// effectiveIntensity picks mapping, then template, then default intensity
// and applies the history-based shift.
func effectiveIntensity(c Candidate, shift int) int {
	level := c.MappingIntensity
	if level == 0 {
		level = c.Template.IntensityLevel
	}
	if level == 0 {
		level = DefaultIntensityLevel
	}
	return clampInt(level+shift, minIntensityLevel, maxIntensityLevel)
}

// ScoreCandidates applies the catalog pre-filters (active, pain range,
// equipment, avoid list) and scores every surviving row.
func ScoreCandidates(req Request, rows []Candidate, opts Options) []Exercise {
	selections := make(map[string]BodyPartSelection, len(req.BodyParts))
	for _, bp := range req.BodyParts {
		selections[bp.BodyPartID] = bp
	}
	avoid := make(map[string]bool, len(opts.AvoidExerciseIDs))
	for _, id := range opts.AvoidExerciseIDs {
		avoid[id] = true
	}
	equipment := equipmentSet(req.EquipmentAvailable)

	out := make([]Exercise, 0, len(rows))
	for _, row := range rows {
		sel, ok := selections[row.BodyPartID]
		if !ok || !row.Template.Active || avoid[row.Template.ID] {
			continue
		}
		if !MatchesPainLevelRange(row.PainLevelRange, sel.PainLevel) {
			continue
		}
		if !equipmentAllowed(row.Template.Equipment, equipment) {
			continue
		}

		intensity := effectiveIntensity(row, opts.IntensityAdjustment)
		t := row.Template
		out = append(out, Exercise{
			TemplateID:      t.ID,
			TemplateName:    t.Name,
			BodyPartIDs:     []string{row.BodyPartID},
			PriorityScore:   Score(sel, row.MappingPriority, intensity),
			Section:         SectionMain,
			DurationMinutes: float64(t.DurationMinutes),
			Sets:            t.Sets,
			Reps:            t.Reps,
			RestSeconds:     t.RestSeconds,
			IntensityLevel:  intensity,
			DifficultyScore: t.DifficultyScore,
			PainLevelRange:  row.PainLevelRange,
			Description:     t.Description,
			Instructions:    t.Instructions,
			Precautions:     t.Precautions,
			ImageURL:        t.ImageURL,
			GifURL:          t.GifURL,
			VideoURL:        t.VideoURL,
		})
	}
	return out
}
