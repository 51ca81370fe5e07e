package course

import "fmt"

// FilterResult is the outcome of FilterContraindications.
type FilterResult struct {
	Exercises   []Exercise `json:"exercises"`
	ExcludedIDs []string   `json:"excludedExerciseIds"`
	Warnings    []string   `json:"warnings"`
}

// FilterContraindications drops exercises hit by a strict rule and flags
// exercises hit by a warning rule. A rule triggers when its PainLevelMin is
// nil or userPainLevel reaches it.
func FilterContraindications(candidates []Exercise, rules []Contraindication, userPainLevel int) FilterResult {
	byExercise := make(map[string][]Contraindication, len(rules))
	for _, r := range rules {
		byExercise[r.ExerciseTemplateID] = append(byExercise[r.ExerciseTemplateID], r)
	}

	res := FilterResult{
		Exercises:   make([]Exercise, 0, len(candidates)),
		ExcludedIDs: []string{},
		Warnings:    []string{},
	}
	excluded := make(map[string]bool)

	for _, ex := range candidates {
		var strict bool
		var warnings []string
		for _, r := range byExercise[ex.TemplateID] {
			if !r.triggers(userPainLevel) {
				continue
			}
			if r.Severity == SeverityStrict {
				strict = true
				continue
			}
			warnings = append(warnings, r.warning())
		}

		if strict {
			if !excluded[ex.TemplateID] {
				excluded[ex.TemplateID] = true
				res.ExcludedIDs = append(res.ExcludedIDs, ex.TemplateID)
			}
			continue
		}
		res.Warnings = append(res.Warnings, warnings...)
		res.Exercises = append(res.Exercises, ex.clone())
	}
	return res
}

func (c Contraindication) triggers(painLevel int) bool {
	return c.PainLevelMin == nil || painLevel >= *c.PainLevelMin
}

func (c Contraindication) warning() string {
	name := c.ExerciseTemplateName
	if name == "" {
		name = c.ExerciseTemplateID
	}
	reason := c.Reason
	if reason == "" {
		reason = "needs caution"
	}
	if c.PainLevelMin == nil {
		return fmt.Sprintf("Warning: %s %s.", name, reason)
	}
	return fmt.Sprintf("Warning: at pain level %d or higher, %s %s.", *c.PainLevelMin, name, reason)
}
