package analysis

import (
	"fmt"
	"math"
	"slices"

	"alcyxob/rehab-course/internal/course"
)

// AdjustmentType names a structural change made to a course request.
type AdjustmentType string

const (
	AdjustAddBodyPart    AdjustmentType = "add_body_part"
	AdjustRemoveExercise AdjustmentType = "remove_exercise"
	AdjustIntensity      AdjustmentType = "adjust_intensity"
)

// defaultAddedPainLevel is the neutral pain level for body parts added on
// the user's behalf.
const defaultAddedPainLevel = 3

const (
	minIntensityAdjustment = -2
	maxIntensityAdjustment = 1
)

// Adjustment records one change and why it was made.
type Adjustment struct {
	Type         AdjustmentType `json:"type"`
	Reason       string         `json:"reason"`
	BodyPartID   string         `json:"bodyPartId,omitempty"`
	BodyPartName string         `json:"bodyPartName,omitempty"`
	ExerciseID   string         `json:"exerciseId,omitempty"`
}

// RoutineAdjustment is the outcome of AdjustRoutine.
type RoutineAdjustment struct {
	Adjustments         []Adjustment               `json:"adjustments"`
	Warnings            []string                   `json:"warnings"`
	IntensityAdjustment int                        `json:"intensityAdjustment"`
	AdjustedBodyParts   []course.BodyPartSelection `json:"adjustedBodyParts"`
	AvoidExerciseIDs    []string                   `json:"avoidExerciseIds"`
}

// Options converts the adjustment into pipeline options.
func (r RoutineAdjustment) Options() course.Options {
	return course.Options{
		AvoidExerciseIDs:    slices.Clone(r.AvoidExerciseIDs),
		IntensityAdjustment: r.IntensityAdjustment,
	}
}

// AdjustRoutine applies detected issues and preferences to the requested
// body parts. Rules contribute independently:
//   - missing body parts are added at pain level 3;
//   - low-completion exercises are avoided;
//   - rising pain lowers intensity by 1, or 2 if any report is critical;
//   - exercises the user tends to skip are avoided;
//   - imbalance only adds a warning.
//
// The intensity shift is clamped to [-2, 1].
func AdjustRoutine(issues []Issue, prefs Preferences, requested []course.BodyPartSelection) RoutineAdjustment {
	res := RoutineAdjustment{
		Adjustments:       []Adjustment{},
		Warnings:          []string{},
		AdjustedBodyParts: slices.Clone(requested),
		AvoidExerciseIDs:  []string{},
	}
	if res.AdjustedBodyParts == nil {
		res.AdjustedBodyParts = []course.BodyPartSelection{}
	}

	for _, issue := range issues {
		if issue.Type != IssueMissingBodyPart || issue.BodyPartID == "" {
			continue
		}
		if slices.ContainsFunc(res.AdjustedBodyParts, func(bp course.BodyPartSelection) bool {
			return bp.BodyPartID == issue.BodyPartID
		}) {
			continue
		}
		res.AdjustedBodyParts = append(res.AdjustedBodyParts, course.BodyPartSelection{
			BodyPartID:     issue.BodyPartID,
			BodyPartName:   issue.BodyPartName,
			PainLevel:      defaultAddedPainLevel,
			SelectionOrder: len(res.AdjustedBodyParts) + 1,
		})
		res.Adjustments = append(res.Adjustments, Adjustment{
			Type:         AdjustAddBodyPart,
			Reason:       issue.Message,
			BodyPartID:   issue.BodyPartID,
			BodyPartName: issue.BodyPartName,
		})
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s was added to the course automatically.", displayName(issue.BodyPartName, issue.BodyPartID)))
	}

	for _, issue := range issues {
		if issue.Type != IssueLowCompletion || issue.ExerciseID == "" {
			continue
		}
		res.avoid(issue.ExerciseID, issue.Message)
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s was left out because it is rarely completed.", displayName(issue.ExerciseName, issue.ExerciseID)))
	}

	var painIssues []Issue
	for _, issue := range issues {
		if issue.Type == IssuePainIncrease {
			painIssues = append(painIssues, issue)
		}
	}
	if len(painIssues) > 0 {
		shift := -1
		if slices.ContainsFunc(painIssues, func(i Issue) bool { return i.Severity == SeverityCritical }) {
			shift = -2
		}
		res.IntensityAdjustment += shift
		res.Adjustments = append(res.Adjustments, Adjustment{Type: AdjustIntensity, Reason: painIssues[0].Message})
		res.Warnings = append(res.Warnings, "Post-exercise pain is rising, so intensity was lowered.")
	}

	for _, avoided := range prefs.AvoidedExercises {
		if slices.Contains(res.AvoidExerciseIDs, avoided.ExerciseID) {
			continue
		}
		res.avoid(avoided.ExerciseID, fmt.Sprintf("skip rate %d%%", int(math.Round(avoided.SkipRate*100))))
	}

	for _, issue := range issues {
		if issue.Type == IssueImbalance {
			res.Warnings = append(res.Warnings, issue.Message)
			break
		}
	}

	res.IntensityAdjustment = max(minIntensityAdjustment, min(res.IntensityAdjustment, maxIntensityAdjustment))
	return res
}

func (r *RoutineAdjustment) avoid(exerciseID, reason string) {
	if !slices.Contains(r.AvoidExerciseIDs, exerciseID) {
		r.AvoidExerciseIDs = append(r.AvoidExerciseIDs, exerciseID)
	}
	r.Adjustments = append(r.Adjustments, Adjustment{
		Type:       AdjustRemoveExercise,
		Reason:     reason,
		ExerciseID: exerciseID,
	})
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
