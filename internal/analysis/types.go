// Package analysis derives preferences and issues from a user's completion
// history and turns them into adjustments for the next course request.
//
// The functions here are pure. Fetching the history window is the caller's
// job; see service.AnalysisService.
package analysis

import "time"

// Status of one logged exercise attempt.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
)

// Log is one completion log entry.
type Log struct {
	ExerciseID            string
	ExerciseName          string
	BodyPartID            string
	Status                Status
	PainAfter             *int
	CompletedAt           time.Time
	CourseDurationMinutes int
}

// PainProfile is a standing pain report for one body part.
type PainProfile struct {
	BodyPartID   string
	BodyPartName string
	PainLevel    int
}

// IssueType names one of the detectors.
type IssueType string

const (
	IssueMissingBodyPart IssueType = "missing_body_part"
	IssueLowCompletion   IssueType = "low_completion"
	IssuePainIncrease    IssueType = "pain_increase"
	IssueImbalance       IssueType = "imbalance"
)

// IssueSeverity grades a detected issue.
type IssueSeverity string

const (
	SeverityInfo     IssueSeverity = "info"
	SeverityWarning  IssueSeverity = "warning"
	SeverityCritical IssueSeverity = "critical"
)

// Issue is a problem spotted in recent history.
type Issue struct {
	Type           IssueType     `json:"type"`
	Severity       IssueSeverity `json:"severity"`
	BodyPartID     string        `json:"bodyPartId,omitempty"`
	BodyPartName   string        `json:"bodyPartName,omitempty"`
	ExerciseID     string        `json:"exerciseId,omitempty"`
	ExerciseName   string        `json:"exerciseName,omitempty"`
	Message        string        `json:"message"`
	Recommendation string        `json:"recommendation"`
}

// TimeOfDay buckets the hour an exercise was logged.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

// FavoriteExercise is an exercise the user reliably completes.
type FavoriteExercise struct {
	ExerciseID     string  `json:"exerciseId"`
	Name           string  `json:"name"`
	CompletionRate float64 `json:"completionRate"`
	TotalAttempts  int     `json:"totalAttempts"`
}

// AvoidedExercise is an exercise the user tends to skip.
type AvoidedExercise struct {
	ExerciseID    string  `json:"exerciseId"`
	Name          string  `json:"name"`
	SkipRate      float64 `json:"skipRate"`
	TotalAttempts int     `json:"totalAttempts"`
}

// Preferences summarises a history window.
type Preferences struct {
	FavoriteExercises  []FavoriteExercise `json:"favoriteExercises"`
	AvoidedExercises   []AvoidedExercise  `json:"avoidedExercises"`
	PreferredDuration  int                `json:"preferredDuration"`
	PreferredTimeOfDay *TimeOfDay         `json:"preferredTimeOfDay"`
	AvgCompletionRate  float64            `json:"avgCompletionRate"`
	HasEnoughData      bool               `json:"hasEnoughData"`
}

// DefaultPreferences is returned when history is too thin or unavailable.
func DefaultPreferences() Preferences {
	return Preferences{
		FavoriteExercises: []FavoriteExercise{},
		AvoidedExercises:  []AvoidedExercise{},
		PreferredDuration: defaultDuration,
	}
}
