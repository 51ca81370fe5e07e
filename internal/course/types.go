// Package course turns scored exercise candidates into a time-boxed
// warmup/main/cooldown rehabilitation course.
//
// Everything in this package is pure: functions take their inputs by value,
// copy what they return and never touch storage, so one request can run the
// pipeline concurrently with any other.
package course

import "errors"

// ErrInvalidRequest marks caller bugs (bad duration, pain level out of range,
// unknown experience level). Data sparsity never produces it.
var ErrInvalidRequest = errors.New("invalid course request")

// Section is one of the three phases of a generated course.
type Section string

const (
	SectionWarmup   Section = "warmup"
	SectionMain     Section = "main"
	SectionCooldown Section = "cooldown"
)

// Severity of a contraindication rule.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityStrict  Severity = "strict"
)

// ExperienceLevel is the self-reported workout frequency.
type ExperienceLevel string

const (
	ExperienceRarely      ExperienceLevel = "rarely"
	ExperienceWeekly1to2  ExperienceLevel = "weekly_1_2"
	ExperienceWeekly3Plus ExperienceLevel = "weekly_3_plus"
)

// Pain levels are reported on a 1..5 scale.
const (
	MinPainLevel = 1
	MaxPainLevel = 5
)

// BodyPartSelection is one painful body part picked by the user.
type BodyPartSelection struct {
	BodyPartID     string `bson:"bodyPartId" json:"bodyPartId"`
	BodyPartName   string `bson:"bodyPartName" json:"bodyPartName"`
	PainLevel      int    `bson:"painLevel" json:"painLevel"`
	SelectionOrder int    `bson:"selectionOrder,omitempty" json:"selectionOrder,omitempty"`
}

// Request is a course generation request.
type Request struct {
	BodyParts            []BodyPartSelection `bson:"bodyParts" json:"bodyParts"`
	EquipmentAvailable   []string            `bson:"equipmentAvailable" json:"equipmentAvailable"`
	PainLevel            int                 `bson:"painLevel" json:"painLevel"`
	ExperienceLevel      ExperienceLevel     `bson:"experienceLevel" json:"experienceLevel"`
	TotalDurationMinutes int                 `bson:"totalDurationMinutes" json:"totalDurationMinutes"`
}

// Exercise is the unit flowing through the pipeline. Zero numeric values
// mean "not set" (no template value, no intensity, ...).
type Exercise struct {
	TemplateID      string   `bson:"exerciseTemplateId" json:"exerciseTemplateId"`
	TemplateName    string   `bson:"exerciseTemplateName" json:"exerciseTemplateName"`
	BodyPartIDs     []string `bson:"bodyPartIds" json:"bodyPartIds"`
	PriorityScore   float64  `bson:"priorityScore" json:"priorityScore"`
	Section         Section  `bson:"section" json:"section"`
	OrderInSection  int      `bson:"orderInSection" json:"orderInSection"`
	DurationMinutes float64  `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Sets            int      `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps            int      `bson:"reps,omitempty" json:"reps,omitempty"`
	RestSeconds     int      `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	IntensityLevel  int      `bson:"intensityLevel,omitempty" json:"intensityLevel,omitempty"`
	DifficultyScore int      `bson:"difficultyScore,omitempty" json:"difficultyScore,omitempty"`
	PainLevelRange  string   `bson:"painLevelRange,omitempty" json:"painLevelRange,omitempty"`

	Description  string `bson:"description,omitempty" json:"description,omitempty"`
	Instructions string `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Precautions  string `bson:"precautions,omitempty" json:"precautions,omitempty"`
	ImageURL     string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	GifURL       string `bson:"gifUrl,omitempty" json:"gifUrl,omitempty"`
	VideoURL     string `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
}

// clone returns a copy that shares no slices with e.
func (e Exercise) clone() Exercise {
	e.BodyPartIDs = append([]string(nil), e.BodyPartIDs...)
	return e
}

// Contraindication disallows or flags an exercise above a pain threshold.
// A nil PainLevelMin means the rule always applies.
type Contraindication struct {
	ExerciseTemplateID   string   `bson:"exerciseTemplateId" json:"exerciseTemplateId"`
	ExerciseTemplateName string   `bson:"exerciseTemplateName" json:"exerciseTemplateName"`
	PainLevelMin         *int     `bson:"painLevelMin" json:"painLevelMin"`
	Severity             Severity `bson:"severity" json:"severity"`
	Reason               string   `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Sections is the classifier output.
type Sections struct {
	Warmup   []Exercise `bson:"warmup" json:"warmup"`
	Main     []Exercise `bson:"main" json:"main"`
	Cooldown []Exercise `bson:"cooldown" json:"cooldown"`
}

// Stats summarises a generated course.
type Stats struct {
	Warmup     int            `bson:"warmup" json:"warmup"`
	Main       int            `bson:"main" json:"main"`
	Cooldown   int            `bson:"cooldown" json:"cooldown"`
	ByBodyPart map[string]int `bson:"byBodyPart" json:"byBodyPart"`
}

// Result is the pipeline output.
type Result struct {
	Exercises     []Exercise `bson:"exercises" json:"exercises"`
	TotalDuration int        `bson:"totalDuration" json:"totalDuration"`
	Warnings      []string   `bson:"warnings,omitempty" json:"warnings,omitempty"`
	Stats         *Stats     `bson:"stats,omitempty" json:"stats,omitempty"`
}
