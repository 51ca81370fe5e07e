package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/rehab-course/internal/course"
)

// BodyPart is a selectable painful area. Key is the stable name used for
// scoring ("waist", "knee", ...).
type BodyPart struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key         string             `bson:"key" json:"key"`
	DisplayName string             `bson:"displayName" json:"displayName"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// BodyPartExerciseMapping links a body part to a template with a priority
// (lower first) and an optional intensity override.
type BodyPartExerciseMapping struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BodyPartID         primitive.ObjectID `bson:"bodyPartId" json:"bodyPartId"`
	ExerciseTemplateID primitive.ObjectID `bson:"exerciseTemplateId" json:"exerciseTemplateId"`
	Priority           int                `bson:"priority" json:"priority"`
	IntensityLevel     int                `bson:"intensityLevel,omitempty" json:"intensityLevel,omitempty"`
	PainLevelRange     string             `bson:"painLevelRange,omitempty" json:"painLevelRange,omitempty"` // "1-2", "5", "all"
	Active             bool               `bson:"active" json:"active"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
}

// Contraindication flags or forbids a template for a body part above a
// pain level. A nil PainLevelMin applies at every pain level.
type Contraindication struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BodyPartID         primitive.ObjectID `bson:"bodyPartId" json:"bodyPartId"`
	ExerciseTemplateID primitive.ObjectID `bson:"exerciseTemplateId" json:"exerciseTemplateId"`
	ExerciseName       string             `bson:"exerciseName,omitempty" json:"exerciseName,omitempty"`
	PainLevelMin       *int               `bson:"painLevelMin,omitempty" json:"painLevelMin,omitempty"`
	Severity           course.Severity    `bson:"severity" json:"severity"`
	Reason             string             `bson:"reason,omitempty" json:"reason,omitempty"`
	Active             bool               `bson:"active" json:"active"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
}

// CatalogEntry is an active mapping joined with its template.
type CatalogEntry struct {
	Mapping  BodyPartExerciseMapping `bson:"mapping" json:"mapping"`
	Template ExerciseTemplate        `bson:"template" json:"template"`
}

// Candidate converts the entry into a pipeline row. Media keys are passed
// through as-is; the course service swaps them for presigned URLs.
func (e CatalogEntry) Candidate() course.Candidate {
	t := e.Template
	return course.Candidate{
		BodyPartID:       e.Mapping.BodyPartID.Hex(),
		MappingPriority:  e.Mapping.Priority,
		MappingIntensity: e.Mapping.IntensityLevel,
		PainLevelRange:   e.Mapping.PainLevelRange,
		Template: course.Template{
			ID:              t.ID.Hex(),
			Name:            t.Name,
			Active:          t.Active,
			DurationMinutes: t.DurationMinutes,
			Sets:            t.Sets,
			Reps:            t.Reps,
			RestSeconds:     t.RestSeconds,
			IntensityLevel:  t.IntensityLevel,
			DifficultyScore: t.DifficultyScore,
			Equipment:       t.Equipment,
			Description:     t.Description,
			Instructions:    t.Instructions,
			Precautions:     t.Precautions,
			ImageURL:        t.ImageKey,
			GifURL:          t.GifKey,
			VideoURL:        t.VideoKey,
		},
	}
}

// Rule converts the contraindication into a pipeline rule.
func (c Contraindication) Rule() course.Contraindication {
	return course.Contraindication{
		ExerciseTemplateID:   c.ExerciseTemplateID.Hex(),
		ExerciseTemplateName: c.ExerciseName,
		PainLevelMin:         c.PainLevelMin,
		Severity:             c.Severity,
		Reason:               c.Reason,
	}
}
