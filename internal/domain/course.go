package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/rehab-course/internal/course"
)

// Course is a generated course as stored for a user. Exercises hold media
// object keys; presigned URLs are attached when the course is served.
type Course struct {
	ID                   primitive.ObjectID         `bson:"_id,omitempty" json:"id"`
	UserID               primitive.ObjectID         `bson:"userId" json:"userId"`
	BodyParts            []course.BodyPartSelection `bson:"bodyParts" json:"bodyParts"`
	EquipmentAvailable   []string                   `bson:"equipmentAvailable" json:"equipmentAvailable"`
	PainLevel            int                        `bson:"painLevel" json:"painLevel"`
	ExperienceLevel      course.ExperienceLevel     `bson:"experienceLevel" json:"experienceLevel"`
	TotalDurationMinutes int                        `bson:"totalDurationMinutes" json:"totalDurationMinutes"`
	AutoAdjusted         bool                       `bson:"autoAdjusted" json:"autoAdjusted"`
	Exercises            []course.Exercise          `bson:"exercises" json:"exercises"`
	TotalDuration        int                        `bson:"totalDuration" json:"totalDuration"`
	Warnings             []string                   `bson:"warnings,omitempty" json:"warnings,omitempty"`
	Stats                *course.Stats              `bson:"stats,omitempty" json:"stats,omitempty"`
	CreatedAt            time.Time                  `bson:"createdAt" json:"createdAt"`
}

// Result returns the stored pipeline output.
func (c *Course) Result() course.Result {
	return course.Result{
		Exercises:     c.Exercises,
		TotalDuration: c.TotalDuration,
		Warnings:      c.Warnings,
		Stats:         c.Stats,
	}
}
