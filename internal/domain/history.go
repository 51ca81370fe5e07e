package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/rehab-course/internal/analysis"
)

// CompletionLog records whether a user completed or skipped one exercise of
// a generated course.
type CompletionLog struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID                primitive.ObjectID `bson:"userId" json:"userId"`
	CourseID              primitive.ObjectID `bson:"courseId" json:"courseId"`
	ExerciseTemplateID    primitive.ObjectID `bson:"exerciseTemplateId" json:"exerciseTemplateId"`
	ExerciseName          string             `bson:"exerciseName" json:"exerciseName"`
	BodyPartID            primitive.ObjectID `bson:"bodyPartId" json:"bodyPartId"`
	Status                analysis.Status    `bson:"status" json:"status"`
	PainAfter             *int               `bson:"painAfter,omitempty" json:"painAfter,omitempty"`
	CompletedAt           time.Time          `bson:"completedAt" json:"completedAt"`
	CourseDurationMinutes int                `bson:"courseDurationMinutes" json:"courseDurationMinutes"`
}

// AnalysisLog converts the entry for the analysis package.
func (l CompletionLog) AnalysisLog() analysis.Log {
	return analysis.Log{
		ExerciseID:            l.ExerciseTemplateID.Hex(),
		ExerciseName:          l.ExerciseName,
		BodyPartID:            l.BodyPartID.Hex(),
		Status:                l.Status,
		PainAfter:             l.PainAfter,
		CompletedAt:           l.CompletedAt,
		CourseDurationMinutes: l.CourseDurationMinutes,
	}
}

// PainProfile is a user's standing pain report for one body part. There is
// at most one per (user, body part).
type PainProfile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	BodyPartID   primitive.ObjectID `bson:"bodyPartId" json:"bodyPartId"`
	BodyPartName string             `bson:"bodyPartName" json:"bodyPartName"`
	PainLevel    int                `bson:"painLevel" json:"painLevel"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AnalysisProfile converts the profile for the analysis package.
func (p PainProfile) AnalysisProfile() analysis.PainProfile {
	return analysis.PainProfile{
		BodyPartID:   p.BodyPartID.Hex(),
		BodyPartName: p.BodyPartName,
		PainLevel:    p.PainLevel,
	}
}
