package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MediaKind names one of the media slots of an exercise template.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaGif   MediaKind = "gif"
	MediaVideo MediaKind = "video"
)

// Valid reports whether k is a known media slot.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaImage, MediaGif, MediaVideo:
		return true
	}
	return false
}

// ExerciseTemplate is a reusable exercise definition in the catalog.
type ExerciseTemplate struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	// Step by step execution instructions.
	Instructions string `bson:"instructions,omitempty" json:"instructions,omitempty"`
	Precautions  string `bson:"precautions,omitempty" json:"precautions,omitempty"`

	DurationMinutes int      `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Sets            int      `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps            int      `bson:"reps,omitempty" json:"reps,omitempty"`
	RestSeconds     int      `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	IntensityLevel  int      `bson:"intensityLevel,omitempty" json:"intensityLevel,omitempty"`   // 1..4
	DifficultyScore int      `bson:"difficultyScore,omitempty" json:"difficultyScore,omitempty"` // 1..10
	Equipment       []string `bson:"equipment,omitempty" json:"equipment,omitempty"`

	// S3 object keys; handlers hand out presigned URLs, never the keys.
	ImageKey string `bson:"imageKey,omitempty" json:"-"`
	GifKey   string `bson:"gifKey,omitempty" json:"-"`
	VideoKey string `bson:"videoKey,omitempty" json:"-"`

	Active    bool      `bson:"active" json:"active"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// MediaKey returns the object key stored for kind.
func (t *ExerciseTemplate) MediaKey(kind MediaKind) string {
	switch kind {
	case MediaImage:
		return t.ImageKey
	case MediaGif:
		return t.GifKey
	case MediaVideo:
		return t.VideoKey
	}
	return ""
}
