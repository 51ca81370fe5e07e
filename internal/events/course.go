package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"alcyxob/rehab-course/internal/logger"
	"alcyxob/rehab-course/internal/observability"
)

// EventCourseGenerated is the type of CourseGenerated events.
const EventCourseGenerated = "course.generated"

const (
	defaultAttempts = 3
	defaultBackoff  = 500 * time.Millisecond
)

// CourseGenerated is published after a course is composed.
type CourseGenerated struct {
	EventID              string    `json:"eventId"`
	EventType            string    `json:"eventType"`
	CourseID             string    `json:"courseId"`
	UserID               string    `json:"userId"`
	BodyPartIDs          []string  `json:"bodyPartIds"`
	TotalDurationMinutes int       `json:"totalDurationMinutes"`
	ExerciseCount        int       `json:"exerciseCount"`
	WarningCount         int       `json:"warningCount"`
	AutoAdjusted         bool      `json:"autoAdjusted"`
	OccurredAt           time.Time `json:"occurredAt"`
}

// CoursePublisher sends course events with a bounded, linear-backoff retry.
type CoursePublisher struct {
	writer   MessageWriter
	topic    string
	attempts int
	backoff  time.Duration
	log      *logger.Logger
	metrics  *observability.Metrics
}

// NewCoursePublisher builds a publisher that retries up to three times,
// waiting 1x, 2x ... backoff between attempts.
func NewCoursePublisher(writer MessageWriter, topic string, log *logger.Logger, metrics *observability.Metrics) *CoursePublisher {
	return &CoursePublisher{
		writer:   writer,
		topic:    topic,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		log:      log.With("component", "CoursePublisher"),
		metrics:  metrics,
	}
}

// WithBackoff overrides the base backoff. Used by tests.
func (p *CoursePublisher) WithBackoff(d time.Duration) *CoursePublisher {
	p.backoff = d
	return p
}

// PublishCourseGenerated fills in the event id and timestamp, keys the
// message by user and publishes it.
func (p *CoursePublisher) PublishCourseGenerated(ctx context.Context, evt CourseGenerated) error {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	evt.EventType = EventCourseGenerated
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", EventCourseGenerated, err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.UserID),
		Value: payload,
		Time:  evt.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventCourseGenerated)},
			{Key: "event_id", Value: []byte(evt.EventID)},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if lastErr = p.writer.WriteMessages(ctx, p.topic, msg); lastErr == nil {
			p.metrics.EventPublished(p.topic, "ok")
			return nil
		}
		p.log.Warn("course event publish failed", "attempt", attempt, "courseId", evt.CourseID, "error", lastErr)
		if attempt == p.attempts {
			break
		}
		select {
		case <-ctx.Done():
			p.metrics.EventPublished(p.topic, "failed")
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * p.backoff):
		}
	}
	p.metrics.EventPublished(p.topic, "failed")
	return fmt.Errorf("publish %s after %d attempts: %w", EventCourseGenerated, p.attempts, lastErr)
}
