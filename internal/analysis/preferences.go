package analysis

import (
	"math"
	"sort"
	"time"
)

const (
	minAttempts       = 3
	favoriteThreshold = 0.8
	avoidThreshold    = 0.4
	maxListed         = 5
	defaultDuration   = 60
	timeOfDayShare    = 0.4
)

var supportedDurations = []int{60, 90, 120}

type exerciseStats struct {
	id        string
	name      string
	total     int
	completed int
	skipped   int
}

// tally groups logs per exercise, keeping first-seen order.
func tally(logs []Log) []*exerciseStats {
	var out []*exerciseStats
	index := make(map[string]*exerciseStats)
	for _, l := range logs {
		s, ok := index[l.ExerciseID]
		if !ok {
			s = &exerciseStats{id: l.ExerciseID, name: l.ExerciseName}
			index[l.ExerciseID] = s
			out = append(out, s)
		}
		s.total++
		switch l.Status {
		case StatusCompleted:
			s.completed++
		case StatusSkipped:
			s.skipped++
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AnalyzePreferences aggregates completion and skip rates, the usual course
// length and the usual time of day. Hours are read in loc; a nil loc means
// UTC. Fewer than three logs yield DefaultPreferences.
func AnalyzePreferences(logs []Log, loc *time.Location) Preferences {
	if len(logs) < minAttempts {
		return DefaultPreferences()
	}
	if loc == nil {
		loc = time.UTC
	}

	prefs := DefaultPreferences()
	prefs.HasEnoughData = true

	completed := 0
	for _, s := range tally(logs) {
		completed += s.completed
		if s.total < minAttempts {
			continue
		}
		completionRate := float64(s.completed) / float64(s.total)
		skipRate := float64(s.skipped) / float64(s.total)
		if completionRate >= favoriteThreshold {
			prefs.FavoriteExercises = append(prefs.FavoriteExercises, FavoriteExercise{
				ExerciseID:     s.id,
				Name:           s.name,
				CompletionRate: round2(completionRate),
				TotalAttempts:  s.total,
			})
		}
		if skipRate >= avoidThreshold {
			prefs.AvoidedExercises = append(prefs.AvoidedExercises, AvoidedExercise{
				ExerciseID:    s.id,
				Name:          s.name,
				SkipRate:      round2(skipRate),
				TotalAttempts: s.total,
			})
		}
	}

	sort.SliceStable(prefs.FavoriteExercises, func(i, j int) bool {
		return prefs.FavoriteExercises[i].CompletionRate > prefs.FavoriteExercises[j].CompletionRate
	})
	sort.SliceStable(prefs.AvoidedExercises, func(i, j int) bool {
		return prefs.AvoidedExercises[i].SkipRate > prefs.AvoidedExercises[j].SkipRate
	})
	if len(prefs.FavoriteExercises) > maxListed {
		prefs.FavoriteExercises = prefs.FavoriteExercises[:maxListed]
	}
	if len(prefs.AvoidedExercises) > maxListed {
		prefs.AvoidedExercises = prefs.AvoidedExercises[:maxListed]
	}

	prefs.PreferredDuration = preferredDuration(logs)
	prefs.PreferredTimeOfDay = preferredTimeOfDay(logs, loc)
	prefs.AvgCompletionRate = round2(float64(completed) / float64(len(logs)))
	return prefs
}

// preferredDuration is the most frequent supported course length. Ties go
// to the shorter course.
func preferredDuration(logs []Log) int {
	counts := make(map[int]int, len(supportedDurations))
	for _, l := range logs {
		counts[l.CourseDurationMinutes]++
	}
	best, bestCount := defaultDuration, 0
	for _, d := range supportedDurations {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// BucketHour maps an hour of day to morning [5,12), afternoon [12,18) or
// evening.
func BucketHour(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 18:
		return Afternoon
	default:
		return Evening
	}
}

func preferredTimeOfDay(logs []Log, loc *time.Location) *TimeOfDay {
	counts := make(map[TimeOfDay]int, 3)
	for _, l := range logs {
		counts[BucketHour(l.CompletedAt.In(loc).Hour())]++
	}
	var best TimeOfDay
	bestCount := 0
	for _, tod := range []TimeOfDay{Morning, Afternoon, Evening} {
		if counts[tod] > bestCount {
			best, bestCount = tod, counts[tod]
		}
	}
	if float64(bestCount) <= float64(len(logs))*timeOfDayShare {
		return nil
	}
	return &best
}
