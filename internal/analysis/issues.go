package analysis

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

const (
	lowCompletionWarning  = 0.5
	lowCompletionCritical = 0.3
	minPainLogs           = 4
	painRiseWarning       = 1.0
	painRiseCritical      = 2.0
	minImbalanceParts     = 3
)

// DetectIssues runs every detector over the same window and concatenates
// their findings. Detectors are independent; a nil result from one does not
// stop the others.
func DetectIssues(profiles []PainProfile, logs []Log) []Issue {
	issues := []Issue{}
	issues = append(issues, missingBodyParts(profiles, logs)...)
	issues = append(issues, lowCompletion(logs)...)
	issues = append(issues, painIncrease(logs)...)
	issues = append(issues, imbalance(logs)...)
	return issues
}

func missingBodyParts(profiles []PainProfile, logs []Log) []Issue {
	exercised := make(map[string]bool)
	for _, l := range logs {
		exercised[l.BodyPartID] = true
	}

	var out []Issue
	for _, p := range profiles {
		if exercised[p.BodyPartID] {
			continue
		}
		name := p.BodyPartName
		if name == "" {
			name = p.BodyPartID
		}
		out = append(out, Issue{
			Type:           IssueMissingBodyPart,
			Severity:       SeverityWarning,
			BodyPartID:     p.BodyPartID,
			BodyPartName:   p.BodyPartName,
			Message:        fmt.Sprintf("%s has not been exercised recently.", name),
			Recommendation: fmt.Sprintf("Add exercises for %s.", name),
		})
	}
	return out
}

func lowCompletion(logs []Log) []Issue {
	var out []Issue
	for _, s := range tally(logs) {
		if s.total < minAttempts {
			continue
		}
		rate := float64(s.completed) / float64(s.total)
		if rate >= lowCompletionWarning {
			continue
		}
		severity := SeverityWarning
		if rate < lowCompletionCritical {
			severity = SeverityCritical
		}
		out = append(out, Issue{
			Type:           IssueLowCompletion,
			Severity:       severity,
			ExerciseID:     s.id,
			ExerciseName:   s.name,
			Message:        fmt.Sprintf("%s has a completion rate of %d%%.", s.name, int(math.Round(rate*100))),
			Recommendation: fmt.Sprintf("Replace %s with an easier exercise or lower its intensity.", s.name),
		})
	}
	return out
}

// painIncrease compares the mean post-exercise pain of the newer half of
// pain-tagged logs against the older half. An odd extra log goes to the
// newer half.
func painIncrease(logs []Log) []Issue {
	var tagged []Log
	for _, l := range logs {
		if l.PainAfter != nil {
			tagged = append(tagged, l)
		}
	}
	if len(tagged) < minPainLogs {
		return nil
	}
	sort.SliceStable(tagged, func(i, j int) bool {
		return tagged[i].CompletedAt.Before(tagged[j].CompletedAt)
	})

	mid := len(tagged) / 2
	older, recent := meanPain(tagged[:mid]), meanPain(tagged[mid:])
	rise := recent - older
	if rise < painRiseWarning {
		return nil
	}
	severity := SeverityWarning
	if rise >= painRiseCritical {
		severity = SeverityCritical
	}
	return []Issue{{
		Type:           IssuePainIncrease,
		Severity:       severity,
		Message:        fmt.Sprintf("Post-exercise pain is rising (%.1f → %.1f).", older, recent),
		Recommendation: "Lower the intensity or take a rest day.",
	}}
}

func meanPain(logs []Log) float64 {
	var sum int
	for _, l := range logs {
		sum += *l.PainAfter
	}
	return float64(sum) / float64(len(logs))
}

func imbalance(logs []Log) []Issue {
	counts := make(map[string]int)
	for _, l := range logs {
		counts[l.BodyPartID]++
	}
	if len(counts) < minImbalanceParts {
		return nil
	}

	values := make([]int, 0, len(counts))
	total := 0
	for _, c := range counts {
		values = append(values, c)
		total += c
	}
	avg := float64(total) / float64(len(values))
	spread := slices.Max(values) - slices.Min(values)
	if float64(spread) <= avg*2 {
		return nil
	}
	return []Issue{{
		Type:           IssueImbalance,
		Severity:       SeverityInfo,
		Message:        "Recent work is concentrated on a few body parts.",
		Recommendation: "Spread exercises more evenly across body parts.",
	}}
}
