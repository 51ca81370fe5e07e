package course

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// Warning texts for the degrade-to-empty paths.
const (
	WarningNoCatalog      = "No recommended exercises were found for the selected body parts."
	WarningAllFiltered    = "Every candidate exercise was excluded for safety or difficulty; try a lower pain level or other body parts."
	warningExcludedFormat = "%d exercise(s) were excluded because they are contraindicated at your pain level."
)

// Validate rejects requests that can only come from a caller bug.
func (r Request) Validate() error {
	if len(r.BodyParts) == 0 {
		return fmt.Errorf("%w: at least one body part is required", ErrInvalidRequest)
	}
	if !ValidDuration(r.TotalDurationMinutes) {
		return fmt.Errorf("%w: total duration %d is not one of 60, 90, 120", ErrInvalidRequest, r.TotalDurationMinutes)
	}
	if r.PainLevel < MinPainLevel || r.PainLevel > MaxPainLevel {
		return fmt.Errorf("%w: pain level %d out of range", ErrInvalidRequest, r.PainLevel)
	}
	if !ValidExperience(r.ExperienceLevel) {
		return fmt.Errorf("%w: unknown experience level %q", ErrInvalidRequest, r.ExperienceLevel)
	}
	for _, bp := range r.BodyParts {
		if bp.BodyPartID == "" {
			return fmt.Errorf("%w: body part id is required", ErrInvalidRequest)
		}
		if bp.PainLevel < MinPainLevel || bp.PainLevel > MaxPainLevel {
			return fmt.Errorf("%w: pain level %d for %q out of range", ErrInvalidRequest, bp.PainLevel, bp.BodyPartName)
		}
	}
	return nil
}

// Compose runs the whole pipeline over one catalog snapshot:
// pre-filter and score, narrow by difficulty, sort, de-duplicate, drop
// contraindicated exercises, classify into sections and allocate time.
// Empty catalogs and over-filtering yield an empty course with a warning;
// only invalid requests return an error.
func Compose(req Request, rows []Candidate, rules []Contraindication, opts Options) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	adj, err := AdjustDifficulty(req.ExperienceLevel, req.PainLevel)
	if err != nil {
		return Result{}, err
	}

	var warnings []string
	if len(rows) == 0 {
		return emptyResult(req, append(warnings, WarningNoCatalog)), nil
	}

	scored := ScoreCandidates(req, rows, opts)
	if len(scored) == 0 {
		return emptyResult(req, append(warnings, WarningNoCatalog)), nil
	}

	narrowed, reason := FilterByDifficulty(scored, adj)
	if reason != "" {
		warnings = append(warnings, reason)
	}

	sort.SliceStable(narrowed, func(i, j int) bool {
		return narrowed[i].PriorityScore < narrowed[j].PriorityScore
	})
	merged := Dedupe(narrowed)

	filtered := FilterContraindications(merged, rules, req.PainLevel)
	warnings = append(warnings, filtered.Warnings...)
	if n := len(filtered.ExcludedIDs); n > 0 {
		warnings = append(warnings, fmt.Sprintf(warningExcludedFormat, n))
	}
	if len(filtered.Exercises) == 0 {
		return emptyResult(req, append(warnings, WarningAllFiltered)), nil
	}

	sections := Classify(filtered.Exercises)
	exercises, err := Distribute(sections, req.TotalDurationMinutes)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Exercises:     exercises,
		TotalDuration: totalDuration(exercises),
		Warnings:      warnings,
		Stats:         stats(req, sections, exercises),
	}, nil
}

func emptyResult(req Request, warnings []string) Result {
	return Result{
		Exercises:     []Exercise{},
		TotalDuration: 0,
		Warnings:      warnings,
		Stats:         stats(req, Sections{}, nil),
	}
}

func totalDuration(exercises []Exercise) int {
	var sum float64
	for _, ex := range exercises {
		sum += ex.DurationMinutes
	}
	return int(math.Round(sum))
}

func stats(req Request, sections Sections, exercises []Exercise) *Stats {
	s := &Stats{
		Warmup:     len(sections.Warmup),
		Main:       len(sections.Main),
		Cooldown:   len(sections.Cooldown),
		ByBodyPart: make(map[string]int, len(req.BodyParts)),
	}
	for _, bp := range req.BodyParts {
		count := 0
		for _, ex := range exercises {
			if slices.Contains(ex.BodyPartIDs, bp.BodyPartID) {
				count++
			}
		}
		s.ByBodyPart[bp.BodyPartName] = count
	}
	return s
}
