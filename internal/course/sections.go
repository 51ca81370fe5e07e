package course

import (
	"math"
	"sort"
)

// lowIntensityMax is the highest intensity still eligible for warmup and
// cooldown.
const lowIntensityMax = 2

const (
	minWarmupCount   = 2
	maxWarmupCount   = 4
	minCooldownCount = 2
	maxCooldownCount = 3
)

// Classify splits de-duplicated, contraindication-filtered exercises into
// warmup, main and cooldown. The input is stably sorted by priority score
// first, so callers need not pre-sort it. No template id appears in more
// than one section; main claims ids before warmup, warmup before cooldown.
func Classify(exercises []Exercise) Sections {
	sorted := make([]Exercise, len(exercises))
	for i, ex := range exercises {
		sorted[i] = ex.clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PriorityScore < sorted[j].PriorityScore
	})

	var low, high []Exercise
	for _, ex := range sorted {
		if ex.IntensityLevel <= lowIntensityMax {
			low = append(low, ex)
		} else {
			high = append(high, ex)
		}
	}

	warmupCount := min(clampInt(len(low)/2, minWarmupCount, maxWarmupCount), len(low))
	warmup := low[:warmupCount]
	remaining := low[warmupCount:]

	cooldownCount := min(clampInt(len(remaining), minCooldownCount, maxCooldownCount), len(remaining))
	if len(high) == 0 {
		// Main is built from leftover low-intensity work alone; keep one.
		cooldownCount = max(0, min(cooldownCount, len(remaining)-1))
	}
	mainLow := remaining[:len(remaining)-cooldownCount]
	cooldown := remaining[len(remaining)-cooldownCount:]

	main := make([]Exercise, 0, len(high)+len(mainLow))
	main = append(main, high...)
	main = append(main, mainLow...)
	sort.SliceStable(main, func(i, j int) bool {
		return main[i].PriorityScore < main[j].PriorityScore
	})

	used := make(map[string]bool, len(sorted))
	return Sections{
		Main:     claim(main, SectionMain, used),
		Warmup:   claim(warmup, SectionWarmup, used),
		Cooldown: claim(cooldown, SectionCooldown, used),
	}
}

// claim keeps the exercises whose id is not yet in used, tags them with
// section and renumbers them from 1.
func claim(exercises []Exercise, section Section, used map[string]bool) []Exercise {
	out := make([]Exercise, 0, len(exercises))
	for _, ex := range exercises {
		if ex.TemplateID == "" || used[ex.TemplateID] {
			continue
		}
		used[ex.TemplateID] = true
		ex = ex.clone()
		ex.Section = section
		ex.OrderInSection = len(out) + 1
		out = append(out, ex)
	}
	return out
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
