package course

import "slices"

// Dedupe merges candidates sharing a template id. Body part ids are unioned,
// the lowest priority score wins and every other field comes from the first
// candidate seen. Distinct ids keep their input order.
func Dedupe(candidates []Exercise) []Exercise {
	out := make([]Exercise, 0, len(candidates))
	index := make(map[string]int, len(candidates))

	for _, c := range candidates {
		i, seen := index[c.TemplateID]
		if !seen {
			index[c.TemplateID] = len(out)
			first := c.clone()
			first.BodyPartIDs = first.BodyPartIDs[:0]
			out = append(out, first)
			i = len(out) - 1
		}

		merged := &out[i]
		if seen && c.PriorityScore < merged.PriorityScore {
			merged.PriorityScore = c.PriorityScore
		}
		for _, id := range c.BodyPartIDs {
			if !slices.Contains(merged.BodyPartIDs, id) {
				merged.BodyPartIDs = append(merged.BodyPartIDs, id)
			}
		}
	}
	return out
}
