package course

// DefaultIntensityLevel is used when neither the mapping nor the template
// carries an intensity.
const DefaultIntensityLevel = 2

// unknownBodyPartWeight applies to body parts missing from bodyPartBaseWeight.
const unknownBodyPartWeight = 10

// bodyPartBaseWeight ranks body parts by rehabilitation urgency. Lower is
// more urgent.
var bodyPartBaseWeight = map[string]int{
	"waist":    1,
	"knee":     2,
	"shoulder": 3,
	"neck":     4,
	"wrist":    5,
	"ankle":    5,
	"elbow":    6,
	"hip":      6,
	"back":     7,
	"chest":    8,
}

// BodyPartBaseWeight returns the base weight for a body part name.
func BodyPartBaseWeight(name string) int {
	if w, ok := bodyPartBaseWeight[name]; ok {
		return w
	}
	return unknownBodyPartWeight
}

// Score ranks a candidate for scheduling. Lower is higher priority:
//
//	pain*100 + baseWeight*10 - intensity + mappingPriority*0.1 + selectionOrder*0.01
func Score(sel BodyPartSelection, mappingPriority, intensityLevel int) float64 {
	return float64(sel.PainLevel)*100 +
		float64(BodyPartBaseWeight(sel.BodyPartName))*10 -
		float64(intensityLevel) +
		float64(mappingPriority)*0.1 +
		float64(sel.SelectionOrder)*0.01
}
