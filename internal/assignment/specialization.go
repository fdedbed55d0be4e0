package assignment

import "strings"

// Specialization is a fixed, enumerated practitioner specialty tag.
type Specialization string

const (
	SpecGeneral          Specialization = "General"
	SpecOrthodontist     Specialization = "Orthodontist"
	SpecEndodontist      Specialization = "Endodontist"
	SpecPeriodontist     Specialization = "Periodontist"
	SpecOralSurgeon      Specialization = "Oral Surgeon"
	SpecPediatricDentist Specialization = "Pediatric Dentist"
	SpecProsthodontist   Specialization = "Prosthodontist"
	SpecCosmeticDentist  Specialization = "Cosmetic Dentist"
)

type keywordEntry struct {
	Keywords []string
	Weight   int
}

// specializationKeywords maps each specialty to the symptom keywords that
// indicate it, with a per-specialty weight. Matching is case-insensitive
// substring search over the patient's symptom text.
var specializationKeywords = map[Specialization]keywordEntry{
	SpecOrthodontist: {
		Keywords: []string{"braces", "crooked", "alignment", "misaligned", "overbite", "underbite", "invisalign", "retainer", "gap"},
		Weight:   5,
	},
	SpecEndodontist: {
		Keywords: []string{"root canal", "severe pain", "pulp", "abscess", "sensitivity", "nerve"},
		Weight:   5,
	},
	SpecPeriodontist: {
		Keywords: []string{"gum", "bleeding", "swollen", "receding", "periodontal", "pyorrhea", "loose tooth"},
		Weight:   4,
	},
	SpecOralSurgeon: {
		Keywords: []string{"wisdom", "extraction", "impacted", "jaw", "surgery", "implant", "cyst", "fracture"},
		Weight:   5,
	},
	SpecPediatricDentist: {
		Keywords: []string{"child", "kid", "baby teeth", "milk teeth", "toddler", "pediatric"},
		Weight:   4,
	},
	SpecProsthodontist: {
		Keywords: []string{"denture", "crown", "bridge", "missing teeth", "replacement", "veneer", "cap"},
		Weight:   4,
	},
	SpecCosmeticDentist: {
		Keywords: []string{"whitening", "stain", "discolor", "yellow", "smile makeover", "cosmetic"},
		Weight:   3,
	},
	SpecGeneral: {
		Keywords: []string{"cleaning", "cavity", "checkup", "check-up", "toothache", "filling", "scaling", "bad breath", "plaque"},
		Weight:   2,
	},
}

// ScoreSpecialization scores how well a specialty matches free-text
// symptoms: weight times the number of matched keywords. Unknown
// specializations fall back to the General table. A zero score is a valid
// outcome, not an error.
func ScoreSpecialization(spec Specialization, symptoms string) (int, []string) {
	entry, ok := specializationKeywords[spec]
	if !ok {
		entry = specializationKeywords[SpecGeneral]
	}

	text := strings.ToLower(symptoms)
	if text == "" {
		return 0, nil
	}

	var matched []string
	for _, kw := range entry.Keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}

	return entry.Weight * len(matched), matched
}
