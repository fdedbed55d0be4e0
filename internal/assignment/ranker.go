package assignment

import (
	"context"
	"sort"

	"github.com/dentalbook/doctor-assignment/internal/geocode"
)

// Composite score weights.
const (
	weightSpecialization = 0.4
	weightArea           = 0.3
	weightDistance       = 0.3
)

// Geocoder resolves free-text addresses to coordinates. A nil result means
// the address is unresolvable; ranking continues with unknown distance.
type Geocoder interface {
	Resolve(ctx context.Context, address string) *geocode.Coordinate
}

// Ranker scores available practitioners against a request.
type Ranker struct {
	geocoder Geocoder
}

func NewRanker(geocoder Geocoder) *Ranker {
	return &Ranker{geocoder: geocoder}
}

// Rank produces one MatchResult per candidate, sorted by composite score
// descending. The sort is stable so equal scores keep candidate order.
func (rk *Ranker) Rank(ctx context.Context, candidates []Practitioner, patientLoc Location, symptoms string) []MatchResult {
	var patientCoord *geocode.Coordinate
	if rk.geocoder != nil {
		patientCoord = rk.geocoder.Resolve(ctx, LocationText(patientLoc))
	}

	results := make([]MatchResult, 0, len(candidates))
	for _, doc := range candidates {
		specScore, matched := ScoreSpecialization(doc.Specialization, symptoms)
		areaScore, areaReason := AreaScore(patientLoc, doc.Location)

		var km *float64
		if patientCoord != nil && rk.geocoder != nil && !doc.Location.Empty() {
			if docCoord := rk.geocoder.Resolve(ctx, LocationText(doc.Location)); docCoord != nil {
				d := geocode.DistanceKm(*patientCoord, *docCoord)
				km = &d
			}
		}
		distScore := DistanceScore(km)

		results = append(results, MatchResult{
			Doctor:              doc,
			SpecializationScore: specScore,
			MatchedKeywords:     matched,
			AreaScore:           areaScore,
			AreaReason:          areaReason,
			DistanceKm:          km,
			DistanceScore:       distScore,
			Composite: weightSpecialization*float64(specScore) +
				weightArea*float64(areaScore) +
				weightDistance*float64(distScore),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Composite > results[j].Composite
	})

	return results
}
