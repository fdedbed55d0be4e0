package assignment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalbook/doctor-assignment/internal/geocode"
)

// mapGeocoder resolves from a fixed table; unknown addresses return nil.
type mapGeocoder struct {
	coords map[string]geocode.Coordinate
}

func (g *mapGeocoder) Resolve(_ context.Context, address string) *geocode.Coordinate {
	if c, ok := g.coords[address]; ok {
		return &c
	}
	return nil
}

func TestRankCompositeWeights(t *testing.T) {
	// spec=5, area=10, dist=10 must produce exactly 0.4*5 + 0.3*10 + 0.3*10 = 10.
	patientLoc := Location{Area: "Koramangala", FullAddress: "Koramangala, Bengaluru"}
	doc := Practitioner{
		ID:             uuid.New(),
		Name:           "Dr. A",
		Specialization: SpecOrthodontist,
		Location:       Location{Area: "Koramangala", FullAddress: "Koramangala clinic"},
	}

	g := &mapGeocoder{coords: map[string]geocode.Coordinate{
		"Koramangala, Bengaluru": {Lat: 12.9352, Lon: 77.6245},
		"Koramangala clinic":     {Lat: 12.9360, Lon: 77.6250}, // under a km away
	}}

	results := NewRanker(g).Rank(context.Background(), []Practitioner{doc}, patientLoc, "crooked teeth")
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 5, r.SpecializationScore)
	assert.Equal(t, 10, r.AreaScore)
	require.NotNil(t, r.DistanceKm)
	assert.Equal(t, 10, r.DistanceScore)
	assert.InDelta(t, 10.0, r.Composite, 1e-9)
}

func TestRankSortsDescending(t *testing.T) {
	patientLoc := Location{Area: "Koramangala"}
	specialist := Practitioner{ID: uuid.New(), Name: "Dr. Braces", Specialization: SpecOrthodontist, Location: Location{Area: "Koramangala"}}
	generalist := Practitioner{ID: uuid.New(), Name: "Dr. General", Specialization: SpecGeneral, Location: Location{Area: "Whitefield"}}

	results := NewRanker(&mapGeocoder{}).Rank(context.Background(),
		[]Practitioner{generalist, specialist}, patientLoc, "crooked teeth need braces")

	require.Len(t, results, 2)
	assert.Equal(t, "Dr. Braces", results[0].Doctor.Name)
	assert.Greater(t, results[0].Composite, results[1].Composite)
}

func TestRankStableOnTies(t *testing.T) {
	patientLoc := Location{}
	a := Practitioner{ID: uuid.New(), Name: "Dr. First", Specialization: SpecGeneral}
	b := Practitioner{ID: uuid.New(), Name: "Dr. Second", Specialization: SpecGeneral}

	results := NewRanker(&mapGeocoder{}).Rank(context.Background(), []Practitioner{a, b}, patientLoc, "")
	require.Len(t, results, 2)
	assert.Equal(t, "Dr. First", results[0].Doctor.Name, "equal scores keep input order")
	assert.Equal(t, results[0].Composite, results[1].Composite)
}

func TestRankUnresolvableDistanceIsNeutral(t *testing.T) {
	patientLoc := Location{FullAddress: "unknown address"}
	doc := Practitioner{ID: uuid.New(), Specialization: SpecGeneral, Location: Location{FullAddress: "also unknown"}}

	results := NewRanker(&mapGeocoder{}).Rank(context.Background(), []Practitioner{doc}, patientLoc, "cavity")
	require.Len(t, results, 1)
	assert.Nil(t, results[0].DistanceKm)
	assert.Equal(t, 1, results[0].DistanceScore)
}

func TestRankNilGeocoder(t *testing.T) {
	doc := Practitioner{ID: uuid.New(), Specialization: SpecGeneral, Location: Location{Area: "Koramangala"}}
	results := NewRanker(nil).Rank(context.Background(), []Practitioner{doc}, Location{Area: "Koramangala"}, "cleaning")
	require.Len(t, results, 1)
	assert.Equal(t, 10, results[0].AreaScore)
	assert.Equal(t, 1, results[0].DistanceScore)
}
