package assignment

import "strings"

// AreaScore rates how close a practitioner is to the patient using only the
// textual location descriptors, 0-10. Check order matters and is part of
// the contract: exact area, then same city, then pincode prefixes as a
// fallback. A 3-digit pincode match (7) deliberately outranks a city match
// (6); callers depend on this exact precedence.
func AreaScore(patient, doctor Location) (int, string) {
	pArea := normalizePlace(patient.Area)
	dArea := normalizePlace(doctor.Area)
	if pArea != "" && pArea == dArea {
		return 10, "same area"
	}

	pCity := normalizePlace(patient.City)
	dCity := normalizePlace(doctor.City)
	if pCity != "" && pCity == dCity {
		return 6, "same city"
	}

	pPin := strings.TrimSpace(patient.Pincode)
	dPin := strings.TrimSpace(doctor.Pincode)
	if pPin != "" && dPin != "" {
		switch {
		case pPin == dPin:
			return 10, "same pincode"
		case prefixMatch(pPin, dPin, 3):
			return 7, "pincode prefix (3)"
		case prefixMatch(pPin, dPin, 2):
			return 4, "pincode prefix (2)"
		case prefixMatch(pPin, dPin, 1):
			return 2, "pincode prefix (1)"
		}
	}

	return 0, "no area match"
}

func normalizePlace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func prefixMatch(a, b string, n int) bool {
	return len(a) >= n && len(b) >= n && a[:n] == b[:n]
}

// DistanceScore converts a great-circle distance into a 1-10 score. A nil
// distance means the geocoder could not resolve one or both addresses and
// scores as the neutral minimum rather than an error.
func DistanceScore(km *float64) int {
	if km == nil {
		return 1
	}
	switch {
	case *km <= 5:
		return 10
	case *km <= 10:
		return 8
	case *km <= 20:
		return 6
	case *km <= 50:
		return 4
	case *km <= 100:
		return 2
	default:
		return 1
	}
}

// ParseLocation builds a structured location descriptor from free text.
// Comma-separated segments map to area, city, state in order; a 6-digit
// token anywhere becomes the pincode. The raw text is kept as the full
// address for geocoding.
func ParseLocation(text string) Location {
	loc := Location{FullAddress: strings.TrimSpace(text)}

	segments := strings.Split(text, ",")
	var places []string
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if isPincode(seg) && loc.Pincode == "" {
			loc.Pincode = seg
			continue
		}
		places = append(places, seg)
	}

	if len(places) > 0 {
		loc.Area = places[0]
	}
	if len(places) > 1 {
		loc.City = places[1]
	}
	if len(places) > 2 {
		loc.State = places[2]
	}
	return loc
}

func isPincode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// LocationText flattens a location descriptor into geocodable free text,
// preferring the full address over the assembled parts.
func LocationText(loc Location) string {
	if strings.TrimSpace(loc.FullAddress) != "" {
		return strings.TrimSpace(loc.FullAddress)
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{loc.Area, loc.City, loc.State, loc.Pincode} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}
