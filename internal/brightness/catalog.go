package brightness

import "strings"

// standardMagnitudes maps catalog numbers to intrinsic magnitudes,
// referenced to 1000 km range at full phase. Values for well-observed
// objects; everything else falls through to the name patterns.
var standardMagnitudes = map[int]float64{
	25544: -1.8, // ISS
	20580: 2.2,  // Hubble
	27386: 3.7,  // Envisat
}

// namePatterns resolves constellation members by name substring when the
// catalog number is not listed. Checked in order.
var namePatterns = []struct {
	substr string
	mag    float64
}{
	{"STARLINK", 5.5},
	{"ONEWEB", 7.0},
	{"IRIDIUM", 6.9},
}

// defaultStdMag is assumed for objects with no catalog or pattern match.
const defaultStdMag = 6.0

// StdMagnitude returns the standard magnitude for a satellite. Catalog
// number matches win over name patterns.
func StdMagnitude(catalogID int, name string) float64 {
	if m, ok := standardMagnitudes[catalogID]; ok {
		return m
	}
	upper := strings.ToUpper(name)
	for _, p := range namePatterns {
		if strings.Contains(upper, p.substr) {
			return p.mag
		}
	}
	return defaultStdMag
}
