package geometry

import "math"

// LookAngles holds azimuth, elevation, and range from observer to satellite.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
}

// LookAt computes azimuth, elevation, and range from the observer to a
// satellite position in ECEF km, using the SEZ (South-East-Zenith)
// topocentric rotation per Vallado Section 4.4.
//
// Azimuth is atan2(-east, south) + π: the south-referenced angle offset
// onto the compass so that 0 = North, 90 = East.
func (o Observer) LookAt(sat Vec3) LookAngles {
	// Range vector in ECEF.
	rx := sat.X - o.ECEF.X
	ry := sat.Y - o.ECEF.Y
	rz := sat.Z - o.ECEF.Z

	// Rotate into SEZ.
	south := o.sinLat*o.cosLon*rx + o.sinLat*o.sinLon*ry - o.cosLat*rz
	east := -o.sinLon*rx + o.cosLon*ry
	zenith := o.cosLat*o.cosLon*rx + o.cosLat*o.sinLon*ry + o.sinLat*rz

	rangeKm := math.Sqrt(south*south + east*east + zenith*zenith)

	el := math.Asin(zenith / rangeKm)

	az := math.Atan2(-east, south) + math.Pi
	if az >= 2*math.Pi {
		az -= 2 * math.Pi
	}

	return LookAngles{
		AzimuthDeg:   az * 180.0 / math.Pi,
		ElevationDeg: el * 180.0 / math.Pi,
		RangeKm:      rangeKm,
	}
}
