package geometry

// earthRadiusKm is the WGS-84 equatorial radius, used as the radius of the
// shadow cylinder.
const earthRadiusKm = 6378.137

// InShadow reports whether a satellite is inside Earth's shadow, modeled as
// a cylinder of one Earth radius extending anti-sunward. Both vectors are
// geocentric km in the same inertial frame.
//
// The satellite is eclipsed iff it sits on the anti-sun side of Earth's
// center and its perpendicular distance from the Sun-Earth line is under
// one Earth radius. No penumbra, no umbral cone narrowing.
func InShadow(satECI, sunECI Vec3) bool {
	sunDist := sunECI.Norm()
	if sunDist == 0 {
		return false
	}

	// Projection of the satellite onto the Earth→Sun direction.
	along := satECI.Dot(sunECI) / sunDist
	if along >= 0 {
		return false
	}

	perpSq := satECI.Dot(satECI) - along*along
	return perpSq < earthRadiusKm*earthRadiusKm
}
