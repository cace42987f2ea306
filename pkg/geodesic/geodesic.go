// Package geodesic implements direct and inverse geodesics on the WGS-84
// ellipsoid (Vincenty's formulae). The engine uses it when geodesic fidelity
// is requested: bounding extension, hit ordering and segment offsetting then
// all measure true ground meters instead of the planar approximation.
package geodesic

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/kass/go-geo-hatch/pkg/models"
)

// WGS-84 reference ellipsoid.
const (
	semiMajorAxis = 6378137.0
	flattening    = 1 / 298.257223563
	semiMinorAxis = semiMajorAxis * (1 - flattening)

	meanRadius = 6371000.0

	convergence   = 1e-12
	maxIterations = 200
)

// Destination returns the point reached by travelling distanceMeters from
// origin along the given initial compass bearing (Vincenty direct).
func Destination(origin models.GeoPoint, bearingDeg, distanceMeters float64) models.GeoPoint {
	if distanceMeters == 0 {
		return origin
	}

	lat1 := origin.Lat * math.Pi / 180
	lon1 := origin.Lon * math.Pi / 180
	alpha1 := bearingDeg * math.Pi / 180

	sinAlpha1 := math.Sin(alpha1)
	cosAlpha1 := math.Cos(alpha1)

	tanU1 := (1 - flattening) * math.Tan(lat1)
	cosU1 := 1 / math.Sqrt(1+tanU1*tanU1)
	sinU1 := tanU1 * cosU1

	sigma1 := math.Atan2(tanU1, cosAlpha1)
	sinAlpha := cosU1 * sinAlpha1
	cosSqAlpha := 1 - sinAlpha*sinAlpha

	uSq := cosSqAlpha * (semiMajorAxis*semiMajorAxis - semiMinorAxis*semiMinorAxis) / (semiMinorAxis * semiMinorAxis)
	a := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	b := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))

	sigma := distanceMeters / (semiMinorAxis * a)
	var sinSigma, cosSigma, cos2SigmaM float64
	for i := 0; i < maxIterations; i++ {
		cos2SigmaM = math.Cos(2*sigma1 + sigma)
		sinSigma = math.Sin(sigma)
		cosSigma = math.Cos(sigma)
		deltaSigma := b * sinSigma * (cos2SigmaM + b/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
			b/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))
		next := distanceMeters/(semiMinorAxis*a) + deltaSigma
		if math.Abs(next-sigma) < convergence {
			sigma = next
			break
		}
		sigma = next
	}
	cos2SigmaM = math.Cos(2*sigma1 + sigma)
	sinSigma = math.Sin(sigma)
	cosSigma = math.Cos(sigma)

	tmp := sinU1*sinSigma - cosU1*cosSigma*cosAlpha1
	lat2 := math.Atan2(sinU1*cosSigma+cosU1*sinSigma*cosAlpha1,
		(1-flattening)*math.Sqrt(sinAlpha*sinAlpha+tmp*tmp))
	lambda := math.Atan2(sinSigma*sinAlpha1, cosU1*cosSigma-sinU1*sinSigma*cosAlpha1)
	c := flattening / 16 * cosSqAlpha * (4 + flattening*(4-3*cosSqAlpha))
	l := lambda - (1-c)*flattening*sinAlpha*
		(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
	lon2 := lon1 + l

	return models.GeoPoint{
		Lon: normalizeLon(lon2 * 180 / math.Pi),
		Lat: lat2 * 180 / math.Pi,
	}
}

// Distance returns the ellipsoidal distance between two points in meters
// (Vincenty inverse). Near-antipodal pairs where the iteration does not
// converge fall back to the spherical great-circle distance.
func Distance(p1, p2 models.GeoPoint) float64 {
	if p1 == p2 {
		return 0
	}

	lat1 := p1.Lat * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	l := (p2.Lon - p1.Lon) * math.Pi / 180

	tanU1 := (1 - flattening) * math.Tan(lat1)
	cosU1 := 1 / math.Sqrt(1+tanU1*tanU1)
	sinU1 := tanU1 * cosU1
	tanU2 := (1 - flattening) * math.Tan(lat2)
	cosU2 := 1 / math.Sqrt(1+tanU2*tanU2)
	sinU2 := tanU2 * cosU2

	lambda := l
	var sinSigma, cosSigma, sigma, sinAlpha, cosSqAlpha, cos2SigmaM float64
	converged := false
	for i := 0; i < maxIterations; i++ {
		sinLambda := math.Sin(lambda)
		cosLambda := math.Cos(lambda)
		sinSigma = math.Sqrt(math.Pow(cosU2*sinLambda, 2) +
			math.Pow(cosU1*sinU2-sinU1*cosU2*cosLambda, 2))
		if sinSigma == 0 {
			return 0 // coincident points
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha = cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha
		if cosSqAlpha == 0 {
			cos2SigmaM = 0 // equatorial line
		} else {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		}
		c := flattening / 16 * cosSqAlpha * (4 + flattening*(4-3*cosSqAlpha))
		next := l + (1-c)*flattening*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
		if math.Abs(next-lambda) < convergence {
			lambda = next
			converged = true
			break
		}
		lambda = next
	}
	if !converged {
		return greatCircle(p1, p2)
	}

	uSq := cosSqAlpha * (semiMajorAxis*semiMajorAxis - semiMinorAxis*semiMinorAxis) / (semiMinorAxis * semiMinorAxis)
	a := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	b := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := b * sinSigma * (cos2SigmaM + b/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		b/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	return semiMinorAxis * a * (sigma - deltaSigma)
}

// greatCircle is the spherical fallback for near-antipodal pairs.
func greatCircle(p1, p2 models.GeoPoint) float64 {
	ll1 := s2.LatLngFromDegrees(p1.Lat, p1.Lon)
	ll2 := s2.LatLngFromDegrees(p2.Lat, p2.Lon)
	return ll1.Distance(ll2).Radians() * meanRadius
}

// Haversine returns the spherical distance between two points in meters.
// Cheaper than the full inverse geodesic, used for coarse filtering.
func Haversine(p1, p2 models.GeoPoint) float64 {
	lat1 := p1.Lat * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (p2.Lon - p1.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return meanRadius * c
}

func normalizeLon(deg float64) float64 {
	lon := math.Mod(deg+540, 360) - 180
	if lon == -180 {
		return 180
	}
	return lon
}
