package geom

import "math"

// Lambert-93 (EPSG:2154) projection parameters: the Lambert conformal conic
// used for metropolitan France, on the GRS80 ellipsoid (RGF93 datum).
// Projecting into it makes distances and areas true meters across France.
const (
	grs80A = 6378137.0         // semi-major axis (m)
	grs80F = 1 / 298.257222101 // flattening

	l93Lat0 = 46.5 * math.Pi / 180 // latitude of origin
	l93Lon0 = 3.0 * math.Pi / 180  // central meridian
	l93Lat1 = 44.0 * math.Pi / 180 // first standard parallel
	l93Lat2 = 49.0 * math.Pi / 180 // second standard parallel
	l93X0   = 700000.0             // false easting (m)
	l93Y0   = 6600000.0            // false northing (m)
)

var (
	l93E    = math.Sqrt(2*grs80F - grs80F*grs80F)
	l93N    float64
	l93AF   float64 // a * F
	l93Rho0 float64
)

func init() {
	m1 := lccM(l93Lat1)
	m2 := lccM(l93Lat2)
	t0 := lccT(l93Lat0)
	t1 := lccT(l93Lat1)
	t2 := lccT(l93Lat2)

	l93N = (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	l93AF = grs80A * m1 / (l93N * math.Pow(t1, l93N))
	l93Rho0 = l93AF * math.Pow(t0, l93N)
}

func lccM(lat float64) float64 {
	sin := math.Sin(lat)
	return math.Cos(lat) / math.Sqrt(1-l93E*l93E*sin*sin)
}

func lccT(lat float64) float64 {
	sin := math.Sin(lat)
	return math.Tan(math.Pi/4-lat/2) /
		math.Pow((1-l93E*sin)/(1+l93E*sin), l93E/2)
}

// Lambert93 projects a WGS84 coordinate (degrees) into EPSG:2154 meters.
// RGF93 and WGS84 agree to well under a meter, far below the precision of
// crowd-sourced footprints, so no datum shift is applied.
func Lambert93(lat, lon float64) Point {
	latR := lat * math.Pi / 180
	lonR := lon * math.Pi / 180

	rho := l93AF * math.Pow(lccT(latR), l93N)
	theta := l93N * (lonR - l93Lon0)

	return Point{
		X: l93X0 + rho*math.Sin(theta),
		Y: l93Y0 + l93Rho0 - rho*math.Cos(theta),
	}
}
