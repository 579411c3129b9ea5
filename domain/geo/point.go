// Package geo holds the spherical geometry used by proximity queries.
// Coordinates are WGS84 degrees, distances are kilometres on a sphere.
package geo

import (
	"fmt"
	"math"
	"sharecircle/errors"

	"github.com/go-playground/validator/v10"
)

// EarthRadiusKm is the equatorial radius used to turn a distance into an angle.
const EarthRadiusKm = 6378.1

// boundaryEpsilon absorbs floating point noise so a point lying exactly
// on the circle is kept.
const boundaryEpsilon = 1e-12

var validate = validator.New()

type Point struct {
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
}

func NewPoint(longitude, latitude float64) Point {
	return Point{Longitude: longitude, Latitude: latitude}
}

// Validate rejects out of range or non finite coordinates.
func (p Point) Validate() error {
	if math.IsNaN(p.Longitude) || math.IsNaN(p.Latitude) {
		return fmt.Errorf("%w: coordinates must be numbers", errors.ErrInvalidQuery)
	}
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: longitude must be within [-180,180] and latitude within [-90,90]", errors.ErrInvalidQuery)
	}
	return nil
}

// Query is a spherical cap: every point whose great-circle distance to
// Center is at most RadiusKm.
type Query struct {
	Center   Point
	RadiusKm float64
}

func (q Query) Validate() error {
	if err := q.Center.Validate(); err != nil {
		return err
	}
	if math.IsNaN(q.RadiusKm) || math.IsInf(q.RadiusKm, 0) || q.RadiusKm <= 0 {
		return fmt.Errorf("%w: radius must be a positive number of kilometres", errors.ErrInvalidQuery)
	}
	return nil
}

// AngularRadius returns the radius of the cap in radians.
func (q Query) AngularRadius() float64 {
	return q.RadiusKm / EarthRadiusKm
}

// Contains reports whether p lies inside the cap, boundary included.
func (q Query) Contains(p Point) bool {
	return CentralAngle(q.Center, p) <= q.AngularRadius()+boundaryEpsilon
}

// CentralAngle is the haversine angle in radians between a and b.
func CentralAngle(a, b Point) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := lat2 - lat1
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(1, math.Max(0, h))
	return 2 * math.Asin(math.Sqrt(h))
}

// DistanceKm is the great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	return CentralAngle(a, b) * EarthRadiusKm
}

// Destination moves from origin along the given bearing (degrees, clockwise
// from north) for distanceKm.
func Destination(origin Point, bearing, distanceKm float64) Point {
	delta := distanceKm / EarthRadiusKm
	theta := toRadians(bearing)
	lat1 := toRadians(origin.Latitude)
	lon1 := toRadians(origin.Longitude)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)
	return Point{Longitude: normalizeLongitude(toDegrees(lon2)), Latitude: toDegrees(lat2)}
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+540, 360) - 180
	if lon == -180 {
		return 180
	}
	return lon
}
