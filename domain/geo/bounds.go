package geo

import "math"

// Span is a closed longitude interval. Intervals never cross the antimeridian;
// a box that does is split into two spans.
type Span struct {
	MinLon, MaxLon float64
}

// Bounds is a latitude band with one or two longitude spans covering a cap.
type Bounds struct {
	MinLat, MaxLat float64
	Spans          []Span
}

// Bounds returns a box that fully covers the cap. Caps reaching a pole
// cover every longitude.
func (q Query) Bounds() Bounds {
	angDeg := toDegrees(q.AngularRadius())
	minLat := q.Center.Latitude - angDeg
	maxLat := q.Center.Latitude + angDeg

	if minLat <= -90 || maxLat >= 90 || angDeg >= 90 {
		return Bounds{
			MinLat: math.Max(minLat, -90),
			MaxLat: math.Min(maxLat, 90),
			Spans:  []Span{{MinLon: -180, MaxLon: 180}},
		}
	}

	ratio := math.Sin(q.AngularRadius()) / math.Cos(toRadians(q.Center.Latitude))
	if ratio >= 1 {
		return Bounds{MinLat: minLat, MaxLat: maxLat, Spans: []Span{{MinLon: -180, MaxLon: 180}}}
	}
	dLon := toDegrees(math.Asin(ratio))
	minLon := q.Center.Longitude - dLon
	maxLon := q.Center.Longitude + dLon

	var spans []Span
	switch {
	case minLon < -180:
		spans = []Span{{MinLon: minLon + 360, MaxLon: 180}, {MinLon: -180, MaxLon: maxLon}}
	case maxLon > 180:
		spans = []Span{{MinLon: minLon, MaxLon: 180}, {MinLon: -180, MaxLon: maxLon - 360}}
	default:
		spans = []Span{{MinLon: minLon, MaxLon: maxLon}}
	}
	return Bounds{MinLat: minLat, MaxLat: maxLat, Spans: spans}
}

// Cell is a one degree grid square addressed by shifted, non negative indices.
type Cell struct {
	X, Y int
}

// CellOf returns the grid cell holding p.
func CellOf(p Point) Cell {
	x := int(math.Floor(p.Longitude)) + 180
	y := int(math.Floor(p.Latitude)) + 90
	return Cell{X: min(x, 359), Y: min(y, 179)}
}

// Cells enumerates the grid cells intersecting the box. It returns false
// when there are more than limit cells, in which case a full scan is cheaper.
func (b Bounds) Cells(limit int) ([]Cell, bool) {
	minY := CellOf(Point{Latitude: b.MinLat}).Y
	maxY := CellOf(Point{Latitude: b.MaxLat}).Y

	var cells []Cell
	for _, s := range b.Spans {
		minX := CellOf(Point{Longitude: s.MinLon}).X
		maxX := CellOf(Point{Longitude: s.MaxLon}).X
		if (maxX-minX+1)*(maxY-minY+1)+len(cells) > limit {
			return nil, false
		}
		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				cells = append(cells, Cell{X: x, Y: y})
			}
		}
	}
	return cells, true
}
