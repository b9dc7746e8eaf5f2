package data

import "math"

// PolygonArea computes the area enclosed by a polygon using the
// shoelace formula. The polygon may be open or closed; winding order
// does not matter. Fewer than three vertices yield zero.
func PolygonArea(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}

	var sum float64
	n := len(points)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += points[i].X*points[j].Y - points[j].X*points[i].Y
	}
	return math.Abs(sum) / 2
}
