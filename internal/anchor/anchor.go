// Package anchor extracts on-curve anchor points from vector path strokes.
//
// A stroke stores its Bézier data as a flat list of coordinates in groups
// of six numbers per node:
//
//	in.x, in.y, anchor.x, anchor.y, out.x, out.y
//
// where "in" and "out" are the control points on either side of the
// anchor. Only the anchors are of interest when placing labels.
package anchor

// Point is a position in image pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one connected piece of a path.
type Stroke struct {
	Points []float64 `json:"points"`
	Closed bool      `json:"closed"`
}

// Path is a vector path made of strokes in drawing order.
type Path struct {
	Strokes []Stroke `json:"strokes"`
}

// groupSize is the number of coordinates per node.
const groupSize = 6

// anchorOffset is the index of anchor.x inside a node.
const anchorOffset = 2

// Extract returns the anchor points of a flat control-point list, in
// order. Trailing coordinates that do not form a complete anchor pair are
// ignored.
func Extract(points []float64) []Point {
	anchors := make([]Point, 0, len(points)/groupSize+1)
	for i := anchorOffset; i+1 < len(points); i += groupSize {
		anchors = append(anchors, Point{X: points[i], Y: points[i+1]})
	}
	return anchors
}

// Anchors returns the anchors of every stroke of p in traversal order.
func (p *Path) Anchors() []Point {
	var anchors []Point
	for _, s := range p.Strokes {
		anchors = append(anchors, Extract(s.Points)...)
	}
	return anchors
}
