package segment

import (
	"sort"

	"github.com/andresmejia3/motility/internal/types"
)

// Side picks which envelope ExtractBoundary returns.
type Side int

const (
	Lower Side = iota
	Upper
)

// CurvePoint is one (independent, dependent) sample of a boundary curve.
type CurvePoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Curve is a boundary curve with strictly increasing X.
type Curve []CurvePoint

// Index returns the position of x in the curve, or -1.
func (c Curve) Index(x int) int {
	i := sort.Search(len(c), func(i int) bool { return c[i].X >= x })
	if i < len(c) && c[i].X == x {
		return i
	}
	return -1
}

// ExtractBoundary reduces ps to one envelope along axis: for each independent
// value the smallest (Lower) or largest (Upper) dependent value.
func ExtractBoundary(ps types.PointSet, axis types.Axis, side Side) Curve {
	extreme := make(map[int]int, len(ps))
	for _, p := range ps {
		x, y := axis.Independent(p), axis.Dependent(p)
		cur, seen := extreme[x]
		switch {
		case !seen:
			extreme[x] = y
		case side == Lower && y < cur:
			extreme[x] = y
		case side == Upper && y > cur:
			extreme[x] = y
		}
	}

	c := make(Curve, 0, len(extreme))
	for x, y := range extreme {
		c = append(c, CurvePoint{X: x, Y: y})
	}
	sort.Slice(c, func(i, j int) bool { return c[i].X < c[j].X })
	return c
}

// DominantAxis picks the axis with more distinct values as independent.
// Ties go to Horizontal.
func DominantAxis(ps types.PointSet) types.Axis {
	rows := make(map[int]struct{})
	cols := make(map[int]struct{})
	for _, p := range ps {
		rows[p.Row] = struct{}{}
		cols[p.Col] = struct{}{}
	}
	if len(cols) >= len(rows) {
		return types.Horizontal
	}
	return types.Vertical
}
