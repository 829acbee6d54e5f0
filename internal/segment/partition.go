package segment

import (
	"fmt"

	"github.com/andresmejia3/motility/internal/types"
	"gonum.org/v1/gonum/stat"
)

// Parts is the head/flagellum split of one frame.
type Parts struct {
	Head        types.PointSet
	Flagellum   types.PointSet
	Orientation types.Orientation
}

// Partition splits the combined boundary of a good frame into head and
// flagellum. The head is assumed to extend as far past the width peak as the
// peak lies from the near end of the body, so the cut is made at the peak
// index mirrored away from that end.
//
// A mirrored index that falls off the profile (peak on the first sample, or on
// the sample just past the middle of an odd profile) is reported as
// ErrPartitionRange instead of wrapping around.
func Partition(lower, upper Curve, cls Classification, axis types.Axis, headOutlierCriterion float64) (Parts, error) {
	profile := cls.Profile
	n := len(profile)
	p := profile.Peak()
	if p < 0 {
		return Parts{}, fmt.Errorf("%w: empty width profile", ErrDegenerateFrame)
	}

	var parts Parts
	var m int
	if n-p >= p-1 {
		parts.Orientation = types.Increasing
		m = 2*p - 1
	} else {
		parts.Orientation = types.Decreasing
		m = 2*p - n
	}
	if m < 0 || m >= n {
		return Parts{}, fmt.Errorf("%w: peak %d mirrors to %d of %d", ErrPartitionRange, p, m, n)
	}
	x := profile[m].X

	cut := -1
	for i, c := range cls.Combined {
		if c.X == x {
			cut = i
			break
		}
	}
	if cut < 0 {
		return Parts{}, fmt.Errorf("%w: x=%d missing from combined boundary", ErrPartitionLookup, x)
	}

	curve := lower
	at := lower.Index(x)
	if at < 0 {
		curve = upper
		at = upper.Index(x)
	}
	if at < 0 {
		return Parts{}, fmt.Errorf("%w: x=%d in neither boundary curve", ErrPartitionLookup, x)
	}

	var head, tail []CurvePoint
	if parts.Orientation == types.Increasing {
		head = cls.Combined[:cut]
		tail = curve[at:]
	} else {
		head = cls.Combined[cut:]
		tail = curve[:at]
	}

	headKept, moved := reassignHeadOutliers(head, headOutlierCriterion)

	parts.Head = toPoints(headKept, axis)
	parts.Flagellum = make(types.PointSet, 0, len(tail)+len(moved))
	parts.Flagellum = append(parts.Flagellum, toPoints(tail, axis)...)
	parts.Flagellum = append(parts.Flagellum, toPoints(moved, axis)...)
	return parts, nil
}

// reassignHeadOutliers splits the provisional head into points strictly inside
// an absolute box of half-width criterion around its mean, and the rest.
func reassignHeadOutliers(head []CurvePoint, criterion float64) (kept, moved []CurvePoint) {
	if len(head) == 0 {
		return nil, nil
	}
	xs := make([]float64, len(head))
	ys := make([]float64, len(head))
	for i, c := range head {
		xs[i] = float64(c.X)
		ys[i] = float64(c.Y)
	}
	mx, my := stat.Mean(xs, nil), stat.Mean(ys, nil)

	kept = make([]CurvePoint, 0, len(head))
	for i, c := range head {
		x, y := xs[i], ys[i]
		if x <= mx-criterion || x >= mx+criterion || y <= my-criterion || y >= my+criterion {
			moved = append(moved, c)
			continue
		}
		kept = append(kept, c)
	}
	return kept, moved
}

func toPoints(cs []CurvePoint, axis types.Axis) types.PointSet {
	out := make(types.PointSet, len(cs))
	for i, c := range cs {
		out[i] = axis.Point(c.X, c.Y)
	}
	return out
}
