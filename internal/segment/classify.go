package segment

import (
	"fmt"
	"sort"
)

// WidthSample is the body thickness at one independent value.
type WidthSample struct {
	X     int `json:"x"`
	Width int `json:"width"`
}

// WidthProfile is ordered by X, one sample per independent value of either curve.
type WidthProfile []WidthSample

// Peak returns the index of the first maximum width, or -1 for an empty profile.
func (w WidthProfile) Peak() int {
	if len(w) == 0 {
		return -1
	}
	p := 0
	for i, s := range w {
		if s.Width > w[p].Width {
			p = i
		}
	}
	return p
}

// Classification is the outcome of the frame validity test.
type Classification struct {
	Good    bool
	Profile WidthProfile
	// Combined holds both curves merged and sorted by X. The partitioner cuts
	// the provisional head out of it.
	Combined []CurvePoint
	Peak     int
}

// Classify builds the width profile of a body from its two boundary curves and
// decides whether the thickest part sits near one end of the body.
//
// Widths above maxHeadWidth contribute zero rather than the cap, so a wide
// spurious segment cannot win the peak search.
func Classify(lower, upper Curve, maxHeadWidth, headBodyRatio float64) (Classification, error) {
	combined := make([]CurvePoint, 0, len(lower)+len(upper))
	combined = append(combined, lower...)
	combined = append(combined, upper...)
	sort.SliceStable(combined, func(i, j int) bool { return combined[i].X < combined[j].X })

	profile := make(WidthProfile, 0, len(combined))
	for i, c := range combined {
		if i > 0 && combined[i-1].X == c.X {
			continue
		}
		s := WidthSample{X: c.X}
		li, ui := lower.Index(c.X), upper.Index(c.X)
		if li >= 0 && ui >= 0 {
			d := lower[li].Y - upper[ui].Y
			if d < 0 {
				d = -d
			}
			if float64(d) <= maxHeadWidth {
				s.Width = d
			}
		}
		profile = append(profile, s)
	}

	n := len(profile)
	if n < 2 {
		return Classification{}, fmt.Errorf("%w: %d distinct independent values", ErrDegenerateFrame, n)
	}

	p := profile.Peak()
	good := float64(p-1)/float64(n) <= headBodyRatio || float64(n-p)/float64(n) <= headBodyRatio

	return Classification{
		Good:     good,
		Profile:  profile,
		Combined: combined,
		Peak:     p,
	}, nil
}
