package types

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// FrameTask represents a single mask frame sent to an engine for processing
type FrameTask struct {
	Index int
	Mask  []uint8 // row-major, one byte per pixel
	Width int
}

// Point is a pixel coordinate in image space.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// PointSet is an unordered collection of pixels belonging to one region of a frame.
type PointSet []Point

// Axis selects which image axis is treated as the independent variable.
type Axis int

const (
	// Horizontal uses the column as independent value (the cell swims left/right).
	Horizontal Axis = iota
	// Vertical uses the row as independent value (the cell swims up/down).
	Vertical
)

// Independent returns the coordinate of p along the independent axis.
func (a Axis) Independent(p Point) int {
	if a == Vertical {
		return p.Row
	}
	return p.Col
}

// Dependent returns the coordinate of p across the independent axis.
func (a Axis) Dependent(p Point) int {
	if a == Vertical {
		return p.Col
	}
	return p.Row
}

// Point rebuilds an image coordinate from an (independent, dependent) pair.
func (a Axis) Point(ind, dep int) Point {
	if a == Vertical {
		return Point{Row: ind, Col: dep}
	}
	return Point{Row: dep, Col: ind}
}

func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

func (a Axis) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Axis) UnmarshalText(b []byte) error {
	switch string(b) {
	case "horizontal":
		*a = Horizontal
	case "vertical":
		*a = Vertical
	default:
		return fmt.Errorf("unknown axis %q", b)
	}
	return nil
}

// Orientation is the direction along the independent axis the head points to.
type Orientation int

const (
	Increasing Orientation = iota
	Decreasing
)

func (o Orientation) String() string {
	if o == Decreasing {
		return "decreasing"
	}
	return "increasing"
}

func (o Orientation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Orientation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "increasing":
		*o = Increasing
	case "decreasing":
		*o = Decreasing
	default:
		return fmt.Errorf("unknown orientation %q", b)
	}
	return nil
}

// Segmentation is the outcome of a frame that passed the validity test.
type Segmentation struct {
	Body        PointSet    `json:"body"`
	Head        PointSet    `json:"head"`
	Flagellum   PointSet    `json:"flagellum"`
	Axis        Axis        `json:"axis"`
	Orientation Orientation `json:"orientation"`
}

// FrameResult is the per-frame outcome. Segmentation is non-nil iff Valid.
type FrameResult struct {
	Index        int           `json:"index"`
	Valid        bool          `json:"valid"`
	Segmentation *Segmentation `json:"segmentation,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

// Invalid builds the result of a rejected frame.
func Invalid(index int, reason string) FrameResult {
	return FrameResult{Index: index, Reason: reason}
}

// Params are the segmentation thresholds the record was produced with.
type Params struct {
	OutlierCriterion     float64 `json:"outlier_criterion"`
	MaxHeadWidth         float64 `json:"max_head_width"`
	HeadBodyRatio        float64 `json:"head_body_ratio"`
	HeadOutlierCriterion float64 `json:"head_outlier_criterion"`
}

// MotilityRecord aggregates one movie's frame results plus the calibration
// needed by the summary stage.
type MotilityRecord struct {
	MovieID string        `json:"movie_id,omitempty"`
	DeltaT  float64       `json:"delta_t"` // seconds between frames
	Scale   float64       `json:"scale"`   // nm per pixel
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Params  Params        `json:"params"`
	Frames  []FrameResult `json:"frames"`
}

// ValidFrames returns the indices of frames with a usable segmentation.
func (r *MotilityRecord) ValidFrames() []int {
	var out []int
	for _, f := range r.Frames {
		if f.Valid {
			out = append(out, f.Index)
		}
	}
	return out
}

// Centroid returns the mean row and column of the set.
func (ps PointSet) Centroid() (row, col float64, ok bool) {
	if len(ps) == 0 {
		return 0, 0, false
	}
	rows := make([]float64, len(ps))
	cols := make([]float64, len(ps))
	for i, p := range ps {
		rows[i] = float64(p.Row)
		cols[i] = float64(p.Col)
	}
	return stat.Mean(rows, nil), stat.Mean(cols, nil), true
}

// HeadCentroid returns the head center of frame k, if that frame is valid.
func (r *MotilityRecord) HeadCentroid(k int) (row, col float64, ok bool) {
	if k < 0 || k >= len(r.Frames) || !r.Frames[k].Valid || r.Frames[k].Segmentation == nil {
		return 0, 0, false
	}
	return r.Frames[k].Segmentation.Head.Centroid()
}
