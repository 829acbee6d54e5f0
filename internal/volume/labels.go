package volume

import "github.com/andresmejia3/motility/internal/types"

// Pixel values of a label volume.
const (
	Background     uint8 = 0
	FlagellumLabel uint8 = 1
	HeadLabel      uint8 = 2
)

// Labels paints the head and flagellum of every valid frame into a new
// frames x height x width volume. Invalid frames stay Background. Head wins
// where both parts claim a pixel.
func Labels(frames []types.FrameResult, height, width int) *Volume {
	v := New(len(frames), height, width)
	for k, f := range frames {
		if !f.Valid || f.Segmentation == nil {
			continue
		}
		v.paint(k, f.Segmentation.Flagellum, FlagellumLabel)
		v.paint(k, f.Segmentation.Head, HeadLabel)
	}
	return v
}

func (v *Volume) paint(k int, ps types.PointSet, label uint8) {
	frame := v.Frame(k)
	for _, p := range ps {
		if p.Row < 0 || p.Row >= v.Height || p.Col < 0 || p.Col >= v.Width {
			continue
		}
		frame[p.Row*v.Width+p.Col] = label
	}
}
