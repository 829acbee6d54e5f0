// Package volume holds binary mask movies in memory.
package volume

import (
	"errors"
	"fmt"
	"math"

	"github.com/andresmejia3/motility/internal/types"
)

// ErrDimensionMismatch is returned when the pixel data does not fill frames*height*width.
var ErrDimensionMismatch = errors.New("volume dimensions do not match data")

// Volume is a frame-major stack of 0/1 masks.
type Volume struct {
	Frames int
	Height int
	Width  int
	Data   []uint8
}

// New allocates an all-zero volume.
func New(frames, height, width int) *Volume {
	return &Volume{Frames: frames, Height: height, Width: width, Data: make([]uint8, frames*height*width)}
}

// MaxBytes caps the pixel data of a single volume.
const MaxBytes = math.MaxInt32

// Size returns frames*height*width, rejecting negative or zero frame sizes and
// products that overflow or exceed MaxBytes.
func Size(frames, height, width int) (int, error) {
	if frames < 0 || height <= 0 || width <= 0 {
		return 0, fmt.Errorf("%w: %dx%dx%d", ErrDimensionMismatch, frames, height, width)
	}
	if height > MaxBytes/width {
		return 0, fmt.Errorf("%w: frame %dx%d exceeds %d bytes", ErrDimensionMismatch, height, width, MaxBytes)
	}
	frameSize := height * width
	if frames > MaxBytes/frameSize {
		return 0, fmt.Errorf("%w: %d frames of %dx%d exceed %d bytes", ErrDimensionMismatch, frames, height, width, MaxBytes)
	}
	return frames * frameSize, nil
}

// FromData wraps existing pixel data after checking its length.
func FromData(frames, height, width int, data []uint8) (*Volume, error) {
	size, err := Size(frames, height, width)
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, fmt.Errorf("%w: %d bytes for %dx%dx%d", ErrDimensionMismatch, len(data), frames, height, width)
	}
	return &Volume{Frames: frames, Height: height, Width: width, Data: data}, nil
}

// FrameSize is the number of pixels in one frame.
func (v *Volume) FrameSize() int { return v.Height * v.Width }

// Frame returns frame k as a view into the volume.
func (v *Volume) Frame(k int) []uint8 {
	n := v.FrameSize()
	return v.Data[k*n : (k+1)*n]
}

// Set marks pixel (row, col) of frame k as foreground.
func (v *Volume) Set(k, row, col int) {
	v.Frame(k)[row*v.Width+col] = 1
}

// Points lists the foreground pixels of frame k in row-major order.
func (v *Volume) Points(k int) types.PointSet {
	return Foreground(v.Frame(k), v.Width)
}

// Foreground lists the nonzero pixels of a row-major mask.
func Foreground(mask []uint8, width int) types.PointSet {
	var ps types.PointSet
	for i, px := range mask {
		if px != 0 {
			ps = append(ps, types.Point{Row: i / width, Col: i % width})
		}
	}
	return ps
}

// Blank zeroes frame k.
func (v *Volume) Blank(k int) {
	clear(v.Frame(k))
}

// Clone returns a deep copy.
func (v *Volume) Clone() *Volume {
	data := make([]uint8, len(v.Data))
	copy(data, v.Data)
	return &Volume{Frames: v.Frames, Height: v.Height, Width: v.Width, Data: data}
}

// SwapFrames exchanges the pixels of frames i and j.
func (v *Volume) SwapFrames(i, j int) {
	a, b := v.Frame(i), v.Frame(j)
	for x := range a {
		a[x], b[x] = b[x], a[x]
	}
}

// Binarize maps every nonzero pixel to 1.
func (v *Volume) Binarize() {
	for i, px := range v.Data {
		if px != 0 {
			v.Data[i] = 1
		}
	}
}
