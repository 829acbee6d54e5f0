// Package testutil builds synthetic sperm masks shared by the package tests.
package testutil

import (
	"testing"

	"github.com/andresmejia3/motility/internal/volume"
)

// Size is the edge length of the square fixture frames.
const Size = 40

// DrawSperm paints an elliptical head (semi-axes 6 columns by 5 rows) centered
// on row 20 and a one pixel thick flagellum along row 20 into frame k.
// With headLeft the head sits at column 8 and the flagellum runs right to
// column 39; otherwise the picture is mirrored left to right.
func DrawSperm(v *volume.Volume, k int, headLeft bool) {
	const (
		centerRow = 20
		centerCol = 8
		semiCols  = 6
		semiRows  = 5
	)
	put := func(row, col int) {
		if !headLeft {
			col = v.Width - 1 - col
		}
		v.Set(k, row, col)
	}

	for r := centerRow - semiRows; r <= centerRow+semiRows; r++ {
		for c := centerCol - semiCols; c <= centerCol+semiCols; c++ {
			dr := float64(r-centerRow) / semiRows
			dc := float64(c-centerCol) / semiCols
			if dr*dr+dc*dc <= 1 {
				put(r, c)
			}
		}
	}
	for c := centerCol + 2; c < v.Width; c++ {
		put(centerRow, c)
	}
}

// SpermMovie returns a Size x Size volume with one sperm per entry of headLeft.
func SpermMovie(headLeft ...bool) *volume.Volume {
	v := volume.New(len(headLeft), Size, Size)
	for k, left := range headLeft {
		DrawSperm(v, k, left)
	}
	return v
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
