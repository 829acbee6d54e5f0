package volume

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresmejia3/motility/internal/types"
	"github.com/google/go-cmp/cmp"
)

func TestPoints(t *testing.T) {
	v := New(2, 3, 4)
	v.Set(1, 2, 3)
	v.Set(1, 0, 1)
	v.Set(0, 1, 1)

	want := types.PointSet{{Row: 0, Col: 1}, {Row: 2, Col: 3}}
	if diff := cmp.Diff(want, v.Points(1)); diff != "" {
		t.Errorf("Points(1) mismatch (-want +got):\n%s", diff)
	}
	if got := len(v.Points(0)); got != 1 {
		t.Errorf("Points(0) has %d pixels, want 1", got)
	}
}

func TestBlankAndClone(t *testing.T) {
	v := New(2, 2, 2)
	v.Set(0, 0, 0)
	v.Set(1, 1, 1)

	c := v.Clone()
	c.Blank(1)
	if len(c.Points(1)) != 0 {
		t.Error("Blank left pixels behind")
	}
	if len(v.Points(1)) != 1 {
		t.Error("Blank on a clone changed the original")
	}
	if len(c.Points(0)) != 1 {
		t.Error("Blank touched a neighbouring frame")
	}
}

func TestSwapFrames(t *testing.T) {
	v := New(3, 2, 2)
	v.Set(0, 0, 0)
	v.Set(2, 1, 1)
	v.SwapFrames(0, 2)
	if v.Frame(0)[3] != 1 || v.Frame(2)[0] != 1 || v.Frame(0)[0] != 0 {
		t.Errorf("unexpected data after swap: %v", v.Data)
	}
}

func TestFromData(t *testing.T) {
	if _, err := FromData(2, 2, 2, make([]uint8, 7)); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("short data: err = %v, want ErrDimensionMismatch", err)
	}
	if _, err := FromData(1, 0, 2, nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("zero height: err = %v, want ErrDimensionMismatch", err)
	}
	if _, err := FromData(4, math.MaxInt32, math.MaxInt32, nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("overflowing dimensions: err = %v, want ErrDimensionMismatch", err)
	}
	v, err := FromData(0, 4, 4, nil)
	if err != nil || v.Frames != 0 {
		t.Errorf("empty movie: v = %+v, err = %v", v, err)
	}
}

func TestCodec(t *testing.T) {
	v := New(2, 3, 5)
	v.Set(0, 1, 4)
	v.Set(1, 2, 0)

	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()

	got, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(v, got); diff != "" {
		t.Errorf("decoded volume mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name     string
		data     []byte
		mismatch bool
	}{
		{"Bad magic", append([]byte("NOPE"), raw[4:]...), false},
		{"Truncated header", raw[:8], false},
		{"Truncated data", raw[:len(raw)-1], true},
		{"Trailing data", append(append([]byte{}, raw...), 0), true},
		{"Huge dimensions", header(0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF), true},
		{"Dimensions wrap to zero", header(4, 1<<31, 1<<31), true},
		{"Header overstates the stream", header(1, 1<<15, 1<<15), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.mismatch && !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("err = %v, want ErrDimensionMismatch", err)
			}
		})
	}
}

// header encodes a volume header with no pixel data behind it.
func header(frames, height, width uint32) []byte {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	binary.Write(&buf, binary.BigEndian, [3]uint32{frames, height, width})
	return buf.Bytes()
}

func TestSize(t *testing.T) {
	tests := []struct {
		name                  string
		frames, height, width int
		want                  int
		wantErr               bool
	}{
		{"Regular", 3, 40, 40, 4800, false},
		{"No frames", 0, 40, 40, 0, false},
		{"Zero width", 3, 40, 0, 0, true},
		{"Negative frames", -1, 40, 40, 0, true},
		{"Frame too large", 1, math.MaxInt32, math.MaxInt32, 0, true},
		{"Movie too large", 1 << 20, 1 << 10, 1 << 10, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Size(tt.frames, tt.height, tt.width)
			if tt.wantErr {
				if !errors.Is(err, ErrDimensionMismatch) {
					t.Errorf("Size() error = %v, want ErrDimensionMismatch", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Size() = %d, %v, want %d", got, err, tt.want)
			}
		})
	}
}

func TestReadFileHeaderMismatch(t *testing.T) {
	v := New(2, 4, 4)
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	// Claim ten frames while the file holds two.
	binary.BigEndian.PutUint32(raw[4:8], 10)

	path := filepath.Join(t.TempDir(), "lying"+Ext)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("ReadFile() error = %v, want ErrDimensionMismatch", err)
	}

	path = filepath.Join(t.TempDir(), "huge"+Ext)
	if err := os.WriteFile(path, header(0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("ReadFile() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	v := New(1, 4, 4)
	v.Set(0, 3, 3)
	path := filepath.Join(t.TempDir(), "movie"+Ext)

	if err := WriteFile(path, v); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if diff := cmp.Diff(v, got); diff != "" {
		t.Errorf("file round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLabels(t *testing.T) {
	frames := []types.FrameResult{
		types.Invalid(0, "degenerate frame"),
		{
			Index: 1,
			Valid: true,
			Segmentation: &types.Segmentation{
				Head:      types.PointSet{{Row: 0, Col: 0}, {Row: 1, Col: 1}},
				Flagellum: types.PointSet{{Row: 1, Col: 1}, {Row: 2, Col: 2}, {Row: 9, Col: 9}},
			},
		},
	}

	v := Labels(frames, 3, 3)
	if v.Frames != 2 || v.Height != 3 || v.Width != 3 {
		t.Fatalf("got %dx%dx%d, want 2x3x3", v.Frames, v.Height, v.Width)
	}
	if got := len(v.Points(0)); got != 0 {
		t.Errorf("invalid frame has %d labelled pixels", got)
	}
	want := []uint8{
		HeadLabel, 0, 0,
		0, HeadLabel, 0,
		0, 0, FlagellumLabel,
	}
	if diff := cmp.Diff(want, v.Frame(1)); diff != "" {
		t.Errorf("label frame mismatch (-want +got):\n%s", diff)
	}
}
