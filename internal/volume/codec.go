package volume

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Magic prefixes every raw volume file.
var Magic = [4]byte{'M', 'V', 'O', 'L'}

// Ext is the file extension of raw volumes.
const Ext = ".mvol"

// Encode writes the volume as [Magic][Frames][Height][Width][Data], big-endian uint32 header.
func Encode(w io.Writer, v *Volume) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	header := [3]uint32{uint32(v.Frames), uint32(v.Height), uint32(v.Width)}
	if err := binary.Write(w, binary.BigEndian, header); err != nil {
		return err
	}
	_, err := w.Write(v.Data)
	return err
}

// headerLen is the encoded size of Magic plus the three dimensions.
const headerLen = 4 + 3*4

// Decode reads a volume written by Encode.
func Decode(r io.Reader) (*Volume, error) {
	frames, height, width, size, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	return readData(r, frames, height, width, size)
}

func readHeader(r io.Reader) (frames, height, width, size int, err error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to read volume magic: %w", err)
	}
	if magic != Magic {
		return 0, 0, 0, 0, fmt.Errorf("not a mask volume (magic %q)", magic[:])
	}

	var header [3]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("failed to read volume header: %w", err)
	}
	frames, height, width = int(header[0]), int(header[1]), int(header[2])
	size, err = Size(frames, height, width)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return frames, height, width, size, nil
}

// readData grows the buffer as bytes arrive, so a header that overstates the
// stream length fails without allocating the claimed size up front.
func readData(r io.Reader, frames, height, width, size int) (*Volume, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(size)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDimensionMismatch, err)
	}
	switch {
	case len(data) < size:
		return nil, fmt.Errorf("%w: %d of %d data bytes", ErrDimensionMismatch, len(data), size)
	case len(data) > size:
		return nil, fmt.Errorf("%w: trailing data after %d frames", ErrDimensionMismatch, frames)
	}
	return FromData(frames, height, width, data)
}

// ReadFile decodes a raw volume from disk. The header must account for the
// exact file size before any pixel memory is allocated.
func ReadFile(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	r := bufio.NewReader(f)
	frames, height, width, size, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if want := int64(headerLen) + int64(size); info.Size() != want {
		return nil, fmt.Errorf("%w: header claims %d bytes, file has %d", ErrDimensionMismatch, want, info.Size())
	}
	return readData(r, frames, height, width, size)
}

// WriteFile encodes a raw volume to disk.
func WriteFile(path string, v *Volume) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := Encode(w, v); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
