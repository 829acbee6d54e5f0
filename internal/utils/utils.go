package utils

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/andresmejia3/motility/internal/volume"
)

// --- 1. Process Safety & Command Wrapping ---

// SafeCommand wraps a standard exec.Cmd with a buffer to catch Stderr (ffmpeg logs)
// This ensures we don't lose critical crash information if a decoder dies.
type SafeCommand struct {
	*exec.Cmd
	Stderr *bytes.Buffer
}

// NewSafeCommand initializes a command and attaches a buffer to its Stderr pipe
// It prepares the command for execution but does not start it.
func NewSafeCommand(ctx context.Context, name string, args ...string) *SafeCommand {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	return &SafeCommand{Cmd: cmd, Stderr: stderr}
}

// ShowError prints a formatted error box. Decoder logs reach it through err,
// which DecodeMaskMovie wraps together with ffmpeg's stderr.
func ShowError(context string, err error) {
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "🚨 MOTILITY ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DETAILS: %v\n", err)
	}
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
}

// --- 2. Mask Movie Decoding ---

// ffprobeOutput is the subset of `ffprobe -of json` we read.
type ffprobeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
}

// GetVideoDimensions asks ffprobe for the frame size of the first video stream.
func GetVideoDimensions(ctx context.Context, path string) (width, height int, err error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return 0, 0, fmt.Errorf("ffprobe not found: %w", err)
	}
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height", "-of", "json", path)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	var res ffprobeOutput
	if err := json.Unmarshal(out, &res); err != nil {
		return 0, 0, fmt.Errorf("ffprobe JSON parse error: %w", err)
	}
	if len(res.Streams) == 0 || res.Streams[0].Width <= 0 || res.Streams[0].Height <= 0 {
		return 0, 0, fmt.Errorf("no video stream in %s", path)
	}
	return res.Streams[0].Width, res.Streams[0].Height, nil
}

// NewFFmpegMaskDecoder creates a decoder pipe that emits 8-bit gray frames on Stdout.
func NewFFmpegMaskDecoder(ctx context.Context, inputPath string) *SafeCommand {
	return NewSafeCommand(ctx, "ffmpeg", "-hide_banner", "-loglevel", "error", "-i", inputPath,
		"-f", "rawvideo", "-pix_fmt", "gray", "-")
}

// ReadRawFrames reads gray frames of height*width bytes until EOF and
// binarizes them (nonzero becomes 1). A trailing partial frame is an error.
func ReadRawFrames(r io.Reader, height, width int) (*volume.Volume, error) {
	frameSize, err := volume.Size(1, height, width)
	if err != nil {
		return nil, err
	}

	var data []uint8
	frames := 0
	buf := make([]byte, frameSize)
	for {
		_, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: partial frame after %d frames", volume.ErrDimensionMismatch, frames)
		}
		if err != nil {
			return nil, err
		}
		if len(data)+frameSize > volume.MaxBytes {
			return nil, fmt.Errorf("%w: movie exceeds %d bytes after %d frames", volume.ErrDimensionMismatch, volume.MaxBytes, frames)
		}
		data = append(data, buf...)
		frames++
	}

	v, err := volume.FromData(frames, height, width, data)
	if err != nil {
		return nil, err
	}
	v.Binarize()
	return v, nil
}

// DecodeMaskMovie decodes a binary mask movie through ffmpeg into memory.
func DecodeMaskMovie(ctx context.Context, path string) (*volume.Volume, error) {
	width, height, err := GetVideoDimensions(ctx, path)
	if err != nil {
		return nil, err
	}

	decoder := NewFFmpegMaskDecoder(ctx, path)
	out, err := decoder.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder pipe: %w", err)
	}
	if err := decoder.Start(); err != nil {
		return nil, fmt.Errorf("failed to start decoder: %w", err)
	}

	vol, readErr := ReadRawFrames(out, height, width)
	if readErr != nil {
		// ffmpeg would block on a full pipe nobody reads anymore.
		_ = decoder.Process.Kill()
		_ = decoder.Wait()
		return nil, readErr
	}
	if err := decoder.Wait(); err != nil {
		if decoder.Stderr.Len() > 0 {
			return nil, fmt.Errorf("decoder failed: %w\n%s", err, decoder.Stderr.String())
		}
		return nil, fmt.Errorf("decoder failed: %w", err)
	}
	return vol, nil
}

// GenerateMovieID creates a deterministic hash for the movie file
// based on its path, size, and modification time.
func GenerateMovieID(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	input := fmt.Sprintf("%s-%d-%d", path, info.Size(), info.ModTime().UnixNano())
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:]), nil
}
