package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/andresmejia3/motility/internal/segment"
	"github.com/andresmejia3/motility/internal/types"
	"github.com/andresmejia3/motility/internal/volume"
)

// FrameFunc turns the foreground pixels of one frame into its result.
type FrameFunc func(index int, pixels types.PointSet, params types.Params) types.FrameResult

// Pool fans the frames of a movie out to a fixed number of engines.
type Pool struct {
	Engines int
	Params  types.Params
	// Process defaults to segment.ProcessFrame.
	Process FrameFunc
}

// Output is what a Pool run leaves behind.
type Output struct {
	Frames []types.FrameResult // indexed by frame number
	Movie  *volume.Volume      // input copy with invalid frames blanked
}

// Run processes every frame of vol. emit, if non-nil, is called once per frame
// in frame order, from a single goroutine, as soon as all earlier frames are done.
// A frame that fails (even by panicking) is recorded as invalid; only
// cancellation of ctx aborts the run.
func (p *Pool) Run(ctx context.Context, vol *volume.Volume, emit func(types.FrameResult)) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engines := p.Engines
	if engines < 1 {
		engines = 1
	}

	out := &Output{
		Frames: make([]types.FrameResult, vol.Frames),
		Movie:  vol.Clone(),
	}

	taskChan := make(chan types.FrameTask, engines)
	doneChan := make(chan int, engines*2)
	var wg sync.WaitGroup

	for i := 0; i < engines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				res := p.processSafe(task)
				// Each engine owns its frame's slot and its frame's pixels.
				out.Frames[task.Index] = res
				if !res.Valid {
					out.Movie.Blank(task.Index)
				}
				select {
				case doneChan <- task.Index:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(taskChan)
		for k := 0; k < vol.Frames; k++ {
			select {
			case taskChan <- types.FrameTask{Index: k, Mask: vol.Frame(k), Width: vol.Width}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(doneChan)
	}()

	// Re-order completions (engine 2 may finish before engine 1).
	buffer := make(map[int]bool)
	nextFrame := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case idx, ok := <-doneChan:
			if !ok {
				if nextFrame != vol.Frames {
					return nil, fmt.Errorf("engines stopped after %d of %d frames", nextFrame, vol.Frames)
				}
				return out, nil
			}
			buffer[idx] = true
			for buffer[nextFrame] {
				delete(buffer, nextFrame)
				if emit != nil {
					emit(out.Frames[nextFrame])
				}
				nextFrame++
			}
		}
	}
}

func (p *Pool) processSafe(task types.FrameTask) (res types.FrameResult) {
	process := p.Process
	if process == nil {
		process = segment.ProcessFrame
	}
	defer func() {
		if r := recover(); r != nil {
			res = types.Invalid(task.Index, fmt.Sprintf("engine panic: %v", r))
		}
	}()
	pixels := volume.Foreground(task.Mask, task.Width)
	return process(task.Index, pixels, p.Params)
}

// Record assembles the motility record of a finished run.
func (o *Output) Record(movieID string, deltaT, scale float64, params types.Params) *types.MotilityRecord {
	return &types.MotilityRecord{
		MovieID: movieID,
		DeltaT:  deltaT,
		Scale:   scale,
		Width:   o.Movie.Width,
		Height:  o.Movie.Height,
		Params:  params,
		Frames:  o.Frames,
	}
}
