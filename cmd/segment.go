package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresmejia3/motility/internal/config"
	"github.com/andresmejia3/motility/internal/log"
	"github.com/andresmejia3/motility/internal/types"
	"github.com/andresmejia3/motility/internal/utils"
	"github.com/andresmejia3/motility/internal/volume"
	"github.com/andresmejia3/motility/internal/worker"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const (
	recordFile     = "record.json"
	goodFramesFile = "good_frames" + volume.Ext
	labelsFile     = "head_flagellum" + volume.Ext
)

var segmentOpts Options

var segmentCmd = &cobra.Command{
	Use:         "segment",
	Short:       "Separate head and flagellum in every frame of a binary mask movie",
	Annotations: map[string]string{dbAnnotation: dbOptional},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		run, err := resolveRun(segmentOpts, cmd.Flags().Changed)
		if err != nil {
			utils.ShowError("Invalid configuration", err)
			return err
		}
		_, err = runSegment(cmd.Context(), segmentOpts, run)
		return err
	},
}

func init() {
	segmentCmd.Flags().StringVarP(&segmentOpts.InputPath, "input", "i", "", "Path to the mask movie (.mvol or any ffmpeg-readable binary mask video)")
	segmentCmd.Flags().StringVarP(&segmentOpts.OutputDir, "output", "o", ".", "Directory for record.json, good_frames.mvol, and head_flagellum.mvol")
	segmentCmd.Flags().StringVarP(&segmentOpts.ConfigPath, "config", "c", "", "JSON tuning file (flags override it)")
	segmentCmd.Flags().IntVarP(&segmentOpts.NumEngines, "engines", "e", 1, "Number of parallel segmentation engines")
	segmentCmd.Flags().Float64Var(&segmentOpts.DeltaT, "dt", 1, "Time elapsed between two consecutive frames (seconds)")
	segmentCmd.Flags().Float64Var(&segmentOpts.Scale, "scale", 1, "Size of a pixel (nm/pixel)")
	segmentCmd.Flags().Float64Var(&segmentOpts.OutlierCriterion, "threshold1", config.DefaultOutlierCriterion, "Body outlier criterion, in standard deviations")
	segmentCmd.Flags().Float64Var(&segmentOpts.MaxHeadWidth, "max-head-width", config.DefaultMaxHeadWidth, "Widest body section (pixels) that still counts toward the head")
	segmentCmd.Flags().Float64Var(&segmentOpts.HeadBodyRatio, "head-body-ratio", config.DefaultHeadBodyRatio, "Largest distance of the width peak from a body end, as a fraction of body length")
	segmentCmd.Flags().Float64Var(&segmentOpts.HeadOutlierCriterion, "threshold2", config.DefaultHeadOutlierCriterion, "Head outlier half-width around the head mean (pixels)")

	segmentCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(segmentCmd)
}

// resolveRun layers defaults, the tuning file, and explicitly set flags, then validates.
func resolveRun(opts Options, changed func(string) bool) (config.Run, error) {
	run := config.DefaultRun()
	if opts.ConfigPath != "" {
		tuning, err := config.LoadTuning(opts.ConfigPath)
		if err != nil {
			return run, err
		}
		tuning.Apply(&run)
	}

	flagValues := []struct {
		name string
		dst  *float64
		src  float64
	}{
		{"threshold1", &run.Params.OutlierCriterion, opts.OutlierCriterion},
		{"max-head-width", &run.Params.MaxHeadWidth, opts.MaxHeadWidth},
		{"head-body-ratio", &run.Params.HeadBodyRatio, opts.HeadBodyRatio},
		{"threshold2", &run.Params.HeadOutlierCriterion, opts.HeadOutlierCriterion},
		{"dt", &run.DeltaT, opts.DeltaT},
		{"scale", &run.Scale, opts.Scale},
	}
	for _, f := range flagValues {
		if changed(f.name) {
			*f.dst = f.src
		}
	}
	if changed("engines") {
		run.Engines = opts.NumEngines
	}

	return run, run.Validate()
}

// validateSegmentFlags ensures the input and output paths are usable before decoding starts.
func validateSegmentFlags(opts *Options) error {
	info, err := os.Stat(opts.InputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %w", err)
		}
		return fmt.Errorf("unable to access input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory, expected a mask movie", opts.InputPath)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	return nil
}

// loadMasks reads raw volumes directly and anything else through ffmpeg.
func loadMasks(ctx context.Context, path string) (*volume.Volume, error) {
	if strings.EqualFold(filepath.Ext(path), volume.Ext) {
		return volume.ReadFile(path)
	}
	return utils.DecodeMaskMovie(ctx, path)
}

// runSegment orchestrates one movie: decoding, the engine pool, outputs, and persistence.
func runSegment(ctx context.Context, opts Options, run config.Run) (*types.MotilityRecord, error) {
	if err := validateSegmentFlags(&opts); err != nil {
		utils.ShowError("Invalid input", err)
		return nil, err
	}

	movieID, err := utils.GenerateMovieID(opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to generate movie ID", err)
		return nil, err
	}
	runID := uuid.New()
	fields := log.Fields{"movie_id": movieID[:12], "run_id": runID.String()}

	vol, err := loadMasks(ctx, opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to read mask movie", err)
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "📼 Processing Movie ID: %s (%d frames, %dx%d)\n", movieID[:12], vol.Frames, vol.Width, vol.Height)
	fmt.Fprintf(os.Stderr, "⚙️  Spawning %d Segmentation Engines...\n", run.Engines)
	log.Info(fields, "segmentation started")

	bar := progressbar.NewOptions(vol.Frames,
		progressbar.OptionSetDescription("🔬 Separating head and flagellum"),
		progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
		progressbar.OptionShowCount(),
	)

	valid := 0
	pool := &worker.Pool{Engines: run.Engines, Params: run.Params}
	out, err := pool.Run(ctx, vol, func(res types.FrameResult) {
		bar.Add(1)
		if res.Valid {
			valid++
			return
		}
		log.Debug(log.Fields{"movie_id": movieID[:12], "frame": res.Index, "reason": res.Reason}, "frame rejected")
	})
	if err != nil {
		utils.ShowError("Segmentation aborted", err)
		return nil, err
	}
	bar.Finish()

	rec := out.Record(movieID, run.DeltaT, run.Scale, run.Params)

	if err := writeRecord(filepath.Join(opts.OutputDir, recordFile), rec); err != nil {
		utils.ShowError("Failed to write motility record", err)
		return nil, err
	}
	if err := volume.WriteFile(filepath.Join(opts.OutputDir, goodFramesFile), out.Movie); err != nil {
		utils.ShowError("Failed to write good-frames movie", err)
		return nil, err
	}
	labels := volume.Labels(rec.Frames, vol.Height, vol.Width)
	if err := volume.WriteFile(filepath.Join(opts.OutputDir, labelsFile), labels); err != nil {
		utils.ShowError("Failed to write head/flagellum movie", err)
		return nil, err
	}

	if DB != nil {
		if err := DB.SaveRecord(ctx, movieID, opts.InputPath, runID, rec); err != nil {
			log.Error(log.Fields{"movie_id": movieID[:12], "run_id": runID.String(), "error": err}, "persisting record failed")
			utils.ShowError("Failed to persist motility record", err)
			return nil, err
		}
	}

	fields["frames"] = vol.Frames
	fields["valid"] = valid
	if valid == 0 && vol.Frames > 0 {
		log.Warn(fields, "no usable frames")
	}
	log.Info(fields, "segmentation finished")
	fmt.Fprintf(os.Stderr, "\n🏁 Segmentation Complete. %d of %d frames usable.\n", valid, vol.Frames)
	fmt.Fprintf(os.Stderr, "📄 %s\n", filepath.Join(opts.OutputDir, recordFile))
	return rec, nil
}

func writeRecord(path string, rec *types.MotilityRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readRecord(path string) (*types.MotilityRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rec := &types.MotilityRecord{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("failed to parse record %s: %w", path, err)
	}
	return rec, nil
}
