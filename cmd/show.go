package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/andresmejia3/motility/internal/types"
	"github.com/andresmejia3/motility/internal/utils"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:         "show <movie_id|record.json>",
	Short:       "Print the per-frame head/flagellum results and head trajectory of a movie",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{dbAnnotation: dbOptional},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runShow(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(ctx context.Context, ref string) error {
	rec, err := loadRecord(ctx, ref)
	if err != nil {
		utils.ShowError("Failed to load motility record", err)
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FRAME\tVALID\tAXIS\tHEAD TOWARD\tHEAD PX\tFLAGELLUM PX\tHEAD ROW\tHEAD COL\tREASON")
	fmt.Fprintln(w, "-----\t-----\t----\t-----------\t-------\t------------\t--------\t--------\t------")
	for _, f := range rec.Frames {
		if !f.Valid || f.Segmentation == nil {
			fmt.Fprintf(w, "%d\tno\t-\t-\t-\t-\t-\t-\t%s\n", f.Index, f.Reason)
			continue
		}
		s := f.Segmentation
		row, col, _ := s.Head.Centroid()
		fmt.Fprintf(w, "%d\tyes\t%s\t%s\t%d\t%d\t%.1f\t%.1f\t\n", f.Index, s.Axis, s.Orientation, len(s.Head), len(s.Flagellum), row, col)
	}
	w.Flush()

	stats := headTrajectory(rec)
	fmt.Printf("\nValid frames: %d of %d\n", stats.Frames, len(rec.Frames))
	if stats.Frames > 1 {
		fmt.Printf("Head path length: %.3f µm\n", stats.PathLength)
		fmt.Printf("Mean head speed:  %.3f µm/s\n", stats.MeanSpeed)
	}
	return nil
}

// loadRecord reads a record.json path, or a movie ID from the database.
func loadRecord(ctx context.Context, ref string) (*types.MotilityRecord, error) {
	if strings.EqualFold(filepath.Ext(ref), ".json") {
		return readRecord(ref)
	}
	if DB == nil {
		return nil, fmt.Errorf("%s is not a record file and no database is configured", ref)
	}
	return DB.GetRecord(ctx, ref)
}

// trajectoryStats summarizes the head centroid track over the valid frames.
type trajectoryStats struct {
	Frames     int
	PathLength float64 // µm
	MeanSpeed  float64 // µm/s
}

// headTrajectory walks consecutive valid frames; gaps left by invalid frames
// count toward elapsed time but contribute a straight segment.
func headTrajectory(rec *types.MotilityRecord) trajectoryStats {
	var st trajectoryStats
	prev := -1
	var prevRow, prevCol float64
	var elapsed float64
	for k := range rec.Frames {
		row, col, ok := rec.HeadCentroid(k)
		if !ok {
			continue
		}
		st.Frames++
		if prev >= 0 {
			st.PathLength += math.Hypot(row-prevRow, col-prevCol) * rec.Scale / 1000
			elapsed += float64(k-prev) * rec.DeltaT
		}
		prev, prevRow, prevCol = k, row, col
	}
	if elapsed > 0 {
		st.MeanSpeed = st.PathLength / elapsed
	}
	return st
}
