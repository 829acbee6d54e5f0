package cmd

import (
	"context"
	"fmt"

	"github.com/andresmejia3/motility/internal/utils"
	"github.com/spf13/cobra"
)

var labelCmd = &cobra.Command{
	Use:         "label <movie_id> <label>",
	Short:       "Attach a label (sample, donor, condition) to an analyzed movie",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{dbAnnotation: dbRequired},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runLabel(cmd.Context(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(labelCmd)
}

func runLabel(ctx context.Context, movieID, label string) error {
	if err := DB.RenameMovie(ctx, movieID, label); err != nil {
		utils.ShowError("Failed to label movie", err)
		return err
	}

	fmt.Printf("✅ Movie %s labeled as '%s'\n", movieID, label)
	return nil
}
