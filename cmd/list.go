package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/motility/internal/utils"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:         "list",
	Short:       "List all analyzed movies in the database",
	Annotations: map[string]string{dbAnnotation: dbRequired},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runList(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(ctx context.Context) error {
	movies, err := DB.ListMovies(ctx)
	if err != nil {
		utils.ShowError("Failed to list movies", err)
		return err
	}

	if len(movies) == 0 {
		fmt.Println("No movies found in database.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tVALID/FRAMES\tPATH\tANALYZED")
	fmt.Fprintln(w, "--\t-----\t------------\t----\t--------")

	for _, m := range movies {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\n", m.ID, m.Label, m.ValidFrames, m.Frames, m.Path, m.AnalyzedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
