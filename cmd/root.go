package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/motility/internal/log"
	"github.com/andresmejia3/motility/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Options holds the configuration of the segment command
type Options struct {
	InputPath            string
	OutputDir            string
	ConfigPath           string
	NumEngines           int
	DeltaT               float64
	Scale                float64
	OutlierCriterion     float64
	MaxHeadWidth         float64
	HeadBodyRatio        float64
	HeadOutlierCriterion float64
}

// dbAnnotation marks how a command uses the database.
const (
	dbAnnotation = "db"
	dbRequired   = "required"
	dbOptional   = "optional"
)

var (
	// DB is the global database connection shared by subcommands. It stays nil
	// for commands that run without a database.
	DB *store.Store
	// dbURL is the connection string
	dbURL   string
	logFile string
	verbose bool
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "motility",
	Short:   "Sperm head/flagellum separation for binary mask movies",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Init(log.Options{Verbose: verbose, File: logFile})

		// A missing .env is fine; the environment may already carry POSTGRES_*.
		_ = godotenv.Load()

		mode := cmd.Annotations[dbAnnotation]
		if mode == "" {
			return nil
		}
		url := resolveDBURL()
		if url == "" {
			if mode == dbRequired {
				return fmt.Errorf("%s needs a database: pass --db or set POSTGRES_HOST", cmd.Name())
			}
			return nil
		}

		var err error
		// Use the command's context (which will be cancellable) for the connection
		DB, err = store.New(cmd.Context(), url)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Use Background here because the main context might be cancelled already (due to Ctrl+C)
			// and we still need to send the "Close" command to the DB.
			DB.Close(context.Background())
		}
	},
}

// resolveDBURL prefers --db, then builds the connection string from the environment.
func resolveDBURL() string {
	if dbURL != "" {
		return dbURL
	}
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	user := os.Getenv("POSTGRES_USER")
	pass := os.Getenv("POSTGRES_PASSWORD")
	name := os.Getenv("POSTGRES_DB")
	port := os.Getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string (default: built from POSTGRES_* env)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this rotating file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every rejected frame")
}
