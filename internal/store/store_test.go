package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/andresmejia3/motility/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func sampleRecord() *types.MotilityRecord {
	return &types.MotilityRecord{
		MovieID: "movie_123",
		DeltaT:  0.02,
		Scale:   65,
		Width:   40,
		Height:  40,
		Params: types.Params{
			OutlierCriterion:     2.75,
			MaxHeadWidth:         80,
			HeadBodyRatio:        0.25,
			HeadOutlierCriterion: 135,
		},
		Frames: []types.FrameResult{
			types.Invalid(0, "degenerate frame: no foreground pixels"),
			{
				Index: 1,
				Valid: true,
				Segmentation: &types.Segmentation{
					Body:        types.PointSet{{Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 2, Col: 2}, {Row: 1, Col: 2}},
					Head:        types.PointSet{{Row: 1, Col: 1}},
					Flagellum:   types.PointSet{{Row: 1, Col: 2}, {Row: 2, Col: 2}, {Row: 1, Col: 2}},
					Axis:        types.Vertical,
					Orientation: types.Decreasing,
				},
			},
		},
	}
}

// TestStoreIntegration runs a full integration test against a real Postgres container.
// It requires Docker to be running.
func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Explicitly check for Docker availability and fail hard if missing
	// We wrap this in a function to recover from panics inside testcontainers (e.g. socket not found)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Fatalf("Docker not available, cannot run integration test: %v", err)
	}

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("motility_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(noopLogger{}),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	// Initialize Store (runs migrations)
	s, err := New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to store: %v", err)
	}
	defer s.Close(ctx)

	// --- Test Scenarios ---

	rec := sampleRecord()
	runID := uuid.New()
	if err := s.SaveRecord(ctx, rec.MovieID, "/tmp/movie.mvol", runID, rec); err != nil {
		t.Fatalf("SaveRecord failed: %v", err)
	}

	got, err := s.GetRecord(ctx, rec.MovieID)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	// Point sets keep their order and duplicates through JSONB.
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("GetRecord mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.GetRecord(ctx, "missing"); !errors.Is(err, ErrMovieNotFound) {
		t.Errorf("Expected ErrMovieNotFound, got %v", err)
	}

	if err := s.RenameMovie(ctx, rec.MovieID, "donor 7"); err != nil {
		t.Fatalf("RenameMovie failed: %v", err)
	}
	if err := s.RenameMovie(ctx, "missing", "x"); !errors.Is(err, ErrMovieNotFound) {
		t.Errorf("Expected ErrMovieNotFound, got %v", err)
	}

	// A second run replaces frames but keeps the label.
	rec.Frames = rec.Frames[:1]
	runID2 := uuid.New()
	if err := s.SaveRecord(ctx, rec.MovieID, "/tmp/movie.mvol", runID2, rec); err != nil {
		t.Fatalf("SaveRecord (re-run) failed: %v", err)
	}

	movies, err := s.ListMovies(ctx)
	if err != nil {
		t.Fatalf("ListMovies failed: %v", err)
	}
	if len(movies) != 1 {
		t.Fatalf("Expected 1 movie, got %d", len(movies))
	}
	m := movies[0]
	if m.Label != "donor 7" {
		t.Errorf("Expected label to survive re-run, got %q", m.Label)
	}
	if m.RunID != runID2 {
		t.Errorf("Expected run id %s, got %s", runID2, m.RunID)
	}
	if m.Frames != 1 || m.ValidFrames != 0 {
		t.Errorf("Expected 1 frame with 0 valid, got %d/%d", m.ValidFrames, m.Frames)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, err := s.ListMovies(ctx); err == nil {
		t.Error("Expected ListMovies to fail after tables were dropped")
	}
}

type noopLogger struct{}

func (n noopLogger) Printf(format string, v ...interface{}) {}
