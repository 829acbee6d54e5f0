package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andresmejia3/motility/internal/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrMovieNotFound is returned when a movie ID has no stored record.
var ErrMovieNotFound = errors.New("movie not found")

// Store manages the PostgreSQL connection holding motility records.
type Store struct {
	conn *pgx.Conn
}

// Movie is one analyzed movie as listed by ListMovies.
type Movie struct {
	ID          string
	Path        string
	Label       string
	RunID       uuid.UUID
	Frames      int
	ValidFrames int
	AnalyzedAt  time.Time
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// initSchema creates the necessary tables if they don't exist (Auto-Migration).
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS movies (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			run_id UUID NOT NULL,
			frame_count INT NOT NULL,
			width INT NOT NULL,
			height INT NOT NULL,
			delta_t DOUBLE PRECISION NOT NULL,
			scale DOUBLE PRECISION NOT NULL,
			params JSONB NOT NULL,
			analyzed_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS frame_results (
			movie_id TEXT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
			frame_index INT NOT NULL,
			valid BOOLEAN NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			axis TEXT,
			orientation TEXT,
			head_count INT NOT NULL DEFAULT 0,
			flagellum_count INT NOT NULL DEFAULT 0,
			segmentation JSONB,
			PRIMARY KEY (movie_id, frame_index)
		);
		CREATE INDEX IF NOT EXISTS frame_results_valid_idx ON frame_results (movie_id) WHERE valid;
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// SaveRecord stores a motility record, replacing any earlier run of the same movie.
func (s *Store) SaveRecord(ctx context.Context, movieID, path string, runID uuid.UUID, rec *types.MotilityRecord) error {
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Keep the label across re-runs, drop the old frames.
	_, err = tx.Exec(ctx, `
		INSERT INTO movies (id, path, run_id, frame_count, width, height, delta_t, scale, params, analyzed_at)
		VALUES ($1, $2, $3::uuid, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			path = EXCLUDED.path, run_id = EXCLUDED.run_id, frame_count = EXCLUDED.frame_count,
			width = EXCLUDED.width, height = EXCLUDED.height, delta_t = EXCLUDED.delta_t,
			scale = EXCLUDED.scale, params = EXCLUDED.params, analyzed_at = NOW()
	`, movieID, path, runID.String(), len(rec.Frames), rec.Width, rec.Height, rec.DeltaT, rec.Scale, json.RawMessage(params))
	if err != nil {
		return fmt.Errorf("upsert movie: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM frame_results WHERE movie_id = $1", movieID); err != nil {
		return fmt.Errorf("clear frames: %w", err)
	}

	rows := make([][]any, 0, len(rec.Frames))
	for _, f := range rec.Frames {
		row, err := frameRow(movieID, f)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"frame_results"},
		[]string{"movie_id", "frame_index", "valid", "reason", "axis", "orientation", "head_count", "flagellum_count", "segmentation"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy frames: %w", err)
	}

	return tx.Commit(ctx)
}

func frameRow(movieID string, f types.FrameResult) ([]any, error) {
	if !f.Valid || f.Segmentation == nil {
		return []any{movieID, f.Index, false, f.Reason, nil, nil, 0, 0, nil}, nil
	}
	seg, err := json.Marshal(f.Segmentation)
	if err != nil {
		return nil, fmt.Errorf("encode frame %d: %w", f.Index, err)
	}
	return []any{
		movieID, f.Index, true, f.Reason,
		f.Segmentation.Axis.String(), f.Segmentation.Orientation.String(),
		len(f.Segmentation.Head), len(f.Segmentation.Flagellum),
		json.RawMessage(seg),
	}, nil
}

// GetRecord rebuilds the motility record of a stored movie.
func (s *Store) GetRecord(ctx context.Context, movieID string) (*types.MotilityRecord, error) {
	rec := &types.MotilityRecord{MovieID: movieID}
	var params []byte
	var frameCount int
	err := s.conn.QueryRow(ctx, `
		SELECT frame_count, width, height, delta_t, scale, params FROM movies WHERE id = $1
	`, movieID).Scan(&frameCount, &rec.Width, &rec.Height, &rec.DeltaT, &rec.Scale, &params)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMovieNotFound, movieID)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(params, &rec.Params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}

	rows, err := s.conn.Query(ctx, `
		SELECT frame_index, valid, reason, segmentation FROM frame_results
		WHERE movie_id = $1 ORDER BY frame_index
	`, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rec.Frames = make([]types.FrameResult, 0, frameCount)
	for rows.Next() {
		var f types.FrameResult
		var seg []byte
		if err := rows.Scan(&f.Index, &f.Valid, &f.Reason, &seg); err != nil {
			return nil, err
		}
		if seg != nil {
			f.Segmentation = &types.Segmentation{}
			if err := json.Unmarshal(seg, f.Segmentation); err != nil {
				return nil, fmt.Errorf("decode frame %d: %w", f.Index, err)
			}
		}
		rec.Frames = append(rec.Frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(rec.Frames) != frameCount {
		return nil, fmt.Errorf("movie %s has %d stored frames, expected %d", movieID, len(rec.Frames), frameCount)
	}
	return rec, nil
}

// ListMovies returns every analyzed movie, most recent first.
func (s *Store) ListMovies(ctx context.Context) ([]Movie, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT m.id, m.path, m.label, m.run_id::text, m.frame_count, m.analyzed_at,
			(SELECT COUNT(*) FROM frame_results f WHERE f.movie_id = m.id AND f.valid)
		FROM movies m
		ORDER BY m.analyzed_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movies []Movie
	for rows.Next() {
		var m Movie
		var runID string
		if err := rows.Scan(&m.ID, &m.Path, &m.Label, &runID, &m.Frames, &m.AnalyzedAt, &m.ValidFrames); err != nil {
			return nil, err
		}
		if m.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("movie %s: bad run id: %w", m.ID, err)
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// RenameMovie attaches a human-readable label to a movie.
func (s *Store) RenameMovie(ctx context.Context, movieID, label string) error {
	tag, err := s.conn.Exec(ctx, "UPDATE movies SET label = $1 WHERE id = $2", label, movieID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrMovieNotFound, movieID)
	}
	return nil
}

// Reset drops all application tables to clear the database state.
// This is useful for development to force a schema refresh without migrations.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS frame_results CASCADE;
		DROP TABLE IF EXISTS movies CASCADE;
	`)
	return err
}
