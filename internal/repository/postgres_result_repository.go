package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/formcast/internal/database"
	"github.com/yourusername/formcast/internal/models"
)

// PostgresResultRepository implements ResultRepository for PostgreSQL
type PostgresResultRepository struct {
	db *database.DB
}

// NewPostgresResultRepository creates a new race result repository
func NewPostgresResultRepository(db *database.DB) ResultRepository {
	return &PostgresResultRepository{db: db}
}

// Insert inserts a single race result
func (r *PostgresResultRepository) Insert(ctx context.Context, result *models.RaceResult) error {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}

	query := `
		INSERT INTO race_results (id, track, race_number, winning_box, second_box, win_time_sec, distance, settled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		result.ID, result.Track, result.RaceNumber, result.WinningBox,
		result.SecondBox, result.WinTimeSec, result.Distance, result.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert race result: %w", err)
	}

	return nil
}

// InsertBatch inserts multiple race results using high-performance batch insert
func (r *PostgresResultRepository) InsertBatch(ctx context.Context, results []*models.RaceResult) error {
	if len(results) == 0 {
		return nil
	}

	// Use COPY for high-performance bulk insert
	columns := []string{"id", "track", "race_number", "winning_box", "second_box", "win_time_sec", "distance", "settled_at", "created_at"}

	now := time.Now()
	copyFromSource := make([][]interface{}, len(results))
	for i, res := range results {
		if res.ID == uuid.Nil {
			res.ID = uuid.New()
		}
		copyFromSource[i] = []interface{}{
			res.ID, res.Track, res.RaceNumber, res.WinningBox,
			res.SecondBox, res.WinTimeSec, res.Distance, res.SettledAt, now,
		}
	}

	copyCount, err := r.db.GetPool().CopyFrom(
		ctx,
		pgx.Identifier{"race_results"},
		columns,
		pgx.CopyFromRows(copyFromSource),
	)
	if err != nil {
		return fmt.Errorf("failed to batch insert race results: %w", err)
	}

	if copyCount != int64(len(results)) {
		return fmt.Errorf("inserted %d rows, expected %d", copyCount, len(results))
	}

	return nil
}

// GetByKey retrieves the result for a specific race
func (r *PostgresResultRepository) GetByKey(ctx context.Context, key models.RaceKey) (*models.RaceResult, error) {
	query := `
		SELECT id, track, race_number, winning_box, second_box, win_time_sec, distance, settled_at, created_at
		FROM race_results
		WHERE track = $1 AND race_number = $2
		ORDER BY settled_at DESC
		LIMIT 1
	`

	result := &models.RaceResult{}
	err := r.db.GetPool().QueryRow(ctx, query, key.Track, key.RaceNumber).Scan(
		&result.ID, &result.Track, &result.RaceNumber, &result.WinningBox,
		&result.SecondBox, &result.WinTimeSec, &result.Distance, &result.SettledAt, &result.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query race result: %w", err)
	}

	return result, nil
}

// GetByDateRange retrieves race results settled within a time range
func (r *PostgresResultRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.RaceResult, error) {
	query := `
		SELECT id, track, race_number, winning_box, second_box, win_time_sec, distance, settled_at, created_at
		FROM race_results
		WHERE settled_at >= $1 AND settled_at <= $2
		ORDER BY settled_at DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query race results by date range: %w", err)
	}
	defer rows.Close()

	var results []*models.RaceResult
	for rows.Next() {
		result := &models.RaceResult{}
		err := rows.Scan(
			&result.ID, &result.Track, &result.RaceNumber, &result.WinningBox,
			&result.SecondBox, &result.WinTimeSec, &result.Distance, &result.SettledAt, &result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan race result: %w", err)
		}
		results = append(results, result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating race results: %w", err)
	}

	return results, nil
}

// BoxWinStats aggregates win counts per box at a track. Runs counts every
// settled race at the track, so a box's rate assumes full fields.
func (r *PostgresResultRepository) BoxWinStats(ctx context.Context, track string) ([]BoxStat, error) {
	query := `
		SELECT winning_box, COUNT(*)
		FROM race_results
		WHERE track = $1
		GROUP BY winning_box
	`

	rows, err := r.db.GetPool().Query(ctx, query, track)
	if err != nil {
		return nil, fmt.Errorf("failed to query box win stats: %w", err)
	}
	defer rows.Close()

	wins := make(map[int]int)
	total := 0
	for rows.Next() {
		var box, count int
		if err := rows.Scan(&box, &count); err != nil {
			return nil, fmt.Errorf("failed to scan box win stats: %w", err)
		}
		wins[box] = count
		total += count
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating box win stats: %w", err)
	}

	stats := make([]BoxStat, 0, 8)
	for box := 1; box <= 8; box++ {
		stats = append(stats, BoxStat{
			Track: track,
			Box:   box,
			Wins:  wins[box],
			Runs:  total,
		})
	}

	return stats, nil
}
