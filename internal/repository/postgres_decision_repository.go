package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/formcast/internal/database"
	"github.com/yourusername/formcast/internal/models"
)

// PostgresDecisionRepository implements DecisionRepository for PostgreSQL
type PostgresDecisionRepository struct {
	db *database.DB
}

// NewPostgresDecisionRepository creates a new decision repository
func NewPostgresDecisionRepository(db *database.DB) DecisionRepository {
	return &PostgresDecisionRepository{db: db}
}

// Save upserts a hybrid decision keyed by track and race number
func (r *PostgresDecisionRepository) Save(ctx context.Context, decision *models.HybridDecision) error {
	query := `
		INSERT INTO hybrid_decisions (track, race_number, recommended_box, tier, margin_percent, ml_confidence, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (track, race_number) DO UPDATE SET
			recommended_box = EXCLUDED.recommended_box,
			tier = EXCLUDED.tier,
			margin_percent = EXCLUDED.margin_percent,
			ml_confidence = EXCLUDED.ml_confidence,
			reason = EXCLUDED.reason,
			created_at = NOW()
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		decision.Key.Track, decision.Key.RaceNumber, decision.RecommendedBox,
		string(decision.Tier), decision.MarginPercent, decision.MLConfidence, decision.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to save hybrid decision: %w", err)
	}

	return nil
}

// GetByKey retrieves the decision for a specific race
func (r *PostgresDecisionRepository) GetByKey(ctx context.Context, key models.RaceKey) (*models.HybridDecision, error) {
	query := `
		SELECT track, race_number, recommended_box, tier, margin_percent, ml_confidence, reason
		FROM hybrid_decisions
		WHERE track = $1 AND race_number = $2
	`

	decision := &models.HybridDecision{}
	var tier string
	err := r.db.GetPool().QueryRow(ctx, query, key.Track, key.RaceNumber).Scan(
		&decision.Key.Track, &decision.Key.RaceNumber, &decision.RecommendedBox,
		&tier, &decision.MarginPercent, &decision.MLConfidence, &decision.Reason,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query hybrid decision: %w", err)
	}
	decision.Tier = models.Tier(tier)

	return decision, nil
}

// GetRecent retrieves the most recently recorded decisions
func (r *PostgresDecisionRepository) GetRecent(ctx context.Context, limit int) ([]*models.HybridDecision, error) {
	query := `
		SELECT track, race_number, recommended_box, tier, margin_percent, ml_confidence, reason
		FROM hybrid_decisions
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent decisions: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// GetRecommended retrieves decisions carrying a pick within a time range
func (r *PostgresDecisionRepository) GetRecommended(ctx context.Context, start, end time.Time) ([]*models.HybridDecision, error) {
	query := `
		SELECT track, race_number, recommended_box, tier, margin_percent, ml_confidence, reason
		FROM hybrid_decisions
		WHERE recommended_box > 0 AND created_at >= $1 AND created_at <= $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommended decisions: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

func scanDecisions(rows pgx.Rows) ([]*models.HybridDecision, error) {
	var decisions []*models.HybridDecision
	for rows.Next() {
		decision := &models.HybridDecision{}
		var tier string
		err := rows.Scan(
			&decision.Key.Track, &decision.Key.RaceNumber, &decision.RecommendedBox,
			&tier, &decision.MarginPercent, &decision.MLConfidence, &decision.Reason,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hybrid decision: %w", err)
		}
		decision.Tier = models.Tier(tier)
		decisions = append(decisions, decision)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hybrid decisions: %w", err)
	}

	return decisions, nil
}
