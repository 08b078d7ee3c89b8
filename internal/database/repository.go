package database

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Repository provides access to persisted evaluations.
type Repository struct {
	db     *DB
	logger zerolog.Logger
}

func NewRepository(db *DB, logger zerolog.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger.With().Str("component", "EvaluationRepository").Logger(),
	}
}

// SaveEvaluation inserts an evaluation and fills in its ID and timestamp.
func (r *Repository) SaveEvaluation(ctx context.Context, eval *Evaluation) error {
	query := `
		INSERT INTO mtf_evaluations (
			symbol, signal_type, confirmed, confidence,
			primary_confirmed, primary_confidence, secondary_strength,
			market_momentum, boost, reason, error_kind, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	details := eval.Details
	if len(details) == 0 {
		details = []byte("{}")
	}

	err := r.db.Pool.QueryRow(ctx, query,
		eval.Symbol,
		eval.SignalType,
		eval.Confirmed,
		eval.Confidence,
		eval.PrimaryConfirmed,
		eval.PrimaryConfidence,
		eval.SecondaryStrength,
		eval.MarketMomentum,
		eval.Boost,
		eval.Reason,
		eval.ErrorKind,
		details,
	).Scan(&eval.ID, &eval.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("symbol", eval.Symbol).Msg("Failed to save evaluation")
		return err
	}
	return nil
}

// GetEvaluations retrieves recent evaluations, newest first. Symbol and
// signalType filters are optional (empty string matches all).
func (r *Repository) GetEvaluations(ctx context.Context, limit int, symbol, signalType string) ([]Evaluation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, symbol, signal_type, confirmed, confidence,
			primary_confirmed, primary_confidence, secondary_strength,
			market_momentum, boost, reason, error_kind, details, created_at
		FROM mtf_evaluations
		WHERE ($1 = '' OR symbol = $1)
		AND ($2 = '' OR signal_type = $2)
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.Pool.Query(ctx, query, symbol, signalType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evaluations []Evaluation
	for rows.Next() {
		var e Evaluation
		if err := rows.Scan(
			&e.ID, &e.Symbol, &e.SignalType, &e.Confirmed, &e.Confidence,
			&e.PrimaryConfirmed, &e.PrimaryConfidence, &e.SecondaryStrength,
			&e.MarketMomentum, &e.Boost, &e.Reason, &e.ErrorKind, &e.Details, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		evaluations = append(evaluations, e)
	}

	return evaluations, rows.Err()
}

// GetEvaluationStats aggregates evaluations since the given time.
func (r *Repository) GetEvaluationStats(ctx context.Context, since time.Time) (*EvaluationStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE confirmed),
			COUNT(*) FILTER (WHERE signal_type = 'LONG'),
			COUNT(*) FILTER (WHERE signal_type = 'SHORT'),
			COALESCE(AVG(confidence), 0),
			COALESCE(AVG(boost), 0)
		FROM mtf_evaluations
		WHERE created_at >= $1`

	var stats EvaluationStats
	err := r.db.Pool.QueryRow(ctx, query, since).Scan(
		&stats.Total,
		&stats.Confirmed,
		&stats.LongCount,
		&stats.ShortCount,
		&stats.AvgConfidence,
		&stats.AvgBoost,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
