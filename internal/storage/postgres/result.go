package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/quizboss/internal/game/session"
)

// ResultRepository stores the outcome of finished sessions.
type ResultRepository struct {
	db *pgxpool.Pool
}

// NewResultRepository creates a ResultRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewResultRepository(db *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{db: db}
}

// RecordResult implements session.ResultRecorder. Recording the same
// session twice keeps the first row.
func (r *ResultRepository) RecordResult(ctx context.Context, res session.Result) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO session_results
		   (session_id, pack_name, outcome, reached, boss_hp, hearts, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (session_id) DO NOTHING`,
		res.SessionID, res.Pack, res.Outcome, res.Reached, res.BossHP, res.Hearts,
		res.StartedAt, res.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting session result %s: %w", res.SessionID, err)
	}
	return nil
}

// Recent returns up to limit results for pack, newest first.
//
// Precondition: limit > 0.
func (r *ResultRepository) Recent(ctx context.Context, pack string, limit int) ([]session.Result, error) {
	rows, err := r.db.Query(ctx,
		`SELECT session_id::text, pack_name, outcome, reached, boss_hp, hearts, started_at, finished_at
		 FROM session_results WHERE pack_name = $1
		 ORDER BY finished_at DESC LIMIT $2`,
		pack, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying results for %q: %w", pack, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (session.Result, error) {
		var res session.Result
		err := row.Scan(&res.SessionID, &res.Pack, &res.Outcome, &res.Reached,
			&res.BossHP, &res.Hearts, &res.StartedAt, &res.FinishedAt)
		return res, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning results: %w", err)
	}
	return out, nil
}
