package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DevSkits916/campaign-autopilot/internal/campaign"
)

// RunRepo persists finished campaign tallies so run history survives
// process restarts. Only wired when the content source is Postgres.
type RunRepo struct {
	pool *pgxpool.Pool
}

func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

func (r *RunRepo) Save(ctx context.Context, t campaign.Tally) error {
	submitted, err := json.Marshal(t.Submitted)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO campaign_runs (run_id, state, started_at, finished_at, consumed, total, errors, submitted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE SET
			state = EXCLUDED.state,
			finished_at = EXCLUDED.finished_at,
			consumed = EXCLUDED.consumed,
			total = EXCLUDED.total,
			errors = EXCLUDED.errors,
			submitted = EXCLUDED.submitted
	`, t.RunID, t.State, t.StartedAt, t.FinishedAt, t.Consumed, t.Total, t.Errors, submitted)
	return err
}

func (r *RunRepo) ListRecent(ctx context.Context, limit int) ([]campaign.Tally, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
		SELECT run_id, state, started_at, finished_at, consumed, total, errors, submitted
		FROM campaign_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tallies []campaign.Tally
	for rows.Next() {
		var t campaign.Tally
		var submitted []byte
		if err := rows.Scan(&t.RunID, &t.State, &t.StartedAt, &t.FinishedAt,
			&t.Consumed, &t.Total, &t.Errors, &submitted); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(submitted, &t.Submitted); err != nil {
			return nil, err
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

func (r *RunRepo) GetByID(ctx context.Context, runID string) (*campaign.Tally, error) {
	var t campaign.Tally
	var submitted []byte
	err := r.pool.QueryRow(ctx, `
		SELECT run_id, state, started_at, finished_at, consumed, total, errors, submitted
		FROM campaign_runs WHERE run_id = $1
	`, runID).Scan(&t.RunID, &t.State, &t.StartedAt, &t.FinishedAt,
		&t.Consumed, &t.Total, &t.Errors, &submitted)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(submitted, &t.Submitted); err != nil {
		return nil, err
	}
	return &t, nil
}
