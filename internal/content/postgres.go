package content

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProvider loads the pool from the content_items table. It maps
// schema problems to the same errors the CSV path produces so the worker
// treats both sources identically.
type PostgresProvider struct {
	pool *pgxpool.Pool
}

func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

func (p *PostgresProvider) Load(ctx context.Context) (*Pool, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT identifier, title, body, target_group
		FROM content_items
		ORDER BY position, identifier
	`)
	if err != nil {
		// 42703 undefined_column, 42P01 undefined_table
		return nil, fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Title, &it.Body, &it.TargetGroup); err != nil {
			return nil, fmt.Errorf("scan content row: %w", err)
		}
		items = append(items, normalize(trimItem(it)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read content rows: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptySource
	}
	return NewPool(items), nil
}
