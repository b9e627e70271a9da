package postgres

import (
	"context"

	"github.com/lib/pq"

	"stepquest/internal/domain"
)

// Eligible returns achievements with steps_required <= steps, ordered by
// ord then steps_required.
func (d *DB) Eligible(ctx context.Context, steps int) ([]domain.Achievement, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, title, steps_required, unlock_item_ids, ord FROM achievements WHERE steps_required <= $1 ORDER BY ord, steps_required;",
		steps)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		var items pq.StringArray
		if err := rows.Scan(&a.ID, &a.Title, &a.StepsRequired, &items, &a.Order); err != nil {
			return nil, err
		}
		a.UnlockItemIDs = items
		out = append(out, a)
	}
	return out, rows.Err()
}

// SeedCatalog upserts the given achievement definitions.
func (d *DB) SeedCatalog(ctx context.Context, defs []domain.Achievement) error {
	for _, a := range defs {
		_, err := d.sql.ExecContext(ctx,
			`INSERT INTO achievements(id, title, steps_required, unlock_item_ids, ord)
			 VALUES($1, $2, $3, $4, $5)
			 ON CONFLICT(id) DO UPDATE SET
			   title = excluded.title,
			   steps_required = excluded.steps_required,
			   unlock_item_ids = excluded.unlock_item_ids,
			   ord = excluded.ord;`,
			a.ID, a.Title, a.StepsRequired, pq.Array(a.UnlockItemIDs), a.Order)
		if err != nil {
			return err
		}
	}
	return nil
}
