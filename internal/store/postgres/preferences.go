package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"oldphonedeals/internal/domain/preference"
	"oldphonedeals/internal/listview"
)

// SavePreference upserts the preference for (user, view).
func (r *Repo) SavePreference(ctx context.Context, p *preference.Preference) error {
	filters, err := json.Marshal(p.Filters)
	if err != nil {
		return fmt.Errorf("encode filters: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO view_preferences (user_id, view, sort_by, sort_order, page_size, filters, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, view) DO UPDATE
		   SET sort_by = EXCLUDED.sort_by,
		       sort_order = EXCLUDED.sort_order,
		       page_size = EXCLUDED.page_size,
		       filters = EXCLUDED.filters,
		       updated_at = EXCLUDED.updated_at`,
		p.UserID, p.View, p.SortBy, string(p.SortOrder), p.PageSize, filters, p.UpdatedAt,
	)
	return err
}

// FindPreference loads the preference for (user, view).
func (r *Repo) FindPreference(ctx context.Context, userID, view string) (*preference.Preference, error) {
	row := r.db.QueryRow(ctx, `
		SELECT user_id, view, sort_by, sort_order, page_size, filters, updated_at
		  FROM view_preferences
		 WHERE user_id = $1 AND view = $2`,
		userID, view,
	)

	var (
		p         preference.Preference
		sortOrder string
		filters   []byte
	)
	err := row.Scan(&p.UserID, &p.View, &p.SortBy, &sortOrder, &p.PageSize, &filters, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, preference.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.SortOrder = listview.ParseSortOrder(sortOrder)
	if len(filters) > 0 {
		if err := json.Unmarshal(filters, &p.Filters); err != nil {
			return nil, fmt.Errorf("decode filters: %w", err)
		}
	}
	return &p, nil
}
