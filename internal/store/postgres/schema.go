package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS view_preferences (
	user_id    TEXT        NOT NULL,
	view       TEXT        NOT NULL,
	sort_by    TEXT        NOT NULL DEFAULT '',
	sort_order TEXT        NOT NULL DEFAULT 'asc',
	page_size  INTEGER     NOT NULL DEFAULT 10,
	filters    JSONB       NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, view)
);
`

// Migrate creates the gateway's tables if they do not exist.
func (r *Repo) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	log.Info().Msg("schema applied")
	return nil
}
