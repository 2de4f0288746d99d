package marketplace

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"oldphonedeals/internal/listview"
)

// fetchPage loads one server-paginated page and normalizes its items.
func fetchPage[D, T any](ctx context.Context, c *Client, endpoint, collection, token string,
	req listview.PageRequest, normalize func(D) T,
) (listview.PageResult[T], error) {
	var raw json.RawMessage
	if err := c.GetJSON(ctx, endpoint, req.Query(), token, &raw); err != nil {
		return listview.PageResult[T]{}, err
	}
	page, err := decodePage[D](raw, collection)
	if err != nil {
		return listview.PageResult[T]{}, err
	}
	return listview.MapResult(page, normalize), nil
}

// fetchAll loads a whole collection using the FetchAllLimit ceiling.
func fetchAll[D, T any](ctx context.Context, c *Client, endpoint, collection, token string,
	filters listview.Filters, normalize func(D) T,
) ([]T, error) {
	q := filters.Values()
	q.Set("page", "1")
	q.Set("limit", strconv.Itoa(FetchAllLimit))

	var raw json.RawMessage
	if err := c.GetJSON(ctx, endpoint, q, token, &raw); err != nil {
		return nil, err
	}
	page, err := decodePage[D](raw, collection)
	if err != nil {
		return nil, err
	}
	if page.TotalItems > len(page.Items) {
		log.Warn().
			Str("endpoint", endpoint).
			Int("total", page.TotalItems).
			Int("fetched", len(page.Items)).
			Msg("marketplace: collection larger than fetch-all ceiling, results truncated")
	}
	return listview.MapResult(page, normalize).Items, nil
}

func pathEscape(id string) string { return url.PathEscape(id) }
