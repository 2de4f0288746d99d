package marketplace

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"oldphonedeals/internal/domain/audit"
	"oldphonedeals/internal/domain/order"
	"oldphonedeals/internal/domain/phone"
	"oldphonedeals/internal/domain/review"
	"oldphonedeals/internal/domain/user"
	"oldphonedeals/internal/listview"
)

// AdminUsers lists users, server-paginated.
func (c *Client) AdminUsers(ctx context.Context, token string, req listview.PageRequest) (listview.PageResult[user.User], error) {
	return fetchPage(ctx, c, "/api/admin/users", "users", token, req, userDTO.normalize)
}

// AdminPhones lists all listings including disabled ones, server-paginated.
func (c *Client) AdminPhones(ctx context.Context, token string, req listview.PageRequest) (listview.PageResult[phone.Phone], error) {
	return fetchPage(ctx, c, "/api/admin/phones", "phones", token, req, phoneDTO.normalize)
}

// AdminReviews returns every review, hidden ones included.
func (c *Client) AdminReviews(ctx context.Context, token string, filters listview.Filters) ([]review.Review, error) {
	return fetchAll(ctx, c, "/api/admin/reviews", "reviews", token, filters, reviewDTO.normalize)
}

// AdminOrders lists orders, server-paginated.
func (c *Client) AdminOrders(ctx context.Context, token string, req listview.PageRequest) (listview.PageResult[order.Order], error) {
	return fetchPage(ctx, c, "/api/admin/orders", "orders", token, req, orderDTO.normalize)
}

// AdminLogs returns the admin audit log.
func (c *Client) AdminLogs(ctx context.Context, token string, filters listview.Filters) ([]audit.Entry, error) {
	return fetchAll(ctx, c, "/api/admin/logs", "logs", token, filters, auditDTO.normalize)
}

const (
	sinceBatch    = 50
	maxSincePages = 20
)

// OrdersSince returns orders created after since, newest first. It walks
// the newest-first listing until it reaches an order at or before since or
// the last page, so a burst larger than one batch is not cut short.
func (c *Client) OrdersSince(ctx context.Context, token string, since time.Time) ([]order.Order, error) {
	var out []order.Order
	seen := make(map[string]struct{})

	for page := 1; page <= maxSincePages; page++ {
		q := url.Values{}
		q.Set("since", since.UTC().Format(time.RFC3339Nano))
		q.Set("sortBy", "createdAt")
		q.Set("sortOrder", string(listview.SortDesc))
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(sinceBatch))

		var raw json.RawMessage
		if err := c.GetJSON(ctx, "/api/admin/orders", q, token, &raw); err != nil {
			return nil, err
		}
		res, err := decodePage[orderDTO](raw, "orders")
		if err != nil {
			return nil, err
		}

		reached := false
		for _, d := range res.Items {
			o := d.normalize()
			if !o.CreatedAt.After(since) {
				reached = true
				continue
			}
			// A new order shifts the listing; skip rows seen on the previous page.
			if _, dup := seen[o.ID]; dup {
				continue
			}
			seen[o.ID] = struct{}{}
			out = append(out, o)
		}

		last := len(res.Items) < sinceBatch || (res.TotalPages > 0 && page >= res.TotalPages)
		if reached || last {
			return out, nil
		}
	}
	log.Warn().
		Int("pages", maxSincePages).
		Time("since", since).
		Msg("marketplace: order backlog truncated")
	return out, nil
}
