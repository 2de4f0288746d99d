package marketplace

import (
	"context"

	"oldphonedeals/internal/domain/phone"
	"oldphonedeals/internal/domain/review"
	"oldphonedeals/internal/listview"
)

// SearchPhones is the public, server-paginated phone search.
func (c *Client) SearchPhones(ctx context.Context, req listview.PageRequest) (listview.PageResult[phone.Phone], error) {
	return fetchPage(ctx, c, "/api/phones", "phones", "", req, phoneDTO.normalize)
}

// AllPhones returns every public listing matching filters.
func (c *Client) AllPhones(ctx context.Context, filters listview.Filters) ([]phone.Phone, error) {
	return fetchAll(ctx, c, "/api/phones", "phones", "", filters, phoneDTO.normalize)
}

// SellerListings returns every listing owned by sellerID, disabled ones
// included.
func (c *Client) SellerListings(ctx context.Context, token, sellerID string) ([]phone.Phone, error) {
	return fetchAll(ctx, c, "/api/users/"+pathEscape(sellerID)+"/phones", "phones", token, nil, phoneDTO.normalize)
}

// SellerReviews returns every review left on listings owned by sellerID.
func (c *Client) SellerReviews(ctx context.Context, token, sellerID string) ([]review.Review, error) {
	return fetchAll(ctx, c, "/api/users/"+pathEscape(sellerID)+"/reviews", "reviews", token, nil, reviewDTO.normalize)
}
