package views

import (
	"context"
	"slices"
	"time"

	"oldphonedeals/internal/cache"
	"oldphonedeals/internal/domain/audit"
	"oldphonedeals/internal/domain/order"
	"oldphonedeals/internal/domain/phone"
	"oldphonedeals/internal/domain/review"
	"oldphonedeals/internal/domain/user"
	"oldphonedeals/internal/listview"
	"oldphonedeals/internal/session"
)

// View names.
const (
	Search          = "search"
	AdminUsers      = "admin-users"
	AdminPhones     = "admin-phones"
	AdminReviews    = "admin-reviews"
	AdminOrders     = "admin-orders"
	AdminLogs       = "admin-logs"
	ProfileListings = "profile-listings"
	SellerReviews   = "seller-reviews"
)

// Marketplace is the part of the marketplace client the views read from.
type Marketplace interface {
	SearchPhones(ctx context.Context, req listview.PageRequest) (listview.PageResult[phone.Phone], error)
	AllPhones(ctx context.Context, filters listview.Filters) ([]phone.Phone, error)
	SellerListings(ctx context.Context, token, sellerID string) ([]phone.Phone, error)
	SellerReviews(ctx context.Context, token, sellerID string) ([]review.Review, error)
	AdminUsers(ctx context.Context, token string, req listview.PageRequest) (listview.PageResult[user.User], error)
	AdminPhones(ctx context.Context, token string, req listview.PageRequest) (listview.PageResult[phone.Phone], error)
	AdminOrders(ctx context.Context, token string, req listview.PageRequest) (listview.PageResult[order.Order], error)
	AdminReviews(ctx context.Context, token string, filters listview.Filters) ([]review.Review, error)
	AdminLogs(ctx context.Context, token string, filters listview.Filters) ([]audit.Entry, error)
}

// Deps are shared by every view the catalogue builds.
type Deps struct {
	Market        Marketplace
	Cache         cache.Cache
	CacheTTL      time.Duration
	Observer      listview.Observer
	CacheObserver cache.Observer
	// PageSize applies when a mount request does not carry one.
	PageSize int
}

// Definition describes one named view.
type Definition struct {
	Name     string
	Admin    bool
	Strategy string
	// Filters lists the accepted filter keys in the order they apply.
	Filters []string
	// Sorters lists the accepted sort fields. Empty means the server decides.
	Sorters          []string
	DefaultSortBy    string
	DefaultSortOrder listview.SortOrder

	build func(deps Deps, sess *session.Session, req listview.PageRequest) Handle
}

func (d *Definition) acceptsSort(sortBy string) bool {
	if sortBy == "" || sortBy == listview.DefaultSort || len(d.Sorters) == 0 {
		return true
	}
	return slices.Contains(d.Sorters, sortBy)
}

func (d *Definition) acceptsFilter(key string) bool {
	return slices.Contains(d.Filters, key)
}

// Catalog returns every view definition keyed by name.
func Catalog() map[string]*Definition {
	defs := []*Definition{
		searchView(),
		adminUsersView(),
		adminPhonesView(),
		adminReviewsView(),
		adminOrdersView(),
		adminLogsView(),
		profileListingsView(),
		sellerReviewsView(),
	}
	out := make(map[string]*Definition, len(defs))
	for _, d := range defs {
		out[d.Name] = d
	}
	return out
}

func filterKeys[T any](filters []listview.Filter[T]) []string {
	keys := make([]string, len(filters))
	for i, f := range filters {
		keys[i] = f.Key
	}
	return keys
}

// cached puts the fetch-all call behind the collection cache. The fetcher
// is called without filters so one cache entry serves every filter
// combination.
func cached[T any](deps Deps, namespace string, fetch func(ctx context.Context) ([]T, error)) listview.CollectionFetcher[T] {
	origin := listview.CollectionFetcherFunc[T](func(ctx context.Context, _ listview.Filters) ([]T, error) {
		return fetch(ctx)
	})
	c := cache.Collection[T](deps.Cache, deps.CacheTTL, namespace, origin, deps.CacheObserver)
	return listview.CollectionFetcherFunc[T](func(ctx context.Context, _ listview.Filters) ([]T, error) {
		return c.FetchAll(ctx, nil)
	})
}

var phoneSorters = listview.Sorters[phone.Phone]{
	"price":     func(a, b phone.Phone) int { return a.Price.Cmp(b.Price) },
	"title":     listview.ByFold(func(p phone.Phone) string { return p.Title }),
	"stock":     listview.By(func(p phone.Phone) int { return p.Stock }),
	"rating":    listview.By(phone.Phone.AverageRating),
	"createdAt": listview.ByTime(func(p phone.Phone) time.Time { return p.CreatedAt }),
}

var phoneSearch = listview.ContainsFold(
	func(p phone.Phone) string { return p.Title },
	func(p phone.Phone) string { return p.Brand },
)

func phoneStatus(p phone.Phone) string {
	if p.Disabled {
		return "disabled"
	}
	return "active"
}

func searchView() *Definition {
	filters := []listview.Filter[phone.Phone]{
		{Key: "search", Match: phoneSearch},
		{Key: "brand", Match: listview.EqualFold(func(p phone.Phone) string { return p.Brand })},
		{Key: "maxPrice", Match: func(p phone.Phone, v any) bool {
			limit, ok := listview.AsFloat(v)
			return !ok || p.Price.InexactFloat64() <= limit
		}},
	}
	return &Definition{
		Name:     Search,
		Strategy: "hybrid",
		Filters:  filterKeys(filters),
		Sorters:  phoneSorters.Fields(),
		build: func(deps Deps, _ *session.Session, req listview.PageRequest) Handle {
			src := listview.Hybrid[phone.Phone]{
				Server: listview.ServerPaginated[phone.Phone]{
					Fetcher: listview.PageFetcherFunc[phone.Phone](deps.Market.SearchPhones),
				},
				Client: listview.ClientPaginated[phone.Phone]{
					Fetcher: cache.Collection[phone.Phone](deps.Cache, deps.CacheTTL, "phones",
						listview.CollectionFetcherFunc[phone.Phone](deps.Market.AllPhones), deps.CacheObserver),
					Filters: filters,
					Sorters: phoneSorters,
				},
			}
			return newHandle[phone.Phone](Search, src, req, deps)
		},
	}
}

// serverView builds an admin view over a server-paginated endpoint.
func serverView[T any](name string, filters []string,
	fetch func(Marketplace) func(ctx context.Context, token string, req listview.PageRequest) (listview.PageResult[T], error),
) *Definition {
	return &Definition{
		Name:             name,
		Admin:            true,
		Strategy:         string(listview.StrategyServer),
		Filters:          filters,
		DefaultSortBy:    "createdAt",
		DefaultSortOrder: listview.SortDesc,
		build: func(deps Deps, sess *session.Session, req listview.PageRequest) Handle {
			get := fetch(deps.Market)
			src := listview.ServerPaginated[T]{
				Fetcher: listview.PageFetcherFunc[T](func(ctx context.Context, r listview.PageRequest) (listview.PageResult[T], error) {
					return get(ctx, sess.Token, r)
				}),
			}
			return newHandle[T](name, src, req, deps)
		},
	}
}

func adminUsersView() *Definition {
	return serverView(AdminUsers, []string{"search", "role", "status"}, func(m Marketplace) func(context.Context, string, listview.PageRequest) (listview.PageResult[user.User], error) {
		return m.AdminUsers
	})
}

func adminPhonesView() *Definition {
	return serverView(AdminPhones, []string{"search", "brand", "status"}, func(m Marketplace) func(context.Context, string, listview.PageRequest) (listview.PageResult[phone.Phone], error) {
		return m.AdminPhones
	})
}

func adminOrdersView() *Definition {
	return serverView(AdminOrders, []string{"search", "buyer"}, func(m Marketplace) func(context.Context, string, listview.PageRequest) (listview.PageResult[order.Order], error) {
		return m.AdminOrders
	})
}

var reviewSorters = listview.Sorters[review.Review]{
	"createdAt": listview.ByTime(func(r review.Review) time.Time { return r.CreatedAt }),
	"rating":    listview.By(func(r review.Review) int { return r.Rating }),
	"reviewer":  listview.ByFold(func(r review.Review) string { return r.ReviewerName }),
	"phone":     listview.ByFold(func(r review.Review) string { return r.PhoneTitle }),
}

var reviewVisibility = listview.EqualFold(review.Review.Visibility)

func adminReviewsView() *Definition {
	filters := []listview.Filter[review.Review]{
		{Key: "search", Match: listview.ContainsFold(
			func(r review.Review) string { return r.Comment },
			func(r review.Review) string { return r.ReviewerName },
			func(r review.Review) string { return r.PhoneTitle },
		)},
		{Key: "visibility", Match: reviewVisibility},
		{Key: "phoneId", Match: listview.EqualFold(func(r review.Review) string { return r.PhoneID })},
	}
	return &Definition{
		Name:             AdminReviews,
		Admin:            true,
		Strategy:         string(listview.StrategyClient),
		Filters:          filterKeys(filters),
		Sorters:          reviewSorters.Fields(),
		DefaultSortBy:    "createdAt",
		DefaultSortOrder: listview.SortDesc,
		build: func(deps Deps, sess *session.Session, req listview.PageRequest) Handle {
			src := listview.ClientPaginated[review.Review]{
				Fetcher: cached(deps, "admin-reviews", func(ctx context.Context) ([]review.Review, error) {
					return deps.Market.AdminReviews(ctx, sess.Token, nil)
				}),
				Filters: filters,
				Sorters: reviewSorters,
			}
			return newHandle[review.Review](AdminReviews, src, req, deps)
		},
	}
}

func adminLogsView() *Definition {
	filters := []listview.Filter[audit.Entry]{
		{Key: "action", Match: listview.EqualFold(func(e audit.Entry) string { return e.Action })},
		{Key: "targetType", Match: listview.EqualFold(func(e audit.Entry) string { return e.TargetType })},
		{Key: "adminId", Match: listview.EqualFold(func(e audit.Entry) string { return e.AdminID })},
	}
	sorters := listview.Sorters[audit.Entry]{
		"createdAt": listview.ByTime(func(e audit.Entry) time.Time { return e.CreatedAt }),
		"action":    listview.ByFold(func(e audit.Entry) string { return e.Action }),
	}
	return &Definition{
		Name:             AdminLogs,
		Admin:            true,
		Strategy:         string(listview.StrategyClient),
		Filters:          filterKeys(filters),
		Sorters:          sorters.Fields(),
		DefaultSortBy:    "createdAt",
		DefaultSortOrder: listview.SortDesc,
		build: func(deps Deps, sess *session.Session, req listview.PageRequest) Handle {
			src := listview.ClientPaginated[audit.Entry]{
				Fetcher: cached(deps, "admin-logs", func(ctx context.Context) ([]audit.Entry, error) {
					return deps.Market.AdminLogs(ctx, sess.Token, nil)
				}),
				Filters: filters,
				Sorters: sorters,
			}
			return newHandle[audit.Entry](AdminLogs, src, req, deps)
		},
	}
}

func profileListingsView() *Definition {
	filters := []listview.Filter[phone.Phone]{
		{Key: "search", Match: phoneSearch},
		{Key: "status", Match: listview.EqualFold(phoneStatus)},
	}
	sorters := listview.Sorters[phone.Phone]{
		"title":     phoneSorters["title"],
		"price":     phoneSorters["price"],
		"stock":     phoneSorters["stock"],
		"createdAt": phoneSorters["createdAt"],
	}
	return &Definition{
		Name:             ProfileListings,
		Strategy:         string(listview.StrategyClient),
		Filters:          filterKeys(filters),
		Sorters:          sorters.Fields(),
		DefaultSortBy:    "createdAt",
		DefaultSortOrder: listview.SortDesc,
		build: func(deps Deps, sess *session.Session, req listview.PageRequest) Handle {
			seller := sess.User.ID
			src := listview.ClientPaginated[phone.Phone]{
				Fetcher: cached(deps, "seller-listings:"+seller, func(ctx context.Context) ([]phone.Phone, error) {
					return deps.Market.SellerListings(ctx, sess.Token, seller)
				}),
				Filters: filters,
				Sorters: sorters,
			}
			return newHandle[phone.Phone](ProfileListings, src, req, deps)
		},
	}
}

func sellerReviewsView() *Definition {
	filters := []listview.Filter[review.Review]{
		{Key: "visibility", Match: reviewVisibility},
		{Key: "rating", Match: func(r review.Review, v any) bool {
			want, ok := listview.AsFloat(v)
			return ok && float64(r.Rating) == want
		}},
	}
	sorters := listview.Sorters[review.Review]{
		"createdAt": reviewSorters["createdAt"],
		"rating":    reviewSorters["rating"],
	}
	return &Definition{
		Name:             SellerReviews,
		Strategy:         string(listview.StrategyClient),
		Filters:          filterKeys(filters),
		Sorters:          sorters.Fields(),
		DefaultSortBy:    "createdAt",
		DefaultSortOrder: listview.SortDesc,
		build: func(deps Deps, sess *session.Session, req listview.PageRequest) Handle {
			seller := sess.User.ID
			src := listview.ClientPaginated[review.Review]{
				Fetcher: cached(deps, "seller-reviews:"+seller, func(ctx context.Context) ([]review.Review, error) {
					return deps.Market.SellerReviews(ctx, sess.Token, seller)
				}),
				Filters: filters,
				Sorters: sorters,
			}
			return newHandle[review.Review](SellerReviews, src, req, deps)
		},
	}
}
