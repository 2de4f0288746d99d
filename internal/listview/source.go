package listview

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Strategy names how a PageResult is produced.
type Strategy string

const (
	// StrategyServer forwards the request to a paged endpoint.
	StrategyServer Strategy = "server"
	// StrategyClient fetches the whole filtered collection and pages locally.
	StrategyClient Strategy = "client"
)

// PageFetcher fetches one page from a server-paginated endpoint.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, req PageRequest) (PageResult[T], error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc[T any] func(ctx context.Context, req PageRequest) (PageResult[T], error)

func (f PageFetcherFunc[T]) FetchPage(ctx context.Context, req PageRequest) (PageResult[T], error) {
	return f(ctx, req)
}

// CollectionFetcher fetches the whole filtered collection in one call.
type CollectionFetcher[T any] interface {
	FetchAll(ctx context.Context, filters Filters) ([]T, error)
}

// CollectionFetcherFunc adapts a function to CollectionFetcher.
type CollectionFetcherFunc[T any] func(ctx context.Context, filters Filters) ([]T, error)

func (f CollectionFetcherFunc[T]) FetchAll(ctx context.Context, filters Filters) ([]T, error) {
	return f(ctx, filters)
}

// Source turns a normalized PageRequest into a PageResult.
type Source[T any] interface {
	Strategy(req PageRequest) Strategy
	Load(ctx context.Context, req PageRequest) (PageResult[T], error)
}

// ServerPaginated passes requests through to a paged endpoint.
type ServerPaginated[T any] struct {
	Fetcher PageFetcher[T]
}

func (s ServerPaginated[T]) Strategy(PageRequest) Strategy { return StrategyServer }

// Load fetches the requested page. When the requested page lies past the
// last page the server reports, it fetches the last page instead.
func (s ServerPaginated[T]) Load(ctx context.Context, req PageRequest) (PageResult[T], error) {
	res, err := s.Fetcher.FetchPage(ctx, req)
	if err != nil {
		return PageResult[T]{}, err
	}
	res = settle(res, req)

	if req.Page > res.TotalPages && len(res.Items) == 0 {
		log.Debug().
			Int("requested_page", req.Page).
			Int("total_pages", res.TotalPages).
			Msg("listview: page out of range, fetching last page")
		clamped := req.Clone()
		clamped.Page = res.TotalPages
		res, err = s.Fetcher.FetchPage(ctx, clamped)
		if err != nil {
			return PageResult[T]{}, err
		}
		res = settle(res, clamped)
	}
	return res, nil
}

// settle fills in page metadata a backend left out and clamps the page.
// A missing total is estimated from the page position, which is exact on
// the last page.
func settle[T any](res PageResult[T], req PageRequest) PageResult[T] {
	if res.CurrentPage < 1 {
		res.CurrentPage = req.Page
	}
	if len(res.Items) > 0 {
		res.TotalItems = max(res.TotalItems, (res.CurrentPage-1)*req.PageSize+len(res.Items))
	}
	if res.TotalPages < 1 {
		res.TotalPages = TotalPages(res.TotalItems, req.PageSize)
	}
	res.CurrentPage = ClampPage(res.CurrentPage, res.TotalPages)
	if res.Items == nil {
		res.Items = []T{}
	}
	return res
}

// ClientPaginated filters, sorts and slices a fetch-all collection.
type ClientPaginated[T any] struct {
	Fetcher CollectionFetcher[T]
	// Filters run in declaration order.
	Filters []Filter[T]
	Sorters Sorters[T]
}

func (c ClientPaginated[T]) Strategy(PageRequest) Strategy { return StrategyClient }

func (c ClientPaginated[T]) Load(ctx context.Context, req PageRequest) (PageResult[T], error) {
	all, err := c.Fetcher.FetchAll(ctx, req.Filters)
	if err != nil {
		return PageResult[T]{}, err
	}
	items := ApplyFilters(all, c.Filters, req.Filters)
	if cmp, ok := c.Sorters[req.SortBy]; ok {
		items = SortStable(items, cmp, req.SortOrder)
	}
	return Paginate(items, req.Page, req.PageSize), nil
}

// Hybrid uses Server for the default sort and Client for any other sort,
// for endpoints that page but cannot sort by arbitrary fields.
type Hybrid[T any] struct {
	Server ServerPaginated[T]
	Client ClientPaginated[T]
}

func (h Hybrid[T]) Strategy(req PageRequest) Strategy {
	if req.IsDefaultSort() {
		return StrategyServer
	}
	return StrategyClient
}

func (h Hybrid[T]) Load(ctx context.Context, req PageRequest) (PageResult[T], error) {
	if h.Strategy(req) == StrategyServer {
		return h.Server.Load(ctx, req)
	}
	return h.Client.Load(ctx, req)
}
