package listview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type priced struct {
	Name  string
	Price int
}

func byPrice() Sorters[priced] {
	return Sorters[priced]{"price": By(func(p priced) int { return p.Price })}
}

func intRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// recordingCollection serves a fixed slice and remembers every call.
type recordingCollection[T any] struct {
	mu       sync.Mutex
	items    []T
	err      error
	calls    int
	requests []Filters
}

func (r *recordingCollection[T]) FetchAll(_ context.Context, filters Filters) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.requests = append(r.requests, filters.Clone())
	if r.err != nil {
		return nil, r.err
	}
	return append([]T(nil), r.items...), nil
}

// pageRecorder captures the requests seen by a source.
type pageRecorder[T any] struct {
	Source[T]
	mu    sync.Mutex
	pages []int
}

func (p *pageRecorder[T]) Load(ctx context.Context, req PageRequest) (PageResult[T], error) {
	p.mu.Lock()
	p.pages = append(p.pages, req.Page)
	p.mu.Unlock()
	return p.Source.Load(ctx, req)
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name       string
		totalItems int
		pageSize   int
		want       int
	}{
		{name: "empty collection", totalItems: 0, pageSize: 10, want: 1},
		{name: "exact multiple", totalItems: 30, pageSize: 10, want: 3},
		{name: "partial last page", totalItems: 25, pageSize: 10, want: 3},
		{name: "single item", totalItems: 1, pageSize: 10, want: 1},
		{name: "page size one", totalItems: 7, pageSize: 1, want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalPages(tt.totalItems, tt.pageSize))
		})
	}
}

func TestTotalPages_Property(t *testing.T) {
	for total := 0; total <= 120; total++ {
		for size := 1; size <= 25; size++ {
			got := TotalPages(total, size)
			want := (total + size - 1) / size
			if want < 1 {
				want = 1
			}
			require.Equal(t, want, got, "total=%d size=%d", total, size)
		}
	}
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 1, ClampPage(-4, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
	assert.Equal(t, 3, ClampPage(5, 3))
	assert.Equal(t, 1, ClampPage(9, 0))
}

func TestPaginate_ClampsPastLastPage(t *testing.T) {
	res := Paginate(intRange(1, 25), 5, 10)

	assert.Equal(t, 3, res.CurrentPage)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 25, res.TotalItems)
	assert.Equal(t, intRange(21, 25), res.Items)
}

func TestPaginate_EmptyCollection(t *testing.T) {
	res := Paginate([]int{}, 3, 10)

	assert.Equal(t, 1, res.CurrentPage)
	assert.Equal(t, 1, res.TotalPages)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
}

func TestSortStable_PriceBothDirections(t *testing.T) {
	items := []priced{{Price: 50}, {Price: 10}, {Price: 30}}
	prices := func(ps []priced) []int {
		out := make([]int, len(ps))
		for i, p := range ps {
			out[i] = p.Price
		}
		return out
	}

	asc := SortStable(items, byPrice()["price"], SortAsc)
	desc := SortStable(items, byPrice()["price"], SortDesc)

	assert.Equal(t, []int{10, 30, 50}, prices(asc))
	assert.Equal(t, []int{50, 30, 10}, prices(desc))
	assert.Equal(t, []int{50, 10, 30}, prices(items), "input must not be reordered")
}

func TestSortStable_TiesKeepInsertionOrder(t *testing.T) {
	items := []priced{
		{Name: "a", Price: 20},
		{Name: "b", Price: 10},
		{Name: "c", Price: 20},
		{Name: "d", Price: 10},
		{Name: "e", Price: 20},
	}
	names := func(ps []priced) string {
		s := ""
		for _, p := range ps {
			s += p.Name
		}
		return s
	}

	for range 5 {
		assert.Equal(t, "bdace", names(SortStable(items, byPrice()["price"], SortAsc)))
		assert.Equal(t, "acebd", names(SortStable(items, byPrice()["price"], SortDesc)))
	}
}

func TestApplyFilters_DeclaredOrderAndUnsetValues(t *testing.T) {
	var order []string
	filters := []Filter[priced]{
		{Key: "max", Match: func(p priced, v any) bool {
			order = append(order, "max")
			f, _ := AsFloat(v)
			return float64(p.Price) <= f
		}},
		{Key: "name", Match: func(p priced, v any) bool {
			order = append(order, "name")
			return ContainsFold(func(p priced) string { return p.Name })(p, v)
		}},
		{Key: "unused", Match: func(priced, any) bool {
			order = append(order, "unused")
			return false
		}},
	}
	items := []priced{{Name: "Galaxy", Price: 300}, {Name: "iPhone", Price: 900}, {Name: "Pixel", Price: 400}}

	got := ApplyFilters(items, filters, Filters{"max": "500", "name": "GAL", "unused": ""})

	require.Len(t, got, 1)
	assert.Equal(t, "Galaxy", got[0].Name)
	assert.NotContains(t, order, "unused")
	assert.Equal(t, "max", order[0])
}

func TestPageRequest_NormalizeAndQuery(t *testing.T) {
	req := PageRequest{Page: -2, PageSize: 0, SortBy: "price", SortOrder: "DESC", Filters: Filters{
		"brand":    "APPLE",
		"maxPrice": 250.0,
		"inStock":  true,
		"search":   "",
		"seller":   nil,
	}}
	req.Normalize()

	assert.Equal(t, 1, req.Page)
	assert.Equal(t, DefaultPageSize, req.PageSize)
	assert.Equal(t, SortDesc, req.SortOrder)

	q := req.Query()
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "10", q.Get("limit"))
	assert.Equal(t, "price", q.Get("sortBy"))
	assert.Equal(t, "desc", q.Get("sortOrder"))
	assert.Equal(t, "APPLE", q.Get("brand"))
	assert.Equal(t, "250", q.Get("maxPrice"))
	assert.Equal(t, "true", q.Get("inStock"))
	assert.False(t, q.Has("search"))
	assert.False(t, q.Has("seller"))
}

func TestPageRequest_DefaultSortOmitted(t *testing.T) {
	req := PageRequest{Page: 2, PageSize: 5, SortBy: DefaultSort}
	req.Normalize()

	q := req.Query()
	assert.False(t, q.Has("sortBy"))
	assert.False(t, q.Has("sortOrder"))
}

func TestView_ClientPaginatedScenario(t *testing.T) {
	src := &recordingCollection[int]{items: intRange(1, 25)}
	v := New[int]("numbers", ClientPaginated[int]{Fetcher: src}, PageRequest{Page: 5, PageSize: 10})

	res, err := v.Load(context.Background(), v.Request())
	require.NoError(t, err)

	assert.Equal(t, 3, res.CurrentPage)
	assert.Equal(t, intRange(21, 25), res.Items)
	assert.Equal(t, 3, v.Request().Page, "request follows the clamped page")
}

func TestView_SetSortOnClientSource(t *testing.T) {
	src := &recordingCollection[priced]{items: []priced{{Price: 50}, {Price: 10}, {Price: 30}}}
	v := New[priced]("phones", ClientPaginated[priced]{Fetcher: src, Sorters: byPrice()}, PageRequest{})

	res, err := v.SetSort(context.Background(), "price", SortAsc)
	require.NoError(t, err)
	assert.Equal(t, []priced{{Price: 10}, {Price: 30}, {Price: 50}}, res.Items)

	res, err = v.SetSort(context.Background(), "price", SortDesc)
	require.NoError(t, err)
	assert.Equal(t, []priced{{Price: 50}, {Price: 30}, {Price: 10}}, res.Items)
}

func TestView_SetFilterResetsToFirstPage(t *testing.T) {
	src := &pageRecorder[int]{Source: ClientPaginated[int]{Fetcher: &recordingCollection[int]{items: intRange(1, 40)}}}
	v := New[int]("search", src, PageRequest{Page: 3, PageSize: 10})
	ctx := context.Background()

	_, err := v.Load(ctx, v.Request())
	require.NoError(t, err)
	require.Equal(t, 3, v.State().Result.CurrentPage)

	_, err = v.SetFilter(ctx, "brand", "APPLE")
	require.NoError(t, err)

	assert.Equal(t, []int{3, 1}, src.pages)
	assert.Equal(t, "APPLE", v.Request().Filters["brand"])

	_, err = v.SetFilter(ctx, "brand", "")
	require.NoError(t, err)
	assert.NotContains(t, v.Request().Filters, "brand")
}

func TestView_SetSortResetsToFirstPage(t *testing.T) {
	src := &pageRecorder[priced]{Source: ClientPaginated[priced]{
		Fetcher: &recordingCollection[priced]{items: make([]priced, 30)},
		Sorters: byPrice(),
	}}
	v := New[priced]("search", src, PageRequest{Page: 2, PageSize: 10})

	_, err := v.Load(context.Background(), v.Request())
	require.NoError(t, err)
	_, err = v.SetSort(context.Background(), "price", SortDesc)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1}, src.pages)
}

func TestView_SetPage(t *testing.T) {
	coll := &recordingCollection[int]{items: intRange(1, 25)}
	v := New[int]("numbers", ClientPaginated[int]{Fetcher: coll}, PageRequest{PageSize: 10})
	ctx := context.Background()

	_, err := v.SetPage(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, coll.calls)

	t.Run("same page is a no-op", func(t *testing.T) {
		res, err := v.SetPage(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, coll.calls)
		assert.Equal(t, 1, res.CurrentPage)
	})

	t.Run("past the end clamps", func(t *testing.T) {
		res, err := v.SetPage(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, 2, coll.calls)
		assert.Equal(t, 3, res.CurrentPage)
		assert.Len(t, res.Items, 5)
	})

	t.Run("clamped to current page is a no-op", func(t *testing.T) {
		_, err := v.SetPage(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, 2, coll.calls)
	})

	t.Run("below one clamps to first page", func(t *testing.T) {
		res, err := v.SetPage(ctx, -1)
		require.NoError(t, err)
		assert.Equal(t, 1, res.CurrentPage)
	})
}

func TestView_ErrorKeepsPreviousResult(t *testing.T) {
	coll := &recordingCollection[int]{items: intRange(1, 15)}
	v := New[int]("numbers", ClientPaginated[int]{Fetcher: coll}, PageRequest{PageSize: 10})
	ctx := context.Background()

	_, err := v.Load(ctx, v.Request())
	require.NoError(t, err)

	boom := errors.New("connection refused")
	coll.err = boom
	_, err = v.SetPage(ctx, 2)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StrategyClient, loadErr.Strategy)

	st := v.State()
	require.NotNil(t, st.Result)
	assert.Equal(t, 1, st.Result.CurrentPage)
	assert.Equal(t, intRange(1, 10), st.Result.Items)
	assert.False(t, st.Loading)
	assert.Contains(t, st.Error, "connection refused")

	coll.err = nil
	_, err = v.Refresh(ctx)
	require.NoError(t, err)
	st = v.State()
	assert.Equal(t, 2, st.Result.CurrentPage)
	assert.Empty(t, st.Error)
}

func TestView_SetPageBackToShownPageAfterFailure(t *testing.T) {
	coll := &recordingCollection[int]{items: intRange(1, 15)}
	v := New[int]("numbers", ClientPaginated[int]{Fetcher: coll}, PageRequest{PageSize: 10})
	ctx := context.Background()

	_, err := v.Load(ctx, v.Request())
	require.NoError(t, err)

	coll.err = errors.New("connection refused")
	_, err = v.SetPage(ctx, 2)
	require.Error(t, err)
	assert.Equal(t, 2, v.Request().Page)

	coll.err = nil
	res, err := v.SetPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentPage)
	assert.Equal(t, 3, coll.calls)

	st := v.State()
	assert.Empty(t, st.Error)
	assert.Equal(t, 1, v.Request().Page)

	_, err = v.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v.State().Result.CurrentPage)
}

func TestView_RefreshIsIdempotent(t *testing.T) {
	coll := &recordingCollection[priced]{items: []priced{{"a", 3}, {"b", 1}, {"c", 3}, {"d", 2}}}
	v := New[priced]("phones", ClientPaginated[priced]{Fetcher: coll, Sorters: byPrice()},
		PageRequest{PageSize: 3, SortBy: "price", SortOrder: SortDesc})
	ctx := context.Background()

	first, err := v.Refresh(ctx)
	require.NoError(t, err)
	second, err := v.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, coll.calls)
}

func TestView_RefreshMarksContext(t *testing.T) {
	var refreshed []bool
	fetch := CollectionFetcherFunc[int](func(ctx context.Context, _ Filters) ([]int, error) {
		refreshed = append(refreshed, IsRefresh(ctx))
		return []int{1}, nil
	})
	v := New[int]("numbers", ClientPaginated[int]{Fetcher: fetch}, PageRequest{})

	_, err := v.Load(context.Background(), v.Request())
	require.NoError(t, err)
	_, err = v.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []bool{false, true}, refreshed)
}

func TestView_LastRequestWins(t *testing.T) {
	gates := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	started := make(chan int, 2)
	fetch := PageFetcherFunc[int](func(_ context.Context, req PageRequest) (PageResult[int], error) {
		started <- req.Page
		<-gates[req.Page]
		return PageResult[int]{Items: []int{req.Page}, CurrentPage: req.Page, TotalPages: 5, TotalItems: 50}, nil
	})
	obs := &countingObserver{}
	v := New[int]("orders", ServerPaginated[int]{Fetcher: fetch}, PageRequest{PageSize: 10}, WithObserver(obs))
	ctx := context.Background()

	errA := make(chan error, 1)
	go func() {
		req := v.Request()
		req.Page = 1
		_, err := v.Load(ctx, req)
		errA <- err
	}()
	require.Equal(t, 1, <-started)

	errB := make(chan error, 1)
	go func() {
		req := v.Request()
		req.Page = 2
		_, err := v.Load(ctx, req)
		errB <- err
	}()
	require.Equal(t, 2, <-started)

	close(gates[2])
	require.NoError(t, <-errB)
	assert.False(t, v.State().Loading)

	close(gates[1])
	assert.ErrorIs(t, <-errA, ErrSuperseded)

	st := v.State()
	require.NotNil(t, st.Result)
	assert.Equal(t, []int{2}, st.Result.Items)
	assert.Equal(t, 2, st.Result.CurrentPage)
	assert.Equal(t, uint64(2), st.Seq)
	assert.Equal(t, map[Outcome]int{OutcomeOK: 1, OutcomeSuperseded: 1}, obs.counts())
}

func TestServerPaginated_FetchesLastPageWhenOutOfRange(t *testing.T) {
	var pages []int
	fetch := PageFetcherFunc[int](func(_ context.Context, req PageRequest) (PageResult[int], error) {
		pages = append(pages, req.Page)
		all := intRange(1, 25)
		start := (req.Page - 1) * req.PageSize
		if start >= len(all) {
			return PageResult[int]{CurrentPage: req.Page, TotalItems: 25}, nil
		}
		end := min(start+req.PageSize, len(all))
		return PageResult[int]{Items: all[start:end], CurrentPage: req.Page, TotalItems: 25}, nil
	})
	v := New[int]("users", ServerPaginated[int]{Fetcher: fetch}, PageRequest{Page: 5, PageSize: 10})

	res, err := v.Load(context.Background(), v.Request())
	require.NoError(t, err)

	assert.Equal(t, []int{5, 3}, pages)
	assert.Equal(t, 3, res.CurrentPage)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, intRange(21, 25), res.Items)
}

func TestServerPaginated_FetchesLastPageWhenOnlyTotalPagesReported(t *testing.T) {
	var pages []int
	fetch := PageFetcherFunc[int](func(_ context.Context, req PageRequest) (PageResult[int], error) {
		pages = append(pages, req.Page)
		if req.Page > 3 {
			return PageResult[int]{Items: []int{}, CurrentPage: req.Page, TotalPages: 3}, nil
		}
		all := intRange(1, 25)
		start := (req.Page - 1) * req.PageSize
		end := min(start+req.PageSize, len(all))
		return PageResult[int]{Items: all[start:end], CurrentPage: req.Page, TotalPages: 3}, nil
	})
	v := New[int]("users", ServerPaginated[int]{Fetcher: fetch}, PageRequest{Page: 5, PageSize: 10})

	res, err := v.Load(context.Background(), v.Request())
	require.NoError(t, err)

	assert.Equal(t, []int{5, 3}, pages)
	assert.Equal(t, 3, res.CurrentPage)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 25, res.TotalItems)
	assert.Equal(t, intRange(21, 25), res.Items)
}

func TestHybrid_SwitchesStrategyOnSort(t *testing.T) {
	serverCalls := 0
	server := PageFetcherFunc[priced](func(_ context.Context, req PageRequest) (PageResult[priced], error) {
		serverCalls++
		return PageResult[priced]{Items: []priced{{Price: 50}}, CurrentPage: req.Page, TotalItems: 3}, nil
	})
	coll := &recordingCollection[priced]{items: []priced{{Price: 50}, {Price: 10}, {Price: 30}}}
	src := Hybrid[priced]{
		Server: ServerPaginated[priced]{Fetcher: server},
		Client: ClientPaginated[priced]{Fetcher: coll, Sorters: byPrice()},
	}
	v := New[priced]("search", src, PageRequest{})
	ctx := context.Background()

	assert.Equal(t, StrategyServer, src.Strategy(v.Request()))
	_, err := v.Load(ctx, v.Request())
	require.NoError(t, err)
	assert.Equal(t, 1, serverCalls)

	res, err := v.SetSort(ctx, "price", SortAsc)
	require.NoError(t, err)
	assert.Equal(t, 1, coll.calls)
	assert.Equal(t, 10, res.Items[0].Price)

	_, err = v.SetSort(ctx, DefaultSort, SortAsc)
	require.NoError(t, err)
	assert.Equal(t, 2, serverCalls)
}

type countingObserver struct {
	mu sync.Mutex
	m  map[Outcome]int
}

func (c *countingObserver) ObserveLoad(_ string, _ Strategy, outcome Outcome, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[Outcome]int{}
	}
	c.m[outcome]++
}

func (c *countingObserver) counts() map[Outcome]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[Outcome]int{}
	for k, v := range c.m {
		out[k] = v
	}
	return out
}
