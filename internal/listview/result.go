package listview

// PageResult is one page of items plus the paging metadata needed to render
// page controls.
type PageResult[T any] struct {
	Items       []T `json:"items"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
}

// TotalPages returns ceil(totalItems/pageSize), never less than 1.
func TotalPages(totalItems, pageSize int) int {
	if pageSize <= 0 || totalItems <= 0 {
		return 1
	}
	return (totalItems + pageSize - 1) / pageSize
}

// ClampPage moves page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate slices items into the requested page after clamping the page
// into range. The returned items never alias the input slice.
func Paginate[T any](items []T, page, pageSize int) PageResult[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(items)
	pages := TotalPages(total, pageSize)
	page = ClampPage(page, pages)

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	out := make([]T, end-start)
	copy(out, items[start:end])

	return PageResult[T]{
		Items:       out,
		CurrentPage: page,
		TotalPages:  pages,
		TotalItems:  total,
	}
}

// MapResult converts the items of a page while keeping its metadata.
func MapResult[S, T any](p PageResult[S], f func(S) T) PageResult[T] {
	out := PageResult[T]{
		Items:       make([]T, len(p.Items)),
		CurrentPage: p.CurrentPage,
		TotalPages:  p.TotalPages,
		TotalItems:  p.TotalItems,
	}
	for i, it := range p.Items {
		out.Items[i] = f(it)
	}
	return out
}
