package psapi

import (
	"context"
	"fmt"
)

// CountFunc returns the number of rows a paged request will produce.
type CountFunc func(ctx context.Context) (int, error)

// PageFunc fetches one page.
type PageFunc[T any] func(ctx context.Context, page, pageSize int) ([]T, error)

// PageOptions controls which pages are requested.
type PageOptions struct {
	// PageSize overrides the pager default. Nil means unspecified.
	PageSize *int
	// Page pins a single page. Zero means all pages.
	Page int
}

// PagePlan is the ordered list of pages to request.
type PagePlan struct {
	PageSize int
	Pages    []int
}

// PlanPages computes the pages needed for count rows.
//
// No rows means no requests. A pinned page, or a page size of zero, means a
// single request. Otherwise ceil(count/pageSize) pages are requested from 1.
func PlanPages(count int, opts PageOptions, defaultPageSize int) PagePlan {
	size := defaultPageSize
	if opts.PageSize != nil {
		size = *opts.PageSize
	}

	if size < 0 {
		size = 0
	}

	plan := PagePlan{PageSize: size}

	switch {
	case count <= 0:
		return plan
	case opts.Page > 0:
		plan.Pages = []int{opts.Page}
	case size == 0:
		plan.Pages = []int{1}
	default:
		n := (count + size - 1) / size

		plan.Pages = make([]int, n)
		for i := range n {
			plan.Pages[i] = i + 1
		}
	}

	return plan
}

// Pager fetches paged results strictly in order.
type Pager struct {
	// DefaultPageSize is used when PageOptions.PageSize is nil.
	DefaultPageSize int
	Logger          Logger
}

// Plan counts rows and computes the page plan.
func (p *Pager) Plan(ctx context.Context, count CountFunc, opts PageOptions) (PagePlan, int, error) {
	total, err := count(ctx)
	if err != nil {
		return PagePlan{}, 0, fmt.Errorf("failed to count records: %w", err)
	}

	plan := PlanPages(total, opts, p.DefaultPageSize)

	if p.Logger != nil {
		p.Logger.Debug("Planned pages", map[string]interface{}{
			"count":     total,
			"page_size": plan.PageSize,
			"pages":     len(plan.Pages),
		})
	}

	return plan, total, nil
}

// FetchAll counts rows and fetches every planned page, appending results in
// page order. Any failure aborts the fetch and discards what was gathered.
func FetchAll[T any](ctx context.Context, p *Pager, count CountFunc, fetch PageFunc[T], opts PageOptions) ([]T, error) {
	var all []T

	err := ForEachPage(ctx, p, count, fetch, opts, func(_ int, items []T) error {
		all = append(all, items...)

		return nil
	})
	if err != nil {
		return nil, err
	}

	if all == nil {
		all = []T{}
	}

	return all, nil
}

// ForEachPage calls fn with each page as it arrives.
func ForEachPage[T any](ctx context.Context, p *Pager, count CountFunc, fetch PageFunc[T], opts PageOptions, fn func(page int, items []T) error) error {
	it := NewPageIterator(p, count, fetch, opts)

	for it.Next(ctx) {
		err := fn(it.PageNumber(), it.Items())
		if err != nil {
			return err
		}
	}

	return it.Err()
}

// PageIterator walks a page plan one request at a time.
//
//	it := psapi.NewPageIterator(pager, count, fetch, opts)
//	for it.Next(ctx) {
//	  handle(it.Items())
//	}
//	if err := it.Err(); err != nil { ... }
type PageIterator[T any] struct {
	pager   *Pager
	count   CountFunc
	fetch   PageFunc[T]
	opts    PageOptions
	plan    *PagePlan
	total   int
	index   int
	current []T
	page    int
	err     error
}

// NewPageIterator creates an iterator. Nothing is requested until Next.
func NewPageIterator[T any](p *Pager, count CountFunc, fetch PageFunc[T], opts PageOptions) *PageIterator[T] {
	if p == nil {
		p = &Pager{}
	}

	return &PageIterator[T]{pager: p, count: count, fetch: fetch, opts: opts}
}

// Next fetches the next page. It returns false when the plan is exhausted or
// a request failed.
func (it *PageIterator[T]) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}

	if it.plan == nil {
		plan, total, err := it.pager.Plan(ctx, it.count, it.opts)
		if err != nil {
			it.err = err

			return false
		}

		it.plan = &plan
		it.total = total
	}

	if it.index >= len(it.plan.Pages) {
		return false
	}

	err := ctx.Err()
	if err != nil {
		it.err = fmt.Errorf("fetching pages: %w", err)

		return false
	}

	page := it.plan.Pages[it.index]

	items, err := it.fetch(ctx, page, it.plan.PageSize)
	if err != nil {
		it.err = fmt.Errorf("failed to fetch page %d: %w", page, err)

		return false
	}

	if it.pager.Logger != nil {
		it.pager.Logger.Debug("Fetched page", map[string]interface{}{
			"page":    page,
			"records": len(items),
		})
	}

	it.index++
	it.page = page
	it.current = items

	return true
}

// Items returns the records of the current page.
func (it *PageIterator[T]) Items() []T {
	return it.current
}

// PageNumber returns the 1-based number of the current page.
func (it *PageIterator[T]) PageNumber() int {
	return it.page
}

// Total returns the row count reported by the server. It is zero until the
// first call to Next.
func (it *PageIterator[T]) Total() int {
	return it.total
}

// Err returns the error that stopped iteration, if any.
func (it *PageIterator[T]) Err() error {
	return it.err
}
