// Package catalog streams search results out of a provider catalog, one page
// in memory at a time.
package catalog

import (
	"context"
	"fmt"

	"github.com/airbusgeo/stac-fetch/common"
	ifcatalog "github.com/airbusgeo/stac-fetch/interface/catalog"
	"github.com/airbusgeo/stac-fetch/service/log"
	"go.uber.org/zap"
)

// ErrPageFetch is returned by Next when fetching a page fails. It keeps the
// continuation token so the iteration can be resumed from the failed page.
type ErrPageFetch struct {
	Token string
	Err   error
}

func (e ErrPageFetch) Error() string {
	return fmt.Sprintf("fetch page [token=%q]: %v", e.Token, e.Err)
}

func (e ErrPageFetch) Unwrap() error {
	return e.Err
}

// Iterator walks the search results of one catalog client. It is not safe for
// concurrent use.
type Iterator struct {
	client  ifcatalog.Client
	filters ifcatalog.SearchFilters
	// limit stops the iteration after that many items (0 = unbounded)
	limit int

	items   []common.CatalogItem
	next    int
	token   string
	matched int
	yielded int
	started bool
	done    bool
}

// NewIterator creates an iterator over the results of the search. Nothing is
// fetched until the first call to Next.
func NewIterator(client ifcatalog.Client, filters ifcatalog.SearchFilters, limit int) *Iterator {
	return &Iterator{client: client, filters: filters, limit: limit}
}

// Next returns the next item. ok is false when the results are exhausted.
// On a fetch error the iterator stays positioned on the failed page: a later
// call to Next retries it.
func (it *Iterator) Next(ctx context.Context) (common.CatalogItem, bool, error) {
	if it.done || (it.limit > 0 && it.yielded >= it.limit) {
		return common.CatalogItem{}, false, nil
	}
	if it.next >= len(it.items) {
		if it.started && it.token == "" {
			return common.CatalogItem{}, false, nil
		}
		if err := it.fetchPage(ctx); err != nil {
			return common.CatalogItem{}, false, err
		}
		if len(it.items) == 0 {
			it.done = true
			return common.CatalogItem{}, false, nil
		}
	}
	item := it.items[it.next]
	it.next++
	it.yielded++
	return item, true, nil
}

func (it *Iterator) fetchPage(ctx context.Context) error {
	page, err := it.client.SearchPage(ctx, it.filters, it.token)
	if err != nil {
		return ErrPageFetch{Token: it.token, Err: err}
	}
	if !it.started {
		it.started = true
		if page.Matched > 0 {
			log.Logger(ctx).Debug("catalog search", zap.Int("matched", page.Matched))
		}
	}
	it.items, it.next = page.Items, 0
	it.token = page.NextToken
	if page.Matched > 0 {
		it.matched = page.Matched
	}
	if it.token == "" && len(page.Items) == 0 {
		it.done = true
	}
	return nil
}

// Reset rewinds the iterator to the first page
func (it *Iterator) Reset() {
	it.items, it.next, it.token = nil, 0, ""
	it.matched, it.yielded = 0, 0
	it.started, it.done = false, false
}

// Matched returns the catalog-reported total number of hits (0 until the first
// page is fetched, or if the catalog does not report it)
func (it *Iterator) Matched() int {
	return it.matched
}

// Total returns the number of items the iteration will yield at most: the
// catalog-reported hit count clamped to the limit. 0 means unknown.
func (it *Iterator) Total() int {
	if it.limit > 0 && (it.matched == 0 || it.matched > it.limit) {
		return it.limit
	}
	return it.matched
}
