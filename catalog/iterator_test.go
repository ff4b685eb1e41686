package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/airbusgeo/stac-fetch/common"
	ifcatalog "github.com/airbusgeo/stac-fetch/interface/catalog"
)

// fakeClient serves pre-built pages keyed by continuation token and can be
// told to fail a given number of times.
type fakeClient struct {
	pages    map[string]ifcatalog.Page
	failures int
	calls    int
}

func (f *fakeClient) SearchPage(ctx context.Context, filters ifcatalog.SearchFilters, token string) (ifcatalog.Page, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return ifcatalog.Page{}, fmt.Errorf("catalog unavailable")
	}
	page, ok := f.pages[token]
	if !ok {
		return ifcatalog.Page{}, fmt.Errorf("no such page %q", token)
	}
	return page, nil
}

func (f *fakeClient) Sign(ctx context.Context, rawURL string) (string, time.Time, error) {
	return rawURL, time.Time{}, nil
}

func (f *fakeClient) Identity() common.ProviderTag {
	return common.ProviderOpen
}

func items(ids ...string) []common.CatalogItem {
	out := make([]common.CatalogItem, len(ids))
	for i, id := range ids {
		out[i] = common.CatalogItem{ID: id}
	}
	return out
}

func collect(t *testing.T, it *Iterator) []string {
	t.Helper()
	var ids []string
	for {
		item, ok, err := it.Next(context.Background())
		if err != nil {
			t.Fatalf("%v", err)
		}
		if !ok {
			return ids
		}
		ids = append(ids, item.ID)
	}
}

func twoPages() map[string]ifcatalog.Page {
	return map[string]ifcatalog.Page{
		"":   {Items: items("a", "b"), NextToken: "p2", Matched: 3},
		"p2": {Items: items("c")},
	}
}

func TestIteratorPaging(t *testing.T) {
	client := &fakeClient{pages: twoPages()}
	it := NewIterator(client, ifcatalog.SearchFilters{}, 0)

	ids := collect(t, it)
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("unexpected items %v", ids)
	}
	if it.Matched() != 3 {
		t.Errorf("expecting 3 matched, got %d", it.Matched())
	}
	if client.calls != 2 {
		t.Errorf("expecting 2 page fetches, got %d", client.calls)
	}

	// exhausted iterator keeps returning ok=false without refetching
	if _, ok, err := it.Next(context.Background()); ok || err != nil {
		t.Errorf("expecting exhausted, got ok=%v err=%v", ok, err)
	}
	if client.calls != 2 {
		t.Errorf("exhausted iterator refetched (%d calls)", client.calls)
	}
}

func TestIteratorLimit(t *testing.T) {
	client := &fakeClient{pages: twoPages()}
	it := NewIterator(client, ifcatalog.SearchFilters{}, 2)

	ids := collect(t, it)
	if len(ids) != 2 {
		t.Errorf("unexpected items %v", ids)
	}
	// the limit is reached within the first page, the second is never fetched
	if client.calls != 1 {
		t.Errorf("expecting 1 page fetch, got %d", client.calls)
	}
}

func TestIteratorTotal(t *testing.T) {
	client := &fakeClient{pages: twoPages()}
	it := NewIterator(client, ifcatalog.SearchFilters{}, 2)

	if _, ok, err := it.Next(context.Background()); !ok || err != nil {
		t.Fatalf("unexpected ok=%v err=%v", ok, err)
	}
	// the catalog matched 3 but the limit caps the run at 2
	if it.Matched() != 3 {
		t.Errorf("expecting 3 matched, got %d", it.Matched())
	}
	if it.Total() != 2 {
		t.Errorf("expecting a total of 2, got %d", it.Total())
	}

	it = NewIterator(&fakeClient{pages: twoPages()}, ifcatalog.SearchFilters{}, 0)
	if _, ok, err := it.Next(context.Background()); !ok || err != nil {
		t.Fatalf("unexpected ok=%v err=%v", ok, err)
	}
	if it.Total() != 3 {
		t.Errorf("expecting a total of 3, got %d", it.Total())
	}

	// a catalog that does not report matched still yields the limit
	pages := map[string]ifcatalog.Page{"": {Items: items("a", "b", "c")}}
	it = NewIterator(&fakeClient{pages: pages}, ifcatalog.SearchFilters{}, 2)
	if _, ok, err := it.Next(context.Background()); !ok || err != nil {
		t.Fatalf("unexpected ok=%v err=%v", ok, err)
	}
	if it.Total() != 2 {
		t.Errorf("expecting a total of 2, got %d", it.Total())
	}
}

func TestIteratorRetryAfterFetchError(t *testing.T) {
	client := &fakeClient{pages: twoPages(), failures: 1}
	it := NewIterator(client, ifcatalog.SearchFilters{}, 0)

	_, ok, err := it.Next(context.Background())
	if err == nil || ok {
		t.Fatalf("expecting a fetch error, got ok=%v err=%v", ok, err)
	}
	var pageErr ErrPageFetch
	if !errors.As(err, &pageErr) {
		t.Fatalf("expecting ErrPageFetch, got %T", err)
	}
	if pageErr.Token != "" {
		t.Errorf("expecting the first page token, got %q", pageErr.Token)
	}

	// the failed page is retried on the next call
	ids := collect(t, it)
	if len(ids) != 3 {
		t.Errorf("unexpected items %v", ids)
	}
}

func TestIteratorReset(t *testing.T) {
	client := &fakeClient{pages: twoPages()}
	it := NewIterator(client, ifcatalog.SearchFilters{}, 0)

	if ids := collect(t, it); len(ids) != 3 {
		t.Fatalf("unexpected items %v", ids)
	}
	it.Reset()
	if ids := collect(t, it); len(ids) != 3 {
		t.Errorf("unexpected items after reset %v", ids)
	}
}

func TestIteratorEmptyResults(t *testing.T) {
	client := &fakeClient{pages: map[string]ifcatalog.Page{"": {}}}
	it := NewIterator(client, ifcatalog.SearchFilters{}, 0)

	if ids := collect(t, it); len(ids) != 0 {
		t.Errorf("unexpected items %v", ids)
	}
	if client.calls != 1 {
		t.Errorf("expecting 1 page fetch, got %d", client.calls)
	}
}
