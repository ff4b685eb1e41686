package catalog

import (
	"context"
	"time"

	"github.com/airbusgeo/stac-fetch/common"
	"github.com/go-spatial/geom"
)

// SearchFilters describes a catalog search. Zero-valued fields are omitted from
// the query.
type SearchFilters struct {
	Collections []string
	// BBox is [west, south, east, north]
	BBox []float64
	// Intersects restricts the search to items intersecting the geometry
	Intersects geom.Geometry
	StartTime  time.Time
	EndTime    time.Time
	// Query holds provider filter extensions, e.g. {"eo:cloud_cover": {"lt": 20}}
	Query map[string]interface{}
	// PageSize is the number of items requested per page
	PageSize int
}

// Page is one batch of search results together with the continuation token of
// the next batch ("" when the catalog is exhausted).
type Page struct {
	Items     []common.CatalogItem
	NextToken string
	// Matched is the catalog-reported total number of hits (0 if unknown)
	Matched int
}

// Client is the provider contract the core depends on. Implementations wrap one
// catalog API endpoint and its signing convention.
type Client interface {
	// SearchPage fetches one page of results. An empty token starts from the
	// first page.
	SearchPage(ctx context.Context, filters SearchFilters, token string) (Page, error)

	// Sign exchanges a raw asset URL for a usable one, with its expiry.
	// Providers that do not sign return the URL unchanged and a zero expiry.
	Sign(ctx context.Context, rawURL string) (string, time.Time, error)

	// Identity returns the provider tag driving the URL lifecycle of its assets
	Identity() common.ProviderTag
}
