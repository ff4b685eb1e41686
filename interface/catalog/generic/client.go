// Package generic implements the catalog client of an arbitrary STAC API
// endpoint with no signing convention. Asset URLs are used as published.
package generic

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/airbusgeo/stac-fetch/common"
	"github.com/airbusgeo/stac-fetch/interface/catalog"
	"github.com/airbusgeo/stac-fetch/interface/catalog/stacapi"
)

const searchRetries = 3

// Client implements catalog.Client against any STAC API endpoint
type Client struct {
	api stacapi.API
}

// Config of a generic catalog
type Config struct {
	// APIURL is the root of the STAC API (required)
	APIURL string
	// Headers are sent with every request (auth tokens, api keys)
	Headers http.Header
}

func NewClient(cfg Config) *Client {
	return &Client{
		api: stacapi.API{
			SearchURL: strings.TrimSuffix(cfg.APIURL, "/") + "/search",
			Headers:   cfg.Headers,
			Provider:  common.ProviderGeneric,
			Retries:   searchRetries,
		},
	}
}

func (c *Client) SearchPage(ctx context.Context, filters catalog.SearchFilters, token string) (catalog.Page, error) {
	return c.api.SearchPage(ctx, filters, token)
}

// Sign is a passthrough: generic catalogs publish directly usable URLs
func (c *Client) Sign(ctx context.Context, rawURL string) (string, time.Time, error) {
	return rawURL, time.Time{}, nil
}

func (c *Client) Identity() common.ProviderTag {
	return common.ProviderGeneric
}
