// Package earthsearch implements the catalog client of Element84 EarthSearch.
// Its asset hrefs are permanent public URLs, no signing is involved.
package earthsearch

import (
	"context"
	"time"

	"github.com/airbusgeo/stac-fetch/common"
	"github.com/airbusgeo/stac-fetch/interface/catalog"
	"github.com/airbusgeo/stac-fetch/interface/catalog/stacapi"
)

const (
	APIURL = "https://earth-search.aws.element84.com/v1"

	searchRetries = 3
)

// Client implements catalog.Client against the EarthSearch STAC API
type Client struct {
	api stacapi.API
}

// Config of the EarthSearch catalog
type Config struct {
	// APIURL overrides the public endpoint (tests, mirrors)
	APIURL string
	// PreferS3 selects the s3:// alternate href of an asset when the catalog
	// publishes one (requester-pays buckets, direct S3 access)
	PreferS3 bool
}

func NewClient(cfg Config) *Client {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = APIURL
	}
	return &Client{
		api: stacapi.API{
			SearchURL: apiURL + "/search",
			Provider:  common.ProviderOpen,
			PreferS3:  cfg.PreferS3,
			Retries:   searchRetries,
		},
	}
}

func (c *Client) SearchPage(ctx context.Context, filters catalog.SearchFilters, token string) (catalog.Page, error) {
	return c.api.SearchPage(ctx, filters, token)
}

// Sign is a passthrough: EarthSearch URLs are permanent
func (c *Client) Sign(ctx context.Context, rawURL string) (string, time.Time, error) {
	return rawURL, time.Time{}, nil
}

func (c *Client) Identity() common.ProviderTag {
	return common.ProviderOpen
}
