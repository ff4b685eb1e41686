// Package planetary implements the catalog client of Microsoft Planetary Computer.
// Its asset hrefs point to private blob storage and must be exchanged for SAS-signed
// URLs with a limited lifetime.
package planetary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/airbusgeo/stac-fetch/common"
	"github.com/airbusgeo/stac-fetch/interface/catalog"
	"github.com/airbusgeo/stac-fetch/interface/catalog/stacapi"
	"github.com/airbusgeo/stac-fetch/service"
)

const (
	APIURL     = "https://planetarycomputer.microsoft.com/api/stac/v1"
	SigningURL = "https://planetarycomputer.microsoft.com/api/sas/v1/sign"

	searchRetries = 3
	signRetries   = 3
)

// Client implements catalog.Client against the Planetary Computer STAC API
type Client struct {
	api     stacapi.API
	signURL string
	headers http.Header
}

// Config of the Planetary Computer catalog
type Config struct {
	// APIURL overrides the public endpoint (tests, mirrors)
	APIURL string
	// SigningURL overrides the public SAS endpoint
	SigningURL string
	// SubscriptionKey raises the rate limits and SAS lifetimes (optional)
	SubscriptionKey string
}

func NewClient(cfg Config) *Client {
	apiURL, signURL := cfg.APIURL, cfg.SigningURL
	if apiURL == "" {
		apiURL = APIURL
	}
	if signURL == "" {
		signURL = SigningURL
	}
	headers := http.Header{}
	if cfg.SubscriptionKey != "" {
		headers.Set("Ocp-Apim-Subscription-Key", cfg.SubscriptionKey)
	}
	return &Client{
		api: stacapi.API{
			SearchURL: apiURL + "/search",
			Headers:   headers,
			Provider:  common.ProviderSigned,
			Retries:   searchRetries,
		},
		signURL: signURL,
		headers: headers,
	}
}

func (c *Client) SearchPage(ctx context.Context, filters catalog.SearchFilters, token string) (catalog.Page, error) {
	return c.api.SearchPage(ctx, filters, token)
}

// Sign exchanges the raw blob href for a SAS-signed URL with its expiry.
// Retriable SAS endpoint statuses are retried before the error is surfaced.
func (c *Client) Sign(ctx context.Context, rawURL string) (string, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.signURL+"?href="+url.QueryEscape(rawURL), nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("Sign.NewRequest: %w", err)
	}
	for k, vs := range c.headers {
		req.Header[k] = vs
	}
	body, err := service.DoBodyRetry(req, signRetries)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("Sign[%s]: %w", rawURL, err)
	}

	signed := struct {
		Href   string `json:"href"`
		Expiry string `json:"msft:expiry"`
	}{}
	if err := json.Unmarshal(body, &signed); err != nil {
		return "", time.Time{}, fmt.Errorf("Sign.Unmarshal: %w (response: %.512s)", err, body)
	}
	if signed.Href == "" {
		return "", time.Time{}, fmt.Errorf("Sign[%s]: no href in response %.512s", rawURL, body)
	}

	expiry, err := time.Parse(time.RFC3339, signed.Expiry)
	if err != nil {
		// the expiry is also carried by the se= param of the SAS token
		expiry = time.Time{}
	}
	return signed.Href, expiry, nil
}

func (c *Client) Identity() common.ProviderTag {
	return common.ProviderSigned
}
