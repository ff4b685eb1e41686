// Package stacapi implements the search transport shared by the STAC API providers.
package stacapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/airbusgeo/stac-fetch/common"
	"github.com/airbusgeo/stac-fetch/interface/catalog"
	"github.com/airbusgeo/stac-fetch/service"
	"github.com/go-spatial/geom/encoding/geojson"
)

const defaultRetries = 3

// API posts searches to one STAC API search endpoint and parses the results
// into catalog items tagged with the owning provider.
type API struct {
	SearchURL string
	Headers   http.Header
	Provider  common.ProviderTag
	// PreferS3 selects the s3:// alternate href of an asset when the catalog
	// publishes one
	PreferS3 bool
	Retries  int
}

type stacAsset struct {
	Href      string `json:"href"`
	Type      string `json:"type"`
	Alternate struct {
		S3 struct {
			Href string `json:"href"`
		} `json:"s3"`
	} `json:"alternate"`
}

type stacFeature struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"collection"`
	BBox       []float64              `json:"bbox"`
	Properties map[string]interface{} `json:"properties"`
	Assets     map[string]stacAsset   `json:"assets"`
}

type stacLink struct {
	Rel  string          `json:"rel"`
	Href string          `json:"href"`
	Body json.RawMessage `json:"body"`
}

// SearchPage implements catalog.Client.SearchPage for any STAC API endpoint
func (a *API) SearchPage(ctx context.Context, filters catalog.SearchFilters, token string) (catalog.Page, error) {
	retries := a.Retries
	if retries == 0 {
		retries = defaultRetries
	}

	var jsonResults []byte
	var err error
	if strings.HasPrefix(token, "http://") || strings.HasPrefix(token, "https://") {
		// some catalogs paginate with a plain next URL
		jsonResults, err = a.get(ctx, token, retries)
	} else {
		payload, perr := a.payload(filters, token)
		if perr != nil {
			return catalog.Page{}, fmt.Errorf("SearchPage: %w", perr)
		}
		jsonResults, err = a.post(ctx, payload, retries)
	}
	if err != nil {
		return catalog.Page{}, fmt.Errorf("SearchPage: %w", err)
	}

	results := struct {
		Features []stacFeature `json:"features"`
		Links    []stacLink    `json:"links"`
		Context  struct {
			Matched int `json:"matched"`
		} `json:"context"`
		NumberMatched int `json:"numberMatched"`
	}{}
	if err := json.Unmarshal(jsonResults, &results); err != nil {
		return catalog.Page{}, fmt.Errorf("SearchPage.Unmarshal: %w (response: %.512s)", err, jsonResults)
	}

	page := catalog.Page{
		Items:     make([]common.CatalogItem, len(results.Features)),
		NextToken: nextToken(results.Links),
		Matched:   results.NumberMatched,
	}
	if page.Matched == 0 {
		page.Matched = results.Context.Matched
	}
	for i, f := range results.Features {
		page.Items[i] = a.toItem(f)
	}
	return page, nil
}

// payload builds the search request body, merging the continuation token fields
// returned by the previous page (if any).
func (a *API) payload(filters catalog.SearchFilters, token string) ([]byte, error) {
	body := map[string]interface{}{}
	if token != "" {
		if err := json.Unmarshal([]byte(token), &body); err != nil {
			return nil, fmt.Errorf("malformed continuation token %q: %w", token, err)
		}
	}
	if len(filters.Collections) > 0 {
		body["collections"] = filters.Collections
	}
	if len(filters.BBox) == 4 {
		body["bbox"] = filters.BBox
	}
	if filters.Intersects != nil {
		body["intersects"] = geojson.Geometry{Geometry: filters.Intersects}
	}
	if dt := datetimeRange(filters.StartTime, filters.EndTime); dt != "" {
		body["datetime"] = dt
	}
	if len(filters.Query) > 0 {
		body["query"] = filters.Query
	}
	if filters.PageSize > 0 {
		body["limit"] = filters.PageSize
	}
	return json.Marshal(body)
}

func (a *API) post(ctx context.Context, payload []byte, retries int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", a.SearchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(string(payload))), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json")
	for k, vs := range a.Headers {
		req.Header[k] = vs
	}
	return service.DoBodyRetry(req, retries)
}

func (a *API) get(ctx context.Context, url string, retries int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	for k, vs := range a.Headers {
		req.Header[k] = vs
	}
	return service.DoBodyRetry(req, retries)
}

func (a *API) toItem(f stacFeature) common.CatalogItem {
	state := common.StateNotApplicable
	if a.Provider.SigningCapable() {
		state = common.StateUnsigned
	}
	item := common.CatalogItem{
		ID:         f.ID,
		Collection: f.Collection,
		Provider:   a.Provider,
		BBox:       f.BBox,
		Properties: f.Properties,
		Assets:     make(map[string]common.AssetRef, len(f.Assets)),
	}
	for key, asset := range f.Assets {
		href := asset.Href
		if a.PreferS3 && asset.Alternate.S3.Href != "" {
			href = asset.Alternate.S3.Href
		}
		item.Assets[key] = common.AssetRef{Key: key, URL: href, State: state}
	}
	return item
}

// nextToken extracts the opaque continuation token from the page links.
// POST-style catalogs return the fields to merge into the next request body,
// GET-style catalogs a plain URL.
func nextToken(links []stacLink) string {
	for _, link := range links {
		if strings.ToLower(link.Rel) != "next" {
			continue
		}
		if len(link.Body) > 0 {
			return string(link.Body)
		}
		if link.Href != "" {
			return link.Href
		}
	}
	return ""
}

// datetimeRange formats the RFC3339 interval of the search ("" if unbounded)
func datetimeRange(start, end time.Time) string {
	if start.IsZero() && end.IsZero() {
		return ""
	}
	from, to := "..", ".."
	if !start.IsZero() {
		from = start.UTC().Format(time.RFC3339)
	}
	if !end.IsZero() {
		to = end.UTC().Format(time.RFC3339)
	}
	return from + "/" + to
}
