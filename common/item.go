package common

import (
	"sort"
	"time"
)

//go:generate go run github.com/dmarkham/enumer -json -type SigningState -trimprefix State

// SigningState is the lifecycle state of an asset URL
type SigningState int

const (
	// StateUnsigned : the raw catalog URL, not yet usable on a signed provider
	StateUnsigned SigningState = iota
	// StateSigned : a time-limited URL carrying an access token
	StateSigned
	// StateExpired : a signed URL past its expiry
	StateExpired
	// StateNotApplicable : the provider does not sign URLs
	StateNotApplicable
)

// AssetRef is one retrievable file of a CatalogItem.
// It is owned by its parent item and never shared, even when two items point
// to the same storage object.
type AssetRef struct {
	Key     string       `json:"key"`
	URL     string       `json:"url"`
	State   SigningState `json:"state"`
	Expires *time.Time   `json:"expires,omitempty"`
}

// CatalogItem is one catalog record (e.g. a single satellite scene) with its named assets.
type CatalogItem struct {
	ID         string                 `json:"id"`
	Collection string                 `json:"collection,omitempty"`
	Provider   ProviderTag            `json:"provider"`
	Assets     map[string]AssetRef    `json:"assets"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	BBox       []float64              `json:"bbox,omitempty"`
}

// AssetKeys returns the item's asset keys, sorted for stable error messages
func (item CatalogItem) AssetKeys() []string {
	keys := make([]string, 0, len(item.Assets))
	for k := range item.Assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Datetime returns the item acquisition datetime property, if present and well-formed
func (item CatalogItem) Datetime() (time.Time, bool) {
	s, ok := item.Properties["datetime"].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, err == nil
}

// CloudCover returns the eo:cloud_cover property, if present
func (item CatalogItem) CloudCover() (float64, bool) {
	v, ok := item.Properties["eo:cloud_cover"].(float64)
	return v, ok
}
