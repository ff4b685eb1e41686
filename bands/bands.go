// Package bands maps logical band requests ("red", "B04") to the asset keys
// a catalog item actually exposes.
package bands

import (
	"fmt"
	"os"
	"strings"

	"github.com/airbusgeo/stac-fetch/common"
	"gopkg.in/yaml.v3"
)

// ErrAssetNotFound is returned when neither the requested identifier nor any of its
// alias candidates match the item's assets. It carries the available keys so callers
// can diagnose naming mismatches.
type ErrAssetNotFound struct {
	Requested string
	Available []string
}

func (e ErrAssetNotFound) Error() string {
	return fmt.Sprintf("asset not found: %s (available: %s)", e.Requested, strings.Join(e.Available, ", "))
}

// Table maps canonical band names to provider-specific candidate keys, in priority
// order. It is immutable after load.
type Table struct {
	aliases map[string][]string
}

// defaultAliases covers the usual Sentinel-2 and Landsat Collection-2 namings.
var defaultAliases = map[string][]string{
	"coastal":  {"B01", "coastal", "SR_B1"},
	"blue":     {"B02", "blue", "SR_B2"},
	"green":    {"B03", "green", "SR_B3"},
	"red":      {"B04", "red", "SR_B4"},
	"rededge1": {"B05", "rededge1"},
	"rededge2": {"B06", "rededge2"},
	"rededge3": {"B07", "rededge3"},
	"nir":      {"B08", "nir", "SR_B5"},
	"nir08":    {"B8A", "nir08"},
	"nir09":    {"B09", "nir09"},
	"swir16":   {"B11", "swir16", "SR_B6"},
	"swir22":   {"B12", "swir22", "SR_B7"},
	"scl":      {"SCL", "scl"},
	"visual":   {"visual", "TCI"},
	"qa":       {"QA_PIXEL", "qa_pixel"},
}

// DefaultTable returns the built-in alias table
func DefaultTable() *Table {
	return newTable(defaultAliases, nil)
}

// LoadTable returns the built-in table with the entries of the given YAML file
// merged in (file entries replace built-in ones).
// File format: a mapping of canonical name to an ordered list of candidate keys.
func LoadTable(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadTable.ReadFile: %w", err)
	}
	overrides := map[string][]string{}
	if err := yaml.Unmarshal(b, &overrides); err != nil {
		return nil, fmt.Errorf("LoadTable.Unmarshal: %w", err)
	}
	return newTable(defaultAliases, overrides), nil
}

func newTable(aliases, overrides map[string][]string) *Table {
	t := Table{aliases: make(map[string][]string, len(aliases))}
	for name, candidates := range aliases {
		t.aliases[name] = append([]string(nil), candidates...)
	}
	for name, candidates := range overrides {
		t.aliases[name] = append([]string(nil), candidates...)
	}
	return &t
}

// Candidates returns the candidate keys of the canonical name, in priority order
func (t *Table) Candidates(name string) []string {
	return t.aliases[name]
}

// Resolve maps the requested band identifier to one of the item's asset keys.
// The requested identifier may already be a literal key (exact match wins);
// otherwise the alias candidates are tested in table-declared order.
// It never returns a key the item does not have.
func (t *Table) Resolve(item common.CatalogItem, requested string) (string, error) {
	if _, ok := item.Assets[requested]; ok {
		return requested, nil
	}
	for _, candidate := range t.Candidates(requested) {
		if _, ok := item.Assets[candidate]; ok {
			return candidate, nil
		}
	}
	return "", ErrAssetNotFound{Requested: requested, Available: item.AssetKeys()}
}
