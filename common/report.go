package common

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

//go:generate go run github.com/dmarkham/enumer -json -type TaskStatus -trimprefix Status

// TaskStatus is the final state of one download task
type TaskStatus int

const (
	StatusCompleted TaskStatus = iota
	StatusSkipped
	StatusFailed
)

// Skip reasons reported in DownloadResult.Reason
const (
	SkipAlreadyPresent = "already_present"
	SkipAssetNotFound  = "asset_not_found"
	SkipCancelled      = "cancelled"
)

// DownloadResult is the outcome of one (item, asset) transfer
type DownloadResult struct {
	Status    TaskStatus `json:"status"`
	Path      string     `json:"path,omitempty"`
	Bytes     int64      `json:"bytes,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Error     string     `json:"error,omitempty"`
	Retryable bool       `json:"retryable,omitempty"`
	Retries   int        `json:"retries,omitempty"`
}

// Report aggregates the outcome of a download run, keyed by item ID then asset key.
// A saved report can be reloaded to seed the skip-set of a later run.
type Report struct {
	RunID   string                               `json:"run_id"`
	Started time.Time                            `json:"started"`
	Aborted bool                                 `json:"aborted,omitempty"`
	Results map[string]map[string]DownloadResult `json:"results"`
}

// NewReport creates an empty report with a fresh run ID
func NewReport() *Report {
	return &Report{
		RunID:   uuid.New().String(),
		Started: time.Now().UTC(),
		Results: map[string]map[string]DownloadResult{},
	}
}

// Set records the result of the (itemID, assetKey) task
func (r *Report) Set(itemID, assetKey string, res DownloadResult) {
	m, ok := r.Results[itemID]
	if !ok {
		m = map[string]DownloadResult{}
		r.Results[itemID] = m
	}
	m[assetKey] = res
}

// Get returns the result of the (itemID, assetKey) task, if recorded
func (r *Report) Get(itemID, assetKey string) (DownloadResult, bool) {
	res, ok := r.Results[itemID][assetKey]
	return res, ok
}

// Counts returns the number of results per status
func (r *Report) Counts() (completed, skipped, failed int) {
	for _, assets := range r.Results {
		for _, res := range assets {
			switch res.Status {
			case StatusCompleted:
				completed++
			case StatusSkipped:
				skipped++
			case StatusFailed:
				failed++
			}
		}
	}
	return completed, skipped, failed
}

// FullySucceeded returns whether the run finished without any failed task
func (r *Report) FullySucceeded() bool {
	_, _, failed := r.Counts()
	return !r.Aborted && failed == 0
}

// Summary returns a one-line human readable status of the run
func (r *Report) Summary() string {
	completed, skipped, failed := r.Counts()
	switch {
	case r.Aborted:
		return fmt.Sprintf("aborted (%d completed, %d skipped, %d failed)", completed, skipped, failed)
	case failed > 0:
		return fmt.Sprintf("partially succeeded with %d failures (%d completed, %d skipped)", failed, completed, skipped)
	default:
		return fmt.Sprintf("fully succeeded (%d completed, %d skipped)", completed, skipped)
	}
}

// Save writes the report as JSON, creating parent directories if needed
func (r *Report) Save(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("Report.Save.Marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("Report.Save.MkdirAll: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("Report.Save.WriteFile: %w", err)
	}
	return nil
}

// LoadReport reads a report previously written by Save
func LoadReport(path string) (*Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadReport.ReadFile: %w", err)
	}
	r := Report{}
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("LoadReport.Unmarshal: %w", err)
	}
	if r.Results == nil {
		r.Results = map[string]map[string]DownloadResult{}
	}
	return &r, nil
}
