package common

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSigningStateJSON(t *testing.T) {
	b, err := json.Marshal(StateNotApplicable)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if string(b) != `"NotApplicable"` {
		t.Errorf("expecting \"NotApplicable\", got %s", b)
	}
	var s SigningState
	if err := json.Unmarshal([]byte(`"expired"`), &s); err != nil {
		t.Fatalf("%v", err)
	}
	if s != StateExpired {
		t.Errorf("expecting StateExpired, got %v", s)
	}
}

func TestProviderTagJSON(t *testing.T) {
	for _, p := range ProviderTagValues() {
		b, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("%v", err)
		}
		var back ProviderTag
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("%v", err)
		}
		if back != p {
			t.Errorf("expecting %v, got %v", p, back)
		}
	}
	if ProviderSigned.SigningCapable() != true || ProviderOpen.SigningCapable() != false {
		t.Fail()
	}
}

func TestItemProperties(t *testing.T) {
	item := CatalogItem{
		ID: "S2B_MSIL2A_20240108T104429_R008_T32UNF",
		Properties: map[string]interface{}{
			"datetime":       "2024-01-08T10:44:29Z",
			"eo:cloud_cover": 12.5,
		},
		Assets: map[string]AssetRef{
			"B04": {Key: "B04", URL: "https://example.com/B04.tif"},
			"B03": {Key: "B03", URL: "https://example.com/B03.tif"},
		},
	}

	if dt, ok := item.Datetime(); !ok || !dt.Equal(time.Date(2024, 1, 8, 10, 44, 29, 0, time.UTC)) {
		t.Errorf("unexpected datetime %v ok=%v", dt, ok)
	}
	if cc, ok := item.CloudCover(); !ok || cc != 12.5 {
		t.Errorf("unexpected cloud cover %v ok=%v", cc, ok)
	}
	keys := item.AssetKeys()
	if len(keys) != 2 || keys[0] != "B03" || keys[1] != "B04" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestReportCounts(t *testing.T) {
	r := NewReport()
	r.Set("item1", "B04", DownloadResult{Status: StatusCompleted, Bytes: 42})
	r.Set("item1", "B03", DownloadResult{Status: StatusSkipped, Reason: SkipAlreadyPresent})
	r.Set("item2", "B04", DownloadResult{Status: StatusFailed, Error: "404", Retryable: false})

	completed, skipped, failed := r.Counts()
	if completed != 1 || skipped != 1 || failed != 1 {
		t.Errorf("unexpected counts %d/%d/%d", completed, skipped, failed)
	}
	if r.FullySucceeded() {
		t.Error("run with a failure should not be fully succeeded")
	}
}

func TestReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "report.json")

	r := NewReport()
	r.Set("item1", "B04", DownloadResult{Status: StatusCompleted, Path: "/data/item1/B04.tif", Bytes: 1024})
	if err := r.Save(path); err != nil {
		t.Fatalf("%v", err)
	}

	loaded, err := LoadReport(path)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if loaded.RunID != r.RunID {
		t.Errorf("expecting run id %s, got %s", r.RunID, loaded.RunID)
	}
	res, ok := loaded.Get("item1", "B04")
	if !ok || res.Status != StatusCompleted || res.Bytes != 1024 {
		t.Errorf("unexpected result %+v ok=%v", res, ok)
	}
	if _, ok := loaded.Get("item1", "B03"); ok {
		t.Error("unexpected result for B03")
	}
}

func TestLoadReportMissing(t *testing.T) {
	if _, err := LoadReport(filepath.Join(os.TempDir(), "does-not-exist.json")); err == nil {
		t.Error("expecting an error")
	}
}
