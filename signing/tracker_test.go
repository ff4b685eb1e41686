package signing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/airbusgeo/stac-fetch/common"
	ifcatalog "github.com/airbusgeo/stac-fetch/interface/catalog"
)

type fakeSigner struct {
	calls  int32
	fail   bool
	expiry time.Time
	delay  time.Duration
}

func (f *fakeSigner) Sign(ctx context.Context, rawURL string) (string, time.Time, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail {
		return "", time.Time{}, fmt.Errorf("sas endpoint unavailable")
	}
	return rawURL + "?sig=abc", f.expiry, nil
}

func (f *fakeSigner) SearchPage(ctx context.Context, filters ifcatalog.SearchFilters, token string) (ifcatalog.Page, error) {
	return ifcatalog.Page{}, nil
}

func (f *fakeSigner) Identity() common.ProviderTag {
	return common.ProviderSigned
}

func tp(t time.Time) *time.Time { return &t }

func TestIsExpired(t *testing.T) {
	now := time.Date(2024, 1, 8, 11, 0, 0, 0, time.UTC)
	for _, tt := range []struct {
		name    string
		ref     common.AssetRef
		expired bool
	}{
		{"not applicable", common.AssetRef{State: common.StateNotApplicable}, false},
		{"unsigned", common.AssetRef{State: common.StateUnsigned}, false},
		{"marked expired", common.AssetRef{State: common.StateExpired, Expires: tp(now.Add(time.Hour))}, true},
		{"valid", common.AssetRef{State: common.StateSigned, Expires: tp(now.Add(time.Hour))}, false},
		{"past expiry", common.AssetRef{State: common.StateSigned, Expires: tp(now.Add(-time.Minute))}, true},
		{"within skew", common.AssetRef{State: common.StateSigned, Expires: tp(now.Add(time.Minute))}, true},
		{"no expiry", common.AssetRef{State: common.StateSigned, URL: "https://x/y.tif?sig=abc"}, true},
		{"se param", common.AssetRef{State: common.StateSigned,
			URL: "https://x/y.tif?se=2024-01-08T12%3A00%3A00Z&sig=abc"}, false},
		{"se param past", common.AssetRef{State: common.StateSigned,
			URL: "https://x/y.tif?se=2024-01-08T10%3A00%3A00Z&sig=abc"}, true},
		{"se param garbage", common.AssetRef{State: common.StateSigned,
			URL: "https://x/y.tif?se=notadate&sig=abc"}, true},
	} {
		if got := IsExpired(tt.ref, now); got != tt.expired {
			t.Errorf("%s: expecting expired=%v, got %v", tt.name, tt.expired, got)
		}
	}
}

func TestEnsureFreshNotApplicable(t *testing.T) {
	signer := &fakeSigner{}
	tracker := NewTracker(signer)

	ref := common.AssetRef{Key: "B04", URL: "https://x/B04.tif", State: common.StateNotApplicable}
	fresh, err := tracker.EnsureFresh(context.Background(), "item", ref)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if fresh != ref {
		t.Errorf("expecting a passthrough, got %+v", fresh)
	}
	if signer.calls != 0 {
		t.Errorf("expecting no signing call, got %d", signer.calls)
	}
}

func TestEnsureFreshSignsOnce(t *testing.T) {
	signer := &fakeSigner{expiry: time.Now().Add(time.Hour)}
	tracker := NewTracker(signer)
	ref := common.AssetRef{Key: "B04", URL: "https://x/B04.tif", State: common.StateUnsigned}

	fresh, err := tracker.EnsureFresh(context.Background(), "item", ref)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if fresh.URL != "https://x/B04.tif?sig=abc" || fresh.State != common.StateSigned {
		t.Errorf("unexpected ref %+v", fresh)
	}
	if fresh.Expires == nil {
		t.Fatal("expecting an expiry")
	}

	// the cached reference is served while valid
	if _, err := tracker.EnsureFresh(context.Background(), "item", ref); err != nil {
		t.Fatalf("%v", err)
	}
	if signer.calls != 1 {
		t.Errorf("expecting 1 signing call, got %d", signer.calls)
	}
}

func TestEnsureFreshConcurrent(t *testing.T) {
	signer := &fakeSigner{expiry: time.Now().Add(time.Hour), delay: 10 * time.Millisecond}
	tracker := NewTracker(signer)
	ref := common.AssetRef{Key: "B04", URL: "https://x/B04.tif", State: common.StateUnsigned}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tracker.EnsureFresh(context.Background(), "item", ref); err != nil {
				t.Errorf("%v", err)
			}
		}()
	}
	wg.Wait()
	// concurrent requests for the same asset share one in-flight signing call
	if signer.calls != 1 {
		t.Errorf("expecting 1 signing call, got %d", signer.calls)
	}
}

func TestEnsureFreshResignsExpired(t *testing.T) {
	signer := &fakeSigner{expiry: time.Now().Add(-time.Minute)}
	tracker := NewTracker(signer)
	ref := common.AssetRef{Key: "B04", URL: "https://x/B04.tif", State: common.StateUnsigned}

	fresh, err := tracker.EnsureFresh(context.Background(), "item", ref)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if fresh.State != common.StateSigned {
		t.Errorf("unexpected state %v", fresh.State)
	}

	// the cached reference lapsed, EnsureFresh signs again
	signer.expiry = time.Now().Add(time.Hour)
	if _, err := tracker.EnsureFresh(context.Background(), "item", ref); err != nil {
		t.Fatalf("%v", err)
	}
	if signer.calls != 2 {
		t.Errorf("expecting 2 signing calls, got %d", signer.calls)
	}
}

func TestEnsureFreshFailureKeepsStale(t *testing.T) {
	signer := &fakeSigner{fail: true}
	tracker := NewTracker(signer)
	ref := common.AssetRef{Key: "B04", URL: "https://x/B04.tif", State: common.StateUnsigned}

	stale, err := tracker.EnsureFresh(context.Background(), "item", ref)
	if err == nil {
		t.Fatal("expecting an error")
	}
	var sf ErrSigningFailed
	if !errors.As(err, &sf) {
		t.Fatalf("expecting ErrSigningFailed, got %T", err)
	}
	if stale.URL != ref.URL || stale.State != common.StateExpired {
		t.Errorf("unexpected stale ref %+v", stale)
	}
}

func TestInvalidateForcesResign(t *testing.T) {
	signer := &fakeSigner{expiry: time.Now().Add(time.Hour)}
	tracker := NewTracker(signer)
	ref := common.AssetRef{Key: "B04", URL: "https://x/B04.tif", State: common.StateUnsigned}

	if _, err := tracker.EnsureFresh(context.Background(), "item", ref); err != nil {
		t.Fatalf("%v", err)
	}
	tracker.Invalidate("item", "B04")
	if _, err := tracker.EnsureFresh(context.Background(), "item", ref); err != nil {
		t.Fatalf("%v", err)
	}
	if signer.calls != 2 {
		t.Errorf("expecting 2 signing calls, got %d", signer.calls)
	}
}
