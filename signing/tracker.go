// Package signing tracks the lifetime of signed asset URLs and refreshes them
// before they lapse.
package signing

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/araddon/dateparse"

	"github.com/airbusgeo/stac-fetch/common"
	ifcatalog "github.com/airbusgeo/stac-fetch/interface/catalog"
)

// ExpirySkew is subtracted from the advertised expiry: a URL that close to
// lapsing is treated as already expired so a download started now cannot fail
// halfway through with a 403.
const ExpirySkew = 2 * time.Minute

// ErrSigningFailed is returned when refreshing a URL fails. Ref is the last
// known (possibly stale) reference.
type ErrSigningFailed struct {
	ItemID string
	Ref    common.AssetRef
	Err    error
}

func (e ErrSigningFailed) Error() string {
	return fmt.Sprintf("sign %s/%s: %v", e.ItemID, e.Ref.Key, e.Err)
}

func (e ErrSigningFailed) Unwrap() error {
	return e.Err
}

// Expiry returns the expiry of the reference, from its Expires field or,
// failing that, from the se= parameter of the SAS token in the URL.
func Expiry(ref common.AssetRef) (time.Time, bool) {
	if ref.Expires != nil && !ref.Expires.IsZero() {
		return *ref.Expires, true
	}
	u, err := url.Parse(ref.URL)
	if err != nil {
		return time.Time{}, false
	}
	se := u.Query().Get("se")
	if se == "" {
		return time.Time{}, false
	}
	expiry, err := dateparse.ParseAny(se)
	if err != nil {
		return time.Time{}, false
	}
	return expiry, true
}

// IsExpired reports whether the reference must be re-signed before use.
// A signed URL with no parseable expiry is conservatively treated as expired.
// Unsigned and NotApplicable references are never expired.
func IsExpired(ref common.AssetRef, now time.Time) bool {
	switch ref.State {
	case common.StateExpired:
		return true
	case common.StateSigned:
		expiry, ok := Expiry(ref)
		if !ok {
			return true
		}
		return !now.Add(ExpirySkew).Before(expiry)
	}
	return false
}

type entry struct {
	mu sync.Mutex
	// raw is the catalog-published URL, the one the provider signs
	raw   string
	ref   common.AssetRef
	valid bool
}

// Tracker serializes the signing of each asset: concurrent downloads of the
// same asset share one in-flight signing call and its result.
type Tracker struct {
	client ifcatalog.Client

	mu      sync.Mutex
	entries map[string]*entry
}

func NewTracker(client ifcatalog.Client) *Tracker {
	return &Tracker{client: client, entries: map[string]*entry{}}
}

func (t *Tracker) entry(key, rawURL string) *entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		e = &entry{raw: rawURL}
		t.entries[key] = e
	}
	return e
}

// EnsureFresh returns a usable reference for the asset, signing or re-signing
// it if needed. References that do not require signing pass through untouched.
// On failure the stale reference is returned along with an ErrSigningFailed.
func (t *Tracker) EnsureFresh(ctx context.Context, itemID string, ref common.AssetRef) (common.AssetRef, error) {
	if ref.State == common.StateNotApplicable {
		return ref, nil
	}

	e := t.entry(itemID+"/"+ref.Key, ref.URL)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.valid && !IsExpired(e.ref, time.Now()) {
		return e.ref, nil
	}
	if !e.valid && !IsExpired(ref, time.Now()) && ref.State == common.StateSigned {
		e.ref, e.valid = ref, true
		return ref, nil
	}

	signed, expiry, err := t.client.Sign(ctx, e.raw)
	if err != nil {
		stale := ref
		if e.valid {
			stale = e.ref
		}
		stale.State = common.StateExpired
		return stale, ErrSigningFailed{ItemID: itemID, Ref: stale, Err: err}
	}
	fresh := common.AssetRef{Key: ref.Key, URL: signed, State: common.StateSigned}
	if expiry.IsZero() {
		if se, ok := Expiry(fresh); ok {
			expiry = se
		}
	}
	if !expiry.IsZero() {
		fresh.Expires = &expiry
	}
	e.ref, e.valid = fresh, true
	return fresh, nil
}

// Invalidate drops the cached reference of the asset, forcing the next
// EnsureFresh to re-sign. Used when a download hits a 403 before the
// advertised expiry.
func (t *Tracker) Invalidate(itemID, assetKey string) {
	t.mu.Lock()
	e, ok := t.entries[itemID+"/"+assetKey]
	t.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.valid = false
	e.mu.Unlock()
}
