package planetary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSign(t *testing.T) {
	var gotHref, gotKey string
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHref = r.URL.Query().Get("href")
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		w.Write([]byte(`{"msft:expiry": "2024-01-08T12:00:00Z",
			"href": "https://blob.example.com/B04.tif?st=2024-01-08&se=2024-01-08T12%3A00%3A00Z&sig=abc"}`))
	}))
	defer svr.Close()

	c := NewClient(Config{SigningURL: svr.URL, SubscriptionKey: "secret"})
	signed, expiry, err := c.Sign(context.Background(), "https://blob.example.com/B04.tif")
	if err != nil {
		t.Fatalf("%v", err)
	}
	if gotHref != "https://blob.example.com/B04.tif" {
		t.Errorf("unexpected href param %q", gotHref)
	}
	if gotKey != "secret" {
		t.Errorf("expecting the subscription key header, got %q", gotKey)
	}
	if signed != "https://blob.example.com/B04.tif?st=2024-01-08&se=2024-01-08T12%3A00%3A00Z&sig=abc" {
		t.Errorf("unexpected signed url %s", signed)
	}
	if !expiry.Equal(time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected expiry %v", expiry)
	}
}

func TestSignNoExpiry(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"href": "https://blob.example.com/B04.tif?se=2024-01-08T12%3A00%3A00Z&sig=abc"}`))
	}))
	defer svr.Close()

	c := NewClient(Config{SigningURL: svr.URL})
	signed, expiry, err := c.Sign(context.Background(), "https://blob.example.com/B04.tif")
	if err != nil {
		t.Fatalf("%v", err)
	}
	if signed == "" {
		t.Error("expecting a signed url")
	}
	// a missing msft:expiry is not an error, the se= token param still carries it
	if !expiry.IsZero() {
		t.Errorf("expecting a zero expiry, got %v", expiry)
	}
}

func TestSignError(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such collection", 404)
	}))
	defer svr.Close()

	c := NewClient(Config{SigningURL: svr.URL})
	if _, _, err := c.Sign(context.Background(), "https://blob.example.com/B04.tif"); err == nil {
		t.Error("expecting an error")
	}
}
