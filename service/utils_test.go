package service

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetExt(t *testing.T) {
	tests := map[string]string{
		"https://example.com/items/B04.tif":              "tif",
		"https://example.com/items/B04.tif?se=2024&sig=x": "tif",
		"s3://bucket/path/to/scene/B04.jp2":              "jp2",
		"https://example.com/items/noext":                "",
	}
	for url, expected := range tests {
		if ext := GetExt(url); ext != expected {
			t.Errorf("GetExt(%s): expecting %q, got %q", url, expected, ext)
		}
	}
}

func TestStringSet(t *testing.T) {
	ss := StringSet{}
	ss.Push("a")
	ss.Push("a")
	ss.Push("b")
	if len(ss.Slice()) != 2 {
		t.Errorf("expecting 2 elements, got %d", len(ss.Slice()))
	}
	if !ss.Exists("a") || ss.Exists("c") {
		t.Fail()
	}
	ss.Pop("a")
	if ss.Exists("a") {
		t.Fail()
	}
}

func TestDoBodyRetry(t *testing.T) {
	tries := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tries++
		if tries < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	req, err := http.NewRequest("GET", srv.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	body, err := DoBodyRetry(req, 3)
	if err != nil {
		t.Fatalf("DoBodyRetry: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("expecting ok, got %s", body)
	}
	if tries != 3 {
		t.Errorf("expecting 3 tries, got %d", tries)
	}
}

func TestDoBodyRetryPermanent(t *testing.T) {
	tries := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tries++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	req, err := http.NewRequest("GET", srv.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if _, err := DoBodyRetry(req, 3); err == nil {
		t.Fatal("expecting an error")
	}
	if tries != 1 {
		t.Errorf("expecting 1 try, got %d", tries)
	}
}
