package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/alsace-van/catalog-import/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestListEntriesPagingWithRetry(t *testing.T) {
	attempt := 0

	cfg, _ := config.Load()
	cfg.CatalogAPIToken = "test"
	cfg.CatalogAPIBaseURL = "https://example.test/api/v1"
	cfg.CatalogRateLimit = 1000
	cfg.CatalogSyncPageLen = 1

	client := NewClient(cfg)
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/api/v1/entries" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer test" {
				t.Fatalf("missing bearer token")
			}
			attempt++
			if attempt == 1 {
				return &http.Response{
					StatusCode: http.StatusServiceUnavailable,
					Body:       io.NopCloser(strings.NewReader(`{"error":"boom"}`)),
					Header:     make(http.Header),
				}, nil
			}

			entries := []map[string]any{}
			switch r.URL.Query().Get("offset") {
			case "0":
				entries = append(entries, map[string]any{"id": "0b6a8a3e-9f1f-4f6f-9a64-0c9a9f1d0001", "name": "Batterie Lithium 100Ah"})
			case "1":
				entries = append(entries, map[string]any{"id": "0b6a8a3e-9f1f-4f6f-9a64-0c9a9f1d0002", "name": "Toit relevable 3200"})
			}
			payload := map[string]any{"success": true, "data": map[string]any{"entries": entries, "total": 2}}
			blob, _ := json.Marshal(payload)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(string(blob))),
				Header:     make(http.Header),
			}, nil
		}),
	}

	entries, err := client.ListEntries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len=%d", len(entries))
	}
	if entries[0].Name != "Batterie Lithium 100Ah" {
		t.Fatalf("name=%q", entries[0].Name)
	}
}

func TestListEntriesRequiresToken(t *testing.T) {
	cfg, _ := config.Load()
	cfg.CatalogAPIToken = ""

	if _, err := NewClient(cfg).ListEntries(context.Background()); err == nil {
		t.Fatal("expected missing token error")
	}
}
