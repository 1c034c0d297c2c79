package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alsace-van/catalog-import/internal"
	"github.com/alsace-van/catalog-import/internal/config"
)

// Client talks to the hosted catalog API. The import pipeline only ever
// reads from it: one snapshot fetch per sync, zero writes.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *Throttle
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type entriesPayload struct {
	Entries []entryPayload `json:"entries"`
	Total   int            `json:"total"`
}

type entryPayload struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Brand           *string  `json:"brand"`
	Supplier        *string  `json:"supplier"`
	PurchasePrice   *float64 `json:"purchasePrice"`
	SellPriceIncTax *float64 `json:"sellPriceIncTax"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.CatalogTimeoutMs) * time.Millisecond},
		limiter:    NewThrottle(cfg.CatalogRateLimit),
	}
}

// ListEntries pages through the full catalog.
func (c *Client) ListEntries(ctx context.Context) ([]internal.CatalogEntry, error) {
	pageLen := c.cfg.CatalogSyncPageLen
	if pageLen <= 0 {
		pageLen = 200
	}

	all := make([]internal.CatalogEntry, 0)
	offset := 0
	for {
		body, err := c.fetchJSON(ctx, "entries", map[string]string{
			"offset": strconv.Itoa(offset),
			"limit":  strconv.Itoa(pageLen),
		})
		if err != nil {
			return nil, err
		}

		var payload entriesPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}

		for _, raw := range payload.Entries {
			entry, err := toCatalogEntry(raw)
			if err != nil {
				continue
			}
			all = append(all, entry)
		}

		offset += len(payload.Entries)
		if len(payload.Entries) < pageLen || (payload.Total > 0 && offset >= payload.Total) {
			break
		}
	}

	return all, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if strings.TrimSpace(c.cfg.CatalogAPIToken) == "" {
		return nil, errors.New("missing CATALOG_API_TOKEN")
	}

	baseURL := strings.TrimRight(c.cfg.CatalogAPIBaseURL, "/") + "/"
	u, err := url.Parse(baseURL + endpoint)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		c.limiter.Wait()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.CatalogAPIToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("catalog status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("catalog api error: status=%d body=%s", resp.StatusCode, string(body))
		}

		var apiResp apiResponse
		if err := json.Unmarshal(body, &apiResp); err != nil {
			return nil, err
		}
		if !apiResp.Success {
			return nil, fmt.Errorf("catalog api unsuccessful: %s", apiResp.Message)
		}
		return apiResp.Data, nil
	}

	if lastErr == nil {
		lastErr = errors.New("catalog request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func toCatalogEntry(raw entryPayload) (internal.CatalogEntry, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return internal.CatalogEntry{}, errors.New("empty name")
	}
	id, err := uuid.Parse(raw.ID)
	if err != nil {
		return internal.CatalogEntry{}, err
	}

	entry := internal.CatalogEntry{
		ID:              id,
		Name:            name,
		PurchasePrice:   raw.PurchasePrice,
		SellPriceIncTax: raw.SellPriceIncTax,
	}
	if raw.Brand != nil {
		entry.Brand = strings.TrimSpace(*raw.Brand)
	}
	if raw.Supplier != nil {
		entry.Supplier = strings.TrimSpace(*raw.Supplier)
	}
	return entry, nil
}
