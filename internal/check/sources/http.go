package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"backcheck/internal/check/models"
	"backcheck/pkg/platform/sentinel"
)

// httpFetcher calls one open-data record endpoint. All category endpoints
// share the `{base}/{path}/{personalNumber}` shape.
type httpFetcher struct {
	category models.Category
	path     string
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	decode   func(*json.Decoder, *Records) error
}

// NewHTTPFetchers constructs the standard fetcher set against one upstream
// base URL. Each fetch is bounded by timeout independently of the caller's
// deadline.
func NewHTTPFetchers(baseURL string, timeout time.Duration) []Fetcher {
	client := &http.Client{}
	return []Fetcher{
		&httpFetcher{
			category: models.CategoryCriminal,
			path:     "criminal_records",
			baseURL:  baseURL,
			client:   client,
			timeout:  timeout,
			decode: func(dec *json.Decoder, out *Records) error {
				return dec.Decode(&out.Criminal)
			},
		},
		&httpFetcher{
			category: models.CategoryFinancial,
			path:     "financial_records",
			baseURL:  baseURL,
			client:   client,
			timeout:  timeout,
			decode: func(dec *json.Decoder, out *Records) error {
				var rec models.FinancialRecord
				if err := dec.Decode(&rec); err != nil {
					return err
				}
				out.Financial = &rec
				return nil
			},
		},
		&httpFetcher{
			category: models.CategoryEmployment,
			path:     "employment_history",
			baseURL:  baseURL,
			client:   client,
			timeout:  timeout,
			decode: func(dec *json.Decoder, out *Records) error {
				return dec.Decode(&out.Employment)
			},
		},
	}
}

func (f *httpFetcher) Category() models.Category {
	return f.category
}

func (f *httpFetcher) Fetch(ctx context.Context, personalNumber string) (*Records, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s/%s", f.baseURL, f.path, url.PathEscape(personalNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", f.category, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, fmt.Errorf("%s source: %w", f.category, sentinel.ErrTimeout)
		}
		return nil, fmt.Errorf("%s source: %w: %v", f.category, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No records on file is a valid empty result, not a failure.
		return &Records{}, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s source: status %d: %w", f.category, resp.StatusCode, sentinel.ErrUnavailable)
	}

	out := &Records{}
	if err := f.decode(json.NewDecoder(resp.Body), out); err != nil {
		return nil, fmt.Errorf("%s source: decode response: %w: %v", f.category, sentinel.ErrUnavailable, err)
	}
	return out, nil
}
