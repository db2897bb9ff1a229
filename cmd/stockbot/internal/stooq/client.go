// Package stooq resolves stock quotes against the Stooq CSV endpoint.
package stooq

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotFound means Stooq has no usable price for the code (unknown symbol
// or "N/D" data).
var ErrNotFound = errors.New("stock not found")

type Quote struct {
	Symbol string
	Price  float64
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Resolve fetches the latest close price for a stock code. The code is
// passed through as typed; Stooq treats it case-insensitively and echoes a
// canonical symbol back in the CSV.
func (c *Client) Resolve(ctx context.Context, code string) (Quote, error) {
	endpoint := fmt.Sprintf("%s/q/l/?s=%s&f=sd2t2ohlcv&h&e=csv", c.baseURL, url.QueryEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to build stooq request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("stooq request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("stooq returned status %s", resp.Status)
	}

	return parseQuoteCSV(resp.Body, code)
}

// The CSV has a header row and one data row:
// Symbol,Date,Time,Open,High,Low,Close,Volume
func parseQuoteCSV(body io.Reader, code string) (Quote, error) {
	reader := csv.NewReader(body)

	if _, err := reader.Read(); err != nil {
		return Quote{}, fmt.Errorf("failed to read stooq csv header: %w", err)
	}

	record, err := reader.Read()
	if err != nil {
		return Quote{}, fmt.Errorf("failed to read stooq csv data: %w", err)
	}
	if len(record) < 7 {
		return Quote{}, fmt.Errorf("unexpected stooq csv shape: %d columns", len(record))
	}

	closeField := record[6]
	if closeField == "N/D" {
		return Quote{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}

	price, err := strconv.ParseFloat(closeField, 64)
	if err != nil || price <= 0 {
		return Quote{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}

	return Quote{Symbol: record[0], Price: price}, nil
}
