package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const downloadLimit = 1 << 20

var (
	ErrorURLNotFound = errors.New("URL not found")
	ErrorTooLarge    = errors.New("content exceeds download limit")
)

// Fetch downloads url. Content larger than 1MiB is rejected with ErrorTooLarge.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP Get request: %w", err)
	}
	req.Header.Set("User-Agent", clientAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending HTTP Get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrorURLNotFound
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, downloadLimit+1))
	if err != nil {
		return nil, fmt.Errorf("error reading downloaded content: %w", err)
	}
	if len(b) > downloadLimit {
		return nil, fmt.Errorf("%w: %s", ErrorTooLarge, url)
	}
	return b, nil
}
