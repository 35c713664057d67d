// Package netx holds small HTTP helpers for talking to object storage
// through presigned URLs.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// MaxDownloadSize caps the body read by DownloadPresignedURL.
const MaxDownloadSize = 32 << 20

// DownloadPresignedURL fetches the object behind a presigned GET URL.
func DownloadPresignedURL(ctx context.Context, hc *http.Client, url string) ([]byte, error) {
	if hc == nil {
		hc = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(b) > MaxDownloadSize {
		return nil, fmt.Errorf("download failed: object larger than %d bytes", MaxDownloadSize)
	}
	return b, nil
}
