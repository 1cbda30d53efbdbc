// Package storage abstracts durable blob storage behind the BlobStore
// interface so handlers can run against S3-compatible object storage in
// production and an in-memory store in tests.
package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
)

type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	// URL returns the publicly resolvable URL for a stored key.
	URL(key string) string
}

// CleanURL percent-encodes spaces and normalizes the URL string.
func CleanURL(urlStr string) string {
	urlStr = strings.ReplaceAll(urlStr, " ", "%20")
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}

	return parsedURL.String()
}
