package engine

import (
	"context"

	"github.com/law-makers/parscrape/pkg/models"
)

// Fetcher is the interface that all page-loading backends must implement
type Fetcher interface {
	// Fetch loads opts.URL, applies the wait strategy and returns the rendered HTML
	Fetch(ctx context.Context, opts models.FetchOptions) (*models.PageData, error)

	// Name returns the backend name used in requests and responses
	Name() string

	// Close releases browsers or connections held by the backend
	Close() error
}
