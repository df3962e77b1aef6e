package interfaces

import (
	"context"
	"time"

	"go-cache-interceptor/internal/models"
)

//go:generate mockgen -package=mock -source=fetcher.go -destination=mock/fetcher.go

// Fetcher performs the network side of a call
type Fetcher interface {
	// Fetch executes the request and returns the response body. A zero timeout uses the fetcher default.
	Fetch(ctx context.Context, req models.RequestMetadata, timeout time.Duration) ([]byte, error)
}
