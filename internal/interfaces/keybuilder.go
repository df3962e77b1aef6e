package interfaces

import "go-cache-interceptor/internal/models"

//go:generate mockgen -package=mock -source=keybuilder.go -destination=mock/keybuilder.go

// KeyBuilder canonizes requests into deterministic cache keys
type KeyBuilder interface {
	Build(responseType models.ResponseType, req models.RequestMetadata) (string, error)
}
