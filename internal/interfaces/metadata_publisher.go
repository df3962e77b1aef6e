package interfaces

import "go-cache-interceptor/internal/models"

//go:generate mockgen -package=mock -source=metadata_publisher.go -destination=mock/metadata_publisher.go

// MetadataPublisher receives the metadata of every emission
type MetadataPublisher interface {
	Publish(metadata models.CacheMetadata)
}
