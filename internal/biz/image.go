package biz

import (
	"context"
	"time"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/hash"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/pagination"
)

// ImageStatus tracks what happened to an ingested photo.
type ImageStatus string

const (
	// ImageStatusAccepted means the photo was new and forwarded downstream.
	ImageStatusAccepted ImageStatus = "accepted"
	// ImageStatusDuplicate means the photo matched a registered image.
	ImageStatusDuplicate ImageStatus = "duplicate"
)

// PropertyImage is the catalog record for an ingested listing photo.
type PropertyImage struct {
	ImageID      string
	PropertyID   string
	Source       string
	PHash        hash.Fingerprint
	DHash        hash.Fingerprint
	ContentHash  string
	Status       ImageStatus
	DuplicateOf  string // set when Status is duplicate
	RegisteredAt time.Time
	UpdatedAt    time.Time
}

// PropertyImageRepo is the repository interface for the image catalog.
type PropertyImageRepo interface {
	// Upsert creates or updates a catalog record.
	Upsert(ctx context.Context, img *PropertyImage) error
	// Get returns the record by image ID, or nil when absent.
	Get(ctx context.Context, imageID string) (*PropertyImage, error)
	// GetByContentHash returns the accepted record with the given content
	// hash, or nil when absent.
	GetByContentHash(ctx context.Context, contentHash string) (*PropertyImage, error)
	// List returns a page of records ordered by registration time.
	List(ctx context.Context, req *pagination.CursorRequest) (*pagination.CursorResponse[*PropertyImage], error)
	// ListAccepted returns every accepted record, for index rebuilds.
	ListAccepted(ctx context.Context) ([]*PropertyImage, error)
	// Count returns the number of records with the given status;
	// empty status counts all.
	Count(ctx context.Context, status ImageStatus) (int64, error)
	// Delete removes the record by image ID.
	Delete(ctx context.Context, imageID string) error
}
