package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/model"
)

var (
	// ErrItemNotFound is returned when a stored item does not exist
	ErrItemNotFound = goerr.New("item not found")

	// ErrDimensionMismatch is returned when an embedding does not
	// match the configured vector dimension. This is a configuration
	// defect, not a runtime-recoverable condition.
	ErrDimensionMismatch = goerr.New("embedding dimension mismatch")
)

// Repository is the long-term memory boundary: CRUD plus vector
// similarity query over extracted items. Similarity queries never
// return the embedding itself.
type Repository interface {
	// PutItem creates a stored item, assigning an ID when empty
	PutItem(ctx context.Context, item *model.StoredItem) error

	// GetItem retrieves a stored item by ID
	GetItem(ctx context.Context, id model.ItemID) (*model.StoredItem, error)

	// UpsertItem replaces a stored item keyed by its ID
	UpsertItem(ctx context.Context, item *model.StoredItem) error

	// DeleteItem removes a stored item by ID
	DeleteItem(ctx context.Context, id model.ItemID) error

	// QueryByVector returns up to limit items ordered by ascending
	// cosine distance to the given embedding
	QueryByVector(ctx context.Context, embedding firestore.Vector32, limit int) ([]*model.RetrievedItem, error)
}
