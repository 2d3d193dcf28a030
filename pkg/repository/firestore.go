package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const distanceField = "similarity_score"

// Firestore implements Repository backed by a Firestore collection
// with a vector index on the embedding field
type Firestore struct {
	client     *firestore.Client
	collection string
	dimension  int
}

// NewFirestore creates a Firestore repository. The collection must
// carry a cosine vector index on "embedding" with the same dimension.
func NewFirestore(ctx context.Context, projectID, databaseID, collection string, dimension int) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("project ID is required")
	}
	if dimension <= 0 {
		return nil, goerr.New("embedding dimension must be positive", goerr.V("dimension", dimension))
	}
	if collection == "" {
		collection = "extracted_items"
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client")
	}

	return &Firestore{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) validate(item *model.StoredItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if len(item.Embedding) > 0 && len(item.Embedding) != r.dimension {
		return goerr.Wrap(ErrDimensionMismatch, "stored item embedding",
			goerr.V("got", len(item.Embedding)),
			goerr.V("want", r.dimension))
	}
	return nil
}

func (r *Firestore) PutItem(ctx context.Context, item *model.StoredItem) error {
	if item.ID == "" {
		item.ID = model.NewItemID()
	}
	if err := r.validate(item); err != nil {
		return err
	}

	if _, err := r.client.Collection(r.collection).Doc(string(item.ID)).Create(ctx, item); err != nil {
		return goerr.Wrap(err, "failed to create item", goerr.V("item_id", item.ID))
	}
	return nil
}

func (r *Firestore) GetItem(ctx context.Context, id model.ItemID) (*model.StoredItem, error) {
	doc, err := r.client.Collection(r.collection).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrItemNotFound, "get item", goerr.V("item_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get item", goerr.V("item_id", id))
	}

	var item model.StoredItem
	if err := doc.DataTo(&item); err != nil {
		return nil, goerr.Wrap(err, "failed to decode item", goerr.V("item_id", id))
	}
	return &item, nil
}

func (r *Firestore) UpsertItem(ctx context.Context, item *model.StoredItem) error {
	if item.ID == "" {
		return goerr.New("item ID is required for upsert")
	}
	if err := r.validate(item); err != nil {
		return err
	}

	if _, err := r.client.Collection(r.collection).Doc(string(item.ID)).Set(ctx, item); err != nil {
		return goerr.Wrap(err, "failed to upsert item", goerr.V("item_id", item.ID))
	}
	return nil
}

func (r *Firestore) DeleteItem(ctx context.Context, id model.ItemID) error {
	doc := r.client.Collection(r.collection).Doc(string(id))
	if _, err := doc.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrItemNotFound, "delete item", goerr.V("item_id", id))
		}
		return goerr.Wrap(err, "failed to check item", goerr.V("item_id", id))
	}

	if _, err := doc.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete item", goerr.V("item_id", id))
	}
	return nil
}

func (r *Firestore) QueryByVector(ctx context.Context, embedding firestore.Vector32, limit int) ([]*model.RetrievedItem, error) {
	if len(embedding) != r.dimension {
		return nil, goerr.Wrap(ErrDimensionMismatch, "query embedding",
			goerr.V("got", len(embedding)),
			goerr.V("want", r.dimension))
	}

	query := r.client.Collection(r.collection).FindNearest(
		"embedding",
		embedding,
		limit,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{
			DistanceResultField: distanceField,
		},
	)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var results []*model.RetrievedItem
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector query")
		}

		var item model.StoredItem
		if err := doc.DataTo(&item); err != nil {
			return nil, goerr.Wrap(err, "failed to decode item", goerr.V("doc", doc.Ref.ID))
		}

		retrieved := &model.RetrievedItem{
			ID:          item.ID,
			Price:       item.Price,
			Description: item.Description,
			ItemCode:    item.ItemCode,
			StoreName:   item.StoreName,
			DateTime:    item.DateTime,
		}
		if v, ok := doc.Data()[distanceField].(float64); ok {
			retrieved.Similarity = v
		}
		results = append(results, retrieved)
	}

	return results, nil
}
