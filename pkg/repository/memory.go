package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/model"
)

// Memory implements Repository in process memory. It is used for
// local runs and tests. Similarity queries compute exact cosine
// distance; ties keep insertion order.
type Memory struct {
	mu        sync.RWMutex
	items     map[model.ItemID]*model.StoredItem
	order     []model.ItemID
	dimension int
}

// NewMemory creates an in-memory repository with the given embedding
// dimension
func NewMemory(dimension int) *Memory {
	return &Memory{
		items:     make(map[model.ItemID]*model.StoredItem),
		dimension: dimension,
	}
}

func (r *Memory) validate(item *model.StoredItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if len(item.Embedding) > 0 && r.dimension > 0 && len(item.Embedding) != r.dimension {
		return goerr.Wrap(ErrDimensionMismatch, "stored item embedding",
			goerr.V("got", len(item.Embedding)),
			goerr.V("want", r.dimension))
	}
	return nil
}

func (r *Memory) PutItem(ctx context.Context, item *model.StoredItem) error {
	if item.ID == "" {
		item.ID = model.NewItemID()
	}
	if err := r.validate(item); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return goerr.New("item already exists", goerr.V("item_id", item.ID))
	}

	copied := *item
	r.items[item.ID] = &copied
	r.order = append(r.order, item.ID)
	return nil
}

func (r *Memory) GetItem(ctx context.Context, id model.ItemID) (*model.StoredItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, goerr.Wrap(ErrItemNotFound, "get item", goerr.V("item_id", id))
	}
	copied := *item
	return &copied, nil
}

func (r *Memory) UpsertItem(ctx context.Context, item *model.StoredItem) error {
	if item.ID == "" {
		return goerr.New("item ID is required for upsert")
	}
	if err := r.validate(item); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		r.order = append(r.order, item.ID)
	}
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *Memory) DeleteItem(ctx context.Context, id model.ItemID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return goerr.Wrap(ErrItemNotFound, "delete item", goerr.V("item_id", id))
	}
	delete(r.items, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Memory) QueryByVector(ctx context.Context, embedding firestore.Vector32, limit int) ([]*model.RetrievedItem, error) {
	if r.dimension > 0 && len(embedding) != r.dimension {
		return nil, goerr.Wrap(ErrDimensionMismatch, "query embedding",
			goerr.V("got", len(embedding)),
			goerr.V("want", r.dimension))
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*model.RetrievedItem
	for _, id := range r.order {
		item := r.items[id]
		if len(item.Embedding) == 0 {
			continue
		}
		results = append(results, &model.RetrievedItem{
			ID:          item.ID,
			Price:       item.Price,
			Description: item.Description,
			ItemCode:    item.ItemCode,
			StoreName:   item.StoreName,
			DateTime:    item.DateTime,
			Similarity:  cosineDistance(embedding, item.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity < results[j].Similarity
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosineDistance is 1 - cosine similarity, in [0, 2]
func cosineDistance(a, b firestore.Vector32) float64 {
	if len(a) != len(b) {
		return 2
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
