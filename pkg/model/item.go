package model

import (
	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type ItemID string

// NewItemID generates a new unique ItemID
func NewItemID() ItemID {
	return ItemID("item_" + uuid.New().String())
}

// StoredItem is a persisted extracted item with its embedding vector.
// Items are never mutated in place; updates are full replacements
// keyed by ID.
type StoredItem struct {
	ID          ItemID             `firestore:"id" json:"id"`
	Price       string             `firestore:"price" json:"price"`
	Description string             `firestore:"description" json:"description"`
	ItemCode    string             `firestore:"item_code" json:"item_code"`
	StoreName   string             `firestore:"store_name" json:"store_name"`
	DateTime    string             `firestore:"date_time" json:"date_time"`
	Embedding   firestore.Vector32 `firestore:"embedding" json:"-"`
}

// Validate checks that all record fields are present
func (x *StoredItem) Validate() error {
	if x.Price == "" {
		return goerr.New("item price is empty")
	}
	if x.Description == "" {
		return goerr.New("item description is empty")
	}
	if x.ItemCode == "" {
		return goerr.New("item code is empty")
	}
	if x.StoreName == "" {
		return goerr.New("store name is empty")
	}
	if x.DateTime == "" {
		return goerr.New("extraction timestamp is empty")
	}
	return nil
}

// RetrievedItem is a StoredItem as returned from a similarity query:
// all fields except the embedding, plus the vector distance to the
// query (lower is more similar).
type RetrievedItem struct {
	ID          ItemID  `json:"id"`
	Price       string  `json:"price"`
	Description string  `json:"description"`
	ItemCode    string  `json:"item_code"`
	StoreName   string  `json:"store_name"`
	DateTime    string  `json:"date_time"`
	Similarity  float64 `json:"similarity_score"`
}
