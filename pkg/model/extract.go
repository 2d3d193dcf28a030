package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// ExtractedItem is a single item pulled out of a retailer search page
type ExtractedItem struct {
	Price       string `json:"price" jsonschema:"Price of the item"`
	Description string `json:"description" jsonschema:"Description of the item"`
	ItemCode    string `json:"item_code" jsonschema:"Unique identifier for the item in the store"`
}

// ExtractedData is the structured result of one page extraction
type ExtractedData struct {
	DateTime  string          `json:"date_time" jsonschema:"Date and time of extraction"`
	StoreName string          `json:"store_name" jsonschema:"Name of the store"`
	Items     []ExtractedItem `json:"items" jsonschema:"List of extracted items"`
}

// Validate checks the extraction metadata. An empty item list is
// valid; it means the page yielded nothing.
func (x *ExtractedData) Validate() error {
	if x.DateTime == "" {
		return goerr.New("extraction timestamp is empty")
	}
	if x.StoreName == "" {
		return goerr.New("store name is empty")
	}
	return nil
}

// ToStoredItem builds a StoredItem candidate from one extracted item
// plus the extraction metadata. The embedding is filled in by the
// commit path.
func (x *ExtractedData) ToStoredItem(item ExtractedItem) *StoredItem {
	return &StoredItem{
		ID:          NewItemID(),
		Price:       item.Price,
		Description: item.Description,
		ItemCode:    item.ItemCode,
		StoreName:   x.StoreName,
		DateTime:    x.DateTime,
	}
}
