package catalog

import (
	"fmt"
	"strings"
	"time"
)

// MaxRating is the upper bound of the rating scale.
const MaxRating = 5.0

// Item is a catalog entry. The store owns its lifecycle; search only reads it.
type Item struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Brand       string    `json:"brand" yaml:"brand"`
	Category    string    `json:"category" yaml:"category"`
	Occasion    string    `json:"occasion,omitempty" yaml:"occasion"`
	Price       float64   `json:"price" yaml:"price"`
	Colors      []string  `json:"colors" yaml:"colors"`
	Sizes       []string  `json:"sizes" yaml:"sizes"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags"`
	Description string    `json:"description,omitempty" yaml:"description"`
	ImageURL    string    `json:"imageUrl,omitempty" yaml:"image_url"`
	Rating      *float64  `json:"rating,omitempty" yaml:"rating"`
	RatingCount int       `json:"ratingCount,omitempty" yaml:"rating_count"`
	Stock       int       `json:"stock" yaml:"stock"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at"`
}

// Validate checks the invariants an item must hold before it is written to the store.
func (it *Item) Validate() error {
	if strings.TrimSpace(it.ID) == "" {
		return fmt.Errorf("item id is required")
	}
	if strings.TrimSpace(it.Name) == "" {
		return fmt.Errorf("item %s: name is required", it.ID)
	}
	if strings.TrimSpace(it.Brand) == "" {
		return fmt.Errorf("item %s: brand is required", it.ID)
	}
	if strings.TrimSpace(it.Category) == "" {
		return fmt.Errorf("item %s: category is required", it.ID)
	}
	if it.Price < 0 {
		return fmt.Errorf("item %s: price must be non-negative, got %g", it.ID, it.Price)
	}
	if it.Rating != nil && (*it.Rating < 0 || *it.Rating > MaxRating) {
		return fmt.Errorf("item %s: rating must be within [0, %g], got %g", it.ID, MaxRating, *it.Rating)
	}
	if it.Stock < 0 {
		return fmt.Errorf("item %s: stock must be non-negative", it.ID)
	}
	return nil
}

// IDs returns the identifiers of items in order.
func IDs(items []Item) []string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	return ids
}
