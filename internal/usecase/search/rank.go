package search

import (
	"sort"

	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/order"
)

// storeSort maps an ordering onto the store sort. Relevance keeps the store's
// score order.
func storeSort(o order.Order) catalog.Sort {
	switch o {
	case order.Newest:
		return catalog.Sort{Field: catalog.FieldCreatedAt, Desc: true}
	case order.PriceAsc:
		return catalog.Sort{Field: catalog.FieldPrice}
	case order.PriceDesc:
		return catalog.Sort{Field: catalog.FieldPrice, Desc: true}
	case order.RatingDesc:
		return catalog.Sort{Field: catalog.FieldRating, Desc: true}
	default:
		return catalog.Sort{}
	}
}

// rank sorts hits in place by o, breaking ties by item ID ascending.
func rank(hits []catalog.Hit, o order.Order) {
	before := func(a, b *catalog.Hit) (less, decided bool) {
		switch o {
		case order.Newest:
			if !a.Item.CreatedAt.Equal(b.Item.CreatedAt) {
				return a.Item.CreatedAt.After(b.Item.CreatedAt), true
			}
		case order.PriceAsc:
			if a.Item.Price != b.Item.Price {
				return a.Item.Price < b.Item.Price, true
			}
		case order.PriceDesc:
			if a.Item.Price != b.Item.Price {
				return a.Item.Price > b.Item.Price, true
			}
		case order.RatingDesc:
			ra, rb := ratingOf(a.Item), ratingOf(b.Item)
			if ra != rb {
				return ra > rb, true
			}
		default:
			if a.Score != b.Score {
				return a.Score > b.Score, true
			}
		}
		return false, false
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if less, ok := before(&hits[i], &hits[j]); ok {
			return less
		}
		return hits[i].Item.ID < hits[j].Item.ID
	})
}

// Unrated items sort after every rated one.
func ratingOf(it catalog.Item) float64 {
	if it.Rating == nil {
		return -1
	}
	return *it.Rating
}
