package order

// Order is the result ordering requested by a caller.
type Order string

// Ordering constants.
const (
	// Default lets the retrieval engine pick: relevance with text terms, newest otherwise.
	Default   Order = ""
	Relevance Order = "relevance"
	Newest    Order = "newest"
	PriceAsc  Order = "price_asc"
	PriceDesc Order = "price_desc"
	// RatingDesc puts the best rated items first.
	RatingDesc Order = "rating_desc"
)

// IsValid checks if the order is one of the supported values.
func (o Order) IsValid() bool {
	switch o {
	case Default, Relevance, Newest, PriceAsc, PriceDesc, RatingDesc:
		return true
	}
	return false
}

// Resolve returns the effective ordering given whether the query carries text terms.
func (o Order) Resolve(hasText bool) Order {
	if o != Default {
		return o
	}
	if hasText {
		return Relevance
	}
	return Newest
}
