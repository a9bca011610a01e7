// Package vocab holds the fixed word lists used to turn keyword tokens into
// exact field filters. It is the single source for these lists; the seed
// generator draws from the same values.
package vocab

import "strings"

// Kind names the item field a vocabulary classifies into.
type Kind string

// Vocabulary kinds.
const (
	Category Kind = "category"
	Occasion Kind = "occasion"
	Color    Kind = "colors"
)

// Kinds is the classification order.
var Kinds = []Kind{Category, Occasion, Color}

var (
	categories = []string{"Dress", "Saree", "Jeans", "Top", "Shirt", "Gown", "Shoes", "Kurta", "Jacket", "Handbag"}
	occasions  = []string{"Party", "Office", "Casual", "Wedding", "Sports", "Birthday", "Festive"}
	colors     = []string{"Red", "Blue", "Black", "White", "Green", "Yellow", "Pink", "Maroon", "Purple", "Grey", "Brown"}
)

var index = func() map[string]entry {
	m := make(map[string]entry)
	add := func(k Kind, words []string) {
		for _, w := range words {
			m[strings.ToLower(w)] = entry{kind: k, value: w}
		}
	}
	add(Category, categories)
	add(Occasion, occasions)
	add(Color, colors)
	return m
}()

type entry struct {
	kind  Kind
	value string
}

// Classify looks up a normalized token. It returns the vocabulary kind and the
// canonical catalog spelling, or ok=false when the token is not in any list.
func Classify(token string) (kind Kind, value string, ok bool) {
	e, ok := index[strings.ToLower(token)]
	if !ok {
		return "", "", false
	}
	return e.kind, e.value, true
}

// Categories returns the category vocabulary in catalog spelling.
func Categories() []string { return append([]string(nil), categories...) }

// Occasions returns the occasion vocabulary in catalog spelling.
func Occasions() []string { return append([]string(nil), occasions...) }

// Colors returns the color vocabulary in catalog spelling.
func Colors() []string { return append([]string(nil), colors...) }
