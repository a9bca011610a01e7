package ingest

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/vocab"
)

// Synthetic catalog pools. Categories, occasions and colors come from vocab so
// generated items exercise the narrowed-keyword stage.
var (
	brands   = []string{"Zara", "H&M", "Nike", "Adidas", "Puma", "Levis", "Biba", "Mango", "Fabindia", "Woodland"}
	features = []string{"Lightweight", "Durable", "Eco-Friendly", "Breathable", "Stretch", "Waterproof", "Quick Dry", "Formal", "Trendy", "Comfort Fit"}
	sizes    = map[string][]string{
		"Shoes":   {"6", "7", "8", "9", "10", "11"},
		"Handbag": {"One Size"},
		"Saree":   {"One Size"},
		"Dress":   {"S", "M", "L", "XL"},
		"Top":     {"S", "M", "L", "XL"},
		"Shirt":   {"S", "M", "L", "XL"},
		"Jeans":   {"28", "30", "32", "34", "36"},
		"Gown":    {"S", "M", "L"},
		"Kurta":   {"M", "L", "XL"},
		"Jacket":  {"M", "L", "XL"},
	}
	defaultSizes = []string{"S", "M", "L"}
)

// Price and stock ranges of generated items, inclusive.
const (
	minPrice = 399
	maxPrice = 6999
	minStock = 5
	maxStock = 100
)

// Generator produces a deterministic synthetic catalog for a seed.
type Generator struct {
	rng *rand.Rand
	ids *rand.ChaCha8
	now time.Time
}

// NewGenerator creates a generator. Items are stamped one minute apart ending at now.
func NewGenerator(seed uint64, now time.Time) *Generator {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		ids: rand.NewChaCha8(key),
		now: now.UTC(),
	}
}

// Generate returns n items.
func (g *Generator) Generate(n int) []catalog.Item {
	categories, colors, occasions := vocab.Categories(), vocab.Colors(), vocab.Occasions()
	items := make([]catalog.Item, 0, max(n, 0))
	for i := range n {
		category := pick(g.rng, categories)
		brand := pick(g.rng, brands)
		color := pick(g.rng, colors)
		occasion := pick(g.rng, occasions)
		feats := sample(g.rng, features, 2+g.rng.IntN(3))
		rating := math.Round((3+g.rng.Float64()*2)*10) / 10

		itemSizes, ok := sizes[category]
		if !ok {
			itemSizes = defaultSizes
		}
		palette := sample(g.rng, colors, 1+g.rng.IntN(3))
		if !contains(palette, color) {
			palette[0] = color
		}

		items = append(items, catalog.Item{
			ID:          g.newID(),
			Name:        fmt.Sprintf("%s %s %d", color, category, i+1),
			Brand:       brand,
			Category:    category,
			Occasion:    occasion,
			Price:       float64(minPrice + g.rng.IntN(maxPrice-minPrice+1)),
			Colors:      palette,
			Sizes:       append([]string(nil), itemSizes...),
			Tags:        feats,
			Description: fmt.Sprintf("%s %s suitable for %s. %s.", brand, category, occasion, strings.Join(feats, ", ")),
			ImageURL:    fmt.Sprintf("https://picsum.photos/seed/fashion_%d/400/600", i),
			Rating:      &rating,
			RatingCount: g.rng.IntN(1000),
			Stock:       minStock + g.rng.IntN(maxStock-minStock+1),
			CreatedAt:   g.now.Add(-time.Duration(n-i) * time.Minute),
		})
	}
	return items
}

func (g *Generator) newID() string {
	id, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func pick(r *rand.Rand, pool []string) string {
	return pool[r.IntN(len(pool))]
}

// sample returns k distinct values of pool in random order.
func sample(r *rand.Rand, pool []string, k int) []string {
	shuffled := append([]string(nil), pool...)
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:min(k, len(shuffled))]
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
