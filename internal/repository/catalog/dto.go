package catalog

import (
	"strconv"
	"strings"
	"time"

	domcat "github.com/kailas-cloud/stylesearch/internal/domain/catalog"
)

// listSeparator joins multi-valued fields; the index declares it as the TAG separator.
const listSeparator = "|"

// Hash-only fields that are not part of the search schema.
const (
	fieldImageURL    = "image_url"
	fieldRatingCount = "rating_count"
	fieldStock       = "stock"
)

// buildHashFields converts a catalog item into a flat map for HSET.
func buildHashFields(it *domcat.Item) map[string]string {
	m := map[string]string{
		domcat.FieldID:          it.ID,
		domcat.FieldName:        it.Name,
		domcat.FieldBrand:       it.Brand,
		domcat.FieldCategory:    it.Category,
		domcat.FieldPrice:       formatFloat(it.Price),
		domcat.FieldCreatedAt:   strconv.FormatInt(it.CreatedAt.UnixMilli(), 10),
		fieldStock:              strconv.Itoa(it.Stock),
		fieldRatingCount:        strconv.Itoa(it.RatingCount),
		domcat.FieldColors:      joinList(it.Colors),
		domcat.FieldSizes:       joinList(it.Sizes),
		domcat.FieldTags:        joinList(it.Tags),
		domcat.FieldDescription: it.Description,
		domcat.FieldOccasion:    it.Occasion,
		fieldImageURL:           it.ImageURL,
	}
	if it.Rating != nil {
		m[domcat.FieldRating] = formatFloat(*it.Rating)
	}
	return m
}

// parseHashFields converts a flat hash map back into a catalog item.
// Unparsable numerics decode as zero.
func parseHashFields(id string, m map[string]string) domcat.Item {
	it := domcat.Item{
		ID:          id,
		Name:        m[domcat.FieldName],
		Brand:       m[domcat.FieldBrand],
		Category:    m[domcat.FieldCategory],
		Occasion:    m[domcat.FieldOccasion],
		Description: m[domcat.FieldDescription],
		ImageURL:    m[fieldImageURL],
		Colors:      splitList(m[domcat.FieldColors]),
		Sizes:       splitList(m[domcat.FieldSizes]),
		Tags:        splitList(m[domcat.FieldTags]),
	}
	if v, ok := m[domcat.FieldID]; ok && v != "" {
		it.ID = v
	}
	it.Price, _ = strconv.ParseFloat(m[domcat.FieldPrice], 64)
	it.Stock, _ = strconv.Atoi(m[fieldStock])
	it.RatingCount, _ = strconv.Atoi(m[fieldRatingCount])
	if raw, ok := m[domcat.FieldRating]; ok {
		if r, err := strconv.ParseFloat(raw, 64); err == nil {
			it.Rating = &r
		}
	}
	if ms, err := strconv.ParseInt(m[domcat.FieldCreatedAt], 10, 64); err == nil {
		it.CreatedAt = time.UnixMilli(ms).UTC()
	}
	return it
}

func joinList(values []string) string {
	clean := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(strings.ReplaceAll(v, listSeparator, " "))
		if v != "" {
			clean = append(clean, v)
		}
	}
	return strings.Join(clean, listSeparator)
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, listSeparator)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
