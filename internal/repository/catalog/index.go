package catalog

import (
	"github.com/kailas-cloud/stylesearch/internal/db"
	domcat "github.com/kailas-cloud/stylesearch/internal/domain/catalog"
)

// Secondary attributes: brand, category and tags are indexed a second time as TEXT
// so unqualified free-text queries score them, and brand once more case-sensitively
// so FT.TAGVALS returns the catalog spelling.
const (
	attrBrandText    = "brand_text"
	attrBrandExact   = "brand_exact"
	attrCategoryText = "category_text"
	attrTagsText     = "tags_text"
)

// buildIndex creates the FT index definition for catalog items.
func buildIndex(name, prefix string) (*db.IndexDefinition, error) {
	return db.NewIndex(name).
		Prefix(prefix).
		WeightedText(domcat.FieldName, 2).
		Text(domcat.FieldDescription).
		TextAlias(domcat.FieldBrand, attrBrandText).
		TextAlias(domcat.FieldCategory, attrCategoryText).
		TextAlias(domcat.FieldTags, attrTagsText).
		Tag(domcat.FieldID).
		Tag(domcat.FieldBrand).
		Tag(domcat.FieldCategory).
		Tag(domcat.FieldOccasion).
		TagWithOpts(domcat.FieldColors, listSeparator, false).
		TagWithOpts(domcat.FieldSizes, listSeparator, false).
		TagWithOpts(domcat.FieldTags, listSeparator, false).
		TagAlias(domcat.FieldBrand, attrBrandExact, true).
		SortableNumeric(domcat.FieldPrice).
		SortableNumeric(domcat.FieldRating).
		SortableNumeric(domcat.FieldCreatedAt).
		Build()
}
