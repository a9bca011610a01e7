package search

import (
	"fmt"

	"github.com/kailas-cloud/stylesearch/internal/domain/catalog"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/query"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/stage"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/vocab"
)

// Fields a keyword may match in the narrowed stage.
var narrowedFields = []string{catalog.FieldName, catalog.FieldBrand, catalog.FieldCategory, catalog.FieldColors, catalog.FieldOccasion}

// Fields the fallback seed may match.
var fallbackFields = []string{catalog.FieldName, catalog.FieldCategory, catalog.FieldColors, catalog.FieldOccasion}

// Compile turns a canonical query into the ordered retrieval stages.
// Queries with user free text, or with no keywords at all, start with the primary
// stage; keyword-only queries start with the narrowed stage. A fallback stage
// follows whenever a seed token exists.
func Compile(q query.Query) (stage.Plan, error) {
	must, err := filterConditions(q.Filters)
	if err != nil {
		return nil, err
	}

	var plan stage.Plan
	if len(q.FreeText) == 0 && len(q.Keywords) > 0 {
		st, err := narrowedStage(q.Keywords, must)
		if err != nil {
			return nil, err
		}
		plan = append(plan, st)
	} else {
		expr, err := filter.NewExpression(must, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("primary stage: %w", err)
		}
		plan = append(plan, stage.Stage{Kind: stage.Primary, Filter: expr, Text: q.TextTerms().Strings()})
	}

	if seed := q.FallbackSeed(); seed != "" {
		st, err := fallbackStage(seed, q.Filters.Price)
		if err != nil {
			return nil, err
		}
		plan = append(plan, st)
	}
	return plan, nil
}

// filterConditions renders the structured filters as ANDed conditions.
func filterConditions(f query.Filters) ([]filter.Condition, error) {
	var must []filter.Condition
	sets := []struct {
		field  string
		values []string
	}{
		{catalog.FieldCategory, f.Categories},
		{catalog.FieldBrand, f.Brands},
		{catalog.FieldColors, f.Colors},
		{catalog.FieldSizes, f.Sizes},
		{catalog.FieldOccasion, f.Occasions},
	}
	for _, s := range sets {
		if len(s.values) == 0 {
			continue
		}
		c, err := filter.NewIn(s.field, s.values...)
		if err != nil {
			return nil, fmt.Errorf("%s filter: %w", s.field, err)
		}
		must = append(must, c)
	}

	if c, ok, err := priceCondition(f.Price); err != nil {
		return nil, err
	} else if ok {
		must = append(must, c)
	}

	if f.MinRating != nil {
		r, err := filter.Between(f.MinRating, nil)
		if err != nil {
			return nil, fmt.Errorf("rating filter: %w", err)
		}
		c, err := filter.NewRange(catalog.FieldRating, r)
		if err != nil {
			return nil, fmt.Errorf("rating filter: %w", err)
		}
		must = append(must, c)
	}
	return must, nil
}

func priceCondition(b query.PriceBound) (filter.Condition, bool, error) {
	r, ok := b.Range()
	if !ok {
		return filter.Condition{}, false, nil
	}
	c, err := filter.NewRange(catalog.FieldPrice, r)
	if err != nil {
		return filter.Condition{}, false, fmt.Errorf("price filter: %w", err)
	}
	return c, true, nil
}

// narrowedStage classifies keywords against the vocabularies. The first token per
// vocabulary becomes an exact filter; every other token joins one OR group of
// prefix matches across the narrowed fields.
func narrowedStage(keywords query.TermSet, must []filter.Condition) (stage.Stage, error) {
	must = append([]filter.Condition(nil), must...)
	used := make(map[vocab.Kind]bool, len(vocab.Kinds))
	var should []filter.Condition

	for _, token := range keywords {
		if kind, value, ok := vocab.Classify(token); ok && !used[kind] {
			used[kind] = true
			c, err := filter.NewMatch(string(kind), value)
			if err != nil {
				return stage.Stage{}, fmt.Errorf("narrowed stage: %w", err)
			}
			must = append(must, c)
			continue
		}
		group, err := catalog.PrefixConditions(token, narrowedFields...)
		if err != nil {
			return stage.Stage{}, fmt.Errorf("narrowed stage: %w", err)
		}
		should = append(should, group...)
	}

	expr, err := filter.NewExpression(must, should, nil)
	if err != nil {
		return stage.Stage{}, fmt.Errorf("narrowed stage: %w", err)
	}
	return stage.Stage{Kind: stage.Narrowed, Filter: expr}, nil
}

// fallbackStage matches the seed as a prefix on any fallback field, bounded by price only.
func fallbackStage(seed string, price query.PriceBound) (stage.Stage, error) {
	should, err := catalog.PrefixConditions(seed, fallbackFields...)
	if err != nil {
		return stage.Stage{}, fmt.Errorf("fallback stage: %w", err)
	}
	var must []filter.Condition
	if c, ok, err := priceCondition(price); err != nil {
		return stage.Stage{}, err
	} else if ok {
		must = append(must, c)
	}
	expr, err := filter.NewExpression(must, should, nil)
	if err != nil {
		return stage.Stage{}, fmt.Errorf("fallback stage: %w", err)
	}
	return stage.Stage{Kind: stage.Fallback, Filter: expr}, nil
}
