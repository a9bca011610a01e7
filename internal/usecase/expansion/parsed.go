package expansion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/query"
)

// ParsedQuery is the structured reading of a natural-language query.
type ParsedQuery struct {
	SearchTerms string
	Filters     ParsedFilters
	Suggestions []string
}

// ParsedFilters are attribute constraints the AI inferred from the query.
type ParsedFilters struct {
	Colors     StringList        `json:"colors"`
	Brands     StringList        `json:"brands"`
	Categories StringList        `json:"categories"`
	Occasions  StringList        `json:"occasions"`
	Sizes      StringList        `json:"sizes"`
	Price      query.PriceFilter `json:"-"`
}

// Filters converts the AI output into query filters. Unparsable price values are ignored.
func (f ParsedFilters) Filters() query.Filters {
	return query.Filters{
		Categories: query.UnionFold(f.Categories),
		Brands:     query.UnionFold(f.Brands),
		Colors:     query.UnionFold(f.Colors),
		Sizes:      query.UnionFold(f.Sizes),
		Occasions:  query.UnionFold(f.Occasions),
		Price:      f.Price.ResolveLenient(),
	}
}

// StringList decodes either a JSON array of strings or a single string.
type StringList []string

// UnmarshalJSON accepts ["a","b"], "a" and null.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s != "" {
			*l = StringList{s}
		}
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

type wireParsed struct {
	SearchTerms StringList `json:"searchTerms"`
	Filters     struct {
		ParsedFilters
		Category StringList      `json:"category"`
		Brand    StringList      `json:"brand"`
		Color    StringList      `json:"color"`
		Occasion StringList      `json:"occasion"`
		Price    json.RawMessage `json:"price"`
	} `json:"filters"`
	Suggestions StringList `json:"suggestions"`
}

// decodeParsed reads the parse response. Anything but a JSON object is malformed.
func decodeParsed(raw string) (ParsedQuery, error) {
	body, err := jsonObject(raw)
	if err != nil {
		return ParsedQuery{}, err
	}
	var w wireParsed
	if err := json.Unmarshal(body, &w); err != nil {
		return ParsedQuery{}, fmt.Errorf("%w: %w", domain.ErrMalformedAIResponse, err)
	}

	f := w.Filters.ParsedFilters
	f.Categories = append(f.Categories, w.Filters.Category...)
	f.Brands = append(f.Brands, w.Filters.Brand...)
	f.Colors = append(f.Colors, w.Filters.Color...)
	f.Occasions = append(f.Occasions, w.Filters.Occasion...)
	f.Price = decodePrice(w.Filters.Price)

	suggestions := make([]string, 0, len(w.Suggestions))
	for _, s := range w.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			suggestions = append(suggestions, s)
		}
	}
	return ParsedQuery{
		SearchTerms: strings.TrimSpace(strings.Join(w.SearchTerms, " ")),
		Filters:     f,
		Suggestions: suggestions,
	}, nil
}

// decodePrice accepts a {min,max,over,under} object or a bare number meaning a cap.
func decodePrice(raw json.RawMessage) query.PriceFilter {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return query.PriceFilter{}
	}
	var pf query.PriceFilter
	if raw[0] == '{' {
		if err := json.Unmarshal(raw, &pf); err != nil {
			return query.PriceFilter{}
		}
		return pf
	}
	var a query.Amount
	if err := json.Unmarshal(raw, &a); err != nil || a == "" {
		return query.PriceFilter{}
	}
	return query.PriceFilter{Max: &a}
}

type wireNotes struct {
	ID   string     `json:"id"`
	Pros StringList `json:"pros"`
	Cons StringList `json:"cons"`
}

// wireComparison accepts the per-item notes under "items" or "products".
type wireComparison struct {
	Summary  string      `json:"summary"`
	Items    []wireNotes `json:"items"`
	Products []wireNotes `json:"products"`
}

func decodeComparison(raw string) (Comparison, error) {
	body, err := jsonObject(raw)
	if err != nil {
		return Comparison{}, err
	}
	var w wireComparison
	if err := json.Unmarshal(body, &w); err != nil {
		return Comparison{}, fmt.Errorf("%w: %w", domain.ErrMalformedAIResponse, err)
	}
	summary := strings.TrimSpace(w.Summary)
	if summary == "" {
		return Comparison{}, fmt.Errorf("%w: empty summary", domain.ErrMalformedAIResponse)
	}

	notes := make(map[string]Notes, len(w.Items)+len(w.Products))
	for _, it := range append(w.Items, w.Products...) {
		if it.ID == "" {
			continue
		}
		notes[it.ID] = Notes{Pros: it.Pros, Cons: it.Cons}
	}
	return Comparison{Summary: summary, Notes: notes}, nil
}

// jsonObject strips markdown code fences and returns the outermost JSON object.
func jsonObject(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response", domain.ErrMalformedAIResponse)
	}
	return []byte(s[start : end+1]), nil
}
