package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
)

var underPattern = regexp.MustCompile(`(?i)under\s+(\d+)`)

// ExtractPrice finds an "under <integer>" phrase anywhere in text and returns it as an upper bound.
func ExtractPrice(text string) PriceBound {
	m := underPattern.FindStringSubmatch(text)
	if m == nil {
		return PriceBound{}
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return PriceBound{}
	}
	return PriceBound{Max: &v}
}

// StripPrice removes "under <integer>" phrases from text.
func StripPrice(text string) string {
	return strings.TrimSpace(underPattern.ReplaceAllString(text, " "))
}

// Amount is a price value supplied as a JSON number or numeric string.
// The literal is kept so parsing errors surface where the filter is resolved.
type Amount string

// UnmarshalJSON accepts numbers, strings and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price amount must be a number or numeric string: %w", err)
	}
	*a = Amount(n.String())
	return nil
}

// AmountOf formats a number as an Amount.
func AmountOf(v float64) *Amount {
	a := Amount(strconv.FormatFloat(v, 'f', -1, 64))
	return &a
}

func (a *Amount) parse(field string) (*float64, error) {
	if a == nil || *a == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(string(*a), 64)
	if err != nil {
		return nil, domain.NewValidationError("price."+field, fmt.Sprintf("%q is not a number", string(*a)))
	}
	return &v, nil
}

// PriceFilter is the structured price object: min/over raise the floor, max/under lower the cap.
type PriceFilter struct {
	Min   *Amount `json:"min,omitempty"`
	Max   *Amount `json:"max,omitempty"`
	Over  *Amount `json:"over,omitempty"`
	Under *Amount `json:"under,omitempty"`
}

// IsZero reports whether no sub-field is set.
func (f PriceFilter) IsZero() bool {
	return f.Min == nil && f.Max == nil && f.Over == nil && f.Under == nil
}

// Resolve computes the effective bound: min = max(min, over), max = min(max, under).
// A non-numeric sub-field is a validation error.
func (f PriceFilter) Resolve() (PriceBound, error) {
	values := make([]*float64, 0, 4)
	for _, p := range []struct {
		name string
		a    *Amount
	}{{"min", f.Min}, {"max", f.Max}, {"over", f.Over}, {"under", f.Under}} {
		v, err := p.a.parse(p.name)
		if err != nil {
			return PriceBound{}, err
		}
		values = append(values, v)
	}
	return PriceBound{
		Min: tighter(values[0], values[2], maxf),
		Max: tighter(values[1], values[3], minf),
	}, nil
}

// ResolveLenient is Resolve that skips unparsable sub-fields instead of failing.
func (f PriceFilter) ResolveLenient() PriceBound {
	get := func(a *Amount) *float64 {
		v, err := a.parse("")
		if err != nil {
			return nil
		}
		return v
	}
	return PriceBound{
		Min: tighter(get(f.Min), get(f.Over), maxf),
		Max: tighter(get(f.Max), get(f.Under), minf),
	}
}

// PriceBound is an inclusive price interval. Nil sides are open.
type PriceBound struct {
	Min *float64
	Max *float64
}

// IsSet reports whether either side is bounded.
func (b PriceBound) IsSet() bool { return b.Min != nil || b.Max != nil }

// Intersect returns the tightest interval satisfying both bounds.
// An empty intersection collapses to the single point [max, max].
func (b PriceBound) Intersect(other PriceBound) PriceBound {
	out := PriceBound{
		Min: tighter(b.Min, other.Min, maxf),
		Max: tighter(b.Max, other.Max, minf),
	}
	return out.normalized()
}

func (b PriceBound) normalized() PriceBound {
	if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
		v := *b.Max
		return PriceBound{Min: &v, Max: &v}
	}
	return b
}

// Range converts the bound into a filter range. ok is false when unbounded.
func (b PriceBound) Range() (r filter.Range, ok bool) {
	if !b.IsSet() {
		return filter.Range{}, false
	}
	r, err := filter.Between(b.Min, b.Max)
	if err != nil {
		return filter.Range{}, false
	}
	return r, true
}

func (b PriceBound) String() string {
	side := func(p *float64, open string) string {
		if p == nil {
			return open
		}
		return strconv.FormatFloat(*p, 'f', -1, 64)
	}
	return "[" + side(b.Min, "-inf") + ", " + side(b.Max, "+inf") + "]"
}

func tighter(a, b *float64, pick func(x, y float64) float64) *float64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		v := *b
		return &v
	case b == nil:
		v := *a
		return &v
	}
	v := pick(*a, *b)
	return &v
}

func maxf(x, y float64) float64 { return max(x, y) }

func minf(x, y float64) float64 { return min(x, y) }
