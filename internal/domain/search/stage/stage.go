package stage

import (
	"github.com/kailas-cloud/stylesearch/internal/domain/search/filter"
)

// Kind tags a retrieval stage.
type Kind string

// Stage kinds in cascade order.
const (
	None     Kind = "none"
	Primary  Kind = "primary"
	Narrowed Kind = "narrowed"
	Fallback Kind = "fallback"
)

// Stage is one retrieval attempt. Stages run in order until one matches.
type Stage struct {
	Kind   Kind
	Filter filter.Expression
	// Text holds the free-text relevance terms of the attempt.
	Text []string
}

// HasText reports whether the attempt carries a free-text component.
func (s Stage) HasText() bool { return len(s.Text) > 0 }

// Plan is the ordered list of stages compiled for one query.
type Plan []Stage

// Kinds returns the stage kinds in order.
func (p Plan) Kinds() []Kind {
	kinds := make([]Kind, len(p))
	for i := range p {
		kinds[i] = p[i].Kind
	}
	return kinds
}
