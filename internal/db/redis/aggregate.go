package redis

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/stylesearch/internal/db"
)

// Aggregate runs FT.AGGREGATE with one GROUPBY stage. An empty GroupBy reduces
// over every matching document as a single group.
func (s *Store) Aggregate(ctx context.Context, q *db.GroupQuery) ([]map[string]string, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Reducers) == 0 {
		return nil, fmt.Errorf("at least one reducer is required")
	}

	args := []string{q.IndexName, BuildQuery(nil, q.Filters)}
	if q.GroupBy == "" {
		args = append(args, "GROUPBY", "0")
	} else {
		args = append(args, "GROUPBY", "1", "@"+q.GroupBy)
	}
	for _, r := range q.Reducers {
		args = append(args, "REDUCE", r.Func)
		if r.Field == "" {
			args = append(args, "0")
		} else {
			args = append(args, "1", "@"+r.Field)
		}
		if r.As != "" {
			args = append(args, "AS", r.As)
		}
	}
	args = append(args, "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	// [count, [k, v, ...], [k, v, ...], ...]
	if len(raw) <= 1 {
		return nil, nil
	}
	rows := make([]map[string]string, 0, len(raw)-1)
	for _, msg := range raw[1:] {
		pairs, err := msg.ToArray()
		if err != nil {
			continue
		}
		rows = append(rows, parseFieldPairs(pairs))
	}
	return rows, nil
}

// TagValues lists the distinct values of a TAG field via FT.TAGVALS.
func (s *Store) TagValues(ctx context.Context, index, field string) ([]string, error) {
	cmd := s.b().Arbitrary("FT.TAGVALS").Args(index, field).Build()
	vals, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpTagVals, Err: err}
	}
	return vals, nil
}
