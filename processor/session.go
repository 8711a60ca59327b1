package processor

import (
	"fmt"

	"golang.org/x/net/context"

	"landanalyzer/bandstore"
)

// Session owns the immutable products of one imaging run: the band
// store, every registered index evaluated over it and the per-index
// range statistics. It is built once at startup and handed to the
// presentation layer, which re-invokes Classify on each parameter
// change.
type Session struct {
	store   *bandstore.Store
	names   []string
	indexes map[string]*bandstore.Band
	ranges  map[string]RangeStats
}

// InitSession validates and evaluates the index registry against the
// loaded store. Any failure aborts initialisation: no partial session
// is ever published.
func InitSession(ctx context.Context, store *bandstore.Store, defs []IndexDef) (*Session, error) {
	exprs, err := ParseIndexExpressions(defs)
	if err != nil {
		return nil, err
	}
	for _, ie := range exprs {
		if err := ie.Validate(store); err != nil {
			return nil, err
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	indexes, err := ComputeIndexes(exprs, store)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(exprs))
	ranges := make(map[string]RangeStats, len(exprs))
	for i, ie := range exprs {
		names[i] = ie.Name
		ranges[ie.Name] = ComputeRangeStats(indexes[ie.Name].Data)
	}

	return &Session{store: store, names: names, indexes: indexes, ranges: ranges}, nil
}

// IndexNames returns the registered indicator names in registry order.
func (s *Session) IndexNames() []string {
	return s.names
}

// Index returns the computed array for one indicator.
func (s *Session) Index(name string) (*bandstore.Band, error) {
	index, found := s.indexes[name]
	if !found {
		return nil, fmt.Errorf("unknown index %s", name)
	}
	return index, nil
}

// Range returns the raw statistics for one indicator.
func (s *Session) Range(name string) (RangeStats, error) {
	rs, found := s.ranges[name]
	if !found {
		return RangeStats{}, fmt.Errorf("unknown index %s", name)
	}
	return rs, nil
}

// RoundedRange returns the SetLimit-rounded statistics used to reseed
// the threshold parameter when the selected indicator changes.
func (s *Session) RoundedRange(name string) (RangeStats, error) {
	rs, err := s.Range(name)
	if err != nil {
		return RangeStats{}, err
	}
	return rs.Rounded(), nil
}

// Classify recomputes the two-level map for the named indicator. Every
// finite threshold is valid; out-of-range values simply yield a
// degenerate map.
func (s *Session) Classify(name string, threshold float64) (*bandstore.Band, error) {
	index, err := s.Index(name)
	if err != nil {
		return nil, err
	}
	return Classify(index, threshold), nil
}

// Composite exposes the store's true-colour array for display.
func (s *Session) Composite() *bandstore.Composite {
	return s.store.Composite()
}
