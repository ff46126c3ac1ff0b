/*
lookup.go - SKU and name resolution for scan and type-ahead surfaces

PURPOSE:
  Both barcode scanning (expects exactly one item) and type-ahead search
  (expects a short ranked list) resolve tokens through the same catalog
  primitive. This file adds the thin differences: exact-match preference
  for scans and relevance ranking for suggestions.

RANKING:
  Exact SKU match first, then SKU/name prefix matches, then plain
  substring matches. Within a rank, catalog order is preserved.
*/
package ledger

import (
	"context"
	"sort"
	"strings"
)

// Lookup resolves typed or scanned tokens against a catalog.
type Lookup struct {
	catalog Catalog
}

func NewLookup(catalog Catalog) *Lookup {
	return &Lookup{catalog: catalog}
}

// Resolve is the scan path: it expects the term to identify exactly one
// item. An exact SKU match (case-insensitive) wins outright; otherwise
// a single search hit is accepted. Returns ErrSKUNotFound when nothing
// matches unambiguously.
func (l *Lookup) Resolve(ctx context.Context, term string) (*Item, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrSKUNotFound
	}

	if item, err := l.catalog.GetBySKU(ctx, term); err == nil {
		return item, nil
	}

	// Uncapped: the exact match may sort anywhere in a SKU-ordered page.
	matches, err := l.catalog.Search(ctx, term, 0)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if strings.EqualFold(matches[i].SKU, term) {
			return &matches[i], nil
		}
	}
	if len(matches) == 1 {
		return &matches[0], nil
	}
	return nil, ErrSKUNotFound
}

// Suggest is the type-ahead path: a bounded list ordered by relevance.
func (l *Lookup) Suggest(ctx context.Context, term string, limit int) ([]Item, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	// Rank every match, then cut. A capped store query returns the
	// first page in SKU order, which can drop a prefix or exact hit
	// that sorts late.
	matches, err := l.catalog.Search(ctx, term, 0)
	if err != nil {
		return nil, err
	}

	RankMatches(term, matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// RankMatches stably reorders items by relevance to term: exact SKU,
// then prefix, then substring.
func RankMatches(term string, items []Item) {
	lower := strings.ToLower(term)
	sort.SliceStable(items, func(i, j int) bool {
		return matchRank(lower, items[i]) < matchRank(lower, items[j])
	})
}

func matchRank(lowerTerm string, item Item) int {
	sku := strings.ToLower(item.SKU)
	name := strings.ToLower(item.Name)
	switch {
	case sku == lowerTerm:
		return 0
	case strings.HasPrefix(sku, lowerTerm) || strings.HasPrefix(name, lowerTerm):
		return 1
	default:
		return 2
	}
}
