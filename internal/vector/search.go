package vector

import (
	"context"
	"fmt"

	"storagevoice/pkg"
)

// Metadata keys stored with every item vector.
const (
	metaName      = "name"
	metaCanonical = "canonical_name"
	metaBoxID     = "box_id"
	metaBoxName   = "box_name"
)

// SemanticSearch resolves spoken item names against the indexed inventory.
// A hit at or above the threshold is definite; anything below is only a
// suggestion.
type SemanticSearch struct {
	embedder    Embedder
	index       Index
	threshold   float64
	suggestions int
}

func NewSemanticSearch(embedder Embedder, index Index, threshold float64, suggestions int) *SemanticSearch {
	return &SemanticSearch{
		embedder:    embedder,
		index:       index,
		threshold:   threshold,
		suggestions: suggestions,
	}
}

func (s *SemanticSearch) Threshold() float64 { return s.threshold }

// IndexItem embeds the canonical name and stores the vector with enough
// metadata to rehydrate a match without touching the store.
func (s *SemanticSearch) IndexItem(ctx context.Context, item pkg.Item, boxName string) error {
	vec, err := s.embedder.Embed(ctx, item.CanonicalName)
	if err != nil {
		return fmt.Errorf("index item %q: %w", item.CanonicalName, err)
	}
	return s.index.Upsert(ctx, item.ID, vec, map[string]string{
		metaName:      item.Name,
		metaCanonical: item.CanonicalName,
		metaBoxID:     item.BoxID,
		metaBoxName:   boxName,
	})
}

func (s *SemanticSearch) DeleteItem(ctx context.Context, id string) error {
	return s.index.Delete(ctx, id)
}

// TopK returns the k nearest indexed items for the query, best first.
func (s *SemanticSearch) TopK(ctx context.Context, query string, k int) ([]pkg.Suggestion, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query %q: %w", query, err)
	}
	matches, err := s.index.Query(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	out := make([]pkg.Suggestion, 0, len(matches))
	for _, m := range matches {
		out = append(out, suggestionFromMatch(m))
	}
	return out, nil
}

// FindBestMatch returns a definite match when the top hit clears the
// threshold, along with ranked alternatives. When no hit clears it, best is
// nil and every hit comes back as a suggestion.
func (s *SemanticSearch) FindBestMatch(ctx context.Context, query string) (*pkg.Suggestion, []pkg.Suggestion, error) {
	hits, err := s.TopK(ctx, query, s.suggestions+1)
	if err != nil {
		return nil, nil, err
	}
	if len(hits) == 0 {
		return nil, nil, nil
	}
	if hits[0].Score >= s.threshold {
		return &hits[0], hits[1:], nil
	}
	return nil, hits, nil
}

// FindAllAboveThreshold returns up to k hits scoring at or above the
// threshold plus margin. Used to list everything related to a query.
func (s *SemanticSearch) FindAllAboveThreshold(ctx context.Context, query string, k int, margin float64) ([]pkg.Suggestion, error) {
	hits, err := s.TopK(ctx, query, k)
	if err != nil {
		return nil, err
	}
	floor := s.threshold + margin
	out := hits[:0]
	for _, h := range hits {
		if h.Score >= floor {
			out = append(out, h)
		}
	}
	return out, nil
}

func suggestionFromMatch(m Match) pkg.Suggestion {
	return pkg.Suggestion{
		Item: pkg.Item{
			ID:            m.ID,
			Name:          m.Metadata[metaName],
			CanonicalName: m.Metadata[metaCanonical],
			BoxID:         m.Metadata[metaBoxID],
		},
		Score: m.Score,
	}
}
