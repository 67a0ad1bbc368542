// Package inventory implements the mutations and queries behind each
// spoken op: box lifecycle, item add/remove/move, and name resolution
// against the live store.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"storagevoice/internal/canon"
	"storagevoice/internal/fuzzy"
	"storagevoice/internal/logger"
	"storagevoice/internal/phonetics"
	"storagevoice/internal/store"
	"storagevoice/internal/vector"
	"storagevoice/pkg"
)

// ErrBoxNotFound marks an add that could not proceed because the stated
// destination box does not exist. Callers re-prompt on it.
var ErrBoxNotFound = errors.New("inventory: box not found")

var boxPunctRe = regexp.MustCompile(`[.,!?'"]+`)

// Service binds the store and the semantic index. Every mutation that
// touches an item name keeps the index in step with the store.
type Service struct {
	store  store.Store
	search *vector.SemanticSearch
	canon  *canon.Canonicalizer
}

func NewService(st store.Store, search *vector.SemanticSearch) *Service {
	return &Service{store: st, search: search, canon: canon.New()}
}

func (s *Service) Search() *vector.SemanticSearch { return s.search }

// AddBox creates a box, or returns the existing one when a box with the
// same name (case-insensitive) already exists. Display names are uppercase.
func (s *Service) AddBox(ctx context.Context, name string) (*pkg.Box, bool, error) {
	display := strings.ToUpper(strings.TrimSpace(name))
	boxes, err := s.store.ListBoxes(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range boxes {
		if strings.EqualFold(boxes[i].Name, display) {
			return &boxes[i], false, nil
		}
	}
	box, err := s.store.CreateBox(ctx, display)
	if err != nil {
		return nil, false, err
	}
	return box, true, nil
}

// RemoveBoxIfEmpty deletes the box only when nothing is stored in it.
// The int return is the number of items still inside when deletion was
// refused.
func (s *Service) RemoveBoxIfEmpty(ctx context.Context, box *pkg.Box) (bool, int, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return false, 0, err
	}
	count := 0
	for _, it := range items {
		if it.BoxID == box.ID {
			count++
		}
	}
	if count > 0 {
		return false, count, nil
	}
	ok, err := s.store.DeleteBox(ctx, box.ID)
	return ok, 0, err
}

// ClearBoxItems deletes every item in the box, record and index both.
// Returns how many items were removed.
func (s *Service) ClearBoxItems(ctx context.Context, box *pkg.Box) (int, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return 0, err
	}
	cleared := 0
	for _, it := range items {
		if it.BoxID != box.ID {
			continue
		}
		if _, err := s.store.DeleteItem(ctx, it.ID); err != nil {
			return cleared, err
		}
		if err := s.search.DeleteItem(ctx, it.ID); err != nil {
			logger.Warn().Err(err).Str("item", it.ID).Msg("index delete failed during clear")
		}
		cleared++
	}
	return cleared, nil
}

// AddItem merges into an existing item when the semantic index recognizes
// the name, regardless of the requested destination; the existing record's
// box wins. Otherwise it creates a new record in the named box. The bool
// reports whether a new record was created.
func (s *Service) AddItem(ctx context.Context, name string, quantity int, boxName string) (*pkg.Item, bool, error) {
	singular := s.canon.NormalizeToSingular(name)
	display := s.canon.NormalizeToSingularDisplay(name)

	best, _, err := s.search.FindBestMatch(ctx, singular)
	if err != nil {
		return nil, false, err
	}
	if best != nil {
		existing, err := s.ResolveCandidateToStoreItem(ctx, best.Item)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			updated, err := s.store.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+quantity)
			if err != nil {
				return nil, false, err
			}
			boxLabel, err := s.BoxNameByID(ctx, updated.BoxID)
			if err != nil {
				boxLabel = ""
			}
			if err := s.search.IndexItem(ctx, *updated, boxLabel); err != nil {
				logger.Warn().Err(err).Str("item", updated.ID).Msg("reindex failed after merge")
			}
			return updated, false, nil
		}
	}

	box, err := s.FindBoxByName(ctx, boxName)
	if err != nil {
		return nil, false, err
	}
	if box == nil {
		return nil, false, fmt.Errorf("%w: %q", ErrBoxNotFound, boxName)
	}
	item, err := s.store.AddItem(ctx, display, singular, quantity, box.ID)
	if err != nil {
		return nil, false, err
	}
	if err := s.search.IndexItem(ctx, *item, box.Name); err != nil {
		logger.Warn().Err(err).Str("item", item.ID).Msg("item indexing failed")
	}
	return item, true, nil
}

// RemoveItem decrements the item's quantity. Reaching zero deletes the
// record and its index entry. Returns the post-removal item copy.
func (s *Service) RemoveItem(ctx context.Context, item *pkg.Item, quantity int) (*pkg.Item, error) {
	remaining := item.Quantity - quantity
	updated, err := s.store.UpdateItemQuantity(ctx, item.ID, remaining)
	if err != nil {
		return nil, err
	}
	if updated.Quantity <= 0 {
		if err := s.search.DeleteItem(ctx, item.ID); err != nil {
			logger.Warn().Err(err).Str("item", item.ID).Msg("index delete failed after removal")
		}
	}
	return updated, nil
}

// RemoveItemAll deletes the record outright, whatever its quantity.
func (s *Service) RemoveItemAll(ctx context.Context, item *pkg.Item) (int, error) {
	qty := item.Quantity
	if _, err := s.store.DeleteItem(ctx, item.ID); err != nil {
		return 0, err
	}
	if err := s.search.DeleteItem(ctx, item.ID); err != nil {
		logger.Warn().Err(err).Str("item", item.ID).Msg("index delete failed after removal")
	}
	return qty, nil
}

// MoveItem relocates the item to the destination box. When fromBox is
// stated it must match the item's current box; a mismatch fails closed
// rather than moving something the user did not mean. Moving to the
// current box is a no-op reported via the bool.
func (s *Service) MoveItem(ctx context.Context, item *pkg.Item, fromBox string, dest *pkg.Box) (*pkg.Item, bool, error) {
	if fromBox != "" {
		src, err := s.FindBoxByName(ctx, fromBox)
		if err != nil {
			return nil, false, err
		}
		if src == nil || src.ID != item.BoxID {
			return nil, false, fmt.Errorf("item %q is not in box %q", item.Name, strings.ToUpper(fromBox))
		}
	}
	if item.BoxID == dest.ID {
		return item, false, nil
	}
	updated, err := s.store.MoveItemToBox(ctx, item.ID, dest.ID)
	if err != nil {
		return nil, false, err
	}
	if err := s.search.IndexItem(ctx, *updated, dest.Name); err != nil {
		logger.Warn().Err(err).Str("item", updated.ID).Msg("reindex failed after move")
	}
	return updated, true, nil
}

// MoveAllItemsBetweenBoxes relocates every item from src to dest and
// returns how many moved. Source and destination being the same box is
// a no-op.
func (s *Service) MoveAllItemsBetweenBoxes(ctx context.Context, src, dest *pkg.Box) (int, error) {
	if src.ID == dest.ID {
		return 0, nil
	}
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, it := range items {
		if it.BoxID != src.ID {
			continue
		}
		updated, err := s.store.MoveItemToBox(ctx, it.ID, dest.ID)
		if err != nil {
			return moved, err
		}
		if err := s.search.IndexItem(ctx, *updated, dest.Name); err != nil {
			logger.Warn().Err(err).Str("item", updated.ID).Msg("reindex failed after move")
		}
		moved++
	}
	return moved, nil
}

// FindItemBySemantic resolves a spoken name via the index. A definite
// match comes back as a live store record; otherwise the ranked
// suggestions are returned for disambiguation.
func (s *Service) FindItemBySemantic(ctx context.Context, name string) (*pkg.Item, []pkg.Suggestion, error) {
	singular := s.canon.NormalizeToSingular(name)
	best, suggestions, err := s.search.FindBestMatch(ctx, singular)
	if err != nil {
		return nil, nil, err
	}
	if best == nil {
		return nil, suggestions, nil
	}
	item, err := s.ResolveCandidateToStoreItem(ctx, best.Item)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		// Stale index entry. Fall back to treating every hit as a suggestion.
		return nil, append([]pkg.Suggestion{*best}, suggestions...), nil
	}
	return item, suggestions, nil
}

// FindItemByExactName matches on the normalized singular form, checking
// both stored name and canonical name. Used when the index has nothing.
func (s *Service) FindItemByExactName(ctx context.Context, name string) (*pkg.Item, error) {
	want := s.canon.NormalizeForMatch(s.canon.NormalizeToSingular(name))
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if s.canon.NormalizeForMatch(items[i].Name) == want ||
			s.canon.NormalizeForMatch(items[i].CanonicalName) == want {
			return &items[i], nil
		}
	}
	return nil, nil
}

// ResolveSemanticToStoreItem combines semantic and exact resolution:
// definite index hit first, exact name second.
func (s *Service) ResolveSemanticToStoreItem(ctx context.Context, name string) (*pkg.Item, []pkg.Suggestion, error) {
	item, suggestions, err := s.FindItemBySemantic(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if item != nil {
		return item, suggestions, nil
	}
	exact, err := s.FindItemByExactName(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	return exact, suggestions, nil
}

// ResolveCandidateToStoreItem rehydrates an index hit into the live store
// record: by id first, then by box plus normalized name. Nil means the
// index entry is stale.
func (s *Service) ResolveCandidateToStoreItem(ctx context.Context, candidate pkg.Item) (*pkg.Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == candidate.ID {
			return &items[i], nil
		}
	}
	want := s.canon.NormalizeForMatch(candidate.CanonicalName)
	for i := range items {
		if items[i].BoxID == candidate.BoxID && s.canon.NormalizeForMatch(items[i].CanonicalName) == want {
			return &items[i], nil
		}
	}
	return nil, nil
}

// FindBoxByName resolves a spoken box name against existing boxes: exact,
// case-insensitive, then fuzzy. Spoken letter forms ("bee", "see") map to
// the letter first. Nil without error means no box matched.
func (s *Service) FindBoxByName(ctx context.Context, name string) (*pkg.Box, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return nil, nil
	}
	n = boxPunctRe.ReplaceAllString(n, "")
	n = strings.TrimSpace(strings.TrimPrefix(n, "box "))
	if letter, ok := phonetics.Letter(n); ok {
		n = letter
	}

	boxes, err := s.store.ListBoxes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range boxes {
		if boxes[i].Name == n {
			return &boxes[i], nil
		}
	}
	for i := range boxes {
		if strings.EqualFold(boxes[i].Name, n) {
			return &boxes[i], nil
		}
	}

	names := make([]string, len(boxes))
	allSingle := len(boxes) > 0
	for i := range boxes {
		names[i] = strings.ToLower(boxes[i].Name)
		if len([]rune(names[i])) != 1 {
			allSingle = false
		}
	}
	// Single-letter box names leave the matcher almost nothing to work
	// with, so the cutoff relaxes when that is all there is.
	cutoff := 0.8
	if allSingle {
		cutoff = 0.5
	}
	if match, ok := fuzzy.ClosestMatch(n, names, cutoff); ok {
		for i := range boxes {
			if strings.ToLower(boxes[i].Name) == match {
				return &boxes[i], nil
			}
		}
	}
	return nil, nil
}

// BoxNameByID resolves an id to the display name, or "" when unknown.
func (s *Service) BoxNameByID(ctx context.Context, id string) (string, error) {
	boxes, err := s.store.ListBoxes(ctx)
	if err != nil {
		return "", err
	}
	for _, b := range boxes {
		if b.ID == id {
			return b.Name, nil
		}
	}
	return "", nil
}

// ListBoxes exposes the store's box listing to the dialogue layer.
func (s *Service) ListBoxes(ctx context.Context) ([]pkg.Box, error) {
	return s.store.ListBoxes(ctx)
}

// ListItemsInBox returns every item currently in the box.
func (s *Service) ListItemsInBox(ctx context.Context, boxID string) ([]pkg.Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, it := range items {
		if it.BoxID == boxID {
			out = append(out, it)
		}
	}
	return out, nil
}

// Reindex rebuilds the semantic index from the store, e.g. at startup when
// the store outlived the in-memory index.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return 0, err
	}
	indexed := 0
	for _, it := range items {
		boxName, err := s.BoxNameByID(ctx, it.BoxID)
		if err != nil {
			return indexed, err
		}
		if err := s.search.IndexItem(ctx, it, boxName); err != nil {
			return indexed, err
		}
		indexed++
	}
	return indexed, nil
}
