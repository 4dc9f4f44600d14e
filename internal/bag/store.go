package bag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-rental-checkout/internal/kv"
	"go.uber.org/zap"
)

// Store owns the in-memory bag and mirrors it into durable storage after
// every mutation. It is not safe for concurrent use; callers serialize
// access per shopper.
type Store struct {
	kv    kv.Store
	key   string
	items []LineItem
	log   *zap.Logger
}

// Load rehydrates the bag stored under key. Missing or malformed data yields
// an empty bag; Load never fails.
func Load(ctx context.Context, store kv.Store, key string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{kv: store, key: key, log: log}

	raw, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Warn("bag load failed, starting empty", zap.String("key", key), zap.Error(err))
		}
		return s
	}
	items, err := decode(raw)
	if err != nil {
		log.Warn("discarding malformed bag", zap.String("key", key), zap.Error(err))
		return s
	}
	for _, it := range items {
		s.put(it)
	}
	return s
}

func decode(raw string) ([]LineItem, error) {
	if raw == "" {
		return nil, nil
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode bag: %w", err)
	}
	for i := range items {
		if items[i].ProductID == "" || items[i].Size == "" {
			return nil, fmt.Errorf("decode bag: entry %d has no product or size", i)
		}
		if items[i].Quantity < 1 {
			items[i].Quantity = 1
		}
	}
	return items, nil
}

// Add places item in its slot. An existing entry with the same slot is
// replaced in place, quantity included; otherwise the item is appended.
func (s *Store) Add(ctx context.Context, item LineItem) {
	s.put(item)
	s.persist(ctx)
}

func (s *Store) put(item LineItem) {
	if i := s.index(item.ProductID, item.Size); i >= 0 {
		s.items[i] = item
		return
	}
	s.items = append(s.items, item)
}

// Remove drops the slot if present. Removing a missing slot is a no-op.
func (s *Store) Remove(ctx context.Context, productID, size string) {
	if i := s.index(productID, size); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	s.persist(ctx)
}

// SaveForLater takes the slot out of the bag.
func (s *Store) SaveForLater(ctx context.Context, productID, size string) {
	s.Remove(ctx, productID, size)
}

// SetQuantity updates an existing slot. It returns false, leaving the bag
// untouched, when quantity < 1 or the slot does not exist.
func (s *Store) SetQuantity(ctx context.Context, productID, size string, quantity int) bool {
	if quantity < 1 {
		return false
	}
	i := s.index(productID, size)
	if i < 0 {
		return false
	}
	s.items[i].Quantity = quantity
	s.persist(ctx)
	return true
}

func (s *Store) Clear(ctx context.Context) {
	s.items = nil
	s.persist(ctx)
}

// Count is the number of distinct slots, not units.
func (s *Store) Count() int { return len(s.items) }

// Units is the sum of quantities across all slots.
func (s *Store) Units() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) IsEmpty() bool { return len(s.items) == 0 }

// Items returns a copy of the bag in display order.
func (s *Store) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Find returns the entry for a slot.
func (s *Store) Find(productID, size string) (LineItem, bool) {
	if i := s.index(productID, size); i >= 0 {
		return s.items[i], true
	}
	return LineItem{}, false
}

func (s *Store) index(productID, size string) int {
	for i, it := range s.items {
		if it.ProductID == productID && it.Size == size {
			return i
		}
	}
	return -1
}

// persist writes the whole bag. A failed write is logged and otherwise
// ignored: the in-memory bag stays authoritative for the session.
func (s *Store) persist(ctx context.Context) {
	items := s.items
	if items == nil {
		items = []LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		s.log.Error("bag encode failed", zap.String("key", s.key), zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, s.key, string(b)); err != nil {
		s.log.Error("bag persist failed", zap.String("key", s.key), zap.Error(err))
	}
}
