// Package dedup merges records extracted from successive grid pages into
// one ordered set keyed by each record's natural key.
package dedup

// Keyed is implemented by records that carry a composite natural key.
type Keyed interface {
	Key() string
}

// Set keeps the first occurrence of every key, in arrival order. The zero
// value is not usable; call New.
type Set[T Keyed] struct {
	seen  map[string]struct{}
	items []T
}

func New[T Keyed]() *Set[T] {
	return &Set[T]{seen: make(map[string]struct{})}
}

// Merge inserts every item whose key is unseen and reports how many were
// added. Items repeated within the batch are collapsed too.
func (s *Set[T]) Merge(items []T) int {
	added := 0
	for _, item := range items {
		key := item.Key()
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = struct{}{}
		s.items = append(s.items, item)
		added++
	}
	return added
}

// Has reports whether key has been merged.
func (s *Set[T]) Has(key string) bool {
	_, ok := s.seen[key]
	return ok
}

func (s *Set[T]) Len() int {
	return len(s.items)
}

// Items returns a copy of the merged records in first-occurrence order.
func (s *Set[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}
