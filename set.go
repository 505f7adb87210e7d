package slotmap

import "iter"

// Set is a hash-indexed set of keys with stable element identity, backed by
// the same sparse machinery as the maps. Construct with NewSet or
// NewSetWithKeyFuncs; the zero value is not usable.
type Set[K any] struct {
	core elementSet[K, K]
}

// NewSet creates an empty set of a comparable key type with the default key
// strategy.
func NewSet[K comparable](opts ...Option[K]) *Set[K] {
	return NewSetWithKeyFuncs(DefaultKeyFuncs[K](), opts...)
}

// NewSetWithKeyFuncs creates an empty set with an explicit key strategy. Set
// elements are unique, so a strategy allowing duplicate keys is rejected.
func NewSetWithKeyFuncs[K any](kf KeyFuncs[K], opts ...Option[K]) *Set[K] {
	if kf.AllowDuplicateKeys {
		panic("slotmap: Set cannot be built from a key strategy that allows duplicate keys")
	}
	o := resolveOptions(kf, opts)
	s := newSetWith(o.keyFuncs)
	if o.capacity > 0 {
		s.Reserve(o.capacity)
	}
	return s
}

func newSetWith[K any](kf KeyFuncs[K]) *Set[K] {
	return &Set[K]{core: newElementSet(func(k *K) K { return *k }, kf)}
}

func (s *Set[K]) match(key K) func(K) bool {
	return func(other K) bool { return s.core.kf.Equals(key, other) }
}

// Len returns the number of elements.
func (s *Set[K]) Len() int {
	return s.core.elements.Num()
}

// IsEmpty reports whether the set holds no elements.
func (s *Set[K]) IsEmpty() bool {
	return s.core.elements.IsEmpty()
}

// Add inserts key and reports whether it was newly added. An existing equal
// element is replaced by key, which matters for strategies where equal keys
// are still distinguishable.
func (s *Set[K]) Add(key K) bool {
	return s.AddByHash(s.core.kf.Hash(key), key)
}

// AddByHash is Add with a caller-computed key hash.
func (s *Set[K]) AddByHash(keyHash uint32, key K) bool {
	checkSuppliedHash(s.core.kf, keyHash, key)

	if id := s.core.findIDByHash(keyHash, s.match(key)); id != nilIndex {
		*s.core.get(id) = key
		return false
	}
	s.core.addByHash(keyHash, key)
	return true
}

// Contains reports whether an element equal to key exists.
func (s *Set[K]) Contains(key K) bool {
	return s.core.findIDByHash(s.core.kf.Hash(key), s.match(key)) != nilIndex
}

// ContainsByHash is the heterogeneous form of Contains: match may compare
// against a different key representation, as long as it agrees with the
// stored keys' strategy.
func (s *Set[K]) ContainsByHash(keyHash uint32, match func(K) bool) bool {
	return s.core.findIDByHash(keyHash, match) != nilIndex
}

// Remove removes the element equal to key, returning 1 if it existed.
func (s *Set[K]) Remove(key K) int {
	return s.core.removeByHash(s.core.kf.Hash(key), s.match(key))
}

// RemoveByHash is the heterogeneous form of Remove.
func (s *Set[K]) RemoveByHash(keyHash uint32, match func(K) bool) int {
	return s.core.removeByHash(keyHash, match)
}

// All iterates over the elements in slot-index order.
func (s *Set[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		s.core.each(func(_ int, k *K) bool {
			return yield(*k)
		})
	}
}

// Array returns a copy of the elements in iteration order.
func (s *Set[K]) Array() []K {
	out := make([]K, 0, s.Len())
	s.core.each(func(_ int, k *K) bool {
		out = append(out, *k)
		return true
	})
	return out
}

// Empty discards all elements, pre-sizing for an expected insertion count.
func (s *Set[K]) Empty(expected int) {
	s.core.empty(expected)
}

// Reset discards all elements but keeps allocations for reuse.
func (s *Set[K]) Reset() {
	s.core.reset()
}

// Reserve pre-sizes storage and buckets for n elements.
func (s *Set[K]) Reserve(n int) {
	s.core.reserve(n)
}

// Shrink releases excess slack without touching element identity.
func (s *Set[K]) Shrink() {
	s.core.shrink()
}

// Compact removes holes left by removals, reassigning slot identity.
func (s *Set[K]) Compact() {
	s.core.compact()
}

// CompactStable removes holes preserving iteration order.
func (s *Set[K]) CompactStable() {
	s.core.compactStable()
}

// Sort compacts and reorders the elements by less, then rebuilds the hash
// index so lookups stay correct.
func (s *Set[K]) Sort(less func(a, b K) bool) {
	s.core.sort(less, false)
}

// StableSort is Sort preserving the relative order of equal elements.
func (s *Set[K]) StableSort(less func(a, b K) bool) {
	s.core.sort(less, true)
}

// MoveToEmpty transfers the contents, backing storage and key strategy of
// other into s, leaving other empty. s must hold no elements; moving into a
// non-empty set panics.
func (s *Set[K]) MoveToEmpty(other *Set[K]) {
	s.core.moveToEmpty(&other.core)
}

// GetAllocatedSize returns the bytes allocated directly by the set.
func (s *Set[K]) GetAllocatedSize() uintptr {
	return s.core.allocatedSize()
}

// Stats returns a snapshot of the container's structural state.
func (s *Set[K]) Stats() Stats {
	return statsOf(&s.core)
}
