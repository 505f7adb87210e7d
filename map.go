package slotmap

import (
	"fmt"
	"iter"
)

// mapBase is the key/value core shared by Map and MultiMap: a sparse element
// set of pairs hashed by key. Whether Add replaces or appends is decided
// entirely by the key strategy's AllowDuplicateKeys flag.
type mapBase[K, V any] struct {
	pairs elementSet[Pair[K, V], K]
}

func newMapBase[K, V any](kf KeyFuncs[K], capacity int) mapBase[K, V] {
	m := mapBase[K, V]{
		pairs: newElementSet(func(p *Pair[K, V]) K { return p.Key }, kf),
	}
	if capacity > 0 {
		m.pairs.reserve(capacity)
	}
	return m
}

func (m *mapBase[K, V]) match(key K) func(K) bool {
	return func(other K) bool { return m.pairs.kf.Equals(key, other) }
}

// Len returns the number of stored pairs.
func (m *mapBase[K, V]) Len() int {
	return m.pairs.elements.Num()
}

// IsEmpty reports whether the map holds no pairs.
func (m *mapBase[K, V]) IsEmpty() bool {
	return m.pairs.elements.IsEmpty()
}

// KeyFuncs returns the configured key strategy.
func (m *mapBase[K, V]) KeyFuncs() KeyFuncs[K] {
	return m.pairs.kf
}

// Add associates value with key and returns a pointer to the stored value.
// With a duplicate-free strategy an existing pair with an equal key has its
// value replaced in place, retaining the stored key; otherwise a new pair is
// appended. The pointer is valid only until the next structural mutation.
func (m *mapBase[K, V]) Add(key K, value V) *V {
	return m.AddByHash(m.pairs.kf.Hash(key), key, value)
}

// AddByHash is Add with a caller-computed key hash. See the package notes on
// ByHash operations.
func (m *mapBase[K, V]) AddByHash(keyHash uint32, key K, value V) *V {
	checkSuppliedHash(m.pairs.kf, keyHash, key)

	if !m.pairs.kf.AllowDuplicateKeys {
		if id := m.pairs.findIDByHash(keyHash, m.match(key)); id != nilIndex {
			p := m.pairs.get(id)
			p.Value = value
			return &p.Value
		}
	}
	id := m.pairs.addByHash(keyHash, Pair[K, V]{Key: key, Value: value})
	return &m.pairs.get(id).Value
}

// Emplace associates the zero value with key and returns a pointer to it,
// following the same replace-or-append contract as Add.
func (m *mapBase[K, V]) Emplace(key K) *V {
	var zero V
	return m.Add(key, zero)
}

// EmplaceByHash is Emplace with a caller-computed key hash.
func (m *mapBase[K, V]) EmplaceByHash(keyHash uint32, key K) *V {
	var zero V
	return m.AddByHash(keyHash, key, zero)
}

// Remove removes all pairs with a key equal to key and returns how many were
// removed: 0 or 1 for a Map, 0..n for a MultiMap.
func (m *mapBase[K, V]) Remove(key K) int {
	return m.pairs.removeByHash(m.pairs.kf.Hash(key), m.match(key))
}

// RemoveByHash removes all pairs whose cached hash equals keyHash and whose
// key satisfies match. The heterogeneous form of Remove: match may compare
// against a key representation of a different type, as long as its notion of
// equality and the supplied hash agree with the stored keys' strategy.
func (m *mapBase[K, V]) RemoveByHash(keyHash uint32, match func(K) bool) int {
	return m.pairs.removeByHash(keyHash, match)
}

// Find returns a pointer to the value stored for key, or nil if no equal key
// exists. The pointer is invalidated by any structural mutation.
func (m *mapBase[K, V]) Find(key K) *V {
	return m.FindByHash(m.pairs.kf.Hash(key), m.match(key))
}

// FindByHash is the heterogeneous form of Find; see RemoveByHash.
func (m *mapBase[K, V]) FindByHash(keyHash uint32, match func(K) bool) *V {
	if id := m.pairs.findIDByHash(keyHash, match); id != nilIndex {
		return &m.pairs.get(id).Value
	}
	return nil
}

// FindChecked returns a pointer to the value stored for key and panics if
// the key is absent. For call sites where the caller has already established
// the key must exist, so absence is a programming error rather than a
// runtime possibility.
func (m *mapBase[K, V]) FindChecked(key K) *V {
	v := m.Find(key)
	if v == nil {
		panic(fmt.Sprintf("slotmap: FindChecked: key %v is not in the map", any(key)))
	}
	return v
}

// FindRef returns a copy of the value stored for key, or the zero value if
// the key is absent. Never fails.
func (m *mapBase[K, V]) FindRef(key K) V {
	if v := m.Find(key); v != nil {
		return *v
	}
	var zero V
	return zero
}

// Get returns a copy of the value stored for key and whether it was present.
func (m *mapBase[K, V]) Get(key K) (V, bool) {
	if v := m.Find(key); v != nil {
		return *v, true
	}
	var zero V
	return zero, false
}

// FindOrAdd returns a pointer to the value stored for key, inserting the
// zero value first if the key is absent. The hash is computed once and used
// for both the probe and the fallback insert.
func (m *mapBase[K, V]) FindOrAdd(key K) *V {
	var zero V
	return m.FindOrAddValue(key, zero)
}

// FindOrAddValue returns a pointer to the value stored for key, inserting
// value first if the key is absent.
func (m *mapBase[K, V]) FindOrAddValue(key K, value V) *V {
	return m.FindOrAddValueByHash(m.pairs.kf.Hash(key), key, value)
}

// FindOrAddByHash is FindOrAdd with a caller-computed key hash.
func (m *mapBase[K, V]) FindOrAddByHash(keyHash uint32, key K) *V {
	var zero V
	return m.FindOrAddValueByHash(keyHash, key, zero)
}

// FindOrAddValueByHash is FindOrAddValue with a caller-computed key hash.
func (m *mapBase[K, V]) FindOrAddValueByHash(keyHash uint32, key K, value V) *V {
	checkSuppliedHash(m.pairs.kf, keyHash, key)

	if id := m.pairs.findIDByHash(keyHash, m.match(key)); id != nilIndex {
		return &m.pairs.get(id).Value
	}
	id := m.pairs.addByHash(keyHash, Pair[K, V]{Key: key, Value: value})
	return &m.pairs.get(id).Value
}

// Contains reports whether a pair with a key equal to key exists.
func (m *mapBase[K, V]) Contains(key K) bool {
	return m.Find(key) != nil
}

// ContainsByHash is the heterogeneous form of Contains; see RemoveByHash.
func (m *mapBase[K, V]) ContainsByHash(keyHash uint32, match func(K) bool) bool {
	return m.pairs.findIDByHash(keyHash, match) != nilIndex
}

// FindKey returns the first key whose value satisfies equalValue, in
// iteration order. This is a linear scan over all pairs; it exists for
// convenience, not speed.
func (m *mapBase[K, V]) FindKey(equalValue func(V) bool) (K, bool) {
	var found K
	ok := false
	m.pairs.each(func(_ int, p *Pair[K, V]) bool {
		if equalValue(p.Value) {
			found = p.Key
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// GetKeys returns the distinct keys of the map in iteration order. Keys are
// de-duplicated even for duplicate-free strategies: key types whose identity
// can change after insertion (weak references and the like) may become
// independently equal, and callers of GetKeys expect a set either way.
func (m *mapBase[K, V]) GetKeys() []K {
	kf := m.pairs.kf
	kf.AllowDuplicateKeys = false
	visited := newSetWith(kf)
	visited.Reserve(m.Len())

	keys := make([]K, 0, m.Len())
	m.pairs.each(func(_ int, p *Pair[K, V]) bool {
		if visited.Add(p.Key) {
			keys = append(keys, p.Key)
		}
		return true
	})
	return keys
}

// Array returns a copy of all pairs in iteration order.
func (m *mapBase[K, V]) Array() []Pair[K, V] {
	out := make([]Pair[K, V], 0, m.Len())
	m.pairs.each(func(_ int, p *Pair[K, V]) bool {
		out = append(out, *p)
		return true
	})
	return out
}

// KeyArray returns all keys in iteration order, including duplicates for a
// MultiMap. Use GetKeys for the distinct set.
func (m *mapBase[K, V]) KeyArray() []K {
	out := make([]K, 0, m.Len())
	m.pairs.each(func(_ int, p *Pair[K, V]) bool {
		out = append(out, p.Key)
		return true
	})
	return out
}

// ValueArray returns all values in iteration order.
func (m *mapBase[K, V]) ValueArray() []V {
	out := make([]V, 0, m.Len())
	m.pairs.each(func(_ int, p *Pair[K, V]) bool {
		out = append(out, p.Value)
		return true
	})
	return out
}

// All iterates over every pair in slot-index order.
func (m *mapBase[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		m.pairs.each(func(_ int, p *Pair[K, V]) bool {
			return yield(p.Key, p.Value)
		})
	}
}

// ByKey iterates over the values stored for key: at most one for a Map,
// each matching pair for a MultiMap.
func (m *mapBase[K, V]) ByKey(key K) iter.Seq[V] {
	return func(yield func(V) bool) {
		m.pairs.eachByHash(m.pairs.kf.Hash(key), m.match(key), func(_ int, p *Pair[K, V]) bool {
			return yield(p.Value)
		})
	}
}

// Empty discards all pairs, pre-sizing for an expected number of pairs about
// to be added.
func (m *mapBase[K, V]) Empty(expected int) {
	m.pairs.empty(expected)
}

// Reset discards all pairs but keeps allocations and capacities for reuse.
func (m *mapBase[K, V]) Reset() {
	m.pairs.reset()
}

// Reserve pre-sizes storage and the bucket table for n pairs, avoiding
// resize and rehash churn during a known insertion burst.
func (m *mapBase[K, V]) Reserve(n int) {
	m.pairs.reserve(n)
}

// Shrink releases excess slack. Slot identity is unaffected.
func (m *mapBase[K, V]) Shrink() {
	m.pairs.shrink()
}

// Compact removes the holes left by removals, reassigning slot identity.
// Iteration order is not preserved.
func (m *mapBase[K, V]) Compact() {
	m.pairs.compact()
}

// CompactStable removes holes while preserving iteration order, at extra
// cost. Slot identity is still reassigned.
func (m *mapBase[K, V]) CompactStable() {
	m.pairs.compactStable()
}

// GetAllocatedSize returns the bytes allocated directly by the container,
// excluding memory owned by keys and values themselves.
func (m *mapBase[K, V]) GetAllocatedSize() uintptr {
	return m.pairs.allocatedSize()
}

// orderIndependentEqual reports whether both maps hold the same cardinality
// and every key of m maps to a value equal (under equalValue) to the one in
// other. A full probe-based comparison, deliberately an explicit function
// rather than operator-style sugar: it is O(n) hash probes.
func (m *mapBase[K, V]) orderIndependentEqual(other *mapBase[K, V], equalValue func(V, V) bool) bool {
	if m.Len() != other.Len() {
		return false
	}
	equal := true
	m.pairs.each(func(_ int, p *Pair[K, V]) bool {
		ov := other.Find(p.Key)
		if ov == nil || !equalValue(p.Value, *ov) {
			equal = false
			return false
		}
		return true
	})
	return equal
}

// Map associates exactly one value with each key. Construct with NewMap or
// NewMapWithKeyFuncs; the zero value is not usable.
type Map[K, V any] struct {
	mapBase[K, V]
}

// NewMap creates an empty map keyed by a comparable type with the default
// key strategy.
func NewMap[K comparable, V any](opts ...Option[K]) *Map[K, V] {
	return NewMapWithKeyFuncs[K, V](DefaultKeyFuncs[K](), opts...)
}

// NewMapWithKeyFuncs creates an empty map with an explicit key strategy,
// for key types that are not comparable or need custom equality. A strategy
// that allows duplicate keys cannot back a single-value map and is rejected
// before any instance exists; use NewMultiMap instead.
func NewMapWithKeyFuncs[K, V any](kf KeyFuncs[K], opts ...Option[K]) *Map[K, V] {
	if kf.AllowDuplicateKeys {
		panic("slotmap: Map cannot be built from a key strategy that allows duplicate keys")
	}
	o := resolveOptions(kf, opts)
	return &Map[K, V]{mapBase: newMapBase[K, V](o.keyFuncs, o.capacity)}
}

// Filter returns a new map of the same configuration containing only the
// pairs for which pred returns true. The source map is not mutated.
func (m *Map[K, V]) Filter(pred func(Pair[K, V]) bool) *Map[K, V] {
	out := &Map[K, V]{mapBase: newMapBase[K, V](m.pairs.kf, m.Len())}
	m.pairs.each(func(_ int, p *Pair[K, V]) bool {
		if pred(*p) {
			out.pairs.addByHash(m.pairs.kf.Hash(p.Key), *p)
		}
		return true
	})
	return out
}

// Copy returns an element-wise copy of the map. Backing storage is never
// shared: keys and values are duplicated pair by pair.
func (m *Map[K, V]) Copy() *Map[K, V] {
	out := &Map[K, V]{mapBase: newMapBase[K, V](m.pairs.kf, m.Len())}
	copyPairs(&m.mapBase, &out.mapBase)
	return out
}

// MoveToEmpty transfers the contents, backing storage and key strategy of
// other into m, leaving other empty. Unlike Copy this is O(1): no pair is
// duplicated. m must hold no pairs; moving into a non-empty map is a
// programmer error and panics.
func (m *Map[K, V]) MoveToEmpty(other *Map[K, V]) {
	m.pairs.moveToEmpty(&other.pairs)
}

// OrderIndependentEqual reports whether both maps contain the same keys with
// values equal under equalValue, regardless of insertion order. Cardinality
// mismatch returns false without scanning values.
func (m *Map[K, V]) OrderIndependentEqual(other *Map[K, V], equalValue func(V, V) bool) bool {
	return m.orderIndependentEqual(&other.mapBase, equalValue)
}

// Stats returns a snapshot of the container's structural state.
func (m *Map[K, V]) Stats() Stats {
	return statsOf(&m.pairs)
}

// copyPairs re-adds every pair of src into dst reusing the cached hashes,
// so copying skips rehashing every key.
func copyPairs[K, V any](src, dst *mapBase[K, V]) {
	for i := 0; i < src.pairs.elements.MaxIndex(); i++ {
		if !src.pairs.elements.IsValidIndex(i) {
			continue
		}
		e := src.pairs.elements.Get(i)
		dst.pairs.addByHash(e.hash, e.value)
	}
}
