package slotmap

// MultiMap associates any number of values with each key. It shares the map
// base with Map; the duplicate-keys capability of the key strategy is forced
// on, so Add always appends and Remove removes every matching pair.
type MultiMap[K, V any] struct {
	mapBase[K, V]
}

// NewMultiMap creates an empty multi-map keyed by a comparable type with the
// default key strategy.
func NewMultiMap[K comparable, V any](opts ...Option[K]) *MultiMap[K, V] {
	return NewMultiMapWithKeyFuncs[K, V](DefaultKeyFuncs[K](), opts...)
}

// NewMultiMapWithKeyFuncs creates an empty multi-map with an explicit key
// strategy. AllowDuplicateKeys is set regardless of its value in kf.
func NewMultiMapWithKeyFuncs[K, V any](kf KeyFuncs[K], opts ...Option[K]) *MultiMap[K, V] {
	kf.AllowDuplicateKeys = true
	o := resolveOptions(kf, opts)
	return &MultiMap[K, V]{mapBase: newMapBase[K, V](o.keyFuncs, o.capacity)}
}

// FindAll returns a copy of every value stored for key, in iteration order.
func (m *MultiMap[K, V]) FindAll(key K) []V {
	var out []V
	for v := range m.ByKey(key) {
		out = append(out, v)
	}
	return out
}

// NumForKey returns how many pairs share key.
func (m *MultiMap[K, V]) NumForKey(key K) int {
	n := 0
	m.pairs.eachByHash(m.pairs.kf.Hash(key), m.match(key), func(int, *Pair[K, V]) bool {
		n++
		return true
	})
	return n
}

// RemoveSingle removes at most one pair with the given key whose value
// satisfies equalValue, and reports whether one was removed.
func (m *MultiMap[K, V]) RemoveSingle(key K, equalValue func(V) bool) bool {
	target := nilIndex
	m.pairs.eachByHash(m.pairs.kf.Hash(key), m.match(key), func(id int, p *Pair[K, V]) bool {
		if equalValue(p.Value) {
			target = id
			return false
		}
		return true
	})
	if target == nilIndex {
		return false
	}
	m.pairs.removeAt(target)
	return true
}

// Filter returns a new multi-map of the same configuration containing only
// the pairs for which pred returns true. The source is not mutated.
func (m *MultiMap[K, V]) Filter(pred func(Pair[K, V]) bool) *MultiMap[K, V] {
	out := &MultiMap[K, V]{mapBase: newMapBase[K, V](m.pairs.kf, m.Len())}
	m.pairs.each(func(_ int, p *Pair[K, V]) bool {
		if pred(*p) {
			out.pairs.addByHash(m.pairs.kf.Hash(p.Key), *p)
		}
		return true
	})
	return out
}

// Copy returns an element-wise copy of the multi-map.
func (m *MultiMap[K, V]) Copy() *MultiMap[K, V] {
	out := &MultiMap[K, V]{mapBase: newMapBase[K, V](m.pairs.kf, m.Len())}
	copyPairs(&m.mapBase, &out.mapBase)
	return out
}

// MoveToEmpty transfers the contents, backing storage and key strategy of
// other into m, leaving other empty. m must hold no pairs; moving into a
// non-empty multi-map panics.
func (m *MultiMap[K, V]) MoveToEmpty(other *MultiMap[K, V]) {
	m.pairs.moveToEmpty(&other.pairs)
}

// Stats returns a snapshot of the container's structural state.
func (m *MultiMap[K, V]) Stats() Stats {
	return statsOf(&m.pairs)
}
