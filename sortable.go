package slotmap

// Order-changing operations. Sorting reorders the backing pair sequence and
// then re-derives the hash index, so every previously findable key remains
// findable afterwards. All slot identity is invalidated: sorting compacts
// the sparse storage before reordering it.

// KeySort sorts the pairs by key and rebuilds the hash index. O(n log n)
// for the reorder plus O(n) for the rehash.
func (m *mapBase[K, V]) KeySort(less func(a, b K) bool) {
	m.pairs.sort(func(a, b Pair[K, V]) bool { return less(a.Key, b.Key) }, false)
}

// KeyStableSort is KeySort preserving the relative order of pairs with
// equal keys.
func (m *mapBase[K, V]) KeyStableSort(less func(a, b K) bool) {
	m.pairs.sort(func(a, b Pair[K, V]) bool { return less(a.Key, b.Key) }, true)
}

// ValueSort sorts the pairs by value and rebuilds the hash index.
func (m *mapBase[K, V]) ValueSort(less func(a, b V) bool) {
	m.pairs.sort(func(a, b Pair[K, V]) bool { return less(a.Value, b.Value) }, false)
}

// ValueStableSort is ValueSort preserving the relative order of pairs with
// equal values.
func (m *mapBase[K, V]) ValueStableSort(less func(a, b V) bool) {
	m.pairs.sort(func(a, b Pair[K, V]) bool { return less(a.Value, b.Value) }, true)
}

// SortFreeList reorders the internal list of reusable slots so subsequent
// insertions fill the lowest available slot first. Existing elements do not
// move; this is a determinism and packing aid, not a compaction.
func (m *mapBase[K, V]) SortFreeList() {
	m.pairs.elements.SortFreeList()
}
