package slotmap

// RemovalBatch scopes a burst of removals so the bucket-table relax runs
// exactly once when the scope closes, instead of once per removal. Obtain
// one from BeginRemoval and always Close it:
//
//	batch := m.BeginRemoval()
//	for _, k := range staleKeys {
//		batch.Remove(k)
//	}
//	batch.Close()
//
// The batch borrows the map; no other structural mutation may happen on the
// map while the batch is open.
type RemovalBatch[K, V any] struct {
	m       *mapBase[K, V]
	removed int
	closed  bool
}

// BeginRemoval opens a removal batch on the map.
func (m *mapBase[K, V]) BeginRemoval() *RemovalBatch[K, V] {
	return &RemovalBatch[K, V]{m: m}
}

// Remove removes all pairs with a key equal to key, like Map.Remove but
// with the relax deferred to Close.
func (b *RemovalBatch[K, V]) Remove(key K) int {
	n := b.m.pairs.removeByHash(b.m.pairs.kf.Hash(key), b.m.match(key))
	b.removed += n
	return n
}

// RemoveByHash is the heterogeneous form of Remove.
func (b *RemovalBatch[K, V]) RemoveByHash(keyHash uint32, match func(K) bool) int {
	n := b.m.pairs.removeByHash(keyHash, match)
	b.removed += n
	return n
}

// Removed returns how many pairs the batch has removed so far.
func (b *RemovalBatch[K, V]) Removed() int {
	return b.removed
}

// Close ends the batch. If anything was removed, the bucket table is
// re-derived once for the new element count. Closing twice is a no-op.
func (b *RemovalBatch[K, V]) Close() {
	if b.closed {
		return
	}
	b.closed = true
	if b.removed > 0 {
		b.m.pairs.relax()
	}
}

// RemoveIf removes every pair for which pred returns true and returns the
// number removed. The relax pass runs once at the end, as if the removals
// had gone through a single batch.
func (m *mapBase[K, V]) RemoveIf(pred func(key K, value V) bool) int {
	removed := 0
	for i := 0; i < m.pairs.elements.MaxIndex(); i++ {
		if !m.pairs.elements.IsValidIndex(i) {
			continue
		}
		p := m.pairs.get(i)
		if pred(p.Key, p.Value) {
			m.pairs.removeAt(i)
			removed++
		}
	}
	if removed > 0 {
		m.pairs.relax()
	}
	return removed
}
