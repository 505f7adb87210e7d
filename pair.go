package slotmap

// Pair is a single map entry. Identity is the key under the container's
// key strategy; the pair owns its key and value for as long as it lives in
// the table.
type Pair[K, V any] struct {
	Key   K
	Value V
}
