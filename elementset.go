package slotmap

import (
	"math/bits"

	"github.com/hupe1980/slotmap/sparse"
)

const (
	// nilIndex terminates bucket chains and marks empty bucket heads.
	nilIndex = -1

	// Bucket table sizing. Below minHashedElements no table is kept at all
	// and lookups scan the single implicit bucket.
	elementsPerBucket = 2
	baseBuckets       = 8
	minHashedElements = 4
)

// setElement wraps a stored element with its cached key hash and the next
// slot id of its bucket chain. Caching the hash makes rehash after sorting
// and heterogeneous removal cheap at the cost of four bytes per element.
type setElement[E any] struct {
	value    E
	hash     uint32
	hashNext int32
}

// elementSet is the hash-bucketed sparse set all public containers wrap.
// E is the stored element, K the key it is identified by; keyOf projects one
// onto the other (identity for Set, Pair.Key for the maps).
type elementSet[E, K any] struct {
	elements *sparse.Array[setElement[E]]
	buckets  []int32
	keyOf    func(*E) K
	kf       KeyFuncs[K]
}

func newElementSet[E, K any](keyOf func(*E) K, kf KeyFuncs[K]) elementSet[E, K] {
	return elementSet[E, K]{
		elements: sparse.New[setElement[E]](),
		keyOf:    keyOf,
		kf:       kf,
	}
}

func desiredBuckets(numHashed int) int {
	if numHashed < minHashedElements {
		return 1
	}
	n := numHashed/elementsPerBucket + baseBuckets
	return 1 << bits.Len(uint(n-1))
}

func (s *elementSet[E, K]) bucketIndex(hash uint32) int {
	return int(hash) & (len(s.buckets) - 1)
}

// rehash rebuilds the bucket table at the desired size and relinks every
// live element, without touching the elements themselves.
func (s *elementSet[E, K]) rehash(numBuckets int) {
	s.buckets = make([]int32, numBuckets)
	for i := range s.buckets {
		s.buckets[i] = nilIndex
	}

	for i := 0; i < s.elements.MaxIndex(); i++ {
		if !s.elements.IsValidIndex(i) {
			continue
		}
		e := s.elements.Get(i)
		b := s.bucketIndex(e.hash)
		e.hashNext = s.buckets[b]
		s.buckets[b] = int32(i)
	}
}

// conditionalRehash resizes the bucket table if the hashed element count
// calls for it. Shrinking is opt-in so removal-heavy loops can defer it to
// a single relax pass.
func (s *elementSet[E, K]) conditionalRehash(numHashed int, allowShrink bool) bool {
	desired := desiredBuckets(numHashed)
	if desired > len(s.buckets) || (allowShrink && desired < len(s.buckets)) {
		s.rehash(desired)
		return true
	}
	return false
}

// relax re-derives the bucket table for the current element count. Called
// after a batch of removals.
func (s *elementSet[E, K]) relax() {
	s.conditionalRehash(s.elements.Num(), true)
}

func (s *elementSet[E, K]) rebuildHash() {
	if s.elements.Num() == 0 && len(s.buckets) == 0 {
		return
	}
	s.rehash(desiredBuckets(s.elements.Num()))
}

func (s *elementSet[E, K]) get(id int) *E {
	return &s.elements.Get(id).value
}

// findIDByHash returns the slot id of the first element whose cached hash
// equals hash and whose key satisfies match, or nilIndex.
func (s *elementSet[E, K]) findIDByHash(hash uint32, match func(K) bool) int {
	if len(s.buckets) == 0 {
		return nilIndex
	}
	for id := s.buckets[s.bucketIndex(hash)]; id != nilIndex; {
		e := s.elements.Get(int(id))
		if e.hash == hash && match(s.keyOf(&e.value)) {
			return int(id)
		}
		id = e.hashNext
	}
	return nilIndex
}

// eachByHash visits every element matching hash and match, in bucket-chain
// order. fn returning false stops the walk. Structural mutation during the
// walk is not supported; removal goes through removeByHash.
func (s *elementSet[E, K]) eachByHash(hash uint32, match func(K) bool, fn func(id int, e *E) bool) {
	if len(s.buckets) == 0 {
		return
	}
	for id := s.buckets[s.bucketIndex(hash)]; id != nilIndex; {
		e := s.elements.Get(int(id))
		next := e.hashNext
		if e.hash == hash && match(s.keyOf(&e.value)) {
			if !fn(int(id), &e.value) {
				return
			}
		}
		id = next
	}
}

// addByHash inserts value with the given key hash without checking for
// duplicates and returns the new slot id.
func (s *elementSet[E, K]) addByHash(hash uint32, value E) int {
	id := s.elements.Add(setElement[E]{value: value, hash: hash, hashNext: nilIndex})
	if !s.conditionalRehash(s.elements.Num(), false) {
		b := s.bucketIndex(hash)
		e := s.elements.Get(id)
		e.hashNext = s.buckets[b]
		s.buckets[b] = int32(id)
	}
	return id
}

// removeByHash removes every element matching hash and match and returns
// how many were removed. With a duplicate-free strategy the walk stops after
// the first match. The bucket table is not shrunk here; see relax.
func (s *elementSet[E, K]) removeByHash(hash uint32, match func(K) bool) int {
	if len(s.buckets) == 0 {
		return 0
	}

	removed := 0
	link := &s.buckets[s.bucketIndex(hash)]
	for *link != nilIndex {
		id := int(*link)
		e := s.elements.Get(id)
		if e.hash == hash && match(s.keyOf(&e.value)) {
			next := e.hashNext
			s.elements.RemoveAt(id)
			*link = next
			removed++
			if !s.kf.AllowDuplicateKeys {
				break
			}
			continue
		}
		link = &e.hashNext
	}
	return removed
}

// removeAt removes the element at a known slot id, unlinking it from its
// bucket chain first.
func (s *elementSet[E, K]) removeAt(id int) {
	e := s.elements.Get(id)
	link := &s.buckets[s.bucketIndex(e.hash)]
	for *link != nilIndex {
		if int(*link) == id {
			*link = e.hashNext
			break
		}
		link = &s.elements.Get(int(*link)).hashNext
	}
	s.elements.RemoveAt(id)
}

// each visits every live element in slot-index order.
func (s *elementSet[E, K]) each(fn func(id int, e *E) bool) {
	for i := 0; i < s.elements.MaxIndex(); i++ {
		if !s.elements.IsValidIndex(i) {
			continue
		}
		if !fn(i, &s.elements.Get(i).value) {
			return
		}
	}
}

func (s *elementSet[E, K]) empty(expected int) {
	s.elements.Empty(expected)
	if expected >= minHashedElements {
		s.rehash(desiredBuckets(expected))
	} else {
		s.buckets = nil
	}
}

func (s *elementSet[E, K]) reset() {
	s.elements.Reset()
	for i := range s.buckets {
		s.buckets[i] = nilIndex
	}
}

func (s *elementSet[E, K]) reserve(n int) {
	s.elements.Reserve(n)
	if desired := desiredBuckets(n); desired > len(s.buckets) {
		s.rehash(desired)
	}
}

func (s *elementSet[E, K]) shrink() {
	s.elements.Shrink()
}

func (s *elementSet[E, K]) compact() {
	if s.elements.Compact() {
		s.rebuildHash()
	}
}

func (s *elementSet[E, K]) compactStable() {
	if s.elements.CompactStable() {
		s.rebuildHash()
	}
}

func (s *elementSet[E, K]) sort(less func(a, b E) bool, stable bool) {
	wrapped := func(a, b setElement[E]) bool { return less(a.value, b.value) }
	if stable {
		s.elements.StableSort(wrapped)
	} else {
		s.elements.Sort(wrapped)
	}
	s.rebuildHash()
}

func (s *elementSet[E, K]) allocatedSize() uintptr {
	return s.elements.GetAllocatedSize() + uintptr(len(s.buckets))*4
}

func (s *elementSet[E, K]) moveToEmpty(other *elementSet[E, K]) {
	if s == other {
		return
	}
	if s.elements.Num() != 0 {
		panic("slotmap: move destination still holds elements")
	}
	s.elements.MoveToEmpty(other.elements)
	s.buckets = other.buckets
	s.kf = other.kf
	other.buckets = nil
}
