package slotmap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAddReplacesExistingKey(t *testing.T) {
	m := NewMap[string, int]()

	m.Add("a", 1)
	m.Add("b", 2)
	m.Add("a", 3)

	assert.Equal(t, 2, m.Len())
	require.NotNil(t, m.Find("a"))
	assert.Equal(t, 3, *m.Find("a"))
	assert.Equal(t, 2, *m.Find("b"))
	assert.ElementsMatch(t, []string{"a", "b"}, m.GetKeys())
}

func TestMapEmptyLookups(t *testing.T) {
	m := NewMap[string, int]()

	assert.True(t, m.IsEmpty())
	assert.Equal(t, 0, m.Remove("missing"))
	assert.Nil(t, m.Find("missing"))
	assert.False(t, m.Contains("missing"))
	assert.Empty(t, m.GetKeys())

	v, ok := m.Get("missing")
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Zero(t, m.FindRef("missing"))
}

func TestMapValuePointers(t *testing.T) {
	m := NewMap[string, int]()

	p := m.Add("k", 1)
	*p = 5
	assert.Equal(t, 5, *m.Find("k"))

	q := m.Emplace("z")
	assert.Zero(t, *q)
	*q = 7
	assert.Equal(t, 7, *m.Find("z"))
}

func TestMapFindChecked(t *testing.T) {
	m := NewMap[string, int]()
	m.Add("a", 1)

	assert.Equal(t, 1, *m.FindChecked("a"))
	assert.Panics(t, func() { m.FindChecked("missing") })
}

func TestMapFindOrAdd(t *testing.T) {
	m := NewMap[string, []int]()

	s := m.FindOrAdd("k")
	assert.Nil(t, *s)
	*s = append(*s, 1)

	// A second probe finds the same slot rather than inserting again.
	s2 := m.FindOrAdd("k")
	*s2 = append(*s2, 2)
	assert.Equal(t, []int{1, 2}, *m.Find("k"))
	assert.Equal(t, 1, m.Len())

	v := m.FindOrAddValue("other", []int{9})
	assert.Equal(t, []int{9}, *v)
	assert.Equal(t, 2, m.Len())
}

func TestMapByHashOperations(t *testing.T) {
	m := NewMap[string, int]()
	m.Add("alpha", 1)
	m.Add("beta", 2)

	hash := m.KeyFuncs().Hash("alpha")
	match := func(k string) bool { return k == "alpha" }

	require.NotNil(t, m.FindByHash(hash, match))
	assert.Equal(t, 1, *m.FindByHash(hash, match))
	assert.True(t, m.ContainsByHash(hash, match))

	// ByHash lookups agree with the plain forms for every key.
	for k, v := range m.All() {
		h := m.KeyFuncs().Hash(k)
		got := m.FindByHash(h, func(other string) bool { return other == k })
		require.NotNil(t, got)
		assert.Equal(t, v, *got)
	}

	assert.Equal(t, 1, m.RemoveByHash(hash, match))
	assert.False(t, m.Contains("alpha"))
	assert.Equal(t, 1, m.Len())
}

func TestMapHashVerification(t *testing.T) {
	prev := EnableHashVerification(true)
	defer EnableHashVerification(prev)

	m := NewMap[string, int]()
	good := m.KeyFuncs().Hash("k")

	assert.NotPanics(t, func() { m.AddByHash(good, "k", 1) })
	assert.Panics(t, func() { m.AddByHash(good+1, "k", 2) })
	assert.Panics(t, func() { m.FindOrAddByHash(good+1, "k") })
}

func TestMapFindKey(t *testing.T) {
	m := NewMap[string, int]()
	m.Add("a", 1)
	m.Add("b", 2)

	k, ok := m.FindKey(func(v int) bool { return v == 2 })
	require.True(t, ok)
	assert.Equal(t, "b", k)

	_, ok = m.FindKey(func(v int) bool { return v == 99 })
	assert.False(t, ok)
}

func TestMapArrays(t *testing.T) {
	m := NewMap[string, int]()
	m.Add("a", 1)
	m.Add("b", 2)
	m.Add("c", 3)

	assert.Equal(t, []Pair[string, int]{{"a", 1}, {"b", 2}, {"c", 3}}, m.Array())
	assert.Equal(t, []string{"a", "b", "c"}, m.KeyArray())
	assert.Equal(t, []int{1, 2, 3}, m.ValueArray())

	var keys []string
	for k := range m.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	var vals []int
	for v := range m.ByKey("b") {
		vals = append(vals, v)
	}
	assert.Equal(t, []int{2}, vals)
}

func TestMapRemoveLeavesHole(t *testing.T) {
	m := NewMap[string, int]()
	m.Add("a", 1)
	m.Add("b", 2)
	m.Add("c", 3)

	assert.Equal(t, 1, m.Remove("b"))
	assert.Equal(t, 2, m.Len())

	st := m.Stats()
	assert.Equal(t, 1, st.FreeSlots)
	assert.Equal(t, 3, st.MaxIndex)

	// The hole is reused before new storage is grown.
	m.Add("d", 4)
	st = m.Stats()
	assert.Equal(t, 0, st.FreeSlots)
	assert.Equal(t, 3, st.MaxIndex)
	assert.Equal(t, []string{"a", "d", "c"}, m.KeyArray())
}

func TestMapCompact(t *testing.T) {
	m := NewMap[int, int]()
	for i := 0; i < 20; i++ {
		m.Add(i, i*i)
	}
	for i := 0; i < 20; i += 2 {
		m.Remove(i)
	}

	m.Compact()
	st := m.Stats()
	assert.Equal(t, 0, st.FreeSlots)
	assert.Equal(t, 10, st.MaxIndex)

	// Every key survives compaction and is still findable through the
	// rebuilt hash index.
	for i := 1; i < 20; i += 2 {
		require.NotNil(t, m.Find(i), "key %d", i)
		assert.Equal(t, i*i, *m.Find(i))
	}
}

func TestMapCompactStableKeepsOrder(t *testing.T) {
	m := NewMap[string, int]()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		m.Add(k, 0)
	}
	m.Remove("b")
	m.Remove("d")

	m.CompactStable()
	assert.Equal(t, []string{"a", "c", "e"}, m.KeyArray())
	for _, k := range []string{"a", "c", "e"} {
		assert.True(t, m.Contains(k))
	}
}

func TestMapReserveAndShrink(t *testing.T) {
	m := NewMap[int, int]()
	m.Reserve(100)
	reserved := m.GetAllocatedSize()
	require.NotZero(t, reserved)

	for i := 0; i < 10; i++ {
		m.Add(i, i)
	}

	m.Shrink()
	assert.Less(t, m.GetAllocatedSize(), reserved)
	for i := 0; i < 10; i++ {
		assert.True(t, m.Contains(i))
	}
}

func TestMapEmptyAndReset(t *testing.T) {
	m := NewMap[string, int]()
	m.Add("a", 1)
	m.Add("b", 2)

	m.Empty(0)
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Find("a"))

	m.Add("c", 3)
	m.Reset()
	assert.Equal(t, 0, m.Len())
	m.Add("d", 4)
	assert.Equal(t, 4, *m.Find("d"))
}

func TestMapKeySort(t *testing.T) {
	m := NewMap[string, int]()
	m.Add("cherry", 3)
	m.Add("apple", 1)
	m.Add("banana", 2)
	m.Remove("banana")
	m.Add("date", 4)

	m.KeySort(func(a, b string) bool { return a < b })

	assert.Equal(t, []string{"apple", "cherry", "date"}, m.KeyArray())
	// Lookups keep working after the reorder.
	for _, k := range []string{"apple", "cherry", "date"} {
		require.NotNil(t, m.Find(k), "key %s", k)
	}
	assert.Equal(t, 3, *m.Find("cherry"))
}

func TestMapValueSort(t *testing.T) {
	m := NewMap[string, int]()
	m.Add("a", 3)
	m.Add("b", 1)
	m.Add("c", 2)

	m.ValueSort(func(a, b int) bool { return a < b })
	assert.Equal(t, []int{1, 2, 3}, m.ValueArray())
	assert.Equal(t, 3, *m.Find("a"))
}

func TestMapSortFreeList(t *testing.T) {
	m := NewMap[string, int]()
	for _, k := range []string{"a", "b", "c", "d"} {
		m.Add(k, 0)
	}
	m.Remove("b") // slot 1
	m.Remove("c") // slot 2

	// LIFO reuse would fill slot 2 first; after sorting the free list the
	// lowest slot is reused, so the new key appears where "b" used to.
	m.SortFreeList()
	m.Add("x", 9)
	assert.Equal(t, []string{"a", "x", "d"}, m.KeyArray())
}

func TestMapRemovalBatch(t *testing.T) {
	m := NewMap[int, string]()
	for i := 0; i < 100; i++ {
		m.Add(i, "v")
	}

	batch := m.BeginRemoval()
	for i := 0; i < 90; i++ {
		assert.Equal(t, 1, batch.Remove(i))
	}
	assert.Equal(t, 0, batch.Remove(1), "already removed")
	assert.Equal(t, 90, batch.Removed())
	batch.Close()
	batch.Close() // closing twice is a no-op

	assert.Equal(t, 10, m.Len())
	for i := 90; i < 100; i++ {
		assert.True(t, m.Contains(i))
	}
	// The relax on Close shrinks the bucket table back down.
	assert.LessOrEqual(t, m.Stats().HashBuckets, 16)
}

func TestMapRemoveIf(t *testing.T) {
	m := NewMap[int, int]()
	for i := 0; i < 10; i++ {
		m.Add(i, i)
	}

	removed := m.RemoveIf(func(k, v int) bool { return v%2 == 0 })
	assert.Equal(t, 5, removed)
	assert.Equal(t, 5, m.Len())
	for i := 0; i < 10; i++ {
		assert.Equal(t, i%2 == 1, m.Contains(i), "key %d", i)
	}

	assert.Equal(t, 0, m.RemoveIf(func(k, v int) bool { return false }))
}

func TestMapFilter(t *testing.T) {
	m := NewMap[string, int]()
	m.Add("a", 1)
	m.Add("b", 2)
	m.Add("c", 3)

	even := m.Filter(func(p Pair[string, int]) bool { return p.Value%2 == 0 })
	assert.Equal(t, 1, even.Len())
	assert.True(t, even.Contains("b"))

	// The source is untouched.
	assert.Equal(t, 3, m.Len())
}

func TestMapCopy(t *testing.T) {
	m := NewMap[string, int]()
	m.Add("a", 1)
	m.Add("b", 2)

	c := m.Copy()
	assert.Equal(t, m.Array(), c.Array())

	// The copy owns its storage.
	c.Add("a", 99)
	c.Add("z", 3)
	assert.Equal(t, 1, *m.Find("a"))
	assert.False(t, m.Contains("z"))
}

func TestMapMoveToEmpty(t *testing.T) {
	kf := KeyFuncs[string]{
		Hash: func(k string) uint32 {
			return DefaultKeyFuncs[string]().Hash(strings.ToLower(k))
		},
		Equals: strings.EqualFold,
	}
	src := NewMapWithKeyFuncs[string, int](kf)
	src.Add("a", 1)
	src.Add("b", 2)
	src.Remove("a")

	dst := NewMap[string, int]()
	dst.MoveToEmpty(src)

	// The source is emptied; contents, holes and key strategy transfer.
	assert.Equal(t, 0, src.Len())
	assert.Equal(t, 2, dst.Len())
	assert.Equal(t, 2, *dst.Find("B"), "moved map keeps the source's strategy")
	assert.Equal(t, 1, dst.Stats().FreeSlots)

	// The source is reusable and independent afterwards.
	src.Add("c", 3)
	assert.False(t, dst.Contains("c"))

	// Moving into a non-empty destination is a programmer error.
	other := NewMap[string, int]()
	other.Add("x", 1)
	assert.Panics(t, func() { other.MoveToEmpty(dst) })
}

func TestMapOrderIndependentEqual(t *testing.T) {
	eq := func(a, b int) bool { return a == b }

	a := NewMap[string, int]()
	a.Add("x", 1)
	a.Add("y", 2)

	b := NewMap[string, int]()
	b.Add("y", 2)
	b.Add("x", 1)

	assert.True(t, a.OrderIndependentEqual(b, eq))
	assert.True(t, b.OrderIndependentEqual(a, eq))

	b.Add("y", 3)
	assert.False(t, a.OrderIndependentEqual(b, eq))

	b.Add("y", 2)
	b.Add("z", 9)
	assert.False(t, a.OrderIndependentEqual(b, eq), "cardinality mismatch")
}

func TestMapCustomKeyFuncs(t *testing.T) {
	// Case-insensitive string keys.
	kf := KeyFuncs[string]{
		Hash: func(k string) uint32 {
			return DefaultKeyFuncs[string]().Hash(strings.ToLower(k))
		},
		Equals: strings.EqualFold,
	}

	m := NewMapWithKeyFuncs[string, int](kf)
	m.Add("Hello", 1)
	m.Add("HELLO", 2)

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, *m.Find("hello"))
	// Replacement keeps the originally stored key.
	assert.Equal(t, []string{"Hello"}, m.GetKeys())
}

func TestMapRejectsDuplicateKeyStrategy(t *testing.T) {
	kf := DefaultKeyFuncs[string]()
	kf.AllowDuplicateKeys = true

	assert.Panics(t, func() { NewMapWithKeyFuncs[string, int](kf) })
}

func TestMapWithCapacity(t *testing.T) {
	m := NewMap[int, int](WithCapacity[int](64))
	st := m.Stats()
	assert.GreaterOrEqual(t, st.HashBuckets, 32)

	for i := 0; i < 64; i++ {
		m.Add(i, i)
	}
	assert.Equal(t, 64, m.Len())
}

func TestMapStatsString(t *testing.T) {
	m := NewMap[string, int]()
	m.Add("a", 1)
	m.Remove("a")
	m.Add("b", 2)

	st := m.Stats()
	assert.Equal(t, 1, st.Num)
	assert.NotZero(t, st.AllocatedBytes)
	assert.Contains(t, st.String(), "elements=1")
}

func TestMapLargeChurn(t *testing.T) {
	m := NewMap[int, int]()
	for i := 0; i < 1000; i++ {
		m.Add(i, i)
	}
	for i := 0; i < 1000; i += 3 {
		m.Remove(i)
	}
	for i := 1000; i < 1500; i++ {
		m.Add(i, i)
	}

	for i := 0; i < 1500; i++ {
		want := i >= 1000 || i%3 != 0
		assert.Equal(t, want, m.Contains(i), "key %d", i)
	}
}
