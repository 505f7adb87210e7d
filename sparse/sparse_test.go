package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAssignsSequentialIndices(t *testing.T) {
	a := New[string]()

	assert.Equal(t, 0, a.Add("zero"))
	assert.Equal(t, 1, a.Add("one"))
	assert.Equal(t, 2, a.Add("two"))

	assert.Equal(t, 3, a.Num())
	assert.Equal(t, 3, a.MaxIndex())
	assert.Equal(t, 0, a.NumFree())
	assert.Equal(t, "one", *a.Get(1))
}

func TestRemoveAtAndReuse(t *testing.T) {
	a := New[int]()
	for i := 0; i < 5; i++ {
		a.Add(i)
	}

	a.RemoveAt(1)
	a.RemoveAt(3)

	assert.Equal(t, 3, a.Num())
	assert.Equal(t, 5, a.MaxIndex())
	assert.Equal(t, 2, a.NumFree())
	assert.False(t, a.IsValidIndex(1))
	assert.False(t, a.IsValidIndex(3))
	assert.True(t, a.IsValidIndex(4))

	// The free list is LIFO: the most recently removed slot is reused first.
	assert.Equal(t, 3, a.FirstFreeIndex())
	assert.Equal(t, 3, a.Add(30))
	assert.Equal(t, 1, a.Add(10))

	// Free list exhausted, the next insert extends the array.
	assert.Equal(t, 5, a.Add(50))
	assert.Equal(t, 0, a.NumFree())
}

func TestGetPanicsOnDeadIndex(t *testing.T) {
	a := New[int]()
	a.Add(1)
	a.Add(2)
	a.RemoveAt(0)

	assert.Panics(t, func() { a.Get(0) })
	assert.Panics(t, func() { a.Get(-1) })
	assert.Panics(t, func() { a.Get(2) })
	assert.NotPanics(t, func() { a.Get(1) })
}

func TestAll(t *testing.T) {
	a := New[string]()
	a.Add("a")
	a.Add("b")
	a.Add("c")
	a.RemoveAt(1)

	var indices []int
	var values []string
	for i, v := range a.All() {
		indices = append(indices, i)
		values = append(values, v)
	}
	assert.Equal(t, []int{0, 2}, indices)
	assert.Equal(t, []string{"a", "c"}, values)
}

func TestCompact(t *testing.T) {
	a := New[int]()
	for i := 0; i < 8; i++ {
		a.Add(i)
	}
	a.RemoveAt(0)
	a.RemoveAt(3)
	a.RemoveAt(6)

	require.True(t, a.Compact())
	assert.Equal(t, 5, a.Num())
	assert.Equal(t, 5, a.MaxIndex())
	assert.Equal(t, 0, a.NumFree())

	// Every surviving value is still present exactly once.
	seen := map[int]bool{}
	for _, v := range a.All() {
		seen[v] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 4: true, 5: true, 7: true}, seen)

	// Nothing to do on a dense array.
	assert.False(t, a.Compact())
}

func TestCompactStablePreservesOrder(t *testing.T) {
	a := New[string]()
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		a.Add(s)
	}
	a.RemoveAt(1)
	a.RemoveAt(3)

	require.True(t, a.CompactStable())
	assert.Equal(t, 3, a.MaxIndex())

	var values []string
	for _, v := range a.All() {
		values = append(values, v)
	}
	assert.Equal(t, []string{"a", "c", "e"}, values)
}

func TestSort(t *testing.T) {
	a := New[int]()
	for _, v := range []int{5, 1, 4, 2, 3} {
		a.Add(v)
	}
	a.RemoveAt(2)

	a.Sort(func(x, y int) bool { return x < y })

	var values []int
	for _, v := range a.All() {
		values = append(values, v)
	}
	assert.Equal(t, []int{1, 2, 3, 5}, values)
	assert.Equal(t, 0, a.NumFree())
}

func TestSortFreeList(t *testing.T) {
	a := New[int]()
	for i := 0; i < 6; i++ {
		a.Add(i)
	}
	a.RemoveAt(4)
	a.RemoveAt(1)
	a.RemoveAt(3)

	// Without sorting, reuse order would be 3, 1, 4 (LIFO).
	a.SortFreeList()
	assert.Equal(t, 1, a.FirstFreeIndex())
	assert.Equal(t, 1, a.Add(10))
	assert.Equal(t, 3, a.Add(30))
	assert.Equal(t, 4, a.Add(40))
}

func TestShrinkTrimsTrailingHoles(t *testing.T) {
	a := New[int]()
	for i := 0; i < 10; i++ {
		a.Add(i)
	}
	a.RemoveAt(9)
	a.RemoveAt(8)
	a.RemoveAt(4)

	a.Shrink()

	// Trailing holes are trimmed; the interior hole at 4 stays.
	assert.Equal(t, 8, a.MaxIndex())
	assert.Equal(t, 1, a.NumFree())
	assert.Equal(t, 7, a.Num())
	assert.True(t, a.IsValidIndex(7))
	assert.False(t, a.IsValidIndex(4))
}

func TestEmptyAndReset(t *testing.T) {
	a := New[int]()
	for i := 0; i < 100; i++ {
		a.Add(i)
	}

	a.Reset()
	assert.Equal(t, 0, a.Num())
	assert.Equal(t, 0, a.MaxIndex())
	assert.True(t, a.HasAllocation(), "Reset keeps the allocation for reuse")

	a.Add(1)
	assert.Equal(t, 1, a.Num())

	a.Empty(0)
	assert.Equal(t, 0, a.Num())
	assert.False(t, a.HasAllocation(), "Empty(0) releases the allocation")
}

func TestReserve(t *testing.T) {
	a := New[int]()
	a.Reserve(50)
	assert.True(t, a.HasAllocation())
	size := a.GetAllocatedSize()
	require.NotZero(t, size)

	for i := 0; i < 50; i++ {
		a.Add(i)
	}
	assert.Equal(t, 50, a.MaxIndex())
	// The element buffer was pre-sized; only the liveness bitmap may have
	// grown alongside the fill.
	assert.GreaterOrEqual(t, a.GetAllocatedSize(), size)
}

func TestMoveToEmpty(t *testing.T) {
	src := New[string]()
	src.Add("a")
	src.Add("b")
	src.Add("c")
	src.RemoveAt(1)

	dst := New[string]()
	dst.MoveToEmpty(src)

	assert.Equal(t, 0, src.Num())
	assert.False(t, src.HasAllocation())

	assert.Equal(t, 2, dst.Num())
	assert.Equal(t, 3, dst.MaxIndex())
	assert.Equal(t, 1, dst.NumFree())
	assert.Equal(t, "c", *dst.Get(2))

	// Moving into a non-empty destination is a programmer error.
	other := New[string]()
	other.Add("x")
	assert.Panics(t, func() { other.MoveToEmpty(dst) })
}
