package sparse

import (
	"fmt"
	"iter"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/slotmap/alloc"
)

// nilIndex terminates free-list chains.
const nilIndex = -1

// entry is one storage slot. The free-list links are meaningful only while
// the slot is dead; a live slot holds just the element value.
type entry[T any] struct {
	value    T
	prevFree int32
	nextFree int32
}

// Array is a sparse element array. Create instances with New; the zero value
// is not usable.
//
// Array is not safe for concurrent use.
type Array[T any] struct {
	buf   alloc.Buffer[entry[T]]
	flags *bitset.BitSet

	// maxIndex is the number of slots in use, live or dead. Slots below it
	// are either live (flag set) or chained on the free list.
	maxIndex  int
	numFree   int
	firstFree int
}

// New creates an empty array with no backing allocation.
func New[T any]() *Array[T] {
	return &Array[T]{
		flags:     bitset.New(0),
		firstFree: nilIndex,
	}
}

// Num returns the number of live elements.
func (a *Array[T]) Num() int {
	return a.maxIndex - a.numFree
}

// IsEmpty reports whether the array holds no live elements.
func (a *Array[T]) IsEmpty() bool {
	return a.Num() == 0
}

// MaxIndex returns the exclusive upper bound of valid slot indices. Slots
// below it may still be holes; use IsValidIndex to test a specific slot.
func (a *Array[T]) MaxIndex() int {
	return a.maxIndex
}

// NumFree returns the number of dead slots awaiting reuse.
func (a *Array[T]) NumFree() int {
	return a.numFree
}

// FirstFreeIndex returns the slot the next insertion will reuse, or -1 when
// the free list is empty.
func (a *Array[T]) FirstFreeIndex() int {
	return a.firstFree
}

// IsValidIndex reports whether index refers to a live element.
func (a *Array[T]) IsValidIndex(index int) bool {
	return index >= 0 && index < a.maxIndex && a.flags.Test(uint(index))
}

func (a *Array[T]) checkIndex(index int) {
	if !a.IsValidIndex(index) {
		panic(fmt.Sprintf("sparse: index %d is not a live element (max index %d)", index, a.maxIndex))
	}
}

// Get returns a pointer to the live element at index. The pointer is
// invalidated by any structural mutation of the array. A dead or
// out-of-range index is a programmer error and panics.
func (a *Array[T]) Get(index int) *T {
	a.checkIndex(index)
	return &a.buf.Get(index).value
}

// Add inserts value and returns its slot index. The head of the free list is
// reused before new storage is grown.
func (a *Array[T]) Add(value T) int {
	index := a.allocIndex()
	a.buf.Get(index).value = value
	return index
}

func (a *Array[T]) allocIndex() int {
	if a.firstFree != nilIndex {
		index := a.firstFree
		e := a.buf.Get(index)
		a.firstFree = int(e.nextFree)
		if a.firstFree != nilIndex {
			a.buf.Get(a.firstFree).prevFree = nilIndex
		}
		a.numFree--
		a.flags.Set(uint(index))
		return index
	}

	if a.maxIndex == a.buf.NumAllocated() {
		grown := a.buf.CalculateSlackGrow(a.maxIndex+1, a.buf.NumAllocated())
		a.buf.ResizeAllocation(a.maxIndex, grown)
	}

	index := a.maxIndex
	a.maxIndex++
	a.flags.Set(uint(index))
	return index
}

// RemoveAt destroys the element at index and pushes its slot onto the free
// list. The index stays invalid until an insertion or compaction recycles it.
func (a *Array[T]) RemoveAt(index int) {
	a.checkIndex(index)

	e := a.buf.Get(index)
	var zero T
	e.value = zero

	e.prevFree = nilIndex
	e.nextFree = int32(a.firstFree)
	if a.firstFree != nilIndex {
		a.buf.Get(a.firstFree).prevFree = int32(index)
	}
	a.firstFree = index
	a.numFree++
	a.flags.Clear(uint(index))
}

func (a *Array[T]) unlinkFree(index int) {
	e := a.buf.Get(index)
	if e.prevFree != nilIndex {
		a.buf.Get(int(e.prevFree)).nextFree = e.nextFree
	} else {
		a.firstFree = int(e.nextFree)
	}
	if e.nextFree != nilIndex {
		a.buf.Get(int(e.nextFree)).prevFree = e.prevFree
	}
	a.numFree--
}

// Empty discards all elements and resizes the allocation for an expected
// number of elements about to be added.
func (a *Array[T]) Empty(expected int) {
	a.dropAll()
	desired := a.buf.CalculateSlackReserve(expected)
	if desired != a.buf.NumAllocated() {
		a.buf.ResizeAllocation(0, desired)
	}
}

// Reset discards all elements but keeps the backing allocation for reuse.
func (a *Array[T]) Reset() {
	live := a.Num()
	a.dropAll()
	if live > 0 {
		// Drop stale values so they do not pin referenced memory.
		clearSlice(a.buf.Slice(a.buf.NumAllocated()))
	}
}

func clearSlice[T any](entries []entry[T]) {
	var zero entry[T]
	for i := range entries {
		entries[i] = zero
	}
}

func (a *Array[T]) dropAll() {
	a.maxIndex = 0
	a.numFree = 0
	a.firstFree = nilIndex
	a.flags.ClearAll()
}

// Reserve grows the backing allocation to hold at least n elements without
// further resizes.
func (a *Array[T]) Reserve(n int) {
	if n > a.buf.NumAllocated() {
		a.buf.ResizeAllocation(a.maxIndex, a.buf.CalculateSlackReserve(n))
	}
}

// Shrink trims trailing holes and releases excess slack. Indices of live
// elements are unaffected.
func (a *Array[T]) Shrink() {
	for a.maxIndex > 0 && !a.flags.Test(uint(a.maxIndex-1)) {
		a.maxIndex--
		a.unlinkFree(a.maxIndex)
	}

	allocated := a.buf.NumAllocated()
	if desired := a.buf.CalculateSlackShrink(a.maxIndex, allocated); desired != allocated {
		a.buf.ResizeAllocation(a.maxIndex, desired)
	}
}

// Compact removes all holes by relocating elements from the high end of the
// array into them, then releases slack. Element order is not preserved and
// all slot indices are invalidated. Returns true if any element moved.
func (a *Array[T]) Compact() bool {
	if a.numFree == 0 {
		return false
	}

	target := a.maxIndex - a.numFree
	src := a.maxIndex
	for dst := 0; dst < target; dst++ {
		if a.flags.Test(uint(dst)) {
			continue
		}
		src--
		for !a.flags.Test(uint(src)) {
			src--
		}
		a.buf.Get(dst).value = a.buf.Get(src).value
		var zero T
		a.buf.Get(src).value = zero
		a.flags.Set(uint(dst))
		a.flags.Clear(uint(src))
	}

	a.finishCompact(target)
	return true
}

// CompactStable removes all holes while preserving the relative order of the
// live elements, at the cost of shifting every element above the first hole.
// All slot indices are invalidated. Returns true if any element moved.
func (a *Array[T]) CompactStable() bool {
	if a.numFree == 0 {
		return false
	}

	dst := 0
	for src := 0; src < a.maxIndex; src++ {
		if !a.flags.Test(uint(src)) {
			continue
		}
		if src != dst {
			a.buf.Get(dst).value = a.buf.Get(src).value
		}
		dst++
	}

	var zero T
	for i := dst; i < a.maxIndex; i++ {
		a.buf.Get(i).value = zero
		a.flags.Clear(uint(i))
	}
	for i := 0; i < dst; i++ {
		a.flags.Set(uint(i))
	}

	a.finishCompact(dst)
	return true
}

func (a *Array[T]) finishCompact(count int) {
	a.maxIndex = count
	a.numFree = 0
	a.firstFree = nilIndex

	allocated := a.buf.NumAllocated()
	if desired := a.buf.CalculateSlackShrink(count, allocated); desired != allocated {
		a.buf.ResizeAllocation(count, desired)
	}
}

// Sort compacts the array and sorts the live elements. All slot indices are
// invalidated.
func (a *Array[T]) Sort(less func(a, b T) bool) {
	a.Compact()
	entries := a.buf.Slice(a.maxIndex)
	sort.Slice(entries, func(i, j int) bool {
		return less(entries[i].value, entries[j].value)
	})
}

// StableSort compacts the array preserving order and stable-sorts the live
// elements. All slot indices are invalidated.
func (a *Array[T]) StableSort(less func(a, b T) bool) {
	a.CompactStable()
	entries := a.buf.Slice(a.maxIndex)
	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i].value, entries[j].value)
	})
}

// SortFreeList relinks the free list in ascending slot order, so subsequent
// insertions reuse the lowest available slot first. Useful for deterministic
// slot assignment across runs and for packing new elements at low indices
// without moving existing ones.
func (a *Array[T]) SortFreeList() {
	if a.numFree == 0 {
		return
	}

	prev := nilIndex
	first := nilIndex
	for i := 0; i < a.maxIndex; i++ {
		if a.flags.Test(uint(i)) {
			continue
		}
		e := a.buf.Get(i)
		e.prevFree = int32(prev)
		e.nextFree = nilIndex
		if prev != nilIndex {
			a.buf.Get(prev).nextFree = int32(i)
		} else {
			first = i
		}
		prev = i
	}
	a.firstFree = first
}

// All iterates over live elements in slot-index order, yielding each slot
// index and a copy of its element. Structural mutation during iteration is
// not supported.
func (a *Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, ok := a.flags.NextSet(0); ok && int(i) < a.maxIndex; i, ok = a.flags.NextSet(i + 1) {
			if !yield(int(i), a.buf.Get(int(i)).value) {
				return
			}
		}
	}
}

// GetAllocatedSize returns the bytes allocated directly by the array,
// excluding memory owned by the elements themselves.
func (a *Array[T]) GetAllocatedSize() uintptr {
	return a.buf.GetAllocatedSize() + uintptr(a.flags.BinaryStorageSize())
}

// HasAllocation reports whether the array owns a backing allocation.
func (a *Array[T]) HasAllocation() bool {
	return a.buf.HasAllocation()
}

// MoveToEmpty transfers the contents and backing allocation of other into a,
// leaving other empty. a must itself be empty; moving into a non-empty array
// is a programmer error and panics.
func (a *Array[T]) MoveToEmpty(other *Array[T]) {
	if a == other {
		return
	}
	if a.Num() != 0 {
		panic("sparse: MoveToEmpty destination still holds elements")
	}

	a.buf.MoveToEmpty(&other.buf)
	a.flags = other.flags
	a.maxIndex = other.maxIndex
	a.numFree = other.numFree
	a.firstFree = other.firstFree

	other.flags = bitset.New(0)
	other.maxIndex = 0
	other.numFree = 0
	other.firstFree = nilIndex
}
