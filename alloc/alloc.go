package alloc

import (
	"fmt"
	"log/slog"
	"unsafe"
)

// IndexWidth is the width in bits of the container index domain. All slot
// indices and element counts fit in a signed integer of this width.
const IndexWidth = 32

// MaxElements is the largest element count representable in the index domain.
const MaxElements = 1<<(IndexWidth-1) - 1

const (
	// firstGrow is the capacity of the very first allocation of a buffer
	// that grows one element at a time.
	firstGrow = 4

	// constantGrow is the additive term of the steady-state growth formula.
	constantGrow = 16

	// shrinkSlackBytes is the slack size above which a shrink is worthwhile.
	shrinkSlackBytes = 16 * 1024

	// shrinkSlackElements is the minimum number of slack elements before a
	// non-empty buffer is shrunk, so small buffers do not thrash.
	shrinkSlackElements = 64
)

// Failure describes an invalid allocation request. Count and ElementSize are
// the values the caller passed in; Reason is a short human-readable cause.
type Failure struct {
	IndexWidth  int
	Count       int
	ElementSize uintptr
	Reason      string
}

func (f Failure) String() string {
	return fmt.Sprintf("alloc: invalid request (index width %d, count %d, element size %d): %s",
		f.IndexWidth, f.Count, f.ElementSize, f.Reason)
}

// FailureHandler reports a fatal allocation failure. It must not return:
// continuing with an under-sized buffer would silently corrupt memory.
type FailureHandler func(Failure)

var onFailure FailureHandler = func(f Failure) {
	slog.Error("fatal allocation failure",
		"index_width", f.IndexWidth,
		"count", f.Count,
		"element_size", f.ElementSize,
		"reason", f.Reason,
	)
	panic(f.String())
}

// SetFailureHandler replaces the process-wide failure handler and returns the
// previous one. Intended for tests that need to assert on fatal conditions;
// a handler that returns normally leaves the buffer unchanged and the caller
// in an undefined state.
func SetFailureHandler(h FailureHandler) FailureHandler {
	prev := onFailure
	if h != nil {
		onFailure = h
	}
	return prev
}

// Buffer owns zero or one backing array for elements of type T. The zero
// value is an empty buffer with no allocation. Buffer is move-only: use
// MoveToEmpty to transfer ownership, and copy containers element by element.
type Buffer[T any] struct {
	data []T
}

func elementSize[T any]() uintptr {
	var t T
	return unsafe.Sizeof(t)
}

// HasAllocation reports whether the buffer currently owns a backing array.
func (b *Buffer[T]) HasAllocation() bool {
	return b.data != nil
}

// GetInitialCapacity returns the capacity available before the first
// allocation. This strategy is fully indirect, so it is always zero.
func (b *Buffer[T]) GetInitialCapacity() int {
	return 0
}

// NumAllocated returns the number of element slots currently allocated.
func (b *Buffer[T]) NumAllocated() int {
	return len(b.data)
}

// GetAllocatedSize returns the size in bytes of the backing array.
func (b *Buffer[T]) GetAllocatedSize() uintptr {
	return uintptr(len(b.data)) * elementSize[T]()
}

// Get returns a pointer to the slot at index i. The pointer is invalidated
// by the next ResizeAllocation call.
func (b *Buffer[T]) Get(i int) *T {
	return &b.data[i]
}

// Slice returns the first n allocated slots. The slice is invalidated by the
// next ResizeAllocation call.
func (b *Buffer[T]) Slice(n int) []T {
	return b.data[:n]
}

// ResizeAllocation resizes the backing array to hold exactly newCount
// elements, preserving the first min(previousCount, newCount) of them. The
// array is relocated, so any pointers previously handed out are invalid
// afterwards. Invalid counts and byte-size overflow are fatal.
func (b *Buffer[T]) ResizeAllocation(previousCount, newCount int) {
	if b.data == nil && newCount == 0 {
		return
	}

	size := elementSize[T]()
	if newCount < 0 {
		onFailure(Failure{IndexWidth, newCount, size, "negative element count"})
		return
	}
	if size == 0 {
		onFailure(Failure{IndexWidth, newCount, size, "zero-size element"})
		return
	}
	if newCount > MaxElements || uintptr(newCount) > ^uintptr(0)/size {
		onFailure(Failure{IndexWidth, newCount, size, "byte size overflows index domain"})
		return
	}

	if newCount == 0 {
		b.data = nil
		return
	}

	next := make([]T, newCount)
	if previousCount > newCount {
		previousCount = newCount
	}
	copy(next, b.data[:min(previousCount, len(b.data))])
	b.data = next
}

// CalculateSlackReserve returns the capacity to allocate for an explicit
// reservation of count elements.
func (b *Buffer[T]) CalculateSlackReserve(count int) int {
	return count
}

// CalculateSlackGrow returns the capacity to request when growing from
// allocated slots to at least count elements. Over-allocates geometrically
// so repeated single-element appends amortize to O(1).
func (b *Buffer[T]) CalculateSlackGrow(count, allocated int) int {
	if count > MaxElements {
		onFailure(Failure{IndexWidth, count, elementSize[T](), "element count overflows index domain"})
		return allocated
	}

	grow := int64(firstGrow)
	if allocated != 0 || int64(count) > grow {
		grow = int64(count) + 3*int64(count)/8 + constantGrow
	}
	if grow > MaxElements {
		grow = MaxElements
	}
	return int(grow)
}

// CalculateSlackShrink returns the capacity to request when the live count
// has dropped to count out of allocated slots. It returns allocated
// unchanged unless the slack is worth reclaiming.
func (b *Buffer[T]) CalculateSlackShrink(count, allocated int) int {
	slack := allocated - count
	slackBytes := uintptr(slack) * elementSize[T]()

	tooManySlackBytes := slackBytes >= shrinkSlackBytes
	tooManySlackElements := 3*count < 2*allocated
	if (tooManySlackBytes || tooManySlackElements) && (slack > shrinkSlackElements || count == 0) {
		return count
	}
	return allocated
}

// MoveToEmpty transfers the backing array of other into b and leaves other
// with no allocation. b must hold no live elements; a buffer that still owns
// an allocation is released first. Moving a buffer into itself is fatal.
func (b *Buffer[T]) MoveToEmpty(other *Buffer[T]) {
	if b == other {
		onFailure(Failure{IndexWidth, len(b.data), elementSize[T](), "move into self"})
		return
	}
	b.data = other.data
	other.data = nil
}
