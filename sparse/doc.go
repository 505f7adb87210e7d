// Package sparse implements a sparse element array: a growable sequence that
// hands out stable integer slot indices for live elements and recycles the
// slots of removed ones through an intrusive free list.
//
// A slot index stays valid, and keeps referring to the same logical element,
// until that element is removed or the array is emptied, compacted or sorted.
// Removal leaves a hole; holes are reused by later insertions and eliminated
// by Compact/CompactStable, which reassign indices.
//
// Live slots are tracked in an allocation bitmap so iteration can skip holes
// without touching dead element memory. Backing storage goes through
// alloc.Buffer, so growth and shrink follow the shared slack heuristics.
package sparse
