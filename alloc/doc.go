// Package alloc implements the sized heap allocation strategy that backs
// every slotmap container.
//
// A Buffer owns zero or one contiguous backing array sized for a requested
// element count. It is deliberately dumb: it does not know how many elements
// are live, only how many slots are allocated. The owning container passes
// logical counts into the slack calculators and resizes through
// ResizeAllocation, which may relocate the array; element pointers must
// never be cached across a resize.
//
// Growth uses geometric over-allocation so repeated single-element appends
// amortize to O(1); shrink only fires once slack crosses a threshold, to
// avoid thrashing on add/remove churn near a boundary.
//
// There is no recoverable-error channel. Invalid resize parameters and
// arithmetic overflow of the 32-bit index domain would silently corrupt
// memory if allowed to proceed, so they are routed through an injectable
// failure handler that must not return. Tests can intercept it with
// SetFailureHandler.
package alloc
