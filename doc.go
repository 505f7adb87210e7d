// Package slotmap provides hash-indexed associative containers with stable
// element identity: Map (one value per key), MultiMap (many values per key)
// and Set, all built on a sparse element array that keeps an element at the
// same slot for its whole lifetime.
//
// # Design
//
// Containers wrap a sparse set of elements (package sparse) plus a hash
// bucket table. Insertion order is preserved within the sparse storage, so
// iteration is deterministic for a given operation sequence. Removal leaves
// a hole that later insertions reuse; Compact/CompactStable eliminate holes
// at the cost of invalidating slot identity.
//
// Backing storage is managed by the slack-aware allocation strategy in
// package alloc: growth over-allocates geometrically, shrink fires only past
// a slack threshold.
//
// # ByHash operations
//
// Every lookup/insert/remove has a ByHash variant taking a caller-computed
// hash. These are sharp tools for two scenarios: heterogeneous lookup that
// avoids constructing an expensive key, and computing the hash before
// acquiring an external lock so the critical section shrinks to the table
// mutation itself. The hash must come from the same strategy the container
// was built with; a mismatched hash silently misses or matches the wrong
// bucket. EnableHashVerification turns mismatches into panics during tests.
//
// # Concurrency and reference lifetime
//
// Containers are not internally synchronized. Pointers returned by Find,
// Add and friends are valid only until the next structural mutation of the
// same container.
package slotmap
