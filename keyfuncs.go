package slotmap

import "hash/maphash"

// KeyFuncs is the pluggable hashing and equality strategy of a container.
// Hash and Equals must be consistent: keys equal under Equals must hash to
// the same value. AllowDuplicateKeys declares whether the container may hold
// several elements with equal keys; Map rejects strategies that allow them,
// MultiMap requires them.
type KeyFuncs[K any] struct {
	Hash               func(K) uint32
	Equals             func(a, b K) bool
	AllowDuplicateKeys bool
}

var hashSeed = maphash.MakeSeed()

// DefaultKeyFuncs returns the strategy used when none is configured: maphash
// over the comparable key, folded to 32 bits, with == as equality. The exact
// hash algorithm is not part of the contract and varies per process.
func DefaultKeyFuncs[K comparable]() KeyFuncs[K] {
	return KeyFuncs[K]{
		Hash: func(k K) uint32 {
			h := maphash.Comparable(hashSeed, k)
			return uint32(h ^ h>>32)
		},
		Equals: func(a, b K) bool { return a == b },
	}
}

// verifyHashes enables recomputing caller-supplied hashes in ByHash
// operations where the concrete key is available. Off by default: the whole
// point of ByHash is not paying for the hash inside the container.
var verifyHashes bool

// EnableHashVerification toggles debug verification of caller-supplied
// hashes and returns the previous setting. With verification on, an AddByHash
// or FindOrAddByHash whose hash disagrees with the configured strategy
// panics instead of silently corrupting the bucket index. Intended for tests.
func EnableHashVerification(enabled bool) bool {
	prev := verifyHashes
	verifyHashes = enabled
	return prev
}

func checkSuppliedHash[K any](kf KeyFuncs[K], hash uint32, key K) {
	if verifyHashes && kf.Hash != nil {
		if expect := kf.Hash(key); expect != hash {
			panic("slotmap: supplied hash does not match the configured key strategy")
		}
	}
}
