package slotmap

// Option configures container constructors. Options exist mainly to avoid
// exploding the constructor surface; behavior not covered here is fixed by
// the container's contract.
type Option[K any] func(*options[K])

type options[K any] struct {
	keyFuncs KeyFuncs[K]
	capacity int
}

// WithKeyFuncs overrides the key strategy. The AllowDuplicateKeys flag is
// still subject to the constructor's own contract: Map and Set reject
// duplicate-friendly strategies, MultiMap forces the flag on.
func WithKeyFuncs[K any](kf KeyFuncs[K]) Option[K] {
	return func(o *options[K]) {
		o.keyFuncs = kf
	}
}

// WithCapacity pre-sizes the container for n elements, avoiding resize and
// rehash churn during the initial fill.
func WithCapacity[K any](n int) Option[K] {
	return func(o *options[K]) {
		o.capacity = n
	}
}

func resolveOptions[K any](kf KeyFuncs[K], opts []Option[K]) options[K] {
	o := options[K]{keyFuncs: kf}
	for _, opt := range opts {
		opt(&o)
	}
	// The duplicate-keys capability is part of the constructor's contract,
	// not something an option can flip.
	o.keyFuncs.AllowDuplicateKeys = kf.AllowDuplicateKeys
	return o
}
