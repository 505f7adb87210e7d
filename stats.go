package slotmap

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats is a point-in-time snapshot of a container's structural state,
// for debugging and memory-usage reporting.
type Stats struct {
	// Num is the number of live elements.
	Num int
	// MaxIndex is the exclusive upper bound of slot indices in use.
	MaxIndex int
	// FreeSlots is the number of holes awaiting reuse or compaction.
	FreeSlots int
	// HashBuckets is the current size of the bucket table.
	HashBuckets int
	// AllocatedBytes counts memory allocated directly by the container,
	// excluding memory owned by the elements themselves.
	AllocatedBytes uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("elements=%d (max index %d, %d free), buckets=%d, allocated=%s",
		s.Num, s.MaxIndex, s.FreeSlots, s.HashBuckets, humanize.IBytes(s.AllocatedBytes))
}

func statsOf[E, K any](s *elementSet[E, K]) Stats {
	return Stats{
		Num:            s.elements.Num(),
		MaxIndex:       s.elements.MaxIndex(),
		FreeSlots:      s.elements.NumFree(),
		HashBuckets:    len(s.buckets),
		AllocatedBytes: uint64(s.allocatedSize()),
	}
}
