// Package persist serializes slotmap containers to self-describing binary
// snapshots: a versioned header naming the codec, an optionally
// zstd-compressed pair payload, and a CRC32 trailer for corruption
// detection.
//
// Snapshot layout is a structural round-trip contract, not a stability
// guarantee: a snapshot restores an equivalent container (same pairs, same
// iteration order), nothing more. Corruption and format mismatch are
// ordinary recoverable errors here: this is an I/O boundary, unlike the
// fatal-only policy inside the containers.
package persist
