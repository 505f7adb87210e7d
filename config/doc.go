// Package config implements an INI-backed configuration cache on top of the
// slotmap containers: a Cache maps filenames to Files, a File maps section
// names to Sections, and a Section holds its keys in a MultiMap because INI
// keys may legitimately repeat (array-valued settings).
//
// Files are parsed and serialized with go-ini; the cache tracks dirtiness
// per file and writes back only what changed. Cache methods are safe for
// concurrent use; File and Section handles borrow the cache's lock
// discipline and must not be mutated concurrently with cache operations on
// the same file.
package config
