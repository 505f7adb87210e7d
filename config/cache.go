package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/slotmap"
)

// ErrFileOpsDisabled is returned by operations that would touch the
// filesystem while file operations are disabled.
var ErrFileOpsDisabled = errors.New("config: file operations are disabled")

// Cache holds parsed configuration files keyed by filename. All methods are
// safe for concurrent use; filename hashes are computed before the lock is
// taken so the critical section covers only the table probe.
type Cache struct {
	mu              sync.RWMutex
	files           *slotmap.Map[string, *File]
	fileOpsDisabled bool
	logger          *slotmap.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger sets the cache's logger. Defaults to no output.
func WithLogger(l *slotmap.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCache creates an empty configuration cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		files:  slotmap.NewMap[string, *File](),
		logger: slotmap.NoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DisableFileOperations stops the cache from reading or writing files;
// lookups keep working against what is already cached.
func (c *Cache) DisableFileOperations() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fileOpsDisabled = true
}

// EnableFileOperations re-enables filesystem access.
func (c *Cache) EnableFileOperations() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fileOpsDisabled = false
}

// AreFileOperationsDisabled reports whether filesystem access is disabled.
func (c *Cache) AreFileOperationsDisabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fileOpsDisabled
}

func (c *Cache) findLocked(filename string, hash uint32) *File {
	if f := c.files.FindByHash(hash, func(k string) bool { return k == filename }); f != nil {
		return *f
	}
	return nil
}

func (c *Cache) filenameHash(filename string) uint32 {
	return c.files.KeyFuncs().Hash(filename)
}

// FindConfigFile returns the cached file for filename, or nil. It never
// touches the filesystem. The handle is a borrow; see the package notes on
// mutating it concurrently with cache operations.
func (c *Cache) FindConfigFile(filename string) *File {
	hash := c.filenameHash(filename)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.findLocked(filename, hash)
}

// Filenames returns the names of all cached files in insertion order.
func (c *Cache) Filenames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files.GetKeys()
}

// SetFile replaces or inserts the cached file for filename.
func (c *Cache) SetFile(filename string, file *File) {
	hash := c.filenameHash(filename)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files.AddByHash(hash, filename, file)
}

// UnloadFile drops the cached file for filename, discarding any unsaved
// changes, and reports whether one was cached.
func (c *Cache) UnloadFile(filename string) bool {
	hash := c.filenameHash(filename)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.RemoveByHash(hash, func(k string) bool { return k == filename }) > 0
}

// LoadFile returns the cached file for filename, parsing it from disk on
// first access. A missing file yields an empty File, matching the
// write-creates-it behavior of SetString. Returns ErrFileOpsDisabled while
// file operations are disabled and the file is not cached.
func (c *Cache) LoadFile(filename string) (*File, error) {
	hash := c.filenameHash(filename)

	c.mu.RLock()
	f := c.findLocked(filename, hash)
	disabled := c.fileOpsDisabled
	c.mu.RUnlock()
	if f != nil {
		return f, nil
	}
	if disabled {
		return nil, ErrFileOpsDisabled
	}

	f, err := parseFile(filename)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have loaded it meanwhile; first one in wins so
	// handles stay consistent.
	if existing := c.findLocked(filename, hash); existing != nil {
		return existing, nil
	}
	c.files.AddByHash(hash, filename, f)
	c.logger.Debug("config file loaded", "filename", filename, "sections", f.NumSections())
	return f, nil
}

func parseFile(filename string) (*File, error) {
	f := NewFile()
	r, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("config: open %s: %w", filename, err)
	}
	defer r.Close()

	if err := f.Read(r); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", filename, err)
	}
	return f, nil
}

// Detach removes the cached file without writing it back and hands the
// caller the File, dirty state included. The caller becomes responsible for
// persisting it; the cache forgets it entirely.
func (c *Cache) Detach(filename string) (*File, bool) {
	hash := c.filenameHash(filename)
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.findLocked(filename, hash)
	if f == nil {
		return nil, false
	}
	c.files.RemoveByHash(hash, func(k string) bool { return k == filename })
	return f, true
}

// LoadFiles loads several files concurrently, stopping at the first error.
func (c *Cache) LoadFiles(ctx context.Context, filenames ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, filename := range filenames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := c.LoadFile(filename)
			return err
		})
	}
	return g.Wait()
}

// GetString returns the first value of key in the named section of the
// given file. Missing file, section or key all report false.
func (c *Cache) GetString(section, key, filename string) (string, bool) {
	hash := c.filenameHash(filename)
	c.mu.RLock()
	defer c.mu.RUnlock()
	f := c.findLocked(filename, hash)
	if f == nil {
		return "", false
	}
	s, ok := f.FindSection(section)
	if !ok {
		return "", false
	}
	return s.Get(key)
}

// GetArray returns every value of key in the named section of the file.
func (c *Cache) GetArray(section, key, filename string) []string {
	hash := c.filenameHash(filename)
	c.mu.RLock()
	defer c.mu.RUnlock()
	f := c.findLocked(filename, hash)
	if f == nil {
		return nil
	}
	s, ok := f.FindSection(section)
	if !ok {
		return nil
	}
	return s.GetArray(key)
}

// SetString sets key to a single value in the named section of the file,
// creating the file and section as needed.
func (c *Cache) SetString(section, key, value, filename string) {
	hash := c.filenameHash(filename)

	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.findLocked(filename, hash)
	if f == nil {
		f = NewFile()
		c.files.AddByHash(hash, filename, f)
	}
	f.Section(section).Set(key, value)
}

// GetSection returns the named section of the cached file without creating
// it. The handle is a borrow: mutating it concurrently with cache operations
// on the same file is not synchronized; see the package notes.
func (c *Cache) GetSection(section, filename string) (*Section, bool) {
	hash := c.filenameHash(filename)
	c.mu.RLock()
	defer c.mu.RUnlock()
	f := c.findLocked(filename, hash)
	if f == nil {
		return nil, false
	}
	return f.FindSection(section)
}

// DoesSectionExist reports whether the named section exists in the file.
func (c *Cache) DoesSectionExist(section, filename string) bool {
	hash := c.filenameHash(filename)
	c.mu.RLock()
	defer c.mu.RUnlock()
	f := c.findLocked(filename, hash)
	if f == nil {
		return false
	}
	_, ok := f.FindSection(section)
	return ok
}

// SectionNames returns the section names of the cached file.
func (c *Cache) SectionNames(filename string) []string {
	hash := c.filenameHash(filename)
	c.mu.RLock()
	defer c.mu.RUnlock()
	f := c.findLocked(filename, hash)
	if f == nil {
		return nil
	}
	return f.SectionNames()
}

// RemoveKey removes key from the named section of the file and reports
// whether anything was removed.
func (c *Cache) RemoveKey(section, key, filename string) bool {
	hash := c.filenameHash(filename)
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.findLocked(filename, hash)
	if f == nil {
		return false
	}
	s, ok := f.FindSection(section)
	if !ok {
		return false
	}
	return s.RemoveKey(key) > 0
}

// EmptySection removes every entry from the named section and reports
// whether the section existed.
func (c *Cache) EmptySection(section, filename string) bool {
	hash := c.filenameHash(filename)
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.findLocked(filename, hash)
	if f == nil {
		return false
	}
	s, ok := f.FindSection(section)
	if !ok {
		return false
	}
	s.Empty()
	return true
}

// Flush writes dirty cached files back to disk. With a filename it flushes
// just that file; with an empty filename it flushes everything. When
// removeFromCache is set, flushed files are dropped from the cache.
func (c *Cache) Flush(removeFromCache bool, filename string) error {
	if c.AreFileOperationsDisabled() {
		return ErrFileOpsDisabled
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	flush := func(name string, f *File) error {
		if !f.IsDirty() {
			return nil
		}
		w, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("config: create %s: %w", name, err)
		}
		if _, err := f.WriteTo(w); err != nil {
			w.Close()
			return fmt.Errorf("config: write %s: %w", name, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("config: close %s: %w", name, err)
		}
		f.dirty = false
		c.logger.Debug("config file flushed", "filename", name)
		return nil
	}

	if filename != "" {
		f := c.files.FindRef(filename)
		if f == nil {
			return nil
		}
		if err := flush(filename, f); err != nil {
			return err
		}
		if removeFromCache {
			c.files.Remove(filename)
		}
		return nil
	}

	for name, f := range c.files.All() {
		if err := flush(name, f); err != nil {
			return err
		}
	}
	if removeFromCache {
		c.files.Empty(0)
	}
	return nil
}
