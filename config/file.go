package config

import (
	"fmt"
	"io"

	"github.com/go-ini/ini"

	"github.com/hupe1980/slotmap"
)

// Section is one INI section: an ordered multi-map from key to values.
// Repeated keys are preserved in order, which is how INI expresses arrays.
type Section struct {
	values *slotmap.MultiMap[string, string]
	file   *File
}

func newSection(file *File) *Section {
	return &Section{
		values: slotmap.NewMultiMap[string, string](),
		file:   file,
	}
}

// Get returns the first value stored for key.
func (s *Section) Get(key string) (string, bool) {
	for v := range s.values.ByKey(key) {
		return v, true
	}
	return "", false
}

// GetArray returns every value stored for key, in insertion order.
func (s *Section) GetArray(key string) []string {
	return s.values.FindAll(key)
}

// Set replaces all values of key with a single value.
func (s *Section) Set(key, value string) {
	s.values.Remove(key)
	s.values.Add(key, value)
	s.file.markDirty()
}

// Add appends a value for key, keeping any existing ones.
func (s *Section) Add(key, value string) {
	s.values.Add(key, value)
	s.file.markDirty()
}

// RemoveKey removes every value of key and returns how many were removed.
func (s *Section) RemoveKey(key string) int {
	n := s.values.Remove(key)
	if n > 0 {
		s.file.markDirty()
	}
	return n
}

// Len returns the number of key/value entries, counting repeats.
func (s *Section) Len() int {
	return s.values.Len()
}

// Keys returns the distinct keys of the section in insertion order.
func (s *Section) Keys() []string {
	return s.values.GetKeys()
}

// Empty removes all entries from the section.
func (s *Section) Empty() {
	if s.values.Len() > 0 {
		s.file.markDirty()
	}
	s.values.Empty(0)
}

// File is one parsed configuration file: section name to Section.
type File struct {
	sections *slotmap.Map[string, *Section]
	dirty    bool
}

// NewFile creates an empty configuration file.
func NewFile() *File {
	return &File{
		sections: slotmap.NewMap[string, *Section](),
	}
}

func (f *File) markDirty() {
	f.dirty = true
}

// IsDirty reports whether the file has unsaved modifications.
func (f *File) IsDirty() bool {
	return f.dirty
}

// Section returns the named section, creating it if absent.
func (f *File) Section(name string) *Section {
	if s := f.sections.Find(name); s != nil {
		return *s
	}
	s := newSection(f)
	f.sections.Add(name, s)
	f.markDirty()
	return s
}

// FindSection returns the named section without creating it.
func (f *File) FindSection(name string) (*Section, bool) {
	if s := f.sections.Find(name); s != nil {
		return *s, true
	}
	return nil, false
}

// RemoveSection removes the named section and reports whether it existed.
func (f *File) RemoveSection(name string) bool {
	if f.sections.Remove(name) > 0 {
		f.markDirty()
		return true
	}
	return false
}

// SectionNames returns all section names in insertion order.
func (f *File) SectionNames() []string {
	return f.sections.GetKeys()
}

// NumSections returns the number of sections.
func (f *File) NumSections() int {
	return f.sections.Len()
}

// Read parses INI data from r, replacing the file's contents. Repeated keys
// are preserved through go-ini's shadow values.
func (f *File) Read(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("config: read: %w", err)
	}

	src, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, data)
	if err != nil {
		return fmt.Errorf("config: parse: %w", err)
	}

	f.sections.Empty(len(src.Sections()))
	for _, sec := range src.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		dst := f.Section(sec.Name())
		for _, key := range sec.Keys() {
			for _, v := range key.ValueWithShadows() {
				dst.values.Add(key.Name(), v)
			}
		}
	}
	f.dirty = false
	return nil
}

// WriteTo serializes the file as INI. Returns the number of bytes written.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	out := ini.Empty(ini.LoadOptions{AllowShadows: true})
	for name, section := range f.sections.All() {
		sec, err := out.NewSection(name)
		if err != nil {
			return 0, fmt.Errorf("config: section %q: %w", name, err)
		}
		for _, key := range section.Keys() {
			values := section.GetArray(key)
			k, err := sec.NewKey(key, values[0])
			if err != nil {
				return 0, fmt.Errorf("config: key %q: %w", key, err)
			}
			for _, v := range values[1:] {
				if err := k.AddShadow(v); err != nil {
					return 0, fmt.Errorf("config: key %q: %w", key, err)
				}
			}
		}
	}
	return out.WriteTo(w)
}
