// Package database holds closed-form alpha-to-coverage emulators keyed by
// device identifier.
//
// A Store is seeded with the captured catalog by Builtin and receives one
// more entry, under GeneratedKey, after a successful on-device generation.
// Stores are not safe for concurrent writes; the generator is the only
// writer.
package database

import (
	"errors"
	"slices"

	"github.com/gogpu/a2c"
)

// GeneratedKey is the key under which a freshly generated emulator for the
// local device is stored.
const GeneratedKey = "(generated from your device)"

// NullEmulator is returned for keys with no emulator. It is valid WGSL that
// never covers any sample.
const NullEmulator = `// No emulator yet! Generate an emulator for this device.
fn emulatedAlphaToCoverage(alpha: f32, xy: vec2u) -> u32 { return 0; }`

var (
	// ErrEmptyKey is returned by Put for an empty device key.
	ErrEmptyKey = errors.New("database: empty device key")

	// ErrNilFunction is returned by Put for a nil emulator.
	ErrNilFunction = errors.New("database: nil emulator function")
)

type entry struct {
	fn   *a2c.Function // nil for placeholder entries
	text string
}

// Store maps device identifiers to emulator functions.
type Store struct {
	entries map[string]entry
	keys    []string
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Builtin returns a store seeded with the captured device catalog and a
// placeholder for GeneratedKey.
func Builtin() *Store {
	s := New()
	for _, d := range catalog() {
		s.set(d.key, entry{fn: d.fn, text: d.fn.WGSL()})
	}
	s.set(GeneratedKey, entry{text: NullEmulator})
	return s
}

func (s *Store) set(key string, e entry) {
	if _, ok := s.entries[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.entries[key] = e
}

// Get returns the emulator text for key, or NullEmulator when there is none.
func (s *Store) Get(key string) string {
	if e, ok := s.entries[key]; ok {
		return e.text
	}
	return NullEmulator
}

// Lookup returns the emulator text for key and whether the key is present.
// Placeholder entries are present and return NullEmulator.
func (s *Store) Lookup(key string) (string, bool) {
	e, ok := s.entries[key]
	return e.text, ok
}

// Function returns the structured emulator for key. It reports false for
// unknown keys and placeholders.
func (s *Store) Function(key string) (*a2c.Function, bool) {
	e, ok := s.entries[key]
	if !ok || e.fn == nil {
		return nil, false
	}
	return e.fn, true
}

// Populated reports whether key maps to a real emulator.
func (s *Store) Populated(key string) bool {
	_, ok := s.Function(key)
	return ok
}

// Put inserts or replaces the emulator for key.
func (s *Store) Put(key string, fn *a2c.Function) error {
	switch {
	case key == "":
		return ErrEmptyKey
	case fn == nil:
		return ErrNilFunction
	}
	s.set(key, entry{fn: fn, text: fn.WGSL()})
	a2c.Logger().Debug("database: stored emulator", "key", key, "clauses", len(fn.Clauses))
	return nil
}

// Keys returns every key in insertion order.
func (s *Store) Keys() []string {
	return slices.Clone(s.keys)
}

// Len returns the number of entries, placeholders included.
func (s *Store) Len() int {
	return len(s.keys)
}
