package resource

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned when no loaded archive contains the requested resource.
// It signals corrupted or missing game data and is never tolerated silently.
var ErrNotFound = errors.New("resource not found")

// ErrArchiveOpen is returned when a mandatory archive file cannot be opened.
var ErrArchiveOpen = errors.New("cannot open archive")

// Archive is a loadable container of tagged resources.
type Archive interface {
	// Name identifies the archive in logs.
	Name() string
	// HasResource reports whether the archive holds (tag, id).
	HasResource(tag Tag, id uint16) bool
	// GetResource returns a copy of the resource bytes.
	GetResource(tag Tag, id uint16) ([]byte, error)
	// ResourceIDs returns the ids of every resource of the given tag, ascending.
	ResourceIDs(tag Tag) []uint16
	// Close releases the archive.
	Close() error
}

// Opener opens archives by file name relative to a game data root.
type Opener interface {
	Open(filename string) (Archive, error)
}

// OpenerFunc adapts a function into an Opener.
type OpenerFunc func(filename string) (Archive, error)

// Open calls f.
func (f OpenerFunc) Open(filename string) (Archive, error) { return f(filename) }

// MemArchive is an in-memory Archive. It counts lookups so callers can verify
// cache behavior, and is safe for concurrent use.
type MemArchive struct {
	name string

	mu       sync.Mutex
	data     map[Key][]byte
	hasCalls int
	getCalls int
	closed   bool
}

// NewMemArchive creates an empty MemArchive.
func NewMemArchive(name string) *MemArchive {
	return &MemArchive{name: name, data: make(map[Key][]byte)}
}

// Put stores a copy of data under (tag, id), replacing any previous value.
func (a *MemArchive) Put(tag Tag, id uint16, data []byte) *MemArchive {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data[Key{Tag: tag, ID: id}] = append([]byte(nil), data...)
	return a
}

// Name returns the archive name.
func (a *MemArchive) Name() string { return a.name }

// HasResource reports whether (tag, id) is stored.
func (a *MemArchive) HasResource(tag Tag, id uint16) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hasCalls++
	_, ok := a.data[Key{Tag: tag, ID: id}]
	return ok
}

// GetResource returns a copy of the stored bytes.
//
// Postcondition: Returns the data or an error wrapping ErrNotFound.
func (a *MemArchive) GetResource(tag Tag, id uint16) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.getCalls++
	d, ok := a.data[Key{Tag: tag, ID: id}]
	if !ok {
		return nil, fmt.Errorf("%s: %s: %w", a.name, Key{Tag: tag, ID: id}, ErrNotFound)
	}
	return append([]byte(nil), d...), nil
}

// ResourceIDs returns the sorted ids stored under tag.
func (a *MemArchive) ResourceIDs(tag Tag) []uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var ids []uint16
	for k := range a.data {
		if k.Tag == tag {
			ids = append(ids, k.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close marks the archive closed.
func (a *MemArchive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (a *MemArchive) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// Calls returns the number of HasResource and GetResource calls so far.
func (a *MemArchive) Calls() (has, get int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hasCalls, a.getCalls
}

// MemOpener serves MemArchives by file name. Missing names fail to open.
type MemOpener struct {
	mu       sync.Mutex
	archives map[string]*MemArchive
	opened   []string
}

// NewMemOpener creates an opener over the given archives keyed by file name.
func NewMemOpener(archives map[string]*MemArchive) *MemOpener {
	m := &MemOpener{archives: make(map[string]*MemArchive, len(archives))}
	for k, v := range archives {
		m.archives[k] = v
	}
	return m
}

// Open returns the archive registered under filename.
func (m *MemOpener) Open(filename string) (Archive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.archives[filename]
	if !ok {
		return nil, fmt.Errorf("opening %s: no such archive", filename)
	}
	m.opened = append(m.opened, filename)
	return a, nil
}

// Opened returns the file names opened so far, in order.
func (m *MemOpener) Opened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.opened...)
}
