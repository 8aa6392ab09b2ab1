package resource

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"
)

// Set is an ordered collection of archives searched in load order, fronted by
// a Cache. The set is swapped wholesale on every stack change.
//
// Set is owned by the single engine control flow and is not safe for
// concurrent use.
type Set struct {
	opener   Opener
	cache    *Cache
	logger   *zap.Logger
	archives []Archive

	// redirectSound enables MJMP indirection for MSND lookups.
	redirectSound bool
}

// NewSet creates an empty archive set.
//
// Precondition: opener, cache and logger must be non-nil.
func NewSet(opener Opener, cache *Cache, logger *zap.Logger) *Set {
	return &Set{opener: opener, cache: cache, logger: logger}
}

// SetSoundRedirect enables or disables MSND lookups through MJMP records.
func (s *Set) SetSoundRedirect(enabled bool) { s.redirectSound = enabled }

// Cache returns the set's resource cache.
func (s *Set) Cache() *Cache { return s.cache }

// Add appends an already opened archive at the end of the search order.
func (s *Set) Add(a Archive) { s.archives = append(s.archives, a) }

// Archives returns the loaded archives in search order.
func (s *Set) Archives() []Archive {
	return append([]Archive(nil), s.archives...)
}

// Open opens "<name>_<language>.dat", or "<name>.dat" when language is empty,
// and appends it to the search order.
//
// Postcondition: A mandatory archive that cannot be opened yields an error
// wrapping ErrArchiveOpen; an optional one is logged and skipped.
func (s *Set) Open(name, language string, mandatory bool) error {
	filename := name + ".dat"
	if language != "" {
		filename = fmt.Sprintf("%s_%s.dat", name, language)
	}
	a, err := s.opener.Open(filename)
	if err != nil {
		if mandatory {
			return fmt.Errorf("%w %s: %v", ErrArchiveOpen, filename, err)
		}
		s.logger.Debug("optional archive not available",
			zap.String("archive", filename),
			zap.Error(err),
		)
		return nil
	}
	s.archives = append(s.archives, a)
	return nil
}

// Reset closes and drops every archive. The cache is left untouched.
func (s *Set) Reset() {
	for _, a := range s.archives {
		if err := a.Close(); err != nil {
			s.logger.Warn("closing archive",
				zap.String("archive", a.Name()),
				zap.Error(err),
			)
		}
	}
	s.archives = nil
}

// Get returns the resource (tag, id), consulting the cache first and then the
// archives in load order.
//
// Postcondition: Returns the bytes of the first archive holding the resource,
// or an error wrapping ErrNotFound.
func (s *Set) Get(tag Tag, id uint16) ([]byte, error) {
	if data, ok := s.cache.Search(tag, id); ok {
		return data, nil
	}
	data, found, err := s.lookup(tag, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("could not find a '%s' resource with ID %04x: %w", tag, id, ErrNotFound)
	}
	s.cache.Add(tag, id, data)
	return data, nil
}

// Preload warms the cache with (tag, id) without returning the data. A miss
// is logged and ignored; nothing happens when the cache is disabled.
func (s *Set) Preload(tag Tag, id uint16) {
	if !s.cache.Enabled() {
		return
	}
	if _, ok := s.cache.Search(tag, id); ok {
		return
	}
	data, found, err := s.lookup(tag, id)
	if err != nil || !found {
		s.logger.Debug("cache preload miss",
			zap.Stringer("tag", tag),
			zap.Uint16("id", id),
			zap.Error(err),
		)
		return
	}
	s.cache.Add(tag, id, data)
}

// Has reports whether any loaded archive holds (tag, id).
func (s *Set) Has(tag Tag, id uint16) bool {
	for _, a := range s.archives {
		if a.HasResource(tag, id) {
			return true
		}
	}
	return false
}

// ResourceIDs returns the ids of tag across all archives in load order.
func (s *Set) ResourceIDs(tag Tag) []uint16 {
	var ids []uint16
	for _, a := range s.archives {
		ids = append(ids, a.ResourceIDs(tag)...)
	}
	return ids
}

// lookup scans the archives in order. Sound ids are resolved through an MJMP
// record of the same archive when redirection is enabled.
func (s *Set) lookup(tag Tag, id uint16) ([]byte, bool, error) {
	for _, a := range s.archives {
		if s.redirectSound && tag == TagMSND && a.HasResource(TagMJMP, id) {
			jump, err := a.GetResource(TagMJMP, id)
			if err != nil {
				return nil, false, err
			}
			if len(jump) < 2 {
				return nil, false, fmt.Errorf("%s: truncated MJMP record %04x", a.Name(), id)
			}
			target := binary.LittleEndian.Uint16(jump)
			data, err := a.GetResource(tag, target)
			if err != nil {
				return nil, false, err
			}
			return data, true, nil
		}
		if a.HasResource(tag, id) {
			data, err := a.GetResource(tag, id)
			if err != nil {
				return nil, false, err
			}
			return data, true, nil
		}
	}
	return nil, false, nil
}
