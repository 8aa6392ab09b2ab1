// Package resource provides typed resource lookup over an ordered set of
// archives, backed by a memoizing cache.
package resource

import (
	"fmt"
	"strings"
)

// Tag is a four-character resource type code packed big-endian into a uint32.
type Tag uint32

// Resource tags used by the card engine.
const (
	TagView Tag = 'V'<<24 | 'I'<<16 | 'E'<<8 | 'W'
	TagRLST Tag = 'R'<<24 | 'L'<<16 | 'S'<<8 | 'T'
	TagHint Tag = 'H'<<24 | 'I'<<16 | 'N'<<8 | 'T'
	TagInit Tag = 'I'<<24 | 'N'<<16 | 'I'<<8 | 'T'
	TagExit Tag = 'E'<<24 | 'X'<<16 | 'I'<<8 | 'T'
	TagMSND Tag = 'M'<<24 | 'S'<<16 | 'N'<<8 | 'D'
	TagMJMP Tag = 'M'<<24 | 'J'<<16 | 'M'<<8 | 'P'
	TagWDIB Tag = 'W'<<24 | 'D'<<16 | 'I'<<8 | 'B'
	TagPICT Tag = 'P'<<24 | 'I'<<16 | 'C'<<8 | 'T'
)

// ParseTag converts a four-character code such as "VIEW" into a Tag.
//
// Precondition: s must be exactly four ASCII characters.
// Postcondition: Returns the packed Tag or a non-nil error.
func ParseTag(s string) (Tag, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("resource tag %q must be four characters", s)
	}
	var t Tag
	for i := 0; i < 4; i++ {
		if s[i] > 0x7f {
			return 0, fmt.Errorf("resource tag %q must be ASCII", s)
		}
		t = t<<8 | Tag(s[i])
	}
	return t, nil
}

// String returns the four-character form of the tag.
func (t Tag) String() string {
	var b strings.Builder
	for shift := 24; shift >= 0; shift -= 8 {
		b.WriteByte(byte(t >> uint(shift)))
	}
	return b.String()
}

// Key identifies one resource within the currently loaded archive set.
type Key struct {
	Tag Tag
	ID  uint16
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%04x", k.Tag, k.ID)
}
