// Package state holds the mutable game state shared by every stack: the
// variable store, globals, held page, zip destinations, and the save/load
// manager persisting them through a Repository.
package state

// Vars is a dense store of 16-bit game variables indexed from 0.
//
// Vars is owned by the single engine control flow and is not safe for
// concurrent use.
type Vars struct {
	values []uint16
}

// NewVars creates a store with n zeroed variables.
func NewVars(n int) *Vars {
	return &Vars{values: make([]uint16, n)}
}

// Get returns variable idx, or 0 past the end of the store.
func (v *Vars) Get(idx uint16) uint16 {
	if int(idx) >= len(v.values) {
		return 0
	}
	return v.values[idx]
}

// Set writes variable idx, growing the store with zeros when needed.
//
// Postcondition: Returns true when the stored value changed.
func (v *Vars) Set(idx, value uint16) bool {
	v.grow(idx)
	if v.values[idx] == value {
		return false
	}
	v.values[idx] = value
	return true
}

// Toggle flips variable idx between 0 and 1 and returns the new value.
// Any non-zero value toggles to 0.
func (v *Vars) Toggle(idx uint16) uint16 {
	v.grow(idx)
	if v.values[idx] == 0 {
		v.values[idx] = 1
	} else {
		v.values[idx] = 0
	}
	return v.values[idx]
}

// Len returns the number of stored variables.
func (v *Vars) Len() int { return len(v.values) }

// Snapshot returns a copy of all variables.
func (v *Vars) Snapshot() []uint16 {
	return append([]uint16(nil), v.values...)
}

// Restore replaces the store's content with a copy of values.
func (v *Vars) Restore(values []uint16) {
	v.values = append([]uint16(nil), values...)
}

func (v *Vars) grow(idx uint16) {
	if int(idx) < len(v.values) {
		return
	}
	v.values = append(v.values, make([]uint16, int(idx)+1-len(v.values))...)
}
