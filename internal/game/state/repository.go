package state

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSaveNotFound is returned when a slot holds no save.
var ErrSaveNotFound = errors.New("save not found")

// Record is one stored save slot.
type Record struct {
	ID          uuid.UUID
	Slot        int
	Description string
	Thumbnail   []byte
	AutoSave    bool
	Payload     []byte
	Checksum    []byte
	SavedAt     time.Time
}

// Repository persists save records by slot.
type Repository interface {
	// Put stores rec, replacing any record in the same slot.
	Put(ctx context.Context, rec Record) error
	// Get returns the record in slot or an error wrapping ErrSaveNotFound.
	Get(ctx context.Context, slot int) (Record, error)
	// List returns every record ordered by slot, without payloads.
	List(ctx context.Context) ([]Record, error)
	// Delete removes slot; deleting an empty slot is not an error.
	Delete(ctx context.Context, slot int) error
}

// MemoryRepository is a Repository held in memory. It is safe for
// concurrent use.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[int]Record
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[int]Record)}
}

// Put implements Repository.
func (r *MemoryRepository) Put(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.Slot] = rec
	return nil
}

// Get implements Repository.
func (r *MemoryRepository) Get(_ context.Context, slot int) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[slot]
	if !ok {
		return Record{}, ErrSaveNotFound
	}
	return rec, nil
}

// List implements Repository.
func (r *MemoryRepository) List(_ context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		rec.Payload = nil
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}

// Delete implements Repository.
func (r *MemoryRepository) Delete(_ context.Context, slot int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, slot)
	return nil
}
