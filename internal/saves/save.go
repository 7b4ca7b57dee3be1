// Package saves owns the locally opened Super Mario Maker 2 save folder.
//
// The binary course files are opaque here: a slot is occupied when its
// course_data_NNN.bcd file exists. Metadata about courses injected by this
// tool (SMMDB id, title, difficulty) is kept in a CBOR sidecar next to the
// course files so the save page can label them.
package saves

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// SlotCount is the number of course slots in a save.
const SlotCount = 120

var (
	// ErrStaleHandle is returned when a mutation targets a handle that was
	// replaced by a later Open.
	ErrStaleHandle = errors.New("saves: handle is no longer open")
	// ErrSlotRange is returned for slot indices outside [0, SlotCount).
	ErrSlotRange = fmt.Errorf("saves: slot out of range [0,%d)", SlotCount)
)

// Meta describes a course placed by this tool. Zero for foreign courses.
type Meta struct {
	SMMDBID    string `cbor:"smmdb_id,omitempty"`
	Title      string `cbor:"title,omitempty"`
	Difficulty string `cbor:"difficulty,omitempty"`
}

// Course is a decoded course ready to be written into a slot.
type Course struct {
	Data      []byte
	Thumbnail []byte
	Meta      Meta
}

// Slot is an occupied course slot.
type Slot struct {
	Index        int
	Meta         Meta
	HasThumbnail bool
}

// Save is an open save folder handle.
type Save struct {
	mu     sync.RWMutex
	dir    string
	slots  map[int]Slot
	closed bool
}

func newSave(dir string) *Save {
	return &Save{dir: dir, slots: map[int]Slot{}}
}

// Dir is the folder backing the save.
func (s *Save) Dir() string { return s.dir }

// Slot returns the course at index i, if any.
func (s *Save) Slot(i int) (Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[i]
	return slot, ok
}

// Slots returns occupied slots ordered by index.
func (s *Save) Slots() []Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Slot, 0, len(s.slots))
	for _, slot := range s.slots {
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Len is the number of occupied slots.
func (s *Save) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

func (s *Save) invalidate() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func checkSlot(i int) error {
	if i < 0 || i >= SlotCount {
		return fmt.Errorf("%w: %d", ErrSlotRange, i)
	}
	return nil
}

// OpenError reports a save reference that could not be opened.
type OpenError struct {
	Ref string
	Err error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open save %s: %v", e.Ref, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// MutationError reports a failed swap, add or delete.
type MutationError struct {
	Op   string
	Slot int
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s slot %d: %v", e.Op, e.Slot, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
