package saves

import (
	"context"
	"sync"
)

// Workflow keeps exactly one save handle live. Opening a save invalidates
// the previous handle; mutations against it fail with ErrStaleHandle.
type Workflow struct {
	lib  Library
	mu   sync.Mutex
	live *Save
}

func NewWorkflow(lib Library) *Workflow {
	return &Workflow{lib: lib}
}

// Open opens ref and makes it the live handle.
func (w *Workflow) Open(ctx context.Context, ref string) (*Save, error) {
	s, err := w.lib.Open(ctx, ref)
	if err != nil {
		return nil, &OpenError{Ref: ref, Err: err}
	}
	w.mu.Lock()
	prev := w.live
	w.live = s
	w.mu.Unlock()
	if prev != nil {
		prev.invalidate()
	}
	return s, nil
}

// Live returns the currently open handle, or nil.
func (w *Workflow) Live() *Save {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.live
}

func (w *Workflow) check(h *Save) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if h == nil || h != w.live {
		return ErrStaleHandle
	}
	return nil
}

// Swap exchanges slots i and j of h and persists the result.
func (w *Workflow) Swap(ctx context.Context, h *Save, i, j int) error {
	if err := w.check(h); err != nil {
		return &MutationError{Op: "swap", Slot: i, Err: err}
	}
	if err := w.lib.Swap(ctx, h, i, j); err != nil {
		return &MutationError{Op: "swap", Slot: i, Err: err}
	}
	return nil
}

// AddCourse writes c into slot i of h.
func (w *Workflow) AddCourse(ctx context.Context, h *Save, i int, c Course) error {
	if err := w.check(h); err != nil {
		return &MutationError{Op: "add", Slot: i, Err: err}
	}
	if err := w.lib.Add(ctx, h, i, c); err != nil {
		return &MutationError{Op: "add", Slot: i, Err: err}
	}
	return nil
}

// DeleteCourse empties slot i of h.
func (w *Workflow) DeleteCourse(ctx context.Context, h *Save, i int) error {
	if err := w.check(h); err != nil {
		return &MutationError{Op: "delete", Slot: i, Err: err}
	}
	if err := w.lib.Delete(ctx, h, i); err != nil {
		return &MutationError{Op: "delete", Slot: i, Err: err}
	}
	return nil
}
