package saves

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

const (
	dataPattern  = "course_data_%03d.bcd"
	thumbPattern = "course_thumb_%03d.btl"
	indexFile    = "smmdbtui-index.cbor"
	indexVersion = 1
)

// Library is the save backend the workflow delegates to.
type Library interface {
	Open(ctx context.Context, dir string) (*Save, error)
	Swap(ctx context.Context, s *Save, i, j int) error
	Add(ctx context.Context, s *Save, i int, c Course) error
	Delete(ctx context.Context, s *Save, i int) error
}

// FolderLibrary stores course slots as files in an emulator save folder.
type FolderLibrary struct {
	enc    cbor.EncMode
	rename func(oldpath, newpath string) error
}

// NewFolderLibrary returns a library writing the sidecar index with
// deterministic CBOR encoding.
func NewFolderLibrary() (*FolderLibrary, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor enc mode: %w", err)
	}
	return &FolderLibrary{enc: enc, rename: os.Rename}, nil
}

type index struct {
	Version int          `cbor:"version"`
	Slots   map[int]Meta `cbor:"slots"`
}

func dataPath(dir string, i int) string { return filepath.Join(dir, fmt.Sprintf(dataPattern, i)) }
func thumbPath(dir string, i int) string { return filepath.Join(dir, fmt.Sprintf(thumbPattern, i)) }

// Open scans dir for occupied slots and loads the sidecar index.
func (l *FolderLibrary) Open(ctx context.Context, dir string) (*Save, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	idx, err := readIndex(filepath.Join(dir, indexFile))
	if err != nil {
		return nil, err
	}

	s := newSave(dir)
	for i := 0; i < SlotCount; i++ {
		if !exists(dataPath(dir, i)) {
			continue
		}
		s.slots[i] = Slot{
			Index:        i,
			Meta:         idx.Slots[i],
			HasThumbnail: exists(thumbPath(dir, i)),
		}
	}
	return s, nil
}

// Swap exchanges the contents of slots i and j, either of which may be empty.
func (l *FolderLibrary) Swap(ctx context.Context, s *Save, i, j int) error {
	if err := checkSlot(i); err != nil {
		return err
	}
	if err := checkSlot(j); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStaleHandle
	}
	if i == j {
		return nil
	}

	if err := l.swapFiles(dataPath(s.dir, i), dataPath(s.dir, j)); err != nil {
		return err
	}
	if err := l.swapFiles(thumbPath(s.dir, i), thumbPath(s.dir, j)); err != nil {
		// put the course data back so files and slots still agree
		if rbErr := l.swapFiles(dataPath(s.dir, i), dataPath(s.dir, j)); rbErr != nil {
			return errors.Join(err, fmt.Errorf("roll back course data: %w", rbErr))
		}
		return err
	}

	a, aok := s.slots[i]
	b, bok := s.slots[j]
	delete(s.slots, i)
	delete(s.slots, j)
	if aok {
		a.Index = j
		s.slots[j] = a
	}
	if bok {
		b.Index = i
		s.slots[i] = b
	}
	return l.writeIndex(s)
}

// Add writes c into slot i, replacing whatever was there.
func (l *FolderLibrary) Add(ctx context.Context, s *Save, i int, c Course) error {
	if err := checkSlot(i); err != nil {
		return err
	}
	if len(c.Data) == 0 {
		return errors.New("course has no data")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStaleHandle
	}

	if err := writeAtomic(dataPath(s.dir, i), c.Data); err != nil {
		return err
	}
	if len(c.Thumbnail) > 0 {
		if err := writeAtomic(thumbPath(s.dir, i), c.Thumbnail); err != nil {
			return err
		}
	} else if err := removeIfExists(thumbPath(s.dir, i)); err != nil {
		return err
	}
	s.slots[i] = Slot{Index: i, Meta: c.Meta, HasThumbnail: len(c.Thumbnail) > 0}
	return l.writeIndex(s)
}

// Delete empties slot i. Deleting an empty slot succeeds.
func (l *FolderLibrary) Delete(ctx context.Context, s *Save, i int) error {
	if err := checkSlot(i); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStaleHandle
	}

	if err := removeIfExists(dataPath(s.dir, i)); err != nil {
		return err
	}
	if err := removeIfExists(thumbPath(s.dir, i)); err != nil {
		return err
	}
	delete(s.slots, i)
	return l.writeIndex(s)
}

// writeIndex must be called with s.mu held.
func (l *FolderLibrary) writeIndex(s *Save) error {
	idx := index{Version: indexVersion, Slots: map[int]Meta{}}
	for i, slot := range s.slots {
		if slot.Meta != (Meta{}) {
			idx.Slots[i] = slot.Meta
		}
	}
	data, err := l.enc.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return writeAtomic(filepath.Join(s.dir, indexFile), data)
}

func readIndex(path string) (index, error) {
	idx := index{Version: indexVersion, Slots: map[int]Meta{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return idx, err
	}
	if err := cbor.Unmarshal(data, &idx); err != nil {
		return idx, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if idx.Slots == nil {
		idx.Slots = map[int]Meta{}
	}
	return idx, nil
}

// swapFiles exchanges a and b through a temporary name. On failure both
// paths hold their original contents and the temporary is gone, unless the
// restoring renames fail too.
func (l *FolderLibrary) swapFiles(a, b string) error {
	aok, bok := exists(a), exists(b)
	switch {
	case aok && bok:
		tmp := a + ".swap"
		if err := l.rename(a, tmp); err != nil {
			return err
		}
		if err := l.rename(b, a); err != nil {
			_ = l.rename(tmp, a)
			return err
		}
		if err := l.rename(tmp, b); err != nil {
			if l.rename(a, b) == nil {
				_ = l.rename(tmp, a)
			}
			return err
		}
		return nil
	case aok:
		return l.rename(a, b)
	case bok:
		return l.rename(b, a)
	default:
		return nil
	}
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
