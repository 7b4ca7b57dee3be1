// Package dialog opens the desktop's native folder picker from the terminal.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ncruces/zenity"
)

// Kind tags a picker result.
type Kind int

const (
	Cancelled Kind = iota
	Selected
	Multiple
)

func (k Kind) String() string {
	switch k {
	case Selected:
		return "selected"
	case Multiple:
		return "multiple"
	default:
		return "cancelled"
	}
}

// Result is what the user did in the picker. Path is set for Selected,
// Paths for Multiple.
type Result struct {
	Kind  Kind
	Path  string
	Paths []string
}

// Error reports a picker that could not be run.
type Error struct {
	Tool string
	Err  error
}

func (e *Error) Error() string {
	if e.Tool == "" {
		return fmt.Sprintf("folder picker: %v", e.Err)
	}
	return fmt.Sprintf("folder picker %s: %v", e.Tool, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Picker asks the user for a save folder. PickFolder blocks until the
// dialog closes.
type Picker interface {
	PickFolder(ctx context.Context) (Result, error)
}

const pickerTitle = "Open save folder"

// NativePicker shows the platform folder dialog through ncruces/zenity. On
// Linux and BSD that is the zenity (or matedialog/qarma) binary.
type NativePicker struct {
	selectDirs func(opts ...zenity.Option) ([]string, error)
}

func NewNativePicker() *NativePicker {
	return &NativePicker{selectDirs: zenity.SelectFileMultiple}
}

func (p *NativePicker) PickFolder(ctx context.Context) (Result, error) {
	paths, err := p.selectDirs(zenity.Context(ctx), zenity.Directory(), zenity.Title(pickerTitle))
	switch {
	case errors.Is(err, zenity.ErrCanceled):
		return Result{Kind: Cancelled}, nil
	case err != nil:
		return Result{}, &Error{Tool: "zenity", Err: err}
	}
	return fromPaths(paths), nil
}

func fromPaths(in []string) Result {
	var paths []string
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	switch len(paths) {
	case 0:
		return Result{Kind: Cancelled}
	case 1:
		return Result{Kind: Selected, Path: paths[0]}
	default:
		return Result{Kind: Multiple, Paths: paths}
	}
}
