// Package controller is the application core: the workflow state machine, the
// pure event reducer, the effect runner and the subscription manager.
//
// Reduce is the only place that changes a Model. Everything asynchronous is
// described by a Command, executed by Effects on bubbletea's goroutines, and
// fed back through Reduce as an Event.
package controller

import "fmt"

// State is the workflow state. Exactly one variant is active.
type State interface {
	isState()
	String() string
}

// BusyOp records what a Busy state is waiting for, so only the matching
// completion clears it.
type BusyOp int

const (
	OpOpen BusyOp = iota
	OpFetch
	OpMutate
	OpSettings
)

func (o BusyOp) String() string {
	switch o {
	case OpOpen:
		return "opening save"
	case OpFetch:
		return "fetching courses"
	case OpMutate:
		return "updating save"
	case OpSettings:
		return "checking api key"
	default:
		return "busy"
	}
}

type Idle struct{}

type Busy struct {
	Op BusyOp
}

type SelectingSwap struct {
	Anchor int
}

type SelectingDownload struct {
	Anchor int
}

type SelectingDelete struct {
	Anchor int
}

// Downloading streams CourseID into slot SaveIndex. Progress is in [0,1] and
// never decreases; Gen identifies the stream.
type Downloading struct {
	SaveIndex int
	CourseID  string
	Progress  float64
	Gen       uint64
}

func (Idle) isState()              {}
func (Busy) isState()              {}
func (SelectingSwap) isState()     {}
func (SelectingDownload) isState() {}
func (SelectingDelete) isState()   {}
func (Downloading) isState()       {}

func (Idle) String() string                { return "idle" }
func (s Busy) String() string              { return s.Op.String() }
func (s SelectingSwap) String() string     { return fmt.Sprintf("swap slot %d with…", s.Anchor) }
func (s SelectingDownload) String() string { return fmt.Sprintf("download into slot %d…", s.Anchor) }
func (s SelectingDelete) String() string   { return fmt.Sprintf("delete slot %d?", s.Anchor) }
func (s Downloading) String() string {
	return fmt.Sprintf("downloading %s into slot %d (%.0f%%)", s.CourseID, s.SaveIndex, s.Progress*100)
}

// IsSelecting reports whether s awaits a second selection.
func IsSelecting(s State) bool {
	switch s.(type) {
	case SelectingSwap, SelectingDownload, SelectingDelete:
		return true
	default:
		return false
	}
}

// ErrorBanner is None or a message, independent of State.
type ErrorBanner struct {
	text string
	set  bool
}

// Banner returns a banner holding text.
func Banner(text string) ErrorBanner { return ErrorBanner{text: text, set: true} }

func (b ErrorBanner) Message() (string, bool) { return b.text, b.set }
