package controller

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/smmdbtui/internal/smmdb"
)

// Subscription is a passive event source derived from State.
type Subscription interface {
	isSubscription()
}

// CancelKey routes the cancel key to CancelSelection.
type CancelKey struct{}

// DownloadStream is identified by course and generation; re-deriving the
// same value never restarts it.
type DownloadStream struct {
	CourseID string
	Gen      uint64
}

func (CancelKey) isSubscription()      {}
func (DownloadStream) isSubscription() {}

// Derive lists the subscriptions s needs.
func Derive(s State) []Subscription {
	switch s := s.(type) {
	case SelectingSwap, SelectingDownload, SelectingDelete:
		return []Subscription{CancelKey{}}
	case Downloading:
		return []Subscription{DownloadStream{CourseID: s.CourseID, Gen: s.Gen}}
	default:
		return nil
	}
}

// Downloader opens a progress stream that closes after its terminal event or
// once ctx is cancelled.
type Downloader interface {
	Download(ctx context.Context, id string) <-chan smmdb.Progress
}

type stream struct {
	key    DownloadStream
	ch     <-chan smmdb.Progress
	ctx    context.Context
	cancel context.CancelFunc
}

// wait delivers the next element of the stream as an event.
func (s *stream) wait() tea.Cmd {
	return func() tea.Msg {
		p, ok := <-s.ch
		if !ok {
			if s.ctx.Err() != nil {
				return Noop{}
			}
			return DownloadProgressed{Gen: s.key.Gen, Progress: smmdb.Errored(errors.New("download stream ended early"))}
		}
		return DownloadProgressed{Gen: s.key.Gen, Progress: p}
	}
}

// Manager keeps running subscriptions in line with the state. It is used
// from the bubbletea Update goroutine only.
type Manager struct {
	ctx       context.Context
	source    Downloader
	log       *slog.Logger
	streams   map[DownloadStream]*stream
	cancelKey bool
}

func NewManager(ctx context.Context, source Downloader, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{ctx: ctx, source: source, log: logger, streams: map[DownloadStream]*stream{}}
}

// Sync starts subscriptions newly derived from state and cancels the ones no
// longer derived. last is the event that produced state; after a non-final
// progress event the stream's next read is scheduled again.
func (m *Manager) Sync(state State, last Event) tea.Cmd {
	var cmds []tea.Cmd
	wanted := map[DownloadStream]bool{}
	m.cancelKey = false
	for _, sub := range Derive(state) {
		switch sub := sub.(type) {
		case CancelKey:
			m.cancelKey = true
		case DownloadStream:
			wanted[sub] = true
			if _, ok := m.streams[sub]; ok {
				continue
			}
			ctx, cancel := context.WithCancel(m.ctx)
			st := &stream{key: sub, ch: m.source.Download(ctx, sub.CourseID), ctx: ctx, cancel: cancel}
			m.streams[sub] = st
			m.log.Info("download stream started", "course", sub.CourseID, "gen", sub.Gen)
			cmds = append(cmds, st.wait())
		}
	}

	for key, st := range m.streams {
		if wanted[key] {
			continue
		}
		st.cancel()
		delete(m.streams, key)
		m.log.Info("download stream stopped", "course", key.CourseID, "gen", key.Gen)
	}

	if p, ok := last.(DownloadProgressed); ok && !p.Progress.Terminal() {
		for key, st := range m.streams {
			if key.Gen == p.Gen {
				cmds = append(cmds, st.wait())
			}
		}
	}
	return tea.Batch(cmds...)
}

// CancelKeyActive reports whether the cancel key should emit CancelSelection.
func (m *Manager) CancelKeyActive() bool { return m.cancelKey }

// Active is the number of running download streams.
func (m *Manager) Active() int { return len(m.streams) }

// Close cancels every running stream.
func (m *Manager) Close() {
	for key, st := range m.streams {
		st.cancel()
		delete(m.streams, key)
	}
}
