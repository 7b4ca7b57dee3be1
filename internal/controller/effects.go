package controller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/smmdbtui/internal/database/repository"
	"github.com/jask/smmdbtui/internal/dialog"
	"github.com/jask/smmdbtui/internal/saves"
	"github.com/jask/smmdbtui/internal/settings"
	"github.com/jask/smmdbtui/internal/smmdb"
)

// Archive is the remote course archive.
type Archive interface {
	Courses(ctx context.Context, params smmdb.QueryParams, apiKey string) ([]smmdb.Course, error)
	Thumbnail(ctx context.Context, id string) ([]byte, error)
	Vote(ctx context.Context, id string, value int, apiKey string) error
	SignIn(ctx context.Context, apiKey string) error
}

// Workflow owns the live save handle.
type Workflow interface {
	Open(ctx context.Context, ref string) (*saves.Save, error)
	Swap(ctx context.Context, h *saves.Save, i, j int) error
	AddCourse(ctx context.Context, h *saves.Save, i int, c saves.Course) error
	DeleteCourse(ctx context.Context, h *saves.Save, i int) error
}

type SettingsStore interface {
	Save(settings.Settings) error
}

type ThumbnailCache interface {
	Get(ctx context.Context, courseID string) ([]byte, bool, error)
	Put(ctx context.Context, courseID string, data []byte) error
}

type RecentSaves interface {
	Touch(ctx context.Context, path, label string) error
	List(ctx context.Context, limit int) ([]repository.RecentSave, error)
}

// Deps are the collaborators Effects calls. Thumbs and Recent may be nil.
type Deps struct {
	Archive  Archive
	Workflow Workflow
	Picker   dialog.Picker
	Settings SettingsStore
	Thumbs   ThumbnailCache
	Recent   RecentSaves
	Log      *slog.Logger
	// Timeout bounds each call except the folder picker. Zero means 30s.
	Timeout time.Duration
}

const recentLimit = 8

// Effects turns Commands into tea.Cmds whose results are Events.
type Effects struct {
	ctx  context.Context
	deps Deps
}

func NewEffects(ctx context.Context, deps Deps) *Effects {
	if deps.Log == nil {
		deps.Log = slog.New(slog.DiscardHandler)
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 30 * time.Second
	}
	return &Effects{ctx: ctx, deps: deps}
}

// Run batches cmds. Each runs on its own goroutine.
func (e *Effects) Run(cmds ...Command) tea.Cmd {
	if len(cmds) == 0 {
		return nil
	}
	out := make([]tea.Cmd, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, e.cmd(c))
	}
	return tea.Batch(out...)
}

func (e *Effects) cmd(c Command) tea.Cmd {
	return func() tea.Msg { return e.Exec(c) }
}

func (e *Effects) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(e.ctx, e.deps.Timeout)
}

// Exec runs c synchronously and returns its single result event.
func (e *Effects) Exec(c Command) Event {
	log := e.deps.Log
	switch c := c.(type) {
	case EmitCmd:
		if c.Event == nil {
			return Noop{}
		}
		return c.Event

	case OpenSaveCmd:
		ctx, cancel := e.callCtx()
		defer cancel()
		h, err := e.deps.Workflow.Open(ctx, c.Ref)
		if err != nil {
			log.Warn("open save failed", "ref", c.Ref, "err", err)
			return SaveOpenFailed{Reason: err.Error()}
		}
		label := c.Label
		if label == "" {
			label = c.Ref
		}
		log.Info("save opened", "ref", c.Ref, "slots", h.Len())
		return SaveOpened{Handle: h, Label: label}

	case PickFolderCmd:
		res, err := e.deps.Picker.PickFolder(e.ctx)
		if err != nil {
			log.Warn("folder picker failed", "err", err)
			return SaveOpenFailed{Reason: err.Error()}
		}
		switch res.Kind {
		case dialog.Selected:
			return FolderPicked{Path: res.Path}
		case dialog.Multiple:
			log.Info("multiple folders picked, ignoring", "count", len(res.Paths))
			return PickCancelled{}
		default:
			return PickCancelled{}
		}

	case RememberSaveCmd:
		if e.deps.Recent == nil {
			return Noop{}
		}
		ctx, cancel := e.callCtx()
		defer cancel()
		if err := e.deps.Recent.Touch(ctx, c.Path, c.Label); err != nil {
			log.Debug("remember save failed", "path", c.Path, "err", err)
			return Noop{}
		}
		list, err := e.deps.Recent.List(ctx, recentLimit)
		if err != nil {
			return Noop{}
		}
		return RecentSavesLoaded{Saves: list}

	case LoadRecentSavesCmd:
		if e.deps.Recent == nil {
			return Noop{}
		}
		ctx, cancel := e.callCtx()
		defer cancel()
		list, err := e.deps.Recent.List(ctx, recentLimit)
		if err != nil {
			log.Debug("load recent saves failed", "err", err)
			return Noop{}
		}
		return RecentSavesLoaded{Saves: list}

	case FetchCoursesCmd:
		ctx, cancel := e.callCtx()
		defer cancel()
		courses, err := e.deps.Archive.Courses(ctx, c.Params, c.APIKey)
		if err != nil {
			log.Warn("fetch courses failed", "gen", c.Gen, "err", err)
			return FetchFailed{Reason: err.Error(), Gen: c.Gen}
		}
		return CoursesFetched{Courses: courses, Gen: c.Gen}

	case FetchThumbnailCmd:
		return e.thumbnail(c)

	case VoteCmd:
		ctx, cancel := e.callCtx()
		defer cancel()
		if err := e.deps.Archive.Vote(ctx, c.ID, c.Value, c.APIKey); err != nil {
			log.Warn("vote failed", "course", c.ID, "value", c.Value, "err", err)
			return VoteFailed{ID: c.ID, Reason: err.Error()}
		}
		return VoteConfirmed{ID: c.ID, Value: c.Value}

	case SwapCmd:
		ctx, cancel := e.callCtx()
		defer cancel()
		return mutationResult(log, e.deps.Workflow.Swap(ctx, c.Handle, c.A, c.B))

	case AddCourseCmd:
		ctx, cancel := e.callCtx()
		defer cancel()
		return mutationResult(log, e.deps.Workflow.AddCourse(ctx, c.Handle, c.Slot, c.Course))

	case DeleteCmd:
		ctx, cancel := e.callCtx()
		defer cancel()
		return mutationResult(log, e.deps.Workflow.DeleteCourse(ctx, c.Handle, c.Slot))

	case PersistSettingsCmd:
		if err := e.deps.Settings.Save(c.Settings); err != nil {
			log.Error("persist settings failed", "err", err)
			return SettingsPersistFailed{Reason: err.Error()}
		}
		return Noop{}

	case ValidateCredentialCmd:
		key, ok := c.Settings.Credential()
		if !ok {
			return SettingsAccepted{Settings: c.Settings}
		}
		ctx, cancel := e.callCtx()
		defer cancel()
		if err := e.deps.Archive.SignIn(ctx, key); err != nil {
			log.Warn("api key rejected", "err", err)
			return SettingsRejected{Reason: err.Error()}
		}
		return SettingsAccepted{Settings: c.Settings}
	}
	log.Error("unknown command", "cmd", c)
	return Noop{}
}

// thumbnail prefers the cache; failures only get logged.
func (e *Effects) thumbnail(c FetchThumbnailCmd) Event {
	ctx, cancel := e.callCtx()
	defer cancel()
	log := e.deps.Log
	if e.deps.Thumbs != nil {
		data, ok, err := e.deps.Thumbs.Get(ctx, c.ID)
		if err != nil {
			log.Debug("thumbnail cache read failed", "course", c.ID, "err", err)
		}
		if ok {
			return ThumbnailFetched{ID: c.ID, Bytes: data, Gen: c.Gen}
		}
	}
	data, err := e.deps.Archive.Thumbnail(ctx, c.ID)
	if err != nil {
		log.Debug("thumbnail fetch failed", "course", c.ID, "err", err)
		return Noop{}
	}
	if e.deps.Thumbs != nil {
		if err := e.deps.Thumbs.Put(ctx, c.ID, data); err != nil {
			log.Debug("thumbnail cache write failed", "course", c.ID, "err", err)
		}
	}
	return ThumbnailFetched{ID: c.ID, Bytes: data, Gen: c.Gen}
}

func mutationResult(log *slog.Logger, err error) Event {
	if err == nil {
		return ResetState{}
	}
	if errors.Is(err, saves.ErrStaleHandle) {
		log.Warn("mutation on stale save handle", "err", err)
	} else {
		log.Error("save mutation failed", "err", err)
	}
	return MutationFailed{Reason: err.Error()}
}
