package controller

import (
	"github.com/jask/smmdbtui/internal/saves"
	"github.com/jask/smmdbtui/internal/smmdb"
)

const openFailedPrefix = "Could not load save file. Full error:\n"

// Reduce applies ev to m and returns the commands to run. It performs no I/O.
// Events that make no sense in the current state are ignored.
func Reduce(m *Model, ev Event) []Command {
	switch ev := ev.(type) {
	case Noop:
		return nil

	case OpenSave:
		if !canOpen(m.State) {
			return nil
		}
		m.State = Busy{Op: OpOpen}
		return []Command{OpenSaveCmd{Ref: ev.Ref, Label: ev.Label}}

	case OpenCustomSave:
		if !canOpen(m.State) {
			return nil
		}
		m.State = Busy{Op: OpOpen}
		return []Command{PickFolderCmd{}}

	case FolderPicked:
		if !isBusy(m.State, OpOpen) {
			return nil
		}
		return []Command{OpenSaveCmd{Ref: ev.Path, Label: ev.Path}}

	case PickCancelled:
		if isBusy(m.State, OpOpen) {
			m.State = Idle{}
		}
		return nil

	case SaveOpened:
		if ev.Handle == nil {
			return nil
		}
		if !isBusy(m.State, OpMutate) && !isBusy(m.State, OpSettings) {
			m.State = Idle{}
		}
		m.Error = ErrorBanner{}
		m.Page = withBase(m.Page, SavePage{Handle: ev.Handle, Label: ev.Label})
		return []Command{RememberSaveCmd{Path: ev.Handle.Dir(), Label: ev.Label}}

	case SaveOpenFailed:
		if isBusy(m.State, OpOpen) {
			m.State = Idle{}
		}
		m.Error = Banner(openFailedPrefix + ev.Reason)
		return nil

	case RecentSavesLoaded:
		if p, ok := base(m.Page).(InitPage); ok {
			p.Recent = ev.Saves
			m.Page = withBase(m.Page, p)
		}
		return nil

	case FetchCourses:
		return fetch(m)

	case CoursesFetched:
		if ev.Gen != m.fetchGen {
			return nil
		}
		m.Error = ErrorBanner{}
		m.Catalog.Replace(ev.Courses)
		if isBusy(m.State, OpFetch) {
			m.State = Idle{}
		}
		cmds := make([]Command, 0, len(ev.Courses))
		for _, c := range ev.Courses {
			cmds = append(cmds, FetchThumbnailCmd{ID: c.ID, Gen: ev.Gen})
		}
		return cmds

	case FetchFailed:
		if ev.Gen != m.fetchGen {
			return nil
		}
		m.Error = Banner("Could not fetch courses: " + ev.Reason)
		if isBusy(m.State, OpFetch) {
			m.State = Idle{}
		}
		return nil

	case ThumbnailFetched:
		if ev.Gen == m.fetchGen {
			m.Catalog.SetThumbnail(ev.ID, ev.Bytes)
		}
		return nil

	case TitleChanged:
		m.Catalog.SetTitle(ev.Title)
		return fetch(m)

	case UploaderChanged:
		m.Catalog.SetUploader(ev.Uploader)
		return fetch(m)

	case DifficultyChanged:
		m.Catalog.SetDifficulty(ev.Difficulty)
		return fetch(m)

	case SortChanged:
		m.Catalog.SetSort(ev.Sort)
		return fetch(m)

	case ApplyFilters:
		m.Catalog.SetTitle(ev.Title)
		m.Catalog.SetUploader(ev.Uploader)
		m.Catalog.SetDifficulty(ev.Difficulty)
		m.Catalog.SetSort(ev.Sort)
		return fetch(m)

	case PaginateForward:
		m.Catalog.PaginateForward()
		return fetch(m)

	case PaginateBackward:
		m.Catalog.PaginateBackward()
		return fetch(m)

	case Upvote:
		return vote(m, ev.ID, 1)

	case Downvote:
		return vote(m, ev.ID, -1)

	case ResetVote:
		return vote(m, ev.ID, 0)

	case VoteConfirmed:
		m.Catalog.SetOwnVote(ev.ID, ev.Value)
		return nil

	case VoteFailed:
		m.Error = Banner("Could not vote: " + ev.Reason)
		return nil

	case InitSwap:
		if canSelect(m, ev.Anchor) {
			m.State = SelectingSwap{Anchor: ev.Anchor}
		}
		return nil

	case InitDownload:
		if canSelect(m, ev.Anchor) {
			m.State = SelectingDownload{Anchor: ev.Anchor}
		}
		return nil

	case InitDelete:
		if canSelect(m, ev.Anchor) {
			m.State = SelectingDelete{Anchor: ev.Anchor}
		}
		return nil

	case Swap:
		sel, ok := m.State.(SelectingSwap)
		if !ok || !inRange(ev.Target) {
			return nil
		}
		if ev.Target == sel.Anchor {
			m.State = Idle{}
			return nil
		}
		page, ok := saveOf(m.Page)
		if !ok {
			m.State = Idle{}
			return nil
		}
		m.State = Busy{Op: OpMutate}
		return []Command{SwapCmd{Handle: page.Handle, A: sel.Anchor, B: ev.Target}}

	case Download:
		if _, ok := m.State.(SelectingDownload); !ok || !inRange(ev.SaveIndex) || ev.CourseID == "" {
			return nil
		}
		m.downloadGen++
		m.State = Downloading{SaveIndex: ev.SaveIndex, CourseID: ev.CourseID, Gen: m.downloadGen}
		return nil

	case DownloadProgressed:
		return progress(m, ev)

	case Delete:
		if _, ok := m.State.(SelectingDelete); !ok || !inRange(ev.Index) {
			return nil
		}
		page, ok := saveOf(m.Page)
		if !ok {
			m.State = Idle{}
			return nil
		}
		m.State = Busy{Op: OpMutate}
		return []Command{DeleteCmd{Handle: page.Handle, Slot: ev.Index}}

	case CancelSelection:
		if IsSelecting(m.State) {
			m.State = Idle{}
		}
		return nil

	case MutationFailed:
		if isBusy(m.State, OpMutate) {
			m.State = Idle{}
		}
		m.Error = Banner(ev.Reason)
		return nil

	case OpenSettings:
		if _, ok := m.Page.(SettingsPage); ok {
			return nil
		}
		if IsSelecting(m.State) {
			m.State = Idle{}
		}
		m.Page = SettingsPage{Draft: m.Settings, Prev: m.Page}
		return nil

	case ChangeAPIKey:
		if p, ok := m.Page.(SettingsPage); ok {
			p.Draft.APIKey = ev.Key
			m.Page = p
		}
		return nil

	case ChangePageSize:
		if p, ok := m.Page.(SettingsPage); ok && ev.Size > 0 {
			p.Draft.PageSize = ev.Size
			m.Page = p
		}
		return nil

	case TrySaveSettings:
		if _, ok := m.Page.(SettingsPage); !ok || isBusy(m.State, OpSettings) {
			return nil
		}
		cmds := []Command{PersistSettingsCmd{Settings: ev.Settings}}
		if _, ok := ev.Settings.Credential(); !ok {
			return append(cmds, EmitCmd{Event: SettingsAccepted{Settings: ev.Settings}})
		}
		if _, ok := m.State.(Idle); ok {
			m.State = Busy{Op: OpSettings}
		}
		return append(cmds, ValidateCredentialCmd{Settings: ev.Settings})

	case SettingsAccepted:
		prev := m.Settings
		m.Settings = ev.Settings
		if p, ok := m.Page.(SettingsPage); ok {
			m.Page = p.Prev
		}
		m.Error = ErrorBanner{}
		if isBusy(m.State, OpSettings) {
			m.State = Idle{}
		}
		cmds := []Command{PersistSettingsCmd{Settings: ev.Settings}}
		if prev.PageSize != ev.Settings.PageSize || prev.APIKey != ev.Settings.APIKey {
			m.Catalog.SetLimit(ev.Settings.PageSize)
			cmds = append(cmds, fetch(m)...)
		}
		return cmds

	case SettingsRejected:
		m.Error = Banner("API key rejected: " + ev.Reason)
		if isBusy(m.State, OpSettings) {
			m.State = Idle{}
		}
		return []Command{PersistSettingsCmd{Settings: m.Settings}}

	case SettingsPersistFailed:
		m.Error = Banner("Could not save settings: " + ev.Reason)
		return nil

	case CloseSettings:
		if p, ok := m.Page.(SettingsPage); ok {
			m.Page = p.Prev
			m.Error = ErrorBanner{}
		}
		return nil

	case ResetState:
		m.State = Idle{}
		m.Error = ErrorBanner{}
		return nil

	case DismissError:
		m.Error = ErrorBanner{}
		return nil
	}
	return nil
}

func fetch(m *Model) []Command {
	m.fetchGen++
	if _, ok := m.State.(Idle); ok {
		m.State = Busy{Op: OpFetch}
	}
	key, _ := m.Settings.Credential()
	return []Command{FetchCoursesCmd{Params: m.Catalog.Params(), APIKey: key, Gen: m.fetchGen}}
}

// vote sends want, or a reset when the course already carries want.
func vote(m *Model, id string, want int) []Command {
	key, ok := m.Settings.Credential()
	if !ok {
		return nil
	}
	entry, ok := m.Catalog.Course(id)
	if !ok {
		return nil
	}
	if want != 0 && entry.OwnVote == want {
		want = 0
	}
	return []Command{VoteCmd{ID: id, Value: want, APIKey: key}}
}

func progress(m *Model, ev DownloadProgressed) []Command {
	d, ok := m.State.(Downloading)
	if !ok || d.Gen != ev.Gen {
		return nil
	}
	switch ev.Progress.Kind {
	case smmdb.ProgressStarted:
		d.Progress = 0
		m.State = d
	case smmdb.ProgressAdvanced:
		d.Progress = max(d.Progress, clamp01(ev.Progress.Fraction))
		m.State = d
	case smmdb.ProgressFinished:
		course, err := smmdb.DecodeCourse(ev.Progress.Payload)
		if err != nil {
			m.State = Idle{}
			m.Error = Banner("Download failed: " + err.Error())
			return nil
		}
		page, ok := saveOf(m.Page)
		if !ok {
			m.State = Idle{}
			m.Error = Banner("Download failed: no save is open")
			return nil
		}
		if entry, ok := m.Catalog.Course(d.CourseID); ok {
			course.Meta = saves.Meta{SMMDBID: entry.ID, Title: entry.Title}
			if entry.Difficulty != nil {
				course.Meta.Difficulty = entry.Difficulty.String()
			}
		} else {
			course.Meta = saves.Meta{SMMDBID: d.CourseID}
		}
		m.State = Busy{Op: OpMutate}
		return []Command{AddCourseCmd{Handle: page.Handle, Slot: d.SaveIndex, Course: course}}
	case smmdb.ProgressErrored:
		reason := "unknown error"
		if ev.Progress.Err != nil {
			reason = ev.Progress.Err.Error()
		}
		m.State = Idle{}
		m.Error = Banner("Download failed: " + reason)
	}
	return nil
}

// canOpen allows replacing a pending selection or an in-flight fetch, which
// does not hold the save.
func canOpen(s State) bool {
	switch s := s.(type) {
	case Idle:
		return true
	case Busy:
		return s.Op == OpFetch
	default:
		return IsSelecting(s)
	}
}

func canSelect(m *Model, anchor int) bool {
	switch m.State.(type) {
	case Idle, SelectingSwap, SelectingDownload, SelectingDelete:
	default:
		return false
	}
	if !inRange(anchor) {
		return false
	}
	_, ok := saveOf(m.Page)
	return ok
}

func isBusy(s State, op BusyOp) bool {
	b, ok := s.(Busy)
	return ok && b.Op == op
}

func inRange(i int) bool { return i >= 0 && i < saves.SlotCount }

func clamp01(f float64) float64 { return min(max(f, 0), 1) }

// base is the page underneath any settings overlay.
func base(p Page) Page {
	if s, ok := p.(SettingsPage); ok {
		return base(s.Prev)
	}
	return p
}

// withBase replaces the page underneath any settings overlay.
func withBase(p Page, next Page) Page {
	if s, ok := p.(SettingsPage); ok {
		s.Prev = withBase(s.Prev, next)
		return s
	}
	return next
}
