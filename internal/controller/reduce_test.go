package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/smmdbtui/internal/saves"
	"github.com/jask/smmdbtui/internal/settings"
	"github.com/jask/smmdbtui/internal/smmdb"
)

func newWorkflow(t *testing.T) *saves.Workflow {
	t.Helper()
	lib, err := saves.NewFolderLibrary()
	require.NoError(t, err)
	return saves.NewWorkflow(lib)
}

func saveDir(t *testing.T, slots ...int) string {
	t.Helper()
	dir := t.TempDir()
	for _, i := range slots {
		name := filepath.Join(dir, fmt.Sprintf("course_data_%03d.bcd", i))
		require.NoError(t, os.WriteFile(name, []byte("course"), 0o644))
	}
	return dir
}

// openModel returns an Idle model on the save page of a fresh save.
func openModel(t *testing.T, st settings.Settings, slots ...int) (*Model, *saves.Workflow, *saves.Save) {
	t.Helper()
	w := newWorkflow(t)
	h, err := w.Open(context.Background(), saveDir(t, slots...))
	require.NoError(t, err)
	if st.PageSize == 0 {
		st.PageSize = 10
	}
	m := NewModel(st, nil)
	Reduce(m, SaveOpened{Handle: h, Label: "test"})
	return m, w, h
}

func course(id string) smmdb.Course {
	return smmdb.Course{ID: id, Title: "Course " + id}
}

func TestCancelAfterInitiateReturnsToIdle(t *testing.T) {
	t.Parallel()

	m, _, h := openModel(t, settings.Settings{}, 0, 1)
	for _, ev := range []Event{InitSwap{Anchor: 0}, InitDownload{Anchor: 1}, InitDelete{Anchor: 0}} {
		require.Empty(t, Reduce(m, ev))
		require.True(t, IsSelecting(m.State), "%T", ev)
		require.Empty(t, Reduce(m, CancelSelection{}))
		require.Equal(t, Idle{}, m.State)
		require.Equal(t, 2, h.Len())
	}
}

func TestSwapOnlyFromSelectingSwap(t *testing.T) {
	t.Parallel()

	for _, st := range []State{
		Idle{},
		Busy{Op: OpFetch},
		Busy{Op: OpMutate},
		SelectingDownload{Anchor: 0},
		SelectingDelete{Anchor: 0},
		Downloading{SaveIndex: 0, CourseID: "x", Gen: 1},
	} {
		m, _, _ := openModel(t, settings.Settings{}, 0)
		m.Catalog.Replace([]smmdb.Course{course("a")})
		m.State = st
		require.Empty(t, Reduce(m, Swap{Target: 3}), "%T", st)
		require.Equal(t, st, m.State)
		require.Equal(t, 1, m.Catalog.Len())
	}
}

func TestSwapEmitsCommandAndSelfSwapIsNoop(t *testing.T) {
	t.Parallel()

	m, _, h := openModel(t, settings.Settings{}, 0)
	Reduce(m, InitSwap{Anchor: 0})
	require.Empty(t, Reduce(m, Swap{Target: 0}))
	require.Equal(t, Idle{}, m.State)

	Reduce(m, InitSwap{Anchor: 0})
	cmds := Reduce(m, Swap{Target: 5})
	require.Equal(t, []Command{SwapCmd{Handle: h, A: 0, B: 5}}, cmds)
	require.Equal(t, Busy{Op: OpMutate}, m.State)

	// no second mutation while one is in flight
	require.Empty(t, Reduce(m, InitDelete{Anchor: 0}))
	require.Equal(t, Busy{Op: OpMutate}, m.State)

	Reduce(m, ResetState{})
	require.Equal(t, Idle{}, m.State)
}

func TestInitRequiresOpenSaveAndRange(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{PageSize: 10}, nil)
	Reduce(m, InitSwap{Anchor: 0})
	require.Equal(t, Idle{}, m.State)

	m, _, _ = openModel(t, settings.Settings{})
	Reduce(m, InitDelete{Anchor: saves.SlotCount})
	require.Equal(t, Idle{}, m.State)
	Reduce(m, InitDelete{Anchor: -1})
	require.Equal(t, Idle{}, m.State)
}

func TestCoursesFetchedReplacesCatalog(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{PageSize: 10}, nil)
	m.Catalog.Replace([]smmdb.Course{course("old")})
	require.True(t, m.Catalog.SetOwnVote("old", 1))

	cmds := Start(m)
	require.Equal(t, Busy{Op: OpFetch}, m.State)
	require.Len(t, cmds, 2)
	fc := cmds[0].(FetchCoursesCmd)
	require.Equal(t, m.FetchGen(), fc.Gen)
	require.Empty(t, fc.APIKey)
	require.IsType(t, LoadRecentSavesCmd{}, cmds[1])

	cmds = Reduce(m, CoursesFetched{Courses: []smmdb.Course{course("c1"), course("c2"), course("c3")}, Gen: fc.Gen})
	require.Equal(t, Idle{}, m.State)
	require.Equal(t, 3, m.Catalog.Len())
	for _, e := range m.Catalog.Courses() {
		require.Equal(t, 0, e.OwnVote)
	}
	_, ok := m.Catalog.Course("old")
	require.False(t, ok)
	require.ElementsMatch(t, []Command{
		FetchThumbnailCmd{ID: "c1", Gen: fc.Gen},
		FetchThumbnailCmd{ID: "c2", Gen: fc.Gen},
		FetchThumbnailCmd{ID: "c3", Gen: fc.Gen},
	}, cmds)

	Reduce(m, ThumbnailFetched{ID: "c2", Bytes: []byte("png"), Gen: fc.Gen})
	for _, e := range m.Catalog.Courses() {
		if e.ID == "c2" {
			require.Equal(t, []byte("png"), e.Thumbnail)
		} else {
			require.Nil(t, e.Thumbnail)
		}
	}
}

func TestStaleFetchResultsAreDropped(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{PageSize: 10}, nil)
	first := Reduce(m, FetchCourses{})[0].(FetchCoursesCmd)
	second := Reduce(m, PaginateForward{})[0].(FetchCoursesCmd)
	require.Greater(t, second.Gen, first.Gen)
	require.Equal(t, 10, second.Params.Skip)

	Reduce(m, CoursesFetched{Courses: []smmdb.Course{course("stale")}, Gen: first.Gen})
	require.Equal(t, 0, m.Catalog.Len())
	require.Equal(t, Busy{Op: OpFetch}, m.State)

	Reduce(m, FetchFailed{Reason: "late", Gen: first.Gen})
	_, set := m.Error.Message()
	require.False(t, set)

	Reduce(m, CoursesFetched{Courses: []smmdb.Course{course("fresh")}, Gen: second.Gen})
	require.Equal(t, Idle{}, m.State)
	Reduce(m, ThumbnailFetched{ID: "fresh", Bytes: []byte("x"), Gen: first.Gen})
	e, _ := m.Catalog.Course("fresh")
	require.Nil(t, e.Thumbnail)
}

func TestFetchFailureSetsBannerAndReturnsToIdle(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{PageSize: 10}, nil)
	fc := Reduce(m, FetchCourses{})[0].(FetchCoursesCmd)
	Reduce(m, FetchFailed{Reason: "timeout", Gen: fc.Gen})
	require.Equal(t, Idle{}, m.State)
	msg, ok := m.Error.Message()
	require.True(t, ok)
	require.Contains(t, msg, "timeout")
}

func TestFetchKeepsPendingSelection(t *testing.T) {
	t.Parallel()

	m, _, _ := openModel(t, settings.Settings{}, 0)
	Reduce(m, InitDelete{Anchor: 0})
	cmds := Reduce(m, FetchCourses{})
	require.Len(t, cmds, 1)
	require.Equal(t, SelectingDelete{Anchor: 0}, m.State)
	Reduce(m, CoursesFetched{Gen: m.FetchGen()})
	require.Equal(t, SelectingDelete{Anchor: 0}, m.State)
}

func TestFilterChangeResetsPagination(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{PageSize: 10}, nil)
	for i := 0; i < 3; i++ {
		Reduce(m, PaginateForward{})
	}
	require.Equal(t, 3, m.Catalog.Page())

	fc := Reduce(m, TitleChanged{Title: "mario"})[0].(FetchCoursesCmd)
	require.Equal(t, 0, fc.Params.Page())
	require.Equal(t, "mario", fc.Params.Title)

	expert := smmdb.DifficultyExpert
	Reduce(m, PaginateForward{})
	fc = Reduce(m, ApplyFilters{Title: "t", Uploader: "u", Difficulty: &expert, Sort: smmdb.Sort{Field: smmdb.SortVotes}})[0].(FetchCoursesCmd)
	require.Equal(t, 0, fc.Params.Skip)
	require.Equal(t, "u", fc.Params.Uploader)
	require.Equal(t, smmdb.SortVotes, fc.Params.Sort.Field)

	fc = Reduce(m, PaginateBackward{})[0].(FetchCoursesCmd)
	require.Equal(t, 0, fc.Params.Skip)
}

func startDownload(t *testing.T, m *Model, slot int, id string) Downloading {
	t.Helper()
	Reduce(m, InitDownload{Anchor: slot})
	require.Empty(t, Reduce(m, Download{SaveIndex: slot, CourseID: id}))
	d, ok := m.State.(Downloading)
	require.True(t, ok)
	return d
}

func TestDownloadProgressIsMonotonic(t *testing.T) {
	t.Parallel()

	m, _, h := openModel(t, settings.Settings{})
	hard := smmdb.DifficultyExpert
	m.Catalog.Replace([]smmdb.Course{{ID: "abc", Title: "Lava", Difficulty: &hard}})
	d := startDownload(t, m, 4, "abc")
	require.Equal(t, 0.0, d.Progress)

	steps := []struct {
		p    smmdb.Progress
		want float64
	}{
		{smmdb.Started(), 0},
		{smmdb.Advanced(0.3), 0.3},
		{smmdb.Advanced(0.7), 0.7},
		{smmdb.Advanced(0.5), 0.7},
		{smmdb.Advanced(1.4), 1},
	}
	for _, s := range steps {
		require.Empty(t, Reduce(m, DownloadProgressed{Gen: d.Gen, Progress: s.p}))
		require.Equal(t, s.want, m.State.(Downloading).Progress)
	}

	cmds := Reduce(m, DownloadProgressed{Gen: d.Gen, Progress: smmdb.Finished(make([]byte, smmdb.CourseDataSize))})
	require.Equal(t, Busy{Op: OpMutate}, m.State)
	require.Len(t, cmds, 1)
	add := cmds[0].(AddCourseCmd)
	require.Same(t, h, add.Handle)
	require.Equal(t, 4, add.Slot)
	require.Equal(t, saves.Meta{SMMDBID: "abc", Title: "Lava", Difficulty: "expert"}, add.Course.Meta)

	Reduce(m, ResetState{})
	require.Equal(t, Idle{}, m.State)
}

func TestStaleDownloadProgressIsIgnored(t *testing.T) {
	t.Parallel()

	m, _, _ := openModel(t, settings.Settings{})
	first := startDownload(t, m, 0, "a")
	Reduce(m, DownloadProgressed{Gen: first.Gen, Progress: smmdb.Errored(errors.New("x"))})
	require.Equal(t, Idle{}, m.State)

	second := startDownload(t, m, 1, "b")
	require.NotEqual(t, first.Gen, second.Gen)
	Reduce(m, DownloadProgressed{Gen: first.Gen, Progress: smmdb.Advanced(0.9)})
	require.Equal(t, 0.0, m.State.(Downloading).Progress)

	// progress after leaving Downloading is dropped
	Reduce(m, ResetState{})
	require.Empty(t, Reduce(m, DownloadProgressed{Gen: second.Gen, Progress: smmdb.Finished(make([]byte, smmdb.CourseDataSize))}))
	require.Equal(t, Idle{}, m.State)
}

func TestDownloadErrorsSetBanner(t *testing.T) {
	t.Parallel()

	m, _, _ := openModel(t, settings.Settings{})
	d := startDownload(t, m, 0, "a")
	Reduce(m, DownloadProgressed{Gen: d.Gen, Progress: smmdb.Errored(errors.New("connection reset"))})
	require.Equal(t, Idle{}, m.State)
	msg, _ := m.Error.Message()
	require.Equal(t, "Download failed: connection reset", msg)

	d = startDownload(t, m, 0, "a")
	require.Empty(t, Reduce(m, DownloadProgressed{Gen: d.Gen, Progress: smmdb.Finished([]byte("junk"))}))
	require.Equal(t, Idle{}, m.State)
	msg, _ = m.Error.Message()
	require.Contains(t, msg, "Download failed")
}

func TestDownloadOnlyFromSelectingDownload(t *testing.T) {
	t.Parallel()

	m, _, _ := openModel(t, settings.Settings{})
	Reduce(m, InitSwap{Anchor: 0})
	Reduce(m, Download{SaveIndex: 0, CourseID: "a"})
	require.Equal(t, SelectingSwap{Anchor: 0}, m.State)
}

func TestVoteRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{APIKey: "k", PageSize: 10}, nil)
	m.Catalog.Replace([]smmdb.Course{course("abc")})

	cmds := Reduce(m, Upvote{ID: "abc"})
	require.Equal(t, []Command{VoteCmd{ID: "abc", Value: 1, APIKey: "k"}}, cmds)
	e, _ := m.Catalog.Course("abc")
	require.Equal(t, 0, e.OwnVote)

	Reduce(m, VoteConfirmed{ID: "abc", Value: 1})
	require.Equal(t, 1, e.OwnVote)

	cmds = Reduce(m, Upvote{ID: "abc"})
	require.Equal(t, []Command{VoteCmd{ID: "abc", Value: 0, APIKey: "k"}}, cmds)

	Reduce(m, VoteConfirmed{ID: "abc", Value: -1})
	cmds = Reduce(m, Downvote{ID: "abc"})
	require.Equal(t, 0, cmds[0].(VoteCmd).Value)
	cmds = Reduce(m, ResetVote{ID: "abc"})
	require.Equal(t, 0, cmds[0].(VoteCmd).Value)
}

func TestVoteWithoutCredentialIsNoop(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{APIKey: "  ", PageSize: 10}, nil)
	m.Catalog.Replace([]smmdb.Course{course("abc")})
	require.Empty(t, Reduce(m, Upvote{ID: "abc"}))
	_, set := m.Error.Message()
	require.False(t, set)
}

func TestVoteFailureKeepsStateAndVote(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{APIKey: "k", PageSize: 10}, nil)
	m.Catalog.Replace([]smmdb.Course{course("abc")})
	Reduce(m, Upvote{ID: "abc"})
	Reduce(m, VoteFailed{ID: "abc", Reason: "network down"})
	require.Equal(t, Idle{}, m.State)
	e, _ := m.Catalog.Course("abc")
	require.Equal(t, 0, e.OwnVote)
	msg, ok := m.Error.Message()
	require.True(t, ok)
	require.Contains(t, msg, "network down")
}

func TestOpenSaveFlow(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{PageSize: 10}, nil)
	cmds := Reduce(m, OpenSave{Ref: "/save1", Label: "yuzu"})
	require.Equal(t, []Command{OpenSaveCmd{Ref: "/save1", Label: "yuzu"}}, cmds)
	require.Equal(t, Busy{Op: OpOpen}, m.State)

	require.Empty(t, Reduce(m, OpenSave{Ref: "/save2"}))

	Reduce(m, SaveOpenFailed{Reason: "no such folder"})
	require.Equal(t, Idle{}, m.State)
	msg, _ := m.Error.Message()
	require.Equal(t, "Could not load save file. Full error:\nno such folder", msg)
	require.IsType(t, InitPage{}, m.Page)
}

func TestOpenCustomSaveFlow(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{PageSize: 10}, nil)
	require.Equal(t, []Command{PickFolderCmd{}}, Reduce(m, OpenCustomSave{}))
	Reduce(m, PickCancelled{})
	require.Equal(t, Idle{}, m.State)

	Reduce(m, OpenCustomSave{})
	cmds := Reduce(m, FolderPicked{Path: "/picked"})
	require.Equal(t, []Command{OpenSaveCmd{Ref: "/picked", Label: "/picked"}}, cmds)
	require.Equal(t, Busy{Op: OpOpen}, m.State)

	// a stray pick result outside the open flow is ignored
	Reduce(m, ResetState{})
	require.Empty(t, Reduce(m, FolderPicked{Path: "/late"}))
}

func TestMutationFailureSetsBanner(t *testing.T) {
	t.Parallel()

	m, _, _ := openModel(t, settings.Settings{}, 0)
	Reduce(m, InitDelete{Anchor: 0})
	require.Len(t, Reduce(m, Delete{Index: 0}), 1)
	Reduce(m, MutationFailed{Reason: "delete slot 0: permission denied"})
	require.Equal(t, Idle{}, m.State)
	msg, _ := m.Error.Message()
	require.Contains(t, msg, "permission denied")
}

func TestSettingsWithCredential(t *testing.T) {
	t.Parallel()

	m, _, _ := openModel(t, settings.Settings{APIKey: "old"})
	Reduce(m, InitSwap{Anchor: 0})
	Reduce(m, OpenSettings{})
	require.Equal(t, Idle{}, m.State)
	sp := m.Page.(SettingsPage)
	require.Equal(t, "old", sp.Draft.APIKey)
	require.IsType(t, SavePage{}, sp.Prev)

	// already open: no-op
	Reduce(m, OpenSettings{})
	require.IsType(t, SavePage{}, m.Page.(SettingsPage).Prev)

	Reduce(m, ChangeAPIKey{Key: "new"})
	draft := m.Page.(SettingsPage).Draft
	require.Equal(t, "new", draft.APIKey)

	cmds := Reduce(m, TrySaveSettings{Settings: draft})
	require.Equal(t, []Command{PersistSettingsCmd{Settings: draft}, ValidateCredentialCmd{Settings: draft}}, cmds)
	require.Equal(t, Busy{Op: OpSettings}, m.State)

	cmds = Reduce(m, SettingsRejected{Reason: "401"})
	require.Equal(t, Idle{}, m.State)
	require.Equal(t, []Command{PersistSettingsCmd{Settings: settings.Settings{APIKey: "old", PageSize: 10}}}, cmds)
	require.IsType(t, SettingsPage{}, m.Page)
	_, set := m.Error.Message()
	require.True(t, set)

	Reduce(m, TrySaveSettings{Settings: draft})
	cmds = Reduce(m, SettingsAccepted{Settings: draft})
	require.Equal(t, Busy{Op: OpFetch}, m.State)
	require.Equal(t, "new", m.Settings.APIKey)
	require.IsType(t, SavePage{}, m.Page)
	_, set = m.Error.Message()
	require.False(t, set)
	require.Len(t, cmds, 2)
	require.Equal(t, PersistSettingsCmd{Settings: draft}, cmds[0])
	require.Equal(t, "new", cmds[1].(FetchCoursesCmd).APIKey)
}

func TestSettingsWithoutCredential(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{PageSize: 10}, nil)
	require.Empty(t, Reduce(m, TrySaveSettings{}))

	Reduce(m, OpenSettings{})
	Reduce(m, ChangePageSize{Size: 25})
	draft := m.Page.(SettingsPage).Draft
	cmds := Reduce(m, TrySaveSettings{Settings: draft})
	require.Equal(t, []Command{PersistSettingsCmd{Settings: draft}, EmitCmd{Event: SettingsAccepted{Settings: draft}}}, cmds)
	require.Equal(t, Idle{}, m.State)

	cmds = Reduce(m, SettingsAccepted{Settings: draft})
	require.Equal(t, 25, cmds[1].(FetchCoursesCmd).Params.Limit)
	require.IsType(t, InitPage{}, m.Page)

	Reduce(m, SettingsPersistFailed{Reason: "disk full"})
	msg, _ := m.Error.Message()
	require.Contains(t, msg, "disk full")
}

func TestCloseSettingsReturnsToPrevious(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{PageSize: 10}, nil)
	m.Error = Banner("old")
	Reduce(m, OpenSettings{})
	Reduce(m, ChangeAPIKey{Key: "discarded"})
	Reduce(m, CloseSettings{})
	require.IsType(t, InitPage{}, m.Page)
	require.Empty(t, m.Settings.APIKey)
	_, set := m.Error.Message()
	require.False(t, set)
}

func TestSaveOpenedUnderSettingsKeepsOverlay(t *testing.T) {
	t.Parallel()

	w := newWorkflow(t)
	h, err := w.Open(context.Background(), saveDir(t))
	require.NoError(t, err)

	m := NewModel(settings.Settings{PageSize: 10}, nil)
	Reduce(m, OpenSave{Ref: h.Dir()})
	Reduce(m, OpenSettings{})
	cmds := Reduce(m, SaveOpened{Handle: h, Label: "x"})
	require.Equal(t, []Command{RememberSaveCmd{Path: h.Dir(), Label: "x"}}, cmds)
	require.Equal(t, Idle{}, m.State)
	sp := m.Page.(SettingsPage)
	require.Equal(t, SavePage{Handle: h, Label: "x"}, sp.Prev)
}

func TestDismissAndReset(t *testing.T) {
	t.Parallel()

	m := NewModel(settings.Settings{PageSize: 10}, nil)
	m.Error = Banner("boom")
	Reduce(m, DismissError{})
	_, set := m.Error.Message()
	require.False(t, set)

	m.State = Busy{Op: OpMutate}
	m.Error = Banner("boom")
	Reduce(m, ResetState{})
	require.Equal(t, Idle{}, m.State)
	_, set = m.Error.Message()
	require.False(t, set)
}
