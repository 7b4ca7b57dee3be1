package tui

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/smmdbtui/internal/controller"
	"github.com/jask/smmdbtui/internal/saves"
	"github.com/jask/smmdbtui/internal/smmdb"
)

type pane int

const (
	paneSlots pane = iota
	paneCourses
)

type filterField int

const (
	filterNone filterField = iota
	filterTitle
	filterUploader
)

// App is the bubbletea model. It owns no application state of its own
// beyond cursors and input widgets; everything else lives in the
// controller model and changes only through dispatch.
type App struct {
	model   *controller.Model
	effects *controller.Effects
	subs    *controller.Manager
	log     *slog.Logger
	keys    KeyMap

	startRef string

	width  int
	height int

	initCursor   int
	slotCursor   int
	courseCursor int
	focus        pane

	filtering filterField
	filter    textinput.Model

	apiKey        textinput.Model
	pageSize      textinput.Model
	settingsField int

	spinner spinner.Model
	bar     progress.Model
}

// Options configures New. OpenOnStart, when set, is opened right after the
// first catalog fetch is issued.
type Options struct {
	Log         *slog.Logger
	OpenOnStart string
}

func New(_ context.Context, model *controller.Model, effects *controller.Effects, subs *controller.Manager, opts Options) *App {
	logger := opts.Log
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	filter := textinput.New()
	filter.Prompt = "filter: "
	filter.CharLimit = 80

	apiKey := textinput.New()
	apiKey.Prompt = "API key:   "
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'

	pageSize := textinput.New()
	pageSize.Prompt = "Page size: "
	pageSize.CharLimit = 3

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return &App{
		model:    model,
		effects:  effects,
		subs:     subs,
		log:      logger,
		keys:     DefaultKeyMap,
		startRef: opts.OpenOnStart,
		filter:   filter,
		apiKey:   apiKey,
		pageSize: pageSize,
		spinner:  sp,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (a *App) Init() tea.Cmd {
	cmds := controller.Start(a.model)
	if a.startRef != "" {
		cmds = append(cmds, controller.Reduce(a.model, controller.OpenSave{Ref: a.startRef, Label: a.startRef})...)
	}
	return tea.Batch(a.effects.Run(cmds...), a.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.bar.Width = max(10, min(60, msg.Width-20))
		return a, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	case tea.KeyMsg:
		return a, a.handleKey(msg)
	case controller.Event:
		return a, a.dispatch(msg)
	}
	return a, nil
}

// dispatch is the single entry into the controller: reduce, run the
// resulting commands, then bring subscriptions in line with the new state.
func (a *App) dispatch(ev controller.Event) tea.Cmd {
	_, wasSettings := a.model.Page.(controller.SettingsPage)
	cmds := controller.Reduce(a.model, ev)
	if p, ok := a.model.Page.(controller.SettingsPage); ok && !wasSettings {
		a.loadSettingsInputs(p)
	}
	a.courseCursor = min(a.courseCursor, max(0, a.model.Catalog.Len()-1))
	return tea.Batch(a.effects.Run(cmds...), a.subs.Sync(a.model.State, ev))
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, a.keys.ForceQuit) {
		return a.quit()
	}
	switch p := a.model.Page.(type) {
	case controller.SettingsPage:
		return a.handleSettingsKey(msg, p)
	case controller.SavePage:
		if a.filtering != filterNone {
			return a.handleFilterKey(msg)
		}
		return a.handleSaveKey(msg)
	case controller.InitPage:
		return a.handleInitKey(msg, p)
	}
	return nil
}

func (a *App) quit() tea.Cmd {
	a.log.Info("quitting", "streams", a.subs.Active())
	a.subs.Close()
	return tea.Quit
}

// handleCommonKey covers keys shared by the init and save pages.
func (a *App) handleCommonKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a.quit(), true
	case key.Matches(msg, a.keys.Settings):
		return a.dispatch(controller.OpenSettings{}), true
	case key.Matches(msg, a.keys.OpenCustom):
		return a.dispatch(controller.OpenCustomSave{}), true
	case key.Matches(msg, a.keys.Cancel):
		if a.subs.CancelKeyActive() {
			return a.dispatch(controller.CancelSelection{}), true
		}
		return a.dispatch(controller.DismissError{}), true
	}
	return nil, false
}

func (a *App) handleInitKey(msg tea.KeyMsg, p controller.InitPage) tea.Cmd {
	if cmd, ok := a.handleCommonKey(msg); ok {
		return cmd
	}
	items := initItems(p)
	switch {
	case key.Matches(msg, a.keys.Up):
		a.initCursor = max(0, a.initCursor-1)
	case key.Matches(msg, a.keys.Down):
		a.initCursor = min(max(0, len(items)-1), a.initCursor+1)
	case key.Matches(msg, a.keys.Open):
		if a.initCursor < len(items) {
			it := items[a.initCursor]
			return a.dispatch(controller.OpenSave{Ref: it.path, Label: it.label})
		}
	}
	return nil
}

func (a *App) handleSaveKey(msg tea.KeyMsg) tea.Cmd {
	if cmd, ok := a.handleCommonKey(msg); ok {
		return cmd
	}
	k := a.keys
	switch {
	case key.Matches(msg, k.Focus):
		if a.focus == paneSlots {
			a.focus = paneCourses
		} else {
			a.focus = paneSlots
		}
	case key.Matches(msg, k.Up):
		a.move(-1)
	case key.Matches(msg, k.Down):
		a.move(1)

	case key.Matches(msg, k.Swap):
		return a.dispatch(controller.InitSwap{Anchor: a.slotCursor})
	case key.Matches(msg, k.Download):
		return a.dispatch(controller.InitDownload{Anchor: a.slotCursor})
	case key.Matches(msg, k.Delete):
		return a.dispatch(controller.InitDelete{Anchor: a.slotCursor})
	case key.Matches(msg, k.Confirm):
		return a.confirm()

	case key.Matches(msg, k.Upvote):
		return a.voteSelected(func(id string) controller.Event { return controller.Upvote{ID: id} })
	case key.Matches(msg, k.Downvote):
		return a.voteSelected(func(id string) controller.Event { return controller.Downvote{ID: id} })
	case key.Matches(msg, k.ResetVote):
		return a.voteSelected(func(id string) controller.Event { return controller.ResetVote{ID: id} })

	case key.Matches(msg, k.NextPage):
		return a.dispatch(controller.PaginateForward{})
	case key.Matches(msg, k.PrevPage):
		return a.dispatch(controller.PaginateBackward{})
	case key.Matches(msg, k.Refresh):
		return a.dispatch(controller.FetchCourses{})
	case key.Matches(msg, k.Sort):
		return a.dispatch(controller.SortChanged{Sort: a.model.Catalog.Params().Sort.Next()})
	case key.Matches(msg, k.Difficulty):
		return a.dispatch(controller.DifficultyChanged{Difficulty: nextDifficulty(a.model.Catalog.Params().Difficulty)})
	case key.Matches(msg, k.Title):
		return a.startFilter(filterTitle, a.model.Catalog.Params().Title)
	case key.Matches(msg, k.Uploader):
		return a.startFilter(filterUploader, a.model.Catalog.Params().Uploader)
	}
	return nil
}

func (a *App) move(delta int) {
	if a.focus == paneSlots {
		a.slotCursor = min(max(0, a.slotCursor+delta), saves.SlotCount-1)
		return
	}
	a.courseCursor = min(max(0, a.courseCursor+delta), max(0, a.model.Catalog.Len()-1))
}

// confirm completes the pending selection with the cursor position.
func (a *App) confirm() tea.Cmd {
	switch s := a.model.State.(type) {
	case controller.SelectingSwap:
		return a.dispatch(controller.Swap{Target: a.slotCursor})
	case controller.SelectingDelete:
		return a.dispatch(controller.Delete{Index: s.Anchor})
	case controller.SelectingDownload:
		e, ok := a.model.Catalog.At(a.courseCursor)
		if !ok {
			return nil
		}
		return a.dispatch(controller.Download{SaveIndex: s.Anchor, CourseID: e.ID})
	}
	return nil
}

func (a *App) voteSelected(mk func(id string) controller.Event) tea.Cmd {
	e, ok := a.model.Catalog.At(a.courseCursor)
	if !ok {
		return nil
	}
	return a.dispatch(mk(e.ID))
}

func (a *App) startFilter(f filterField, current string) tea.Cmd {
	a.filtering = f
	a.focus = paneCourses
	a.filter.SetValue(current)
	a.filter.CursorEnd()
	if f == filterUploader {
		a.filter.Prompt = "uploader: "
	} else {
		a.filter.Prompt = "title: "
	}
	return a.filter.Focus()
}

// handleFilterKey edits the title or uploader filter. While typing a title
// the course cursor follows the closest match on the current page; enter
// sends the filter to the server.
func (a *App) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Cancel):
		a.stopFilter()
		return nil
	case key.Matches(msg, a.keys.Confirm):
		value := a.filter.Value()
		field := a.filtering
		a.stopFilter()
		if field == filterUploader {
			return a.dispatch(controller.UploaderChanged{Uploader: value})
		}
		return a.dispatch(controller.TitleChanged{Title: value})
	}
	var cmd tea.Cmd
	a.filter, cmd = a.filter.Update(msg)
	if a.filtering == filterTitle {
		if i, ok := a.model.Catalog.Closest(a.filter.Value()); ok {
			a.courseCursor = i
		}
	}
	return cmd
}

func (a *App) stopFilter() {
	a.filtering = filterNone
	a.filter.Blur()
}

func (a *App) loadSettingsInputs(p controller.SettingsPage) {
	a.apiKey.SetValue(p.Draft.APIKey)
	a.pageSize.SetValue(strconv.Itoa(p.Draft.PageSize))
	a.settingsField = 0
	a.pageSize.Blur()
	a.apiKey.Focus()
}

func (a *App) handleSettingsKey(msg tea.KeyMsg, p controller.SettingsPage) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Cancel):
		return a.dispatch(controller.CloseSettings{})
	case key.Matches(msg, a.keys.Confirm):
		return a.dispatch(controller.TrySaveSettings{Settings: p.Draft})
	case key.Matches(msg, a.keys.Field):
		a.settingsField = 1 - a.settingsField
		if a.settingsField == 0 {
			a.pageSize.Blur()
			return a.apiKey.Focus()
		}
		a.apiKey.Blur()
		return a.pageSize.Focus()
	}

	var cmd tea.Cmd
	if a.settingsField == 0 {
		a.apiKey, cmd = a.apiKey.Update(msg)
		return tea.Batch(cmd, a.dispatch(controller.ChangeAPIKey{Key: a.apiKey.Value()}))
	}
	a.pageSize, cmd = a.pageSize.Update(msg)
	n, err := strconv.Atoi(a.pageSize.Value())
	if err != nil || n <= 0 {
		return cmd
	}
	return tea.Batch(cmd, a.dispatch(controller.ChangePageSize{Size: n}))
}

type initItem struct {
	label string
	path  string
	hint  string
}

// initItems lists detected saves first, then recently opened folders not
// already detected.
func initItems(p controller.InitPage) []initItem {
	seen := map[string]bool{}
	out := make([]initItem, 0, len(p.Saves)+len(p.Recent))
	for _, s := range p.Saves {
		seen[s.Path] = true
		out = append(out, initItem{label: s.Label, path: s.Path, hint: s.Emulator})
	}
	for _, r := range p.Recent {
		if seen[r.Path] {
			continue
		}
		out = append(out, initItem{label: r.Label, path: r.Path, hint: "recent"})
	}
	return out
}

var difficultyCycle = []smmdb.Difficulty{
	smmdb.DifficultyEasy,
	smmdb.DifficultyNormal,
	smmdb.DifficultyExpert,
	smmdb.DifficultySuperExpert,
}

// nextDifficulty cycles unset → easy → … → super expert → unset.
func nextDifficulty(cur *smmdb.Difficulty) *smmdb.Difficulty {
	if cur == nil {
		d := difficultyCycle[0]
		return &d
	}
	for i, d := range difficultyCycle {
		if d == *cur && i+1 < len(difficultyCycle) {
			next := difficultyCycle[i+1]
			return &next
		}
	}
	return nil
}
