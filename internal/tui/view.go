package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/smmdbtui/internal/catalog"
	"github.com/jask/smmdbtui/internal/controller"
	"github.com/jask/smmdbtui/internal/saves"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle = lipgloss.NewStyle().Bold(true)
	anchorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	paneStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SMMDB"))
	if s := a.renderStatus(); s != "" {
		b.WriteString("  " + s)
	}
	b.WriteString("\n")
	if msg, ok := a.model.Error.Message(); ok {
		b.WriteString(bannerStyle.Render(msg) + "\n")
		b.WriteString(dimStyle.Render("esc to dismiss") + "\n")
	}
	b.WriteString("\n")

	switch p := a.model.Page.(type) {
	case controller.SettingsPage:
		b.WriteString(a.renderSettings(p))
	case controller.SavePage:
		b.WriteString(a.renderSave(p))
	case controller.InitPage:
		b.WriteString(a.renderInit(p))
	}
	return b.String()
}

func (a *App) renderStatus() string {
	switch s := a.model.State.(type) {
	case controller.Busy:
		return a.spinner.View() + " " + s.String()
	case controller.Downloading:
		return fmt.Sprintf("downloading %s into slot %d  %s", s.CourseID, s.SaveIndex, a.bar.ViewAs(s.Progress))
	case controller.SelectingSwap, controller.SelectingDownload, controller.SelectingDelete:
		return anchorStyle.Render(s.String()) + dimStyle.Render("  enter confirm  esc cancel")
	}
	return ""
}

func (a *App) renderInit(p controller.InitPage) string {
	var b strings.Builder
	items := initItems(p)
	if len(items) == 0 {
		b.WriteString("No emulator saves found.\n")
	} else {
		b.WriteString("Saves:\n")
	}
	for i, it := range items {
		line := fmt.Sprintf("%s  %s", it.label, dimStyle.Render(it.hint+"  "+it.path))
		if i == a.initCursor {
			b.WriteString(cursorStyle.Render("▶ ") + line + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(helpLine(a.keys.Up, a.keys.Down, a.keys.Open, a.keys.OpenCustom, a.keys.Settings, a.keys.Quit)))
	return b.String()
}

func (a *App) renderSave(p controller.SavePage) string {
	rows := a.listRows()
	left := a.renderSlots(p.Handle, rows)
	right := a.renderCourses(rows)
	var b strings.Builder
	b.WriteString(dimStyle.Render(p.Label) + "\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, paneStyle.Render(left), paneStyle.Render(right)))
	b.WriteString("\n")
	if a.filtering != filterNone {
		b.WriteString(a.filter.View() + "\n")
	}
	k := a.keys
	b.WriteString(dimStyle.Render(helpLine(k.Focus, k.Swap, k.Download, k.Delete, k.Upvote, k.Downvote, k.ResetVote)) + "\n")
	b.WriteString(dimStyle.Render(helpLine(k.NextPage, k.PrevPage, k.Title, k.Uploader, k.Difficulty, k.Sort, k.Refresh, k.OpenCustom, k.Settings, k.Quit)))
	return b.String()
}

// listRows is how many list lines fit beside the header and help.
func (a *App) listRows() int {
	if a.height <= 0 {
		return 20
	}
	return max(5, a.height-10)
}

// window returns the [start,end) range of n rows that keeps cursor visible.
func window(cursor, n, rows int) (int, int) {
	if n <= rows {
		return 0, n
	}
	start := min(max(0, cursor-rows/2), n-rows)
	return start, start + rows
}

func (a *App) renderSlots(h *saves.Save, rows int) string {
	var b strings.Builder
	header := fmt.Sprintf("Save (%d/%d)", h.Len(), saves.SlotCount)
	if a.focus == paneSlots {
		header = cursorStyle.Render(header)
	}
	b.WriteString(header + "\n")

	anchor := -1
	switch s := a.model.State.(type) {
	case controller.SelectingSwap:
		anchor = s.Anchor
	case controller.SelectingDownload:
		anchor = s.Anchor
	case controller.SelectingDelete:
		anchor = s.Anchor
	case controller.Downloading:
		anchor = s.SaveIndex
	}

	start, end := window(a.slotCursor, saves.SlotCount, rows)
	for i := start; i < end; i++ {
		label := dimStyle.Render("-")
		if slot, ok := h.Slot(i); ok {
			label = slotLabel(slot)
		}
		line := fmt.Sprintf("%3d  %s", i, label)
		switch {
		case i == anchor:
			line = anchorStyle.Render("* ") + line
		case i == a.slotCursor && a.focus == paneSlots:
			line = cursorStyle.Render("▶ ") + line
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func slotLabel(s saves.Slot) string {
	if s.Meta.Title == "" {
		return "(course)"
	}
	label := s.Meta.Title
	if s.Meta.Difficulty != "" {
		label += dimStyle.Render(" " + s.Meta.Difficulty)
	}
	return label
}

func (a *App) renderCourses(rows int) string {
	var b strings.Builder
	c := a.model.Catalog
	params := c.Params()
	header := fmt.Sprintf("SMMDB page %d  sort %s", c.Page()+1, params.Sort)
	if params.Difficulty != nil {
		header += "  " + params.Difficulty.Label()
	}
	if params.Title != "" {
		header += fmt.Sprintf("  title %q", params.Title)
	}
	if params.Uploader != "" {
		header += fmt.Sprintf("  by %q", params.Uploader)
	}
	if a.focus == paneCourses {
		header = cursorStyle.Render(header)
	}
	b.WriteString(header + "\n")

	if c.Len() == 0 {
		b.WriteString(dimStyle.Render("no courses") + "\n")
		return b.String()
	}
	start, end := window(a.courseCursor, c.Len(), rows)
	for i := start; i < end; i++ {
		e, _ := c.At(i)
		line := courseLine(e)
		if i == a.courseCursor && a.focus == paneCourses {
			line = cursorStyle.Render("▶ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func courseLine(e *catalog.Entry) string {
	thumb := " "
	if len(e.Thumbnail) > 0 {
		thumb = "▣"
	}
	vote := " "
	switch {
	case e.OwnVote > 0:
		vote = "▲"
	case e.OwnVote < 0:
		vote = "▼"
	}
	diff := ""
	if e.Difficulty != nil {
		diff = e.Difficulty.Label()
	}
	return fmt.Sprintf("%s %-32.32s %-16.16s %-12s %4d %s", thumb, e.Title, e.Uploader, diff, e.Votes, vote)
}

func (a *App) renderSettings(p controller.SettingsPage) string {
	var b strings.Builder
	b.WriteString("Settings\n\n")
	b.WriteString(a.fieldMarker(0) + a.apiKey.View() + "\n")
	b.WriteString(a.fieldMarker(1) + a.pageSize.View() + "\n\n")
	if _, ok := p.Draft.Credential(); !ok {
		b.WriteString(dimStyle.Render("No API key: voting is disabled.") + "\n\n")
	}
	b.WriteString(dimStyle.Render(helpLine(a.keys.Field, a.keys.Confirm, a.keys.Cancel)))
	return b.String()
}

func (a *App) fieldMarker(i int) string {
	if a.settingsField == i {
		return cursorStyle.Render("▶ ")
	}
	return "  "
}
