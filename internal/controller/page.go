package controller

import (
	"github.com/jask/smmdbtui/internal/database/repository"
	"github.com/jask/smmdbtui/internal/emu"
	"github.com/jask/smmdbtui/internal/saves"
	"github.com/jask/smmdbtui/internal/settings"
)

// Page is the active view.
type Page interface {
	isPage()
}

// InitPage lists save folders to open.
type InitPage struct {
	Saves  []emu.Save
	Recent []repository.RecentSave
}

// SavePage shows the open save next to the catalog.
type SavePage struct {
	Handle *saves.Save
	Label  string
}

// SettingsPage edits Draft and returns to Prev when closed.
type SettingsPage struct {
	Draft settings.Settings
	Prev  Page
}

func (InitPage) isPage()     {}
func (SavePage) isPage()     {}
func (SettingsPage) isPage() {}

// saveOf returns the save page underneath p, looking through settings.
func saveOf(p Page) (SavePage, bool) {
	switch p := p.(type) {
	case SavePage:
		return p, p.Handle != nil
	case SettingsPage:
		return saveOf(p.Prev)
	default:
		return SavePage{}, false
	}
}
