package controller

import (
	"github.com/jask/smmdbtui/internal/catalog"
	"github.com/jask/smmdbtui/internal/emu"
	"github.com/jask/smmdbtui/internal/settings"
)

// Model is the controller's whole mutable state. Only Reduce writes it.
type Model struct {
	State    State
	Error    ErrorBanner
	Page     Page
	Settings settings.Settings
	Catalog  *catalog.Catalog

	fetchGen    uint64
	downloadGen uint64
}

// NewModel starts Idle on the init page listing detected saves.
func NewModel(st settings.Settings, detected []emu.Save) *Model {
	return &Model{
		State:    Idle{},
		Page:     InitPage{Saves: detected},
		Settings: st,
		Catalog:  catalog.New(st.PageSize),
	}
}

// FetchGen is the generation of the latest catalog fetch.
func (m *Model) FetchGen() uint64 { return m.fetchGen }

// Start returns the commands run once at startup: the first catalog page
// and the recent saves list.
func Start(m *Model) []Command {
	cmds := Reduce(m, FetchCourses{})
	return append(cmds, LoadRecentSavesCmd{})
}
