package controller

import (
	"github.com/jask/smmdbtui/internal/saves"
	"github.com/jask/smmdbtui/internal/settings"
	"github.com/jask/smmdbtui/internal/smmdb"
)

// Command describes one side effect. Each command yields exactly one Event.
type Command interface {
	isCommand()
}

type OpenSaveCmd struct {
	Ref   string
	Label string
}

type PickFolderCmd struct{}

// RememberSaveCmd records an opened save in the recent list. Best effort.
type RememberSaveCmd struct {
	Path  string
	Label string
}

type LoadRecentSavesCmd struct{}

type FetchCoursesCmd struct {
	Params smmdb.QueryParams
	APIKey string
	Gen    uint64
}

type FetchThumbnailCmd struct {
	ID  string
	Gen uint64
}

type VoteCmd struct {
	ID     string
	Value  int
	APIKey string
}

type SwapCmd struct {
	Handle *saves.Save
	A, B   int
}

type AddCourseCmd struct {
	Handle *saves.Save
	Slot   int
	Course saves.Course
}

type DeleteCmd struct {
	Handle *saves.Save
	Slot   int
}

// PersistSettingsCmd yields Noop on success and SettingsPersistFailed otherwise.
type PersistSettingsCmd struct {
	Settings settings.Settings
}

type ValidateCredentialCmd struct {
	Settings settings.Settings
}

// EmitCmd feeds Event straight back into the reducer.
type EmitCmd struct {
	Event Event
}

func (OpenSaveCmd) isCommand()           {}
func (PickFolderCmd) isCommand()         {}
func (RememberSaveCmd) isCommand()       {}
func (LoadRecentSavesCmd) isCommand()    {}
func (FetchCoursesCmd) isCommand()       {}
func (FetchThumbnailCmd) isCommand()     {}
func (VoteCmd) isCommand()               {}
func (SwapCmd) isCommand()               {}
func (AddCourseCmd) isCommand()          {}
func (DeleteCmd) isCommand()             {}
func (PersistSettingsCmd) isCommand()    {}
func (ValidateCredentialCmd) isCommand() {}
func (EmitCmd) isCommand()               {}
