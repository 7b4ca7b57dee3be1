package controller

import (
	"github.com/jask/smmdbtui/internal/database/repository"
	"github.com/jask/smmdbtui/internal/saves"
	"github.com/jask/smmdbtui/internal/settings"
	"github.com/jask/smmdbtui/internal/smmdb"
)

// Event is every input the controller accepts. Events are also tea.Msg
// values: effects return them and the TUI forwards them to Reduce.
type Event interface {
	isEvent()
}

type Noop struct{}

// save loading

type OpenSave struct {
	Ref   string
	Label string
}

type OpenCustomSave struct{}

type FolderPicked struct {
	Path string
}

type PickCancelled struct{}

type SaveOpened struct {
	Handle *saves.Save
	Label  string
}

type SaveOpenFailed struct {
	Reason string
}

type RecentSavesLoaded struct {
	Saves []repository.RecentSave
}

// catalog

type FetchCourses struct{}

type CoursesFetched struct {
	Courses []smmdb.Course
	Gen     uint64
}

type FetchFailed struct {
	Reason string
	Gen    uint64
}

type ThumbnailFetched struct {
	ID    string
	Bytes []byte
	Gen   uint64
}

type TitleChanged struct{ Title string }

type UploaderChanged struct{ Uploader string }

// DifficultyChanged with a nil Difficulty clears the filter.
type DifficultyChanged struct{ Difficulty *smmdb.Difficulty }

type SortChanged struct{ Sort smmdb.Sort }

type ApplyFilters struct {
	Title      string
	Uploader   string
	Difficulty *smmdb.Difficulty
	Sort       smmdb.Sort
}

type PaginateForward struct{}

type PaginateBackward struct{}

// votes

type Upvote struct{ ID string }

type Downvote struct{ ID string }

type ResetVote struct{ ID string }

type VoteConfirmed struct {
	ID    string
	Value int
}

type VoteFailed struct {
	ID     string
	Reason string
}

// save mutations

type InitSwap struct{ Anchor int }

type InitDownload struct{ Anchor int }

type InitDelete struct{ Anchor int }

type Swap struct{ Target int }

type Download struct {
	SaveIndex int
	CourseID  string
}

type DownloadProgressed struct {
	Gen      uint64
	Progress smmdb.Progress
}

type Delete struct{ Index int }

type CancelSelection struct{}

type MutationFailed struct {
	Reason string
}

// settings

type OpenSettings struct{}

type ChangeAPIKey struct{ Key string }

type ChangePageSize struct{ Size int }

type TrySaveSettings struct {
	Settings settings.Settings
}

type SettingsAccepted struct {
	Settings settings.Settings
}

type SettingsRejected struct {
	Reason string
}

type SettingsPersistFailed struct {
	Reason string
}

type CloseSettings struct{}

// misc

type ResetState struct{}

type DismissError struct{}

func (Noop) isEvent()                  {}
func (OpenSave) isEvent()              {}
func (OpenCustomSave) isEvent()        {}
func (FolderPicked) isEvent()          {}
func (PickCancelled) isEvent()         {}
func (SaveOpened) isEvent()            {}
func (SaveOpenFailed) isEvent()        {}
func (RecentSavesLoaded) isEvent()     {}
func (FetchCourses) isEvent()          {}
func (CoursesFetched) isEvent()        {}
func (FetchFailed) isEvent()           {}
func (ThumbnailFetched) isEvent()      {}
func (TitleChanged) isEvent()          {}
func (UploaderChanged) isEvent()       {}
func (DifficultyChanged) isEvent()     {}
func (SortChanged) isEvent()           {}
func (ApplyFilters) isEvent()          {}
func (PaginateForward) isEvent()       {}
func (PaginateBackward) isEvent()      {}
func (Upvote) isEvent()                {}
func (Downvote) isEvent()              {}
func (ResetVote) isEvent()             {}
func (VoteConfirmed) isEvent()         {}
func (VoteFailed) isEvent()            {}
func (InitSwap) isEvent()              {}
func (InitDownload) isEvent()          {}
func (InitDelete) isEvent()            {}
func (Swap) isEvent()                  {}
func (Download) isEvent()              {}
func (DownloadProgressed) isEvent()    {}
func (Delete) isEvent()                {}
func (CancelSelection) isEvent()       {}
func (MutationFailed) isEvent()        {}
func (OpenSettings) isEvent()          {}
func (ChangeAPIKey) isEvent()          {}
func (ChangePageSize) isEvent()        {}
func (TrySaveSettings) isEvent()       {}
func (SettingsAccepted) isEvent()      {}
func (SettingsRejected) isEvent()      {}
func (SettingsPersistFailed) isEvent() {}
func (CloseSettings) isEvent()         {}
func (ResetState) isEvent()            {}
func (DismissError) isEvent()          {}
