package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the app reacts to. Which ones are live depends
// on the page and on whether a text input has focus.
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Focus key.Binding // switch between the slot and course panes
	Field key.Binding // next settings field

	Open       key.Binding
	OpenCustom key.Binding
	Confirm    key.Binding
	Cancel     key.Binding

	Swap     key.Binding
	Download key.Binding
	Delete   key.Binding

	Upvote    key.Binding
	Downvote  key.Binding
	ResetVote key.Binding

	NextPage   key.Binding
	PrevPage   key.Binding
	Refresh    key.Binding
	Title      key.Binding
	Uploader   key.Binding
	Difficulty key.Binding
	Sort       key.Binding

	Settings  key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Focus: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch pane"),
	),
	Field: key.NewBinding(
		key.WithKeys("tab", "shift+tab", "up", "down"),
		key.WithHelp("tab", "next field"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	OpenCustom: key.NewBinding(
		key.WithKeys("O"),
		key.WithHelp("O", "open folder…"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	Swap: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "swap"),
	),
	Download: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "download"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "delete"),
	),
	Upvote: key.NewBinding(
		key.WithKeys("+"),
		key.WithHelp("+", "upvote"),
	),
	Downvote: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "downvote"),
	),
	ResetVote: key.NewBinding(
		key.WithKeys("0"),
		key.WithHelp("0", "reset vote"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("n", "pgdown"),
		key.WithHelp("n", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("p", "pgup"),
		key.WithHelp("p", "prev page"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Title: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "title"),
	),
	Uploader: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "uploader"),
	),
	Difficulty: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "difficulty"),
	),
	Sort: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "sort"),
	),
	Settings: key.NewBinding(
		key.WithKeys(","),
		key.WithHelp(",", "settings"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	ForceQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
	),
}

// helpLine renders bindings as "key action" pairs.
func helpLine(bindings ...key.Binding) string {
	out := ""
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		if out != "" {
			out += "  "
		}
		out += h.Key + " " + h.Desc
	}
	return out
}
