// Package emu finds Super Mario Maker 2 save folders of installed Switch
// emulators.
package emu

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
)

// TitleID is the Super Mario Maker 2 application id.
const TitleID = "01009B90006DC000"

// Save is a save folder offered on the init page.
type Save struct {
	Emulator string
	Label    string
	Path     string
}

// Roots are the base directories searched by Detect.
type Roots struct {
	DataHome   string // $XDG_DATA_HOME or the platform default
	ConfigHome string // $XDG_CONFIG_HOME or the platform default
	Extra      []string
}

// DefaultRoots resolves the XDG base directories for the current user,
// using the platform defaults when the variables are unset.
func DefaultRoots(extra []string) Roots {
	xdg.Reload()
	return Roots{
		DataHome:   xdg.DataHome,
		ConfigHome: xdg.ConfigHome,
		Extra:      extra,
	}
}

// yuzu forks share the nand layout.
var yuzuForks = []string{"yuzu", "suyu", "sudachi", "citron"}

// Detect returns every folder that looks like an SMM2 save, emulator saves
// first, then extra dirs in the given order. Duplicates are dropped.
func Detect(r Roots) []Save {
	var out []Save
	seen := map[string]bool{}
	add := func(s Save) {
		clean := filepath.Clean(s.Path)
		if seen[clean] || !IsSaveDir(clean) {
			return
		}
		seen[clean] = true
		s.Path = clean
		out = append(out, s)
	}

	for _, fork := range yuzuForks {
		pattern := filepath.Join(r.DataHome, fork, "nand", "user", "save", "0000000000000000", "*", TitleID)
		for _, dir := range glob(pattern) {
			add(Save{Emulator: fork, Label: fork + " " + shortID(filepath.Base(filepath.Dir(dir))), Path: dir})
		}
	}

	pattern := filepath.Join(r.ConfigHome, "Ryujinx", "bis", "user", "save", "*", "0")
	for _, dir := range glob(pattern) {
		add(Save{Emulator: "Ryujinx", Label: "Ryujinx " + filepath.Base(filepath.Dir(dir)), Path: dir})
	}

	for _, dir := range r.Extra {
		dir = expandHome(dir)
		add(Save{Emulator: "custom", Label: dir, Path: dir})
	}
	return out
}

// IsSaveDir reports whether dir holds save.dat or any course_data file.
func IsSaveDir(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "save.dat")); err == nil {
		return true
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "course_data_*.bcd"))
	return len(matches) > 0
}

func glob(pattern string) []string {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
