package smmdb

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Difficulty is the course difficulty tag assigned on SMMDB.
type Difficulty int

const (
	DifficultyUnset Difficulty = iota
	DifficultyEasy
	DifficultyNormal
	DifficultyExpert
	DifficultySuperExpert
)

var difficultyNames = map[Difficulty]string{
	DifficultyUnset:       "unset",
	DifficultyEasy:        "easy",
	DifficultyNormal:      "normal",
	DifficultyExpert:      "expert",
	DifficultySuperExpert: "superexpert",
}

func (d Difficulty) String() string {
	if s, ok := difficultyNames[d]; ok {
		return s
	}
	return "unset"
}

// Label is the human readable form shown in the course list.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyNormal:
		return "Normal"
	case DifficultyExpert:
		return "Expert"
	case DifficultySuperExpert:
		return "Super Expert"
	default:
		return ""
	}
}

// ParseDifficulty accepts the API spelling ("superexpert") as well as
// loosely typed user input ("Super Expert").
func ParseDifficulty(s string) (Difficulty, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	for d, name := range difficultyNames {
		if name == norm {
			return d, nil
		}
	}
	return DifficultyUnset, fmt.Errorf("unknown difficulty %q", s)
}

func (d Difficulty) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Difficulty) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDifficulty(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Course is one course summary as returned by the courses2 endpoint,
// flattened from the nested course header.
type Course struct {
	ID           string
	Owner        string
	Uploader     string
	Title        string
	Description  string
	Difficulty   *Difficulty
	Votes        int
	OwnVote      int
	LastModified int64
	Uploaded     int64
}

type courseResponse struct {
	ID           string      `json:"id"`
	Owner        string      `json:"owner"`
	Uploader     string      `json:"uploader"`
	Difficulty   *Difficulty `json:"difficulty,omitempty"`
	Votes        int         `json:"votes"`
	OwnVote      int         `json:"own_vote"`
	LastModified int64       `json:"last_modified"`
	Uploaded     int64       `json:"uploaded"`
	Course       struct {
		Header struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"header"`
	} `json:"course"`
}

func (r courseResponse) course() Course {
	return Course{
		ID:           r.ID,
		Owner:        r.Owner,
		Uploader:     r.Uploader,
		Title:        r.Course.Header.Title,
		Description:  r.Course.Header.Description,
		Difficulty:   r.Difficulty,
		Votes:        r.Votes,
		OwnVote:      clampVote(r.OwnVote),
		LastModified: r.LastModified,
		Uploaded:     r.Uploaded,
	}
}

func clampVote(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// SortField names a server-side sort key.
type SortField string

const (
	SortLastModified SortField = "last_modified"
	SortUploaded     SortField = "uploaded"
	SortTitle        SortField = "title"
	SortVotes        SortField = "votes"
)

// SortFields lists the sort keys in the order the UI cycles through them.
var SortFields = []SortField{SortLastModified, SortUploaded, SortTitle, SortVotes}

// Sort is one sort option. Desc mirrors the API's dir=-1.
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort is newest first.
var DefaultSort = Sort{Field: SortLastModified, Desc: true}

func (s Sort) String() string {
	dir := "asc"
	if s.Desc {
		dir = "desc"
	}
	return fmt.Sprintf("%s %s", s.Field, dir)
}

// Next cycles through every field in both directions.
func (s Sort) Next() Sort {
	if s.Desc {
		return Sort{Field: s.Field, Desc: false}
	}
	for i, f := range SortFields {
		if f == s.Field {
			return Sort{Field: SortFields[(i+1)%len(SortFields)], Desc: true}
		}
	}
	return DefaultSort
}

// QueryParams is one page request against the courses2 endpoint.
type QueryParams struct {
	Limit      int
	Skip       int
	Title      string
	Uploader   string
	Difficulty *Difficulty
	Sort       Sort
}

// DefaultQueryParams returns the first page with no filters.
func DefaultQueryParams(limit int) QueryParams {
	if limit <= 0 {
		limit = 10
	}
	return QueryParams{Limit: limit, Sort: DefaultSort}
}

// Page is the zero-based page index derived from Skip and Limit.
func (q QueryParams) Page() int {
	if q.Limit <= 0 {
		return 0
	}
	return q.Skip / q.Limit
}

type sortParam struct {
	Val string `json:"val"`
	Dir int    `json:"dir"`
}

// Values encodes the params the way the API expects them.
func (q QueryParams) Values() url.Values {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("skip", strconv.Itoa(q.Skip))
	if t := strings.TrimSpace(q.Title); t != "" {
		v.Set("title", t)
	}
	if u := strings.TrimSpace(q.Uploader); u != "" {
		v.Set("uploader", u)
	}
	if q.Difficulty != nil {
		v.Set("difficulty", q.Difficulty.String())
	}
	if q.Sort.Field != "" {
		dir := 1
		if q.Sort.Desc {
			dir = -1
		}
		raw, _ := json.Marshal([]sortParam{{Val: string(q.Sort.Field), Dir: dir}})
		v.Set("sort", string(raw))
	}
	return v
}

// ProgressKind tags a download progress event.
type ProgressKind int

const (
	ProgressStarted ProgressKind = iota
	ProgressAdvanced
	ProgressFinished
	ProgressErrored
)

func (k ProgressKind) String() string {
	switch k {
	case ProgressStarted:
		return "started"
	case ProgressAdvanced:
		return "advanced"
	case ProgressFinished:
		return "finished"
	case ProgressErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Progress is one element of a download stream. Fraction is set for
// Advanced, Payload for Finished and Err for Errored.
type Progress struct {
	Kind     ProgressKind
	Fraction float64
	Payload  []byte
	Err      error
}

// Terminal reports whether no further events follow this one.
func (p Progress) Terminal() bool {
	return p.Kind == ProgressFinished || p.Kind == ProgressErrored
}

func Started() Progress { return Progress{Kind: ProgressStarted} }
func Advanced(fraction float64) Progress { return Progress{Kind: ProgressAdvanced, Fraction: fraction} }
func Finished(payload []byte) Progress { return Progress{Kind: ProgressFinished, Payload: payload} }
func Errored(err error) Progress { return Progress{Kind: ProgressErrored, Err: err} }
