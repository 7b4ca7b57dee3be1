// Package catalog holds the page of SMMDB courses currently on screen along
// with the query that produced it.
package catalog

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/smmdbtui/internal/smmdb"
)

// Entry is a fetched course plus the thumbnail that arrives after it.
type Entry struct {
	smmdb.Course
	Thumbnail []byte
}

// Catalog is mutated only from the controller's event loop.
type Catalog struct {
	params  smmdb.QueryParams
	entries []*Entry
	byID    map[string]*Entry
}

func New(pageSize int) *Catalog {
	return &Catalog{
		params: smmdb.DefaultQueryParams(pageSize),
		byID:   map[string]*Entry{},
	}
}

// Replace discards the current page and installs courses in order.
func (c *Catalog) Replace(courses []smmdb.Course) {
	c.entries = make([]*Entry, 0, len(courses))
	c.byID = make(map[string]*Entry, len(courses))
	for _, course := range courses {
		e := &Entry{Course: course}
		c.entries = append(c.entries, e)
		c.byID[course.ID] = e
	}
}

// Courses returns the entries in server order. Callers must not mutate them.
func (c *Catalog) Courses() []*Entry { return c.entries }

func (c *Catalog) Len() int { return len(c.entries) }

// Course looks up an entry by SMMDB id.
func (c *Catalog) Course(id string) (*Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// At returns the entry at position i of the current page.
func (c *Catalog) At(i int) (*Entry, bool) {
	if i < 0 || i >= len(c.entries) {
		return nil, false
	}
	return c.entries[i], true
}

// SetThumbnail reports false when id is not on the current page.
func (c *Catalog) SetThumbnail(id string, b []byte) bool {
	e, ok := c.byID[id]
	if !ok {
		return false
	}
	e.Thumbnail = b
	return true
}

// SetOwnVote records the caller's vote. The aggregate count is left alone.
func (c *Catalog) SetOwnVote(id string, v int) bool {
	e, ok := c.byID[id]
	if !ok {
		return false
	}
	switch {
	case v > 0:
		e.OwnVote = 1
	case v < 0:
		e.OwnVote = -1
	default:
		e.OwnVote = 0
	}
	return true
}

func (c *Catalog) Params() smmdb.QueryParams { return c.params }

func (c *Catalog) SetTitle(title string) {
	c.params.Title = title
	c.params.Skip = 0
}

func (c *Catalog) SetUploader(uploader string) {
	c.params.Uploader = uploader
	c.params.Skip = 0
}

// SetDifficulty filters by d; nil clears the filter.
func (c *Catalog) SetDifficulty(d *smmdb.Difficulty) {
	if d != nil {
		v := *d
		d = &v
	}
	c.params.Difficulty = d
	c.params.Skip = 0
}

func (c *Catalog) SetSort(s smmdb.Sort) {
	c.params.Sort = s
	c.params.Skip = 0
}

// SetLimit changes the page size and returns to the first page.
func (c *Catalog) SetLimit(n int) {
	if n <= 0 || n == c.params.Limit {
		return
	}
	c.params.Limit = n
	c.params.Skip = 0
}

func (c *Catalog) PaginateForward() {
	c.params.Skip += c.params.Limit
}

// PaginateBackward never moves before the first page.
func (c *Catalog) PaginateBackward() {
	c.params.Skip -= c.params.Limit
	if c.params.Skip < 0 {
		c.params.Skip = 0
	}
}

func (c *Catalog) ResetPagination() { c.params.Skip = 0 }

// Page is the zero-based index of the current page.
func (c *Catalog) Page() int { return c.params.Page() }

// Closest returns the position of the entry whose title is nearest to query.
// A title containing query wins outright.
func (c *Catalog) Closest(query string) (int, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(c.entries) == 0 {
		return 0, false
	}
	best, bestDist := -1, 0
	for i, e := range c.entries {
		title := strings.ToLower(e.Title)
		if strings.Contains(title, q) {
			return i, true
		}
		d := levenshtein.ComputeDistance(q, title)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, true
}
