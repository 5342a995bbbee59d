// Package catalog describes course catalog entries and the lookup interface
// the graph builder and pipeline use to decorate course nodes.
package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/prereqgraph/pkg/dag"
)

// ErrNotFound is returned when the catalog has no entry for a course.
var ErrNotFound = errors.New("course not found in catalog")

// Course is one catalog entry.
type Course struct {
	ID          int      `json:"course_id" bson:"course_id"`
	Code        string   `json:"course_code" bson:"course_code"`
	Title       string   `json:"title,omitempty" bson:"title,omitempty"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Credits     *float64 `json:"credits,omitempty" bson:"credits,omitempty"`
	Level       string   `json:"level,omitempty" bson:"level,omitempty"`
	Unit        string   `json:"college,omitempty" bson:"college,omitempty"`
	LastOffered string   `json:"last_taught_term,omitempty" bson:"last_taught_term,omitempty"`
}

// Meta converts the entry into node metadata.
func (c *Course) Meta() *dag.CourseMeta {
	m := &dag.CourseMeta{
		Code:        c.Code,
		Level:       c.Level,
		Unit:        c.Unit,
		LastOffered: c.LastOffered,
		Description: c.Description,
	}
	if c.Credits != nil {
		v := *c.Credits
		m.Credits = &v
	}
	return m
}

// Catalog looks up courses by numeric id or by code.
// Implementations return ErrNotFound (possibly wrapped) for unknown courses.
type Catalog interface {
	Course(ctx context.Context, id int) (*Course, error)
	CourseByCode(ctx context.Context, code string) (*Course, error)
}

// NormalizeCode upper-cases a course code and collapses runs of whitespace,
// so "math  211" and "MATH 211" compare equal.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), " "))
}

// Map is an in-memory Catalog. It is safe for concurrent use.
type Map struct {
	mu     sync.RWMutex
	byID   map[int]*Course
	byCode map[string]*Course
}

// NewMap creates a Map holding the given courses.
func NewMap(courses ...Course) *Map {
	m := &Map{
		byID:   make(map[int]*Course, len(courses)),
		byCode: make(map[string]*Course, len(courses)),
	}
	for _, c := range courses {
		m.Put(c)
	}
	return m
}

// Put adds or replaces a course.
func (m *Map) Put(c Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := c
	m.byID[c.ID] = &cp
	if c.Code != "" {
		m.byCode[NormalizeCode(c.Code)] = &cp
	}
}

// Course implements Catalog.
func (m *Map) Course(_ context.Context, id int) (*Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, ErrNotFound
}

// CourseByCode implements Catalog.
func (m *Map) CourseByCode(_ context.Context, code string) (*Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.byCode[NormalizeCode(code)]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, ErrNotFound
}

// Courses returns all entries sorted by code, then id.
func (m *Map) Courses() []Course {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Course, 0, len(m.byID))
	for _, c := range m.byID {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b Course) int {
		if c := strings.Compare(a.Code, b.Code); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return out
}
