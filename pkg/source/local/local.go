// Package local serves prerequisite records from a directory.
//
// Layout:
//
//	<dir>/<course_id>.json   one raw prerequisite record per course
//	<dir>/courses.json       optional catalog: a JSON array of courses
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/matzehuels/prereqgraph/pkg/catalog"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
	"github.com/matzehuels/prereqgraph/pkg/source"
)

// CatalogFile is the catalog file name inside a source directory.
const CatalogFile = "courses.json"

// Source reads records from a directory. The catalog, if present, is loaded
// once at construction.
type Source struct {
	dir string
	*catalog.Map
}

// New opens dir. A missing catalog file yields an empty catalog.
func New(dir string) (*Source, error) {
	if err := perrors.ValidatePath(dir); err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "open source directory %s", dir)
	}
	if !info.IsDir() {
		return nil, perrors.New(perrors.ErrCodeInvalidPath, "%s is not a directory", dir)
	}
	cat, err := LoadCatalog(filepath.Join(dir, CatalogFile))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if cat == nil {
		cat = catalog.NewMap()
	}
	return &Source{dir: dir, Map: cat}, nil
}

// Dir returns the source directory.
func (s *Source) Dir() string { return s.dir }

// Prerequisites reads <dir>/<courseID>.json.
func (s *Source) Prerequisites(ctx context.Context, courseID int) ([]byte, error) {
	if err := perrors.ValidateCourseID(courseID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(courseID))
	if os.IsNotExist(err) {
		return nil, perrors.MissingData(courseID)
	}
	if err != nil {
		return nil, fmt.Errorf("read record %d: %w", courseID, err)
	}
	return data, nil
}

// WriteRecord writes the record for courseID, replacing any existing one.
func (s *Source) WriteRecord(courseID int, data []byte) error {
	if err := perrors.ValidateCourseID(courseID); err != nil {
		return err
	}
	return os.WriteFile(s.path(courseID), data, 0644)
}

// CourseIDs lists the ids that have a record file, in ascending order.
func (s *Source) CourseIDs() ([]int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	var ids []int
	for _, m := range matches {
		base := filepath.Base(m)
		id, err := strconv.Atoi(base[:len(base)-len(".json")])
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Close does nothing.
func (s *Source) Close() error { return nil }

func (s *Source) path(courseID int) string {
	return filepath.Join(s.dir, strconv.Itoa(courseID)+".json")
}

// LoadCatalog reads a JSON array of courses into a catalog.
func LoadCatalog(path string) (*catalog.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var courses []catalog.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "decode catalog %s", path)
	}
	return catalog.NewMap(courses...), nil
}

// Ensure Source implements source.CatalogSource.
var _ source.CatalogSource = (*Source)(nil)
