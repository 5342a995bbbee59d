// Package source defines where raw prerequisite records come from.
//
// A record is the upstream JSON for one course, in any shape
// [build.Decode] accepts. Sources only fetch bytes; building and validating
// a graph is left to pkg/build.
//
// Implementations live in subpackages:
//
//   - local: a directory of <course_id>.json files plus an optional
//     courses.json catalog
//   - postgres: the prereq_dags and courses tables
//   - mongo: the prereq_dags and courses collections
//
// [build.Decode]: github.com/matzehuels/prereqgraph/pkg/build.Decode
package source

import (
	"context"

	"github.com/matzehuels/prereqgraph/pkg/catalog"
)

// Source returns the raw prerequisite record of a course.
//
// A course without a record yields a MISSING_DATA error. A record that exists
// but is empty (SQL NULL, "None", {}) is returned as-is and builds into a
// graph holding only the course itself.
//
// Transient backend failures are wrapped with cache.Retryable so callers can
// retry them.
type Source interface {
	Prerequisites(ctx context.Context, courseID int) ([]byte, error)
	Close() error
}

// CatalogSource is a Source that also serves the course catalog.
type CatalogSource interface {
	Source
	catalog.Catalog
}
