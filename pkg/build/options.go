package build

import (
	"errors"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
)

// CodeResolver maps a course code such as "MATH 211" to a catalog course id.
// It reports false for codes it does not know.
type CodeResolver func(code string) (int, bool)

// RootCourse identifies the course a prerequisite record belongs to.
type RootCourse struct {
	ID    int
	Label string
	Title string
}

// Option configures a build.
type Option func(*options)

type options struct {
	root       string
	rootCourse *RootCourse
	resolve    CodeResolver
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithRoot names the root node by id, overriding root detection.
func WithRoot(id string) Option {
	return func(o *options) { o.root = id }
}

// WithRootCourse names the course the record belongs to. Tree inputs whose
// top node is not this course are attached beneath it, and an empty record
// yields a graph holding only this course.
func WithRootCourse(rc RootCourse) Option {
	return func(o *options) { o.rootCourse = &rc }
}

// WithCodeResolver lets the builder turn course references given only by
// code into course nodes. Without a resolver such references become leaves.
func WithCodeResolver(r CodeResolver) Option {
	return func(o *options) { o.resolve = r }
}

// CourseNodeID is the node id the tree builder gives a course.
func CourseNodeID(courseID int) string {
	return "course:" + itoa(courseID)
}

func invalidGraph(err error) error {
	var verr *dag.ValidationError
	if errors.As(err, &verr) {
		return &perrors.Error{
			Code:    perrors.ErrCodeInvalidGraph,
			Message: "invalid prerequisite graph",
			IDs:     verr.IDs,
			Cause:   err,
		}
	}
	if perrors.GetCode(err) != "" {
		return err
	}
	return perrors.Wrap(perrors.ErrCodeInvalidGraph, err, "invalid prerequisite graph")
}

func malformed(err error) error {
	return perrors.Wrap(perrors.ErrCodeInvalidGraph, err, "malformed prerequisite record")
}
