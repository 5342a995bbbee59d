package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss with ok == false and a nil error; errors are reserved
// for backend failures. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys for every cached artifact.
type Keyer interface {
	// GraphKey addresses a built prerequisite graph.
	GraphKey(courseID int) string
	// EvalKey addresses one learner's evaluation of a course.
	EvalKey(courseID int, progressHash string) string
	// LayoutKey addresses a layout of a graph under given options.
	LayoutKey(graphHash, optsHash string) string
	// StatsKey addresses learner-independent graph statistics.
	StatsKey(courseID int) string
	// CourseKey addresses catalog metadata for one course.
	CourseKey(courseID int) string
}

// Entry lifetimes.
const (
	GraphTTL  = time.Hour
	StatsTTL  = 2 * time.Hour
	EvalTTL   = 30 * time.Minute
	CourseTTL = 24 * time.Hour
	LayoutTTL = 2 * time.Hour
)

// DefaultKeyer produces the standard key layout:
//
//	prereq_graph:<course>
//	prereq_eval:<course>:<progress-hash>
//	prereq_layout:<graph-hash>:<opts-hash>
//	prereq_stats:<course>
//	course_metadata:<course>
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) GraphKey(courseID int) string { return fmt.Sprintf("prereq_graph:%d", courseID) }

func (DefaultKeyer) EvalKey(courseID int, progressHash string) string {
	return fmt.Sprintf("prereq_eval:%d:%s", courseID, progressHash)
}

func (DefaultKeyer) LayoutKey(graphHash, optsHash string) string {
	return fmt.Sprintf("prereq_layout:%s:%s", graphHash, optsHash)
}

func (DefaultKeyer) StatsKey(courseID int) string { return fmt.Sprintf("prereq_stats:%d", courseID) }

func (DefaultKeyer) CourseKey(courseID int) string {
	return fmt.Sprintf("course_metadata:%d", courseID)
}

// GetJSON reads key and decodes it into a T. A corrupt entry is deleted and
// reported as a miss.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var v T
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		_ = c.Delete(ctx, key)
		return v, false, nil
	}
	return v, true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}
