package eval

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// Progress is a learner's course history: four sets of course ids. A course
// in none of them is untaken.
//
// The sets are expected to be disjoint. When they are not, a course counts
// as completed before in-progress, in-progress before failed, and failed
// before planned.
type Progress struct {
	Completed  []int `json:"completed" toml:"completed" bson:"completed"`
	InProgress []int `json:"in_progress" toml:"in_progress" bson:"in_progress"`
	Planned    []int `json:"planned" toml:"planned" bson:"planned"`
	Failed     []int `json:"failed" toml:"failed" bson:"failed"`
}

// Standing is where one course sits in a learner's history.
type Standing int

const (
	Untaken Standing = iota
	Planned
	Failed
	InProgress
	Completed
)

// index resolves each course id to its highest-precedence standing.
type index map[int]Standing

func (p Progress) index() index {
	idx := make(index, len(p.Completed)+len(p.InProgress)+len(p.Planned)+len(p.Failed))
	mark := func(ids []int, s Standing) {
		for _, id := range ids {
			if s > idx[id] {
				idx[id] = s
			}
		}
	}
	mark(p.Planned, Planned)
	mark(p.Failed, Failed)
	mark(p.InProgress, InProgress)
	mark(p.Completed, Completed)
	return idx
}

// Standing returns the standing of one course.
func (p Progress) Standing(courseID int) Standing {
	return p.index()[courseID]
}

// Complete returns a copy of p with courseID added to Completed.
func (p Progress) Complete(courseID int) Progress {
	out := Progress{
		Completed:  append(slices.Clone(p.Completed), courseID),
		InProgress: slices.Clone(p.InProgress),
		Planned:    slices.Clone(p.Planned),
		Failed:     slices.Clone(p.Failed),
	}
	return out
}

// Hash returns a stable digest of the progress sets, independent of the order
// ids were listed in. It is used in cache keys.
func (p Progress) Hash() string {
	var b strings.Builder
	for _, set := range []struct {
		name string
		ids  []int
	}{
		{"c", p.Completed}, {"i", p.InProgress}, {"p", p.Planned}, {"f", p.Failed},
	} {
		ids := slices.Clone(set.ids)
		slices.Sort(ids)
		ids = slices.Compact(ids)
		fmt.Fprintf(&b, "%s%v;", set.name, ids)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:16]
}
