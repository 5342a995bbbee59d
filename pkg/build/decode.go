package build

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/matzehuels/prereqgraph/pkg/dag"
)

// Decode builds a graph from a raw prerequisite record of unknown shape.
//
// Objects with a "nodes" key are read as [ListInput]; other objects, strings
// and arrays are read as [Tree] (an array attaches each element directly to
// the root). A JSON string holding JSON is decoded once more, since document
// stores sometimes keep the record double-encoded. Records that are empty,
// null or the literal "None" mean the course has no prerequisites and yield
// a graph holding only the root course, which must then be named with
// WithRootCourse.
func Decode(data []byte, opts ...Option) (*dag.DAG, error) {
	data = bytes.TrimSpace(data)
	if isEmptyRecord(data) {
		return FromTree(Tree{}, opts...)
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, malformed(err)
		}
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") || isEmptyRecord([]byte(s)) {
			return Decode([]byte(s), opts...)
		}
		var t Tree
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, malformed(err)
		}
		return FromTree(t, opts...)

	case '[':
		var children []Tree
		if err := json.Unmarshal(data, &children); err != nil {
			return nil, malformed(err)
		}
		if len(children) == 0 {
			return FromTree(Tree{}, opts...)
		}
		return FromTree(Tree{Children: children}, opts...)

	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, malformed(err)
		}
		if _, ok := probe["nodes"]; ok {
			var in ListInput
			if err := json.Unmarshal(data, &in); err != nil {
				return nil, malformed(err)
			}
			return FromLists(in, opts...)
		}
		var t Tree
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, malformed(err)
		}
		return FromTree(t, opts...)
	}

	var v any
	err := json.Unmarshal(data, &v)
	if err == nil {
		return nil, malformed(errUnsupportedShape)
	}
	return nil, malformed(err)
}

var errUnsupportedShape = errors.New("record must be an object, array or string")

func isEmptyRecord(data []byte) bool {
	switch string(data) {
	case "", "null", "None", `"None"`, `""`, "{}":
		return true
	}
	return false
}
