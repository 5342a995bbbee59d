package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a DAG to JSON bytes.
func MarshalGraph(g *dag.DAG) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes a DAG to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g *dag.DAG, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a DAG as JSON to an io.Writer.
func WriteGraph(g *dag.DAG, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadGraphFile reads a JSON file and returns the decoded, validated DAG.
func ReadGraphFile(path string) (*dag.DAG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a JSON graph from an io.Reader into a validated DAG.
func ReadGraph(r io.Reader) (*dag.DAG, error) {
	return readGraphFrom(r)
}

// UnmarshalGraph deserializes JSON bytes to a Graph without validating it.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "decode graph")
	}
	return g, nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g *dag.DAG, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromDAG(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (*dag.DAG, error) {
	var data Graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "decode graph")
	}
	return ToDAG(data)
}

// invalid converts a structural error into an INVALID_GRAPH error carrying
// the offending ids.
func invalid(err error, ids ...string) error {
	var verr *dag.ValidationError
	if errors.As(err, &verr) && len(verr.IDs) > 0 {
		ids = verr.IDs
	}
	return &perrors.Error{
		Code:    perrors.ErrCodeInvalidGraph,
		Message: "invalid prerequisite graph",
		IDs:     ids,
		Cause:   err,
	}
}
