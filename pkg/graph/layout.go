package graph

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"

	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
	"github.com/matzehuels/prereqgraph/pkg/layout"
)

// =============================================================================
// Layout - Positioned Graph
// =============================================================================

// Layout is the serialization format for computed layouts.
//
// Positions are listed rank by rank in final order, so a renderer can walk
// them directly. Edges are the graph's edges, unchanged.
type Layout struct {
	Direction string           `json:"direction" bson:"direction"`
	Width     float64          `json:"width" bson:"width"`
	Height    float64          `json:"height" bson:"height"`
	Crossings int              `json:"crossings" bson:"crossings"`
	Positions []Position       `json:"positions" bson:"positions"`
	Ranks     map[int][]string `json:"ranks" bson:"-"`
	Edges     []Edge           `json:"edges" bson:"edges"`
}

// Position places one node.
type Position struct {
	ID   string  `json:"id" bson:"id"`
	X    float64 `json:"x" bson:"x"`
	Y    float64 `json:"y" bson:"y"`
	Rank int     `json:"rank" bson:"rank"`
}

// FromLayout converts a computed layout to its serialization format.
func FromLayout(l *layout.Layout) Layout {
	out := Layout{
		Direction: string(l.Direction),
		Width:     l.Width,
		Height:    l.Height,
		Crossings: l.Crossings,
		Positions: make([]Position, 0, len(l.Positions)),
		Ranks:     make(map[int][]string, len(l.Orders)),
		Edges:     make([]Edge, 0, len(l.Edges)),
	}
	for _, r := range slices.Sorted(maps.Keys(l.Orders)) {
		ids := l.Orders[r]
		out.Ranks[r] = slices.Clone(ids)
		for _, id := range ids {
			p := l.Positions[id]
			out.Positions = append(out.Positions, Position{ID: id, X: p.X, Y: p.Y, Rank: r})
		}
	}
	for _, e := range l.Edges {
		out.Edges = append(out.Edges, Edge{From: e.From, To: e.To})
	}
	return out
}

// Position returns the position of id and whether it is present.
func (l Layout) Position(id string) (Position, bool) {
	for _, p := range l.Positions {
		if p.ID == id {
			return p, true
		}
	}
	return Position{}, false
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "decode layout")
	}
	if _, err := layout.ParseDirection(l.Direction); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
