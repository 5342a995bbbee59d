package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
)

// Direction is the flow direction of ranks: prerequisites first, the target
// course last.
type Direction string

const (
	LeftToRight Direction = "LR"
	RightToLeft Direction = "RL"
	TopToBottom Direction = "TB"
	BottomToTop Direction = "BT"
)

// Defaults.
const (
	DefaultDirection      = LeftToRight
	DefaultNodeSeparation = 80.0
	DefaultRankSeparation = 200.0
	DefaultPasses         = 24
)

// ParseDirection accepts LR, RL, TB and BT in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case LeftToRight, RightToLeft, TopToBottom, BottomToTop:
		return d, nil
	case "":
		return DefaultDirection, nil
	}
	return "", perrors.New(perrors.ErrCodeInvalidInput, "unknown layout direction %q (want LR, RL, TB or BT)", s)
}

// horizontal reports whether ranks advance along the x axis.
func (d Direction) horizontal() bool { return d == LeftToRight || d == RightToLeft }

// reversed reports whether ranks advance toward smaller coordinates.
func (d Direction) reversed() bool { return d == RightToLeft || d == BottomToTop }

// Options configures [Compute]. Zero fields take the package defaults.
type Options struct {
	Direction      Direction `json:"direction,omitempty" toml:"direction"`
	NodeSeparation float64   `json:"node_separation,omitempty" toml:"node_separation"`
	RankSeparation float64   `json:"rank_separation,omitempty" toml:"rank_separation"`
	Passes         int       `json:"passes,omitempty" toml:"passes"`
}

// WithDefaults returns a copy of o with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Direction == "" {
		o.Direction = DefaultDirection
	}
	if o.NodeSeparation == 0 {
		o.NodeSeparation = DefaultNodeSeparation
	}
	if o.RankSeparation == 0 {
		o.RankSeparation = DefaultRankSeparation
	}
	if o.Passes == 0 {
		o.Passes = DefaultPasses
	}
	return o
}

// Validate reports unusable options. Zero values are valid and mean default.
func (o Options) Validate() error {
	if o.Direction != "" {
		if _, err := ParseDirection(string(o.Direction)); err != nil {
			return err
		}
	}
	if o.NodeSeparation < 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "node separation must not be negative, got %g", o.NodeSeparation)
	}
	if o.RankSeparation < 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "rank separation must not be negative, got %g", o.RankSeparation)
	}
	if o.Passes < 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "passes must not be negative, got %d", o.Passes)
	}
	return nil
}

// Hash identifies the effective options in cache keys.
func (o Options) Hash() string {
	o = o.WithDefaults()
	s := fmt.Sprintf("%s|%g|%g|%d", strings.ToUpper(string(o.Direction)), o.NodeSeparation, o.RankSeparation, o.Passes)
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
