// Package pipeline ties the prerequisite engine to its collaborators.
//
// The core packages (build, eval, layout) are pure functions over in-memory
// graphs. This package fetches raw records from a [source.Source], looks up
// course metadata in a [catalog.Catalog], and caches every derived artifact,
// so that the CLI and the HTTP API share one code path.
//
// # Stages
//
//  1. Graph: fetch the raw record, build and validate it, decorate course
//     nodes from the catalog
//  2. Evaluate: satisfaction, statuses and eligibility for one learner
//  3. Layout: rank, order and place the nodes
//  4. Render: DOT, SVG, PNG or PDF, optionally colored by status
//
// Each stage pulls the previous one through the cache, so asking for a
// layout of a course that was evaluated a minute ago does not touch the
// source again.
//
// # Usage
//
//	runner := pipeline.NewRunner(src, nil, cache, nil, logger)
//	ev, err := runner.Evaluate(ctx, 300, progress, pipeline.Options{})
//	if perrors.Is(err, perrors.ErrCodeMissingData) {
//	    // no prerequisite record for this course
//	}
//	l, err := runner.Layout(ctx, 300, pipeline.Options{Direction: "TB"})
package pipeline

import (
	"fmt"
	"strings"

	"github.com/matzehuels/prereqgraph/pkg/layout"
	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
)

// Format constants for rendered output.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// DefaultFormat is the default render format.
const DefaultFormat = FormatSVG

// DefaultPNGScale is the resolution multiplier for PNG output.
const DefaultPNGScale = 2.0

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// ContentTypes maps render formats to MIME types.
var ContentTypes = map[string]string{
	FormatDOT: "text/vnd.graphviz",
	FormatSVG: "image/svg+xml",
	FormatPNG: "image/png",
	FormatPDF: "application/pdf",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline call. Only the fields relevant to the
// called stage are read. The struct decodes from JSON request bodies and
// TOML config sections.
type Options struct {
	// Layout options
	Direction      string  `json:"direction,omitempty" toml:"direction"`
	NodeSeparation float64 `json:"node_separation,omitempty" toml:"node_separation"`
	RankSeparation float64 `json:"rank_separation,omitempty" toml:"rank_separation"`
	Passes         int     `json:"passes,omitempty" toml:"passes"`

	// Render options
	Format   string `json:"format,omitempty" toml:"format"`
	Detailed bool   `json:"detailed,omitempty" toml:"detailed"`

	// Refresh skips cache reads. Results are still written back.
	Refresh bool `json:"refresh,omitempty" toml:"-"`
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return perrors.New(perrors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: dot, svg, png, pdf)", format)
	}
	return nil
}

// LayoutOptions converts the layout fields into validated [layout.Options]
// with defaults applied.
func (o Options) LayoutOptions() (layout.Options, error) {
	dir, err := layout.ParseDirection(o.Direction)
	if err != nil {
		return layout.Options{}, err
	}
	lo := layout.Options{
		Direction:      dir,
		NodeSeparation: o.NodeSeparation,
		RankSeparation: o.RankSeparation,
		Passes:         o.Passes,
	}.WithDefaults()
	if err := lo.Validate(); err != nil {
		return layout.Options{}, err
	}
	return lo, nil
}

// ValidateForLayout checks the layout fields.
func (o Options) ValidateForLayout() error {
	_, err := o.LayoutOptions()
	return err
}

// SetRenderDefaults fills in the render format.
func (o *Options) SetRenderDefaults() {
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	if o.Format == "" {
		o.Format = DefaultFormat
	}
}

// ValidateForRender sets render defaults and validates format and direction.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if _, err := layout.ParseDirection(o.Direction); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
