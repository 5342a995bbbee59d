package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/prereqgraph/pkg/errors"
	"github.com/matzehuels/prereqgraph/pkg/eval"
)

// progressFlags collects a learner's history from a file and from
// per-standing id lists. Flag values are added to the file's.
type progressFlags struct {
	file       string
	completed  []int
	inProgress []int
	planned    []int
	failed     []int
}

func (f *progressFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "progress", "p", "", "progress file (.json or .toml)")
	cmd.Flags().IntSliceVar(&f.completed, "completed", nil, "completed course ids")
	cmd.Flags().IntSliceVar(&f.inProgress, "in-progress", nil, "in-progress course ids")
	cmd.Flags().IntSliceVar(&f.planned, "planned", nil, "planned course ids")
	cmd.Flags().IntSliceVar(&f.failed, "failed", nil, "failed course ids")
}

// set reports whether any progress was given.
func (f *progressFlags) set() bool {
	return f.file != "" || len(f.completed)+len(f.inProgress)+len(f.planned)+len(f.failed) > 0
}

func (f *progressFlags) load() (eval.Progress, error) {
	var p eval.Progress
	if f.file != "" {
		var err error
		if p, err = readProgressFile(f.file); err != nil {
			return eval.Progress{}, err
		}
	}
	p.Completed = append(p.Completed, f.completed...)
	p.InProgress = append(p.InProgress, f.inProgress...)
	p.Planned = append(p.Planned, f.planned...)
	p.Failed = append(p.Failed, f.failed...)
	return p, nil
}

// readProgressFile decodes a progress file by extension:
//
//	{"completed": [211], "in_progress": [301]}
//
//	completed = [211]
//	in_progress = [301]
func readProgressFile(path string) (eval.Progress, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return eval.Progress{}, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "read progress %s", path)
	}

	var p eval.Progress
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), &p)
		if err != nil {
			return eval.Progress{}, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "parse progress %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return eval.Progress{}, perrors.New(perrors.ErrCodeInvalidFormat, "%s: unknown key %s", path, undecoded[0])
		}
	case ".json", "":
		dec := json.NewDecoder(strings.NewReader(string(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return eval.Progress{}, perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "parse progress %s", path)
		}
	default:
		return eval.Progress{}, perrors.New(perrors.ErrCodeInvalidFormat, "unsupported progress file type %q", ext)
	}
	return p, nil
}

// describeProgress summarizes a progress set for log lines.
func describeProgress(p eval.Progress) string {
	return fmt.Sprintf("%d completed, %d in progress, %d planned, %d failed",
		len(p.Completed), len(p.InProgress), len(p.Planned), len(p.Failed))
}
