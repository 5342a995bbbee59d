package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/prereqgraph/pkg/catalog"
	"github.com/matzehuels/prereqgraph/pkg/pipeline"
	"github.com/matzehuels/prereqgraph/pkg/source"
)

// exploreCommand creates the explore command, an interactive course picker
// that evaluates the chosen course.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		progress progressFlags
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Pick a course interactively and check eligibility",
		Long: `List the courses of the configured source, pick one, and print its
evaluation against the given progress.

Examples:
  prereqgraph explore
  prereqgraph explore --progress me.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), &progress, noCache)
		},
	}

	progress.register(cmd)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, pf *progressFlags, noCache bool) error {
	p, err := pf.load()
	if err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	src, err := cfg.Source.Open(ctx)
	if err != nil {
		return fmt.Errorf("open %s source: %w", cfg.Source.Kind, err)
	}
	store, keyer := c.openCache(ctx, cfg.Cache, noCache)
	runner := pipeline.NewRunner(src, nil, store, keyer, c.Logger)
	defer runner.Close()

	items, err := listCourses(ctx, src)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		printInfo("No courses found in %s source", cfg.Source.Kind)
		return nil
	}

	finalModel, err := tea.NewProgram(NewCourseListModel(items), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("course picker: %w", err)
	}
	fm, ok := finalModel.(CourseListModel)
	if !ok || fm.Selected == nil {
		return nil
	}
	course := fm.Selected.Course

	spinner := newSpinner(ctx, fmt.Sprintf("Evaluating %s...", courseName(course)))
	spinner.Start()
	g, err := runner.Graph(ctx, course.ID, pipeline.Options{})
	if err != nil {
		spinner.StopWithError("Build failed")
		return err
	}
	ev, err := runner.Evaluate(ctx, course.ID, p, pipeline.Options{})
	if err != nil {
		spinner.StopWithError("Evaluation failed")
		return err
	}
	spinner.Stop()

	printEvaluation(g, ev)
	if ev.Stats != nil {
		printNewline()
		printCourseStats(*ev.Stats)
	}
	printNewline()
	printNextStep("Render", fmt.Sprintf("%s render --course %d", appName, course.ID))
	return nil
}

// listCourses collects the selectable courses of a source. Directory sources
// also list record files missing from their catalog.
func listCourses(ctx context.Context, src source.Source) ([]CourseItem, error) {
	switch s := src.(type) {
	case interface {
		Courses() []catalog.Course
		CourseIDs() ([]int, error)
	}:
		ids, err := s.CourseIDs()
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		hasRecord := make(map[int]bool, len(ids))
		for _, id := range ids {
			hasRecord[id] = true
		}
		var items []CourseItem
		for _, c := range s.Courses() {
			items = append(items, CourseItem{Course: c, HasRecord: hasRecord[c.ID]})
			delete(hasRecord, c.ID)
		}
		for _, id := range ids {
			if hasRecord[id] {
				items = append(items, CourseItem{Course: catalog.Course{ID: id}, HasRecord: true})
			}
		}
		return items, nil
	case interface {
		Courses(context.Context) ([]catalog.Course, error)
	}:
		courses, err := s.Courses(ctx)
		if err != nil {
			return nil, fmt.Errorf("list courses: %w", err)
		}
		items := make([]CourseItem, len(courses))
		for i, c := range courses {
			items[i] = CourseItem{Course: c, HasRecord: true}
		}
		return items, nil
	}
	return nil, fmt.Errorf("source %T cannot list courses", src)
}

func courseName(c catalog.Course) string {
	if c.Code != "" {
		return c.Code
	}
	return fmt.Sprintf("course %d", c.ID)
}
