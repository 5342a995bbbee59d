package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/prereqgraph/pkg/dag"
	"github.com/matzehuels/prereqgraph/pkg/eval"
	"github.com/matzehuels/prereqgraph/pkg/graph"
)

// Terminal palette (ANSI 256).
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle renders headings such as the course picker title.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue renders file paths and values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleWarning renders warnings, including the "not yet eligible" verdict.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed    = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// statusStyles colors learner statuses the same way the rendered graph does.
var statusStyles = map[eval.Status]lipgloss.Style{
	eval.StatusCompleted:  lipgloss.NewStyle().Foreground(colorGreen),
	eval.StatusInProgress: lipgloss.NewStyle().Foreground(colorCyan),
	eval.StatusPlanned:    lipgloss.NewStyle().Foreground(colorBlue),
	eval.StatusFailed:     lipgloss.NewStyle().Foreground(colorRed),
	eval.StatusAvailable:  lipgloss.NewStyle().Foreground(colorYellow),
	eval.StatusLocked:     lipgloss.NewStyle().Foreground(colorDim),
}

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

func printLine(icon string, style lipgloss.Style, format string, args ...any) {
	fmt.Println(style.Render(icon) + " " + fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) {
	printLine(iconSuccess, styleIconSuccess, format, args...)
}

func printError(format string, args ...any) {
	printLine(iconError, styleIconError, format, args...)
}

func printInfo(format string, args ...any) {
	printLine(iconInfo, styleIconInfo, format, args...)
}

func printWarning(format string, args ...any) {
	fmt.Println(StyleWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints graph size and cache state on a single line.
func printStats(nodeCount, edgeCount int, cached bool) {
	var parts []string
	if nodeCount > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d nodes", nodeCount)))
	}
	if edgeCount > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d edges", edgeCount)))
	}

	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, styleComputed.Render("fresh"))
	}

	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() { fmt.Println() }

// printEvaluation prints node statuses in evaluation order followed by the
// eligibility verdict.
func printEvaluation(g *dag.DAG, ev graph.Evaluation) {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := [][]string{}
	statuses := []eval.Status{}
	for pair := ev.Statuses.Oldest(); pair != nil; pair = pair.Next() {
		n, ok := g.Node(pair.Key)
		if !ok {
			continue
		}
		rows = append(rows, []string{n.DisplayLabel(), n.Kind.String(), string(pair.Value)})
		statuses = append(statuses, pair.Value)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Node", "Kind", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 2 && row < len(statuses) {
				return statusStyles[statuses[row]]
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	fmt.Println(t.Render())

	if ev.CanTake {
		printSuccess("Eligible for course %d", ev.CourseID)
	} else {
		printWarning("Not yet eligible for course %d", ev.CourseID)
	}
	if len(ev.Missing) > 0 {
		printKeyValue("Missing", joinInts(ev.Missing))
	}
	if len(ev.Satisfied) > 0 {
		printKeyValue("Satisfied", joinInts(ev.Satisfied))
	}
}

// printCourseStats prints learner-independent graph statistics.
func printCourseStats(st eval.Stats) {
	printKeyValue("Depth", fmt.Sprintf("%d", st.MaxDepth))
	printKeyValue("Courses", fmt.Sprintf("%d", st.TotalPrerequisites))
	if st.AverageCredits != nil {
		printKeyValue("Avg credits", fmt.Sprintf("%.1f", *st.AverageCredits))
	}
	if len(st.Units) > 0 {
		printKeyValue("Units", strings.Join(st.Units, ", "))
	}
	if len(st.Levels) > 0 {
		printKeyValue("Levels", strings.Join(st.Levels, ", "))
	}
	depths := make([]int, 0, len(st.TreeByDepth))
	for d := range st.TreeByDepth {
		depths = append(depths, d)
	}
	slices.Sort(depths)
	for _, d := range depths {
		printKeyValue(fmt.Sprintf("  depth %d", d), joinInts(st.TreeByDepth[d]))
	}
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
