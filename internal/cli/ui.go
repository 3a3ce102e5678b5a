package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/nodeio/pkg/errors"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorTeal  = lipgloss.Color("36")  // headings, counts
	colorGreen = lipgloss.Color("35")  // success
	colorAmber = lipgloss.Color("220") // warnings
	colorRed   = lipgloss.Color("167") // errors
	colorBlue  = lipgloss.Color("75")  // commands, group names
	colorWhite = lipgloss.Color("255") // values
	colorGray  = lipgloss.Color("245") // labels
	colorDim   = lipgloss.Color("240") // muted text, borders
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber  = lipgloss.NewStyle().Foreground(colorTeal)
	StyleWarning = lipgloss.NewStyle().Foreground(colorAmber)
	StyleGroup   = lipgloss.NewStyle().Foreground(colorBlue)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorAmber)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorTeal)

	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	styleTableCell   = lipgloss.NewStyle().Padding(0, 1)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// stdout receives command output. setup points it at the command's
// output writer.
var stdout io.Writer = os.Stdout

func writeLine(s string) {
	fmt.Fprintln(stdout, s)
}

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	writeLine(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	writeLine(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	writeLine(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	writeLine(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line.
func printDetail(format string, args ...any) {
	writeLine("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written file.
func printFile(path string) {
	writeLine("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	writeLine(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printWarnings lists warnings one per line, followed by a count per code
// when there are several.
func printWarnings(ws []errors.Warning) {
	if len(ws) == 0 {
		return
	}
	for _, w := range ws {
		printWarning("%s", w)
	}
	if len(ws) < 2 {
		return
	}
	counts := make(map[errors.Code]int)
	for _, w := range ws {
		counts[w.Code]++
	}
	codes := make([]errors.Code, 0, len(counts))
	for c := range counts {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	rows := make([][]string, 0, len(codes))
	for _, c := range codes {
		rows = append(rows, []string{string(c), strconv.Itoa(counts[c])})
	}
	printTable([]string{"Warning", "Count"}, rows)
}

// printTable renders rows under headers in a rounded border.
func printTable(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			return styleTableCell
		})
	writeLine(t.Render())
}

// printNextStep suggests the command to run next.
func printNextStep(description, cmd string) {
	writeLine(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}
