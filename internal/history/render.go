package history

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	barChar             = '█'
	terminalWidthBackup = 80
)

var barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))

const sparkChars = " .:-=+*#%@"

// RenderSummary prints overall totals and a sparkline of work periods per day.
func RenderSummary(w io.Writer, days []DaySummary) error {
	if len(days) == 0 {
		_, err := fmt.Fprintln(w, "No completed periods found.")
		return err
	}
	total := Totals(days)
	if _, err := fmt.Fprintf(w, "Days: %d\n", len(days)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Work periods: %d\n", total.Work); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Breaks: %d\n", total.Breaks); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Focus time: %s\n", FormatFocus(total.FocusS)); err != nil {
		return err
	}
	counts := make([]int, len(days))
	for i, d := range days {
		counts[i] = d.Work
	}
	if _, err := fmt.Fprintf(w, "Trend: [%s]\n\n", Sparkline(counts)); err != nil {
		return err
	}
	return nil
}

// RenderTable prints one row per day.
func RenderTable(w io.Writer, days []DaySummary) error {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Day.Format("2006-01-02"),
			strconv.Itoa(d.Work),
			strconv.Itoa(d.Breaks),
			FormatFocus(d.FocusS),
		})
	}
	lines := formatTable([]string{"Day", "Work", "Breaks", "Focus"}, rows, map[int]bool{1: true, 2: true, 3: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderBars prints a horizontal bar of work periods per day, scaled to width.
func RenderBars(w io.Writer, days []DaySummary, width int, useColor bool) error {
	if len(days) == 0 {
		return nil
	}
	maxWork := 0
	for _, d := range days {
		if d.Work > maxWork {
			maxWork = d.Work
		}
	}
	const labelWidth = len("2006-01-02 ")
	countWidth := len(strconv.Itoa(maxWork)) + 1
	barWidth := width - labelWidth - countWidth
	if barWidth < 1 {
		barWidth = 1
	}
	for _, d := range days {
		n := 0
		if maxWork > 0 {
			n = d.Work * barWidth / maxWork
		}
		if n == 0 && d.Work > 0 {
			n = 1
		}
		bar := strings.Repeat(string(barChar), n)
		if useColor && bar != "" {
			bar = barStyle.Render(bar)
		}
		if _, err := fmt.Fprintf(w, "%s %s %d\n", d.Day.Format("2006-01-02"), bar, d.Work); err != nil {
			return err
		}
	}
	return nil
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := ((v-minVal)*last*2 + (maxVal - minVal)) / (2 * (maxVal - minVal))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// FormatFocus renders seconds as hours and minutes, e.g. "2h05m".
func FormatFocus(seconds int) string {
	minutes := seconds / 60
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

// TerminalWidth returns the stdout width or a fallback when unknown.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// ColorMode selects when bars are coloured.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a --color value.
func ParseColorMode(value string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (expected auto, always or never)", value)
	}
}

// ShouldUseColor resolves mode for w. In auto mode colour is used when w is
// a terminal and NO_COLOR is unset.
func ShouldUseColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
