package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	nameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// TextFormatter renders scenario results as one human-readable line each,
// with optional color — grounded on the teacher's output.TextFormatter.
type TextFormatter struct {
	useColor bool
}

// NewTextFormatter creates a TextFormatter.
func NewTextFormatter(useColor bool) *TextFormatter {
	return &TextFormatter{useColor: useColor}
}

// Format implements Formatter.
func (f *TextFormatter) Format(buf []byte, result ScenarioResult) []byte {
	status := "ok"
	if result.Err != nil {
		status = "error: " + result.Err.Error()
	} else if result.Detected() {
		status = fmt.Sprintf("detected (%d violation(s))", len(result.Violations))
	}

	if f.useColor {
		buf = append(buf, nameStyle.Render(result.Name)...)
		buf = append(buf, ' ')
		if result.Err == nil && result.Detected() {
			buf = append(buf, passStyle.Render(status)...)
		} else if result.Err != nil {
			buf = append(buf, failStyle.Render(status)...)
		} else {
			buf = append(buf, status...)
		}
	} else {
		buf = append(buf, result.Name...)
		buf = append(buf, ' ')
		buf = append(buf, status...)
	}

	return append(buf, '\n')
}

var _ Formatter = (*TextFormatter)(nil)
