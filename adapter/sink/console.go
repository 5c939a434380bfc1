package sink

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"http-sniffer/application/record"
	"http-sniffer/domain/port"
)

var (
	colorDivider = lipgloss.Color("#6272A4")
	colorError   = lipgloss.Color("#FF5555")
	colorTitle   = lipgloss.Color("#8BE9FD")
	colorSection = lipgloss.Color("#BD93F9")
	colorSuccess = lipgloss.Color("#50FA7B")
	colorWarn    = lipgloss.Color("#FFB86C")

	dividerStyle = lipgloss.NewStyle().Foreground(colorDivider)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	titleStyle   = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(colorSection)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
)

// Console writes traces to a terminal or any writer, one block per trace.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	colored bool
}

// NewConsole creates a console sink. Colours are used only when colorize is set
// and w is a terminal. A nil writer means stdout.
func NewConsole(w io.Writer, colorize bool) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{
		w:       w,
		colored: colorize && isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Emit writes the trace text followed by a newline.
func (c *Console) Emit(_ context.Context, trace port.Trace) error {
	text := trace.Text
	if c.colored {
		text = colorize(text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.w, text+"\n")
	return err
}

func colorize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case line == record.ErrorDivider:
			lines[i] = errorStyle.Render(line)
		case line == record.Divider:
			lines[i] = dividerStyle.Render(line)
		case strings.HasPrefix(line, "Request ["), strings.HasPrefix(line, "Response : "):
			lines[i] = titleStyle.Render(line)
		case strings.HasPrefix(line, "Status: "):
			lines[i] = statusStyle(line).Render(line)
		case line == "Headers: [", line == "Body: [", line == "]":
			lines[i] = sectionStyle.Render(line)
		case strings.HasPrefix(line, "Code : "), strings.HasPrefix(line, "Description : "):
			lines[i] = errorStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func statusStyle(line string) lipgloss.Style {
	code := strings.TrimPrefix(line, "Status: ")
	switch {
	case strings.HasPrefix(code, "2"):
		return successStyle
	case strings.HasPrefix(code, "3"):
		return warnStyle
	default:
		return errorStyle
	}
}
