package view

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
)

const clearScreen = "\033[H\033[2J"

// Terminal paints a Document as a text frame.
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	theme Theme
	clear bool
	frame int
}

// TerminalOption customises a Terminal.
type TerminalOption func(*Terminal)

// WithClearScreen clears the screen before each frame, for interactive TTYs.
func WithClearScreen(enabled bool) TerminalOption {
	return func(t *Terminal) {
		t.clear = enabled
	}
}

// NewTerminal creates a painter writing to out.
func NewTerminal(out io.Writer, theme Theme, opts ...TerminalOption) *Terminal {
	if theme.BarWidth <= 0 {
		theme.BarWidth = 30
	}
	t := &Terminal{out: out, theme: theme}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Paint writes one frame. Nothing is drawn while the container is hidden.
func (t *Terminal) Paint(doc *Document, containerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := doc.Node(containerID); ok && !c.Visible {
		return
	}
	var buf bytes.Buffer
	if t.clear {
		buf.WriteString(clearScreen)
	}
	t.writeOverall(&buf, doc)
	if steps, ok := doc.Node(AnchorSteps); ok {
		for _, step := range steps.Steps {
			t.writeStep(&buf, step)
		}
	}
	if done, ok := doc.Node(AnchorComplete); ok && done.Visible {
		buf.WriteString(t.theme.success.Sprint("✔ Conversion complete"))
		buf.WriteByte('\n')
	}
	if failed, ok := doc.Node(AnchorError); ok && failed.Visible {
		buf.WriteString(t.theme.failure.Sprint("✖ " + failed.Text))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	t.frame++
	_, _ = t.out.Write(buf.Bytes())
}

func (t *Terminal) writeOverall(buf *bytes.Buffer, doc *Document) {
	var parts []string
	if bar, ok := doc.Node(AnchorOverallBar); ok {
		parts = append(parts, t.bar(bar.Value, t.theme.BarWidth))
	}
	if label, ok := doc.Node(AnchorOverallText); ok && label.Text != "" {
		parts = append(parts, fmt.Sprintf("%4s", label.Text))
	}
	if elapsed, ok := doc.Node(AnchorElapsed); ok && elapsed.Text != "" {
		parts = append(parts, t.theme.muted.Sprint("elapsed "+elapsed.Text))
	}
	if len(parts) == 0 {
		return
	}
	buf.WriteString(strings.Join(parts, "  "))
	buf.WriteByte('\n')
}

func (t *Terminal) writeStep(buf *bytes.Buffer, step Step) {
	style := t.theme.Style(step.Indicator)
	icon := style.Icon
	if step.Indicator == IndicatorActive && len(t.theme.Spinner) > 0 {
		icon = t.theme.Spinner[t.frame%len(t.theme.Spinner)]
	}
	line := fmt.Sprintf("%s %d. %s", style.Color.Sprint(icon), step.Number, step.Name)
	if step.Message != "" {
		line += "  " + t.theme.muted.Sprint(step.Message)
	}
	buf.WriteString(line)
	buf.WriteByte('\n')
	for _, sub := range step.Substeps {
		subStyle := t.theme.Style(sub.Indicator)
		subLine := "    " + subStyle.Color.Sprint(subStyle.SubIcon+" "+sub.Name)
		if sub.Message != "" {
			subLine += t.theme.muted.Sprint(" - " + sub.Message)
		}
		buf.WriteString(subLine)
		buf.WriteByte('\n')
	}
	if step.ShowBar {
		buf.WriteString("    ")
		buf.WriteString(style.Color.Sprint(t.bar(step.Progress, t.theme.BarWidth/2)))
		buf.WriteByte('\n')
	}
}

func (t *Terminal) bar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
