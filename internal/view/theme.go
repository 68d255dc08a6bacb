package view

import "github.com/fatih/color"

// Style is how one indicator is drawn.
type Style struct {
	// Icon marks a step; SubIcon marks a substep.
	Icon    string
	SubIcon string
	Color   *color.Color
}

// Theme is the static style resource for the terminal view. Build it once at
// start-up and share it between painters.
type Theme struct {
	styles  map[Indicator]Style
	muted   *color.Color
	success *color.Color
	failure *color.Color
	// Spinner replaces the active icon frame by frame.
	Spinner  []string
	BarWidth int
}

// DefaultTheme returns the coloured theme, honouring color.NoColor.
func DefaultTheme() Theme {
	return NewTheme(!color.NoColor)
}

// NewTheme builds the theme with or without ANSI colour.
func NewTheme(colored bool) Theme {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return Theme{
		styles: map[Indicator]Style{
			IndicatorNeutral: {Icon: "○", SubIcon: "·", Color: mk(color.Faint)},
			IndicatorActive:  {Icon: "↻", SubIcon: "→", Color: mk(color.FgBlue)},
			IndicatorSuccess: {Icon: "✔", SubIcon: "✓", Color: mk(color.FgGreen)},
			IndicatorFailure: {Icon: "✖", SubIcon: "✗", Color: mk(color.FgRed)},
		},
		muted:    mk(color.Faint),
		success:  mk(color.FgGreen, color.Bold),
		failure:  mk(color.FgRed, color.Bold),
		Spinner:  []string{"◐", "◓", "◑", "◒"},
		BarWidth: 30,
	}
}

// Style returns the style for ind, falling back to neutral.
func (t Theme) Style(ind Indicator) Style {
	if s, ok := t.styles[ind]; ok {
		return s
	}
	return t.styles[IndicatorNeutral]
}
