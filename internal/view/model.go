package view

import "github.com/JakeFAU/convert-progress/internal/progress"

// Indicator is the visual state selected for a step or substep.
type Indicator string

// Indicators, one per step status.
const (
	IndicatorNeutral Indicator = "neutral"
	IndicatorActive  Indicator = "active"
	IndicatorSuccess Indicator = "success"
	IndicatorFailure Indicator = "failure"
)

// IndicatorFor maps a step status onto its indicator.
func IndicatorFor(s progress.Status) Indicator {
	switch s {
	case progress.StatusInProgress:
		return IndicatorActive
	case progress.StatusCompleted:
		return IndicatorSuccess
	case progress.StatusError:
		return IndicatorFailure
	default:
		return IndicatorNeutral
	}
}

// Step is the render model for one pipeline step.
type Step struct {
	// Number is the 1-based display position.
	Number    int
	Name      string
	Message   string
	Indicator Indicator
	// Progress is only meaningful when ShowBar is set.
	Progress int
	ShowBar  bool
	Substeps []Substep
}

// Progress is everything one snapshot changes on screen.
type Progress struct {
	Overall int
	Elapsed string
	Steps   []Step
}

// Substep is rendered flat beneath its parent and never carries a bar.
type Substep struct {
	Name      string
	Message   string
	Indicator Indicator
}

// Steps derives the full step list from a snapshot. The result replaces
// whatever was rendered before.
func Steps(steps []progress.Step) []Step {
	out := make([]Step, 0, len(steps))
	for i, s := range steps {
		st := Step{
			Number:    i + 1,
			Name:      s.Name,
			Message:   s.Message,
			Indicator: IndicatorFor(s.Status),
			Progress:  s.Progress,
			ShowBar:   s.Progress > 0,
		}
		if len(s.Substeps) > 0 {
			st.Substeps = make([]Substep, 0, len(s.Substeps))
			for _, sub := range s.Substeps {
				st.Substeps = append(st.Substeps, Substep{
					Name:      sub.Name,
					Message:   sub.Message,
					Indicator: IndicatorFor(sub.Status),
				})
			}
		}
		out = append(out, st)
	}
	return out
}

func cloneSteps(in []Step) []Step {
	if in == nil {
		return nil
	}
	out := make([]Step, len(in))
	for i, s := range in {
		out[i] = s
		out[i].Substeps = append([]Substep(nil), s.Substeps...)
	}
	return out
}
