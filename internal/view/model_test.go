package view

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/convert-progress/internal/progress"
)

// TestIndicatorFor covers the status-to-indicator mapping.
func TestIndicatorFor(t *testing.T) {
	t.Parallel()

	require.Equal(t, IndicatorNeutral, IndicatorFor(progress.StatusPending))
	require.Equal(t, IndicatorActive, IndicatorFor(progress.StatusInProgress))
	require.Equal(t, IndicatorSuccess, IndicatorFor(progress.StatusCompleted))
	require.Equal(t, IndicatorFailure, IndicatorFor(progress.StatusError))
	require.Equal(t, IndicatorNeutral, IndicatorFor(progress.Status("")))
}

// TestStepsActiveWithBar checks an in-progress step with progress gets an active indicator and a bar.
func TestStepsActiveWithBar(t *testing.T) {
	t.Parallel()

	got := Steps([]progress.Step{{Name: "Extract", Status: progress.StatusInProgress, Progress: 60}})
	require.Len(t, got, 1)
	require.Equal(t, 1, got[0].Number)
	require.Equal(t, IndicatorActive, got[0].Indicator)
	require.True(t, got[0].ShowBar)
	require.Equal(t, 60, got[0].Progress)
}

// TestStepsNoBarWithoutProgress hides the sub-bar when progress is zero.
func TestStepsNoBarWithoutProgress(t *testing.T) {
	t.Parallel()

	got := Steps([]progress.Step{
		{Name: "OCR", Status: progress.StatusCompleted, Progress: 100},
		{Name: "Melody", Status: progress.StatusPending},
	})
	require.Len(t, got, 2)
	require.True(t, got[0].ShowBar)
	require.False(t, got[1].ShowBar)
	require.Equal(t, 2, got[1].Number)
}

// TestStepsSubstepsFlat renders substeps one level deep with their own indicators.
func TestStepsSubstepsFlat(t *testing.T) {
	t.Parallel()

	got := Steps([]progress.Step{{
		Name:   "OCR",
		Status: progress.StatusError,
		Substeps: []progress.Substep{
			{Name: "A", Status: progress.StatusCompleted, Progress: 100},
			{Name: "B", Status: progress.StatusError, Message: "timeout"},
		},
	}})
	require.Len(t, got, 1)
	require.Equal(t, IndicatorFailure, got[0].Indicator)
	require.Equal(t, []Substep{
		{Name: "A", Indicator: IndicatorSuccess},
		{Name: "B", Message: "timeout", Indicator: IndicatorFailure},
	}, got[0].Substeps)
}
