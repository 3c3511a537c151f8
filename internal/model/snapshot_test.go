package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testSnapshot() WidgetSnapshot {
	return WidgetSnapshot{
		Type:   WidgetTypeURL,
		Header: "Docs",
		Fields: FieldStates{
			{Label: "Name", Value: TextControl("Docs"), Visible: true, Enabled: true},
			{Label: "URL", Value: TextControl("https://example.com"), Visible: true, Enabled: true},
			{Label: "Hidden", Value: TextControl("stale"), Visible: false, Enabled: true},
		},
		Geometry: Geometry{X: 0, Y: 0, Width: 12, Height: 5},
	}
}

func TestWidgetSnapshotDiffEqual(t *testing.T) {
	require.Empty(t, testSnapshot().Diff(testSnapshot(), true))
}

func TestWidgetSnapshotDiffIgnoresHiddenFields(t *testing.T) {
	other := testSnapshot()
	other.Fields[2].Value = TextControl("different")
	require.Empty(t, testSnapshot().Diff(other, true))
}

func TestWidgetSnapshotDiffReportsDifferences(t *testing.T) {
	other := testSnapshot()
	other.Fields[1].Value = TextControl("https://example.org")
	other.Geometry.X = 12

	differences := testSnapshot().Diff(other, true)
	require.Len(t, differences, 2)
	require.Contains(t, differences[0], "geometry")
	require.Contains(t, differences[1], "URL")

	require.Len(t, testSnapshot().Diff(other, false), 1)
}

func TestWidgetSnapshotDiffReportsMissingAndUnexpected(t *testing.T) {
	other := testSnapshot()
	other.Fields[0].Enabled = false
	other.Fields = append(other.Fields, FieldState{Label: "Dynamic item", Value: CheckboxControl(true), Visible: true, Enabled: true})

	differences := testSnapshot().Diff(other, false)
	require.Equal(t, []string{`field "Name": missing`, `field "Dynamic item": unexpected`}, differences)
}

func TestFieldStatesProjectionSkipsMeaninglessFields(t *testing.T) {
	projection := testSnapshot().Fields.Projection()
	require.Len(t, projection, 2)
	_, found := projection.Lookup("Hidden")
	require.False(t, found)
}
