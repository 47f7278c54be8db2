package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noaaInches is a slice of the NOAA Atlas 14 table for Mahomet, IL.
func noaaInches() map[string][]float64 {
	return map[string][]float64{
		"ey_1":       {0.407, 0.632, 0.775, 1.02, 1.25},
		"percent_10": {0.645, 0.995, 1.22, 1.7, 2.16},
		"percent_1":  {0.88, 1.32, 1.65, 2.38, 3.18},
	}
}

func inchTable() *IDFTable {
	table := NewIDFTable()
	table.LocationName = "Test Location"
	table.Source = "NOAA Atlas 14"
	table.DurationsInMins = []float64{5, 10, 15, 30, 60}
	table.Depths = noaaInches()
	table.OriginalUnits = Inches
	return table
}

func TestParseDepthUnit(t *testing.T) {
	tests := []struct {
		in   string
		want DepthUnit
	}{
		{"", Millimeters},
		{"mm", Millimeters},
		{" CM ", Centimeters},
		{"in", Inches},
	}
	for _, tt := range tests {
		got, err := ParseDepthUnit(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseDepthUnit("furlong")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConvertUnits_InchesToMillimeters(t *testing.T) {
	table := inchTable()
	require.NoError(t, table.ConvertUnits())

	assert.True(t, table.UnitsConverted)
	assert.Equal(t, Millimeters, table.SavedUnits)
	assert.Equal(t, Inches, table.OriginalUnits)
	for key, column := range noaaInches() {
		require.Len(t, table.Depths[key], len(column))
		for i, v := range column {
			assert.InDelta(t, v*25.4, table.Depths[key][i], 1e-9, "%s[%d]", key, i)
		}
	}
}

func TestConvertUnits_Centimeters(t *testing.T) {
	table := inchTable()
	table.OriginalUnits = Centimeters
	table.Depths = map[string][]float64{"percent_1": {1.5, 2.5, 3, 4, 5}}
	require.NoError(t, table.ConvertUnits())
	assert.InDeltaSlice(t, []float64{15, 25, 30, 40, 50}, table.Depths["percent_1"], 1e-9)
}

func TestConvertUnits_AppliedOnce(t *testing.T) {
	table := inchTable()
	require.NoError(t, table.ConvertUnits())
	once := append([]float64(nil), table.Depths["percent_10"]...)

	require.NoError(t, table.ConvertUnits())
	assert.Equal(t, once, table.Depths["percent_10"])
}

func TestConvertUnits_MillimetersOnlyMarksFlag(t *testing.T) {
	table := inchTable()
	table.OriginalUnits = Millimeters
	require.NoError(t, table.ConvertUnits())

	assert.True(t, table.UnitsConverted)
	assert.Equal(t, noaaInches()["percent_10"], table.Depths["percent_10"])
}

func TestConvertUnits_UnknownUnit(t *testing.T) {
	table := inchTable()
	table.OriginalUnits = "ft"
	err := table.ConvertUnits()
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, table.UnitsConverted)
}
