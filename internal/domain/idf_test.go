package domain

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTable() *IDFTable {
	table := inchTable()
	table.Location = &orb.Point{-88.5889, 40.0308}
	table.Notes = "Test note"
	return table
}

func TestIDFTable_Validate_OK(t *testing.T) {
	require.NoError(t, validTable().Validate())
}

func TestIDFTable_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IDFTable)
		field  string
		msg    string
	}{
		{"missing location name", func(tb *IDFTable) { tb.LocationName = "  " }, "location_name", "This field is required."},
		{"missing source", func(tb *IDFTable) { tb.Source = "" }, "source", "This field is required."},
		{"missing location", func(tb *IDFTable) { tb.Location = nil }, "location_geom", "This field is required."},
		{"latitude out of range", func(tb *IDFTable) { tb.Location = &orb.Point{30, 150} }, "location_geom", "point (30 150) is outside WGS84 bounds"},
		{"unknown unit", func(tb *IDFTable) { tb.OriginalUnits = "ft" }, "original_units", `unsupported depth unit "ft" (expected mm, cm or in)`},
		{
			"ragged columns",
			func(tb *IDFTable) { tb.Depths["ey_6"] = []float64{1, 2, 3} },
			"non_field_errors", "All durations must be lists of the same length.",
		},
		{
			"column length differs from durations",
			func(tb *IDFTable) { tb.DurationsInMins = tb.DurationsInMins[:4] },
			"durations_in_mins", "frequency columns have 5 rows but 4 durations are listed",
		},
		{
			"columns without durations",
			func(tb *IDFTable) { tb.DurationsInMins = nil },
			"durations_in_mins", "durations are required when frequency columns are populated",
		},
		{
			"durations not increasing",
			func(tb *IDFTable) { tb.DurationsInMins = []float64{5, 10, 10, 30, 60} },
			"durations_in_mins", "durations must be strictly increasing",
		},
		{
			"duration too long",
			func(tb *IDFTable) { tb.DurationsInMins = []float64{5, 10, 15, 30, 2e8} },
			"durations_in_mins", "duration at index 4 exceeds 5.2596e+07 minutes",
		},
		{
			"negative depth",
			func(tb *IDFTable) { tb.Depths["percent_1"] = []float64{1, 2, -3, 4, 5} },
			"percent_1", "depth at index 2 must be a non-negative number",
		},
		{
			"unknown column",
			func(tb *IDFTable) { tb.Depths["percent_3"] = []float64{1, 2, 3, 4, 5} },
			"percent_3", "unknown frequency column",
		},
		{
			"selected duration not listed",
			func(tb *IDFTable) { tb.SelectedDurations = []float64{45} },
			"selected_durations", "duration 45 is not listed in durations_in_mins",
		},
		{
			"selected frequency not populated",
			func(tb *IDFTable) { tb.SelectedFrequencies = []string{"percent_2"} },
			"selected_frequencies", `frequency column "percent_2" is not populated`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := validTable()
			tt.mutate(table)
			err := table.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, FieldErrors(err)[tt.field], tt.msg)
		})
	}
}

func TestIDFTable_Validate_CollectsEveryViolation(t *testing.T) {
	table := validTable()
	table.LocationName = ""
	table.Source = ""
	table.Depths["ey_6"] = []float64{1}

	fields := FieldErrors(table.Validate())
	assert.Contains(t, fields, "location_name")
	assert.Contains(t, fields, "source")
	assert.Contains(t, fields, "non_field_errors")
}

func TestIDFTable_Validate_NoColumns(t *testing.T) {
	table := validTable()
	table.Depths = map[string][]float64{}
	table.DurationsInMins = nil
	assert.NoError(t, table.Validate())
}

func TestIDFTable_DepthFor(t *testing.T) {
	table := validTable()

	depth, err := table.DepthFor(60, "percent_10")
	require.NoError(t, err)
	assert.Equal(t, 2.16, depth)

	_, err = table.DepthFor(45, "percent_10")
	assert.Contains(t, FieldErrors(err)["duration"], "duration 45 minutes is not listed in durations_in_mins")

	_, err = table.DepthFor(60, "percent_2")
	assert.Contains(t, FieldErrors(err)["frequency"], `frequency column "percent_2" is not populated`)

	_, err = table.DepthFor(60, "bogus")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIDFTable_PopulatedFrequencies(t *testing.T) {
	assert.Equal(t, []string{"ey_1", "percent_10", "percent_1"}, validTable().PopulatedFrequencies())
}

func TestIDFTable_UnmarshalJSON(t *testing.T) {
	body := `{
		"location_name": "Test Location",
		"location_geom": {"type": "Point", "coordinates": [-105.01621, 39.57422]},
		"source": "Test Data",
		"notes": null,
		"durations_in_mins": [5, 10],
		"ey_12": null,
		"percent_10": [0.645, 0.995],
		"original_units": "in"
	}`
	var table IDFTable
	require.NoError(t, json.Unmarshal([]byte(body), &table))

	assert.Equal(t, "Test Location", table.LocationName)
	require.NotNil(t, table.Location)
	assert.Equal(t, orb.Point{-105.01621, 39.57422}, *table.Location)
	assert.Equal(t, []float64{5, 10}, table.DurationsInMins)
	assert.Equal(t, map[string][]float64{"percent_10": {0.645, 0.995}}, table.Depths)
	assert.Equal(t, Inches, table.OriginalUnits)
	assert.Equal(t, Millimeters, table.SavedUnits)
	assert.Empty(t, table.Notes)
}

func TestIDFTable_UnmarshalJSON_WKT(t *testing.T) {
	for _, geom := range []string{`"SRID=4326;POINT (-88.5889 40.0308)"`, `"POINT(-88.5889 40.0308)"`} {
		var table IDFTable
		require.NoError(t, json.Unmarshal([]byte(`{"location_geom": `+geom+`}`), &table), geom)
		require.NotNil(t, table.Location)
		assert.Equal(t, orb.Point{-88.5889, 40.0308}, *table.Location)
	}
}

func TestIDFTable_UnmarshalJSON_NotAList(t *testing.T) {
	var table IDFTable
	err := json.Unmarshal([]byte(`{"location_name": "x", "ey_12": "not a list"}`), &table)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, []string{"JSON field ey_12 is not a list."}, FieldErrors(err)["ey_12"])
}

func TestIDFTable_UnmarshalJSON_BadEntries(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"string in column", `{"percent_1": [1, "two"]}`, "percent_1"},
		{"null in column", `{"percent_1": [1, null]}`, "percent_1"},
		{"durations object", `{"durations_in_mins": {"a": 1}}`, "durations_in_mins"},
		{"polygon geometry", `{"location_geom": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}}`, "location_geom"},
		{"garbage WKT", `{"location_geom": "POINT(abc)"}`, "location_geom"},
		{"name not string", `{"location_name": 12}`, "location_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var table IDFTable
			err := json.Unmarshal([]byte(tt.body), &table)
			require.Error(t, err)
			assert.Contains(t, FieldErrors(err), tt.field)
		})
	}
}

func TestIDFTable_MarshalJSON(t *testing.T) {
	table := validTable()
	table.ID = 4
	table.ProjectID = 2

	data, err := json.Marshal(table)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, float64(4), out["id"])
	assert.Equal(t, float64(2), out["project"])
	assert.Equal(t, map[string]any{"type": "Point", "coordinates": []any{-88.5889, 40.0308}}, out["location_geom"])
	assert.Nil(t, out["ey_12"])
	assert.Equal(t, []any{0.645, 0.995, 1.22, 1.7, 2.16}, out["percent_10"])
	assert.Nil(t, out["created_at"])
	for _, key := range FrequencyKeys() {
		assert.Contains(t, out, key)
	}

	// The wire form decodes back to the same table.
	var back IDFTable
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, table.Depths, back.Depths)
	assert.Equal(t, *table.Location, *back.Location)
}
