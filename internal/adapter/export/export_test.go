package export

import (
	"bytes"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
)

func sampleTable() *domain.IDFTable {
	table := domain.NewIDFTable()
	table.ID = 4
	table.LocationName = "Mahomet, IL"
	table.Location = &orb.Point{-88.4042, 40.1953}
	table.Source = "NOAA Atlas 14"
	table.DurationsInMins = []float64{5, 10, 60}
	table.Depths["ey_1"] = []float64{10.3, 16.1, 31.8}
	table.Depths["percent_10"] = []float64{16.4, 25.3, 54.9}
	return table
}

func TestIDFTableXLSX(t *testing.T) {
	data, err := IDFTableXLSX(sampleTable())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"summary", "depths"}, f.GetSheetList())

	rows, err := f.GetRows("depths")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Duration (min)", "1EY", "10%"}, rows[0])
	assert.Equal(t, []string{"60", "31.8", "54.9"}, rows[3])

	name, err := f.GetCellValue("summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Mahomet, IL", name)
}

func TestTimeSeriesXLSX(t *testing.T) {
	ts := &domain.TimeSeries{
		Name:     "Gauge",
		Timezone: "Australia/Sydney",
		Data: []domain.DataPoint{
			{TS: "2021-01-01T00:00:00Z", Value: domain.Float(1.5)},
			{TS: "2021-01-01T00:05:00Z", Value: domain.Float(2)},
		},
	}
	data, err := TimeSeriesXLSX(ts)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("data")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2021-01-01T00:00:00+11:00", "1.5"}, rows[1])
}

func TestTimeSeriesXLSX_InvalidData(t *testing.T) {
	ts := &domain.TimeSeries{Name: "g", Timezone: "UTC", Data: []domain.DataPoint{{TS: "soon", Value: domain.Float(1)}}}
	_, err := TimeSeriesXLSX(ts)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIDFTablePDF(t *testing.T) {
	data, err := IDFTablePDF(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestIDFTablePDF_AllColumns(t *testing.T) {
	table := sampleTable()
	for _, key := range domain.FrequencyKeys() {
		table.Depths[key] = []float64{1, 2, 3}
	}
	data, err := IDFTablePDF(table)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "idf-table-4.xlsx", Filename(domain.KindIDFTable, 4, "xlsx"))
	assert.Equal(t, "time-series-9.pdf", Filename(domain.KindTimeSeries, 9, "pdf"))
}
