package httpadapter_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-hydrology-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
	"github.com/couchcryptid/storm-hydrology-service/internal/observability"
)

const idfBody = `{
	"location_name": "Test Location",
	"location_geom": {"type": "Point", "coordinates": [-105.01621, 39.57422]},
	"source": "Test Data",
	"notes": "Test note",
	"durations_in_mins": [5, 10, 15, 30, 60],
	"ey_1": [0.407, 0.632, 0.775, 1.02, 1.25],
	"percent_10": [0.645, 0.995, 1.22, 1.7, 2.16],
	"original_units": "in"
}`

const patternBody = `{"name": "AR&R front", "source": "AR&R 2019", "pattern": [0.10, 0.02, 0.18, 0.34, 0.11, 0.05, 0.12, 0.08]}`

type errorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields"`
}

func createID(t *testing.T, srv *testServer, path, body string) int64 {
	t.Helper()
	rec := srv.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode[map[string]any](t, rec)["id"].(float64))
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func TestIDFTable_CreateAndRetrieve(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, prefix+"/1/idf-table/", idfBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)

	assert.Equal(t, "Test Location", created["location_name"])
	assert.Equal(t, float64(1), created["project"])
	assert.Equal(t, true, created["units_converted"])
	assert.Equal(t, "mm", created["saved_units"])
	assert.Nil(t, created["ey_12"])
	assert.InDelta(t, 0.645*25.4, created["percent_10"].([]any)[0], 1e-9)
	assert.Equal(t, "Point", created["location_geom"].(map[string]any)["type"])

	tableID := int64(created["id"].(float64))
	for _, path := range []string{
		prefix + "/1/idf-table/" + id(tableID) + "/",
		prefix + "/1/idf-table/" + id(tableID),
	} {
		rec = srv.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = srv.do(t, http.MethodGet, prefix+"/1/idf-table", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestIDFTable_ListEmptyIsArray(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, prefix+"/1/idf-table/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestIDFTable_ValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{
			"column not a list",
			strings.Replace(idfBody, `"ey_1": [0.407, 0.632, 0.775, 1.02, 1.25]`, `"ey_1": "0.407"`, 1),
			"ey_1", "JSON field ey_1 is not a list.",
		},
		{
			"ragged columns",
			strings.Replace(idfBody, `"ey_1": [0.407, 0.632, 0.775, 1.02, 1.25]`, `"ey_1": [0.407]`, 1),
			"non_field_errors", "All durations must be lists of the same length.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, prefix+"/1/idf-table/", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			body := decode[errorResponse](t, rec)
			assert.Equal(t, "validation_error", body.Code)
			assert.Contains(t, body.Fields[tt.field], tt.msg)
		})
	}
}

func TestIDFTable_UpdateAndDelete(t *testing.T) {
	srv := newTestServer(t)
	tableID := createID(t, srv, prefix+"/1/idf-table/", idfBody)
	item := prefix + "/1/idf-table/" + id(tableID) + "/"

	rec := srv.do(t, http.MethodPatch, item, `{"notes": "revised"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode[map[string]any](t, rec)
	assert.Equal(t, "revised", patched["notes"])
	assert.InDelta(t, 0.645*25.4, patched["percent_10"].([]any)[0], 1e-9)

	rec = srv.do(t, http.MethodPut, item, `{"location_name": "Elsewhere", "source": "s", "location_geom": "POINT (150 -30)"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Elsewhere", decode[map[string]any](t, rec)["location_name"])

	rec = srv.do(t, http.MethodDelete, item, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodGet, item, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[map[string]string](t, rec)["code"])
}

func TestProjectScopingAndBadIDs(t *testing.T) {
	srv := newTestServer(t)
	tableID := createID(t, srv, prefix+"/1/idf-table/", idfBody)

	for _, path := range []string{
		prefix + "/2/idf-table/" + id(tableID) + "/",
		prefix + "/abc/idf-table/",
		prefix + "/1/idf-table/abc/",
		prefix + "/1/idf-table/-4/",
		prefix + "/1/idf-table/999/",
	} {
		rec := srv.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodDelete, prefix+"/1/idf-table/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTemporalPattern_CRUD(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, prefix+"/1/temporal-pattern/", patternBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	assert.Equal(t, "proportion", created["kind"])
	item := prefix + "/1/temporal-pattern/" + id(int64(created["id"].(float64))) + "/"

	rec = srv.do(t, http.MethodPatch, item, `{"pattern": [0.5, 0.6]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "The temporal pattern must sum to 1.")

	rec = srv.do(t, http.MethodPatch, item, `{"pattern": [50, 50]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "percentage", decode[map[string]any](t, rec)["kind"])

	rec = srv.do(t, http.MethodDelete, item, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTimeSeries_CreateAndDatetimes(t *testing.T) {
	srv := newTestServer(t)
	body := `{"name": "Gauge", "source": "BoM", "timezone": "Australia/Sydney",
		"data": [{"ts": "2021-01-01T00:00:00Z+00:00", "value": 1}, {"ts": "2021-01-01T00:05:00", "value": 2}]}`
	seriesID := createID(t, srv, prefix+"/1/time-series/", body)

	rec := srv.do(t, http.MethodGet, prefix+"/1/time-series/"+id(seriesID)+"/datetimes/", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"id": `+id(seriesID)+`,
		"timezone": "Australia/Sydney",
		"data": [
			{"ts": "2021-01-01T00:00:00+11:00", "value": 1},
			{"ts": "2021-01-01T00:05:00+11:00", "value": 2}
		]
	}`, rec.Body.String())
}

func TestTimeSeries_Rejects(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"bad timezone", `{"name": "g", "timezone": "Mars/Base", "data": []}`, "timezone", "The 'timezone' field must contain a valid timezone."},
		{"bad timestamp", `{"name": "g", "data": [{"ts": "yesterday", "value": 1}]}`, "data", "All timestamps must be in ISO 8601 format."},
		{"missing value", `{"name": "g", "data": [{"ts": "2021-01-01"}]}`, "data", "The {ts, value} fields are required in each data point."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, prefix+"/1/time-series/", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			fields := decode[errorResponse](t, rec).Fields
			assert.Equal(t, []string{tt.msg}, fields[tt.field])
		})
	}
}

func TestSynthesizeFromIDFTable(t *testing.T) {
	srv := newTestServer(t)
	tableID := createID(t, srv, prefix+"/1/idf-table/", idfBody)
	patternID := createID(t, srv, prefix+"/1/temporal-pattern/", patternBody)

	body := `{"duration_in_mins": 60, "frequency": "percent_10", "temporal_pattern": ` + id(patternID) + `}`
	rec := srv.do(t, http.MethodPost, prefix+"/1/idf-table/"+id(tableID)+"/timeseries/", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	series := decode[domain.TimeSeries](t, rec)
	require.Len(t, series.Data, 9)
	assert.Equal(t, "1970-01-01T00:00:00Z", series.Data[0].TS)
	assert.Equal(t, "1970-01-01T00:07:30Z", series.Data[1].TS)
	assert.Equal(t, "UTC", series.Timezone)

	rec = srv.do(t, http.MethodGet, prefix+"/1/time-series/"+id(series.ID)+"/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSynthesize_UnknownPattern(t *testing.T) {
	srv := newTestServer(t)
	tableID := createID(t, srv, prefix+"/1/idf-table/", idfBody)

	body := `{"duration_in_mins": 60, "frequency": "percent_10", "temporal_pattern": 99}`
	rec := srv.do(t, http.MethodPost, prefix+"/1/idf-table/"+id(tableID)+"/timeseries", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `Invalid pk \"99\" - object does not exist.`)
}

func TestFrequencies(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, prefix+"/frequencies/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	catalogue := decode[[]map[string]any](t, rec)
	require.Len(t, catalogue, len(domain.FrequencyKeys()))
	assert.Equal(t, "ey_12", catalogue[0]["key"])
	assert.InDelta(t, 10, catalogue[10]["aep"], 1e-9)
	assert.InDelta(t, 9.49, catalogue[10]["ari"], 0.01)
}

func TestConversions(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, prefix+"/conversions/?aep=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 99.5, decode[map[string]float64](t, rec)["ari"], 0.01)

	rec = srv.do(t, http.MethodGet, prefix+"/conversions?ari=100", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.995, decode[map[string]float64](t, rec)["aep"], 0.001)

	for _, q := range []string{"", "?aep=1&ari=2", "?aep=abc", "?aep=100", "?ari=0"} {
		rec = srv.do(t, http.MethodGet, prefix+"/conversions/"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestExports(t *testing.T) {
	srv := newTestServer(t)
	tableID := createID(t, srv, prefix+"/1/idf-table/", idfBody)
	seriesID := createID(t, srv, prefix+"/1/time-series/", `{"name": "g", "data": [{"ts": "2021-01-01", "value": 1}]}`)

	rec := srv.do(t, http.MethodGet, prefix+"/1/idf-table/"+id(tableID)+"/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "idf-table-"+id(tableID)+".xlsx")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))

	rec = srv.do(t, http.MethodGet, prefix+"/1/idf-table/"+id(tableID)+"/export.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	rec = srv.do(t, http.MethodGet, prefix+"/1/time-series/"+id(seriesID)+"/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, prefix+"/2/idf-table/"+id(tableID)+"/export.pdf", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBodyLimits(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, prefix+"/1/temporal-pattern/", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	huge := `{"name": "` + strings.Repeat("x", 70<<10) + `"}`
	rec = srv.do(t, http.MethodPost, prefix+"/1/temporal-pattern/", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

type failingService struct {
	httpadapter.Service
}

func (failingService) ListIDFTables(context.Context, int64) ([]*domain.IDFTable, error) {
	return nil, errors.New("disk on fire")
}

func TestInternalErrorsAreMasked(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httpadapter.NewServer(":0", failingService{}, httpadapter.Options{Prefix: prefix}, observability.NewMetricsForTesting(), logger)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, prefix+"/1/idf-table/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}
