package httpadapter

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
)

// Service is the hydrology application service the API delegates to.
// Write methods take the raw request body; partial selects PATCH semantics.
type Service interface {
	sharedobs.ReadinessChecker

	ListIDFTables(ctx context.Context, projectID int64) ([]*domain.IDFTable, error)
	GetIDFTable(ctx context.Context, projectID, id int64) (*domain.IDFTable, error)
	CreateIDFTable(ctx context.Context, projectID int64, body []byte) (*domain.IDFTable, error)
	UpdateIDFTable(ctx context.Context, projectID, id int64, body []byte, partial bool) (*domain.IDFTable, error)
	DeleteIDFTable(ctx context.Context, projectID, id int64) error

	ListTemporalPatterns(ctx context.Context, projectID int64) ([]*domain.TemporalPattern, error)
	GetTemporalPattern(ctx context.Context, projectID, id int64) (*domain.TemporalPattern, error)
	CreateTemporalPattern(ctx context.Context, projectID int64, body []byte) (*domain.TemporalPattern, error)
	UpdateTemporalPattern(ctx context.Context, projectID, id int64, body []byte, partial bool) (*domain.TemporalPattern, error)
	DeleteTemporalPattern(ctx context.Context, projectID, id int64) error

	ListTimeSeries(ctx context.Context, projectID int64) ([]*domain.TimeSeries, error)
	GetTimeSeries(ctx context.Context, projectID, id int64) (*domain.TimeSeries, error)
	CreateTimeSeries(ctx context.Context, projectID int64, body []byte) (*domain.TimeSeries, error)
	UpdateTimeSeries(ctx context.Context, projectID, id int64, body []byte, partial bool) (*domain.TimeSeries, error)
	DeleteTimeSeries(ctx context.Context, projectID, id int64) error
	TimeSeriesDatetimes(ctx context.Context, projectID, id int64) (*domain.TimeSeries, []domain.DataPoint, error)
	SynthesizeTimeSeries(ctx context.Context, projectID, tableID int64, body []byte) (*domain.TimeSeries, error)
}

type api struct {
	svc     Service
	maxBody int64
	logger  *slog.Logger
}

// resource wires the five CRUD operations of one record type to handlers.
type resource[T any] struct {
	list   func(ctx context.Context, projectID int64) ([]T, error)
	get    func(ctx context.Context, projectID, id int64) (T, error)
	create func(ctx context.Context, projectID int64, body []byte) (T, error)
	update func(ctx context.Context, projectID, id int64, body []byte, partial bool) (T, error)
	delete func(ctx context.Context, projectID, id int64) error
}

func (a *api) register(mux *http.ServeMux, prefix string) {
	// Every collection and item route answers with and without a trailing slash.
	handle := func(method, path string, h http.HandlerFunc) {
		mux.HandleFunc(method+" "+prefix+path, h)
		mux.HandleFunc(method+" "+prefix+path+"/{$}", h)
	}

	handle("GET", "/frequencies", a.listFrequencies)
	handle("GET", "/conversions", a.convert)

	registerResource(a, handle, "/{project_id}/idf-table", resource[*domain.IDFTable]{
		list:   a.svc.ListIDFTables,
		get:    a.svc.GetIDFTable,
		create: a.svc.CreateIDFTable,
		update: a.svc.UpdateIDFTable,
		delete: a.svc.DeleteIDFTable,
	})
	registerResource(a, handle, "/{project_id}/temporal-pattern", resource[*domain.TemporalPattern]{
		list:   a.svc.ListTemporalPatterns,
		get:    a.svc.GetTemporalPattern,
		create: a.svc.CreateTemporalPattern,
		update: a.svc.UpdateTemporalPattern,
		delete: a.svc.DeleteTemporalPattern,
	})
	registerResource(a, handle, "/{project_id}/time-series", resource[*domain.TimeSeries]{
		list:   a.svc.ListTimeSeries,
		get:    a.svc.GetTimeSeries,
		create: a.svc.CreateTimeSeries,
		update: a.svc.UpdateTimeSeries,
		delete: a.svc.DeleteTimeSeries,
	})

	handle("POST", "/{project_id}/idf-table/{id}/timeseries", a.synthesize)
	handle("GET", "/{project_id}/time-series/{id}/datetimes", a.datetimes)
	mux.HandleFunc("GET "+prefix+"/{project_id}/idf-table/{id}/export.xlsx", a.exportIDFTableXLSX)
	mux.HandleFunc("GET "+prefix+"/{project_id}/idf-table/{id}/export.pdf", a.exportIDFTablePDF)
	mux.HandleFunc("GET "+prefix+"/{project_id}/time-series/{id}/export.xlsx", a.exportTimeSeriesXLSX)
}

func registerResource[T any](a *api, handle func(method, path string, h http.HandlerFunc), base string, res resource[T]) {
	item := base + "/{id}"

	handle("GET", base, func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := pathID(r, "project_id")
		if !ok {
			writeNotFound(w)
			return
		}
		records, err := res.list(r.Context(), projectID)
		if err != nil {
			writeError(w, r, a.logger, err)
			return
		}
		if records == nil {
			records = []T{}
		}
		sharedobs.WriteJSON(w, http.StatusOK, records)
	})

	handle("POST", base, func(w http.ResponseWriter, r *http.Request) {
		projectID, ok := pathID(r, "project_id")
		if !ok {
			writeNotFound(w)
			return
		}
		body, err := a.readBody(w, r)
		if err != nil {
			writeError(w, r, a.logger, err)
			return
		}
		record, err := res.create(r.Context(), projectID, body)
		if err != nil {
			writeError(w, r, a.logger, err)
			return
		}
		sharedobs.WriteJSON(w, http.StatusCreated, record)
	})

	handle("GET", item, func(w http.ResponseWriter, r *http.Request) {
		projectID, id, ok := itemIDs(r)
		if !ok {
			writeNotFound(w)
			return
		}
		record, err := res.get(r.Context(), projectID, id)
		if err != nil {
			writeError(w, r, a.logger, err)
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, record)
	})

	update := func(partial bool) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			projectID, id, ok := itemIDs(r)
			if !ok {
				writeNotFound(w)
				return
			}
			body, err := a.readBody(w, r)
			if err != nil {
				writeError(w, r, a.logger, err)
				return
			}
			record, err := res.update(r.Context(), projectID, id, body, partial)
			if err != nil {
				writeError(w, r, a.logger, err)
				return
			}
			sharedobs.WriteJSON(w, http.StatusOK, record)
		}
	}
	handle("PUT", item, update(false))
	handle("PATCH", item, update(true))

	handle("DELETE", item, func(w http.ResponseWriter, r *http.Request) {
		projectID, id, ok := itemIDs(r)
		if !ok {
			writeNotFound(w)
			return
		}
		if err := res.delete(r.Context(), projectID, id); err != nil {
			writeError(w, r, a.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (a *api) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if a.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.maxBody)
	}
	return io.ReadAll(r.Body)
}

// pathID parses a positive integer path value. Anything else is a 404, the
// same answer a regex route that only matches digits would give.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func itemIDs(r *http.Request) (projectID, id int64, ok bool) {
	if projectID, ok = pathID(r, "project_id"); !ok {
		return 0, 0, false
	}
	if id, ok = pathID(r, "id"); !ok {
		return 0, 0, false
	}
	return projectID, id, true
}
