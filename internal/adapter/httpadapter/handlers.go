package httpadapter

import (
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/storm-hydrology-service/internal/adapter/export"
	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
)

type frequencyView struct {
	domain.Frequency
	AEP float64 `json:"aep"`
	ARI float64 `json:"ari"`
}

func (a *api) listFrequencies(w http.ResponseWriter, _ *http.Request) {
	catalogue := domain.Frequencies()
	out := make([]frequencyView, len(catalogue))
	for i, f := range catalogue {
		out[i] = frequencyView{Frequency: f, AEP: f.AEP(), ARI: f.ARI()}
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

// convert answers ?aep=<percent> with the matching ARI, or ?ari=<years> with the AEP.
func (a *api) convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	aepRaw, ariRaw := q.Get("aep"), q.Get("ari")
	if (aepRaw == "") == (ariRaw == "") {
		writeError(w, r, a.logger, &domain.ValidationError{Message: "Provide exactly one of the 'aep' or 'ari' query parameters."})
		return
	}

	field, raw := "aep", aepRaw
	if ariRaw != "" {
		field, raw = "ari", ariRaw
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, r, a.logger, &domain.ValidationError{Field: field, Message: "A valid number is required."})
		return
	}

	if field == "aep" {
		ari, err := domain.ARIFromAEP(v)
		if err != nil {
			writeError(w, r, a.logger, err)
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, map[string]float64{"aep": v, "ari": ari})
		return
	}
	aep, err := domain.AEPFromARI(v)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]float64{"ari": v, "aep": aep})
}

func (a *api) synthesize(w http.ResponseWriter, r *http.Request) {
	projectID, tableID, ok := itemIDs(r)
	if !ok {
		writeNotFound(w)
		return
	}
	body, err := a.readBody(w, r)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	ts, err := a.svc.SynthesizeTimeSeries(r.Context(), projectID, tableID, body)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusCreated, ts)
}

func (a *api) datetimes(w http.ResponseWriter, r *http.Request) {
	projectID, id, ok := itemIDs(r)
	if !ok {
		writeNotFound(w)
		return
	}
	ts, points, err := a.svc.TimeSeriesDatetimes(r.Context(), projectID, id)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"id":       ts.ID,
		"timezone": ts.Timezone,
		"data":     points,
	})
}

func (a *api) exportIDFTableXLSX(w http.ResponseWriter, r *http.Request) {
	a.exportIDFTable(w, r, "xlsx", export.ContentTypeXLSX, export.IDFTableXLSX)
}

func (a *api) exportIDFTablePDF(w http.ResponseWriter, r *http.Request) {
	a.exportIDFTable(w, r, "pdf", export.ContentTypePDF, export.IDFTablePDF)
}

func (a *api) exportIDFTable(w http.ResponseWriter, r *http.Request, ext, contentType string, render func(*domain.IDFTable) ([]byte, error)) {
	projectID, id, ok := itemIDs(r)
	if !ok {
		writeNotFound(w)
		return
	}
	table, err := a.svc.GetIDFTable(r.Context(), projectID, id)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	data, err := render(table)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	writeFile(w, contentType, export.Filename(domain.KindIDFTable, id, ext), data)
}

func (a *api) exportTimeSeriesXLSX(w http.ResponseWriter, r *http.Request) {
	projectID, id, ok := itemIDs(r)
	if !ok {
		writeNotFound(w)
		return
	}
	ts, err := a.svc.GetTimeSeries(r.Context(), projectID, id)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	data, err := export.TimeSeriesXLSX(ts)
	if err != nil {
		writeError(w, r, a.logger, err)
		return
	}
	writeFile(w, export.ContentTypeXLSX, export.Filename(domain.KindTimeSeries, id, "xlsx"), data)
}
