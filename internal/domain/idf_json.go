package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// MarshalJSON renders the table in its flat wire form: one top-level key per
// frequency column (null when unpopulated) and location_geom as GeoJSON.
func (t *IDFTable) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":                   t.ID,
		"project":              t.ProjectID,
		"location_name":        t.LocationName,
		"location_geom":        nil,
		"formatted_address":    t.FormattedAddress,
		"geo_source":           t.GeoSource,
		"source":               t.Source,
		"notes":                nullableString(t.Notes),
		"durations_in_mins":    t.DurationsInMins,
		"original_units":       t.OriginalUnits,
		"saved_units":          t.SavedUnits,
		"units_converted":      t.UnitsConverted,
		"selected_durations":   t.SelectedDurations,
		"selected_frequencies": t.SelectedFrequencies,
		"created_at":           formatStamp(t.CreatedAt),
		"updated_at":           formatStamp(t.UpdatedAt),
	}
	if t.Location != nil {
		out["location_geom"] = geojson.NewGeometry(*t.Location)
	}
	for _, f := range frequencies {
		if column, ok := t.Depths[f.Key]; ok {
			out[f.Key] = column
		} else {
			out[f.Key] = nil
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the flat wire form. Frequency columns that are present
// but not JSON arrays of numbers produce validation errors rather than decode errors.
func (t *IDFTable) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode idf table: %w", err)
	}

	decoded := NewIDFTable()
	var errs ValidationErrors

	decodeInto(raw, "id", &decoded.ID, &errs)
	decodeInto(raw, "project", &decoded.ProjectID, &errs)
	decodeInto(raw, "location_name", &decoded.LocationName, &errs)
	decodeInto(raw, "formatted_address", &decoded.FormattedAddress, &errs)
	decodeInto(raw, "geo_source", &decoded.GeoSource, &errs)
	decodeInto(raw, "source", &decoded.Source, &errs)
	decodeInto(raw, "notes", &decoded.Notes, &errs)
	decodeInto(raw, "units_converted", &decoded.UnitsConverted, &errs)
	decodeInto(raw, "selected_frequencies", &decoded.SelectedFrequencies, &errs)
	decodeStamp(raw, "created_at", &decoded.CreatedAt, &errs)
	decodeStamp(raw, "updated_at", &decoded.UpdatedAt, &errs)

	var original, saved string
	decodeInto(raw, "original_units", &original, &errs)
	decodeInto(raw, "saved_units", &saved, &errs)
	if original != "" {
		decoded.OriginalUnits = DepthUnit(original)
	}
	if saved != "" {
		decoded.SavedUnits = DepthUnit(saved)
	}

	if msg, ok := raw["location_geom"]; ok && !isNull(msg) {
		point, err := ParseLocation(msg)
		if err != nil {
			errs.add("location_geom", err.Error())
		} else {
			decoded.Location = &point
		}
	}

	for _, key := range []string{"durations_in_mins", "selected_durations"} {
		values, present, err := ParseNumberList(key, raw[key])
		if err != nil {
			errs = append(errs, err.(*ValidationError))
			continue
		}
		if !present {
			continue
		}
		if key == "durations_in_mins" {
			decoded.DurationsInMins = values
		} else {
			decoded.SelectedDurations = values
		}
	}

	for _, f := range frequencies {
		values, present, err := ParseNumberList(f.Key, raw[f.Key])
		if err != nil {
			errs = append(errs, err.(*ValidationError))
			continue
		}
		if present {
			decoded.Depths[f.Key] = values
		}
	}

	if err := errs.err(); err != nil {
		return err
	}
	*t = *decoded
	return nil
}

// ParseNumberList decodes a JSON value that must be null or an array of numbers.
// present is false for a missing or null value.
func ParseNumberList(field string, msg json.RawMessage) (values []float64, present bool, err error) {
	if len(msg) == 0 || isNull(msg) {
		return nil, false, nil
	}
	trimmed := bytes.TrimSpace(msg)
	if trimmed[0] != '[' {
		return nil, true, invalid(field, fmt.Sprintf("JSON field %s is not a list.", field))
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, true, invalid(field, fmt.Sprintf("JSON field %s is not a list.", field))
	}
	values = make([]float64, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &values[i]); err != nil || isNull(item) {
			return nil, true, invalid(field, fmt.Sprintf("item %d of %s is not a number", i, field))
		}
	}
	return values, true, nil
}

// ParseLocation reads a point from GeoJSON ({"type":"Point","coordinates":[lon,lat]})
// or from a WKT string such as "SRID=4326;POINT (-88.5889 40.0308)".
func ParseLocation(msg json.RawMessage) (orb.Point, error) {
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return orb.Point{}, err
		}
		if i := strings.Index(s, ";"); i >= 0 && strings.HasPrefix(strings.ToUpper(s), "SRID=") {
			s = s[i+1:]
		}
		p, err := wkt.UnmarshalPoint(strings.TrimSpace(s))
		if err != nil {
			return orb.Point{}, fmt.Errorf("invalid WKT point: %w", err)
		}
		return p, nil
	}

	g, err := geojson.UnmarshalGeometry(trimmed)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid GeoJSON geometry: %w", err)
	}
	p, ok := g.Geometry().(orb.Point)
	if !ok {
		return orb.Point{}, fmt.Errorf("expected a Point geometry, got %s", g.Type)
	}
	return p, nil
}

func decodeInto(raw map[string]json.RawMessage, key string, dst any, errs *ValidationErrors) {
	msg, ok := raw[key]
	if !ok || isNull(msg) {
		return
	}
	if err := json.Unmarshal(msg, dst); err != nil {
		errs.add(key, fmt.Sprintf("invalid value: %s", string(msg)))
	}
}

func decodeStamp(raw map[string]json.RawMessage, key string, dst *time.Time, errs *ValidationErrors) {
	var s string
	decodeInto(raw, key, &s, errs)
	if s == "" {
		return
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		errs.add(key, "invalid timestamp")
		return
	}
	*dst = ts
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatStamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
