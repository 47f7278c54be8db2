package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
	"github.com/paulmach/orb"
)

const idfColumns = `id, project_id, location_name, lon, lat, formatted_address, geo_source,
	source, notes, durations_in_mins, depths, original_units, saved_units, units_converted,
	selected_durations, selected_frequencies, created_at, updated_at`

// idfRow holds the encoded column values shared by insert and update.
type idfRow struct {
	lon, lat                                 sql.NullFloat64
	durations, depths, selDurations, selFreq string
}

func encodeIDF(t *domain.IDFTable) (idfRow, error) {
	var r idfRow
	if t.Location != nil {
		r.lon = sql.NullFloat64{Float64: t.Location.Lon(), Valid: true}
		r.lat = sql.NullFloat64{Float64: t.Location.Lat(), Valid: true}
	}
	var err error
	if r.durations, err = encodeJSON(t.DurationsInMins); err != nil {
		return r, err
	}
	depths := t.Depths
	if depths == nil {
		depths = map[string][]float64{}
	}
	if r.depths, err = encodeJSON(depths); err != nil {
		return r, err
	}
	if r.selDurations, err = encodeJSON(t.SelectedDurations); err != nil {
		return r, err
	}
	if r.selFreq, err = encodeJSON(t.SelectedFrequencies); err != nil {
		return r, err
	}
	return r, nil
}

// CreateIDFTable inserts the table and sets its ID.
func (s *Store) CreateIDFTable(ctx context.Context, t *domain.IDFTable) error {
	r, err := encodeIDF(t)
	if err != nil {
		return fmt.Errorf("encode idf table: %w", err)
	}
	id, err := s.insert(ctx, `INSERT INTO idf_tables (project_id, location_name, lon, lat,
		formatted_address, geo_source, source, notes, durations_in_mins, depths, original_units,
		saved_units, units_converted, selected_durations, selected_frequencies, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ProjectID, t.LocationName, r.lon, r.lat, t.FormattedAddress, t.GeoSource, t.Source, t.Notes,
		r.durations, r.depths, string(t.OriginalUnits), string(t.SavedUnits), boolToInt(t.UnitsConverted),
		r.selDurations, r.selFreq, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert idf table: %w", err)
	}
	t.ID = id
	return nil
}

// GetIDFTable returns domain.ErrNotFound when the table is not in the project.
func (s *Store) GetIDFTable(ctx context.Context, projectID, id int64) (*domain.IDFTable, error) {
	row := s.queryRow(ctx, `SELECT `+idfColumns+` FROM idf_tables WHERE project_id = ? AND id = ?`, projectID, id)
	t, err := scanIDF(row)
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get idf table %d: %w", id, err)
	}
	return t, nil
}

// ListIDFTables returns the project's tables ordered by ID.
func (s *Store) ListIDFTables(ctx context.Context, projectID int64) ([]*domain.IDFTable, error) {
	rows, err := s.query(ctx, `SELECT `+idfColumns+` FROM idf_tables WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list idf tables: %w", err)
	}
	defer rows.Close()

	out := []*domain.IDFTable{}
	for rows.Next() {
		t, err := scanIDF(rows)
		if err != nil {
			return nil, fmt.Errorf("scan idf table: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) UpdateIDFTable(ctx context.Context, t *domain.IDFTable) error {
	r, err := encodeIDF(t)
	if err != nil {
		return fmt.Errorf("encode idf table: %w", err)
	}
	err = affectedOne(s.exec(ctx, `UPDATE idf_tables SET location_name = ?, lon = ?, lat = ?,
		formatted_address = ?, geo_source = ?, source = ?, notes = ?, durations_in_mins = ?, depths = ?,
		original_units = ?, saved_units = ?, units_converted = ?, selected_durations = ?,
		selected_frequencies = ?, updated_at = ?
		WHERE project_id = ? AND id = ?`,
		t.LocationName, r.lon, r.lat, t.FormattedAddress, t.GeoSource, t.Source, t.Notes,
		r.durations, r.depths, string(t.OriginalUnits), string(t.SavedUnits), boolToInt(t.UnitsConverted),
		r.selDurations, r.selFreq, formatTime(t.UpdatedAt), t.ProjectID, t.ID))
	if isNoRows(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update idf table %d: %w", t.ID, err)
	}
	return nil
}

func (s *Store) DeleteIDFTable(ctx context.Context, projectID, id int64) error {
	err := affectedOne(s.exec(ctx, `DELETE FROM idf_tables WHERE project_id = ? AND id = ?`, projectID, id))
	if isNoRows(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete idf table %d: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIDF(sc scanner) (*domain.IDFTable, error) {
	t := domain.NewIDFTable()
	var (
		lon, lat                                 sql.NullFloat64
		durations, depths, selDurations, selFreq string
		original, saved                          string
		converted                                int
		created, updated                         string
	)
	if err := sc.Scan(&t.ID, &t.ProjectID, &t.LocationName, &lon, &lat, &t.FormattedAddress, &t.GeoSource,
		&t.Source, &t.Notes, &durations, &depths, &original, &saved, &converted,
		&selDurations, &selFreq, &created, &updated); err != nil {
		return nil, err
	}
	if lon.Valid && lat.Valid {
		p := orb.Point{lon.Float64, lat.Float64}
		t.Location = &p
	}
	t.OriginalUnits = domain.DepthUnit(original)
	t.SavedUnits = domain.DepthUnit(saved)
	t.UnitsConverted = converted != 0

	for _, f := range []struct {
		src string
		dst any
	}{
		{durations, &t.DurationsInMins},
		{depths, &t.Depths},
		{selDurations, &t.SelectedDurations},
		{selFreq, &t.SelectedFrequencies},
	} {
		if err := decodeJSON(f.src, f.dst); err != nil {
			return nil, fmt.Errorf("decode column: %w", err)
		}
	}
	if t.Depths == nil {
		t.Depths = map[string][]float64{}
	}

	var err error
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return t, nil
}
