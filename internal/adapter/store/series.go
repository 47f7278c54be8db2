package store

import (
	"context"
	"fmt"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
)

const seriesColumns = `id, project_id, name, location_name, source, notes, timezone, data, origin, created_at, updated_at`

func (s *Store) CreateTimeSeries(ctx context.Context, ts *domain.TimeSeries) error {
	data, origin, err := encodeSeries(ts)
	if err != nil {
		return err
	}
	id, err := s.insert(ctx, `INSERT INTO time_series (project_id, name, location_name, source, notes, timezone, data, origin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.ProjectID, ts.Name, ts.LocationName, ts.Source, ts.Notes, ts.Timezone, data, origin,
		formatTime(ts.CreatedAt), formatTime(ts.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert time series: %w", err)
	}
	ts.ID = id
	return nil
}

func (s *Store) GetTimeSeries(ctx context.Context, projectID, id int64) (*domain.TimeSeries, error) {
	ts, err := scanSeries(s.queryRow(ctx, `SELECT `+seriesColumns+` FROM time_series WHERE project_id = ? AND id = ?`, projectID, id))
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get time series %d: %w", id, err)
	}
	return ts, nil
}

func (s *Store) ListTimeSeries(ctx context.Context, projectID int64) ([]*domain.TimeSeries, error) {
	rows, err := s.query(ctx, `SELECT `+seriesColumns+` FROM time_series WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list time series: %w", err)
	}
	defer rows.Close()

	out := []*domain.TimeSeries{}
	for rows.Next() {
		ts, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time series: %w", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTimeSeries(ctx context.Context, ts *domain.TimeSeries) error {
	data, origin, err := encodeSeries(ts)
	if err != nil {
		return err
	}
	err = affectedOne(s.exec(ctx, `UPDATE time_series SET name = ?, location_name = ?, source = ?, notes = ?,
		timezone = ?, data = ?, origin = ?, updated_at = ?
		WHERE project_id = ? AND id = ?`,
		ts.Name, ts.LocationName, ts.Source, ts.Notes, ts.Timezone, data, origin, formatTime(ts.UpdatedAt),
		ts.ProjectID, ts.ID))
	if isNoRows(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update time series %d: %w", ts.ID, err)
	}
	return nil
}

func (s *Store) DeleteTimeSeries(ctx context.Context, projectID, id int64) error {
	err := affectedOne(s.exec(ctx, `DELETE FROM time_series WHERE project_id = ? AND id = ?`, projectID, id))
	if isNoRows(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete time series %d: %w", id, err)
	}
	return nil
}

func encodeSeries(ts *domain.TimeSeries) (data, origin string, err error) {
	points := ts.Data
	if points == nil {
		points = []domain.DataPoint{}
	}
	if data, err = encodeJSON(points); err != nil {
		return "", "", fmt.Errorf("encode series data: %w", err)
	}
	if origin, err = encodeJSON(ts.Origin); err != nil {
		return "", "", fmt.Errorf("encode series origin: %w", err)
	}
	return data, origin, nil
}

func scanSeries(sc scanner) (*domain.TimeSeries, error) {
	var (
		ts               domain.TimeSeries
		data, origin     string
		created, updated string
	)
	if err := sc.Scan(&ts.ID, &ts.ProjectID, &ts.Name, &ts.LocationName, &ts.Source, &ts.Notes, &ts.Timezone,
		&data, &origin, &created, &updated); err != nil {
		return nil, err
	}
	if err := decodeJSON(data, &ts.Data); err != nil {
		return nil, fmt.Errorf("decode series data: %w", err)
	}
	if err := decodeJSON(origin, &ts.Origin); err != nil {
		return nil, fmt.Errorf("decode series origin: %w", err)
	}
	var err error
	if ts.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if ts.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &ts, nil
}
