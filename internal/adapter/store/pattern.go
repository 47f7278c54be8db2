package store

import (
	"context"
	"fmt"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
)

const patternColumns = `id, project_id, name, source, notes, kind, pattern, created_at, updated_at`

func (s *Store) CreateTemporalPattern(ctx context.Context, p *domain.TemporalPattern) error {
	values, err := encodeJSON(p.Pattern)
	if err != nil {
		return fmt.Errorf("encode pattern: %w", err)
	}
	id, err := s.insert(ctx, `INSERT INTO temporal_patterns (project_id, name, source, notes, kind, pattern, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProjectID, p.Name, p.Source, p.Notes, string(p.Kind), values, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert temporal pattern: %w", err)
	}
	p.ID = id
	return nil
}

func (s *Store) GetTemporalPattern(ctx context.Context, projectID, id int64) (*domain.TemporalPattern, error) {
	p, err := scanPattern(s.queryRow(ctx, `SELECT `+patternColumns+` FROM temporal_patterns WHERE project_id = ? AND id = ?`, projectID, id))
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get temporal pattern %d: %w", id, err)
	}
	return p, nil
}

func (s *Store) ListTemporalPatterns(ctx context.Context, projectID int64) ([]*domain.TemporalPattern, error) {
	rows, err := s.query(ctx, `SELECT `+patternColumns+` FROM temporal_patterns WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list temporal patterns: %w", err)
	}
	defer rows.Close()

	out := []*domain.TemporalPattern{}
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("scan temporal pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTemporalPattern(ctx context.Context, p *domain.TemporalPattern) error {
	values, err := encodeJSON(p.Pattern)
	if err != nil {
		return fmt.Errorf("encode pattern: %w", err)
	}
	err = affectedOne(s.exec(ctx, `UPDATE temporal_patterns SET name = ?, source = ?, notes = ?, kind = ?, pattern = ?, updated_at = ?
		WHERE project_id = ? AND id = ?`,
		p.Name, p.Source, p.Notes, string(p.Kind), values, formatTime(p.UpdatedAt), p.ProjectID, p.ID))
	if isNoRows(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update temporal pattern %d: %w", p.ID, err)
	}
	return nil
}

func (s *Store) DeleteTemporalPattern(ctx context.Context, projectID, id int64) error {
	err := affectedOne(s.exec(ctx, `DELETE FROM temporal_patterns WHERE project_id = ? AND id = ?`, projectID, id))
	if isNoRows(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete temporal pattern %d: %w", id, err)
	}
	return nil
}

func scanPattern(sc scanner) (*domain.TemporalPattern, error) {
	var (
		p                domain.TemporalPattern
		kind, values     string
		created, updated string
	)
	if err := sc.Scan(&p.ID, &p.ProjectID, &p.Name, &p.Source, &p.Notes, &kind, &values, &created, &updated); err != nil {
		return nil, err
	}
	p.Kind = domain.PatternKind(kind)
	if err := decodeJSON(values, &p.Pattern); err != nil {
		return nil, fmt.Errorf("decode pattern: %w", err)
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}
