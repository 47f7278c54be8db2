package hydrology

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
)

func (s *Service) ListTimeSeries(ctx context.Context, projectID int64) ([]*domain.TimeSeries, error) {
	return s.repo.ListTimeSeries(ctx, projectID)
}

func (s *Service) GetTimeSeries(ctx context.Context, projectID, id int64) (*domain.TimeSeries, error) {
	return s.repo.GetTimeSeries(ctx, projectID, id)
}

func (s *Service) CreateTimeSeries(ctx context.Context, projectID int64, body []byte) (*domain.TimeSeries, error) {
	var ts domain.TimeSeries
	if err := decodeBody(body, &ts); err != nil {
		return nil, s.rejected(domain.KindTimeSeries, err)
	}
	ts.ID = 0
	ts.ProjectID = projectID
	ts.CreatedAt = domain.Now()
	ts.Origin = nil
	return s.insertSeries(ctx, &ts, domain.OpCreated)
}

func (s *Service) UpdateTimeSeries(ctx context.Context, projectID, id int64, body []byte, partial bool) (*domain.TimeSeries, error) {
	stored, err := s.repo.GetTimeSeries(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if partial {
		if body, err = mergePatch(stored, body); err != nil {
			return nil, s.rejected(domain.KindTimeSeries, err)
		}
	}

	var ts domain.TimeSeries
	if err := decodeBody(body, &ts); err != nil {
		return nil, s.rejected(domain.KindTimeSeries, err)
	}
	ts.ID = stored.ID
	ts.ProjectID = stored.ProjectID
	ts.CreatedAt = stored.CreatedAt
	ts.Origin = stored.Origin
	if err := ts.Validate(); err != nil {
		return nil, s.rejected(domain.KindTimeSeries, err)
	}
	ts.Touch()
	if err := s.repo.UpdateTimeSeries(ctx, &ts); err != nil {
		return nil, err
	}
	s.committed(ctx, domain.KindTimeSeries, domain.OpUpdated, projectID, ts.ID, &ts)
	return &ts, nil
}

func (s *Service) DeleteTimeSeries(ctx context.Context, projectID, id int64) error {
	if err := s.repo.DeleteTimeSeries(ctx, projectID, id); err != nil {
		return err
	}
	s.committed(ctx, domain.KindTimeSeries, domain.OpDeleted, projectID, id, nil)
	return nil
}

// TimeSeriesDatetimes returns the series points resolved in its timezone.
func (s *Service) TimeSeriesDatetimes(ctx context.Context, projectID, id int64) (*domain.TimeSeries, []domain.DataPoint, error) {
	ts, err := s.repo.GetTimeSeries(ctx, projectID, id)
	if err != nil {
		return nil, nil, err
	}
	points, err := ts.NormalizedData()
	if err != nil {
		return nil, nil, err
	}
	return ts, points, nil
}

// SynthesizeTimeSeries derives and stores a design-storm series from an IDF
// table and a temporal pattern of the same project.
func (s *Service) SynthesizeTimeSeries(ctx context.Context, projectID, tableID int64, body []byte) (*domain.TimeSeries, error) {
	var req domain.SynthesisRequest
	if err := decodeBody(body, &req); err != nil {
		return nil, s.rejected(domain.KindTimeSeries, err)
	}
	if err := req.Validate(); err != nil {
		return nil, s.rejected(domain.KindTimeSeries, err)
	}

	table, err := s.repo.GetIDFTable(ctx, projectID, tableID)
	if err != nil {
		return nil, err
	}
	pattern, err := s.repo.GetTemporalPattern(ctx, projectID, req.TemporalPatternID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, s.rejected(domain.KindTimeSeries, &domain.ValidationError{
			Field:   "temporal_pattern",
			Message: fmt.Sprintf("Invalid pk %q - object does not exist.", fmt.Sprint(req.TemporalPatternID)),
		})
	}
	if err != nil {
		return nil, err
	}

	ts, err := domain.Synthesize(table, pattern, req)
	if err != nil {
		return nil, s.rejected(domain.KindTimeSeries, err)
	}
	ts.CreatedAt = domain.Now()

	out, err := s.insertSeries(ctx, ts, domain.OpSynthesized)
	if err != nil {
		return nil, err
	}
	s.metrics.SeriesSynthesized.Inc()
	s.metrics.SynthesizedPoints.Observe(float64(len(out.Data)))
	return out, nil
}

func (s *Service) insertSeries(ctx context.Context, ts *domain.TimeSeries, op domain.ChangeOp) (*domain.TimeSeries, error) {
	if err := ts.Validate(); err != nil {
		return nil, s.rejected(domain.KindTimeSeries, err)
	}
	ts.Touch()
	if err := s.repo.CreateTimeSeries(ctx, ts); err != nil {
		return nil, err
	}
	s.committed(ctx, domain.KindTimeSeries, op, ts.ProjectID, ts.ID, ts)
	return ts, nil
}
