package hydrology

import (
	"context"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
)

func (s *Service) ListTemporalPatterns(ctx context.Context, projectID int64) ([]*domain.TemporalPattern, error) {
	return s.repo.ListTemporalPatterns(ctx, projectID)
}

func (s *Service) GetTemporalPattern(ctx context.Context, projectID, id int64) (*domain.TemporalPattern, error) {
	return s.repo.GetTemporalPattern(ctx, projectID, id)
}

func (s *Service) CreateTemporalPattern(ctx context.Context, projectID int64, body []byte) (*domain.TemporalPattern, error) {
	var p domain.TemporalPattern
	if err := decodeBody(body, &p); err != nil {
		return nil, s.rejected(domain.KindTemporalPattern, err)
	}
	p.ID = 0
	p.ProjectID = projectID
	p.CreatedAt = domain.Now()
	p.InferKind()
	if err := p.Validate(); err != nil {
		return nil, s.rejected(domain.KindTemporalPattern, err)
	}
	p.Touch()
	if err := s.repo.CreateTemporalPattern(ctx, &p); err != nil {
		return nil, err
	}
	s.committed(ctx, domain.KindTemporalPattern, domain.OpCreated, projectID, p.ID, &p)
	return &p, nil
}

func (s *Service) UpdateTemporalPattern(ctx context.Context, projectID, id int64, body []byte, partial bool) (*domain.TemporalPattern, error) {
	stored, err := s.repo.GetTemporalPattern(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if partial {
		var drop []string
		// New values without a kind are re-classified from their sum.
		if patchTouches(body, "pattern") {
			drop = append(drop, "kind")
		}
		if body, err = mergePatch(stored, body, drop...); err != nil {
			return nil, s.rejected(domain.KindTemporalPattern, err)
		}
	}

	var p domain.TemporalPattern
	if err := decodeBody(body, &p); err != nil {
		return nil, s.rejected(domain.KindTemporalPattern, err)
	}
	p.ID = stored.ID
	p.ProjectID = stored.ProjectID
	p.CreatedAt = stored.CreatedAt
	p.InferKind()
	if err := p.Validate(); err != nil {
		return nil, s.rejected(domain.KindTemporalPattern, err)
	}
	p.Touch()
	if err := s.repo.UpdateTemporalPattern(ctx, &p); err != nil {
		return nil, err
	}
	s.committed(ctx, domain.KindTemporalPattern, domain.OpUpdated, projectID, p.ID, &p)
	return &p, nil
}

func (s *Service) DeleteTemporalPattern(ctx context.Context, projectID, id int64) error {
	if err := s.repo.DeleteTemporalPattern(ctx, projectID, id); err != nil {
		return err
	}
	s.committed(ctx, domain.KindTemporalPattern, domain.OpDeleted, projectID, id, nil)
	return nil
}
