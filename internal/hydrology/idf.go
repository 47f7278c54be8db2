package hydrology

import (
	"context"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
)

func (s *Service) ListIDFTables(ctx context.Context, projectID int64) ([]*domain.IDFTable, error) {
	return s.repo.ListIDFTables(ctx, projectID)
}

func (s *Service) GetIDFTable(ctx context.Context, projectID, id int64) (*domain.IDFTable, error) {
	return s.repo.GetIDFTable(ctx, projectID, id)
}

// CreateIDFTable decodes a new table, fills in its location, converts depths
// to millimeters and stores it.
func (s *Service) CreateIDFTable(ctx context.Context, projectID int64, body []byte) (*domain.IDFTable, error) {
	table := domain.NewIDFTable()
	if err := decodeBody(body, table); err != nil {
		return nil, s.rejected(domain.KindIDFTable, err)
	}
	table.ID = 0
	table.ProjectID = projectID
	table.CreatedAt = domain.Now()

	if err := s.prepareIDFTable(ctx, table); err != nil {
		return nil, s.rejected(domain.KindIDFTable, err)
	}
	table.Touch()
	if err := s.repo.CreateIDFTable(ctx, table); err != nil {
		return nil, err
	}
	s.committed(ctx, domain.KindIDFTable, domain.OpCreated, projectID, table.ID, table)
	return table, nil
}

// UpdateIDFTable replaces a stored table (partial=false) or merges the body's
// keys onto it (partial=true). A merged body keeps the stored units_converted
// flag, so depths it supplies are read as millimeters unless it also sets
// units_converted to false.
func (s *Service) UpdateIDFTable(ctx context.Context, projectID, id int64, body []byte, partial bool) (*domain.IDFTable, error) {
	stored, err := s.repo.GetIDFTable(ctx, projectID, id)
	if err != nil {
		return nil, err
	}

	if partial {
		var drop []string
		// A moved point needs a fresh address.
		if patchTouches(body, "location_geom") {
			drop = append(drop, "formatted_address", "geo_source")
		}
		body, err = mergePatch(stored, body, drop...)
		if err != nil {
			return nil, s.rejected(domain.KindIDFTable, err)
		}
	}

	table := domain.NewIDFTable()
	if err := decodeBody(body, table); err != nil {
		return nil, s.rejected(domain.KindIDFTable, err)
	}
	table.ID = stored.ID
	table.ProjectID = stored.ProjectID
	table.CreatedAt = stored.CreatedAt

	if err := s.prepareIDFTable(ctx, table); err != nil {
		return nil, s.rejected(domain.KindIDFTable, err)
	}
	table.Touch()
	if err := s.repo.UpdateIDFTable(ctx, table); err != nil {
		return nil, err
	}
	s.committed(ctx, domain.KindIDFTable, domain.OpUpdated, projectID, table.ID, table)
	return table, nil
}

func (s *Service) DeleteIDFTable(ctx context.Context, projectID, id int64) error {
	if err := s.repo.DeleteIDFTable(ctx, projectID, id); err != nil {
		return err
	}
	s.committed(ctx, domain.KindIDFTable, domain.OpDeleted, projectID, id, nil)
	return nil
}

func (s *Service) prepareIDFTable(ctx context.Context, table *domain.IDFTable) error {
	domain.LocateIDFTable(ctx, table, s.geocoder, s.logger)
	if err := table.Validate(); err != nil {
		return err
	}
	return table.ConvertUnits()
}
