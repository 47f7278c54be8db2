// Package hydrology is the application service behind the REST API. It
// decodes request bodies into domain records, runs geocoding, unit conversion
// and validation, persists the result and announces the change.
package hydrology

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
	"github.com/couchcryptid/storm-hydrology-service/internal/observability"
)

// Repository persists hydrology records scoped by project.
type Repository interface {
	CreateIDFTable(ctx context.Context, t *domain.IDFTable) error
	GetIDFTable(ctx context.Context, projectID, id int64) (*domain.IDFTable, error)
	ListIDFTables(ctx context.Context, projectID int64) ([]*domain.IDFTable, error)
	UpdateIDFTable(ctx context.Context, t *domain.IDFTable) error
	DeleteIDFTable(ctx context.Context, projectID, id int64) error

	CreateTemporalPattern(ctx context.Context, p *domain.TemporalPattern) error
	GetTemporalPattern(ctx context.Context, projectID, id int64) (*domain.TemporalPattern, error)
	ListTemporalPatterns(ctx context.Context, projectID int64) ([]*domain.TemporalPattern, error)
	UpdateTemporalPattern(ctx context.Context, p *domain.TemporalPattern) error
	DeleteTemporalPattern(ctx context.Context, projectID, id int64) error

	CreateTimeSeries(ctx context.Context, ts *domain.TimeSeries) error
	GetTimeSeries(ctx context.Context, projectID, id int64) (*domain.TimeSeries, error)
	ListTimeSeries(ctx context.Context, projectID int64) ([]*domain.TimeSeries, error)
	UpdateTimeSeries(ctx context.Context, ts *domain.TimeSeries) error
	DeleteTimeSeries(ctx context.Context, projectID, id int64) error

	Ping(ctx context.Context) error
}

// ChangePublisher announces committed record changes.
type ChangePublisher interface {
	Publish(ctx context.Context, events ...domain.ChangeEvent) error
}

// Service implements the hydrology record operations.
type Service struct {
	repo      Repository
	geocoder  domain.Geocoder
	publisher ChangePublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Service. geocoder and publisher may be nil to disable
// location enrichment and the change feed.
func New(repo Repository, geocoder domain.Geocoder, publisher ChangePublisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		repo:      repo,
		geocoder:  geocoder,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness reports whether the record store is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database unavailable: %w", err)
	}
	return nil
}

// committed records metrics for a successful write and publishes its change event.
func (s *Service) committed(ctx context.Context, kind domain.RecordKind, op domain.ChangeOp, projectID, recordID int64, record any) {
	s.metrics.RecordsWritten.WithLabelValues(string(kind), string(op)).Inc()
	s.logger.Info("record "+string(op), "kind", kind, "project_id", projectID, "record_id", recordID)

	if s.publisher == nil {
		s.metrics.ChangeEvents.WithLabelValues("disabled").Inc()
		return
	}
	event := domain.NewChangeEvent(kind, op, projectID, recordID, record)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish change event failed",
			"event_id", event.ID,
			"type", event.Type,
			"error", err,
		)
		s.metrics.ChangeEvents.WithLabelValues("failed").Inc()
		return
	}
	s.metrics.ChangeEvents.WithLabelValues("published").Inc()
}

// rejected counts validation failures; other errors pass through untouched.
func (s *Service) rejected(kind domain.RecordKind, err error) error {
	if errors.Is(err, domain.ErrValidation) {
		s.metrics.ValidationFailures.WithLabelValues(string(kind)).Inc()
		s.logger.Debug("record rejected", "kind", kind, "error", err)
	}
	return err
}
