package service

import (
	"context"
	"time"

	"example.com/fleetdocs/internal/compliance"
	"example.com/fleetdocs/internal/metrics"
	"example.com/fleetdocs/internal/model"
	"example.com/fleetdocs/internal/repository"
)

// SummaryService defines the interface for the fleet summary read path
type SummaryService interface {
	Summarize(ctx context.Context, userID string) (*model.FleetSummary, error)
	RecordExport(ctx context.Context, userID string)
}

// summaryService implements SummaryService
type summaryService struct {
	vehicleRepo  repository.VehicleRepository
	audit        AuditService
	warningDays  int
	storeTimeout time.Duration
	storeRetries int
	now          func() time.Time
}

// NewSummaryService creates a new summary service
func NewSummaryService(
	vehicleRepo repository.VehicleRepository,
	audit AuditService,
	warningDays int,
	storeTimeout time.Duration,
	storeRetries int,
) SummaryService {
	return &summaryService{
		vehicleRepo:  vehicleRepo,
		audit:        audit,
		warningDays:  warningDays,
		storeTimeout: storeTimeout,
		storeRetries: storeRetries,
		now:          time.Now,
	}
}

// Summarize recomputes the dashboard counters from the current fleet.
// Always computed fresh on the read path: a summary taken mid-mutation may
// be stale by one document, never inconsistent within itself.
func (s *summaryService) Summarize(ctx context.Context, userID string) (*model.FleetSummary, error) {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()

	var fleet []model.Vehicle
	err := repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		var listErr error
		fleet, listErr = s.vehicleRepo.List(ctx)
		return listErr
	})
	if err != nil {
		collector.RecordError(metrics.ErrorTypeDatabase)
		return nil, err
	}

	summary := compliance.Summarize(fleet, s.now(), s.warningDays)

	collector.SetFleetVehicles(summary.TotalVehicles)
	collector.SetOverdueDocuments(summary.OverdueDocuments)
	collector.RecordOperation(metrics.OperationTypeSummary, time.Since(startTime))

	s.audit.Record(ctx, userID, model.AuditViewReport, model.ReportEntity, "", "", map[string]interface{}{
		"total_vehicles": summary.TotalVehicles,
	})

	return summary, nil
}

// RecordExport audit-logs a report export. The export formatting itself is
// handled outside this service.
func (s *summaryService) RecordExport(ctx context.Context, userID string) {
	s.audit.Record(ctx, userID, model.AuditExportReport, model.ReportEntity, "", "", nil)
}
