package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/fleetdocs/internal/compliance"
	"example.com/fleetdocs/internal/messagebus"
	"example.com/fleetdocs/internal/metrics"
	"example.com/fleetdocs/internal/model"
	"example.com/fleetdocs/internal/repository"
)

// FleetSyncReport summarizes a fleet-wide synchronization pass
type FleetSyncReport struct {
	Vehicles      int               `json:"vehicles"`
	AlertsCreated int               `json:"alerts_created"`
	Failures      map[string]string `json:"failures,omitempty"`
}

// AlertService defines the interface for the alert synchronizer
type AlertService interface {
	// Synchronize reconciles one vehicle's alert set with its current
	// document state. The caller is expected to hold the vehicle's
	// mutation lock.
	Synchronize(ctx context.Context, vehicle *model.Vehicle, ownerID string) ([]model.Alert, error)
	SynchronizeFleet(ctx context.Context, ownerID string) (*FleetSyncReport, error)
	List(ctx context.Context, ownerID string, onlyUnread bool) ([]model.Alert, error)
	MarkRead(ctx context.Context, ownerID, alertID string) (bool, error)
}

// alertService implements AlertService
type alertService struct {
	repo         repository.AlertRepository
	vehicleRepo  repository.VehicleRepository
	messageBus   messagebus.Client
	audit        AuditService
	locks        *VehicleLocks
	alertQueue   string
	warningDays  int
	storeTimeout time.Duration
	storeRetries int
	now          func() time.Time
}

// NewAlertService creates a new alert service
func NewAlertService(
	repo repository.AlertRepository,
	vehicleRepo repository.VehicleRepository,
	messageBus messagebus.Client,
	audit AuditService,
	locks *VehicleLocks,
	alertQueue string,
	warningDays int,
	storeTimeout time.Duration,
	storeRetries int,
) AlertService {
	return &alertService{
		repo:         repo,
		vehicleRepo:  vehicleRepo,
		messageBus:   messageBus,
		audit:        audit,
		locks:        locks,
		alertQueue:   alertQueue,
		warningDays:  warningDays,
		storeTimeout: storeTimeout,
		storeRetries: storeRetries,
		now:          time.Now,
	}
}

// alertMessage builds the human-readable alert text
func alertMessage(obligation model.Obligation, registration, reference string, status model.ComplianceStatus, dueDate string) string {
	subject := fmt.Sprintf("%s for %s", obligation.Label(), registration)
	if reference != "" {
		subject = fmt.Sprintf("%s (ref %s)", subject, reference)
	}

	if status == model.OverdueStatus {
		return fmt.Sprintf("%s overdue since %s", subject, dueDate)
	}
	return fmt.Sprintf("%s expiring on %s", subject, dueDate)
}

// Synchronize reconciles the alert set for one vehicle.
//
// Unread alerts for the vehicle are removed and regenerated from the current
// governing documents, so repeated passes with unchanged documents produce
// identical unread sets. Read alerts are an acknowledgment record: they are
// never deleted here, and no new alert is created for a composite key that a
// read alert already covers.
func (s *alertService) Synchronize(ctx context.Context, vehicle *model.Vehicle, ownerID string) ([]model.Alert, error) {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()
	today := s.now()

	existing, err := s.listByVehicle(ctx, ownerID, vehicle.UUID)
	if err != nil {
		collector.RecordError(metrics.ErrorTypeDatabase)
		return nil, err
	}

	acknowledged := make(map[model.AlertKey]bool)
	for i := range existing {
		if existing[i].Read {
			acknowledged[existing[i].Key()] = true
		}
	}

	err = repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		return s.repo.DeleteUnreadByVehicle(ctx, ownerID, vehicle.UUID)
	})
	if err != nil {
		collector.RecordError(metrics.ErrorTypeDatabase)
		return nil, err
	}

	var created []model.Alert
	for _, os := range compliance.EvaluateObligations(vehicle, today, s.warningDays) {
		if os.Status != model.ExpiringSoonStatus && os.Status != model.OverdueStatus {
			continue
		}

		alert := model.Alert{
			Base:            model.Base{UUID: uuid.NewString()},
			VehicleID:       vehicle.UUID,
			Registration:    vehicle.Registration,
			Kind:            os.Obligation.Kind,
			CustomName:      os.Obligation.CustomName,
			ReferenceNumber: os.Governing.ReferenceNumber,
			DueDate:         *os.Governing.ExpiryDate,
			Message:         alertMessage(os.Obligation, vehicle.Registration, os.Governing.ReferenceNumber, os.Status, *os.Governing.ExpiryDate),
			OwnerID:         ownerID,
		}

		// An alert the user already acknowledged for this exact
		// document and due date must not come back
		if acknowledged[alert.Key()] {
			continue
		}

		err = repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
			_, createErr := s.repo.Create(ctx, &alert)
			return createErr
		})
		if err != nil {
			collector.RecordError(metrics.ErrorTypeDatabase)
			return nil, err
		}
		created = append(created, alert)
	}

	s.publishAlerts(ctx, created)

	collector.RecordOperation(metrics.OperationTypeAlertSync, time.Since(startTime))
	collector.RecordAlertsCreated(len(created))

	return created, nil
}

// SynchronizeFleet runs a synchronization pass over every vehicle. A failure
// on one vehicle does not abort the pass for the others; failures are
// collected into the report.
func (s *alertService) SynchronizeFleet(ctx context.Context, ownerID string) (*FleetSyncReport, error) {
	var vehicles []model.Vehicle
	err := repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		var listErr error
		vehicles, listErr = s.vehicleRepo.List(ctx)
		return listErr
	})
	if err != nil {
		return nil, err
	}

	report := &FleetSyncReport{
		Vehicles: len(vehicles),
		Failures: make(map[string]string),
	}

	for i := range vehicles {
		vehicle := &vehicles[i]

		s.locks.Lock(vehicle.UUID)
		created, syncErr := s.Synchronize(ctx, vehicle, ownerID)
		s.locks.Unlock(vehicle.UUID)

		if syncErr != nil {
			logrus.WithError(syncErr).WithField("vehicle_id", vehicle.UUID).Error("Alert synchronization failed for vehicle")
			report.Failures[vehicle.UUID] = syncErr.Error()
			continue
		}
		report.AlertsCreated += len(created)
	}

	if len(report.Failures) == 0 {
		report.Failures = nil
	}
	return report, nil
}

// List lists an owner's alerts
func (s *alertService) List(ctx context.Context, ownerID string, onlyUnread bool) ([]model.Alert, error) {
	var alerts []model.Alert
	err := repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		var listErr error
		alerts, listErr = s.repo.ListByOwner(ctx, ownerID, onlyUnread)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	if onlyUnread {
		metrics.GetMetricsCollector().SetUnreadAlerts(len(alerts))
	}
	return alerts, nil
}

// MarkRead acknowledges an alert; returns false when the alert is absent
func (s *alertService) MarkRead(ctx context.Context, ownerID, alertID string) (bool, error) {
	alert, err := s.repo.GetByID(ctx, alertID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if alert.OwnerID != ownerID {
		return false, nil
	}

	var marked bool
	err = repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		var markErr error
		marked, markErr = s.repo.MarkRead(ctx, alertID)
		return markErr
	})
	if err != nil {
		return false, err
	}

	if marked {
		s.audit.Record(ctx, ownerID, model.AuditMarkAlertRead, model.AlertEntity, alertID, alert.Registration, map[string]interface{}{
			"kind":     alert.Kind,
			"due_date": alert.DueDate,
		})
	}
	return marked, nil
}

// listByVehicle loads an owner's alerts for one vehicle, read ones included
func (s *alertService) listByVehicle(ctx context.Context, ownerID, vehicleID string) ([]model.Alert, error) {
	var alerts []model.Alert
	err := repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		var listErr error
		alerts, listErr = s.repo.ListByVehicle(ctx, ownerID, vehicleID)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// publishAlerts notifies the bus about newly created alerts, best-effort
func (s *alertService) publishAlerts(ctx context.Context, alerts []model.Alert) {
	for i := range alerts {
		alert := alerts[i]
		err := messagebus.RetryWithBackoff(ctx, func() error {
			return s.messageBus.PublishMessage(ctx, alert, s.alertQueue)
		}, 3)
		if err != nil {
			logrus.WithError(err).WithField("alert_id", alert.UUID).Warn("Failed to publish alert notification")
		}
	}
}
