package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/fleetdocs/internal/cache"
	"example.com/fleetdocs/internal/compliance"
	"example.com/fleetdocs/internal/dates"
	"example.com/fleetdocs/internal/extraction"
	"example.com/fleetdocs/internal/metrics"
	"example.com/fleetdocs/internal/model"
	"example.com/fleetdocs/internal/repository"
)

// CreateVehicleRequest defines the request to create a vehicle
type CreateVehicleRequest struct {
	Registration string `json:"registration" validate:"required"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Category     string `json:"category"`
}

// UpdateVehicleRequest defines the request to update a vehicle's own fields
type UpdateVehicleRequest struct {
	Registration string `json:"registration"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Category     string `json:"category"`
}

// UploadDocumentRequest defines the request to append a document record
type UploadDocumentRequest struct {
	Kind            string                                `json:"kind" validate:"required"`
	CustomName      string                                `json:"custom_name"`
	ReferenceNumber string                                `json:"reference_number"`
	StartDate       *string                               `json:"start_date"`
	ExpiryDate      *string                               `json:"expiry_date"`
	Suggestions     map[string]extraction.FieldSuggestion `json:"suggestions,omitempty"`
}

// VehicleStatus is a vehicle snapshot with its derived compliance verdict
type VehicleStatus struct {
	Vehicle     *model.Vehicle                `json:"vehicle"`
	Overall     model.ComplianceStatus        `json:"overall"`
	Obligations []compliance.ObligationStatus `json:"obligations"`
}

// VehicleService defines the interface for vehicle operations
type VehicleService interface {
	Create(ctx context.Context, userID string, req *CreateVehicleRequest) (*model.Vehicle, error)
	Update(ctx context.Context, userID, vehicleID string, req *UpdateVehicleRequest) (*model.Vehicle, error)
	Delete(ctx context.Context, userID, vehicleID string) error
	GetByID(ctx context.Context, vehicleID string) (*model.Vehicle, error)
	GetByRegistration(ctx context.Context, registration string) (*model.Vehicle, error)
	GetStatus(ctx context.Context, vehicleID string) (*VehicleStatus, error)
	List(ctx context.Context) ([]model.Vehicle, error)
	UploadDocument(ctx context.Context, userID, vehicleID string, req *UploadDocumentRequest) (*model.Document, error)
}

// vehicleService implements VehicleService
type vehicleService struct {
	repo         repository.VehicleRepository
	alertRepo    repository.AlertRepository
	alerts       AlertService
	audit        AuditService
	cache        cache.CacheClient
	locks        *VehicleLocks
	warningDays  int
	storeTimeout time.Duration
	storeRetries int
	now          func() time.Time
}

// NewVehicleService creates a new vehicle service
func NewVehicleService(
	repo repository.VehicleRepository,
	alertRepo repository.AlertRepository,
	alerts AlertService,
	audit AuditService,
	cacheClient cache.CacheClient,
	locks *VehicleLocks,
	warningDays int,
	storeTimeout time.Duration,
	storeRetries int,
) VehicleService {
	return &vehicleService{
		repo:         repo,
		alertRepo:    alertRepo,
		alerts:       alerts,
		audit:        audit,
		cache:        cacheClient,
		locks:        locks,
		warningDays:  warningDays,
		storeTimeout: storeTimeout,
		storeRetries: storeRetries,
		now:          time.Now,
	}
}

// Create creates a new vehicle
func (s *vehicleService) Create(ctx context.Context, userID string, req *CreateVehicleRequest) (*model.Vehicle, error) {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()

	registration := model.NormalizeRegistration(req.Registration)
	if registration == "" {
		collector.RecordError(metrics.ErrorTypeValidation)
		return nil, ErrRegistrationRequired
	}

	vehicle := &model.Vehicle{
		Base:         model.Base{UUID: uuid.NewString()},
		Registration: registration,
		Make:         req.Make,
		Model:        req.Model,
		Category:     req.Category,
	}

	err := repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		_, createErr := s.repo.Create(ctx, vehicle)
		return createErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			collector.RecordError(metrics.ErrorTypeValidation)
			return nil, ErrDuplicateRegistration
		}
		collector.RecordError(metrics.ErrorTypeDatabase)
		return nil, err
	}

	s.cacheVehicle(ctx, vehicle)

	s.audit.Record(ctx, userID, model.AuditCreateVehicle, model.VehicleEntity, vehicle.UUID, vehicle.Registration, map[string]interface{}{
		"after": vehicleFields(vehicle),
	})

	collector.RecordOperation(metrics.OperationTypeVehicleCreate, time.Since(startTime))
	return vehicle, nil
}

// Update updates a vehicle's own fields
func (s *vehicleService) Update(ctx context.Context, userID, vehicleID string, req *UpdateVehicleRequest) (*model.Vehicle, error) {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()

	s.locks.Lock(vehicleID)
	defer s.locks.Unlock(vehicleID)

	vehicle, err := s.getByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	before := vehicleFields(vehicle)
	priorRegistration := vehicle.Registration

	if req.Registration != "" {
		vehicle.Registration = model.NormalizeRegistration(req.Registration)
	}
	if req.Make != "" {
		vehicle.Make = req.Make
	}
	if req.Model != "" {
		vehicle.Model = req.Model
	}
	if req.Category != "" {
		vehicle.Category = req.Category
	}

	err = repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		_, updateErr := s.repo.Update(ctx, vehicle)
		return updateErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			collector.RecordError(metrics.ErrorTypeValidation)
			return nil, ErrDuplicateRegistration
		}
		collector.RecordError(metrics.ErrorTypeDatabase)
		return nil, err
	}

	// A renamed vehicle must not stay resolvable under its old registration
	if vehicle.Registration != priorRegistration {
		if cacheErr := s.cache.DeleteVehicleIDByRegistration(ctx, priorRegistration); cacheErr != nil {
			logrus.WithError(cacheErr).Warn("Failed to evict stale registration mapping")
		}
	}
	s.cacheVehicle(ctx, vehicle)

	s.audit.Record(ctx, userID, model.AuditUpdateVehicle, model.VehicleEntity, vehicle.UUID, vehicle.Registration, map[string]interface{}{
		"before": before,
		"after":  vehicleFields(vehicle),
	})

	collector.RecordOperation(metrics.OperationTypeVehicleUpdate, time.Since(startTime))
	return vehicle, nil
}

// Delete deletes a vehicle. Its alerts are cascaded away; its audit history
// is permanent and stays.
func (s *vehicleService) Delete(ctx context.Context, userID, vehicleID string) error {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()

	s.locks.Lock(vehicleID)
	defer s.locks.Unlock(vehicleID)

	vehicle, err := s.getByID(ctx, vehicleID)
	if err != nil {
		return err
	}

	err = repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		return s.repo.Delete(ctx, vehicleID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVehicleNotFound
		}
		collector.RecordError(metrics.ErrorTypeDatabase)
		return err
	}

	// Cascade alert deletion, read ones included
	err = repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		return s.alertRepo.DeleteByVehicle(ctx, vehicleID)
	})
	if err != nil {
		logrus.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to cascade alert deletion")
	}

	if cacheErr := s.cache.DeleteVehicle(ctx, vehicleID); cacheErr != nil {
		logrus.WithError(cacheErr).Warn("Failed to evict vehicle from cache")
	}
	if cacheErr := s.cache.DeleteVehicleIDByRegistration(ctx, vehicle.Registration); cacheErr != nil {
		logrus.WithError(cacheErr).Warn("Failed to evict registration mapping from cache")
	}

	s.audit.Record(ctx, userID, model.AuditDeleteVehicle, model.VehicleEntity, vehicleID, vehicle.Registration, map[string]interface{}{
		"before": vehicleFields(vehicle),
	})

	collector.RecordOperation(metrics.OperationTypeVehicleDelete, time.Since(startTime))
	return nil
}

// GetByID gets a vehicle with its document history
func (s *vehicleService) GetByID(ctx context.Context, vehicleID string) (*model.Vehicle, error) {
	// Try to get from cache first
	vehicle, err := s.cache.GetVehicle(ctx, vehicleID)
	if err == nil {
		return vehicle, nil
	}
	if err != redis.Nil {
		logrus.WithError(err).Warn("Failed to get vehicle from cache")
	}

	vehicle, err = s.getByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	s.cacheVehicle(ctx, vehicle)
	return vehicle, nil
}

// GetByRegistration looks a vehicle up by its registration number
func (s *vehicleService) GetByRegistration(ctx context.Context, registration string) (*model.Vehicle, error) {
	registration = model.NormalizeRegistration(registration)

	// The registration index maps onto the snapshot cache
	if id, err := s.cache.GetVehicleIDByRegistration(ctx, registration); err == nil {
		return s.GetByID(ctx, id)
	} else if err != redis.Nil {
		logrus.WithError(err).Warn("Failed to look up registration in cache")
	}

	var vehicle *model.Vehicle
	err := repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		var getErr error
		vehicle, getErr = s.repo.GetByRegistration(ctx, registration)
		return getErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}

	s.cacheVehicle(ctx, vehicle)
	return vehicle, nil
}

// GetStatus derives the vehicle's compliance verdict from its snapshot
func (s *vehicleService) GetStatus(ctx context.Context, vehicleID string) (*VehicleStatus, error) {
	vehicle, err := s.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	today := s.now()
	return &VehicleStatus{
		Vehicle:     vehicle,
		Overall:     compliance.OverallStatus(vehicle, today, s.warningDays),
		Obligations: compliance.EvaluateObligations(vehicle, today, s.warningDays),
	}, nil
}

// List lists all vehicles
func (s *vehicleService) List(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	err := repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		var listErr error
		vehicles, listErr = s.repo.List(ctx)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

// UploadDocument appends a document record to the vehicle's history and
// reconciles the vehicle's alerts in the same mutation unit.
func (s *vehicleService) UploadDocument(ctx context.Context, userID, vehicleID string, req *UploadDocumentRequest) (*model.Document, error) {
	startTime := time.Now()
	collector := metrics.GetMetricsCollector()

	kind := model.KindFromString(req.Kind)
	if kind == "" {
		collector.RecordError(metrics.ErrorTypeValidation)
		return nil, ErrUnknownDocumentKind
	}
	customName := ""
	if kind == model.OtherKind {
		if req.CustomName == "" {
			collector.RecordError(metrics.ErrorTypeValidation)
			return nil, ErrCustomNameRequired
		}
		customName = req.CustomName
	}
	// Dates are validated up front so nothing is partially applied
	for _, date := range []*string{req.StartDate, req.ExpiryDate} {
		if date == nil {
			continue
		}
		if _, ok := dates.Parse(*date); !ok {
			collector.RecordError(metrics.ErrorTypeValidation)
			return nil, ErrInvalidDate
		}
	}

	s.locks.Lock(vehicleID)
	defer s.locks.Unlock(vehicleID)

	vehicle, err := s.getByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	document := &model.Document{
		Base:            model.Base{UUID: uuid.NewString()},
		VehicleID:       vehicle.UUID,
		Kind:            kind,
		CustomName:      customName,
		ReferenceNumber: req.ReferenceNumber,
		StartDate:       req.StartDate,
		ExpiryDate:      req.ExpiryDate,
		UploadedAt:      s.now(),
	}

	// AI suggestions are kept alongside the record for audit and
	// comparison; they are never authoritative
	if len(req.Suggestions) > 0 {
		if payload, marshalErr := json.Marshal(req.Suggestions); marshalErr == nil {
			document.Suggestions = payload
		}
	}

	err = repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		_, addErr := s.repo.AddDocument(ctx, document)
		return addErr
	})
	if err != nil {
		collector.RecordError(metrics.ErrorTypeDatabase)
		return nil, err
	}

	vehicle.Documents = append(vehicle.Documents, *document)
	s.cacheVehicle(ctx, vehicle)

	// Reconcile alerts while the vehicle lock is held
	if _, syncErr := s.alerts.Synchronize(ctx, vehicle, userID); syncErr != nil {
		logrus.WithError(syncErr).WithField("vehicle_id", vehicle.UUID).Error("Alert synchronization failed after document upload")
	}

	s.audit.Record(ctx, userID, model.AuditUploadDocument, model.DocumentEntity, document.UUID, vehicle.Registration, map[string]interface{}{
		"kind":             document.Kind,
		"custom_name":      document.CustomName,
		"reference_number": document.ReferenceNumber,
		"expiry_date":      document.ExpiryDate,
	})

	collector.RecordOperation(metrics.OperationTypeDocumentUpload, time.Since(startTime))
	return document, nil
}

// getByID fetches a vehicle directly from the store, with retries
func (s *vehicleService) getByID(ctx context.Context, vehicleID string) (*model.Vehicle, error) {
	var vehicle *model.Vehicle
	err := repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		var getErr error
		vehicle, getErr = s.repo.GetByID(ctx, vehicleID)
		return getErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return vehicle, nil
}

// cacheVehicle caches a vehicle snapshot, best-effort
func (s *vehicleService) cacheVehicle(ctx context.Context, vehicle *model.Vehicle) {
	if err := s.cache.SetVehicle(ctx, vehicle); err != nil {
		logrus.WithError(err).Warn("Failed to cache vehicle")
	}
	if err := s.cache.SetVehicleIDByRegistration(ctx, vehicle.Registration, vehicle.UUID); err != nil {
		logrus.WithError(err).Warn("Failed to cache vehicle registration")
	}
}

// vehicleFields projects the auditable fields of a vehicle
func vehicleFields(vehicle *model.Vehicle) map[string]interface{} {
	return map[string]interface{}{
		"registration": vehicle.Registration,
		"make":         vehicle.Make,
		"model":        vehicle.Model,
		"category":     vehicle.Category,
	}
}
