package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/fleetdocs/internal/model"
	"example.com/fleetdocs/internal/repository"
)

// stubAlerts records synchronization calls without touching storage
type stubAlerts struct {
	synchronized []*model.Vehicle
}

func (s *stubAlerts) Synchronize(ctx context.Context, vehicle *model.Vehicle, ownerID string) ([]model.Alert, error) {
	s.synchronized = append(s.synchronized, vehicle)
	return nil, nil
}

func (s *stubAlerts) SynchronizeFleet(ctx context.Context, ownerID string) (*FleetSyncReport, error) {
	return &FleetSyncReport{}, nil
}

func (s *stubAlerts) List(ctx context.Context, ownerID string, onlyUnread bool) ([]model.Alert, error) {
	return nil, nil
}

func (s *stubAlerts) MarkRead(ctx context.Context, ownerID, alertID string) (bool, error) {
	return false, nil
}

func newTestVehicleService(repo *MockVehicleRepository, alertStore *fakeAlertStore) (*vehicleService, *stubAlerts, *stubAudit) {
	alerts := &stubAlerts{}
	audit := &stubAudit{}
	svc := &vehicleService{
		repo:         repo,
		alertRepo:    alertStore,
		alerts:       alerts,
		audit:        audit,
		cache:        &stubCache{},
		locks:        NewVehicleLocks(),
		warningDays:  30,
		storeTimeout: time.Second,
		storeRetries: 1,
		now:          func() time.Time { return testToday },
	}
	return svc, alerts, audit
}

func TestCreateVehicleNormalizesRegistration(t *testing.T) {
	repo := new(MockVehicleRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Vehicle")).Return(&model.Vehicle{}, nil)

	svc, _, audit := newTestVehicleService(repo, newFakeAlertStore())

	vehicle, err := svc.Create(context.Background(), "alice", &CreateVehicleRequest{
		Registration: "  ka01ab1234 ",
		Make:         "Tata",
	})
	require.NoError(t, err)
	require.Equal(t, "KA01AB1234", vehicle.Registration)
	require.NotEmpty(t, vehicle.UUID)
	require.Equal(t, []model.AuditAction{model.AuditCreateVehicle}, audit.recorded())

	repo.AssertExpectations(t)
}

func TestCreateVehicleRequiresRegistration(t *testing.T) {
	repo := new(MockVehicleRepository)
	svc, _, audit := newTestVehicleService(repo, newFakeAlertStore())

	_, err := svc.Create(context.Background(), "alice", &CreateVehicleRequest{Registration: "   "})
	require.ErrorIs(t, err, ErrRegistrationRequired)
	require.Empty(t, audit.recorded())

	// The store is never reached
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateVehicleDuplicateRegistration(t *testing.T) {
	repo := new(MockVehicleRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Vehicle")).Return(nil, repository.ErrDuplicateKey)

	svc, _, _ := newTestVehicleService(repo, newFakeAlertStore())

	_, err := svc.Create(context.Background(), "alice", &CreateVehicleRequest{Registration: "KA01AB1234"})
	require.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestUpdateRegistrationEvictsOldMapping(t *testing.T) {
	vehicle := testVehicle("v1", "KA01AB1234")

	repo := new(MockVehicleRepository)
	repo.On("GetByID", mock.Anything, "v1").Return(vehicle, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*model.Vehicle")).Return(vehicle, nil)

	svc, _, _ := newTestVehicleService(repo, newFakeAlertStore())

	updated, err := svc.Update(context.Background(), "alice", "v1", &UpdateVehicleRequest{
		Registration: "mh12cd5678",
	})
	require.NoError(t, err)
	require.Equal(t, "MH12CD5678", updated.Registration)

	// The old registration must no longer resolve to this vehicle
	cacheStub := svc.cache.(*stubCache)
	require.Equal(t, []string{"KA01AB1234"}, cacheStub.evictedRegistrations())
}

func TestUpdateWithoutRegistrationChangeKeepsMapping(t *testing.T) {
	vehicle := testVehicle("v1", "KA01AB1234")

	repo := new(MockVehicleRepository)
	repo.On("GetByID", mock.Anything, "v1").Return(vehicle, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*model.Vehicle")).Return(vehicle, nil)

	svc, _, _ := newTestVehicleService(repo, newFakeAlertStore())

	_, err := svc.Update(context.Background(), "alice", "v1", &UpdateVehicleRequest{
		Registration: " ka01ab1234 ",
		Make:         "Tata",
	})
	require.NoError(t, err)

	cacheStub := svc.cache.(*stubCache)
	require.Empty(t, cacheStub.evictedRegistrations())
}

func TestUploadDocumentValidatesBeforeMutating(t *testing.T) {
	repo := new(MockVehicleRepository)
	svc, alerts, _ := newTestVehicleService(repo, newFakeAlertStore())

	_, err := svc.UploadDocument(context.Background(), "alice", "v1", &UploadDocumentRequest{
		Kind: "warranty",
	})
	require.ErrorIs(t, err, ErrUnknownDocumentKind)

	_, err = svc.UploadDocument(context.Background(), "alice", "v1", &UploadDocumentRequest{
		Kind: "other",
	})
	require.ErrorIs(t, err, ErrCustomNameRequired)

	badDate := "03/15/2026"
	_, err = svc.UploadDocument(context.Background(), "alice", "v1", &UploadDocumentRequest{
		Kind:       "insurance",
		ExpiryDate: &badDate,
	})
	require.ErrorIs(t, err, ErrInvalidDate)

	require.Empty(t, alerts.synchronized)
	repo.AssertNotCalled(t, "AddDocument", mock.Anything, mock.Anything)
}

func TestUploadDocumentAppendsAndReconcilesAlerts(t *testing.T) {
	vehicle := testVehicle("v1", "KA01AB1234")

	repo := new(MockVehicleRepository)
	repo.On("GetByID", mock.Anything, "v1").Return(vehicle, nil)
	repo.On("AddDocument", mock.Anything, mock.AnythingOfType("*model.Document")).Return(&model.Document{}, nil)

	svc, alerts, audit := newTestVehicleService(repo, newFakeAlertStore())

	document, err := svc.UploadDocument(context.Background(), "alice", "v1", &UploadDocumentRequest{
		Kind:            "insurance",
		ReferenceNumber: "POL-9",
		ExpiryDate:      expiryFromToday(10),
	})
	require.NoError(t, err)
	require.Equal(t, model.InsuranceKind, document.Kind)
	require.Equal(t, "v1", document.VehicleID)
	require.Equal(t, testToday, document.UploadedAt)

	// Alerts are reconciled against the post-upload snapshot
	require.Len(t, alerts.synchronized, 1)
	require.Len(t, alerts.synchronized[0].Documents, 1)

	require.Equal(t, []model.AuditAction{model.AuditUploadDocument}, audit.recorded())
	repo.AssertExpectations(t)
}

func TestUploadDocumentIgnoresCustomNameForKnownKinds(t *testing.T) {
	vehicle := testVehicle("v1", "KA01AB1234")

	repo := new(MockVehicleRepository)
	repo.On("GetByID", mock.Anything, "v1").Return(vehicle, nil)
	repo.On("AddDocument", mock.Anything, mock.AnythingOfType("*model.Document")).Return(&model.Document{}, nil)

	svc, _, _ := newTestVehicleService(repo, newFakeAlertStore())

	document, err := svc.UploadDocument(context.Background(), "alice", "v1", &UploadDocumentRequest{
		Kind:       "insurance",
		CustomName: "my insurance",
		ExpiryDate: expiryFromToday(200),
	})
	require.NoError(t, err)
	require.Empty(t, document.CustomName)
}

func TestUploadDocumentVehicleNotFound(t *testing.T) {
	repo := new(MockVehicleRepository)
	repo.On("GetByID", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	svc, _, _ := newTestVehicleService(repo, newFakeAlertStore())

	_, err := svc.UploadDocument(context.Background(), "alice", "missing", &UploadDocumentRequest{
		Kind: "insurance",
	})
	require.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestDeleteVehicleCascadesAlerts(t *testing.T) {
	vehicle := testVehicle("v1", "KA01AB1234")
	alertStore := newFakeAlertStore()
	alertStore.alerts["a1"] = &model.Alert{
		Base:      model.Base{UUID: "a1"},
		VehicleID: "v1",
		OwnerID:   "alice",
		Read:      true,
	}

	repo := new(MockVehicleRepository)
	repo.On("GetByID", mock.Anything, "v1").Return(vehicle, nil)
	repo.On("Delete", mock.Anything, "v1").Return(nil)

	svc, _, audit := newTestVehicleService(repo, alertStore)

	err := svc.Delete(context.Background(), "alice", "v1")
	require.NoError(t, err)

	// Read alerts go with the vehicle; the audit history does not
	require.Empty(t, alertStore.alerts)
	require.Equal(t, []model.AuditAction{model.AuditDeleteVehicle}, audit.recorded())
	repo.AssertExpectations(t)
}

func TestGetByRegistrationNormalizesLookup(t *testing.T) {
	vehicle := testVehicle("v1", "KA01AB1234")

	repo := new(MockVehicleRepository)
	repo.On("GetByRegistration", mock.Anything, "KA01AB1234").Return(vehicle, nil)

	svc, _, _ := newTestVehicleService(repo, newFakeAlertStore())

	found, err := svc.GetByRegistration(context.Background(), "  ka01ab1234 ")
	require.NoError(t, err)
	require.Equal(t, "v1", found.UUID)
	repo.AssertExpectations(t)
}

func TestGetByRegistrationNotFound(t *testing.T) {
	repo := new(MockVehicleRepository)
	repo.On("GetByRegistration", mock.Anything, "KA99ZZ0000").Return(nil, repository.ErrNotFound)

	svc, _, _ := newTestVehicleService(repo, newFakeAlertStore())

	_, err := svc.GetByRegistration(context.Background(), "KA99ZZ0000")
	require.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestGetStatusDerivesVerdict(t *testing.T) {
	vehicle := testVehicle("v1", "KA01AB1234",
		testDocument("ins", model.InsuranceKind, expiryFromToday(10), ""),
		testDocument("fit", model.FitnessKind, expiryFromToday(200), ""),
		testDocument("pol", model.PollutionKind, expiryFromToday(200), ""),
	)

	repo := new(MockVehicleRepository)
	repo.On("GetByID", mock.Anything, "v1").Return(vehicle, nil)

	svc, _, _ := newTestVehicleService(repo, newFakeAlertStore())

	status, err := svc.GetStatus(context.Background(), "v1")
	require.NoError(t, err)
	require.Equal(t, model.ExpiringSoonStatus, status.Overall)
	require.Len(t, status.Obligations, 3)
}
