package service

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/mock"

	"example.com/fleetdocs/internal/model"
	"example.com/fleetdocs/internal/repository"
)

// Mock VehicleRepository for testing
type MockVehicleRepository struct {
	mock.Mock
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) (*model.Vehicle, error) {
	args := m.Called(ctx, vehicle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) Update(ctx context.Context, vehicle *model.Vehicle) (*model.Vehicle, error) {
	args := m.Called(ctx, vehicle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) GetByRegistration(ctx context.Context, registration string) (*model.Vehicle, error) {
	args := m.Called(ctx, registration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) List(ctx context.Context) ([]model.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Vehicle), args.Error(1)
}

func (m *MockVehicleRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVehicleRepository) AddDocument(ctx context.Context, document *model.Document) (*model.Document, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

// fakeAlertStore is an in-memory AlertRepository. The alert synchronizer's
// semantics are about what survives repeated passes, which is awkward to
// express with call expectations, so these tests use real storage behavior.
type fakeAlertStore struct {
	mu            sync.Mutex
	alerts        map[string]*model.Alert
	failOnVehicle string
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{alerts: make(map[string]*model.Alert)}
}

func (f *fakeAlertStore) Create(ctx context.Context, alert *model.Alert) (*model.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOnVehicle != "" && alert.VehicleID == f.failOnVehicle {
		return nil, repository.ErrCreateFailed
	}
	stored := *alert
	f.alerts[alert.UUID] = &stored
	return alert, nil
}

func (f *fakeAlertStore) GetByID(ctx context.Context, id string) (*model.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *alert
	return &copied, nil
}

func (f *fakeAlertStore) ListByOwner(ctx context.Context, ownerID string, onlyUnread bool) ([]model.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var alerts []model.Alert
	for _, alert := range f.alerts {
		if alert.OwnerID != ownerID {
			continue
		}
		if onlyUnread && alert.Read {
			continue
		}
		alerts = append(alerts, *alert)
	}
	return alerts, nil
}

func (f *fakeAlertStore) ListByVehicle(ctx context.Context, ownerID, vehicleID string) ([]model.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOnVehicle != "" && vehicleID == f.failOnVehicle {
		return nil, repository.ErrCreateFailed
	}
	var alerts []model.Alert
	for _, alert := range f.alerts {
		if alert.OwnerID == ownerID && alert.VehicleID == vehicleID {
			alerts = append(alerts, *alert)
		}
	}
	return alerts, nil
}

func (f *fakeAlertStore) DeleteUnreadByVehicle(ctx context.Context, ownerID, vehicleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, alert := range f.alerts {
		if alert.OwnerID == ownerID && alert.VehicleID == vehicleID && !alert.Read {
			delete(f.alerts, id)
		}
	}
	return nil
}

func (f *fakeAlertStore) DeleteByVehicle(ctx context.Context, vehicleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, alert := range f.alerts {
		if alert.VehicleID == vehicleID {
			delete(f.alerts, id)
		}
	}
	return nil
}

func (f *fakeAlertStore) MarkRead(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[id]
	if !ok {
		return false, nil
	}
	alert.Read = true
	return true, nil
}

// stubAudit records actions without touching any store
type stubAudit struct {
	mu      sync.Mutex
	actions []model.AuditAction
}

func (s *stubAudit) Record(ctx context.Context, userID string, action model.AuditAction, entityType model.AuditEntityType, entityID, registration string, details map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
}

func (s *stubAudit) List(ctx context.Context, filter repository.AuditFilter) ([]model.AuditLogEntry, error) {
	return nil, nil
}

func (s *stubAudit) Search(ctx context.Context, text string, size int) ([]map[string]interface{}, error) {
	return nil, nil
}

func (s *stubAudit) recorded() []model.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditAction(nil), s.actions...)
}

// stubBus collects published messages
type stubBus struct {
	mu        sync.Mutex
	published []interface{}
}

func (s *stubBus) PublishMessage(ctx context.Context, message interface{}, queueName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, message)
	return nil
}

func (s *stubBus) Close(ctx context.Context) error { return nil }

// stubCache always misses and remembers evicted registration mappings
type stubCache struct {
	mu      sync.Mutex
	evicted []string
}

func (*stubCache) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	return nil, redis.Nil
}

func (*stubCache) SetVehicle(ctx context.Context, vehicle *model.Vehicle) error { return nil }

func (*stubCache) DeleteVehicle(ctx context.Context, id string) error { return nil }

func (*stubCache) GetVehicleIDByRegistration(ctx context.Context, registration string) (string, error) {
	return "", redis.Nil
}

func (*stubCache) SetVehicleIDByRegistration(ctx context.Context, registration, id string) error {
	return nil
}

func (c *stubCache) DeleteVehicleIDByRegistration(ctx context.Context, registration string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evicted = append(c.evicted, registration)
	return nil
}

func (*stubCache) FlushAll(ctx context.Context) error { return nil }

func (c *stubCache) evictedRegistrations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.evicted...)
}
