package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/fleetdocs/internal/db"
	"example.com/fleetdocs/internal/model"
)

// AlertRepository defines the interface for alert persistence
type AlertRepository interface {
	Create(ctx context.Context, alert *model.Alert) (*model.Alert, error)
	GetByID(ctx context.Context, id string) (*model.Alert, error)
	ListByOwner(ctx context.Context, ownerID string, onlyUnread bool) ([]model.Alert, error)
	ListByVehicle(ctx context.Context, ownerID, vehicleID string) ([]model.Alert, error)
	DeleteUnreadByVehicle(ctx context.Context, ownerID, vehicleID string) error
	DeleteByVehicle(ctx context.Context, vehicleID string) error
	MarkRead(ctx context.Context, id string) (bool, error)
}

// alertRepository implements AlertRepository
type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

// Create creates a new alert
func (r *alertRepository) Create(ctx context.Context, alert *model.Alert) (*model.Alert, error) {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return nil, err
	}
	return alert, nil
}

// GetByID gets an alert by ID
func (r *alertRepository) GetByID(ctx context.Context, id string) (*model.Alert, error) {
	var alert model.Alert
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&alert).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// ListByOwner lists an owner's alerts, newest first
func (r *alertRepository) ListByOwner(ctx context.Context, ownerID string, onlyUnread bool) ([]model.Alert, error) {
	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC")
	if onlyUnread {
		query = query.Where("read = ?", false)
	}

	var alerts []model.Alert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// ListByVehicle lists an owner's alerts for one vehicle, read ones included
func (r *alertRepository) ListByVehicle(ctx context.Context, ownerID, vehicleID string) ([]model.Alert, error) {
	var alerts []model.Alert
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND vehicle_id = ?", ownerID, vehicleID).
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// DeleteUnreadByVehicle removes an owner's unread alerts for one vehicle.
// Read alerts are an acknowledgment record and are never touched here.
func (r *alertRepository) DeleteUnreadByVehicle(ctx context.Context, ownerID, vehicleID string) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ? AND vehicle_id = ? AND read = ?", ownerID, vehicleID, false).
		Delete(&model.Alert{}).Error
}

// DeleteByVehicle removes every alert for a vehicle, read ones included.
// Used by the vehicle-delete cascade.
func (r *alertRepository) DeleteByVehicle(ctx context.Context, vehicleID string) error {
	return r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Delete(&model.Alert{}).Error
}

// MarkRead flags an alert as read; returns false when the alert is absent
func (r *alertRepository) MarkRead(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Alert{}).
		Where("uuid = ?", id).
		Update("read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
