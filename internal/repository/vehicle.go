package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"example.com/fleetdocs/internal/db"
	"example.com/fleetdocs/internal/model"
)

// VehicleRepository defines the interface for vehicle persistence
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) (*model.Vehicle, error)
	Update(ctx context.Context, vehicle *model.Vehicle) (*model.Vehicle, error)
	GetByID(ctx context.Context, id string) (*model.Vehicle, error)
	GetByRegistration(ctx context.Context, registration string) (*model.Vehicle, error)
	List(ctx context.Context) ([]model.Vehicle, error)
	Delete(ctx context.Context, id string) error
	AddDocument(ctx context.Context, document *model.Document) (*model.Document, error)
}

// vehicleRepository implements VehicleRepository
type vehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

// Create creates a new vehicle
func (r *vehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) (*model.Vehicle, error) {
	if err := r.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return vehicle, nil
}

// Update updates a vehicle's own fields, leaving document history untouched
func (r *vehicleRepository) Update(ctx context.Context, vehicle *model.Vehicle) (*model.Vehicle, error) {
	if err := r.db.WithContext(ctx).Omit("Documents").Updates(vehicle).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return vehicle, nil
}

// GetByID gets a vehicle with its full document history
func (r *vehicleRepository) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := r.db.WithContext(ctx).
		Preload("Documents").
		Where("uuid = ?", id).
		First(&vehicle).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// GetByRegistration gets a vehicle by its registration number
func (r *vehicleRepository) GetByRegistration(ctx context.Context, registration string) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := r.db.WithContext(ctx).
		Preload("Documents").
		Where("registration = ?", model.NormalizeRegistration(registration)).
		First(&vehicle).Error
	if err != nil {
		if db.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// List lists all vehicles with their document history
func (r *vehicleRepository) List(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	err := r.db.WithContext(ctx).
		Preload("Documents").
		Order("registration").
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Delete deletes a vehicle and its documents
func (r *vehicleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vehicle_id = ?", id).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		res := tx.Where("uuid = ?", id).Delete(&model.Vehicle{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddDocument appends a document record to a vehicle's history
func (r *vehicleRepository) AddDocument(ctx context.Context, document *model.Document) (*model.Document, error) {
	if err := r.db.WithContext(ctx).Omit("Vehicle").Create(document).Error; err != nil {
		return nil, err
	}
	return document, nil
}

// isDuplicateKeyError checks for a unique constraint violation
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "SQLSTATE 23505")
}
