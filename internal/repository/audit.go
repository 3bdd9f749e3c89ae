package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"example.com/fleetdocs/internal/model"
)

// AuditFilter narrows an audit log query. Zero-value fields are ignored.
type AuditFilter struct {
	UserID       string
	Action       model.AuditAction
	EntityType   model.AuditEntityType
	EntityID     string
	Registration string
	From         *time.Time
	To           *time.Time
	Limit        int
}

// AuditRepository defines the interface for the append-only audit log.
// There is deliberately no update or delete: entries are immutable and
// survive deletion of the entity they describe.
type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditLogEntry) error
	List(ctx context.Context, filter AuditFilter) ([]model.AuditLogEntry, error)
}

// auditRepository implements AuditRepository
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Append appends an audit entry
func (r *auditRepository) Append(ctx context.Context, entry *model.AuditLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List lists audit entries matching the filter, newest first
func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]model.AuditLogEntry, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Registration != "" {
		query = query.Where("registration = ?", model.NormalizeRegistration(filter.Registration))
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", filter.To)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []model.AuditLogEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
