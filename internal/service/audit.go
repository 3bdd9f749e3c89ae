package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/fleetdocs/internal/metrics"
	"example.com/fleetdocs/internal/model"
	"example.com/fleetdocs/internal/repository"
	"example.com/fleetdocs/internal/search"
)

// AuditService defines the interface for the audit recorder
type AuditService interface {
	// Record appends an audit entry. It never returns an error: audit is
	// best-effort relative to the mutation that triggered it, and a write
	// failure must not roll back or fail that mutation.
	Record(ctx context.Context, userID string, action model.AuditAction, entityType model.AuditEntityType, entityID, registration string, details map[string]interface{})
	List(ctx context.Context, filter repository.AuditFilter) ([]model.AuditLogEntry, error)
	Search(ctx context.Context, text string, size int) ([]map[string]interface{}, error)
}

// auditService implements AuditService
type auditService struct {
	repo         repository.AuditRepository
	indexer      search.AuditIndexer
	storeTimeout time.Duration
	storeRetries int
}

// NewAuditService creates a new audit service
func NewAuditService(
	repo repository.AuditRepository,
	indexer search.AuditIndexer,
	storeTimeout time.Duration,
	storeRetries int,
) AuditService {
	return &auditService{
		repo:         repo,
		indexer:      indexer,
		storeTimeout: storeTimeout,
		storeRetries: storeRetries,
	}
}

// Record appends an audit entry
func (s *auditService) Record(ctx context.Context, userID string, action model.AuditAction, entityType model.AuditEntityType, entityID, registration string, details map[string]interface{}) {
	collector := metrics.GetMetricsCollector()

	entry := &model.AuditLogEntry{
		Base:         model.Base{UUID: uuid.NewString()},
		UserID:       userID,
		Action:       action,
		EntityType:   entityType,
		EntityID:     entityID,
		Registration: registration,
	}

	if details != nil {
		payload, err := json.Marshal(details)
		if err != nil {
			// Record the entry without its detail payload rather than lose it
			logrus.WithError(err).WithField("action", action).Warn("Failed to marshal audit details")
		} else {
			entry.Details = payload
		}
	}

	err := repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		return s.repo.Append(ctx, entry)
	})
	if err != nil {
		// The failure to audit is itself recorded, on the process log
		logrus.WithError(err).WithFields(logrus.Fields{
			"action":    action,
			"entity_id": entityID,
			"user_id":   userID,
		}).Error("Failed to append audit entry")
		collector.RecordError(metrics.ErrorTypeAudit)
		return
	}

	collector.RecordAuditEntry()

	// Mirror into the search index, best-effort
	if s.indexer != nil {
		if err := s.indexer.IndexAuditEntry(ctx, entry); err != nil {
			logrus.WithError(err).WithField("entry_id", entry.UUID).Warn("Failed to index audit entry")
		}
	}
}

// List lists audit entries matching the filter
func (s *auditService) List(ctx context.Context, filter repository.AuditFilter) ([]model.AuditLogEntry, error) {
	var entries []model.AuditLogEntry
	err := repository.WithRetry(ctx, s.storeTimeout, s.storeRetries, func(ctx context.Context) error {
		var listErr error
		entries, listErr = s.repo.List(ctx, filter)
		return listErr
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Search runs a free-text query against the audit search index. Postgres
// stays the source of truth; the index serves the report read path and may
// lag behind entries whose mirroring failed.
func (s *auditService) Search(ctx context.Context, text string, size int) ([]map[string]interface{}, error) {
	if s.indexer == nil {
		return nil, ErrSearchUnavailable
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"user_id", "action", "entity_type", "entity_id", "registration", "details.*"},
			},
		},
		"sort": []map[string]interface{}{
			{"timestamp": map[string]interface{}{"order": "desc"}},
		},
	}

	entries, err := s.indexer.SearchAuditEntries(ctx, query, size)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		// A disabled index answers every query with nothing
		entries = []map[string]interface{}{}
	}
	return entries, nil
}
