package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"example.com/fleetdocs/config"
	"example.com/fleetdocs/internal/model"
)

// AuditIndexer mirrors audit log entries into a search index for the report
// read path. Postgres stays the source of truth; indexing is best-effort.
type AuditIndexer interface {
	IndexAuditEntry(ctx context.Context, entry *model.AuditLogEntry) error
	SearchAuditEntries(ctx context.Context, query map[string]interface{}, size int) ([]map[string]interface{}, error)
}

// ElasticClient implements AuditIndexer using Elasticsearch
type ElasticClient struct {
	client  *elasticsearch.Client
	index   string
	enabled bool
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg *config.ElasticsearchConfig) (*ElasticClient, error) {
	if !cfg.Enabled {
		return &ElasticClient{enabled: false}, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.URLs,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &ElasticClient{
		client:  client,
		index:   cfg.AuditIndex,
		enabled: true,
	}, nil
}

// IndexAuditEntry indexes an audit log entry
func (c *ElasticClient) IndexAuditEntry(ctx context.Context, entry *model.AuditLogEntry) error {
	if !c.enabled {
		return nil
	}

	doc := map[string]interface{}{
		"id":           entry.UUID,
		"timestamp":    entry.CreatedAt,
		"user_id":      entry.UserID,
		"action":       entry.Action,
		"entity_type":  entry.EntityType,
		"entity_id":    entry.EntityID,
		"registration": entry.Registration,
	}
	if len(entry.Details) > 0 {
		var details map[string]interface{}
		if err := json.Unmarshal(entry.Details, &details); err == nil {
			doc["details"] = details
		}
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal audit document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: entry.UUID,
		Body:       bytes.NewReader(docJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to execute index request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return fmt.Errorf("failed to parse Elasticsearch error response: %w", err)
		}
		return fmt.Errorf("elasticsearch index error: %v", e)
	}

	logrus.WithField("entry_id", entry.UUID).Debug("Indexed audit entry")
	return nil
}

// SearchAuditEntries runs a raw query against the audit index
func (c *ElasticClient) SearchAuditEntries(ctx context.Context, query map[string]interface{}, size int) ([]map[string]interface{}, error) {
	if !c.enabled {
		return nil, nil
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(c.index),
		c.client.Search.WithBody(bytes.NewReader(queryJSON)),
		c.client.Search.WithSize(size),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search error: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	entries := make([]map[string]interface{}, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		entries = append(entries, hit.Source)
	}
	return entries, nil
}
