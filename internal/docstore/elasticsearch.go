package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"admissions-intake/internal/common/config"
	"admissions-intake/internal/common/errors"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchStore persists documents as one index per collection path.
// The backend assigns the document id; the caller never supplies one.
type ElasticsearchStore struct {
	client *elasticsearch.Client
}

// NewElasticsearchStore creates a document store backed by Elasticsearch.
func NewElasticsearchStore(cfg config.ElasticsearchConfig) (*ElasticsearchStore, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if len(esCfg.Addresses) == 0 && cfg.GetURL() != "" {
		esCfg.Addresses = []string{cfg.GetURL()}
	}

	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchStore{client: es}, nil
}

// CreateDocument indexes the fields under the path's index and returns the
// id Elasticsearch generated for the document.
func (s *ElasticsearchStore) CreateDocument(ctx context.Context, path CollectionPath, fields map[string]interface{}) (string, error) {
	if err := path.Validate(); err != nil {
		return "", err
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return "", errors.NewDocumentWriteError(fmt.Errorf("failed to serialize document: %w", err))
	}

	res, err := s.client.Index(
		indexName(path),
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return "", errors.NewDocumentWriteError(fmt.Errorf("elasticsearch index request failed: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return "", errors.NewDocumentWriteError(
			fmt.Errorf("elasticsearch returned %s: %s", res.Status(), strings.TrimSpace(string(raw))))
	}

	var indexed struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&indexed); err != nil {
		return "", errors.NewDocumentWriteError(fmt.Errorf("failed to decode index response: %w", err))
	}
	if indexed.ID == "" {
		return "", errors.NewDocumentWriteError(fmt.Errorf("index response carried no document id"))
	}

	return indexed.ID, nil
}

// Ping tests the Elasticsearch connection.
func (s *ElasticsearchStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.client.Ping(
		s.client.Ping.WithContext(ctx),
	)
	if err != nil {
		return errors.NewStoreConnectionError(fmt.Errorf("elasticsearch ping failed: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewStoreConnectionError(fmt.Errorf("elasticsearch ping error: %s", res.Status()))
	}

	return nil
}

// Close is a no-op; the underlying HTTP transport has no teardown.
func (s *ElasticsearchStore) Close() error {
	return nil
}
