package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"content-studio/internal/common/database"
	"content-studio/internal/common/logger"
	"content-studio/internal/orchestrator"
	"content-studio/internal/provider"
)

// SearchIndexer mirrors finished generations into Elasticsearch so
// prompts and captions are searchable. Indexing is best-effort: failures
// are logged, never surfaced to the caller.
type SearchIndexer struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewSearchIndexer(es *database.ElasticsearchClient, index string, log logger.Logger) *SearchIndexer {
	return &SearchIndexer{
		es:     es,
		index:  index,
		logger: log.With(map[string]interface{}{"component": "search_indexer"}),
	}
}

type searchDocument struct {
	ID        string            `json:"id"`
	Prompt    string            `json:"prompt"`
	Caption   string            `json:"caption,omitempty"`
	Providers map[string]string `json:"providers"`
	Statuses  map[string]string `json:"statuses"`
	CreatedAt time.Time         `json:"created_at"`
}

// SearchHit is one match returned by Search.
type SearchHit struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Caption   string    `json:"caption,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Index writes a flattened view of the response to the search index.
func (s *SearchIndexer) Index(ctx context.Context, resp *orchestrator.Response) {
	doc := searchDocument{
		ID:        resp.ID,
		Prompt:    resp.Prompt,
		Providers: make(map[string]string),
		Statuses:  make(map[string]string),
		CreatedAt: resp.CreatedAt,
	}
	for ch, result := range resp.Results {
		doc.Statuses[string(ch)] = string(result.Status)
		if result.Provider != "" {
			doc.Providers[string(ch)] = result.Provider
		}
	}
	if text, ok := resp.Results[provider.ChannelText]; ok && text.Payload != nil {
		doc.Caption = text.Payload.Text
	}

	body, err := json.Marshal(doc)
	if err != nil {
		s.logger.WithError(err).Warn("failed to encode search document", nil)
		return
	}

	res, err := s.es.Client.Index(
		s.index,
		bytes.NewReader(body),
		s.es.Client.Index.WithDocumentID(resp.ID),
		s.es.Client.Index.WithContext(ctx),
	)
	if err != nil {
		s.logger.WithError(err).Warn("failed to index generation", map[string]interface{}{
			"generation_id": resp.ID,
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		s.logger.Warn("elasticsearch rejected generation document", map[string]interface{}{
			"generation_id": resp.ID,
			"status":        res.Status(),
		})
	}
}

// Search finds past generations whose prompt or caption matches the query.
func (s *SearchIndexer) Search(ctx context.Context, query string, size int) ([]SearchHit, error) {
	if size <= 0 {
		size = 20
	}

	body, err := json.Marshal(map[string]interface{}{
		"size": size,
		"sort": []map[string]interface{}{
			{"created_at": map[string]string{"order": "desc"}},
		},
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"prompt", "caption"},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	res, err := s.es.Client.Search(
		s.es.Client.Search.WithContext(ctx),
		s.es.Client.Search.WithIndex(s.index),
		s.es.Client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source SearchHit `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]SearchHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		hits = append(hits, h.Source)
	}
	return hits, nil
}
