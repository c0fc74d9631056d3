package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/CodePhantomAI/eranfixp-sub001/internal/models"
)

// Client wraps go-elasticsearch with the content collection helpers.
// Every collection lives in its own index named "<prefix>-<collection>".
type Client struct {
	es     *elasticsearch.Client
	prefix string
	log    *slog.Logger
}

var indexSuffix = map[models.Kind]string{
	models.KindPage:      "pages",
	models.KindArticle:   "articles",
	models.KindPortfolio: "portfolio",
	models.KindResearch:  "research",
}

// New instantiates the Elasticsearch client.
func New(addr, prefix string, logger *slog.Logger) (*Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{addr},
	}

	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{es: es, prefix: prefix, log: logger}, nil
}

// Index returns the index name backing a collection.
func (c *Client) Index(kind models.Kind) string {
	return c.prefix + "-" + indexSuffix[kind]
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}

	return nil
}

// EnsureIndices creates any missing collection index with its mapping.
func (c *Client) EnsureIndices(ctx context.Context) error {
	for _, kind := range models.Kinds {
		index := c.Index(kind)

		res, err := c.es.Indices.Exists([]string{index}, c.es.Indices.Exists.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("check index %s: %w", index, err)
		}
		res.Body.Close()
		if res.StatusCode == http.StatusOK {
			continue
		}

		payload, err := json.Marshal(Mapping(kind))
		if err != nil {
			return fmt.Errorf("marshal mapping: %w", err)
		}

		res, err = c.es.Indices.Create(index,
			c.es.Indices.Create.WithContext(ctx),
			c.es.Indices.Create.WithBody(bytes.NewReader(payload)),
		)
		if err != nil {
			return fmt.Errorf("create index %s: %w", index, err)
		}
		if res.IsError() {
			data, _ := io.ReadAll(res.Body)
			res.Body.Close()
			if strings.Contains(string(data), "resource_already_exists_exception") {
				continue
			}
			return fmt.Errorf("create index %s failed: %s", index, strings.TrimSpace(string(data)))
		}
		res.Body.Close()
		c.log.Info("created index", slog.String("index", index))
	}
	return nil
}

// Mapping returns the index body for a collection. Searchable text uses the
// wildcard field type so substring queries match across the whole value.
func Mapping(kind models.Kind) map[string]any {
	props := map[string]any{
		"id":         map[string]any{"type": "keyword"},
		"slug":       map[string]any{"type": "keyword"},
		"status":     map[string]any{"type": "keyword"},
		"updated_at": map[string]any{"type": "date"},
	}
	for _, field := range models.SearchFields(kind) {
		props[field] = map[string]any{"type": "wildcard"}
	}
	if df := models.DateField(kind); df != "" {
		props[df] = map[string]any{"type": "date"}
	}
	for _, image := range []string{"featured_image", "image_url"} {
		props[image] = map[string]any{"type": "keyword", "index": false}
	}

	return map[string]any{
		"mappings": map[string]any{
			"properties": props,
		},
	}
}

// EscapeWildcard makes every character of term match literally inside a wildcard pattern.
func EscapeWildcard(term string) string {
	var b strings.Builder
	for _, r := range term {
		switch r {
		case '\\', '*', '?':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LookupQuery builds the search body for one collection: published records whose
// search fields contain term, case-insensitively.
func LookupQuery(kind models.Kind, term string, size int) map[string]any {
	pattern := "*" + EscapeWildcard(term) + "*"

	fields := models.SearchFields(kind)
	should := make([]map[string]any, 0, len(fields))
	for _, field := range fields {
		should = append(should, map[string]any{
			"wildcard": map[string]any{
				field: map[string]any{
					"value":            pattern,
					"case_insensitive": true,
				},
			},
		})
	}

	return map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"status": string(models.StatusPublished)}},
				},
				"should":               should,
				"minimum_should_match": 1,
			},
		},
		"sort": []map[string]any{
			{models.DateField(kind): map[string]any{"order": "desc", "missing": "_last", "unmapped_type": "date"}},
			{"id": map[string]any{"order": "asc"}},
		},
	}
}

// Lookup returns up to size published records of one collection matching term.
func (c *Client) Lookup(ctx context.Context, kind models.Kind, term string, size int) ([]models.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("lookup: %w: %q", models.ErrUnknownKind, kind)
	}
	if size <= 0 {
		size = 10
	}

	payload, err := json.Marshal(LookupQuery(kind, term, size))
	if err != nil {
		return nil, fmt.Errorf("marshal lookup body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.Index(kind)),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", kind, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("lookup %s failed: %s", kind, strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}

	records := make([]models.Record, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		rec, err := models.Decode(kind, hit.Source)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	c.log.Debug("lookup done", slog.String("kind", string(kind)), slog.Int("hits", len(records)))
	return records, nil
}

// IndexRecord writes a record into its collection index.
func (c *Client) IndexRecord(ctx context.Context, rec models.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.Index(rec.Kind()),
		DocumentID: rec.RecordID(),
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index record failed: %s", strings.TrimSpace(string(body)))
	}

	return nil
}

// DeleteRecord removes a record. Deleting a missing record is not an error.
func (c *Client) DeleteRecord(ctx context.Context, kind models.Kind, id string) error {
	req := esapi.DeleteRequest{
		Index:      c.Index(kind),
		DocumentID: id,
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("delete record failed: %s", strings.TrimSpace(string(body)))
	}

	return nil
}

// PurgeArchived removes archived records last updated before maxAge using batched
// delete-by-query. It loops until a batch deletes fewer documents than batchSize.
func (c *Client) PurgeArchived(ctx context.Context, kind models.Kind, maxAge time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	cutoff := time.Now().Add(-maxAge).UTC().Format(time.RFC3339)
	totalDeleted := int64(0)

	for {
		body := map[string]any{
			"max_docs": batchSize,
			"query": map[string]any{
				"bool": map[string]any{
					"filter": []map[string]any{
						{"term": map[string]any{"status": string(models.StatusArchived)}},
						{"range": map[string]any{"updated_at": map[string]any{"lte": cutoff}}},
					},
				},
			},
		}

		payload, err := json.Marshal(body)
		if err != nil {
			return totalDeleted, fmt.Errorf("marshal purge body: %w", err)
		}

		res, err := c.es.DeleteByQuery(
			[]string{c.Index(kind)},
			bytes.NewReader(payload),
			c.es.DeleteByQuery.WithContext(ctx),
			c.es.DeleteByQuery.WithWaitForCompletion(true),
			c.es.DeleteByQuery.WithConflicts("proceed"),
			c.es.DeleteByQuery.WithScrollSize(batchSize),
		)
		if err != nil {
			return totalDeleted, fmt.Errorf("purge %s: %w", kind, err)
		}

		if res.IsError() {
			data, _ := io.ReadAll(res.Body)
			res.Body.Close()
			return totalDeleted, fmt.Errorf("purge %s failed: %s", kind, strings.TrimSpace(string(data)))
		}

		var parsed struct {
			Deleted int64 `json:"deleted"`
		}
		if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
			res.Body.Close()
			return totalDeleted, fmt.Errorf("decode purge response: %w", err)
		}
		res.Body.Close()

		totalDeleted += parsed.Deleted

		if parsed.Deleted < int64(batchSize) {
			break
		}
	}

	return totalDeleted, nil
}

// Health reports cluster health.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}
