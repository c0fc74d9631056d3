package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/CodePhantomAI/eranfixp-sub001/internal/config"
	"github.com/CodePhantomAI/eranfixp-sub001/internal/dedupe"
	"github.com/CodePhantomAI/eranfixp-sub001/internal/elasticsearch"
	"github.com/CodePhantomAI/eranfixp-sub001/internal/logger"
	"github.com/CodePhantomAI/eranfixp-sub001/internal/models"
	"github.com/CodePhantomAI/eranfixp-sub001/internal/processing"
)

const (
	opUpsert = "upsert"
	opDelete = "delete"
)

// contentEvent is published by the admin panel whenever a record changes.
type contentEvent struct {
	ID        string          `json:"id"`
	Op        string          `json:"op"`
	Kind      string          `json:"kind"`
	RecordID  string          `json:"record_id"`
	Record    json.RawMessage `json:"record,omitempty"`
	Timestamp string          `json:"timestamp"`
}

type recordIndexer interface {
	IndexRecord(ctx context.Context, rec models.Record) error
	DeleteRecord(ctx context.Context, kind models.Kind, id string) error
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.IndexPrefix, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}
	if err := esClient.EnsureIndices(ctx); err != nil {
		log.Error("ensure indices", slog.Any("err", err))
		os.Exit(1)
	}

	var seen dedupe.Store
	if cfg.DedupeRedis != "" {
		store, err := dedupe.NewRedisStore(ctx, cfg.DedupeRedis, cfg.IndexPrefix, cfg.DedupeTTL, log)
		if err != nil {
			log.Error("init redis dedupe", slog.Any("err", err))
			os.Exit(1)
		}
		defer store.Close()
		seen = store
	} else {
		seen = dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.ContentTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.BatchSize,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit only
	})
	defer reader.Close()

	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.ContentTopic + "_dlq",
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.ContentTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", cfg.ContentTopic+"_dlq"),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, esClient, seen, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			if !sendToDLQ(ctx, log, dlqWriter, msg, err) {
				if ctx.Err() != nil {
					return
				}
				log.Error("DLQ write exhausted retries, message may be lost if later messages commit",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// sendToDLQ retries the dead-letter write with exponential backoff.
func sendToDLQ(ctx context.Context, log *slog.Logger, w *kafka.Writer, msg kafka.Message, cause error) bool {
	dlqMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := range 5 {
		dlqErr := w.WriteMessages(ctx, dlqMsg)
		if dlqErr == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", dlqErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			log.Info("context canceled during DLQ retry")
			return false
		}
	}
	return false
}

func processMessage(ctx context.Context, log *slog.Logger, idx recordIndexer, seen dedupe.Store, msg kafka.Message) error {
	var ev contentEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	kind, err := models.ParseKind(strings.TrimSpace(ev.Kind))
	if err != nil {
		return err
	}

	ts := parseTimestamp(ev.Timestamp)
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	op := strings.ToLower(strings.TrimSpace(ev.Op))
	if op == "" {
		op = opUpsert
	}

	switch op {
	case opUpsert:
		if !hasRecord(ev.Record) {
			return errors.New("upsert without record")
		}
		rec, err := models.Decode(kind, ev.Record)
		if err != nil {
			return err
		}

		// Records without an id get one from normalize, so their payload
		// stands in as the identity for dedupe.
		identity := rec.RecordID()
		if identity == "" {
			identity = string(ev.Record)
		}
		key := eventKey(ev, kind, identity, op, ts)
		if seen.IsSeen(ctx, key) {
			log.Debug("duplicate event", slog.String("key", key))
			return nil
		}

		normalize(rec, ts)
		if err := idx.IndexRecord(ctx, rec); err != nil {
			return err
		}
		seen.MarkSeen(ctx, key)
		log.Info("indexed record", slog.String("kind", string(kind)), slog.String("id", rec.RecordID()))

	case opDelete:
		id := strings.TrimSpace(ev.RecordID)
		if id == "" && hasRecord(ev.Record) {
			if rec, err := models.Decode(kind, ev.Record); err == nil {
				id = rec.RecordID()
			}
		}
		if id == "" {
			return errors.New("delete without record id")
		}

		key := eventKey(ev, kind, id, op, ts)
		if seen.IsSeen(ctx, key) {
			log.Debug("duplicate event", slog.String("key", key))
			return nil
		}

		if err := idx.DeleteRecord(ctx, kind, id); err != nil {
			return err
		}
		seen.MarkSeen(ctx, key)
		log.Info("deleted record", slog.String("kind", string(kind)), slog.String("id", id))

	default:
		return fmt.Errorf("unknown op %q", ev.Op)
	}

	return nil
}

func hasRecord(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null"
}

func eventKey(ev contentEvent, kind models.Kind, id, op string, ts time.Time) string {
	if key := strings.TrimSpace(ev.ID); key != "" {
		return key
	}
	return processing.BuildEventID(string(kind), id, op, ts)
}

// normalize fills the fields the search projection relies on when the
// admin panel sent them empty.
func normalize(rec models.Record, ts time.Time) {
	fill := func(id, slug *string, title string, updated *time.Time) {
		if *id == "" {
			*id = uuid.NewString()
		}
		if *slug == "" {
			*slug = processing.Slugify(title)
		}
		if *slug == "" {
			*slug = *id
		}
		if updated.IsZero() {
			*updated = ts
		}
	}

	switch r := rec.(type) {
	case *models.Page:
		fill(&r.ID, &r.Slug, r.Title, &r.UpdatedAt)
		if r.Status == "" {
			r.Status = models.StatusDraft
		}
	case *models.Article:
		fill(&r.ID, &r.Slug, r.Title, &r.UpdatedAt)
		if r.Status == "" {
			r.Status = models.StatusDraft
		}
	case *models.PortfolioItem:
		fill(&r.ID, &r.Slug, r.Title, &r.UpdatedAt)
		if r.Status == "" {
			r.Status = models.StatusDraft
		}
	case *models.ResearchPaper:
		fill(&r.ID, &r.Slug, r.Title, &r.UpdatedAt)
		if r.Status == "" {
			r.Status = models.StatusDraft
		}
	}
}

func parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}

	for _, f := range formats {
		if ts, err := time.Parse(f, raw); err == nil {
			return ts
		}
	}

	return time.Time{}
}
