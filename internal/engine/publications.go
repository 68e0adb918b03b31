package engine

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/atlas-collab/atlas/backend/internal/model"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// Publications live in the document store; their metric counters also feed
// the analytics pipeline through the attached publisher. A publish failure
// never fails the write.

func (e *Engine) CreatePublication(ctx context.Context, p model.Publication) (string, error) {
	doc, err := model.ToDoc(p)
	if err != nil {
		return "", fmt.Errorf("encode publication: %w", err)
	}
	now := time.Now().UTC()
	doc["metadata"] = bson.M{"created_at": now, "last_updated": now}

	id, err := e.stores.Documents.Insert(ctx, model.CollectionPublications, doc)
	if err != nil {
		return "", fmt.Errorf("create publication: %w", err)
	}

	e.publishPublicationMetrics(ctx, id, p.Metrics)
	logger.Info("Created publication", "id", id, "authors", len(p.Authors))
	return id, nil
}

func (e *Engine) GetPublication(ctx context.Context, id string) (model.Publication, error) {
	doc, err := e.stores.Documents.Get(ctx, model.CollectionPublications, id)
	if err != nil {
		return model.Publication{}, err
	}
	var p model.Publication
	if err := model.FromDoc(doc, &p); err != nil {
		return model.Publication{}, fmt.Errorf("decode publication %s: %w", id, err)
	}
	return p, nil
}

func (e *Engine) UpdatePublication(ctx context.Context, id string, fields map[string]any) (bool, error) {
	set := bson.M{}
	for path, value := range fields {
		set[path] = value
	}
	set["metadata.last_updated"] = time.Now().UTC()

	updated, err := e.stores.Documents.Update(ctx, model.CollectionPublications, id, set)
	if err != nil {
		return false, fmt.Errorf("update publication %s: %w", id, err)
	}

	// Re-read so the analytics event carries the full current counters, not
	// just the fields this update touched.
	if updated {
		if p, err := e.GetPublication(ctx, id); err == nil {
			e.publishPublicationMetrics(ctx, id, p.Metrics)
		}
	}
	return updated, nil
}

func (e *Engine) DeletePublication(ctx context.Context, id string) (bool, error) {
	deleted, err := e.stores.Documents.Delete(ctx, model.CollectionPublications, id)
	if err != nil {
		return false, fmt.Errorf("delete publication %s: %w", id, err)
	}
	return deleted, nil
}

func (e *Engine) publishPublicationMetrics(ctx context.Context, id string, m model.PublicationMetrics) {
	if e.publish == nil {
		return
	}
	row := store.PublicationMetricsRow{
		PublicationID: id,
		MetricDate:    time.Now().UTC(),
		CitationCount: m.CitationCount,
		DownloadCount: m.DownloadCount,
		ViewCount:     m.ViewCount,
	}
	if err := e.publish(ctx, row); err != nil {
		logger.Warn("Failed to publish publication metrics", "id", id, "err", err)
	}
}
