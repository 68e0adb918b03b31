package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/atlas-collab/atlas/backend/internal/metrics"
	"github.com/atlas-collab/atlas/backend/internal/model"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// CreateResearcher inserts the researcher into the document store, mirrors a
// node into the graph store, and primes both cache entries. Only the document
// insert can fail the operation; mirror failures are logged and reported.
func (e *Engine) CreateResearcher(ctx context.Context, r model.Researcher) (CreateResult, error) {
	doc, err := model.ToDoc(r)
	if err != nil {
		return CreateResult{}, fmt.Errorf("encode researcher: %w", err)
	}
	now := time.Now().UTC()
	doc["metadata"] = bson.M{
		"created_at":   now,
		"last_updated": now,
		"status":       "active",
		"verified":     false,
	}

	id, err := e.stores.Documents.Insert(ctx, model.CollectionResearchers, doc)
	if err != nil {
		return CreateResult{}, fmt.Errorf("create researcher: %w", err)
	}
	doc["_id"] = id
	r.ID = id

	var mirror MirrorStatus
	if err := e.stores.Graph.UpsertNode(ctx, id, researcherNodeProps(r)); err != nil {
		mirror.GraphErr = err
		metrics.MirrorFailures.WithLabelValues("graph").Inc()
		logger.Error("Failed to mirror researcher node", "id", id, "err", err)
	}

	if err := e.writeResearcherStats(ctx, id, r.CollaborationMetrics); err != nil {
		mirror.CacheErr = err
		metrics.MirrorFailures.WithLabelValues("cache").Inc()
		logger.Error("Failed to cache researcher stats", "id", id, "err", err)
	}
	if err := e.cacheResearcherBody(ctx, id, doc); err != nil {
		mirror.CacheErr = err
		metrics.MirrorFailures.WithLabelValues("cache").Inc()
		logger.Error("Failed to cache researcher profile", "id", id, "err", err)
	}

	logger.Info("Created researcher", "id", id, "degraded", mirror.DegradedStores())
	return CreateResult{ID: id, Mirror: mirror}, nil
}

// GetResearcher reads the researcher straight from the document store.
func (e *Engine) GetResearcher(ctx context.Context, id string) (model.Researcher, error) {
	doc, err := e.stores.Documents.Get(ctx, model.CollectionResearchers, id)
	if err != nil {
		return model.Researcher{}, err
	}
	var r model.Researcher
	if err := model.FromDoc(doc, &r); err != nil {
		return model.Researcher{}, fmt.Errorf("decode researcher %s: %w", id, err)
	}
	return r, nil
}

// UpdateResearcher applies dot-path field updates to the document store,
// mirrors the subset of fields the graph node carries, and invalidates both
// cache entries so the next read repopulates lazily.
func (e *Engine) UpdateResearcher(ctx context.Context, id string, fields map[string]any) (UpdateResult, error) {
	set := bson.M{}
	for path, value := range fields {
		set[path] = value
	}
	set["metadata.last_updated"] = time.Now().UTC()

	updated, err := e.stores.Documents.Update(ctx, model.CollectionResearchers, id, set)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update researcher %s: %w", id, err)
	}

	var mirror MirrorStatus
	if props := graphMirrorProps(fields); len(props) > 0 {
		if err := e.stores.Graph.SetNodeProps(ctx, id, props); err != nil {
			mirror.GraphErr = err
			metrics.MirrorFailures.WithLabelValues("graph").Inc()
			logger.Error("Failed to mirror researcher update", "id", id, "err", err)
		}
	}

	if err := e.stores.Cache.Delete(ctx, store.ProfileKey(id), store.StatsKey(id)); err != nil {
		mirror.CacheErr = err
		metrics.MirrorFailures.WithLabelValues("cache").Inc()
		logger.Error("Failed to invalidate researcher cache", "id", id, "err", err)
	}

	if stats := statsFields(fields); len(stats) > 0 {
		if err := e.stores.Cache.SetHashWithTTL(ctx, store.StatsKey(id), stats, statsTTL); err != nil {
			mirror.CacheErr = err
			metrics.MirrorFailures.WithLabelValues("cache").Inc()
			logger.Error("Failed to refresh researcher stats", "id", id, "err", err)
		}
	}

	return UpdateResult{Updated: updated, Mirror: mirror}, nil
}

// DeleteResearcher removes the document record, detach-deletes the graph
// node with all incident edges, and invalidates the cache. Idempotent: a
// missing id yields Deleted=false without error.
func (e *Engine) DeleteResearcher(ctx context.Context, id string) (DeleteResult, error) {
	deleted, err := e.stores.Documents.Delete(ctx, model.CollectionResearchers, id)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete researcher %s: %w", id, err)
	}

	var mirror MirrorStatus
	if err := e.stores.Graph.DeleteNode(ctx, id); err != nil {
		mirror.GraphErr = err
		metrics.MirrorFailures.WithLabelValues("graph").Inc()
		logger.Error("Failed to delete researcher node", "id", id, "err", err)
	}
	if err := e.stores.Cache.Delete(ctx, store.ProfileKey(id), store.StatsKey(id)); err != nil {
		mirror.CacheErr = err
		metrics.MirrorFailures.WithLabelValues("cache").Inc()
		logger.Error("Failed to invalidate researcher cache", "id", id, "err", err)
	}

	logger.Info("Deleted researcher", "id", id, "removed", deleted)
	return DeleteResult{Deleted: deleted, Mirror: mirror}, nil
}

// QuickStats carries the fast-access counters kept in the stats hash.
type QuickStats struct {
	PublicationsCount  int     `json:"publications_count"`
	HIndex             int     `json:"h_index"`
	CollaborationScore float64 `json:"collaboration_score"`
	CacheStatus        string  `json:"cache_status"`
}

// ResearcherQuickStats reads the counters from the stats hash, falling back
// to the document record and repopulating the hash on a miss. Cheaper than
// the full profile when only the numbers are wanted.
func (e *Engine) ResearcherQuickStats(ctx context.Context, id string) (QuickStats, error) {
	fields, err := e.stores.Cache.GetHash(ctx, store.StatsKey(id))
	if err != nil && !isNotFound(err) {
		logger.Warn("Stats cache read degraded", "id", id, "err", err)
	}
	if len(fields) > 0 {
		stats := QuickStats{CacheStatus: "hit"}
		stats.PublicationsCount, _ = strconv.Atoi(fields["publications_count"])
		stats.HIndex, _ = strconv.Atoi(fields["h_index"])
		stats.CollaborationScore, _ = strconv.ParseFloat(fields["collaboration_score"], 64)
		return stats, nil
	}

	r, err := e.GetResearcher(ctx, id)
	if err != nil {
		return QuickStats{}, err
	}
	if cacheErr := e.writeResearcherStats(ctx, id, r.CollaborationMetrics); cacheErr != nil {
		logger.Warn("Failed to repopulate stats hash", "id", id, "err", cacheErr)
	}
	return QuickStats{
		PublicationsCount:  r.CollaborationMetrics.TotalPublications,
		HIndex:             r.CollaborationMetrics.HIndex,
		CollaborationScore: r.CollaborationMetrics.CollaborationScore,
		CacheStatus:        "miss",
	}, nil
}

func (e *Engine) cacheResearcherBody(ctx context.Context, id string, doc bson.M) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode cache body %s: %w", id, err)
	}
	return e.stores.Cache.SetWithTTL(ctx, store.ProfileKey(id), string(body), profileTTL)
}

func (e *Engine) writeResearcherStats(ctx context.Context, id string, m model.CollaborationMetrics) error {
	return e.stores.Cache.SetHashWithTTL(ctx, store.StatsKey(id), map[string]string{
		"publications_count":  strconv.Itoa(m.TotalPublications),
		"h_index":             strconv.Itoa(m.HIndex),
		"collaboration_score": strconv.FormatFloat(m.CollaborationScore, 'f', -1, 64),
	}, statsTTL)
}

// graphMirrorProps maps document field updates onto graph node properties.
// Fields outside the known mirrored set are silently not mirrored. Nested
// sub-documents and dot-path keys are both understood.
func graphMirrorProps(fields map[string]any) map[string]any {
	props := map[string]any{}

	first, hasFirst := lookupField(fields, "personal_info", "first_name")
	last, hasLast := lookupField(fields, "personal_info", "last_name")
	if hasFirst && hasLast {
		props["name"] = fmt.Sprintf("%v %v", first, last)
	}
	if email, ok := lookupField(fields, "personal_info", "email"); ok {
		props["email"] = email
	}
	if department, ok := lookupField(fields, "academic_profile", "department_id"); ok {
		props["department"] = department
	}
	if position, ok := lookupField(fields, "academic_profile", "position"); ok {
		props["position"] = position
	}
	if hIndex, ok := lookupField(fields, "collaboration_metrics", "h_index"); ok {
		props["h_index"] = hIndex
	}
	if pubs, ok := lookupField(fields, "collaboration_metrics", "total_publications"); ok {
		props["publication_count"] = pubs
	}
	return props
}

// statsFields extracts the fast-access statistics values touched by an
// update, keyed by their cache hash field names.
func statsFields(fields map[string]any) map[string]string {
	stats := map[string]string{}
	if pubs, ok := lookupField(fields, "collaboration_metrics", "total_publications"); ok {
		stats["publications_count"] = fmt.Sprintf("%v", pubs)
	}
	if hIndex, ok := lookupField(fields, "collaboration_metrics", "h_index"); ok {
		stats["h_index"] = fmt.Sprintf("%v", hIndex)
	}
	if score, ok := lookupField(fields, "collaboration_metrics", "collaboration_score"); ok {
		stats["collaboration_score"] = fmt.Sprintf("%v", score)
	}
	return stats
}

// lookupField finds parent.child whether it was supplied as a dot-path key
// or nested inside a sub-document value.
func lookupField(fields map[string]any, parent, child string) (any, bool) {
	if value, ok := fields[parent+"."+child]; ok {
		return value, true
	}
	sub, ok := fields[parent]
	if !ok {
		return nil, false
	}
	switch m := sub.(type) {
	case map[string]any:
		value, ok := m[child]
		return value, ok
	case bson.M:
		value, ok := m[child]
		return value, ok
	}
	return nil, false
}

func researcherNodeProps(r model.Researcher) map[string]any {
	return map[string]any{
		"id":                r.ID,
		"name":              r.FullName(),
		"email":             r.PersonalInfo.Email,
		"department":        r.AcademicProfile.DepartmentID,
		"position":          r.AcademicProfile.Position,
		"h_index":           r.CollaborationMetrics.HIndex,
		"publication_count": r.CollaborationMetrics.TotalPublications,
		"orcid_id":          r.PersonalInfo.OrcidID,
	}
}
