package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// ErrNotFound is returned when the primary record for an identifier is absent.
var ErrNotFound = errors.New("record not found")

// DocumentStore is the source of truth for all entities. Identifiers are
// opaque strings; implementations must tolerate legacy 24-hex object ids.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (bson.M, error)
	Search(ctx context.Context, collection string, filter bson.M, limit int64) ([]bson.M, error)
	Insert(ctx context.Context, collection string, doc bson.M) (string, error)
	Update(ctx context.Context, collection, id string, fields bson.M) (bool, error)
	Delete(ctx context.Context, collection, id string) (bool, error)
	Count(ctx context.Context, collection string, filter bson.M) (int64, error)
}

// Neighbor is a node reached by a traversal, with its path distance.
type Neighbor struct {
	Props    map[string]any `json:"props"`
	Distance int            `json:"distance"`
}

// Relationship is one edge incident to a researcher node.
type Relationship struct {
	Type      string         `json:"type"`
	OtherID   string         `json:"other_id"`
	OtherName string         `json:"other_name"`
	Outgoing  bool           `json:"is_outgoing"`
	Props     map[string]any `json:"properties"`
}

// CollaborationPair is one deduplicated edge between two known researchers.
type CollaborationPair struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Strength int64  `json:"strength"`
}

type ConnectedResearcher struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Connections int64  `json:"connections"`
}

type GraphStats struct {
	TotalResearchers               int64                 `json:"total_researchers"`
	TotalCollaborations            int64                 `json:"total_collaborations"`
	TotalSupervisions              int64                 `json:"total_supervisions"`
	TotalMentorships               int64                 `json:"total_mentorships"`
	AvgCollaborationsPerResearcher float64               `json:"avg_collaborations_per_researcher"`
	MostConnected                  []ConnectedResearcher `json:"most_connected"`
}

// GraphStore mirrors researcher nodes and owns the relationship network.
// Deleting a node cascades to all incident edges.
type GraphStore interface {
	UpsertNode(ctx context.Context, id string, props map[string]any) error
	SetNodeProps(ctx context.Context, id string, props map[string]any) error
	DeleteNode(ctx context.Context, id string) error
	// IncrementEdge upserts an undirected CO_AUTHORED_WITH edge, setting
	// strength to 1 on create and incrementing it on match, atomically.
	IncrementEdge(ctx context.Context, id1, id2 string) error
	UpsertEdge(ctx context.Context, id1, id2, relType string, props map[string]any) error
	RemoveEdge(ctx context.Context, id1, id2, relType string) error
	// Traverse returns neighbors within maxDepth hops over relType edges,
	// ordered by distance ascending then h_index descending, capped at limit.
	Traverse(ctx context.Context, id, relType string, maxDepth, limit int) ([]Neighbor, error)
	// Chain walks directed relType edges up to maxDepth hops. With reverse
	// set it follows incoming edges (ancestors) instead of outgoing ones.
	Chain(ctx context.Context, id, relType string, maxDepth int, reverse bool) ([]Neighbor, error)
	Relationships(ctx context.Context, id string) ([]Relationship, error)
	PairsAmong(ctx context.Context, ids []string, relType string, limit int) ([]CollaborationPair, error)
	Stats(ctx context.Context) (GraphStats, error)
}

type CacheStats struct {
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	Keys       int64   `json:"keys"`
	UsedMemory string  `json:"used_memory"`
}

// CacheStore is a pure acceleration layer with per-key expiry.
// No cross-key transactions; all operations are fire-and-forget.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	SetHashWithTTL(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	GetHash(ctx context.Context, key string) (map[string]string, error)
	Stats(ctx context.Context) (CacheStats, error)
}

type PublicationMetricsRow struct {
	PublicationID      string    `json:"publication_id"`
	MetricDate         time.Time `json:"metric_date"`
	CitationCount      int       `json:"citation_count"`
	DownloadCount      int       `json:"download_count"`
	ViewCount          int       `json:"view_count"`
	HIndexContribution int       `json:"h_index_contribution"`
}

type DepartmentRollup struct {
	DepartmentID      string    `json:"department_id"`
	AnalyticsDate     time.Time `json:"analytics_date"`
	ActiveResearchers int       `json:"active_researchers"`
	TotalPublications int       `json:"total_publications"`
	TotalCitations    int64     `json:"total_citations"`
	AvgHIndex         float64   `json:"avg_h_index"`
	CollaborationRate float64   `json:"collaboration_rate"`
	ProjectCount      int       `json:"project_count"`
	FundingTotal      float64   `json:"funding_total"`
}

// AnalyticsStore holds out-of-band time-series rollups. It is a soft
// dependency: unavailability must never block any other operation.
type AnalyticsStore interface {
	Available() bool
	InsertPublicationMetrics(ctx context.Context, row PublicationMetricsRow) error
	InsertDepartmentRollup(ctx context.Context, row DepartmentRollup) error
	DepartmentAnalytics(ctx context.Context, departmentID string, days int) ([]DepartmentRollup, error)
}

// Config carries the connection settings for all four stores.
type Config struct {
	MongoURI      string
	MongoDatabase string

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	RedisURL string

	CassandraHosts    []string
	CassandraPort     int
	CassandraKeyspace string
}

// Stores is the store handle bundle. It is constructed once at process start
// and shared read-only by concurrent requests.
type Stores struct {
	Documents DocumentStore
	Graph     GraphStore
	Cache     CacheStore
	Analytics AnalyticsStore

	closers []func(ctx context.Context) error
}

// Connect establishes all store connections. Document, graph, and cache
// failures are fatal; an analytics failure only disables that store.
func Connect(ctx context.Context, cfg Config) (*Stores, error) {
	s := &Stores{}

	documents, err := newMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.Documents = documents
	s.closers = append(s.closers, documents.close)
	logger.Info("Document store connected", "database", cfg.MongoDatabase)

	graph, err := newNeo4jStore(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.Graph = graph
	s.closers = append(s.closers, graph.close)
	logger.Info("Graph store connected", "uri", cfg.Neo4jURI)

	cache, err := newRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.Cache = cache
	s.closers = append(s.closers, cache.close)
	logger.Info("Cache store connected")

	analytics, err := newCassandraStore(ctx, cfg.CassandraHosts, cfg.CassandraPort, cfg.CassandraKeyspace)
	if err != nil {
		logger.Warn("Analytics store unavailable, continuing without it", "err", err)
		s.Analytics = disabledAnalytics{}
	} else {
		s.Analytics = analytics
		s.closers = append(s.closers, analytics.close)
		logger.Info("Analytics store connected", "keyspace", cfg.CassandraKeyspace)
	}

	return s, nil
}

// Close shuts down every connected store, logging failures.
func (s *Stores) Close(ctx context.Context) {
	for _, close := range s.closers {
		if err := close(ctx); err != nil {
			logger.Error("Failed to close store connection", "err", err)
		}
	}
	s.closers = nil
}
