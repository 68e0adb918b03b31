package engine

import (
	"context"
	"time"

	"github.com/atlas-collab/atlas/backend/internal/store"
)

// Cache lifetimes and traversal bounds for profile reads.
const (
	profileTTL = 30 * time.Minute
	statsTTL   = time.Hour

	defaultNetworkDepth = 2
	defaultNetworkLimit = 20
)

// MetricsPublisher hands a publication metrics row to the out-of-band
// analytics pipeline. Implementations must not block on store availability.
type MetricsPublisher func(ctx context.Context, row store.PublicationMetricsRow) error

// Engine orchestrates entity operations across the store bundle. The
// document store is authoritative; graph and cache writes are best-effort
// and reported through MirrorStatus.
type Engine struct {
	stores  *store.Stores
	publish MetricsPublisher
}

func New(stores *store.Stores) *Engine {
	return &Engine{stores: stores}
}

// WithMetricsPublisher attaches the analytics event publisher. Without one,
// publication metrics events are dropped silently.
func (e *Engine) WithMetricsPublisher(publish MetricsPublisher) *Engine {
	e.publish = publish
	return e
}

// MirrorStatus records best-effort secondary-store outcomes for one
// comprehensive write. The primary document-store result is carried
// separately; a degraded mirror never fails the operation.
type MirrorStatus struct {
	GraphErr error `json:"-"`
	CacheErr error `json:"-"`
}

// Degraded reports whether any secondary store missed this write.
func (m MirrorStatus) Degraded() bool {
	return m.GraphErr != nil || m.CacheErr != nil
}

// DegradedStores names the stores that missed this write, for responses
// and assertions.
func (m MirrorStatus) DegradedStores() []string {
	stores := make([]string, 0, 2)
	if m.GraphErr != nil {
		stores = append(stores, "graph")
	}
	if m.CacheErr != nil {
		stores = append(stores, "cache")
	}
	return stores
}

// CreateResult is returned by comprehensive create operations.
type CreateResult struct {
	ID     string
	Mirror MirrorStatus
}

// UpdateResult is returned by comprehensive update operations. Updated
// reflects the document store only.
type UpdateResult struct {
	Updated bool
	Mirror  MirrorStatus
}

// DeleteResult is returned by comprehensive delete operations. Deleted
// reflects the document store only; deleting a missing id is a no-op.
type DeleteResult struct {
	Deleted bool
	Mirror  MirrorStatus
}
