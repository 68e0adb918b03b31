package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/atlas-collab/atlas/backend/internal/store"
)

// The fakes below implement the store interfaces in memory so engine
// behavior can be exercised without live backends. The document fake
// evaluates the filter operators the engine actually builds.

func newFakeStores() *store.Stores {
	return &store.Stores{
		Documents: newFakeDocs(),
		Graph:     newFakeGraph(),
		Cache:     newFakeCache(),
		Analytics: newFakeAnalytics(),
	}
}

type fakeDocs struct {
	collections map[string]map[string]bson.M
	nextID      int
	failAll     bool
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{collections: map[string]map[string]bson.M{}}
}

func (f *fakeDocs) collection(name string) map[string]bson.M {
	if f.collections[name] == nil {
		f.collections[name] = map[string]bson.M{}
	}
	return f.collections[name]
}

func (f *fakeDocs) Get(_ context.Context, collection, id string) (bson.M, error) {
	if f.failAll {
		return nil, fmt.Errorf("document store down")
	}
	doc, ok := f.collection(collection)[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneDoc(doc), nil
}

func (f *fakeDocs) Search(_ context.Context, collection string, filter bson.M, limit int64) ([]bson.M, error) {
	if f.failAll {
		return nil, fmt.Errorf("document store down")
	}
	ids := make([]string, 0)
	for id := range f.collection(collection) {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]bson.M, 0)
	for _, id := range ids {
		doc := f.collection(collection)[id]
		if matchFilter(doc, filter) {
			results = append(results, cloneDoc(doc))
			if limit > 0 && int64(len(results)) >= limit {
				break
			}
		}
	}
	return results, nil
}

func (f *fakeDocs) Insert(_ context.Context, collection string, doc bson.M) (string, error) {
	if f.failAll {
		return "", fmt.Errorf("document store down")
	}
	id, ok := doc["_id"].(string)
	if !ok || id == "" {
		f.nextID++
		id = fmt.Sprintf("id-%04d", f.nextID)
	}
	stored := cloneDoc(doc)
	stored["_id"] = id
	f.collection(collection)[id] = stored
	return id, nil
}

func (f *fakeDocs) Update(_ context.Context, collection, id string, fields bson.M) (bool, error) {
	if f.failAll {
		return false, fmt.Errorf("document store down")
	}
	doc, ok := f.collection(collection)[id]
	if !ok {
		return false, nil
	}
	for path, value := range fields {
		setPath(doc, path, value)
	}
	return true, nil
}

func (f *fakeDocs) Delete(_ context.Context, collection, id string) (bool, error) {
	if f.failAll {
		return false, fmt.Errorf("document store down")
	}
	if _, ok := f.collection(collection)[id]; !ok {
		return false, nil
	}
	delete(f.collection(collection), id)
	return true, nil
}

func (f *fakeDocs) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	docs, err := f.Search(ctx, collection, filter, 0)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func cloneDoc(doc bson.M) bson.M {
	raw, err := bson.Marshal(doc)
	if err != nil {
		panic(err)
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

// matchFilter evaluates the operator subset the engine builds: equality,
// $regex/$options, $in, $gte, $lte, $or, $and, and dot paths that descend
// through arrays of sub-documents.
func matchFilter(doc bson.M, filter bson.M) bool {
	for key, condition := range filter {
		switch key {
		case "$or":
			if !matchAny(doc, toFilterList(condition)) {
				return false
			}
		case "$and":
			for _, sub := range toFilterList(condition) {
				if !matchFilter(doc, sub) {
					return false
				}
			}
		default:
			if !matchField(doc, key, condition) {
				return false
			}
		}
	}
	return true
}

func matchAny(doc bson.M, filters []bson.M) bool {
	for _, sub := range filters {
		if matchFilter(doc, sub) {
			return true
		}
	}
	return false
}

func toFilterList(condition any) []bson.M {
	switch list := condition.(type) {
	case []bson.M:
		return list
	case bson.A:
		filters := make([]bson.M, 0, len(list))
		for _, item := range list {
			if m, ok := item.(bson.M); ok {
				filters = append(filters, m)
			}
		}
		return filters
	}
	return nil
}

func matchField(doc bson.M, path string, condition any) bool {
	values := lookupPath(doc, strings.Split(path, "."))

	ops, isOps := condition.(bson.M)
	if !isOps {
		for _, value := range values {
			if looseEqual(value, condition) {
				return true
			}
		}
		return false
	}

	for op, operand := range ops {
		if !matchOp(values, op, operand) {
			return false
		}
	}
	return true
}

func matchOp(values []any, op string, operand any) bool {
	switch op {
	case "$regex":
		pattern, _ := operand.(string)
		re := regexp.MustCompile("(?i)" + pattern)
		for _, value := range values {
			if s, ok := value.(string); ok && re.MatchString(s) {
				return true
			}
		}
		return false
	case "$options":
		return true
	case "$in":
		for _, candidate := range toValueList(operand) {
			for _, value := range values {
				if looseEqual(value, candidate) {
					return true
				}
			}
		}
		return false
	case "$gte":
		for _, value := range values {
			if looseCompare(value, operand) >= 0 {
				return true
			}
		}
		return false
	case "$lte":
		for _, value := range values {
			if looseCompare(value, operand) <= 0 {
				return true
			}
		}
		return false
	}
	return false
}

func toValueList(operand any) []any {
	switch list := operand.(type) {
	case []any:
		return list
	case bson.A:
		return []any(list)
	case []string:
		values := make([]any, 0, len(list))
		for _, s := range list {
			values = append(values, s)
		}
		return values
	}
	return nil
}

// lookupPath collects every value at the path, fanning out through arrays.
func lookupPath(value any, path []string) []any {
	if len(path) == 0 {
		return []any{value}
	}
	switch v := value.(type) {
	case bson.M:
		child, ok := v[path[0]]
		if !ok {
			return nil
		}
		return lookupPath(child, path[1:])
	case map[string]any:
		child, ok := v[path[0]]
		if !ok {
			return nil
		}
		return lookupPath(child, path[1:])
	case bson.A:
		var out []any
		for _, item := range v {
			out = append(out, lookupPath(item, path)...)
		}
		return out
	case []any:
		var out []any
		for _, item := range v {
			out = append(out, lookupPath(item, path)...)
		}
		return out
	}
	return nil
}

func setPath(doc bson.M, path string, value any) {
	parts := strings.Split(path, ".")
	current := doc
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(bson.M)
		if !ok {
			next = bson.M{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func looseEqual(a, b any) bool {
	if fa, aok := asFloat(a); aok {
		if fb, bok := asFloat(b); bok {
			return fa == fb
		}
	}
	return a == b
}

// looseCompare returns -1, 0, or 1 for numerics and strings; incomparable
// values compare as less.
func looseCompare(a, b any) int {
	if fa, aok := asFloat(a); aok {
		if fb, bok := asFloat(b); bok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		return strings.Compare(sa, sb)
	}
	return -1
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

type fakeEdge struct {
	a, b     string
	relType  string
	strength int64
	directed bool
	props    map[string]any
}

type fakeGraph struct {
	nodes map[string]map[string]any
	edges []*fakeEdge
	fail  bool
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{nodes: map[string]map[string]any{}}
}

func (f *fakeGraph) UpsertNode(_ context.Context, id string, props map[string]any) error {
	if f.fail {
		return fmt.Errorf("graph store down")
	}
	if f.nodes[id] == nil {
		f.nodes[id] = map[string]any{}
	}
	for key, value := range props {
		f.nodes[id][key] = value
	}
	return nil
}

func (f *fakeGraph) SetNodeProps(ctx context.Context, id string, props map[string]any) error {
	if f.fail {
		return fmt.Errorf("graph store down")
	}
	if f.nodes[id] == nil {
		return nil
	}
	return f.UpsertNode(ctx, id, props)
}

func (f *fakeGraph) DeleteNode(_ context.Context, id string) error {
	if f.fail {
		return fmt.Errorf("graph store down")
	}
	delete(f.nodes, id)
	kept := f.edges[:0]
	for _, edge := range f.edges {
		if edge.a != id && edge.b != id {
			kept = append(kept, edge)
		}
	}
	f.edges = kept
	return nil
}

func (f *fakeGraph) findEdge(id1, id2, relType string, directed bool) *fakeEdge {
	for _, edge := range f.edges {
		if edge.relType != relType {
			continue
		}
		if edge.a == id1 && edge.b == id2 {
			return edge
		}
		if !directed && edge.a == id2 && edge.b == id1 {
			return edge
		}
	}
	return nil
}

func (f *fakeGraph) IncrementEdge(ctx context.Context, id1, id2 string) error {
	if f.fail {
		return fmt.Errorf("graph store down")
	}
	_ = f.UpsertNode(ctx, id1, nil)
	_ = f.UpsertNode(ctx, id2, nil)
	if edge := f.findEdge(id1, id2, store.RelCoAuthored, false); edge != nil {
		edge.strength++
		return nil
	}
	f.edges = append(f.edges, &fakeEdge{
		a: id1, b: id2, relType: store.RelCoAuthored, strength: 1,
	})
	return nil
}

func (f *fakeGraph) UpsertEdge(_ context.Context, id1, id2, relType string, props map[string]any) error {
	if f.fail {
		return fmt.Errorf("graph store down")
	}
	if edge := f.findEdge(id1, id2, relType, true); edge != nil {
		for key, value := range props {
			edge.props[key] = value
		}
		return nil
	}
	if props == nil {
		props = map[string]any{}
	}
	f.edges = append(f.edges, &fakeEdge{
		a: id1, b: id2, relType: relType, directed: true, props: props,
	})
	return nil
}

func (f *fakeGraph) RemoveEdge(_ context.Context, id1, id2, relType string) error {
	if f.fail {
		return fmt.Errorf("graph store down")
	}
	kept := f.edges[:0]
	for _, edge := range f.edges {
		same := edge.relType == relType &&
			((edge.a == id1 && edge.b == id2) || (edge.a == id2 && edge.b == id1))
		if !same {
			kept = append(kept, edge)
		}
	}
	f.edges = kept
	return nil
}

func (f *fakeGraph) neighbors(id, relType string) []string {
	var out []string
	for _, edge := range f.edges {
		if edge.relType != relType {
			continue
		}
		if edge.a == id {
			out = append(out, edge.b)
		} else if edge.b == id {
			out = append(out, edge.a)
		}
	}
	return out
}

func (f *fakeGraph) Traverse(_ context.Context, id, relType string, maxDepth, limit int) ([]store.Neighbor, error) {
	if f.fail {
		return nil, fmt.Errorf("graph store down")
	}
	distances := map[string]int{id: 0}
	frontier := []string{id}
	for depth := 1; depth <= maxDepth; depth++ {
		var next []string
		for _, current := range frontier {
			for _, other := range f.neighbors(current, relType) {
				if _, seen := distances[other]; !seen {
					distances[other] = depth
					next = append(next, other)
				}
			}
		}
		frontier = next
	}

	result := make([]store.Neighbor, 0)
	for other, distance := range distances {
		if other == id {
			continue
		}
		props := map[string]any{"id": other}
		for key, value := range f.nodes[other] {
			props[key] = value
		}
		result = append(result, store.Neighbor{Props: props, Distance: distance})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Distance != result[j].Distance {
			return result[i].Distance < result[j].Distance
		}
		idI, _ := result[i].Props["id"].(string)
		idJ, _ := result[j].Props["id"].(string)
		return idI < idJ
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *fakeGraph) Chain(_ context.Context, id, relType string, maxDepth int, reverse bool) ([]store.Neighbor, error) {
	if f.fail {
		return nil, fmt.Errorf("graph store down")
	}
	step := func(from string) []string {
		var out []string
		for _, edge := range f.edges {
			if edge.relType != relType {
				continue
			}
			if !reverse && edge.a == from {
				out = append(out, edge.b)
			}
			if reverse && edge.b == from {
				out = append(out, edge.a)
			}
		}
		return out
	}

	var chain []store.Neighbor
	visited := map[string]bool{id: true}
	frontier := []string{id}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, current := range frontier {
			for _, other := range step(current) {
				if visited[other] {
					continue
				}
				visited[other] = true
				props := map[string]any{"id": other}
				for key, value := range f.nodes[other] {
					props[key] = value
				}
				chain = append(chain, store.Neighbor{Props: props, Distance: depth})
				next = append(next, other)
			}
		}
		frontier = next
	}
	return chain, nil
}

func (f *fakeGraph) Relationships(_ context.Context, id string) ([]store.Relationship, error) {
	if f.fail {
		return nil, fmt.Errorf("graph store down")
	}
	rels := make([]store.Relationship, 0)
	for _, edge := range f.edges {
		var otherID string
		var outgoing bool
		switch {
		case edge.a == id:
			otherID, outgoing = edge.b, true
		case edge.b == id:
			otherID, outgoing = edge.a, false
		default:
			continue
		}
		props := edge.props
		if props == nil {
			props = map[string]any{"strength": edge.strength}
		}
		name, _ := f.nodes[otherID]["name"].(string)
		rels = append(rels, store.Relationship{
			Type:      edge.relType,
			OtherID:   otherID,
			OtherName: name,
			Outgoing:  outgoing,
			Props:     props,
		})
	}
	return rels, nil
}

func (f *fakeGraph) PairsAmong(_ context.Context, ids []string, relType string, limit int) ([]store.CollaborationPair, error) {
	if f.fail {
		return nil, fmt.Errorf("graph store down")
	}
	known := map[string]bool{}
	for _, id := range ids {
		known[id] = true
	}
	pairs := make([]store.CollaborationPair, 0)
	for _, edge := range f.edges {
		if edge.relType != relType || !known[edge.a] || !known[edge.b] {
			continue
		}
		pairs = append(pairs, store.CollaborationPair{
			SourceID: edge.a, TargetID: edge.b, Strength: edge.strength,
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Strength > pairs[j].Strength })
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs, nil
}

func (f *fakeGraph) Stats(_ context.Context) (store.GraphStats, error) {
	if f.fail {
		return store.GraphStats{}, fmt.Errorf("graph store down")
	}
	stats := store.GraphStats{TotalResearchers: int64(len(f.nodes))}
	for _, edge := range f.edges {
		switch edge.relType {
		case store.RelCoAuthored:
			stats.TotalCollaborations++
		case store.RelSupervises:
			stats.TotalSupervisions++
		case store.RelMentors:
			stats.TotalMentorships++
		}
	}
	return stats, nil
}

type fakeCache struct {
	entries map[string]string
	hashes  map[string]map[string]string
	fail    bool

	gets, sets, deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: map[string]string{},
		hashes:  map[string]map[string]string{},
	}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	if f.fail {
		return "", fmt.Errorf("cache store down")
	}
	f.gets++
	value, ok := f.entries[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

func (f *fakeCache) SetWithTTL(_ context.Context, key, value string, _ time.Duration) error {
	if f.fail {
		return fmt.Errorf("cache store down")
	}
	f.sets++
	f.entries[key] = value
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	if f.fail {
		return fmt.Errorf("cache store down")
	}
	f.deletes++
	for _, key := range keys {
		delete(f.entries, key)
		delete(f.hashes, key)
	}
	return nil
}

func (f *fakeCache) SetHashWithTTL(_ context.Context, key string, fields map[string]string, _ time.Duration) error {
	if f.fail {
		return fmt.Errorf("cache store down")
	}
	if f.hashes[key] == nil {
		f.hashes[key] = map[string]string{}
	}
	for field, value := range fields {
		f.hashes[key][field] = value
	}
	return nil
}

func (f *fakeCache) GetHash(_ context.Context, key string) (map[string]string, error) {
	if f.fail {
		return nil, fmt.Errorf("cache store down")
	}
	fields, ok := f.hashes[key]
	if !ok || len(fields) == 0 {
		return nil, store.ErrNotFound
	}
	return fields, nil
}

func (f *fakeCache) Stats(_ context.Context) (store.CacheStats, error) {
	if f.fail {
		return store.CacheStats{}, fmt.Errorf("cache store down")
	}
	return store.CacheStats{Keys: int64(len(f.entries) + len(f.hashes))}, nil
}

type fakeAnalytics struct {
	metrics []store.PublicationMetricsRow
	rollups []store.DepartmentRollup
}

func newFakeAnalytics() *fakeAnalytics { return &fakeAnalytics{} }

func (f *fakeAnalytics) Available() bool { return true }

func (f *fakeAnalytics) InsertPublicationMetrics(_ context.Context, row store.PublicationMetricsRow) error {
	f.metrics = append(f.metrics, row)
	return nil
}

func (f *fakeAnalytics) InsertDepartmentRollup(_ context.Context, row store.DepartmentRollup) error {
	f.rollups = append(f.rollups, row)
	return nil
}

func (f *fakeAnalytics) DepartmentAnalytics(_ context.Context, departmentID string, _ int) ([]store.DepartmentRollup, error) {
	rows := make([]store.DepartmentRollup, 0)
	for _, row := range f.rollups {
		if row.DepartmentID == departmentID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
