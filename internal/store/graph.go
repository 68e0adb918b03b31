package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Relationship types known to the graph store.
const (
	RelCoAuthored = "CO_AUTHORED_WITH"
	RelSupervises = "SUPERVISES"
	RelMentors    = "MENTORS"
)

// neo4jStore implements GraphStore on Neo4j.
type neo4jStore struct {
	driver neo4j.DriverWithContext
}

func newNeo4jStore(ctx context.Context, uri, user, password string) (*neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &neo4jStore{driver: driver}, nil
}

func (n *neo4jStore) close(ctx context.Context) error {
	return n.driver.Close(ctx)
}

func (n *neo4jStore) run(ctx context.Context, cypher string, params map[string]any) (*neo4j.EagerResult, error) {
	return neo4j.ExecuteQuery(ctx, n.driver, cypher, params, neo4j.EagerResultTransformer)
}

func (n *neo4jStore) UpsertNode(ctx context.Context, id string, props map[string]any) error {
	_, err := n.run(ctx, `
		MERGE (r:Researcher {id: $id})
		SET r += $props
	`, map[string]any{"id": id, "props": props})
	if err != nil {
		return fmt.Errorf("upsert node %s: %w", id, err)
	}
	return nil
}

func (n *neo4jStore) SetNodeProps(ctx context.Context, id string, props map[string]any) error {
	if len(props) == 0 {
		return nil
	}
	_, err := n.run(ctx, `
		MATCH (r:Researcher {id: $id})
		SET r += $props
	`, map[string]any{"id": id, "props": props})
	if err != nil {
		return fmt.Errorf("set node props %s: %w", id, err)
	}
	return nil
}

func (n *neo4jStore) DeleteNode(ctx context.Context, id string) error {
	_, err := n.run(ctx, `
		MATCH (r:Researcher {id: $id})
		DETACH DELETE r
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete node %s: %w", id, err)
	}
	return nil
}

func (n *neo4jStore) IncrementEdge(ctx context.Context, id1, id2 string) error {
	// MERGE both endpoints first so a collaboration can be recorded before
	// the node mirror catches up. The upsert-and-increment runs in a single
	// statement; concurrency is the graph engine's problem, not ours.
	_, err := n.run(ctx, `
		MERGE (r1:Researcher {id: $id1})
		MERGE (r2:Researcher {id: $id2})
		WITH r1, r2
		MERGE (r1)-[c:CO_AUTHORED_WITH]-(r2)
		ON CREATE SET c.strength = 1
		ON MATCH SET c.strength = c.strength + 1
		RETURN c
	`, map[string]any{"id1": id1, "id2": id2})
	if err != nil {
		return fmt.Errorf("increment edge %s-%s: %w", id1, id2, err)
	}
	return nil
}

func (n *neo4jStore) UpsertEdge(ctx context.Context, id1, id2, relType string, props map[string]any) error {
	if err := validRelType(relType); err != nil {
		return err
	}
	if props == nil {
		props = map[string]any{}
	}
	_, err := n.run(ctx, fmt.Sprintf(`
		MATCH (r1:Researcher {id: $id1})
		MATCH (r2:Researcher {id: $id2})
		MERGE (r1)-[rel:%s]->(r2)
		SET rel += $props
		RETURN rel
	`, relType), map[string]any{"id1": id1, "id2": id2, "props": props})
	if err != nil {
		return fmt.Errorf("upsert %s edge %s->%s: %w", relType, id1, id2, err)
	}
	return nil
}

func (n *neo4jStore) RemoveEdge(ctx context.Context, id1, id2, relType string) error {
	if err := validRelType(relType); err != nil {
		return err
	}
	_, err := n.run(ctx, fmt.Sprintf(`
		MATCH (r1:Researcher {id: $id1})-[c:%s]-(r2:Researcher {id: $id2})
		DELETE c
	`, relType), map[string]any{"id1": id1, "id2": id2})
	if err != nil {
		return fmt.Errorf("remove %s edge %s-%s: %w", relType, id1, id2, err)
	}
	return nil
}

func (n *neo4jStore) Traverse(ctx context.Context, id, relType string, maxDepth, limit int) ([]Neighbor, error) {
	if err := validRelType(relType); err != nil {
		return nil, err
	}
	if maxDepth < 1 {
		maxDepth = 1
	}
	if limit < 1 {
		limit = 20
	}
	result, err := n.run(ctx, fmt.Sprintf(`
		MATCH (r:Researcher {id: $id})
		MATCH path = (r)-[:%s*1..%d]-(other)
		RETURN DISTINCT other, length(path) AS distance
		ORDER BY distance, other.h_index DESC
		LIMIT %d
	`, relType, maxDepth, limit), map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("traverse %s from %s: %w", relType, id, err)
	}

	neighbors := make([]Neighbor, 0, len(result.Records))
	for _, record := range result.Records {
		node, ok := recordNode(record, "other")
		if !ok {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			Props:    node.Props,
			Distance: int(recordInt(record, "distance")),
		})
	}
	return neighbors, nil
}

func (n *neo4jStore) Chain(ctx context.Context, id, relType string, maxDepth int, reverse bool) ([]Neighbor, error) {
	if err := validRelType(relType); err != nil {
		return nil, err
	}
	if maxDepth < 1 {
		maxDepth = 1
	}
	pattern := fmt.Sprintf("(r:Researcher {id: $id})-[:%s*1..%d]->(other)", relType, maxDepth)
	if reverse {
		pattern = fmt.Sprintf("(r:Researcher {id: $id})<-[:%s*1..%d]-(other)", relType, maxDepth)
	}
	result, err := n.run(ctx, fmt.Sprintf(`
		MATCH path = %s
		RETURN other, length(path) AS distance
		ORDER BY distance
	`, pattern), map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("chain %s from %s: %w", relType, id, err)
	}

	chain := make([]Neighbor, 0, len(result.Records))
	for _, record := range result.Records {
		node, ok := recordNode(record, "other")
		if !ok {
			continue
		}
		chain = append(chain, Neighbor{
			Props:    node.Props,
			Distance: int(recordInt(record, "distance")),
		})
	}
	return chain, nil
}

func (n *neo4jStore) Relationships(ctx context.Context, id string) ([]Relationship, error) {
	result, err := n.run(ctx, `
		MATCH (r:Researcher {id: $id})-[rel]-(other:Researcher)
		RETURN type(rel) AS rel_type,
		       other.id AS other_id,
		       other.name AS other_name,
		       startNode(rel).id = $id AS is_outgoing,
		       properties(rel) AS rel_props
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("relationships of %s: %w", id, err)
	}

	rels := make([]Relationship, 0, len(result.Records))
	for _, record := range result.Records {
		props, _ := recordValue(record, "rel_props").(map[string]any)
		if props == nil {
			props = map[string]any{}
		}
		outgoing, _ := recordValue(record, "is_outgoing").(bool)
		rels = append(rels, Relationship{
			Type:      recordString(record, "rel_type"),
			OtherID:   recordString(record, "other_id"),
			OtherName: recordString(record, "other_name"),
			Outgoing:  outgoing,
			Props:     props,
		})
	}
	return rels, nil
}

func (n *neo4jStore) PairsAmong(ctx context.Context, ids []string, relType string, limit int) ([]CollaborationPair, error) {
	if err := validRelType(relType); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 20
	}
	// elementId ordering keeps each undirected pair to a single record.
	result, err := n.run(ctx, fmt.Sprintf(`
		MATCH (r1:Researcher)-[c:%s]-(r2:Researcher)
		WHERE r1.id IN $ids AND r2.id IN $ids AND elementId(r1) < elementId(r2)
		RETURN r1.id AS source_id, r2.id AS target_id, c.strength AS strength
		ORDER BY c.strength DESC
		LIMIT %d
	`, relType, limit), map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("pairs among %d ids: %w", len(ids), err)
	}

	pairs := make([]CollaborationPair, 0, len(result.Records))
	for _, record := range result.Records {
		pairs = append(pairs, CollaborationPair{
			SourceID: recordString(record, "source_id"),
			TargetID: recordString(record, "target_id"),
			Strength: recordInt(record, "strength"),
		})
	}
	return pairs, nil
}

func (n *neo4jStore) Stats(ctx context.Context) (GraphStats, error) {
	var stats GraphStats

	counts := []struct {
		cypher string
		target *int64
	}{
		{"MATCH (r:Researcher) RETURN count(r) AS count", &stats.TotalResearchers},
		{"MATCH ()-[r:CO_AUTHORED_WITH]->() RETURN count(r) AS count", &stats.TotalCollaborations},
		{"MATCH ()-[r:SUPERVISES]->() RETURN count(r) AS count", &stats.TotalSupervisions},
		{"MATCH ()-[r:MENTORS]->() RETURN count(r) AS count", &stats.TotalMentorships},
	}
	for _, c := range counts {
		result, err := n.run(ctx, c.cypher, nil)
		if err != nil {
			return GraphStats{}, fmt.Errorf("graph stats: %w", err)
		}
		if len(result.Records) > 0 {
			*c.target = recordInt(result.Records[0], "count")
		}
	}

	result, err := n.run(ctx, `
		MATCH (r:Researcher)
		OPTIONAL MATCH (r)-[:CO_AUTHORED_WITH]-(other)
		WITH r, count(DISTINCT other) AS collab_count
		RETURN avg(collab_count) AS avg_collaborations
	`, nil)
	if err != nil {
		return GraphStats{}, fmt.Errorf("graph stats: %w", err)
	}
	if len(result.Records) > 0 {
		if avg, ok := recordValue(result.Records[0], "avg_collaborations").(float64); ok {
			stats.AvgCollaborationsPerResearcher = avg
		}
	}

	result, err = n.run(ctx, `
		MATCH (r:Researcher)-[:CO_AUTHORED_WITH]-(other)
		WITH r, count(DISTINCT other) AS connections
		RETURN r.id AS id, r.name AS name, connections
		ORDER BY connections DESC
		LIMIT 5
	`, nil)
	if err != nil {
		return GraphStats{}, fmt.Errorf("graph stats: %w", err)
	}
	for _, record := range result.Records {
		stats.MostConnected = append(stats.MostConnected, ConnectedResearcher{
			ID:          recordString(record, "id"),
			Name:        recordString(record, "name"),
			Connections: recordInt(record, "connections"),
		})
	}

	return stats, nil
}

// validRelType rejects relationship types that cannot be interpolated into
// Cypher safely. Parameters cannot carry relationship types.
func validRelType(relType string) error {
	if relType == "" {
		return fmt.Errorf("empty relationship type")
	}
	for i := 0; i < len(relType); i++ {
		c := relType[i]
		if (c < 'A' || c > 'Z') && c != '_' {
			return fmt.Errorf("invalid relationship type %q", relType)
		}
	}
	return nil
}

func recordValue(record *neo4j.Record, key string) any {
	value, _ := record.Get(key)
	return value
}

func recordNode(record *neo4j.Record, key string) (neo4j.Node, bool) {
	node, ok := recordValue(record, key).(neo4j.Node)
	return node, ok
}

func recordString(record *neo4j.Record, key string) string {
	s, _ := recordValue(record, key).(string)
	return s
}

func recordInt(record *neo4j.Record, key string) int64 {
	i, _ := recordValue(record, key).(int64)
	return i
}
