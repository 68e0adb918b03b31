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

const supervisionChainDepth = 5

// AddCollaboration records a relationship between two researchers in the
// graph store. Co-authorships are undirected and strength-counted; the
// directed types carry typed properties. Both researchers' cached profiles
// are invalidated because the network section changed.
func (e *Engine) AddCollaboration(ctx context.Context, sourceID, targetID, relType string, props map[string]any) error {
	if sourceID == targetID {
		return fmt.Errorf("cannot relate researcher %s to itself", sourceID)
	}

	var err error
	switch relType {
	case store.RelCoAuthored:
		err = e.stores.Graph.IncrementEdge(ctx, sourceID, targetID)
	case store.RelSupervises:
		err = e.stores.Graph.UpsertEdge(ctx, sourceID, targetID, relType,
			withDefaults(props, "supervision_type", "phd"))
	case store.RelMentors:
		err = e.stores.Graph.UpsertEdge(ctx, sourceID, targetID, relType,
			withDefaults(props, "mentorship_type", "research"))
	default:
		err = e.stores.Graph.UpsertEdge(ctx, sourceID, targetID, relType, props)
	}
	if err != nil {
		return err
	}

	e.invalidateProfiles(ctx, sourceID, targetID)
	logger.Info("Recorded collaboration", "source", sourceID, "target", targetID, "type", relType)
	return nil
}

// RemoveCollaboration deletes the relationship in either direction.
func (e *Engine) RemoveCollaboration(ctx context.Context, sourceID, targetID, relType string) error {
	if err := e.stores.Graph.RemoveEdge(ctx, sourceID, targetID, relType); err != nil {
		return err
	}
	e.invalidateProfiles(ctx, sourceID, targetID)
	return nil
}

// NamedPair is a deduplicated collaboration edge with researcher names
// resolved from the document store.
type NamedPair struct {
	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name"`
	TargetID   string `json:"target_id"`
	TargetName string `json:"target_name"`
	Strength   int64  `json:"strength"`
}

// CollaborationPairs lists co-authorship edges among known researchers,
// strongest first, keeping only pairs at or above minStrength. A non-empty
// department restricts the roster to that department. Researchers deleted
// since the edge was written resolve to "Unknown".
func (e *Engine) CollaborationPairs(ctx context.Context, department string, minStrength int64, limit int) ([]NamedPair, error) {
	roster := bson.M{}
	if department != "" {
		roster["academic_profile.department_id"] = department
	}
	docs, err := e.stores.Documents.Search(ctx, model.CollectionResearchers, roster, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	names := make(map[string]string, len(docs))
	for _, doc := range docs {
		var r model.Researcher
		if err := model.FromDoc(doc, &r); err != nil {
			continue
		}
		ids = append(ids, r.ID)
		names[r.ID] = r.FullName()
	}

	pairs, err := e.stores.Graph.PairsAmong(ctx, ids, store.RelCoAuthored, limit)
	if err != nil {
		return nil, err
	}

	named := make([]NamedPair, 0, len(pairs))
	for _, pair := range pairs {
		if pair.Strength < minStrength {
			continue
		}
		named = append(named, NamedPair{
			SourceID:   pair.SourceID,
			SourceName: nameOrUnknown(names, pair.SourceID),
			TargetID:   pair.TargetID,
			TargetName: nameOrUnknown(names, pair.TargetID),
			Strength:   pair.Strength,
		})
	}
	return named, nil
}

// SupervisionChain walks the SUPERVISES hierarchy from a researcher. With
// direction "up" it returns supervisors and their supervisors; anything
// else walks down to supervisees.
func (e *Engine) SupervisionChain(ctx context.Context, id, direction string) ([]store.Neighbor, error) {
	reverse := direction == "up"
	chain, err := e.stores.Graph.Chain(ctx, id, store.RelSupervises, supervisionChainDepth, reverse)
	if err != nil {
		return nil, err
	}
	return chain, nil
}

// RelationshipGroups buckets a researcher's edges by relationship type.
type RelationshipGroups struct {
	CoAuthors   []store.Relationship `json:"co_authors"`
	Supervision []store.Relationship `json:"supervision"`
	Mentorship  []store.Relationship `json:"mentorship"`
	Other       []store.Relationship `json:"other"`
}

// ResearcherRelationships lists every edge incident to the researcher,
// grouped by type.
func (e *Engine) ResearcherRelationships(ctx context.Context, id string) (RelationshipGroups, error) {
	rels, err := e.stores.Graph.Relationships(ctx, id)
	if err != nil {
		return RelationshipGroups{}, err
	}

	groups := RelationshipGroups{
		CoAuthors:   []store.Relationship{},
		Supervision: []store.Relationship{},
		Mentorship:  []store.Relationship{},
		Other:       []store.Relationship{},
	}
	for _, rel := range rels {
		switch rel.Type {
		case store.RelCoAuthored:
			groups.CoAuthors = append(groups.CoAuthors, rel)
		case store.RelSupervises:
			groups.Supervision = append(groups.Supervision, rel)
		case store.RelMentors:
			groups.Mentorship = append(groups.Mentorship, rel)
		default:
			groups.Other = append(groups.Other, rel)
		}
	}
	return groups, nil
}

func (e *Engine) invalidateProfiles(ctx context.Context, ids ...string) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, store.ProfileKey(id))
	}
	if err := e.stores.Cache.Delete(ctx, keys...); err != nil {
		logger.Warn("Failed to invalidate profile caches", "ids", ids, "err", err)
	}
}

func withDefaults(props map[string]any, typeKey, typeDefault string) map[string]any {
	merged := map[string]any{
		typeKey:      typeDefault,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range props {
		merged[key] = value
	}
	return merged
}

func nameOrUnknown(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return "Unknown"
}
