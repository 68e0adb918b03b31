package engine

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/atlas-collab/atlas/backend/internal/model"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// Projects live only in the document store. Participant references are not
// validated against the researchers collection; they resolve at read time.

func (e *Engine) CreateProject(ctx context.Context, p model.Project) (string, error) {
	if p.Status == "" {
		p.Status = model.ProjectStatusPlanned
	}
	if !model.ValidProjectStatus(p.Status) {
		return "", fmt.Errorf("invalid project status %q", p.Status)
	}

	doc, err := model.ToDoc(p)
	if err != nil {
		return "", fmt.Errorf("encode project: %w", err)
	}
	now := time.Now().UTC()
	doc["metadata"] = bson.M{"created_at": now, "last_updated": now}

	id, err := e.stores.Documents.Insert(ctx, model.CollectionProjects, doc)
	if err != nil {
		return "", fmt.Errorf("create project: %w", err)
	}
	logger.Info("Created project", "id", id, "status", p.Status)
	return id, nil
}

func (e *Engine) GetProject(ctx context.Context, id string) (model.Project, error) {
	doc, err := e.stores.Documents.Get(ctx, model.CollectionProjects, id)
	if err != nil {
		return model.Project{}, err
	}
	var p model.Project
	if err := model.FromDoc(doc, &p); err != nil {
		return model.Project{}, fmt.Errorf("decode project %s: %w", id, err)
	}
	return p, nil
}

func (e *Engine) UpdateProject(ctx context.Context, id string, fields map[string]any) (bool, error) {
	if status, ok := fields["status"]; ok {
		s, _ := status.(string)
		if !model.ValidProjectStatus(s) {
			return false, fmt.Errorf("invalid project status %q", s)
		}
	}

	set := bson.M{}
	for path, value := range fields {
		set[path] = value
	}
	set["metadata.last_updated"] = time.Now().UTC()

	updated, err := e.stores.Documents.Update(ctx, model.CollectionProjects, id, set)
	if err != nil {
		return false, fmt.Errorf("update project %s: %w", id, err)
	}
	return updated, nil
}

func (e *Engine) DeleteProject(ctx context.Context, id string) (bool, error) {
	deleted, err := e.stores.Documents.Delete(ctx, model.CollectionProjects, id)
	if err != nil {
		return false, fmt.Errorf("delete project %s: %w", id, err)
	}
	return deleted, nil
}

// ListProjects filters by status and/or participant, in any role.
func (e *Engine) ListProjects(ctx context.Context, status, researcherID string, limit int64) ([]model.Project, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if researcherID != "" {
		filter["$or"] = []bson.M{
			{"participants.principal_investigators.researcher_id": researcherID},
			{"participants.co_investigators.researcher_id": researcherID},
			{"participants.research_assistants.researcher_id": researcherID},
		}
	}

	docs, err := e.stores.Documents.Search(ctx, model.CollectionProjects, filter, limit)
	if err != nil {
		return nil, err
	}
	projects := make([]model.Project, 0, len(docs))
	for _, doc := range docs {
		var p model.Project
		if err := model.FromDoc(doc, &p); err != nil {
			logger.Warn("Skipping undecodable project", "err", err)
			continue
		}
		projects = append(projects, p)
	}
	return projects, nil
}
