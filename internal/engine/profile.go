package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/atlas-collab/atlas/backend/internal/metrics"
	"github.com/atlas-collab/atlas/backend/internal/model"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// Profile is the aggregated researcher view assembled from all stores.
// BasicInfo may come from the cache; the other sections are always fresh.
type Profile struct {
	BasicInfo            bson.M               `json:"basic_info"`
	CacheStatus          string               `json:"cache_status"`
	CollaborationNetwork []store.Neighbor     `json:"collaboration_network"`
	NetworkDepth         int                  `json:"network_depth"`
	RecentPublications   []ProfilePublication `json:"recent_publications"`
	Projects             []ProfileProject     `json:"projects"`
}

// ProfilePublication is a publication trimmed to what the profile shows,
// annotated with this researcher's authorship details.
type ProfilePublication struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Journal       string `json:"journal,omitempty"`
	Date          string `json:"publication_date,omitempty"`
	CitationCount int    `json:"citation_count"`
	AuthorOrder   int    `json:"author_order"`
	Contribution  string `json:"contribution,omitempty"`
}

// ProfileProject is a project trimmed to what the profile shows.
type ProfileProject struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// ProfileSummary totals the always-fresh sections.
type ProfileSummary struct {
	PublicationCount  int `json:"publication_count"`
	TotalCitations    int `json:"total_citations"`
	ActiveProjects    int `json:"active_projects"`
	CollaboratorCount int `json:"collaborator_count"`
}

// ResearcherProfile assembles the aggregated profile. Basic info is read
// cache-aside with lazy repopulation; network, publications, and projects
// are always read fresh and degrade to empty sections on store failure.
// A missing researcher is the only hard error.
func (e *Engine) ResearcherProfile(ctx context.Context, id string) (Profile, ProfileSummary, error) {
	profile := Profile{
		CollaborationNetwork: []store.Neighbor{},
		NetworkDepth:         defaultNetworkDepth,
		RecentPublications:   []ProfilePublication{},
		Projects:             []ProfileProject{},
	}

	basic, status, err := e.profileBasicInfo(ctx, id)
	if err != nil {
		return Profile{}, ProfileSummary{}, err
	}
	profile.BasicInfo = basic
	profile.CacheStatus = status

	network, err := e.stores.Graph.Traverse(ctx, id, store.RelCoAuthored, defaultNetworkDepth, defaultNetworkLimit)
	if err != nil {
		logger.Warn("Profile network section degraded", "id", id, "err", err)
	} else {
		profile.CollaborationNetwork = network
	}

	publications, citations, err := e.profilePublications(ctx, id)
	if err != nil {
		logger.Warn("Profile publications section degraded", "id", id, "err", err)
		citations = 0
	} else {
		profile.RecentPublications = publications
	}

	projects, err := e.profileProjects(ctx, id)
	if err != nil {
		logger.Warn("Profile projects section degraded", "id", id, "err", err)
	} else {
		profile.Projects = projects
	}

	active := 0
	for _, project := range profile.Projects {
		if project.Status == model.ProjectStatusActive {
			active++
		}
	}

	summary := ProfileSummary{
		PublicationCount:  len(profile.RecentPublications),
		TotalCitations:    citations,
		ActiveProjects:    active,
		CollaboratorCount: len(profile.CollaborationNetwork),
	}
	return profile, summary, nil
}

// profileBasicInfo reads the cached researcher body, falling back to the
// document store and repopulating the cache on a miss. Cache failures
// degrade to a plain document read.
func (e *Engine) profileBasicInfo(ctx context.Context, id string) (bson.M, string, error) {
	cached, err := e.stores.Cache.Get(ctx, store.ProfileKey(id))
	if err == nil {
		var basic bson.M
		if jsonErr := json.Unmarshal([]byte(cached), &basic); jsonErr == nil {
			metrics.CacheHits.Inc()
			return basic, "hit", nil
		}
		logger.Warn("Discarding undecodable cache entry", "key", store.ProfileKey(id))
	} else if !isNotFound(err) {
		logger.Warn("Profile cache read degraded", "id", id, "err", err)
	}
	metrics.CacheMisses.Inc()

	doc, err := e.stores.Documents.Get(ctx, model.CollectionResearchers, id)
	if err != nil {
		if isNotFound(err) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("profile basic info %s: %w", id, err)
	}

	if cacheErr := e.cacheResearcherBody(ctx, id, doc); cacheErr != nil {
		logger.Warn("Failed to repopulate profile cache", "id", id, "err", cacheErr)
	}
	return doc, "miss", nil
}

// profilePublications lists this researcher's publications with their
// authorship details, most cited first, plus the summed citation count.
func (e *Engine) profilePublications(ctx context.Context, id string) ([]ProfilePublication, int, error) {
	docs, err := e.stores.Documents.Search(ctx, model.CollectionPublications,
		bson.M{"authors.researcher_id": id}, 0)
	if err != nil {
		return nil, 0, err
	}

	publications := make([]ProfilePublication, 0, len(docs))
	citations := 0
	for _, doc := range docs {
		var pub model.Publication
		if err := model.FromDoc(doc, &pub); err != nil {
			logger.Warn("Skipping undecodable publication", "err", err)
			continue
		}
		entry := ProfilePublication{
			ID:            pub.ID,
			Title:         pub.Title,
			Journal:       pub.BibliographicInfo.Journal,
			Date:          pub.BibliographicInfo.PublicationDate,
			CitationCount: pub.Metrics.CitationCount,
		}
		for _, author := range pub.Authors {
			if author.ResearcherID == id {
				entry.AuthorOrder = author.AuthorOrder
				entry.Contribution = author.Contribution
				break
			}
		}
		citations += pub.Metrics.CitationCount
		publications = append(publications, entry)
	}

	sortStable(publications, func(a, b ProfilePublication) bool {
		if a.CitationCount != b.CitationCount {
			return a.CitationCount > b.CitationCount
		}
		return a.ID < b.ID
	})
	return publications, citations, nil
}

// profileProjects lists every project where the researcher appears in any
// participant role, regardless of status.
func (e *Engine) profileProjects(ctx context.Context, id string) ([]ProfileProject, error) {
	docs, err := e.stores.Documents.Search(ctx, model.CollectionProjects, bson.M{
		"$or": []bson.M{
			{"participants.principal_investigators.researcher_id": id},
			{"participants.co_investigators.researcher_id": id},
			{"participants.research_assistants.researcher_id": id},
		},
	}, 0)
	if err != nil {
		return nil, err
	}

	projects := make([]ProfileProject, 0, len(docs))
	for _, doc := range docs {
		var project model.Project
		if err := model.FromDoc(doc, &project); err != nil {
			logger.Warn("Skipping undecodable project", "err", err)
			continue
		}
		projects = append(projects, ProfileProject{
			ID:        project.ID,
			Title:     project.Title,
			Status:    project.Status,
			StartDate: project.Timeline.StartDate,
			EndDate:   project.Timeline.EndDate,
		})
	}
	return projects, nil
}
