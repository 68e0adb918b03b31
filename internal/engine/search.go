package engine

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/atlas-collab/atlas/backend/internal/model"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

const defaultSearchLimit = 20

// ResearcherSearchCriteria is the filter surface for researcher search.
// Zero values mean "not filtered"; pointers distinguish 0 from unset.
type ResearcherSearchCriteria struct {
	Name            string
	DepartmentID    string
	Position        string
	Interests       []string
	MinHIndex       *int
	MaxHIndex       *int
	MinPublications *int
	MaxPublications *int

	SortBy               string
	SortAscending        bool
	Limit                int
	IncludeCollaborators bool
}

// ResearcherSearchResult is one search hit, optionally enriched with the
// researcher's direct collaborators.
type ResearcherSearchResult struct {
	Researcher    model.Researcher `json:"researcher"`
	Collaborators []store.Neighbor `json:"collaborators,omitempty"`
}

// BuildResearcherFilter translates search criteria into a document-store
// filter. Name input is tokenized on whitespace: each token must match the
// first or last name case-insensitively, and all tokens must match.
func BuildResearcherFilter(criteria ResearcherSearchCriteria) bson.M {
	filter := bson.M{}

	if tokens := strings.Fields(criteria.Name); len(tokens) > 0 {
		clauses := make([]bson.M, 0, len(tokens))
		for _, token := range tokens {
			pattern := regexp.QuoteMeta(token)
			clauses = append(clauses, bson.M{"$or": []bson.M{
				{"personal_info.first_name": bson.M{"$regex": pattern, "$options": "i"}},
				{"personal_info.last_name": bson.M{"$regex": pattern, "$options": "i"}},
			}})
		}
		if len(clauses) == 1 {
			filter["$or"] = clauses[0]["$or"]
		} else {
			filter["$and"] = clauses
		}
	}

	if criteria.DepartmentID != "" {
		filter["academic_profile.department_id"] = criteria.DepartmentID
	}
	if criteria.Position != "" {
		filter["academic_profile.position"] = criteria.Position
	}
	if len(criteria.Interests) > 0 {
		filter["research_interests"] = bson.M{"$in": criteria.Interests}
	}

	if hRange := boundsFilter(criteria.MinHIndex, criteria.MaxHIndex); len(hRange) > 0 {
		filter["collaboration_metrics.h_index"] = hRange
	}
	if pubRange := boundsFilter(criteria.MinPublications, criteria.MaxPublications); len(pubRange) > 0 {
		filter["collaboration_metrics.total_publications"] = pubRange
	}

	return filter
}

// SearchResearchers runs the filter against the document store, sorts and
// limits client-side, and optionally enriches each hit with its direct
// collaborators. Enrichment failures degrade to hits without collaborators.
func (e *Engine) SearchResearchers(ctx context.Context, criteria ResearcherSearchCriteria) ([]ResearcherSearchResult, error) {
	docs, err := e.stores.Documents.Search(ctx, model.CollectionResearchers,
		BuildResearcherFilter(criteria), 0)
	if err != nil {
		return nil, err
	}

	researchers := make([]model.Researcher, 0, len(docs))
	for _, doc := range docs {
		var r model.Researcher
		if err := model.FromDoc(doc, &r); err != nil {
			logger.Warn("Skipping undecodable researcher", "err", err)
			continue
		}
		researchers = append(researchers, r)
	}

	sortResearchers(researchers, criteria.SortBy, criteria.SortAscending)

	limit := criteria.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if len(researchers) > limit {
		researchers = researchers[:limit]
	}

	results := make([]ResearcherSearchResult, 0, len(researchers))
	for _, r := range researchers {
		result := ResearcherSearchResult{Researcher: r}
		if criteria.IncludeCollaborators {
			collaborators, err := e.stores.Graph.Traverse(ctx, r.ID, store.RelCoAuthored, 1, 10)
			if err != nil {
				logger.Warn("Collaborator enrichment degraded", "id", r.ID, "err", err)
			} else {
				result.Collaborators = collaborators
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// sortResearchers orders by the named metric, descending unless ascending
// is requested, breaking ties on id for deterministic pagination.
func sortResearchers(researchers []model.Researcher, sortBy string, ascending bool) {
	metric := func(r model.Researcher) int {
		switch sortBy {
		case "total_publications":
			return r.CollaborationMetrics.TotalPublications
		case "citation_count":
			return r.CollaborationMetrics.CitationCount
		default:
			return r.CollaborationMetrics.HIndex
		}
	}
	sort.SliceStable(researchers, func(i, j int) bool {
		mi, mj := metric(researchers[i]), metric(researchers[j])
		if mi != mj {
			if ascending {
				return mi < mj
			}
			return mi > mj
		}
		return researchers[i].ID < researchers[j].ID
	})
}

// PublicationSearchCriteria is the filter surface for publication search.
type PublicationSearchCriteria struct {
	AuthorName   string
	Journal      string
	DateFrom     string
	DateTo       string
	Keywords     []string
	MinCitations *int
	Limit        int
}

// PublicationSearchResult is one publication hit with author names resolved
// from the document store. Dangling author references resolve to "Unknown".
type PublicationSearchResult struct {
	Publication model.Publication `json:"publication"`
	AuthorNames []string          `json:"author_names"`
}

// BuildPublicationFilter translates publication criteria into a
// document-store filter. Author-name resolution happens separately because
// it needs a researcher lookup first.
func BuildPublicationFilter(criteria PublicationSearchCriteria, authorIDs []string) bson.M {
	filter := bson.M{}

	if len(authorIDs) > 0 {
		filter["authors.researcher_id"] = bson.M{"$in": authorIDs}
	}
	if criteria.Journal != "" {
		filter["bibliographic_info.journal"] = bson.M{
			"$regex": regexp.QuoteMeta(criteria.Journal), "$options": "i",
		}
	}

	dateRange := bson.M{}
	if criteria.DateFrom != "" {
		dateRange["$gte"] = criteria.DateFrom
	}
	if criteria.DateTo != "" {
		dateRange["$lte"] = criteria.DateTo
	}
	if len(dateRange) > 0 {
		filter["bibliographic_info.publication_date"] = dateRange
	}

	if len(criteria.Keywords) > 0 {
		// A keyword matches the tag list or appears in the title.
		quoted := make([]string, 0, len(criteria.Keywords))
		for _, keyword := range criteria.Keywords {
			quoted = append(quoted, regexp.QuoteMeta(keyword))
		}
		filter["$or"] = []bson.M{
			{"keywords": bson.M{"$in": criteria.Keywords}},
			{"title": bson.M{"$regex": strings.Join(quoted, "|"), "$options": "i"}},
		}
	}
	if criteria.MinCitations != nil {
		filter["metrics.citation_count"] = bson.M{"$gte": *criteria.MinCitations}
	}

	return filter
}

// SearchPublications resolves an optional author-name filter to researcher
// ids, runs the combined filter, resolves each hit's author names, and
// returns hits most cited first.
func (e *Engine) SearchPublications(ctx context.Context, criteria PublicationSearchCriteria) ([]PublicationSearchResult, error) {
	var authorIDs []string
	if criteria.AuthorName != "" {
		matches, err := e.stores.Documents.Search(ctx, model.CollectionResearchers,
			BuildResearcherFilter(ResearcherSearchCriteria{Name: criteria.AuthorName}), 0)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return []PublicationSearchResult{}, nil
		}
		for _, doc := range matches {
			if id, ok := doc["_id"].(string); ok {
				authorIDs = append(authorIDs, id)
			}
		}
	}

	docs, err := e.stores.Documents.Search(ctx, model.CollectionPublications,
		BuildPublicationFilter(criteria, authorIDs), 0)
	if err != nil {
		return nil, err
	}

	publications := make([]model.Publication, 0, len(docs))
	for _, doc := range docs {
		var pub model.Publication
		if err := model.FromDoc(doc, &pub); err != nil {
			logger.Warn("Skipping undecodable publication", "err", err)
			continue
		}
		publications = append(publications, pub)
	}

	sort.SliceStable(publications, func(i, j int) bool {
		ci, cj := publications[i].Metrics.CitationCount, publications[j].Metrics.CitationCount
		if ci != cj {
			return ci > cj
		}
		return publications[i].ID < publications[j].ID
	})

	limit := criteria.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if len(publications) > limit {
		publications = publications[:limit]
	}

	results := make([]PublicationSearchResult, 0, len(publications))
	for _, pub := range publications {
		results = append(results, PublicationSearchResult{
			Publication: pub,
			AuthorNames: e.resolveAuthorNames(ctx, pub.Authors),
		})
	}
	return results, nil
}

// resolveAuthorNames maps author references to researcher names in author
// order. A reference that no longer resolves becomes "Unknown".
func (e *Engine) resolveAuthorNames(ctx context.Context, authors []model.Author) []string {
	ordered := make([]model.Author, len(authors))
	copy(ordered, authors)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].AuthorOrder < ordered[j].AuthorOrder
	})

	names := make([]string, 0, len(ordered))
	for _, author := range ordered {
		r, err := e.GetResearcher(ctx, author.ResearcherID)
		if err != nil {
			names = append(names, "Unknown")
			continue
		}
		names = append(names, r.FullName())
	}
	return names
}

func boundsFilter(min, max *int) bson.M {
	bounds := bson.M{}
	if min != nil {
		bounds["$gte"] = *min
	}
	if max != nil {
		bounds["$lte"] = *max
	}
	return bounds
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// sortStable is a tiny generic wrapper for ordered slices of result rows.
func sortStable[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
