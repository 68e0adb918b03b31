package engine

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/atlas-collab/atlas/backend/internal/model"
	"github.com/atlas-collab/atlas/backend/internal/store"
)

// lastName digs the personal_info last name out of a basic-info document,
// which carries bson.M sub-maps when read fresh and plain maps when it came
// through the JSON cache body.
func lastName(info bson.M) string {
	switch sub := info["personal_info"].(type) {
	case bson.M:
		s, _ := sub["last_name"].(string)
		return s
	case map[string]any:
		s, _ := sub["last_name"].(string)
		return s
	}
	return ""
}

func newTestEngine() (*Engine, *store.Stores) {
	stores := newFakeStores()
	return New(stores), stores
}

func seedResearcher(t *testing.T, e *Engine, first, last, department string, hIndex, pubs, citations int) string {
	t.Helper()
	result, err := e.CreateResearcher(context.Background(), model.Researcher{
		PersonalInfo: model.PersonalInfo{
			FirstName: first,
			LastName:  last,
			Email:     first + "." + last + "@example.edu",
		},
		AcademicProfile: model.AcademicProfile{DepartmentID: department, Position: "professor"},
		CollaborationMetrics: model.CollaborationMetrics{
			HIndex:            hIndex,
			TotalPublications: pubs,
			CitationCount:     citations,
		},
	})
	if err != nil {
		t.Fatalf("create researcher: %v", err)
	}
	if result.Mirror.Degraded() {
		t.Fatalf("unexpected degraded create: %v", result.Mirror.DegradedStores())
	}
	return result.ID
}

func TestCreateResearcherMirrorsAllStores(t *testing.T) {
	e, stores := newTestEngine()
	id := seedResearcher(t, e, "Ada", "Lovelace", "cs", 20, 45, 900)

	r, err := e.GetResearcher(context.Background(), id)
	if err != nil {
		t.Fatalf("get researcher: %v", err)
	}
	if r.FullName() != "Ada Lovelace" {
		t.Fatalf("unexpected name %q", r.FullName())
	}
	if r.Metadata == nil || r.Metadata.Status != "active" {
		t.Fatalf("metadata not stamped: %+v", r.Metadata)
	}

	graph := stores.Graph.(*fakeGraph)
	node, ok := graph.nodes[id]
	if !ok {
		t.Fatalf("graph node not mirrored")
	}
	if node["name"] != "Ada Lovelace" || node["department"] != "cs" {
		t.Fatalf("unexpected node props: %v", node)
	}

	cache := stores.Cache.(*fakeCache)
	if _, ok := cache.entries[store.ProfileKey(id)]; !ok {
		t.Fatalf("profile body not cached")
	}
	stats, ok := cache.hashes[store.StatsKey(id)]
	if !ok || stats["h_index"] != "20" || stats["publications_count"] != "45" {
		t.Fatalf("unexpected stats hash: %v", stats)
	}
}

func TestCreateResearcherSurvivesGraphFailure(t *testing.T) {
	e, stores := newTestEngine()
	stores.Graph.(*fakeGraph).fail = true

	result, err := e.CreateResearcher(context.Background(), model.Researcher{
		PersonalInfo: model.PersonalInfo{FirstName: "Grace", LastName: "Hopper"},
	})
	if err != nil {
		t.Fatalf("create should succeed despite graph failure: %v", err)
	}
	if result.Mirror.GraphErr == nil {
		t.Fatalf("expected graph mirror error")
	}
	degraded := result.Mirror.DegradedStores()
	if len(degraded) != 1 || degraded[0] != "graph" {
		t.Fatalf("unexpected degraded stores: %v", degraded)
	}

	if _, err := e.GetResearcher(context.Background(), result.ID); err != nil {
		t.Fatalf("primary record missing: %v", err)
	}
}

func TestCreateResearcherAbortsOnDocumentFailure(t *testing.T) {
	e, stores := newTestEngine()
	stores.Documents.(*fakeDocs).failAll = true

	if _, err := e.CreateResearcher(context.Background(), model.Researcher{}); err == nil {
		t.Fatalf("expected error when document store is down")
	}
	if len(stores.Graph.(*fakeGraph).nodes) != 0 {
		t.Fatalf("graph written despite primary failure")
	}
}

func TestUpdateResearcherMirrorsMappedFields(t *testing.T) {
	e, stores := newTestEngine()
	id := seedResearcher(t, e, "Alan", "Turing", "math", 15, 30, 500)

	result, err := e.UpdateResearcher(context.Background(), id, map[string]any{
		"collaboration_metrics.h_index":  18,
		"academic_profile.department_id": "cs",
		"research_interests":             []string{"computability"},
	})
	if err != nil {
		t.Fatalf("update researcher: %v", err)
	}
	if !result.Updated || result.Mirror.Degraded() {
		t.Fatalf("unexpected result: %+v", result)
	}

	node := stores.Graph.(*fakeGraph).nodes[id]
	if node["h_index"] != 18 || node["department"] != "cs" {
		t.Fatalf("node props not mirrored: %v", node)
	}
	// Name stays intact: only one name part was never updated.
	if node["name"] != "Alan Turing" {
		t.Fatalf("name changed unexpectedly: %v", node["name"])
	}

	cache := stores.Cache.(*fakeCache)
	if _, ok := cache.entries[store.ProfileKey(id)]; ok {
		t.Fatalf("profile cache not invalidated")
	}
	stats := cache.hashes[store.StatsKey(id)]
	if stats["h_index"] != "18" {
		t.Fatalf("stats hash not refreshed: %v", stats)
	}

	r, err := e.GetResearcher(context.Background(), id)
	if err != nil {
		t.Fatalf("get researcher: %v", err)
	}
	if r.CollaborationMetrics.HIndex != 18 || r.AcademicProfile.DepartmentID != "cs" {
		t.Fatalf("document not updated: %+v", r)
	}
}

func TestUpdateNameNeedsBothParts(t *testing.T) {
	props := graphMirrorProps(map[string]any{"personal_info.first_name": "Al"})
	if _, ok := props["name"]; ok {
		t.Fatalf("name mirrored from a single part: %v", props)
	}

	props = graphMirrorProps(map[string]any{
		"personal_info": map[string]any{"first_name": "Al", "last_name": "Turing"},
	})
	if props["name"] != "Al Turing" {
		t.Fatalf("nested name parts not mirrored: %v", props)
	}
}

func TestDeleteResearcherCascades(t *testing.T) {
	e, stores := newTestEngine()
	id1 := seedResearcher(t, e, "Barbara", "Liskov", "cs", 40, 120, 3000)
	id2 := seedResearcher(t, e, "Leslie", "Lamport", "cs", 38, 110, 2800)

	if err := e.AddCollaboration(context.Background(), id1, id2, store.RelCoAuthored, nil); err != nil {
		t.Fatalf("add collaboration: %v", err)
	}

	result, err := e.DeleteResearcher(context.Background(), id1)
	if err != nil {
		t.Fatalf("delete researcher: %v", err)
	}
	if !result.Deleted || result.Mirror.Degraded() {
		t.Fatalf("unexpected result: %+v", result)
	}

	graph := stores.Graph.(*fakeGraph)
	if _, ok := graph.nodes[id1]; ok {
		t.Fatalf("graph node survived delete")
	}
	if len(graph.edges) != 0 {
		t.Fatalf("incident edges survived delete: %d", len(graph.edges))
	}
	if _, ok := stores.Cache.(*fakeCache).entries[store.ProfileKey(id1)]; ok {
		t.Fatalf("cache entry survived delete")
	}

	// Deleting again is a no-op, not an error.
	again, err := e.DeleteResearcher(context.Background(), id1)
	if err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if again.Deleted {
		t.Fatalf("repeat delete reported a removal")
	}
}

func TestProfileCacheMissThenHit(t *testing.T) {
	e, stores := newTestEngine()
	id := seedResearcher(t, e, "Edsger", "Dijkstra", "cs", 35, 90, 2200)

	cache := stores.Cache.(*fakeCache)
	if err := cache.Delete(context.Background(), store.ProfileKey(id)); err != nil {
		t.Fatalf("clear cache: %v", err)
	}

	profile, _, err := e.ResearcherProfile(context.Background(), id)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.CacheStatus != "miss" {
		t.Fatalf("expected miss, got %q", profile.CacheStatus)
	}

	profile, _, err = e.ResearcherProfile(context.Background(), id)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.CacheStatus != "hit" {
		t.Fatalf("expected hit after repopulation, got %q", profile.CacheStatus)
	}
	if lastName(profile.BasicInfo) != "Dijkstra" {
		t.Fatalf("unexpected cached body: %v", profile.BasicInfo)
	}
}

func TestQuickStatsHitThenRepopulation(t *testing.T) {
	e, stores := newTestEngine()
	id := seedResearcher(t, e, "Grace", "Hopper", "cs", 40, 120, 3000)

	stats, err := e.ResearcherQuickStats(context.Background(), id)
	if err != nil {
		t.Fatalf("quick stats: %v", err)
	}
	if stats.CacheStatus != "hit" {
		t.Fatalf("expected hit from create-time priming, got %q", stats.CacheStatus)
	}
	if stats.PublicationsCount != 120 || stats.HIndex != 40 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	cache := stores.Cache.(*fakeCache)
	if err := cache.Delete(context.Background(), store.StatsKey(id)); err != nil {
		t.Fatalf("clear stats: %v", err)
	}

	stats, err = e.ResearcherQuickStats(context.Background(), id)
	if err != nil {
		t.Fatalf("quick stats: %v", err)
	}
	if stats.CacheStatus != "miss" {
		t.Fatalf("expected miss after invalidation, got %q", stats.CacheStatus)
	}
	if stats.HIndex != 40 {
		t.Fatalf("unexpected fallback stats: %+v", stats)
	}

	stats, err = e.ResearcherQuickStats(context.Background(), id)
	if err != nil {
		t.Fatalf("quick stats: %v", err)
	}
	if stats.CacheStatus != "hit" {
		t.Fatalf("expected hit after repopulation, got %q", stats.CacheStatus)
	}
}

func TestQuickStatsUnknownResearcher(t *testing.T) {
	e, _ := newTestEngine()
	if _, err := e.ResearcherQuickStats(context.Background(), "missing"); !isNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProfileSectionsDegradeToEmpty(t *testing.T) {
	e, stores := newTestEngine()
	id := seedResearcher(t, e, "Donald", "Knuth", "cs", 50, 160, 5000)
	stores.Graph.(*fakeGraph).fail = true

	profile, summary, err := e.ResearcherProfile(context.Background(), id)
	if err != nil {
		t.Fatalf("profile should survive graph failure: %v", err)
	}
	if profile.CollaborationNetwork == nil || len(profile.CollaborationNetwork) != 0 {
		t.Fatalf("network should be empty, got %v", profile.CollaborationNetwork)
	}
	if summary.CollaboratorCount != 0 {
		t.Fatalf("unexpected collaborator count %d", summary.CollaboratorCount)
	}
}

func TestProfileUnknownResearcher(t *testing.T) {
	e, _ := newTestEngine()
	if _, _, err := e.ResearcherProfile(context.Background(), "missing"); !isNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestProfileAggregatesSections(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()
	id1 := seedResearcher(t, e, "Tim", "Berners-Lee", "cs", 30, 80, 1500)
	id2 := seedResearcher(t, e, "Vint", "Cerf", "cs", 28, 75, 1400)

	if err := e.AddCollaboration(ctx, id1, id2, store.RelCoAuthored, nil); err != nil {
		t.Fatalf("add collaboration: %v", err)
	}

	if _, err := e.CreatePublication(ctx, model.Publication{
		Title: "Information Management: A Proposal",
		Authors: []model.Author{
			{ResearcherID: id1, AuthorOrder: 1, Contribution: "lead"},
		},
		Metrics: model.PublicationMetrics{CitationCount: 400},
	}); err != nil {
		t.Fatalf("create publication: %v", err)
	}

	if _, err := e.CreateProject(ctx, model.Project{
		Title:  "WWW",
		Status: model.ProjectStatusActive,
		Participants: model.Participants{
			PrincipalInvestigators: []model.ParticipantRef{{ResearcherID: id1, Role: "pi"}},
		},
	}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := e.CreateProject(ctx, model.Project{
		Title:  "ENQUIRE",
		Status: model.ProjectStatusCompleted,
		Participants: model.Participants{
			PrincipalInvestigators: []model.ParticipantRef{{ResearcherID: id1, Role: "pi"}},
		},
	}); err != nil {
		t.Fatalf("create project: %v", err)
	}

	profile, summary, err := e.ResearcherProfile(ctx, id1)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(profile.CollaborationNetwork) != 1 {
		t.Fatalf("expected 1 collaborator, got %d", len(profile.CollaborationNetwork))
	}
	if profile.NetworkDepth != 2 {
		t.Fatalf("expected network depth 2, got %d", profile.NetworkDepth)
	}
	if len(profile.RecentPublications) != 1 || profile.RecentPublications[0].AuthorOrder != 1 {
		t.Fatalf("unexpected publications: %+v", profile.RecentPublications)
	}

	// Projects list includes every status; only the summary count is
	// restricted to active ones.
	if len(profile.Projects) != 2 {
		t.Fatalf("expected both projects, got %+v", profile.Projects)
	}
	statuses := map[string]string{}
	for _, project := range profile.Projects {
		statuses[project.Title] = project.Status
	}
	if statuses["WWW"] != model.ProjectStatusActive || statuses["ENQUIRE"] != model.ProjectStatusCompleted {
		t.Fatalf("unexpected project statuses: %v", statuses)
	}
	if summary.TotalCitations != 400 || summary.ActiveProjects != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestBuildResearcherFilterShapes(t *testing.T) {
	min, max := 10, 40
	filter := BuildResearcherFilter(ResearcherSearchCriteria{
		Name:         "marie curie",
		DepartmentID: "physics",
		Interests:    []string{"radioactivity"},
		MinHIndex:    &min,
		MaxHIndex:    &max,
	})

	and, ok := filter["$and"].([]bson.M)
	if !ok || len(and) != 2 {
		t.Fatalf("expected two AND-ed token clauses, got %v", filter["$and"])
	}
	for _, clause := range and {
		or, ok := clause["$or"].([]bson.M)
		if !ok || len(or) != 2 {
			t.Fatalf("token clause should OR first/last name: %v", clause)
		}
	}
	if filter["academic_profile.department_id"] != "physics" {
		t.Fatalf("department filter missing: %v", filter)
	}
	hRange, ok := filter["collaboration_metrics.h_index"].(bson.M)
	if !ok || hRange["$gte"] != 10 || hRange["$lte"] != 40 {
		t.Fatalf("h-index bounds wrong: %v", hRange)
	}

	single := BuildResearcherFilter(ResearcherSearchCriteria{Name: "curie"})
	if _, ok := single["$and"]; ok {
		t.Fatalf("single token should not produce $and: %v", single)
	}
	if _, ok := single["$or"].([]bson.M); !ok {
		t.Fatalf("single token should produce top-level $or: %v", single)
	}
}

func TestSearchResearchersTokenizedNameMatch(t *testing.T) {
	e, _ := newTestEngine()
	seedResearcher(t, e, "Marie", "Curie", "physics", 25, 60, 1200)
	seedResearcher(t, e, "Pierre", "Curie", "physics", 22, 50, 1000)
	seedResearcher(t, e, "Marie", "Tharp", "geology", 18, 40, 700)

	results, err := e.SearchResearchers(context.Background(), ResearcherSearchCriteria{
		Name: "marie curie",
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Researcher.FullName() != "Marie Curie" {
		t.Fatalf("tokenized match failed: %d results", len(results))
	}

	// A single token matches either name part.
	results, err = e.SearchResearchers(context.Background(), ResearcherSearchCriteria{Name: "curie"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both Curies, got %d", len(results))
	}
}

func TestSearchResearchersSortAndLimit(t *testing.T) {
	e, _ := newTestEngine()
	seedResearcher(t, e, "A", "One", "cs", 10, 30, 100)
	seedResearcher(t, e, "B", "Two", "cs", 30, 10, 300)
	seedResearcher(t, e, "C", "Three", "cs", 20, 20, 200)

	results, err := e.SearchResearchers(context.Background(), ResearcherSearchCriteria{
		DepartmentID: "cs",
		Limit:        2,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("limit not applied: %d", len(results))
	}
	// Default sort is h_index descending.
	if results[0].Researcher.CollaborationMetrics.HIndex != 30 ||
		results[1].Researcher.CollaborationMetrics.HIndex != 20 {
		t.Fatalf("unexpected order: %d, %d",
			results[0].Researcher.CollaborationMetrics.HIndex,
			results[1].Researcher.CollaborationMetrics.HIndex)
	}

	results, err = e.SearchResearchers(context.Background(), ResearcherSearchCriteria{
		DepartmentID:  "cs",
		SortBy:        "total_publications",
		SortAscending: true,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results[0].Researcher.CollaborationMetrics.TotalPublications != 10 {
		t.Fatalf("ascending publication sort failed")
	}
}

func TestSearchPublicationsResolvesAuthors(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()
	id := seedResearcher(t, e, "Claude", "Shannon", "ee", 40, 100, 4000)

	if _, err := e.CreatePublication(ctx, model.Publication{
		Title: "A Mathematical Theory of Communication",
		BibliographicInfo: model.BibliographicInfo{
			Journal:         "Bell System Technical Journal",
			PublicationDate: "1948-07-01",
		},
		Authors: []model.Author{
			{ResearcherID: id, AuthorOrder: 1},
			{ResearcherID: "gone", AuthorOrder: 2},
		},
		Metrics: model.PublicationMetrics{CitationCount: 100000},
	}); err != nil {
		t.Fatalf("create publication: %v", err)
	}

	results, err := e.SearchPublications(ctx, PublicationSearchCriteria{AuthorName: "shannon"})
	if err != nil {
		t.Fatalf("search publications: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(results))
	}
	names := results[0].AuthorNames
	if len(names) != 2 || names[0] != "Claude Shannon" || names[1] != "Unknown" {
		t.Fatalf("unexpected author names: %v", names)
	}

	// An author name matching nobody returns empty, not everything.
	results, err = e.SearchPublications(ctx, PublicationSearchCriteria{AuthorName: "nobody"})
	if err != nil {
		t.Fatalf("search publications: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no hits, got %d", len(results))
	}
}

func TestAddCollaborationIncrementsStrength(t *testing.T) {
	e, stores := newTestEngine()
	ctx := context.Background()
	id1 := seedResearcher(t, e, "Ken", "Thompson", "cs", 30, 70, 1500)
	id2 := seedResearcher(t, e, "Dennis", "Ritchie", "cs", 32, 75, 1600)

	for i := 0; i < 3; i++ {
		if err := e.AddCollaboration(ctx, id1, id2, store.RelCoAuthored, nil); err != nil {
			t.Fatalf("add collaboration: %v", err)
		}
	}

	pairs, err := e.CollaborationPairs(ctx, "", 1, 10)
	if err != nil {
		t.Fatalf("pairs: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Strength != 3 {
		t.Fatalf("expected one pair with strength 3, got %+v", pairs)
	}
	if pairs[0].SourceName == "Unknown" || pairs[0].TargetName == "Unknown" {
		t.Fatalf("names should resolve: %+v", pairs[0])
	}

	// Repeated co-authorship stays one edge, regardless of direction.
	if err := e.AddCollaboration(ctx, id2, id1, store.RelCoAuthored, nil); err != nil {
		t.Fatalf("reverse add: %v", err)
	}
	graph := stores.Graph.(*fakeGraph)
	if len(graph.edges) != 1 || graph.edges[0].strength != 4 {
		t.Fatalf("undirected dedup failed: %+v", graph.edges)
	}
}

func TestCollaborationPairsDepartmentScope(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()
	cs1 := seedResearcher(t, e, "Barbara", "Liskov", "cs", 40, 100, 2500)
	cs2 := seedResearcher(t, e, "Leslie", "Lamport", "cs", 38, 95, 2400)
	bio := seedResearcher(t, e, "Rosalind", "Franklin", "bio", 25, 50, 1800)

	if err := e.AddCollaboration(ctx, cs1, cs2, store.RelCoAuthored, nil); err != nil {
		t.Fatalf("add collaboration: %v", err)
	}
	if err := e.AddCollaboration(ctx, cs1, bio, store.RelCoAuthored, nil); err != nil {
		t.Fatalf("add collaboration: %v", err)
	}

	pairs, err := e.CollaborationPairs(ctx, "cs", 1, 10)
	if err != nil {
		t.Fatalf("pairs: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected only the intra-department pair, got %+v", pairs)
	}

	pairs, err = e.CollaborationPairs(ctx, "", 1, 10)
	if err != nil {
		t.Fatalf("pairs: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected both pairs without a department filter, got %+v", pairs)
	}
}

func TestAddCollaborationRejectsSelf(t *testing.T) {
	e, _ := newTestEngine()
	if err := e.AddCollaboration(context.Background(), "r1", "r1", store.RelCoAuthored, nil); err == nil {
		t.Fatalf("expected self-relationship rejection")
	}
}

func TestSupervisionDefaults(t *testing.T) {
	e, stores := newTestEngine()
	ctx := context.Background()
	id1 := seedResearcher(t, e, "John", "McCarthy", "cs", 35, 85, 2000)
	id2 := seedResearcher(t, e, "Raj", "Reddy", "cs", 25, 55, 900)

	if err := e.AddCollaboration(ctx, id1, id2, store.RelSupervises, nil); err != nil {
		t.Fatalf("add supervision: %v", err)
	}

	graph := stores.Graph.(*fakeGraph)
	edge := graph.findEdge(id1, id2, store.RelSupervises, true)
	if edge == nil {
		t.Fatalf("supervision edge missing")
	}
	if edge.props["supervision_type"] != "phd" {
		t.Fatalf("default supervision type missing: %v", edge.props)
	}
	if edge.props["created_at"] == nil {
		t.Fatalf("created_at missing: %v", edge.props)
	}
}

func TestSupervisionChainDirections(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()
	advisor := seedResearcher(t, e, "Alonzo", "Church", "math", 30, 60, 1000)
	student := seedResearcher(t, e, "Alan", "Turing", "math", 28, 50, 900)
	grandstudent := seedResearcher(t, e, "Robin", "Gandy", "math", 15, 25, 300)

	if err := e.AddCollaboration(ctx, advisor, student, store.RelSupervises, nil); err != nil {
		t.Fatalf("add supervision: %v", err)
	}
	if err := e.AddCollaboration(ctx, student, grandstudent, store.RelSupervises, nil); err != nil {
		t.Fatalf("add supervision: %v", err)
	}

	down, err := e.SupervisionChain(ctx, advisor, "down")
	if err != nil {
		t.Fatalf("chain down: %v", err)
	}
	if len(down) != 2 {
		t.Fatalf("expected 2 supervisees transitively, got %d", len(down))
	}

	up, err := e.SupervisionChain(ctx, grandstudent, "up")
	if err != nil {
		t.Fatalf("chain up: %v", err)
	}
	if len(up) != 2 || up[0].Distance != 1 {
		t.Fatalf("unexpected ancestry: %+v", up)
	}
}

func TestResearcherRelationshipsGrouped(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()
	id1 := seedResearcher(t, e, "Fran", "Allen", "cs", 30, 70, 1300)
	id2 := seedResearcher(t, e, "John", "Cocke", "cs", 29, 65, 1250)
	id3 := seedResearcher(t, e, "Mark", "Wegman", "cs", 20, 40, 600)

	if err := e.AddCollaboration(ctx, id1, id2, store.RelCoAuthored, nil); err != nil {
		t.Fatalf("add co-authorship: %v", err)
	}
	if err := e.AddCollaboration(ctx, id1, id3, store.RelMentors, nil); err != nil {
		t.Fatalf("add mentorship: %v", err)
	}

	groups, err := e.ResearcherRelationships(ctx, id1)
	if err != nil {
		t.Fatalf("relationships: %v", err)
	}
	if len(groups.CoAuthors) != 1 || len(groups.Mentorship) != 1 || len(groups.Supervision) != 0 {
		t.Fatalf("unexpected grouping: %+v", groups)
	}
	if !groups.Mentorship[0].Outgoing {
		t.Fatalf("mentorship direction lost")
	}
}

func TestRemoveCollaboration(t *testing.T) {
	e, stores := newTestEngine()
	ctx := context.Background()
	id1 := seedResearcher(t, e, "Gordon", "Moore", "ee", 25, 50, 800)
	id2 := seedResearcher(t, e, "Robert", "Noyce", "ee", 24, 48, 780)

	if err := e.AddCollaboration(ctx, id1, id2, store.RelCoAuthored, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := e.RemoveCollaboration(ctx, id2, id1, store.RelCoAuthored); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(stores.Graph.(*fakeGraph).edges) != 0 {
		t.Fatalf("edge survived removal")
	}
}

func TestComputeDepartmentRollup(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()
	id1 := seedResearcher(t, e, "Rosalind", "Franklin", "bio", 20, 40, 800)
	id2 := seedResearcher(t, e, "Francis", "Crick", "bio", 30, 60, 1200)
	id3 := seedResearcher(t, e, "James", "Watson", "bio", 28, 55, 1100)
	seedResearcher(t, e, "Outsider", "Person", "cs", 5, 10, 50)

	if err := e.AddCollaboration(ctx, id2, id3, store.RelCoAuthored, nil); err != nil {
		t.Fatalf("add collaboration: %v", err)
	}
	if _, err := e.CreateProject(ctx, model.Project{
		Title:   "DNA",
		Status:  model.ProjectStatusActive,
		Funding: model.Funding{Amount: 50000},
		Participants: model.Participants{
			PrincipalInvestigators: []model.ParticipantRef{{ResearcherID: id1}},
		},
	}); err != nil {
		t.Fatalf("create project: %v", err)
	}

	row, err := e.ComputeDepartmentRollup(ctx, "bio")
	if err != nil {
		t.Fatalf("rollup: %v", err)
	}
	if row.ActiveResearchers != 3 {
		t.Fatalf("roster size %d", row.ActiveResearchers)
	}
	if row.TotalPublications != 155 || row.TotalCitations != 3100 {
		t.Fatalf("unexpected totals: %+v", row)
	}
	if row.AvgHIndex != 26 {
		t.Fatalf("avg h-index %v", row.AvgHIndex)
	}
	// One collaborating pair of three possible.
	if row.CollaborationRate <= 0.33 || row.CollaborationRate >= 0.34 {
		t.Fatalf("collaboration rate %v", row.CollaborationRate)
	}
	if row.ProjectCount != 1 || row.FundingTotal != 50000 {
		t.Fatalf("project rollup wrong: %+v", row)
	}
}

func TestDepartmentAnalyticsReport(t *testing.T) {
	e, stores := newTestEngine()
	ctx := context.Background()
	id := seedResearcher(t, e, "Katherine", "Johnson", "math", 22, 45, 700)

	if _, err := e.UpdateResearcher(ctx, id, map[string]any{
		"research_interests": []string{"orbital mechanics", "numerical analysis"},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	analytics := stores.Analytics.(*fakeAnalytics)
	if err := analytics.InsertDepartmentRollup(ctx, store.DepartmentRollup{DepartmentID: "math"}); err != nil {
		t.Fatalf("seed rollup: %v", err)
	}

	report, err := e.DepartmentAnalytics(ctx, "math", 30)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.ResearcherCount != 1 || report.AvgHIndex != 22 {
		t.Fatalf("unexpected roster section: %+v", report)
	}
	if report.ResearchAreas["orbital mechanics"] != 1 {
		t.Fatalf("research areas missing: %v", report.ResearchAreas)
	}
	if len(report.TimeSeries) != 1 {
		t.Fatalf("time series missing: %+v", report.TimeSeries)
	}
	if len(report.TopResearchers) != 1 {
		t.Fatalf("top researchers missing")
	}
}

func TestListDepartments(t *testing.T) {
	e, _ := newTestEngine()
	seedResearcher(t, e, "A", "A", "cs", 1, 1, 1)
	seedResearcher(t, e, "B", "B", "bio", 1, 1, 1)
	seedResearcher(t, e, "C", "C", "cs", 1, 1, 1)

	departments, err := e.ListDepartments(context.Background())
	if err != nil {
		t.Fatalf("list departments: %v", err)
	}
	if len(departments) != 2 || departments[0] != "bio" || departments[1] != "cs" {
		t.Fatalf("unexpected departments: %v", departments)
	}
}

func TestStatisticsSnapshot(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()
	id1 := seedResearcher(t, e, "Linus", "Torvalds", "cs", 15, 30, 400)
	id2 := seedResearcher(t, e, "Andrew", "Tanenbaum", "cs", 25, 60, 900)
	if err := e.AddCollaboration(ctx, id1, id2, store.RelCoAuthored, nil); err != nil {
		t.Fatalf("add collaboration: %v", err)
	}

	stats, err := e.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.Documents.Researchers != 2 {
		t.Fatalf("researcher count %d", stats.Documents.Researchers)
	}
	if stats.Graph.TotalCollaborations != 1 {
		t.Fatalf("collaboration count %d", stats.Graph.TotalCollaborations)
	}
	if stats.Summary.TotalEntities != 2 || !stats.Summary.AnalyticsEnabled {
		t.Fatalf("unexpected summary: %+v", stats.Summary)
	}
	if stats.Summary.GraphCoverage != 1 {
		t.Fatalf("graph coverage %v", stats.Summary.GraphCoverage)
	}
}

func TestPublicationMetricsPublished(t *testing.T) {
	published := make([]store.PublicationMetricsRow, 0)
	e, _ := newTestEngine()
	e.WithMetricsPublisher(func(_ context.Context, row store.PublicationMetricsRow) error {
		published = append(published, row)
		return nil
	})

	ctx := context.Background()
	id, err := e.CreatePublication(ctx, model.Publication{
		Title:   "On Computable Numbers",
		Metrics: model.PublicationMetrics{CitationCount: 9000, DownloadCount: 10},
	})
	if err != nil {
		t.Fatalf("create publication: %v", err)
	}
	if len(published) != 1 || published[0].CitationCount != 9000 {
		t.Fatalf("create did not publish metrics: %+v", published)
	}

	if _, err := e.UpdatePublication(ctx, id, map[string]any{
		"metrics.citation_count": 9500,
	}); err != nil {
		t.Fatalf("update publication: %v", err)
	}
	if len(published) != 2 || published[1].CitationCount != 9500 {
		t.Fatalf("update did not publish refreshed metrics: %+v", published)
	}
	// The event carries the full current counters, not just changed fields.
	if published[1].DownloadCount != 10 {
		t.Fatalf("unchanged counters dropped from event: %+v", published[1])
	}
}

func TestProjectStatusValidation(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()

	if _, err := e.CreateProject(ctx, model.Project{Title: "X", Status: "bogus"}); err == nil {
		t.Fatalf("expected invalid status rejection")
	}

	id, err := e.CreateProject(ctx, model.Project{Title: "X"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	p, err := e.GetProject(ctx, id)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if p.Status != model.ProjectStatusPlanned {
		t.Fatalf("default status %q", p.Status)
	}

	if _, err := e.UpdateProject(ctx, id, map[string]any{"status": "nonsense"}); err == nil {
		t.Fatalf("expected invalid status rejection on update")
	}
	updated, err := e.UpdateProject(ctx, id, map[string]any{"status": model.ProjectStatusActive})
	if err != nil || !updated {
		t.Fatalf("valid status update failed: %v", err)
	}
}
