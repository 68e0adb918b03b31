package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/atlas-collab/atlas/backend/internal/model"
	"github.com/atlas-collab/atlas/backend/internal/store"
	"github.com/atlas-collab/atlas/backend/pkg/logger"
)

// SystemStatistics aggregates counts across the document, graph, and cache
// stores into one operational snapshot.
type SystemStatistics struct {
	Documents DocumentCounts   `json:"documents"`
	Graph     store.GraphStats `json:"graph"`
	Cache     store.CacheStats `json:"cache"`
	Summary   SystemSummary    `json:"summary"`
}

type DocumentCounts struct {
	Researchers  int64 `json:"researchers"`
	Projects     int64 `json:"projects"`
	Publications int64 `json:"publications"`
}

type SystemSummary struct {
	TotalEntities    int64   `json:"total_entities"`
	GraphCoverage    float64 `json:"graph_coverage"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
	AnalyticsEnabled bool    `json:"analytics_enabled"`
}

// Statistics reads each store's counters. Graph and cache failures degrade
// to zeroed sections; document-store failures are hard errors because the
// snapshot is meaningless without them.
func (e *Engine) Statistics(ctx context.Context) (SystemStatistics, error) {
	var stats SystemStatistics

	counts := []struct {
		collection string
		target     *int64
	}{
		{model.CollectionResearchers, &stats.Documents.Researchers},
		{model.CollectionProjects, &stats.Documents.Projects},
		{model.CollectionPublications, &stats.Documents.Publications},
	}
	for _, c := range counts {
		count, err := e.stores.Documents.Count(ctx, c.collection, bson.M{})
		if err != nil {
			return SystemStatistics{}, fmt.Errorf("count %s: %w", c.collection, err)
		}
		*c.target = count
	}

	graph, err := e.stores.Graph.Stats(ctx)
	if err != nil {
		logger.Warn("Graph statistics degraded", "err", err)
	} else {
		stats.Graph = graph
	}

	cache, err := e.stores.Cache.Stats(ctx)
	if err != nil {
		logger.Warn("Cache statistics degraded", "err", err)
	} else {
		stats.Cache = cache
	}

	stats.Summary = SystemSummary{
		TotalEntities:    stats.Documents.Researchers + stats.Documents.Projects + stats.Documents.Publications,
		CacheHitRate:     stats.Cache.HitRate,
		AnalyticsEnabled: e.stores.Analytics.Available(),
	}
	if stats.Documents.Researchers > 0 {
		stats.Summary.GraphCoverage = float64(stats.Graph.TotalResearchers) / float64(stats.Documents.Researchers)
	}
	return stats, nil
}

// DepartmentReport is the on-demand analytics view for one department.
type DepartmentReport struct {
	DepartmentID       string                   `json:"department_id"`
	ResearcherCount    int                      `json:"researcher_count"`
	TotalPublications  int                      `json:"total_publications"`
	TotalCitations     int64                    `json:"total_citations"`
	AvgHIndex          float64                  `json:"avg_h_index"`
	ActiveProjects     int                      `json:"active_projects"`
	RecentPublications int                      `json:"recent_publications"`
	Collaboration      DepartmentCollaboration  `json:"collaboration"`
	TopResearchers     []model.Researcher       `json:"top_researchers"`
	ResearchAreas      map[string]int           `json:"research_areas"`
	TimeSeries         []store.DepartmentRollup `json:"time_series"`
}

type DepartmentCollaboration struct {
	InternalPairs int     `json:"internal_pairs"`
	TotalStrength int64   `json:"total_strength"`
	Rate          float64 `json:"collaboration_rate"`
}

// DepartmentAnalytics assembles the live department report from the
// document and graph stores, with the Cassandra time series appended when
// available. Graph and time-series failures degrade to empty sections.
func (e *Engine) DepartmentAnalytics(ctx context.Context, departmentID string, days int) (DepartmentReport, error) {
	report := DepartmentReport{
		DepartmentID:   departmentID,
		TopResearchers: []model.Researcher{},
		ResearchAreas:  map[string]int{},
		TimeSeries:     []store.DepartmentRollup{},
	}

	roster, err := e.departmentRoster(ctx, departmentID)
	if err != nil {
		return DepartmentReport{}, err
	}
	report.ResearcherCount = len(roster)

	ids := make([]string, 0, len(roster))
	var hSum int
	for _, r := range roster {
		ids = append(ids, r.ID)
		hSum += r.CollaborationMetrics.HIndex
		report.TotalPublications += r.CollaborationMetrics.TotalPublications
		report.TotalCitations += int64(r.CollaborationMetrics.CitationCount)
	}
	if len(roster) > 0 {
		report.AvgHIndex = float64(hSum) / float64(len(roster))
	}

	report.ActiveProjects, err = e.departmentActiveProjects(ctx, ids)
	if err != nil {
		logger.Warn("Department project count degraded", "department", departmentID, "err", err)
	}

	report.RecentPublications, err = e.departmentRecentPublications(ctx, ids, 30)
	if err != nil {
		logger.Warn("Department publication count degraded", "department", departmentID, "err", err)
	}

	pairs, err := e.stores.Graph.PairsAmong(ctx, ids, store.RelCoAuthored, len(ids)*len(ids))
	if err != nil {
		logger.Warn("Department collaboration section degraded", "department", departmentID, "err", err)
	} else {
		report.Collaboration = collaborationSummary(pairs, len(ids))
	}

	top := make([]model.Researcher, len(roster))
	copy(top, roster)
	sortResearchers(top, "h_index", false)
	if len(top) > 5 {
		top = top[:5]
	}
	report.TopResearchers = top

	for _, r := range roster {
		for _, area := range r.ResearchInterests {
			report.ResearchAreas[area]++
		}
	}

	series, err := e.stores.Analytics.DepartmentAnalytics(ctx, departmentID, days)
	if err != nil {
		logger.Warn("Department time series degraded", "department", departmentID, "err", err)
	} else {
		report.TimeSeries = series
	}

	return report, nil
}

// ComputeDepartmentRollup builds the daily analytics row for a department,
// for the nightly rollup job.
func (e *Engine) ComputeDepartmentRollup(ctx context.Context, departmentID string) (store.DepartmentRollup, error) {
	roster, err := e.departmentRoster(ctx, departmentID)
	if err != nil {
		return store.DepartmentRollup{}, err
	}

	row := store.DepartmentRollup{
		DepartmentID:      departmentID,
		AnalyticsDate:     time.Now().UTC().Truncate(24 * time.Hour),
		ActiveResearchers: len(roster),
	}

	ids := make([]string, 0, len(roster))
	var hSum int
	for _, r := range roster {
		ids = append(ids, r.ID)
		hSum += r.CollaborationMetrics.HIndex
		row.TotalPublications += r.CollaborationMetrics.TotalPublications
		row.TotalCitations += int64(r.CollaborationMetrics.CitationCount)
	}
	if len(roster) > 0 {
		row.AvgHIndex = float64(hSum) / float64(len(roster))
	}

	row.ProjectCount, err = e.departmentActiveProjects(ctx, ids)
	if err != nil {
		return store.DepartmentRollup{}, err
	}
	row.FundingTotal, err = e.departmentFunding(ctx, ids)
	if err != nil {
		return store.DepartmentRollup{}, err
	}

	pairs, err := e.stores.Graph.PairsAmong(ctx, ids, store.RelCoAuthored, len(ids)*len(ids))
	if err != nil {
		logger.Warn("Rollup collaboration rate degraded", "department", departmentID, "err", err)
	} else {
		row.CollaborationRate = collaborationSummary(pairs, len(ids)).Rate
	}
	return row, nil
}

// ListDepartments enumerates the distinct department ids present in the
// researcher collection.
func (e *Engine) ListDepartments(ctx context.Context) ([]string, error) {
	docs, err := e.stores.Documents.Search(ctx, model.CollectionResearchers, bson.M{}, 0)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, doc := range docs {
		var r model.Researcher
		if err := model.FromDoc(doc, &r); err != nil {
			continue
		}
		if r.AcademicProfile.DepartmentID != "" {
			seen[r.AcademicProfile.DepartmentID] = true
		}
	}

	departments := make([]string, 0, len(seen))
	for id := range seen {
		departments = append(departments, id)
	}
	sort.Strings(departments)
	return departments, nil
}

func (e *Engine) departmentRoster(ctx context.Context, departmentID string) ([]model.Researcher, error) {
	docs, err := e.stores.Documents.Search(ctx, model.CollectionResearchers,
		bson.M{"academic_profile.department_id": departmentID}, 0)
	if err != nil {
		return nil, fmt.Errorf("department roster %s: %w", departmentID, err)
	}
	roster := make([]model.Researcher, 0, len(docs))
	for _, doc := range docs {
		var r model.Researcher
		if err := model.FromDoc(doc, &r); err != nil {
			logger.Warn("Skipping undecodable researcher", "err", err)
			continue
		}
		roster = append(roster, r)
	}
	return roster, nil
}

func (e *Engine) departmentActiveProjects(ctx context.Context, researcherIDs []string) (int, error) {
	if len(researcherIDs) == 0 {
		return 0, nil
	}
	count, err := e.stores.Documents.Count(ctx, model.CollectionProjects, bson.M{
		"status": model.ProjectStatusActive,
		"$or":    participantClauses(researcherIDs),
	})
	return int(count), err
}

func (e *Engine) departmentFunding(ctx context.Context, researcherIDs []string) (float64, error) {
	if len(researcherIDs) == 0 {
		return 0, nil
	}
	docs, err := e.stores.Documents.Search(ctx, model.CollectionProjects, bson.M{
		"status": model.ProjectStatusActive,
		"$or":    participantClauses(researcherIDs),
	}, 0)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, doc := range docs {
		var p model.Project
		if err := model.FromDoc(doc, &p); err != nil {
			continue
		}
		total += p.Funding.Amount
	}
	return total, nil
}

func (e *Engine) departmentRecentPublications(ctx context.Context, researcherIDs []string, days int) (int, error) {
	if len(researcherIDs) == 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	count, err := e.stores.Documents.Count(ctx, model.CollectionPublications, bson.M{
		"authors.researcher_id":               bson.M{"$in": researcherIDs},
		"bibliographic_info.publication_date": bson.M{"$gte": cutoff},
	})
	return int(count), err
}

func participantClauses(researcherIDs []string) []bson.M {
	in := bson.M{"$in": researcherIDs}
	return []bson.M{
		{"participants.principal_investigators.researcher_id": in},
		{"participants.co_investigators.researcher_id": in},
		{"participants.research_assistants.researcher_id": in},
	}
}

// collaborationSummary reduces the deduplicated pair list against the
// number of possible pairs in an n-member roster.
func collaborationSummary(pairs []store.CollaborationPair, rosterSize int) DepartmentCollaboration {
	summary := DepartmentCollaboration{InternalPairs: len(pairs)}
	for _, pair := range pairs {
		summary.TotalStrength += pair.Strength
	}
	if possible := rosterSize * (rosterSize - 1) / 2; possible > 0 {
		summary.Rate = float64(len(pairs)) / float64(possible)
	}
	return summary
}
