package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/atlas-collab/atlas/backend/internal/util"
)

// cassandraStore implements AnalyticsStore on Cassandra.
type cassandraStore struct {
	session  *gocql.Session
	keyspace string
}

func newCassandraStore(ctx context.Context, hosts []string, port int, keyspace string) (*cassandraStore, error) {
	if len(hosts) == 0 {
		return nil, fmt.Errorf("no cassandra hosts configured")
	}

	var session *gocql.Session
	err := util.RetryErrWithBackoff(ctx, 5, 5*time.Second, func(context.Context) error {
		setup := gocql.NewCluster(hosts...)
		setup.Port = port
		setup.ConnectTimeout = 10 * time.Second
		setup.Consistency = gocql.Quorum

		// Bootstrap session without a keyspace so we can create it.
		bootstrap, err := setup.CreateSession()
		if err != nil {
			return fmt.Errorf("cassandra connect: %w", err)
		}
		err = bootstrap.Query(fmt.Sprintf(`
			CREATE KEYSPACE IF NOT EXISTS %s
			WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}
		`, keyspace)).Exec()
		bootstrap.Close()
		if err != nil {
			return fmt.Errorf("cassandra create keyspace: %w", err)
		}

		setup.Keyspace = keyspace
		session, err = setup.CreateSession()
		if err != nil {
			return fmt.Errorf("cassandra connect keyspace: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s := &cassandraStore{session: session, keyspace: keyspace}
	if err := s.ensureTables(); err != nil {
		session.Close()
		return nil, err
	}
	return s, nil
}

func (c *cassandraStore) ensureTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS publication_metrics (
			publication_id text,
			metric_date date,
			citation_count int,
			download_count int,
			view_count int,
			h_index_contribution int,
			PRIMARY KEY (publication_id, metric_date)
		)`,
		`CREATE TABLE IF NOT EXISTS department_analytics (
			department_id text,
			analytics_date date,
			active_researchers int,
			total_publications int,
			total_citations bigint,
			avg_h_index double,
			collaboration_rate double,
			project_count int,
			funding_total double,
			PRIMARY KEY (department_id, analytics_date)
		) WITH CLUSTERING ORDER BY (analytics_date DESC)`,
	}
	for _, table := range tables {
		if err := c.session.Query(table).Exec(); err != nil {
			return fmt.Errorf("cassandra create table: %w", err)
		}
	}
	return nil
}

func (c *cassandraStore) close(context.Context) error {
	c.session.Close()
	return nil
}

func (c *cassandraStore) Available() bool {
	return true
}

func (c *cassandraStore) InsertPublicationMetrics(ctx context.Context, row PublicationMetricsRow) error {
	err := c.session.Query(`
		INSERT INTO publication_metrics
			(publication_id, metric_date, citation_count, download_count, view_count, h_index_contribution)
		VALUES (?, ?, ?, ?, ?, ?)
	`, row.PublicationID, row.MetricDate, row.CitationCount, row.DownloadCount,
		row.ViewCount, row.HIndexContribution).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("insert publication metrics %s: %w", row.PublicationID, err)
	}
	return nil
}

func (c *cassandraStore) InsertDepartmentRollup(ctx context.Context, row DepartmentRollup) error {
	err := c.session.Query(`
		INSERT INTO department_analytics
			(department_id, analytics_date, active_researchers, total_publications,
			 total_citations, avg_h_index, collaboration_rate, project_count, funding_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, row.DepartmentID, row.AnalyticsDate, row.ActiveResearchers, row.TotalPublications,
		row.TotalCitations, row.AvgHIndex, row.CollaborationRate, row.ProjectCount,
		row.FundingTotal).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("insert department rollup %s: %w", row.DepartmentID, err)
	}
	return nil
}

func (c *cassandraStore) DepartmentAnalytics(ctx context.Context, departmentID string, days int) ([]DepartmentRollup, error) {
	if days < 1 {
		days = 30
	}
	startDate := time.Now().UTC().AddDate(0, 0, -days)

	iter := c.session.Query(`
		SELECT department_id, analytics_date, active_researchers, total_publications,
		       total_citations, avg_h_index, collaboration_rate, project_count, funding_total
		FROM department_analytics
		WHERE department_id = ? AND analytics_date >= ?
		ORDER BY analytics_date DESC
	`, departmentID, startDate).WithContext(ctx).Iter()

	rollups := make([]DepartmentRollup, 0)
	var row DepartmentRollup
	for iter.Scan(&row.DepartmentID, &row.AnalyticsDate, &row.ActiveResearchers,
		&row.TotalPublications, &row.TotalCitations, &row.AvgHIndex,
		&row.CollaborationRate, &row.ProjectCount, &row.FundingTotal) {
		rollups = append(rollups, row)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("department analytics %s: %w", departmentID, err)
	}
	return rollups, nil
}

// disabledAnalytics stands in when Cassandra could not be reached at startup.
// Writes are dropped and reads come back empty.
type disabledAnalytics struct{}

func (disabledAnalytics) Available() bool { return false }

func (disabledAnalytics) InsertPublicationMetrics(context.Context, PublicationMetricsRow) error {
	return nil
}

func (disabledAnalytics) InsertDepartmentRollup(context.Context, DepartmentRollup) error {
	return nil
}

func (disabledAnalytics) DepartmentAnalytics(context.Context, string, int) ([]DepartmentRollup, error) {
	return []DepartmentRollup{}, nil
}
