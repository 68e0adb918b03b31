package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/atlas-collab/atlas/backend/internal/store"
)

type recordingAnalytics struct {
	rows    []store.PublicationMetricsRow
	failure error
}

func (r *recordingAnalytics) Available() bool { return true }

func (r *recordingAnalytics) InsertPublicationMetrics(_ context.Context, row store.PublicationMetricsRow) error {
	if r.failure != nil {
		return r.failure
	}
	r.rows = append(r.rows, row)
	return nil
}

func (r *recordingAnalytics) InsertDepartmentRollup(context.Context, store.DepartmentRollup) error {
	return nil
}

func (r *recordingAnalytics) DepartmentAnalytics(context.Context, string, int) ([]store.DepartmentRollup, error) {
	return nil, nil
}

func TestProcessMetricsMessage(t *testing.T) {
	analytics := &recordingAnalytics{}
	row := store.PublicationMetricsRow{
		PublicationID: "pub-1",
		MetricDate:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		CitationCount: 12,
	}
	body, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err := ProcessMetricsMessage(context.Background(), analytics, body); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(analytics.rows) != 1 || analytics.rows[0].PublicationID != "pub-1" {
		t.Fatalf("row not ingested: %+v", analytics.rows)
	}
	if analytics.rows[0].CitationCount != 12 {
		t.Fatalf("counters lost: %+v", analytics.rows[0])
	}
}

func TestProcessMetricsMessageFillsMissingDate(t *testing.T) {
	analytics := &recordingAnalytics{}
	body := []byte(`{"publication_id":"pub-2","citation_count":3}`)

	if err := ProcessMetricsMessage(context.Background(), analytics, body); err != nil {
		t.Fatalf("process: %v", err)
	}
	if analytics.rows[0].MetricDate.IsZero() {
		t.Fatalf("metric date not defaulted")
	}
}

func TestProcessMetricsMessageRejectsGarbage(t *testing.T) {
	analytics := &recordingAnalytics{}

	if err := ProcessMetricsMessage(context.Background(), analytics, []byte("not json")); err == nil {
		t.Fatalf("expected decode error")
	}
	if err := ProcessMetricsMessage(context.Background(), analytics, []byte(`{}`)); err == nil {
		t.Fatalf("expected missing id rejection")
	}
	if len(analytics.rows) != 0 {
		t.Fatalf("garbage ingested: %+v", analytics.rows)
	}
}
