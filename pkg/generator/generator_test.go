package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lirany1/test-metrics-charts/pkg/metrics"
	"github.com/lirany1/test-metrics-charts/pkg/models"
	"github.com/lirany1/test-metrics-charts/pkg/transform"
)

type stubFetcher struct {
	table models.RawTable
	err   error
	calls int
}

func (f *stubFetcher) FetchTimeseries(ctx context.Context, q models.Query) (models.RawTable, error) {
	f.calls++
	return f.table, f.err
}

type stubHistory struct {
	saved []models.Query
	err   error
}

func (h *stubHistory) SaveSnapshot(q models.Query, columns models.RawTable, fetchedAt time.Time) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	h.saved = append(h.saved, q)
	return "snap-1", nil
}

var query = models.Query{Type: "timeseries", Release: "settlers", Build: "100", About: "status"}

func goodTable() models.RawTable {
	return models.RawTable{
		{"date", "2020-01-01", "2020-01-02"},
		{"passed", "3", "5"},
		{"failed", "1", "0"},
	}
}

func TestGenerator_Generate(t *testing.T) {
	fetcher := &stubFetcher{table: goodTable()}
	history := &stubHistory{}
	gen := NewGenerator(fetcher, models.DefaultStyleTable(), history)

	report, err := gen.Generate(context.Background(), query)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(report.Series) != 2 {
		t.Errorf("len(Series) = %v, want 2", len(report.Series))
	}
	if report.SnapshotID != "snap-1" {
		t.Errorf("SnapshotID = %v, want snap-1", report.SnapshotID)
	}
	if len(history.saved) != 1 || history.saved[0] != query {
		t.Errorf("history saved %v", history.saved)
	}
	if report.Summary == nil || report.Summary.PassRate != 100 {
		t.Errorf("Summary = %+v, want pass rate 100", report.Summary)
	}
}

func TestGenerator_HistoryFailureIsNotFatal(t *testing.T) {
	gen := NewGenerator(&stubFetcher{table: goodTable()}, models.DefaultStyleTable(), &stubHistory{err: errors.New("disk full")})

	report, err := gen.Generate(context.Background(), query)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if report.SnapshotID != "" {
		t.Errorf("SnapshotID = %v, want empty", report.SnapshotID)
	}
}

func TestGenerator_NilHistory(t *testing.T) {
	gen := NewGenerator(&stubFetcher{table: goodTable()}, models.DefaultStyleTable(), nil)

	if _, err := gen.Generate(context.Background(), query); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
}

func TestGenerator_Errors(t *testing.T) {
	t.Run("remote error", func(t *testing.T) {
		fetcher := &stubFetcher{err: &metrics.RemoteError{URL: "http://x", StatusCode: 503, Err: errors.New("down")}}
		gen := NewGenerator(fetcher, models.DefaultStyleTable(), nil)

		_, err := gen.Generate(context.Background(), query)
		var remoteErr *metrics.RemoteError
		if !errors.As(err, &remoteErr) {
			t.Errorf("error = %v, want *metrics.RemoteError", err)
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		table := goodTable()
		table[2][0] = "skipped"
		gen := NewGenerator(&stubFetcher{table: table}, models.DefaultStyleTable(), nil)

		report, err := gen.Generate(context.Background(), query)
		if report != nil {
			t.Error("expected no report on transform failure")
		}
		var unknown *transform.UnknownCategoryError
		if !errors.As(err, &unknown) {
			t.Errorf("error = %v, want *transform.UnknownCategoryError", err)
		}
	})
}
