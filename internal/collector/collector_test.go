package collector

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/suportedesk/backend/internal/models"
	"github.com/suportedesk/backend/internal/period"
)

type fakeSource struct {
	supervisors []models.Supervisor
	records     map[string][]models.AttendanceRecord
	failFor     map[string]bool
	listErr     error
}

func (f *fakeSource) ListSupervisors(ctx context.Context) ([]models.Supervisor, error) {
	return f.supervisors, f.listErr
}

func (f *fakeSource) ListAttendances(ctx context.Context, supervisorID string, from, to time.Time) ([]models.AttendanceRecord, error) {
	if f.failFor[supervisorID] {
		return nil, errors.New("connection reset")
	}
	var out []models.AttendanceRecord
	for _, r := range f.records[supervisorID] {
		if !r.CreatedAt.Before(from) && !r.CreatedAt.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) CountAttendances(ctx context.Context, from, to time.Time) (int, error) {
	count := 0
	for _, recs := range f.records {
		for _, r := range recs {
			if !r.CreatedAt.Before(from) && !r.CreatedAt.After(to) {
				count++
			}
		}
	}
	return count, nil
}

func seedRecords(supervisorID, agent string, day time.Time, n int) []models.AttendanceRecord {
	out := make([]models.AttendanceRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.AttendanceRecord{
			ID:           supervisorID + agent + day.Format("0102") + string(rune('a'+i)),
			CreatedAt:    day.Add(time.Duration(i) * time.Hour),
			AgentName:    agent,
			SupervisorID: supervisorID,
		})
	}
	return out
}

func newCollector(src AttendanceSource) *Collector {
	return &Collector{Source: src, Cfg: DefaultConfig(), Logger: zerolog.Nop()}
}

func TestCollectComparativeMetrics(t *testing.T) {
	ref := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	current, previous := period.Compute(ref)

	src := &fakeSource{
		supervisors: []models.Supervisor{{ID: "s1", Name: "Carla", Role: "supervisor"}},
		records:     map[string][]models.AttendanceRecord{},
	}
	curDay := current.Start.Add(12 * time.Hour)
	prevDay := previous.Start.Add(12 * time.Hour)
	src.records["s1"] = append(src.records["s1"], seedRecords("s1", "Ana", curDay, 8)...)
	src.records["s1"] = append(src.records["s1"], seedRecords("s1", "Bruno", curDay, 4)...)
	src.records["s1"] = append(src.records["s1"], seedRecords("s1", "Caio", curDay, 3)...)
	src.records["s1"] = append(src.records["s1"], seedRecords("s1", "Ana", prevDay, 10)...)

	snap, err := newCollector(src).Collect(context.Background(), current, previous)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(snap.Supervisors) != 1 {
		t.Fatalf("expected 1 supervisor, got %d", len(snap.Supervisors))
	}
	sm := snap.Supervisors[0]
	if sm.CurrentTotal != 15 || sm.PreviousTotal != 10 {
		t.Fatalf("totals = %d/%d, want 15/10", sm.CurrentTotal, sm.PreviousTotal)
	}
	if sm.AbsoluteChange != 5 || sm.PercentChange != 50.0 {
		t.Fatalf("change = %d (%+.1f%%), want +5 (+50.0%%)", sm.AbsoluteChange, sm.PercentChange)
	}
	if len(sm.Agents) != 3 || sm.Agents[0].AgentName != "Ana" || sm.Agents[0].CurrentCount != 8 {
		t.Fatalf("agents = %+v", sm.Agents)
	}
	if snap.Global.CurrentTotal != 15 || snap.Global.PreviousTotal != 10 {
		t.Fatalf("global = %+v", snap.Global)
	}
	if snap.Global.Trend != models.TrendGrowth {
		t.Fatalf("trend = %s, want growth", snap.Global.Trend)
	}
}

func TestCollectSupervisorFailureIsolated(t *testing.T) {
	ref := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	current, previous := period.Compute(ref)

	src := &fakeSource{
		supervisors: []models.Supervisor{
			{ID: "s1", Name: "Carla", Role: "supervisor"},
			{ID: "s2", Name: "Diego", Role: "coordenador"},
		},
		records: map[string][]models.AttendanceRecord{
			"s2": seedRecords("s2", "Eva", current.Start.Add(time.Hour), 2),
		},
		failFor: map[string]bool{"s1": true},
	}

	snap, err := newCollector(src).Collect(context.Background(), current, previous)
	if err != nil {
		t.Fatalf("expected isolated failure, got %v", err)
	}
	if len(snap.Supervisors) != 1 || snap.Supervisors[0].SupervisorID != "s2" {
		t.Fatalf("expected only s2 collected, got %+v", snap.Supervisors)
	}
	if len(snap.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", snap.Warnings)
	}
	if snap.Global.CurrentTotal != 2 {
		t.Fatalf("global total = %d", snap.Global.CurrentTotal)
	}
}

func TestCollectStoreUnreachableFatal(t *testing.T) {
	src := &fakeSource{listErr: errors.New("dial tcp: refused")}
	current, previous := period.Compute(time.Now())

	_, err := newCollector(src).Collect(context.Background(), current, previous)
	var dae *DataAccessError
	if !errors.As(err, &dae) {
		t.Fatalf("expected DataAccessError, got %v", err)
	}
}

func TestCollectZeroTickets(t *testing.T) {
	current, previous := period.Compute(time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC))
	src := &fakeSource{
		supervisors: []models.Supervisor{{ID: "s1", Name: "Carla", Role: "supervisor"}},
		records:     map[string][]models.AttendanceRecord{},
	}

	snap, err := newCollector(src).Collect(context.Background(), current, previous)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	sm := snap.Supervisors[0]
	if sm.PercentChange != 0 {
		t.Fatalf("percent change = %v, want 0", sm.PercentChange)
	}
	if len(sm.Agents) != 0 {
		t.Fatalf("expected no agents, got %+v", sm.Agents)
	}
	if snap.Global.Trend != models.TrendStable {
		t.Fatalf("trend = %s, want stable", snap.Global.Trend)
	}
}

func TestCollectDeterministic(t *testing.T) {
	ref := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	current, previous := period.Compute(ref)
	src := &fakeSource{
		supervisors: []models.Supervisor{{ID: "s1", Name: "Carla", Role: "supervisor"}},
		records: map[string][]models.AttendanceRecord{
			"s1": append(
				seedRecords("s1", "Ana", current.Start.Add(time.Hour), 3),
				seedRecords("s1", "Bruno", current.Start.Add(2*time.Hour), 3)...,
			),
		},
	}

	c := newCollector(src)
	first, err := c.Collect(context.Background(), current, previous)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	second, err := c.Collect(context.Background(), current, previous)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("snapshots differ:\n%+v\n%+v", first, second)
	}
}

func TestPercentChange(t *testing.T) {
	cases := []struct {
		current, previous int
		want              float64
	}{
		{0, 0, 0},
		{5, 0, 100},
		{15, 10, 50.0},
		{7, 10, -30.0},
		{10, 3, 233.3},
	}
	for _, tc := range cases {
		if got := PercentChange(tc.current, tc.previous); got != tc.want {
			t.Errorf("PercentChange(%d, %d) = %v, want %v", tc.current, tc.previous, got, tc.want)
		}
	}
}
