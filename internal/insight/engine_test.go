package insight

import (
	"strings"
	"testing"

	"github.com/suportedesk/backend/internal/models"
)

func TestClassifyAgent(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	cases := []struct {
		name   string
		metric models.AgentMetric
		want   models.RiskLevel
	}{
		{"above critical count", models.AgentMetric{CurrentCount: 9}, models.RiskCritical},
		{"mid band stable", models.AgentMetric{CurrentCount: 7, ChangePercent: 40}, models.RiskAttention},
		{"mid band exploding", models.AgentMetric{CurrentCount: 7, PreviousCount: 2, ChangePercent: 250}, models.RiskCritical},
		{"mid band collapsing", models.AgentMetric{CurrentCount: 7, PreviousCount: 20, ChangePercent: -65}, models.RiskAttention},
		{"low and shrinking", models.AgentMetric{CurrentCount: 2, PreviousCount: 4, Change: -2}, models.RiskAutonomous},
		{"low and flat", models.AgentMetric{CurrentCount: 1, PreviousCount: 1, Change: 0}, models.RiskAutonomous},
		{"low but growing", models.AgentMetric{CurrentCount: 2, PreviousCount: 1, Change: 1}, models.RiskAttention},
		{"middle ground", models.AgentMetric{CurrentCount: 4, PreviousCount: 4}, models.RiskAttention},
	}
	for _, tc := range cases {
		if got := e.ClassifyAgent(tc.metric); got != tc.want {
			t.Errorf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestGeneralAutonomyBounds(t *testing.T) {
	if got := GeneralAutonomy(nil); got != 0 {
		t.Fatalf("no supervisors: got %v, want 0", got)
	}

	sups := []models.SupervisorMetric{{
		Agents: []models.AgentMetric{
			{Risk: models.RiskAutonomous},
			{Risk: models.RiskAutonomous},
			{Risk: models.RiskCritical},
		},
	}}
	if got := GeneralAutonomy(sups); got != 66.7 {
		t.Fatalf("got %v, want 66.7", got)
	}
	if got := GeneralAutonomy(sups); got < 0 || got > 100 {
		t.Fatalf("autonomy out of range: %v", got)
	}
}

func TestConcentrationInsight(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	snap := models.Snapshot{
		Supervisors: []models.SupervisorMetric{{
			SupervisorName: "Carla",
			CurrentTotal:   15,
			Agents: []models.AgentMetric{
				{AgentName: "Ana", CurrentCount: 8},
				{AgentName: "Bruno", CurrentCount: 4},
				{AgentName: "Caio", CurrentCount: 3},
			},
		}},
	}
	e.Annotate(&snap)

	insights := e.Insights(snap)
	var found bool
	for _, in := range insights {
		if in.Kind == models.InsightPattern && strings.Contains(in.Text, "Ana") && strings.Contains(in.Text, "53.3%") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected concentration insight naming Ana with 53.3%%, got %+v", insights)
	}
}

func TestConcentrationRequiresTwoAgents(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	snap := models.Snapshot{
		Supervisors: []models.SupervisorMetric{{
			SupervisorName: "Carla",
			CurrentTotal:   5,
			Agents:         []models.AgentMetric{{AgentName: "Ana", CurrentCount: 5}},
		}},
	}
	for _, in := range e.Insights(snap) {
		if in.Kind == models.InsightPattern {
			t.Fatalf("single-agent team should not emit concentration: %+v", in)
		}
	}
}

func TestRankPrefersAutonomyThenLowerVolume(t *testing.T) {
	sups := []models.SupervisorMetric{
		{SupervisorName: "Alta carga", CurrentTotal: 30, Agents: []models.AgentMetric{
			{Risk: models.RiskAutonomous}, {Risk: models.RiskAutonomous},
		}},
		{SupervisorName: "Baixa carga", CurrentTotal: 4, Agents: []models.AgentMetric{
			{Risk: models.RiskAutonomous}, {Risk: models.RiskAutonomous},
		}},
		{SupervisorName: "Crítica", CurrentTotal: 10, Agents: []models.AgentMetric{
			{Risk: models.RiskCritical}, {Risk: models.RiskAttention},
		}},
	}
	ranked := Rank(sups)
	if ranked[0].SupervisorName != "Baixa carga" {
		t.Fatalf("expected tie broken toward lower volume, got %s first", ranked[0].SupervisorName)
	}
	if ranked[2].SupervisorName != "Crítica" {
		t.Fatalf("expected lowest autonomy last, got %s", ranked[2].SupervisorName)
	}
}

func TestInsightsEmptySnapshot(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	if got := e.Insights(models.Snapshot{}); len(got) != 0 {
		t.Fatalf("expected empty insight set, got %+v", got)
	}
}

func TestCriticalAlertOrdering(t *testing.T) {
	e := NewEngine(DefaultThresholds())
	snap := models.Snapshot{
		Supervisors: []models.SupervisorMetric{{
			SupervisorName: "Carla",
			CurrentTotal:   31,
			Agents: []models.AgentMetric{
				{AgentName: "Ana", CurrentCount: 9},
				{AgentName: "Bruno", CurrentCount: 12},
				{AgentName: "Caio", CurrentCount: 10},
			},
		}},
	}
	e.Annotate(&snap)

	var alerts []string
	for _, in := range e.Insights(snap) {
		if in.Kind == models.InsightAlert {
			alerts = append(alerts, in.Text)
		}
	}
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(alerts))
	}
	if !strings.HasPrefix(alerts[0], "Bruno") || !strings.HasPrefix(alerts[1], "Caio") || !strings.HasPrefix(alerts[2], "Ana") {
		t.Fatalf("alerts not ordered by volume: %v", alerts)
	}
}
