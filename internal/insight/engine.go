// Package insight derives deterministic, rule-based findings from the
// collected snapshot. Nothing here touches the network and nothing here
// can abort a run; the worst case is an empty insight set.
package insight

import (
	"fmt"
	"math"
	"sort"

	"github.com/suportedesk/backend/internal/models"
)

// Thresholds are the domain-tuned risk constants. They are data, not
// algorithm: tune them here without touching classification code.
type Thresholds struct {
	// CriticalCount: weekly volume strictly above this is critical.
	CriticalCount int
	// AttentionCount: volume strictly above this (up to CriticalCount) is
	// attention, escalated to critical when the variation magnitude
	// exceeds CriticalVariationPercent.
	AttentionCount int
	// AutonomousMaxCount: volume at or below this with no growth is
	// autonomous.
	AutonomousMaxCount int

	CriticalVariationPercent  float64
	ConcentrationSharePercent float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalCount:             8,
		AttentionCount:            6,
		AutonomousMaxCount:        2,
		CriticalVariationPercent:  100,
		ConcentrationSharePercent: 35,
	}
}

type Engine struct {
	Th Thresholds
}

func NewEngine(th Thresholds) *Engine {
	return &Engine{Th: th}
}

// ClassifyAgent assigns the risk level for one agent.
func (e *Engine) ClassifyAgent(m models.AgentMetric) models.RiskLevel {
	switch {
	case m.CurrentCount > e.Th.CriticalCount:
		return models.RiskCritical
	case m.CurrentCount > e.Th.AttentionCount:
		if math.Abs(m.ChangePercent) > e.Th.CriticalVariationPercent {
			return models.RiskCritical
		}
		return models.RiskAttention
	case m.CurrentCount <= e.Th.AutonomousMaxCount && m.Change <= 0:
		return models.RiskAutonomous
	default:
		return models.RiskAttention
	}
}

// Annotate fills the Risk field of every agent metric in the snapshot.
func (e *Engine) Annotate(snap *models.Snapshot) {
	for i := range snap.Supervisors {
		for j := range snap.Supervisors[i].Agents {
			agent := &snap.Supervisors[i].Agents[j]
			agent.Risk = e.ClassifyAgent(*agent)
		}
	}
}

// GeneralAutonomy is the share of agents classified autonomous across all
// supervisors, as a percentage with one decimal. Zero agents yields 0.
func GeneralAutonomy(supervisors []models.SupervisorMetric) float64 {
	total, autonomous := 0, 0
	for _, sm := range supervisors {
		for _, a := range sm.Agents {
			total++
			if a.Risk == models.RiskAutonomous {
				autonomous++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return round1(float64(autonomous) / float64(total) * 100)
}

// SupervisorAutonomy is GeneralAutonomy for a single team.
func SupervisorAutonomy(sm models.SupervisorMetric) float64 {
	return GeneralAutonomy([]models.SupervisorMetric{sm})
}

// Rank orders supervisors by autonomy rate descending; ties go to the
// lower current volume, rewarding efficiency over raw output.
func Rank(supervisors []models.SupervisorMetric) []models.SupervisorMetric {
	ranked := make([]models.SupervisorMetric, len(supervisors))
	copy(ranked, supervisors)
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := SupervisorAutonomy(ranked[i]), SupervisorAutonomy(ranked[j])
		if ri == rj {
			return ranked[i].CurrentTotal < ranked[j].CurrentTotal
		}
		return ri > rj
	})
	return ranked
}

// TopAgentShare reports the leading agent's share of the supervisor's
// current volume. ok is false when the supervisor has no volume.
func TopAgentShare(sm models.SupervisorMetric) (models.AgentMetric, float64, bool) {
	if sm.CurrentTotal == 0 || len(sm.Agents) == 0 {
		return models.AgentMetric{}, 0, false
	}
	top := sm.Agents[0]
	for _, a := range sm.Agents[1:] {
		if a.CurrentCount > top.CurrentCount {
			top = a
		}
	}
	return top, round1(float64(top.CurrentCount) / float64(sm.CurrentTotal) * 100), true
}

// Insights derives the full rule-based set: per-agent alerts,
// concentration patterns, the supervisor ranking and trend
// recommendations. Annotate must run first.
func (e *Engine) Insights(snap models.Snapshot) []models.Insight {
	var out []models.Insight

	type flagged struct {
		agent      models.AgentMetric
		supervisor string
	}
	var criticals []flagged
	for _, sm := range snap.Supervisors {
		for _, a := range sm.Agents {
			if a.Risk == models.RiskCritical {
				criticals = append(criticals, flagged{agent: a, supervisor: sm.SupervisorName})
			}
		}
	}
	sort.Slice(criticals, func(i, j int) bool {
		if criticals[i].agent.CurrentCount == criticals[j].agent.CurrentCount {
			return criticals[i].agent.AgentName < criticals[j].agent.AgentName
		}
		return criticals[i].agent.CurrentCount > criticals[j].agent.CurrentCount
	})
	for _, f := range criticals {
		out = append(out, models.Insight{
			Kind: models.InsightAlert,
			Text: fmt.Sprintf("%s (equipe %s): %d atendimentos na semana (%+.1f%%) — acompanhamento imediato",
				f.agent.AgentName, f.supervisor, f.agent.CurrentCount, f.agent.ChangePercent),
		})
	}

	for _, sm := range snap.Supervisors {
		if len(sm.Agents) < 2 || sm.CurrentTotal == 0 {
			continue
		}
		top, share, ok := TopAgentShare(sm)
		if ok && share >= e.Th.ConcentrationSharePercent {
			out = append(out, models.Insight{
				Kind: models.InsightPattern,
				Text: fmt.Sprintf("Concentração na equipe %s: %s responde por %.1f%% dos atendimentos",
					sm.SupervisorName, top.AgentName, share),
			})
		}
	}

	if len(snap.Supervisors) > 1 {
		ranked := Rank(snap.Supervisors)
		text := "Ranking de autonomia:"
		for i, sm := range ranked {
			text += fmt.Sprintf(" %dº %s (%.1f%%, %d atendimentos)",
				i+1, sm.SupervisorName, SupervisorAutonomy(sm), sm.CurrentTotal)
			if i < len(ranked)-1 {
				text += ";"
			}
		}
		out = append(out, models.Insight{Kind: models.InsightRanking, Text: text})
	}

	switch snap.Global.Trend {
	case models.TrendGrowth:
		out = append(out, models.Insight{
			Kind: models.InsightRecommendation,
			Text: fmt.Sprintf("Volume geral em crescimento (%+.1f%%): revisar capacidade das equipes na próxima semana", snap.Global.ChangePercent),
		})
	case models.TrendDecline:
		out = append(out, models.Insight{
			Kind: models.InsightRecommendation,
			Text: fmt.Sprintf("Volume geral em queda (%+.1f%%): consolidar as práticas que reduziram escalações", snap.Global.ChangePercent),
		})
	}

	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
