// Package analysis merges the rule-based insights and the interpreted
// model output into the four report blocks. Composition cannot fail:
// every sub-section has a defined default when its inputs are empty.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/suportedesk/backend/internal/insight"
	"github.com/suportedesk/backend/internal/models"
)

// Params are the composition ladder constants, kept as data so they can
// be tuned without touching the ladder itself.
type Params struct {
	// DeteriorationPercent: global growth above this reads as operational
	// deterioration in the radar diagnosis.
	DeteriorationPercent float64
	// LowVolumeTotal: totals below this read as an efficient low-volume
	// operation.
	LowVolumeTotal int
	// AutonomyTargetCap bounds the 7-day autonomy target.
	AutonomyTargetCap float64
	// AutonomyTargetStep is added to the current rate to set the target.
	AutonomyTargetStep float64
	// RiskHighShare / RiskMediumShare: critical-agent fractions mapping
	// to the qualitative risk label.
	RiskHighShare   float64
	RiskMediumShare float64
	// TrendBandPercent classifies per-supervisor trends.
	TrendBandPercent float64
	// LoadBarWidth is the character width of the textual load bars.
	LoadBarWidth int
}

func DefaultParams() Params {
	return Params{
		DeteriorationPercent: 25,
		LowVolumeTotal:       20,
		AutonomyTargetCap:    85,
		AutonomyTargetStep:   10,
		RiskHighShare:        0.30,
		RiskMediumShare:      0.15,
		TrendBandPercent:     5,
		LoadBarWidth:         10,
	}
}

type Composer struct {
	P Params
}

func NewComposer(p Params) *Composer {
	return &Composer{P: p}
}

// Compose builds the immutable per-run analysis. The snapshot must
// already be risk-annotated.
func (c *Composer) Compose(snap models.Snapshot, insights []models.Insight, ai models.AIAnalysis, now time.Time) models.AnalysisResult {
	criticals := criticalAgents(snap)
	autonomy := insight.GeneralAutonomy(snap.Supervisors)

	radar := c.composeRadar(snap, criticals, autonomy)
	result := models.AnalysisResult{
		GeneratedAt: now,
		Current:     snap.Current,
		Previous:    snap.Previous,
		Radar:       radar,
		Training:    c.composeTraining(snap),
		Evolution:   c.composeEvolution(snap),
		Conclusions: c.composeConclusions(snap, insights, ai, criticals, autonomy),
		DataQuality: dataQuality(snap, ai),
	}
	result.ExecutiveSummary = fmt.Sprintf("%s | %d atendimentos (%+.1f%%) | autonomia geral %.1f%% | risco %s",
		radar.Diagnosis, radar.TotalRequests, radar.ChangePercent, autonomy, result.Conclusions.RiskLabel)
	return result
}

type flaggedAgent struct {
	agent      models.AgentMetric
	supervisor string
}

func criticalAgents(snap models.Snapshot) []flaggedAgent {
	var out []flaggedAgent
	for _, sm := range snap.Supervisors {
		for _, a := range sm.Agents {
			if a.Risk == models.RiskCritical {
				out = append(out, flaggedAgent{agent: a, supervisor: sm.SupervisorName})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].agent.CurrentCount == out[j].agent.CurrentCount {
			return out[i].agent.AgentName < out[j].agent.AgentName
		}
		return out[i].agent.CurrentCount > out[j].agent.CurrentCount
	})
	return out
}

func (c *Composer) composeRadar(snap models.Snapshot, criticals []flaggedAgent, autonomy float64) models.RadarBlock {
	block := models.RadarBlock{
		TotalRequests: snap.Global.CurrentTotal,
		PreviousTotal: snap.Global.PreviousTotal,
		ChangePercent: snap.Global.ChangePercent,
		AutonomyRate:  autonomy,
	}

	for i, f := range criticals {
		if i == 3 {
			break
		}
		block.CriticalAlerts = append(block.CriticalAlerts, models.AgentAlert{
			AgentName:      f.agent.AgentName,
			SupervisorName: f.supervisor,
			CurrentCount:   f.agent.CurrentCount,
			ChangePercent:  f.agent.ChangePercent,
		})
	}

	block.Highlights = highlights(snap)

	switch {
	case snap.Global.CurrentTotal == 0:
		block.Diagnosis = "Nenhum atendimento registrado no período"
	case len(criticals) >= 3:
		block.Diagnosis = fmt.Sprintf("Situação crítica: %d agentes exigem intervenção imediata", len(criticals))
	case snap.Global.ChangePercent > c.P.DeteriorationPercent:
		block.Diagnosis = fmt.Sprintf("Deterioração operacional: escalações subiram %+.1f%%", snap.Global.ChangePercent)
	case snap.Global.CurrentTotal < c.P.LowVolumeTotal:
		block.Diagnosis = "Operação eficiente em baixo volume"
	default:
		block.Diagnosis = "Operação em ritmo normal"
	}
	return block
}

// highlights picks up to two positives: the agent with the strongest
// reduction and the most autonomous team.
func highlights(snap models.Snapshot) []string {
	var out []string

	var best models.AgentMetric
	found := false
	for _, sm := range snap.Supervisors {
		for _, a := range sm.Agents {
			if a.Change < 0 && (!found || a.Change < best.Change) {
				best = a
				found = true
			}
		}
	}
	if found {
		out = append(out, fmt.Sprintf("%s reduziu escalações de %d para %d (%+.1f%%)",
			best.AgentName, best.PreviousCount, best.CurrentCount, best.ChangePercent))
	}

	if len(snap.Supervisors) > 0 {
		ranked := insight.Rank(snap.Supervisors)
		top := ranked[0]
		if rate := insight.SupervisorAutonomy(top); rate > 0 {
			out = append(out, fmt.Sprintf("Equipe %s lidera em autonomia (%.1f%%)", top.SupervisorName, rate))
		}
	}
	return out
}

func (c *Composer) composeTraining(snap models.Snapshot) models.TrainingMatrixBlock {
	block := models.TrainingMatrixBlock{}

	var all []flaggedAgent
	for _, sm := range snap.Supervisors {
		for _, a := range sm.Agents {
			all = append(all, flaggedAgent{agent: a, supervisor: sm.SupervisorName})
		}
	}
	// Critical agents first, then by descending volume.
	sort.SliceStable(all, func(i, j int) bool {
		ci := all[i].agent.Risk == models.RiskCritical
		cj := all[j].agent.Risk == models.RiskCritical
		if ci != cj {
			return ci
		}
		if all[i].agent.CurrentCount == all[j].agent.CurrentCount {
			return all[i].agent.AgentName < all[j].agent.AgentName
		}
		return all[i].agent.CurrentCount > all[j].agent.CurrentCount
	})
	for i, f := range all {
		if i == 5 {
			break
		}
		block.PriorityAgents = append(block.PriorityAgents, models.PriorityAgent{
			AgentName:      f.agent.AgentName,
			SupervisorName: f.supervisor,
			CurrentCount:   f.agent.CurrentCount,
			Risk:           f.agent.Risk,
		})
	}

	for _, sm := range snap.Supervisors {
		if sm.CurrentTotal == 0 {
			continue
		}
		alloc := models.SupervisorAllocation{SupervisorName: sm.SupervisorName}
		for _, a := range sm.Agents {
			alloc.Entries = append(alloc.Entries, models.AllocationEntry{
				AgentName:    a.AgentName,
				SharePercent: round1(float64(a.CurrentCount) / float64(sm.CurrentTotal) * 100),
			})
		}
		block.TimeAllocation = append(block.TimeAllocation, alloc)
	}

	gaps := make([]models.GapCount, 0, len(snap.ClassificationCounts))
	for label, count := range snap.ClassificationCounts {
		gaps = append(gaps, models.GapCount{Label: label, Count: count})
	}
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Count == gaps[j].Count {
			return gaps[i].Label < gaps[j].Label
		}
		return gaps[i].Count > gaps[j].Count
	})
	if len(gaps) > 5 {
		gaps = gaps[:5]
	}
	block.GapFrequency = gaps
	return block
}

func (c *Composer) composeEvolution(snap models.Snapshot) models.EvolutionBlock {
	block := models.EvolutionBlock{}
	for _, sm := range snap.Supervisors {
		evo := models.SupervisorEvolution{
			SupervisorName: sm.SupervisorName,
			Trend:          c.supervisorTrend(sm.PercentChange),
			CurrentTotal:   sm.CurrentTotal,
			PreviousTotal:  sm.PreviousTotal,
		}
		maxCount := 0
		for _, a := range sm.Agents {
			if a.CurrentCount > maxCount {
				maxCount = a.CurrentCount
			}
		}
		for _, a := range sm.Agents {
			evo.Agents = append(evo.Agents, models.AgentLoad{
				AgentName: a.AgentName,
				Count:     a.CurrentCount,
				Bar:       loadBar(a.CurrentCount, maxCount, c.P.LoadBarWidth),
				Status:    a.Risk,
			})
		}
		block.Supervisors = append(block.Supervisors, evo)
	}
	return block
}

func (c *Composer) supervisorTrend(percentChange float64) models.Trend {
	switch {
	case percentChange > c.P.TrendBandPercent:
		return models.TrendGrowth
	case percentChange < -c.P.TrendBandPercent:
		return models.TrendDecline
	default:
		return models.TrendStable
	}
}

// loadBar renders a textual bar proportional to the agent's share of the
// team's peak volume.
func loadBar(count, max, width int) string {
	if max <= 0 || width <= 0 {
		return strings.Repeat("░", width)
	}
	filled := int(math.Round(float64(count) / float64(max) * float64(width)))
	if filled > width {
		filled = width
	}
	if count > 0 && filled == 0 {
		filled = 1
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (c *Composer) composeConclusions(snap models.Snapshot, insights []models.Insight, ai models.AIAnalysis, criticals []flaggedAgent, autonomy float64) models.ConclusionsBlock {
	block := models.ConclusionsBlock{AI: ai}

	// Fixed-priority 7-day plan: urgent items for critical agents first,
	// then capacity building, then the standing monitoring item, then the
	// autonomy target.
	for i, f := range criticals {
		if i == 3 {
			break
		}
		block.ActionPlan = append(block.ActionPlan, fmt.Sprintf(
			"URGENTE: sessão individual com %s (equipe %s) — %d atendimentos na semana",
			f.agent.AgentName, f.supervisor, f.agent.CurrentCount))
	}
	for _, in := range insights {
		if in.Kind == models.InsightRecommendation {
			block.ActionPlan = append(block.ActionPlan, "Capacitação: "+in.Text)
		}
	}
	if attention := countRisk(snap, models.RiskAttention); attention > 0 {
		block.ActionPlan = append(block.ActionPlan, fmt.Sprintf(
			"Capacitação: revisar os temas mais escalados com os %d agentes em atenção", attention))
	}
	block.ActionPlan = append(block.ActionPlan, "Monitorar diariamente o volume de escalações por agente")

	target := autonomy + c.P.AutonomyTargetStep
	if target > c.P.AutonomyTargetCap {
		target = c.P.AutonomyTargetCap
	}
	block.AutonomyTarget = round1(target)
	block.ActionPlan = append(block.ActionPlan, fmt.Sprintf(
		"Meta de autonomia para os próximos 7 dias: %.1f%%", block.AutonomyTarget))

	total := countRisk(snap, models.RiskAutonomous) + countRisk(snap, models.RiskAttention) + countRisk(snap, models.RiskCritical)
	block.RiskLabel = riskLabel(len(criticals), total, c.P)
	return block
}

func countRisk(snap models.Snapshot, level models.RiskLevel) int {
	count := 0
	for _, sm := range snap.Supervisors {
		for _, a := range sm.Agents {
			if a.Risk == level {
				count++
			}
		}
	}
	return count
}

func riskLabel(criticalCount, totalAgents int, p Params) string {
	if totalAgents == 0 || criticalCount == 0 {
		return "mínimo"
	}
	share := float64(criticalCount) / float64(totalAgents)
	switch {
	case share >= p.RiskHighShare:
		return "alto"
	case share >= p.RiskMediumShare:
		return "médio"
	default:
		return "baixo"
	}
}

func dataQuality(snap models.Snapshot, ai models.AIAnalysis) string {
	parts := []string{"coleta completa"}
	if len(snap.Warnings) > 0 {
		parts[0] = fmt.Sprintf("coleta parcial (%d aviso(s))", len(snap.Warnings))
	}
	if ai.IsFallback {
		parts = append(parts, "análise IA em modo contingência")
	} else {
		parts = append(parts, fmt.Sprintf("análise IA %s (confiança %.0f%%)", strings.ToLower(ai.QualityLabel), ai.Confidence*100))
	}
	return strings.Join(parts, "; ")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
