// Package prompt renders the natural-language prompts sent to the
// inference endpoint. Construction is pure: every facet always yields a
// prompt, even over empty data, so downstream stages always receive a
// text response to work with.
package prompt

import (
	"fmt"
	"strings"

	"github.com/suportedesk/backend/internal/models"
)

// wordBudget bounds the model's answer; the interpreter caps structure
// on its side as well.
const wordBudget = 200

// header carries the role, the required section markers and the negative
// instruction list. The model is not allowed to invent causal narratives
// (seasonality, holidays, staffing changes) absent from the numbers.
const header = `Você é um analista de operações de suporte. Analise os dados da semana abaixo e responda em português, em no máximo %d palavras, usando exatamente estas seções:

DIAGNÓSTICO: (parágrafo único)
PADRÕES: (lista com marcadores "-")
RECOMENDAÇÕES: (lista com marcadores "-")

Regras obrigatórias:
- Use somente os números fornecidos; não os parafraseie nem recalcule.
- Não invente causas ausentes dos dados (sazonalidade, feriados, férias, clima, mudanças de equipe).
- Não cite agentes ou supervisores que não aparecem na lista.
- Não faça projeções além da próxima semana.`

// emptyData is the static prompt used when the window has no activity;
// the facet is never skipped.
const emptyData = `Você é um analista de operações de suporte. Não há atendimentos registrados nas duas semanas analisadas. Responda em português, em no máximo 60 palavras, com as seções DIAGNÓSTICO, PADRÕES e RECOMENDAÇÕES, reconhecendo explicitamente a ausência de dados no período e sem inventar números.`

// Strategic is the global facet: totals, variation and trend.
func Strategic(snap models.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "VISÃO GERAL (%s vs %s):\n", snap.Current.Label(), snap.Previous.Label())
	fmt.Fprintf(&b, "- Total de atendimentos: %d (semana anterior: %d, variação %+.1f%%, tendência: %s)\n",
		snap.Global.CurrentTotal, snap.Global.PreviousTotal, snap.Global.ChangePercent, trendLabel(snap.Global.Trend))
	fmt.Fprintf(&b, "- Supervisores ativos: %d\n", len(snap.Supervisors))
	return b.String()
}

// Supervisor is the per-team facet for one supervisor.
func Supervisor(sm models.SupervisorMetric) string {
	var b strings.Builder
	fmt.Fprintf(&b, "EQUIPE %s: %d atendimentos (anterior: %d, variação %+.1f%%), tempo estratégico estimado %.1f%%\n",
		strings.ToUpper(sm.SupervisorName), sm.CurrentTotal, sm.PreviousTotal, sm.PercentChange, sm.StrategicTimePercent)
	for _, a := range sm.Agents {
		fmt.Fprintf(&b, "  - %s: %d atendimentos (anterior: %d, variação %+.1f%%)\n",
			a.AgentName, a.CurrentCount, a.PreviousCount, a.ChangePercent)
	}
	return b.String()
}

// AgentGroup is the risk-distribution facet across all teams.
func AgentGroup(snap models.Snapshot) string {
	counts := map[models.RiskLevel]int{}
	total := 0
	for _, sm := range snap.Supervisors {
		for _, a := range sm.Agents {
			counts[a.Risk]++
			total++
		}
	}
	return fmt.Sprintf("DISTRIBUIÇÃO DE RISCO: %d agentes ativos — %d autônomos, %d em atenção, %d críticos\n",
		total, counts[models.RiskAutonomous], counts[models.RiskAttention], counts[models.RiskCritical])
}

// Anomaly lists the rule-derived alerts and patterns so the model comments
// on findings instead of rediscovering them.
func Anomaly(insights []models.Insight) string {
	var lines []string
	for _, in := range insights {
		if in.Kind == models.InsightAlert || in.Kind == models.InsightPattern {
			lines = append(lines, "- "+in.Text)
		}
	}
	if len(lines) == 0 {
		return "ANOMALIAS: nenhuma detectada pelas regras desta semana\n"
	}
	return "ANOMALIAS DETECTADAS:\n" + strings.Join(lines, "\n") + "\n"
}

// Composite assembles the full analysis prompt from the four facets,
// so one gateway call covers all of them. The word budget and the
// negative rules live in the shared header and bind the whole answer;
// the facet builders themselves emit only data lines.
// Empty data yields the short static acknowledgment prompt.
func Composite(snap models.Snapshot, insights []models.Insight) string {
	if snap.Global.CurrentTotal == 0 && snap.Global.PreviousTotal == 0 {
		return emptyData
	}

	var b strings.Builder
	fmt.Fprintf(&b, header, wordBudget)
	b.WriteString("\n\n")
	b.WriteString(Strategic(snap))
	b.WriteString("\n")
	for _, sm := range snap.Supervisors {
		b.WriteString(Supervisor(sm))
	}
	b.WriteString("\n")
	b.WriteString(AgentGroup(snap))
	b.WriteString("\n")
	b.WriteString(Anomaly(insights))
	return b.String()
}

func trendLabel(t models.Trend) string {
	switch t {
	case models.TrendGrowth:
		return "crescimento"
	case models.TrendDecline:
		return "queda"
	default:
		return "estável"
	}
}
