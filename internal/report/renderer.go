// Package report renders the composed analysis into the delivered
// artifacts: an HTML body, an equivalent plain-text body and an xlsx
// metrics annex. Both bodies come from the same AnalysisResult, field by
// field, so they always carry the same numbers in the same order.
package report

import (
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/suportedesk/backend/internal/models"
)

// RenderingError is fatal to the run: a malformed report must never be
// sent.
type RenderingError struct {
	Err error
}

func (e *RenderingError) Error() string {
	return fmt.Sprintf("report rendering: %v", e.Err)
}

func (e *RenderingError) Unwrap() error { return e.Err }

type Renderer struct {
	html *template.Template
	text *texttemplate.Template
}

func NewRenderer() (*Renderer, error) {
	htmlTpl, err := template.New("report").Funcs(template.FuncMap(funcs)).Parse(htmlBody)
	if err != nil {
		return nil, &RenderingError{Err: err}
	}
	textTpl, err := texttemplate.New("report").Funcs(funcs).Parse(textBody)
	if err != nil {
		return nil, &RenderingError{Err: err}
	}
	return &Renderer{html: htmlTpl, text: textTpl}, nil
}

func (r *Renderer) Render(a models.AnalysisResult) (models.RenderedReport, error) {
	var htmlOut, textOut strings.Builder
	if err := r.html.Execute(&htmlOut, a); err != nil {
		return models.RenderedReport{}, &RenderingError{Err: err}
	}
	if err := r.text.Execute(&textOut, a); err != nil {
		return models.RenderedReport{}, &RenderingError{Err: err}
	}
	return models.RenderedReport{
		Subject:  Subject(a),
		HTMLBody: htmlOut.String(),
		TextBody: textOut.String(),
	}, nil
}

// Subject derives the subject line by a priority ladder over the alert
// count and the autonomy rate, then appends the total and its variation.
func Subject(a models.AnalysisResult) string {
	marker := "📊"
	switch {
	case len(a.Radar.CriticalAlerts) >= 3:
		marker = "🚨 URGENTE"
	case len(a.Radar.CriticalAlerts) >= 1:
		marker = "⚠️ ATENÇÃO"
	case a.Radar.AutonomyRate >= 80:
		marker = "✅ EXCELENTE"
	}
	return fmt.Sprintf("%s Relatório Semanal de Autonomia — %d atendimentos (%+.1f%%)",
		marker, a.Radar.TotalRequests, a.Radar.ChangePercent)
}

var funcs = map[string]any{
	"inc":       func(i int) int { return i + 1 },
	"signedPct": func(v float64) string { return fmt.Sprintf("%+.1f%%", v) },
	"pct":       func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	// confidence is carried as 0-1; print it on the same 0-100 scale the
	// data-quality line uses.
	"confidencePct": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"trendPT": func(t models.Trend) string {
		switch t {
		case models.TrendGrowth:
			return "crescimento"
		case models.TrendDecline:
			return "queda"
		default:
			return "estável"
		}
	},
	"riskPT": func(r models.RiskLevel) string {
		switch r {
		case models.RiskCritical:
			return "crítico"
		case models.RiskAttention:
			return "atenção"
		default:
			return "autônomo"
		}
	},
}

const textBody = `RELATÓRIO SEMANAL DE AUTONOMIA
Período: {{.Current.Label}} (anterior: {{.Previous.Label}})
Gerado em: {{.GeneratedAt.Format "02/01/2006 15:04"}}
Qualidade dos dados: {{.DataQuality}}

RESUMO EXECUTIVO
{{.ExecutiveSummary}}

1. RADAR DA OPERAÇÃO
Total de atendimentos: {{.Radar.TotalRequests}} (anterior: {{.Radar.PreviousTotal}}, variação {{signedPct .Radar.ChangePercent}})
Autonomia geral: {{pct .Radar.AutonomyRate}}
Diagnóstico: {{.Radar.Diagnosis}}
{{- if .Radar.CriticalAlerts}}
Alertas críticos:
{{- range .Radar.CriticalAlerts}}
  ! {{.AgentName}} ({{.SupervisorName}}): {{.CurrentCount}} atendimentos ({{signedPct .ChangePercent}})
{{- end}}
{{- else}}
Alertas críticos: nenhum
{{- end}}
{{- if .Radar.Highlights}}
Destaques:
{{- range .Radar.Highlights}}
  + {{.}}
{{- end}}
{{- end}}

2. MATRIZ DE TREINAMENTO
{{- if .Training.PriorityAgents}}
Agentes prioritários:
{{- range .Training.PriorityAgents}}
  - {{.AgentName}} ({{.SupervisorName}}): {{.CurrentCount}} atendimentos [{{riskPT .Risk}}]
{{- end}}
{{- else}}
Agentes prioritários: nenhum atendimento registrado no período
{{- end}}
{{- range .Training.TimeAllocation}}
Alocação de tempo — {{.SupervisorName}}:
{{- range .Entries}}
  - {{.AgentName}}: {{pct .SharePercent}} do volume da equipe
{{- end}}
{{- end}}
{{- if .Training.GapFrequency}}
Lacunas mais frequentes:
{{- range .Training.GapFrequency}}
  - {{.Label}}: {{.Count}}
{{- end}}
{{- end}}

3. EVOLUÇÃO DE PRODUTIVIDADE
{{- if .Evolution.Supervisors}}
{{- range .Evolution.Supervisors}}
{{.SupervisorName}} — {{trendPT .Trend}} ({{.PreviousTotal}} -> {{.CurrentTotal}})
{{- range .Agents}}
  {{.Bar}} {{.AgentName}}: {{.Count}} [{{riskPT .Status}}]
{{- end}}
{{- end}}
{{- else}}
Nenhum atendimento registrado no período.
{{- end}}

4. CONCLUSÕES ESTRATÉGICAS
{{- if .Conclusions.AI.IsFallback}}
[análise automática indisponível — conteúdo de contingência]
{{- else}}
[análise do modelo: {{.Conclusions.AI.QualityLabel}}, confiança {{confidencePct .Conclusions.AI.Confidence}}]
{{- end}}
Diagnóstico: {{.Conclusions.AI.Diagnosis}}
{{- if .Conclusions.AI.Patterns}}
Padrões:
{{- range .Conclusions.AI.Patterns}}
  - {{.}}
{{- end}}
{{- end}}
{{- if .Conclusions.AI.Recommendations}}
Recomendações:
{{- range .Conclusions.AI.Recommendations}}
  - {{.}}
{{- end}}
{{- end}}
Plano de ação (7 dias):
{{- range $i, $item := .Conclusions.ActionPlan}}
  {{inc $i}}. {{$item}}
{{- end}}
Risco geral: {{.Conclusions.RiskLabel}}
`

const htmlBody = `<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; color: #222; max-width: 720px; margin: 0 auto;">
<h1 style="font-size: 20px;">Relatório Semanal de Autonomia</h1>
<p>Período: <strong>{{.Current.Label}}</strong> (anterior: {{.Previous.Label}})<br>
Gerado em: {{.GeneratedAt.Format "02/01/2006 15:04"}}<br>
Qualidade dos dados: {{.DataQuality}}</p>

<p style="background: #f0f4f8; padding: 10px;"><strong>Resumo executivo:</strong> {{.ExecutiveSummary}}</p>

<h2 style="font-size: 16px;">1. Radar da operação</h2>
<p>Total de atendimentos: <strong>{{.Radar.TotalRequests}}</strong> (anterior: {{.Radar.PreviousTotal}}, variação {{signedPct .Radar.ChangePercent}})<br>
Autonomia geral: <strong>{{pct .Radar.AutonomyRate}}</strong><br>
Diagnóstico: {{.Radar.Diagnosis}}</p>
{{- if .Radar.CriticalAlerts}}
<p><strong>Alertas críticos:</strong></p>
<ul>
{{- range .Radar.CriticalAlerts}}
<li style="color: #b00;">{{.AgentName}} ({{.SupervisorName}}): {{.CurrentCount}} atendimentos ({{signedPct .ChangePercent}})</li>
{{- end}}
</ul>
{{- else}}
<p>Alertas críticos: nenhum</p>
{{- end}}
{{- if .Radar.Highlights}}
<p><strong>Destaques:</strong></p>
<ul>
{{- range .Radar.Highlights}}
<li style="color: #060;">{{.}}</li>
{{- end}}
</ul>
{{- end}}

<h2 style="font-size: 16px;">2. Matriz de treinamento</h2>
{{- if .Training.PriorityAgents}}
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Agente</th><th>Equipe</th><th>Atendimentos</th><th>Status</th></tr>
{{- range .Training.PriorityAgents}}
<tr><td>{{.AgentName}}</td><td>{{.SupervisorName}}</td><td>{{.CurrentCount}}</td><td>{{riskPT .Risk}}</td></tr>
{{- end}}
</table>
{{- else}}
<p>Agentes prioritários: nenhum atendimento registrado no período</p>
{{- end}}
{{- range .Training.TimeAllocation}}
<p><strong>Alocação de tempo — {{.SupervisorName}}:</strong></p>
<ul>
{{- range .Entries}}
<li>{{.AgentName}}: {{pct .SharePercent}} do volume da equipe</li>
{{- end}}
</ul>
{{- end}}
{{- if .Training.GapFrequency}}
<p><strong>Lacunas mais frequentes:</strong></p>
<ul>
{{- range .Training.GapFrequency}}
<li>{{.Label}}: {{.Count}}</li>
{{- end}}
</ul>
{{- end}}

<h2 style="font-size: 16px;">3. Evolução de produtividade</h2>
{{- if .Evolution.Supervisors}}
{{- range .Evolution.Supervisors}}
<p><strong>{{.SupervisorName}}</strong> — {{trendPT .Trend}} ({{.PreviousTotal}} &rarr; {{.CurrentTotal}})</p>
<ul style="list-style: none; font-family: monospace;">
{{- range .Agents}}
<li>{{.Bar}} {{.AgentName}}: {{.Count}} [{{riskPT .Status}}]</li>
{{- end}}
</ul>
{{- end}}
{{- else}}
<p>Nenhum atendimento registrado no período.</p>
{{- end}}

<h2 style="font-size: 16px;">4. Conclusões estratégicas</h2>
{{- if .Conclusions.AI.IsFallback}}
<p style="color: #850;"><em>análise automática indisponível — conteúdo de contingência</em></p>
{{- else}}
<p><em>análise do modelo: {{.Conclusions.AI.QualityLabel}}, confiança {{confidencePct .Conclusions.AI.Confidence}}</em></p>
{{- end}}
<p>Diagnóstico: {{.Conclusions.AI.Diagnosis}}</p>
{{- if .Conclusions.AI.Patterns}}
<p><strong>Padrões:</strong></p>
<ul>
{{- range .Conclusions.AI.Patterns}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- if .Conclusions.AI.Recommendations}}
<p><strong>Recomendações:</strong></p>
<ul>
{{- range .Conclusions.AI.Recommendations}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
<p><strong>Plano de ação (7 dias):</strong></p>
<ol>
{{- range .Conclusions.ActionPlan}}
<li>{{.}}</li>
{{- end}}
</ol>
<p>Risco geral: <strong>{{.Conclusions.RiskLabel}}</strong></p>
</body>
</html>
`
