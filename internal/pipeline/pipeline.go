// Package pipeline runs one full report cycle: window the period,
// collect and annotate the metrics, ask the model for interpretation,
// compose and render the report, dispatch it and record the run.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/suportedesk/backend/internal/ai"
	"github.com/suportedesk/backend/internal/analysis"
	"github.com/suportedesk/backend/internal/collector"
	"github.com/suportedesk/backend/internal/insight"
	"github.com/suportedesk/backend/internal/interpret"
	"github.com/suportedesk/backend/internal/mail"
	"github.com/suportedesk/backend/internal/models"
	"github.com/suportedesk/backend/internal/period"
	"github.com/suportedesk/backend/internal/prompt"
	"github.com/suportedesk/backend/internal/report"
)

// RunStore records the audit trail of report runs. Recording failures
// never block the report itself.
type RunStore interface {
	CreateRun(ctx context.Context, runID string, reference time.Time) error
	FinishRun(ctx context.Context, runID string, status string, summary []byte) error
}

type Dispatcher interface {
	Send(ctx context.Context, report models.RenderedReport, recipients []string, attachments ...mail.Attachment) (models.DeliveryResult, error)
}

type Pipeline struct {
	Collector  *collector.Collector
	Engine     *insight.Engine
	Composer   *analysis.Composer
	Adapter    ai.Adapter
	Renderer   *report.Renderer
	Dispatcher Dispatcher
	Runs       RunStore
	Recipients []string
	Options    ai.Options
	Logger     zerolog.Logger

	now func() time.Time
}

func New(col *collector.Collector, adapter ai.Adapter, renderer *report.Renderer, dispatcher Dispatcher, runs RunStore, recipients []string, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		Collector:  col,
		Engine:     insight.NewEngine(insight.DefaultThresholds()),
		Composer:   analysis.NewComposer(analysis.DefaultParams()),
		Adapter:    adapter,
		Renderer:   renderer,
		Dispatcher: dispatcher,
		Runs:       runs,
		Recipients: recipients,
		Options:    ai.Options{Temperature: 0.3, MaxTokens: 700},
		Logger:     logger,
		now:        time.Now,
	}
}

// Run executes one report cycle anchored at reference. It returns a
// summary in every case; the error is non-nil only when the run could
// not produce a delivered report.
func (p *Pipeline) Run(ctx context.Context, reference time.Time) (models.RunSummary, error) {
	started := p.now()
	current, previous := period.Compute(reference)

	summary := models.RunSummary{
		RunID:         uuid.NewString(),
		ReferenceDate: reference,
		StartedAt:     started,
		Status:        models.RunStatusFailed,
	}
	log := p.Logger.With().Str("run_id", summary.RunID).Str("period", current.Label()).Logger()
	log.Info().Msg("report run started")

	if err := p.Runs.CreateRun(ctx, summary.RunID, reference); err != nil {
		log.Warn().Err(err).Msg("run record not created")
		summary.Warnings = append(summary.Warnings, "registro de execução indisponível")
	}

	snap, err := p.Collector.Collect(ctx, current, previous)
	if err != nil {
		log.Error().Err(err).Msg("collection failed")
		return p.finish(ctx, summary, err)
	}
	p.Engine.Annotate(&snap)
	insights := p.Engine.Insights(snap)
	summary.Warnings = append(summary.Warnings, snap.Warnings...)
	summary.Supervisors = len(snap.Supervisors)
	summary.TotalRequests = snap.Global.CurrentTotal
	for _, sm := range snap.Supervisors {
		summary.Agents += len(sm.Agents)
	}

	aiAnalysis := p.interpret(ctx, log, snap, insights)
	summary.AIFallback = aiAnalysis.IsFallback

	result := p.Composer.Compose(snap, insights, aiAnalysis, p.now())
	rendered, err := p.Renderer.Render(result)
	if err != nil {
		log.Error().Err(err).Msg("rendering failed")
		return p.finish(ctx, summary, err)
	}

	var attachments []mail.Attachment
	if workbook, err := report.Workbook(snap); err != nil {
		log.Warn().Err(err).Msg("metrics workbook skipped")
		summary.Warnings = append(summary.Warnings, "anexo de métricas indisponível")
	} else {
		attachments = append(attachments, mail.Attachment{
			Filename: "metricas_" + reference.Format("2006-01-02") + ".xlsx",
			Content:  workbook,
		})
	}

	delivery, err := p.Dispatcher.Send(ctx, rendered, p.Recipients, attachments...)
	summary.Delivery = delivery
	if err != nil {
		log.Error().Err(err).Msg("dispatch failed")
		return p.finish(ctx, summary, err)
	}

	summary.Status = models.RunStatusOK
	log.Info().
		Int("total", summary.TotalRequests).
		Int("accepted", len(delivery.Accepted)).
		Int("failed", len(delivery.Failed)).
		Bool("ai_fallback", summary.AIFallback).
		Msg("report run finished")
	return p.finish(ctx, summary, nil)
}

// interpret asks the gateway and grades the answer. Any gateway failure
// degrades to the deterministic fallback so the report always ships.
func (p *Pipeline) interpret(ctx context.Context, log zerolog.Logger, snap models.Snapshot, insights []models.Insight) models.AIAnalysis {
	text := prompt.Composite(snap, insights)
	raw, err := p.Adapter.Generate(ctx, text, p.Options)
	if err != nil {
		log.Warn().Err(err).Msg("model generation failed, using fallback analysis")
		return interpret.Fallback()
	}
	return interpret.Interpret(raw)
}

func (p *Pipeline) finish(ctx context.Context, summary models.RunSummary, runErr error) (models.RunSummary, error) {
	summary.FinishedAt = p.now()
	if runErr != nil {
		summary.Status = models.RunStatusFailed
		summary.Error = runErr.Error()
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		payload = []byte(`{}`)
	}
	if err := p.Runs.FinishRun(ctx, summary.RunID, summary.Status, payload); err != nil {
		p.Logger.Warn().Err(err).Str("run_id", summary.RunID).Msg("run record not finalized")
	}
	return summary, runErr
}
