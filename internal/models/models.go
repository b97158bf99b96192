package models

import "time"

// Period is an inclusive 7-day analysis window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Label formats the window for report headers, e.g. "05/01 a 11/01/2026".
func (p Period) Label() string {
	return p.Start.Format("02/01") + " a " + p.End.Format("02/01/2006")
}

// AttendanceRecord is one escalation logged by the chat bot. Read-only here:
// the pipeline only counts and groups these.
type AttendanceRecord struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	AgentName      string    `json:"agent_name"`
	SupervisorID   string    `json:"supervisor_id"`
	Classification string    `json:"classification"`
	Content        string    `json:"content"`
}

type Supervisor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type RiskLevel string

const (
	RiskAutonomous RiskLevel = "autonomous"
	RiskAttention  RiskLevel = "attention"
	RiskCritical   RiskLevel = "critical"
)

type Trend string

const (
	TrendGrowth  Trend = "growth"
	TrendDecline Trend = "decline"
	TrendStable  Trend = "stable"
)

// AgentMetric compares one agent's escalation volume across the two windows.
// Recomputed on every run, never persisted.
type AgentMetric struct {
	AgentName     string    `json:"agent_name"`
	CurrentCount  int       `json:"current_count"`
	PreviousCount int       `json:"previous_count"`
	Change        int       `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Risk          RiskLevel `json:"risk_level"`
}

type SupervisorMetric struct {
	SupervisorID         string        `json:"supervisor_id"`
	SupervisorName       string        `json:"supervisor_name"`
	CurrentTotal         int           `json:"current_total"`
	PreviousTotal        int           `json:"previous_total"`
	AbsoluteChange       int           `json:"absolute_change"`
	PercentChange        float64       `json:"percent_change"`
	Agents               []AgentMetric `json:"agents"`
	StrategicTimePercent float64       `json:"strategic_time_percent"`
}

type GlobalStats struct {
	CurrentTotal  int     `json:"current_total"`
	PreviousTotal int     `json:"previous_total"`
	Change        int     `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Trend         Trend   `json:"trend"`
}

// Snapshot is everything one run collected from the attendance store.
type Snapshot struct {
	Current              Period             `json:"current_period"`
	Previous             Period             `json:"previous_period"`
	Supervisors          []SupervisorMetric `json:"supervisors"`
	Global               GlobalStats        `json:"global"`
	ClassificationCounts map[string]int     `json:"classification_counts"`
	Warnings             []string           `json:"warnings,omitempty"`
}

type InsightKind string

const (
	InsightAlert          InsightKind = "alert"
	InsightPattern        InsightKind = "pattern"
	InsightRecommendation InsightKind = "recommendation"
	InsightRanking        InsightKind = "ranking"
)

type Insight struct {
	Kind InsightKind `json:"kind"`
	Text string      `json:"text"`
}

// AIAnalysis is the interpreted model output, or deterministic fallback
// content when the gateway failed or the response was unusable.
type AIAnalysis struct {
	Diagnosis       string   `json:"diagnosis"`
	Patterns        []string `json:"patterns"`
	Recommendations []string `json:"recommendations"`
	IsFallback      bool     `json:"is_fallback"`
	QualityScore    int      `json:"quality_score"`
	QualityLabel    string   `json:"quality_label"`
	Confidence      float64  `json:"confidence"`
}

type AgentAlert struct {
	AgentName      string  `json:"agent_name"`
	SupervisorName string  `json:"supervisor_name"`
	CurrentCount   int     `json:"current_count"`
	ChangePercent  float64 `json:"change_percent"`
}

type RadarBlock struct {
	TotalRequests  int          `json:"total_requests"`
	PreviousTotal  int          `json:"previous_total"`
	ChangePercent  float64      `json:"change_percent"`
	AutonomyRate   float64      `json:"autonomy_rate"`
	CriticalAlerts []AgentAlert `json:"critical_alerts"`
	Highlights     []string     `json:"highlights"`
	Diagnosis      string       `json:"diagnosis"`
}

type PriorityAgent struct {
	AgentName      string    `json:"agent_name"`
	SupervisorName string    `json:"supervisor_name"`
	CurrentCount   int       `json:"current_count"`
	Risk           RiskLevel `json:"risk_level"`
}

type AllocationEntry struct {
	AgentName    string  `json:"agent_name"`
	SharePercent float64 `json:"share_percent"`
}

type SupervisorAllocation struct {
	SupervisorName string            `json:"supervisor_name"`
	Entries        []AllocationEntry `json:"entries"`
}

type GapCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type TrainingMatrixBlock struct {
	PriorityAgents []PriorityAgent        `json:"priority_agents"`
	TimeAllocation []SupervisorAllocation `json:"time_allocation"`
	GapFrequency   []GapCount             `json:"gap_frequency"`
}

type AgentLoad struct {
	AgentName string    `json:"agent_name"`
	Count     int       `json:"count"`
	Bar       string    `json:"bar"`
	Status    RiskLevel `json:"status"`
}

type SupervisorEvolution struct {
	SupervisorName string      `json:"supervisor_name"`
	Trend          Trend       `json:"trend"`
	CurrentTotal   int         `json:"current_total"`
	PreviousTotal  int         `json:"previous_total"`
	Agents         []AgentLoad `json:"agents"`
}

type EvolutionBlock struct {
	Supervisors []SupervisorEvolution `json:"supervisors"`
}

type ConclusionsBlock struct {
	AI             AIAnalysis `json:"ai"`
	ActionPlan     []string   `json:"action_plan"`
	AutonomyTarget float64    `json:"autonomy_target"`
	RiskLabel      string     `json:"risk_label"`
}

// AnalysisResult carries the four report blocks. Built once per run and
// immutable afterward; both renderings are produced from this one value.
type AnalysisResult struct {
	GeneratedAt      time.Time           `json:"generated_at"`
	Current          Period              `json:"current_period"`
	Previous         Period              `json:"previous_period"`
	Radar            RadarBlock          `json:"radar"`
	Training         TrainingMatrixBlock `json:"training_matrix"`
	Evolution        EvolutionBlock      `json:"evolution"`
	Conclusions      ConclusionsBlock    `json:"conclusions"`
	ExecutiveSummary string              `json:"executive_summary"`
	DataQuality      string              `json:"data_quality"`
}

type RenderedReport struct {
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
}

type RecipientFailure struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

type DeliveryResult struct {
	Accepted []string           `json:"accepted"`
	Failed   []RecipientFailure `json:"failed"`
}

// Delivered reports whether at least one recipient accepted the report.
func (d DeliveryResult) Delivered() bool {
	return len(d.Accepted) > 0
}

const (
	RunStatusOK     = "OK"
	RunStatusFailed = "FAILED"
)

// RunSummary is the structured outcome of one pipeline execution, returned
// by the trigger endpoint and persisted with the run row.
type RunSummary struct {
	RunID         string         `json:"run_id"`
	ReferenceDate time.Time      `json:"reference_date"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Status        string         `json:"status"`
	Supervisors   int            `json:"supervisors"`
	Agents        int            `json:"agents"`
	TotalRequests int            `json:"total_requests"`
	AIFallback    bool           `json:"ai_fallback"`
	Delivery      DeliveryResult `json:"delivery"`
	Warnings      []string       `json:"warnings,omitempty"`
	Error         string         `json:"error,omitempty"`
}
