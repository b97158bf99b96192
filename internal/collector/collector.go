package collector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/suportedesk/backend/internal/models"
)

// AttendanceSource is the read side of the attendance store.
type AttendanceSource interface {
	ListSupervisors(ctx context.Context) ([]models.Supervisor, error)
	ListAttendances(ctx context.Context, supervisorID string, from, to time.Time) ([]models.AttendanceRecord, error)
	CountAttendances(ctx context.Context, from, to time.Time) (int, error)
}

// DataAccessError marks the attendance store as unreachable. It is fatal
// to the run, unlike a single supervisor's load failure.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("attendance store: %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

// Config holds the domain-tuned constants behind supervisor strategic-time
// estimation and trend classification. Defaults documented in DESIGN.md.
type Config struct {
	MinutesPerTicket float64
	WeekHours        float64
	TrendBandPercent float64
}

func DefaultConfig() Config {
	return Config{
		MinutesPerTicket: 15,
		WeekHours:        40,
		TrendBandPercent: 5,
	}
}

type Collector struct {
	Source AttendanceSource
	Cfg    Config
	Logger zerolog.Logger
}

// Collect assembles the comparative snapshot for the two windows. One
// supervisor failing to load is recorded as a warning and skipped; the
// store being unreachable aborts the run.
func (c *Collector) Collect(ctx context.Context, current, previous models.Period) (models.Snapshot, error) {
	snap := models.Snapshot{
		Current:              current,
		Previous:             previous,
		ClassificationCounts: map[string]int{},
	}

	supervisors, err := c.Source.ListSupervisors(ctx)
	if err != nil {
		return models.Snapshot{}, &DataAccessError{Op: "list supervisors", Err: err}
	}

	curTotal, err := c.Source.CountAttendances(ctx, current.Start, current.End)
	if err != nil {
		return models.Snapshot{}, &DataAccessError{Op: "count current window", Err: err}
	}
	prevTotal, err := c.Source.CountAttendances(ctx, previous.Start, previous.End)
	if err != nil {
		return models.Snapshot{}, &DataAccessError{Op: "count previous window", Err: err}
	}

	for _, sup := range supervisors {
		metric, err := c.collectSupervisor(ctx, sup, current, previous, snap.ClassificationCounts)
		if err != nil {
			c.Logger.Warn().Err(err).Str("supervisor", sup.Name).Msg("supervisor skipped")
			snap.Warnings = append(snap.Warnings, fmt.Sprintf("supervisor %s skipped: %v", sup.Name, err))
			continue
		}
		snap.Supervisors = append(snap.Supervisors, metric)
	}

	snap.Global = models.GlobalStats{
		CurrentTotal:  curTotal,
		PreviousTotal: prevTotal,
		Change:        curTotal - prevTotal,
		ChangePercent: PercentChange(curTotal, prevTotal),
		Trend:         c.classifyTrend(curTotal, prevTotal),
	}
	return snap, nil
}

func (c *Collector) collectSupervisor(ctx context.Context, sup models.Supervisor, current, previous models.Period, gaps map[string]int) (models.SupervisorMetric, error) {
	curRecords, err := c.Source.ListAttendances(ctx, sup.ID, current.Start, current.End)
	if err != nil {
		return models.SupervisorMetric{}, fmt.Errorf("current window: %w", err)
	}
	prevRecords, err := c.Source.ListAttendances(ctx, sup.ID, previous.Start, previous.End)
	if err != nil {
		return models.SupervisorMetric{}, fmt.Errorf("previous window: %w", err)
	}

	curByAgent := countByAgent(curRecords)
	prevByAgent := countByAgent(prevRecords)

	for _, r := range curRecords {
		if r.Classification != "" {
			gaps[r.Classification]++
		}
	}

	agents := make([]models.AgentMetric, 0, len(curByAgent))
	for name, cur := range curByAgent {
		prev := prevByAgent[name]
		agents = append(agents, models.AgentMetric{
			AgentName:     name,
			CurrentCount:  cur,
			PreviousCount: prev,
			Change:        cur - prev,
			ChangePercent: PercentChange(cur, prev),
		})
	}
	sort.Slice(agents, func(i, j int) bool {
		if agents[i].CurrentCount == agents[j].CurrentCount {
			return agents[i].AgentName < agents[j].AgentName
		}
		return agents[i].CurrentCount > agents[j].CurrentCount
	})

	curTotal := len(curRecords)
	prevTotal := len(prevRecords)
	return models.SupervisorMetric{
		SupervisorID:         sup.ID,
		SupervisorName:       sup.Name,
		CurrentTotal:         curTotal,
		PreviousTotal:        prevTotal,
		AbsoluteChange:       curTotal - prevTotal,
		PercentChange:        PercentChange(curTotal, prevTotal),
		Agents:               agents,
		StrategicTimePercent: c.strategicTime(curTotal),
	}, nil
}

// strategicTime estimates the share of the supervisor's week left for
// non-reactive work, assuming a fixed handling cost per escalation.
func (c *Collector) strategicTime(currentTotal int) float64 {
	weekMinutes := c.Cfg.WeekHours * 60
	if weekMinutes <= 0 {
		return 0
	}
	spent := float64(currentTotal) * c.Cfg.MinutesPerTicket
	pct := 100 - spent/weekMinutes*100
	if pct < 0 {
		pct = 0
	}
	return round1(pct)
}

func (c *Collector) classifyTrend(current, previous int) models.Trend {
	pct := PercentChange(current, previous)
	switch {
	case pct > c.Cfg.TrendBandPercent:
		return models.TrendGrowth
	case pct < -c.Cfg.TrendBandPercent:
		return models.TrendDecline
	default:
		return models.TrendStable
	}
}

// PercentChange reports the signed variation between the two windows,
// rounded to one decimal. Zero in both windows is 0, never an error;
// growth from zero is reported as 100.
func PercentChange(current, previous int) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return round1(float64(current-previous) / float64(previous) * 100)
}

func countByAgent(records []models.AttendanceRecord) map[string]int {
	out := map[string]int{}
	for _, r := range records {
		out[r.AgentName]++
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
