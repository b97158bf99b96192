package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suportedesk/backend/internal/models"
)

// Store wraps the attendance database. The analysis pipeline only reads
// from it; the single table it writes is report_runs, the audit trail of
// report generations.
type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// ListSupervisors returns active supervisor-role users. Coordinators run
// teams the same way supervisors do, so they are included.
func (s *Store) ListSupervisors(ctx context.Context) ([]models.Supervisor, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, role
		FROM users
		WHERE role IN ('supervisor', 'coordenador') AND active
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Supervisor
	for rows.Next() {
		var sup models.Supervisor
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Role); err != nil {
			return nil, err
		}
		out = append(out, sup)
	}
	return out, rows.Err()
}

// ListAttendances returns one supervisor's attendance records in the range,
// oldest first.
func (s *Store) ListAttendances(ctx context.Context, supervisorID string, from, to time.Time) ([]models.AttendanceRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, created_at, agent_name, supervisor_id, COALESCE(classification, ''), COALESCE(content, '')
		FROM attendances
		WHERE supervisor_id = $1 AND created_at BETWEEN $2 AND $3
		ORDER BY created_at ASC, id ASC
	`, supervisorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AttendanceRecord
	for rows.Next() {
		var r models.AttendanceRecord
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.AgentName, &r.SupervisorID, &r.Classification, &r.Content); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountAttendances counts every record in the range regardless of
// supervisor, so global totals include tickets whose supervisor was
// skipped or whose agents dropped out of the per-supervisor lists.
func (s *Store) CountAttendances(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM attendances WHERE created_at BETWEEN $1 AND $2
	`, from, to).Scan(&count)
	return count, err
}

func (s *Store) CreateRun(ctx context.Context, runID string, reference time.Time) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO report_runs (id, reference_date, status, started_at)
		VALUES ($1, $2, 'RUNNING', NOW())
	`, runID, reference)
	return err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE report_runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3
	`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (map[string]any, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, reference_date, started_at, finished_at, status, summary
		FROM report_runs ORDER BY started_at DESC LIMIT 1
	`)
	var (
		id        string
		reference time.Time
		started   time.Time
		finished  *time.Time
		status    string
		summary   []byte
	)
	if err := row.Scan(&id, &reference, &started, &finished, &status, &summary); err != nil {
		return nil, err
	}
	return map[string]any{
		"id":             id,
		"reference_date": reference,
		"started_at":     started,
		"finished_at":    finished,
		"status":         status,
		"summary":        summary,
	}, nil
}
