package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/suportedesk/backend/internal/models"
	"github.com/suportedesk/backend/internal/scheduler"
)

type fakeTrigger struct {
	reference time.Time
	summary   models.RunSummary
	err       error
	running   bool
}

func (f *fakeTrigger) TriggerNow(ctx context.Context, reference time.Time) (models.RunSummary, error) {
	f.reference = reference
	return f.summary, f.err
}

func (f *fakeTrigger) Running() bool { return f.running }

func testRouter(trigger *fakeTrigger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &Handler{
		Trigger:   trigger,
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}
	r := gin.New()
	r.POST("/api/reports/run", h.ReportsRun)
	return r
}

func TestReportsRunSuccess(t *testing.T) {
	trigger := &fakeTrigger{summary: models.RunSummary{RunID: "run-1", Status: models.RunStatusOK}}
	r := testRouter(trigger)

	body := strings.NewReader(`{"reference_date":"2026-01-12"}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/reports/run", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got models.RunSummary
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RunID != "run-1" {
		t.Fatalf("summary = %+v", got)
	}
	want := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	if !trigger.reference.Equal(want) {
		t.Fatalf("reference = %v, want %v", trigger.reference, want)
	}
}

func TestReportsRunEmptyBodyUsesToday(t *testing.T) {
	trigger := &fakeTrigger{summary: models.RunSummary{Status: models.RunStatusOK}}
	r := testRouter(trigger)

	req, _ := http.NewRequest(http.MethodPost, "/api/reports/run", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if time.Since(trigger.reference) > time.Minute {
		t.Fatalf("reference = %v, want about now", trigger.reference)
	}
}

func TestReportsRunInvalidDate(t *testing.T) {
	r := testRouter(&fakeTrigger{})

	body := strings.NewReader(`{"reference_date":"12/01/2026"}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/reports/run", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestReportsRunConflict(t *testing.T) {
	trigger := &fakeTrigger{err: scheduler.ErrRunInFlight, running: true}
	r := testRouter(trigger)

	req, _ := http.NewRequest(http.MethodPost, "/api/reports/run", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "RUN_IN_FLIGHT") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestReportsRunFailure(t *testing.T) {
	trigger := &fakeTrigger{
		summary: models.RunSummary{RunID: "run-2", Status: models.RunStatusFailed, Error: "collection failed"},
		err:     errors.New("collection failed"),
	}
	r := testRouter(trigger)

	req, _ := http.NewRequest(http.MethodPost, "/api/reports/run", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "run-2") {
		t.Fatalf("failed summary must be in the body: %s", w.Body.String())
	}
}
