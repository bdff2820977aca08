package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func markAlice(t *testing.T, h *RecognizeHandler) {
	t.Helper()
	req := jsonRequest(t, http.MethodPost, "/api/v1/attendance/mark", imageBody("alice"))
	rec := httptest.NewRecorder()
	h.MarkAttendance(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark failed: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAttendanceToday(t *testing.T) {
	svc, _ := testService(t)
	enrollTestIdentity(t, svc)
	markAlice(t, NewRecognizeHandler(svc, zap.NewNop()))
	h := NewAttendanceHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today", nil)
	rec := httptest.NewRecorder()
	h.Today(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Count   int `json:"count"`
		Records []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"records"`
	}
	decodeResponse(t, rec, &resp)
	if resp.Count != 1 || len(resp.Records) != 1 {
		t.Fatalf("expected 1 record, got %+v", resp)
	}
	if resp.Records[0].Name != "Alice" || resp.Records[0].Status != "Present" {
		t.Errorf("unexpected record %+v", resp.Records[0])
	}
}

func TestAttendanceByDate(t *testing.T) {
	svc, _ := testService(t)
	enrollTestIdentity(t, svc)
	markAlice(t, NewRecognizeHandler(svc, zap.NewNop()))
	h := NewAttendanceHandler(svc)

	today := time.Now().Format("2006-01-02")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance?date="+today, nil)
	rec := httptest.NewRecorder()
	h.ByDate(rec, req)

	var resp struct {
		Count int `json:"count"`
	}
	decodeResponse(t, rec, &resp)
	if resp.Count != 1 {
		t.Errorf("expected 1 record for today, got %d", resp.Count)
	}

	// A past date has no records.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/attendance?date=2020-01-01", nil)
	rec = httptest.NewRecorder()
	h.ByDate(rec, req)
	decodeResponse(t, rec, &resp)
	if resp.Count != 0 {
		t.Errorf("expected no records for 2020-01-01, got %d", resp.Count)
	}
}

func TestAttendanceByDateInvalid(t *testing.T) {
	svc, _ := testService(t)
	h := NewAttendanceHandler(svc)

	for _, date := range []string{"", "yesterday", "2020-13-01"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance?date="+date, nil)
		rec := httptest.NewRecorder()
		h.ByDate(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("date %q: expected 400, got %d", date, rec.Code)
		}
	}
}

func TestAttendanceStatsEndpoint(t *testing.T) {
	svc, _ := testService(t)
	enrollTestIdentity(t, svc)
	markAlice(t, NewRecognizeHandler(svc, zap.NewNop()))
	h := NewAttendanceHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		TotalIdentities int     `json:"total_identities"`
		Present         int     `json:"present"`
		Percentage      float64 `json:"percentage"`
	}
	decodeResponse(t, rec, &resp)
	if resp.TotalIdentities != 1 || resp.Present != 1 || resp.Percentage != 100 {
		t.Errorf("unexpected stats %+v", resp)
	}
}
