// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// seedPerformance appends n performance samples with a declining TPS.
func seedPerformance(t *testing.T, h *Handler, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		data := map[string]interface{}{
			"tps":    20.0 - float64(i)*0.1,
			"cpu":    40.0 + float64(i),
			"memory": 60.0,
		}
		if err := h.store.Append("performance", data); err != nil {
			t.Fatalf("Append(performance) error = %v", err)
		}
	}
}

func TestCollect(t *testing.T) {
	t.Run("direct append without pipeline", func(t *testing.T) {
		h := newTestHandler(t)

		body := CollectRequest{
			Performance: map[string]interface{}{"tps": 19.8, "cpu": 42.0, "memory": 61.5},
		}
		rec := httptest.NewRecorder()
		h.Collect(rec, jsonRequest(t, http.MethodPost, "/api/v1/analytics/collect", body))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		data := dataMap(t, decodeEnvelope(t, rec))
		if data["accepted"] != float64(1) {
			t.Errorf("accepted = %v, want 1", data["accepted"])
		}
		if data["pipeline"] != false {
			t.Errorf("pipeline = %v, want false", data["pipeline"])
		}

		samples, err := h.store.Load("performance", 1)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(samples) != 1 {
			t.Fatalf("stored samples = %d, want 1", len(samples))
		}
		if got := samples[0].Field("tps"); got != 19.8 {
			t.Errorf("tps = %v, want 19.8", got)
		}
	})

	t.Run("rides the pipeline when running", func(t *testing.T) {
		h := newTestHandler(t)
		pub := &mockPublisher{running: true}
		h.pipeline = pub

		body := CollectRequest{
			Performance:  map[string]interface{}{"tps": 20.0},
			Players:      []interface{}{"steve", "alex"},
			PlayerEvents: []map[string]interface{}{{"event": "join", "player": "steve"}},
		}
		rec := httptest.NewRecorder()
		h.Collect(rec, jsonRequest(t, http.MethodPost, "/api/v1/analytics/collect", body))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		data := dataMap(t, decodeEnvelope(t, rec))
		if data["accepted"] != float64(3) {
			t.Errorf("accepted = %v, want 3", data["accepted"])
		}
		if data["pipeline"] != true {
			t.Errorf("pipeline = %v, want true", data["pipeline"])
		}
		if len(pub.published) != 3 {
			t.Errorf("published %d samples, want 3: %v", len(pub.published), pub.published)
		}
	})

	t.Run("publish failure falls back to direct append", func(t *testing.T) {
		h := newTestHandler(t)
		h.pipeline = &mockPublisher{
			running: true,
			publishFunc: func(ctx context.Context, stream string, data interface{}) error {
				return errors.New("nats: connection closed")
			},
		}

		body := CollectRequest{Performance: map[string]interface{}{"tps": 18.0}}
		rec := httptest.NewRecorder()
		h.Collect(rec, jsonRequest(t, http.MethodPost, "/api/v1/analytics/collect", body))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}

		samples, err := h.store.Load("performance", 1)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(samples) != 1 {
			t.Errorf("stored samples = %d, want 1 from fallback", len(samples))
		}
	})

	t.Run("empty request rejected", func(t *testing.T) {
		h := newTestHandler(t)

		rec := httptest.NewRecorder()
		h.Collect(rec, jsonRequest(t, http.MethodPost, "/api/v1/analytics/collect", CollectRequest{}))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestReport(t *testing.T) {
	h := newTestHandler(t)
	seedPerformance(t, h, 12)

	rec := httptest.NewRecorder()
	h.Report(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/report?hours=24", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	data := dataMap(t, decodeEnvelope(t, rec))
	if data["period_hours"] != float64(24) {
		t.Errorf("period_hours = %v, want 24", data["period_hours"])
	}
	perf, ok := data["performance"].(map[string]interface{})
	if !ok {
		t.Fatalf("performance block is %T", data["performance"])
	}
	if _, ok := perf["tps"]; !ok {
		t.Error("performance block missing tps")
	}
}

func TestReport_ServesFromCache(t *testing.T) {
	h := newTestHandler(t)
	seedPerformance(t, h, 3)

	first := httptest.NewRecorder()
	h.Report(first, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/report", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d", first.Code)
	}

	// More samples arrive, but the cached report is served until the
	// TTL expires.
	seedPerformance(t, h, 5)

	second := httptest.NewRecorder()
	h.Report(second, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/report", nil))
	if second.Code != http.StatusOK {
		t.Fatalf("second status = %d", second.Code)
	}

	firstGenerated := dataMap(t, decodeEnvelope(t, first))["generated_at"]
	secondGenerated := dataMap(t, decodeEnvelope(t, second))["generated_at"]
	if firstGenerated != secondGenerated {
		t.Errorf("generated_at changed across cached reads: %v vs %v", firstGenerated, secondGenerated)
	}

	h.ClearReportCache()
	third := httptest.NewRecorder()
	h.Report(third, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/report", nil))
	if third.Code != http.StatusOK {
		t.Fatalf("third status = %d", third.Code)
	}
}

func TestReport_BoundsWindow(t *testing.T) {
	h := newTestHandler(t)

	for _, query := range []string{"hours=0", "hours=169", "hours=-3"} {
		rec := httptest.NewRecorder()
		h.Report(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/report?"+query, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", query, rec.Code)
		}
	}
}

func TestTrends(t *testing.T) {
	h := newTestHandler(t)
	seedPerformance(t, h, 10)

	t.Run("performance default", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Trends(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/trends", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		data := dataMap(t, decodeEnvelope(t, rec))
		if data["metric"] != "tps" {
			t.Errorf("metric = %v, want tps", data["metric"])
		}
		trend, ok := data["trend"].(map[string]interface{})
		if !ok {
			t.Fatalf("trend is %T", data["trend"])
		}
		if trend["direction"] != "decreasing" {
			t.Errorf("direction = %v, want decreasing", trend["direction"])
		}
	})

	t.Run("explicit cpu metric", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Trends(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/trends?metric=cpu", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if data := dataMap(t, decodeEnvelope(t, rec)); data["metric"] != "cpu" {
			t.Errorf("metric = %v, want cpu", data["metric"])
		}
	})

	t.Run("players type", func(t *testing.T) {
		if err := h.store.Append("players", []interface{}{"steve", "alex"}); err != nil {
			t.Fatalf("Append(players) error = %v", err)
		}

		rec := httptest.NewRecorder()
		h.Trends(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/trends?type=players", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		data := dataMap(t, decodeEnvelope(t, rec))
		if _, ok := data["behavior"]; !ok {
			t.Error("response missing behavior block")
		}
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Trends(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/trends?type=weather", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown metric rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Trends(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/trends?metric=latency", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestAnomalies(t *testing.T) {
	h := newTestHandler(t)
	seedPerformance(t, h, 20)
	// One outlier far from the mean.
	if err := h.store.Append("performance", map[string]interface{}{"tps": 2.0, "cpu": 40.0, "memory": 60.0}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rec := httptest.NewRecorder()
	h.Anomalies(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/anomalies?metric=tps", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	data := dataMap(t, decodeEnvelope(t, rec))
	if data["count"].(float64) < 1 {
		t.Errorf("count = %v, want at least 1 anomaly", data["count"])
	}

	t.Run("negative threshold rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Anomalies(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/anomalies?threshold=-1", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestPredictions(t *testing.T) {
	h := newTestHandler(t)
	seedPerformance(t, h, 10)

	rec := httptest.NewRecorder()
	h.Predictions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/predictions?metric=tps&hours_ahead=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	data := dataMap(t, decodeEnvelope(t, rec))
	if data["hours_ahead"] != float64(2) {
		t.Errorf("hours_ahead = %v, want 2", data["hours_ahead"])
	}
	if _, ok := data["prediction"].(map[string]interface{}); !ok {
		t.Fatalf("prediction is %T", data["prediction"])
	}

	t.Run("cpu is not forecastable", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Predictions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/predictions?metric=cpu", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("hours_ahead bounded", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Predictions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/predictions?hours_ahead=48", nil))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestPlayerBehavior(t *testing.T) {
	h := newTestHandler(t)
	if err := h.store.Append("players", []interface{}{"steve", "alex"}); err != nil {
		t.Fatalf("Append(players) error = %v", err)
	}
	if err := h.store.Append("player_events", map[string]interface{}{"event": "join", "player": "steve"}); err != nil {
		t.Fatalf("Append(player_events) error = %v", err)
	}

	rec := httptest.NewRecorder()
	h.PlayerBehavior(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/player-behavior", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestCustomReport(t *testing.T) {
	h := newTestHandler(t)
	seedPerformance(t, h, 10)

	body := CustomReportRequest{Hours: 24, Metrics: []string{"tps"}}
	rec := httptest.NewRecorder()
	h.CustomReport(rec, jsonRequest(t, http.MethodPost, "/api/v1/analytics/custom-report", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	data := dataMap(t, decodeEnvelope(t, rec))
	report, ok := data["report"].(map[string]interface{})
	if !ok {
		t.Fatalf("report is %T", data["report"])
	}
	perf, ok := report["performance"].(map[string]interface{})
	if !ok {
		t.Fatalf("performance is %T", report["performance"])
	}
	if _, ok := perf["tps"]; !ok {
		t.Error("filtered report missing tps")
	}
	if _, ok := perf["cpu"]; ok {
		t.Error("filtered report still carries cpu")
	}
	if data["saved_as"] == "" {
		t.Error("saved_as is empty")
	}

	t.Run("unknown metric rejected", func(t *testing.T) {
		body := CustomReportRequest{Metrics: []string{"latency"}}
		rec := httptest.NewRecorder()
		h.CustomReport(rec, jsonRequest(t, http.MethodPost, "/api/v1/analytics/custom-report", body))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("empty metrics rejected", func(t *testing.T) {
		body := CustomReportRequest{Metrics: []string{}}
		rec := httptest.NewRecorder()
		h.CustomReport(rec, jsonRequest(t, http.MethodPost, "/api/v1/analytics/custom-report", body))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}
