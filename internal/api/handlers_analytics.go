// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/danhux/craftwarden/internal/analytics"
	"github.com/danhux/craftwarden/internal/cache"
	"github.com/danhux/craftwarden/internal/logging"
)

// CollectResponse reports how many samples were accepted and whether
// they rode the pipeline or went straight to the store.
type CollectResponse struct {
	Accepted int  `json:"accepted"`
	Pipeline bool `json:"pipeline"`
}

// Collect ingests metric samples. With the pipeline running, samples
// are published to NATS and batched into the store; otherwise they are
// appended directly. A publish failure also falls back to the direct
// append so samples survive a pipeline outage.
//
// @Summary Ingest metric samples
// @Tags Analytics
// @Accept json
// @Produce json
// @Param samples body CollectRequest true "Samples"
// @Success 200 {object} APIResponse{data=CollectResponse}
// @Failure 400 {object} APIResponse
// @Router /analytics/collect [post]
func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CollectRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if req.Empty() {
		rw.BadRequest("Request carries no samples")
		return
	}

	type sample struct {
		stream string
		data   interface{}
	}
	samples := make([]sample, 0, 2+len(req.PlayerEvents))
	if req.Performance != nil {
		samples = append(samples, sample{"performance", req.Performance})
	}
	if req.Players != nil {
		samples = append(samples, sample{"players", req.Players})
	}
	for _, event := range req.PlayerEvents {
		samples = append(samples, sample{"player_events", event})
	}

	usePipeline := h.pipeline != nil && h.pipeline.Running()
	accepted := 0
	for _, s := range samples {
		var err error
		if usePipeline {
			if err = h.pipeline.Publish(r.Context(), s.stream, s.data); err != nil {
				logging.Warn().Err(err).Str("stream", s.stream).Msg("Pipeline publish failed, appending directly")
				err = h.store.Append(s.stream, s.data)
			}
		} else {
			err = h.store.Append(s.stream, s.data)
		}
		if err != nil {
			logging.Error().Err(err).Str("stream", s.stream).Msg("Sample ingest failed")
			rw.InternalError(fmt.Sprintf("Failed to ingest %s sample", s.stream))
			return
		}
		accepted++
	}

	rw.Success(CollectResponse{Accepted: accepted, Pipeline: usePipeline})
}

// reportWindow validates the hours query parameter. On failure it has
// already written the 400.
func reportWindow(rw *ResponseWriter, r *http.Request) (int, bool) {
	hours := getIntParam(r, "hours", 24)
	if hours < 1 || hours > 168 {
		rw.BadRequest("hours must be between 1 and 168")
		return 0, false
	}
	return hours, true
}

// Report returns the full health report for the window. Reports are
// cached per window because generation re-reads the stream files.
//
// @Summary Health report
// @Tags Analytics
// @Produce json
// @Param hours query int false "Look-back window in hours (1-168, default 24)"
// @Success 200 {object} APIResponse{data=analytics.Report}
// @Failure 400 {object} APIResponse
// @Router /analytics/report [get]
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	hours, ok := reportWindow(rw, r)
	if !ok {
		return
	}

	key := cache.GenerateKey("report", hours)
	if cached, ok := h.reportCache.Get(key); ok {
		rw.Success(cached)
		return
	}

	report, err := h.processor.GenerateReport(hours)
	if err != nil {
		rw.InternalError("Report generation failed")
		return
	}

	h.reportCache.Set(key, report)
	rw.Success(report)
}

// Trends returns the performance trend for one metric, or the player
// behavior block when type=players.
//
// @Summary Metric trends
// @Tags Analytics
// @Produce json
// @Param hours query int false "Look-back window in hours (1-168, default 24)"
// @Param type query string false "performance or players (default performance)"
// @Param metric query string false "tps, cpu, or memory (default tps)"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /analytics/trends [get]
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	hours, ok := reportWindow(rw, r)
	if !ok {
		return
	}

	switch kind := r.URL.Query().Get("type"); kind {
	case "", "performance":
		metric, ok := performanceMetric(rw, r)
		if !ok {
			return
		}

		samples, err := h.store.Load("performance", hours)
		if err != nil {
			rw.InternalError("Failed to load performance stream")
			return
		}

		rw.Success(map[string]interface{}{
			"metric": metric,
			"hours":  hours,
			"trend":  analytics.Trend(samples, metric),
		})

	case "players":
		behavior, err := h.processor.PlayerBehavior(hours)
		if err != nil {
			rw.InternalError("Failed to load player streams")
			return
		}
		rw.Success(map[string]interface{}{
			"hours":    hours,
			"behavior": behavior,
		})

	default:
		rw.BadRequest(fmt.Sprintf("unknown trend type %q", kind))
	}
}

// Anomalies returns samples deviating from the window mean. The
// threshold defaults per metric.
//
// @Summary Metric anomalies
// @Tags Analytics
// @Produce json
// @Param hours query int false "Look-back window in hours (1-168, default 24)"
// @Param metric query string false "tps, cpu, or memory (default tps)"
// @Param threshold query number false "Z-score cutoff (default per metric)"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /analytics/anomalies [get]
func (h *Handler) Anomalies(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	hours, ok := reportWindow(rw, r)
	if !ok {
		return
	}
	metric, ok := performanceMetric(rw, r)
	if !ok {
		return
	}

	threshold := getFloatParam(r, "threshold", analytics.ThresholdFor(metric))
	if threshold <= 0 {
		rw.BadRequest("threshold must be positive")
		return
	}

	samples, err := h.store.Load("performance", hours)
	if err != nil {
		rw.InternalError("Failed to load performance stream")
		return
	}

	anomalies := analytics.DetectAnomalies(samples, metric, threshold)
	rw.Success(map[string]interface{}{
		"metric":    metric,
		"hours":     hours,
		"threshold": threshold,
		"count":     len(anomalies),
		"anomalies": anomalies,
	})
}

// Predictions forecasts a metric's value. Only TPS and memory project
// usefully; CPU is too spiky.
//
// @Summary Metric forecast
// @Tags Analytics
// @Produce json
// @Param hours query int false "History window in hours (1-168, default 24)"
// @Param hours_ahead query int false "Projection distance (1-24, default 1)"
// @Param metric query string false "tps or memory (default tps)"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /analytics/predictions [get]
func (h *Handler) Predictions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	hours, ok := reportWindow(rw, r)
	if !ok {
		return
	}

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "tps"
	}
	if metric != "tps" && metric != "memory" {
		rw.BadRequest("metric must be tps or memory")
		return
	}

	hoursAhead := getIntParam(r, "hours_ahead", 1)
	if hoursAhead < 1 || hoursAhead > 24 {
		rw.BadRequest("hours_ahead must be between 1 and 24")
		return
	}

	samples, err := h.store.Load("performance", hours)
	if err != nil {
		rw.InternalError("Failed to load performance stream")
		return
	}

	rw.Success(map[string]interface{}{
		"metric":      metric,
		"hours":       hours,
		"hours_ahead": hoursAhead,
		"prediction":  analytics.Predict(samples, metric, hoursAhead),
	})
}

// PlayerBehavior returns the player activity summary for the window.
//
// @Summary Player behavior summary
// @Tags Analytics
// @Produce json
// @Param hours query int false "Look-back window in hours (1-168, default 24)"
// @Success 200 {object} APIResponse{data=analytics.BehaviorSummary}
// @Failure 400 {object} APIResponse
// @Router /analytics/player-behavior [get]
func (h *Handler) PlayerBehavior(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	hours, ok := reportWindow(rw, r)
	if !ok {
		return
	}

	behavior, err := h.processor.PlayerBehavior(hours)
	if err != nil {
		rw.InternalError("Failed to load player streams")
		return
	}

	rw.Success(behavior)
}

// CustomReportResponse is a report restricted to requested metrics,
// with the path of the persisted snapshot.
type CustomReportResponse struct {
	Report  analytics.Report `json:"report"`
	SavedAs string           `json:"saved_as"`
}

// CustomReport generates a report restricted to the named performance
// metrics and persists a snapshot alongside the periodic reports.
//
// @Summary Custom report
// @Tags Analytics
// @Accept json
// @Produce json
// @Param request body CustomReportRequest true "Window and metrics"
// @Success 200 {object} APIResponse{data=CustomReportResponse}
// @Failure 400 {object} APIResponse
// @Router /analytics/custom-report [post]
func (h *Handler) CustomReport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CustomReportRequest
	if err := decodeJSON(r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if req.Hours == 0 {
		req.Hours = 24
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	report, err := h.processor.GenerateReport(req.Hours)
	if err != nil {
		rw.InternalError("Report generation failed")
		return
	}

	wanted := make(map[string]bool, len(req.Metrics))
	for _, m := range req.Metrics {
		wanted[m] = true
	}
	filtered := make(map[string]analytics.MetricReport, len(wanted))
	for name, metricReport := range report.Performance {
		if wanted[name] {
			filtered[name] = metricReport
		}
	}
	report.Performance = filtered

	filename := fmt.Sprintf("custom_report_%s.json", time.Now().UTC().Format("20060102_150405"))
	savedAs, err := h.processor.SaveReport(report, filename)
	if err != nil {
		logging.Warn().Err(err).Msg("Custom report snapshot failed")
	}

	rw.Success(CustomReportResponse{Report: report, SavedAs: savedAs})
}

// performanceMetric validates the metric query parameter against the
// performance stream's fields. On failure it has already written the
// 400.
func performanceMetric(rw *ResponseWriter, r *http.Request) (string, bool) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "tps"
	}
	for _, name := range analytics.PerformanceMetricNames() {
		if metric == name {
			return metric, true
		}
	}
	rw.BadRequest(fmt.Sprintf("unknown metric %q", metric))
	return "", false
}
