/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package metrics defines the optional instrumentation hook the
// orchestrator calls on every run: the final confidence score and any
// analyzer failures. ObserveStageDuration is part of the Recorder
// interface, but internal/heal does not call it. A Prometheus-backed
// Recorder is provided; callers
// that do not want metrics get NoopRecorder.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder observes pipeline behavior. Implementations must be safe for
// concurrent use — batch runs call it from multiple file-level workers.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveConfidenceScore(score int)
	IncAnalyzerFailure(analyzer string)
}

// NoopRecorder discards every observation.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveConfidenceScore(int)                 {}
func (NoopRecorder) IncAnalyzerFailure(string)                  {}

// PromRecorder records stage timings, confidence scores, and analyzer
// failures as Prometheus collectors.
type PromRecorder struct {
	stageDuration    *prometheus.HistogramVec
	confidenceScore  prometheus.Histogram
	analyzerFailures *prometheus.CounterVec
}

// NewPromRecorder builds and registers the collectors against reg. Pass
// prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer in a long-running process.
func NewPromRecorder(reg prometheus.Registerer) *PromRecorder {
	r := &PromRecorder{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kubeheal",
			Name:      "stage_duration_seconds",
			Help:      "Duration of one pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		confidenceScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kubeheal",
			Name:      "confidence_score",
			Help:      "Final confidence score (0-100) of a healed document.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		analyzerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kubeheal",
			Name:      "analyzer_failures_total",
			Help:      "Count of analyzer panics recovered by the registry.",
		}, []string{"analyzer"}),
	}
	reg.MustRegister(r.stageDuration, r.confidenceScore, r.analyzerFailures)
	return r
}

func (r *PromRecorder) ObserveStageDuration(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (r *PromRecorder) ObserveConfidenceScore(score int) {
	r.confidenceScore.Observe(float64(score))
}

func (r *PromRecorder) IncAnalyzerFailure(analyzer string) {
	r.analyzerFailures.WithLabelValues(analyzer).Inc()
}
