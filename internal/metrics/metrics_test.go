/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNoopRecorderDoesNothing(t *testing.T) {
	var r NoopRecorder
	r.ObserveStageDuration("lexer", time.Millisecond)
	r.ObserveConfidenceScore(80)
	r.IncAnalyzerFailure("ImageAnalyzer")
}

func TestPromRecorderObservesScore(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewPromRecorder(reg)
	r.ObserveConfidenceScore(85)
	r.ObserveStageDuration("scanner", 2*time.Millisecond)
	r.IncAnalyzerFailure("SecurityAnalyzer")

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	found := map[string]*dto.MetricFamily{}
	for _, mf := range metricFamilies {
		found[mf.GetName()] = mf
	}
	if _, ok := found["kubeheal_confidence_score"]; !ok {
		t.Fatal("expected kubeheal_confidence_score to be registered")
	}
	if _, ok := found["kubeheal_stage_duration_seconds"]; !ok {
		t.Fatal("expected kubeheal_stage_duration_seconds to be registered")
	}
	if _, ok := found["kubeheal_analyzer_failures_total"]; !ok {
		t.Fatal("expected kubeheal_analyzer_failures_total to be registered")
	}
}
