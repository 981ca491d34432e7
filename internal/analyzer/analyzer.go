/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package analyzer defines the pluggable analyzer framework: a registry
// of named, side-effect-free checks run over one document (content), one
// file's identity set (metadata), or the identity set aggregated across
// an entire batch run (batch). Analyzer panics are isolated so one bad
// check never takes down the rest of the run.
package analyzer

import (
	"fmt"

	"github.com/kubeheal/healer/pkg/model"
)

// Type classifies what an Analyzer receives.
type Type string

const (
	TypeMetadata Type = "metadata"
	TypeContent  Type = "content"
	TypeBatch    Type = "batch"
)

// Analyzer is the common surface every registered check implements.
type Analyzer interface {
	Name() string
	Type() Type
}

// ContentAnalyzer inspects one document's reconstructed tree.
type ContentAnalyzer interface {
	Analyzer
	AnalyzeContent(doc *model.Value, identity *model.Identity) []model.AnalysisResult
}

// MetadataAnalyzer inspects the identity set of one file (possibly
// multiple documents from one `---`-separated input).
type MetadataAnalyzer interface {
	Analyzer
	AnalyzeMetadata(identities []*model.Identity) []model.AnalysisResult
}

// BatchAnalyzer inspects the identity set aggregated across every file in
// a run, for cross-resource graph analysis.
type BatchAnalyzer interface {
	Analyzer
	AnalyzeBatch(identities []*model.Identity) []model.AnalysisResult
}

// Registry owns the set of analyzers a pipeline run consults, preserving
// registration order so findings within one file are deterministic.
type Registry struct {
	analyzers []Analyzer
}

// NewRegistry returns an empty registry. heal.DefaultRegistry returns the
// built-in set.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an analyzer, in order, to the registry.
func (r *Registry) Register(a Analyzer) {
	r.analyzers = append(r.analyzers, a)
}

// RunContent runs every registered content analyzer over doc/identity,
// isolating any panic so one broken analyzer does not abort the rest.
func (r *Registry) RunContent(doc *model.Value, identity *model.Identity) ([]model.AnalysisResult, []model.HealAction) {
	var results []model.AnalysisResult
	var actions []model.HealAction
	for _, a := range r.analyzers {
		ca, ok := a.(ContentAnalyzer)
		if !ok {
			continue
		}
		res, action := runIsolated(a.Name(), func() []model.AnalysisResult {
			return ca.AnalyzeContent(doc, identity)
		})
		results = append(results, res...)
		if action != nil {
			actions = append(actions, *action)
		}
	}
	return results, actions
}

// RunMetadata runs every registered metadata analyzer over one file's
// identity set.
func (r *Registry) RunMetadata(identities []*model.Identity) ([]model.AnalysisResult, []model.HealAction) {
	var results []model.AnalysisResult
	var actions []model.HealAction
	for _, a := range r.analyzers {
		ma, ok := a.(MetadataAnalyzer)
		if !ok {
			continue
		}
		res, action := runIsolated(a.Name(), func() []model.AnalysisResult {
			return ma.AnalyzeMetadata(identities)
		})
		results = append(results, res...)
		if action != nil {
			actions = append(actions, *action)
		}
	}
	return results, actions
}

// RunBatch runs every registered batch analyzer over the run-wide
// aggregated identity set.
func (r *Registry) RunBatch(identities []*model.Identity) ([]model.AnalysisResult, []model.HealAction) {
	var results []model.AnalysisResult
	var actions []model.HealAction
	for _, a := range r.analyzers {
		ba, ok := a.(BatchAnalyzer)
		if !ok {
			continue
		}
		res, action := runIsolated(a.Name(), func() []model.AnalysisResult {
			return ba.AnalyzeBatch(identities)
		})
		results = append(results, res...)
		if action != nil {
			actions = append(actions, *action)
		}
	}
	return results, actions
}

// runIsolated recovers a panicking analyzer, turning it into an
// ERROR-severity ANALYZER_FAILED audit action instead of aborting the run (spec.md §7 "Analyzer
// exception").
func runIsolated(name string, fn func() []model.AnalysisResult) (results []model.AnalysisResult, action *model.HealAction) {
	defer func() {
		if r := recover(); r != nil {
			action = &model.HealAction{
				Stage:       "analyzer",
				ActionType:  "ANALYZER_FAILED",
				Target:      name,
				Description: fmt.Sprintf("analyzer %q panicked: %v", name, r),
				Severity:    model.SeverityError,
			}
		}
	}()
	return fn(), nil
}
