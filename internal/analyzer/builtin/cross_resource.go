/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package builtin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kubeheal/healer/internal/analyzer"
	"github.com/kubeheal/healer/internal/fuzzy"
	"github.com/kubeheal/healer/pkg/model"
)

// Similarity thresholds for the Ghost Service typo detector (spec.md
// §4.6.b / §9 Open Questions): candidates score in [candidateFloor,
// 1.0) on per-key value similarity, or a flat 0.9 when every selector
// "k=v" pair individually finds a close match above closePairFloor. A
// selector key absent from a workload's labels takes part only through
// that "k=v" pair comparison; the detector runs no separate key-name
// check, and missingKeyFloor is not referenced by it.
const (
	candidateFloor  = 0.75
	closePairFloor  = 0.85
	closePairScore  = 0.9
	missingKeyFloor = 0.8
)

// CrossResourceAnalyzer runs the graph checks over the full run's
// aggregated identities: Ghost Service, Orphan Config, Broken Volume,
// Service Port Mismatch, and Ingress Backend.
type CrossResourceAnalyzer struct{}

func (CrossResourceAnalyzer) Name() string        { return "CrossResourceAnalyzer" }
func (CrossResourceAnalyzer) Type() analyzer.Type { return analyzer.TypeBatch }

func (CrossResourceAnalyzer) AnalyzeBatch(identities []*model.Identity) []model.AnalysisResult {
	var results []model.AnalysisResult
	results = append(results, ghostServices(identities)...)
	results = append(results, orphanConfigs(identities)...)
	results = append(results, brokenVolumes(identities)...)
	results = append(results, servicePortMismatches(identities)...)
	results = append(results, ingressBackends(identities)...)
	return results
}

func byKind(identities []*model.Identity, kind string) []*model.Identity {
	var out []*model.Identity
	for _, id := range identities {
		if id.Kind == kind {
			out = append(out, id)
		}
	}
	return out
}

func normEq(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

func selectorSubsetOf(selector, labels map[string]string) bool {
	for k, v := range selector {
		lv, ok := labels[k]
		if !ok || !normEq(lv, v) {
			return false
		}
	}
	return true
}

func ghostServices(identities []*model.Identity) []model.AnalysisResult {
	var results []model.AnalysisResult
	workloads := make([]*model.Identity, 0)
	for _, id := range identities {
		if workloadKinds[id.Kind] {
			workloads = append(workloads, id)
		}
	}

	for _, svc := range byKind(identities, "Service") {
		if len(svc.Selector) == 0 {
			continue
		}

		if anyWorkloadMatches(workloads, svc.Selector, svc.Namespace) {
			continue
		}

		if matched, ns := anyWorkloadMatchesAnyNamespace(workloads, svc.Selector); matched {
			results = append(results, model.AnalysisResult{
				AnalyzerName: "CrossResourceAnalyzer",
				Severity:     model.SeverityWarning,
				Message:      fmt.Sprintf("service %q selects no workload in namespace %q, but a match exists in namespace %q", svc.Name, svc.Namespace, ns),
				ResourceName: svc.Name,
				ResourceKind: "Service",
				FilePath:     svc.FilePath,
				RuleID:       "graph/ghost-service",
				Suggestion:   fmt.Sprintf("move or duplicate the Service into namespace %q, or relabel the workload", ns),
			})
			continue
		}

		if hint, ok := ghostServiceTypoHint(workloads, svc); ok {
			results = append(results, model.AnalysisResult{
				AnalyzerName: "CrossResourceAnalyzer",
				Severity:     model.SeverityWarning,
				Message:      fmt.Sprintf("service %q selects no workload; did you mean a typo fix? %s", svc.Name, hint),
				ResourceName: svc.Name,
				ResourceKind: "Service",
				FilePath:     svc.FilePath,
				RuleID:       "graph/ghost-service",
				Suggestion:   hint,
			})
			continue
		}

		results = append(results, model.AnalysisResult{
			AnalyzerName: "CrossResourceAnalyzer",
			Severity:     model.SeverityWarning,
			Message:      fmt.Sprintf("service %q selects no workload in this run", svc.Name),
			ResourceName: svc.Name,
			ResourceKind: "Service",
			FilePath:     svc.FilePath,
			RuleID:       "graph/ghost-service",
		})
	}
	return results
}

func anyWorkloadMatches(workloads []*model.Identity, selector map[string]string, namespace string) bool {
	for _, wl := range workloads {
		if wl.Namespace != namespace {
			continue
		}
		if selectorSubsetOf(selector, wl.Labels) {
			return true
		}
	}
	return false
}

func anyWorkloadMatchesAnyNamespace(workloads []*model.Identity, selector map[string]string) (bool, string) {
	for _, wl := range workloads {
		if selectorSubsetOf(selector, wl.Labels) {
			return true, wl.Namespace
		}
	}
	return false, ""
}

// ghostServiceTypoHint implements the fuzzy candidate scoring of spec.md
// §4.6.b: per-key value similarity across matching label keys, or a flat
// 0.9 score when every selector "k=v" pair individually finds a close
// match among the workload's labels.
func ghostServiceTypoHint(workloads []*model.Identity, svc *model.Identity) (string, bool) {
	type candidate struct {
		wl    *model.Identity
		score float64
		diffs []string
	}
	var best *candidate

	for _, wl := range workloads {
		if wl.Namespace != svc.Namespace {
			continue
		}

		if score, diffs, ok := valueSimilarityCandidate(svc.Selector, wl.Labels); ok {
			if best == nil || score > best.score {
				best = &candidate{wl: wl, score: score, diffs: diffs}
			}
		} else if diffs, ok := pairSimilarityCandidate(svc.Selector, wl.Labels); ok {
			if best == nil || closePairScore > best.score {
				best = &candidate{wl: wl, score: closePairScore, diffs: diffs}
			}
		}
	}

	if best == nil {
		return "", false
	}
	sort.Strings(best.diffs)
	return fmt.Sprintf("workload %q has near-matching labels (%s)", best.wl.Name, strings.Join(best.diffs, ", ")), true
}

func valueSimilarityCandidate(selector, labels map[string]string) (float64, []string, bool) {
	if len(selector) == 0 {
		return 0, nil, false
	}
	var total float64
	var diffs []string
	for k, v := range selector {
		lv, ok := labels[k]
		if !ok {
			return 0, nil, false
		}
		r := fuzzy.Ratio(v, lv)
		if r < candidateFloor || r >= 1.0 {
			return 0, nil, false
		}
		total += r
		diffs = append(diffs, fmt.Sprintf("%s: %s -> %s", k, v, lv))
	}
	return total / float64(len(selector)), diffs, true
}

func pairSimilarityCandidate(selector, labels map[string]string) ([]string, bool) {
	if len(selector) == 0 {
		return nil, false
	}
	var diffs []string
	for k, v := range selector {
		pair := k + "=" + v
		bestRatio := 0.0
		var bestLabel string
		for lk, lv := range labels {
			r := fuzzy.Ratio(pair, lk+"="+lv)
			if r > bestRatio {
				bestRatio, bestLabel = r, lk+"="+lv
			}
		}
		if bestRatio <= closePairFloor {
			return nil, false
		}
		diffs = append(diffs, fmt.Sprintf("%s -> %s", pair, bestLabel))
	}
	return diffs, true
}

func orphanConfigs(identities []*model.Identity) []model.AnalysisResult {
	var results []model.AnalysisResult
	referenced := make(map[string]map[string]bool) // namespace -> name set
	for _, id := range identities {
		if !workloadKinds[id.Kind] {
			continue
		}
		if referenced[id.Namespace] == nil {
			referenced[id.Namespace] = make(map[string]bool)
		}
		for name := range id.ConfigRefs {
			referenced[id.Namespace][name] = true
		}
	}
	for _, id := range identities {
		if id.Kind != "ConfigMap" && id.Kind != "Secret" {
			continue
		}
		if referenced[id.Namespace][id.Name] {
			continue
		}
		results = append(results, model.AnalysisResult{
			AnalyzerName: "CrossResourceAnalyzer",
			Severity:     model.SeverityWarning,
			Message:      fmt.Sprintf("%s %q is not referenced by any workload in this run", id.Kind, id.Name),
			ResourceName: id.Name,
			ResourceKind: id.Kind,
			FilePath:     id.FilePath,
			RuleID:       "graph/orphan-config",
		})
	}
	return results
}

func brokenVolumes(identities []*model.Identity) []model.AnalysisResult {
	var results []model.AnalysisResult
	pvcs := make(map[string]map[string]bool)
	for _, id := range identities {
		if id.Kind != "PersistentVolumeClaim" {
			continue
		}
		if pvcs[id.Namespace] == nil {
			pvcs[id.Namespace] = make(map[string]bool)
		}
		pvcs[id.Namespace][id.Name] = true
	}
	for _, id := range identities {
		if !workloadKinds[id.Kind] {
			continue
		}
		for name := range id.VolumeRefs {
			if !pvcs[id.Namespace][name] {
				results = append(results, model.AnalysisResult{
					AnalyzerName: "CrossResourceAnalyzer",
					Severity:     model.SeverityError,
					Message:      fmt.Sprintf("%s %q references PersistentVolumeClaim %q, which does not exist in namespace %q", id.Kind, id.Name, name, id.Namespace),
					ResourceName: id.Name,
					ResourceKind: id.Kind,
					FilePath:     id.FilePath,
					RuleID:       "graph/broken-volume",
				})
			}
		}
	}
	return results
}

func servicePortMismatches(identities []*model.Identity) []model.AnalysisResult {
	var results []model.AnalysisResult
	workloads := make([]*model.Identity, 0)
	for _, id := range identities {
		if workloadKinds[id.Kind] {
			workloads = append(workloads, id)
		}
	}
	for _, svc := range byKind(identities, "Service") {
		if len(svc.Selector) == 0 {
			continue
		}
		for _, wl := range workloads {
			if wl.Namespace != svc.Namespace || !selectorSubsetOf(svc.Selector, wl.Labels) {
				continue
			}
			for _, p := range svc.ServicePorts {
				target := p.TargetPort
				if target == "" {
					target = fmt.Sprintf("%d", p.Port)
				}
				if !wl.ContainerPorts[target] {
					results = append(results, model.AnalysisResult{
						AnalyzerName: "CrossResourceAnalyzer",
						Severity:     model.SeverityError,
						Message:      fmt.Sprintf("service %q targets port %q, which workload %q does not expose", svc.Name, target, wl.Name),
						ResourceName: svc.Name,
						ResourceKind: "Service",
						FilePath:     svc.FilePath,
						RuleID:       "graph/service-port-mismatch",
					})
				}
			}
		}
	}
	return results
}

func ingressBackends(identities []*model.Identity) []model.AnalysisResult {
	var results []model.AnalysisResult
	services := byKind(identities, "Service")
	for _, ing := range byKind(identities, "Ingress") {
		for _, backend := range ing.IngressBackends {
			var target *model.Identity
			for _, svc := range services {
				if svc.Namespace == ing.Namespace && svc.Name == backend.Service {
					target = svc
					break
				}
			}
			if target == nil {
				results = append(results, model.AnalysisResult{
					AnalyzerName: "CrossResourceAnalyzer",
					Severity:     model.SeverityError,
					Message:      fmt.Sprintf("ingress %q references service %q, which does not exist in namespace %q", ing.Name, backend.Service, ing.Namespace),
					ResourceName: ing.Name,
					ResourceKind: "Ingress",
					FilePath:     ing.FilePath,
					RuleID:       "graph/ingress-backend",
				})
				continue
			}
			if !backendPortMatches(backend.Port, target.ServicePorts) {
				results = append(results, model.AnalysisResult{
					AnalyzerName: "CrossResourceAnalyzer",
					Severity:     model.SeverityError,
					Message:      fmt.Sprintf("ingress %q backend port %q does not match any port exposed by service %q", ing.Name, backend.Port, target.Name),
					ResourceName: ing.Name,
					ResourceKind: "Ingress",
					FilePath:     ing.FilePath,
					RuleID:       "graph/ingress-backend",
					Suggestion:   allowedPorts(target.ServicePorts),
				})
			}
		}
	}
	return results
}

func backendPortMatches(port string, ports []model.ServicePort) bool {
	for _, p := range ports {
		if p.Name == port || fmt.Sprintf("%d", p.Port) == port {
			return true
		}
	}
	return false
}

func allowedPorts(ports []model.ServicePort) string {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		if p.Name != "" {
			names = append(names, fmt.Sprintf("%s(%d)", p.Name, p.Port))
		} else {
			names = append(names, fmt.Sprintf("%d", p.Port))
		}
	}
	return strings.Join(names, ", ")
}
