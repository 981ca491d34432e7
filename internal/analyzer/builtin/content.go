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
	"strings"

	"github.com/kubeheal/healer/internal/analyzer"
	"github.com/kubeheal/healer/pkg/model"
)

// ImageAnalyzer flags containers with no tag or an explicit :latest tag.
type ImageAnalyzer struct{}

func (ImageAnalyzer) Name() string         { return "ImageAnalyzer" }
func (ImageAnalyzer) Type() analyzer.Type  { return analyzer.TypeContent }

func (ImageAnalyzer) AnalyzeContent(doc *model.Value, id *model.Identity) []model.AnalysisResult {
	var results []model.AnalysisResult
	for _, c := range collectContainers(doc) {
		name, _ := stringField(c, "name")
		image, ok := stringField(c, "image")
		if !ok {
			continue
		}
		ref := image
		if i := strings.LastIndex(image, "/"); i >= 0 {
			ref = image[i+1:]
		}
		if !strings.Contains(ref, ":") || strings.HasSuffix(image, ":latest") {
			results = append(results, model.AnalysisResult{
				AnalyzerName: "ImageAnalyzer",
				Severity:     model.SeverityError,
				Message:      fmt.Sprintf("container %q uses an untagged or :latest image %q", name, image),
				ResourceName: id.Name,
				ResourceKind: id.Kind,
				FilePath:     id.FilePath,
				RuleID:       "images/no-latest",
			})
		}
	}
	return results
}

// ResourceAnalyzer requires both resources.requests and resources.limits
// on every container.
type ResourceAnalyzer struct{}

func (ResourceAnalyzer) Name() string        { return "ResourceAnalyzer" }
func (ResourceAnalyzer) Type() analyzer.Type { return analyzer.TypeContent }

func (ResourceAnalyzer) AnalyzeContent(doc *model.Value, id *model.Identity) []model.AnalysisResult {
	var results []model.AnalysisResult
	for _, c := range collectContainers(doc) {
		name, _ := stringField(c, "name")
		resources, _ := mapField(c, "resources")
		if _, ok := mapField(resources, "requests"); !ok {
			results = append(results, model.AnalysisResult{
				AnalyzerName: "ResourceAnalyzer",
				Severity:     model.SeverityWarning,
				Message:      fmt.Sprintf("container %q has no resources.requests", name),
				ResourceName: id.Name,
				ResourceKind: id.Kind,
				FilePath:     id.FilePath,
				RuleID:       "resources/missing-requests",
			})
		}
		if _, ok := mapField(resources, "limits"); !ok {
			results = append(results, model.AnalysisResult{
				AnalyzerName: "ResourceAnalyzer",
				Severity:     model.SeverityWarning,
				Message:      fmt.Sprintf("container %q has no resources.limits", name),
				ResourceName: id.Name,
				ResourceKind: id.Kind,
				FilePath:     id.FilePath,
				RuleID:       "resources/missing-limits",
			})
		}
	}
	return results
}

// SecurityAnalyzer requires Pod-level runAsNonRoot and forbids
// container-level privileged.
type SecurityAnalyzer struct{}

func (SecurityAnalyzer) Name() string        { return "SecurityAnalyzer" }
func (SecurityAnalyzer) Type() analyzer.Type { return analyzer.TypeContent }

func (SecurityAnalyzer) AnalyzeContent(doc *model.Value, id *model.Identity) []model.AnalysisResult {
	var results []model.AnalysisResult
	for _, pod := range findPodSpecs(doc) {
		secCtx, _ := mapField(pod, "securityContext")
		runAsNonRoot, ok := boolField(secCtx, "runAsNonRoot")
		if !ok || !runAsNonRoot {
			results = append(results, model.AnalysisResult{
				AnalyzerName: "SecurityAnalyzer",
				Severity:     model.SeverityError,
				Message:      "pod spec does not set securityContext.runAsNonRoot: true",
				ResourceName: id.Name,
				ResourceKind: id.Kind,
				FilePath:     id.FilePath,
				RuleID:       "security/run-as-non-root",
			})
		}
	}
	for _, c := range collectContainers(doc) {
		name, _ := stringField(c, "name")
		secCtx, _ := mapField(c, "securityContext")
		if privileged, ok := boolField(secCtx, "privileged"); ok && privileged {
			results = append(results, model.AnalysisResult{
				AnalyzerName: "SecurityAnalyzer",
				Severity:     model.SeverityError,
				Message:      fmt.Sprintf("container %q runs with securityContext.privileged: true", name),
				ResourceName: id.Name,
				ResourceKind: id.Kind,
				FilePath:     id.FilePath,
				RuleID:       "security/no-privileged",
			})
		}
	}
	return results
}

// ProbeAnalyzer requires liveness and readiness probes on workload
// containers (not bare config/RBAC kinds).
type ProbeAnalyzer struct{}

func (ProbeAnalyzer) Name() string        { return "ProbeAnalyzer" }
func (ProbeAnalyzer) Type() analyzer.Type { return analyzer.TypeContent }

func (ProbeAnalyzer) AnalyzeContent(doc *model.Value, id *model.Identity) []model.AnalysisResult {
	if !workloadKinds[id.Kind] {
		return nil
	}
	var results []model.AnalysisResult
	for _, c := range collectContainers(doc) {
		name, _ := stringField(c, "name")
		if _, ok := mapField(c, "livenessProbe"); !ok {
			results = append(results, model.AnalysisResult{
				AnalyzerName: "ProbeAnalyzer",
				Severity:     model.SeverityWarning,
				Message:      fmt.Sprintf("container %q has no livenessProbe", name),
				ResourceName: id.Name,
				ResourceKind: id.Kind,
				FilePath:     id.FilePath,
				RuleID:       "probes/missing-liveness",
			})
		}
		if _, ok := mapField(c, "readinessProbe"); !ok {
			results = append(results, model.AnalysisResult{
				AnalyzerName: "ProbeAnalyzer",
				Severity:     model.SeverityWarning,
				Message:      fmt.Sprintf("container %q has no readinessProbe", name),
				ResourceName: id.Name,
				ResourceKind: id.Kind,
				FilePath:     id.FilePath,
				RuleID:       "probes/missing-readiness",
			})
		}
	}
	return results
}
