/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package deprecation is the static, compile-time table of removed or
// replaced Kubernetes APIs, keyed by (apiVersion, kind), covering the
// removals at 1.16, 1.22, 1.25, 1.26, 1.27, and 1.29.
package deprecation

import (
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/kubeheal/healer/pkg/model"
)

// key mirrors a GroupVersionKind but only the fields the table needs;
// apiVersion already folds group+version together the way manifests do.
type key struct {
	apiVersion string
	kind       string
}

// table is populated by init from a declarative list so the entries read
// like a changelog rather than a struct literal forest.
var table = map[key]model.DeprecationInfo{}

type entry struct {
	apiVersion     string
	kind           string
	replacement    string
	deprecatedIn   string
	removedIn      string
	severity       model.DeprecationSeverity
	strategy       model.MigrationStrategy
	notes          string
}

var entries = []entry{
	{"extensions/v1beta1", "Deployment", "apps/v1", "v1.8", "v1.16", model.DeprecationRemoved, model.StrategyDeploymentSelector, "selector becomes required; synthesized from template labels when absent"},
	{"extensions/v1beta1", "DaemonSet", "apps/v1", "v1.8", "v1.16", model.DeprecationRemoved, model.StrategyDeploymentSelector, "selector becomes required; synthesized from template labels when absent"},
	{"extensions/v1beta1", "ReplicaSet", "apps/v1", "v1.8", "v1.16", model.DeprecationRemoved, model.StrategyDeploymentSelector, "selector becomes required; synthesized from template labels when absent"},
	{"extensions/v1beta1", "NetworkPolicy", "networking.k8s.io/v1", "v1.8", "v1.16", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only, shape unchanged"},
	{"apps/v1beta1", "Deployment", "apps/v1", "v1.8", "v1.16", model.DeprecationRemoved, model.StrategyDeploymentSelector, "selector becomes required; synthesized from template labels when absent"},
	{"apps/v1beta1", "StatefulSet", "apps/v1", "v1.8", "v1.16", model.DeprecationRemoved, model.StrategyDeploymentSelector, "selector becomes required; synthesized from template labels when absent"},
	{"apps/v1beta2", "Deployment", "apps/v1", "v1.8", "v1.16", model.DeprecationRemoved, model.StrategyDeploymentSelector, "selector becomes required; synthesized from template labels when absent"},
	{"apps/v1beta2", "DaemonSet", "apps/v1", "v1.8", "v1.16", model.DeprecationRemoved, model.StrategyDeploymentSelector, "selector becomes required; synthesized from template labels when absent"},
	{"apps/v1beta2", "StatefulSet", "apps/v1", "v1.8", "v1.16", model.DeprecationRemoved, model.StrategyDeploymentSelector, "selector becomes required; synthesized from template labels when absent"},

	{"networking.k8s.io/v1beta1", "Ingress", "networking.k8s.io/v1", "v1.14", "v1.22", model.DeprecationRemoved, model.StrategyIngressV1, "pathType becomes required on every rule path"},
	{"extensions/v1beta1", "Ingress", "networking.k8s.io/v1", "v1.14", "v1.22", model.DeprecationRemoved, model.StrategyIngressV1, "pathType becomes required on every rule path"},
	{"node.k8s.io/v1beta1", "RuntimeClass", "node.k8s.io/v1", "v1.20", "v1.22", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only"},
	{"admissionregistration.k8s.io/v1beta1", "ValidatingWebhookConfiguration", "admissionregistration.k8s.io/v1", "v1.16", "v1.22", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only"},
	{"admissionregistration.k8s.io/v1beta1", "MutatingWebhookConfiguration", "admissionregistration.k8s.io/v1", "v1.16", "v1.22", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only"},
	{"apiextensions.k8s.io/v1beta1", "CustomResourceDefinition", "apiextensions.k8s.io/v1", "v1.16", "v1.22", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only; structural schema becomes required"},
	{"certificates.k8s.io/v1beta1", "CertificateSigningRequest", "certificates.k8s.io/v1", "v1.19", "v1.22", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only"},
	{"coordination.k8s.io/v1beta1", "Lease", "coordination.k8s.io/v1", "v1.14", "v1.22", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only"},

	{"batch/v1beta1", "CronJob", "batch/v1", "v1.21", "v1.25", model.DeprecationRemoved, model.StrategyCronJobV1, "body-compatible; apiVersion move only"},
	{"policy/v1beta1", "PodDisruptionBudget", "policy/v1", "v1.21", "v1.25", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only"},
	{"policy/v1beta1", "PodSecurityPolicy", "", "v1.11", "v1.25", model.DeprecationRemoved, model.StrategyNone, "removed with no mechanical replacement; migrate to Pod Security Admission"},

	{"autoscaling/v2beta2", "HorizontalPodAutoscaler", "autoscaling/v2", "v1.23", "v1.26", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only"},
	{"autoscaling/v2beta1", "HorizontalPodAutoscaler", "autoscaling/v2", "v1.23", "v1.26", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only"},

	{"storage.k8s.io/v1beta1", "CSIStorageCapacity", "storage.k8s.io/v1", "v1.24", "v1.27", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only"},

	{"flowcontrol.apiserver.k8s.io/v1beta3", "FlowSchema", "flowcontrol.apiserver.k8s.io/v1", "v1.26", "v1.29", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only"},
	{"flowcontrol.apiserver.k8s.io/v1beta3", "PriorityLevelConfiguration", "flowcontrol.apiserver.k8s.io/v1", "v1.26", "v1.29", model.DeprecationRemoved, model.StrategyReplaceAPIVersion, "apiVersion move only"},
}

func init() {
	for _, e := range entries {
		table[key{apiVersion: e.apiVersion, kind: e.kind}] = model.DeprecationInfo{
			DeprecatedAPI:  e.apiVersion,
			ReplacementAPI: e.replacement,
			DeprecatedIn:   e.deprecatedIn,
			RemovedIn:      e.removedIn,
			Kind:           e.kind,
			Severity:       e.severity,
			MigrationNotes: e.notes,
			Strategy:       e.strategy,
		}
	}
}

// Lookup returns the DeprecationInfo for (apiVersion, kind), if any.
func Lookup(apiVersion, kind string) (model.DeprecationInfo, bool) {
	info, ok := table[key{apiVersion: apiVersion, kind: kind}]
	return info, ok
}

// GVK is a convenience wrapper for callers that already carry a
// schema.GroupVersionKind (e.g. from catalog parsing) rather than a raw
// apiVersion string.
func GVK(gvk schema.GroupVersionKind) (model.DeprecationInfo, bool) {
	return Lookup(gvk.GroupVersion().String(), gvk.Kind)
}
