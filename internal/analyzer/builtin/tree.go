/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package builtin holds the default content and cross-resource analyzers:
// image, resource, security, and probe checks over one document, and the
// Ghost Service / Orphan Config / Broken Volume / Port Mismatch / Ingress
// Backend graph checks over a run's aggregated identities.
package builtin

import (
	"github.com/kubeheal/healer/pkg/model"
)

var workloadKinds = map[string]bool{
	"Deployment": true, "StatefulSet": true, "DaemonSet": true,
	"ReplicaSet": true, "Pod": true, "Job": true, "CronJob": true,
}

// collectContainers finds every container map nested anywhere under doc,
// regardless of whether it sits under spec.containers (Pod),
// spec.template.spec.containers (Deployment/StatefulSet/DaemonSet/Job),
// or spec.jobTemplate.spec.template.spec.containers (CronJob).
func collectContainers(doc *model.Value) []*model.Value {
	var out []*model.Value
	var walk func(*model.Value)
	walk = func(v *model.Value) {
		if v == nil {
			return
		}
		switch v.Kind {
		case model.KindMap:
			for _, e := range v.Map.Entries() {
				if (e.Key == "containers" || e.Key == "initContainers") && e.Value != nil && e.Value.Kind == model.KindSeq {
					out = append(out, e.Value.Seq...)
				}
				walk(e.Value)
			}
		case model.KindSeq:
			for _, item := range v.Seq {
				walk(item)
			}
		}
	}
	walk(doc)
	return out
}

// findPodSpecs finds every map that directly carries a "containers" key
// — the Pod-spec-shaped map, wherever it is nested.
func findPodSpecs(doc *model.Value) []*model.Value {
	var out []*model.Value
	var walk func(*model.Value)
	walk = func(v *model.Value) {
		if v == nil {
			return
		}
		switch v.Kind {
		case model.KindMap:
			if _, ok := v.Map.Get("containers"); ok {
				out = append(out, v)
			}
			for _, e := range v.Map.Entries() {
				walk(e.Value)
			}
		case model.KindSeq:
			for _, item := range v.Seq {
				walk(item)
			}
		}
	}
	walk(doc)
	return out
}

func boolField(m *model.Value, key string) (bool, bool) {
	if m == nil || m.Kind != model.KindMap {
		return false, false
	}
	v, ok := m.Map.Get(key)
	if !ok || v.Kind != model.KindBool {
		return false, false
	}
	return v.Bool, true
}

func stringField(m *model.Value, key string) (string, bool) {
	if m == nil || m.Kind != model.KindMap {
		return "", false
	}
	v, ok := m.Map.Get(key)
	if !ok || v.Kind != model.KindString {
		return "", false
	}
	return v.Str, true
}

func mapField(m *model.Value, key string) (*model.Value, bool) {
	if m == nil || m.Kind != model.KindMap {
		return nil, false
	}
	v, ok := m.Map.Get(key)
	if !ok || v.Kind != model.KindMap {
		return nil, false
	}
	return v, true
}
