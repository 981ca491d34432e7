/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package migrator

import (
	"testing"

	"github.com/kubeheal/healer/pkg/model"
)

func mapDoc(entries ...model.MapEntry) *model.Value {
	m := model.NewMap()
	for _, e := range entries {
		m.Map.SetEntry(e)
	}
	return m
}

func kv(key string, v *model.Value) model.MapEntry {
	return model.MapEntry{Key: key, Value: v}
}

func TestMigrateReplaceAPIVersionOnly(t *testing.T) {
	doc := mapDoc(
		kv("apiVersion", model.NewString("networking.k8s.io/v1beta1")),
		kv("kind", model.NewString("NetworkPolicy-placeholder")),
		kv("metadata", mapDoc(kv("name", model.NewString("np")))),
	)
	// extensions/v1beta1 NetworkPolicy is the real table entry; rebuild with that kind.
	doc.Map.Set("kind", model.NewString("NetworkPolicy"))
	doc.Map.Set("apiVersion", model.NewString("extensions/v1beta1"))

	actions := Migrate(doc, "v1.30")
	if len(actions) != 1 || actions[0].ActionType != "MIGRATED" {
		t.Fatalf("expected one MIGRATED action, got %+v", actions)
	}
	v, _ := doc.Map.Get("apiVersion")
	if v.Str != "networking.k8s.io/v1" {
		t.Fatalf("expected apiVersion rewritten to networking.k8s.io/v1, got %s", v.Str)
	}
}

func TestMigrateDeploymentSelectorSynthesized(t *testing.T) {
	labels := mapDoc(kv("app", model.NewString("web")))
	template := mapDoc(kv("metadata", mapDoc(kv("labels", labels))))
	spec := mapDoc(kv("template", template))
	doc := mapDoc(
		kv("apiVersion", model.NewString("extensions/v1beta1")),
		kv("kind", model.NewString("Deployment")),
		kv("metadata", mapDoc(kv("name", model.NewString("web")))),
		kv("spec", spec),
	)

	actions := Migrate(doc, "v1.20")
	if len(actions) != 1 || actions[0].ActionType != "MIGRATED" {
		t.Fatalf("expected one MIGRATED action, got %+v", actions)
	}
	specVal, _ := doc.Map.Get("spec")
	selector, ok := specVal.Map.Get("selector")
	if !ok {
		t.Fatalf("expected a synthesized spec.selector")
	}
	matchLabels, ok := selector.Map.Get("matchLabels")
	if !ok {
		t.Fatalf("expected selector.matchLabels")
	}
	app, ok := matchLabels.Map.Get("app")
	if !ok || app.Str != "web" {
		t.Fatalf("expected matchLabels.app=web, got %+v", app)
	}
}

func TestMigrateDeploymentSelectorFailsWithoutLabels(t *testing.T) {
	doc := mapDoc(
		kv("apiVersion", model.NewString("extensions/v1beta1")),
		kv("kind", model.NewString("Deployment")),
		kv("metadata", mapDoc(kv("name", model.NewString("web")))),
		kv("spec", mapDoc()),
	)

	actions := Migrate(doc, "v1.20")
	if len(actions) != 1 || actions[0].ActionType != "MIGRATION_FAILED" {
		t.Fatalf("expected a MIGRATION_FAILED action, got %+v", actions)
	}
}

func TestMigrateIngressSetsPathType(t *testing.T) {
	path := mapDoc(kv("path", model.NewString("/")))
	paths := model.NewSeq()
	paths.Seq = append(paths.Seq, path)
	http := mapDoc(kv("paths", paths))
	rule := mapDoc(kv("http", http))
	rules := model.NewSeq()
	rules.Seq = append(rules.Seq, rule)
	spec := mapDoc(kv("rules", rules))
	doc := mapDoc(
		kv("apiVersion", model.NewString("extensions/v1beta1")),
		kv("kind", model.NewString("Ingress")),
		kv("metadata", mapDoc(kv("name", model.NewString("ing")))),
		kv("spec", spec),
	)

	actions := Migrate(doc, "v1.25")
	if len(actions) != 1 || actions[0].ActionType != "MIGRATED" {
		t.Fatalf("expected one MIGRATED action, got %+v", actions)
	}
	pathType, ok := path.Map.Get("pathType")
	if !ok || pathType.Str != "ImplementationSpecific" {
		t.Fatalf("expected pathType ImplementationSpecific, got %+v", pathType)
	}
}

func TestMigrateSkipsBelowTargetVersion(t *testing.T) {
	doc := mapDoc(
		kv("apiVersion", model.NewString("batch/v1beta1")),
		kv("kind", model.NewString("CronJob")),
		kv("metadata", mapDoc(kv("name", model.NewString("cj")))),
	)
	actions := Migrate(doc, "v1.20")
	if actions != nil {
		t.Fatalf("expected no migration below the removal version, got %+v", actions)
	}
}

func TestMigrateNoStrategyStillReported(t *testing.T) {
	doc := mapDoc(
		kv("apiVersion", model.NewString("policy/v1beta1")),
		kv("kind", model.NewString("PodSecurityPolicy")),
		kv("metadata", mapDoc(kv("name", model.NewString("psp")))),
	)
	actions := Migrate(doc, "v1.30")
	if len(actions) != 1 || actions[0].ActionType != "MIGRATION_SKIPPED" {
		t.Fatalf("expected a MIGRATION_SKIPPED action, got %+v", actions)
	}
}

func TestMigrateNonDeprecatedDocUntouched(t *testing.T) {
	doc := mapDoc(
		kv("apiVersion", model.NewString("v1")),
		kv("kind", model.NewString("Pod")),
		kv("metadata", mapDoc(kv("name", model.NewString("p")))),
	)
	if actions := Migrate(doc, "v1.30"); actions != nil {
		t.Fatalf("expected no actions for a non-deprecated document, got %+v", actions)
	}
}
