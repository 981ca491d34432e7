/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package catalog

import "testing"

func TestLoadJSONCatalogBareKind(t *testing.T) {
	c := New()
	data := []byte(`{
		"Service": {
			"fields": {
				"spec": {"ports": {}, "selector": {}},
				"metadata": {}
			}
		}
	}`)
	if err := c.LoadJSON(data); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if !c.Has("v1", "Service") {
		t.Fatalf("expected Service to resolve")
	}
	if !c.IsSchemaKey("ports") {
		t.Fatalf("expected nested key 'ports' to be folded into the schema union")
	}
	if !c.IsSchemaKey("selector") {
		t.Fatalf("expected nested key 'selector' to be folded into the schema union")
	}
}

func TestLoadJSONCatalogQualifiedKind(t *testing.T) {
	c := New()
	data := []byte(`{
		"apps/v1/Deployment": {
			"fields": { "spec": {} }
		}
	}`)
	if err := c.LoadJSON(data); err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if !c.Has("apps/v1", "Deployment") {
		t.Fatalf("expected apps/v1 Deployment to resolve")
	}
	if c.Has("v1", "Deployment") {
		t.Fatalf("did not expect bare Deployment under a different apiVersion to resolve")
	}
}

func TestUnknownKindNotResolved(t *testing.T) {
	c := New()
	if c.Has("v1", "Widget") {
		t.Fatalf("expected an empty catalog to resolve nothing")
	}
}

func TestInferAPIVersionFallbackTable(t *testing.T) {
	cases := map[string]string{
		"Pod":                     "v1",
		"Deployment":              "apps/v1",
		"CronJob":                 "batch/v1",
		"Ingress":                 "networking.k8s.io/v1",
		"ClusterRole":             "rbac.authorization.k8s.io/v1",
		"HorizontalPodAutoscaler": "autoscaling/v2",
		"PodDisruptionBudget":     "policy/v1",
	}
	for kind, want := range cases {
		got, ok := InferAPIVersion(kind)
		if !ok || got != want {
			t.Fatalf("InferAPIVersion(%s) = (%s, %v), want (%s, true)", kind, got, ok, want)
		}
	}
	if _, ok := InferAPIVersion("NotAKind"); ok {
		t.Fatalf("expected an unknown kind to not be in the fallback table")
	}
}

func TestSplitKeyQualifiedAndBare(t *testing.T) {
	if av, k := splitKey("apps/v1/Deployment"); av != "apps/v1" || k != "Deployment" {
		t.Fatalf("splitKey qualified = (%s, %s)", av, k)
	}
	if av, k := splitKey("Pod"); av != "" || k != "Pod" {
		t.Fatalf("splitKey bare = (%s, %s)", av, k)
	}
}
