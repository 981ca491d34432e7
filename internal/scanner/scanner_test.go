/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package scanner

import (
	"testing"

	"github.com/kubeheal/healer/internal/catalog"
	"github.com/kubeheal/healer/internal/lexer"
)

func TestBasicIdentityExtraction(t *testing.T) {
	input := "apiVersion: v1\nkind: Service\nmetadata:\n  name: web\n  namespace: prod\n"
	shards, _ := lexer.New().Run(input)
	ids, actions := Run(shards, catalog.New(), true, "svc.yaml")
	if len(actions) != 0 {
		t.Fatalf("expected no drop actions, got %+v", actions)
	}
	if len(ids) != 1 {
		t.Fatalf("expected one identity, got %d", len(ids))
	}
	id := ids[0]
	if id.Kind != "Service" || id.APIVersion != "v1" || id.Name != "web" || id.Namespace != "prod" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestStrictModeDropsMissingAPIVersion(t *testing.T) {
	input := "kind: Service\nmetadata:\n  name: web\n"
	shards, _ := lexer.New().Run(input)
	ids, actions := Run(shards, catalog.New(), true, "svc.yaml")
	if len(ids) != 0 {
		t.Fatalf("expected identity to be dropped in strict mode, got %+v", ids)
	}
	if len(actions) != 1 || actions[0].ActionType != "IDENTITY_DROPPED" {
		t.Fatalf("expected one IDENTITY_DROPPED action, got %+v", actions)
	}
}

func TestPermissiveModeInfersAPIVersion(t *testing.T) {
	input := "kind: Deployment\nmetadata:\n  name: web\n"
	shards, _ := lexer.New().Run(input)
	ids, actions := Run(shards, catalog.New(), false, "dep.yaml")
	if len(actions) != 0 {
		t.Fatalf("expected no drop actions, got %+v", actions)
	}
	if len(ids) != 1 {
		t.Fatalf("expected one identity, got %d", len(ids))
	}
	if ids[0].APIVersion != "apps/v1" || !ids[0].WasRepaired {
		t.Fatalf("expected inferred apps/v1 and was_repaired, got %+v", ids[0])
	}
}

func TestLabelsCollectedFromRootAndPodTemplate(t *testing.T) {
	input := "" +
		"apiVersion: apps/v1\n" +
		"kind: Deployment\n" +
		"metadata:\n" +
		"  name: web\n" +
		"  labels:\n" +
		"    tier: frontend\n" +
		"spec:\n" +
		"  selector:\n" +
		"    matchLabels:\n" +
		"      app: web\n" +
		"  template:\n" +
		"    metadata:\n" +
		"      labels:\n" +
		"        app: web\n" +
		"        pod-template-hash: abc123\n"
	shards, _ := lexer.New().Run(input)
	ids, _ := Run(shards, catalog.New(), true, "dep.yaml")
	if len(ids) != 1 {
		t.Fatalf("expected one identity, got %d", len(ids))
	}
	id := ids[0]
	if id.Labels["tier"] != "frontend" {
		t.Fatalf("expected root label tier=frontend, got %+v", id.Labels)
	}
	if id.Labels["pod-template-hash"] != "abc123" {
		t.Fatalf("expected pod template label pod-template-hash=abc123, got %+v", id.Labels)
	}
}

func TestServicePortsExtracted(t *testing.T) {
	input := "" +
		"apiVersion: v1\n" +
		"kind: Service\n" +
		"metadata:\n" +
		"  name: web\n" +
		"spec:\n" +
		"  ports:\n" +
		"  - port: 80\n" +
		"    targetPort: 8080\n" +
		"    name: http\n"
	shards, _ := lexer.New().Run(input)
	ids, _ := Run(shards, catalog.New(), true, "svc.yaml")
	if len(ids) != 1 {
		t.Fatalf("expected one identity, got %d", len(ids))
	}
	ports := ids[0].ServicePorts
	if len(ports) != 1 {
		t.Fatalf("expected one port, got %+v", ports)
	}
	if ports[0].Port != 80 || ports[0].TargetPort != "8080" || ports[0].Name != "http" {
		t.Fatalf("unexpected port: %+v", ports[0])
	}
}

func TestMultiDocumentProducesMultipleIdentities(t *testing.T) {
	input := "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: a\n---\napiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: b\n"
	shards, _ := lexer.New().Run(input)
	ids, _ := Run(shards, catalog.New(), true, "cm.yaml")
	if len(ids) != 2 {
		t.Fatalf("expected two identities, got %d", len(ids))
	}
	if ids[0].Name != "a" || ids[1].Name != "b" {
		t.Fatalf("unexpected names: %s, %s", ids[0].Name, ids[1].Name)
	}
}
