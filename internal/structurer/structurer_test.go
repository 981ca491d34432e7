/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package structurer

import (
	"testing"

	"github.com/kubeheal/healer/internal/lexer"
	"github.com/kubeheal/healer/internal/shadow"
	"github.com/kubeheal/healer/pkg/model"
)

func build(t *testing.T, input string) *model.Value {
	t.Helper()
	shards, _ := lexer.New().Run(input)
	shadow.Run(shards)
	return Build(shards).Doc
}

func TestScalarTypesParsed(t *testing.T) {
	doc := build(t, "kind: Service\nreplicas: 3\nratio: 1.5\nenabled: true\n")
	kind, _ := doc.Map.Get("kind")
	if kind.Kind != model.KindString || kind.Str != "Service" {
		t.Fatalf("unexpected kind: %+v", kind)
	}
	replicas, _ := doc.Map.Get("replicas")
	if replicas.Kind != model.KindInt || replicas.Int != 3 {
		t.Fatalf("unexpected replicas: %+v", replicas)
	}
	ratio, _ := doc.Map.Get("ratio")
	if ratio.Kind != model.KindFloat || ratio.Float != 1.5 {
		t.Fatalf("unexpected ratio: %+v", ratio)
	}
	enabled, _ := doc.Map.Get("enabled")
	if enabled.Kind != model.KindBool || !enabled.Bool {
		t.Fatalf("unexpected enabled: %+v", enabled)
	}
}

func TestNestedMapReconstructed(t *testing.T) {
	doc := build(t, "metadata:\n  name: web\n  namespace: prod\n")
	metadata, ok := doc.Map.Get("metadata")
	if !ok || metadata.Kind != model.KindMap {
		t.Fatalf("expected a metadata map, got %+v", metadata)
	}
	name, _ := metadata.Map.Get("name")
	if name.Str != "web" {
		t.Fatalf("expected name=web, got %+v", name)
	}
}

func TestForcedArraySingleValueBecomesSeq(t *testing.T) {
	doc := build(t, "command: echo\n")
	command, ok := doc.Map.Get("command")
	if !ok || command.Kind != model.KindSeq {
		t.Fatalf("expected command to be forced into a sequence, got %+v", command)
	}
	if len(command.Seq) != 1 || command.Seq[0].Str != "echo" {
		t.Fatalf("unexpected command seq: %+v", command.Seq)
	}
}

func TestListOfMapsReconstructed(t *testing.T) {
	input := "spec:\n  containers:\n  - name: app\n    image: app:1.0\n  - name: sidecar\n    image: sidecar:1.0\n"
	doc := build(t, input)
	spec, _ := doc.Map.Get("spec")
	containers, ok := spec.Map.Get("containers")
	if !ok || containers.Kind != model.KindSeq || len(containers.Seq) != 2 {
		t.Fatalf("expected two containers, got %+v", containers)
	}
	first := containers.Seq[0]
	name, _ := first.Map.Get("name")
	image, _ := first.Map.Get("image")
	if name.Str != "app" || image.Str != "app:1.0" {
		t.Fatalf("unexpected first container: %+v", first)
	}
	second := containers.Seq[1]
	name2, _ := second.Map.Get("name")
	if name2.Str != "sidecar" {
		t.Fatalf("unexpected second container: %+v", second)
	}
}

func TestBareScalarListReconstructed(t *testing.T) {
	doc := build(t, "finalizers:\n- a\n- b\n")
	finalizers, ok := doc.Map.Get("finalizers")
	if !ok || finalizers.Kind != model.KindSeq || len(finalizers.Seq) != 2 {
		t.Fatalf("expected two finalizer entries, got %+v", finalizers)
	}
	if finalizers.Seq[0].Str != "a" || finalizers.Seq[1].Str != "b" {
		t.Fatalf("unexpected finalizer values: %+v", finalizers.Seq)
	}
}

func TestQuotedBooleanStaysString(t *testing.T) {
	doc := build(t, "flag: \"yes\"\n")
	flag, _ := doc.Map.Get("flag")
	if flag.Kind != model.KindString || flag.Str != "yes" {
		t.Fatalf("expected quoted yes to remain a string, got %+v", flag)
	}
}
