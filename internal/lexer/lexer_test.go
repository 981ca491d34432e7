/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package lexer

import (
	"strings"
	"testing"

	"github.com/kubeheal/healer/pkg/model"
)

func TestFusedKeywordSplit(t *testing.T) {
	shards, stats := New().Run("kindService\nmetadata:\n  name: s\n")
	if stats.FusedKeywordSplits != 1 {
		t.Fatalf("expected 1 fused keyword split, got %d", stats.FusedKeywordSplits)
	}
	if shards[0].Key != "kind" || shards[0].Value != "Service" {
		t.Fatalf("expected kind=Service, got key=%q value=%q", shards[0].Key, shards[0].Value)
	}
}

func TestMissingColonHeuristic(t *testing.T) {
	_, stats := New().Run("spec\n  ports:\n    - port: 80\n")
	if stats.MissingColonsInserted != 1 {
		t.Fatalf("expected 1 missing colon insertion, got %d", stats.MissingColonsInserted)
	}
}

func TestMissingColonSkipsStopwords(t *testing.T) {
	_, stats := New().Run("Note\n  more text\n")
	if stats.MissingColonsInserted != 0 {
		t.Fatalf("expected stopword 'Note' to be left alone, got %d insertions", stats.MissingColonsInserted)
	}
}

func TestFlushLeftListFixed(t *testing.T) {
	input := "spec:\n  containers:\n- name: app\n  image: app:latest\n"
	shards, stats := New().Run(input)
	if stats.FlushLeftListsFixed == 0 {
		t.Fatalf("expected flush-left list to be fixed")
	}
	var found bool
	for _, s := range shards {
		if s.IsListItem && s.Key == "name" && s.Value == "app" {
			found = true
			if s.Indent != 4 {
				t.Fatalf("expected list item reindented to 4, got %d", s.Indent)
			}
		}
	}
	if !found {
		t.Fatalf("expected to find the 'name: app' list item shard")
	}
}

func TestSecondListOfMapsItemKeepsIndentAcrossNestedKeys(t *testing.T) {
	input := "spec:\n  containers:\n  - name: app\n    image: app:1.0\n  - name: sidecar\n    image: sidecar:1.0\n"
	shards, stats := New().Run(input)
	var dashes []*model.Shard
	for _, s := range shards {
		if s.IsListItem && s.Key == "name" {
			dashes = append(dashes, s)
		}
	}
	if len(dashes) != 2 {
		t.Fatalf("expected two list items, got %d", len(dashes))
	}
	for _, d := range dashes {
		if d.Indent != 4 {
			t.Fatalf("expected both list items at indent 4, got %+v", dashes)
		}
	}
	if stats.NestedListsNormalized != 0 {
		t.Fatalf("expected no spurious repairs on already-correctly-indented siblings, got %+v", stats)
	}
}

func TestListMarkerSpacing(t *testing.T) {
	shards, _ := New().Run("items:\n  -item1\n")
	for _, s := range shards {
		if s.IsListItem {
			if s.Value != "item1" {
				t.Fatalf("expected list item value 'item1', got %q", s.Value)
			}
		}
	}
}

func TestColonSpacing(t *testing.T) {
	shards, _ := New().Run("key:value\n")
	if shards[0].Key != "key" || shards[0].Value != "value" {
		t.Fatalf("expected key=value split, got key=%q value=%q", shards[0].Key, shards[0].Value)
	}
}

func TestQuoteBalancing(t *testing.T) {
	shards, stats := New().Run(`name: "unterminated` + "\n")
	if stats.QuoteRepairs != 1 {
		t.Fatalf("expected 1 quote repair, got %d", stats.QuoteRepairs)
	}
	if !strings.HasSuffix(shards[0].Value, `"`) {
		t.Fatalf("expected closing quote appended, got %q", shards[0].Value)
	}
}

func TestBooleanProtection(t *testing.T) {
	for _, v := range []string{"NO", "ON", "OFF", "YES"} {
		shards, stats := New().Run("code: " + v + "\n")
		if stats.BooleanProtections != 1 {
			t.Fatalf("value %q: expected boolean protection, got %d", v, stats.BooleanProtections)
		}
		want := `"` + v + `"`
		if shards[0].Value != want {
			t.Fatalf("value %q: expected quoted %q, got %q", v, want, shards[0].Value)
		}
	}
}

func TestBlockScalarContentNotRepaired(t *testing.T) {
	input := "data:\n  script: |\n    kindService\n    - not a list\n"
	shards, stats := New().Run(input)
	if stats.FusedKeywordSplits != 0 {
		t.Fatalf("block scalar content should not be repaired, got %d fused splits", stats.FusedKeywordSplits)
	}
	var sawContinuation bool
	for _, s := range shards {
		if s.IsBlockScalarContinuation {
			sawContinuation = true
		}
	}
	if !sawContinuation {
		t.Fatalf("expected block scalar continuation shards")
	}
}

func TestIgnoreDirective(t *testing.T) {
	shards, stats := New().Run("weirdline # yamlr:ignore\n")
	if stats.MissingColonsInserted != 0 {
		t.Fatalf("expected ignore directive to suppress colon insertion")
	}
	if !shards[0].IgnoreHeuristics {
		t.Fatalf("expected IgnoreHeuristics to be set")
	}
}

func TestCatastrophicInputNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"\x00\x01\x02",
		strings.Repeat("a", 20000),
		"- - - - -\n\t\t\t:::\n",
	}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Run panicked on input %q: %v", in, r)
				}
			}()
			New().Run(in)
		}()
	}
}

func TestRepairCountersNonNegativeOnCleanInput(t *testing.T) {
	clean := "apiVersion: v1\nkind: Service\nmetadata:\n  name: s\nspec:\n  ports:\n  - port: 80\n"
	_, stats := New().Run(clean)
	if stats.FusedKeywordSplits != 0 || stats.MissingColonsInserted != 0 || stats.QuoteRepairs != 0 {
		t.Fatalf("expected zero repairs on clean input, got %+v", stats)
	}
	if stats.NestedListsNormalized != 0 {
		t.Fatalf("expected the indentless ports/- port sequence not to count as a repair, got %+v", stats)
	}
}

func TestCRLFNormalizedToLF(t *testing.T) {
	shards, _ := New().Run("kind: Service\r\nmetadata:\r\n  name: s\r\n")
	for _, s := range shards {
		if strings.Contains(s.RawLine, "\r") {
			t.Fatalf("expected CRLF stripped from raw line, got %q", s.RawLine)
		}
	}
}
