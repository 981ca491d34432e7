/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package config

import "testing"

func TestNullConfigDefaults(t *testing.T) {
	var c NullConfig
	if c.IsIgnored("anything.yaml", "images/no-latest") {
		t.Fatal("expected NullConfig to ignore nothing")
	}
	if c.HealthThreshold() != 70 {
		t.Fatalf("expected default threshold 70, got %d", c.HealthThreshold())
	}
}

func TestGlobConfigWholeFileIgnore(t *testing.T) {
	c := NewGlobConfig(80, []IgnoreRule{{PathGlob: "vendor/**"}})
	if !c.IsIgnored("vendor/chart/templates/deploy.yaml", "images/no-latest") {
		t.Fatal("expected vendor path to be ignored")
	}
	if c.IsIgnored("app/deploy.yaml", "images/no-latest") {
		t.Fatal("expected non-matching path to pass through")
	}
	if c.HealthThreshold() != 80 {
		t.Fatalf("expected threshold 80, got %d", c.HealthThreshold())
	}
}

func TestGlobConfigRuleScoped(t *testing.T) {
	c := NewGlobConfig(70, []IgnoreRule{{PathGlob: "test/**", RuleGlob: "security/*"}})
	if !c.IsIgnored("test/fixtures/pod.yaml", "security/no-privileged") {
		t.Fatal("expected rule-scoped ignore to match")
	}
	if c.IsIgnored("test/fixtures/pod.yaml", "images/no-latest") {
		t.Fatal("expected non-matching rule to pass through")
	}
}

func TestGlobConfigInvalidPatternSkipped(t *testing.T) {
	c := NewGlobConfig(70, []IgnoreRule{{PathGlob: "["}})
	if c.IsIgnored("anything.yaml", "") {
		t.Fatal("expected malformed pattern to be skipped, not matched")
	}
}

func TestGlobConfigDefaultThreshold(t *testing.T) {
	c := NewGlobConfig(0, nil)
	if c.HealthThreshold() != 70 {
		t.Fatalf("expected zero threshold to fall back to 70, got %d", c.HealthThreshold())
	}
}
