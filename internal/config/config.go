/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package config defines the narrow contract the pipeline needs from an
// external configuration loader: which files/rules to ignore, and the
// health score threshold a run is judged against. Loading a config file
// from disk is explicitly out of scope (spec.md §1 Non-goals) — this
// package only supplies the interface and a couple of simple
// implementations callers can wire their own loader behind.
package config

import (
	"sync"

	"github.com/gobwas/glob"
)

// Config is what the orchestrator consults before emitting a finding
// (IsIgnored). HealthThreshold is carried for callers that judge a run's
// overall health score; internal/heal itself does not read it.
type Config interface {
	// IsIgnored reports whether filePath, optionally scoped to ruleID,
	// should be suppressed. ruleID is empty when checking whether a file
	// is ignored outright.
	IsIgnored(filePath, ruleID string) bool
	// HealthThreshold is the minimum confidence score a run must clear.
	HealthThreshold() int
}

// NullConfig ignores nothing and uses the spec default threshold of 70.
type NullConfig struct{}

func (NullConfig) IsIgnored(string, string) bool { return false }
func (NullConfig) HealthThreshold() int          { return 70 }

// IgnoreRule pairs a glob pattern against file paths with an optional
// rule ID glob; an empty RuleGlob matches any rule (whole-file ignore).
type IgnoreRule struct {
	PathGlob string
	RuleGlob string
}

// GlobConfig implements Config from a static list of ignore rules plus a
// configurable health threshold, compiling each glob once up front.
type GlobConfig struct {
	threshold int

	mu      sync.Mutex
	compiled []compiledRule
}

type compiledRule struct {
	path glob.Glob
	rule glob.Glob
}

// NewGlobConfig compiles rules and returns a ready-to-use GlobConfig. A
// malformed glob pattern is skipped rather than failing the whole config,
// since one bad pattern in a user's config should not block every run.
func NewGlobConfig(threshold int, rules []IgnoreRule) *GlobConfig {
	if threshold <= 0 {
		threshold = 70
	}
	c := &GlobConfig{threshold: threshold}
	for _, r := range rules {
		pathGlob, err := glob.Compile(r.PathGlob, '/')
		if err != nil {
			continue
		}
		var ruleGlob glob.Glob
		if r.RuleGlob != "" {
			ruleGlob, err = glob.Compile(r.RuleGlob)
			if err != nil {
				continue
			}
		}
		c.compiled = append(c.compiled, compiledRule{path: pathGlob, rule: ruleGlob})
	}
	return c
}

func (c *GlobConfig) IsIgnored(filePath, ruleID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.compiled {
		if !r.path.Match(filePath) {
			continue
		}
		if r.rule == nil {
			return true
		}
		if ruleID != "" && r.rule.Match(ruleID) {
			return true
		}
	}
	return false
}

func (c *GlobConfig) HealthThreshold() int {
	return c.threshold
}
