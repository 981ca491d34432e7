/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package migrator rewrites deprecated apiVersion/shape documents to
// their replacement, per the target cluster version and the deprecation
// database's recorded strategy.
package migrator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kubeheal/healer/internal/deprecation"
	"github.com/kubeheal/healer/pkg/model"
)

// Migrate rewrites doc in place if its (apiVersion, kind) is deprecated
// and removed at or before targetVersion, returning the audit actions
// taken (or the single failure action if the strategy could not apply).
func Migrate(doc *model.Value, targetVersion string) []model.HealAction {
	if doc == nil || doc.Kind != model.KindMap {
		return nil
	}
	apiVersion, _ := stringField(doc, "apiVersion")
	kind, _ := stringField(doc, "kind")
	if apiVersion == "" || kind == "" {
		return nil
	}

	info, ok := deprecation.Lookup(apiVersion, kind)
	if !ok {
		return nil
	}
	if !removedAtOrBefore(info.RemovedIn, targetVersion) {
		return nil
	}

	name, _ := nestedString(doc, "metadata", "name")
	target := fmt.Sprintf("%s/%s", kind, name)

	switch info.Strategy {
	case model.StrategyReplaceAPIVersion, model.StrategyCronJobV1:
		doc.Map.Set("apiVersion", model.NewString(info.ReplacementAPI))
		return []model.HealAction{{
			Stage:       "migrator",
			ActionType:  "MIGRATED",
			Target:      target,
			Description: fmt.Sprintf("MIGRATED: %s from %s to %s", target, apiVersion, info.ReplacementAPI),
			Severity:    model.SeverityWarning,
		}}

	case model.StrategyIngressV1:
		doc.Map.Set("apiVersion", model.NewString(info.ReplacementAPI))
		fixed := applyIngressPathTypes(doc)
		desc := fmt.Sprintf("MIGRATED: %s from %s to %s", target, apiVersion, info.ReplacementAPI)
		if fixed > 0 {
			desc += fmt.Sprintf(" (set pathType on %d path(s))", fixed)
		}
		return []model.HealAction{{
			Stage:       "migrator",
			ActionType:  "MIGRATED",
			Target:      target,
			Description: desc,
			Severity:    model.SeverityWarning,
		}}

	case model.StrategyDeploymentSelector:
		return migrateDeploymentSelector(doc, apiVersion, info, target)

	case model.StrategyNone:
		return []model.HealAction{{
			Stage:       "migrator",
			ActionType:  "MIGRATION_SKIPPED",
			Target:      target,
			Description: fmt.Sprintf("%s removal in %s has no mechanical replacement: %s", apiVersion, info.RemovedIn, info.MigrationNotes),
			Severity:    model.SeverityWarning,
		}}
	}
	return nil
}

func migrateDeploymentSelector(doc *model.Value, oldAPI string, info model.DeprecationInfo, target string) []model.HealAction {
	spec, ok := mapField(doc, "spec")
	if !ok {
		return failSelectorMigration(target, oldAPI)
	}
	if _, hasSelector := spec.Get("selector"); hasSelector {
		doc.Map.Set("apiVersion", model.NewString(info.ReplacementAPI))
		return []model.HealAction{{
			Stage:       "migrator",
			ActionType:  "MIGRATED",
			Target:      target,
			Description: fmt.Sprintf("MIGRATED: %s from %s to %s", target, oldAPI, info.ReplacementAPI),
			Severity:    model.SeverityWarning,
		}}
	}

	labels, ok := nestedMap(doc, "spec", "template", "metadata", "labels")
	if !ok || labels.Len() == 0 {
		return failSelectorMigration(target, oldAPI)
	}

	matchLabels := model.NewMap()
	for _, e := range labels.Entries() {
		matchLabels.Map.Set(e.Key, e.Value)
	}
	selector := model.NewMap()
	selector.Map.Set("matchLabels", matchLabels)
	spec.Set("selector", selector)
	doc.Map.Set("apiVersion", model.NewString(info.ReplacementAPI))

	return []model.HealAction{{
		Stage:       "migrator",
		ActionType:  "MIGRATED",
		Target:      target,
		Description: fmt.Sprintf("MIGRATED: %s from %s to %s (Added Selector)", target, oldAPI, info.ReplacementAPI),
		Severity:    model.SeverityWarning,
	}}
}

func failSelectorMigration(target, oldAPI string) []model.HealAction {
	return []model.HealAction{{
		Stage:       "migrator",
		ActionType:  "MIGRATION_FAILED",
		Target:      target,
		Description: fmt.Sprintf("cannot migrate %s from %s: no spec.selector and no spec.template.metadata.labels to synthesize one from", target, oldAPI),
		Severity:    model.SeverityError,
	}}
}

// applyIngressPathTypes sets pathType: ImplementationSpecific on every
// spec.rules[].http.paths[] entry missing it, returning the count fixed.
func applyIngressPathTypes(doc *model.Value) int {
	rules, ok := nestedSeq(doc, "spec", "rules")
	if !ok {
		return 0
	}
	fixed := 0
	for _, rule := range rules {
		if rule.Kind != model.KindMap {
			continue
		}
		http, ok := rule.Map.Get("http")
		if !ok || http.Kind != model.KindMap {
			continue
		}
		paths, ok := http.Map.Get("paths")
		if !ok || paths.Kind != model.KindSeq {
			continue
		}
		for _, p := range paths.Seq {
			if p.Kind != model.KindMap {
				continue
			}
			if _, has := p.Map.Get("pathType"); !has {
				p.Map.Set("pathType", model.NewString("ImplementationSpecific"))
				fixed++
			}
		}
	}
	return fixed
}

func stringField(doc *model.Value, key string) (string, bool) {
	if doc == nil || doc.Kind != model.KindMap {
		return "", false
	}
	v, ok := doc.Map.Get(key)
	if !ok || v.Kind != model.KindString {
		return "", false
	}
	return v.Str, true
}

func mapField(doc *model.Value, key string) (*model.OrderedMap, bool) {
	if doc == nil || doc.Kind != model.KindMap {
		return nil, false
	}
	v, ok := doc.Map.Get(key)
	if !ok || v.Kind != model.KindMap {
		return nil, false
	}
	return v.Map, true
}

func nestedString(doc *model.Value, path ...string) (string, bool) {
	cur := doc
	for _, p := range path {
		if cur == nil || cur.Kind != model.KindMap {
			return "", false
		}
		v, ok := cur.Map.Get(p)
		if !ok {
			return "", false
		}
		cur = v
	}
	if cur == nil || cur.Kind != model.KindString {
		return "", false
	}
	return cur.Str, true
}

func nestedMap(doc *model.Value, path ...string) (*model.OrderedMap, bool) {
	cur := doc
	for _, p := range path {
		if cur == nil || cur.Kind != model.KindMap {
			return nil, false
		}
		v, ok := cur.Map.Get(p)
		if !ok {
			return nil, false
		}
		cur = v
	}
	if cur == nil || cur.Kind != model.KindMap {
		return nil, false
	}
	return cur.Map, true
}

func nestedSeq(doc *model.Value, path ...string) ([]*model.Value, bool) {
	cur := doc
	for _, p := range path {
		if cur == nil || cur.Kind != model.KindMap {
			return nil, false
		}
		v, ok := cur.Map.Get(p)
		if !ok {
			return nil, false
		}
		cur = v
	}
	if cur == nil || cur.Kind != model.KindSeq {
		return nil, false
	}
	return cur.Seq, true
}

// removedAtOrBefore reports whether removedIn <= target, comparing major
// then minor and ignoring patch, per spec.md §4.5 ("Version comparison").
func removedAtOrBefore(removedIn, target string) bool {
	rMajor, rMinor, ok1 := parseVersion(removedIn)
	tMajor, tMinor, ok2 := parseVersion(target)
	if !ok1 || !ok2 {
		return false
	}
	if rMajor != tMajor {
		return rMajor < tMajor
	}
	return rMinor <= tMinor
}

func parseVersion(v string) (major, minor int, ok bool) {
	v = strings.TrimPrefix(v, "v")
	v = strings.TrimSuffix(v, "+")
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return major, minor, true
}
