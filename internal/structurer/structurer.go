/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package structurer rebuilds an ordered document tree from one
// document's shards, using the forced-array set and the shard stream's
// own nesting to decide between maps and sequences.
package structurer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kubeheal/healer/pkg/model"
)

// frame is one entry of the reconstruction stack.
type frame struct {
	indent    int
	container *model.Value // KindMap or KindSeq
	key       string       // the key this container was created under, if any
}

// Result is one document's reconstructed tree plus any findings the
// reconstruction itself produced (structural-impossibility recoveries).
type Result struct {
	Doc     *model.Value
	Actions []model.HealAction
}

// Build reconstructs a single document's shards (already split by the
// caller on IsDocBoundary) into an ordered tree.
func Build(shards []*model.Shard) Result {
	root := model.NewMap()
	if len(shards) == 0 {
		return Result{Doc: root}
	}

	var actions []model.HealAction
	stack := []frame{{indent: minIndent(shards) - 1, container: root}}

	for i, s := range shards {
		if s.IsBlockScalarContinuation || (!s.HasKey && !s.HasValue && !s.IsListItem && s.Comment == "") {
			continue
		}

		for len(stack) > 1 {
			top := stack[len(stack)-1]
			if top.indent < s.Indent {
				break
			}
			if top.indent == s.Indent && s.IsListItem && top.container.Kind == model.KindSeq {
				break
			}
			stack = stack[:len(stack)-1]
		}

		top := stack[len(stack)-1]
		nextDeeper := i+1 < len(shards) && isDeeper(shards[i+1:], s.Indent)

		switch top.container.Kind {
		case model.KindSeq:
			actions = append(actions, appendToSeq(&stack, s, shards[i+1:], nextDeeper)...)
		case model.KindMap:
			actions = append(actions, appendToMap(&stack, s, shards[i+1:], nextDeeper)...)
		}
	}

	return Result{Doc: root, Actions: actions}
}

// minIndent finds the shallowest indent among data-carrying shards, used
// as the synthetic sentinel one level above the document root.
func minIndent(shards []*model.Shard) int {
	min := -1
	for _, s := range shards {
		if s.IsBlockScalarContinuation || (!s.HasKey && !s.HasValue && !s.IsListItem) {
			continue
		}
		if min < 0 || s.Indent < min {
			min = s.Indent
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

// isDeeper reports whether the next non-blank, non-boundary shard is more
// deeply indented than indent — used to decide whether a keyed shard
// opens a nested container or is a plain scalar.
func isDeeper(rest []*model.Shard, indent int) bool {
	for _, s := range rest {
		if s.IsBlockScalarContinuation || s.IsDocBoundary {
			return false
		}
		if !s.HasKey && !s.HasValue && !s.IsListItem {
			continue
		}
		return s.Indent > indent
	}
	return false
}

func appendToMap(stack *[]frame, s *model.Shard, rest []*model.Shard, nextDeeper bool) []model.HealAction {
	top := &(*stack)[len(*stack)-1]
	m := top.container

	if s.IsListItem {
		// A list item whose resolved parent is a map: structurally
		// impossible under strict nesting. Synthesize item_N instead of
		// crashing or dropping data (spec.md §4.4 "Safety").
		key := fmt.Sprintf("item_%d", m.Map.Len())
		v := scalarOrContainer(s, rest, nextDeeper, stack, key)
		m.Map.SetEntry(model.MapEntry{Key: key, Value: v, Layout: s.Layout, LineComment: s.Comment})
		return []model.HealAction{{
			Stage:       "structurer",
			ActionType:  "STRUCTURAL_RECOVERY",
			Target:      key,
			Description: fmt.Sprintf("list item at line %d had a map parent; synthesized key %q to preserve it", s.Line, key),
			Severity:    model.SeverityWarning,
		}}
	}

	if !s.HasKey {
		return nil
	}

	v := scalarOrContainer(s, rest, nextDeeper, stack, s.Key)
	m.Map.SetEntry(model.MapEntry{Key: s.Key, Value: v, Layout: s.Layout, LineComment: s.Comment})
	return nil
}

func appendToSeq(stack *[]frame, s *model.Shard, rest []*model.Shard, nextDeeper bool) []model.HealAction {
	top := (*stack)[len(*stack)-1]
	seq := top.container

	if !s.IsListItem {
		// A sibling field of the map that is the sequence's last element,
		// rather than a new element (spec.md §4.4 step 2).
		if len(seq.Seq) > 0 {
			last := seq.Seq[len(seq.Seq)-1]
			if last.Kind == model.KindMap {
				v := scalarOrContainer(s, rest, nextDeeper, stack, s.Key)
				last.Map.SetEntry(model.MapEntry{Key: s.Key, Value: v, Layout: s.Layout, LineComment: s.Comment})
			}
		}
		return nil
	}

	if s.HasKey {
		item := model.NewMap()
		item.Layout = s.Layout
		v := scalarOrContainer(s, rest, nextDeeper, stack, s.Key)
		item.Map.SetEntry(model.MapEntry{Key: s.Key, Value: v})
		seq.Seq = append(seq.Seq, item)
		*stack = append(*stack, frame{indent: s.Indent, container: item})
		return nil
	}

	// bare scalar list item
	v := parseScalar(s.Value, s.ValueTag, s.Comment)
	v.Layout = s.Layout
	seq.Seq = append(seq.Seq, v)
	return nil
}

// scalarOrContainer decides, per spec.md §4.4 steps 4-5, whether a keyed
// shard's value is a nested container (pushed onto stack) or a parsed
// scalar (possibly forced into a single-element sequence).
func scalarOrContainer(s *model.Shard, rest []*model.Shard, nextDeeper bool, stack *[]frame, key string) *model.Value {
	if nextDeeper {
		var v *model.Value
		if model.ForcedArraySet[key] {
			v = model.NewSeq()
		} else {
			v = model.NewMap()
		}
		*stack = append(*stack, frame{indent: s.Indent, container: v, key: key})
		return v
	}

	v := parseScalar(s.Value, s.ValueTag, s.Comment)
	if model.ForcedArraySet[key] && s.HasValue {
		seq := model.NewSeq()
		seq.Seq = append(seq.Seq, v)
		return seq
	}
	return v
}

// parseScalar types a shard's raw value string per spec.md §4.4 step 5:
// booleans, then integers/floats, otherwise a string.
func parseScalar(raw, tag, comment string) *model.Value {
	v := &model.Value{LineComment: comment}
	if raw == "" {
		v.Kind = model.KindNull
		return v
	}
	if tag != "" {
		v.Kind = model.KindString
		v.Str = tag + " " + raw
		return v
	}
	unquoted, wasQuoted := unquote(raw)

	if !wasQuoted {
		switch strings.ToLower(unquoted) {
		case "true":
			v.Kind = model.KindBool
			v.Bool = true
			return v
		case "false":
			v.Kind = model.KindBool
			v.Bool = false
			return v
		case "null", "~", "":
			v.Kind = model.KindNull
			return v
		}
		if i, err := strconv.ParseInt(unquoted, 10, 64); err == nil {
			v.Kind = model.KindInt
			v.Int = i
			return v
		}
		if f, err := strconv.ParseFloat(unquoted, 64); err == nil {
			v.Kind = model.KindFloat
			v.Float = f
			return v
		}
	}

	v.Kind = model.KindString
	v.Str = unquoted
	v.Quoted = wasQuoted
	return v
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1], true
		}
	}
	return s, false
}
