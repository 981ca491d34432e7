/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package serializer emits a textual YAML document (or stream) from the
// reconstructed document tree, honoring the majority indent Shadow
// detected, each mapping's leading layout sequence, and inline comments.
//
// This stage is hand-rolled rather than built on a general-purpose YAML
// encoder: no emitter in the example corpus models a Shard/Layout-style
// comment-and-gap contract anchored to a specific key, and round-tripping
// through a typed encoder would discard exactly the human formatting this
// stage exists to preserve. gopkg.in/yaml.v3 is still used, but only by
// tests, to assert the emitted text parses as valid YAML.
package serializer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kubeheal/healer/pkg/model"
)

// Options controls indentation and layout fidelity.
type Options struct {
	// IndentStep is the per-level mapping indent (Shadow's majority step,
	// typically 2).
	IndentStep int
	// SequenceOffset is how far a sequence's "- " markers sit to the
	// right of their parent key, before the dash itself.
	SequenceOffset int
	// Compact forces IndentStep=2, SequenceOffset=0 regardless of the
	// caller-supplied values.
	Compact bool
}

// resolved applies Compact and default fallbacks.
func (o Options) resolved() Options {
	if o.Compact {
		return Options{IndentStep: 2, SequenceOffset: 0}
	}
	if o.IndentStep <= 0 {
		o.IndentStep = 2
	}
	if o.SequenceOffset < 0 {
		o.SequenceOffset = 0
	}
	return o
}

// WriteDocuments renders a document stream, separating documents with a
// bare "---" line when there is more than one.
func WriteDocuments(docs []*model.Value, opts Options) string {
	opts = opts.resolved()
	var b strings.Builder
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("---\n")
		}
		b.WriteString(Write(doc, opts))
	}
	return b.String()
}

// Write renders a single document.
func Write(doc *model.Value, opts Options) string {
	opts = opts.resolved()
	var b strings.Builder
	if doc == nil || doc.Kind != model.KindMap || doc.Map.Len() == 0 {
		return ""
	}
	writeMap(&b, doc.Map, 0, opts)
	return b.String()
}

func writeIndent(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		b.WriteByte(' ')
	}
}

func writeLayout(b *strings.Builder, layout []model.LayoutItem, indent int) {
	for _, item := range layout {
		if item.IsGap {
			for i := 0; i < item.Gap; i++ {
				b.WriteByte('\n')
			}
			continue
		}
		writeIndent(b, indent)
		b.WriteString("#")
		if item.Comment != "" && !strings.HasPrefix(item.Comment, " ") {
			b.WriteString(" ")
		}
		b.WriteString(item.Comment)
		b.WriteString("\n")
	}
}

func writeMap(b *strings.Builder, m *model.OrderedMap, indent int, opts Options) {
	for _, e := range m.Entries() {
		writeLayout(b, e.Layout, indent)
		writeIndent(b, indent)
		b.WriteString(e.Key)
		b.WriteString(":")
		writeValue(b, e.Value, indent, opts, true, e.LineComment)
	}
}

// writeValue renders the value half of a "key: value" pair, or a
// sequence item's payload. afterColon is true when called right after a
// map key's colon (controls whether a scalar gets a leading space).
// lineComment, when set, trails the key's own line — before any nested
// content a map or sequence value opens.
func writeValue(b *strings.Builder, v *model.Value, indent int, opts Options, afterColon bool, lineComment string) {
	if v == nil {
		b.WriteString(" null")
		writeLineComment(b, lineComment)
		b.WriteString("\n")
		return
	}
	switch v.Kind {
	case model.KindMap:
		if v.Map.Len() == 0 {
			b.WriteString(" {}")
			writeLineComment(b, lineComment)
			b.WriteString("\n")
			return
		}
		writeLineComment(b, lineComment)
		b.WriteString("\n")
		writeMap(b, v.Map, indent+opts.IndentStep, opts)
	case model.KindSeq:
		if len(v.Seq) == 0 {
			b.WriteString(" []")
			writeLineComment(b, lineComment)
			b.WriteString("\n")
			return
		}
		writeLineComment(b, lineComment)
		b.WriteString("\n")
		writeSeq(b, v.Seq, indent+opts.SequenceOffset, opts)
	default:
		if afterColon {
			b.WriteString(" ")
		}
		b.WriteString(scalarText(v))
		writeLineComment(b, lineComment)
		b.WriteString("\n")
	}
}

func writeSeq(b *strings.Builder, items []*model.Value, indent int, opts Options) {
	for _, item := range items {
		writeLayout(b, item.Layout, indent)
		writeIndent(b, indent)
		b.WriteString("-")
		if item != nil && item.Kind == model.KindMap && item.Map.Len() > 0 {
			entries := item.Map.Entries()
			first := entries[0]
			b.WriteString(" ")
			b.WriteString(first.Key)
			b.WriteString(":")
			writeValue(b, first.Value, indent+2, opts, true, first.LineComment)
			if len(entries) > 1 {
				rest := model.NewOrderedMap()
				for _, e := range entries[1:] {
					rest.SetEntry(e)
				}
				writeMap(b, rest, indent+2, opts)
			}
			continue
		}
		writeValue(b, item, indent, opts, true, "")
	}
}

// writeLineComment appends a trailing " # comment" before the caller
// terminates the current line with "\n". Must be called before that
// newline is written, not after.
func writeLineComment(b *strings.Builder, comment string) {
	if comment == "" {
		return
	}
	b.WriteString(" #")
	if !strings.HasPrefix(comment, " ") {
		b.WriteString(" ")
	}
	b.WriteString(comment)
}

func scalarText(v *model.Value) string {
	switch v.Kind {
	case model.KindNull:
		return "null"
	case model.KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case model.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case model.KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case model.KindString:
		if v.Quoted || needsQuoting(v.Str) {
			return fmt.Sprintf("%q", v.Str)
		}
		return v.Str
	default:
		return ""
	}
}

// needsQuoting reports whether a bare string would be misread as
// another scalar type or break flow syntax if left unquoted.
func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	switch strings.ToLower(s) {
	case "true", "false", "null", "~", "yes", "no", "on", "off":
		return true
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	switch s[0] {
	case '!', '&', '*', '?', '|', '>', '%', '@', '`', '"', '\'', '[', ']', '{', '}', ',', '#':
		return true
	}
	if strings.ContainsAny(s, ":#") {
		return true
	}
	if strings.TrimSpace(s) != s {
		return true
	}
	return false
}
