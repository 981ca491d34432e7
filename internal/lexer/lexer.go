/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package lexer repairs syntactically broken YAML line-by-line into an
// ordered list of Shards. It never fails: catastrophic input degrades to
// one shard per line with an empty key/value rather than panicking.
package lexer

import (
	"strings"

	"github.com/kubeheal/healer/pkg/model"
)

// fusedKeywordPrefixes is the fixed safe set step 3 of the per-line
// repair order may split a fused "kindService" style token against.
var fusedKeywordPrefixes = []string{
	"kind", "apiVersion", "metadata", "spec", "status", "selector",
	"template", "resources", "containers", "volumes", "labels",
	"annotations", "data", "ports", "env", "image",
}

// englishStopwords guards the missing-colon heuristic against corrupting
// prose that merely looks like a lone identifier.
var englishStopwords = map[string]bool{
	"This": true, "The": true, "A": true, "An": true, "It": true, "If": true,
	"When": true, "Then": true, "For": true, "To": true, "Note": true,
	"But": true, "And": true, "Or": true,
}

var booleanish = map[string]bool{
	"yes": true, "no": true, "y": true, "n": true, "on": true, "off": true,
}

// Lexer repairs raw YAML text line by line into Shards.
type Lexer struct{}

// New returns a ready-to-use Lexer.
func New() *Lexer { return &Lexer{} }

// Run repairs raw and returns its Shards plus the repair counters for
// this run. It never returns an error; catastrophic input yields one
// shard per line with an empty key/value.
func (l *Lexer) Run(raw string) (shards []*model.Shard, stats model.LexerStats) {
	defer func() {
		if recover() != nil {
			shards, stats = fallbackShards(raw), model.LexerStats{}
		}
	}()

	text := normalize(raw)
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	out := make([]*model.Shard, 0, len(lines))
	bs := blockScalarState{}
	var lastAwaiting *model.Shard // previous shard with key but no value (awaiting children)
	var consecutiveFlushLeftIndent = -1

	for i, raw := range lines {
		lineNo := i + 1
		line := expandTabs(raw, &stats)

		if bs.active {
			if bs.continues(line) {
				out = append(out, &model.Shard{
					Line:                      lineNo,
					Indent:                    countIndent(line),
					IsBlockScalarContinuation: true,
					Value:                     line,
					RawLine:                   raw,
				})
				continue
			}
			bs.active = false
		}

		if strings.TrimSpace(line) == "---" || strings.TrimSpace(line) == "..." {
			bs = blockScalarState{}
			lastAwaiting = nil
			consecutiveFlushLeftIndent = -1
			out = append(out, &model.Shard{
				Line:          lineNo,
				Indent:        countIndent(line),
				IsDocBoundary: true,
				RawLine:       raw,
			})
			continue
		}

		if strings.TrimSpace(line) == "" {
			out = append(out, &model.Shard{Line: lineNo, RawLine: raw})
			continue
		}

		repaired, ignoreHeuristics := repairLine(line, lastAwaiting, &consecutiveFlushLeftIndent, &stats)
		shard := toShard(lineNo, repaired, raw, ignoreHeuristics, &bs, &stats)
		out = append(out, shard)

		if shard.HasKey && !shard.HasValue && !shard.IsListItem {
			lastAwaiting = shard
		} else if countIndent(repaired) <= indentOf(lastAwaiting) && !shard.IsListItem {
			lastAwaiting = nil
		}
	}

	twoPassNormalize(out, &stats)
	return out, stats
}

func indentOf(s *model.Shard) int {
	if s == nil {
		return -1
	}
	return s.Indent
}

// repairLine applies the per-line repair order (spec.md §4.1, steps 2-8).
// Step 1 (tab expansion) and step 9 (block-scalar detection) are handled
// by the caller. Returns the repaired line and whether a trailing
// "# yamlr:ignore" directive disabled further heuristics for it.
func repairLine(line string, lastAwaiting *model.Shard, consecutiveFlushLeftIndent *int, stats *model.LexerStats) (string, bool) {
	trimmedRight := strings.TrimRight(line, " \t")
	if trimmedRight != line {
		stats.TrailingSpaceTrims++
		line = trimmedRight
	}

	if strings.HasSuffix(strings.TrimSpace(line), "# yamlr:ignore") {
		return line, true
	}

	// Step 2: flush-left list item under an awaiting parent.
	line = fixFlushLeftList(line, lastAwaiting, consecutiveFlushLeftIndent, stats)

	// Step 3: fused-keyword split.
	line = splitFusedKeyword(line, stats)

	// Step 4: missing-colon heuristic (handled by caller with lookahead in toShard's context
	// is impractical line-by-line; approximate using a same-line structural check).
	line = maybeAppendColon(line, stats)

	// Step 5: list marker spacing.
	line = fixListMarkerSpacing(line, stats)

	// Step 6: colon spacing.
	line = fixColonSpacing(line, stats)

	// Step 7: quote balancing.
	line = balanceQuotes(line, stats)

	// Step 8: boolean protection.
	line = protectBooleans(line, stats)

	return line, false
}

func fixFlushLeftList(line string, lastAwaiting *model.Shard, consecutiveFlushLeftIndent *int, stats *model.LexerStats) string {
	indent := countIndent(line)
	stripped := strings.TrimLeft(line, " ")
	if lastAwaiting == nil || !strings.HasPrefix(stripped, "-") {
		return line
	}
	expected := lastAwaiting.Indent + 2
	if indent == 0 && lastAwaiting.Indent >= 0 {
		if *consecutiveFlushLeftIndent != 0 {
			stats.FlushLeftListsFixed++
			*consecutiveFlushLeftIndent = 0
		}
		return strings.Repeat(" ", expected) + stripped
	}
	if indent == lastAwaiting.Indent {
		// Dash column matches its parent key's own indent: a legal
		// "indentless sequence", not a repair.
		*consecutiveFlushLeftIndent = -1
		return strings.Repeat(" ", expected) + stripped
	}
	if indent != expected && indent != 0 {
		stats.NestedListsNormalized++
		return strings.Repeat(" ", expected) + stripped
	}
	*consecutiveFlushLeftIndent = -1
	return line
}

func splitFusedKeyword(line string, stats *model.LexerStats) string {
	stripped := strings.TrimLeft(line, " ")
	indent := len(line) - len(stripped)
	if strings.Contains(stripped, ":") {
		return line
	}
	for _, kw := range fusedKeywordPrefixes {
		if len(stripped) <= len(kw) || !strings.HasPrefix(stripped, kw) {
			continue
		}
		next := stripped[len(kw)]
		if (next >= 'A' && next <= 'Z') || (next >= '0' && next <= '9') {
			stats.FusedKeywordSplits++
			rest := stripped[len(kw):]
			return strings.Repeat(" ", indent) + kw + ": " + rest
		}
	}
	return line
}

func maybeAppendColon(line string, stats *model.LexerStats) string {
	stripped := strings.TrimSpace(line)
	if stripped == "" || strings.Contains(stripped, ":") || strings.HasPrefix(stripped, "-") || strings.HasPrefix(stripped, "#") {
		return line
	}
	if !isAlphanumericIdentifier(stripped) {
		return line
	}
	if englishStopwords[stripped] {
		return line
	}
	if len(stripped) <= 2 && strings.ToUpper(stripped) == stripped {
		return line
	}
	stats.MissingColonsInserted++
	return line + ":"
}

func isAlphanumericIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

func fixListMarkerSpacing(line string, stats *model.LexerStats) string {
	indent := countIndent(line)
	stripped := strings.TrimLeft(line, " ")
	if len(stripped) < 2 || stripped[0] != '-' {
		return line
	}
	if stripped[1] == ' ' || stripped[1] == '-' {
		return line
	}
	c := stripped[1]
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		stats.SpacingFixes++
		return strings.Repeat(" ", indent) + "- " + stripped[1:]
	}
	return line
}

func fixColonSpacing(line string, stats *model.LexerStats) string {
	idx := findUnquotedColon(line)
	if idx < 0 || idx+1 >= len(line) {
		return line
	}
	if line[idx+1] == ' ' {
		return line
	}
	rest := line[idx+1:]
	if strings.HasPrefix(rest, "{") || strings.HasPrefix(rest, "[") || strings.HasPrefix(rest, "\"") || strings.HasPrefix(rest, "'") {
		return line
	}
	stats.SpacingFixes++
	return line[:idx+1] + " " + rest
}

func findUnquotedColon(line string) int {
	inSingle, inDouble := false, false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == ':' && !inSingle && !inDouble:
			return i
		}
	}
	return -1
}

func balanceQuotes(line string, stats *model.LexerStats) string {
	idx := strings.IndexAny(line, ":")
	if idx < 0 {
		return line
	}
	value := strings.TrimLeft(line[idx+1:], " ")
	if value == "" {
		return line
	}
	quote := value[0]
	if quote != '"' && quote != '\'' {
		return line
	}
	body := value[1:]
	// comment split happens later; work on raw remainder for counting only.
	count := 0
	escaped := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && quote == '"' {
			escaped = true
			continue
		}
		if c == quote {
			count++
		}
	}
	// body excludes the opening quote, so an odd count means the value is
	// already closed, and an even non-zero count means another unescaped
	// same-type quote sits mid-value (ambiguous); both are left alone.
	if count > 0 {
		return line
	}
	stats.QuoteRepairs++
	return line + string(quote)
}

func protectBooleans(line string, stats *model.LexerStats) string {
	idx := findUnquotedColon(line)
	if idx < 0 {
		return line
	}
	rest := line[idx+1:]
	trimmed := strings.TrimSpace(rest)
	commentIdx := findCommentStart(trimmed)
	value, comment := trimmed, ""
	if commentIdx >= 0 {
		value = strings.TrimSpace(trimmed[:commentIdx])
		comment = trimmed[commentIdx:]
	}
	if value == "" || !booleanish[strings.ToLower(value)] {
		return line
	}
	stats.BooleanProtections++
	leadSpace := " "
	if len(rest) > 0 && rest[0] != ' ' {
		leadSpace = ""
	}
	newRest := leadSpace + `"` + value + `"`
	if comment != "" {
		newRest += " " + comment
	}
	return line[:idx+1] + newRest
}

// findCommentStart finds a whitespace-preceded, unquoted '#'.
func findCommentStart(s string) int {
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == '#' && !inSingle && !inDouble:
			if i == 0 || s[i-1] == ' ' || s[i-1] == '\t' {
				return i
			}
		}
	}
	return -1
}

type blockScalarState struct {
	active     bool
	indentFloor int
}

var blockScalarIndicators = map[byte]bool{'|': true, '>': true}

func detectBlockScalar(value string) (bool, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return false, false
	}
	if !blockScalarIndicators[v[0]] {
		return false, false
	}
	rest := v[1:]
	rest = strings.TrimSuffix(rest, "-")
	rest = strings.TrimSuffix(rest, "+")
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false, false
		}
	}
	return true, false
}

func (b *blockScalarState) continues(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	return countIndent(line) >= b.indentFloor
}

func toShard(lineNo int, line, raw string, ignoreHeuristics bool, bs *blockScalarState, stats *model.LexerStats) *model.Shard {
	indent := countIndent(line)
	stripped := strings.TrimSpace(line)

	shard := &model.Shard{Line: lineNo, Indent: indent, RawLine: raw, IgnoreHeuristics: ignoreHeuristics}

	body := stripped
	if !ignoreHeuristics {
		if ci := findCommentStart(body); ci >= 0 {
			shard.Comment = strings.TrimSpace(strings.TrimPrefix(body[ci:], "#"))
			body = strings.TrimSpace(body[:ci])
		}
	}

	isListItem := strings.HasPrefix(body, "- ") || body == "-"
	if isListItem {
		shard.IsListItem = true
		body = strings.TrimSpace(strings.TrimPrefix(body, "-"))
	}

	body = extractAnchorTag(body, shard)

	key, value, hasKey, hasValue := splitKeyValue(body)
	shard.HasKey = hasKey
	shard.Key = dequoteKey(key)
	shard.HasValue = hasValue
	shard.Value = value

	if hasValue {
		if isBlock, _ := detectBlockScalar(value); isBlock {
			bs.active = true
			bs.indentFloor = indent + 1
		}
	}

	return shard
}

func extractAnchorTag(body string, shard *model.Shard) string {
	for {
		body = strings.TrimSpace(body)
		if strings.HasPrefix(body, "&") || strings.HasPrefix(body, "*") || strings.HasPrefix(body, "!") {
			sp := strings.IndexByte(body, ' ')
			if sp < 0 {
				shard.ValueTag = body
				return ""
			}
			shard.ValueTag = body[:sp]
			body = body[sp+1:]
			continue
		}
		return body
	}
}

func splitKeyValue(body string) (key, value string, hasKey, hasValue bool) {
	if body == "" {
		return "", "", false, false
	}
	idx := findUnquotedColon(body)
	if idx < 0 {
		return "", body, false, true
	}
	key = strings.TrimSpace(body[:idx])
	rest := strings.TrimSpace(body[idx+1:])
	if key == "" {
		return "", body, false, true
	}
	if rest == "" {
		return key, "", true, false
	}
	return key, rest, true, true
}

func dequoteKey(key string) string {
	if len(key) >= 2 {
		if (key[0] == '"' && key[len(key)-1] == '"') || (key[0] == '\'' && key[len(key)-1] == '\'') {
			return key[1 : len(key)-1]
		}
	}
	return key
}

func countIndent(line string) int {
	n := 0
	for _, r := range line {
		if r != ' ' {
			break
		}
		n++
	}
	return n
}

func expandTabs(line string, stats *model.LexerStats) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	stats.TabsExpanded++
	return strings.ReplaceAll(line, "\t", "  ")
}

func normalize(raw string) string {
	raw = strings.TrimPrefix(raw, string(rune(0xFEFF)))
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	return raw
}

// twoPassNormalize walks the shard list maintaining a stack of
// (parent_key, indent); when a list item's indent disagrees with
// parent_indent+2, it rewrites the shard's indent and raw_line and
// propagates the fix to consecutive items at the old level. Document
// boundaries reset the stack, and a "# yamlr:ignore" line keeps its indent.
//
// The old-indent/delta memo used to propagate a repair across sibling
// list items lives on the owning frame rather than in a loop-wide
// variable: a list element's own nested keys (e.g. "image" under a
// "- name: app" container entry) push and pop their own frames between
// one list item and the next, and a loop-wide memo got clobbered by
// that push before the next sibling was ever reached.
func twoPassNormalize(shards []*model.Shard, stats *model.LexerStats) {
	type frame struct {
		key       string
		indent    int
		oldIndent int
		fixDelta  int
	}
	var stack []frame

	for _, s := range shards {
		if s.IsDocBoundary {
			stack = nil
			continue
		}
		if s.RawLine == "" && !s.HasKey && !s.HasValue && !s.IsListItem {
			continue
		}
		// Pop every frame at or deeper than this shard's indent. A list
		// item must trigger this too: otherwise a keyed child left on the
		// stack by the previous list element (its own nested fields, not
		// an ancestor of this element) stays on top and its indent gets
		// mistaken for the enclosing sequence's own governing key.
		for len(stack) > 0 && stack[len(stack)-1].indent >= s.Indent {
			stack = stack[:len(stack)-1]
		}
		if s.IsListItem && len(stack) > 0 && !s.IgnoreHeuristics {
			top := &stack[len(stack)-1]
			expected := top.indent + 2
			switch {
			case s.Indent == top.oldIndent:
				s.Indent += top.fixDelta
			case s.Indent != expected:
				top.fixDelta = expected - s.Indent
				top.oldIndent = s.Indent
				s.Indent = expected
				stats.NestedListsNormalized++
			default:
				top.oldIndent = -1
			}
		}
		if s.HasKey && !s.IsListItem {
			stack = append(stack, frame{key: s.Key, indent: s.Indent, oldIndent: -1})
		}
	}
}

// fallbackShards implements the catastrophic failure mode: one shard per
// line with an empty key/value, guaranteed never to panic.
func fallbackShards(raw string) []*model.Shard {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	out := make([]*model.Shard, 0, len(lines))
	for i, line := range lines {
		out = append(out, &model.Shard{Line: i + 1, RawLine: line})
	}
	return out
}
