/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package shadow attaches comments and blank-line gaps to the nearest
// data-carrying shard so the Serializer can reconstitute human layout
// even if keys are reordered. Shadow never mutates keys, values, or
// order — only Layout, Comment, and the majority indent step it reports.
package shadow

import (
	"github.com/kubeheal/healer/pkg/model"
)

// Index is the result of a Shadow pass: the majority indentation step
// detected across the document, used to seed the Serializer.
type Index struct {
	MajorityIndentStep int
}

// Run attaches layout sequences to shards in place and returns the
// detected majority indent step (fallback 2).
func Run(shards []*model.Shard) Index {
	var buffer []model.LayoutItem
	indentTally := make(map[int]int)
	prevIndent := -1

	flush := func(s *model.Shard) {
		if len(buffer) == 0 {
			return
		}
		s.Layout = append(s.Layout, buffer...)
		buffer = nil
	}

	for _, s := range shards {
		if s.IsBlockScalarContinuation {
			continue
		}

		if s.IsDocBoundary {
			// Orphaned buffer content before a boundary is dropped into the
			// boundary's own layout rather than carried across documents.
			flush(s)
			prevIndent = -1
			continue
		}

		isBlank := !s.HasKey && !s.HasValue && !s.IsListItem && s.Comment == ""
		isPureComment := s.Comment != "" && !s.HasKey && !s.HasValue && !s.IsListItem

		switch {
		case isBlank:
			if n := len(buffer); n > 0 && buffer[n-1].IsGap {
				buffer[n-1].Gap++
			} else {
				buffer = append(buffer, model.LayoutItem{IsGap: true, Gap: 1})
			}
		case isPureComment:
			buffer = append(buffer, model.LayoutItem{Comment: s.Comment})
			s.Comment = ""
		default:
			flush(s)
			if s.Indent > prevIndent && prevIndent >= 0 {
				indentTally[s.Indent-prevIndent]++
			}
			prevIndent = s.Indent
		}
	}

	// Orphans: anything left in the buffer at EOF attaches to the last
	// non-boundary, non-blank shard so nothing is lost.
	if len(buffer) > 0 {
		for i := len(shards) - 1; i >= 0; i-- {
			s := shards[i]
			if s.IsDocBoundary {
				continue
			}
			if s.HasKey || s.HasValue || s.IsListItem {
				s.Layout = append(s.Layout, buffer...)
				break
			}
		}
	}

	return Index{MajorityIndentStep: majorityStep(indentTally)}
}

func majorityStep(tally map[int]int) int {
	best, bestCount := 2, 0
	for step, count := range tally {
		if step <= 0 {
			continue
		}
		if count > bestCount || (count == bestCount && step < best) {
			best, bestCount = step, count
		}
	}
	if bestCount == 0 {
		return 2
	}
	return best
}
