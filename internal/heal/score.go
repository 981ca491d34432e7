/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package heal

import (
	"github.com/kubeheal/healer/pkg/model"
)

// shardCounts reports T (data-carrying shards) and K (the subset whose
// intent was tagged) for the confidence score's base ratio.
func shardCounts(shards []*model.Shard) (t, k int) {
	for _, s := range shards {
		if s.IsBlockScalarContinuation || s.IsDocBoundary {
			continue
		}
		if !s.HasKey && !s.IsListItem {
			continue
		}
		t++
		if s.IntentTag != "" {
			k++
		}
	}
	return t, k
}

// baseScore implements spec.md §4.9 steps 1-4.
func baseScore(shards []*model.Shard, topLevelMatched, learningMode bool) int {
	t, k := shardCounts(shards)
	var base int
	if t > 0 {
		base = int(round(100 * float64(k) / float64(t)))
	}
	if topLevelMatched {
		base += 20
		if base > 100 {
			base = 100
		}
	}
	if learningMode && base > 50 {
		base = 50
	}
	if base < 0 {
		base = 0
	}
	return base
}

func round(f float64) float64 {
	if f < 0 {
		return -round(-f)
	}
	i := int64(f)
	if f-float64(i) >= 0.5 {
		i++
	}
	return float64(i)
}

// derate implements spec.md §4.9 step 5: after analysis, weigh errors
// heavier than warnings and subtract from the base.
func derate(base int, findings []model.AnalysisResult) int {
	score := base
	for _, f := range findings {
		switch f.Severity {
		case model.SeverityError:
			score -= 10
		case model.SeverityWarning:
			score -= 3
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
