/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package fuzzy wraps a Levenshtein edit-distance implementation into the
// character-sequence similarity ratio the cross-resource analyzer's Ghost
// Service typo detector needs: 1.0 for identical strings, descending
// toward 0 as the edit distance grows relative to length.
package fuzzy

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Ratio returns the normalized similarity of a and b in [0, 1]:
// 1 - distance/maxLen. Two empty strings are considered identical (1.0).
func Ratio(a, b string) float64 {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// BestMatch scans candidates for the entry most similar to target,
// returning it, its ratio, and whether any candidate was offered.
func BestMatch(target string, candidates []string) (best string, ratio float64, ok bool) {
	for _, c := range candidates {
		r := Ratio(target, c)
		if r > ratio {
			best, ratio, ok = c, r, true
		}
	}
	return best, ratio, ok
}
