/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package fuzzy

import "testing"

func TestRatioIdentical(t *testing.T) {
	if r := Ratio("frontend", "frontend"); r != 1.0 {
		t.Fatalf("expected identical strings to have ratio 1.0, got %f", r)
	}
}

func TestRatioTypo(t *testing.T) {
	r := Ratio("fronetnd", "frontend")
	if r < 0.7 || r >= 1.0 {
		t.Fatalf("expected a near miss to score in [0.7, 1.0), got %f", r)
	}
}

func TestRatioUnrelated(t *testing.T) {
	r := Ratio("frontend", "xyz")
	if r > 0.5 {
		t.Fatalf("expected unrelated strings to score low, got %f", r)
	}
}

func TestBestMatch(t *testing.T) {
	best, ratio, ok := BestMatch("fronetnd", []string{"backend", "frontend", "database"})
	if !ok || best != "frontend" {
		t.Fatalf("expected frontend to be the best match, got %s (ok=%v)", best, ok)
	}
	if ratio <= 0.7 {
		t.Fatalf("expected a high ratio for the best match, got %f", ratio)
	}
}
