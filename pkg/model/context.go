/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package model

// HealContext is the per-run scratchpad threaded through every pipeline
// stage. It owns the shards, identities, and reconstructed documents for
// the duration of one heal() call and is discarded when the call returns.
type HealContext struct {
	RunID   string
	RawText string

	FilePath string

	Shards []*Shard

	// MajorityIndentStep is Shadow's detected indentation unit (fallback 2).
	MajorityIndentStep int

	Identities []*Identity

	// Documents holds one reconstructed tree per YAML document ("---"
	// separated), in source order.
	Documents []*Value

	// ClusterVersion is the normalized "vMAJOR.MINOR" target for the Migrator.
	ClusterVersion string

	StrictValidation bool

	AuditLog []HealAction

	// LexerStats accumulates the Lexer's per-run repair counters.
	LexerStats LexerStats
}

// LexerStats counts repairs the Lexer made, for the "Lexer: fixed N ..."
// audit lines and the "repair counters are monotonically non-negative and
// zero on clean input" invariant.
type LexerStats struct {
	FlushLeftListsFixed    int
	NestedListsNormalized  int
	QuoteRepairs           int
	SpacingFixes           int
	FusedKeywordSplits     int
	MissingColonsInserted  int
	BooleanProtections     int
	TrailingSpaceTrims     int
	TabsExpanded           int
}

// NewHealContext creates a context for a single file's pipeline run.
func NewHealContext(runID, rawText, filePath string) *HealContext {
	return &HealContext{
		RunID:              runID,
		RawText:            rawText,
		FilePath:           filePath,
		MajorityIndentStep: 2,
		ClusterVersion:     "v1.31",
	}
}

// Append adds one audit entry.
func (c *HealContext) Append(action HealAction) {
	c.AuditLog = append(c.AuditLog, action)
}

// Appendf is a convenience for building a HealAction inline.
func (c *HealContext) Appendf(stage, actionType, target, description string, severity Severity) {
	c.Append(HealAction{
		Stage:       stage,
		ActionType:  actionType,
		Target:      target,
		Description: description,
		Severity:    severity,
	})
}
