/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package heal is the pipeline orchestrator: it runs Lexer, Shadow,
// Scanner, Structurer, Migrator, the Analyzer Registry, and the
// Serializer in sequence over one file's raw text, and fans batch runs
// out across files before a final cross-resource analyzer pass.
package heal

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kubeheal/healer/internal/analyzer"
	"github.com/kubeheal/healer/internal/analyzer/builtin"
	"github.com/kubeheal/healer/internal/catalog"
	"github.com/kubeheal/healer/internal/config"
	"github.com/kubeheal/healer/internal/lexer"
	"github.com/kubeheal/healer/internal/metrics"
	"github.com/kubeheal/healer/internal/migrator"
	"github.com/kubeheal/healer/internal/scanner"
	"github.com/kubeheal/healer/internal/serializer"
	"github.com/kubeheal/healer/internal/shadow"
	"github.com/kubeheal/healer/internal/structurer"
	"github.com/kubeheal/healer/pkg/model"
)

const defaultClusterVersion = "v1.31"

// Options configures one heal() call (spec.md §6 "Core entry point").
type Options struct {
	StrictValidation bool
	Compact          bool
	ClusterVersion   string
	FilePath         string

	Catalog  *catalog.Catalog
	Config   config.Config
	Registry *analyzer.Registry

	Logger  logr.Logger
	Tracer  trace.Tracer
	Metrics metrics.Recorder

	RunID string
}

// Result is one file's heal() output.
type Result struct {
	HealedText string
	AuditLog   []model.HealAction
	Score      int
	Identities []*model.Identity
	Findings   []model.AnalysisResult

	DNAAfterStructure string
	DNAAfterHardening string
}

// FileInput is one file handed to HealBatch.
type FileInput struct {
	Path    string
	RawText string
}

// DefaultRegistry returns the built-in content and cross-resource
// analyzers, in the order findings should be reported.
func DefaultRegistry() *analyzer.Registry {
	r := analyzer.NewRegistry()
	r.Register(builtin.ImageAnalyzer{})
	r.Register(builtin.ResourceAnalyzer{})
	r.Register(builtin.SecurityAnalyzer{})
	r.Register(builtin.ProbeAnalyzer{})
	r.Register(builtin.CrossResourceAnalyzer{})
	return r
}

// resolveClusterVersion centralizes the precedence order surfaced by
// original_source/src/kubecuro/pro/cluster_detection.py: an explicit
// option wins, then YAMLR_KUBE_VERSION, then AKESO_KUBE_VERSION, then
// the hardcoded default. No live-cluster probing is ever performed.
func resolveClusterVersion(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv("YAMLR_KUBE_VERSION"); v != "" {
		return v
	}
	if v := os.Getenv("AKESO_KUBE_VERSION"); v != "" {
		return v
	}
	return defaultClusterVersion
}

func resolveOptions(opts Options) Options {
	opts.ClusterVersion = resolveClusterVersion(opts.ClusterVersion)
	if opts.Catalog == nil {
		opts.Catalog = catalog.New()
	}
	if opts.Config == nil {
		opts.Config = config.NullConfig{}
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Tracer == nil {
		// otel.Tracer draws from the global TracerProvider, a no-op until
		// the host process registers one — stages are traceable without
		// forcing every caller to wire an SDK.
		opts.Tracer = otel.Tracer("github.com/kubeheal/healer/internal/heal")
	}
	if opts.Logger.GetSink() == nil {
		opts.Logger = logr.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return opts
}

// Heal runs the full single-file pipeline: Lexer -> Shadow -> Scanner ->
// Structurer -> Migrator -> Analyzer Registry -> Serializer. Hard
// failures in the Lexer or Scanner stages return the original text
// unchanged with an ERROR-severity HARD_FAILURE audit entry (the audit
// model has no severity above ERROR).
func Heal(rawText string, opts Options) Result {
	opts = resolveOptions(opts)
	ctx := context.Background()

	log := opts.Logger.WithValues("runID", opts.RunID, "filePath", opts.FilePath)

	res, contentAndMetadataOnly := runCore(ctx, rawText, opts, log)
	if contentAndMetadataOnly == nil {
		return res
	}

	batchFindings, batchActions := opts.Registry.RunBatch(contentAndMetadataOnly.identities)
	batchFindings = filterIgnored(batchFindings, opts.Config)
	res.Findings = append(res.Findings, batchFindings...)
	res.AuditLog = append(res.AuditLog, batchActions...)
	recordAnalyzerFailures(opts.Metrics, batchActions)

	res.Score = derate(contentAndMetadataOnly.base, res.Findings)
	opts.Metrics.ObserveConfidenceScore(res.Score)
	return res
}

// HealBatch runs the per-file pipeline for every input independently
// (spec.md §5 "embarrassingly parallel at file granularity"), then runs
// the batch-mode analyzers once over every file's aggregated identities
// before assigning findings back to their originating file.
func HealBatch(files []FileInput, opts Options) []Result {
	opts = resolveOptions(opts)
	ctx := context.Background()
	log := opts.Logger.WithValues("runID", opts.RunID)

	stagedResults := make([]Result, len(files))
	coreOuts := make([]*coreOutput, len(files))

	var wg sync.WaitGroup
	var mu sync.Mutex
	for i, f := range files {
		wg.Add(1)
		go func(i int, f FileInput) {
			defer wg.Done()
			fileOpts := opts
			fileOpts.FilePath = f.Path
			res, out := runCore(ctx, f.RawText, fileOpts, log.WithValues("filePath", f.Path))
			mu.Lock()
			stagedResults[i] = res
			coreOuts[i] = out
			mu.Unlock()
		}(i, f)
	}
	wg.Wait()

	var allIdentities []*model.Identity
	for _, out := range coreOuts {
		if out != nil {
			allIdentities = append(allIdentities, out.identities...)
		}
	}

	batchFindings, batchActions := opts.Registry.RunBatch(allIdentities)
	batchFindings = filterIgnored(batchFindings, opts.Config)
	recordAnalyzerFailures(opts.Metrics, batchActions)

	findingsByFile := make(map[string][]model.AnalysisResult)
	for _, f := range batchFindings {
		findingsByFile[f.FilePath] = append(findingsByFile[f.FilePath], f)
	}

	for i, out := range coreOuts {
		if out == nil {
			continue
		}
		stagedResults[i].AuditLog = append(stagedResults[i].AuditLog, batchActions...)
		stagedResults[i].Findings = append(stagedResults[i].Findings, findingsByFile[files[i].Path]...)
		stagedResults[i].Score = derate(out.base, stagedResults[i].Findings)
		opts.Metrics.ObserveConfidenceScore(stagedResults[i].Score)
	}
	return stagedResults
}

// coreOutput carries the per-file state Heal/HealBatch need after the
// shared Stages 0-7 complete, before the batch analyzer pass runs.
type coreOutput struct {
	identities []*model.Identity
	base       int
}

// runCore executes Stages 0-7 (Lexer through content/metadata analyzers
// and the Serializer) for one file. It returns a partially scored Result
// and, unless a hard failure short-circuited the run, a coreOutput the
// caller uses to drive the batch-analyzer pass.
func runCore(ctx context.Context, rawText string, opts Options, log logr.Logger) (Result, *coreOutput) {
	var span trace.Span
	if opts.Tracer != nil {
		ctx, span = opts.Tracer.Start(ctx, "heal.runCore")
		defer span.End()
	}

	hctx := model.NewHealContext(opts.RunID, rawText, opts.FilePath)
	hctx.StrictValidation = opts.StrictValidation
	hctx.ClusterVersion = opts.ClusterVersion

	shards, lexStats, lexErr := runLexer(rawText, opts.Tracer, ctx)
	hctx.LexerStats = lexStats
	if lexErr != nil {
		hctx.Appendf("lexer", "HARD_FAILURE", opts.FilePath, lexErr.Error(), model.SeverityError)
		log.Error(lexErr, "lexer hard failure; returning original text")
		return Result{HealedText: rawText, AuditLog: hctx.AuditLog}, nil
	}
	hctx.Shards = shards
	for _, c := range []struct {
		n    int
		what string
	}{
		{lexStats.FlushLeftListsFixed, "flush-left list items"},
		{lexStats.NestedListsNormalized, "nested list indents"},
		{lexStats.QuoteRepairs, "unbalanced quotes"},
		{lexStats.SpacingFixes, "spacing issues"},
	} {
		if c.n > 0 {
			hctx.Appendf("lexer", "LEXER_REPAIR", opts.FilePath, fmt.Sprintf("Lexer: fixed %d %s", c.n, c.what), model.SeverityInfo)
		}
	}

	shadowIdx := shadow.Run(shards)
	hctx.MajorityIndentStep = shadowIdx.MajorityIndentStep

	identities, scanActions, scanErr := runScanner(shards, opts.Catalog, opts.StrictValidation, opts.FilePath)
	hctx.AuditLog = append(hctx.AuditLog, scanActions...)
	if scanErr != nil {
		hctx.Appendf("scanner", "HARD_FAILURE", opts.FilePath, scanErr.Error(), model.SeverityError)
		log.Error(scanErr, "scanner hard failure; returning original text")
		return Result{HealedText: rawText, AuditLog: hctx.AuditLog}, nil
	}
	hctx.Identities = identities

	docShardGroups := splitOnBoundaries(shards)
	documents := make([]*model.Value, 0, len(docShardGroups))
	docIndices := make([]int, 0, len(docShardGroups))
	for _, group := range docShardGroups {
		built := structurer.Build(group.shards)
		hctx.AuditLog = append(hctx.AuditLog, built.Actions...)
		documents = append(documents, built.Doc)
		docIndices = append(docIndices, group.index)
	}
	hctx.Documents = documents

	dnaAfterStructure := DNA(documents)

	for _, doc := range documents {
		actions := migrator.Migrate(doc, opts.ClusterVersion)
		hctx.AuditLog = append(hctx.AuditLog, actions...)
	}

	dnaAfterHardening := DNA(documents)

	identityByDocIndex := make(map[int]*model.Identity, len(identities))
	for _, id := range identities {
		identityByDocIndex[id.DocIndex] = id
	}

	var findings []model.AnalysisResult
	for i, doc := range documents {
		id, ok := identityByDocIndex[docIndices[i]]
		if !ok {
			id = model.NewIdentity()
		}
		contentFindings, contentActions := opts.Registry.RunContent(doc, id)
		findings = append(findings, contentFindings...)
		hctx.AuditLog = append(hctx.AuditLog, contentActions...)
		recordAnalyzerFailures(opts.Metrics, contentActions)
	}
	metaFindings, metaActions := opts.Registry.RunMetadata(identities)
	findings = append(findings, metaFindings...)
	hctx.AuditLog = append(hctx.AuditLog, metaActions...)
	recordAnalyzerFailures(opts.Metrics, metaActions)

	findings = filterIgnored(findings, opts.Config)

	serializerOpts := serializer.Options{
		IndentStep:     hctx.MajorityIndentStep,
		SequenceOffset: hctx.MajorityIndentStep,
		Compact:        opts.Compact,
	}
	healedText := serializer.WriteDocuments(documents, serializerOpts)

	topLevelMatched := false
	if len(identities) > 0 {
		topLevelMatched = opts.Catalog.Has(identities[0].APIVersion, identities[0].Kind)
	}
	base := baseScore(shards, topLevelMatched, opts.Catalog.Empty())

	return Result{
			HealedText:        healedText,
			AuditLog:          hctx.AuditLog,
			Score:             base,
			Identities:        identities,
			Findings:          findings,
			DNAAfterStructure: dnaAfterStructure,
			DNAAfterHardening: dnaAfterHardening,
		}, &coreOutput{
			identities: identities,
			base:       base,
		}
}

func runLexer(rawText string, tracer trace.Tracer, ctx context.Context) (shards []*model.Shard, stats model.LexerStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lexer panicked: %v", r)
		}
	}()
	if tracer != nil {
		var span trace.Span
		_, span = tracer.Start(ctx, "heal.lexer")
		defer span.End()
	}
	shards, stats = lexer.New().Run(rawText)
	return shards, stats, nil
}

func runScanner(shards []*model.Shard, cat *catalog.Catalog, strict bool, filePath string) (identities []*model.Identity, actions []model.HealAction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scanner panicked: %v", r)
		}
	}()
	identities, actions = scanner.Run(shards, cat, strict, filePath)
	return identities, actions, nil
}

// docGroup is one document's shards plus its DocIndex (scanner.Run's
// boundary counter), so a group can be matched back to its Identity even
// when an earlier, wholly-empty document between two "---" markers never
// produced a group of its own.
type docGroup struct {
	index  int
	shards []*model.Shard
}

// splitOnBoundaries splits a shard stream into per-document groups on
// IsDocBoundary markers, dropping the boundary shard itself.
func splitOnBoundaries(shards []*model.Shard) []docGroup {
	var groups []docGroup
	var current []*model.Shard
	idx := 0
	for _, s := range shards {
		if s.IsDocBoundary {
			if len(current) > 0 {
				groups = append(groups, docGroup{index: idx, shards: current})
			}
			current = nil
			idx++
			continue
		}
		current = append(current, s)
	}
	if len(current) > 0 {
		groups = append(groups, docGroup{index: idx, shards: current})
	}
	return groups
}

func filterIgnored(findings []model.AnalysisResult, cfg config.Config) []model.AnalysisResult {
	var out []model.AnalysisResult
	for _, f := range findings {
		if cfg.IsIgnored(f.FilePath, f.RuleID) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func recordAnalyzerFailures(rec metrics.Recorder, actions []model.HealAction) {
	for _, a := range actions {
		if a.ActionType == "ANALYZER_FAILED" {
			rec.IncAnalyzerFailure(a.Target)
		}
	}
}
