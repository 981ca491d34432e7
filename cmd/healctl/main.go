/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Command healctl is a thin demonstration wrapper around internal/heal.
// It is explicitly out of core scope (spec.md §1 Non-goals) except for
// the exit-code contract of its two subcommands (spec.md §6).
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/kubeheal/healer/internal/heal"
	"github.com/kubeheal/healer/internal/persistence"
	"github.com/kubeheal/healer/pkg/model"
)

// newLogger builds the zap-backed logr.Logger internal/heal expects,
// per SPEC_FULL.md §10's logging convention.
func newLogger() logr.Logger {
	zl, err := zap.NewProduction()
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(zl)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scan":
		os.Exit(runScan(os.Args[2:]))
	case "heal":
		os.Exit(runHeal(os.Args[2:]))
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: healctl scan <paths...>")
	fmt.Fprintln(os.Stderr, "       healctl heal <paths...> [--dry-run] [-y|--yes] [--yes-all]")
}

// runScan is read-only: exit 0 if no file would change and no
// error-severity finding was reported; exit 1 otherwise.
func runScan(args []string) int {
	paths := args
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "scan: no paths given")
		return 1
	}

	log := newLogger()
	wouldChangeOrError := false
	for _, path := range paths {
		raw, err := persistence.ReadText(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan: %v\n", err)
			wouldChangeOrError = true
			continue
		}

		res := heal.Heal(raw, heal.Options{FilePath: path, Logger: log})
		changed := res.HealedText != raw
		hasError := hasErrorFinding(res)
		if changed || hasError {
			wouldChangeOrError = true
		}
		reportFindings(path, res, changed)
	}

	if wouldChangeOrError {
		return 1
	}
	return 0
}

// runHeal applies repairs in place: exit 0 on success or no-change;
// non-zero if any file would change and no confirmation was given.
func runHeal(args []string) int {
	var paths []string
	dryRun := false
	yes := false
	yesAll := false

	for _, a := range args {
		switch a {
		case "--dry-run":
			dryRun = true
		case "-y", "--yes":
			yes = true
		case "--yes-all":
			yesAll = true
			yes = true
		default:
			paths = append(paths, a)
		}
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "heal: no paths given")
		return 1
	}

	reader := bufio.NewReader(os.Stdin)
	log := newLogger()
	anyUnconfirmedChange := false

	for _, path := range paths {
		raw, err := persistence.ReadText(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "heal: %v\n", err)
			anyUnconfirmedChange = true
			continue
		}

		res := heal.Heal(raw, heal.Options{FilePath: path, Logger: log})
		changed := res.HealedText != raw
		reportFindings(path, res, changed)

		if !changed {
			continue
		}
		if dryRun {
			fmt.Printf("--- %s would change (dry-run, not written)\n", path)
			continue
		}

		confirmed := yes
		if !confirmed && !yesAll {
			confirmed = confirmInteractive(reader, path)
		}
		if !confirmed {
			anyUnconfirmedChange = true
			continue
		}

		if err := persistence.CreateBackup(path); err != nil {
			fmt.Fprintf(os.Stderr, "heal: %v\n", err)
			anyUnconfirmedChange = true
			continue
		}
		if err := persistence.AtomicWrite(path, res.HealedText); err != nil {
			fmt.Fprintf(os.Stderr, "heal: %v\n", err)
			anyUnconfirmedChange = true
			continue
		}
		fmt.Printf("healed %s (confidence %d)\n", path, res.Score)
	}

	if anyUnconfirmedChange {
		return 1
	}
	return 0
}

func confirmInteractive(reader *bufio.Reader, path string) bool {
	fmt.Printf("apply changes to %s? [y/N] ", path)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

func hasErrorFinding(res heal.Result) bool {
	for _, f := range res.Findings {
		if f.Severity == model.SeverityError {
			return true
		}
	}
	return false
}

func reportFindings(path string, res heal.Result, changed bool) {
	if !changed && len(res.Findings) == 0 {
		return
	}
	fmt.Printf("%s: confidence=%d changed=%v\n", path, res.Score, changed)
	for _, f := range res.Findings {
		fmt.Printf("  [%s] %s: %s\n", f.Severity, f.RuleID, f.Message)
	}
}
