/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

package persistence

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadTextRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pod.yaml")
	if err := os.WriteFile(path, []byte("kind: Pod\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadText(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "kind: Pod\n" {
		t.Fatalf("got %q", got)
	}
}

func TestCreateBackupCopiesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pod.yaml")
	if err := os.WriteFile(path, []byte("kind: Pod\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CreateBackup(path); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "kind: Pod\n" {
		t.Fatalf("backup content mismatch: %q", got)
	}
}

func TestAtomicWriteReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pod.yaml")
	if err := os.WriteFile(path, []byte("kind: Pod\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWrite(path, "kind: Deployment\n"); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "kind: Deployment\n" {
		t.Fatalf("got %q", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if leftover, _ := filepath.Match("pod.yaml.tmp-*", e.Name()); leftover {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
}

func TestAtomicWriteNewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new.yaml")
	if err := AtomicWrite(path, "kind: ConfigMap\n"); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "kind: ConfigMap\n" {
		t.Fatalf("got %q", got)
	}
}
