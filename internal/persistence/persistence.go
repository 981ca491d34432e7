/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package persistence implements the small file-I/O contract the CLI
// layer needs around the core: read a manifest's raw text, back it up
// before mutating it, and write the healed text back atomically so a
// crash mid-write never leaves a truncated manifest on disk.
//
// No example in the retrieved pack wraps os.WriteFile with a
// temp-file-plus-rename dance, so this is plain standard library; the
// pattern itself is the well-known idiomatic Go way to make a write
// durable and there is no third-party library in the corpus that does
// it better.
package persistence

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadText reads a manifest file's full contents as a string.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// CreateBackup copies path to path+".bak" before a destructive write,
// overwriting any previous backup.
func CreateBackup(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	backupPath := path + ".bak"
	if err := os.WriteFile(backupPath, data, info.Mode()); err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	return nil
}

// AtomicWrite writes text to path by writing a sibling temp file,
// syncing it to disk, and renaming it into place, so a concurrent reader
// never observes a partial write.
func AtomicWrite(path, text string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode()
	}

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("atomic write %s: %w", path, err)
	}
	return nil
}
