//go:build mage

// Package main contains Mage build targets for kb-ingest developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// kbRoot is the knowledge base the targets operate on.
const kbRoot = "kb"

// kbDirs lists the directories of a knowledge base.
var kbDirs = []string{
	filepath.Join(kbRoot, "sources"),
	filepath.Join(kbRoot, "chunks"),
	filepath.Join(kbRoot, "index"),
}

const (
	binDir  = "bin"
	binName = "kb-ingest"
	cmdPkg  = "./cmd/kb-ingest"

	// buildTags enables FTS5 in mattn/go-sqlite3.
	buildTags = "sqlite_fts5"
)

// Init creates the knowledge base directory structure.
func Init() error {
	for _, dir := range kbDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Knowledge base directories initialized.")
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-tags", buildTags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with FTS5 enabled.
func Test() error {
	return sh.RunV("go", "test", "-tags", buildTags, "./...")
}

// Ingest builds the CLI and ingests kb/sources into kb/chunks.
func Ingest() error {
	mg.Deps(Init, Build)
	return sh.RunV(filepath.Join(binDir, binName), "ingest", "--root", kbRoot)
}

// Index ingests and then rebuilds the full-text index.
func Index() error {
	mg.SerialDeps(Ingest)
	return sh.RunV(filepath.Join(binDir, binName), "index", "--root", kbRoot)
}
