//go:build mage

// Package main provides build targets for morph using Mage.
//
// Usage:
//
//	mage build   Compile morph to bin/
//	mage test    Run all tests
//	mage laws    Check the harness scenarios with the built binary
//	mage lint    Run golangci-lint
//	mage clean   Remove build artifacts
//	mage install Install morph to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "morph"
	binaryDir  = "bin"
	cmdDir     = "./cmd/morph"

	pipelinesDir = "internal/harness/testdata/pipelines"
	scenariosDir = "internal/harness/testdata/scenarios"
)

// Build compiles the morph binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Laws builds morph and checks every harness scenario against its golden
// trace.
func Laws() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binaryDir, binaryName), "check", pipelinesDir, scenariosDir)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	return os.RemoveAll(binaryDir)
}

// Install installs morph to GOPATH/bin.
func Install() error {
	return sh.RunV("go", "install", cmdDir)
}
