// Package main provides build targets for the healthdb project using Mage.
//
// Usage:
//
//	mage build           Compile healthdb binary to bin/
//	mage test            Run all tests (integration tests skip without a database)
//	mage testIntegration Run tests against the database in HEALTHDB_TEST_DB_URL
//	mage lint            Run golangci-lint
//	mage clean           Remove build artifacts
//	mage install         Install healthdb to GOPATH/bin

//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "healthdb"
	binaryDir  = "bin"
	cmdDir     = "./cmd/healthdb"

	// testDBEnv names the database the integration tests run against.
	testDBEnv = "HEALTHDB_TEST_DB_URL"
)

// Build compiles the healthdb binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests. Database-backed tests skip themselves when
// HEALTHDB_TEST_DB_URL is not set.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestIntegration runs the full suite against a live database. Fails fast
// when no test database is configured.
func TestIntegration() error {
	if os.Getenv(testDBEnv) == "" {
		return fmt.Errorf("%s is not set; point it at a disposable Postgres database", testDBEnv)
	}
	mg.Deps(Build)
	return sh.RunV("go", "test", "-count=1", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
