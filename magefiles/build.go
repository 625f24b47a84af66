//go:build mage

// Package main provides build targets for protocolos using Mage.
//
// Usage:
//
//	mage build        Compile the protocolos binary to bin/
//	mage test:all     Run all tests
//	mage test:unit    Run tests without a MongoDB server
//	mage test:mongo   Start a MongoDB container and run the full suite
//	mage lint         Run golangci-lint
//	mage clean        Remove build artifacts
//	mage install      Install protocolos to GOPATH/bin
//	mage stats        Print Go lines of code
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "protocolos"
	binaryDir  = "bin"
	cmdDir     = "./cmd/protocolos"
	versionVar = "github.com/kuaminaji/Controle-de-Protocolos/internal/cli.Version"
)

// version returns the git description of HEAD, or "dev".
func version() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || strings.TrimSpace(out) == "" {
		return "dev"
	}
	return strings.TrimSpace(out)
}

// Build compiles the protocolos binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	ldflags := "-X " + versionVar + "=" + version()
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
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
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
