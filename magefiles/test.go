//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// mongoURLEnv enables the MongoDB contract tests.
const mongoURLEnv = "PROTOCOLOS_TEST_MONGO_URL"

// Test groups test targets.
type Test mg.Namespace

// All runs every test. MongoDB tests run only when PROTOCOLOS_TEST_MONGO_URL
// is set.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Unit runs the tests with the MongoDB server variable cleared.
func (Test) Unit() error {
	return sh.RunWithV(map[string]string{mongoURLEnv: ""}, binGo, "test", "./...")
}

// Race runs every test with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Mongo starts a disposable MongoDB container, runs every test against it
// and removes the container.
func (Test) Mongo() error {
	if url := os.Getenv(mongoURLEnv); url != "" {
		fmt.Fprintf(os.Stderr, "Using MongoDB at %s\n", url)
		return sh.RunV(binGo, "test", "./...")
	}
	rt := containerRuntime()
	if rt == "" {
		return fmt.Errorf("no container runtime found (tried podman, docker)")
	}
	url, err := startMongo(rt)
	if err != nil {
		return err
	}
	defer stopMongo(rt)
	return sh.RunWithV(map[string]string{mongoURLEnv: url}, binGo, "test", "-count=1", "./...")
}
