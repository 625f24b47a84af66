//go:build mage

package main

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"time"
)

// Test MongoDB container settings.
const (
	mongoImage     = "docker.io/library/mongo:7"
	mongoContainer = "protocolos-test-mongo"
	mongoPort      = "27018"
	mongoWait      = 60 * time.Second
)

// containerRuntime returns "podman" or "docker" if a working runtime
// is available, or "" if neither is usable. It checks both that the
// binary exists on PATH and that it can connect to its daemon/machine.
func containerRuntime() string {
	for _, name := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if exec.Command(name, "info").Run() != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %s found on PATH but not usable (is the daemon/machine running?)\n", name)
			continue
		}
		return name
	}
	return ""
}

// startMongo runs a throwaway MongoDB container and waits until its port
// accepts connections. It returns the connection URI.
func startMongo(rt string) (string, error) {
	stopMongo(rt)
	fmt.Fprintln(os.Stderr, "Starting MongoDB container...")
	cmd := exec.Command(rt, "run", "-d", "--rm",
		"--name", mongoContainer,
		"-p", "127.0.0.1:"+mongoPort+":27017",
		mongoImage)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("starting mongo container: %w", err)
	}

	addr := net.JoinHostPort("127.0.0.1", mongoPort)
	deadline := time.Now().Add(mongoWait)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			conn.Close()
			return "mongodb://" + addr + "/", nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	stopMongo(rt)
	return "", fmt.Errorf("mongo did not accept connections on %s within %s", addr, mongoWait)
}

// stopMongo removes the test container. Errors are ignored because the
// container may not exist.
func stopMongo(rt string) {
	_ = exec.Command(rt, "rm", "-f", mongoContainer).Run()
}
