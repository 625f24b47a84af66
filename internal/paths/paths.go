// Package paths resolves configuration and data locations for protocolos.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "protocolos"

// DatabaseFileName is the SQLite file created inside the data directory.
const DatabaseFileName = "protocolos.db"

// ConfigFileName is the optional configuration file inside the config
// directory.
const ConfigFileName = "protocolos.yaml"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "PROTOCOLOS_CONFIG_DIR"
	EnvDataDir   = "PROTOCOLOS_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/protocolos (fallback ~/.config/protocolos)
// macOS:   ~/Library/Application Support/protocolos
// Windows: %APPDATA%/protocolos
func DefaultConfigDir() (string, error) {
	return platformPath("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific data directory.
//
// Linux:   $XDG_DATA_HOME/protocolos (fallback ~/.local/share/protocolos)
// macOS:   ~/Library/Application Support/protocolos
// Windows: %APPDATA%/protocolos
func DefaultDataDir() (string, error) {
	return platformPath("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func platformPath(xdgEnv, homeRel string) (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv(xdgEnv); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, homeRel, AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > PROTOCOLOS_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDatabasePath returns the SQLite file path following the precedence
// chain: explicit path > PROTOCOLOS_DATA_DIR env > DefaultDataDir(). The
// directory-based sources get DatabaseFileName appended.
func ResolveDatabasePath(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		dir, err := filepath.Abs(env)
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, DatabaseFileName), nil
	}
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DatabaseFileName), nil
}
