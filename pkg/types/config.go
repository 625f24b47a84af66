package types

import "errors"

// Config holds engine selection and connection parameters for Database.Attach.
type Config struct {
	// Engine selects the storage engine (EngineSQLite or EngineMongoDB).
	Engine string `json:"engine" yaml:"engine"`
	// Target is the SQLite file path or the MongoDB connection URI.
	Target string `json:"target" yaml:"target"`
	// Database names the logical database. Ignored by SQLite.
	Database string `json:"database" yaml:"database"`
}

// Supported engine names.
const (
	EngineSQLite  = "sqlite"
	EngineMongoDB = "mongodb"
)

// Config validation errors.
var (
	ErrEngineEmpty   = errors.New("engine must not be empty")
	ErrEngineUnknown = errors.New("unknown engine")
	ErrTargetEmpty   = errors.New("target must not be empty")
	ErrDatabaseEmpty = errors.New("database name must not be empty")
)

// knownEngines lists the engines that Validate accepts.
var knownEngines = map[string]bool{
	EngineSQLite:  true,
	EngineMongoDB: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Engine == "" {
		return ErrEngineEmpty
	}
	if !knownEngines[c.Engine] {
		return ErrEngineUnknown
	}
	if c.Target == "" {
		return ErrTargetEmpty
	}
	if c.Engine == EngineMongoDB && c.Database == "" {
		return ErrDatabaseEmpty
	}
	return nil
}
