package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty engine returns ErrEngineEmpty",
			config:  Config{Engine: "", Target: "/tmp/protocolos.db"},
			wantErr: ErrEngineEmpty,
		},
		{
			name:    "unknown engine returns ErrEngineUnknown",
			config:  Config{Engine: "postgres", Target: "/tmp/protocolos.db"},
			wantErr: ErrEngineUnknown,
		},
		{
			name:    "sqlite without target returns ErrTargetEmpty",
			config:  Config{Engine: EngineSQLite},
			wantErr: ErrTargetEmpty,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Engine: EngineSQLite, Target: "/tmp/protocolos.db"},
			wantErr: nil,
		},
		{
			name:    "sqlite ignores database name",
			config:  Config{Engine: EngineSQLite, Target: "protocolos.db", Database: ""},
			wantErr: nil,
		},
		{
			name:    "mongodb without database returns ErrDatabaseEmpty",
			config:  Config{Engine: EngineMongoDB, Target: "mongodb://localhost:27017/"},
			wantErr: ErrDatabaseEmpty,
		},
		{
			name:    "valid mongodb config",
			config:  Config{Engine: EngineMongoDB, Target: "mongodb://localhost:27017/", Database: "protocolos_db"},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
