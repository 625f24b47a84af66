package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestValidate(t *testing.T) {
	valid := func() *Manifest {
		return &Manifest{
			ID:          "0190b1e2-0000-7000-8000-000000000000",
			Version:     FormatVersion,
			Collections: []Entry{{Name: "usuarios", File: "usuarios.jsonl", Count: 1, SHA256: "x"}},
		}
	}
	tests := []struct {
		name   string
		mutate func(*Manifest)
		ok     bool
	}{
		{"valid", func(*Manifest) {}, true},
		{"missing id", func(m *Manifest) { m.ID = "" }, false},
		{"future version", func(m *Manifest) { m.Version = 2 }, false},
		{"unknown collection", func(m *Manifest) { m.Collections[0].Name = "arquivos" }, false},
		{"duplicate collection", func(m *Manifest) { m.Collections = append(m.Collections, m.Collections[0]) }, false},
		{"path in file", func(m *Manifest) { m.Collections[0].File = "../usuarios.jsonl" }, false},
		{"negative count", func(m *Manifest) { m.Collections[0].Count = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(m)
			err := m.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrManifestInvalid)
			}
		})
	}
}

func TestReadManifestErrors(t *testing.T) {
	_, err := ReadManifest(t.TempDir())
	assert.ErrorIs(t, err, ErrManifestMissing)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("{"), 0o600))
	_, err = ReadManifest(dir)
	assert.ErrorIs(t, err, ErrManifestInvalid)
}
