package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// ManifestFile is the name of the manifest inside a backup directory.
const ManifestFile = "manifest.json"

// FormatVersion identifies the backup layout.
const FormatVersion = 1

// Backup errors.
var (
	ErrManifestMissing = errors.New("backup manifest not found")
	ErrManifestInvalid = errors.New("invalid backup manifest")
	ErrChecksum        = errors.New("backup file checksum mismatch")
)

// Manifest describes a backup directory.
type Manifest struct {
	ID          string    `json:"id"`
	Version     int       `json:"version"`
	Engine      string    `json:"engine"`
	Database    string    `json:"database,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Collections []Entry   `json:"collections"`
}

// Entry describes one collection file.
type Entry struct {
	Name   string `json:"name"`
	File   string `json:"file"`
	Count  int64  `json:"count"`
	SHA256 string `json:"sha256"`
}

// Validate checks the manifest fields for consistency.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: missing id", ErrManifestInvalid)
	}
	if m.Version != FormatVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrManifestInvalid, m.Version)
	}
	seen := map[string]bool{}
	for _, e := range m.Collections {
		if !slices.Contains(types.StandardCollectionNames, e.Name) {
			return fmt.Errorf("%w: unknown collection %q", ErrManifestInvalid, e.Name)
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: collection %q listed twice", ErrManifestInvalid, e.Name)
		}
		seen[e.Name] = true
		if e.File == "" || filepath.Base(e.File) != e.File {
			return fmt.Errorf("%w: bad file name %q", ErrManifestInvalid, e.File)
		}
		if e.Count < 0 {
			return fmt.Errorf("%w: negative count for %q", ErrManifestInvalid, e.Name)
		}
	}
	return nil
}

// Verify checks every listed file against its checksum and count.
func (m *Manifest) Verify(dir string) error {
	for _, e := range m.Collections {
		sum, lines, err := fileDigest(filepath.Join(dir, e.File))
		if err != nil {
			return fmt.Errorf("reading %s: %w", e.File, err)
		}
		if sum != e.SHA256 {
			return fmt.Errorf("%w: %s", ErrChecksum, e.File)
		}
		if lines != e.Count {
			return fmt.Errorf("%w: %s has %d documents, manifest says %d", ErrChecksum, e.File, lines, e.Count)
		}
	}
	return nil
}

// WriteManifest writes m to dir.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o600)
}

// ReadManifest reads and validates the manifest in dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s", ErrManifestMissing, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
