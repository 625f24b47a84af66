package backup

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kuaminaji/Controle-de-Protocolos/internal/mongodb"
	"github.com/kuaminaji/Controle-de-Protocolos/pkg/types"
)

// maxLine bounds one encoded document.
const maxLine = 16 << 20

// writeJSONL atomically writes one line per document using the temp-file,
// fsync, rename pattern. It returns the hex sha256 of the written bytes.
func writeJSONL(path string, docs []types.Document) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) (string, error) {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}

	sum := sha256.New()
	w := bufio.NewWriter(io.MultiWriter(tmp, sum))
	for _, d := range docs {
		line, err := encodeLine(d)
		if err != nil {
			return fail(err)
		}
		if _, err := w.Write(line); err != nil {
			return fail(fmt.Errorf("writing record: %w", err))
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail(fmt.Errorf("writing newline: %w", err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return hex.EncodeToString(sum.Sum(nil)), nil
}

// encodeLine renders d as relaxed extended JSON without its identity keys.
func encodeLine(d types.Document) ([]byte, error) {
	out := make(map[string]any, len(d))
	for k, v := range d {
		if !types.IsIdentity(k) {
			out[k] = v
		}
	}
	b, err := bson.MarshalExtJSON(out, false, false)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return b, nil
}

// decodeDocument parses one extended JSON object into plain document values.
func decodeDocument(data []byte) (types.Document, error) {
	var raw bson.M
	if err := bson.UnmarshalExtJSON(data, false, &raw); err != nil {
		return nil, err
	}
	return types.Document(mongodb.Normalize(raw).(map[string]any)), nil
}

// readJSONL calls fn for each non-empty line of path in order. Lines that do
// not decode are passed to bad with their 1-based line number.
func readJSONL(path string, fn func(types.Document) error, bad func(line int, err error)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLine)
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		doc, err := decodeDocument(line)
		if err != nil {
			bad(n, err)
			continue
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}
	return nil
}

// fileDigest returns the hex sha256 of path and its number of non-empty
// lines.
func fileDigest(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	sum := sha256.New()
	scanner := bufio.NewScanner(io.TeeReader(f, sum))
	scanner.Buffer(make([]byte, 0, 64<<10), maxLine)
	var lines int64
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
			lines++
		}
	}
	if err := scanner.Err(); err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(sum.Sum(nil)), lines, nil
}
