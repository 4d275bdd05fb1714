// Package atomicfile provides crash-safe persistence shared by the article
// registry, the system configuration loader, and the publication layout.
// All three write their documents far more often than they are read by a
// human, and none may leave a half-written file behind if the process is
// killed mid-write.
package atomicfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// maxWriteAttempts and the backoff schedule below match spec §4.B exactly:
// up to five attempts, exponential backoff from 50ms to 800ms, guarding
// against transient sharing conflicts on the rename. The first four delays
// separate the five attempts; the last precedes the direct-write fallback.
const maxWriteAttempts = 5

var backoffSchedule = []time.Duration{
	50 * time.Millisecond,
	100 * time.Millisecond,
	200 * time.Millisecond,
	400 * time.Millisecond,
	800 * time.Millisecond,
}

// WriteJSON marshals v and writes it to path atomically via writeAtomic.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("atomicfile: marshal %s: %w", path, err)
	}
	return writeAtomic(path, data)
}

// WriteText atomically writes content as the full contents of path. Used
// for the plain-text output files (title.txt, article.md, …) the
// publication layout materializes per article.
func WriteText(path, content string) error {
	return writeAtomic(path, []byte(content))
}

// writeAtomic is the shared temp-file-plus-rename discipline behind
// WriteJSON and WriteText: the document is written into a sibling temp
// file in the same directory (so the rename is same-filesystem and
// therefore atomic), fsynced, and renamed over path. On repeated rename
// failure it falls back to a direct, non-atomic write so a write is never
// silently lost.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	var lastErr error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(backoffSchedule[attempt-1])
		}

		if err := writeTemp(tmpPath, data); err != nil {
			lastErr = err
			continue
		}

		if err := os.Rename(tmpPath, path); err != nil {
			lastErr = err
			os.Remove(tmpPath)
			continue
		}

		return nil
	}

	os.Remove(tmpPath)
	time.Sleep(backoffSchedule[maxWriteAttempts-1])

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("atomicfile: direct write fallback for %s failed after rename retries (%v): %w", path, lastErr, err)
	}
	return nil
}

// writeTemp creates tmpPath, writes data, and fsyncs before closing so the
// bytes are durable on disk before the rename that makes them visible.
func writeTemp(tmpPath string, data []byte) error {
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("atomicfile: create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("atomicfile: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("atomicfile: sync temp file: %w", err)
	}
	return nil
}

// ReadJSON reads path and unmarshals it into v. Callers that need
// self-repair behavior on malformed JSON (the registry) do not use this
// directly; see internal/registry for that chain.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// BackupCorrupt copies path to a timestamped sibling so a human can inspect
// what went wrong, then returns the backup path. Used by the registry's
// self-repair chain right before it reinitializes an unparsable document.
func BackupCorrupt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().UTC().Format("20060102T150405"))
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", err
	}
	return backupPath, nil
}
