package store

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// PutArtifact caches a fetched object's raw bytes under its key. Payloads
// are gzipped at rest; the reference grid is a few MB of float arrays and
// compresses well.
func (s *Store) PutArtifact(objectKey string, payload []byte) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(payload); err != nil {
		return fmt.Errorf("compress artifact: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip: %w", err)
	}

	hash := sha256.Sum256(payload)

	_, err := s.db.Exec(`
		INSERT INTO artifacts (object_key, fetched_at, payload_compressed, payload_hash, size_bytes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(object_key) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			payload_compressed = excluded.payload_compressed,
			payload_hash = excluded.payload_hash,
			size_bytes = excluded.size_bytes
	`, objectKey, time.Now().UTC(), buf.Bytes(), hex.EncodeToString(hash[:]), len(payload))
	if err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// GetArtifact returns the cached bytes for a key, or (nil, nil) on a miss.
func (s *Store) GetArtifact(objectKey string) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRow(`SELECT payload_compressed FROM artifacts WHERE object_key = ?`, objectKey).
		Scan(&compressed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	return io.ReadAll(gz)
}

// DeleteArtifact drops one cached object.
func (s *Store) DeleteArtifact(objectKey string) error {
	_, err := s.db.Exec(`DELETE FROM artifacts WHERE object_key = ?`, objectKey)
	return err
}
