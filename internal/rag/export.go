package rag

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Artifact file names written under the data directory during ingestion.
const (
	ChunksFile         = "chunks.json"
	EmbeddedChunksFile = "chunks_with_embeddings.json"
)

// EncodeJSON writes v as indented JSON without HTML escaping, so Arabic text
// and "<" ">" "&" survive unchanged.
func EncodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// WriteJSON atomically replaces path with the JSON encoding of v.
func WriteJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := EncodeJSON(tmp, v); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// ReadChunks loads a chunk list written by WriteJSON.
func ReadChunks(path string) ([]Chunk, error) {
	var chunks []Chunk
	if err := readJSON(path, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// ReadEmbedded loads an embedded chunk list written by WriteJSON.
func ReadEmbedded(path string) ([]EmbeddedChunk, error) {
	var chunks []EmbeddedChunk
	if err := readJSON(path, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
