package rag

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteJSON_RoundTripEmbedded(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", EmbeddedChunksFile)
	year := 2023

	in := []EmbeddedChunk{
		{Chunk: Chunk{Source: "gastat_gdp_year.ar.json", Text: "الناتج المحلي", Language: "ar", Year: &year, Type: "gastat_gdp", Score: 1}, Embedding: []float32{0.1, 0.2}},
		{Chunk: Chunk{Source: "https://datasaudi.sa/en/", Text: "[TITLE] DataSaudi", Language: "en", Score: 1}},
	}

	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(raw), "الناتج المحلي") {
		t.Error("expected Arabic text to be written unescaped")
	}
	if !strings.Contains(string(raw), `"embedding": null`) {
		t.Error("expected failed embedding to be written as null")
	}

	out, err := ReadEmbedded(path)
	if err != nil {
		t.Fatalf("ReadEmbedded failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Year == nil || *out[0].Year != 2023 || out[0].Type != "gastat_gdp" {
		t.Errorf("metadata lost: %+v", out[0])
	}
	if out[1].Embedding != nil {
		t.Errorf("expected nil embedding, got %v", out[1].Embedding)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the final file, found %d entries", len(entries))
	}
}

func TestReadChunks_Missing(t *testing.T) {
	if _, err := ReadChunks(filepath.Join(t.TempDir(), ChunksFile)); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestEncodeJSON_NoHTMLEscape(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, map[string]string{"t": "a < b & c"}); err != nil {
		t.Fatalf("EncodeJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), "a < b & c") {
		t.Errorf("unexpected escaping: %s", buf.String())
	}
}
