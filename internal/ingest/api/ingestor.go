package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Yates-Labs/bayan/internal/format"
	"github.com/Yates-Labs/bayan/internal/lang"
	"github.com/Yates-Labs/bayan/internal/rag"
)

var yearPattern = regexp.MustCompile(`(?:^|\D)(1[89]\d{2}|2\d{3})(?:\D|$)`)

// Ingestor formats every saved dataset file under Dir into records.
type Ingestor struct {
	Dir    string
	logger *zap.Logger
}

// NewIngestor creates an Ingestor reading from dir.
func NewIngestor(dir string, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{Dir: dir, logger: logger}
}

// LanguageOf reports the language a saved dataset file was fetched in.
func LanguageOf(filename string) lang.Language {
	if strings.Contains(filename, ".ar.json") {
		return lang.Arabic
	}
	return lang.English
}

// Records reads all *.json files in name order. A missing directory yields
// no records; an unreadable file is logged and skipped.
func (in *Ingestor) Records() ([]rag.Record, error) {
	entries, err := os.ReadDir(in.Dir)
	if errors.Is(err, os.ErrNotExist) {
		in.logger.Warn("api data directory missing", zap.String("dir", in.Dir))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", in.Dir, err)
	}

	var records []rag.Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		fileRecords, err := in.fileRecords(entry.Name())
		if err != nil {
			in.logger.Error("skipping api file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		records = append(records, fileRecords...)
	}

	in.logger.Info("api records formatted", zap.Int("records", len(records)))
	return records, nil
}

func (in *Ingestor) fileRecords(name string) ([]rag.Record, error) {
	f, err := os.Open(filepath.Join(in.Dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var payload struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(f).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	l := LanguageOf(name)
	records := make([]rag.Record, 0, len(payload.Data))
	for _, raw := range payload.Data {
		row, ok := decodeRow(raw)
		if !ok {
			continue
		}
		text, family := format.FormatRow(name, row, l)
		if strings.TrimSpace(text) == "" {
			continue
		}
		records = append(records, rag.Record{
			Source: name,
			Text:   text,
			Year:   RowYear(row),
			Type:   family,
		})
	}
	return records, nil
}

// decodeRow decodes one row, keeping numbers in their source form. Rows
// that are not JSON objects are rejected.
func decodeRow(raw json.RawMessage) (format.Row, bool) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var row map[string]any
	if err := dec.Decode(&row); err != nil || row == nil {
		return nil, false
	}
	return format.Row(row), true
}

// RowYear returns the row's Year, or the first year found in its Quarter or
// Month label.
func RowYear(row format.Row) *int {
	if v, ok := row["Year"]; ok && v != nil {
		if y, err := strconv.Atoi(strings.TrimSpace(format.Stringify(v))); err == nil {
			return &y
		}
	}
	for _, key := range []string{"Quarter", "Month"} {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		if m := yearPattern.FindStringSubmatch(format.Stringify(v)); m != nil {
			y, _ := strconv.Atoi(m[1])
			return &y
		}
	}
	return nil
}
