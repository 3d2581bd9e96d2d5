package rag

import (
	"strings"

	"github.com/Yates-Labs/bayan/internal/lang"
)

// DefaultChunkSize is the number of words per chunk.
const DefaultChunkSize = 400

// DefaultScore is the static prior every chunk is ingested with.
const DefaultScore = 1.0

// SplitWords splits text into groups of at most size whitespace-separated
// words. Whitespace-only text yields no groups.
func SplitWords(text string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	groups := make([][]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		groups = append(groups, words[start:end])
	}
	return groups
}

// ChunkRecords splits each record into word chunks and drops duplicates,
// keeping the first occurrence. Language is detected once per record from
// its full text.
func ChunkRecords(records []Record, size int) []Chunk {
	seen := make(map[ChunkKey]struct{})
	chunks := make([]Chunk, 0, len(records))

	for _, rec := range records {
		groups := SplitWords(rec.Text, size)
		if len(groups) == 0 {
			continue
		}
		language := lang.Detect(rec.Text)

		for _, group := range groups {
			c := Chunk{
				Source:   rec.Source,
				Text:     strings.Join(group, " "),
				Language: language,
				Year:     rec.Year,
				Type:     rec.Type,
				Score:    DefaultScore,
			}
			key := c.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			chunks = append(chunks, c)
		}
	}

	return chunks
}
