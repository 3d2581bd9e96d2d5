// Package format turns statistical API rows into natural-language sentences.
//
// Each dataset family has its own Formatter with a fixed set of fields and
// separate English and Arabic sentence templates. Missing fields are replaced
// with a language-appropriate placeholder. Rows from unknown datasets fall
// back to a generic "field: value | field: value" join.
package format

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Yates-Labs/bayan/internal/lang"
)

// GenericFamily is the family reported for rows handled by the fallback.
const GenericFamily = "generic"

// Placeholders substituted for missing fields.
const (
	NotAvailableEN = "N/A"
	NotAvailableAR = "غير متاح"
)

// Row is one decoded JSON record.
type Row map[string]any

// Formatter renders one dataset family.
type Formatter interface {
	// Family is the dataset-name fragment used to select this formatter.
	Family() string

	// Format renders row as a sentence in the given language.
	Format(row Row, l lang.Language) string
}

// families is ordered; the first family whose key is contained in the
// source name wins.
var families = []Formatter{
	gdpFormatter{},
	inflationFormatter{},
	wpiFormatter{},
	ipiFormatter{},
	pmiFormatter{},
	govFinanceFormatter{},
	moneySupplyFormatter{},
}

// Families returns the known dataset family keys in selection order.
func Families() []string {
	keys := make([]string, len(families))
	for i, f := range families {
		keys[i] = f.Family()
	}
	return keys
}

// ForSource selects the formatter for a dataset file name.
func ForSource(source string) Formatter {
	for _, f := range families {
		if strings.Contains(source, f.Family()) {
			return f
		}
	}
	return Generic{}
}

// FormatRow formats row with the formatter selected for source and reports
// the family that produced the text.
func FormatRow(source string, row Row, l lang.Language) (text, family string) {
	f := ForSource(source)
	return f.Format(row, l), f.Family()
}

// NotAvailable returns the missing-field placeholder for l.
func NotAvailable(l lang.Language) string {
	if l == lang.Arabic {
		return NotAvailableAR
	}
	return NotAvailableEN
}

// fields gives fixed-field access to a row with placeholder substitution.
type fields struct {
	row  Row
	lang lang.Language
}

// get returns the value of key or the placeholder.
func (f fields) get(key string) string {
	if v, ok := lookup(f.row, key); ok {
		return v
	}
	return NotAvailable(f.lang)
}

// first returns the first present key in order, so finer time labels
// (quarter, month) take precedence over the year.
func (f fields) first(keys ...string) string {
	for _, key := range keys {
		if v, ok := lookup(f.row, key); ok {
			return v
		}
	}
	return NotAvailable(f.lang)
}

// lookup returns the string form of row[key]; absent, null and empty
// values count as missing.
func lookup(row Row, key string) (string, bool) {
	v, ok := row[key]
	if !ok || v == nil {
		return "", false
	}
	s := Stringify(v)
	if s == "" {
		return "", false
	}
	return s, true
}

// Stringify renders a decoded JSON value as text.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

// Generic joins every field of a row. Keys are sorted so output is stable.
type Generic struct{}

// Family returns GenericFamily.
func (Generic) Family() string { return GenericFamily }

// Format joins "key: value" pairs with " | ".
func (Generic) Format(row Row, _ lang.Language) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, Stringify(row[k])))
	}
	return strings.Join(parts, " | ")
}
