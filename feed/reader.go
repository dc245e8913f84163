package feed

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrUnreadable reports that a file was present but no delimiter or encoding
// candidate produced a usable table.
var ErrUnreadable = errors.New("feed file unreadable")

// delimiterCandidates are tried in priority order. Latin American exports
// are usually semicolon-delimited with decimal commas; comma is the fallback.
var delimiterCandidates = []rune{';', ','}

// Table is a parsed delimited file with normalized column names. Rows are
// kept as raw string records; typed interpretation belongs to the dataset
// normalizers.
type Table struct {
	Columns []string
	Rows    [][]string

	// Hash is the SHA-256 of the file bytes, used to key the snapshot cache.
	Hash string

	colIndex map[string]int
}

// Col returns the index of the named (normalized) column.
func (t *Table) Col(name string) (int, bool) {
	i, ok := t.colIndex[name]
	return i, ok
}

// Cell safely extracts a trimmed cell from a row, returning "" for short rows.
func (t *Table) Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ReadTable loads the delimited file at path, trying each delimiter
// candidate in turn and accepting the first parse that yields more than one
// column. Files that are not valid UTF-8 are decoded as Windows-1252 first.
// Malformed lines are skipped rather than failing the whole read.
func ReadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read %q: %v", ErrUnreadable, path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %q is empty", ErrUnreadable, path)
	}
	hash := sha256.Sum256(raw)

	data, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: could not decode %q: %v", ErrUnreadable, path, err)
	}

	for _, delim := range delimiterCandidates {
		table, ok := parse(data, delim)
		if ok {
			table.Hash = hex.EncodeToString(hash[:])
			return table, nil
		}
	}
	return nil, fmt.Errorf("%w: no delimiter candidate produced more than one column for %q", ErrUnreadable, path)
}

// decode strips a UTF-8 BOM and falls back to Windows-1252 for byte streams
// that are not valid UTF-8.
func decode(raw []byte) ([]byte, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return raw, nil
	}
	return charmap.Windows1252.NewDecoder().Bytes(raw)
}

// parse reads data with the given delimiter, skipping malformed records. It
// reports ok=false when the header resolves to fewer than two columns.
func parse(data []byte, delim rune) (*Table, bool) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil || len(header) < 2 {
		return nil, false
	}

	table := &Table{
		Columns:  make([]string, len(header)),
		colIndex: make(map[string]int, len(header)),
	}
	for i, h := range header {
		name := NormalizeColumn(h)
		table.Columns[i] = name
		// First occurrence wins for duplicate headers.
		if _, seen := table.colIndex[name]; !seen {
			table.colIndex[name] = i
		}
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed lines
		}
		table.Rows = append(table.Rows, record)
	}
	return table, true
}

// NormalizeColumn trims, lowercases and replaces spaces with underscores so
// that inconsistently exported headers compare equal.
func NormalizeColumn(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return strings.ReplaceAll(name, " ", "_")
}
