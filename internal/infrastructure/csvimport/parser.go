package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrEmptyFile indicates the uploaded file had no content
	ErrEmptyFile = errors.New("file is empty")
	// ErrMissingHeader indicates the file had no header row
	ErrMissingHeader = errors.New("missing header row")
)

// Parser reads a CSV stream with a header row, mapping each data row
// to its column names. Header names are normalized to lower snake
// case so `Transaction_ID`, `transaction id` and `transaction_id`
// all address the same column.
type Parser struct {
	reader  *csv.Reader
	headers map[string]int
	line    int
}

// NewParser wraps a reader, strips a UTF-8 BOM if present, and reads
// the header row.
func NewParser(r io.Reader) (*Parser, error) {
	buf := bufio.NewReader(r)
	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	cr := csv.NewReader(buf)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	p := &Parser{reader: cr, headers: make(map[string]int)}
	record, err := cr.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, h := range record {
		p.headers[normalizeHeader(h)] = i
	}
	p.line = 1
	return p, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	h = strings.ReplaceAll(h, " ", "_")
	return h
}

// HasColumn checks if a normalized column name is present
func (p *Parser) HasColumn(name string) bool {
	_, ok := p.headers[name]
	return ok
}

// Row is one parsed data row
type Row struct {
	Line   int
	fields []string
	parser *Parser
}

// Get returns the trimmed value of a column, empty when absent
func (r *Row) Get(name string) string {
	idx, ok := r.parser.headers[name]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

// IsEmpty returns true if every field of the row is blank
func (r *Row) IsEmpty() bool {
	for _, f := range r.fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Next reads the next data row. It returns io.EOF when the stream is
// exhausted.
func (p *Parser) Next() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.line++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.line, err)
	}
	return &Row{Line: p.line, fields: record, parser: p}, nil
}
