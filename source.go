package lucent

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// ═══════════════════════════════════════════════════════════════════════════════
// DOCUMENT SOURCE
// ═══════════════════════════════════════════════════════════════════════════════
// The indexer does not care where documents come from; it consumes a stream
// of (doc_id, raw words) rows. The CSV reader below is the production
// implementation, tests feed rows from slices.
// ═══════════════════════════════════════════════════════════════════════════════

// Row is one document as delivered by a DocumentSource: the document ID and
// the raw, un-normalized words of its content in order.
type Row struct {
	DocID string
	Words []string
}

// DocumentSource yields corpus rows one at a time. Next returns io.EOF
// after the final row. Any other error is indexer-fatal: the corpus is
// ingested whole or not at all.
type DocumentSource interface {
	Next() (Row, error)
}

// CSVSource reads a corpus CSV with columns [doc_id, <ignored>, content, ...].
// The content column is split into words on whitespace; normalization is the
// indexer's job, not the source's.
type CSVSource struct {
	reader *csv.Reader
	file   *os.File
}

// OpenCSVSource opens a corpus file for reading.
func OpenCSVSource(path string) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(file)
	// Corpus rows may carry trailing columns beyond the three we care
	// about; accept any width and validate per row instead.
	reader.FieldsPerRecord = -1

	return &CSVSource{reader: reader, file: file}, nil
}

// Next returns the next corpus row, or io.EOF when done.
func (s *CSVSource) Next() (Row, error) {
	record, err := s.reader.Read()
	if err != nil {
		return Row{}, err
	}

	if len(record) < 3 {
		return Row{}, fmt.Errorf("malformed corpus row: want at least 3 columns, got %d", len(record))
	}
	if record[0] == "" {
		return Row{}, fmt.Errorf("malformed corpus row: empty document id")
	}

	return Row{DocID: record[0], Words: Tokenize(record[2])}, nil
}

// Close releases the underlying file.
func (s *CSVSource) Close() error {
	return s.file.Close()
}

var _ io.Closer = (*CSVSource)(nil)
