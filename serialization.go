package lucent

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SERIALIZATION: The On-Disk Index
// ═══════════════════════════════════════════════════════════════════════════════
// Two files make up an index:
//
// POSTINGS FILE:
// --------------
// A plain concatenation of independently framed records. There is no global
// header and no record ordering requirement - records are addressed
// exclusively through the (offset, length) slices the dictionary holds.
// Three record kinds share the file:
//
//	ranked      [n: u32] n × ([doc: str][weight: f64])
//	positional  [n: u32] n × ([doc: str][m: u32] m × [pos: u32])
//	vector      [n: u32] n × ([token: str][count: u32])
//
// where [x: str] is a length-prefixed string: [len: u32][len bytes].
// Everything is little-endian.
//
// DICTIONARY FILE:
// ----------------
// One serialized record holding the three maps (terms, doc vectors,
// lengths) plus the corpus size.
//
// Skip pointers are NOT stored. Their placement is a pure function of list
// length, so the decoder just calls BuildSkips after materializing the
// values - cheaper than encoding tower links and trivially round-trip-safe.
//
// DECODING:
// ---------
// Every load is seek-then-read: the record is fully materialized into
// memory before decoding begins, so no cursor ever touches the file.
// ═══════════════════════════════════════════════════════════════════════════════

// ErrMalformedRecord reports a record that cannot be decoded from its slice.
// Fatal at indexing time; at query time it collapses the query to a blank
// output line.
var ErrMalformedRecord = errors.New("malformed record")

// ═══════════════════════════════════════════════════════════════════════════════
// LOW-LEVEL ENCODER / DECODER
// ═══════════════════════════════════════════════════════════════════════════════

// binWriter accumulates a single record. Writes to a bytes.Buffer cannot
// fail, so the methods return nothing and the caller grabs Bytes() once.
type binWriter struct {
	buf bytes.Buffer
}

func (w *binWriter) uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *binWriter) uint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *binWriter) float64(v float64) {
	w.uint64(math.Float64bits(v))
}

func (w *binWriter) str(s string) {
	w.uint32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *binWriter) bytes() []byte {
	return w.buf.Bytes()
}

// binReader walks a materialized record. The first out-of-bounds read
// latches err; every later read returns zero values, so decode loops can
// run to completion and check Err once at the end.
type binReader struct {
	data []byte
	off  int
	err  error
}

func newBinReader(data []byte) *binReader {
	return &binReader{data: data}
}

func (r *binReader) take(n int) []byte {
	if r.err != nil || r.off+n > len(r.data) {
		if r.err == nil {
			r.err = ErrMalformedRecord
		}
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *binReader) uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *binReader) uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *binReader) float64() float64 {
	return math.Float64frombits(r.uint64())
}

func (r *binReader) str() string {
	n := int(r.uint32())
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// Err returns the latched decode error, augmented with ErrMalformedRecord
// semantics for trailing garbage via expectDone.
func (r *binReader) Err() error {
	return r.err
}

// expectDone latches an error if decoded length disagrees with the slice
// length: records are self-delimiting, so leftovers mean corruption.
func (r *binReader) expectDone() {
	if r.err == nil && r.off != len(r.data) {
		r.err = ErrMalformedRecord
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// RECORD WRITER: Postings File Construction
// ═══════════════════════════════════════════════════════════════════════════════

// recordWriter appends framed records to the postings file, handing back
// the (offset, length) slice of each write for the dictionary to remember.
type recordWriter struct {
	w      io.Writer
	offset uint64
}

func newRecordWriter(w io.Writer) *recordWriter {
	return &recordWriter{w: w}
}

// emit writes one record and returns its slice.
func (rw *recordWriter) emit(record []byte) (Slice, error) {
	if _, err := rw.w.Write(record); err != nil {
		return Slice{}, err
	}
	s := Slice{Offset: rw.offset, Length: uint32(len(record))}
	rw.offset += uint64(len(record))
	return s, nil
}

// WriteRanked serializes a ranked postings list.
func (rw *recordWriter) WriteRanked(list *PostingsList[Posting]) (Slice, error) {
	var w binWriter
	w.uint32(uint32(list.Len()))
	for _, p := range list.Values() {
		w.str(p.DocID)
		w.float64(p.Weight)
	}
	return rw.emit(w.bytes())
}

// WritePositional serializes a positional postings list, nested position
// lists included.
func (rw *recordWriter) WritePositional(list *PostingsList[PositionalPosting]) (Slice, error) {
	var w binWriter
	w.uint32(uint32(list.Len()))
	for _, p := range list.Values() {
		w.str(p.DocID)
		w.uint32(uint32(p.Positions.Len()))
		for _, pos := range p.Positions.Values() {
			w.uint32(uint32(pos))
		}
	}
	return rw.emit(w.bytes())
}

// WriteVector serializes a document's raw-count vector. Tokens are written
// in sorted order so identical vectors always produce identical bytes.
func (rw *recordWriter) WriteVector(vector map[string]int, tokens []string) (Slice, error) {
	var w binWriter
	w.uint32(uint32(len(tokens)))
	for _, token := range tokens {
		w.str(token)
		w.uint32(uint32(vector[token]))
	}
	return rw.emit(w.bytes())
}

// ═══════════════════════════════════════════════════════════════════════════════
// RECORD DECODING
// ═══════════════════════════════════════════════════════════════════════════════

// readSlice seeks to a record and fully materializes it.
func readSlice(r io.ReadSeeker, s Slice) ([]byte, error) {
	if _, err := r.Seek(int64(s.Offset), io.SeekStart); err != nil {
		return nil, err
	}
	data := make([]byte, s.Length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// decodeRanked rebuilds a ranked postings list, skip pointers included.
func decodeRanked(data []byte) (*PostingsList[Posting], error) {
	r := newBinReader(data)
	n := int(r.uint32())

	list := NewPostingsList[Posting]()
	for i := 0; i < n && r.Err() == nil; i++ {
		doc := r.str()
		weight := r.float64()
		list.Append(Posting{DocID: doc, Weight: weight})
	}
	r.expectDone()
	if err := r.Err(); err != nil {
		return nil, err
	}

	list.BuildSkips()
	return list, nil
}

// decodePositional rebuilds a positional postings list. Skips are rebuilt
// both on the document level and inside every position list.
func decodePositional(data []byte) (*PostingsList[PositionalPosting], error) {
	r := newBinReader(data)
	n := int(r.uint32())

	list := NewPostingsList[PositionalPosting]()
	for i := 0; i < n && r.Err() == nil; i++ {
		doc := r.str()
		m := int(r.uint32())
		positions := NewPostingsList[int]()
		for j := 0; j < m && r.Err() == nil; j++ {
			positions.Append(int(r.uint32()))
		}
		positions.BuildSkips()
		list.Append(PositionalPosting{DocID: doc, Positions: positions})
	}
	r.expectDone()
	if err := r.Err(); err != nil {
		return nil, err
	}

	list.BuildSkips()
	return list, nil
}

// decodeVector rebuilds a document's raw-count vector.
func decodeVector(data []byte) (map[string]int, error) {
	r := newBinReader(data)
	n := int(r.uint32())

	vector := make(map[string]int, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		token := r.str()
		vector[token] = int(r.uint32())
	}
	r.expectDone()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return vector, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// DICTIONARY FILE
// ═══════════════════════════════════════════════════════════════════════════════
// Layout, in order:
//
//	[numDocs: u32]
//	[numTerms: u32] per term: [token: str][idf: f64]
//	                          [ranked off: u64][ranked len: u32]
//	                          [positional off: u64][positional len: u32]
//	[numVectors: u32] per doc: [doc: str][off: u64][len: u32]
//	[numLengths: u32] per doc: [doc: str][norm: f64]
//
// Map iteration order is randomized in Go, so the maps are written under
// sorted keys to keep the artifact byte-stable across runs.
// ═══════════════════════════════════════════════════════════════════════════════

func encodeSlice(w *binWriter, s Slice) {
	w.uint64(s.Offset)
	w.uint32(s.Length)
}

func decodeSlice(r *binReader) Slice {
	return Slice{Offset: r.uint64(), Length: r.uint32()}
}

// SaveDictionary serializes the dictionary to a file.
func SaveDictionary(path string, dict *Dictionary) error {
	var w binWriter
	w.uint32(uint32(dict.NumDocs))

	w.uint32(uint32(len(dict.Terms)))
	for _, token := range sortedKeys(dict.Terms) {
		entry := dict.Terms[token]
		w.str(token)
		w.float64(entry.IDF)
		encodeSlice(&w, entry.Ranked)
		encodeSlice(&w, entry.Positional)
	}

	w.uint32(uint32(len(dict.DocVectors)))
	for _, doc := range sortedKeys(dict.DocVectors) {
		w.str(doc)
		encodeSlice(&w, dict.DocVectors[doc])
	}

	w.uint32(uint32(len(dict.Lengths)))
	for _, doc := range sortedKeys(dict.Lengths) {
		w.str(doc)
		w.float64(dict.Lengths[doc])
	}

	return os.WriteFile(path, w.bytes(), 0o644)
}

// LoadDictionary reads a dictionary file back into memory in full. The
// dictionary is small next to the postings file; holding it resident is
// what makes every term lookup a hash-map access.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r := newBinReader(data)
	dict := &Dictionary{
		NumDocs:    int(r.uint32()),
		Terms:      make(map[string]TermEntry),
		DocVectors: make(map[string]Slice),
		Lengths:    make(map[string]float64),
	}

	numTerms := int(r.uint32())
	for i := 0; i < numTerms && r.Err() == nil; i++ {
		token := r.str()
		entry := TermEntry{IDF: r.float64()}
		entry.Ranked = decodeSlice(r)
		entry.Positional = decodeSlice(r)
		dict.Terms[token] = entry
	}

	numVectors := int(r.uint32())
	for i := 0; i < numVectors && r.Err() == nil; i++ {
		doc := r.str()
		dict.DocVectors[doc] = decodeSlice(r)
	}

	numLengths := int(r.uint32())
	for i := 0; i < numLengths && r.Err() == nil; i++ {
		doc := r.str()
		dict.Lengths[doc] = r.float64()
	}

	r.expectDone()
	if err := r.Err(); err != nil {
		return nil, err
	}

	dict.buildOrdinals()
	return dict, nil
}
