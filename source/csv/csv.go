// Package csv implements the §6 CSV source adapter contract: a flat file
// on disk turned into (attributeIndex, csv.Update) pairs the core can
// assert into a catalog. This is an external-collaborator boundary (spec
// §6), not part of the compiler core, so configuration mistakes are
// reported as a plain error from NewReader rather than the core's fatal
// panic regime.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/wbrown/diffplan/dataflow"
	"github.com/wbrown/diffplan/ident"
	"github.com/wbrown/diffplan/value"
)

// ColumnType tags how a CSV column should be decoded into a value.Value.
type ColumnType int

const (
	ColumnString ColumnType = iota
	ColumnNumber
	ColumnEid
)

// ColumnSpec names one non-entity column's position and decoding.
type ColumnSpec struct {
	Offset int
	Type   ColumnType
	// Attribute is the attribute this column's values are asserted under.
	Attribute ident.Aid
}

// Config is the full adapter configuration §6 calls for.
type Config struct {
	Path      string
	Header    bool
	Delimiter byte
	Comment   byte // zero value disables comment handling
	Flexible  bool
	Schema    []ColumnSpec
}

// Update is one decoded fact read off a row: Key is always the row's
// column-0 entity, Val the decoded column value, at Time with Diff=+1 (a
// CSV load only ever asserts, never retracts).
type Update struct {
	Key  value.Eid
	Val  value.Value
	Time dataflow.Timestamp
	Diff dataflow.Diff
}

// Reader streams a CSV file's rows into (attributeIndex, Update) pairs.
// Column 0 of every row is always parsed as the row's Eid; every other
// column in Schema contributes one Update tagged with that column's
// configured attribute.
type Reader struct {
	cfg Config
	f   *os.File
	r   *csv.Reader

	header     []string
	nextDatum  int
	numWorkers int
}

// NewReader validates cfg and opens Path. Every configuration mistake
// (an unrecognised ColumnType, a Schema entry at offset 0, a Header
// request against a file with no rows) is caught here rather than left to
// panic mid-scan, since this adapter sits outside the compiler's own
// fatal-abort regime.
func NewReader(cfg Config, numWorkers int) (*Reader, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("csv: Path must not be empty")
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	for _, c := range cfg.Schema {
		if c.Offset == 0 {
			return nil, fmt.Errorf("csv: schema column at offset 0 is reserved for the row's Eid")
		}
		switch c.Type {
		case ColumnString, ColumnNumber, ColumnEid:
		default:
			return nil, fmt.Errorf("csv: column at offset %d has unrecognised type %d", c.Offset, c.Type)
		}
	}

	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", cfg.Path, err)
	}

	r := csv.NewReader(f)
	if cfg.Delimiter != 0 {
		r.Comma = rune(cfg.Delimiter)
	}
	if cfg.Comment != 0 {
		r.Comment = rune(cfg.Comment)
	}
	if cfg.Flexible {
		r.FieldsPerRecord = -1
	}

	reader := &Reader{cfg: cfg, f: f, r: r, numWorkers: numWorkers}
	if cfg.Header {
		header, err := r.Read()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("csv: reading header row: %w", err)
		}
		reader.header = header
	}
	return reader, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error { return r.f.Close() }

// ReadAll drains every remaining row, returning one Update per (row,
// schema column) pair along with the attribute index (position in
// cfg.Schema) it belongs to, and the worker partition
// datum_index mod num_workers each row was assigned to. The caller's
// runtime is responsible for actually hash-partitioning work across
// workers; this adapter only emits the partition index alongside each
// update in file order (§6).
func (r *Reader) ReadAll() ([]int, []int, []Update, error) {
	var attrIdx []int
	var partitions []int
	var updates []Update

	for {
		row, err := r.r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, fmt.Errorf("csv: reading row %d: %w", r.nextDatum, err)
		}

		eid, err := strconv.ParseUint(row[0], 10, 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("csv: row %d: column 0 is not a valid entity id: %w", r.nextDatum, err)
		}
		key := value.Eid(eid)
		partition := r.nextDatum % r.numWorkers

		for i, col := range r.cfg.Schema {
			if col.Offset >= len(row) {
				return nil, nil, nil, fmt.Errorf("csv: row %d: schema references offset %d, row has %d columns", r.nextDatum, col.Offset, len(row))
			}
			v, err := decodeColumn(row[col.Offset], col.Type)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("csv: row %d, column %d: %w", r.nextDatum, col.Offset, err)
			}
			attrIdx = append(attrIdx, i)
			partitions = append(partitions, partition)
			updates = append(updates, Update{Key: key, Val: v, Time: dataflow.Moment(0), Diff: 1})
		}
		r.nextDatum++
	}

	return attrIdx, partitions, updates, nil
}

func decodeColumn(raw string, t ColumnType) (value.Value, error) {
	switch t {
	case ColumnString:
		return value.Str(raw), nil
	case ColumnNumber:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not a valid number: %w", err)
		}
		return value.Int(n), nil
	case ColumnEid:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not a valid entity id: %w", err)
		}
		return value.Eid(n), nil
	default:
		return nil, fmt.Errorf("unrecognised column type %d", t)
	}
}
