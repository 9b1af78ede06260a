package knowledge

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"signalbot/types"
)

// Buffer is the append-only pending-ingest file written by the fast path
// and drained by the reconciliation pipeline. Rows share the archive's
// shape. The buffer is only ever appended to between reconciliation runs;
// Clear is called strictly after a successful merge and reindex, so a crash
// anywhere earlier leaves every pending row on disk for retry.
type Buffer struct {
	mu   sync.Mutex // keeps appends atomic at row level
	path string
	// drained counts the data rows returned by the last Drain. Clear only
	// removes that many rows, so appends racing a reconciliation cycle
	// survive into the next one.
	drained int
}

// NewBuffer creates a buffer persisting to the given CSV path.
func NewBuffer(path string) *Buffer {
	return &Buffer{path: path}
}

// Append writes one record to the end of the buffer file, creating it with
// a header row if needed.
func (b *Buffer) Append(record types.ContentRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, statErr := os.Stat(b.path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open buffer %s: %w", b.path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if writeHeader {
		if err := writer.Write(csvHeader); err != nil {
			return err
		}
	}
	if err := writer.Write(encodeRecord(record)); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// Drain reads every buffered record without touching the file. A missing
// or empty buffer yields an empty slice.
func (b *Buffer) Drain() ([]types.ContentRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, err := b.readRows()
	if err != nil {
		return nil, err
	}
	b.drained = len(rows)

	records := make([]types.ContentRecord, 0, len(rows))
	for _, row := range rows {
		record, err := decodeRecord(row)
		if err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Clear removes the rows returned by the last Drain. Rows appended since
// that Drain stay on disk for the next cycle; when nothing was appended
// the file itself is removed. Called only after the drained contents have
// been durably merged and reindexed.
func (b *Buffer) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, err := b.readRows()
	if err != nil {
		return err
	}

	keep := rows
	if b.drained < len(rows) {
		keep = rows[b.drained:]
	} else {
		keep = nil
	}
	b.drained = 0

	if len(keep) == 0 {
		err := os.Remove(b.path)
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	f, err := os.OpenFile(b.path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to rewrite buffer %s: %w", b.path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	if err := writer.WriteAll(keep); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// readRows returns the raw data rows of the buffer file, header stripped.
// Callers hold b.mu.
func (b *Buffer) readRows() ([][]string, error) {
	f, err := os.Open(b.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open buffer %s: %w", b.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read buffer %s: %w", b.path, err)
	}
	if len(rows) > 0 && isHeaderRow(rows[0]) {
		rows = rows[1:]
	}
	return rows, nil
}
