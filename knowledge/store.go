package knowledge

import (
	"encoding/csv"
	"fmt"
	"html"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"signalbot/types"
)

// Store is the id-keyed archive of content records, backed by a CSV file.
// At most one record exists per id; duplicate ids are resolved
// last-write-wins in ingestion order.
type Store struct {
	mu      sync.RWMutex
	path    string
	records map[string]types.ContentRecord
	ordered []types.ContentRecord
}

// NewStore creates a store persisting to the given CSV path.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		records: make(map[string]types.ContentRecord),
	}
}

// Normalize converts a raw news item into its retrievable record form.
// Returns false when the item is missing its id or headline; such items
// are dropped, never raised.
func Normalize(item types.NewsItem) (types.ContentRecord, bool) {
	headline := strings.TrimSpace(html.UnescapeString(item.Headline))
	summary := html.UnescapeString(item.Summary)

	if strings.TrimSpace(item.ID) == "" || headline == "" {
		return types.ContentRecord{}, false
	}

	return types.ContentRecord{
		ID:        strings.TrimSpace(item.ID),
		Timestamp: item.Timestamp,
		Title:     headline,
		BodyText:  types.SynthesizeBody(headline, summary),
		Source:    item.Source,
		Symbols:   item.Symbols,
	}, true
}

// Merge normalizes a batch of news items and merges them into the store.
// Malformed items are counted in the report's Dropped field and skipped.
func (s *Store) Merge(items []types.NewsItem) types.MergeReport {
	records := make([]types.ContentRecord, 0, len(items))
	dropped := 0
	for _, item := range items {
		record, ok := Normalize(item)
		if !ok {
			dropped++
			continue
		}
		records = append(records, record)
	}

	report := s.MergeRecords(records)
	report.Dropped += dropped
	return report
}

// MergeRecords merges already-normalized records (for example rows drained
// from the pending buffer) into the store, last-write-wins per id, then
// re-sorts the full set by timestamp descending.
func (s *Store) MergeRecords(records []types.ContentRecord) types.MergeReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report types.MergeReport
	for _, record := range records {
		if record.ID == "" || record.Title == "" {
			report.Dropped++
			continue
		}
		if _, exists := s.records[record.ID]; exists {
			report.Updated++
		} else {
			report.Added++
		}
		s.records[record.ID] = record
	}

	s.resort()
	report.Total = len(s.records)
	return report
}

// All returns every record ordered by timestamp descending, ties broken by
// id so repeated calls are deterministic.
func (s *Store) All() []types.ContentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.ContentRecord, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Path returns the archive file location.
func (s *Store) Path() string { return s.path }

// Count returns the number of records in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Load reads the archive file into memory. A missing file is a valid cold
// start, not an error; rows that fail to decode are dropped with a log line.
func (s *Store) Load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read archive %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]types.ContentRecord, len(rows))
	dropped := 0
	for i, row := range rows {
		if i == 0 && isHeaderRow(row) {
			continue
		}
		record, err := decodeRecord(row)
		if err != nil || record.ID == "" || record.Title == "" {
			dropped++
			continue
		}
		s.records[record.ID] = record
	}
	if dropped > 0 {
		log.Printf("Archive load dropped %d malformed row(s) from %s", dropped, s.path)
	}

	s.resort()
	return nil
}

// Save rewrites the archive wholesale from the merged, deduplicated state.
// The write goes through a temp file and rename so a crash mid-write never
// corrupts the previous archive.
func (s *Store) Save() error {
	s.mu.RLock()
	ordered := make([]types.ContentRecord, len(s.ordered))
	copy(ordered, s.ordered)
	s.mu.RUnlock()

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create archive temp file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return err
	}
	for _, record := range ordered {
		if err := writer.Write(encodeRecord(record)); err != nil {
			f.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}

// resort rebuilds the ordered view. Caller must hold the write lock.
func (s *Store) resort() {
	s.ordered = s.ordered[:0]
	for _, record := range s.records {
		s.ordered = append(s.ordered, record)
	}
	sort.Slice(s.ordered, func(i, j int) bool {
		if !s.ordered[i].Timestamp.Equal(s.ordered[j].Timestamp) {
			return s.ordered[i].Timestamp.After(s.ordered[j].Timestamp)
		}
		return s.ordered[i].ID < s.ordered[j].ID
	})
}
