package ingest

import (
	"context"
	"log"
	"sync"
	"time"

	"signalbot/knowledge"
	"signalbot/retrieval"
	"signalbot/types"
)

const (
	saverWorkers   = 3
	saverQueueSize = 256
	indexAddBudget = 30 * time.Second
)

// Saver persists accepted records off the consumer goroutine: each record
// is appended to the pending buffer and incrementally added to the index.
// The buffer append is the durable part; a failed index add is only logged
// because the next reconciliation rebuild covers it.
type Saver struct {
	buffer *knowledge.Buffer
	index  *retrieval.Index

	queue chan types.ContentRecord
	wg    sync.WaitGroup
	once  sync.Once
}

// NewSaver starts the worker pool. index may be nil when incremental
// indexing is disabled.
func NewSaver(buffer *knowledge.Buffer, index *retrieval.Index) *Saver {
	s := &Saver{
		buffer: buffer,
		index:  index,
		queue:  make(chan types.ContentRecord, saverQueueSize),
	}

	for i := 0; i < saverWorkers; i++ {
		s.wg.Add(1)
		go func(workerID int) {
			defer s.wg.Done()
			for record := range s.queue {
				s.persist(workerID, record)
			}
		}(i)
	}
	return s
}

// Enqueue hands a record to the pool. When the queue is full the append
// happens inline; backpressure beats dropping a record.
func (s *Saver) Enqueue(record types.ContentRecord) {
	select {
	case s.queue <- record:
	default:
		log.Printf("Saver queue full, persisting %s inline", record.ID)
		s.persist(-1, record)
	}
}

// Close stops accepting records and drains everything already queued.
func (s *Saver) Close() {
	s.once.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
}

func (s *Saver) persist(workerID int, record types.ContentRecord) {
	if err := s.buffer.Append(record); err != nil {
		log.Printf("[Saver %d] Failed to buffer %s: %v", workerID, record.ID, err)
		return
	}

	if s.index != nil {
		ctx, cancel := context.WithTimeout(context.Background(), indexAddBudget)
		if err := s.index.Add(ctx, []types.ContentRecord{record}); err != nil {
			log.Printf("[Saver %d] Incremental index add failed for %s: %v", workerID, record.ID, err)
		}
		cancel()
	}
}
