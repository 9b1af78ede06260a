package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"signalbot/knowledge"
	"signalbot/retrieval"
	"signalbot/types"
)

// ErrCycleRunning is returned when a cycle is requested while one is
// already in flight.
var ErrCycleRunning = errors.New("reconciliation cycle already running")

// Snapshotter pushes the merged archive file somewhere durable after a
// successful cycle.
type Snapshotter interface {
	UploadFile(ctx context.Context, localPath, key string) error
}

// Pipeline executes one reconciliation cycle: drain, merge, save, rebuild,
// clear. The buffer is cleared strictly last, so any earlier failure leaves
// every pending row on disk and the next cycle redoes the work. Merging is
// idempotent per id, which makes the at-least-once replay safe.
type Pipeline struct {
	store   *knowledge.Store
	buffer  *knowledge.Buffer
	index   *retrieval.Index
	state   *Manager
	snap    Snapshotter
	snapKey string

	running sync.Mutex
}

// PipelineConfig wires the pipeline's collaborators. Snapshotter may be
// nil; SnapshotKey is the object key used when it is not.
type PipelineConfig struct {
	Store       *knowledge.Store
	Buffer      *knowledge.Buffer
	Index       *retrieval.Index
	State       *Manager
	Snapshotter Snapshotter
	SnapshotKey string
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	state := cfg.State
	if state == nil {
		state = NewManager()
	}
	return &Pipeline{
		store:   cfg.Store,
		buffer:  cfg.Buffer,
		index:   cfg.Index,
		state:   state,
		snap:    cfg.Snapshotter,
		snapKey: cfg.SnapshotKey,
	}
}

// State exposes the state manager for the status endpoint.
func (p *Pipeline) State() *Manager { return p.state }

// Run executes one cycle. Only one cycle runs at a time; a second caller
// gets ErrCycleRunning instead of queueing.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.TryLock() {
		return ErrCycleRunning
	}
	defer p.running.Unlock()

	p.state.SetState(StateDraining)
	p.state.AddLog("Draining pending buffer")

	rows, err := p.buffer.Drain()
	if err != nil {
		err = fmt.Errorf("drain failed: %w", err)
		p.state.SetError(err)
		return err
	}

	if len(rows) == 0 {
		p.state.AddLog("Buffer empty, nothing to reconcile")
		p.state.RecordCycle(0, types.MergeReport{Total: p.store.Count()})
		return nil
	}
	p.state.AddLog(fmt.Sprintf("Drained %d pending row(s)", len(rows)))

	p.state.SetState(StateMerging)
	merge := p.store.MergeRecords(rows)
	p.state.AddLog(fmt.Sprintf("Merged: %d added, %d updated, %d dropped, %d total",
		merge.Added, merge.Updated, merge.Dropped, merge.Total))

	if err := p.store.Save(); err != nil {
		err = fmt.Errorf("archive save failed: %w", err)
		p.state.SetError(err)
		return err
	}

	p.state.SetState(StateReindexing)
	p.state.AddLog("Rebuilding similarity index from archive")
	if err := p.index.Rebuild(ctx, p.store.All()); err != nil {
		err = fmt.Errorf("index rebuild failed: %w", err)
		p.state.SetError(err)
		return err
	}

	p.state.SetState(StateCleanup)
	if err := p.buffer.Clear(); err != nil {
		err = fmt.Errorf("buffer clear failed: %w", err)
		p.state.SetError(err)
		return err
	}
	p.state.AddLog("Pending buffer cleared")

	// Snapshot failure does not fail the cycle; local state is already
	// consistent.
	if p.snap != nil {
		if err := p.snap.UploadFile(ctx, p.store.Path(), p.snapKey); err != nil {
			log.Printf("Archive snapshot upload failed: %v", err)
			p.state.AddLog(fmt.Sprintf("Snapshot upload failed: %v", err))
		} else {
			p.state.AddLog("Archive snapshot uploaded")
		}
	}

	p.state.RecordCycle(len(rows), merge)
	log.Printf("Reconciliation cycle complete: drained=%d merged_total=%d", len(rows), merge.Total)
	return nil
}
