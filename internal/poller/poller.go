// Package poller watches the generation status of the open item while it is
// PROCESSING and writes the outcome into the item store.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/gYonder/genai-shell/internal/api"
	"github.com/gYonder/genai-shell/internal/logger"
	"github.com/gYonder/genai-shell/internal/state"
)

// DefaultInterval is the delay between two status requests
const DefaultInterval = 3 * time.Second

// State of the poller
type State int

const (
	Idle State = iota
	Polling
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

type tickerFunc func(time.Duration) (<-chan time.Time, func())

func newTimeTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Poller is attached to one item store. It polls only while the observed status
// is PROCESSING, one request at a time. Every write to the store is checked
// against the cycle that issued the request, so a response arriving after the
// cycle ended (status changed, or Stop) is dropped.
type Poller struct {
	client   api.GenAIClient
	store    *state.ItemStore
	log      *logger.Logger
	interval time.Duration
	ticker   tickerFunc

	ctx         context.Context
	cancel      context.CancelFunc // current cycle
	done        chan struct{}      // closed when the current cycle's goroutine exits
	unsubscribe func()
	state       State
	cycle       uint64
	mu          sync.Mutex

	// held from the cycle check to the end of a store write, so Stop can wait
	// for a write it raced with
	writeMu sync.Mutex
}

func New(client api.GenAIClient, store *state.ItemStore, log *logger.Logger, interval time.Duration) *Poller {
	if log == nil {
		log = logger.Nop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	closed := make(chan struct{})
	close(closed)
	return &Poller{
		client:   client,
		store:    store,
		log:      log.With("item_id", store.ID()),
		interval: interval,
		ticker:   newTimeTicker,
		done:     closed,
	}
}

// Attach subscribes to the store and starts polling if the item is already PROCESSING.
func (p *Poller) Attach(ctx context.Context) {
	p.mu.Lock()
	if p.state == Stopped || p.unsubscribe != nil {
		p.mu.Unlock()
		return
	}
	p.ctx = ctx
	p.mu.Unlock()

	unsubscribe := p.store.Subscribe(func(item api.CategoryItemDetails, field state.Field) {
		if field == state.FieldStatus {
			p.Observe(item.Status)
		}
	})

	p.mu.Lock()
	p.unsubscribe = unsubscribe
	p.mu.Unlock()

	p.Observe(p.store.Status())
}

// Observe reacts to a status value seen in the store. PROCESSING starts a cycle
// when idle; anything else ends the running cycle.
func (p *Poller) Observe(status api.ItemStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.state == Stopped:
	case status == api.StatusProcessing && p.state == Idle:
		p.startLocked()
	case status != api.StatusProcessing && p.state == Polling:
		p.endCycleLocked()
		p.state = Idle
	}
}

// Stop ends polling for good. In-flight responses are discarded and a store
// write already under way has finished when Stop returns. Stop must not be
// called from a store listener.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.state == Stopped {
		p.mu.Unlock()
		return
	}
	p.endCycleLocked()
	p.state = Stopped
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	p.writeMu.Lock()
	p.writeMu.Unlock() //nolint:staticcheck // waits out a write in progress
	p.log.Debug("poller stopped")
}

// State returns the current poller state
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Active reports whether a polling goroutine is still running. That includes
// the moment after a terminal status when the generation is being fetched.
func (p *Poller) Active() bool {
	select {
	case <-p.Done():
		return false
	default:
		return true
	}
}

// Done returns a channel closed when the current polling goroutine has exited.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *Poller) startLocked() {
	parent := p.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	p.cycle++
	p.cancel = cancel
	p.state = Polling
	p.done = make(chan struct{})

	ticks, stopTicker := p.ticker(p.interval)
	go p.loop(ctx, cancel, p.cycle, ticks, stopTicker, p.done)
	p.log.Debug("polling started", "cycle", p.cycle, "interval", p.interval)
}

// endCycleLocked invalidates the running cycle and cancels its requests
func (p *Poller) endCycleLocked() {
	p.cycle++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// currentLocked reports whether cycle is still the live one
func (p *Poller) currentLocked(cycle uint64) bool {
	return p.cycle == cycle && p.state != Stopped
}

func (p *Poller) current(cycle uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked(cycle)
}

func (p *Poller) loop(ctx context.Context, cancel context.CancelFunc, cycle uint64, ticks <-chan time.Time, stopTicker func(), done chan struct{}) {
	defer close(done)
	defer cancel()
	defer stopTicker()

	itemID := p.store.ID()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			if p.tick(ctx, cycle, itemID) {
				return
			}
		}
	}
}

// tick issues one status request and reports whether the cycle is over.
func (p *Poller) tick(ctx context.Context, cycle uint64, itemID int64) bool {
	info, err := p.client.GetItemStatus(ctx, itemID)
	if err != nil {
		if !p.current(cycle) {
			return true
		}
		p.log.Warn("status poll failed", "error", err)
		return false
	}
	if info.Status == api.StatusProcessing {
		return !p.current(cycle)
	}

	// Terminal for this cycle: detach before writing so the store notification
	// does not see a running cycle.
	p.mu.Lock()
	if !p.currentLocked(cycle) {
		p.mu.Unlock()
		return true
	}
	p.state = Idle
	p.cancel = nil
	p.mu.Unlock()

	p.log.Info("generation finished", "status", info.Status)
	p.write(cycle, state.FieldStatus, info.Status)

	switch info.Status {
	case api.StatusFailed:
		if info.FailedJobType != "" {
			p.write(cycle, state.FieldFailedJobType, info.FailedJobType)
		}
	case api.StatusCompleted:
		gen, err := p.client.GetItemGeneration(ctx, itemID)
		if err != nil {
			p.log.Error("generation fetch failed", "error", err)
			return true
		}
		p.write(cycle, state.FieldSummary, gen.Summary)
		p.write(cycle, state.FieldFlashcards, gen.Flashcards)
	}
	return true
}

func (p *Poller) write(cycle uint64, field state.Field, value any) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if !p.current(cycle) {
		p.log.Debug("dropping stale write", "field", field, "cycle", cycle)
		return
	}
	if err := p.store.Update(field, value); err != nil {
		p.log.Error("store update failed", "field", field, "error", err)
	}
}
