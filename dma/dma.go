// Package dma implements the DMA pipeline (C2): a bounded-concurrency
// in-flight registry of device-issued bus transfers plus a FIFO of
// transfers deferred because the pipeline is full.
package dma

import (
	"log"

	"github.com/tebeka/atexit"

	"github.com/nicbmcore/nicbm/device"
	"github.com/nicbmcore/nicbm/transport"
	"github.com/nicbmcore/nicbm/wire"
)

// Outbound is the slice of channel.Channel the pipeline needs: allocating
// a D2H slot and reading the negotiated slot-size limits. Declared here
// (rather than depending on *channel.Channel directly) so unit tests can
// supply a minimal fake without standing up a whole Channel.
type Outbound interface {
	D2HAlloc(now uint64) transport.Slot
	D2HElen() uint64
	H2DElen() uint64
}

// MaxPending is DMA_MAX_PENDING (spec §3): the cap on simultaneously
// in-flight DMAOps.
const MaxPending = 64

// State is a DMAOp's position in the Created -> {Deferred|InFlight} ->
// Completed state machine (spec §4.2).
type State int

// The four states a DMAOp passes through.
const (
	StateCreated State = iota
	StateDeferred
	StateInFlight
	StateCompleted
)

// DMAOp describes one pending bus transfer. It is owned by the device for
// its entire lifetime; the pipeline holds only a non-owning handle between
// Issue and the matching DMAComplete callback (spec §3, §9 "Ownership of
// DMAOps").
type DMAOp struct {
	Write  bool
	Addr   uint64
	Len    uint32
	Buffer []byte // written by read completions, read by write issuance
	Tag    any    // opaque, passed through unchanged to DMAComplete

	state  State
	ticket uint64
}

// State reports where op is in its Created->{Deferred|InFlight}->Completed
// lifecycle.
func (op *DMAOp) State() State { return op.state }

// Pipeline is the C2 contract: Issue, OnComplete, Trigger, plus the
// ticket registry Design Note §9 calls for in place of pointer-as-
// identifier.
type Pipeline struct {
	ch  Outbound
	dev device.Device
	log *log.Logger
	obs PendingObserver

	pending  int
	deferred []*DMAOp

	registry   map[uint64]*DMAOp
	nextTicket uint64
}

// PendingObserver is the narrow slice of runtime.Hooks the pipeline itself
// needs: a callback fired whenever dma_pending changes, so an ambient
// collaborator (record.Recorder, monitor.Server) can track it without the
// pipeline depending on the runtime package.
type PendingObserver interface {
	DMAPendingChanged(now uint64, pending int)
}

type noopObserver struct{}

func (noopObserver) DMAPendingChanged(uint64, int) {}

// New creates a Pipeline that issues DMAs through ch and completes them
// against dev. The caller is responsible for wiring the pipeline back into
// ch as its completion sink (channel.Channel.SetDMA), since Outbound alone
// does not expose that.
func New(ch Outbound, dev device.Device, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}

	return &Pipeline{
		ch:       ch,
		dev:      dev,
		log:      logger,
		obs:      noopObserver{},
		registry: make(map[uint64]*DMAOp),
	}
}

// SetObserver attaches an optional PendingObserver. Passing nil restores
// the no-op default.
func (p *Pipeline) SetObserver(obs PendingObserver) {
	if obs == nil {
		obs = noopObserver{}
	}

	p.obs = obs
}

// Pending returns the current dma_pending counter (spec §3 invariant).
func (p *Pipeline) Pending() int { return p.pending }

// DeferredLen returns the number of DMAOps waiting in the deferred FIFO.
func (p *Pipeline) DeferredLen() int { return len(p.deferred) }

// Issue implements spec §4.2 Issue: send immediately if there is capacity,
// otherwise defer. now is the logical time at which the issuing D2H slot
// (if any) is allocated.
func (p *Pipeline) Issue(now uint64, op *DMAOp) {
	if p.pending < MaxPending {
		p.issueNow(now, op)
		return
	}

	op.state = StateDeferred
	p.deferred = append(p.deferred, op)
}

func (p *Pipeline) issueNow(now uint64, op *DMAOp) {
	ticket := p.nextTicket
	p.nextTicket++
	op.ticket = ticket
	op.state = StateInFlight
	p.registry[ticket] = op

	if op.Write {
		if wire.HeaderLen+uint64(len(op.Buffer)) > p.ch.D2HElen() {
			p.fatalOversize("write", len(op.Buffer))
		}
	} else if wire.HeaderLen+uint64(op.Len) > p.ch.H2DElen() {
		p.fatalOversize("read", int(op.Len))
	}

	p.pending++
	p.obs.DMAPendingChanged(now, p.pending)

	slot := p.ch.D2HAlloc(now)

	if op.Write {
		slot.Fill(wire.KindWrite, wire.DMAWrite{ReqID: ticket, Addr: op.Addr, Data: op.Buffer})
	} else {
		slot.Fill(wire.KindRead, wire.DMARead{ReqID: ticket, Addr: op.Addr, Len: op.Len})
	}

	slot.Publish()
}

// fatalOversize reports the diagnostic spec §7 requires and terminates the
// process through atexit.Exit rather than log.Fatalf, so handlers
// registered with atexit.Register (record.Recorder.Flush) still run
// before os.Exit -- log.Fatalf calls os.Exit directly and would skip
// them.
func (p *Pipeline) fatalOversize(direction string, length int) {
	p.log.Printf("issue_dma: %s too big (%d)", direction, length)
	atexit.Exit(1)
}

// OnComplete implements spec §4.2 OnComplete: it is invoked by channel.
// Channel when a READCOMP/WRITECOMP arrives. data is the payload for a read
// completion, nil for a write completion. now is the logical time at which
// the completion arrived, threaded through to Trigger in case it needs to
// issue the next deferred DMA.
func (p *Pipeline) OnComplete(now uint64, ticket uint64, data []byte, write bool) {
	op, ok := p.registry[ticket]
	if !ok {
		p.log.Printf("dma: unknown completion ticket %d", ticket)
		return
	}

	delete(p.registry, ticket)

	if !write {
		copy(op.Buffer, data)
	}

	op.state = StateCompleted
	p.dev.DMAComplete(op)

	p.pending--
	p.obs.DMAPendingChanged(now, p.pending)
	p.Trigger(now)
}

// Trigger implements spec §4.2 Trigger: issue the head of the deferred FIFO
// if there is capacity, stamping the newly-issued slot with now.
func (p *Pipeline) Trigger(now uint64) {
	if len(p.deferred) == 0 || p.pending == MaxPending {
		return
	}

	op := p.deferred[0]
	p.deferred = p.deferred[1:]

	p.issueNow(now, op)
}
