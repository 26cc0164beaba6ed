// Package channel implements the channel I/O component (C3): it owns the
// four logical ring endpoints (H2D-inbound, D2H-outbound, N2D-inbound,
// D2N-outbound), polls the inbound ones, dispatches by message kind, and
// allocates outbound slots on behalf of the dma package and the runtime.
package channel

import (
	"log"

	"github.com/nicbmcore/nicbm/device"
	"github.com/nicbmcore/nicbm/transport"
	"github.com/nicbmcore/nicbm/wire"
)

// OnDMAComplete is implemented by the DMA pipeline (dma.Pipeline) and is
// called when a READCOMP or WRITECOMP arrives on the H2D ring. Declared
// here so channel does not import dma; dma in turn reaches the channel
// only through its own dma.Outbound interface.
type OnDMAComplete interface {
	OnComplete(now uint64, reqID uint64, data []byte, write bool)
}

// Channel is the C3 contract: poll the two inbound rings, dispatch by kind,
// and expose the outbound helpers EthSend/MSIIssue/MSIXIssue plus the raw
// Alloc primitives dma.Pipeline needs for D2H requests.
type Channel struct {
	transport transport.Transport
	dev       device.Device
	dma       OnDMAComplete

	elen struct {
		d2h uint64
		h2d uint64
	}

	log *log.Logger
}

// New creates a Channel bound to t and dev. SetDMA must be called before
// any DMA traffic flows, since the pipeline and the channel reference each
// other.
func New(t transport.Transport, dev device.Device, logger *log.Logger) *Channel {
	if logger == nil {
		logger = log.Default()
	}

	return &Channel{transport: t, dev: dev, log: logger}
}

// SetDMA wires the DMA pipeline's completion sink. Done after New because
// dma.New itself needs a *Channel to allocate D2H slots from.
func (c *Channel) SetDMA(dma OnDMAComplete) {
	c.dma = dma
}

// SetSlotLimits records the negotiated slot sizes so D2HAlloc-adjacent
// callers (dma.Pipeline) can size-check before issuing.
func (c *Channel) SetSlotLimits(d2hElen, h2dElen uint64) {
	c.elen.d2h = d2hElen
	c.elen.h2d = h2dElen
}

// D2HElen and H2DElen return the negotiated slot sizes for the direction's
// oversize check (spec §4.2 "Size limits").
func (c *Channel) D2HElen() uint64 { return c.elen.d2h }
func (c *Channel) H2DElen() uint64 { return c.elen.h2d }

// D2HAlloc reserves one outbound D2H slot, logging and retrying
// indefinitely while none is free (spec §4.3, §7 transport-slot-busy).
func (c *Channel) D2HAlloc(now uint64) transport.Slot {
	for {
		slot, ok := c.transport.D2HAlloc(now)
		if ok {
			return slot
		}

		c.log.Print("d2h_alloc: no entry available")
	}
}

// D2NAlloc is D2HAlloc's network-facing counterpart.
func (c *Channel) D2NAlloc(now uint64) transport.Slot {
	for {
		slot, ok := c.transport.D2NAlloc(now)
		if ok {
			return slot
		}

		c.log.Print("d2n_alloc: no entry available")
	}
}

// PollH2D drains at most one H2D message and dispatches it. Returns true if
// a message was processed.
func (c *Channel) PollH2D(now uint64) bool {
	msg, ok := c.transport.H2DPoll(now)
	if !ok {
		return false
	}

	switch msg.Kind {
	case wire.KindRead:
		c.h2dRead(now, msg.Payload.(wire.ReadReq))
	case wire.KindWrite:
		c.h2dWrite(now, msg.Payload.(wire.WriteReq))
	case wire.KindReadComp:
		rc := msg.Payload.(wire.ReadComp)
		c.dma.OnComplete(now, rc.ReqID, rc.Data, false)
	case wire.KindWriteComp:
		wc := msg.Payload.(wire.WriteComp)
		c.dma.OnComplete(now, wc.ReqID, nil, true)
	case wire.KindDevCtrl:
		dc := msg.Payload.(wire.DevCtrl)
		c.dev.DevCtrlUpdate(uint32(dc.Flags))
	case wire.KindSync:
		// timestamp-only barrier, handled by the transport itself.
	default:
		c.log.Printf("poll_h2d: unsupported kind=%d", msg.Kind)
	}

	c.transport.H2DDone(msg)
	c.transport.H2DNext()

	return true
}

func (c *Channel) h2dRead(now uint64, req wire.ReadReq) {
	dst := make([]byte, req.Len)
	c.dev.RegRead(req.BAR, req.Offset, dst, req.Len)

	slot := c.D2HAlloc(now)
	slot.Fill(wire.KindReadComp, wire.ReadComp{ReqID: req.ReqID, Data: dst})
	slot.Publish()
}

func (c *Channel) h2dWrite(now uint64, req wire.WriteReq) {
	c.dev.RegWrite(req.BAR, req.Offset, req.Data, uint32(len(req.Data)))

	slot := c.D2HAlloc(now)
	slot.Fill(wire.KindWriteComp, wire.WriteComp{ReqID: req.ReqID})
	slot.Publish()
}

// PollN2D drains at most one N2D message and dispatches it.
func (c *Channel) PollN2D(now uint64) bool {
	msg, ok := c.transport.N2DPoll(now)
	if !ok {
		return false
	}

	switch msg.Kind {
	case wire.KindRecv:
		frame := msg.Payload.(wire.EthFrame)
		c.dev.EthRx(frame.Port, frame.Data)
	case wire.KindSync:
		// no-op
	default:
		c.log.Printf("poll_n2d: unsupported kind=%d", msg.Kind)
	}

	c.transport.N2DDone(msg)
	c.transport.N2DNext()

	return true
}

// EthSend allocates a D2N send slot and publishes data on the single
// network port this model exposes (spec §4.3, wire.EthPort).
func (c *Channel) EthSend(now uint64, data []byte) {
	slot := c.D2NAlloc(now)
	slot.Fill(wire.KindSend, wire.EthFrame{Port: wire.EthPort, Data: data})
	slot.Publish()
}

// MSIIssue allocates a D2H interrupt slot and publishes an MSI interrupt
// for vector. Independent of dma_pending -- MSI/MSI-X never touch the DMA
// counters.
func (c *Channel) MSIIssue(now uint64, vector uint8) {
	c.issueInterrupt(now, vector, wire.InterruptMSI)
}

// MSIXIssue is MSIIssue's MSI-X counterpart.
func (c *Channel) MSIXIssue(now uint64, vector uint8) {
	c.issueInterrupt(now, vector, wire.InterruptMSIX)
}

func (c *Channel) issueInterrupt(now uint64, vector uint8, kind wire.InterruptType) {
	slot := c.D2HAlloc(now)
	slot.Fill(wire.KindInterrupt, wire.Interrupt{Vector: vector, Type: kind})
	slot.Publish()
}
