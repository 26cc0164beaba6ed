// Package transport declares the contract the runtime consumes from the
// shared-memory transport library (spec §6.2). The transport itself --
// mapping the H2D/D2H/N2D/D2N rings into shared memory and enforcing the
// ownership-bit protocol between processes -- is an external collaborator
// and out of scope here (spec §1 Non-goals); this package only names the
// interface the core calls into.
package transport

import "github.com/nicbmcore/nicbm/wire"

// Slot is a handle to one outbound ring entry. Fill mutates the not-yet-
// published slot; Publish sets the ownership+kind byte that releases the
// slot to the peer. A Slot must not be touched after Publish.
type Slot interface {
	// Fill writes the message kind and payload into the slot.
	Fill(kind wire.Kind, payload any)

	// Publish transfers ownership of the slot to the peer. This is the
	// release step; no further writes are permitted afterward.
	Publish()
}

// InboundMsg is one message read back from an inbound ring by Poll.
type InboundMsg struct {
	Kind    wire.Kind
	Payload any
}

// SyncMode selects how the runtime's logical clock stays causally
// consistent with its two peers.
type SyncMode int

// The two sync modes spec §6.3 allows on the command line.
const (
	SyncModes  SyncMode = iota // SYNC_MODES: both channels synchronized independently
	SyncBarrier                // SYNC_BARRIER: a single barrier covers both channels
)

// Params are the parameters the command line (spec §6.3) and/or a .env file
// populate before Init.
type Params struct {
	PCISocketPath string
	EthSocketPath string
	ShmPath       string
	SyncMode      SyncMode
	StartTick     uint64
	SyncPeriod    uint64 // picoseconds
	PCILatency    uint64 // picoseconds
	EthLatency    uint64 // picoseconds
}

// Intro is what the device declares about itself at startup (BAR sizes,
// slot sizes, capability flags) via device.Device.SetupIntro.
type Intro struct {
	BARSizes  [6]uint64
	D2HSlotLen uint64
	H2DSlotLen uint64
	Flags      uint32
}

// Transport is the interface the shared-memory transport library must
// satisfy, per spec §6.2.
type Transport interface {
	// Init establishes the shared-memory rings described by intro and
	// connects to the two peer simulators named in params.
	Init(params Params, intro Intro) error

	// H2DPoll returns the next unconsumed host-to-device message, if any is
	// ready at or before now. H2DDone/H2DNext release the ring slot --
	// H2DDone after the message has been fully consumed, H2DNext to advance
	// the ring cursor regardless.
	H2DPoll(now uint64) (InboundMsg, bool)
	H2DDone(msg InboundMsg)
	H2DNext()

	// N2DPoll is H2DPoll's network-facing counterpart.
	N2DPoll(now uint64) (InboundMsg, bool)
	N2DDone(msg InboundMsg)
	N2DNext()

	// D2HAlloc and D2NAlloc reserve one outbound slot, or report none free.
	// The caller (channel.Channel) is responsible for the retry loop; these
	// calls never block.
	D2HAlloc(now uint64) (Slot, bool)
	D2NAlloc(now uint64) (Slot, bool)

	// Sync reports whether the peers have advanced far enough for the
	// runtime to proceed; false means the caller must retry.
	Sync(now uint64) bool

	// AdvanceEpoch marks a synchronization checkpoint at now.
	AdvanceEpoch(now uint64)

	// NextTimestamp is the earliest time a peer promises not to send a
	// message before.
	NextTimestamp() uint64

	// AdvanceTime requests advancing the clock to target and returns the
	// actual new time, which may be smaller if the transport forces a
	// smaller step.
	AdvanceTime(target uint64) uint64

	// Cleanup releases transport resources. Called exactly once, on
	// shutdown.
	Cleanup()
}
