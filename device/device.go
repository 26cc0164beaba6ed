// Package device declares the contract the runtime consumes from a device
// model (spec §6.1): register access, DMA completion, frame arrival, timed
// callbacks, and interrupt-enable updates. The core never implements a
// concrete device; it only calls into one.
package device

import "github.com/nicbmcore/nicbm/transport"

// Device is the interface a concrete NIC register/packet-processing model
// must satisfy. All methods are called from the runtime's single logical
// thread and must return promptly -- none may block or suspend.
type Device interface {
	// SetupIntro populates intro with BAR sizes, slot sizes, and capability
	// flags before transport.Init is called.
	SetupIntro(intro *transport.Intro)

	// RegRead and RegWrite service H2D register accesses synchronously.
	// RegRead writes len bytes into dst; RegWrite reads len bytes from src.
	RegRead(bar int, offset uint64, dst []byte, length uint32)
	RegWrite(bar int, offset uint64, src []byte, length uint32)

	// DMAComplete is invoked with the original DMAOp after a DMA the device
	// issued has finished -- reads have already had their buffer filled.
	DMAComplete(op any)

	// EthRx is invoked when a frame arrives on the named network port.
	EthRx(port int, data []byte)

	// TimedEvent is invoked when a calendar event scheduled by the device
	// fires. The default (Base) implementation does nothing.
	TimedEvent(payload any)

	// DevCtrlUpdate is invoked when the host updates the interrupt-enable
	// mask. The default (Base) implementation records the INTx/MSI/MSI-X
	// bits.
	DevCtrlUpdate(flags uint32)
}

// Flag bits of the mask passed to DevCtrlUpdate, mirroring wire.DevCtrlFlags
// without importing wire (devices should not need the wire vocabulary).
const (
	FlagINTxEnable uint32 = 1 << 0
	FlagMSIEnable  uint32 = 1 << 1
	FlagMSIXEnable uint32 = 1 << 2
)

// Base supplies the two defaults spec §6.1 gives TimedEvent and
// DevCtrlUpdate, so a concrete device only has to embed Base and implement
// the methods it actually cares about.
type Base struct {
	IntxEnabled bool
	MSIEnabled  bool
	MSIXEnabled bool
}

// TimedEvent is a no-op by default.
func (b *Base) TimedEvent(_ any) {}

// DevCtrlUpdate records the INTx/MSI/MSI-X enable bits of flags. A flag with
// no relevant bit set is recorded as disabled -- the mask is never sticky.
func (b *Base) DevCtrlUpdate(flags uint32) {
	b.IntxEnabled = flags&FlagINTxEnable != 0
	b.MSIEnabled = flags&FlagMSIEnable != 0
	b.MSIXEnabled = flags&FlagMSIXEnable != 0
}
