// Package wire defines the Go-side vocabulary the core exchanges with the
// shared-memory transport: message kinds and the request/completion payload
// shapes the core fills in or reads back. The actual byte-for-byte slot
// layout, ring sizing, and ownership-bit protocol belong to the transport
// library (spec §6.5); this package only names what the core needs to call
// transport.Transport with.
package wire

// Kind identifies the message carried by a H2D, D2H, N2D, or D2N slot. The
// low bits of a slot's trailing ownership+kind byte, per spec §6.5.
type Kind uint8

// H2D/D2H message kinds.
const (
	KindRead Kind = iota + 1
	KindWrite
	KindReadComp
	KindWriteComp
	KindInterrupt
	KindDevCtrl
	KindSync
)

// N2D/D2N message kinds.
const (
	KindRecv Kind = iota + 64
	KindSend
)

// InterruptType distinguishes the interrupt mechanism of a KindInterrupt
// slot.
type InterruptType uint8

// Interrupt mechanisms a device may raise.
const (
	InterruptMSI InterruptType = iota
	InterruptMSIX
	InterruptINTx
)

// DevCtrlFlags is the interrupt-enable bitmask carried by a DEVCTRL message.
type DevCtrlFlags uint32

// Bits of DevCtrlFlags.
const (
	CtrlINTxEnable DevCtrlFlags = 1 << 0
	CtrlMSIEnable  DevCtrlFlags = 1 << 1
	CtrlMSIXEnable DevCtrlFlags = 1 << 2
)

// EthPort is the single port a device's D2N frames are always sent on; this
// model never exposes more than one Ethernet port, matching the source's
// "single port" eth_send.
const EthPort = 0

// HeaderLen is the fixed per-message header overhead (request id, address,
// length, kind byte) that a DMA payload must fit alongside within a slot's
// negotiated size. The exact byte layout belongs to the transport (spec
// §6.5); this is the accounting figure dma.Pipeline needs to reproduce the
// source's size-fit check without knowing that layout.
const HeaderLen = 16

// ReadReq is the payload of an inbound H2D READ message.
type ReadReq struct {
	ReqID  uint64
	BAR    int
	Offset uint64
	Len    uint32
}

// WriteReq is the payload of an inbound H2D WRITE message.
type WriteReq struct {
	ReqID  uint64
	BAR    int
	Offset uint64
	Data   []byte
}

// ReadComp is the payload of an outbound D2H READCOMP message, or an inbound
// H2D READCOMP completing a DMA read.
type ReadComp struct {
	ReqID uint64
	Data  []byte
}

// WriteComp is the payload of an outbound D2H WRITECOMP message, or an
// inbound H2D WRITECOMP completing a DMA write.
type WriteComp struct {
	ReqID uint64
}

// DMARead is the payload of an outbound D2H READ message (a device-issued
// DMA read request).
type DMARead struct {
	ReqID  uint64
	Addr   uint64
	Len    uint32
}

// DMAWrite is the payload of an outbound D2H WRITE message (a device-issued
// DMA write request).
type DMAWrite struct {
	ReqID uint64
	Addr  uint64
	Data  []byte
}

// Interrupt is the payload of an outbound D2H INTERRUPT message.
type Interrupt struct {
	Vector uint8
	Type   InterruptType
}

// DevCtrl is the payload of an inbound H2D DEVCTRL message.
type DevCtrl struct {
	Flags DevCtrlFlags
}

// EthFrame is the payload of an inbound N2D RECV message or an outbound D2N
// SEND message.
type EthFrame struct {
	Port int
	Data []byte
}
