// Command nicrun is the process entry point: it wires config -> transport
// -> device -> runtime.Runner exactly as spec §4.4's Startup sequence
// describes. The shared-memory transport and the concrete NIC device model
// are both external collaborators (spec §1 Non-goals) that a real
// deployment supplies in place of the nullTransport/demoDevice stand-ins
// below -- this file is the composition root a concrete NIC model's own
// main package is expected to copy and adapt, the same way the source's
// corundum_bm built its own main around nicbm::Runner.
package main

import (
	"log"
	"os"

	"github.com/nicbmcore/nicbm/calendar"
	"github.com/nicbmcore/nicbm/channel"
	"github.com/nicbmcore/nicbm/config"
	"github.com/nicbmcore/nicbm/device"
	"github.com/nicbmcore/nicbm/dma"
	"github.com/nicbmcore/nicbm/macaddr"
	"github.com/nicbmcore/nicbm/monitor"
	"github.com/nicbmcore/nicbm/record"
	"github.com/nicbmcore/nicbm/runtime"
	"github.com/nicbmcore/nicbm/transport"
	"github.com/nicbmcore/nicbm/wire"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Parse(args, ".env")
	if err != nil {
		log.Print(err)
		return 1
	}

	logger := log.New(os.Stderr, "nicbm: ", log.LstdFlags)

	dev := newDemoDevice(macaddr.Generate())
	tr := newNullTransport()

	ch := channel.New(tr, dev, logger)
	pipeline := dma.New(ch, dev, logger)
	ch.SetDMA(pipeline)

	cal := calendar.New()
	runner := runtime.New(tr, ch, cal, dev, logger)

	var hooks []runtime.Hooks

	if cfg.RecordPath != "" {
		rec, err := record.New(cfg.RecordPath)
		if err != nil {
			log.Print(err)
			return 1
		}

		defer rec.Close()
		hooks = append(hooks, rec)
	}

	if cfg.Monitor {
		mon := monitor.New(cfg.MonitorPort)
		if err := mon.Start(cfg.OpenBrowser); err != nil {
			log.Print(err)
			return 1
		}

		hooks = append(hooks, mon)
	}

	if len(hooks) > 0 {
		combined := runtime.CombineHooks(hooks...)
		runner.SetHooks(combined)
		pipeline.SetObserver(combined)
	}

	if err := runner.Start(cfg.Params); err != nil {
		log.Print(err)
		return 1
	}

	runner.Run()

	return 0
}

// demoDevice is a minimal device.Device that answers register reads with
// zero bytes and otherwise does nothing -- enough to exercise the wiring
// above without a concrete NIC model plugged in.
type demoDevice struct {
	*device.Base

	mac macaddr.Addr
}

func newDemoDevice(mac macaddr.Addr) *demoDevice {
	return &demoDevice{Base: &device.Base{}, mac: mac}
}

func (d *demoDevice) SetupIntro(intro *transport.Intro) {
	intro.D2HSlotLen = 4096
	intro.H2DSlotLen = 4096
}

func (d *demoDevice) RegRead(_ int, _ uint64, dst []byte, _ uint32) {
	for i := range dst {
		dst[i] = 0
	}
}

func (d *demoDevice) RegWrite(_ int, _ uint64, _ []byte, _ uint32) {}

func (d *demoDevice) DMAComplete(_ any) {}

func (d *demoDevice) EthRx(_ int, _ []byte) {}

// nullTransport is a stand-in for the shared-memory transport library
// (spec §6.2, non-goal to implement here): every inbound poll reports
// nothing and every outbound alloc always succeeds, so the loop idles at
// max_step per iteration until a signal arrives.
type nullTransport struct{}

func newNullTransport() *nullTransport { return &nullTransport{} }

func (*nullTransport) Init(transport.Params, transport.Intro) error { return nil }
func (*nullTransport) H2DPoll(uint64) (transport.InboundMsg, bool)  { return transport.InboundMsg{}, false }
func (*nullTransport) H2DDone(transport.InboundMsg)                 {}
func (*nullTransport) H2DNext()                                     {}
func (*nullTransport) N2DPoll(uint64) (transport.InboundMsg, bool)  { return transport.InboundMsg{}, false }
func (*nullTransport) N2DDone(transport.InboundMsg)                 {}
func (*nullTransport) N2DNext()                                     {}
func (*nullTransport) D2HAlloc(uint64) (transport.Slot, bool)       { return &nullSlot{}, true }
func (*nullTransport) D2NAlloc(uint64) (transport.Slot, bool)       { return &nullSlot{}, true }
func (*nullTransport) Sync(uint64) bool                             { return true }
func (*nullTransport) AdvanceEpoch(uint64)                          {}
func (*nullTransport) NextTimestamp() uint64                        { return 1<<63 - 1 }
func (*nullTransport) AdvanceTime(target uint64) uint64             { return target }
func (*nullTransport) Cleanup()                                     {}

type nullSlot struct{}

func (*nullSlot) Fill(_ wire.Kind, _ any) {}
func (*nullSlot) Publish()                {}
