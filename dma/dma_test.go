package dma_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nicbmcore/nicbm/dma"
	"github.com/nicbmcore/nicbm/transport"
	"github.com/nicbmcore/nicbm/wire"
)

type fakeSlot struct {
	kind    wire.Kind
	payload any
	sent    *[]fakeSlot
}

func (s *fakeSlot) Fill(kind wire.Kind, payload any) {
	s.kind = kind
	s.payload = payload
}

func (s *fakeSlot) Publish() {
	*s.sent = append(*s.sent, *s)
}

type fakeOutbound struct {
	d2hElen uint64
	h2dElen uint64
	sent    []fakeSlot
}

func newFakeOutbound() *fakeOutbound {
	return &fakeOutbound{d2hElen: 4096, h2dElen: 4096}
}

func (f *fakeOutbound) D2HAlloc(_ uint64) transport.Slot {
	return &fakeSlot{sent: &f.sent}
}

func (f *fakeOutbound) D2HElen() uint64 { return f.d2hElen }
func (f *fakeOutbound) H2DElen() uint64 { return f.h2dElen }

type fakeDevice struct {
	completed []*dma.DMAOp
}

func (d *fakeDevice) SetupIntro(*transport.Intro)                  {}
func (d *fakeDevice) RegRead(int, uint64, []byte, uint32)          {}
func (d *fakeDevice) RegWrite(int, uint64, []byte, uint32)         {}
func (d *fakeDevice) EthRx(int, []byte)                            {}
func (d *fakeDevice) TimedEvent(any)                               {}
func (d *fakeDevice) DevCtrlUpdate(uint32)                         {}
func (d *fakeDevice) DMAComplete(op any) {
	d.completed = append(d.completed, op.(*dma.DMAOp))
}

var _ = Describe("Pipeline", func() {
	var (
		out *fakeOutbound
		dev *fakeDevice
		p   *dma.Pipeline
	)

	BeforeEach(func() {
		out = newFakeOutbound()
		dev = &fakeDevice{}
		p = dma.New(out, dev, nil)
	})

	It("issues immediately while under the pending cap", func() {
		op := &dma.DMAOp{Write: true, Addr: 0x1000, Buffer: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
		p.Issue(0, op)

		Expect(p.Pending()).To(Equal(1))
		Expect(out.sent).To(HaveLen(1))
		Expect(op.State()).To(Equal(dma.StateInFlight))
	})

	It("defers once the pending cap is reached (S2)", func() {
		// Scenario S2: 65 writes of 8 bytes each in one callback.
		ops := make([]*dma.DMAOp, 65)
		for i := range ops {
			ops[i] = &dma.DMAOp{Write: true, Addr: uint64(i) * 8, Buffer: make([]byte, 8)}
			p.Issue(0, ops[i])
		}

		Expect(out.sent).To(HaveLen(dma.MaxPending))
		Expect(p.Pending()).To(Equal(dma.MaxPending))
		Expect(p.DeferredLen()).To(Equal(1))
		Expect(ops[64].State()).To(Equal(dma.StateDeferred))

		ticket := out.sent[0].payload.(wire.DMAWrite).ReqID
		p.OnComplete(1, ticket, nil, true)

		Expect(p.Pending()).To(Equal(dma.MaxPending))
		Expect(p.DeferredLen()).To(Equal(0))
		Expect(out.sent).To(HaveLen(dma.MaxPending + 1))
		Expect(ops[64].State()).To(Equal(dma.StateInFlight))
	})

	It("copies the readcomp payload into the caller's buffer (S3)", func() {
		buf := make([]byte, 16)
		op := &dma.DMAOp{Write: false, Addr: 0x2000, Len: 16, Buffer: buf}
		p.Issue(0, op)

		ticket := out.sent[0].payload.(wire.DMARead).ReqID
		payload := make([]byte, 16)
		for i := range payload {
			payload[i] = byte(i)
		}

		p.OnComplete(1, ticket, payload, false)

		Expect(buf).To(Equal(payload))
		Expect(dev.completed).To(ConsistOf(op))
		Expect(op.State()).To(Equal(dma.StateCompleted))
		Expect(p.Pending()).To(Equal(0))
	})

	It("reports every dma_pending transition to an attached observer", func() {
		var seen []int
		p.SetObserver(observerFunc(func(_ uint64, pending int) {
			seen = append(seen, pending)
		}))

		op := &dma.DMAOp{Write: true, Addr: 0x1000, Buffer: []byte{1, 2, 3, 4}}
		p.Issue(0, op)

		ticket := out.sent[0].payload.(wire.DMAWrite).ReqID
		p.OnComplete(1, ticket, nil, true)

		Expect(seen).To(Equal([]int{1, 0}))
	})

})

type observerFunc func(now uint64, pending int)

func (f observerFunc) DMAPendingChanged(now uint64, pending int) { f(now, pending) }
