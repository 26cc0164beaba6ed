package calendar_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nicbmcore/nicbm/calendar"
)

var _ = Describe("Calendar", func() {
	var cal *calendar.Calendar

	BeforeEach(func() {
		cal = calendar.New()
	})

	It("should start empty", func() {
		_, ok := cal.Peek()
		Expect(ok).To(BeFalse())
		Expect(cal.Len()).To(Equal(0))
	})

	It("should pop due events in non-decreasing time order", func() {
		// Scenario S4: events at {1000, 500, 1000}.
		var fired []uint64
		handler := func(e calendar.Event) { fired = append(fired, e.Time) }

		cal.Schedule(calendar.Event{Time: 1000, Handler: handler})
		cal.Schedule(calendar.Event{Time: 500, Handler: handler})
		cal.Schedule(calendar.Event{Time: 1000, Handler: handler})

		for {
			e, ok := cal.PopDue(1200)
			if !ok {
				break
			}

			e.Handler(*e)
		}

		Expect(fired).To(Equal([]uint64{500, 1000, 1000}))
	})

	It("should break same-time ties by insertion order", func() {
		var order []int

		first := cal.Schedule(calendar.Event{
			Time:    10,
			Payload: 1,
			Handler: func(calendar.Event) { order = append(order, 1) },
		})
		second := cal.Schedule(calendar.Event{
			Time:    10,
			Payload: 2,
			Handler: func(calendar.Event) { order = append(order, 2) },
		})

		Expect(first).NotTo(BeIdenticalTo(second))

		e, ok := cal.PopDue(10)
		Expect(ok).To(BeTrue())
		e.Handler(*e)

		e, ok = cal.PopDue(10)
		Expect(ok).To(BeTrue())
		e.Handler(*e)

		Expect(order).To(Equal([]int{1, 2}))
	})

	It("should not pop events scheduled in the future", func() {
		cal.Schedule(calendar.Event{Time: 500})

		_, ok := cal.PopDue(100)
		Expect(ok).To(BeFalse())
		Expect(cal.Len()).To(Equal(1))
	})

	It("should never fire a cancelled event", func() {
		fired := false
		e := cal.Schedule(calendar.Event{
			Time:    10,
			Handler: func(calendar.Event) { fired = true },
		})

		cal.Cancel(e)

		_, ok := cal.PopDue(10)
		Expect(ok).To(BeFalse())
		Expect(fired).To(BeFalse())
	})

	It("should treat cancelling an absent event as a no-op", func() {
		e := &calendar.Event{Time: 10}

		Expect(func() { cal.Cancel(e) }).NotTo(Panic())
	})

	It("should keep the heap consistent after interleaved cancel and pop", func() {
		a := cal.Schedule(calendar.Event{Time: 5})
		b := cal.Schedule(calendar.Event{Time: 3})
		cal.Schedule(calendar.Event{Time: 7})

		cal.Cancel(b)

		e, ok := cal.PopDue(100)
		Expect(ok).To(BeTrue())
		Expect(e).To(BeIdenticalTo(a))

		e, ok = cal.PopDue(100)
		Expect(ok).To(BeTrue())
		Expect(e.Time).To(Equal(uint64(7)))
	})
})
