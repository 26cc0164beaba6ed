// Package runtime implements the time loop (C4): the master driver that
// synchronizes with the two peer simulators, advances the logical clock,
// drains inbound traffic, fires due calendar events, and computes the next
// target timestamp.
package runtime

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"

	"github.com/nicbmcore/nicbm/calendar"
	"github.com/nicbmcore/nicbm/channel"
	"github.com/nicbmcore/nicbm/device"
	"github.com/nicbmcore/nicbm/transport"
)

// MaxStep is the largest advance the loop makes in one outer iteration when
// nothing forces a smaller one (spec §4.4).
const MaxStep uint64 = 10000

// Hooks lets optional ambient collaborators (recording, live introspection)
// observe the loop without the loop depending on their concrete types. A
// nil Hooks is equivalent to every method being a no-op; Runner treats it
// as such via noopHooks.
type Hooks interface {
	EventFired(now uint64)
	MessageDispatched(now uint64, inbound bool)
	DMAPendingChanged(now uint64, pending int)
	Tick(now uint64)
}

type noopHooks struct{}

func (noopHooks) EventFired(uint64)             {}
func (noopHooks) MessageDispatched(uint64, bool) {}
func (noopHooks) DMAPendingChanged(uint64, int)  {}
func (noopHooks) Tick(uint64)                    {}

// Runner is the C4 contract: the outermost loop of the simulator.
type Runner struct {
	transport transport.Transport
	channel   *channel.Channel
	cal       *calendar.Calendar
	dev       device.Device
	hooks     Hooks
	log       *log.Logger

	now     atomic.Uint64
	syncOn  bool
	exiting atomic.Bool
	sigCh   chan os.Signal
}

// New creates a Runner. cal is the event calendar the device schedules
// TimedEvents on; ch is the channel the device's poll/dispatch traffic
// flows through.
func New(
	t transport.Transport,
	ch *channel.Channel,
	cal *calendar.Calendar,
	dev device.Device,
	logger *log.Logger,
) *Runner {
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		transport: t,
		channel:   ch,
		cal:       cal,
		dev:       dev,
		hooks:     noopHooks{},
		log:       logger,
	}
}

// SetHooks attaches an optional observer (record.Recorder, monitor.Server)
// to the loop. Passing nil restores the no-op default.
func (r *Runner) SetHooks(h Hooks) {
	if h == nil {
		h = noopHooks{}
	}

	r.hooks = h
}

// multiHooks fans a single call out to every attached Hooks, in order.
type multiHooks []Hooks

func (m multiHooks) EventFired(now uint64) {
	for _, h := range m {
		h.EventFired(now)
	}
}

func (m multiHooks) MessageDispatched(now uint64, inbound bool) {
	for _, h := range m {
		h.MessageDispatched(now, inbound)
	}
}

func (m multiHooks) DMAPendingChanged(now uint64, pending int) {
	for _, h := range m {
		h.DMAPendingChanged(now, pending)
	}
}

func (m multiHooks) Tick(now uint64) {
	for _, h := range m {
		h.Tick(now)
	}
}

// CombineHooks lets a caller attach more than one ambient collaborator
// (e.g. both record.Recorder and monitor.Server) at once. nil entries are
// dropped; an empty result behaves like a no-op Hooks.
func CombineHooks(hooks ...Hooks) Hooks {
	out := make(multiHooks, 0, len(hooks))

	for _, h := range hooks {
		if h != nil {
			out = append(out, h)
		}
	}

	return out
}

// Now returns the runtime's current logical time. Safe to call from any
// goroutine.
func (r *Runner) Now() uint64 { return r.now.Load() }

// Scheduler is the capability a device needs to place and withdraw its own
// TimedEvents (spec §4.2's event_schedule/event_cancel). A concrete device
// is expected to hold the Runner it was bound to (typically handed to the
// device's own constructor after New, mirroring nicbm.cc's Device::runner_)
// and call through this narrower interface rather than depend on *Runner
// directly.
type Scheduler interface {
	Schedule(time uint64, payload any) *calendar.Event
	Cancel(e *calendar.Event)
}

// Schedule places payload on the calendar at time; when it fires, the
// device's TimedEvent is invoked with payload. The returned handle is only
// valid until it fires or is canceled.
func (r *Runner) Schedule(time uint64, payload any) *calendar.Event {
	return r.cal.Schedule(calendar.Event{
		Time: time,
		Handler: func(e calendar.Event) {
			r.dev.TimedEvent(e.Payload)
		},
		Payload: payload,
	})
}

// Cancel withdraws a previously scheduled event. Canceling an event that
// has already fired, or canceling the same handle twice, is a no-op.
func (r *Runner) Cancel(e *calendar.Event) {
	r.cal.Cancel(e)
}

// Start runs the startup sequence of spec §4.4: install the SIGINT/SIGUSR1
// handlers, zero the device-introspection structure, let the device
// declare its BAR/slot layout, and initialize the transport. It must be
// called before Run.
func (r *Runner) Start(params transport.Params) error {
	r.sigCh = make(chan os.Signal, 1)
	signal.Notify(r.sigCh, syscall.SIGINT, syscall.SIGUSR1)

	go r.handleSignals()

	r.now.Store(params.StartTick)
	r.syncOn = true // both PCI and Ethernet channels are always synchronized

	var intro transport.Intro
	r.dev.SetupIntro(&intro)
	r.channel.SetSlotLimits(intro.D2HSlotLen, intro.H2DSlotLen)

	return r.transport.Init(params, intro)
}

// handleSignals runs on its own goroutine (signal.Notify's channel).
func (r *Runner) handleSignals() {
	for sig := range r.sigCh {
		switch sig {
		case syscall.SIGINT:
			r.exiting.Store(true)
		case syscall.SIGUSR1:
			os.Stderr.WriteString("main_time = " + strconv.FormatUint(r.now.Load(), 10) + "\n")
		}
	}
}

// Run executes the outer loop (spec §4.4) until the exit flag is set.
// Cleanup is always called before returning, whether the loop exits
// normally or the exit flag was observed.
func (r *Runner) Run() {
	defer r.transport.Cleanup()

	for !r.exiting.Load() {
		r.syncIteration()
	}

	r.log.Printf("exit main_time: %d", r.now.Load())
}

func (r *Runner) syncIteration() {
	now := r.now.Load()

	for !r.transport.Sync(now) {
		r.log.Printf("warn: sync failed (t=%d)", now)
	}

	r.transport.AdvanceEpoch(now)

	var nextTS uint64

	for {
		if r.channel.PollH2D(now) {
			r.hooks.MessageDispatched(now, true)
		}

		if r.channel.PollN2D(now) {
			r.hooks.MessageDispatched(now, false)
		}

		if e, ok := r.cal.PopDue(now); ok {
			e.Handler(*e)
			r.hooks.EventFired(now)
		}

		nextTS = now + MaxStep
		if r.syncOn {
			if clamp := r.transport.NextTimestamp(); clamp < nextTS {
				nextTS = clamp
			}
		}

		if ev, ok := r.cal.Peek(); ok && ev.Time < nextTS {
			nextTS = ev.Time
		}

		if nextTS > now || r.exiting.Load() {
			break
		}
	}

	now = r.transport.AdvanceTime(nextTS)
	r.now.Store(now)
	r.hooks.Tick(now)
}
