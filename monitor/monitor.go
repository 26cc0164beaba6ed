// Package monitor implements live HTTP introspection (C10): a small status
// and profiling endpoint a developer can point a browser at while a run is
// in progress. It mirrors monitoring.Monitor's role in the teacher repo,
// trimmed to the fixed counters this harness actually has (now, dma_pending,
// calendar depth, interrupt enables) instead of the teacher's generic
// arbitrary-component reflection endpoint.
package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	// Registers /debug/pprof/* on the default mux, exactly as the teacher
	// does.
	_ "net/http/pprof"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
)

// Snapshot is the point-in-time state exposed over /api/state.
type Snapshot struct {
	Now         uint64 `json:"now"`
	DMAPending  int    `json:"dma_pending"`
	DMADeferred int    `json:"dma_deferred"`
	CalendarLen int    `json:"calendar_len"`
	IntxEnabled bool   `json:"intx_enabled"`
	MSIEnabled  bool   `json:"msi_enabled"`
	MSIXEnabled bool   `json:"msix_enabled"`
}

// Server is the C10 contract: a live, read-only introspection endpoint the
// runtime's hooks refresh once per outer iteration.
type Server struct {
	portNumber int

	mu   sync.Mutex
	snap Snapshot
	addr string
}

// New creates a Server that will listen on portNumber, or a random port if
// portNumber is zero or below 1000 (matching the teacher's own guard
// against well-known ports).
func New(portNumber int) *Server {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"monitor: port %d is not allowed, using a random port instead\n", portNumber)
		portNumber = 0
	}

	return &Server{portNumber: portNumber}
}

// Addr returns the listener's address once Start has bound it, or "" before
// that. Mainly useful for tests, which ask for port 0 and need to discover
// what the kernel actually assigned.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addr
}

// Update replaces the current snapshot. Safe to call from the runtime's
// single logical thread; the HTTP handlers read it under lock since they
// run on their own goroutine.
func (s *Server) Update(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = snap
}

// EventFired implements runtime.Hooks. The snapshot only tracks counters,
// not individual events, so this just keeps Now current.
func (s *Server) EventFired(now uint64) {
	s.mu.Lock()
	s.snap.Now = now
	s.mu.Unlock()
}

// MessageDispatched implements runtime.Hooks.
func (s *Server) MessageDispatched(now uint64, _ bool) {
	s.mu.Lock()
	s.snap.Now = now
	s.mu.Unlock()
}

// DMAPendingChanged implements runtime.Hooks.
func (s *Server) DMAPendingChanged(now uint64, pending int) {
	s.mu.Lock()
	s.snap.Now = now
	s.snap.DMAPending = pending
	s.mu.Unlock()
}

// Tick implements runtime.Hooks, refreshing Now once per outer iteration --
// the /api/state route always reflects at least the last completed tick.
func (s *Server) Tick(now uint64) {
	s.mu.Lock()
	s.snap.Now = now
	s.mu.Unlock()
}

// Start launches the HTTP server in the background and returns immediately.
// If openBrowser is true, it also opens the status page in the default
// browser once the listener is bound.
func (s *Server) Start(openBrowser bool) error {
	r := mux.NewRouter()
	r.HandleFunc("/api/now", s.now)
	r.HandleFunc("/api/state", s.state)
	r.HandleFunc("/api/resource", s.resource)
	r.HandleFunc("/api/profile", s.collectProfile)
	http.Handle("/", r)

	addr := ":0"
	if s.portNumber >= 1000 {
		addr = ":" + strconv.Itoa(s.portNumber)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://localhost:%d", listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "monitoring simulation with %s\n", url)

	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	go func() {
		_ = http.Serve(listener, nil)
	}()

	if openBrowser {
		_ = browser.OpenURL(url)
	}

	return nil
}

func (s *Server) now(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	now := s.snap.Now
	s.mu.Unlock()

	fmt.Fprintf(w, `{"now":%d}`, now)
}

func (s *Server) state(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	snap := s.snap
	s.mu.Unlock()

	enc, err := json.Marshal(snap)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_, _ = w.Write(enc)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (s *Server) resource(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	enc, err := json.Marshal(resourceRsp{CPUPercent: cpuPercent, MemorySize: memInfo.RSS})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_, _ = w.Write(enc)
}

// collectProfile mirrors the teacher's /api/profile endpoint, returning a
// pprof-format CPU profile decoded through google/pprof/profile so callers
// can inspect it as JSON rather than a raw protobuf blob.
func (s *Server) collectProfile(w http.ResponseWriter, r *http.Request) {
	seconds := 1
	if v := r.URL.Query().Get("seconds"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			seconds = n
		}
	}

	prof, err := collectCPUProfile(seconds)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	enc, err := json.Marshal(prof)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_, _ = w.Write(enc)
}

// collectCPUProfile is split out from collectProfile so it can be exercised
// without the HTTP plumbing.
func collectCPUProfile(seconds int) (*profile.Profile, error) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		return nil, err
	}

	time.Sleep(time.Duration(seconds) * time.Second)
	pprof.StopCPUProfile()

	return profile.ParseData(buf.Bytes())
}
