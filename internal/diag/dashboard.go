package diag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"runtime/pprof"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/syifan/goseth"

	"github.com/gkorepanov/mipt-mips/timing/bpu"
	"github.com/gkorepanov/mipt-mips/timing/rf"
	"github.com/gkorepanov/mipt-mips/timing/sim"
)

// Dashboard is an HTTP introspection server over a running Simulator, the
// teacher's own monitoring.Monitor adapted from akita component/buffer
// introspection to this simulator's BPU/register-file/statistics state.
type Dashboard struct {
	bpu *bpu.BPU
	rf  *rf.RegFile
	sim *sim.Simulator

	listener net.Listener
}

// NewDashboard builds a Dashboard over the given live simulator state. None
// of b, regs, or s may be nil.
func NewDashboard(b *bpu.BPU, regs *rf.RegFile, s *sim.Simulator) *Dashboard {
	return &Dashboard{bpu: b, rf: regs, sim: s}
}

// ListenAndServe binds addr (host:port, port 0 for an ephemeral one) and
// serves in the background, returning the address actually bound.
func (d *Dashboard) ListenAndServe(addr string) (string, error) {
	r := mux.NewRouter()
	r.HandleFunc("/api/bpu", d.serveBPU)
	r.HandleFunc("/api/registers", d.serveRegisters)
	r.HandleFunc("/api/stats", d.serveStats)
	r.HandleFunc("/api/resource", d.serveResources)
	r.HandleFunc("/api/profile", d.serveProfile)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("diag: dashboard: %w", err)
	}
	d.listener = listener

	go http.Serve(listener, r) //nolint:errcheck // Close() below ends the goroutine.

	return listener.Addr().String(), nil
}

// Close stops the dashboard's listener. Safe to call on a Dashboard that
// was never started.
func (d *Dashboard) Close() error {
	if d.listener == nil {
		return nil
	}
	return d.listener.Close()
}

func (d *Dashboard) serveBPU(w http.ResponseWriter, _ *http.Request) {
	serializer := goseth.NewSerializer()
	serializer.SetRoot(d.bpu)
	serializer.SetMaxDepth(2)
	if err := serializer.Serialize(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (d *Dashboard) serveRegisters(w http.ResponseWriter, _ *http.Request) {
	serializer := goseth.NewSerializer()
	serializer.SetRoot(d.rf)
	serializer.SetMaxDepth(1)
	if err := serializer.Serialize(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (d *Dashboard) serveStats(w http.ResponseWriter, _ *http.Request) {
	body, err := json.Marshal(d.sim.Statistics())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(body) //nolint:errcheck
}

func (d *Dashboard) serveResources(w http.ResponseWriter, _ *http.Request) {
	resources, err := CollectResources()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(resources)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(body) //nolint:errcheck
}

// serveProfile samples a one-second CPU profile and returns it as JSON, the
// teacher's own collectProfile handler with its panics turned into HTTP 500s.
func (d *Dashboard) serveProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	body, err := json.Marshal(prof)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(body) //nolint:errcheck
}
