package vm

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/metrics"
	"github.com/ValentinKolb/eKV/rpc/transport"
	vmetrics "github.com/VictoriaMetrics/metrics"
)

// Exporter implements metrics.IExporter on a private VictoriaMetrics set.
// Counters are looked up once at construction, so the hot path is a single
// atomic add.
type Exporter struct {
	set         *vmetrics.Set
	commands    []*vmetrics.Counter // indexed by common.CommandType
	opened      *vmetrics.Counter
	closed      map[transport.CloseReason]*vmetrics.Counter
	expired     *vmetrics.Counter
	connections atomic.Int64
	keys        atomic.Int64
}

// New creates an exporter whose metric names start with prefix (e.g. "ekv")
func New(prefix string) *Exporter {
	e := &Exporter{
		set:    vmetrics.NewSet(),
		closed: make(map[transport.CloseReason]*vmetrics.Counter),
	}

	e.commands = make([]*vmetrics.Counter, len(common.Commands())+1)
	e.commands[common.CmdUnknown] = e.set.NewCounter(fmt.Sprintf(`%s_commands_total{command="unknown"}`, prefix))
	for _, cmd := range common.Commands() {
		e.commands[cmd] = e.set.NewCounter(fmt.Sprintf(`%s_commands_total{command=%q}`, prefix, cmd.Name()))
	}

	for r := transport.CloseEOF; r <= transport.CloseShutdown; r++ {
		e.closed[r] = e.set.NewCounter(fmt.Sprintf(`%s_connections_closed_total{reason=%q}`, prefix, r.String()))
	}
	e.opened = e.set.NewCounter(prefix + "_connections_opened_total")
	e.expired = e.set.NewCounter(prefix + "_keys_expired_total")

	e.set.NewGauge(prefix+"_connections", func() float64 { return float64(e.connections.Load()) })
	e.set.NewGauge(prefix+"_keys", func() float64 { return float64(e.keys.Load()) })
	return e
}

func (e *Exporter) Command(cmd common.CommandType) {
	if int(cmd) >= len(e.commands) {
		cmd = common.CmdUnknown
	}
	e.commands[cmd].Inc()
}

func (e *Exporter) ConnOpened() {
	e.opened.Inc()
	e.connections.Add(1)
}

func (e *Exporter) ConnClosed(reason transport.CloseReason) {
	if c, ok := e.closed[reason]; ok {
		c.Inc()
	}
	e.connections.Add(-1)
}

func (e *Exporter) Expired(n int) {
	if n > 0 {
		e.expired.Add(n)
	}
}

func (e *Exporter) KeySpace(n int) { e.keys.Store(int64(n)) }

// Handler writes the set and the process metrics in Prometheus text format
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		e.set.WritePrometheus(w)
		vmetrics.WriteProcessMetrics(w)
	})
}

var _ metrics.IExporter = (*Exporter)(nil)
