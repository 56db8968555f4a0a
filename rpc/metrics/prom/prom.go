package prom

import (
	"net/http"

	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/metrics"
	"github.com/ValentinKolb/eKV/rpc/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Adapter implements metrics.IExporter and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	gatherer    prometheus.Gatherer
	commands    *prometheus.CounterVec
	opened      prometheus.Counter
	closed      *prometheus.CounterVec
	expired     prometheus.Counter
	connections prometheus.Gauge
	keys        prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg: registry to register metrics with (nil => a new private registry)
//   - ns:  Prometheus namespace
func New(reg *prometheus.Registry, ns string) *Adapter {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	a := &Adapter{
		gatherer: reg,
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "commands_total",
			Help:      "Handled requests by command",
		}, []string{"command"}),
		opened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "connections_opened_total",
			Help:      "Accepted connections",
		}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "connections_closed_total",
			Help:      "Closed connections by reason",
		}, []string{"reason"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "keys_expired_total",
			Help:      "Keys removed after their TTL passed",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "connections",
			Help:      "Open client connections",
		}),
		keys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "keys",
			Help:      "Number of live keys",
		}),
	}
	reg.MustRegister(a.commands, a.opened, a.closed, a.expired, a.connections, a.keys)
	return a
}

// Command increments the request counter of cmd.
func (a *Adapter) Command(cmd common.CommandType) {
	a.commands.WithLabelValues(cmd.Name()).Inc()
}

func (a *Adapter) ConnOpened() {
	a.opened.Inc()
	a.connections.Inc()
}

// ConnClosed increments the close counter with a reason label.
func (a *Adapter) ConnClosed(reason transport.CloseReason) {
	a.closed.WithLabelValues(reason.String()).Inc()
	a.connections.Dec()
}

func (a *Adapter) Expired(n int) {
	if n > 0 {
		a.expired.Add(float64(n))
	}
}

func (a *Adapter) KeySpace(n int) { a.keys.Set(float64(n)) }

// Handler serves the registry in the Prometheus exposition format
func (a *Adapter) Handler() http.Handler {
	return promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})
}

var _ metrics.IExporter = (*Adapter)(nil)
