// Package metrics defines the hooks the server reports its activity through.
//
// NoopMetrics is used when no backend is configured. The subpackages provide
// exporters:
//
//   - vm: github.com/VictoriaMetrics/metrics, lightweight text exposition
//   - prom: github.com/prometheus/client_golang with its own registry
//
// Both implement IExporter and can be mounted at /metrics by the serve command.
package metrics
