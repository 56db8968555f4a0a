package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	DefaultEndpoint          = "0.0.0.0:1234"
	DefaultIdleTimeoutMs     = 5000
	DefaultMaxMessageSize    = 1024
	DefaultMaxResponseSize   = 100000
	DefaultReadBufferSize    = 64 * 1024
	DefaultInitialBuckets    = 1024
	DefaultMaxLoadFactor     = 8
	DefaultRehashWork        = 128
	DefaultMaxExpirePerSweep = 2000
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

type MetricsKind string

const (
	MetricsNone       MetricsKind = "none"
	MetricsVM         MetricsKind = "vm"
	MetricsPrometheus MetricsKind = "prom"
)

// ServerConfig holds all configuration parameters of a server.
type ServerConfig struct {
	// Network
	Endpoint        string // host:port for tcp, a file path for unix sockets
	IdleTimeoutMs   uint64 // connections without activity for this long are closed
	MaxMessageSize  int    // largest accepted request payload
	MaxResponseSize int    // larger responses are replaced by a too-big error
	ReadBufferSize  int    // bytes read from a socket at once

	// Store
	InitialBuckets    int
	MaxLoadFactor     int
	RehashWork        int
	MaxExpirePerSweep int

	// Observability
	Metrics         MetricsKind
	MetricsEndpoint string
	LogLevel        string
}

// DefaultServerConfig returns a configuration with every field set to its default
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Endpoint:          DefaultEndpoint,
		IdleTimeoutMs:     DefaultIdleTimeoutMs,
		MaxMessageSize:    DefaultMaxMessageSize,
		MaxResponseSize:   DefaultMaxResponseSize,
		ReadBufferSize:    DefaultReadBufferSize,
		InitialBuckets:    DefaultInitialBuckets,
		MaxLoadFactor:     DefaultMaxLoadFactor,
		RehashWork:        DefaultRehashWork,
		MaxExpirePerSweep: DefaultMaxExpirePerSweep,
		Metrics:           MetricsNone,
		LogLevel:          "info",
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *ServerConfig) Validate() error {
	switch {
	case c.Endpoint == "":
		return fmt.Errorf("endpoint must not be empty")
	case c.IdleTimeoutMs == 0:
		return fmt.Errorf("idle timeout must be positive")
	case c.MaxMessageSize < 4:
		return fmt.Errorf("max message size must be at least 4 bytes, got %d", c.MaxMessageSize)
	case c.MaxResponseSize < 64:
		return fmt.Errorf("max response size must be at least 64 bytes, got %d", c.MaxResponseSize)
	case c.ReadBufferSize <= 0:
		return fmt.Errorf("read buffer size must be positive")
	case c.InitialBuckets <= 0 || c.MaxLoadFactor <= 0 || c.RehashWork <= 0 || c.MaxExpirePerSweep <= 0:
		return fmt.Errorf("store tuning parameters must be positive")
	}
	switch c.Metrics {
	case MetricsNone, MetricsVM, MetricsPrometheus:
	default:
		return fmt.Errorf("invalid metrics backend %q, must be one of none, vm, prom", c.Metrics)
	}
	if c.Metrics != MetricsNone && c.MetricsEndpoint == "" {
		return fmt.Errorf("metrics backend %s requires a metrics endpoint", c.Metrics)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Idle Timeout", fmt.Sprintf("%d ms", c.IdleTimeoutMs))
	addField("Max Message Size", fmt.Sprintf("%d bytes", c.MaxMessageSize))
	addField("Max Response Size", fmt.Sprintf("%d bytes", c.MaxResponseSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.ReadBufferSize))

	addSection("Store")
	addField("Initial Buckets", strconv.Itoa(c.InitialBuckets))
	addField("Max Load Factor", strconv.Itoa(c.MaxLoadFactor))
	addField("Rehash Work", fmt.Sprintf("%d buckets/op", c.RehashWork))
	addField("Max Expire Per Sweep", strconv.Itoa(c.MaxExpirePerSweep))

	addSection("Observability")
	addField("Log Level", c.LogLevel)
	addField("Metrics", string(c.Metrics))
	if c.Metrics != MetricsNone {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints              []string
	TimeoutSecond          int
	RetryCount             int
	ConnectionsPerEndpoint int
	MaxMessageSize         int // largest accepted response payload
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.ConnectionsPerEndpoint)))))
	addField("Max Message Size", fmt.Sprintf("%d bytes", c.MaxMessageSize))

	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
