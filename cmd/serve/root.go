package serve

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cmdUtil "github.com/ValentinKolb/eKV/cmd/util"
	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/ValentinKolb/eKV/rpc/metrics"
	"github.com/ValentinKolb/eKV/rpc/metrics/prom"
	"github.com/ValentinKolb/eKV/rpc/metrics/vm"
	"github.com/ValentinKolb/eKV/rpc/server"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Logger = logger.GetLogger("rpc")

var (
	serveCmdConfig = common.DefaultServerConfig()
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the eKV server",
		Long:    `Start the eKV server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is EKV_<flag> (e.g. EKV_IDLE_TIMEOUT=10000)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	d := common.DefaultServerConfig()

	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, d.Endpoint, cmdUtil.WrapString("The address on which the server will listen (host:port for tcp, a socket path for unix, e.g. /tmp/ekv.sock)"))

	key = "idle-timeout"
	ServeCmd.PersistentFlags().Uint64(key, d.IdleTimeoutMs, cmdUtil.WrapString("Connections without activity for this many milliseconds are closed"))

	key = "max-message-size"
	ServeCmd.PersistentFlags().Int(key, d.MaxMessageSize, cmdUtil.WrapString("The largest request payload in bytes. Clients sending larger requests are disconnected"))

	key = "max-response-size"
	ServeCmd.PersistentFlags().Int(key, d.MaxResponseSize, cmdUtil.WrapString("Responses larger than this many bytes are replaced by an error"))

	key = "read-buffer"
	ServeCmd.PersistentFlags().Int(key, d.ReadBufferSize, cmdUtil.WrapString("How many bytes are read from a socket at once"))

	key = "initial-buckets"
	ServeCmd.PersistentFlags().Int(key, d.InitialBuckets, cmdUtil.WrapString("Initial number of hash table buckets (rounded up to a power of two)"))

	key = "max-load-factor"
	ServeCmd.PersistentFlags().Int(key, d.MaxLoadFactor, cmdUtil.WrapString("Average number of keys per bucket that triggers a resize"))

	key = "rehash-work"
	ServeCmd.PersistentFlags().Int(key, d.RehashWork, cmdUtil.WrapString("Non-empty buckets migrated per operation while a resize is in progress"))

	key = "max-expire-per-sweep"
	ServeCmd.PersistentFlags().Int(key, d.MaxExpirePerSweep, cmdUtil.WrapString("Expired keys removed per event loop iteration at most"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, d.LogLevel, cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "metrics"
	ServeCmd.PersistentFlags().String(key, string(d.Metrics), cmdUtil.WrapString("Metrics backend (none, vm, prom)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "localhost:9100", cmdUtil.WrapString("The address on which /metrics is served if a metrics backend is enabled"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.IdleTimeoutMs = viper.GetUint64("idle-timeout")
	serveCmdConfig.MaxMessageSize = viper.GetInt("max-message-size")
	serveCmdConfig.MaxResponseSize = viper.GetInt("max-response-size")
	serveCmdConfig.ReadBufferSize = viper.GetInt("read-buffer")
	serveCmdConfig.InitialBuckets = viper.GetInt("initial-buckets")
	serveCmdConfig.MaxLoadFactor = viper.GetInt("max-load-factor")
	serveCmdConfig.RehashWork = viper.GetInt("rehash-work")
	serveCmdConfig.MaxExpirePerSweep = viper.GetInt("max-expire-per-sweep")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Metrics = common.MetricsKind(viper.GetString("metrics"))
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")

	if err := serveCmdConfig.Validate(); err != nil {
		return err
	}
	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the eKV server and blocks until it stops
func run(_ *cobra.Command, _ []string) error {
	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	exporter := newExporter(serveCmdConfig.Metrics)
	var m metrics.IMetrics
	if exporter != nil {
		m = exporter
	}

	serv := server.NewRPCServer(serveCmdConfig, t, m)
	if err := serv.Listen(); err != nil {
		return err
	}

	var metricsServer *http.Server
	if exporter != nil {
		metricsServer = startMetricsServer(serveCmdConfig.MetricsEndpoint, exporter)
	}

	// stop the event loop on SIGINT / SIGTERM
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		Logger.Infof("received %s, shutting down", s)
		if err := serv.Close(); err != nil {
			Logger.Errorf("failed to stop server: %v", err)
		}
	}()

	serveErr := serv.Serve()
	signal.Stop(sig)

	if metricsServer != nil {
		_ = metricsServer.Close()
	}

	if serveErr != nil {
		// the event loop only fails on unrecoverable errors
		Logger.Errorf("server failed: %v", serveErr)
		_ = serv.Close()
		os.Exit(1)
	}
	return nil
}

// newExporter creates the metrics backend, nil for none
func newExporter(kind common.MetricsKind) metrics.IExporter {
	switch kind {
	case common.MetricsVM:
		return vm.New("ekv")
	case common.MetricsPrometheus:
		return prom.New(nil, "ekv")
	default:
		return nil
	}
}

func startMetricsServer(endpoint string, exporter metrics.IExporter) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", exporter.Handler())
	srv := &http.Server{
		Addr:              endpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		Logger.Infof("serving metrics on http://%s/metrics", endpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics server failed: %v", err)
		}
	}()
	return srv
}
