package kv

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/eKV/cmd/util"
	"github.com/ValentinKolb/eKV/lib/store"
	"github.com/ValentinKolb/eKV/rpc/common"
	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for eKV servers",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 10
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfOps              = 10000
	perfSkip             = make([]string, 0)
)

// percentiles reported for every test
var perfPercentiles = []float64{0.5, 0.9, 0.99}

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent workers"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of operations per test (split across the workers)"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("How large the value for the set-large test should be (in KB). Must fit the server's max message size"))
	key = "key-spread"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("key-spread"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfOps = max(viper.GetInt("ops"), perfNumThreads)
	perfSkip = strings.Split(viper.GetString("skip"), ",")
	return nil
}

// --------------------------------------------------------------------------
// Test Definitions
// --------------------------------------------------------------------------

// perfTest describes one benchmark. op is called concurrently by all workers.
type perfTest struct {
	name    string
	prepare func(keys []string) error
	op      func(i int, key string) error
}

// perfResult holds the measurements of one test
type perfResult struct {
	name     string
	ops      int64
	errors   int64
	elapsed  time.Duration
	latency  gometrics.Timer
	errTally map[string]int64
}

func perfTests() []perfTest {
	fill := func(keys []string) error {
		for _, k := range keys {
			if err := rpcStore.Set(k, []byte("test")); err != nil {
				return err
			}
		}
		return nil
	}
	largeValue := make([]byte, perfLargeValueSizeKB*1024)

	return []perfTest{
		{
			name: "set",
			op: func(_ int, key string) error {
				return rpcStore.Set(key, []byte("test"))
			},
		},
		{
			name: "set-large",
			op: func(_ int, key string) error {
				return rpcStore.Set(key, largeValue)
			},
		},
		{
			name:    "get",
			prepare: fill,
			op: func(_ int, key string) error {
				_, _, err := rpcStore.Get(key)
				return err
			},
		},
		{
			name: "get-missing",
			op: func(_ int, key string) error {
				_, _, err := rpcStore.Get(key)
				return err
			},
		},
		{
			name:    "delete",
			prepare: fill,
			op: func(_ int, key string) error {
				_, err := rpcStore.Delete(key)
				return err
			},
		},
		{
			name:    "expire",
			prepare: fill,
			op: func(_ int, key string) error {
				_, _, err := rpcStore.Expire(key, 60_000)
				return err
			},
		},
		{
			name:    "mixed",
			prepare: fill,
			op: func(i int, key string) error {
				var err error
				switch i % 4 {
				case 0:
					err = rpcStore.Set(key, []byte("test"))
				case 1:
					_, _, err = rpcStore.Get(key)
				case 2:
					_, _, err = rpcStore.Expire(key, 60_000)
				case 3:
					_, err = rpcStore.Delete(key)
				}
				return err
			},
		},
	}
}

// --------------------------------------------------------------------------
// Runner
// --------------------------------------------------------------------------

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for eKV servers")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Ops per test: %d\n", perfNumThreads, perfOps)
	fmt.Println()

	fmt.Println("starting tests...")
	fmt.Printf("%-14s%12s%12s%12s%12s%12s%8s\n", "test", "ops/sec", "mean", "p50", "p90", "p99", "errors")

	var results []perfResult
	for _, test := range perfTests() {
		if shouldSkip(test.name) {
			fmt.Printf("%-14sskipped\n", test.name)
			continue
		}
		res, err := runPerfTest(rpcStore, test)
		if err != nil {
			return fmt.Errorf("test %s failed: %w", test.name, err)
		}
		printResult(res)
		results = append(results, res)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %w", err)
		}
		fmt.Println("Export complete")
	}
	return nil
}

// runPerfTest runs test with perfNumThreads workers. Operation errors are
// counted, only a failing preparation aborts the test.
func runPerfTest(s store.IStore, test perfTest) (perfResult, error) {
	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, test.name, i)
	}
	defer func() {
		for _, k := range keys {
			_, _ = s.Delete(k)
		}
	}()

	if test.prepare != nil {
		if err := test.prepare(keys); err != nil {
			return perfResult{}, err
		}
	}

	latency := gometrics.NewTimer()
	defer latency.Stop()
	ops := xsync.NewCounter()
	failed := xsync.NewCounter()
	tally := xsync.NewMapOf[string, *xsync.Counter]()

	perWorker := perfOps / perfNumThreads
	var g errgroup.Group
	start := time.Now()
	for w := 0; w < perfNumThreads; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				key := keys[(w*perWorker+i)%len(keys)]
				opStart := time.Now()
				err := test.op(i, key)
				latency.UpdateSince(opStart)
				ops.Inc()
				if err != nil {
					failed.Inc()
					c, _ := tally.LoadOrCompute(err.Error(), func() *xsync.Counter { return xsync.NewCounter() })
					c.Inc()
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	res := perfResult{
		name:     test.name,
		ops:      ops.Value(),
		errors:   failed.Value(),
		elapsed:  elapsed,
		latency:  latency.Snapshot(),
		errTally: make(map[string]int64),
	}
	tally.Range(func(msg string, c *xsync.Counter) bool {
		res.errTally[msg] = c.Value()
		return true
	})
	return res, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

func (r perfResult) opsPerSec() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(r.ops) / r.elapsed.Seconds()
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(r perfResult) {
	p := r.latency.Percentiles(perfPercentiles)
	fmt.Printf("%-14s%12.0f%12s%12s%12s%12s%8d\n",
		r.name,
		r.opsPerSec(),
		time.Duration(r.latency.Mean()).Round(time.Microsecond),
		time.Duration(p[0]).Round(time.Microsecond),
		time.Duration(p[1]).Round(time.Microsecond),
		time.Duration(p[2]).Round(time.Microsecond),
		r.errors,
	)

	msgs := make([]string, 0, len(r.errTally))
	for msg := range r.errTally {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	for _, msg := range msgs {
		fmt.Printf("    %dx %s\n", r.errTally[msg], msg)
	}
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "Ops", "Errors", "OpsPerSec", "MeanNs", "P50Ns", "P90Ns", "P99Ns", "MaxNs",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint", "Transport",
		"Threads", "LargeValueSizeKB", "KeySpread",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range results {
		p := r.latency.Percentiles(perfPercentiles)
		row := []string{
			r.name,
			strconv.FormatInt(r.ops, 10),
			strconv.FormatInt(r.errors, 10),
			fmt.Sprintf("%.0f", r.opsPerSec()),
			fmt.Sprintf("%.0f", r.latency.Mean()),
			fmt.Sprintf("%.0f", p[0]),
			fmt.Sprintf("%.0f", p[1]),
			fmt.Sprintf("%.0f", p[2]),
			strconv.FormatInt(r.latency.Max(), 10),
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.Itoa(config.ConnectionsPerEndpoint),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %w", r.name, err)
		}
	}
	return nil
}
