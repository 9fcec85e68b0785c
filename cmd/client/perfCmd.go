package client

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/akeylesspro/nx-data-socket/cmd/util"
	"github.com/akeylesspro/nx-data-socket/lib/relay"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for relay servers",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__perf"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfRequests         = 10000
	perfSkip             = make([]string, 0)

	// perfPercentiles are reported for every test
	perfPercentiles = []float64{0.5, 0.95, 0.99}
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent requests"))
	key = "requests"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of requests per test"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfRequests = max(viper.GetInt("requests"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// perfTest is one benchmark: op is called perfRequests times with the request number
type perfTest struct {
	name    string
	prepare func(ctx context.Context) error
	op      func(ctx context.Context, i int) error
}

func runPerf(cmd *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for relay servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Requests: %d\n", perfNumThreads, perfRequests)
	fmt.Println()

	fmt.Println("starting tests...")

	largeValue := strings.Repeat("x", perfLargeValueSizeKB*1024)
	collection := perfKeyPrefix + "-subscribe"

	tests := []perfTest{
		{
			name: "set",
			op: func(ctx context.Context, i int) error {
				return ackErr(rpcClient.SetData(ctx, perfKey("set", i), map[string]any{"n": i}))
			},
		},
		{
			name: "set-large",
			op: func(ctx context.Context, i int) error {
				return ackErr(rpcClient.SetData(ctx, perfKey("set-large", i), largeValue))
			},
		},
		{
			name: "get",
			prepare: func(ctx context.Context) error {
				for i := 0; i < perfKeySpread; i++ {
					if err := ackErr(rpcClient.SetData(ctx, perfKey("get", i), map[string]any{"n": i})); err != nil {
						return err
					}
				}
				return nil
			},
			op: func(ctx context.Context, i int) error {
				return ackErr(rpcClient.GetData(ctx, perfKey("get", i)))
			},
		},
		{
			name: "get-missing",
			op: func(ctx context.Context, i int) error {
				return ackErr(rpcClient.GetData(ctx, perfKey("get-missing", i)))
			},
		},
		{
			name: "subscribe",
			prepare: func(ctx context.Context) error {
				for i := 0; i < perfKeySpread; i++ {
					key := fmt.Sprintf("%s:%d", collection, i)
					if err := ackErr(rpcClient.SetData(ctx, key, map[string]any{"n": i})); err != nil {
						return err
					}
				}
				return nil
			},
			op: func(ctx context.Context, _ int) error {
				return ackErr(rpcClient.Subscribe(ctx, collection))
			},
		},
		{
			name: "mixed",
			op: func(ctx context.Context, i int) error {
				switch i % 3 {
				case 0:
					return ackErr(rpcClient.SetData(ctx, perfKey("mixed", i), map[string]any{"n": i}))
				case 1:
					return ackErr(rpcClient.GetData(ctx, perfKey("mixed", i)))
				default:
					return ackErr(rpcClient.Unsubscribe(ctx, collection))
				}
			},
		},
	}

	registry := metrics.NewRegistry()
	ctx := context.Background()

	for _, test := range tests {
		if shouldSkip(test.name) {
			fmt.Printf("%-20sskipped\n", test.name)
			continue
		}
		if test.prepare != nil {
			if err := test.prepare(ctx); err != nil {
				return fmt.Errorf("(%s) - preparing test failed: %v", test.name, err)
			}
		}
		if err := runTest(ctx, registry, test); err != nil {
			return err
		}
		printResult(registry, test.name)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, registry); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// runTest executes a test with perfNumThreads workers and records latency and
// errors in the registry
func runTest(ctx context.Context, registry metrics.Registry, test perfTest) error {
	timer := metrics.GetOrRegisterTimer(test.name+".latency", registry)
	errs := metrics.GetOrRegisterCounter(test.name+".errors", registry)

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < perfNumThreads; w++ {
		g.Go(func() error {
			for {
				i := int(next.Add(1)) - 1
				if i >= perfRequests {
					return nil
				}
				start := time.Now()
				err := test.op(gctx, i)
				timer.UpdateSince(start)
				if err != nil {
					errs.Inc(1)
					Logger.Warningf("(%s) - request failed: %v", test.name, err)
				}
				select {
				case <-rpcClient.Done():
					return fmt.Errorf("(%s) - connection lost", test.name)
				default:
				}
			}
		})
	}
	return g.Wait()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// perfKey returns one of perfKeySpread keys of a test
func perfKey(test string, i int) string {
	return fmt.Sprintf("%s-%s:%d", perfKeyPrefix, test, i%perfKeySpread)
}

// ackErr turns a failed request or a failed ack into an error
func ackErr(resp relay.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Message)
	}
	return nil
}

// printResult prints the result of a test in a formatted way
func printResult(registry metrics.Registry, test string) {
	timer := metrics.GetOrRegisterTimer(test+".latency", registry).Snapshot()
	errs := metrics.GetOrRegisterCounter(test+".errors", registry).Snapshot()

	ps := timer.Percentiles(perfPercentiles)
	fmt.Printf("%-20s%8.0f req/s  mean %-10s p50 %-10s p95 %-10s p99 %-10s errors %d\n",
		test,
		timer.RateMean(),
		time.Duration(timer.Mean()),
		time.Duration(ps[0]),
		time.Duration(ps[1]),
		time.Duration(ps[2]),
		errs.Count(),
	)
}

// writeResultsToCSV writes all test results of the registry to a CSV file
func writeResultsToCSV(csvPath string, registry metrics.Registry) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "Requests", "Errors", "ReqPerSec", "MeanNs", "P50Ns", "P95Ns", "P99Ns",
		"Endpoint", "Serializer", "Transport", "Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	config := util.GetClientConfig()
	var rows [][]string
	registry.Each(func(name string, m interface{}) {
		timer, ok := m.(metrics.Timer)
		if !ok {
			return
		}
		test := strings.TrimSuffix(name, ".latency")
		snap := timer.Snapshot()
		ps := snap.Percentiles(perfPercentiles)
		errs := metrics.GetOrRegisterCounter(test+".errors", registry).Count()

		rows = append(rows, []string{
			test,
			strconv.FormatInt(snap.Count(), 10),
			strconv.FormatInt(errs, 10),
			fmt.Sprintf("%.0f", snap.RateMean()),
			fmt.Sprintf("%.0f", snap.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			config.Endpoint,
			config.Serializer,
			config.Transport,
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		})
	})

	// Each iterates a map, sort for a stable file
	slices.SortFunc(rows, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", row[0], err)
		}
	}

	return nil
}
