package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mappool/mappool/internal/demo"
	"github.com/mappool/mappool/pkg/config"
	"github.com/mappool/mappool/pkg/logger"
	"github.com/mappool/mappool/pkg/metrics"
	"github.com/mappool/mappool/pkg/pool"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	v := viper.New()
	var configFile string

	root := &cobra.Command{
		Use:           "mappool",
		Short:         "mappool - keyed object pool demo and stress tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML configuration file")
	root.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-encoding", "console", "Log encoding (json, console)")
	root.PersistentFlags().String("pool-name", "objects", "Pool name used in logs and metrics")
	root.PersistentFlags().Bool("sharded", false, "Use a lock-per-shard pool")
	root.PersistentFlags().Int("shards", 16, "Shard count for --sharded")
	bindFlags(v, root.PersistentFlags(), map[string]string{
		"log.level":    "log-level",
		"log.encoding": "log-encoding",
		"pool.name":    "pool-name",
		"pool.sharded": "sharded",
		"pool.shards":  "shards",
	})

	load := func() (*config.Config, error) {
		return loadConfig(configFile, v)
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mappool v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "demo",
		Short: "Put a vehicle and a tank, then check them out again",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	})

	var output string
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Write the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := config.Save(output, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", output)
			return nil
		},
	}
	configCmd.Flags().StringVarP(&output, "output", "o", "mappool.yaml", "Output file")
	root.AddCommand(configCmd)

	var cpuProfile, memProfile string
	stressCmd := &cobra.Command{
		Use:   "stress",
		Short: "Run concurrent puts and gets and verify no handle is lost or duplicated",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			stop, err := startProfiling(cpuProfile, memProfile)
			if err != nil {
				return err
			}
			runErr := runStress(cmd.Context(), cmd.OutOrStdout(), cfg)
			if err := stop(); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}
	stressCmd.Flags().StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	stressCmd.Flags().StringVar(&memProfile, "memprofile", "", "Write memory profile to file")
	stressCmd.Flags().Int("workers", runtime.NumCPU(), "Number of concurrent workers")
	stressCmd.Flags().Int("objects", 10000, "Total number of objects to put")
	stressCmd.Flags().Duration("timeout", time.Minute, "Run timeout")
	stressCmd.Flags().Bool("metrics", false, "Collect Prometheus metrics")
	stressCmd.Flags().String("metrics-addr", "", "Serve /metrics on this address and keep running until interrupted")
	bindFlags(v, stressCmd.Flags(), map[string]string{
		"stress.workers":  "workers",
		"stress.objects":  "objects",
		"stress.timeout":  "timeout",
		"metrics.enabled": "metrics",
		"metrics.addr":    "metrics-addr",
	})
	root.AddCommand(stressCmd)

	return root
}

// loadConfig layers defaults, the YAML file, MAPPOOL_* environment
// variables and explicitly set flags, in that order.
func loadConfig(file string, v *viper.Viper) (*config.Config, error) {
	cfg := config.NewConfig()
	if file != "" {
		if err := config.Load(file, cfg); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix("MAPPOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// IsSet is true only for changed flags and present environment variables.
	override := func(key string, apply func(string)) {
		if v.IsSet(key) {
			apply(key)
		}
	}
	override("log.level", func(k string) { cfg.Log.Level = v.GetString(k) })
	override("log.encoding", func(k string) { cfg.Log.Encoding = v.GetString(k) })
	override("pool.name", func(k string) { cfg.Pool.Name = v.GetString(k) })
	override("pool.sharded", func(k string) { cfg.Pool.Sharded = v.GetBool(k) })
	override("pool.shards", func(k string) { cfg.Pool.Shards = v.GetInt(k) })
	override("stress.workers", func(k string) { cfg.Stress.Workers = v.GetInt(k) })
	override("stress.objects", func(k string) { cfg.Stress.Objects = v.GetInt(k) })
	override("stress.timeout", func(k string) { cfg.Stress.Timeout = v.GetDuration(k) })
	override("metrics.enabled", func(k string) { cfg.Metrics.Enabled = v.GetBool(k) })
	override("metrics.addr", func(k string) { cfg.Metrics.Addr = v.GetString(k) })

	if cfg.Metrics.Addr != "" {
		cfg.Metrics.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("logger setup: %w", err)
	}
	return cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

func newPool(cfg *config.Config, obs pool.Observer) pool.Keyed[demo.ObjectType, demo.Object] {
	opts := []pool.Option{pool.WithName(cfg.Pool.Name)}
	if obs != nil {
		opts = append(opts, pool.WithObserver(obs))
	}
	if cfg.Pool.Sharded {
		opts = append(opts, pool.WithShards(cfg.Pool.Shards))
		return pool.NewSharded[demo.ObjectType, demo.Object](opts...)
	}
	return pool.New[demo.ObjectType, demo.Object](opts...)
}

func runDemo(ctx context.Context, out io.Writer, cfg *config.Config) error {
	defer logger.Sync() //nolint:errcheck

	p := newPool(cfg, nil)
	defer p.Close()

	fmt.Fprintln(out, "MapPool example started")
	report, err := demo.RunScenario(ctx, p, &demo.Tracker{})
	if report != nil {
		for _, step := range report.Steps {
			fmt.Fprintln(out, step)
		}
	}
	if err != nil {
		return fmt.Errorf("demo failed: %w", err)
	}
	fmt.Fprintln(out, "MapPool example finished")
	return nil
}

func runStress(ctx context.Context, out io.Writer, cfg *config.Config) error {
	defer logger.Sync() //nolint:errcheck
	log := logger.With(zap.String("component", "mappool-cli"))

	var collector *metrics.PoolCollector
	reg := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		collector = metrics.NewPoolCollector(reg, cfg.Metrics.Namespace)
	}

	var obs pool.Observer
	if collector != nil {
		obs = collector
	}
	p := newPool(cfg, obs)
	defer p.Close()

	log.Info("starting stress run",
		zap.String("pool", cfg.Pool.Name),
		zap.Bool("sharded", cfg.Pool.Sharded),
		zap.Int("workers", cfg.Stress.Workers),
		zap.Int("objects", cfg.Stress.Objects))

	tp := metrics.NewThroughputTracker(collector, cfg.Pool.Name)
	result, err := demo.RunStress(ctx, p, cfg.Stress, &demo.Tracker{}, tp)
	if result != nil {
		data, mErr := gojson.MarshalIndent(result, "", "  ")
		if mErr != nil {
			return fmt.Errorf("encode result: %w", mErr)
		}
		fmt.Fprintln(out, string(data))
	}
	if err != nil {
		return fmt.Errorf("stress failed: %w", err)
	}

	if cfg.Metrics.Addr == "" {
		return nil
	}
	return serveMetrics(ctx, cfg.Metrics.Addr, reg, log)
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
