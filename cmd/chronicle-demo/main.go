// Command chronicle-demo wires a Chronicle domain logger end to end
// from a JSON configuration file and emits one record each at DEBUG,
// INFO, WARN and ERROR, demonstrating the backup hop on ERROR.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ehsaniara/chronicle/internal/chronicle/logger"
	"github.com/ehsaniara/chronicle/internal/chronicle/pool"
	"github.com/ehsaniara/chronicle/internal/chronicle/registry"
	"github.com/ehsaniara/chronicle/internal/chronicle/sink"
	"github.com/ehsaniara/chronicle/internal/chronicle/worker"
	"github.com/ehsaniara/chronicle/internal/chronicleconfig"
	"github.com/ehsaniara/chronicle/pkg/oplog"
)

var configPath string

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chronicle-demo",
		Short: "Wire a Chronicle logger end to end and emit sample records",
		RunE:  runDemo,
	}
	cmd.Flags().StringVar(&configPath, "config", "chronicle.json", "path to the Chronicle JSON configuration file")
	return cmd
}

func runDemo(cmd *cobra.Command, args []string) error {
	oplogger := oplog.New().WithMode("demo")

	cfg := chronicleconfig.MustLoad(configPath)

	backupPool := pool.New(cfg.ThreadCount)
	defer backupPool.Stop()

	manager := registry.New()
	defer manager.StopAll()

	svc, err := logger.NewBuilder("demo-service").
		AddSink(logger.SinkSpec{Kind: logger.SinkStdout}).
		AddSink(logger.SinkSpec{Kind: logger.SinkFile, Path: "./demo-service.log", Policy: toSinkPolicy(cfg.FlushLog)}).
		Mode(worker.Safe).
		WorkerConfig(worker.Config{
			InitialCapacity: cfg.BufferSize,
			Threshold:       cfg.Threshold,
			LinearGrowth:    cfg.LinearGrowth,
		}).
		BackupTo(fmt.Sprintf("%s:%d", cfg.BackupAddr, cfg.BackupPort), backupPool).
		FaultLogger(oplogger).
		Build()
	if err != nil {
		return fmt.Errorf("building demo logger: %w", err)
	}
	manager.Add(svc)

	svc.Debug("main.go", 1, "booting with buffer_size=%d", cfg.BufferSize)
	svc.Info("main.go", 2, "demo service started")
	svc.Warn("main.go", 3, "cache miss ratio %d%%", 42)
	svc.Error("main.go", 4, "downstream call failed: %s", "timeout")

	oplogger.Info("demo run complete")
	return nil
}

func toSinkPolicy(p chronicleconfig.FlushPolicy) sink.FlushPolicy {
	return sink.FlushPolicy(p)
}
