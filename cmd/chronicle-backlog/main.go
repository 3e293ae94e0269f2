// Command chronicle-backlog runs the BacklogServer: a TCP server that
// durably appends every received record to a log file.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ehsaniara/chronicle/internal/backlog"
	"github.com/ehsaniara/chronicle/pkg/oplog"
)

var (
	logFile     string
	acceptDepth int
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chronicle-backlog <port>",
		Short: "Run the Chronicle backlog server",
		Long:  "chronicle-backlog accepts TCP connections and appends every received record to a log file, one open/write/flush/close cycle per record.",
		Args:  cobra.ExactArgs(1),
		RunE:  runBacklog,
	}

	cmd.Flags().StringVar(&logFile, "log-file", "./logfile.log", "path to the append-only log file")
	cmd.Flags().IntVar(&acceptDepth, "backlog", 32, "maximum number of connections served concurrently")

	return cmd
}

func runBacklog(cmd *cobra.Command, args []string) error {
	port, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", args[0], err)
	}

	log := oplog.New()
	srv := backlog.New(port, acceptDepth, backlog.DefaultFileSink(logFile, log), log)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting backlog server: %w", err)
	}
	log.Info("chronicle-backlog is running", "port", port, "logFile", logFile)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("received signal, shutting down", "signal", sig)

	return srv.Stop()
}
