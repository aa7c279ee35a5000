package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nathoo/dialoguecore/cli"
	"github.com/nathoo/dialoguecore/engine"
	"github.com/nathoo/dialoguecore/loader"
	"github.com/nathoo/dialoguecore/logging"
	"github.com/nathoo/dialoguecore/tui"
)

var runCmd = &cobra.Command{
	Use:   "run <dialogue_directory>",
	Short: "Run an interactive dialogue session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSession(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("plain", false, "Use the plain line-based CLI instead of the TUI")
	runCmd.Flags().String("script", "", "Play back input lines from a file (implies --plain)")
	runCmd.Flags().Bool("trace", false, "Print resolution traces after each step")
	runCmd.Flags().Int("cache", 0, "Response cache size (0 = default, negative = disabled)")
	runCmd.Flags().String("metrics", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}

func runSession(cmd *cobra.Command, dir string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	plain, _ := cmd.Flags().GetBool("plain")
	script, _ := cmd.Flags().GetString("script")
	trace, _ := cmd.Flags().GetBool("trace")
	cacheSize, _ := cmd.Flags().GetInt("cache")
	metricsAddr, _ := cmd.Flags().GetString("metrics")

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(level)

	g, err := loader.Load(dir)
	if err != nil {
		return fmt.Errorf("loading dialogue: %w", err)
	}
	for _, w := range g.Warnings() {
		logger.Warn("dialogue validation warning", "warning", w)
	}

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithConfig(engine.Config{MaxCacheEntries: cacheSize}),
	}
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, engine.WithCacheMetrics(reg))
		go serveMetrics(metricsAddr, reg, logger)
	}

	eng, err := engine.New(g, opts...)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	// Script mode: play input lines from a file, force plain, echo input.
	if script != "" {
		f, err := os.Open(script)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c := cli.New(eng)
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		c.Run()
		return nil
	}

	// Plain CLI if requested or stdout is not a terminal.
	if plain || !isTerminal() {
		c := cli.New(eng)
		c.Trace = trace
		c.Run()
		return nil
	}

	return tui.Run(eng)
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
