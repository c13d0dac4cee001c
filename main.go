// Command fixrelay is the low-latency splice engine's entry point: it
// parses argv, wires up logging/metrics/latency, and blocks in the
// accept loop until the process is killed, mirroring the teacher's
// main.go phased-orchestration shape (bootstrap → steady-state
// production loop) collapsed to this engine's single steady phase.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/latticefi/fixrelay/acceptor"
	"github.com/latticefi/fixrelay/affinity"
	"github.com/latticefi/fixrelay/config"
	"github.com/latticefi/fixrelay/frame"
	"github.com/latticefi/fixrelay/latency"
	"github.com/latticefi/fixrelay/logging"
	"github.com/latticefi/fixrelay/metrics"
	"github.com/latticefi/fixrelay/pipeline"
	"github.com/latticefi/fixrelay/ring"
	"github.com/latticefi/fixrelay/session"
	"github.com/latticefi/fixrelay/translate"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.DebugLevel > 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init failed:", err)
		os.Exit(1)
	}
	defer log.Sync()

	runSleeper(cfg.SleepCPU, log)

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(context.Background(), cfg.MetricsAddr); err != nil {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	var logRing *ring.Ring[frame.LogRecord]
	stopLatency := make(chan struct{})
	if cfg.MeasureLatency {
		logRing = latency.NewRing()
		writer, err := latency.NewWriter(cfg.LogFile, cfg.FlushIntervalMS, cfg.VerboseLatency, m, log)
		if err != nil {
			log.Error("latency writer init failed", zap.Error(err))
			os.Exit(1)
		}
		go func() {
			if err := writer.Run(logRing, stopLatency); err != nil {
				log.Error("latency writer stopped", zap.Error(err))
			}
		}()
	}

	profile := session.Profile{
		Kind:           cfg.Profile,
		DownstreamIP:   cfg.ForwardIP,
		DownstreamPort: cfg.ForwardPort,
		Credentials: session.Credentials{
			Username: cfg.Username,
			Password: cfg.Password,
		},
	}

	opts := acceptor.Options{
		Profile: profile,
		CPUs:    pipeline.CPUSet{RX: cfg.RXCPU, TX: cfg.TXCPU},
		Defaults: translate.Defaults{
			PriceTicks: cfg.PriceTicks,
			TIFSeconds: cfg.TIFSeconds,
			Firm:       [4]byte{'F', 'I', 'R', 'M'},
		},
		LogRing: logRing,
		Metrics: m,
		Log:     log,
	}

	if err := acceptor.Serve(cfg.ListenAddr, opts); err != nil {
		log.Error("fatal listener error", zap.Error(err))
		os.Exit(1)
	}
}

// runSleeper pins a dedicated goroutine to sleepCPU and parks it
// forever, holding that core out of the Go scheduler's pool so RX/TX
// never migrate onto it, per spec §5's "idle sleeper thread whose sole
// purpose is to hold a CPU core".
func runSleeper(sleepCPU int, log *zap.Logger) {
	go func() {
		runtime.LockOSThread()
		if !affinity.Pin(sleepCPU) {
			log.Warn("sleeper thread pinning failed, degrading to unpinned", zap.Int("cpu", sleepCPU))
		}
		select {} // parks forever; there is nothing to wait on
	}()
}
