// Package latency implements the optional log-writer stage: it drains
// the TX-populated LogRecord ring at a fixed cadence and appends CSV
// rows to disk, per spec §4.7. It runs at default scheduling priority
// and never blocks the hot path — a full ring silently drops records.
package latency

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/latticefi/fixrelay/frame"
	"github.com/latticefi/fixrelay/metrics"
	"github.com/latticefi/fixrelay/ring"
)

// RingCapacity is the fixed capacity of the log hand-off, spec'd separately
// from the frame ring since it carries a different cadence and a much
// larger burst tolerance.
const RingCapacity = 4096

// NewRing constructs the second SPSC ring the TX stage pushes
// LogRecords into.
func NewRing() *ring.Ring[frame.LogRecord] {
	return ring.New[frame.LogRecord](RingCapacity)
}

// Writer drains r to an append-only CSV file on a fixed interval until
// stop is closed.
type Writer struct {
	path     string
	interval time.Duration
	verbose  bool
	m        *metrics.Registry
	log      *zap.Logger
}

// NewWriter records the writer's settings without touching path; Run
// opens the file. A non-positive flushIntervalMS falls back to 50.
func NewWriter(path string, flushIntervalMS int, verbose bool, m *metrics.Registry, log *zap.Logger) (*Writer, error) {
	if flushIntervalMS <= 0 {
		flushIntervalMS = 50
	}
	return &Writer{
		path:     path,
		interval: time.Duration(flushIntervalMS) * time.Millisecond,
		verbose:  verbose,
		m:        m,
		log:      log,
	}, nil
}

// Run drains r to disk every w.interval until stop is closed. It opens
// the file itself so a restart never clobbers a prior run's records.
func (w *Writer) Run(r *ring.Ring[frame.LogRecord], stop <-chan struct{}) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("latency: open %s: %w", w.path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			w.drain(bw, r)
			return bw.Flush()
		case <-ticker.C:
			w.drain(bw, r)
			if err := bw.Flush(); err != nil {
				w.log.Warn("latency writer flush failed", zap.Error(err))
			}
		}
	}
}

func (w *Writer) drain(bw *bufio.Writer, r *ring.Ring[frame.LogRecord]) {
	for {
		rec := r.Pop()
		if rec == nil {
			return
		}
		if w.verbose {
			fmt.Fprintf(bw, "%d,%d,%d,%d,%d,%s\n",
				rec.RecvEndNs, rec.RecvDurationNs, rec.QueueWaitNs, rec.SendDurationNs, rec.TotalNs, rec.ClientOrderIDBytes())
		} else {
			fmt.Fprintf(bw, "%d,%d,%d,%d,%s\n",
				rec.RecvEndNs, rec.QueueWaitNs, rec.SendDurationNs, rec.TotalNs, rec.ClientOrderIDBytes())
		}
		if w.m != nil {
			w.m.LogRecordsWritten.Inc()
		}
	}
}
