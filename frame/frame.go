// Package frame defines the fixed-capacity buffers that cross the
// RX→ring→TX seam. Nothing in this package allocates after construction.
package frame

// Capacity is the fixed payload size of a Frame, matching the largest
// single read the RX stage will ever perform.
const Capacity = 1024

// ClientOrderIDCap is the maximum stored length of a LogRecord's client
// order id, one byte short of its backing array to leave room for a
// NUL terminator when the CSV writer treats it as a C string.
const ClientOrderIDCap = 31

// Frame carries one read's worth of raw bytes plus the timestamps the
// latency pipeline needs. It is always passed by value into and out of
// the ring; callers must not mutate a Frame's Data between the RX
// timestamp and the ring push.
type Frame struct {
	Data        [Capacity]byte
	Length      int
	RecvStartNs int64
	RecvEndNs   int64
	SendStartNs int64
	SendEndNs   int64
}

// Payload returns the slice of Data actually populated by the last read.
func (f *Frame) Payload() []byte {
	return f.Data[:f.Length]
}

// LogRecord is one row of the latency CSV, produced by TX and consumed
// by the log-writer stage.
type LogRecord struct {
	RecvEndNs      int64
	RecvDurationNs int64
	QueueWaitNs    int64
	SendDurationNs int64
	TotalNs        int64
	ClientOrderID  [ClientOrderIDCap + 1]byte
	ClientOrderLen int
}

// SetClientOrderID copies id into the record, truncating to
// ClientOrderIDCap bytes if necessary.
func (r *LogRecord) SetClientOrderID(id []byte) {
	n := len(id)
	if n > ClientOrderIDCap {
		n = ClientOrderIDCap
	}
	copy(r.ClientOrderID[:n], id[:n])
	r.ClientOrderLen = n
}

// ClientOrderIDBytes returns the stored client order id as a byte slice.
func (r *LogRecord) ClientOrderIDBytes() []byte {
	return r.ClientOrderID[:r.ClientOrderLen]
}
