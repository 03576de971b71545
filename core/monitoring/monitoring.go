package monitoring

import "time"

// Monitor reports faults that need operator attention, such as failed
// inverter commands or a panic inside the tick loop.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init installs the process-wide monitor. Without it faults stay local
// to the logs.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException forwards a fault with optional tags, e.g. the command
// that failed or the session it belonged to.
func CaptureException(err error, tags map[string]string) {
	if current != nil {
		current.CaptureException(err, tags)
	}
}

// Recover reports a panic from the tick loop or a background goroutine
// before it propagates.
func Recover() {
	if current != nil {
		current.Recover()
	}
}

// Flush drains buffered reports, typically on shutdown.
func Flush(d time.Duration) {
	if current != nil {
		current.Flush(d)
	}
}
