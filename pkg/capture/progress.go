package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NPetersenDK/goprocam/internal"
)

// SnapshotFunc supplies the reporter with the current session view.
type SnapshotFunc func() Snapshot

// Reporter periodically turns session snapshots into human-readable
// summaries. It is a pure read side: it never touches session state,
// and the elapsed time it prints is derived from the snapshot's start
// timestamp rather than from its own tick count, so a delayed tick
// cannot desynchronize the displayed duration from reality.
type Reporter struct {
	source   SnapshotFunc
	interval time.Duration
	sink     func(string)
	done     chan struct{}
	stopOnce sync.Once
}

func NewReporter(source SnapshotFunc, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Reporter{
		source:   source,
		interval: interval,
		sink: func(line string) {
			internal.Info(line, nil)
		},
		done: make(chan struct{}),
	}
}

// WithSink redirects summaries away from the logger, e.g. into a
// terminal section.
func (r *Reporter) WithSink(sink func(string)) *Reporter {
	if sink != nil {
		r.sink = sink
	}
	return r
}

// Start launches the reporting goroutine. It stops when ctx is
// cancelled, Stop is called, or the observed session reaches a
// terminal state.
func (r *Reporter) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.done:
				return
			case <-ticker.C:
				snap := r.source()
				r.sink(FormatSummary(snap))
				if snap.State.Terminal() {
					return
				}
			}
		}
	}()
}

// Stop halts reporting. Safe to call from multiple goroutines.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
	})
}

// FormatSummary renders one progress line from a snapshot.
func FormatSummary(snap Snapshot) string {
	return fmt.Sprintf("received %s in %s (%s, %d datagrams)",
		FormatBytes(snap.BytesReceived),
		FormatDuration(snap.Elapsed),
		FormatRate(snap.BytesReceived, snap.Elapsed),
		snap.Datagrams)
}

// FormatBytes renders a byte count in human-scaled units.
func FormatBytes(b uint64) string {
	const kb = 1024
	const mb = kb * 1024
	const gb = mb * 1024
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// FormatRate renders an average throughput over elapsed.
func FormatRate(bytes uint64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "-- B/s"
	}
	return FormatBytes(uint64(float64(bytes)/elapsed.Seconds())) + "/s"
}

// FormatDuration rounds small durations to the nearest useful unit.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return d.Truncate(100 * time.Millisecond).String()
}
