package capture

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1073741824, "1.00 GB"},
	}
	for _, tc := range cases {
		if got := FormatBytes(tc.in); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(2048, 2*time.Second); got != "1.00 KB/s" {
		t.Errorf("FormatRate = %q, want 1.00 KB/s", got)
	}
	if got := FormatRate(100, 0); got != "-- B/s" {
		t.Errorf("FormatRate with zero elapsed = %q, want -- B/s", got)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(250 * time.Millisecond); got != "250 ms" {
		t.Errorf("FormatDuration = %q, want 250 ms", got)
	}
	if got := FormatDuration(0); got != "0s" {
		t.Errorf("FormatDuration(0) = %q, want 0s", got)
	}
}

func TestFormatSummaryUsesSnapshotElapsed(t *testing.T) {
	snap := Snapshot{
		ID:            uuid.New(),
		State:         StateDraining,
		BytesReceived: 2048,
		Datagrams:     3,
		Elapsed:       2 * time.Second,
	}
	line := FormatSummary(snap)
	if !strings.Contains(line, "2.00 KB") {
		t.Errorf("summary %q missing byte count", line)
	}
	if !strings.Contains(line, "2s") {
		t.Errorf("summary %q missing elapsed", line)
	}
	if !strings.Contains(line, "3 datagrams") {
		t.Errorf("summary %q missing datagram count", line)
	}
}

func TestReporterEmitsSummaries(t *testing.T) {
	startedAt := time.Now().Add(-10 * time.Second)
	source := func() Snapshot {
		return Snapshot{
			State:         StateDraining,
			BytesReceived: 4096,
			Datagrams:     4,
			StartedAt:     startedAt,
			Elapsed:       time.Since(startedAt),
		}
	}

	var mu sync.Mutex
	var lines []string
	reporter := NewReporter(source, 10*time.Millisecond).WithSink(func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	})

	reporter.Start(context.Background())
	defer reporter.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(lines)
		mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(lines) < 2 {
		t.Fatalf("expected at least 2 summaries, got %d", len(lines))
	}
	// Elapsed comes from the snapshot's start timestamp, so even the
	// first line reports roughly ten seconds, not one tick interval.
	if !strings.Contains(lines[0], "10") {
		t.Errorf("summary %q should report elapsed derived from startedAt", lines[0])
	}
}

func TestReporterStopConcurrent(t *testing.T) {
	source := func() Snapshot {
		return Snapshot{State: StateDraining}
	}
	reporter := NewReporter(source, 10*time.Millisecond).WithSink(func(string) {})
	reporter.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reporter.Stop()
		}()
	}
	wg.Wait()
}

func TestReporterStopsOnTerminalState(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	source := func() Snapshot {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return Snapshot{State: StateStopped, Elapsed: time.Second}
	}

	reporter := NewReporter(source, 5*time.Millisecond).WithSink(func(string) {})
	reporter.Start(context.Background())

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	got := calls
	mu.Unlock()
	if got != 1 {
		t.Fatalf("reporter kept polling a terminal session: %d calls", got)
	}
}
