package output

import (
	"strings"
	"testing"
	"time"

	"github.com/NPetersenDK/goprocam/pkg/capture"
	"github.com/NPetersenDK/goprocam/pkg/metrics"
)

func TestCaptureDisplayRendersCollectorStats(t *testing.T) {
	collector := metrics.NewCaptureCollector("test")
	collector.ObserveDatagram(2048, false)
	collector.ObserveDatagram(65536, true)

	snap := capture.Snapshot{
		State:         capture.StateDraining,
		BytesReceived: 67584,
		Datagrams:     2,
		Elapsed:       time.Second,
	}
	display := NewCaptureDisplay("Capture", func() capture.Snapshot { return snap }).
		WithStats(collector.Stats)

	table := display.tableString(snap)
	for _, row := range []string{"Throughput", "Datagrams/s", "Truncated"} {
		if !strings.Contains(table, row) {
			t.Errorf("table missing %s row:\n%s", row, table)
		}
	}
}

func TestCaptureDisplayWithoutStatsUsesSnapshot(t *testing.T) {
	snap := capture.Snapshot{
		State:         capture.StateDraining,
		BytesReceived: 1024,
		Datagrams:     1,
		Truncated:     1,
		Elapsed:       time.Second,
	}
	display := NewCaptureDisplay("Capture", func() capture.Snapshot { return snap })

	table := display.tableString(snap)
	if !strings.Contains(table, "Truncated") {
		t.Errorf("table missing Truncated row:\n%s", table)
	}
	if strings.Contains(table, "Throughput") {
		t.Errorf("table has collector rows without a collector:\n%s", table)
	}
}
