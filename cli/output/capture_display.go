package output

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/NPetersenDK/goprocam/pkg/capture"
	"github.com/NPetersenDK/goprocam/pkg/metrics"
)

// CaptureDisplay renders a live capture dashboard using pterm
// primitives. It is a pure read side over session snapshots.
type CaptureDisplay struct {
	title    string
	source   capture.SnapshotFunc
	stats    func() metrics.CaptureStats
	interval time.Duration

	mu     sync.Mutex
	area   *pterm.AreaPrinter
	ticker *time.Ticker
	cancel context.CancelFunc
	active bool
}

func NewCaptureDisplay(title string, source capture.SnapshotFunc) *CaptureDisplay {
	if strings.TrimSpace(title) == "" {
		title = "Capture"
	}
	return &CaptureDisplay{
		title:    title,
		source:   source,
		interval: 500 * time.Millisecond,
	}
}

// WithStats adds collector-backed rows (arrival rates, truncation
// count) to the dashboard table.
func (d *CaptureDisplay) WithStats(stats func() metrics.CaptureStats) *CaptureDisplay {
	d.stats = stats
	return d
}

// Start begins rendering the live dashboard. No-op when source is nil.
func (d *CaptureDisplay) Start(ctx context.Context) error {
	if d == nil || d.source == nil || d.active {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)

	area, err := pterm.DefaultArea.WithRemoveWhenDone(false).Start()
	if err != nil {
		cancel()
		return err
	}

	d.mu.Lock()
	d.area = area
	d.ticker = time.NewTicker(d.interval)
	d.cancel = cancel
	d.active = true
	d.mu.Unlock()

	go d.loop(ctx)
	return nil
}

func (d *CaptureDisplay) loop(ctx context.Context) {
	d.render()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.ticker.C:
			d.render()
		}
	}
}

// Stop clears the live board and prints a final summary table.
func (d *CaptureDisplay) Stop() {
	if d == nil || !d.cleanup() {
		return
	}
	d.printFinal()
}

func (d *CaptureDisplay) cleanup() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return false
	}
	cancel := d.cancel
	ticker := d.ticker
	area := d.area
	d.area = nil
	d.ticker = nil
	d.cancel = nil
	d.active = false
	if cancel != nil {
		cancel()
	}
	if ticker != nil {
		ticker.Stop()
	}
	if area != nil {
		_ = area.Stop()
	}
	return true
}

func (d *CaptureDisplay) render() {
	snap := d.source()
	content := d.renderContent(snap)

	d.mu.Lock()
	area := d.area
	d.mu.Unlock()
	if area != nil {
		area.Update(content)
	}
}

func (d *CaptureDisplay) renderContent(snap capture.Snapshot) string {
	table := d.tableString(snap)
	header := pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgBlue)).
		WithTextStyle(pterm.NewStyle(pterm.FgLightWhite, pterm.Bold)).
		WithFullWidth().
		Sprint(d.title)

	meta := fmt.Sprintf("Elapsed: %s    State: %s",
		capture.FormatDuration(snap.Elapsed),
		strings.ToUpper(snap.State.String()))

	return fmt.Sprintf("%s\n%s\n%s", header, table, meta)
}

func (d *CaptureDisplay) tableString(snap capture.Snapshot) string {
	data := pterm.TableData{
		{"Metric", "Value"},
		{"Bytes Received", capture.FormatBytes(snap.BytesReceived)},
		{"Average Rate", capture.FormatRate(snap.BytesReceived, snap.Elapsed)},
		{"Datagrams", fmt.Sprintf("%d", snap.Datagrams)},
	}
	if d.stats != nil {
		s := d.stats()
		data = append(data,
			[]string{"Throughput", capture.FormatBytes(uint64(s.ThroughputBps)) + "/s"},
			[]string{"Datagrams/s", fmt.Sprintf("%.1f", s.DatagramsPerSec)},
			[]string{"Truncated", fmt.Sprintf("%d", s.Truncated)},
		)
	} else {
		data = append(data, []string{"Truncated", fmt.Sprintf("%d", snap.Truncated)})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return ""
	}
	return table
}

func (d *CaptureDisplay) printFinal() {
	snap := d.source()
	table := d.tableString(snap)
	pterm.Println()
	pterm.DefaultSection.Println(d.title)
	fmt.Println(table)
	fmt.Printf("Elapsed: %s    State: %s\n",
		capture.FormatDuration(snap.Elapsed),
		strings.ToUpper(snap.State.String()))
}
