package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultNamespace = "goprocam"
	subsystemCapture = "capture"
)

// CaptureCollector tracks receive-side statistics for one capture and
// exposes them through a Prometheus registry.
type CaptureCollector struct {
	mu        sync.RWMutex
	namespace string
	registry  *prometheus.Registry

	startTime     time.Time
	bytesReceived uint64
	datagrams     uint64
	truncated     uint64
}

// CaptureStats is a point-in-time view of the collected metrics.
type CaptureStats struct {
	Elapsed         time.Duration
	BytesReceived   uint64
	Datagrams       uint64
	Truncated       uint64
	ThroughputBps   float64
	DatagramsPerSec float64
}

// NewCaptureCollector creates a collector and wires up its collectors.
func NewCaptureCollector(namespace string) *CaptureCollector {
	if strings.TrimSpace(namespace) == "" {
		namespace = defaultNamespace
	}
	reg := prometheus.NewRegistry()
	c := &CaptureCollector{
		namespace: namespace,
		registry:  reg,
	}
	c.registerMetrics()
	return c
}

// Registry returns the prometheus registry managed by this collector.
func (c *CaptureCollector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveDatagram records one reception event. Zero-byte datagrams are
// still one event; truncated marks probable data loss on oversized
// payloads.
func (c *CaptureCollector) ObserveDatagram(bytes int, truncated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureStartTimeLocked()
	if bytes > 0 {
		c.bytesReceived += uint64(bytes)
	}
	c.datagrams++
	if truncated {
		c.truncated++
	}
}

// Stats creates a read-only view of the collected metrics.
func (c *CaptureCollector) Stats() CaptureStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.buildStatsLocked(time.Now())
}

func (c *CaptureCollector) buildStatsLocked(now time.Time) CaptureStats {
	elapsed := time.Duration(0)
	if !c.startTime.IsZero() {
		elapsed = now.Sub(c.startTime)
	}
	return CaptureStats{
		Elapsed:         elapsed,
		BytesReceived:   c.bytesReceived,
		Datagrams:       c.datagrams,
		Truncated:       c.truncated,
		ThroughputBps:   rate(c.bytesReceived, elapsed),
		DatagramsPerSec: rate(c.datagrams, elapsed),
	}
}

func (c *CaptureCollector) registerMetrics() {
	makeGauge := func(name, help string, valueFn func(CaptureStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: c.namespace,
			Subsystem: subsystemCapture,
			Name:      name,
			Help:      help,
		}, func() float64 {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return valueFn(c.buildStatsLocked(time.Now()))
		})
	}

	makeCounter := func(name, help string, valueFn func() float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: subsystemCapture,
			Name:      name,
			Help:      help,
		}, valueFn)
	}

	c.registry.MustRegister(makeGauge(
		"throughput_bytes_per_second",
		"Average receive throughput for the active capture.",
		func(s CaptureStats) float64 { return s.ThroughputBps },
	))
	c.registry.MustRegister(makeGauge(
		"datagrams_per_second",
		"Datagram arrival rate for the active capture.",
		func(s CaptureStats) float64 { return s.DatagramsPerSec },
	))

	c.registry.MustRegister(makeCounter(
		"bytes_received_total",
		"Total payload bytes persisted to the output file.",
		func() float64 {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return float64(c.bytesReceived)
		},
	))
	c.registry.MustRegister(makeCounter(
		"datagrams_received_total",
		"Total datagrams received, zero-byte datagrams included.",
		func() float64 {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return float64(c.datagrams)
		},
	))
	c.registry.MustRegister(makeCounter(
		"truncated_datagrams_total",
		"Datagrams that filled the receive buffer and likely lost data.",
		func() float64 {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return float64(c.truncated)
		},
	))
}

func (c *CaptureCollector) ensureStartTimeLocked() {
	if c.startTime.IsZero() {
		c.startTime = time.Now()
	}
}

func rate(count uint64, elapsed time.Duration) float64 {
	if count == 0 || elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed.Seconds()
}
