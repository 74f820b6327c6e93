// Package telemetry publishes capture snapshots to an MQTT broker so a
// capture running headless (e.g. on a field box next to the camera) can
// be watched remotely.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/NPetersenDK/goprocam/internal"
	"github.com/NPetersenDK/goprocam/pkg/capture"
)

// Publisher pushes JSON-encoded session snapshots to one topic on an
// interval. It follows the same cooperative-cancellation discipline as
// the capture session: one goroutine, stopped by ctx or Stop.
type Publisher struct {
	client   mqtt.Client
	topic    string
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

type snapshotMessage struct {
	Session       string `json:"session"`
	State         string `json:"state"`
	BytesReceived uint64 `json:"bytes_received"`
	Datagrams     uint64 `json:"datagrams"`
	Truncated     uint64 `json:"truncated"`
	ElapsedMs     int64  `json:"elapsed_ms"`
}

// NewPublisher connects to broker (e.g. "tcp://host:1883"). Connection
// failure is returned, not retried; telemetry is optional and the
// caller decides whether a capture should proceed without it.
func NewPublisher(broker, clientID, topic string, interval time.Duration) (*Publisher, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.SetKeepAlive(10 * time.Second)
	opts.SetPingTimeout(2 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", broker, token.Error())
	}

	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Publisher{
		client:   client,
		topic:    topic,
		interval: interval,
		done:     make(chan struct{}),
	}, nil
}

// Start publishes snapshots from source until cancelled. A final
// snapshot is published when the loop exits so the terminal state is
// visible on the topic.
func (p *Publisher) Start(ctx context.Context, source capture.SnapshotFunc) {
	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				p.publish(source())
				return
			case <-p.done:
				p.publish(source())
				return
			case <-ticker.C:
				p.publish(source())
			}
		}
	}()
}

func (p *Publisher) publish(snap capture.Snapshot) {
	msg := snapshotMessage{
		Session:       snap.ID.String(),
		State:         snap.State.String(),
		BytesReceived: snap.BytesReceived,
		Datagrams:     snap.Datagrams,
		Truncated:     snap.Truncated,
		ElapsedMs:     snap.Elapsed.Milliseconds(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		internal.Warn("telemetry snapshot encode failed", internal.Fields{
			internal.FieldError: err.Error(),
		})
		return
	}
	p.client.Publish(p.topic, 0, false, payload)
}

// Stop halts publishing and disconnects. Safe to call from multiple
// goroutines.
func (p *Publisher) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.client.Disconnect(250)
	})
}
