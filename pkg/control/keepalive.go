package control

import (
	"context"
	"sync"
	"time"

	"github.com/NPetersenDK/goprocam/internal"
)

const pathKeepAlive = "/gopro/camera/keep_alive"

// KeepAliveService pings the camera on an interval so it does not drop
// out of webcam mode while a capture is running.
type KeepAliveService struct {
	client    *Client
	interval  time.Duration
	maxErrors uint
	done      chan struct{}
	stopOnce  sync.Once
	errCount  uint
}

func NewKeepAliveService(client *Client, interval time.Duration, maxErrors uint) *KeepAliveService {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if maxErrors == 0 {
		maxErrors = 5
	}
	return &KeepAliveService{
		client:    client,
		interval:  interval,
		maxErrors: maxErrors,
		done:      make(chan struct{}),
	}
}

// StartPulse launches exactly one goroutine that ticks until ctx or
// StopPulse cancels it, or until maxErrors consecutive pings fail.
func (k *KeepAliveService) StartPulse(ctx context.Context) {
	ticker := time.NewTicker(k.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				internal.Debug("keep alive context cancelled", nil)
				return
			case <-k.done:
				internal.Debug("keep alive stop requested", nil)
				return
			case <-ticker.C:
				if _, err := k.client.invoke(ctx, pathKeepAlive, nil); err != nil {
					k.errCount++
					internal.Warn("keep alive ping failed", internal.Fields{
						internal.FieldCamera: k.client.endpoint.String(),
						internal.FieldError:  err.Error(),
					})
					if k.errCount >= k.maxErrors {
						internal.Error("keep alive giving up", internal.Fields{
							internal.FieldCamera: k.client.endpoint.String(),
						})
						k.StopPulse()
						return
					}
					continue
				}
				k.errCount = 0
			}
		}
	}()
}

// StopPulse stops the pulse goroutine. Safe to call from multiple
// goroutines; the pulse goroutine itself calls it when giving up.
func (k *KeepAliveService) StopPulse() {
	k.stopOnce.Do(func() {
		close(k.done)
	})
}
