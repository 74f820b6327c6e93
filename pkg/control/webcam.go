package control

import (
	"context"
	"net/url"

	"github.com/NPetersenDK/goprocam/internal"
)

const (
	pathWebcamStatus  = "/gopro/webcam/status"
	pathWebcamStart   = "/gopro/webcam/start"
	pathWebcamStop    = "/gopro/webcam/stop"
	pathWebcamExit    = "/gopro/webcam/exit"
	pathWebcamPreview = "/gopro/webcam/preview"
)

// Webcam status codes as reported by the camera.
const (
	WebcamOff       = 0
	WebcamIdle      = 1
	WebcamHighPower = 2
	WebcamLowPower  = 3
)

// WebcamStatus is the camera's answer to a status query. Error is the
// camera's own numeric error field, not a transport failure.
type WebcamStatus struct {
	Status int `json:"status"`
	Error  int `json:"error"`
}

// Active reports whether webcam mode currently owns the sensor.
func (s WebcamStatus) Active() bool {
	return s.Status == WebcamHighPower || s.Status == WebcamLowPower
}

func (c *Client) WebcamStatus(ctx context.Context) (WebcamStatus, error) {
	var status WebcamStatus
	if err := c.getJSON(ctx, pathWebcamStatus, nil, &status); err != nil {
		return WebcamStatus{}, err
	}
	return status, nil
}

// WebcamStart puts the camera into webcam mode, streaming UDP to the
// caller. Wired USB mode is mutually exclusive with webcam mode, so it
// is disabled first; that step is best effort and only logged when it
// fails, since cameras without wired USB support reject it outright.
func (c *Client) WebcamStart(ctx context.Context, port int) error {
	if err := c.DisableWiredUSB(ctx); err != nil {
		internal.Warn("wired usb disable before webcam start failed", internal.Fields{
			internal.FieldCamera: c.endpoint.String(),
			internal.FieldError:  err.Error(),
		})
	}

	query := url.Values{}
	if port > 0 {
		query.Set("port", itoa(port))
	}
	_, err := c.invoke(ctx, pathWebcamStart, query)
	return err
}

// WebcamStop halts the stream but keeps the camera in webcam mode.
func (c *Client) WebcamStop(ctx context.Context) error {
	_, err := c.invoke(ctx, pathWebcamStop, nil)
	return err
}

// WebcamExit leaves webcam mode entirely.
func (c *Client) WebcamExit(ctx context.Context) error {
	_, err := c.invoke(ctx, pathWebcamExit, nil)
	return err
}

// WebcamPreview starts the low-power preview stream.
func (c *Client) WebcamPreview(ctx context.Context) error {
	_, err := c.invoke(ctx, pathWebcamPreview, nil)
	return err
}
