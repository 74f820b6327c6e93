package control

import (
	"context"
	"net/url"
	"strconv"
)

const pathWiredUSB = "/gopro/camera/control/wired_usb"

// EnableWiredUSB turns on wired USB control. Webcam mode and wired USB
// are mutually exclusive, so the webcam status is queried first and the
// switch is refused while webcam mode is active; in that case no enable
// request reaches the camera.
func (c *Client) EnableWiredUSB(ctx context.Context) error {
	status, err := c.WebcamStatus(ctx)
	if err != nil {
		return err
	}
	if status.Active() {
		return &PreconditionError{
			Op:     "enable wired usb",
			Reason: "webcam mode is active; stop the webcam first",
		}
	}
	return c.setWiredUSB(ctx, true)
}

// DisableWiredUSB turns off wired USB control.
func (c *Client) DisableWiredUSB(ctx context.Context) error {
	return c.setWiredUSB(ctx, false)
}

func (c *Client) setWiredUSB(ctx context.Context, enable bool) error {
	query := url.Values{}
	if enable {
		query.Set("p", "1")
	} else {
		query.Set("p", "0")
	}
	_, err := c.invoke(ctx, pathWiredUSB, query)
	return err
}

func itoa(v int) string { return strconv.Itoa(v) }
