package control

import "context"

const (
	pathShutterStart = "/gopro/camera/shutter/start"
	pathShutterStop  = "/gopro/camera/shutter/stop"
)

// ShutterStart triggers recording or a still capture, depending on the
// preset the camera is currently in.
func (c *Client) ShutterStart(ctx context.Context) error {
	_, err := c.invoke(ctx, pathShutterStart, nil)
	return err
}

func (c *Client) ShutterStop(ctx context.Context) error {
	_, err := c.invoke(ctx, pathShutterStop, nil)
	return err
}
