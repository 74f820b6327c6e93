package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/NPetersenDK/goprocam/internal"
	"github.com/NPetersenDK/goprocam/pkg/control"
)

func ShutterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shutter",
		Short: "Shutter operations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Trigger the shutter (record / still, depending on preset)",
			RunE: func(cmd *cobra.Command, args []string) error {
				client, _, err := newControlClient(cmd)
				if err != nil {
					return err
				}
				if err := client.ShutterStart(cmd.Context()); err != nil {
					return err
				}
				internal.Info("shutter started", nil)
				return nil
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Release the shutter",
			RunE: func(cmd *cobra.Command, args []string) error {
				client, _, err := newControlClient(cmd)
				if err != nil {
					return err
				}
				if err := client.ShutterStop(cmd.Context()); err != nil {
					return err
				}
				internal.Info("shutter stopped", nil)
				return nil
			},
		},
	)
	return cmd
}

func UsbCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usb",
		Short: "Wired USB control",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "on",
			Short: "Enable wired USB control (refused while webcam mode is active)",
			RunE: func(cmd *cobra.Command, args []string) error {
				client, _, err := newControlClient(cmd)
				if err != nil {
					return err
				}
				if err := client.EnableWiredUSB(cmd.Context()); err != nil {
					return err
				}
				internal.Info("wired usb enabled", nil)
				return nil
			},
		},
		&cobra.Command{
			Use:   "off",
			Short: "Disable wired USB control",
			RunE: func(cmd *cobra.Command, args []string) error {
				client, _, err := newControlClient(cmd)
				if err != nil {
					return err
				}
				if err := client.DisableWiredUSB(cmd.Context()); err != nil {
					return err
				}
				internal.Info("wired usb disabled", nil)
				return nil
			},
		},
	)
	return cmd
}

func KeepAliveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keepalive",
		Short: "Ping the camera on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, cfg, err := newControlClient(cmd)
			if err != nil {
				return err
			}

			interval := time.Duration(cfg.KeepAliveIntervalMs) * time.Millisecond
			internal.Info("keep alive running, interrupt to stop", internal.Fields{
				internal.FieldCamera:   client.Endpoint().String(),
				internal.FieldInterval: interval.String(),
			})

			service := control.NewKeepAliveService(client, interval, keepAliveThreshold(cfg.KeepAliveErrorCount))
			service.StartPulse(ctx)
			defer service.StopPulse()

			<-ctx.Done()
			return nil
		},
	}
}
