package cli

import (
	"github.com/spf13/cobra"

	"github.com/NPetersenDK/goprocam/cli/output"
	"github.com/NPetersenDK/goprocam/internal"
)

func WebcamCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "webcam",
		Aliases: []string{"w"},
		Short:   "Webcam mode operations",
		Long:    "start, stop and query the camera's webcam mode.",
	}
	cmd.AddCommand(webcamStart(), webcamStop(), webcamExit(), webcamStatus(), webcamPreview())
	return cmd
}

func webcamStart() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Put the camera into webcam mode and start streaming",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := newControlClient(cmd)
			if err != nil {
				return err
			}
			streamPort := cfg.StreamPort
			if cmd.Flags().Changed("port") {
				streamPort = port
			}
			if err := client.WebcamStart(cmd.Context(), streamPort); err != nil {
				return err
			}
			internal.Info("webcam started", internal.Fields{
				internal.FieldCamera: client.Endpoint().String(),
				internal.FieldPort:   streamPort,
			})
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "UDP port the camera should stream to (default from config)")
	return cmd
}

func webcamStop() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the webcam stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newControlClient(cmd)
			if err != nil {
				return err
			}
			if err := client.WebcamStop(cmd.Context()); err != nil {
				return err
			}
			internal.Info("webcam stopped", nil)
			return nil
		},
	}
}

func webcamExit() *cobra.Command {
	return &cobra.Command{
		Use:   "exit",
		Short: "Leave webcam mode entirely",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newControlClient(cmd)
			if err != nil {
				return err
			}
			if err := client.WebcamExit(cmd.Context()); err != nil {
				return err
			}
			internal.Info("webcam mode exited", nil)
			return nil
		},
	}
}

func webcamStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Query webcam mode status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newControlClient(cmd)
			if err != nil {
				return err
			}
			status, err := client.WebcamStatus(cmd.Context())
			if err != nil {
				return err
			}
			printer := output.NewPrinter()
			printer.Info("webcam status", map[string]any{
				"status": status.Status,
				"error":  status.Error,
				"active": status.Active(),
			})
			return nil
		},
	}
}

func webcamPreview() *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Start the low-power preview stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := newControlClient(cmd)
			if err != nil {
				return err
			}
			if err := client.WebcamPreview(cmd.Context()); err != nil {
				return err
			}
			internal.Info("webcam preview started", nil)
			return nil
		},
	}
}
