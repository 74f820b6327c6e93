package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/NPetersenDK/goprocam/internal"
	"github.com/NPetersenDK/goprocam/pkg/control"
)

type ctxKey string

const appCtxKey ctxKey = "appData"

func NewRootCommand() *cobra.Command {
	var appConfigPath string
	var cameraHostFlag string
	var cameraPortFlag int

	rootCmd := &cobra.Command{
		Use:   "goprocam",
		Short: "goprocam controls a networked action camera and captures its UDP stream",
		Long:  `goprocam talks to a camera's HTTP command surface (webcam mode, presets, shutter, wired USB) and can persist the camera's UDP media stream to a local file with live progress reporting.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.LoadAppConfig(appConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load app config: %w", err)
			}

			applyFlagOverrides(cmd.Flags(), cfg, cameraHostFlag, cameraPortFlag)

			if err := internal.ConfigureLogger(cfg.LogLevel); err != nil {
				internal.Warn("invalid log level in app config, defaulting to info", internal.Fields{
					internal.FieldError: err.Error(),
				})
			}

			ctx := context.WithValue(cmd.Context(), appCtxKey, cfg)
			cmd.SetContext(ctx)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&appConfigPath, "app-config", "", "Path to app config file (TOML)")
	rootCmd.PersistentFlags().StringVar(&cameraHostFlag, "camera-ip", "", "Camera IP address (overrides config)")
	rootCmd.PersistentFlags().IntVar(&cameraPortFlag, "camera-port", 0, "Camera HTTP control port (overrides config)")

	// Subcommands pull config back out of cmd.Context().
	rootCmd.AddCommand(WebcamCommand())
	rootCmd.AddCommand(PresetCommand())
	rootCmd.AddCommand(ShutterCommand())
	rootCmd.AddCommand(UsbCommand())
	rootCmd.AddCommand(KeepAliveCommand())
	rootCmd.AddCommand(CaptureCommand())

	return rootCmd
}

func applyFlagOverrides(flags *pflag.FlagSet, cfg *internal.AppConfig, host string, port int) {
	if f := flags.Lookup("camera-ip"); f != nil && f.Changed && host != "" {
		cfg.CameraHost = host
	}
	if f := flags.Lookup("camera-port"); f != nil && f.Changed && port > 0 {
		cfg.CameraPort = port
	}
}

// GetAppConfig pulls the loaded config out of the command context.
func GetAppConfig(cmd *cobra.Command) *internal.AppConfig {
	if v := cmd.Context().Value(appCtxKey); v != nil {
		if data, ok := v.(*internal.AppConfig); ok {
			return data
		}
	}
	return nil
}

// keepAliveThreshold converts the configured give-up count for the
// keep-alive service. Non-positive values yield zero so the service
// applies its own default instead of a wrapped-around huge threshold.
func keepAliveThreshold(count int) uint {
	if count <= 0 {
		return 0
	}
	return uint(count)
}

func newControlClient(cmd *cobra.Command) (*control.Client, *internal.AppConfig, error) {
	cfg := GetAppConfig(cmd)
	if cfg == nil {
		return nil, nil, fmt.Errorf("app config missing from command context")
	}
	endpoint := control.Endpoint{Host: cfg.CameraHost, Port: cfg.CameraPort}
	client, err := control.NewClient(endpoint, time.Duration(cfg.CommandTimeoutMs)*time.Millisecond)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}
