package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/NPetersenDK/goprocam/cli/output"
	"github.com/NPetersenDK/goprocam/internal"
	"github.com/NPetersenDK/goprocam/pkg/capture"
	"github.com/NPetersenDK/goprocam/pkg/control"
	"github.com/NPetersenDK/goprocam/pkg/metrics"
	"github.com/NPetersenDK/goprocam/pkg/telemetry"
)

type captureOpts struct {
	port        int
	outputPath  string
	metricsAddr string
	noWebcam    bool
	quiet       bool
}

func CaptureCommand() *cobra.Command {
	var opts captureOpts

	cmd := &cobra.Command{
		Use:     "capture",
		Aliases: []string{"c", "rec"},
		Short:   "Capture the camera's UDP stream to a file",
		Long:    "starts webcam mode on the camera, drains the UDP stream into a local file until interrupted, and prints final accounting.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, cfg, err := newControlClient(cmd)
			if err != nil {
				return err
			}

			port := cfg.StreamPort
			if cmd.Flags().Changed("port") {
				port = opts.port
			}
			outputPath := opts.outputPath
			if outputPath == "" {
				if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
				outputPath = filepath.Join(cfg.OutputDir,
					fmt.Sprintf("capture-%s.ts", time.Now().Format("20060102-150405")))
			}

			if !opts.noWebcam {
				if err := client.WebcamStart(ctx, port); err != nil {
					return err
				}
				defer func() {
					if err := client.WebcamStop(cmd.Context()); err != nil {
						internal.Warn("webcam stop after capture failed", internal.Fields{
							internal.FieldError: err.Error(),
						})
					}
				}()
			}

			collector := metrics.NewCaptureCollector("")
			session, err := capture.Start(capture.Config{
				Port:        port,
				OutputPath:  outputPath,
				IdleTimeout: time.Duration(cfg.IdleTimeoutMs) * time.Millisecond,
				Observer:    collector,
			})
			if err != nil {
				return err
			}

			if opts.metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
				metricsSrv := &http.Server{Addr: opts.metricsAddr, Handler: mux}
				go func() {
					if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						internal.Warn("metrics endpoint stopped", internal.Fields{
							internal.FieldError: err.Error(),
						})
					}
				}()
				defer metricsSrv.Close()
			}

			keepAlive := control.NewKeepAliveService(client,
				time.Duration(cfg.KeepAliveIntervalMs)*time.Millisecond,
				keepAliveThreshold(cfg.KeepAliveErrorCount))
			keepAlive.StartPulse(ctx)
			defer keepAlive.StopPulse()

			if cfg.MqttBroker != "" {
				publisher, err := telemetry.NewPublisher(cfg.MqttBroker, cfg.ClientUuid, cfg.MqttTopic, 5*time.Second)
				if err != nil {
					internal.Warn("telemetry disabled", internal.Fields{
						internal.FieldError: err.Error(),
					})
				} else {
					publisher.Start(ctx, session.Snapshot)
					defer publisher.Stop()
				}
			}

			if opts.quiet {
				reporter := capture.NewReporter(session.Snapshot, 5*time.Second)
				reporter.Start(ctx)
				defer reporter.Stop()
			} else {
				display := output.NewCaptureDisplay("Capturing "+outputPath, session.Snapshot).
					WithStats(collector.Stats)
				if err := display.Start(ctx); err != nil {
					return err
				}
				defer display.Stop()
			}

			select {
			case <-ctx.Done():
			case <-session.Done():
			}

			final := session.Stop()
			internal.Info("capture finished", internal.Fields{
				internal.FieldSession: final.ID.String(),
				internal.FieldState:   final.State.String(),
				internal.FieldBytes:   final.BytesReceived,
				internal.OutputPath:   outputPath,
			})
			if final.State == capture.StateFailed {
				// Counters stay readable: whatever arrived before the
				// fault is persisted up to the last completed write.
				return fmt.Errorf("capture failed after %s: %w",
					capture.FormatBytes(final.BytesReceived), session.Err())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.port, "port", 0, "Local UDP port to listen on (default from config)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path (default timestamped file in output_dir)")
	cmd.Flags().BoolVar(&opts.noWebcam, "no-webcam", false, "Skip starting webcam mode; just listen for datagrams")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090) for the capture's duration")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "Log periodic summaries instead of the live dashboard")

	return cmd
}
