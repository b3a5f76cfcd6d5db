package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smazurov/capturenode/internal/devices"
	"github.com/smazurov/capturenode/internal/logging"
	"github.com/spf13/cobra"
)

// CreateWatchCmd creates the watch command.
func CreateWatchCmd() *cobra.Command {
	var interval time.Duration
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch for device changes",
		Long: `Monitors the host's video capture devices, printing a line whenever a ` +
			`device appears, disappears, or changes its advertised capture modes. ` +
			`Re-enumerates on hotplug notifications and on a fixed interval.`,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := logging.Config{Level: "warn", Format: "text"}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)

			enum := devices.NewEnumerator()
			monitor := devices.NewMonitor(enum, &printingBroadcaster{}, interval)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// The initial pass reports every present device as "added".
			// A failure here is not fatal; the next pass retries.
			if err := monitor.Start(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Initial enumeration failed: %v\n", err)
			}

			<-ctx.Done()
			monitor.Stop()
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", devices.DefaultRefreshInterval,
		"Periodic re-enumeration interval")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}

// printingBroadcaster writes device changes to stdout, one line per change.
type printingBroadcaster struct{}

func (*printingBroadcaster) DeviceChanged(action string, device devices.CaptureDevice, timestamp string) {
	fmt.Printf("%s  %-8s %s (%d modes)\n", timestamp, action, deviceLabel(device), len(device.Resolutions))
}

func (*printingBroadcaster) DevicesRefreshed(_ []devices.CaptureDevice, _ time.Duration, _ string) {
	// Quiet: the per-device lines carry the signal.
}

func (*printingBroadcaster) EnumerationFailed(err error, timestamp string) {
	fmt.Fprintf(os.Stderr, "%s  enumeration failed: %v\n", timestamp, err)
}
