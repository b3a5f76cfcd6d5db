//go:build linux

package devices

import (
	"context"
	"errors"
	"time"

	"github.com/smazurov/capturenode/internal/metrics"
	"github.com/smazurov/capturenode/pkg/linuxav/hotplug"
)

// hotplugSettleDelay gives the kernel time to create the video4linux nodes
// that follow a USB add event before the monitor re-enumerates.
const hotplugSettleDelay = 1 * time.Second

// watchHotplug re-enumerates whenever the kernel reports a capture-relevant
// device coming or going. Errors are logged and the watcher exits; the
// periodic pass keeps the snapshot converging without it.
func (m *Monitor) watchHotplug(ctx context.Context) {
	mon, err := hotplug.NewMonitor()
	if err != nil {
		m.logger.Warn("Hotplug monitoring unavailable, relying on periodic passes", "error", err)
		return
	}
	defer mon.Close()

	mon.AddSubsystemFilter(hotplug.SubsystemVideo4Linux)
	mon.AddSubsystemFilter(hotplug.SubsystemUSB)

	eventCh := make(chan hotplug.Event, 16)

	runErr := make(chan error, 1)
	go func() {
		runErr <- mon.Run(ctx, eventCh)
	}()

	m.logger.Info("Hotplug monitoring started")

	for {
		select {
		case <-ctx.Done():
			<-runErr
			return
		case ev, ok := <-eventCh:
			if !ok {
				if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
					m.logger.Error("Hotplug monitor stopped", "error", err)
				}
				return
			}
			if ev.Action != hotplug.ActionAdd && ev.Action != hotplug.ActionRemove {
				continue
			}

			m.logger.Debug("Hotplug event", "action", ev.Action, "subsystem", ev.Subsystem, "device", ev.DevName)
			metrics.RecordHotplugEvent(ev.Action)

			if ev.Action == hotplug.ActionAdd {
				select {
				case <-ctx.Done():
					<-runErr
					return
				case <-time.After(hotplugSettleDelay):
				}
				drainHotplug(eventCh)
			}

			_, _ = m.Refresh("hotplug")
		}
	}
}

// drainHotplug discards events queued while the settle delay ran so one
// physical plug does not trigger a burst of passes.
func drainHotplug(eventCh <-chan hotplug.Event) {
	for {
		select {
		case _, ok := <-eventCh:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
