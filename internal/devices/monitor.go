package devices

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/capturenode/internal/logging"
	"github.com/smazurov/capturenode/internal/metrics"
)

// DefaultRefreshInterval is how often the monitor re-enumerates when no
// hotplug notification arrives first.
const DefaultRefreshInterval = 30 * time.Second

// Broadcaster receives device change notifications from the monitor.
// Implemented by the API server to fan changes out to SSE clients.
type Broadcaster interface {
	// DeviceChanged reports a single device that was added, removed, or
	// changed between passes. Action is "added", "removed", or "changed".
	DeviceChanged(action string, device CaptureDevice, timestamp string)

	// DevicesRefreshed reports the full device list after a pass.
	DevicesRefreshed(devices []CaptureDevice, elapsed time.Duration, timestamp string)

	// EnumerationFailed reports a pass that could not complete.
	EnumerationFailed(err error, timestamp string)
}

// Monitor keeps a live view of the host's capture devices. It re-enumerates
// on a fixed interval and immediately after hotplug notifications, diffs the
// result against the previous pass, and reports changes to the broadcaster.
type Monitor struct {
	enum        *Enumerator
	broadcaster Broadcaster
	interval    time.Duration
	logger      *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	ctx    context.Context
	known  map[string]CaptureDevice
	order  []string
	wg     sync.WaitGroup
}

// NewMonitor creates a monitor around the given enumerator. The broadcaster
// may be nil; the monitor then only maintains its snapshot and metrics.
// A non-positive interval selects DefaultRefreshInterval.
func NewMonitor(enum *Enumerator, broadcaster Broadcaster, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Monitor{
		enum:        enum,
		broadcaster: broadcaster,
		interval:    interval,
		logger:      logging.GetLogger("monitor"),
		known:       make(map[string]CaptureDevice),
	}
}

// Start runs the initial enumeration pass and launches the periodic and
// hotplug watchers. It returns the initial pass's error, but the watchers
// keep running either way so a transient failure heals on the next pass.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return nil
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	_, err := m.Refresh("startup")

	m.wg.Add(1)
	go m.runPeriodic()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.watchHotplug(m.ctx)
	}()

	return err
}

// Stop cancels the watchers and waits for them to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
}

// Snapshot returns the devices found by the most recent successful pass,
// in first-discovery order.
func (m *Monitor) Snapshot() []CaptureDevice {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]CaptureDevice, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.known[key])
	}
	return out
}

// Refresh runs one enumeration pass now and reports what changed.
// Trigger labels the pass for logging and metrics: "startup", "scheduled",
// "hotplug", or "forced". Every pass carries a correlation ID so its log
// lines can be tied together.
func (m *Monitor) Refresh(trigger string) ([]CaptureDevice, error) {
	passLogger := m.logger.With("pass_id", uuid.NewString(), "trigger", trigger)

	start := time.Now()
	found, err := m.enum.Enumerate()
	elapsed := time.Since(start)
	timestamp := time.Now().Format(time.RFC3339)

	if err != nil {
		// A missing or empty device category means no devices, not a
		// broken pass: fold it into an empty snapshot so removals of
		// the last device are still reported.
		if !IsNoDevices(err) {
			passLogger.Error("Enumeration pass failed", "error", err)
			metrics.RecordEnumerationFailure(errorCode(err))
			if m.broadcaster != nil {
				m.broadcaster.EnumerationFailed(err, timestamp)
			}
			return nil, err
		}
		found = nil
	}

	m.applyPass(found, trigger, elapsed, timestamp, passLogger)
	return found, nil
}

// applyPass diffs a pass result against the previous snapshot, updates the
// snapshot, and notifies the broadcaster.
func (m *Monitor) applyPass(found []CaptureDevice, trigger string, elapsed time.Duration, timestamp string, passLogger *slog.Logger) {
	m.mu.Lock()

	current := make(map[string]CaptureDevice, len(found))
	currentOrder := make([]string, 0, len(found))
	for _, device := range found {
		key := deviceKey(device)
		if _, dup := current[key]; dup {
			continue
		}
		current[key] = device
		currentOrder = append(currentOrder, key)
	}

	var added, changed, removed []CaptureDevice

	for _, key := range m.order {
		if _, exists := current[key]; !exists {
			removed = append(removed, m.known[key])
			metrics.DeleteDeviceModes(key)
		}
	}

	for _, key := range currentOrder {
		device := current[key]
		old, exists := m.known[key]
		switch {
		case !exists:
			added = append(added, device)
		case !sameDevice(old, device):
			changed = append(changed, device)
		}
		metrics.SetDeviceModes(key, len(device.Resolutions))
	}

	m.known = current
	m.order = currentOrder
	m.mu.Unlock()

	metrics.RecordEnumeration(trigger, len(found), elapsed.Seconds())

	for _, device := range removed {
		passLogger.Info("Device removed", "name", device.Name, "description", device.Description)
	}
	for _, device := range added {
		passLogger.Info("Device added", "name", device.Name, "description", device.Description,
			"resolutions", len(device.Resolutions))
	}
	for _, device := range changed {
		passLogger.Info("Device changed", "name", device.Name, "description", device.Description)
	}

	if m.broadcaster != nil {
		for _, device := range removed {
			m.broadcaster.DeviceChanged("removed", device, timestamp)
		}
		for _, device := range added {
			m.broadcaster.DeviceChanged("added", device, timestamp)
		}
		for _, device := range changed {
			m.broadcaster.DeviceChanged("changed", device, timestamp)
		}
		m.broadcaster.DevicesRefreshed(found, elapsed, timestamp)
	}
}

func (m *Monitor) runPeriodic() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			_, _ = m.Refresh("scheduled")
		}
	}
}

// deviceKey identifies a device across passes. The stable name is preferred;
// platforms that report no name fall back to the description.
func deviceKey(d CaptureDevice) string {
	if d.Name != "" {
		return d.Name
	}
	return "description:" + d.Description
}

// sameDevice reports whether two passes saw the same device state.
func sameDevice(a, b CaptureDevice) bool {
	if a.Name != b.Name || a.Description != b.Description {
		return false
	}
	if len(a.Resolutions) != len(b.Resolutions) {
		return false
	}
	for i := range a.Resolutions {
		if a.Resolutions[i] != b.Resolutions[i] {
			return false
		}
	}
	return true
}

// errorCode extracts the machine-readable code from an enumeration error.
func errorCode(err error) string {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code
	}
	return "UNKNOWN"
}
