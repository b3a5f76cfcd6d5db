// Package metrics provides Prometheus metrics for device enumeration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	devicesPresent = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "capturenode",
		Subsystem: "devices",
		Name:      "present",
		Help:      "Video capture devices found by the most recent enumeration pass",
	})

	deviceModes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "capturenode",
		Subsystem: "devices",
		Name:      "capture_modes",
		Help:      "Distinct capture modes reported by a device",
	}, []string{"device"})

	enumerationPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "capturenode",
		Subsystem: "devices",
		Name:      "enumeration_passes_total",
		Help:      "Completed enumeration passes by trigger",
	}, []string{"trigger"})

	enumerationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "capturenode",
		Subsystem: "devices",
		Name:      "enumeration_failures_total",
		Help:      "Failed enumeration passes by failure code",
	}, []string{"code"})

	enumerationDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "capturenode",
		Subsystem: "devices",
		Name:      "enumeration_duration_seconds",
		Help:      "Wall time of the most recent enumeration pass",
	})

	hotplugEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "capturenode",
		Subsystem: "hotplug",
		Name:      "events_total",
		Help:      "Device hotplug notifications by action",
	}, []string{"action"})
)

// RecordEnumeration records a completed enumeration pass.
func RecordEnumeration(trigger string, deviceCount int, seconds float64) {
	enumerationPasses.WithLabelValues(trigger).Inc()
	devicesPresent.Set(float64(deviceCount))
	enumerationDuration.Set(seconds)
}

// RecordEnumerationFailure records a failed enumeration pass.
func RecordEnumerationFailure(code string) {
	enumerationFailures.WithLabelValues(code).Inc()
}

// SetDeviceModes sets the number of capture modes reported by a device.
func SetDeviceModes(device string, modes int) {
	deviceModes.WithLabelValues(device).Set(float64(modes))
}

// DeleteDeviceModes removes the capture mode gauge for a device.
func DeleteDeviceModes(device string) {
	deviceModes.DeleteLabelValues(device)
}

// RecordHotplugEvent records a device hotplug notification.
func RecordHotplugEvent(action string) {
	hotplugEvents.WithLabelValues(action).Inc()
}
