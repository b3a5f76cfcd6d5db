package events

import "github.com/smazurov/capturenode/internal/api/models"

// Event type constants for kelindar/event.
const (
	TypeDeviceDiscovery uint32 = iota + 1
	TypeDevicesRefreshed
	TypeEnumerationFailed
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// DeviceDiscoveryEvent represents a single device appearing, disappearing,
// or changing between enumeration passes.
type DeviceDiscoveryEvent struct {
	models.Device
	Action    string `json:"action" example:"added" doc:"Action type: added, removed, changed"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceDiscoveryEvent.
func (e DeviceDiscoveryEvent) Type() uint32 { return TypeDeviceDiscovery }

// DevicesRefreshedEvent carries the full device list produced by an
// enumeration pass, whether scheduled, hotplug-triggered, or forced.
type DevicesRefreshedEvent struct {
	Devices    []models.Device `json:"devices" doc:"Devices found by the pass"`
	Count      int             `json:"count" example:"2" doc:"Number of devices found"`
	DurationMs int64           `json:"duration_ms" example:"48" doc:"Wall time of the pass in milliseconds"`
	Timestamp  string          `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DevicesRefreshedEvent.
func (e DevicesRefreshedEvent) Type() uint32 { return TypeDevicesRefreshed }

// EnumerationFailedEvent is published when an enumeration pass fails.
type EnumerationFailedEvent struct {
	Code      string `json:"code" example:"ACTIVATION_FAILED" doc:"Machine-readable failure code"`
	Message   string `json:"message" example:"bind enumeration backend" doc:"Human-readable failure description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for EnumerationFailedEvent.
func (e EnumerationFailedEvent) Type() uint32 { return TypeEnumerationFailed }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
