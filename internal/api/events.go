package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/capturenode/internal/devices"
	"github.com/smazurov/capturenode/internal/events"
)

// EventPublisher forwards device monitoring callbacks onto the event bus,
// converting enumeration records into their API shapes. It is the
// devices.Broadcaster handed to the monitor.
type EventPublisher struct {
	bus *events.Bus
}

// NewEventPublisher creates a publisher bound to the given bus.
func NewEventPublisher(bus *events.Bus) *EventPublisher {
	return &EventPublisher{bus: bus}
}

// DeviceChanged publishes a single device addition, removal, or change.
func (p *EventPublisher) DeviceChanged(action string, device devices.CaptureDevice, timestamp string) {
	p.bus.Publish(events.DeviceDiscoveryEvent{
		Device:    deviceToModel(device),
		Action:    action,
		Timestamp: timestamp,
	})
}

// DevicesRefreshed publishes the full device list of a completed pass.
func (p *EventPublisher) DevicesRefreshed(devs []devices.CaptureDevice, elapsed time.Duration, timestamp string) {
	apiDevices := devicesToModels(devs)
	p.bus.Publish(events.DevicesRefreshedEvent{
		Devices:    apiDevices,
		Count:      len(apiDevices),
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  timestamp,
	})
}

// EnumerationFailed publishes a failed pass with its machine-readable code.
func (p *EventPublisher) EnumerationFailed(err error, timestamp string) {
	code := "UNKNOWN"
	message := err.Error()
	var derr *devices.Error
	if errors.As(err, &derr) {
		code = derr.Code
		message = derr.Message
	}
	p.bus.Publish(events.EnumerationFailedEvent{
		Code:      code,
		Message:   message,
		Timestamp: timestamp,
	})
}

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	// Register SSE endpoint with event type mapping
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for device changes, enumeration passes, and failures",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"device-discovery":   events.DeviceDiscoveryEvent{},
		"devices-refreshed":  events.DevicesRefreshedEvent{},
		"enumeration-failed": events.EnumerationFailedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Create event channel for this connection
		eventCh := make(chan any, 10)

		// Subscribe to all event types using event bus
		unsubscribers := []func(){
			events.SubscribeToChannel[events.DeviceDiscoveryEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.DevicesRefreshedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.EnumerationFailedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Open with the current snapshot so clients start from known state
		apiDevices := devicesToModels(s.monitor.Snapshot())
		if err := send.Data(events.DevicesRefreshedEvent{
			Devices:   apiDevices,
			Count:     len(apiDevices),
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		// Keep connection alive and forward events
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				// Send event using Huma's SSE sender with error handling
				if err := send.Data(event); err != nil {
					// Connection failed, clean up and exit
					return
				}
			}
		}
	})
}
