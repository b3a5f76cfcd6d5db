package api

import (
	"errors"
	"testing"
	"time"

	"github.com/smazurov/capturenode/internal/devices"
	"github.com/smazurov/capturenode/internal/events"
)

func TestEventPublisherDeviceChanged(t *testing.T) {
	bus := events.New()
	publisher := NewEventPublisher(bus)

	received := make(chan events.DeviceDiscoveryEvent, 1)
	unsub := bus.Subscribe(func(e events.DeviceDiscoveryEvent) {
		received <- e
	})
	defer unsub()

	device := testCamera("usb-0000:00:14.0-1", "USB Camera", 30)
	publisher.DeviceChanged("added", device, "2025-01-27T10:30:00Z")

	select {
	case got := <-received:
		if got.Name != "usb-0000:00:14.0-1" {
			t.Errorf("Expected device name preserved, got %q", got.Name)
		}
		if got.Description != "USB Camera" {
			t.Errorf("Expected description preserved, got %q", got.Description)
		}
		if got.Action != "added" {
			t.Errorf("Expected action added, got %q", got.Action)
		}
		if got.Timestamp != "2025-01-27T10:30:00Z" {
			t.Errorf("Expected timestamp preserved, got %q", got.Timestamp)
		}
		if len(got.Resolutions) != 1 || got.Resolutions[0].FrameRate != 30 {
			t.Errorf("Expected converted resolutions, got %+v", got.Resolutions)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Did not receive device discovery event")
	}
}

func TestEventPublisherDevicesRefreshed(t *testing.T) {
	bus := events.New()
	publisher := NewEventPublisher(bus)

	received := make(chan events.DevicesRefreshedEvent, 1)
	unsub := bus.Subscribe(func(e events.DevicesRefreshedEvent) {
		received <- e
	})
	defer unsub()

	found := []devices.CaptureDevice{
		testCamera("cam0", "Camera Zero", 60),
		testCamera("cam1", "Camera One", 30),
	}
	publisher.DevicesRefreshed(found, 250*time.Millisecond, "2025-01-27T10:30:00Z")

	select {
	case got := <-received:
		if got.Count != 2 || len(got.Devices) != 2 {
			t.Errorf("Expected 2 devices, got count=%d len=%d", got.Count, len(got.Devices))
		}
		if got.DurationMs != 250 {
			t.Errorf("Expected duration 250ms, got %d", got.DurationMs)
		}
		if got.Devices[0].Description != "Camera Zero" {
			t.Errorf("Expected device order preserved, got %+v", got.Devices)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Did not receive devices refreshed event")
	}
}

func TestEventPublisherDevicesRefreshedEmpty(t *testing.T) {
	bus := events.New()
	publisher := NewEventPublisher(bus)

	received := make(chan events.DevicesRefreshedEvent, 1)
	unsub := bus.Subscribe(func(e events.DevicesRefreshedEvent) {
		received <- e
	})
	defer unsub()

	publisher.DevicesRefreshed(nil, 0, "2025-01-27T10:30:00Z")

	select {
	case got := <-received:
		if got.Count != 0 {
			t.Errorf("Expected count 0, got %d", got.Count)
		}
		if got.Devices == nil {
			t.Error("Devices should serialize as an empty array, not null")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Did not receive devices refreshed event")
	}
}

func TestEventPublisherEnumerationFailed(t *testing.T) {
	bus := events.New()
	publisher := NewEventPublisher(bus)

	received := make(chan events.EnumerationFailedEvent, 1)
	unsub := bus.Subscribe(func(e events.EnumerationFailedEvent) {
		received <- e
	})
	defer unsub()

	cause := &devices.Error{
		Code:    devices.ErrCodeActivationFailed,
		Message: "open enumeration session",
	}
	publisher.EnumerationFailed(cause, "2025-01-27T10:30:00Z")

	select {
	case got := <-received:
		if got.Code != devices.ErrCodeActivationFailed {
			t.Errorf("Expected failure code extracted, got %q", got.Code)
		}
		if got.Message != "open enumeration session" {
			t.Errorf("Expected failure message extracted, got %q", got.Message)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Did not receive enumeration failed event")
	}
}

func TestEventPublisherEnumerationFailedUnknownError(t *testing.T) {
	bus := events.New()
	publisher := NewEventPublisher(bus)

	received := make(chan events.EnumerationFailedEvent, 1)
	unsub := bus.Subscribe(func(e events.EnumerationFailedEvent) {
		received <- e
	})
	defer unsub()

	publisher.EnumerationFailed(errors.New("socket closed"), "2025-01-27T10:30:00Z")

	select {
	case got := <-received:
		if got.Code != "UNKNOWN" {
			t.Errorf("Expected UNKNOWN code for untyped error, got %q", got.Code)
		}
		if got.Message != "socket closed" {
			t.Errorf("Expected raw error message, got %q", got.Message)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Did not receive enumeration failed event")
	}
}

func TestDeviceToModelConversion(t *testing.T) {
	orientation := 90
	position := devices.PositionFront
	device := devices.CaptureDevice{
		Name:        "cam",
		Description: "Camera",
		Orientation: &orientation,
		Position:    &position,
		Resolutions: []devices.Resolution{devices.NewResolution(1280, 720, 29.97)},
	}

	model := deviceToModel(device)
	if model.Orientation == nil || *model.Orientation != 90 {
		t.Errorf("Expected orientation carried over, got %v", model.Orientation)
	}
	if model.Position == nil || *model.Position != "front" {
		t.Errorf("Expected position carried over as string, got %v", model.Position)
	}
	if len(model.Resolutions) != 1 {
		t.Fatalf("Expected 1 resolution, got %d", len(model.Resolutions))
	}
	if model.Resolutions[0].Width != 1280 || model.Resolutions[0].FrameRate != 29.97 {
		t.Errorf("Expected resolution fields preserved, got %+v", model.Resolutions[0])
	}
}

func TestDevicesToModelsNeverNil(t *testing.T) {
	if devicesToModels(nil) == nil {
		t.Error("Conversion of nil slice should produce an empty slice")
	}
	if got := devicesToModels([]devices.CaptureDevice{}); got == nil || len(got) != 0 {
		t.Errorf("Conversion of empty slice should stay empty, got %v", got)
	}
}
