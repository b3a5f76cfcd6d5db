package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/capturenode/internal/api/models"
	"github.com/smazurov/capturenode/internal/devices"
)

// deviceToModel converts an enumerated device into its API shape.
func deviceToModel(d devices.CaptureDevice) models.Device {
	resolutions := make([]models.Resolution, len(d.Resolutions))
	for i, r := range d.Resolutions {
		resolutions[i] = models.Resolution{
			Width:     r.Width,
			Height:    r.Height,
			FrameRate: r.FrameRate,
		}
	}

	var position *string
	if d.Position != nil {
		p := string(*d.Position)
		position = &p
	}

	return models.Device{
		Name:        d.Name,
		Description: d.Description,
		Orientation: d.Orientation,
		Position:    position,
		Resolutions: resolutions,
	}
}

// devicesToModels converts a pass result, never returning a nil slice so
// the JSON devices field is always an array.
func devicesToModels(devs []devices.CaptureDevice) []models.Device {
	out := make([]models.Device, len(devs))
	for i, d := range devs {
		out[i] = deviceToModel(d)
	}
	return out
}

// registerDeviceRoutes registers all device-related endpoints
func (s *Server) registerDeviceRoutes() {
	// List all devices
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Devices",
		Description: "Enumerate all available video capture devices with their supported capture modes",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, input *struct{}) (*models.DeviceResponse, error) {
		found, err := s.enum.Enumerate()
		if err != nil {
			// A machine with zero cameras is a normal state for this
			// endpoint, not a server error.
			if !devices.IsNoDevices(err) {
				return nil, huma.Error500InternalServerError("Failed to enumerate devices", err)
			}
			found = nil
		}

		apiDevices := devicesToModels(found)
		return &models.DeviceResponse{
			Body: models.DeviceData{
				Devices: apiDevices,
				Count:   len(apiDevices),
			},
		}, nil
	})

	// Force an enumeration pass through the monitor
	huma.Register(s.api, huma.Operation{
		OperationID: "refresh-devices",
		Method:      http.MethodPost,
		Path:        "/api/devices/refresh",
		Summary:     "Refresh Devices",
		Description: "Run an enumeration pass now. Changes against the previous pass are broadcast as SSE events.",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, input *struct{}) (*models.RefreshResponse, error) {
		start := time.Now()
		found, err := s.monitor.Refresh("forced")
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to refresh devices", err)
		}

		apiDevices := devicesToModels(found)
		return &models.RefreshResponse{
			Body: models.RefreshData{
				Devices:    apiDevices,
				Count:      len(apiDevices),
				DurationMs: time.Since(start).Milliseconds(),
			},
		}, nil
	})
}
