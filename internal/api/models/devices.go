package models

// Resolution represents a capture mode with snake_case fields.
type Resolution struct {
	Width     uint32  `json:"width" example:"1920" doc:"Frame width in pixels"`
	Height    uint32  `json:"height" example:"1080" doc:"Frame height in pixels"`
	FrameRate float64 `json:"frame_rate" example:"30.0" doc:"Frames per second, rounded to two decimals"`
}

// Device represents a video capture device as reported by enumeration.
// Orientation and Position are null on every supported platform; the
// fields exist so the payload shape matches clients that expect them.
type Device struct {
	Name        string       `json:"name" example:"usb-0000:00:14.0-1" doc:"Stable system identifier, empty when the platform does not expose one"`
	Description string       `json:"description" example:"USB Camera" doc:"Human-readable device description"`
	Orientation *int         `json:"orientation,omitempty" example:"90" doc:"Sensor orientation in degrees, absent when unknown"`
	Position    *string      `json:"position,omitempty" example:"front" doc:"Mounting position, absent when unknown"`
	Resolutions []Resolution `json:"resolutions" doc:"Supported capture modes, highest throughput first"`
}

// Device API response models
type DeviceData struct {
	Devices []Device `json:"devices" doc:"List of available video capture devices"`
	Count   int      `json:"count" example:"2" doc:"Number of devices found"`
}

type DeviceResponse struct {
	Body DeviceData
}

// RefreshData reports the outcome of a forced enumeration pass.
type RefreshData struct {
	Devices    []Device `json:"devices" doc:"Devices found by the refresh pass"`
	Count      int      `json:"count" example:"2" doc:"Number of devices found"`
	DurationMs int64    `json:"duration_ms" example:"48" doc:"Wall time of the pass in milliseconds"`
}

type RefreshResponse struct {
	Body RefreshData
}
