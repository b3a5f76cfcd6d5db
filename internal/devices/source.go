package devices

import "errors"

// Property keys understood by DeviceHandle.Property. They follow the
// DirectShow property-bag vocabulary; other platforms map them onto their
// closest native field.
const (
	PropDescription  = "Description"
	PropFriendlyName = "FriendlyName"
	PropDevicePath   = "DevicePath"
)

// ErrNoCategory signals that the platform has no video capture device
// category at all. It is distinct from a category that enumerates zero
// devices, which platforms report as an immediately exhausted DeviceIter.
var ErrNoCategory = errors.New("video capture device category is missing")

// Source is one platform enumeration session. A Source is good for a
// single pass: open, walk, close. Sessions are not assumed reentrant, so
// the enumerator serializes passes at its own boundary.
type Source interface {
	// Devices opens the platform's capture device category. Ordering is
	// platform-defined and must match the platform's own open-by-index
	// numbering, because consumers address devices by position.
	Devices() (DeviceIter, error)
	// Close releases the session. Must be called on every exit path.
	Close()
}

// DeviceIter is a lazy, finite, non-restartable walk over device handles.
type DeviceIter interface {
	// Next yields the next device. ok is false once the category is
	// exhausted. A hard failure from the platform propagates as err and
	// is never folded into exhaustion.
	Next() (DeviceHandle, bool, error)
	Close()
}

// DeviceHandle names one device and lends access to its metadata and pins.
type DeviceHandle interface {
	// Property reads a string-valued metadata field. A missing field is
	// an error; the caller decides which fields have fallbacks.
	Property(key string) (string, error)
	// Pins binds the device and opens a walk over its connection points.
	Pins() (PinIter, error)
	Close()
}

// PinIter walks the connection points of one device.
type PinIter interface {
	Next() (Pin, bool, error)
	Close()
}

// Pin is one connection point. Only output pins advertise capture formats.
type Pin interface {
	Output() (bool, error)
	Formats() (FormatIter, error)
	Close()
}

// FormatIter walks the raw format descriptors of one pin.
type FormatIter interface {
	Next() (RawFormat, bool, error)
	Close()
}

// RawFormat is one format descriptor reduced to the fields enumeration
// cares about, before interpretation.
type RawFormat struct {
	// Recognized is false when the descriptor's shape is not one of the
	// known video layouts. Unrecognized descriptors are skipped, never
	// errors.
	Recognized bool
	// Interval is the nominal frame interval in 100-nanosecond ticks.
	Interval int64
	// Width and Height are the signed bitmap dimensions. A negative
	// height encodes row order and is normalized away during
	// interpretation.
	Width  int32
	Height int32
}
