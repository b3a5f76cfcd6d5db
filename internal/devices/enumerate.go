// Package devices enumerates the host's video capture devices and reports
// each device's identity, description, and advertised capture modes.
//
// The walk is platform-neutral: a Source yields device handles, each handle
// yields pins, output pins yield raw format descriptors, and the enumerator
// folds interpreted descriptors into a ranked, deduplicated resolution
// list. Platform files supply the Source; everything above it is shared.
package devices

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/smazurov/capturenode/internal/logging"
)

// Enumerator runs complete enumeration passes over the platform's capture
// stack. Passes are serialized: the underlying session is not assumed safe
// to hold from two goroutines at once.
type Enumerator struct {
	mu     sync.Mutex
	open   func() (Source, error)
	logger *slog.Logger
}

// NewEnumerator builds an Enumerator backed by this platform's capture
// stack.
func NewEnumerator() *Enumerator {
	return newEnumerator(openSource)
}

func newEnumerator(open func() (Source, error)) *Enumerator {
	return &Enumerator{
		open:   open,
		logger: logging.GetLogger("devices"),
	}
}

// Enumerate performs one pass and returns every capture device in the
// platform's discovery order. The result is all-or-nothing: a failure on
// any device discards everything gathered before it, so a returned list is
// always complete. The session opened for the pass is released on every
// exit path.
func (e *Enumerator) Enumerate() ([]CaptureDevice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	src, err := e.open()
	if err != nil {
		return nil, newError(ErrCodeActivationFailed, "open enumeration session", err)
	}
	defer src.Close()

	iter, err := src.Devices()
	if err != nil {
		if errors.Is(err, ErrNoCategory) {
			return nil, newError(ErrCodeNoDevicesFound, "no video capture devices registered", err)
		}
		return nil, newError(ErrCodeActivationFailed, "open device category", err)
	}
	defer iter.Close()

	var out []CaptureDevice
	for {
		handle, ok, err := iter.Next()
		if err != nil {
			return nil, newError(ErrCodeDeviceQueryFailed, "advance device enumerator", err)
		}
		if !ok {
			break
		}
		dev, err := collectDevice(handle)
		if err != nil {
			return nil, err
		}
		out = append(out, dev)
	}

	e.logger.Debug("Enumeration pass complete",
		"devices", len(out),
		"elapsed", time.Since(start))
	return out, nil
}

// collectDevice assembles one device record: naming fields first, then the
// resolution list aggregated across the device's output pins. Owns h and
// closes it before returning.
func collectDevice(h DeviceHandle) (CaptureDevice, error) {
	defer h.Close()

	name, description, err := describe(h)
	if err != nil {
		return CaptureDevice{}, err
	}

	resolutions, err := collectResolutions(h)
	if err != nil {
		return CaptureDevice{}, err
	}

	// Orientation and position stay nil: none of the supported platforms
	// report camera mounting data.
	return CaptureDevice{
		Name:        name,
		Description: description,
		Resolutions: resolutions,
	}, nil
}

// describe resolves the naming fields. Description falls back from
// "Description" to "FriendlyName" and is mandatory; the identity path is
// optional and defaults to empty, since virtual devices often lack one.
func describe(h DeviceHandle) (name, description string, err error) {
	description, err = h.Property(PropDescription)
	if err != nil {
		description, err = h.Property(PropFriendlyName)
		if err != nil {
			return "", "", newError(ErrCodeDescriptionUnavailable,
				"device reports neither Description nor FriendlyName", err)
		}
	}

	name, err = h.Property(PropDevicePath)
	if err != nil {
		name = ""
	}
	return name, description, nil
}

// collectResolutions walks every pin of a device and folds the formats of
// its output pins into one deduplicated, ranked list.
func collectResolutions(h DeviceHandle) ([]Resolution, error) {
	pins, err := h.Pins()
	if err != nil {
		return nil, newError(ErrCodeDeviceQueryFailed, "bind device pins", err)
	}
	defer pins.Close()

	set := newResolutionSet()
	for {
		pin, ok, err := pins.Next()
		if err != nil {
			return nil, newError(ErrCodeDeviceQueryFailed, "advance pin enumerator", err)
		}
		if !ok {
			break
		}
		if err := collectPin(pin, set); err != nil {
			return nil, err
		}
	}
	return set.ranked(), nil
}

// collectPin folds one pin's formats into the set. Input and reference pins
// carry no capture formats and are skipped. Owns pin and closes it.
func collectPin(pin Pin, set *resolutionSet) error {
	defer pin.Close()

	output, err := pin.Output()
	if err != nil {
		return newError(ErrCodeDeviceQueryFailed, "classify pin direction", err)
	}
	if !output {
		return nil
	}

	formats, err := pin.Formats()
	if err != nil {
		return newError(ErrCodeDeviceQueryFailed, "enumerate pin formats", err)
	}
	defer formats.Close()

	for {
		raw, ok, err := formats.Next()
		if err != nil {
			return newError(ErrCodeDeviceQueryFailed, "advance format enumerator", err)
		}
		if !ok {
			return nil
		}
		if res, ok := interpret(raw); ok {
			set.add(res)
		}
	}
}

// interpret converts one raw descriptor into a capture mode. Unrecognized
// shapes and non-positive frame intervals yield ok=false and are skipped.
// The frame interval arrives in 100ns ticks, so 1e7/ticks is frames per
// second. The bitmap height's sign encodes row order, never size, and is
// dropped; width is converted as-is.
func interpret(f RawFormat) (Resolution, bool) {
	if !f.Recognized || f.Interval <= 0 {
		return Resolution{}, false
	}
	height := f.Height
	if height < 0 {
		height = -height
	}
	return NewResolution(
		uint32(f.Width),
		uint32(height),
		1e7/float64(f.Interval),
	), true
}

// resolutionSet accumulates interpreted capture modes. Identity rides on
// the rounded-rate key, and insertion order is remembered so ties rank by
// first discovery.
type resolutionSet struct {
	seen  map[resolutionKey]struct{}
	order []Resolution
}

func newResolutionSet() *resolutionSet {
	return &resolutionSet{seen: make(map[resolutionKey]struct{})}
}

func (s *resolutionSet) add(r Resolution) {
	k := r.key()
	if _, dup := s.seen[k]; dup {
		return
	}
	s.seen[k] = struct{}{}
	s.order = append(s.order, r)
}

// ranked sorts by capture throughput, highest first. The stable sort keeps
// first-discovered entries ahead of later equals.
func (s *resolutionSet) ranked() []Resolution {
	out := s.order
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].throughput() > out[j].throughput()
	})
	return out
}
