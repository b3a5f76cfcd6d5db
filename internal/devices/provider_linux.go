//go:build linux

package devices

import (
	"fmt"

	"github.com/smazurov/capturenode/pkg/linuxav/v4l2"
)

// openSource scans the video4linux class. V4L2 needs no process-wide
// session; the per-pass resources are the device file descriptors, which
// each traversal step opens and closes itself.
func openSource() (Source, error) {
	return &v4l2Source{}, nil
}

type v4l2Source struct{}

func (s *v4l2Source) Devices() (DeviceIter, error) {
	infos, err := v4l2.FindDevices()
	if err != nil {
		return nil, err
	}
	// A machine without the video4linux class reports an empty list here
	// rather than a missing category: the kernel draws no line between
	// "subsystem absent" and "no devices plugged in".
	return &v4l2DeviceIter{infos: infos}, nil
}

func (s *v4l2Source) Close() {}

type v4l2DeviceIter struct {
	infos []v4l2.DeviceInfo
	pos   int
}

func (it *v4l2DeviceIter) Next() (DeviceHandle, bool, error) {
	if it.pos >= len(it.infos) {
		return nil, false, nil
	}
	info := it.infos[it.pos]
	it.pos++
	return &v4l2Device{info: info}, true, nil
}

func (it *v4l2DeviceIter) Close() {}

// v4l2Device maps the property-bag vocabulary onto V4L2 fields: the card
// name serves as both Description and FriendlyName, and the stable ID from
// /dev/v4l/by-id fills the identity slot.
type v4l2Device struct {
	info v4l2.DeviceInfo
}

func (d *v4l2Device) Property(key string) (string, error) {
	switch key {
	case PropDescription, PropFriendlyName:
		if d.info.DeviceName == "" {
			return "", fmt.Errorf("device %s reports no card name", d.info.DevicePath)
		}
		return d.info.DeviceName, nil
	case PropDevicePath:
		return d.info.DeviceID, nil
	}
	return "", fmt.Errorf("unknown property %q", key)
}

func (d *v4l2Device) Pins() (PinIter, error) {
	return &v4l2PinIter{path: d.info.DevicePath}, nil
}

func (d *v4l2Device) Close() {}

// v4l2PinIter yields exactly one output pin: a V4L2 capture node is itself
// the single format-bearing connection point.
type v4l2PinIter struct {
	path string
	done bool
}

func (it *v4l2PinIter) Next() (Pin, bool, error) {
	if it.done {
		return nil, false, nil
	}
	it.done = true
	return &v4l2Pin{path: it.path}, true, nil
}

func (it *v4l2PinIter) Close() {}

type v4l2Pin struct {
	path string
}

func (p *v4l2Pin) Output() (bool, error) {
	return true, nil
}

// Formats walks the device's formats, frame sizes, and frame intervals in
// one open of the node. The same size at the same rate commonly appears
// under several pixel formats; the aggregator collapses those.
func (p *v4l2Pin) Formats() (FormatIter, error) {
	dev, err := v4l2.Open(p.path)
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	formats, err := dev.Formats()
	if err != nil {
		return nil, err
	}

	var raw []RawFormat
	for _, f := range formats {
		sizes, err := dev.FrameSizes(f.PixelFormat)
		if err != nil {
			return nil, err
		}
		for _, size := range sizes {
			intervals, err := dev.FrameIntervals(f.PixelFormat, size.Width, size.Height)
			if err != nil {
				return nil, err
			}
			for _, iv := range intervals {
				if iv.Numerator == 0 || iv.Denominator == 0 {
					continue
				}
				raw = append(raw, RawFormat{
					Recognized: true,
					// Interval fraction in seconds to 100ns ticks.
					Interval: int64(iv.Numerator) * 10000000 / int64(iv.Denominator),
					Width:    int32(size.Width),
					Height:   int32(size.Height),
				})
			}
		}
	}
	return &sliceFormatIter{formats: raw}, nil
}

func (p *v4l2Pin) Close() {}

type sliceFormatIter struct {
	formats []RawFormat
	pos     int
}

func (it *sliceFormatIter) Next() (RawFormat, bool, error) {
	if it.pos >= len(it.formats) {
		return RawFormat{}, false, nil
	}
	f := it.formats[it.pos]
	it.pos++
	return f, true, nil
}

func (it *sliceFormatIter) Close() {}
