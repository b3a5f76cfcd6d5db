//go:build linux

// Package v4l2 provides pure Go bindings to the Video4Linux2 (V4L2) API
// for capture device discovery and capability enumeration.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm).
//
// # Device Discovery
//
// Use FindDevices to discover all V4L2 video capture devices:
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s\n", dev.DevicePath, dev.DeviceName)
//	}
//
// # Capability Enumeration
//
// Open a device once and walk its formats, frame sizes, and frame
// intervals:
//
//	dev, _ := v4l2.Open("/dev/video0")
//	defer dev.Close()
//	formats, _ := dev.Formats()
//	for _, f := range formats {
//	    sizes, _ := dev.FrameSizes(f.PixelFormat)
//	    for _, s := range sizes {
//	        rates, _ := dev.FrameIntervals(f.PixelFormat, s.Width, s.Height)
//	        _ = rates
//	    }
//	}
package v4l2
