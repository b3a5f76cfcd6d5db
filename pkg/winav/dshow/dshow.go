// Package dshow provides pure Go bindings to the DirectShow device
// enumeration API for discovering video capture devices and the formats
// they advertise.
//
// This package does not use cgo. COM interfaces are called through
// hand-written vtables and syscall.SyscallN, enabling simple
// cross-compilation for Windows targets.
//
// # Device Enumeration
//
// Open a session, walk the video input device category, and release
// everything in reverse order:
//
//	session, err := dshow.OpenSession()
//	if err != nil { ... }
//	defer session.Close()
//
//	devs, err := session.VideoInputDevices()
//	if err != nil { ... }
//	defer devs.Close()
//
//	for {
//	    dev, ok, err := devs.Next()
//	    if err != nil || !ok {
//	        break
//	    }
//	    // inspect dev, then dev.Close()
//	}
//
// # Format Descriptors
//
// Media types fetched from a pin are copied into Go memory and the
// COM-allocated originals are freed immediately, so a MediaType can be
// held past the lifetime of the pin that produced it:
//
//	mts, _ := pin.MediaTypes()
//	for {
//	    mt, ok, err := mts.Next()
//	    if err != nil || !ok {
//	        break
//	    }
//	    if vi, ok := mt.VideoInfo(); ok {
//	        // vi.Width, vi.Height, vi.AvgTimePerFrame
//	    }
//	}
//	mts.Close()
package dshow
