//go:build linux

package v4l2

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"unsafe"
)

// Device is one open V4L2 device node. Open it once and reuse the handle
// for all capability queries; Close releases the file descriptor.
type Device struct {
	fd   int
	path string
}

// Open opens a device node such as /dev/video0 for capability queries.
func Open(path string) (*Device, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &Device{fd: fd, path: path}, nil
}

// Path returns the device node path the handle was opened from.
func (d *Device) Path() string {
	return d.path
}

// Close releases the device file descriptor.
func (d *Device) Close() error {
	return syscall.Close(d.fd)
}

// FindDevices finds all V4L2 video capture devices on the system. Nodes
// that cannot be opened or probed are skipped, and a missing video4linux
// class directory yields an empty list: both mean the node is not a usable
// capture device right now.
func FindDevices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir("/sys/class/video4linux")
	if err != nil {
		if os.IsNotExist(err) {
			return []DeviceInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read video4linux directory: %w", err)
	}

	var devices []DeviceInfo

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		devicePath := "/dev/" + entry.Name()

		cap, err := queryCapability(devicePath)
		if err != nil {
			slog.With("component", "linuxav").Debug("failed to probe video device",
				"path", devicePath, "error", err)
			continue
		}

		// Prefer the per-node capabilities when the driver reports them.
		caps := cap.capabilities
		if caps&v4l2CapDeviceCaps != 0 {
			caps = cap.deviceCaps
		}

		// Only include video capture devices; metadata and output nodes
		// share the video4linux class.
		if caps&v4l2CapVideoCapture == 0 {
			continue
		}

		indexPath := filepath.Join("/sys/class/video4linux", entry.Name(), "index")
		indexValue := readSysfsInt(indexPath)

		stableID := findStableID(entry.Name(), indexValue)
		if stableID == "" {
			// Fallback: synthetic ID from bus_info + index.
			busInfo := cstr(cap.busInfo[:])
			if strings.HasPrefix(busInfo, "usb-") {
				stableID = fmt.Sprintf("%s-video-index%d", busInfo, indexValue)
			} else {
				stableID = fmt.Sprintf("platform-%s-video-index%d", busInfo, indexValue)
			}
		}

		devices = append(devices, DeviceInfo{
			DevicePath: devicePath,
			DeviceName: cstr(cap.card[:]),
			DeviceID:   stableID,
			Caps:       caps,
		})
	}

	return devices, nil
}

// queryCapability opens a node just long enough to read its capability
// block.
func queryCapability(devicePath string) (*v4l2Capability, error) {
	fd, err := syscall.Open(devicePath, syscall.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	defer syscall.Close(fd)

	cap := &v4l2Capability{}
	if err := ioctl(fd, vidiocQuerycap, unsafe.Pointer(cap)); err != nil {
		return nil, err
	}

	return cap, nil
}

// findStableID looks for a stable ID symlink in /dev/v4l/by-id/.
func findStableID(deviceName string, indexValue int) string {
	byIDDir := "/dev/v4l/by-id"
	entries, err := os.ReadDir(byIDDir)
	if err != nil {
		return ""
	}

	expectedSuffix := fmt.Sprintf("-video-index%d", indexValue)

	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}

		linkPath := filepath.Join(byIDDir, entry.Name())
		target, err := os.Readlink(linkPath)
		if err != nil {
			continue
		}

		targetBase := filepath.Base(target)
		if targetBase == deviceName && strings.HasSuffix(entry.Name(), expectedSuffix) {
			return entry.Name()
		}
	}

	return ""
}

// readSysfsInt reads an integer value from a sysfs file.
func readSysfsInt(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	val, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return val
}

// cstr converts a null-terminated byte slice to a Go string.
func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
