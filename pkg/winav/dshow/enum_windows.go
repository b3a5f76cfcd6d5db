//go:build windows

package dshow

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// ErrNoDevices reports that the video input device category holds no
// registered devices. CreateClassEnumerator signals this with S_FALSE and a
// nil enumerator rather than with a failure HRESULT.
var ErrNoDevices = errors.New("dshow: no video input devices registered")

type iCreateDevEnumVtbl struct {
	queryInterface        uintptr
	addRef                uintptr
	release               uintptr
	createClassEnumerator uintptr
}

type iCreateDevEnum struct {
	vtbl *iCreateDevEnumVtbl
}

type iEnumMonikerVtbl struct {
	queryInterface uintptr
	addRef         uintptr
	release        uintptr
	next           uintptr
	skip           uintptr
	reset          uintptr
	clone          uintptr
}

// IMoniker: IUnknown, then IPersist, then IPersistStream, then the moniker
// methods. Only the two Bind calls are used; the rest pad the layout.
type iMonikerVtbl struct {
	queryInterface      uintptr
	addRef              uintptr
	release             uintptr
	getClassID          uintptr
	isDirty             uintptr
	load                uintptr
	save                uintptr
	getSizeMax          uintptr
	bindToObject        uintptr
	bindToStorage       uintptr
	reduce              uintptr
	composeWith         uintptr
	enum                uintptr
	isEqual             uintptr
	hash                uintptr
	isRunning           uintptr
	getTimeOfLastChange uintptr
	inverse             uintptr
	commonPrefixWith    uintptr
	relativePathTo      uintptr
	getDisplayName      uintptr
	parseDisplayName    uintptr
	isSystemMoniker     uintptr
}

type iPropertyBagVtbl struct {
	queryInterface uintptr
	addRef         uintptr
	release        uintptr
	read           uintptr
	write          uintptr
}

// DeviceEnum walks the video input device category. It is backed by an
// IEnumMoniker and is not restartable.
type DeviceEnum struct {
	vtbl *iEnumMonikerVtbl
}

// Device is one enumerated capture device, backed by its IMoniker. The
// moniker only names the device; Properties and Filter bind it to data.
type Device struct {
	vtbl *iMonikerVtbl
}

// PropertyBag reads the registry-backed metadata of a device.
type PropertyBag struct {
	vtbl *iPropertyBagVtbl
}

// VideoInputDevices creates the system device enumerator and opens the
// video input device category. A missing or empty category is reported as
// ErrNoDevices; any other failure means the enumerator machinery itself is
// unavailable.
func (s *Session) VideoInputDevices() (*DeviceEnum, error) {
	var creator *iCreateDevEnum
	hr, _, _ := syscall.SyscallN(procCoCreateInstance.Addr(),
		uintptr(unsafe.Pointer(&CLSID_SystemDeviceEnum)),
		0,
		clsctxInprocServer,
		uintptr(unsafe.Pointer(&IID_ICreateDevEnum)),
		uintptr(unsafe.Pointer(&creator)))
	if hresult(hr).failed() {
		return nil, comErr("CoCreateInstance(SystemDeviceEnum)", hr)
	}
	defer syscall.SyscallN(creator.vtbl.release, uintptr(unsafe.Pointer(creator)))

	var devices *DeviceEnum
	hr, _, _ = syscall.SyscallN(creator.vtbl.createClassEnumerator,
		uintptr(unsafe.Pointer(creator)),
		uintptr(unsafe.Pointer(&CLSID_VideoInputDeviceCategory)),
		uintptr(unsafe.Pointer(&devices)),
		0)
	if hresult(hr).failed() {
		return nil, comErr("ICreateDevEnum::CreateClassEnumerator", hr)
	}
	if hr == sFalse || devices == nil {
		return nil, ErrNoDevices
	}
	return devices, nil
}

// Next fetches the next device moniker. ok is false once the category is
// exhausted; a failure HRESULT from the underlying call is returned as an
// error rather than folded into exhaustion. The caller owns the returned
// Device and must Close it.
func (e *DeviceEnum) Next() (*Device, bool, error) {
	var dev *Device
	var fetched uint32
	hr, _, _ := syscall.SyscallN(e.vtbl.next,
		uintptr(unsafe.Pointer(e)),
		1,
		uintptr(unsafe.Pointer(&dev)),
		uintptr(unsafe.Pointer(&fetched)))
	if hresult(hr).failed() {
		return nil, false, comErr("IEnumMoniker::Next", hr)
	}
	if fetched == 0 || dev == nil {
		return nil, false, nil
	}
	return dev, true, nil
}

// Close releases the underlying enumerator.
func (e *DeviceEnum) Close() {
	if e != nil && e.vtbl != nil {
		syscall.SyscallN(e.vtbl.release, uintptr(unsafe.Pointer(e)))
	}
}

// Properties binds the moniker to the device's property bag.
func (d *Device) Properties() (*PropertyBag, error) {
	var bag *PropertyBag
	hr, _, _ := syscall.SyscallN(d.vtbl.bindToStorage,
		uintptr(unsafe.Pointer(d)),
		0,
		0,
		uintptr(unsafe.Pointer(&IID_IPropertyBag)),
		uintptr(unsafe.Pointer(&bag)))
	if hresult(hr).failed() {
		return nil, comErr("IMoniker::BindToStorage", hr)
	}
	return bag, nil
}

// Filter binds the moniker to the device's capture filter, which exposes
// its pins.
func (d *Device) Filter() (*Filter, error) {
	var f *Filter
	hr, _, _ := syscall.SyscallN(d.vtbl.bindToObject,
		uintptr(unsafe.Pointer(d)),
		0,
		0,
		uintptr(unsafe.Pointer(&IID_IBaseFilter)),
		uintptr(unsafe.Pointer(&f)))
	if hresult(hr).failed() {
		return nil, comErr("IMoniker::BindToObject", hr)
	}
	return f, nil
}

// Close releases the underlying moniker.
func (d *Device) Close() {
	if d != nil && d.vtbl != nil {
		syscall.SyscallN(d.vtbl.release, uintptr(unsafe.Pointer(d)))
	}
}

// ReadString reads a string-valued property. Reads that fail, and reads
// that produce a non-string variant, are both reported as errors so the
// caller can apply its fallback policy.
func (b *PropertyBag) ReadString(key string) (string, error) {
	name, err := windows.UTF16PtrFromString(key)
	if err != nil {
		return "", err
	}
	var v variant
	hr, _, _ := syscall.SyscallN(b.vtbl.read,
		uintptr(unsafe.Pointer(b)),
		uintptr(unsafe.Pointer(name)),
		uintptr(unsafe.Pointer(&v)),
		0)
	if hresult(hr).failed() {
		return "", comErr(fmt.Sprintf("IPropertyBag::Read(%s)", key), hr)
	}
	defer v.clear()
	if v.vt != vtBSTR {
		return "", fmt.Errorf("property %s: unexpected variant type %d", key, v.vt)
	}
	if v.val[0] == 0 {
		return "", nil
	}
	return windows.UTF16PtrToString((*uint16)(unsafe.Pointer(v.val[0]))), nil
}

// Close releases the underlying property bag.
func (b *PropertyBag) Close() {
	if b != nil && b.vtbl != nil {
		syscall.SyscallN(b.vtbl.release, uintptr(unsafe.Pointer(b)))
	}
}
