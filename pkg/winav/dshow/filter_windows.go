//go:build windows

package dshow

import (
	"syscall"
	"unsafe"
)

// IBaseFilter: IUnknown, IPersist, IMediaFilter, then the filter methods.
type iBaseFilterVtbl struct {
	queryInterface  uintptr
	addRef          uintptr
	release         uintptr
	getClassID      uintptr
	stop            uintptr
	pause           uintptr
	run             uintptr
	getState        uintptr
	setSyncSource   uintptr
	getSyncSource   uintptr
	enumPins        uintptr
	findPin         uintptr
	queryFilterInfo uintptr
	joinFilterGraph uintptr
	queryVendorInfo uintptr
}

type iEnumPinsVtbl struct {
	queryInterface uintptr
	addRef         uintptr
	release        uintptr
	next           uintptr
	skip           uintptr
	reset          uintptr
	clone          uintptr
}

type iPinVtbl struct {
	queryInterface           uintptr
	addRef                   uintptr
	release                  uintptr
	connect                  uintptr
	receiveConnection        uintptr
	disconnect               uintptr
	connectedTo              uintptr
	connectionMediaType      uintptr
	queryPinInfo             uintptr
	queryDirection           uintptr
	queryID                  uintptr
	queryAccept              uintptr
	enumMediaTypes           uintptr
	queryInternalConnections uintptr
	endOfStream              uintptr
	beginFlush               uintptr
	endFlush                 uintptr
	newSegment               uintptr
}

type iEnumMediaTypesVtbl struct {
	queryInterface uintptr
	addRef         uintptr
	release        uintptr
	next           uintptr
	skip           uintptr
	reset          uintptr
	clone          uintptr
}

// amMediaType mirrors AM_MEDIA_TYPE. The pointer-sized fields land on the
// same offsets as the MSVC layout on both 386 and amd64.
type amMediaType struct {
	majorType           GUID
	subType             GUID
	fixedSizeSamples    int32
	temporalCompression int32
	sampleSize          uint32
	formatType          GUID
	unk                 uintptr // IUnknown* owned by the media type
	formatSize          uint32
	format              uintptr // task-allocated blob of formatSize bytes
}

// Filter is a device bound as a DirectShow filter.
type Filter struct {
	vtbl *iBaseFilterVtbl
}

// PinEnum walks the pins of a filter.
type PinEnum struct {
	vtbl *iEnumPinsVtbl
}

// Pin is one connection point on a filter.
type Pin struct {
	vtbl *iPinVtbl
}

// MediaTypeEnum walks the format descriptors offered by a pin.
type MediaTypeEnum struct {
	vtbl *iEnumMediaTypesVtbl
}

// PinDirection classifies a pin. Capture formats are only advertised on
// output pins.
type PinDirection int32

const (
	PinInput  PinDirection = 0
	PinOutput PinDirection = 1
)

// Pins opens a pin enumerator for the filter.
func (f *Filter) Pins() (*PinEnum, error) {
	var pins *PinEnum
	hr, _, _ := syscall.SyscallN(f.vtbl.enumPins,
		uintptr(unsafe.Pointer(f)),
		uintptr(unsafe.Pointer(&pins)))
	if hresult(hr).failed() {
		return nil, comErr("IBaseFilter::EnumPins", hr)
	}
	return pins, nil
}

// Close releases the underlying filter.
func (f *Filter) Close() {
	if f != nil && f.vtbl != nil {
		syscall.SyscallN(f.vtbl.release, uintptr(unsafe.Pointer(f)))
	}
}

// Next fetches the next pin. ok is false once the filter's pins are
// exhausted; a failure HRESULT propagates as an error. The caller owns the
// returned Pin and must Close it.
func (e *PinEnum) Next() (*Pin, bool, error) {
	var pin *Pin
	var fetched uint32
	hr, _, _ := syscall.SyscallN(e.vtbl.next,
		uintptr(unsafe.Pointer(e)),
		1,
		uintptr(unsafe.Pointer(&pin)),
		uintptr(unsafe.Pointer(&fetched)))
	if hresult(hr).failed() {
		return nil, false, comErr("IEnumPins::Next", hr)
	}
	if fetched == 0 || pin == nil {
		return nil, false, nil
	}
	return pin, true, nil
}

// Close releases the underlying pin enumerator.
func (e *PinEnum) Close() {
	if e != nil && e.vtbl != nil {
		syscall.SyscallN(e.vtbl.release, uintptr(unsafe.Pointer(e)))
	}
}

// Direction reports whether the pin is an input or output pin.
func (p *Pin) Direction() (PinDirection, error) {
	var dir PinDirection
	hr, _, _ := syscall.SyscallN(p.vtbl.queryDirection,
		uintptr(unsafe.Pointer(p)),
		uintptr(unsafe.Pointer(&dir)))
	if hresult(hr).failed() {
		return 0, comErr("IPin::QueryDirection", hr)
	}
	return dir, nil
}

// MediaTypes opens a format enumerator for the pin.
func (p *Pin) MediaTypes() (*MediaTypeEnum, error) {
	var types *MediaTypeEnum
	hr, _, _ := syscall.SyscallN(p.vtbl.enumMediaTypes,
		uintptr(unsafe.Pointer(p)),
		uintptr(unsafe.Pointer(&types)))
	if hresult(hr).failed() {
		return nil, comErr("IPin::EnumMediaTypes", hr)
	}
	return types, nil
}

// Close releases the underlying pin.
func (p *Pin) Close() {
	if p != nil && p.vtbl != nil {
		syscall.SyscallN(p.vtbl.release, uintptr(unsafe.Pointer(p)))
	}
}

// Next fetches the next format descriptor, detached into a MediaType the
// caller owns outright. The native AM_MEDIA_TYPE and its task-allocated
// buffers are freed before returning, so no per-descriptor cleanup is left
// to the caller. ok is false once the pin's formats are exhausted; a failure
// HRESULT propagates as an error.
func (e *MediaTypeEnum) Next() (MediaType, bool, error) {
	var native *amMediaType
	var fetched uint32
	hr, _, _ := syscall.SyscallN(e.vtbl.next,
		uintptr(unsafe.Pointer(e)),
		1,
		uintptr(unsafe.Pointer(&native)),
		uintptr(unsafe.Pointer(&fetched)))
	if hresult(hr).failed() {
		return MediaType{}, false, comErr("IEnumMediaTypes::Next", hr)
	}
	if fetched == 0 || native == nil {
		return MediaType{}, false, nil
	}
	mt := MediaType{
		MajorType:  native.majorType,
		SubType:    native.subType,
		FormatType: native.formatType,
	}
	if native.format != 0 && native.formatSize > 0 {
		mt.Format = make([]byte, native.formatSize)
		copy(mt.Format, unsafe.Slice((*byte)(unsafe.Pointer(native.format)), native.formatSize))
	}
	deleteMediaType(native)
	return mt, true, nil
}

// Close releases the underlying format enumerator.
func (e *MediaTypeEnum) Close() {
	if e != nil && e.vtbl != nil {
		syscall.SyscallN(e.vtbl.release, uintptr(unsafe.Pointer(e)))
	}
}

// freeMediaType releases the buffers a media type owns: the format blob and
// the optional embedded IUnknown. Mirrors the FreeMediaType helper from the
// DirectShow base classes.
func freeMediaType(mt *amMediaType) {
	if mt.format != 0 {
		syscall.SyscallN(procCoTaskMemFree.Addr(), mt.format)
		mt.formatSize = 0
		mt.format = 0
	}
	if mt.unk != 0 {
		// Release is slot 2 of the IUnknown vtable.
		vtbl := *(**[3]uintptr)(unsafe.Pointer(mt.unk))
		syscall.SyscallN(vtbl[2], mt.unk)
		mt.unk = 0
	}
}

// deleteMediaType frees the media type struct itself after its buffers,
// mirroring the DeleteMediaType helper.
func deleteMediaType(mt *amMediaType) {
	freeMediaType(mt)
	syscall.SyscallN(procCoTaskMemFree.Addr(), uintptr(unsafe.Pointer(mt)))
}
