//go:build windows

package dshow

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modole32    = windows.NewLazySystemDLL("ole32.dll")
	modoleaut32 = windows.NewLazySystemDLL("oleaut32.dll")

	procCoInitializeEx   = modole32.NewProc("CoInitializeEx")
	procCoUninitialize   = modole32.NewProc("CoUninitialize")
	procCoCreateInstance = modole32.NewProc("CoCreateInstance")
	procCoTaskMemFree    = modole32.NewProc("CoTaskMemFree")
	procVariantClear     = modoleaut32.NewProc("VariantClear")
)

const (
	sOK    = 0x0
	sFalse = 0x1

	coinitMultithreaded = 0x0
	clsctxInprocServer  = 0x1

	vtBSTR = 8
)

// hresult wraps a COM return code. S_OK and S_FALSE are both success values
// with distinct meanings, so callers test failed() rather than comparing
// against zero.
type hresult uintptr

func (hr hresult) failed() bool { return int32(hr) < 0 }

func comErr(op string, hr uintptr) error {
	return fmt.Errorf("%s failed: 0x%08X", op, uint32(hr))
}

// variant matches the Win32 VARIANT layout for the tag and value fields used
// here: a 16-bit type tag, three reserved words, then the value union. The
// zero value is VT_EMPTY, which is what VariantInit produces.
type variant struct {
	vt        uint16
	reserved1 uint16
	reserved2 uint16
	reserved3 uint16
	val       [2]uintptr
}

func (v *variant) clear() {
	syscall.SyscallN(procVariantClear.Addr(), uintptr(unsafe.Pointer(v)))
}

// Session is one COM apartment bracket. Device enumeration must happen
// between OpenSession and Close; the session is not shared across calls.
type Session struct{}

// OpenSession enters the multithreaded COM apartment. The calling goroutine
// is pinned to its OS thread until Close so that CoUninitialize runs on the
// same thread as CoInitializeEx.
func OpenSession() (*Session, error) {
	runtime.LockOSThread()
	hr, _, _ := syscall.SyscallN(procCoInitializeEx.Addr(), 0, coinitMultithreaded)
	// S_FALSE means COM was already initialized on this thread; the matching
	// CoUninitialize in Close keeps the count balanced either way.
	if hresult(hr).failed() {
		runtime.UnlockOSThread()
		return nil, comErr("CoInitializeEx", hr)
	}
	return &Session{}, nil
}

// Close leaves the COM apartment and unpins the OS thread. Safe to defer
// immediately after a successful OpenSession.
func (s *Session) Close() {
	syscall.SyscallN(procCoUninitialize.Addr())
	runtime.UnlockOSThread()
}
