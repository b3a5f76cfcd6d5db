package dshow

import "fmt"

// GUID is the 16-byte Windows globally unique identifier, laid out exactly
// as the Win32 GUID struct so a pointer to it can be passed to COM calls.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// String formats the GUID in Windows registry form,
// e.g. "{05589F80-C356-11CE-BF01-00AA0055595A}".
func (g GUID) String() string {
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X}",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1],
		g.Data4[2], g.Data4[3], g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// Class and interface identifiers consumed by device enumeration.
var (
	// CLSID_SystemDeviceEnum identifies the system device enumerator object.
	CLSID_SystemDeviceEnum = GUID{0x62be5d10, 0x60eb, 0x11d0, [8]byte{0xbd, 0x3b, 0x00, 0xa0, 0xc9, 0x11, 0xce, 0x86}}

	// CLSID_VideoInputDeviceCategory is the device category for video capture hardware.
	CLSID_VideoInputDeviceCategory = GUID{0x860bb310, 0x5d01, 0x11d0, [8]byte{0xbd, 0x3b, 0x00, 0xa0, 0xc9, 0x11, 0xce, 0x86}}

	IID_ICreateDevEnum = GUID{0x29840822, 0x5b84, 0x11d0, [8]byte{0xbd, 0x3b, 0x00, 0xa0, 0xc9, 0x11, 0xce, 0x86}}
	IID_IPropertyBag   = GUID{0x55272a00, 0x42cb, 0x11ce, [8]byte{0x81, 0x35, 0x00, 0xaa, 0x00, 0x4b, 0xb8, 0x51}}
	IID_IBaseFilter    = GUID{0x56a86895, 0x0ad4, 0x11ce, [8]byte{0xb0, 0x3a, 0x00, 0x20, 0xaf, 0x0b, 0xa7, 0x70}}
)

// Media type discriminators found in AM_MEDIA_TYPE.
var (
	// MEDIATYPE_Video marks a media type carrying video samples.
	MEDIATYPE_Video = GUID{0x73646976, 0x0000, 0x0010, [8]byte{0x80, 0x00, 0x00, 0xaa, 0x00, 0x38, 0x9b, 0x71}}

	// FORMAT_VideoInfo marks a format blob laid out as VIDEOINFOHEADER.
	FORMAT_VideoInfo = GUID{0x05589f80, 0xc356, 0x11ce, [8]byte{0xbf, 0x01, 0x00, 0xaa, 0x00, 0x55, 0x59, 0x5a}}

	// FORMAT_VideoInfo2 marks a format blob laid out as VIDEOINFOHEADER2.
	FORMAT_VideoInfo2 = GUID{0xf72a76a0, 0xeb0a, 0x11d0, [8]byte{0xac, 0xe4, 0x00, 0x00, 0xc0, 0xcc, 0x16, 0xba}}
)
