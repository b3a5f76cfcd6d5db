package dshow

import "encoding/binary"

// MediaType is one format descriptor offered by a pin, detached from COM
// memory. The Format blob is an owned copy of the variable-length pbFormat
// buffer; its layout is selected by FormatType.
type MediaType struct {
	MajorType  GUID
	SubType    GUID
	FormatType GUID
	Format     []byte
}

// VideoInfo carries the fields shared by VIDEOINFOHEADER and
// VIDEOINFOHEADER2 that matter for capability listing.
type VideoInfo struct {
	// AvgTimePerFrame is the nominal frame interval in 100-nanosecond ticks.
	AvgTimePerFrame int64
	// Width is bmiHeader.biWidth.
	Width int32
	// Height is bmiHeader.biHeight. A negative value encodes top-down row
	// order, not a negative frame size.
	Height int32
}

// Byte offsets inside the format blob. Both header layouts share the leading
// rcSource/rcTarget/dwBitRate/dwBitErrorRate/AvgTimePerFrame prefix; they
// differ in where BITMAPINFOHEADER starts.
const (
	avgTimePerFrameOffset = 40 // offset of AvgTimePerFrame (int64)

	bitmapHeaderOffsetVI  = 48 // bmiHeader in VIDEOINFOHEADER
	bitmapHeaderOffsetVI2 = 72 // bmiHeader in VIDEOINFOHEADER2

	biWidthOffset  = 4 // biWidth within BITMAPINFOHEADER (int32)
	biHeightOffset = 8 // biHeight within BITMAPINFOHEADER (int32)

	sizeBitmapInfoHeader = 40
)

// Expected blob sizes: the header structs end with their embedded
// BITMAPINFOHEADER (palette data may follow, but is not required).
const (
	sizeVideoInfoHeader  = bitmapHeaderOffsetVI + sizeBitmapInfoHeader  // 88
	sizeVideoInfoHeader2 = bitmapHeaderOffsetVI2 + sizeBitmapInfoHeader // 112
)

// VideoInfo decodes the format blob when FormatType is FORMAT_VideoInfo or
// FORMAT_VideoInfo2. Any other format type, and any blob shorter than the
// fixed header layout, reports ok=false.
func (mt *MediaType) VideoInfo() (VideoInfo, bool) {
	switch mt.FormatType {
	case FORMAT_VideoInfo:
		return parseVideoInfo(mt.Format, bitmapHeaderOffsetVI)
	case FORMAT_VideoInfo2:
		return parseVideoInfo(mt.Format, bitmapHeaderOffsetVI2)
	}
	return VideoInfo{}, false
}

func parseVideoInfo(b []byte, bitmapOffset int) (VideoInfo, bool) {
	if len(b) < bitmapOffset+sizeBitmapInfoHeader {
		return VideoInfo{}, false
	}
	return VideoInfo{
		AvgTimePerFrame: int64(binary.LittleEndian.Uint64(b[avgTimePerFrameOffset:])),
		Width:           int32(binary.LittleEndian.Uint32(b[bitmapOffset+biWidthOffset:])),
		Height:          int32(binary.LittleEndian.Uint32(b[bitmapOffset+biHeightOffset:])),
	}, true
}
