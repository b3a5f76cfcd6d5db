package devices

import "math"

// Position indicates which way a camera faces on devices that report it.
type Position string

const (
	PositionFront Position = "front"
	PositionBack  Position = "back"
)

// CaptureDevice describes one video capture device. Records are immutable
// once an enumeration pass returns them.
type CaptureDevice struct {
	// Name is the platform identity string, unique for physical devices.
	// Virtual devices may report an empty or duplicated name; that is not
	// an error.
	Name string
	// Description is the human-readable device label. Always populated on
	// a successful enumeration.
	Description string
	// Orientation is the mounting rotation in clockwise degrees, a
	// multiple of 90. Nil when the platform does not report it.
	Orientation *int
	// Position is nil when the platform does not report it.
	Position *Position
	// Resolutions holds the advertised capture modes, highest throughput
	// first.
	Resolutions []Resolution
}

// Resolution is one advertised capture mode. FrameRate carries at most two
// decimal places; construction rounds it so that rates differing only below
// that precision collapse into one entry.
type Resolution struct {
	Width     uint32
	Height    uint32
	FrameRate float64
}

// NewResolution rounds rate to two decimals and builds the entry.
func NewResolution(width, height uint32, rate float64) Resolution {
	return Resolution{
		Width:     width,
		Height:    height,
		FrameRate: math.Round(rate*100) / 100,
	}
}

// resolutionKey is the dedup identity of a Resolution. The frame rate
// participates as its centihertz integer so identity never rides on float
// equality.
type resolutionKey struct {
	width     uint32
	height    uint32
	centiRate int64
}

func (r Resolution) key() resolutionKey {
	return resolutionKey{
		width:     r.Width,
		height:    r.Height,
		centiRate: int64(math.Round(r.FrameRate * 100)),
	}
}

// throughput ranks capture modes: pixels per frame times frames per second.
func (r Resolution) throughput() float64 {
	return float64(r.Width) * float64(r.Height) * r.FrameRate
}
