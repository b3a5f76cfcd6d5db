//go:build windows

package devices

import (
	"errors"

	"github.com/smazurov/capturenode/pkg/winav/dshow"
)

// openSource brings up a DirectShow enumeration session. The session pins
// the goroutine to its OS thread until Close.
func openSource() (Source, error) {
	session, err := dshow.OpenSession()
	if err != nil {
		return nil, err
	}
	return &dshowSource{session: session}, nil
}

type dshowSource struct {
	session *dshow.Session
}

func (s *dshowSource) Devices() (DeviceIter, error) {
	enum, err := s.session.VideoInputDevices()
	if err != nil {
		// DirectShow reports an empty category the same way as a missing
		// one, so both funnel into the missing-category signal here.
		if errors.Is(err, dshow.ErrNoDevices) {
			return nil, ErrNoCategory
		}
		return nil, err
	}
	return &dshowDeviceIter{enum: enum}, nil
}

func (s *dshowSource) Close() {
	s.session.Close()
}

type dshowDeviceIter struct {
	enum *dshow.DeviceEnum
}

func (it *dshowDeviceIter) Next() (DeviceHandle, bool, error) {
	dev, ok, err := it.enum.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	return &dshowDevice{moniker: dev}, true, nil
}

func (it *dshowDeviceIter) Close() {
	it.enum.Close()
}

// dshowDevice lends access to one moniker. The property bag is bound on
// first use and held until Close so one bind serves all three metadata
// reads.
type dshowDevice struct {
	moniker *dshow.Device
	bag     *dshow.PropertyBag
}

func (d *dshowDevice) Property(key string) (string, error) {
	if d.bag == nil {
		bag, err := d.moniker.Properties()
		if err != nil {
			return "", err
		}
		d.bag = bag
	}
	return d.bag.ReadString(key)
}

func (d *dshowDevice) Pins() (PinIter, error) {
	filter, err := d.moniker.Filter()
	if err != nil {
		return nil, err
	}
	pins, err := filter.Pins()
	if err != nil {
		filter.Close()
		return nil, err
	}
	return &dshowPinIter{filter: filter, pins: pins}, nil
}

func (d *dshowDevice) Close() {
	d.bag.Close()
	d.moniker.Close()
}

// dshowPinIter keeps the bound filter alive for as long as its pins are
// being walked.
type dshowPinIter struct {
	filter *dshow.Filter
	pins   *dshow.PinEnum
}

func (it *dshowPinIter) Next() (Pin, bool, error) {
	pin, ok, err := it.pins.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	return &dshowPin{pin: pin}, true, nil
}

func (it *dshowPinIter) Close() {
	it.pins.Close()
	it.filter.Close()
}

type dshowPin struct {
	pin *dshow.Pin
}

func (p *dshowPin) Output() (bool, error) {
	dir, err := p.pin.Direction()
	if err != nil {
		return false, err
	}
	return dir == dshow.PinOutput, nil
}

func (p *dshowPin) Formats() (FormatIter, error) {
	types, err := p.pin.MediaTypes()
	if err != nil {
		return nil, err
	}
	return &dshowFormatIter{types: types}, nil
}

func (p *dshowPin) Close() {
	p.pin.Close()
}

type dshowFormatIter struct {
	types *dshow.MediaTypeEnum
}

func (it *dshowFormatIter) Next() (RawFormat, bool, error) {
	mt, ok, err := it.types.Next()
	if err != nil || !ok {
		return RawFormat{}, false, err
	}
	raw := RawFormat{}
	if info, recognized := mt.VideoInfo(); recognized {
		raw = RawFormat{
			Recognized: true,
			Interval:   info.AvgTimePerFrame,
			Width:      info.Width,
			Height:     info.Height,
		}
	}
	return raw, true, nil
}

func (it *dshowFormatIter) Close() {
	it.types.Close()
}
