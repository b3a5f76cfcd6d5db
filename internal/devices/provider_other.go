//go:build !windows && !linux

package devices

import "errors"

func openSource() (Source, error) {
	return nil, errors.New("video capture enumeration is not supported on this platform")
}
