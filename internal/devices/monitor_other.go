//go:build !linux

package devices

import "context"

// watchHotplug is a no-op off Linux. DirectShow exposes device arrival only
// through window messages, which a headless service does not pump, so the
// periodic pass is the change detector there.
func (m *Monitor) watchHotplug(ctx context.Context) {
	<-ctx.Done()
}
