package devices

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingBroadcaster struct {
	mu        sync.Mutex
	changes   []string
	refreshes []int
	failures  []string
}

func (b *recordingBroadcaster) DeviceChanged(action string, device CaptureDevice, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, action+" "+deviceKey(device))
}

func (b *recordingBroadcaster) DevicesRefreshed(devices []CaptureDevice, _ time.Duration, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshes = append(b.refreshes, len(devices))
}

func (b *recordingBroadcaster) EnumerationFailed(err error, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, err.Error())
}

func (b *recordingBroadcaster) snapshot() ([]string, []int, []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.changes...),
		append([]int(nil), b.refreshes...),
		append([]string(nil), b.failures...)
}

func webcam(name, description string, formats ...RawFormat) *fakeDevice {
	return camera(map[string]string{
		PropDescription: description,
		PropDevicePath:  name,
	}, outputPin(formats...))
}

func TestMonitorReportsInitialDevices(t *testing.T) {
	src := newFakeSource(
		webcam("usb-a", "Cam A", video(333333, 1920, 1080)),
		webcam("usb-b", "Cam B", video(333333, 1280, 720)),
	)
	rec := &recordingBroadcaster{}
	m := NewMonitor(newEnumerator(src.open), rec, time.Hour)

	found, err := m.Refresh("startup")
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Refresh() returned %d devices, want 2", len(found))
	}

	changes, refreshes, failures := rec.snapshot()
	wantChanges := []string{"added usb-a", "added usb-b"}
	if len(changes) != 2 || changes[0] != wantChanges[0] || changes[1] != wantChanges[1] {
		t.Errorf("changes = %v, want %v", changes, wantChanges)
	}
	if len(refreshes) != 1 || refreshes[0] != 2 {
		t.Errorf("refreshes = %v, want [2]", refreshes)
	}
	if len(failures) != 0 {
		t.Errorf("failures = %v, want none", failures)
	}

	snap := m.Snapshot()
	if len(snap) != 2 || snap[0].Description != "Cam A" || snap[1].Description != "Cam B" {
		t.Errorf("Snapshot() = %v", snap)
	}
}

func TestMonitorDiffsAcrossPasses(t *testing.T) {
	src := newFakeSource(
		webcam("usb-a", "Cam A", video(333333, 1920, 1080)),
		webcam("usb-b", "Cam B", video(333333, 1280, 720)),
	)
	rec := &recordingBroadcaster{}
	m := NewMonitor(newEnumerator(src.open), rec, time.Hour)

	if _, err := m.Refresh("startup"); err != nil {
		t.Fatalf("initial Refresh() failed: %v", err)
	}

	// Cam A unplugged, Cam B gained a mode, Cam C plugged in
	src.devices = []*fakeDevice{
		webcam("usb-b", "Cam B", video(333333, 1280, 720), video(333333, 1920, 1080)),
		webcam("usb-c", "Cam C", video(333333, 640, 480)),
	}

	if _, err := m.Refresh("hotplug"); err != nil {
		t.Fatalf("second Refresh() failed: %v", err)
	}

	changes, refreshes, _ := rec.snapshot()
	wantTail := []string{"removed usb-a", "added usb-c", "changed usb-b"}
	if len(changes) != 5 {
		t.Fatalf("changes = %v, want 2 initial + 3 diff entries", changes)
	}
	for i, want := range wantTail {
		if changes[2+i] != want {
			t.Errorf("changes[%d] = %q, want %q", 2+i, changes[2+i], want)
		}
	}
	if len(refreshes) != 2 || refreshes[1] != 2 {
		t.Errorf("refreshes = %v, want second entry 2", refreshes)
	}

	snap := m.Snapshot()
	if len(snap) != 2 || snap[0].Name != "usb-b" || snap[1].Name != "usb-c" {
		t.Errorf("Snapshot() = %v", snap)
	}
}

func TestMonitorStableSnapshotWithoutChanges(t *testing.T) {
	src := newFakeSource(webcam("usb-a", "Cam A", video(333333, 1920, 1080)))
	rec := &recordingBroadcaster{}
	m := NewMonitor(newEnumerator(src.open), rec, time.Hour)

	for range 3 {
		if _, err := m.Refresh("scheduled"); err != nil {
			t.Fatalf("Refresh() failed: %v", err)
		}
	}

	changes, refreshes, _ := rec.snapshot()
	if len(changes) != 1 || changes[0] != "added usb-a" {
		t.Errorf("changes = %v, want a single add", changes)
	}
	if len(refreshes) != 3 {
		t.Errorf("refreshes = %v, want one per pass", refreshes)
	}
}

func TestMonitorMissingCategoryEmptiesSnapshot(t *testing.T) {
	src := newFakeSource(webcam("usb-a", "Cam A", video(333333, 1920, 1080)))
	rec := &recordingBroadcaster{}
	m := NewMonitor(newEnumerator(src.open), rec, time.Hour)

	if _, err := m.Refresh("startup"); err != nil {
		t.Fatalf("initial Refresh() failed: %v", err)
	}

	// The category disappearing reads as zero devices, not a failure.
	src.devicesErr = ErrNoCategory

	found, err := m.Refresh("scheduled")
	if err != nil {
		t.Fatalf("Refresh() with missing category failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("Refresh() returned %d devices, want 0", len(found))
	}

	changes, refreshes, failures := rec.snapshot()
	if changes[len(changes)-1] != "removed usb-a" {
		t.Errorf("changes = %v, want trailing removal", changes)
	}
	if refreshes[len(refreshes)-1] != 0 {
		t.Errorf("refreshes = %v, want trailing 0", refreshes)
	}
	if len(failures) != 0 {
		t.Errorf("failures = %v, want none", failures)
	}
	if snap := m.Snapshot(); len(snap) != 0 {
		t.Errorf("Snapshot() = %v, want empty", snap)
	}
}

func TestMonitorKeepsSnapshotOnFailure(t *testing.T) {
	src := newFakeSource(webcam("usb-a", "Cam A", video(333333, 1920, 1080)))
	rec := &recordingBroadcaster{}
	m := NewMonitor(newEnumerator(src.open), rec, time.Hour)

	if _, err := m.Refresh("startup"); err != nil {
		t.Fatalf("initial Refresh() failed: %v", err)
	}

	src.devicesErr = errors.New("backend unavailable")

	if _, err := m.Refresh("scheduled"); err == nil {
		t.Fatal("Refresh() should propagate the failure")
	}

	changes, refreshes, failures := rec.snapshot()
	if len(failures) != 1 {
		t.Fatalf("failures = %v, want exactly one", failures)
	}
	if len(changes) != 1 || len(refreshes) != 1 {
		t.Errorf("failed pass must not emit changes or refreshes, got %v / %v", changes, refreshes)
	}

	// The last good snapshot survives a broken pass
	if snap := m.Snapshot(); len(snap) != 1 || snap[0].Name != "usb-a" {
		t.Errorf("Snapshot() = %v, want the previous device", snap)
	}
}

func TestMonitorNilBroadcaster(t *testing.T) {
	src := newFakeSource(webcam("usb-a", "Cam A", video(333333, 1920, 1080)))
	m := NewMonitor(newEnumerator(src.open), nil, time.Hour)

	if _, err := m.Refresh("startup"); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if snap := m.Snapshot(); len(snap) != 1 {
		t.Errorf("Snapshot() = %v, want one device", snap)
	}
}

func TestMonitorStartStop(t *testing.T) {
	src := newFakeSource(webcam("usb-a", "Cam A", video(333333, 1920, 1080)))
	rec := &recordingBroadcaster{}
	m := NewMonitor(newEnumerator(src.open), rec, time.Hour)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if snap := m.Snapshot(); len(snap) != 1 {
		t.Errorf("Snapshot() after Start = %v, want one device", snap)
	}

	m.Stop()

	// Stop is idempotent
	m.Stop()
}

func TestDeviceKey(t *testing.T) {
	withName := CaptureDevice{Name: "usb-0000:00:14.0-1", Description: "Cam"}
	if got := deviceKey(withName); got != "usb-0000:00:14.0-1" {
		t.Errorf("deviceKey = %q, want the name", got)
	}

	nameless := CaptureDevice{Description: "Integrated Camera"}
	if got := deviceKey(nameless); got != "description:Integrated Camera" {
		t.Errorf("deviceKey = %q, want description fallback", got)
	}
}

func TestSameDevice(t *testing.T) {
	base := CaptureDevice{
		Name:        "usb-a",
		Description: "Cam A",
		Resolutions: []Resolution{{Width: 1920, Height: 1080, FrameRate: 30}},
	}

	same := CaptureDevice{
		Name:        "usb-a",
		Description: "Cam A",
		Resolutions: []Resolution{{Width: 1920, Height: 1080, FrameRate: 30}},
	}
	if !sameDevice(base, same) {
		t.Error("identical devices reported as different")
	}

	moreModes := same
	moreModes.Resolutions = append([]Resolution{{Width: 3840, Height: 2160, FrameRate: 30}}, same.Resolutions...)
	if sameDevice(base, moreModes) {
		t.Error("resolution change not detected")
	}

	renamed := same
	renamed.Description = "Cam A (rev 2)"
	if sameDevice(base, renamed) {
		t.Error("description change not detected")
	}
}
