package api

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/capturenode/internal/devices"
	"github.com/smazurov/capturenode/internal/events"
	"github.com/smazurov/capturenode/internal/logging"
)

// openSSEStream connects to an SSE endpoint using the query-parameter auth
// fallback and returns the response plus a channel of "data:" lines.
func openSSEStream(t *testing.T, ts *httptest.Server, path string) (*http.Response, chan string) {
	t.Helper()

	credentials := strings.TrimPrefix(authHeader(), "Basic ")
	sseURL := fmt.Sprintf("%s%s?auth=%s", ts.URL, path, credentials)

	resp, err := http.Get(sseURL)
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		resp.Body.Close()
		t.Fatalf("Expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	messageChan := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data:") {
				messageChan <- line
			}
		}
	}()
	return resp, messageChan
}

func waitForMessage(t *testing.T, messageChan chan string, what string) string {
	t.Helper()
	select {
	case msg := <-messageChan:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("Timeout waiting for %s", what)
		return ""
	}
}

func TestSSEConnectionAndEvents(t *testing.T) {
	monitor := &fakeMonitor{
		devices: []devices.CaptureDevice{testCamera("cam0", "Snapshot Camera", 30)},
	}
	server, bus := newTestServer(&fakeEnumerator{}, monitor)
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	resp, messageChan := openSSEStream(t, ts, "/api/events")
	defer resp.Body.Close()

	// The stream opens with the monitor's current snapshot
	msg := waitForMessage(t, messageChan, "initial snapshot")
	if !strings.Contains(msg, "Snapshot Camera") || !strings.Contains(msg, `"count":1`) {
		t.Errorf("Expected snapshot with current devices, got: %s", msg)
	}

	// Subscriptions are live before the snapshot is sent, so publishing
	// now is safe.
	publisher := NewEventPublisher(bus)
	publisher.DeviceChanged("added", testCamera("cam1", "Hotplugged Camera", 60), time.Now().Format(time.RFC3339))

	msg = waitForMessage(t, messageChan, "device discovery event")
	if !strings.Contains(msg, "Hotplugged Camera") || !strings.Contains(msg, `"action":"added"`) {
		t.Errorf("Expected device discovery event, got: %s", msg)
	}
}

func TestSSERefreshedAndFailedEvents(t *testing.T) {
	server, bus := newTestServer(&fakeEnumerator{}, &fakeMonitor{})
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	resp, messageChan := openSSEStream(t, ts, "/api/events")
	defer resp.Body.Close()

	// Consume the initial empty snapshot
	msg := waitForMessage(t, messageChan, "initial snapshot")
	if !strings.Contains(msg, `"count":0`) {
		t.Errorf("Expected empty snapshot, got: %s", msg)
	}

	publisher := NewEventPublisher(bus)
	publisher.DevicesRefreshed([]devices.CaptureDevice{
		testCamera("cam0", "Refreshed Camera", 30),
	}, 120*time.Millisecond, time.Now().Format(time.RFC3339))

	msg = waitForMessage(t, messageChan, "devices refreshed event")
	if !strings.Contains(msg, "Refreshed Camera") || !strings.Contains(msg, `"duration_ms":120`) {
		t.Errorf("Expected devices refreshed event, got: %s", msg)
	}

	publisher.EnumerationFailed(&devices.Error{
		Code:    devices.ErrCodeDeviceQueryFailed,
		Message: "advance device enumerator",
	}, time.Now().Format(time.RFC3339))

	msg = waitForMessage(t, messageChan, "enumeration failed event")
	if !strings.Contains(msg, devices.ErrCodeDeviceQueryFailed) {
		t.Errorf("Expected enumeration failure event, got: %s", msg)
	}
}

func TestSSELogStream(t *testing.T) {
	logging.Initialize(logging.Config{Level: "debug", Format: "text"})
	logging.GetLogger("ssetest").Info("history entry")

	server, bus := newTestServer(&fakeEnumerator{}, &fakeMonitor{})
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	resp, messageChan := openSSEStream(t, ts, "/api/logs/stream")
	defer resp.Body.Close()

	msg := waitForMessage(t, messageChan, "buffered history entry")
	if !strings.Contains(msg, "history entry") {
		t.Errorf("Expected buffered entry first, got: %s", msg)
	}

	// History is replayed before the live subscription starts. Give the
	// handler a moment to reach the subscribe call before publishing.
	time.Sleep(200 * time.Millisecond)

	bus.Publish(events.LogEntryEvent{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     "info",
		Module:    "ssetest",
		Message:   "live entry",
	})

	msg = waitForMessage(t, messageChan, "live log entry")
	if !strings.Contains(msg, "live entry") {
		t.Errorf("Expected live entry, got: %s", msg)
	}
}

func TestSSEAuthFailure(t *testing.T) {
	server, _ := newTestServer(&fakeEnumerator{}, &fakeMonitor{})
	ts := httptest.NewServer(server.GetMux())
	defer ts.Close()

	// No credentials
	resp, err := http.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", resp.StatusCode)
	}

	// Wrong credentials via query parameter
	wrong := "d3Jvbmc6d3Jvbmc=" // wrong:wrong
	resp, err = http.Get(ts.URL + "/api/events?auth=" + wrong)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected status 401 for wrong auth, got %d", resp.StatusCode)
	}
}
