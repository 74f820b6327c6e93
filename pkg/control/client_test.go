package control

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"
)

type fakeCamera struct {
	mu       sync.Mutex
	requests []string
	webcam   WebcamStatus
	presets  string
	fail     map[string]int
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{
		presets: `{"presetGroupArray":[
			{"id":1000,"name":"Video","presets":[
				{"id":1,"name":"Standard"},
				{"id":2,"name":"Activity"}]},
			{"id":1001,"name":"Photo","presets":[
				{"id":65536,"name":"Photo"}]}]}`,
		fail: make(map[string]int),
	}
}

func (f *fakeCamera) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.Path+"?"+r.URL.RawQuery)
		status, shouldFail := f.fail[r.URL.Path]
		webcam := f.webcam
		presets := f.presets
		f.mu.Unlock()

		if shouldFail {
			w.WriteHeader(status)
			return
		}
		switch r.URL.Path {
		case pathWebcamStatus:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":` + strconv.Itoa(webcam.Status) + `,"error":0}`))
		case pathPresetsGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(presets))
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
}

func (f *fakeCamera) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, req := range f.requests {
		u, _ := url.Parse(req)
		out = append(out, u.Path)
	}
	return out
}

func (f *fakeCamera) countPath(path string) int {
	n := 0
	for _, p := range f.paths() {
		if p == path {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse test server port: %v", err)
	}
	client, err := NewClient(Endpoint{Host: u.Hostname(), Port: port}, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestEndpointValidate(t *testing.T) {
	cases := []struct {
		endpoint Endpoint
		wantErr  bool
	}{
		{Endpoint{Host: "10.5.5.9", Port: 8080}, false},
		{Endpoint{Host: "", Port: 8080}, true},
		{Endpoint{Host: "10.5.5.9", Port: 0}, true},
		{Endpoint{Host: "10.5.5.9", Port: 70000}, true},
	}
	for _, tc := range cases {
		err := tc.endpoint.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tc.endpoint, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidEndpoint) {
			t.Errorf("Validate(%+v) error %v not wrapped in ErrInvalidEndpoint", tc.endpoint, err)
		}
	}
}

func TestWebcamStartDisablesUSBFirst(t *testing.T) {
	camera := newFakeCamera()
	srv := httptest.NewServer(camera.handler())
	defer srv.Close()

	client := newTestClient(t, srv)
	if err := client.WebcamStart(context.Background(), 8554); err != nil {
		t.Fatalf("WebcamStart: %v", err)
	}

	paths := camera.paths()
	if len(paths) != 2 {
		t.Fatalf("expected 2 requests, got %v", paths)
	}
	if paths[0] != pathWiredUSB {
		t.Fatalf("first request = %s, want wired usb disable", paths[0])
	}
	if paths[1] != pathWebcamStart {
		t.Fatalf("second request = %s, want webcam start", paths[1])
	}
}

func TestWebcamStartToleratesUSBDisableFailure(t *testing.T) {
	camera := newFakeCamera()
	camera.fail[pathWiredUSB] = http.StatusInternalServerError
	srv := httptest.NewServer(camera.handler())
	defer srv.Close()

	client := newTestClient(t, srv)
	if err := client.WebcamStart(context.Background(), 8554); err != nil {
		t.Fatalf("WebcamStart should tolerate usb disable failure, got %v", err)
	}
	if camera.countPath(pathWebcamStart) != 1 {
		t.Fatal("webcam start request was not sent")
	}
}

func TestEnableWiredUSBRefusedWhileWebcamActive(t *testing.T) {
	camera := newFakeCamera()
	camera.webcam = WebcamStatus{Status: WebcamHighPower}
	srv := httptest.NewServer(camera.handler())
	defer srv.Close()

	client := newTestClient(t, srv)
	err := client.EnableWiredUSB(context.Background())

	var precondition *PreconditionError
	if !errors.As(err, &precondition) {
		t.Fatalf("error = %v, want PreconditionError", err)
	}
	if camera.countPath(pathWiredUSB) != 0 {
		t.Fatal("usb enable request was sent despite active webcam")
	}
}

func TestEnableWiredUSBWhenWebcamOff(t *testing.T) {
	camera := newFakeCamera()
	srv := httptest.NewServer(camera.handler())
	defer srv.Close()

	client := newTestClient(t, srv)
	if err := client.EnableWiredUSB(context.Background()); err != nil {
		t.Fatalf("EnableWiredUSB: %v", err)
	}
	if camera.countPath(pathWiredUSB) != 1 {
		t.Fatal("usb enable request missing")
	}
}

func TestLoadPresetByName(t *testing.T) {
	camera := newFakeCamera()
	srv := httptest.NewServer(camera.handler())
	defer srv.Close()

	client := newTestClient(t, srv)
	if err := client.LoadPresetByName(context.Background(), "Video", "Activity"); err != nil {
		t.Fatalf("LoadPresetByName: %v", err)
	}

	camera.mu.Lock()
	defer camera.mu.Unlock()
	last := camera.requests[len(camera.requests)-1]
	if last != pathPresetsLoad+"?id=2" {
		t.Fatalf("load request = %s, want %s?id=2", last, pathPresetsLoad)
	}
}

func TestLoadPresetByNameNotFound(t *testing.T) {
	camera := newFakeCamera()
	srv := httptest.NewServer(camera.handler())
	defer srv.Close()

	client := newTestClient(t, srv)

	err := client.LoadPresetByName(context.Background(), "Video", "Cinematic")
	if !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("error = %v, want ErrPresetNotFound", err)
	}
	err = client.LoadPresetByName(context.Background(), "Timelapse", "Standard")
	if !errors.Is(err, ErrPresetNotFound) {
		t.Fatalf("error = %v, want ErrPresetNotFound", err)
	}
	if camera.countPath(pathPresetsLoad) != 0 {
		t.Fatal("load request issued despite failed lookup")
	}
}

func TestLoadPresetGroup(t *testing.T) {
	camera := newFakeCamera()
	srv := httptest.NewServer(camera.handler())
	defer srv.Close()

	client := newTestClient(t, srv)
	if err := client.LoadPresetGroup(context.Background(), "Photo"); err != nil {
		t.Fatalf("LoadPresetGroup: %v", err)
	}

	camera.mu.Lock()
	defer camera.mu.Unlock()
	last := camera.requests[len(camera.requests)-1]
	if last != pathPresetsSetGroup+"?id=1001" {
		t.Fatalf("set_group request = %s, want %s?id=1001", last, pathPresetsSetGroup)
	}
}

func TestCommandErrorCarriesStatus(t *testing.T) {
	camera := newFakeCamera()
	camera.fail[pathShutterStart] = http.StatusInternalServerError
	srv := httptest.NewServer(camera.handler())
	defer srv.Close()

	client := newTestClient(t, srv)
	err := client.ShutterStart(context.Background())

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %v, want CommandError", err)
	}
	if cmdErr.Status != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", cmdErr.Status)
	}
}

func TestKeepAlivePulsesAndStops(t *testing.T) {
	camera := newFakeCamera()
	srv := httptest.NewServer(camera.handler())
	defer srv.Close()

	client := newTestClient(t, srv)
	service := NewKeepAliveService(client, 10*time.Millisecond, 3)
	service.StartPulse(context.Background())

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if camera.countPath(pathKeepAlive) >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if camera.countPath(pathKeepAlive) < 2 {
		t.Fatal("expected at least two keep alive pings")
	}

	service.StopPulse()
	service.StopPulse() // idempotent

	time.Sleep(50 * time.Millisecond)
	after := camera.countPath(pathKeepAlive)
	time.Sleep(50 * time.Millisecond)
	if camera.countPath(pathKeepAlive) != after {
		t.Fatal("keep alive kept pinging after stop")
	}
}

func TestKeepAliveStopConcurrent(t *testing.T) {
	service := NewKeepAliveService(nil, time.Second, 3)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			service.StopPulse()
		}()
	}
	wg.Wait()
}
