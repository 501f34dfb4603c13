package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/urmzd/heosdial/pkg/api/types"
	"github.com/urmzd/heosdial/pkg/device"
	"github.com/urmzd/heosdial/pkg/device/schema"
)

// stubController serves a fixed topology and records state changes.
type stubController struct {
	device.NullController

	mu         sync.Mutex
	set        []map[string]any
	dispatched []device.Target
	setErr     error
}

func (s *stubController) ListDevices(context.Context) ([]device.Device, error) {
	return []device.Device{{ID: "1", Name: "Kitchen", StateSchema: schema.PlayerState}}, nil
}

func (s *stubController) GetDevice(_ context.Context, id string) (*device.Device, error) {
	if id != "1" {
		return nil, device.ErrNotFound
	}
	return &device.Device{ID: "1", Name: "Kitchen", StateSchema: schema.PlayerState}, nil
}

func (s *stubController) ListGroups(context.Context) ([]device.Group, error) {
	return []device.Group{{ID: "10", Name: "Downstairs", LeaderID: "1", StateSchema: schema.GroupState}}, nil
}

func (s *stubController) GetGroup(_ context.Context, id string) (*device.Group, error) {
	if id != "10" {
		return nil, device.ErrNotFound
	}
	return &device.Group{ID: "10", Name: "Downstairs", LeaderID: "1", StateSchema: schema.GroupState}, nil
}

func (s *stubController) GetDeviceState(context.Context, string) (device.DeviceState, error) {
	return device.DeviceState{"volume": 20, "mute": "off"}, nil
}

func (s *stubController) SetDeviceState(_ context.Context, _ string, state map[string]any) (device.DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return nil, s.setErr
	}
	s.set = append(s.set, state)
	return device.DeviceState(state), nil
}

func (s *stubController) SetGroupState(ctx context.Context, id string, state map[string]any) (device.DeviceState, error) {
	return s.SetDeviceState(ctx, id, state)
}

func (s *stubController) Dispatch(target device.Target, id string, state map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatched = append(s.dispatched, target)
	return "job-1"
}

func (s *stubController) IsConnected() bool { return true }

func newTestRouter(c device.Controller) http.Handler {
	return NewRouter(c, device.NewNullEventSubscriber(), schema.NewValidator()).Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(&stubController{}), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp types.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || resp.Players != 1 {
		t.Errorf("unexpected health %+v", resp)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("expected request id header")
	}

	w = do(newTestRouter(device.NewNullController()), http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for null controller, got %d", w.Code)
	}
}

func TestListPlayers(t *testing.T) {
	w := do(newTestRouter(&stubController{}), http.MethodGet, "/api/v1/players?state=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp types.ListPlayersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Players[0].State["mute"] != "off" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestGetPlayerNotFound(t *testing.T) {
	w := do(newTestRouter(&stubController{}), http.MethodGet, "/api/v1/players/99", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSetPlayerState(t *testing.T) {
	stub := &stubController{}
	h := newTestRouter(stub)

	w := do(h, http.MethodPost, "/api/v1/players/1/state", `{"volume": 35}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(stub.set) != 1 || stub.set[0]["volume"] != float64(35) {
		t.Errorf("unexpected state calls %v", stub.set)
	}

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"unknown key", `{"bass": 3}`, http.StatusBadRequest},
		{"bad enum", `{"play_state": "rewind"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodPost, "/api/v1/players/1/state", tt.body)
			if w.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, w.Code)
			}
		})
	}
}

func TestSetPlayerStateDeviceErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{device.ErrRejected, http.StatusBadGateway},
		{device.ErrTimeout, http.StatusGatewayTimeout},
		{device.ErrNotConnected, http.StatusServiceUnavailable},
		{device.ErrUnsupported, http.StatusConflict},
	}
	for _, tt := range tests {
		w := do(newTestRouter(&stubController{setErr: tt.err}), http.MethodPost, "/api/v1/players/1/state", `{"mute": "on"}`)
		if w.Code != tt.code {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.code, w.Code)
		}
	}
}

func TestSetGroupStateAsync(t *testing.T) {
	stub := &stubController{}
	w := do(newTestRouter(stub), http.MethodPost, "/api/v1/groups/10/state?async=true", `{"volume_step": -2}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp types.JobResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JobID != "job-1" || resp.Target != "group" || resp.ID != "10" {
		t.Errorf("unexpected job response %+v", resp)
	}
	if len(stub.dispatched) != 1 || stub.dispatched[0] != device.TargetGroup {
		t.Errorf("unexpected dispatches %v", stub.dispatched)
	}

	w = do(newTestRouter(stub), http.MethodPost, "/api/v1/groups/10/state", `{"play_state": "play"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("transport state on group: expected 400, got %d", w.Code)
	}
}

func TestRefreshWithoutDevice(t *testing.T) {
	w := do(newTestRouter(device.NewNullController()), http.MethodPost, "/api/v1/discovery/refresh", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
