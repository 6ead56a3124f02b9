package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hue-bus-bridge/internal/adapters/input/bus"
	"hue-bus-bridge/internal/domain/model"
	"hue-bus-bridge/internal/domain/translator"
)

type fakeStatus struct {
	entries []model.CacheEntry
	health  model.Health
}

func (f *fakeStatus) Entries() []model.CacheEntry { return f.entries }
func (f *fakeStatus) Health() model.Health         { return f.health }
func (f *fakeStatus) Lookup(key string) (model.CacheEntry, bool) {
	for _, e := range f.entries {
		if e.RoutingKey == key {
			return e, true
		}
	}
	return model.CacheEntry{}, false
}

type fakeCommands struct {
	calls int
	got   model.InboundCommand
	res *model.CommandResult
	err error
}

func (f *fakeCommands) HandleCommand(_ context.Context, cmd model.InboundCommand) (*model.CommandResult, error) {
	f.calls++
	f.got = cmd
	return f.res, f.err
}

type fakeConfig struct{}

func (fakeConfig) GetConfig(context.Context) (*model.Config, error) {
	return &model.Config{Bus: model.BusConfig{Broker: "tcp://broker:1883", Password: "secret"}}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeStatus, *fakeCommands) {
	t.Helper()
	v, err := bus.NewValidator()
	require.NoError(t, err)
	st := &fakeStatus{entries: []model.CacheEntry{
		{RoutingKey: "salon", Kind: model.DeviceKindLight, BridgeID: "3", LastAttributes: map[string]model.Scalar{"status": true}},
	}}
	cmds := &fakeCommands{}
	return NewServer(st, cmds, fakeConfig{}, v, zerolog.Nop()), st, cmds
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s, st, _ := newTestServer(t)
	h := s.Routes()

	rec := do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	st.health = model.Health{State: "idle", LastSync: time.Now(), Lights: 1}
	rec = do(t, h, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var got model.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "idle", got.State)
	assert.Equal(t, 1, got.Lights)
}

func TestServer_State(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Routes()

	rec := do(t, h, http.MethodGet, "/api/state", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"routing_key":"salon"`)

	rec = do(t, h, http.MethodGet, "/api/state/salon", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"routing_key":"salon","kind":"light","bridge_id":"3","attributes":{"status":true}}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/state/cuisine", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), ErrCodeNotFound)
}

func TestServer_Command(t *testing.T) {
	s, _, cmds := newTestServer(t)
	h := s.Routes()

	cmds.res = &model.CommandResult{Op: model.OpOn, Targets: []model.TargetResult{{Key: "salon", Attempts: 1}}}
	rec := do(t, h, http.MethodPost, "/api/command/x10.basic", `{"command":"on","device":"salon"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "x10.basic", cmds.got.BodyName)
	assert.Equal(t, map[string]any{"command": "on", "device": "salon"}, cmds.got.Body)
	assert.NotEmpty(t, cmds.got.ID)

	rec = do(t, h, http.MethodPost, "/api/command/x10.basic", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CommandBodyValidated(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing command", `{"device":"salon"}`},
		{"empty command", `{"command":"","device":"salon"}`},
		{"nested value", `{"command":"on","device":{"name":"salon"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, cmds := newTestServer(t)
			rec := do(t, s.Routes(), http.MethodPost, "/api/command/x10.basic", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), ErrCodeBadRequest)
			assert.Zero(t, cmds.calls)
		})
	}
}

func TestServer_CommandErrors(t *testing.T) {
	tests := []struct {
		name   string
		res    *model.CommandResult
		err    error
		status int
	}{
		{"rejected", nil, &translator.RejectedError{Reason: "no targets"}, http.StatusBadRequest},
		{"ignored", nil, translator.ErrIgnoredBody, http.StatusUnprocessableEntity},
		{"partial failure", &model.CommandResult{Targets: []model.TargetResult{{Key: "a", Error: "boom"}}}, errors.New("target a failed"), http.StatusBadGateway},
		{"unexpected", nil, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, cmds := newTestServer(t)
			cmds.res, cmds.err = tt.res, tt.err
			rec := do(t, s.Routes(), http.MethodPost, "/api/command/x10.basic", `{"command":"on"}`)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestServer_ConfigIsRedacted(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s.Routes(), http.MethodGet, "/admin/config", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tcp://broker:1883")
	assert.NotContains(t, rec.Body.String(), "secret")
}
