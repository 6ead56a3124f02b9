package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hue-bus-bridge/internal/adapters/output/mqtt"
	"hue-bus-bridge/internal/domain/model"
)

type fakeSubscriber struct {
	topic   string
	handler mqtt.MessageHandler
	err     error
}

func (f *fakeSubscriber) Subscribe(topic string, handler mqtt.MessageHandler) error {
	f.topic = topic
	f.handler = handler
	return f.err
}

type recordingHandler struct {
	mu      sync.Mutex
	cmds    []model.InboundCommand
	err     error
	started chan struct{}
	release chan struct{}
}

func (h *recordingHandler) HandleCommand(_ context.Context, cmd model.InboundCommand) (*model.CommandResult, error) {
	if h.started != nil {
		h.started <- struct{}{}
	}
	if h.release != nil {
		<-h.release
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cmds = append(h.cmds, cmd)
	return &model.CommandResult{ID: cmd.ID}, h.err
}

func (h *recordingHandler) received() []model.InboundCommand {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.InboundCommand(nil), h.cmds...)
}

func newTestListener(t *testing.T) (*Listener, *fakeSubscriber, *recordingHandler) {
	t.Helper()
	sub := &fakeSubscriber{}
	h := &recordingHandler{}
	l, err := NewListener(h, sub, mqtt.Topics{Prefix: "xpl"}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, l.Start(context.Background()))
	return l, sub, h
}

func TestListener_Start(t *testing.T) {
	_, sub, _ := newTestListener(t)
	assert.Equal(t, "xpl/cmnd/+", sub.topic)
	assert.NotNil(t, sub.handler)

	failing := &fakeSubscriber{err: errors.New("not connected")}
	l, err := NewListener(&recordingHandler{}, failing, mqtt.Topics{Prefix: "xpl"}, zerolog.Nop())
	require.NoError(t, err)
	assert.ErrorContains(t, l.Start(context.Background()), "not connected")
}

func TestListener_JSONCommand(t *testing.T) {
	l, sub, h := newTestListener(t)

	err := sub.handler("xpl/cmnd/delabarre.command", []byte(`{"command":"brightness","device":"salon","brightness":40}`))
	require.NoError(t, err)
	l.Wait()

	cmds := h.received()
	require.Len(t, cmds, 1)
	cmd := cmds[0]
	assert.NotEmpty(t, cmd.ID)
	assert.Equal(t, "delabarre.command", cmd.BodyName)
	assert.Equal(t, map[string]any{"command": "brightness", "device": "salon", "brightness": float64(40)}, cmd.Body)
}

func TestListener_KeyValueCommand(t *testing.T) {
	l, sub, h := newTestListener(t)

	require.NoError(t, sub.handler("xpl/cmnd/x10.basic", []byte("command=on\ndevice=salon\n")))
	l.Wait()

	cmds := h.received()
	require.Len(t, cmds, 1)
	assert.Equal(t, "x10.basic", cmds[0].BodyName)
	assert.Equal(t, map[string]any{"command": "on", "device": "salon"}, cmds[0].Body)
}

func TestListener_HandlerErrorsAreNotReturned(t *testing.T) {
	l, sub, h := newTestListener(t)
	h.err = errors.New("target failed")

	assert.NoError(t, sub.handler("xpl/cmnd/x10.basic", []byte(`{"command":"off"}`)))
	l.Wait()
	assert.Len(t, h.received(), 1)
}

func TestListener_MessageHandlerDoesNotWaitForCommand(t *testing.T) {
	l, sub, h := newTestListener(t)
	h.started = make(chan struct{}, 1)
	h.release = make(chan struct{})

	returned := make(chan error, 1)
	go func() { returned <- sub.handler("xpl/cmnd/x10.basic", []byte(`{"command":"on","device":"salon"}`)) }()

	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("message handler blocked on command execution")
	}
	<-h.started
	assert.Empty(t, h.received())

	close(h.release)
	l.Wait()
	assert.Len(t, h.received(), 1)
}

func TestListener_InvalidPayloads(t *testing.T) {
	_, sub, h := newTestListener(t)

	tests := []struct {
		name    string
		topic   string
		payload string
	}{
		{"empty", "xpl/cmnd/x10.basic", "   "},
		{"broken json", "xpl/cmnd/x10.basic", `{"command":`},
		{"missing command", "xpl/cmnd/x10.basic", `{"device":"salon"}`},
		{"empty command", "xpl/cmnd/x10.basic", `{"command":""}`},
		{"nested value", "xpl/cmnd/x10.basic", `{"command":"on","extra":{"a":1}}`},
		{"malformed line", "xpl/cmnd/x10.basic", "command"},
		{"wrong topic", "xpl/stat/x10.basic", `{"command":"on"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sub.handler(tt.topic, []byte(tt.payload))
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
	assert.Empty(t, h.received())
}
