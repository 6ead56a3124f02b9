package bus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hue-bus-bridge/internal/adapters/output/mqtt"
	"hue-bus-bridge/internal/domain/model"
	"hue-bus-bridge/internal/ports"
)

const defaultCommandTimeout = 30 * time.Second

var ErrInvalidPayload = errors.New("bus: invalid command payload")

type Subscriber interface {
	Subscribe(topic string, handler mqtt.MessageHandler) error
}

// Listener turns command messages from the bus into InboundCommands.
type Listener struct {
	handler   ports.CommandHandler
	sub       Subscriber
	topics    mqtt.Topics
	validator *Validator
	log       zerolog.Logger
	ctx       context.Context
	inflight  sync.WaitGroup
}

func NewListener(handler ports.CommandHandler, sub Subscriber, topics mqtt.Topics, log zerolog.Logger) (*Listener, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &Listener{
		handler:   handler,
		sub:       sub,
		topics:    topics,
		validator: v,
		log:       log.With().Str("component", "listener").Logger(),
		ctx:       context.Background(),
	}, nil
}

// Start subscribes to every command topic. Commands run with a context
// derived from ctx.
func (l *Listener) Start(ctx context.Context) error {
	l.ctx = ctx
	if err := l.sub.Subscribe(l.topics.Commands(), l.onMessage); err != nil {
		return fmt.Errorf("subscribe %s: %w", l.topics.Commands(), err)
	}
	l.log.Info().Str("topic", l.topics.Commands()).Msg("listening for commands")
	return nil
}

func (l *Listener) onMessage(topic string, payload []byte) error {
	bodyName, ok := l.topics.ParseCommand(topic)
	if !ok {
		return fmt.Errorf("%w: unexpected topic %s", ErrInvalidPayload, topic)
	}
	body, err := DecodeBody(payload)
	if err != nil {
		return err
	}
	if err := l.validator.Validate(body); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	// Execution waits for the bridge session, so it must not hold up the
	// MQTT client's message routing.
	cmd := model.InboundCommand{
		ID:       uuid.NewString(),
		BodyName: bodyName,
		Body:     body,
	}
	l.inflight.Add(1)
	go l.dispatch(cmd)
	return nil
}

func (l *Listener) dispatch(cmd model.InboundCommand) {
	defer l.inflight.Done()
	ctx, cancel := context.WithTimeout(l.ctx, defaultCommandTimeout)
	defer cancel()

	// The service logs rejections and target failures itself.
	_, _ = l.handler.HandleCommand(ctx, cmd)
}

// Wait blocks until every dispatched command has finished.
func (l *Listener) Wait() {
	l.inflight.Wait()
}

// DecodeBody accepts a JSON object or legacy "key=value" lines.
func DecodeBody(payload []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}
	if trimmed[0] == '{' {
		var body map[string]any
		if err := json.Unmarshal(trimmed, &body); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return body, nil
	}

	body := make(map[string]any)
	for _, line := range strings.Split(string(trimmed), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: malformed line %q", ErrInvalidPayload, line)
		}
		body[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return body, nil
}
