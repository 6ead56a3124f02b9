package influx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"hue-bus-bridge/internal/domain/model"
)

const (
	measurement = "hue_change"

	defaultConnectTimeout = 10 * time.Second
	defaultBatchSize      = 100
	defaultFlushInterval  = 10_000 // milliseconds
)

var (
	ErrDisabled         = errors.New("influx: telemetry disabled")
	ErrConnectionFailed = errors.New("influx: connection failed")
)

type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

// Recorder stores every published change as a point. Writes are batched and
// never block the publisher.
type Recorder struct {
	client influxdb2.Client
	writer pointWriter
	log    zerolog.Logger

	closed bool
	mu     sync.RWMutex
}

// Connect pings the server and opens a non-blocking write API.
func Connect(cfg model.TelemetryConfig, log zerolog.Logger) (*Recorder, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(defaultBatchSize).
			SetFlushInterval(defaultFlushInterval))

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()
	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	r := newRecorder(writeAPI, log)
	r.client = client
	go r.handleWriteErrors(writeAPI.Errors())
	return r, nil
}

func newRecorder(w pointWriter, log zerolog.Logger) *Recorder {
	return &Recorder{
		writer: w,
		log:    log.With().Str("component", "influx").Logger(),
	}
}

func (r *Recorder) handleWriteErrors(errs <-chan error) {
	for err := range errs {
		r.log.Warn().Err(err).Msg("write failed")
	}
}

// Record queues one change. It is a no-op after Close.
func (r *Recorder) Record(kind string, rec model.ChangeRecord) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	p, ok := newPoint(kind, rec, time.Now())
	if !ok {
		return
	}
	r.writer.WritePoint(p)
}

// Close flushes pending points and closes the client.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.writer.Flush()
	if r.client != nil {
		r.client.Close()
	}
	return nil
}

// newPoint maps a change onto a point. Field names depend on the value type
// so each field keeps a single Influx type.
func newPoint(kind string, rec model.ChangeRecord, now time.Time) (*write.Point, bool) {
	tags := map[string]string{
		"device": rec.RoutingKey,
		"type":   rec.Attribute,
		"kind":   kind,
	}
	if rec.Unit != "" {
		tags["unit"] = rec.Unit
	}

	fields := make(map[string]interface{}, 1)
	switch v := rec.Value.(type) {
	case bool:
		fields["state"] = v
	case string:
		fields["text"] = v
	default:
		n, ok := model.Number(v)
		if !ok {
			return nil, false
		}
		fields["value"] = n
	}
	return influxdb2.NewPoint(measurement, tags, fields, now), true
}
