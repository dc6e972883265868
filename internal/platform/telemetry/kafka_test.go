package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaSink_EmitEncodesEvent(t *testing.T) {
	w := &recordingWriter{}
	sink := newKafkaSinkWithWriter(w, "test-topic", nil)
	sink.now = func() time.Time { return time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC) }

	sink.Emit(context.Background(), Event{Name: EventRetry, Label: "claim cell", PoolID: "pool-1", Attempt: 2})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "pool-1", string(w.msgs[0].Key))

	var got Event
	require.NoError(t, sonic.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, EventRetry, got.Name)
	assert.Equal(t, 2, got.Attempt)
	assert.True(t, got.At.Equal(time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)))
}

func TestKafkaSink_EmitSwallowsWriterErrors(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	sink := newKafkaSinkWithWriter(w, "test-topic", nil)

	assert.NotPanics(t, func() {
		sink.Emit(context.Background(), Event{Name: EventRetryFailed})
	})
}

func TestNop_Emit(t *testing.T) {
	Nop().Emit(context.Background(), Event{Name: EventPoolLocked})
	NewLogSink(nil).Emit(context.Background(), Event{Name: EventPoolLocked})
}
