package telemetry

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"github.com/valyala/bytebufferpool"

	"github.com/riskibarqy/office-pools/internal/platform/logging"
)

const defaultKafkaTopic = "office-pools.telemetry"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events with an async kafka-go writer. Delivery errors are logged only.
type KafkaSink struct {
	writer messageWriter
	topic  string
	logger *logging.Logger
	now    func() time.Time
}

func NewKafkaSink(brokers, topic string, logger *logging.Logger) *KafkaSink {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(topic) == "" {
		topic = defaultKafkaTopic
	}

	sink := &KafkaSink{topic: topic, logger: logger, now: time.Now}
	sink.writer = &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(_ []kafka.Message, err error) {
			if err != nil {
				logger.Warn("telemetry delivery failed", "topic", topic, "error", err)
			}
		},
	}
	logger.Info("kafka telemetry sink initialized", "brokers", brokers, "topic", topic)
	return sink
}

func newKafkaSinkWithWriter(w messageWriter, topic string, logger *logging.Logger) *KafkaSink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &KafkaSink{writer: w, topic: topic, logger: logger, now: time.Now}
}

func (s *KafkaSink) Emit(ctx context.Context, event Event) {
	if event.At.IsZero() {
		event.At = s.now().UTC()
	}

	value, err := encodeEvent(event)
	if err != nil {
		s.logger.WarnContext(ctx, "encode telemetry event failed", "event", event.Name, "error", err)
		return
	}

	key := event.PoolID
	if key == "" {
		key = event.Name
	}
	// The writer is async; context cancellation of the caller must not drop the event.
	if err := s.writer.WriteMessages(context.WithoutCancel(ctx), kafka.Message{Key: []byte(key), Value: value}); err != nil {
		s.logger.WarnContext(ctx, "publish telemetry event failed", "event", event.Name, "error", err)
	}
}

func (s *KafkaSink) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

func encodeEvent(event Event) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(event); err != nil {
		return nil, err
	}
	return bytes.Clone(bytes.TrimRight(buf.B, "\n")), nil
}
