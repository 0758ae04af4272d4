package broadcastsvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/smartstudentv6/smart-student-notices/core"
	"github.com/smartstudentv6/smart-student-notices/core/notice"
)

// KafkaBroadcaster publishes invalidation events to a Kafka topic so other
// dashboard processes re-read their views. Fire and forget: publish failures
// are logged, never surfaced.
type KafkaBroadcaster struct {
	writer *kafka.Writer
	log    core.Logger
}

var _ notice.Broadcaster = (*KafkaBroadcaster)(nil)

func NewKafkaBroadcaster(conf *core.Config, log core.Logger) *KafkaBroadcaster {
	return &KafkaBroadcaster{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(conf.Kafka.Brokers...),
			Topic:        conf.Kafka.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
		log: log,
	}
}

func (b *KafkaBroadcaster) Broadcast(ev notice.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		b.log.Error("marshaling invalidation event", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.CourseID),
		Value: data,
	}); err != nil {
		b.log.Error("publishing invalidation event", err)
	}
}

func (b *KafkaBroadcaster) Close() error {
	return b.writer.Close()
}
