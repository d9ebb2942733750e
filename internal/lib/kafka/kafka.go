package kafka

import (
	"encoding/json"
	"log/slog"
	"time"

	"artemis/internal/domain/models"
	"artemis/internal/lib/logger/sl"

	"github.com/IBM/sarama"
)

// Producer publishes audit events (sign-in/out, authorization denials,
// request metrics) to Kafka. Delivery is fire-and-forget; losing an audit
// event must never fail the request that produced it.
type Producer struct {
	producer sarama.AsyncProducer
	log      *slog.Logger
}

func NewProducer(log *slog.Logger, brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = false
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	go func() {
		for err := range producer.Errors() {
			log.Warn("kafka producer error", sl.Err(err))
		}
	}()

	return &Producer{producer: producer, log: log}, nil
}

func (p *Producer) SendEvent(event map[string]interface{}, topic models.Topic) {
	message, err := json.Marshal(event)
	if err != nil {
		p.log.Warn("failed to serialize event", sl.Err(err))
		return
	}

	select {
	case p.producer.Input() <- &sarama.ProducerMessage{
		Topic: string(topic),
		Value: sarama.ByteEncoder(message),
	}:
	default:
		p.log.Warn("event dropped, producer input blocked", slog.String("topic", string(topic)))
	}
}

func (p *Producer) Close() {
	if err := p.producer.Close(); err != nil {
		p.log.Warn("failed to close kafka producer", sl.Err(err))
	}
}
