package kafka

import (
	"time"

	"github.com/Shopify/sarama"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"syncchat/config"
	"syncchat/logger"
)

// EventProducer publishes a compact event for every persisted message.
// Keyed by conversation id with the hash partitioner, so downstream
// consumers (offline push, archival) see each conversation in order.
type EventProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func buildConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Net.DialTimeout = 10 * time.Second
	cfg.Net.ReadTimeout = 30 * time.Second
	cfg.Net.WriteTimeout = 30 * time.Second
	return cfg
}

func NewEventProducer(c config.KafkaConfig) (*EventProducer, error) {
	var p sarama.SyncProducer
	op := func() error {
		var err error
		p, err = sarama.NewSyncProducer(c.Brokers, buildConfig())
		return err
	}
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.RetryNotify(op, bo, func(err error, d time.Duration) {
		logger.Warnf("[kafka] producer init failed: %v, retry in %s", err, d)
	}); err != nil {
		return nil, errors.Wrap(err, "kafka producer")
	}
	return &EventProducer{producer: p, topic: c.Topic}, nil
}

// Publish sends one event; key is the conversation id.
func (e *EventProducer) Publish(key string, value []byte) error {
	_, _, err := e.producer.SendMessage(&sarama.ProducerMessage{
		Topic: e.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	return errors.Wrap(err, "kafka publish")
}

func (e *EventProducer) Close() error {
	return e.producer.Close()
}
