// Package events publishes course lifecycle events to Kafka.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"alcyxob/rehab-course/internal/config"
	"alcyxob/rehab-course/internal/logger"
)

// MessageWriter is the write side of a Kafka producer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
}

// KafkaProducer lazily manages writers per topic. Every writer shares the
// settings from config.KafkaConfig.
type KafkaProducer struct {
	cfg     config.KafkaConfig
	acks    kafka.RequiredAcks
	log     *logger.Logger
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

// NewKafkaProducer creates a KafkaProducer for cfg.Brokers.
func NewKafkaProducer(cfg config.KafkaConfig, log *logger.Logger) *KafkaProducer {
	return &KafkaProducer{
		cfg:     cfg,
		acks:    requiredAcks(cfg.RequiredAcks),
		log:     log.With("component", "KafkaProducer"),
		writers: make(map[string]*kafka.Writer),
	}
}

func requiredAcks(name string) kafka.RequiredAcks {
	switch name {
	case "one":
		return kafka.RequireOne
	case "none":
		return kafka.RequireNone
	default:
		return kafka.RequireAll
	}
}

// WriteMessages writes messages to the given topic, creating a writer if necessary.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writerForTopic(topic).WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writerForTopic(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if writer, ok := p.writers[topic]; ok {
		return writer
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // one user's events share a partition
		RequiredAcks:           p.acks,
		Compression:            kafka.Snappy,
		WriteTimeout:           p.cfg.WriteTimeout,
		BatchTimeout:           p.cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
		Transport:              &kafka.Transport{ClientID: p.cfg.ClientID},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			p.log.Warn("kafka writer", "topic", topic, "detail", fmt.Sprintf(msg, args...))
		}),
	}
	p.writers[topic] = writer
	p.log.Debug("created kafka writer", "topic", topic, "brokers", p.cfg.Brokers)
	return writer
}

// Close releases all writers.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.writers, topic)
	}
	return firstErr
}
