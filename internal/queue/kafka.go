package queue

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

const flushTimeoutMs = 5000

var _ PortfolioQueue = (*KafkaQueue)(nil)

// KafkaQueue produces published events to a Kafka topic keyed by owner, so one
// owner's versions stay ordered within a partition.
type KafkaQueue struct {
	producer *kafka.Producer
	topic    string
	done     chan struct{}
}

func NewKafkaQueue(brokers, topic string) (*KafkaQueue, error) {
	if topic == "" {
		topic = PortfolioPublishedTopic
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
	})
	if err != nil {
		return nil, err
	}

	q := &KafkaQueue{producer: producer, topic: topic, done: make(chan struct{})}
	go q.drainEvents()

	return q, nil
}

// drainEvents logs delivery reports for messages produced without a delivery channel.
func (q *KafkaQueue) drainEvents() {
	defer close(q.done)
	for e := range q.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				logrus.Errorf("kafka delivery failed: %v", ev.TopicPartition.Error)
			}
		case kafka.Error:
			logrus.Warnf("kafka: %v", ev)
		}
	}
}

func (q *KafkaQueue) PublishPublished(ctx context.Context, event *PublishedEvent) error {
	value, err := event.MarshalBinary()
	if err != nil {
		return err
	}

	err = q.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &q.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.OwnerID),
		Value:          value,
	}, nil)
	if err != nil {
		return fmt.Errorf("produce %s: %w", q.topic, err)
	}

	return nil
}

func (q *KafkaQueue) Close() error {
	if left := q.producer.Flush(flushTimeoutMs); left > 0 {
		logrus.Warnf("kafka: %d published events not delivered before close", left)
	}
	q.producer.Close()
	<-q.done
	return nil
}
