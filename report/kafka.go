package report

import (
	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
)

// Kafka publishes progress events to one topic, keyed by run ID so all
// events for a run land in the same partition.
type Kafka struct {
	topic    string
	producer sarama.SyncProducer
}

// NewKafka dials the brokers and returns a Kafka reporter.
func NewKafka(hosts []string, topic string) (*Kafka, error) {
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(hosts, conf)
	if err != nil {
		return nil, errors.Wrap(err, "getting new producer")
	}
	return &Kafka{topic: topic, producer: producer}, nil
}

// Report implements Reporter.
func (k *Kafka) Report(e Event) error {
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(e.RunID),
		Value: e,
	}
	_, _, err := k.producer.SendMessage(msg)
	return errors.Wrap(err, "sending progress event")
}

// Close shuts the producer down.
func (k *Kafka) Close() error {
	return k.producer.Close()
}
