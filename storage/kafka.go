package storage

import (
	"encoding/json"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	"github.com/janelia-flyem/agstore/agstore"
)

// KafkaMaxMessageSize is the max message size in bytes for a Kafka message.
const KafkaMaxMessageSize = 980 * agstore.Kilo

// KafkaConfig describes the kafka servers commit events are published to.
type KafkaConfig struct {
	Servers []string `toml:"servers" json:"servers,omitempty"`

	// Topic defaults to "agstore-commits-<graph id>" when empty.
	Topic string `toml:"topic" json:"topic,omitempty"`
}

// Enabled returns true if any servers are configured.
func (kc KafkaConfig) Enabled() bool {
	return len(kc.Servers) != 0
}

var topicCleaner = regexp.MustCompile(`[^a-zA-Z0-9._\-]+`)

// TopicName returns the configured topic or the default for a graph id, with
// characters kafka rejects replaced by dashes.
func (kc KafkaConfig) TopicName(graphID string) string {
	topic := kc.Topic
	if topic == "" {
		topic = "agstore-commits-" + graphID
	}
	return topicCleaner.ReplaceAllString(topic, "-")
}

// KafkaPublisher publishes a JSON message for every commit of the graphs it
// listens to.  It implements graph.CommitListener.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string

	mu       sync.Mutex
	failures int
}

// NewKafkaPublisher connects a synchronous producer to the configured servers.
func NewKafkaPublisher(kc KafkaConfig, graphID string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.MaxMessageBytes = KafkaMaxMessageSize
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(kc.Servers, config)
	if err != nil {
		return nil, err
	}
	p := NewKafkaPublisherWithProducer(producer, kc.TopicName(graphID))
	agstore.Infof("Kafka topic for commits of graph %s: %s\n", graphID, p.topic)
	return p, nil
}

// NewKafkaPublisherWithProducer publishes through an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Topic returns the topic messages are sent to.
func (p *KafkaPublisher) Topic() string {
	return p.topic
}

// GraphCommitted sends the event.  Failures are logged and counted.
func (p *KafkaPublisher) GraphCommitted(e agstore.CommitEvent) {
	e.TagName = e.Tag.String()
	value, err := json.Marshal(e)
	if err != nil {
		agstore.Errorf("unable to marshal commit %d of graph %s for kafka: %v\n", e.Version, e.GraphID, err)
		p.failed()
		return
	}
	timeKey := sarama.StringEncoder(strconv.FormatInt(time.Now().UnixNano(), 10))
	msg := &sarama.ProducerMessage{Topic: p.topic, Key: timeKey, Value: sarama.ByteEncoder(value)}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		agstore.Errorf("error on kafka send of commit %d of graph %s: %v\n", e.Version, e.GraphID, err)
		p.failed()
	}
}

func (p *KafkaPublisher) failed() {
	p.mu.Lock()
	p.failures++
	p.mu.Unlock()
}

// Failures returns the number of events that could not be published.
func (p *KafkaPublisher) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

// Close flushes and closes the producer.
func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		agstore.Errorf("Kafka producer had error on close: %v\n", err)
		return err
	}
	agstore.Infof("Successfully shut down kafka producer for topic %s.\n", p.topic)
	return nil
}
