package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"tickethub/internal/orders"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// OrderEventProducer publishes order lifecycle events.
type OrderEventProducer interface {
	PublishOrderEvent(ctx context.Context, event *OrderEvent) error
	Close() error
}

// KafkaProducerConfig contains configuration for the Kafka order event producer
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "order-events",
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000,
	}
}

// KafkaOrderEventProducer publishes order events to Kafka
type KafkaOrderEventProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
}

// NewKafkaOrderEventProducer creates a new Kafka order event producer
func NewKafkaOrderEventProducer(config *KafkaProducerConfig) (OrderEventProducer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = config.MaxMessageBytes

	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner so one order's events share a partition
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Printf("Kafka order event producer created")
	return &KafkaOrderEventProducer{producer: producer, config: config}, nil
}

// PublishOrderEvent publishes a single order event to Kafka
func (p *KafkaOrderEventProducer) PublishOrderEvent(ctx context.Context, event *OrderEvent) error {
	messageBytes, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.config.Topic,
		Key:       sarama.StringEncoder(event.PartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Headers:   p.createHeaders(event),
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send order event to Kafka: %w", err)
	}

	log.Printf("Order event published - Topic: %s, Partition: %d, Offset: %d, Type: %s, Order: %s",
		p.config.Topic, partition, offset, event.Type, event.OrderID)
	return nil
}

func (p *KafkaOrderEventProducer) createHeaders(event *OrderEvent) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte("event_id"), Value: []byte(event.ID.String())},
		{Key: []byte("event_type"), Value: []byte(event.Type)},
		{Key: []byte("order_id"), Value: []byte(event.OrderID.String())},
		{Key: []byte("user_id"), Value: []byte(event.UserID.String())},
		{Key: []byte("version"), Value: []byte("1.0")},
		{Key: []byte("producer"), Value: []byte("tickethub-orders")},
		{Key: []byte("occurred_at"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
	}
}

// Close closes the Kafka producer
func (p *KafkaOrderEventProducer) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
		log.Printf("Kafka order event producer closed")
	}
	return nil
}

// Publisher adapts the Kafka producer to the checkout flow's
// post-commit hook. Implements orders.EventPublisher.
type Publisher struct {
	producer OrderEventProducer
}

func NewPublisher(producer OrderEventProducer) *Publisher {
	return &Publisher{producer: producer}
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, order *orders.Order, tickets []orders.Ticket) error {
	tInfo := make([]TicketInfo, 0, len(tickets))
	for i := range tickets {
		tInfo = append(tInfo, TicketInfo{TicketID: tickets[i].ID, SeatID: tickets[i].SeatID})
	}

	return p.producer.PublishOrderEvent(ctx, &OrderEvent{
		ID:          uuid.New(),
		Type:        EventOrderPaid,
		OrderID:     order.ID,
		UserID:      order.UserID,
		EventID:     order.EventID,
		AmountCents: order.TotalAmountCents,
		Tickets:     tInfo,
		OccurredAt:  time.Now().UTC(),
	})
}

func (p *Publisher) PublishOrderFailed(ctx context.Context, order *orders.Order, reason string) error {
	return p.producer.PublishOrderEvent(ctx, &OrderEvent{
		ID:          uuid.New(),
		Type:        EventOrderFailed,
		OrderID:     order.ID,
		UserID:      order.UserID,
		EventID:     order.EventID,
		AmountCents: order.TotalAmountCents,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	})
}
