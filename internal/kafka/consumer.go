package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"dinehall/internal/logger"
	"dinehall/internal/models"
)

// TopicOrderEvents carries every order lifecycle event.
const TopicOrderEvents = "order-events"

// OrderConsumer feeds order lifecycle events to a handler. Its one consumer
// in this service is the read-only kitchen board.
type OrderConsumer struct {
	consumer sarama.ConsumerGroup
	topics   []string
	log      *logger.Logger
}

func NewOrderConsumer(brokers []string, groupID string, log *logger.Logger) (*OrderConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &OrderConsumer{
		consumer: consumer,
		topics:   []string{TopicOrderEvents},
		log:      log,
	}, nil
}

func (c *OrderConsumer) ConsumeOrderEvents(ctx context.Context, handler func(*models.LifecycleEvent) error) error {
	consumerHandler := &orderEventHandler{handler: handler, log: c.log}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.consumer.Consume(ctx, c.topics, consumerHandler); err != nil {
				c.log.Error("KAFKA", fmt.Sprintf("Error consuming messages: %v", err))
				return err
			}
		}
	}
}

func (c *OrderConsumer) Close() error {
	return c.consumer.Close()
}

type orderEventHandler struct {
	handler func(*models.LifecycleEvent) error
	log     *logger.Logger
}

func (h *orderEventHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *orderEventHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *orderEventHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var event models.LifecycleEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			h.log.Error("KAFKA", fmt.Sprintf("Failed to unmarshal message: %v", err))
			continue
		}

		if err := h.handler(&event); err != nil {
			h.log.Error("KAFKA", fmt.Sprintf("Failed to handle order event: %v", err))
			continue
		}

		session.MarkMessage(message, "")
	}

	return nil
}
