package services

import (
	"fmt"
	"time"

	"dinehall/internal/logger"
	"dinehall/internal/models"
)

// EventPublisher is what the services need from the Kafka producer.
type EventPublisher interface {
	PublishLifecycleEvent(event *models.LifecycleEvent) error
}

// publishEvent sends a lifecycle event and logs instead of failing: a bus
// outage never aborts an operation that already committed to the store.
func publishEvent(producer EventPublisher, log *logger.Logger, event *models.LifecycleEvent) {
	if producer == nil {
		return
	}
	event.Timestamp = time.Now()
	if err := producer.PublishLifecycleEvent(event); err != nil {
		log.Error("KAFKA", fmt.Sprintf("Failed to publish %s event for %s: %v", event.Type, event.EntityID, err))
	}
}
