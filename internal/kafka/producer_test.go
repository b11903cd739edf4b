package kafka

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinehall/internal/logger"
	"dinehall/internal/models"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "test.log"))
	log := logger.NewLogger()
	t.Cleanup(log.Close)
	return log
}

func TestTopicForEvent(t *testing.T) {
	assert.Equal(t, TopicOrderEvents, topicForEvent(models.EventOrderCreated))
	assert.Equal(t, TopicOrderEvents, topicForEvent(models.EventOrderReconcile))
	assert.Equal(t, "payment-events", topicForEvent(models.EventPaymentCompleted))
	assert.Equal(t, "reservation-events", topicForEvent(models.EventReservationCancelled))
	assert.Equal(t, "lifecycle-events", topicForEvent("something.else"))
}

func TestMockProducerPublishesWithoutBroker(t *testing.T) {
	producer, err := NewProducer(nil, true, newTestLogger(t))
	require.NoError(t, err)
	defer producer.Close()

	err = producer.PublishLifecycleEvent(&models.LifecycleEvent{
		Type:     models.EventOrderCreated,
		EntityID: "o1",
		Order:    &models.Order{ID: "o1", TableID: "t1", Status: models.OrderPending},
	})
	assert.NoError(t, err)
}
