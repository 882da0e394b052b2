package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"salesadmin/domain/events"
)

func TestLogPublisher_LogsEachEvent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	publisher := NewLogPublisher(zap.New(core))
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	err := publisher.PublishBatch(context.Background(), []events.DomainEvent{
		events.NewProductDeleted("a", 1, at),
		events.NewFlatProductsMigrated(2, 0, at),
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, logs.FilterMessage("Domain event").Len())
	assert.Equal(t, events.TypeFlatProductsMigrated, logs.All()[1].ContextMap()["eventType"])
}
