package app

import (
	"context"
	"testing"
	"time"

	"lockedin/internal/config"
	"lockedin/internal/infrastructure/cache"
	"lockedin/internal/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestContainer_DelivererWithoutRedisFails(t *testing.T) {
	c := &Container{
		Config: config.Config{Notifier: config.NotifierConfig{NotificationChannel: "lockedin:notifications"}},
		Logger: zap.NewNop(),
		Redis:  cache.NewRedisFromClient(nil, nil),
	}
	d := notification.Delivery{SearchID: uuid.New(), RecruiterID: uuid.New(), MatchCount: 1, CreatedAt: time.Now()}

	assert.False(t, c.HasTransport())
	assert.ErrorIs(t, c.deliverer().Deliver(context.Background(), d), cache.ErrUnavailable)

	c.Config.Notifier.LogOnly = true
	assert.True(t, c.HasTransport())
	assert.NoError(t, c.deliverer().Deliver(context.Background(), d))
}
