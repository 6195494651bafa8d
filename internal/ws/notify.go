package ws

import (
	"context"
	"encoding/json"
	"errors"

	"lockedin/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subscriber is the receiving side of the notification channel.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, fn func(payload []byte)) error
}

// Route decodes one published notification event and hands it to the hub.
// It returns the recruiter the event was routed to.
func (h *Hub) Route(payload []byte) (uuid.UUID, error) {
	var evt notification.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return uuid.Nil, err
	}
	if evt.Type != notification.EventTypeSearchMatches || evt.RecruiterID == uuid.Nil {
		return uuid.Nil, errors.New("unroutable event")
	}
	h.SendToRecruiter(evt.RecruiterID, payload)
	return evt.RecruiterID, nil
}

// Forward relays the notification channel to connected recruiters until ctx
// is done. Events published by the notifier process reach websocket clients
// held by any server instance this way.
func Forward(ctx context.Context, sub Subscriber, channel string, hub *Hub, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("ws")

	err := sub.Subscribe(ctx, channel, func(payload []byte) {
		recruiterID, err := hub.Route(payload)
		if err != nil {
			logger.Warn("dropping notification event", zap.Error(err))
			return
		}
		logger.Debug("notification event forwarded", zap.String("recruiter_id", recruiterID.String()))
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
