package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const EventTypeSearchMatches = "saved_search.matches"

// Event is the wire form of a delivery, published for connected recruiters.
type Event struct {
	Type         string      `json:"type"`
	SearchID     uuid.UUID   `json:"saved_search_id"`
	RecruiterID  uuid.UUID   `json:"recruiter_id"`
	SearchName   string      `json:"saved_search_name"`
	Template     Template    `json:"template"`
	Subject      string      `json:"subject"`
	Body         string      `json:"body"`
	MatchCount   int         `json:"matches_count"`
	CandidateIDs []uuid.UUID `json:"candidate_ids"`
	Timestamp    string      `json:"timestamp"`
}

func EventFrom(d Delivery) Event {
	return Event{
		Type:         EventTypeSearchMatches,
		SearchID:     d.SearchID,
		RecruiterID:  d.RecruiterID,
		SearchName:   d.SearchName,
		Template:     d.Template,
		Subject:      d.Subject,
		Body:         d.Body,
		MatchCount:   d.MatchCount,
		CandidateIDs: d.CandidateIDs,
		Timestamp:    d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ErrNoReceivers means the event was published but nobody was subscribed.
var ErrNoReceivers = errors.New("notification published without receivers")

type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

// PublishDeliverer hands deliveries to a pub/sub channel. The API server
// subscribes to it and pushes events to recruiter websockets.
type PublishDeliverer struct {
	pub     Publisher
	channel string
	logger  *zap.Logger
}

func NewPublishDeliverer(pub Publisher, channel string, logger *zap.Logger) *PublishDeliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishDeliverer{pub: pub, channel: channel, logger: logger}
}

func (p *PublishDeliverer) Deliver(ctx context.Context, d Delivery) error {
	if p == nil || p.pub == nil {
		return errors.New("publisher not configured")
	}
	b, err := json.Marshal(EventFrom(d))
	if err != nil {
		return err
	}
	n, err := p.pub.Publish(ctx, p.channel, b)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoReceivers
	}
	p.logger.Debug("notification published",
		zap.String("channel", p.channel),
		zap.Int64("receivers", n),
		zap.String("saved_search_id", d.SearchID.String()),
		zap.Int("matches", d.MatchCount),
	)
	return nil
}

// LogDeliverer only logs and always succeeds, so every delivery consumes its
// matches. It is selected only when log-only delivery is switched on.
type LogDeliverer struct {
	logger *zap.Logger
}

func NewLogDeliverer(logger *zap.Logger) *LogDeliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogDeliverer{logger: logger}
}

func (l *LogDeliverer) Deliver(_ context.Context, d Delivery) error {
	l.logger.Info("notification",
		zap.String("recruiter_id", d.RecruiterID.String()),
		zap.String("saved_search_id", d.SearchID.String()),
		zap.String("template", string(d.Template)),
		zap.String("subject", d.Subject),
		zap.Int("matches", d.MatchCount),
	)
	return nil
}
