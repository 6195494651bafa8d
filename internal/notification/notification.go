// Package notification renders and delivers saved-search notifications.
package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	"lockedin/internal/domain/match"
	"lockedin/internal/domain/savedsearch"

	"github.com/google/uuid"
)

type Template string

const (
	TemplateImmediate    Template = "immediate"
	TemplateDailyDigest  Template = "daily_digest"
	TemplateWeeklyDigest Template = "weekly_digest"
)

var ErrNothingToDeliver = errors.New("no pending matches to deliver")

// TemplateFor picks the message template from the search frequency. Unknown
// frequencies fall back to the immediate template.
func TemplateFor(f savedsearch.Frequency) Template {
	switch f {
	case savedsearch.FrequencyDaily:
		return TemplateDailyDigest
	case savedsearch.FrequencyWeekly:
		return TemplateWeeklyDigest
	default:
		return TemplateImmediate
	}
}

// Delivery is one rendered notification for the owner of a saved search.
type Delivery struct {
	SearchID     uuid.UUID
	RecruiterID  uuid.UUID
	SearchName   string
	Frequency    savedsearch.Frequency
	Template     Template
	Subject      string
	Body         string
	CandidateIDs []uuid.UUID
	MatchCount   int
	CreatedAt    time.Time
}

type Deliverer interface {
	Deliver(ctx context.Context, d Delivery) error
}

type DelivererFunc func(ctx context.Context, d Delivery) error

func (f DelivererFunc) Deliver(ctx context.Context, d Delivery) error {
	return f(ctx, d)
}

func Subject(searchName string) string {
	return "New candidates match your search: " + searchName
}

var bodies = map[Template]*template.Template{
	TemplateImmediate: template.Must(template.New(string(TemplateImmediate)).Parse(
		`{{.Count}} new candidate{{if ne .Count 1}}s{{end}} matched "{{.Name}}".`)),
	TemplateDailyDigest: template.Must(template.New(string(TemplateDailyDigest)).Parse(
		`Your daily digest for "{{.Name}}": {{.Count}} new candidate{{if ne .Count 1}}s{{end}} since {{.Since}}.`)),
	TemplateWeeklyDigest: template.Must(template.New(string(TemplateWeeklyDigest)).Parse(
		`Your weekly digest for "{{.Name}}": {{.Count}} new candidate{{if ne .Count 1}}s{{end}} since {{.Since}}.`)),
}

type bodyData struct {
	Name  string
	Count int
	Since string
}

// Build renders the delivery for the pending matches of s.
func Build(s savedsearch.SavedSearch, pending []match.SearchMatch, now time.Time) (Delivery, error) {
	if len(pending) == 0 {
		return Delivery{}, ErrNothingToDeliver
	}

	tpl := TemplateFor(s.Frequency)
	since := "your last update"
	if s.LastNotifiedAt != nil {
		since = s.LastNotifiedAt.UTC().Format("2006-01-02 15:04 MST")
	}

	var buf bytes.Buffer
	if err := bodies[tpl].Execute(&buf, bodyData{Name: s.Name, Count: len(pending), Since: since}); err != nil {
		return Delivery{}, fmt.Errorf("render %s: %w", tpl, err)
	}

	ids := make([]uuid.UUID, 0, len(pending))
	for _, m := range pending {
		ids = append(ids, m.CandidateID)
	}

	return Delivery{
		SearchID:     s.ID,
		RecruiterID:  s.RecruiterID,
		SearchName:   s.Name,
		Frequency:    s.Frequency,
		Template:     tpl,
		Subject:      Subject(s.Name),
		Body:         buf.String(),
		CandidateIDs: ids,
		MatchCount:   len(pending),
		CreatedAt:    now,
	}, nil
}

// WithTimeout bounds every delivery. A non-positive timeout disables the bound.
func WithTimeout(d Deliverer, timeout time.Duration) Deliverer {
	if timeout <= 0 {
		return d
	}
	return DelivererFunc(func(ctx context.Context, del Delivery) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		errc := make(chan error, 1)
		go func() { errc <- d.Deliver(ctx, del) }()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
			return fmt.Errorf("deliver %s: %w", del.SearchID, ctx.Err())
		}
	})
}
