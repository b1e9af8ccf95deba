package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/hetulpatel/arbhunter/internal/models"
)

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OpportunityEvent is the payload written to the opportunities topic.
type OpportunityEvent struct {
	Opportunity models.Opportunity `json:"opportunity"`
	PublishedAt time.Time          `json:"published_at"`
}

// PositionEvent is the payload written to the positions topic. Previous is
// empty for a newly created position.
type PositionEvent struct {
	Position    models.Position      `json:"position"`
	Previous    models.PositionState `json:"previous_state,omitempty"`
	PublishedAt time.Time            `json:"published_at"`
}

// Publisher fans engine events out to Kafka. A nil writer disables that
// stream, so the zero value publishes nothing.
type Publisher struct {
	opportunities Writer
	positions     Writer
	now           func() time.Time
}

func NewPublisher(opportunities, positions Writer, now func() time.Time) *Publisher {
	if now == nil {
		now = time.Now
	}
	return &Publisher{opportunities: opportunities, positions: positions, now: now}
}

// PublishOpportunities writes one message per opportunity keyed by its id.
func (p *Publisher) PublishOpportunities(ctx context.Context, opps []models.Opportunity) error {
	if p == nil || p.opportunities == nil || len(opps) == 0 {
		return nil
	}
	published := p.clock().UTC()
	msgs := make([]kafka.Message, 0, len(opps))
	for _, o := range opps {
		payload, err := json.Marshal(OpportunityEvent{Opportunity: o, PublishedAt: published})
		if err != nil {
			return fmt.Errorf("marshal opportunity %s: %w", o.OpportunityID, err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(o.OpportunityID), Value: payload})
	}
	return p.opportunities.WriteMessages(ctx, msgs...)
}

// PublishPosition writes a position transition keyed by position id.
func (p *Publisher) PublishPosition(ctx context.Context, pos models.Position, previous models.PositionState) error {
	if p == nil || p.positions == nil {
		return nil
	}
	payload, err := json.Marshal(PositionEvent{Position: pos, Previous: previous, PublishedAt: p.clock().UTC()})
	if err != nil {
		return fmt.Errorf("marshal position %s: %w", pos.PositionID, err)
	}
	return p.positions.WriteMessages(ctx, kafka.Message{Key: []byte(pos.PositionID), Value: payload})
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	for _, w := range []Writer{p.opportunities, p.positions} {
		if w != nil {
			if err := w.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) clock() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}
