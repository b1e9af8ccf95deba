package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hetulpatel/arbhunter/internal/models"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var published = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestPublishOpportunitiesKeysById(t *testing.T) {
	w := &recordingWriter{}
	p := NewPublisher(w, nil, func() time.Time { return published })

	err := p.PublishOpportunities(context.Background(), []models.Opportunity{
		{OpportunityID: "opp-1", EventName: "Fed cut", Profit: 9.89},
		{OpportunityID: "opp-2", EventName: "BTC"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "opp-1", string(w.msgs[0].Key))

	var ev OpportunityEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "Fed cut", ev.Opportunity.EventName)
	assert.Equal(t, 9.89, ev.Opportunity.Profit)
	assert.True(t, published.Equal(ev.PublishedAt))
}

func TestPublishPositionCarriesPreviousState(t *testing.T) {
	w := &recordingWriter{}
	p := NewPublisher(nil, w, func() time.Time { return published })

	pos := models.Position{PositionID: "pos-1", State: models.StateEntered}
	require.NoError(t, p.PublishPosition(context.Background(), pos, models.StateWatching))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "pos-1", string(w.msgs[0].Key))

	var ev PositionEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, models.StateEntered, ev.Position.State)
	assert.Equal(t, models.StateWatching, ev.Previous)
}

func TestDisabledStreamsPublishNothing(t *testing.T) {
	var nilPub *Publisher
	ctx := context.Background()
	assert.NoError(t, nilPub.PublishOpportunities(ctx, []models.Opportunity{{OpportunityID: "x"}}))
	assert.NoError(t, nilPub.PublishPosition(ctx, models.Position{}, ""))
	assert.NoError(t, nilPub.Close())

	p := NewPublisher(nil, nil, nil)
	assert.NoError(t, p.PublishOpportunities(ctx, []models.Opportunity{{OpportunityID: "x"}}))
	assert.NoError(t, p.PublishPosition(ctx, models.Position{}, ""))
}

func TestWriteErrorsSurfaceAndCloseAll(t *testing.T) {
	boom := errors.New("broker down")
	opps := &recordingWriter{err: boom}
	pos := &recordingWriter{}
	p := NewPublisher(opps, pos, nil)

	err := p.PublishOpportunities(context.Background(), []models.Opportunity{{OpportunityID: "x"}})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, p.Close())
	assert.True(t, opps.closed)
	assert.True(t, pos.closed)
}
