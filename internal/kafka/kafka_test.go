package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokersSplitsAndTrims(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, Brokers(" a:9092 , ,b:9092"))
	assert.Empty(t, Brokers(""))
}

func TestNoBrokers(t *testing.T) {
	require.Error(t, WaitForBroker(context.Background(), nil))
	require.Error(t, EnsureTopic(context.Background(), nil, DefaultPositionsTopic))
}

func TestNewWriterTargetsTopic(t *testing.T) {
	w := NewWriter([]string{"localhost:9092"}, DefaultOpportunitiesTopic)
	defer w.Close()
	assert.Equal(t, DefaultOpportunitiesTopic, w.Topic)
}
