package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/heartline/internal/model"
)

type failingSignal struct{}

func (failingSignal) Completeness(context.Context, string) (int, error) {
	return 0, errors.New("profile service down")
}

func TestComputeMetrics(t *testing.T) {
	e := newTestEngine(t, day(2025, 6, 30))
	ctx := context.Background()

	_, err := e.profiles.UpdateCompleteness(ctx, "u1", 80)
	require.NoError(t, err)

	for i, meaningful := range []bool{true, true, true, false} {
		e.record(t, "u1", model.ActivityConversation, map[string]bool{"meaningful": meaningful}, day(2025, 6, 20+i))
	}
	e.record(t, "u1", model.ActivityLogin, nil, day(2025, 6, 29))
	e.record(t, "u1", model.ActivityLogin, nil, day(2025, 6, 30))
	// Outside the 30 day window.
	e.record(t, "u1", model.ActivityConversation, map[string]bool{"meaningful": false}, day(2025, 5, 1))

	m := e.scorer.ComputeMetrics(ctx, "u1")
	assert.Equal(t, model.MetricsComplete, m.Status)
	assert.Empty(t, m.Unavailable)
	assert.Equal(t, 80, m.ProfileScore)
	assert.Equal(t, 75, m.ConversationQuality)
	assert.Equal(t, 20, m.Consistency)
	assert.Equal(t, testWeights.Overall(m.ProfileScore, m.ConversationQuality, m.Consistency), m.OverallScore)
}

func TestComputeMetrics_NoActivity(t *testing.T) {
	e := newTestEngine(t, day(2025, 6, 30))

	m := e.scorer.ComputeMetrics(context.Background(), "nobody")
	assert.Equal(t, model.ProgressMetrics{Status: model.MetricsComplete}, m)
}

func TestComputeMetrics_PartialWhenSignalFails(t *testing.T) {
	e := newTestEngine(t, day(2025, 6, 30))
	e.scorer.profile = failingSignal{}

	e.record(t, "u1", model.ActivityLogin, nil, day(2025, 6, 30))

	m := e.scorer.ComputeMetrics(context.Background(), "u1")
	assert.Equal(t, model.MetricsPartial, m.Status)
	assert.Equal(t, []string{model.SubScoreProfile}, m.Unavailable)
	assert.Equal(t, 0, m.ProfileScore)
	assert.Equal(t, 3, m.Consistency)
}

func TestWeightsOverall_Bounds(t *testing.T) {
	weights := []model.Weights{
		testWeights,
		{Profile: 1},
		{Profile: 0.2, Conversation: 0.2, Consistency: 0.6},
	}

	for _, w := range weights {
		assert.Equal(t, 0, w.Overall(0, 0, 0))
		assert.Equal(t, 100, w.Overall(100, 100, 100))
		for _, s := range []int{1, 33, 50, 99} {
			v := w.Overall(s, 100-s, s)
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, 100)
		}
	}
}
