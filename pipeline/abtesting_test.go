package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

func TestABTestingAssignsVariant(t *testing.T) {
	mw := NewABTestingMiddleware(1)
	mw.RegisterExperiment("new_ui", 0.5, "treatment", "control")

	msg := message.New("s", "sub", "c")
	_, err := mw.Process(context.Background(), msg, okTerminal)
	require.NoError(t, err)

	variant, ok := msg.Meta("Experiment_new_ui")
	require.True(t, ok)
	assert.Contains(t, []any{"treatment", "control"}, variant)
}

func TestABTestingProbabilityBounds(t *testing.T) {
	mw := NewABTestingMiddleware(1)
	mw.RegisterExperiment("always_a", 1.0, "a", "b")
	mw.RegisterExperiment("never_a", 0.0, "a", "b")

	for i := 0; i < 50; i++ {
		msg := message.New("s", "sub", "c")
		_, err := mw.Process(context.Background(), msg, okTerminal)
		require.NoError(t, err)

		always, _ := msg.Meta("Experiment_always_a")
		assert.Equal(t, "a", always)
		never, _ := msg.Meta("Experiment_never_a")
		assert.Equal(t, "b", never)
	}
}

func TestABTestingClampsProbability(t *testing.T) {
	mw := NewABTestingMiddleware(1)
	mw.RegisterExperiment("over", 1.5, "a", "b")
	mw.RegisterExperiment("under", -0.5, "a", "b")

	msg := message.New("s", "sub", "c")
	_, err := mw.Process(context.Background(), msg, okTerminal)
	require.NoError(t, err)

	over, _ := msg.Meta("Experiment_over")
	assert.Equal(t, "a", over, "probability above 1 clamps to 1")
	under, _ := msg.Meta("Experiment_under")
	assert.Equal(t, "b", under, "probability below 0 clamps to 0")
}

func TestABTestingDistribution(t *testing.T) {
	mw := NewABTestingMiddleware(42)
	mw.RegisterExperiment("split", 0.5, "a", "b")

	const n = 1000
	countA := 0
	for i := 0; i < n; i++ {
		msg := message.New("s", "sub", "c")
		_, err := mw.Process(context.Background(), msg, okTerminal)
		require.NoError(t, err)
		if v, _ := msg.Meta("Experiment_split"); v == "a" {
			countA++
		}
	}

	// Three standard deviations around n/2 for a fair coin.
	assert.InDelta(t, n/2, countA, 3*16+1)
}

func TestABTestingReplaceExperiment(t *testing.T) {
	mw := NewABTestingMiddleware(1)
	mw.RegisterExperiment("exp", 1.0, "old_a", "old_b")
	mw.RegisterExperiment("exp", 1.0, "new_a", "new_b")

	msg := message.New("s", "sub", "c")
	_, err := mw.Process(context.Background(), msg, okTerminal)
	require.NoError(t, err)

	variant, _ := msg.Meta("Experiment_exp")
	assert.Equal(t, "new_a", variant)
}
