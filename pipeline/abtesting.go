package pipeline

import (
	"context"
	"math/rand"
	"sync"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// Experiment is one A/B test: messages are assigned variantA with the given
// probability and variantB otherwise.
type Experiment struct {
	Name        string
	Probability float64
	VariantA    string
	VariantB    string
}

// ABTestingMiddleware assigns each message a variant for every registered
// experiment and records the assignment as metadata under
// "Experiment_<name>". Registering an experiment under an existing name
// replaces it.
type ABTestingMiddleware struct {
	mu          sync.Mutex
	experiments map[string]Experiment
	order       []string
	rng         *rand.Rand
}

// NewABTestingMiddleware creates a middleware with no experiments.
func NewABTestingMiddleware(seed int64) *ABTestingMiddleware {
	return &ABTestingMiddleware{
		experiments: make(map[string]Experiment),
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// RegisterExperiment adds or replaces an experiment. Probability is clamped
// to [0, 1].
func (m *ABTestingMiddleware) RegisterExperiment(name string, probability float64, variantA, variantB string) {
	if probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.experiments[name]; !exists {
		m.order = append(m.order, name)
	}
	m.experiments[name] = Experiment{
		Name:        name,
		Probability: probability,
		VariantA:    variantA,
		VariantB:    variantB,
	}
}

// Process implements the Middleware interface.
func (m *ABTestingMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	m.mu.Lock()
	for _, name := range m.order {
		exp := m.experiments[name]
		variant := exp.VariantB
		if m.rng.Float64() < exp.Probability {
			variant = exp.VariantA
		}
		msg.SetMeta("Experiment_"+name, variant)
	}
	m.mu.Unlock()

	return next(ctx, msg)
}

var _ Middleware = (*ABTestingMiddleware)(nil)
