package pipeline

import (
	"context"
	"sync"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/message"
)

// FlagCondition decides whether a flag applies to a specific message.
type FlagCondition func(msg *message.Message) bool

type featureFlag struct {
	enabled   bool
	condition FlagCondition
}

// FeatureFlagMiddleware evaluates registered flags per message and stores
// the outcome as a typed boolean value under "Feature_<name>". A flag is on
// for a message when it is enabled and its condition (if any) returns true.
//
// Conditions are caller code: a panicking condition propagates up through
// Process unrecovered.
type FeatureFlagMiddleware struct {
	mu    sync.RWMutex
	flags map[string]featureFlag
	order []string
}

// NewFeatureFlagMiddleware creates a middleware with no flags.
func NewFeatureFlagMiddleware() *FeatureFlagMiddleware {
	return &FeatureFlagMiddleware{flags: make(map[string]featureFlag)}
}

// RegisterFlag adds or replaces a flag. A nil condition means the flag
// applies to every message.
func (m *FeatureFlagMiddleware) RegisterFlag(name string, enabled bool, condition FlagCondition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.flags[name]; !exists {
		m.order = append(m.order, name)
	}
	m.flags[name] = featureFlag{enabled: enabled, condition: condition}
}

// SetEnabled flips a flag without touching its condition. Unknown names are
// ignored.
func (m *FeatureFlagMiddleware) SetEnabled(name string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if flag, ok := m.flags[name]; ok {
		flag.enabled = enabled
		m.flags[name] = flag
	}
}

// Process implements the Middleware interface.
func (m *FeatureFlagMiddleware) Process(ctx context.Context, msg *message.Message, next Handler) (*message.Result, error) {
	m.mu.RLock()
	names := make([]string, len(m.order))
	copy(names, m.order)
	flags := make(map[string]featureFlag, len(m.flags))
	for k, v := range m.flags {
		flags[k] = v
	}
	m.mu.RUnlock()

	for _, name := range names {
		flag := flags[name]
		on := flag.enabled
		if on && flag.condition != nil {
			on = flag.condition(msg)
		}
		msg.SetValue("Feature_"+name, on)
	}

	return next(ctx, msg)
}

var _ Middleware = (*FeatureFlagMiddleware)(nil)
