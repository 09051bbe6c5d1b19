package routing

import (
	"sort"
	"sync"

	"github.com/scrawlsbenches/MafiaAgentSystem-sub000/logging"
)

// Predicate decides whether a rule matches a routing context.
// Predicates must be pure with respect to the context; the engine makes no
// caching assumptions.
type Predicate func(ctx *Context) bool

// Rule binds a predicate to a target agent with a priority.
// Priority may be any integer; ties are broken by insertion order.
type Rule struct {
	ID            string
	Name          string
	Predicate     Predicate
	TargetAgentID string
	Priority      int

	// seq is the insertion sequence used for stable tie-breaking.
	seq int
}

// =============================================================================
// RULE ENGINE
// =============================================================================

// Engine evaluates an ordered set of routing rules against a context.
//
// Matching rules are sorted by priority descending, then insertion order
// ascending. Adding a rule with an existing id replaces it in place, keeping
// its original insertion position.
type Engine struct {
	logger logging.Logger

	rules map[string]*Rule
	order []string
	// nextSeq increments per first-time insertion.
	nextSeq int
	// stopOnFirstMatch limits Evaluate to the single best match.
	stopOnFirstMatch bool

	mu sync.RWMutex
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithStopOnFirstMatch makes Evaluate return at most the single
// highest-priority match.
func WithStopOnFirstMatch() EngineOption {
	return func(e *Engine) { e.stopOnFirstMatch = true }
}

// NewEngine creates a rule engine. A nil logger is replaced with a no-op
// logger.
func NewEngine(logger logging.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{
		logger: logger,
		rules:  make(map[string]*Rule),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddRule inserts a rule, or replaces the rule with the same id in place.
func (e *Engine) AddRule(rule Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.rules[rule.ID]; ok {
		rule.seq = existing.seq
		e.rules[rule.ID] = &rule
		e.logger.Debug("rule_replaced", "rule_id", rule.ID, "priority", rule.Priority)
		return
	}

	rule.seq = e.nextSeq
	e.nextSeq++
	e.rules[rule.ID] = &rule
	e.order = append(e.order, rule.ID)
	e.logger.Debug("rule_added", "rule_id", rule.ID, "priority", rule.Priority)
}

// RemoveRule removes a rule by id. Returns true if the rule existed.
func (e *Engine) RemoveRule(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.rules[id]; !ok {
		return false
	}
	delete(e.rules, id)
	for i, existing := range e.order {
		if existing == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return true
}

// ListRules returns a snapshot of all rules in insertion order.
func (e *Engine) ListRules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]Rule, 0, len(e.order))
	for _, id := range e.order {
		result = append(result, *e.rules[id])
	}
	return result
}

// Evaluate returns the rules whose predicate matches ctx, sorted by priority
// descending then insertion order ascending. With stop-on-first-match the
// result holds at most the single best rule.
//
// A predicate that panics is treated as "does not match" and logged; it does
// not abort evaluation of other rules.
func (e *Engine) Evaluate(ctx *Context) []Rule {
	// Evaluation runs against a snapshot so predicates never block rule
	// mutations.
	snapshot := e.ListRules()

	var matches []Rule
	for i := range snapshot {
		rule := snapshot[i]
		if e.safeMatch(&rule, ctx) {
			matches = append(matches, rule)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Priority != matches[j].Priority {
			return matches[i].Priority > matches[j].Priority
		}
		return matches[i].seq < matches[j].seq
	})

	if e.stopOnFirstMatch && len(matches) > 1 {
		matches = matches[:1]
	}
	return matches
}

// Best returns the single highest-priority matching rule.
func (e *Engine) Best(ctx *Context) (Rule, bool) {
	matches := e.Evaluate(ctx)
	if len(matches) == 0 {
		return Rule{}, false
	}
	return matches[0], true
}

// safeMatch runs a predicate with panic recovery.
func (e *Engine) safeMatch(rule *Rule, ctx *Context) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			matched = false
			e.logger.Error("rule_predicate_panic",
				"rule_id", rule.ID,
				"rule_name", rule.Name,
				"panic", r,
			)
		}
	}()

	if rule.Predicate == nil {
		return false
	}
	return rule.Predicate(ctx)
}
