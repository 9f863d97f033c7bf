package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/prodrule/internal/ir"
)

// Observer receives plan-construction and evaluation events.
//
// Observers are optional and never influence results. Rule and level
// arguments are indices: rule indexes the rule set in declaration order,
// level indexes the plan.
type Observer interface {
	// RuleLifted fires when a rule is moved from level to level+1 because
	// it reads unmet, a variable not yet defined.
	RuleLifted(rule, level int, unmet string)

	// LevelClosed fires once a level holds only satisfiable rules.
	LevelClosed(level int, rules []int)

	// RuleFired fires after a rule's assignments were applied.
	RuleFired(level, rule int, assigned []ir.Pair)

	// RuleSkipped fires when a rule's predicate is false; failed is the
	// first IF pair that did not hold.
	RuleSkipped(level, rule int, failed ir.Pair)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) RuleLifted(int, int, string)   {}
func (NopObserver) LevelClosed(int, []int)        {}
func (NopObserver) RuleFired(int, int, []ir.Pair) {}
func (NopObserver) RuleSkipped(int, int, ir.Pair) {}

// SlogObserver writes every event as a structured Debug record.
type SlogObserver struct {
	logger *slog.Logger
	rules  []ir.Rule
}

// NewSlogObserver returns an observer that logs to logger. The rules are
// used only to render rule labels.
func NewSlogObserver(logger *slog.Logger, rules []ir.Rule) *SlogObserver {
	return &SlogObserver{logger: logger, rules: rules}
}

func (o *SlogObserver) label(rule int) string {
	if rule >= 0 && rule < len(o.rules) {
		return o.rules[rule].Label(rule)
	}
	return ir.Rule{}.Label(rule)
}

func (o *SlogObserver) RuleLifted(rule, level int, unmet string) {
	o.logger.LogAttrs(context.Background(), slog.LevelDebug, "rule lifted",
		slog.String("rule", o.label(rule)),
		slog.Int("from_level", level),
		slog.String("var", unmet))
}

func (o *SlogObserver) LevelClosed(level int, rules []int) {
	labels := make([]string, len(rules))
	for i, r := range rules {
		labels[i] = o.label(r)
	}
	o.logger.LogAttrs(context.Background(), slog.LevelDebug, "level closed",
		slog.Int("level", level),
		slog.Any("rules", labels))
}

func (o *SlogObserver) RuleFired(level, rule int, assigned []ir.Pair) {
	o.logger.LogAttrs(context.Background(), slog.LevelDebug, "rule fired",
		slog.Int("level", level),
		slog.String("rule", o.label(rule)),
		slog.Int("assignments", len(assigned)))
}

func (o *SlogObserver) RuleSkipped(level, rule int, failed ir.Pair) {
	o.logger.LogAttrs(context.Background(), slog.LevelDebug, "rule skipped",
		slog.Int("level", level),
		slog.String("rule", o.label(rule)),
		slog.String("var", failed.Var),
		slog.String("value", failed.Value))
}

// Event kinds recorded by Recorder.
const (
	EventLifted      = "lifted"
	EventLevelClosed = "level_closed"
	EventFired       = "fired"
	EventSkipped     = "skipped"
)

// TraceEvent is one recorded observer callback.
type TraceEvent struct {
	Kind  string    `json:"kind"`
	Level int       `json:"level"`
	Rule  int       `json:"rule"`            // -1 for level_closed
	Rules []int     `json:"rules,omitempty"` // level_closed only
	Var   string    `json:"var,omitempty"`   // lifted: unmet var; skipped: failed var
	Value string    `json:"value,omitempty"` // skipped: expected value
	Pairs []ir.Pair `json:"pairs,omitempty"` // fired: assignments
}

// Recorder collects events in order. Safe for concurrent use, although a
// single evaluation only ever calls it from one goroutine.
type Recorder struct {
	mu     sync.Mutex
	events []TraceEvent
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(ev TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) RuleLifted(rule, level int, unmet string) {
	r.add(TraceEvent{Kind: EventLifted, Level: level, Rule: rule, Var: unmet})
}

func (r *Recorder) LevelClosed(level int, rules []int) {
	r.add(TraceEvent{Kind: EventLevelClosed, Level: level, Rule: -1, Rules: append([]int{}, rules...)})
}

func (r *Recorder) RuleFired(level, rule int, assigned []ir.Pair) {
	r.add(TraceEvent{Kind: EventFired, Level: level, Rule: rule, Pairs: append([]ir.Pair{}, assigned...)})
}

func (r *Recorder) RuleSkipped(level, rule int, failed ir.Pair) {
	r.add(TraceEvent{Kind: EventSkipped, Level: level, Rule: rule, Var: failed.Var, Value: failed.Value})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TraceEvent{}, r.events...)
}

// Fired returns the indices of rules that fired, in firing order.
func (r *Recorder) Fired() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var fired []int
	for _, ev := range r.events {
		if ev.Kind == EventFired {
			fired = append(fired, ev.Rule)
		}
	}
	return fired
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
