package automation

import (
	"fmt"
	"slices"
)

// Logger defines the logging interface used by the Engine.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Metrics receives evaluation counts. metrics.Collector implements it.
type Metrics interface {
	RuleEvaluated()
	RuleTriggered()
	RuleFailed(stage string)
}

type noopMetrics struct{}

func (noopMetrics) RuleEvaluated()    {}
func (noopMetrics) RuleTriggered()    {}
func (noopMetrics) RuleFailed(string) {}

// Failure stages passed to Metrics.RuleFailed.
const (
	StageCondition = "condition"
	StageAction    = "action"
)

// Engine holds an ordered list of rules and evaluates them against a
// snapshot.
//
// Thread Safety: Engine is not safe for concurrent use. The home holds its
// own lock around every call.
type Engine struct {
	rules   []Rule
	logger  Logger
	metrics Metrics
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{
		logger:  noopLogger{},
		metrics: noopMetrics{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	e.logger = logger
}

// SetMetrics sets the metrics sink for the engine.
func (e *Engine) SetMetrics(m Metrics) {
	if m == nil {
		m = noopMetrics{}
	}
	e.metrics = m
}

// Add appends a rule.
func (e *Engine) Add(r Rule) error {
	if r == nil {
		return fmt.Errorf("%w: nil rule", ErrInvalidRule)
	}
	e.rules = append(e.rules, r)
	return nil
}

// Remove deletes the rule at index and returns it.
func (e *Engine) Remove(index int) (Rule, error) {
	if err := e.checkIndex(index); err != nil {
		return nil, err
	}
	r := e.rules[index]
	e.rules = slices.Delete(e.rules, index, index+1)
	return r, nil
}

// Replace swaps the rule at index, keeping its position.
func (e *Engine) Replace(index int, r Rule) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("%w: nil rule", ErrInvalidRule)
	}
	e.rules[index] = r
	return nil
}

// Clear removes every rule.
func (e *Engine) Clear() {
	e.rules = nil
}

// Len returns the number of rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Rules returns rule descriptions in order.
func (e *Engine) Rules() []string {
	out := make([]string, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.Description()
	}
	return out
}

// Records returns the persisted form of every rule, in order.
func (e *Engine) Records() []Record {
	out := make([]Record, len(e.rules))
	for i, r := range e.rules {
		out[i] = RecordOf(r)
	}
	return out
}

// EvaluateAll checks every rule in order and runs the action of each one
// whose condition holds. It returns how many rules triggered.
//
// Rules are isolated from each other: a condition that errors or panics
// counts as not triggered, and an action that errors or panics is logged.
// Either way the remaining rules still run.
func (e *Engine) EvaluateAll(s Snapshot, act Actuator) int {
	triggered := 0
	for i, r := range e.rules {
		e.metrics.RuleEvaluated()

		ok, err := evaluate(r, s)
		if err != nil {
			e.metrics.RuleFailed(StageCondition)
			e.logger.Warn("rule condition failed",
				"index", i,
				"rule", r.Description(),
				"error", err,
			)
			continue
		}
		if !ok {
			continue
		}

		triggered++
		e.metrics.RuleTriggered()
		e.logger.Info("rule triggered", "index", i, "rule", r.Description())

		if err := execute(r, s, act); err != nil {
			e.metrics.RuleFailed(StageAction)
			e.logger.Error("rule action failed",
				"index", i,
				"rule", r.Description(),
				"error", err,
			)
		}
	}
	return triggered
}

func (e *Engine) checkIndex(index int) error {
	if index < 0 || index >= len(e.rules) {
		return fmt.Errorf("%w: %d (have %d)", ErrInvalidRuleIndex, index, len(e.rules))
	}
	return nil
}

func evaluate(r Rule, s Snapshot) (ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			ok, err = false, fmt.Errorf("%w: %v", ErrRulePanicked, p)
		}
	}()
	return r.Evaluate(s)
}

func execute(r Rule, s Snapshot, act Actuator) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrRulePanicked, p)
		}
	}()
	return r.Execute(s, act)
}
