// Package automation provides the rule engine for smarthome-core.
//
// A rule pairs a condition over a Snapshot (sensor readings plus a
// read-only view of the devices) with an action carried out through an
// Actuator. The engine keeps rules in insertion order and evaluates all of
// them on each run.
//
// # Rule kinds
//
//   - TemplateRule: the built-in rules (temperature_high, temperature_low,
//     no_person, door_unlocked). They persist as a Record and are rebuilt
//     by FromRecord.
//   - Func: caller-supplied closures. Only the description persists.
//   - Detached: a restored description whose logic is gone. It holds its
//     slot and never triggers.
//
// # Isolation
//
// EvaluateAll recovers from panics and errors in each rule separately, so
// one broken rule cannot stop the others. The return value counts rules
// whose condition held, whether or not their action then succeeded.
//
// # Usage
//
//	engine := automation.NewEngine()
//	engine.SetLogger(log)
//
//	rule, err := automation.NewTemplate(automation.TemplateTemperatureHigh, nil)
//	if err != nil {
//	    return err
//	}
//	_ = engine.Add(rule)
//
//	triggered := engine.EvaluateAll(snapshot, home)
package automation
