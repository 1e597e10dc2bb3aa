package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the home's Prometheus counters. It implements
// prometheus.Collector so it can be registered as one unit, and it
// satisfies the small metrics interfaces of the automation and home packages.
type Collector struct {
	rulesEvaluated  prometheus.Counter
	rulesTriggered  prometheus.Counter
	ruleFailures    *prometheus.CounterVec
	deviceMutations *prometheus.CounterVec
}

// New creates an unregistered Collector.
func New() *Collector {
	return &Collector{
		rulesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smarthome_rules_evaluated_total",
			Help: "Rule conditions evaluated",
		}),
		rulesTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smarthome_rules_triggered_total",
			Help: "Rules whose condition held and whose action ran",
		}),
		ruleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smarthome_rule_failures_total",
			Help: "Rule failures isolated by the engine, by stage (condition, action)",
		}, []string{"stage"}),
		deviceMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smarthome_device_mutations_total",
			Help: "Device mutations applied through the home, by action",
		}, []string{"action"}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.rulesEvaluated.Describe(ch)
	c.rulesTriggered.Describe(ch)
	c.ruleFailures.Describe(ch)
	c.deviceMutations.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.rulesEvaluated.Collect(ch)
	c.rulesTriggered.Collect(ch)
	c.ruleFailures.Collect(ch)
	c.deviceMutations.Collect(ch)
}

// RuleEvaluated counts one condition evaluation.
func (c *Collector) RuleEvaluated() { c.rulesEvaluated.Inc() }

// RuleTriggered counts one executed action.
func (c *Collector) RuleTriggered() { c.rulesTriggered.Inc() }

// RuleFailed counts one isolated failure at the given stage.
func (c *Collector) RuleFailed(stage string) { c.ruleFailures.WithLabelValues(stage).Inc() }

// DeviceMutated counts one applied device mutation.
func (c *Collector) DeviceMutated(action string) { c.deviceMutations.WithLabelValues(action).Inc() }

// NewRegistry returns a private registry holding c and a build info gauge.
func NewRegistry(c *Collector, version string) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return nil, fmt.Errorf("registering home collector: %w", err)
	}
	buildInfo := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "smarthome_build_info",
		Help:        "Build information",
		ConstLabels: prometheus.Labels{"version": version},
	}, func() float64 { return 1 })
	if err := reg.Register(buildInfo); err != nil {
		return nil, fmt.Errorf("registering build info: %w", err)
	}
	return reg, nil
}

// WriteTextfile writes every metric in g to path in the node_exporter
// textfile collector format. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
