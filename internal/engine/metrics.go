package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the lifecycle counters. Collectors are registered on the
// Registerer passed to NewMetrics; a nil Registerer leaves them unregistered.
type Metrics struct {
	// proposalTransitions counts proposal status changes by target status
	proposalTransitions *prometheus.CounterVec

	// enhancementTransitions counts enhancement status changes by target status
	enhancementTransitions *prometheus.CounterVec

	promotions prometheus.Counter
	conflicts  prometheus.Counter

	// staleRules counts approvals aborted because the target rule moved underneath them
	staleRules prometheus.Counter

	approvalDuration prometheus.Histogram
}

// NewMetrics creates the lifecycle collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		proposalTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rulesmith_proposal_transitions_total",
			Help: "Total proposal status transitions by target status",
		}, []string{"to"}),
		enhancementTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rulesmith_enhancement_transitions_total",
			Help: "Total enhancement status transitions by target status",
		}, []string{"to"}),
		promotions: factory.NewCounter(prometheus.CounterOpts{
			Name: "rulesmith_rule_promotions_total",
			Help: "Total successful rule scope promotions",
		}),
		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "rulesmith_rule_conflicts_total",
			Help: "Total approvals or promotions refused for a rule_type conflict",
		}),
		staleRules: factory.NewCounter(prometheus.CounterOpts{
			Name: "rulesmith_stale_rule_aborts_total",
			Help: "Total approvals aborted because the target rule changed concurrently",
		}),
		approvalDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rulesmith_approval_duration_seconds",
			Help:    "Proposal approval duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}),
	}
}
