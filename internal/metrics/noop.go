package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

// OAuth flows - noop implementations
func (n *NoopMetrics) RecordOAuthFlow(provider, stage, outcome string) {}

// Syncs - noop implementations
func (n *NoopMetrics) RecordSync(
	provider, status string,
	duration time.Duration,
	imported int,
) {
}

// Gauge setters - noop implementations
func (n *NoopMetrics) SetActiveConnectionsCount(provider string, count int) {}
