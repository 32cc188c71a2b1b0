// Package flow provides the core dataflow execution engine for dagflow.
package flow

import (
	"time"

	"github.com/dshills/dagflow/flow/emit"
	"github.com/dshills/dagflow/flow/store"
)

// Option configures a Workflow at construction time. Following the
// teacher's functional-options pattern: chainable, self-documenting, and
// every field has a sane zero-configuration default.
//
//	wf, err := flow.New(
//		flow.WithSessionTTL(10*time.Minute),
//		flow.WithDefaultRoutingPolicy(flow.Broadcast),
//		flow.WithEmitter(emit.NewLogEmitter(os.Stderr, true)),
//	)
type Option func(*workflowConfig) error

type workflowConfig struct {
	sessionTTL              time.Duration
	messagesCap             int
	emitter                 emit.Emitter
	metrics                 *Metrics
	defaultPolicy           RoutingPolicy
	inputQueueWarnThreshold int
	recorder                store.Recorder
}

func defaultConfig() *workflowConfig {
	return &workflowConfig{
		sessionTTL:              30 * time.Minute,
		messagesCap:             200,
		emitter:                 emit.NewNullEmitter(),
		defaultPolicy:           Broadcast,
		inputQueueWarnThreshold: 64,
	}
}

// WithSessionTTL sets how long a session may sit idle before the reaper
// removes it. A session touched by any trigger or node completion resets
// its countdown. Non-positive durations disable reaping entirely.
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *workflowConfig) error {
		c.sessionTTL = ttl
		return nil
	}
}

// WithMessagesCap bounds the number of entries a session's Memory message
// history retains before evicting the oldest.
func WithMessagesCap(n int) Option {
	return func(c *workflowConfig) error {
		c.messagesCap = n
		return nil
	}
}

// WithEmitter installs the observability sink used for node lifecycle and
// session lifecycle events. Defaults to a no-op emitter.
func WithEmitter(e emit.Emitter) Option {
	return func(c *workflowConfig) error {
		if e != nil {
			c.emitter = e
		}
		return nil
	}
}

// WithMetrics installs a Prometheus metrics recorder. Defaults to nil,
// meaning metrics collection is skipped entirely.
func WithMetrics(m *Metrics) Option {
	return func(c *workflowConfig) error {
		c.metrics = m
		return nil
	}
}

// WithDefaultRoutingPolicy sets the routing policy applied to every node
// that doesn't declare its own via NodeTemplate.WithRoutingPolicy.
func WithDefaultRoutingPolicy(p RoutingPolicy) Option {
	return func(c *workflowConfig) error {
		c.defaultPolicy = p
		return nil
	}
}

// WithInputQueueWarnThreshold sets how many concurrently pending execution
// ids an InputsQueue may accumulate before the workflow emits a
// backpressure warning event. This is diagnostic only — the queue never
// refuses work, per spec.md's explicit Non-goal on admission control.
func WithInputQueueWarnThreshold(n int) Option {
	return func(c *workflowConfig) error {
		c.inputQueueWarnThreshold = n
		return nil
	}
}

// WithRecorder installs an append-only audit sink. Every node run, once
// routing has been decided, is appended as one store.Record. Recording
// failures are logged as emitter events rather than failing the run — an
// audit sink going down must never take the workflow down with it.
func WithRecorder(r store.Recorder) Option {
	return func(c *workflowConfig) error {
		c.recorder = r
		return nil
	}
}
