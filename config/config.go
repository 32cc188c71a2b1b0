// Package config loads Workflow-level settings from YAML so a deployment
// can externalize them without recompiling, the way the teacher's own
// engine is wired entirely through functional options but some pack
// deployments (smilemakc/mbflow, leofalp/aigo) load that configuration
// from a file instead of hardcoding it.
package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v2"

	"github.com/dshills/dagflow/flow"
)

// WorkflowConfig is the on-disk shape of a workflow's externalizable
// settings. Anything not named here (node registration, edges, node
// bodies) stays in code — this only covers the Workflow-level knobs
// flow.Option already exposes.
type WorkflowConfig struct {
	SessionTTLSeconds       int    `yaml:"session_ttl_seconds"`
	MessagesMemoryCap       int    `yaml:"messages_memory_cap"`
	RoutingDefaultPolicy    string `yaml:"routing_default_policy"`
	InputQueueWarnThreshold int    `yaml:"input_queue_warn_threshold"`
}

// Load reads and parses a WorkflowConfig from path.
func Load(path string) (*WorkflowConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg WorkflowConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Options turns a parsed WorkflowConfig into flow.Options, omitting any
// zero-valued field so callers can layer a config file under explicit
// code-level options without either side fighting for precedence.
func (c *WorkflowConfig) Options() ([]flow.Option, error) {
	var opts []flow.Option

	if c.SessionTTLSeconds != 0 {
		opts = append(opts, flow.WithSessionTTL(time.Duration(c.SessionTTLSeconds)*time.Second))
	}
	if c.MessagesMemoryCap != 0 {
		opts = append(opts, flow.WithMessagesCap(c.MessagesMemoryCap))
	}
	if c.InputQueueWarnThreshold != 0 {
		opts = append(opts, flow.WithInputQueueWarnThreshold(c.InputQueueWarnThreshold))
	}
	if c.RoutingDefaultPolicy != "" {
		policy, err := parsePolicy(c.RoutingDefaultPolicy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, flow.WithDefaultRoutingPolicy(policy))
	}

	return opts, nil
}

func parsePolicy(name string) (flow.RoutingPolicy, error) {
	switch name {
	case "broadcast":
		return flow.Broadcast, nil
	case "clear":
		return flow.Clear, nil
	default:
		return 0, fmt.Errorf("unknown routing_default_policy %q: want \"broadcast\" or \"clear\"", name)
	}
}
