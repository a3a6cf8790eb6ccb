// Package config provides configuration loading for agentcore.
//
// agentcore is config-first: the model backend endpoint, the cycle
// manager's RAM thresholds, the tool executor's cache capacity, and the
// agent loop's step bound are all declared in a single YAML document and
// loaded through a layered koanf pipeline that also supports Consul,
// etcd, and Zookeeper-backed configuration for fleets that centralise it.
//
// Example config:
//
//	backend:
//	  base_url: http://localhost:11434
//	  default_model: llama3.2
//	  request_timeout: 5m
//
//	agent_loop:
//	  max_steps: 40
//	  step_timeout: 10m
//
//	cycle_manager:
//	  parallel_threshold_gb: 64
//	  pipeline_window: 3
//
//	tool_executor:
//	  cache_capacity: 256
//	  shell: /bin/sh
//
//	session:
//	  config_dir: ""
//	  skip_files_hash: false
package config

import "fmt"

// Config is the root configuration structure for agentcore.
type Config struct {
	Backend      BackendConfig      `yaml:"backend,omitempty"`
	AgentLoop    AgentLoopConfig    `yaml:"agent_loop,omitempty"`
	CycleManager CycleManagerConfig `yaml:"cycle_manager,omitempty"`
	ToolExecutor ToolExecutorConfig `yaml:"tool_executor,omitempty"`
	Session      SessionConfig      `yaml:"session,omitempty"`
	Logger       LoggerConfig       `yaml:"logger,omitempty"`
	Telemetry    TelemetryConfig    `yaml:"telemetry,omitempty"`
}

// BackendConfig configures the ModelBackend HTTP transport (§4.1, §6.1).
type BackendConfig struct {
	// BaseURL is the local model runtime endpoint, e.g. http://localhost:11434.
	BaseURL string `yaml:"base_url,omitempty"`

	// DefaultModel is used when a task does not name a specialist model.
	DefaultModel string `yaml:"default_model,omitempty"`

	// RequestTimeout bounds a single chat/generate call.
	RequestTimeout string `yaml:"request_timeout,omitempty"`

	// KeepAlive is passed through to the runtime to control model residency.
	KeepAlive string `yaml:"keep_alive,omitempty"`
}

// AgentLoopConfig configures AgentLoop (§4.4).
type AgentLoopConfig struct {
	// MaxSteps is the hard step bound (I2).
	MaxSteps int `yaml:"max_steps,omitempty"`

	// StepTimeout bounds a single model call within a step.
	StepTimeout string `yaml:"step_timeout,omitempty"`
}

// CycleManagerConfig configures CycleManager (§4.5).
type CycleManagerConfig struct {
	// ParallelThresholdGB gates the Adaptive selector's Parallel branch.
	ParallelThresholdGB float64 `yaml:"parallel_threshold_gb,omitempty"`

	// PipelineWindow is the number of prior outputs folded into a Pipeline task's context.
	PipelineWindow int `yaml:"pipeline_window,omitempty"`
}

// ToolExecutorConfig configures ToolExecutor (§4.3).
type ToolExecutorConfig struct {
	// CacheCapacity bounds the idempotent-tool output LRU cache.
	CacheCapacity int `yaml:"cache_capacity,omitempty"`

	// Shell is the POSIX shell invoked for run_command (§9 "Shell portability").
	Shell string `yaml:"shell,omitempty"`

	// CommandTimeout is the configured bound for a single shell command
	// (§5). It is defaulted to 10m but is not passed to the tool executor,
	// whose run_command bound is a fixed 10 minutes.
	CommandTimeout string `yaml:"command_timeout,omitempty"`
}

// SessionConfig configures SessionStore / USFConverter (§4.6, §4.7, §6.2).
type SessionConfig struct {
	// ConfigDir is the configuration root; defaults to $HOME/.config/ollamabot.
	ConfigDir string `yaml:"config_dir,omitempty"`

	// SkipFilesHash opts out of the full-tree SHA-256 fingerprint on add_state (§9 open question).
	SkipFilesHash bool `yaml:"skip_files_hash,omitempty"`
}

// LoggerConfig configures slog output.
type LoggerConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// TelemetryConfig configures the local-only telemetry server (§4.9).
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Addr    string `yaml:"addr,omitempty"`
}

// SetDefaults fills in zero-valued fields with the spec's documented defaults.
func (c *Config) SetDefaults() {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:11434"
	}
	if c.Backend.DefaultModel == "" {
		c.Backend.DefaultModel = "llama3.2"
	}
	if c.Backend.RequestTimeout == "" {
		c.Backend.RequestTimeout = "10m"
	}
	if c.Backend.KeepAlive == "" {
		c.Backend.KeepAlive = "5m"
	}
	if c.AgentLoop.MaxSteps == 0 {
		c.AgentLoop.MaxSteps = 40
	}
	if c.AgentLoop.StepTimeout == "" {
		c.AgentLoop.StepTimeout = "10m"
	}
	if c.CycleManager.ParallelThresholdGB == 0 {
		c.CycleManager.ParallelThresholdGB = 64
	}
	if c.CycleManager.PipelineWindow == 0 {
		c.CycleManager.PipelineWindow = 3
	}
	if c.ToolExecutor.CacheCapacity == 0 {
		c.ToolExecutor.CacheCapacity = 256
	}
	if c.ToolExecutor.Shell == "" {
		c.ToolExecutor.Shell = defaultShell()
	}
	if c.ToolExecutor.CommandTimeout == "" {
		c.ToolExecutor.CommandTimeout = "10m"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "simple"
	}
	if c.Telemetry.Addr == "" {
		c.Telemetry.Addr = "127.0.0.1:9090"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.AgentLoop.MaxSteps <= 0 {
		return fmt.Errorf("agent_loop.max_steps must be positive")
	}
	if c.CycleManager.ParallelThresholdGB <= 0 {
		return fmt.Errorf("cycle_manager.parallel_threshold_gb must be positive")
	}
	if c.ToolExecutor.CacheCapacity <= 0 {
		return fmt.Errorf("tool_executor.cache_capacity must be positive")
	}
	return nil
}
