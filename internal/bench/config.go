package bench

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Scenario names.
const (
	ScenarioBasic    = "basic"
	ScenarioParallel = "parallel"
	ScenarioBusy     = "busy"
	ScenarioStress   = "stress"
	ScenarioShutdown = "shutdown"
)

// Environment variables overriding file values.
const (
	EnvBatches       = "POOLBENCH_BATCHES"
	EnvTasksPerBatch = "POOLBENCH_TASKS_PER_BATCH"
	EnvMetricsAddr   = "POOLBENCH_METRICS_ADDR"
	EnvLogLevel      = "POOLBENCH_LOG_LEVEL"
)

// Duration is a time.Duration written as a Go duration string ("100ms") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config describes a poolbench run.
type Config struct {
	Scenarios   []string `yaml:"scenarios"`
	MetricsAddr string   `yaml:"metrics_addr"`
	LogLevel    string   `yaml:"log_level"`

	Basic    BasicConfig    `yaml:"basic"`
	Parallel ParallelConfig `yaml:"parallel"`
	Busy     BusyConfig     `yaml:"busy"`
	Stress   StressConfig   `yaml:"stress"`
	Shutdown ShutdownConfig `yaml:"shutdown"`
}

type BasicConfig struct {
	Jobs     int      `yaml:"jobs"`
	JobDelay Duration `yaml:"job_delay"`
}

type ParallelConfig struct {
	Jobs  int      `yaml:"jobs"`
	Sleep Duration `yaml:"sleep"`
}

type BusyConfig struct {
	Sleep Duration `yaml:"sleep"`
	Probe Duration `yaml:"probe"`
}

type StressConfig struct {
	Batches       int      `yaml:"batches"`
	TasksPerBatch int      `yaml:"tasks_per_batch"`
	Producers     int      `yaml:"producers"`
	FlushEvery    int      `yaml:"flush_every"`
	PauseEvery    int      `yaml:"pause_every"`
	Pause         Duration `yaml:"pause"`
	MaxDelay      Duration `yaml:"max_delay"`
}

type ShutdownConfig struct {
	Queued int `yaml:"queued"`
}

// DefaultConfig mirrors the classic thread pool smoke test.
func DefaultConfig() Config {
	return Config{
		Scenarios: []string{ScenarioBasic, ScenarioParallel, ScenarioBusy, ScenarioStress, ScenarioShutdown},
		LogLevel:  "info",
		Basic:     BasicConfig{Jobs: 100, JobDelay: Duration(5 * time.Millisecond)},
		Parallel:  ParallelConfig{Jobs: 8, Sleep: Duration(100 * time.Millisecond)},
		Busy:      BusyConfig{Sleep: Duration(100 * time.Millisecond), Probe: Duration(10 * time.Millisecond)},
		Stress: StressConfig{
			Batches:       50,
			TasksPerBatch: 1000,
			Producers:     4,
			FlushEvery:    10,
			PauseEvery:    5,
			Pause:         Duration(10 * time.Millisecond),
			MaxDelay:      Duration(3 * time.Millisecond),
		},
		Shutdown: ShutdownConfig{Queued: 100},
	}
}

// LoadFile reads a YAML config on top of DefaultConfig. An empty path yields the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// LoadEnv loads .env files into the process environment. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with POOLBENCH_* variables found through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvBatches); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q is not an integer: %w", EnvBatches, v, err)
		}
		c.Stress.Batches = n
	}
	if v := getenv(EnvTasksPerBatch); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q is not an integer: %w", EnvTasksPerBatch, v, err)
		}
		c.Stress.TasksPerBatch = n
	}
	if v := getenv(EnvMetricsAddr); v != "" {
		c.MetricsAddr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks the config for values no scenario can run with.
func (c *Config) Validate() error {
	known := map[string]bool{
		ScenarioBasic: true, ScenarioParallel: true, ScenarioBusy: true, ScenarioStress: true, ScenarioShutdown: true,
	}
	for _, s := range c.Scenarios {
		if !known[s] {
			return fmt.Errorf("unknown scenario: %s", s)
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}

	switch {
	case c.Basic.Jobs < 0:
		return fmt.Errorf("basic.jobs must be non-negative")
	case c.Parallel.Jobs < 1:
		return fmt.Errorf("parallel.jobs must be positive")
	case c.Busy.Probe >= c.Busy.Sleep:
		return fmt.Errorf("busy.probe must be shorter than busy.sleep")
	case c.Stress.Batches < 1 || c.Stress.TasksPerBatch < 1:
		return fmt.Errorf("stress.batches and stress.tasks_per_batch must be positive")
	case c.Stress.Producers < 1:
		return fmt.Errorf("stress.producers must be positive")
	case c.Stress.FlushEvery < 0 || c.Stress.PauseEvery < 0:
		return fmt.Errorf("stress.flush_every and stress.pause_every must be non-negative")
	case c.Shutdown.Queued < 0:
		return fmt.Errorf("shutdown.queued must be non-negative")
	}
	return nil
}

// Level parses LogLevel into a slog level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return l, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
