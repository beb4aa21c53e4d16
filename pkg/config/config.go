// Package config loads, validates, and round-trips the YAML configuration
// for a laik run, grounded on the teacher's pkg/config/config.go: same
// DefaultConfig/Load/Save/Validate shape, fields replaced with LAIK's own
// (topology probe weights, reorder/workload paths, Prometheus warm-start
// settings) (SPEC_FULL §10.2).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/neodyma/laik/pkg/topology"
)

// Config represents a laik run's configuration.
type Config struct {
	Framework  FrameworkConfig  `yaml:"framework"`
	Topology   TopologyConfig   `yaml:"topology"`
	Paths      PathsConfig      `yaml:"paths"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Reporting  ReportingConfig  `yaml:"reporting"`
}

// FrameworkConfig contains general framework settings.
type FrameworkConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// TopologyConfig contains the topology probe's five-tier hop-cost vector,
// indexed by ascending distance: identical, slot, chassis, rack, island
// (spec §4.F; see topology.DefaultHopWeights).
type TopologyConfig struct {
	Weights [5]uint64 `yaml:"weights"`
}

// PathsConfig contains default filesystem locations for a run.
type PathsConfig struct {
	WorkloadFile   string `yaml:"workload_file"`
	ReorderingFile string `yaml:"reordering_file"`
}

// PrometheusConfig contains the CommMatrix warm-start source's connection
// settings (SPEC_FULL §11, pkg/commatrix/promsource).
type PrometheusConfig struct {
	URL             string        `yaml:"url"`
	Timeout         time.Duration `yaml:"timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	WarmStartMetric string        `yaml:"warm_start_metric"`
	WarmStartWindow time.Duration `yaml:"warm_start_window"`
}

// DiscoveryConfig selects and configures a topology discovery backend
// (pkg/topology/discovery/docker, pkg/topology/discovery/kurtosis).
type DiscoveryConfig struct {
	// Backend is "docker", "kurtosis", or "" (no discovery backend).
	Backend     string `yaml:"backend"`
	EnclaveName string `yaml:"enclave_name,omitempty"`
	LabelPrefix string `yaml:"label_prefix,omitempty"`
}

// ReportingConfig contains run-report persistence settings.
type ReportingConfig struct {
	OutputDir string   `yaml:"output_dir"`
	KeepLastN int      `yaml:"keep_last_n"`
	Formats   []string `yaml:"formats"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			LogLevel:  "info",
			LogFormat: "text",
		},
		Topology: TopologyConfig{
			Weights: topology.DefaultHopWeights,
		},
		Paths: PathsConfig{
			WorkloadFile:   "workload.yaml",
			ReorderingFile: "reordering.bin",
		},
		Prometheus: PrometheusConfig{
			URL:             "http://localhost:9090",
			Timeout:         30 * time.Second,
			RefreshInterval: 15 * time.Second,
			WarmStartMetric: "laik_pairwise_bytes_total",
			WarmStartWindow: 1 * time.Hour,
		},
		Discovery: DiscoveryConfig{
			Backend:     "",
			LabelPrefix: "laik.rank",
		},
		Reporting: ReportingConfig{
			OutputDir: "./reports",
			KeepLastN: 50,
			Formats:   []string{"json", "text"},
		},
	}
}

// Load loads configuration from a YAML file, overlaying it onto the
// default configuration. A missing file yields the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "laik.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	prometheusURLEnv, prometheusURLEnvSet := os.LookupEnv("LAIK_PROMETHEUS_URL")

	expandedData := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if prometheusURLEnvSet {
		cfg.Prometheus.URL = prometheusURLEnv
	}

	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Paths.WorkloadFile == "" {
		return fmt.Errorf("paths.workload_file is required")
	}

	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("reporting.output_dir is required")
	}

	switch c.Discovery.Backend {
	case "", "docker", "kurtosis":
	default:
		return fmt.Errorf("discovery.backend must be one of \"\", \"docker\", \"kurtosis\", got %q", c.Discovery.Backend)
	}

	if c.Discovery.Backend == "kurtosis" && c.Discovery.EnclaveName == "" {
		return fmt.Errorf("discovery.enclave_name is required when discovery.backend is \"kurtosis\"")
	}

	for i := 1; i < len(c.Topology.Weights); i++ {
		if c.Topology.Weights[i] < c.Topology.Weights[i-1] {
			return fmt.Errorf("topology.weights must be non-decreasing by tier, got %v", c.Topology.Weights)
		}
	}

	return nil
}
