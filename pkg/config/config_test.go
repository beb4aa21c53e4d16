package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Framework.LogLevel != DefaultConfig().Framework.LogLevel {
		t.Errorf("Load() of missing file did not fall back to defaults")
	}
}

func TestLoadOverlaysYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "laik.yaml")
	contents := `
framework:
  log_level: debug
paths:
  workload_file: my-workload.yaml
discovery:
  backend: kurtosis
  enclave_name: my-enclave
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Framework.LogLevel != "debug" {
		t.Errorf("Framework.LogLevel = %q, want %q", cfg.Framework.LogLevel, "debug")
	}
	if cfg.Paths.WorkloadFile != "my-workload.yaml" {
		t.Errorf("Paths.WorkloadFile = %q, want %q", cfg.Paths.WorkloadFile, "my-workload.yaml")
	}
	if cfg.Discovery.Backend != "kurtosis" || cfg.Discovery.EnclaveName != "my-enclave" {
		t.Errorf("Discovery = %+v, want backend=kurtosis enclave_name=my-enclave", cfg.Discovery)
	}
	// Fields absent from the fixture keep their defaults.
	if cfg.Reporting.OutputDir != DefaultConfig().Reporting.OutputDir {
		t.Errorf("Reporting.OutputDir = %q, want default %q", cfg.Reporting.OutputDir, DefaultConfig().Reporting.OutputDir)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "laik.yaml")
	contents := `
prometheus:
  url: ${LAIK_TEST_PROM_URL}
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	t.Setenv("LAIK_TEST_PROM_URL", "http://prom.internal:9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Prometheus.URL != "http://prom.internal:9090" {
		t.Errorf("Prometheus.URL = %q, want expanded env value", cfg.Prometheus.URL)
	}
}

func TestLoadPrometheusURLEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "laik.yaml")
	contents := `
prometheus:
  url: http://from-file:9090
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	t.Setenv("LAIK_PROMETHEUS_URL", "http://from-env:9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Prometheus.URL != "http://from-env:9090" {
		t.Errorf("Prometheus.URL = %q, want env override to win", cfg.Prometheus.URL)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "laik.yaml")

	cfg := DefaultConfig()
	cfg.Discovery.Backend = "docker"
	cfg.Discovery.LabelPrefix = "custom.rank"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Discovery.Backend != "docker" || loaded.Discovery.LabelPrefix != "custom.rank" {
		t.Errorf("round-tripped Discovery = %+v, want backend=docker label_prefix=custom.rank", loaded.Discovery)
	}
}

func TestValidateRejectsUnknownDiscoveryBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Discovery.Backend = "nonsense"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for unknown discovery backend")
	}
}

func TestValidateRequiresEnclaveNameForKurtosis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Discovery.Backend = "kurtosis"
	cfg.Discovery.EnclaveName = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for missing enclave_name")
	}
}

func TestValidateRejectsEmptyWorkloadFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths.WorkloadFile = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for empty workload file path")
	}
}

func TestValidateRejectsDecreasingWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Topology.Weights = [5]uint64{10, 5, 20, 30, 40}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for non-monotonic topology weights")
	}
}
