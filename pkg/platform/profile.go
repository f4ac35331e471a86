package platform

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the pipeline configuration file. Everything in it is policy,
// not code: tier thresholds, storage backends, sink destination.
type Profile struct {
	StateDir  string `yaml:"state_dir"`
	OutputDir string `yaml:"output_dir"`
	Workers   int    `yaml:"workers"`

	Thresholds struct {
		ActiveWithinDays int `yaml:"active_within_days"`
		AtRiskWithinDays int `yaml:"at_risk_within_days"`
	} `yaml:"thresholds"`

	Ledger struct {
		Backend string `yaml:"backend"` // file | postgres
		DSN     string `yaml:"dsn"`
	} `yaml:"ledger"`

	DatasetStore struct {
		Backend string `yaml:"backend"` // file | clickhouse
	} `yaml:"dataset_store"`

	ClickHouse struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Database string `yaml:"database"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"clickhouse"`

	Sink struct {
		Backend    string `yaml:"backend"` // dir | s3
		S3Bucket   string `yaml:"s3_bucket"`
		S3Region   string `yaml:"s3_region"`
		S3Prefix   string `yaml:"s3_prefix"`
		S3Endpoint string `yaml:"s3_endpoint"` // optional, for MinIO and LocalStack
	} `yaml:"sink"`
}

// DefaultProfile returns the configuration used when no file is supplied.
func DefaultProfile() *Profile {
	p := &Profile{
		StateDir:  "./state",
		OutputDir: "./out",
		Workers:   4,
	}
	p.Thresholds.ActiveWithinDays = 90
	p.Thresholds.AtRiskWithinDays = 180
	p.Ledger.Backend = "file"
	p.DatasetStore.Backend = "file"
	p.Sink.Backend = "dir"
	p.ClickHouse.Host = "localhost"
	p.ClickHouse.Port = 9000
	p.ClickHouse.Database = "salesmerge"
	p.ClickHouse.Username = "default"
	return p
}

// LoadProfile reads a YAML profile, filling unset fields with defaults.
func LoadProfile(path string) (*Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if p.Workers < 1 {
		p.Workers = 1
	}
	if p.Thresholds.ActiveWithinDays <= 0 || p.Thresholds.AtRiskWithinDays <= p.Thresholds.ActiveWithinDays {
		return nil, fmt.Errorf("profile %s: thresholds must satisfy 0 < active < at_risk", path)
	}
	return p, nil
}
