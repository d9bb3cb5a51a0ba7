package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the unit configuration is read from
const DefaultPath = "/etc/hacluster/config.yaml"

// ErrConfigIncomplete is returned when a requested feature needs settings
// that are not configured. It is raised before any mutating command.
var ErrConfigIncomplete = errors.New("configuration incomplete")

var validate = validator.New()

// Config holds the operator-facing knobs of the unit
type Config struct {
	// MAAS endpoint and API key used by DNS resources and remote STONITH
	MAASURL         string `yaml:"maas_url" validate:"omitempty,url"`
	MAASCredentials string `yaml:"maas_credentials"`

	// ClusterCount is the number of peers expected before forming the cluster
	ClusterCount int `yaml:"cluster_count" validate:"min=1"`

	// MonitorHost enables the ping resource used by Ping-<res> constraints
	MonitorHost     string `yaml:"monitor_host"`
	MonitorInterval string `yaml:"monitor_interval" validate:"required"`

	MaintenanceMode bool `yaml:"maintenance_mode"`
	PreferIPv6      bool `yaml:"prefer_ipv6"`

	// Bounded retries for daemon restart validation and the readiness barrier
	RestartRetries int           `yaml:"restart_retries" validate:"min=1"`
	ReadyRetries   int           `yaml:"ready_retries" validate:"min=1"`
	ReadyInterval  time.Duration `yaml:"ready_interval"`

	OCFRoot    string `yaml:"ocf_root" validate:"required"`
	MAASDNSDir string `yaml:"maas_dns_dir" validate:"required"`
	StateDB    string `yaml:"state_db" validate:"required"`
}

// Default returns a Config with the stock values
func Default() *Config {
	return &Config{
		ClusterCount:    3,
		MonitorInterval: "5s",
		RestartRetries:  10,
		ReadyRetries:    12,
		ReadyInterval:   10 * time.Second,
		OCFRoot:         "/usr/lib/ocf/resource.d",
		MAASDNSDir:      "/etc/maas_dns",
		StateDB:         "/var/lib/hacluster/state.db",
	}
}

// Load reads a YAML config file on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data on top of the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct constraints
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
}

// RequireMAAS checks the settings needed by MAAS DNS resources
func (c *Config) RequireMAAS() error {
	var missing []string
	if c.MAASURL == "" {
		missing = append(missing, "maas_url")
	}
	if c.MAASCredentials == "" {
		missing = append(missing, "maas_credentials")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: MAAS DNS HA requires %s", ErrConfigIncomplete, strings.Join(missing, " and "))
	}
	return nil
}

// RequireMAASURL checks the settings needed by remote-node STONITH
func (c *Config) RequireMAASURL() error {
	if c.MAASURL == "" {
		return fmt.Errorf("%w: maas_url must be set to fence remote nodes", ErrConfigIncomplete)
	}
	return nil
}

// NoQuorumPolicy returns the policy matching the expected cluster size
func (c *Config) NoQuorumPolicy() string {
	if c.ClusterCount >= 3 {
		return "stop"
	}
	return "ignore"
}
