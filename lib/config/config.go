// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/jobgate/lib/fault"
	"github.com/bureau-foundation/jobgate/lib/policy"
	"github.com/bureau-foundation/jobgate/lib/ratelimit"
	"github.com/bureau-foundation/jobgate/lib/secret"
	"github.com/bureau-foundation/jobgate/lib/trigger"
)

// EnvironmentVariable names the configuration file for Load.
const EnvironmentVariable = "JOBGATE_CONFIG"

// Config is the complete jobgate configuration.
type Config struct {
	// GuardEnabled turns on policy evaluation. When false every job
	// is allowed permissively.
	GuardEnabled bool `yaml:"guard_enabled"`

	ActionJobsEnabled   bool `yaml:"action_jobs_enabled"`
	RequirePolicyTokens bool `yaml:"require_policy_tokens"`

	// SecretFile holds the policy token signing secret. Relative paths
	// resolve against the configuration file's directory. ${VAR} and
	// ${VAR:-default} are expanded.
	SecretFile string `yaml:"secret_file"`

	AuditEnabled  bool `yaml:"audit_enabled"`
	AuditCapacity int  `yaml:"audit_capacity"`

	TriggersEnabled bool `yaml:"triggers_enabled"`

	// SweepInterval is how often expired rate windows, dedupe entries,
	// and consumed tokens are evicted in the background. Zero relies
	// on amortized eviction alone.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	RateLimits    ratelimit.Table            `yaml:"rate_limits"`
	Tenants       []policy.TenantPolicy      `yaml:"tenants"`
	JobCategories map[string]policy.Category `yaml:"job_categories"`
	Triggers      []TriggerRule              `yaml:"triggers"`

	// path is the file this configuration was loaded from.
	path string
}

// TriggerRule binds a trigger's identity to its safety configuration.
type TriggerRule struct {
	ID       string       `yaml:"id"`
	TenantID string       `yaml:"tenant_id"`
	Type     trigger.Type `yaml:"type"`
	JobType  string       `yaml:"job_type"`

	trigger.Config `yaml:",inline"`
}

// Request builds the trigger request for one activation of r.
func (r TriggerRule) Request(eventType, traceID, actorID string) trigger.Request {
	return trigger.Request{
		TriggerID:   r.ID,
		TriggerType: r.Type,
		TenantID:    r.TenantID,
		JobType:     r.JobType,
		EventType:   eventType,
		TraceID:     traceID,
		ActorID:     actorID,
	}
}

// Default returns the baseline configuration files are merged onto:
// guard, audit, and triggers on, action jobs off.
func Default() *Config {
	return &Config{
		GuardEnabled:    true,
		AuditEnabled:    true,
		AuditCapacity:   10000,
		TriggersEnabled: true,
		SweepInterval:   time.Minute,
	}
}

// Load reads the file named by JOBGATE_CONFIG.
func Load() (*Config, error) {
	path, err := EnvironmentPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// EnvironmentPath returns the configuration path from JOBGATE_CONFIG.
func EnvironmentPath() (string, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return "", fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your jobgate config file, or use --config", EnvironmentVariable)
	}
	return path, nil
}

// LoadFile reads and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	config, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ReadFile reads the configuration at path and resolves secret_file
// without validating, so callers can apply overrides first.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	config, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	config.path = path
	config.SecretFile = config.resolve(expandVariables(config.SecretFile))
	return config, nil
}

// Parse decodes configuration data onto Default. extension selects
// the format: ".json" and ".jsonc" are JSONC, anything else YAML.
// Parse does not validate.
func Parse(data []byte, extension string) (*Config, error) {
	switch strings.ToLower(extension) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return config, nil
}

// Path returns the file the configuration was loaded from, or "" for
// a parsed or default configuration.
func (c *Config) Path() string { return c.path }

func (c *Config) resolve(path string) string {
	if path == "" || path == "-" || filepath.IsAbs(path) || c.path == "" {
		return path
	}
	return filepath.Join(filepath.Dir(c.path), path)
}

// Validate reports every problem in the configuration. A missing
// secret while tokens are required is a configuration fault.
func (c *Config) Validate() error {
	var errs []error

	if c.RequirePolicyTokens && c.SecretFile == "" {
		errs = append(errs, fault.Configurationf("require_policy_tokens is set but secret_file is empty"))
	}
	if c.AuditCapacity < 0 {
		errs = append(errs, fmt.Errorf("audit_capacity must not be negative"))
	}
	if c.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("sweep_interval must not be negative"))
	}

	for name, rule := range c.RateLimits.Rules {
		if err := validateRule(rule); err != nil {
			errs = append(errs, fmt.Errorf("rate_limits.rules[%s]: %w", name, err))
		}
	}
	if err := validateRule(c.RateLimits.Default); err != nil {
		errs = append(errs, fmt.Errorf("rate_limits.default: %w", err))
	}

	seenPolicies := make(map[string]bool)
	for index, tenant := range c.Tenants {
		if tenant.TenantID == "" {
			errs = append(errs, fmt.Errorf("tenants[%d]: tenant_id is required", index))
			continue
		}
		key := tenant.TenantID + "/" + tenant.ProjectID
		if seenPolicies[key] {
			errs = append(errs, fmt.Errorf("tenants[%d]: duplicate policy for %s", index, key))
		}
		seenPolicies[key] = true
		if tenant.MaxConcurrentActions < 0 || tenant.ActionRateLimitPerHour < 0 {
			errs = append(errs, fmt.Errorf("tenants[%d]: limits must not be negative", index))
		}
	}

	for jobType := range c.JobCategories {
		if jobType == "" {
			errs = append(errs, fmt.Errorf("job_categories: empty job type"))
		}
	}

	seenTriggers := make(map[string]bool)
	for index, rule := range c.Triggers {
		prefix := fmt.Sprintf("triggers[%d]", index)
		if rule.ID == "" || rule.TenantID == "" || rule.JobType == "" {
			errs = append(errs, fmt.Errorf("%s: id, tenant_id, and job_type are required", prefix))
		}
		if !rule.Type.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown trigger type %q", prefix, rule.Type))
		}
		key := rule.TenantID + "/" + rule.ID
		if seenTriggers[key] {
			errs = append(errs, fmt.Errorf("%s: duplicate trigger %s", prefix, key))
		}
		seenTriggers[key] = true
		if err := trigger.ValidateConfig(rule.Config); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
	}

	return errors.Join(errs...)
}

func validateRule(rule ratelimit.Rule) error {
	if rule.IsZero() {
		return nil
	}
	if rule.Max <= 0 || rule.Window <= 0 {
		return fmt.Errorf("max and window must both be positive")
	}
	return nil
}

// Catalog returns the default job catalog with JobCategories applied.
func (c *Config) Catalog() map[string]policy.Category {
	catalog := policy.DefaultCatalog()
	for jobType, category := range c.JobCategories {
		catalog[jobType] = category
	}
	return catalog
}

// Trigger finds a trigger rule by tenant and id.
func (c *Config) Trigger(tenantID, triggerID string) (TriggerRule, bool) {
	for _, rule := range c.Triggers {
		if rule.TenantID == tenantID && rule.ID == triggerID {
			return rule, true
		}
	}
	return TriggerRule{}, false
}

// LoadSecret reads the signing secret. It returns nil without error
// when no secret file is configured.
func (c *Config) LoadSecret() (*secret.Key, error) {
	if c.SecretFile == "" {
		return nil, nil
	}
	key, err := secret.ReadFile(c.SecretFile)
	if err != nil {
		return nil, fault.Wrap(fault.Configuration, fault.CodeConfiguration,
			fmt.Errorf("loading secret_file: %w", err))
	}
	return key, nil
}

var variablePattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVariables expands ${VAR} and ${VAR:-default} from the process
// environment.
func expandVariables(text string) string {
	return variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		parts := variablePattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}
