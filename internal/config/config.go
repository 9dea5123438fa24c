// Package config loads and validates gatekey.yaml and applies the fallback
// chain that turns a stack name plus flags into a fully resolved set of
// connection and key settings.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	dserrors "github.com/gatekey/gatekey/internal/errors"
	"github.com/gatekey/gatekey/internal/gateway"
	"github.com/gatekey/gatekey/internal/logging"
	"github.com/gatekey/gatekey/pkg/secretstore"
)

// DefaultKeyLength is the generated key length when a stack configures none.
const DefaultKeyLength = secretstore.DefaultKeyLength

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "gatekey.yaml"

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the gatekey.yaml structure
type Definition struct {
	Version  int                    `yaml:"version" json:"version"`
	Defaults Defaults               `yaml:"defaults,omitempty" json:"defaults,omitempty"`
	Stacks   map[string]StackConfig `yaml:"stacks,omitempty" json:"stacks,omitempty"`
}

// Defaults apply to every stack that does not override them
type Defaults struct {
	Region  string `yaml:"region,omitempty" json:"region,omitempty"`
	Profile string `yaml:"profile,omitempty" json:"profile,omitempty"`
	KeyID   string `yaml:"key_id,omitempty" json:"key_id,omitempty"`
}

// StackConfig holds one stack's settings. Every field is optional; omitted
// fields fall through to defaults, the environment, or built-in values.
type StackConfig struct {
	Account   string          `yaml:"account,omitempty" json:"account,omitempty"`
	Region    string          `yaml:"region,omitempty" json:"region,omitempty"`
	Profile   string          `yaml:"profile,omitempty" json:"profile,omitempty"`
	KeyID     string          `yaml:"key_id,omitempty" json:"key_id,omitempty"`
	KeyLength int             `yaml:"key_length,omitempty" json:"key_length,omitempty"`
	// Methods carries no json omitempty: an explicit empty list must reach
	// the schema so it can be rejected, while a nil slice marshals to null.
	Methods []string `yaml:"methods,omitempty" json:"methods"`
	Throttle  *ThrottleConfig `yaml:"throttle,omitempty" json:"throttle,omitempty"`
	Quota     *QuotaConfig    `yaml:"quota,omitempty" json:"quota,omitempty"`
}

// ThrottleConfig overrides the default usage-plan throttle
type ThrottleConfig struct {
	BurstLimit int     `yaml:"burst_limit,omitempty" json:"burst_limit,omitempty"`
	RateLimit  float64 `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
}

// QuotaConfig overrides the default usage-plan quota
type QuotaConfig struct {
	Limit  int    `yaml:"limit,omitempty" json:"limit,omitempty"`
	Period string `yaml:"period,omitempty" json:"period,omitempty"`
}

// definitionSchema validates the structure of gatekey.yaml. Value-level
// rules with friendlier errors (method names, quota periods) live in
// ResolveStack; the schema catches shape problems like malformed account
// IDs, out-of-range key lengths, and empty method lists.
const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer"},
    "defaults": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "region": {"type": "string", "minLength": 1},
        "profile": {"type": "string", "minLength": 1},
        "key_id": {"type": "string", "minLength": 1}
      }
    },
    "stacks": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "account": {"type": "string", "pattern": "^[0-9]{12}$"},
          "region": {"type": "string", "minLength": 1},
          "profile": {"type": "string", "minLength": 1},
          "key_id": {"type": "string", "minLength": 1},
          "key_length": {"type": "integer", "minimum": 1, "maximum": 4096},
          "methods": {
            "type": ["array", "null"],
            "minItems": 1,
            "items": {"type": "string", "minLength": 1}
          },
          "throttle": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
              "burst_limit": {"type": "integer", "minimum": 1},
              "rate_limit": {"type": "number", "exclusiveMinimum": 0}
            }
          },
          "quota": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
              "limit": {"type": "integer", "minimum": 1},
              "period": {"type": "string", "minLength": 1}
            }
          }
        }
      }
    }
  }
}`

// Load reads and parses the gatekey.yaml file
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Run 'gatekey init' to create a new configuration file",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	// KnownFields makes a typo'd key a load error instead of silently
	// ignored configuration.
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var def Definition
	if err := decoder.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return dserrors.ConfigError{
			Message:    fmt.Sprintf("invalid YAML in configuration file: %v", err),
			Suggestion: "Check indentation and quoting; twelve-digit account IDs must be quoted so they parse as strings",
		}
	}

	if def.Version != 0 {
		return dserrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your gatekey.yaml file",
		}
	}

	if err := validateDefinition(&def); err != nil {
		return err
	}

	c.Definition = &def
	return nil
}

// validateDefinition checks the parsed definition against the embedded
// JSON schema
func validateDefinition(def *Definition) error {
	jsonData, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration for validation: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(definitionSchema)
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return dserrors.ConfigError{
			Message:    fmt.Sprintf("configuration is invalid:\n  - %s", strings.Join(errorMessages, "\n  - ")),
			Suggestion: "Compare your gatekey.yaml against 'gatekey init' output",
		}
	}

	return nil
}

// StackNames returns the declared stack names in sorted order
func (c *Config) StackNames() []string {
	if c.Definition == nil {
		return nil
	}

	names := make([]string, 0, len(c.Definition.Stacks))
	for name := range c.Definition.Stacks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetStack returns the configuration for a declared stack
func (c *Config) GetStack(name string) (StackConfig, error) {
	if c.Definition == nil {
		return StackConfig{}, dserrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	stack, ok := c.Definition.Stacks[name]
	if !ok {
		return StackConfig{}, c.unknownStackError(name)
	}
	return stack, nil
}

func (c *Config) unknownStackError(name string) error {
	suggestion := "Add the stack to the 'stacks:' section of your gatekey.yaml"
	if available := c.StackNames(); len(available) > 0 {
		suggestion = fmt.Sprintf("Available stacks: %s. %s", strings.Join(available, ", "), suggestion)
	}

	return dserrors.ConfigError{
		Field:      "stack",
		Value:      name,
		Message:    "stack not found in configuration",
		Suggestion: suggestion,
	}
}

// Overrides carries flag-level values that outrank the configuration file
type Overrides struct {
	Account string
	Region  string
	Profile string
	KeyID   string
}

// ResolvedStack is a stack's settings after the full fallback chain has
// been applied: flag, then stack entry, then defaults, then environment.
// It is computed once at entry; nothing re-reads configuration midway
// through a resolution.
type ResolvedStack struct {
	Name      string
	Account   string
	Region    string
	Profile   string
	KeyID     string
	KeyLength int
	Plan      gateway.Plan
}

// ResolveStack applies the fallback chain for one stack. The stack does not
// have to be declared when the stacks section is empty (ad-hoc usage), but
// once stacks are declared an unknown name is rejected so a typo cannot
// mint a key under the wrong path. An empty Account means the caller should
// discover it via STS.
func (c *Config) ResolveStack(name string, o Overrides) (ResolvedStack, error) {
	if name == "" {
		return ResolvedStack{}, dserrors.ConfigError{
			Field:      "stack",
			Message:    "stack name is required",
			Suggestion: "Pass --stack or declare the stack in gatekey.yaml",
		}
	}
	if c.Definition == nil {
		return ResolvedStack{}, dserrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}

	stack, declared := c.Definition.Stacks[name]
	if !declared && len(c.Definition.Stacks) > 0 {
		return ResolvedStack{}, c.unknownStackError(name)
	}

	defaults := c.Definition.Defaults

	rs := ResolvedStack{
		Name:      name,
		Account:   firstNonEmpty(o.Account, stack.Account),
		Region:    firstNonEmpty(o.Region, stack.Region, defaults.Region, os.Getenv("AWS_REGION"), os.Getenv("AWS_DEFAULT_REGION")),
		Profile:   firstNonEmpty(o.Profile, stack.Profile, defaults.Profile, os.Getenv("AWS_PROFILE")),
		KeyID:     firstNonEmpty(o.KeyID, stack.KeyID, defaults.KeyID),
		KeyLength: stack.KeyLength,
	}
	if rs.KeyLength == 0 {
		rs.KeyLength = DefaultKeyLength
	}

	plan := gateway.NewPlan(name)

	if len(stack.Methods) > 0 {
		methods, err := gateway.ParseMethods(stack.Methods)
		if err != nil {
			return ResolvedStack{}, dserrors.ConfigError{
				Field:      fmt.Sprintf("stacks.%s.methods", name),
				Message:    err.Error(),
				Suggestion: "Use HTTP method names: " + strings.Join(gateway.MethodNames(), ", "),
			}
		}
		plan.Methods = methods
	}

	if stack.Throttle != nil {
		if stack.Throttle.BurstLimit > 0 {
			plan.Throttle.BurstLimit = stack.Throttle.BurstLimit
		}
		if stack.Throttle.RateLimit > 0 {
			plan.Throttle.RateLimit = stack.Throttle.RateLimit
		}
	}

	if stack.Quota != nil {
		if stack.Quota.Limit > 0 {
			plan.Quota.Limit = stack.Quota.Limit
		}
		if stack.Quota.Period != "" {
			period, err := gateway.ParsePeriod(stack.Quota.Period)
			if err != nil {
				return ResolvedStack{}, dserrors.ConfigError{
					Field:      fmt.Sprintf("stacks.%s.quota.period", name),
					Value:      stack.Quota.Period,
					Message:    "unknown quota period",
					Suggestion: "Use one of: DAY, WEEK, MONTH",
				}
			}
			plan.Quota.Period = period
		}
	}

	rs.Plan = plan
	return rs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
