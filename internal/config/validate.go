package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownModes = map[string]struct{}{
	"download":        {},
	"request_release": {},
	"request_book":    {},
	"blocked":         {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePolicy(); err != nil {
		return err
	}
	if err := c.validateProwlarr(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePolicy() error {
	for contentType, mode := range c.Policy.Defaults {
		if err := validateMode(mode); err != nil {
			return fmt.Errorf("policy.defaults[%s]: %w", contentType, err)
		}
	}
	for i, rule := range c.Policy.Rules {
		if strings.TrimSpace(rule.ContentType) == "" {
			return fmt.Errorf("policy.rules[%d]: content_type must be set", i)
		}
		if err := validateMode(rule.Mode); err != nil {
			return fmt.Errorf("policy.rules[%d]: %w", i, err)
		}
	}
	for i, sm := range c.Policy.SourceModes {
		if strings.TrimSpace(sm.Source) == "" {
			return fmt.Errorf("policy.source_modes[%d]: source must be set", i)
		}
		for contentType, mode := range sm.Modes {
			if err := validateMode(mode); err != nil {
				return fmt.Errorf("policy.source_modes[%d].modes[%s]: %w", i, contentType, err)
			}
		}
	}
	return nil
}

func (c *Config) validateProwlarr() error {
	if !c.Prowlarr.Enabled {
		return nil
	}
	if c.Prowlarr.URL == "" {
		return errors.New("prowlarr.url must be set when prowlarr.enabled is true")
	}
	if c.Prowlarr.APIKey == "" {
		return errors.New("prowlarr.api_key must be set when prowlarr.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}

func validateMode(mode string) error {
	if _, ok := knownModes[mode]; !ok {
		return fmt.Errorf("unknown mode %q", mode)
	}
	return nil
}
