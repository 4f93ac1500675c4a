package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePolicy()
	c.normalizeProwlarr()
	c.normalizeOpenLibrary()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizePolicy() {
	c.Policy.Endpoint = strings.TrimRight(strings.TrimSpace(c.Policy.Endpoint), "/")
	if c.Policy.TTLSeconds <= 0 {
		c.Policy.TTLSeconds = defaultPolicyTTLSeconds
	}
	normalized := make(map[string]string, len(c.Policy.Defaults))
	for contentType, mode := range c.Policy.Defaults {
		normalized[normalizeKey(contentType)] = normalizeKey(mode)
	}
	c.Policy.Defaults = normalized
	for i := range c.Policy.Rules {
		c.Policy.Rules[i].Source = normalizeKey(c.Policy.Rules[i].Source)
		c.Policy.Rules[i].ContentType = normalizeKey(c.Policy.Rules[i].ContentType)
		c.Policy.Rules[i].Mode = normalizeKey(c.Policy.Rules[i].Mode)
	}
	for i := range c.Policy.SourceModes {
		sm := &c.Policy.SourceModes[i]
		sm.Source = normalizeKey(sm.Source)
		for j := range sm.SupportedContentTypes {
			sm.SupportedContentTypes[j] = normalizeKey(sm.SupportedContentTypes[j])
		}
		modes := make(map[string]string, len(sm.Modes))
		for contentType, mode := range sm.Modes {
			modes[normalizeKey(contentType)] = normalizeKey(mode)
		}
		sm.Modes = modes
	}
}

func (c *Config) normalizeProwlarr() {
	c.Prowlarr.URL = strings.TrimRight(strings.TrimSpace(c.Prowlarr.URL), "/")
	c.Prowlarr.APIKey = strings.TrimSpace(c.Prowlarr.APIKey)
}

func (c *Config) normalizeOpenLibrary() {
	c.OpenLibrary.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenLibrary.BaseURL), "/")
	if c.OpenLibrary.BaseURL == "" {
		c.OpenLibrary.BaseURL = defaultOpenLibraryBaseURL
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.MaxActiveDownloads <= 0 {
		c.Workflow.MaxActiveDownloads = defaultMaxActiveDownloads
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
