// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads quotasync configuration.
//
// Configuration comes from a single YAML file named by either the
// QUOTASYNC_CONFIG environment variable or the --config flag. There is
// no automatic discovery and no environment-variable overrides: the
// file is the whole truth, which keeps runs reproducible and
// auditable.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quotasync/quotasync/lib/blockfile"
	"github.com/quotasync/quotasync/lib/reconcile"
)

// Config is the full quotasync configuration.
type Config struct {
	// Device is the printer whose account directory is reconciled.
	Device DeviceConfig `yaml:"device"`

	// Regions lists the account code ranges under management, as
	// "low-high" strings (or single codes). Accounts and identities
	// with codes outside every region are never touched.
	Regions []string `yaml:"regions"`

	// ValidGroups names the groups whose members get accounts. An
	// identity must belong to at least one of them.
	ValidGroups []string `yaml:"valid_groups"`

	// HookCommand is run via "sh -c" after a run that changed the
	// directory. Empty disables the hook.
	HookCommand string `yaml:"hook_command"`

	// Identity configures the local identity source.
	Identity IdentityConfig `yaml:"identity"`

	// Ledger configures the usage snapshot store. An empty path
	// disables snapshotting; destructive decisions then proceed
	// without archiving counters.
	Ledger LedgerConfig `yaml:"ledger"`

	// Artifacts lists the template files whose generated account
	// blocks are rewritten after reconciliation.
	Artifacts []ArtifactConfig `yaml:"artifacts"`

	// Simulate reports every decision without mutating the device,
	// the ledger, or any artifact file.
	Simulate bool `yaml:"simulate"`
}

// DeviceConfig identifies and authenticates the printer.
type DeviceConfig struct {
	// Host is the printer's hostname or IP address. Required.
	Host string `yaml:"host"`

	// Port is the HTTP port of the maintenance interface. Default 80.
	Port int `yaml:"port"`

	// Credential is the maintenance authorization secret, 3 to 8
	// bytes. Required.
	Credential string `yaml:"credential"`

	// RetryBusy retries requests the device rejects as busy instead of
	// failing them.
	RetryBusy bool `yaml:"retry_busy"`
}

// IdentityConfig locates the passwd/group style identity files.
type IdentityConfig struct {
	// PasswdFile defaults to /etc/passwd.
	PasswdFile string `yaml:"passwd_file"`

	// GroupFile defaults to /etc/group.
	GroupFile string `yaml:"group_file"`
}

// LedgerConfig locates the snapshot database.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// ArtifactConfig is one template file to patch.
type ArtifactConfig struct {
	// Path is the file to rewrite in place.
	Path string `yaml:"path"`

	// Markers delimit the generated block inside the file.
	Markers blockfile.Markers `yaml:"markers"`
}

// Default returns the configuration base that the file is merged
// onto. The file itself is still required.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{Port: 80},
		Identity: IdentityConfig{
			PasswdFile: "/etc/passwd",
			GroupFile:  "/etc/group",
		},
	}
}

// Load reads the file named by QUOTASYNC_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv("QUOTASYNC_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("QUOTASYNC_CONFIG environment variable not set; " +
			"set it to the path of your quotasync.yaml config file, or use --config")
	}
	return LoadFile(path)
}

// LoadFile reads and parses a specific configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration, collecting every problem instead
// of stopping at the first.
func (c *Config) Validate() error {
	var errs []error

	if c.Device.Host == "" {
		errs = append(errs, fmt.Errorf("device.host is required"))
	}
	if c.Device.Port <= 0 || c.Device.Port > 65535 {
		errs = append(errs, fmt.Errorf("device.port %d out of range", c.Device.Port))
	}
	if n := len(c.Device.Credential); n < 3 || n > 8 {
		errs = append(errs, fmt.Errorf("device.credential must be 3 to 8 bytes, got %d", n))
	}

	if len(c.Regions) == 0 {
		errs = append(errs, fmt.Errorf("at least one region is required"))
	}
	for _, region := range c.Regions {
		if _, err := reconcile.ParseRegion(region); err != nil {
			errs = append(errs, err)
		}
	}

	if len(c.ValidGroups) == 0 {
		errs = append(errs, fmt.Errorf("at least one valid group is required"))
	}

	if c.Identity.PasswdFile == "" {
		errs = append(errs, fmt.Errorf("identity.passwd_file is required"))
	}
	if c.Identity.GroupFile == "" {
		errs = append(errs, fmt.Errorf("identity.group_file is required"))
	}

	for i, artifact := range c.Artifacts {
		if artifact.Path == "" {
			errs = append(errs, fmt.Errorf("artifacts[%d].path is required", i))
		}
		if err := artifact.Markers.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("artifacts[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// ParsedRegions returns the configured regions in parsed form. Call
// Validate first; parse errors here are reported as a single error.
func (c *Config) ParsedRegions() ([]reconcile.Region, error) {
	regions := make([]reconcile.Region, 0, len(c.Regions))
	for _, raw := range c.Regions {
		region, err := reconcile.ParseRegion(raw)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, nil
}
